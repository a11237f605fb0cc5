package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RoomLoad/internal/model"
)

func TestRenderLoadChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderLoadChart(&buf, buildTestResult(), testOptions()))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Room Loads")
	assert.Contains(t, html, "OFFICE_1")
	assert.Contains(t, html, "Load by Room Type")
}

func TestRenderLoadChart_FailedResult(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderLoadChart(&buf, model.Result{Success: false}, DefaultOptions()))
	assert.Zero(t, buf.Len())
}

func TestWriteLoadChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.html")
	require.NoError(t, WriteLoadChart(path, buildTestResult(), DefaultOptions()))
	assertNonEmptyFile(t, path, 500)
}
