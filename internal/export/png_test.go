package export

import (
	"bytes"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RoomLoad/internal/model"
)

func TestWriteFloorPlanPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.png")
	require.NoError(t, WriteFloorPlanPNG(path, buildTestResult(), testOptions()))
	assertNonEmptyFile(t, path, 1000)
}

func TestRenderFloorPlanPNG_DecodesAsPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderFloorPlanPNG(&buf, buildTestResult(), DefaultOptions()))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy(), "9 x 5 m plan is landscape")
}

func TestFloorPlan_RequiresOutlines(t *testing.T) {
	result := buildTestResult()
	for i := range result.Rooms {
		result.Rooms[i].Outline = nil
	}
	_, err := FloorPlan(result, DefaultOptions())
	assert.Error(t, err)
}

func TestPlanSize_ClampsAspect(t *testing.T) {
	tall := []model.Room{{Outline: rect(0, 0, 1, 50)}}
	w, h := planSize(tall)
	assert.Equal(t, planWidth, w)
	assert.InDelta(t, float64(planWidth)*2, float64(h), 1e-9)
}
