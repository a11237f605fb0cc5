package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/engine"
	"github.com/piwi3910/RoomLoad/internal/model"
	"github.com/piwi3910/RoomLoad/internal/store"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// officeStream is a one-room drawing as a JSON entity stream.
const officeStream = `[
  {"type": "LWPOLYLINE", "handle": "1A", "vertices": [{"x":0,"y":0},{"x":5,"y":0},{"x":5,"y":2},{"x":0,"y":2}]},
  {"type": "TEXT", "handle": "1B", "text": "office_1", "position": {"x":2,"y":1}}
]`

func newTestServer(t *testing.T, withHistory bool) (*Server, string) {
	t.Helper()
	config := model.DefaultAppConfig()
	config.UploadDir = filepath.Join(t.TempDir(), "uploads")
	config.MaxUploadSize = 4096

	processor := engine.NewProcessor(model.DefaultLoadFactorTable(), model.DefaultSettings(), zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })

	var runs *store.Store
	if withHistory {
		var err error
		runs, err = store.Open(":memory:", nil)
		require.NoError(t, err)
		t.Cleanup(func() { runs.Close() })
	}

	s, err := New(config, processor, runs, zap.NewNop())
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s, config.UploadDir
}

func uploadRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/process-dxf", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func assertUploadDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "uploads must be removed after processing")
}

// ─── Health & Routing Tests ────────────────────────────────

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, false)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2026-03-01T09:30:00.000Z", body["timestamp"])
	assert.Equal(t, false, body["history"])
}

func TestNotFound(t *testing.T) {
	s, _ := newTestServer(t, false)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Cannot GET /api/nope", body["message"])
}

func TestFactors(t *testing.T) {
	s, _ := newTestServer(t, false)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/factors", nil))
	require.NoError(t, err)
	body := decodeBody(t, resp)
	assert.Contains(t, body, "OFFICE")
	assert.Contains(t, body, model.DefaultRoomType)
}

// ─── Upload Tests ──────────────────────────────────────────

func TestProcess_EntityStream(t *testing.T) {
	s, dir := newTestServer(t, false)

	resp, err := s.App().Test(uploadRequest(t, "file", "level1.json", officeStream))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(RunIDHeader), "no history, no run id")

	defer resp.Body.Close()
	var result model.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	require.Len(t, result.Rooms, 1)
	assert.Equal(t, "OFFICE_1", result.Rooms[0].Name)
	assert.Equal(t, 350.0, result.TotalLoad)
	assert.Equal(t, "2026-03-01T09:30:00.000Z", result.Timestamp)

	assertUploadDirEmpty(t, dir)
}

func TestProcess_UnreadableDrawingIsStillOK(t *testing.T) {
	s, dir := newTestServer(t, false)

	resp, err := s.App().Test(uploadRequest(t, "file", "broken.json", "{not json"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
	assert.NotContains(t, body, "rooms")

	assertUploadDirEmpty(t, dir)
}

func TestProcess_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		filename string
		content  string
		wantErr  string
	}{
		{"no file", "other", "a.dxf", "x", "No file uploaded"},
		{"wrong extension", "file", "plan.pdf", "x", "Only .dxf, .json files are allowed"},
		{"too large", "file", "big.dxf", string(make([]byte, 5000)), "File too large. Maximum size is 0.00390625MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dir := newTestServer(t, false)

			resp, err := s.App().Test(uploadRequest(t, tt.field, tt.filename, tt.content))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantErr, body["error"])
			assertUploadDirEmpty(t, dir)
		})
	}
}

// ─── History Tests ─────────────────────────────────────────

func TestRuns_Disabled(t *testing.T) {
	s, _ := newTestServer(t, false)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRuns_RecordedAndServed(t *testing.T) {
	s, _ := newTestServer(t, true)
	app := s.App()

	resp, err := app.Test(uploadRequest(t, "file", "level1.json", officeStream))
	require.NoError(t, err)
	resp.Body.Close()
	runID := resp.Header.Get(RunIDHeader)
	require.NotEmpty(t, runID)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/runs?limit=5", nil))
	require.NoError(t, err)
	var runs []store.Run
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	resp.Body.Close()
	require.Len(t, runs, 1)
	assert.Equal(t, "level1.json", runs[0].Drawing)
	assert.Equal(t, store.SourceHTTP, runs[0].Source)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/runs/"+runID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/chart", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	html, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(html), "OFFICE_1")

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/runs/"+runID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/runs/"+runID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRuns_BadLimit(t *testing.T) {
	s, _ := newTestServer(t, true)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/runs?limit=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunChart_FailedRun(t *testing.T) {
	s, _ := newTestServer(t, true)

	resp, err := s.App().Test(uploadRequest(t, "file", "broken.json", "{not json"))
	require.NoError(t, err)
	resp.Body.Close()
	runID := resp.Header.Get(RunIDHeader)
	require.NotEmpty(t, runID)

	resp, err = s.App().Test(httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/chart", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
