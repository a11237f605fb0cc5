package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/RoomLoad/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history", "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult() model.Result {
	return model.Result{
		Success: true,
		Rooms: []model.Room{
			{ID: 1, Name: "OFFICE_1", Type: "OFFICE", Area: 10, LightingLoad: 100, SocketsLoad: 250, TotalLoad: 350},
			{ID: 2, Name: "UNKNOWN", Type: "DEFAULT", Area: 2, LightingLoad: 16, SocketsLoad: 30, TotalLoad: 46},
		},
		TotalLoad: 396,
		Timestamp: "2026-03-01T09:30:00.000Z",
	}
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)

	// Running again is a no-op
	require.NoError(t, s.MigrateUp())
}

func TestSaveAndGetRun(t *testing.T) {
	s := openTestStore(t)

	saved, err := s.SaveRun("level1.dxf", SourceCLI, sampleResult())
	require.NoError(t, err)
	_, err = uuid.Parse(saved.ID)
	require.NoError(t, err, "run ids are UUIDs")

	got, err := s.GetRun(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "level1.dxf", got.Drawing)
	assert.Equal(t, SourceCLI, got.Source)
	assert.True(t, got.Success)
	assert.Equal(t, 2, got.RoomCount)
	assert.Equal(t, 396.0, got.TotalLoad)
	assert.Equal(t, sampleResult().Rooms, got.Result.Rooms)
	assert.WithinDuration(t, saved.CreatedAt, got.CreatedAt, time.Microsecond)
}

func TestSaveRun_Failure(t *testing.T) {
	s := openTestStore(t)

	failed := model.Result{Success: false, Error: "cannot open DXF file", Timestamp: "2026-03-01T09:30:00.000Z"}
	saved, err := s.SaveRun("missing.dxf", SourceHTTP, failed)
	require.NoError(t, err)

	got, err := s.GetRun(saved.ID)
	require.NoError(t, err)
	assert.False(t, got.Success)
	assert.Equal(t, "cannot open DXF file", got.Error)
	assert.Equal(t, "cannot open DXF file", got.Result.Error)
	assert.Empty(t, got.Result.Rooms)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.dxf", "b.dxf", "c.dxf"} {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		_, err := s.SaveRun(name, SourceCLI, sampleResult())
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c.dxf", runs[0].Drawing)
	assert.Equal(t, "b.dxf", runs[1].Drawing)
}

func TestListRuns_Empty(t *testing.T) {
	s := openTestStore(t)

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestGetAndDeleteRun_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteRun("does-not-exist"), ErrNotFound)
}

func TestDeleteRun(t *testing.T) {
	s := openTestStore(t)

	saved, err := s.SaveRun("a.dxf", SourceViewer, sampleResult())
	require.NoError(t, err)
	require.NoError(t, s.DeleteRun(saved.ID))

	_, err = s.GetRun(saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.SaveRun("mem.dxf", SourceCLI, sampleResult())
	require.NoError(t, err)
	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
