package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/piwi3910/RoomLoad/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func testProcessor() *Processor {
	return NewProcessor(model.DefaultLoadFactorTable(), model.DefaultSettings(), zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })
}

func rectEntity(x, y, w, h float64) model.DrawingEntity {
	return model.DrawingEntity{
		Kind: model.EntityPolyline,
		Type: "LWPOLYLINE",
		Vertices: []model.Point2D{
			{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h},
		},
	}
}

func textEntity(text string, x, y float64) model.DrawingEntity {
	return model.DrawingEntity{Kind: model.EntityText, Type: "TEXT", Text: &text, Position: &model.Point2D{X: x, Y: y}}
}

var ignoreGeometry = cmpopts.IgnoreFields(model.Room{}, "Outline", "Anchor")

// ─── Pipeline Property Tests ───────────────────────────────

func TestProcess_OfficeLoadArithmetic(t *testing.T) {
	result := testProcessor().ProcessEntities([]model.DrawingEntity{
		rectEntity(0, 0, 5, 2),
		textEntity("OFFICE_1", 2, 1),
	})

	require.True(t, result.Success)
	want := []model.Room{{
		ID: 1, Name: "OFFICE_1", Type: "OFFICE", Area: 10,
		LightingLoad: 100, SocketsLoad: 250, TotalLoad: 350,
	}}
	if diff := cmp.Diff(want, result.Rooms, ignoreGeometry); diff != "" {
		t.Errorf("rooms mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 350.0, result.TotalLoad)
	assert.Equal(t, "2026-03-01T09:30:00.000Z", result.Timestamp)
}

func TestProcess_TypeFallback(t *testing.T) {
	result := testProcessor().ProcessEntities([]model.DrawingEntity{
		rectEntity(0, 0, 5, 2),
		textEntity("xyzroom_1", 1, 1),
	})

	require.Len(t, result.Rooms, 1)
	room := result.Rooms[0]
	assert.Equal(t, "XYZROOM_1", room.Name)
	assert.Equal(t, "XYZROOM", room.Type)
	assert.Equal(t, 80.0, room.LightingLoad)
	assert.Equal(t, 150.0, room.SocketsLoad)
}

func TestProcess_OrderingBySmallestArea(t *testing.T) {
	// The 40 m² room comes first in the source stream
	result := testProcessor().ProcessEntities([]model.DrawingEntity{
		rectEntity(10, 0, 8, 5),
		textEntity("LIVING_1", 12, 2),
		rectEntity(0, 0, 4, 3),
		textEntity("BEDROOM_1", 1, 1),
	})

	want := []model.Room{
		{ID: 1, Name: "BEDROOM_1", Type: "BEDROOM", Area: 12, LightingLoad: 96, SocketsLoad: 240, TotalLoad: 336},
		{ID: 2, Name: "LIVING_1", Type: "LIVING", Area: 40, LightingLoad: 360, SocketsLoad: 880, TotalLoad: 1240},
	}
	if diff := cmp.Diff(want, result.Rooms, ignoreGeometry); diff != "" {
		t.Errorf("rooms mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1576.0, result.TotalLoad)
}

func TestProcess_EmptyBuilding(t *testing.T) {
	result := testProcessor().ProcessEntities(nil)

	assert.True(t, result.Success)
	assert.Empty(t, result.Rooms)
	assert.Equal(t, 0.0, result.TotalLoad)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"rooms":[],"totalLoad":0,"timestamp":"2026-03-01T09:30:00.000Z"}`, string(data))
}

func TestProcess_AreaFilters(t *testing.T) {
	result := testProcessor().ProcessEntities([]model.DrawingEntity{
		rectEntity(0, 0, 0.5, 0.5),     // furniture
		rectEntity(200, 200, 100, 100), // unlabelled envelope, 10000 m²
		rectEntity(0, 10, 3, 3),        // unlabelled small room
		rectEntity(20, 20, 4, 4),       // labelled room
		textEntity("KITCHEN", 22, 22),
	})

	require.True(t, result.Success)
	require.Len(t, result.Rooms, 2)
	assert.Equal(t, UnknownRoomName, result.Rooms[0].Name)
	assert.Equal(t, model.DefaultRoomType, result.Rooms[0].Type)
	assert.Equal(t, "KITCHEN", result.Rooms[1].Name)

	for _, r := range result.Rooms {
		assert.Greater(t, r.Area, 1.0)
		assert.True(t, r.Outline.Closed(), "room outline must be closed")
		if r.Name == UnknownRoomName {
			assert.LessOrEqual(t, r.Area, 5000.0)
		}
	}

	diag := result.Diagnostics
	require.Len(t, diag.RejectedPolygons, 1)
	assert.Equal(t, model.RejectBelowMinArea, diag.RejectedPolygons[0].Reason)
	assert.Equal(t, 0, diag.RejectedPolygons[0].Source)
	require.Len(t, diag.DroppedBoundaries, 1)
	assert.Equal(t, 1, diag.DroppedBoundaries[0].Source)
	assert.Equal(t, 10000.0, diag.DroppedBoundaries[0].Area)
}

func TestProcess_LabelledEnvelopeIsKept(t *testing.T) {
	// First-match: the envelope takes the first label inside it, even though
	// that label already named a smaller room.
	result := testProcessor().ProcessEntities([]model.DrawingEntity{
		rectEntity(0, 0, 100, 100),
		rectEntity(10, 10, 4, 4),
		textEntity("OFFICE_1", 12, 12),
	})

	require.Len(t, result.Rooms, 2)
	assert.Equal(t, "OFFICE_1", result.Rooms[0].Name)
	assert.Equal(t, "OFFICE_1", result.Rooms[1].Name)
	assert.Equal(t, 10000.0, result.Rooms[1].Area)
}

func TestProcess_Deterministic(t *testing.T) {
	entities := []model.DrawingEntity{
		rectEntity(0, 0, 10, 10),
		textEntity("OFFICE_A", 2, 2),
		textEntity("LAB_B", 8, 8),
		rectEntity(20, 0, 3, 3),
		rectEntity(30, 0, 3, 3),
		textEntity("TOILET 1", 31, 1),
	}

	p := testProcessor()
	first := p.ProcessEntities(entities)
	for i := 0; i < 5; i++ {
		again := p.ProcessEntities(entities)
		if diff := cmp.Diff(first.Rooms, again.Rooms); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
	assert.Equal(t, "OFFICE_A", first.Rooms[2].Name, "first label in collection order wins")
	assert.Equal(t, "TOILET", first.Rooms[1].Type)
}

func TestProcess_EqualAreasKeepSourceOrder(t *testing.T) {
	result := testProcessor().ProcessEntities([]model.DrawingEntity{
		rectEntity(0, 0, 3, 3),
		textEntity("A", 1, 1),
		rectEntity(10, 0, 3, 3),
		textEntity("B", 11, 1),
	})

	require.Len(t, result.Rooms, 2)
	assert.Equal(t, "A", result.Rooms[0].Name)
	assert.Equal(t, "B", result.Rooms[1].Name)
}

func TestProcess_AggregateTotal(t *testing.T) {
	result := testProcessor().ProcessEntities([]model.DrawingEntity{
		rectEntity(0, 0, 3.33, 3.17),
		textEntity("OFFICE", 1, 1),
		rectEntity(10, 0, 2.71, 4.13),
		textEntity("KITCHEN", 11, 1),
		rectEntity(20, 0, 5.55, 1.91),
	})

	require.Len(t, result.Rooms, 3)
	assert.InDelta(t, SumTotals(result.Rooms), result.TotalLoad, 0.01*float64(len(result.Rooms)))
}

func TestProcess_SkipsAreObservable(t *testing.T) {
	entities := []model.DrawingEntity{
		{Kind: model.EntityText, Type: "TEXT", Position: &model.Point2D{X: 1, Y: 1}},
		{Kind: model.EntityOther, Type: "CIRCLE"},
		{Kind: model.EntityPolyline, Type: "LWPOLYLINE", Vertices: []model.Point2D{{X: 0, Y: 0}, {X: 4, Y: 4}, {X: 4, Y: 0}, {X: 0, Y: 4}}},
		{Kind: model.EntityLine, Type: "LINE", Vertices: []model.Point2D{{X: 0, Y: 0}, {X: 1, Y: 0}}},
	}
	result := testProcessor().ProcessEntities(entities)

	require.True(t, result.Success)
	assert.Empty(t, result.Rooms)

	skips := result.Diagnostics.SkippedEntities
	require.Len(t, skips, 3)
	assert.Equal(t, model.SkipMissingText, skips[0].Reason)
	assert.Equal(t, model.SkipUnsupported, skips[1].Reason)
	assert.Equal(t, 3, skips[2].Index)

	require.Len(t, result.Diagnostics.RejectedPolygons, 1)
	assert.Equal(t, model.RejectSelfIntersecting, result.Diagnostics.RejectedPolygons[0].Reason)
}

func TestProcess_ChainLines(t *testing.T) {
	line := func(x1, y1, x2, y2 float64) model.DrawingEntity {
		return model.DrawingEntity{Kind: model.EntityLine, Type: "LINE", Vertices: []model.Point2D{{X: x1, Y: y1}, {X: x2, Y: y2}}}
	}
	entities := []model.DrawingEntity{
		line(0, 0, 5, 0),
		line(5, 0, 5, 4),
		line(5, 4, 0, 4),
		line(0, 4, 0, 0),
		textEntity("LIVING", 2, 2),
	}

	plain := testProcessor().ProcessEntities(entities)
	assert.Empty(t, plain.Rooms)
	assert.Len(t, plain.Diagnostics.SkippedEntities, 4)

	settings := model.DefaultSettings()
	settings.ChainLines = true
	chained := NewProcessor(model.DefaultLoadFactorTable(), settings, nil).ProcessEntities(entities)
	require.Len(t, chained.Rooms, 1)
	assert.Equal(t, 20.0, chained.Rooms[0].Area)
	assert.Equal(t, "LIVING", chained.Rooms[0].Type)
	assert.Empty(t, chained.Diagnostics.SkippedEntities)
}

func TestProcess_CustomTable(t *testing.T) {
	table, err := model.NewLoadFactorTable(map[string]model.LoadFactors{
		"DEFAULT": {Lighting: 1, Sockets: 1},
		"LAB":     {Lighting: 20, Sockets: 50},
	})
	require.NoError(t, err)

	result := NewProcessor(table, model.DefaultSettings(), nil).ProcessEntities([]model.DrawingEntity{
		rectEntity(0, 0, 2, 2),
		textEntity("LAB_3", 1, 1),
	})
	require.Len(t, result.Rooms, 1)
	assert.Equal(t, 280.0, result.Rooms[0].TotalLoad)
}

func TestProcess_LoadOverflowIsAFailure(t *testing.T) {
	// 9e306 m² is a finite area, but its socket load is not.
	result := testProcessor().ProcessEntities([]model.DrawingEntity{
		rectEntity(0, 0, 3e153, 3e153),
		textEntity("OFFICE_1", 1, 1),
	})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "out of range")
	_, err := json.Marshal(result)
	assert.NoError(t, err)
}

// ─── File Input Tests ──────────────────────────────────────

func TestProcessFile_Nonexistent(t *testing.T) {
	result := testProcessor().ProcessFile("/nonexistent/floor.dxf")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	_, err := time.Parse(TimestampLayout, result.Timestamp)
	assert.NoError(t, err)
	assert.Empty(t, result.Rooms)
}

func TestProcessFile_EntityStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	stream := `[
		{"type":"LWPOLYLINE","vertices":[{"x":0,"y":0},{"x":5,"y":0},{"x":5,"y":2},{"x":0,"y":2}]},
		{"type":"MTEXT","text":"{\\fArial;office_9}","position":{"x":1,"y":1}}
	]`
	require.NoError(t, os.WriteFile(path, []byte(stream), 0644))

	result := testProcessor().ProcessFile(path)
	require.True(t, result.Success, result.Error)
	require.Len(t, result.Rooms, 1)
	assert.Equal(t, "OFFICE_9", result.Rooms[0].Name)
	assert.Equal(t, 350.0, result.Rooms[0].TotalLoad)
}

func TestProcessFile_MalformedStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0644))

	result := testProcessor().ProcessFile(path)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "entity stream")
}

// ─── DXF File Tests ────────────────────────────────────────

// writeDXF writes an ASCII DXF whose ENTITIES section holds the given
// code/value groups.
func writeDXF(t *testing.T, groups ...string) string {
	t.Helper()
	all := append([]string{"0", "SECTION", "2", "ENTITIES"}, groups...)
	all = append(all, "0", "ENDSEC", "0", "EOF")

	var b strings.Builder
	for _, g := range all {
		b.WriteString(g)
		b.WriteString("\n")
	}
	path := filepath.Join(t.TempDir(), "plan.dxf")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

var officeOutline = []string{
	"0", "LWPOLYLINE", "8", "ROOMS", "90", "4", "70", "1",
	"10", "0", "20", "0", "10", "5", "20", "0", "10", "5", "20", "2", "10", "0", "20", "2",
}

func TestProcessFile_DXF(t *testing.T) {
	tests := []struct {
		name   string
		groups [][]string
	}{
		{"text label", [][]string{officeOutline,
			{"0", "TEXT", "10", "2", "20", "1", "40", "0.2", "1", "OFFICE_1"}}},
		{"mtext label", [][]string{officeOutline,
			{"0", "MTEXT", "10", "2", "20", "1", "3", `{\fArial|b1;OFF`, "1", `ICE_1}`}}},
		{"hatch insert and dimension mixed in", [][]string{
			{"0", "HATCH", "2", "SOLID", "70", "1"},
			officeOutline,
			{"0", "INSERT", "2", "DESK", "10", "1", "20", "1"},
			{"0", "DIMENSION", "1", "<>"},
			{"0", "TEXT", "10", "2", "20", "1", "1", "office_1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var groups []string
			for _, g := range tt.groups {
				groups = append(groups, g...)
			}

			result := testProcessor().ProcessFile(writeDXF(t, groups...))
			require.True(t, result.Success, result.Error)
			require.Len(t, result.Rooms, 1)
			assert.Equal(t, "OFFICE_1", result.Rooms[0].Name)
			assert.Equal(t, "OFFICE", result.Rooms[0].Type)
			assert.Equal(t, 10.0, result.Rooms[0].Area)
			assert.Equal(t, 350.0, result.TotalLoad)
		})
	}
}

func TestProcessFile_OldStylePolylineDXF(t *testing.T) {
	path := writeDXF(t,
		"0", "POLYLINE", "66", "1", "70", "1",
		"0", "VERTEX", "10", "0", "20", "0",
		"0", "VERTEX", "10", "5", "20", "0",
		"0", "VERTEX", "10", "5", "20", "2",
		"0", "VERTEX", "10", "0", "20", "2",
		"0", "SEQEND",
		"0", "MTEXT", "10", "1", "20", "1", "1", "KITCHEN_2",
	)

	result := testProcessor().ProcessFile(path)
	require.True(t, result.Success, result.Error)
	require.Len(t, result.Rooms, 1)
	assert.Equal(t, "KITCHEN_2", result.Rooms[0].Name)
	assert.Equal(t, 500.0, result.TotalLoad)
}

func TestProcessFile_NotADXF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.dxf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a drawing\n"), 0644))

	result := testProcessor().ProcessFile(path)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "cannot open DXF file")
}
