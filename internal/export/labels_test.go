package export

import (
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	"github.com/piwi3910/RoomLoad/internal/model"
)

func TestExportRoomTags_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.pdf")

	if err := ExportRoomTags(path, buildTestResult(), testOptions()); err != nil {
		t.Fatalf("ExportRoomTags returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 1000)
}

func TestExportRoomTags_EmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.pdf")

	if err := ExportRoomTags(path, model.Result{Success: true}, DefaultOptions()); err == nil {
		t.Fatal("expected error for result without rooms, got nil")
	}
}

func TestExportRoomTags_SecondPage(t *testing.T) {
	result := model.Result{Success: true, Timestamp: "2026-03-01T09:30:00.000Z"}
	for i := 0; i < labelsPerPage+5; i++ {
		result.Rooms = append(result.Rooms, model.Room{ID: i + 1, Name: "A_VERY_LONG_ROOM_NAME_THAT_NEEDS_TRUNCATION", Type: "A", Area: 1.5})
	}
	path := filepath.Join(t.TempDir(), "tags.pdf")

	if err := ExportRoomTags(path, result, DefaultOptions()); err != nil {
		t.Fatalf("ExportRoomTags returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 1000)
}

func TestCollectRoomTags(t *testing.T) {
	tags := CollectRoomTags(buildTestResult(), testOptions())
	if len(tags) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(tags))
	}

	office := tags[1]
	if office.ID != 2 || office.Name != "OFFICE_1" || office.Type != "OFFICE" {
		t.Errorf("unexpected tag identity: %+v", office)
	}
	if office.Total != 700 || math.Abs(office.KVA-0.875) > 1e-9 {
		t.Errorf("tag loads = %v W / %v kVA, want 700 W / 0.875 kVA", office.Total, office.KVA)
	}
	if office.Drawing != "level1.dxf" || office.Timestamp != "2026-03-01T09:30:00.000Z" {
		t.Errorf("tag context not carried: %+v", office)
	}
}

func TestRoomTag_QRPayload(t *testing.T) {
	tag := CollectRoomTags(buildTestResult(), DefaultOptions())[0]

	data, err := json.Marshal(tag)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "name", "type", "area_m2", "total_w", "kva", "timestamp"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("QR payload missing %q: %s", key, data)
		}
	}
	if _, ok := fields["drawing"]; ok {
		t.Error("empty drawing name should be omitted")
	}
}
