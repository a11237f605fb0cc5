package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// jsonEntity is one element of a pre-parsed entity stream, as produced by
// browser-side DXF parsers.
type jsonEntity struct {
	Type       string            `json:"type"`
	Handle     json.RawMessage   `json:"handle"`
	Layer      string            `json:"layer"`
	Text       *string           `json:"text"`
	Position   json.RawMessage   `json:"position"`
	StartPoint json.RawMessage   `json:"startPoint"`
	Vertices   []json.RawMessage `json:"vertices"`
}

type jsonPoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// ReadEntitiesFile reads a JSON entity stream from disk.
func ReadEntitiesFile(path string) ([]model.DrawingEntity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open entity file: %w", err)
	}
	return DecodeEntities(bytes.NewReader(data))
}

// DecodeEntities reads either a bare JSON array of entities or an object with
// an "entities" array. Entities with missing or unreadable fields are kept so
// the extractor can record why they were skipped.
func DecodeEntities(r io.Reader) ([]model.DrawingEntity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cannot read entity stream: %w", err)
	}

	var raw []jsonEntity
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc struct {
			Entities []jsonEntity `json:"entities"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("cannot parse entity stream: %w", err)
		}
		raw = doc.Entities
	} else if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("cannot parse entity stream: %w", err)
	}

	out := make([]model.DrawingEntity, 0, len(raw))
	for _, je := range raw {
		out = append(out, je.toModel())
	}
	return out, nil
}

func (je jsonEntity) toModel() model.DrawingEntity {
	typ := strings.ToUpper(strings.TrimSpace(je.Type))
	de := model.DrawingEntity{Type: typ, Handle: rawString(je.Handle), Layer: je.Layer}

	switch typ {
	case "TEXT", "MTEXT":
		de.Kind = model.EntityText
		if typ == "MTEXT" {
			de.Kind = model.EntityMText
		}
		de.Text = je.Text
		pos := je.Position
		if isAbsent(pos) {
			pos = je.StartPoint
		}
		de.Position = decodePosition(pos)

	case "LWPOLYLINE", "POLYLINE":
		de.Kind = model.EntityPolyline
		de.Vertices = decodeVertices(je.Vertices)

	case "LINE":
		de.Kind = model.EntityLine
		de.Vertices = decodeVertices(je.Vertices)

	default:
		de.Kind = model.EntityOther
	}
	return de
}

// decodePosition returns nil when the point is absent and a NaN point when it
// is present but unreadable.
func decodePosition(raw json.RawMessage) *model.Point2D {
	if isAbsent(raw) {
		return nil
	}
	p, ok := decodePoint(raw)
	if !ok {
		return &model.Point2D{X: math.NaN(), Y: math.NaN()}
	}
	return &p
}

func decodeVertices(raw []json.RawMessage) []model.Point2D {
	vertices := make([]model.Point2D, 0, len(raw))
	for _, r := range raw {
		p, ok := decodePoint(r)
		if !ok {
			p = model.Point2D{X: math.NaN(), Y: math.NaN()}
		}
		vertices = append(vertices, p)
	}
	return vertices
}

func decodePoint(raw json.RawMessage) (model.Point2D, bool) {
	var jp jsonPoint
	if err := json.Unmarshal(raw, &jp); err != nil || jp.X == nil || jp.Y == nil {
		return model.Point2D{}, false
	}
	return model.Point2D{X: *jp.X, Y: *jp.Y}, true
}

func isAbsent(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) == 0 || bytes.Equal(s, []byte("null"))
}

// rawString accepts handles written either as strings or numbers.
func rawString(raw json.RawMessage) string {
	if isAbsent(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
