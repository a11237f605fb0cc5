package model

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// Point2D represents a 2D coordinate in drawing units (meters).
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Orb converts the point to an orb.Point.
func (p Point2D) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// Outline is an ordered sequence of 2D points describing a polygon ring.
type Outline []Point2D

// BoundingBox returns the min and max corners of the outline.
func (o Outline) BoundingBox() (min, max Point2D) {
	if len(o) == 0 {
		return Point2D{}, Point2D{}
	}
	min = Point2D{X: o[0].X, Y: o[0].Y}
	max = Point2D{X: o[0].X, Y: o[0].Y}
	for _, p := range o[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Translate shifts all points by dx, dy.
func (o Outline) Translate(dx, dy float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p.X + dx, Y: p.Y + dy}
	}
	return result
}

// Closed reports whether the first and last points are exactly equal.
func (o Outline) Closed() bool {
	return len(o) > 1 && o[0] == o[len(o)-1]
}

// Ring converts the outline to an orb.Ring without altering closure.
func (o Outline) Ring() orb.Ring {
	ring := make(orb.Ring, len(o))
	for i, p := range o {
		ring[i] = p.Orb()
	}
	return ring
}

// EntityKind tags the variant carried by a DrawingEntity.
type EntityKind int

const (
	EntityOther    EntityKind = iota // Unsupported source entity, dropped on extraction
	EntityText                       // Single-line TEXT
	EntityMText                      // Multi-line MTEXT
	EntityPolyline                   // LWPOLYLINE or POLYLINE
	EntityLine                       // Loose LINE segment
)

func (k EntityKind) String() string {
	switch k {
	case EntityText:
		return "TEXT"
	case EntityMText:
		return "MTEXT"
	case EntityPolyline:
		return "POLYLINE"
	case EntityLine:
		return "LINE"
	default:
		return "OTHER"
	}
}

// DrawingEntity is a parser-neutral view of one CAD entity.
// Text and Position are nil when the source entity lacks them.
type DrawingEntity struct {
	Kind     EntityKind
	Type     string // Source type tag as reported by the parser
	Handle   string
	Layer    string
	Text     *string
	Position *Point2D
	Vertices []Point2D
}

// Label is a normalized text annotation anchored at a point.
type Label struct {
	Text   string  `json:"text"`
	Anchor Point2D `json:"anchor"`
}

// CandidatePolygon is a validated closed ring with its planar area.
type CandidatePolygon struct {
	Vertices Outline `json:"vertices"`
	Area     float64 `json:"area"`
	Source   int     `json:"source"` // Index of the boundary candidate it was built from
}

// Room is a resolved, labelled polygon with its estimated loads.
type Room struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Area         float64 `json:"area"`
	LightingLoad float64 `json:"lightingLoad"`
	SocketsLoad  float64 `json:"socketsLoad"`
	TotalLoad    float64 `json:"totalLoad"`

	Outline Outline  `json:"-"` // Closed ring, kept for renderers
	Anchor  *Point2D `json:"-"` // Anchor of the matched label, nil for UNKNOWN rooms
}

// Result is the outcome of one pipeline run.
type Result struct {
	Success   bool    `json:"success"`
	Rooms     []Room  `json:"rooms"`
	TotalLoad float64 `json:"totalLoad"`
	Timestamp string  `json:"timestamp"`
	Error     string  `json:"error,omitempty"`

	Diagnostics Diagnostics `json:"-"`
}

type successPayload struct {
	Success   bool    `json:"success"`
	Rooms     []Room  `json:"rooms"`
	TotalLoad float64 `json:"totalLoad"`
	Timestamp string  `json:"timestamp"`
}

type failurePayload struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// MarshalJSON emits the success shape (rooms always an array) or the
// failure shape (error and timestamp only).
func (r Result) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(failurePayload{Success: false, Error: r.Error, Timestamp: r.Timestamp})
	}
	rooms := r.Rooms
	if rooms == nil {
		rooms = []Room{}
	}
	return json.Marshal(successPayload{
		Success:   true,
		Rooms:     rooms,
		TotalLoad: r.TotalLoad,
		Timestamp: r.Timestamp,
	})
}

// RoomCount returns the number of rooms in a successful result.
func (r Result) RoomCount() int {
	return len(r.Rooms)
}
