// Package engine turns extracted drawing geometry into rooms with estimated
// electrical loads.
package engine

import (
	"sort"
	"strings"

	"github.com/piwi3910/RoomLoad/internal/geometry"
	"github.com/piwi3910/RoomLoad/internal/model"
)

// UnknownRoomName is the name given to polygons that contain no label.
const UnknownRoomName = "UNKNOWN"

// ResolvedRoom is a candidate polygon with the name and type assigned by
// the resolver. IDs run 1..N in processing order.
type ResolvedRoom struct {
	ID      int
	Polygon model.CandidatePolygon
	Name    string
	Type    string
	Anchor  *model.Point2D // Nil when no label matched
}

// Resolution is the outcome of matching polygons against labels.
type Resolution struct {
	Rooms   []ResolvedRoom
	Dropped []model.DroppedBoundary
}

// Resolver assigns labels to polygons.
type Resolver struct {
	OuterBoundaryArea float64
}

func NewResolver(settings model.Settings) *Resolver {
	return &Resolver{OuterBoundaryArea: settings.OuterBoundaryArea}
}

// Resolve processes polygons smallest first. Each polygon takes the first
// label, in collection order, whose anchor lies strictly inside it. Unlabelled
// polygons become UNKNOWN rooms of type DEFAULT, unless their area exceeds
// OuterBoundaryArea, in which case they are dropped as building envelopes.
// The input slice is not reordered.
func (r *Resolver) Resolve(polygons []model.CandidatePolygon, labels []model.Label) Resolution {
	sorted := make([]model.CandidatePolygon, len(polygons))
	copy(sorted, polygons)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Area < sorted[j].Area
	})

	var res Resolution
	for _, p := range sorted {
		region := geometry.NewRegion(p)

		var match *model.Label
		for i := range labels {
			if region.ContainsStrict(labels[i].Anchor) {
				match = &labels[i]
				break
			}
		}

		room := ResolvedRoom{Polygon: p}
		if match != nil {
			anchor := match.Anchor
			room.Name = match.Text
			room.Type = TypeCode(match.Text)
			room.Anchor = &anchor
		} else {
			if p.Area > r.OuterBoundaryArea {
				res.Dropped = append(res.Dropped, model.DroppedBoundary{
					Source: p.Source,
					Area:   p.Area,
					Reason: model.DropOuterBoundary,
				})
				continue
			}
			room.Name = UnknownRoomName
			room.Type = model.DefaultRoomType
		}

		room.ID = len(res.Rooms) + 1
		res.Rooms = append(res.Rooms, room)
	}
	return res
}

// TypeCode returns the label text before the first "_" or " ", or the whole
// text when neither occurs.
func TypeCode(text string) string {
	if idx := strings.IndexAny(text, "_ "); idx >= 0 {
		return text[:idx]
	}
	return text
}
