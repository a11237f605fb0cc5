// Package geometry turns raw boundary vertex lists into validated room
// polygons and answers point-in-polygon questions about them.
package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// RejectError reports why a vertex list could not become a candidate polygon.
type RejectError struct {
	Reason model.SkipReason
	Area   float64 // Set only for RejectBelowMinArea
}

func (e *RejectError) Error() string {
	if e.Reason == model.RejectBelowMinArea {
		return fmt.Sprintf("polygon rejected: %s (%.4f)", e.Reason, e.Area)
	}
	return fmt.Sprintf("polygon rejected: %s", e.Reason)
}

// BuildPolygon closes the vertex list if needed, checks that it forms a simple
// polygon and computes its area. Rings with area <= minArea are rejected.
// The returned polygon always satisfies first vertex == last vertex.
func BuildPolygon(vertices model.Outline, minArea float64) (model.CandidatePolygon, error) {
	if len(vertices) < 3 {
		return model.CandidatePolygon{}, &RejectError{Reason: model.RejectTooFewVertices}
	}
	for _, v := range vertices {
		if !finite(v.X) || !finite(v.Y) {
			return model.CandidatePolygon{}, &RejectError{Reason: model.RejectNonFinite}
		}
	}

	ring := closeRing(vertices)
	ring = dropRepeats(ring)
	if distinctVertices(ring) < 3 {
		return model.CandidatePolygon{}, &RejectError{Reason: model.RejectDegenerate}
	}
	if selfIntersects(ring) {
		return model.CandidatePolygon{}, &RejectError{Reason: model.RejectSelfIntersecting}
	}

	area := Area(ring)
	if !finite(area) {
		// Finite vertices far apart can still overflow the shoelace sum.
		return model.CandidatePolygon{}, &RejectError{Reason: model.RejectNonFinite}
	}
	if area <= minArea {
		return model.CandidatePolygon{}, &RejectError{Reason: model.RejectBelowMinArea, Area: area}
	}

	return model.CandidatePolygon{Vertices: ring, Area: area}, nil
}

// Area returns the absolute planar area of a ring.
func Area(o model.Outline) float64 {
	if len(o) < 3 {
		return 0
	}
	ring := o.Ring()
	if !o.Closed() {
		ring = append(ring, ring[0])
	}
	return math.Abs(planar.Area(ring))
}

// closeRing copies the vertices and appends the first vertex when the list is
// not already closed by exact coordinate equality.
func closeRing(vertices model.Outline) model.Outline {
	ring := make(model.Outline, len(vertices), len(vertices)+1)
	copy(ring, vertices)
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// dropRepeats removes consecutive duplicate vertices from a closed ring.
// The closing vertex is preserved.
func dropRepeats(ring model.Outline) model.Outline {
	out := make(model.Outline, 0, len(ring))
	for i, p := range ring {
		if i > 0 && i < len(ring)-1 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	// A duplicate right before the closing vertex
	for len(out) > 2 && out[len(out)-2] == out[len(out)-1] {
		out = append(out[:len(out)-2], out[len(out)-1])
	}
	return out
}

func distinctVertices(ring model.Outline) int {
	seen := make(map[model.Point2D]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// selfIntersects reports whether any two edges of the closed ring share a
// point other than the vertex joining adjacent edges, or adjacent edges fold
// back over each other.
func selfIntersects(ring model.Outline) bool {
	n := len(ring) - 1 // number of edges
	for i := 0; i < n; i++ {
		a1, a2 := ring[i].Orb(), ring[i+1].Orb()
		for j := i + 1; j < n; j++ {
			b1, b2 := ring[j].Orb(), ring[j+1].Orb()
			switch {
			case j == i+1:
				if foldsBack(a2, a1, b2) {
					return true
				}
			case i == 0 && j == n-1:
				if foldsBack(a1, a2, b1) {
					return true
				}
			default:
				if segmentsIntersect(a1, a2, b1, b2) {
					return true
				}
			}
		}
	}
	return false
}

// foldsBack reports whether the edges shared-pa and shared-pb are collinear
// and point the same way, forming a zero-width spike.
func foldsBack(shared, pa, pb orb.Point) bool {
	ux, uy := pa[0]-shared[0], pa[1]-shared[1]
	vx, vy := pb[0]-shared[0], pb[1]-shared[1]
	return ux*vy-uy*vx == 0 && ux*vx+uy*vy > 0
}

func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := cross(q1, q2, p1)
	d2 := cross(q1, q2, p2)
	d3 := cross(p1, p2, q1)
	d4 := cross(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(q1, q2, p1)) ||
		(d2 == 0 && onSegment(q1, q2, p2)) ||
		(d3 == 0 && onSegment(p1, p2, q1)) ||
		(d4 == 0 && onSegment(p1, p2, q2))
}

// cross returns the z component of (b-a) x (c-a).
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether c, known to be collinear with a-b, lies within
// the segment's bounding box.
func onSegment(a, b, c orb.Point) bool {
	return math.Min(a[0], b[0]) <= c[0] && c[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= c[1] && c[1] <= math.Max(a[1], b[1])
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
