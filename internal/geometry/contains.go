package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// Region is a candidate polygon prepared for repeated containment tests.
type Region struct {
	Polygon model.CandidatePolygon
	ring    orb.Ring
	bound   orb.Bound
}

// NewRegion prepares a closed candidate polygon for containment queries.
func NewRegion(p model.CandidatePolygon) Region {
	ring := p.Vertices.Ring()
	return Region{Polygon: p, ring: ring, bound: ring.Bound()}
}

// ContainsStrict reports whether pt lies inside the region and not on its
// boundary.
func (r Region) ContainsStrict(pt model.Point2D) bool {
	p := pt.Orb()
	if !r.bound.Contains(p) {
		return false
	}
	for i := 0; i < len(r.ring)-1; i++ {
		a, b := r.ring[i], r.ring[i+1]
		if cross(a, b, p) == 0 && onSegment(a, b, p) {
			return false
		}
	}
	return planar.RingContains(r.ring, p)
}

// ContainsStrict is a convenience wrapper for one-off queries.
func ContainsStrict(p model.CandidatePolygon, pt model.Point2D) bool {
	return NewRegion(p).ContainsStrict(pt)
}
