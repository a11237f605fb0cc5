package importer

import (
	"math"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// Segment is a loose LINE entity, kept with its source index so that unused
// lines can be reported.
type Segment struct {
	Start  model.Point2D
	End    model.Point2D
	Index  int
	Handle string
}

// ChainSegments connects loose segments into closed outlines. Two endpoints
// closer than tolerance are treated as the same point. Chains that do not
// return to their starting point are not rooms and are dropped; the indexes
// of their segments are returned in unused.
func ChainSegments(segs []Segment, tolerance float64) (outlines []model.Outline, unused []int) {
	if len(segs) == 0 {
		return nil, nil
	}

	used := make([]bool, len(segs))

	for start := range segs {
		if used[start] {
			continue
		}

		chain := []model.Point2D{segs[start].Start, segs[start].End}
		members := []int{start}
		used[start] = true

		// Try to extend the chain
		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]

			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.Start, tolerance) {
					chain = append(chain, seg.End)
				} else if pointsClose(tail, seg.End, tolerance) {
					chain = append(chain, seg.Start)
				} else {
					continue
				}
				used[i] = true
				members = append(members, i)
				changed = true
				break
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			// Snap the closing point so the ring is closed exactly
			chain[len(chain)-1] = chain[0]
			outlines = append(outlines, model.Outline(chain))
			continue
		}
		for _, m := range members {
			unused = append(unused, segs[m].Index)
		}
	}

	return outlines, unused
}

// pointsClose checks whether two points are within the given tolerance.
func pointsClose(a, b model.Point2D, tolerance float64) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx+dy*dy) <= tolerance
}
