package model

import "fmt"

// SkipReason explains why an entity or ring did not make it into the pipeline.
type SkipReason int

const (
	SkipUnsupported        SkipReason = iota // Entity type not used for rooms
	SkipMissingText                          // Text entity without usable text
	SkipMissingPosition                      // Text entity without insertion point
	SkipMalformedPosition                    // Insertion point is NaN or infinite
	RejectTooFewVertices                     // Fewer than 3 vertices
	RejectDegenerate                         // Fewer than 3 distinct vertices
	RejectNonFinite                          // A vertex is NaN or infinite
	RejectSelfIntersecting                   // Non-adjacent edges cross or touch
	RejectBelowMinArea                       // Area at or below the minimum room area
	DropOuterBoundary                        // Unlabelled polygon larger than the envelope threshold
)

func (r SkipReason) String() string {
	switch r {
	case SkipUnsupported:
		return "unsupported entity type"
	case SkipMissingText:
		return "missing text"
	case SkipMissingPosition:
		return "missing insertion point"
	case SkipMalformedPosition:
		return "malformed insertion point"
	case RejectTooFewVertices:
		return "fewer than 3 vertices"
	case RejectDegenerate:
		return "fewer than 3 distinct vertices"
	case RejectNonFinite:
		return "non-finite vertex"
	case RejectSelfIntersecting:
		return "self-intersecting ring"
	case RejectBelowMinArea:
		return "area below minimum"
	case DropOuterBoundary:
		return "unlabelled outer boundary"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// EntitySkip records a source entity that the extractor did not use.
type EntitySkip struct {
	Index  int
	Type   string
	Handle string
	Reason SkipReason
}

// PolygonReject records a boundary candidate that the polygon builder refused.
type PolygonReject struct {
	Source int
	Reason SkipReason
	Area   float64 // Set only for RejectBelowMinArea
}

// DroppedBoundary records a valid polygon excluded by the room resolver.
type DroppedBoundary struct {
	Source int
	Area   float64
	Reason SkipReason
}

// Diagnostics collects every skip decision made during one run.
type Diagnostics struct {
	SkippedEntities   []EntitySkip
	RejectedPolygons  []PolygonReject
	DroppedBoundaries []DroppedBoundary
}

// Empty reports whether nothing was skipped.
func (d Diagnostics) Empty() bool {
	return len(d.SkippedEntities) == 0 && len(d.RejectedPolygons) == 0 && len(d.DroppedBoundaries) == 0
}

// Lines renders the diagnostics as human-readable lines.
func (d Diagnostics) Lines() []string {
	var lines []string
	for _, s := range d.SkippedEntities {
		lines = append(lines, fmt.Sprintf("entity %d (%s %s): %s", s.Index, s.Type, s.Handle, s.Reason))
	}
	for _, r := range d.RejectedPolygons {
		if r.Reason == RejectBelowMinArea {
			lines = append(lines, fmt.Sprintf("boundary %d: %s (%.2f)", r.Source, r.Reason, r.Area))
			continue
		}
		lines = append(lines, fmt.Sprintf("boundary %d: %s", r.Source, r.Reason))
	}
	for _, b := range d.DroppedBoundaries {
		lines = append(lines, fmt.Sprintf("boundary %d: %s (%.2f)", b.Source, b.Reason, b.Area))
	}
	return lines
}
