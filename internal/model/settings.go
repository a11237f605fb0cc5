package model

// Settings holds the thresholds that steer room reconstruction.
type Settings struct {
	MinRoomArea       float64 `json:"min_room_area"`       // Polygons at or below this area are not rooms (m²)
	OuterBoundaryArea float64 `json:"outer_boundary_area"` // Unlabelled polygons above this area are building envelopes (m²)
	ChainLines        bool    `json:"chain_lines"`         // Join loose LINE segments into closed boundaries
	ChainTolerance    float64 `json:"chain_tolerance"`     // Max endpoint gap when chaining lines (m)
}

// DefaultSettings returns the reconstruction thresholds used when nothing
// else is configured.
func DefaultSettings() Settings {
	return Settings{
		MinRoomArea:       1.0,
		OuterBoundaryArea: 5000,
		ChainLines:        false,
		ChainTolerance:    0.01,
	}
}
