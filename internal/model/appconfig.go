package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Reconstruction defaults applied to every run
	DefaultMinRoomArea       float64 `json:"default_min_room_area"`
	DefaultOuterBoundaryArea float64 `json:"default_outer_boundary_area"`
	DefaultChainLines        bool    `json:"default_chain_lines"`
	DefaultChainTolerance    float64 `json:"default_chain_tolerance"`

	// Optional load-factor table file (.json, .csv, .xlsx); empty = built-in table
	FactorsPath string `json:"factors_path"`

	// HTTP service
	Port          int      `json:"port"`
	UploadDir     string   `json:"upload_dir"`
	MaxUploadSize int      `json:"max_upload_size"` // bytes
	CORSOrigins   []string `json:"cors_origins"`

	// Logging
	LogLevel  string `json:"log_level"`  // "debug", "info", "warn", "error"
	LogFormat string `json:"log_format"` // "json" or "console"

	// Run history database; empty = disabled
	HistoryDB string `json:"history_db"`

	// Viewer preferences
	PowerFactor    float64  `json:"power_factor"`
	RecentDrawings []string `json:"recent_drawings"`
	Theme          string   `json:"theme"` // "light", "dark", "system"
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultMinRoomArea:       defaults.MinRoomArea,
		DefaultOuterBoundaryArea: defaults.OuterBoundaryArea,
		DefaultChainLines:        defaults.ChainLines,
		DefaultChainTolerance:    defaults.ChainTolerance,
		Port:                     5000,
		UploadDir:                "uploads",
		MaxUploadSize:            10 * 1024 * 1024,
		CORSOrigins:              []string{"http://localhost:5173", "http://localhost:3000"},
		LogLevel:                 "info",
		LogFormat:                "json",
		PowerFactor:              1.0,
		RecentDrawings:           []string{},
		Theme:                    "system",
	}
}

// ApplyToSettings copies the default values from AppConfig into a Settings struct.
func (c AppConfig) ApplyToSettings(s *Settings) {
	s.MinRoomArea = c.DefaultMinRoomArea
	s.OuterBoundaryArea = c.DefaultOuterBoundaryArea
	s.ChainLines = c.DefaultChainLines
	s.ChainTolerance = c.DefaultChainTolerance
}

// Settings returns the reconstruction settings described by the config.
func (c AppConfig) Settings() Settings {
	s := DefaultSettings()
	c.ApplyToSettings(&s)
	return s
}
