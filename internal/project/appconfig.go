package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// DefaultConfigDir returns the default directory for application configuration.
// On all platforms this is ~/.roomload/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".roomload")
}

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// DefaultHistoryPath returns the default location of the run history database.
func DefaultHistoryPath() string {
	return filepath.Join(DefaultConfigDir(), "history.db")
}

// SaveAppConfig persists an AppConfig to the given path as JSON, creating
// missing parent directories.
func SaveAppConfig(path string, config model.AppConfig) error {
	return writeJSONFile(path, config)
}

// LoadAppConfig reads an AppConfig from the given path.
// If the file does not exist, it returns DefaultAppConfig with no error.
// Fields absent from the file keep their default values.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.AppConfig{}, err
	}
	config := model.DefaultAppConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return model.AppConfig{}, err
	}
	// Ensure RecentDrawings is never nil
	if config.RecentDrawings == nil {
		config.RecentDrawings = []string{}
	}
	return config, nil
}

// AddRecentDrawing moves path to the front of the recent list, keeping at
// most max entries.
func AddRecentDrawing(config *model.AppConfig, path string, max int) {
	recent := []string{path}
	for _, p := range config.RecentDrawings {
		if p != path {
			recent = append(recent, p)
		}
	}
	if max > 0 && len(recent) > max {
		recent = recent[:max]
	}
	config.RecentDrawings = recent
}
