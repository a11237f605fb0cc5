package project

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// BackupVersion is written into every backup. Imports accept any version
// with the same major number.
const BackupVersion = "1.0.0"

// BackupData bundles the settings and the active load-factor table.
type BackupData struct {
	Version   string                 `json:"version"`
	CreatedAt string                 `json:"created_at"`
	Config    model.AppConfig        `json:"config"`
	Factors   *model.LoadFactorTable `json:"factors,omitempty"`
}

// ExportAllData writes config and factors to a single backup file.
func ExportAllData(exportPath string, config model.AppConfig, factors model.LoadFactorTable) error {
	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Factors:   &factors,
	}
	if err := writeJSONFile(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup written by ExportAllData. Config fields the
// backup lacks keep their defaults. The embedded factor table, if any, is
// validated while decoding. Applying the result is left to the caller.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}

	backup := BackupData{Config: model.DefaultAppConfig()}
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	switch major, _, _ := strings.Cut(backup.Version, "."); {
	case backup.Version == "":
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	case major != backupMajor():
		return BackupData{}, fmt.Errorf("unsupported backup version %s (expected %s.x)", backup.Version, backupMajor())
	}

	if backup.Config.RecentDrawings == nil {
		backup.Config.RecentDrawings = []string{}
	}
	return backup, nil
}

func backupMajor() string {
	major, _, _ := strings.Cut(BackupVersion, ".")
	return major
}
