package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/RoomLoad/internal/importer"
	"github.com/piwi3910/RoomLoad/internal/model"
)

// LoadFactorTableFile reads a load-factor table by extension: .json holds an
// object keyed by room type, .csv and .xlsx/.xls are imported with header
// detection. An empty path returns the built-in table. Import warnings are
// returned alongside the table.
func LoadFactorTableFile(path string) (model.LoadFactorTable, []string, error) {
	if path == "" {
		return model.DefaultLoadFactorTable(), nil, nil
	}

	var result importer.ImportResult
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return model.LoadFactorTable{}, nil, fmt.Errorf("failed to read load factor table: %w", err)
		}
		var table model.LoadFactorTable
		if err := json.Unmarshal(data, &table); err != nil {
			return model.LoadFactorTable{}, nil, fmt.Errorf("failed to parse load factor table: %w", err)
		}
		return table, nil, nil
	case ".csv", ".txt":
		result = importer.ImportCSV(path)
	case ".xlsx", ".xls":
		result = importer.ImportExcel(path)
	default:
		return model.LoadFactorTable{}, nil, fmt.Errorf("unsupported load factor file type %q", filepath.Ext(path))
	}

	table, err := result.Table()
	if err != nil {
		return model.LoadFactorTable{}, result.Warnings, err
	}
	return table, result.Warnings, nil
}

// SaveFactorTable writes a table as indented JSON.
func SaveFactorTable(path string, table model.LoadFactorTable) error {
	return writeJSONFile(path, table)
}
