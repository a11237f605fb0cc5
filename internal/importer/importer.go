// Package importer reads drawings and load-factor tables into the model.
// Drawings come from DXF files or pre-parsed JSON entity streams; load-factor
// tables come from CSV or Excel sheets with automatic delimiter detection
// and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// ImportResult holds the results of a load-factor table import.
type ImportResult struct {
	Factors  map[string]model.LoadFactors
	Errors   []string
	Warnings []string
}

func (r *ImportResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ImportResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Table builds a validated LoadFactorTable from the imported rows. A missing
// DEFAULT row is filled from the built-in table.
func (r ImportResult) Table() (model.LoadFactorTable, error) {
	if len(r.Errors) > 0 {
		return model.LoadFactorTable{}, fmt.Errorf("load factor import failed: %s", strings.Join(r.Errors, "; "))
	}
	entries := make(map[string]model.LoadFactors, len(r.Factors)+1)
	for code, f := range r.Factors {
		entries[code] = f
	}
	if _, ok := entries[model.DefaultRoomType]; !ok {
		entries[model.DefaultRoomType], _ = model.DefaultLoadFactorTable().Lookup(model.DefaultRoomType)
	}
	return model.NewLoadFactorTable(entries)
}

// ColumnMapping holds the index of each factor column, or -1 when absent.
type ColumnMapping struct {
	Type     int
	Lighting int
	Sockets  int
}

// positional is used when the first row is data rather than a header.
var positional = ColumnMapping{Type: 0, Lighting: 1, Sockets: 2}

// factorColumn describes one recognised header. Aliases are lowercase.
type factorColumn struct {
	name    string
	aliases []string
	index   func(*ColumnMapping) *int
}

var factorColumns = []factorColumn{
	{"Type", []string{"type", "room type", "roomtype", "code", "room", "category"},
		func(m *ColumnMapping) *int { return &m.Type }},
	{"Lighting", []string{"lighting", "light", "lights", "lighting w/m2", "lighting (w/m2)", "lighting w/m²"},
		func(m *ColumnMapping) *int { return &m.Lighting }},
	{"Sockets", []string{"sockets", "socket", "power", "outlets", "sockets w/m2", "sockets (w/m2)", "sockets w/m²"},
		func(m *ColumnMapping) *int { return &m.Sockets }},
}

// delimiterNames lists the candidate CSV separators in order of preference.
var delimiterNames = []struct {
	r    rune
	name string
}{
	{',', "comma"},
	{';', "semicolon"},
	{'\t', "tab"},
	{'|', "pipe"},
}

// delimiterSampleLines bounds how much of a file is parsed per candidate.
const delimiterSampleLines = 20

// DetectCSVDelimiter guesses the separator of a CSV file. Each candidate
// is scored on a sample of leading lines: rows whose width matches the first
// row count ten points, plus one per column in the first row. Candidates that
// split the first row into fewer than two columns are ignored.
func DetectCSVDelimiter(data []byte) rune {
	sample := data
	lines := 0
	for i, b := range data {
		if b == '\n' {
			lines++
			if lines == delimiterSampleLines {
				sample = data[:i+1]
				break
			}
		}
	}

	best, bestScore := ',', 0
	for _, d := range delimiterNames {
		records, err := readCSV(bytes.NewReader(sample), d.r)
		if err != nil || len(records) == 0 || len(records[0]) < 2 {
			continue
		}
		width := len(records[0])
		score := width
		for _, rec := range records {
			if len(rec) == width {
				score += 10
			}
		}
		if score > bestScore {
			best, bestScore = d.r, score
		}
	}
	return best
}

func delimiterName(r rune) string {
	for _, d := range delimiterNames {
		if d.r == r {
			return d.name
		}
	}
	return string(r)
}

// DetectColumns matches a row against the known header aliases. When no cell
// matches, the row is treated as data and the positional mapping is returned
// with false. The first matching cell wins for each column.
func DetectColumns(row []string) (ColumnMapping, bool) {
	m := ColumnMapping{Type: -1, Lighting: -1, Sockets: -1}
	matched := false
	for i, cell := range row {
		key := strings.ToLower(strings.TrimSpace(cell))
		for _, col := range factorColumns {
			if !slices.Contains(col.aliases, key) {
				continue
			}
			matched = true
			if idx := col.index(&m); *idx == -1 {
				*idx = i
			}
		}
	}
	if !matched {
		return positional, false
	}
	return m, true
}

// missingColumns names the recognised columns a header did not provide.
func (m ColumnMapping) missingColumns() []string {
	var missing []string
	for _, col := range factorColumns {
		if *col.index(&m) == -1 {
			missing = append(missing, col.name)
		}
	}
	return missing
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseFactor accepts both "12.5" and the European "12,5".
func parseFactor(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// factorCell reads one non-negative W/m² value from row.
func factorCell(row []string, idx int, what string) (float64, error) {
	raw := cellAt(row, idx)
	if raw == "" {
		return 0, fmt.Errorf("missing %s value", what)
	}
	v, err := parseFactor(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s'", what, raw)
	}
	if v < 0 {
		return 0, errors.New("load factors must not be negative")
	}
	return v, nil
}

// parseFactorRow extracts an upper-cased room type code and its factors.
func parseFactorRow(row []string, m ColumnMapping) (string, model.LoadFactors, error) {
	code := strings.ToUpper(cellAt(row, m.Type))
	if code == "" {
		return "", model.LoadFactors{}, errors.New("missing room type")
	}
	lighting, err := factorCell(row, m.Lighting, "lighting")
	if err != nil {
		return "", model.LoadFactors{}, err
	}
	sockets, err := factorCell(row, m.Sockets, "sockets")
	if err != nil {
		return "", model.LoadFactors{}, err
	}
	return code, model.LoadFactors{Lighting: lighting, Sockets: sockets}, nil
}

func blankRow(row []string) bool {
	return !slices.ContainsFunc(row, func(cell string) bool { return strings.TrimSpace(cell) != "" })
}

// readCSV reads every record, tolerating stray quotes and ragged rows.
func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

// utf8BOM is written by spreadsheet programs at the start of CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ImportCSV imports a load-factor table from a CSV file, detecting the
// delimiter and mapping columns by header names.
func ImportCSV(path string) ImportResult {
	var result ImportResult

	data, err := os.ReadFile(path)
	if err != nil {
		result.errorf("Cannot open file: %v", err)
		return result
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		result.errorf("File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		result.warnf("Detected %s delimiter", delimiterName(delimiter))
	}
	return importCSV(bytes.NewReader(data), delimiter, result.Warnings)
}

// ImportCSVFromReader imports a load-factor table from a CSV stream whose
// delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	return importCSV(reader, delimiter, nil)
}

func importCSV(r io.Reader, delimiter rune, warnings []string) ImportResult {
	records, err := readCSV(r, delimiter)
	if err != nil {
		result := ImportResult{Warnings: warnings}
		result.errorf("Cannot read CSV: %v", err)
		return result
	}
	return importRows(records, "Line", warnings)
}

// factorsSheetName is the sheet written by the factor table and report
// exporters. It is preferred over the first sheet when present.
const factorsSheetName = "Factors"

// ImportExcel imports a load-factor table from an Excel workbook. A sheet
// named Factors is read when present, otherwise the first sheet.
func ImportExcel(path string) ImportResult {
	var result ImportResult

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.errorf("Cannot open Excel file: %v", err)
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.errorf("Excel file has no sheets")
		return result
	}
	sheet := sheets[0]
	if i := slices.IndexFunc(sheets, func(s string) bool { return strings.EqualFold(s, factorsSheetName) }); i >= 0 {
		sheet = sheets[i]
	} else if len(sheets) > 1 {
		result.warnf("Reading sheet %q, %d other sheet(s) ignored", sheet, len(sheets)-1)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		result.errorf("Cannot read Excel data: %v", err)
		return result
	}
	return importRows(rows, "Row", result.Warnings)
}

// importRows turns spreadsheet rows into factors. Row errors are collected
// and the row skipped; a repeated room type keeps the later row.
func importRows(rows [][]string, rowWord string, warnings []string) ImportResult {
	result := ImportResult{
		Factors:  make(map[string]model.LoadFactors),
		Warnings: warnings,
	}
	if len(rows) == 0 {
		result.errorf("No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	first := 0
	switch {
	case hasHeader:
		if missing := mapping.missingColumns(); len(missing) > 0 {
			result.errorf("Required columns not found in header: %s", strings.Join(missing, ", "))
			return result
		}
		first = 1
	case len(rows[0]) >= 2:
		// A header with unknown names still has a non-numeric second cell.
		if _, err := parseFactor(strings.TrimSpace(rows[0][1])); err != nil {
			result.warnf("Detected header row, skipping")
			first = 1
		}
	}

	for i, row := range rows[first:] {
		if blankRow(row) {
			continue
		}
		where := fmt.Sprintf("%s %d", rowWord, first+i+1)
		code, factors, err := parseFactorRow(row, mapping)
		if err != nil {
			result.errorf("%s: %v", where, err)
			continue
		}
		if _, dup := result.Factors[code]; dup {
			result.warnf("%s: Duplicate room type %s, later row wins", where, code)
		}
		result.Factors[code] = factors
	}

	switch {
	case len(result.Factors) == 0 && len(result.Errors) == 0:
		result.errorf("No valid load factors found")
	case len(result.Factors) > 0:
		if _, ok := result.Factors[model.DefaultRoomType]; !ok {
			result.warnf("No DEFAULT row, using built-in DEFAULT factors")
		}
	}
	return result
}
