package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/RoomLoad/internal/model"
)

const (
	roomsSheet   = "Rooms"
	summarySheet = "Summary"
	factorsSheet = "Factors"
)

var roomHeaders = []interface{}{"ID", "Name", "Type", "Area (m²)", "Lighting (W)", "Sockets (W)", "Total (W)", "kVA"}

// ExportExcel writes a workbook with a "Rooms" sheet (one row per room plus
// a building total row) and a "Summary" sheet with the run context.
func ExportExcel(path string, result model.Result, opts Options) error {
	if err := checkResult(result); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", roomsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return fmt.Errorf("create number style: %w", err)
	}

	if err := f.SetSheetRow(roomsSheet, "A1", &roomHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(roomsSheet, "A1", "H1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range result.Rooms {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.ID, r.Name, r.Type, r.Area, r.LightingLoad, r.SocketsLoad, r.TotalLoad, opts.kva(r.TotalLoad)}
		if err := f.SetSheetRow(roomsSheet, cell, &row); err != nil {
			return fmt.Errorf("write room %d: %w", r.ID, err)
		}
	}

	totalRow := len(result.Rooms) + 2
	lastRoomRow := totalRow - 1
	if err := f.SetCellValue(roomsSheet, fmt.Sprintf("A%d", totalRow), "Building total"); err != nil {
		return err
	}
	if err := f.SetCellValue(roomsSheet, fmt.Sprintf("G%d", totalRow), result.TotalLoad); err != nil {
		return err
	}
	if err := f.SetCellValue(roomsSheet, fmt.Sprintf("H%d", totalRow), opts.kva(result.TotalLoad)); err != nil {
		return err
	}
	if err := f.SetCellStyle(roomsSheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("H%d", totalRow), headerStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(roomsSheet, "D2", fmt.Sprintf("H%d", lastRoomRow), numberStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(roomsSheet, "B", "C", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(roomsSheet, "D", "H", 14); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Drawing", opts.Drawing},
		{"Timestamp", result.Timestamp},
		{"Rooms", len(result.Rooms)},
		{"Unidentified rooms", countUnknown(result.Rooms)},
		{"Total load (W)", result.TotalLoad},
		{"Total load (kVA)", opts.kva(result.TotalLoad)},
		{"Power factor", powerFactor(opts.PowerFactor)},
		{"Minimum room area (m²)", opts.Settings.MinRoomArea},
		{"Outer boundary area (m²)", opts.Settings.OuterBoundaryArea},
		{"Chain loose lines", opts.Settings.ChainLines},
	}
	for i, row := range summary {
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return err
	}

	return f.SaveAs(path)
}

// ExportFactorsExcel writes a load-factor table in the column layout the
// table importer reads back: Type, Lighting, Sockets.
func ExportFactorsExcel(path string, table model.LoadFactorTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", factorsSheet); err != nil {
		return err
	}
	header := []interface{}{"Type", "Lighting", "Sockets"}
	if err := f.SetSheetRow(factorsSheet, "A1", &header); err != nil {
		return err
	}
	entries := table.Entries()
	for i, code := range table.Codes() {
		lf := entries[code]
		row := []interface{}{code, lf.Lighting, lf.Sockets}
		if err := f.SetSheetRow(factorsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
