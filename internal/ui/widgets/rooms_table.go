package widgets

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/RoomLoad/internal/engine"
	"github.com/piwi3910/RoomLoad/internal/model"
)

// RoomColumns are the headers of the rooms table.
var RoomColumns = []string{"ID", "Name", "Type", "Area (m²)", "Lighting (W)", "Sockets (W)", "Total (W)", "kVA"}

var roomColumnWidths = []float32{40, 140, 100, 90, 100, 100, 100, 70}

// RoomRows formats the rooms of a result as table cells, followed by a
// building total row. A failed result yields no rows.
func RoomRows(result model.Result, powerFactor float64) [][]string {
	if !result.Success {
		return nil
	}
	rows := make([][]string, 0, len(result.Rooms)+1)
	for _, r := range result.Rooms {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.ID),
			r.Name,
			r.Type,
			fmt.Sprintf("%.2f", r.Area),
			fmt.Sprintf("%.2f", r.LightingLoad),
			fmt.Sprintf("%.2f", r.SocketsLoad),
			fmt.Sprintf("%.2f", r.TotalLoad),
			fmt.Sprintf("%.2f", engine.WattsToKVA(r.TotalLoad, powerFactor)),
		})
	}
	rows = append(rows, []string{
		"", "Building total", "", "", "", "",
		fmt.Sprintf("%.2f", result.TotalLoad),
		fmt.Sprintf("%.2f", engine.WattsToKVA(result.TotalLoad, powerFactor)),
	})
	return rows
}

// NewRoomsTable builds a read-only table over rows with a sticky header.
// onSelect receives the row index into rows.
func NewRoomsTable(rows [][]string, onSelect func(row int)) *widget.Table {
	table := widget.NewTableWithHeaders(
		func() (int, int) { return len(rows), len(RoomColumns) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			label.SetText(rows[id.Row][id.Col])
			label.TextStyle = fyne.TextStyle{Bold: id.Row == len(rows)-1}
		},
	)
	table.ShowHeaderColumn = false
	table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	}
	table.UpdateHeader = func(id widget.TableCellID, obj fyne.CanvasObject) {
		if id.Col >= 0 {
			obj.(*widget.Label).SetText(RoomColumns[id.Col])
		}
	}
	for i, w := range roomColumnWidths {
		table.SetColumnWidth(i, w)
	}
	if onSelect != nil {
		table.OnSelected = func(id widget.TableCellID) { onSelect(id.Row) }
	}
	return table
}
