package export

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	rowHeight    = 6.0
)

// ExportPDF generates a PDF report of a successful result: a floor-plan page
// with every room filled by its type colour (when outlines are available),
// followed by the load schedule.
func ExportPDF(path string, result model.Result, opts Options) error {
	if err := checkResult(result); err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	if min, max, ok := planBounds(result.Rooms); ok && max.X > min.X && max.Y > min.Y {
		pdf.AddPage()
		renderPlanPage(pdf, result, opts, min, max)
	}

	pdf.AddPage()
	renderSchedulePage(pdf, result, opts)

	return pdf.OutputFileAndClose(path)
}

// renderPlanPage draws the room outlines scaled to fit the page. Drawing Y
// grows upwards, page Y downwards, so the plan is flipped vertically.
func renderPlanPage(pdf *fpdf.Fpdf, result model.Result, opts Options, min, max model.Point2D) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, planTitle(opts), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Rooms: %d | Total load: %.2f W (%.2f kVA) | %s",
		len(result.Rooms), result.TotalLoad, opts.kva(result.TotalLoad), result.Timestamp)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight

	scale := math.Min(drawWidth/(max.X-min.X), drawHeight/(max.Y-min.Y))
	canvasW := (max.X - min.X) * scale
	offsetX := marginLeft + (drawWidth-canvasW)/2
	offsetY := drawAreaTop

	toPage := func(p model.Point2D) fpdf.PointType {
		return fpdf.PointType{
			X: offsetX + (p.X-min.X)*scale,
			Y: offsetY + (max.Y-p.Y)*scale,
		}
	}

	// Largest first so small rooms stay visible on top
	order := make([]int, len(result.Rooms))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return result.Rooms[order[a]].Area > result.Rooms[order[b]].Area
	})

	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.3)
	for _, idx := range order {
		room := result.Rooms[idx]
		if len(room.Outline) < 3 {
			continue
		}
		points := make([]fpdf.PointType, len(room.Outline))
		for i, p := range room.Outline {
			points[i] = toPage(p)
		}
		col := typeColor(room.Type)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Polygon(points, "FD")
	}

	pdf.SetTextColor(0, 0, 0)
	for _, room := range result.Rooms {
		if len(room.Outline) < 3 {
			continue
		}
		lo, hi := room.Outline.BoundingBox()
		w := (hi.X - lo.X) * scale
		h := (hi.Y - lo.Y) * scale
		if w < 12 || h < 6 {
			continue
		}
		pdf.SetFont("Helvetica", "", labelFontSize(w, h))
		at := toPage(labelPoint(room))
		label := room.Name
		labelW := pdf.GetStringWidth(label)
		if labelW < w-2 {
			pdf.SetXY(at.X-labelW/2, at.Y-4)
			pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
		}
		load := fmt.Sprintf("%.0f W", room.TotalLoad)
		loadW := pdf.GetStringWidth(load)
		if h > 12 && loadW < w-2 {
			pdf.SetXY(at.X-loadW/2, at.Y)
			pdf.CellFormat(loadW, 4, load, "", 0, "C", false, 0, "")
		}
	}

	drawTypeLegend(pdf, result.Rooms, pageHeight-marginBottom-legendHeight+4)
}

// drawTypeLegend renders one colour swatch per room type present.
func drawTypeLegend(pdf *fpdf.Fpdf, rooms []model.Room, startY float64) {
	seen := make(map[string]bool)
	var types []string
	for _, r := range rooms {
		if !seen[r.Type] {
			seen[r.Type] = true
			types = append(types, r.Type)
		}
	}
	sort.Strings(types)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Room types:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight
	for _, t := range types {
		labelW := pdf.GetStringWidth(t) + 6
		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}
		col := typeColor(t)
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, t, "", 0, "L", false, 0, "")
		xPos += labelW + 2
	}
}

// renderSchedulePage draws the per-room load table, the building total and
// the reconstruction settings.
func renderSchedulePage(pdf *fpdf.Fpdf, result model.Result, opts Options) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Electrical Load Schedule", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	summaryItems := []struct {
		label string
		value string
	}{
		{"Drawing", orDash(opts.Drawing)},
		{"Rooms", fmt.Sprintf("%d", len(result.Rooms))},
		{"Unidentified Rooms", fmt.Sprintf("%d", countUnknown(result.Rooms))},
		{"Total Load", fmt.Sprintf("%.2f W / %.2f kVA", result.TotalLoad, opts.kva(result.TotalLoad))},
		{"Generated", result.Timestamp},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(80, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}
	y += 5

	colWidths := []float64{15, 55, 35, 30, 35, 35, 35, 27}
	headers := []string{"ID", "Name", "Type", "Area (m²)", "Lighting (W)", "Sockets (W)", "Total (W)", "kVA"}
	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		xPos := marginLeft
		for i, header := range headers {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[i], rowHeight, tr(header), "1", 0, "C", true, 0, "")
			xPos += colWidths[i]
		}
		y += rowHeight
		pdf.SetFont("Helvetica", "", 9)
	}
	drawHeader()

	for i, room := range result.Rooms {
		if y+rowHeight > pageHeight-marginBottom-rowHeight {
			pdf.AddPage()
			y = marginTop
			drawHeader()
		}

		rowData := []string{
			fmt.Sprintf("%d", room.ID),
			room.Name,
			room.Type,
			fmt.Sprintf("%.2f", room.Area),
			fmt.Sprintf("%.2f", room.LightingLoad),
			fmt.Sprintf("%.2f", room.SocketsLoad),
			fmt.Sprintf("%.2f", room.TotalLoad),
			fmt.Sprintf("%.3f", opts.kva(room.TotalLoad)),
		}

		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos := marginLeft
		for j, cell := range rowData {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], rowHeight, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += rowHeight
	}

	// Building total row
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	labelW := colWidths[0] + colWidths[1] + colWidths[2] + colWidths[3] + colWidths[4] + colWidths[5]
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(labelW, rowHeight, "Building total", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colWidths[6], rowHeight, fmt.Sprintf("%.2f", result.TotalLoad), "1", 0, "C", true, 0, "")
	pdf.CellFormat(colWidths[7], rowHeight, fmt.Sprintf("%.3f", opts.kva(result.TotalLoad)), "1", 0, "C", true, 0, "")
	y += rowHeight

	if y+40 > pageHeight-marginBottom {
		pdf.AddPage()
		y = marginTop
	}

	y += 8
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Settings", "", 0, "L", false, 0, "")
	y += 9

	chain := "off"
	if opts.Settings.ChainLines {
		chain = fmt.Sprintf("on (tolerance %.3f m)", opts.Settings.ChainTolerance)
	}
	settingsItems := []struct {
		label string
		value string
	}{
		{"Minimum Room Area", fmt.Sprintf("%.2f m²", opts.Settings.MinRoomArea)},
		{"Outer Boundary Area", fmt.Sprintf("%.0f m²", opts.Settings.OuterBoundaryArea)},
		{"Chain Loose Lines", chain},
		{"Power Factor", fmt.Sprintf("%.2f", powerFactor(opts.PowerFactor))},
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range settingsItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(50, 5, tr(item.value), "", 0, "L", false, 0, "")
		y += 5
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by RoomLoad - Electrical Load Estimator", "", 0, "C", false, 0, "")
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

func planTitle(opts Options) string {
	if opts.Drawing == "" {
		return "Floor Plan"
	}
	return "Floor Plan: " + opts.Drawing
}

func countUnknown(rooms []model.Room) int {
	n := 0
	for _, r := range rooms {
		if r.Type == model.DefaultRoomType {
			n++
		}
	}
	return n
}

func powerFactor(pf float64) float64 {
	if pf <= 0 || pf > 1 {
		return 1
	}
	return pf
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
