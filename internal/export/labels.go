package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// RoomTag holds the data encoded into each room tag's QR code.
type RoomTag struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Area      float64 `json:"area_m2"`
	Lighting  float64 `json:"lighting_w"`
	Sockets   float64 `json:"sockets_w"`
	Total     float64 `json:"total_w"`
	KVA       float64 `json:"kva"`
	Drawing   string  `json:"drawing,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// Tag layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportRoomTags generates a PDF of QR-coded door tags, one per room.
// Each tag shows the room name, type, area and load, and its QR code
// carries the same data as JSON. Tags are laid out on a standard label
// sheet (Avery 5160 / 3 columns x 10 rows on US Letter).
func ExportRoomTags(path string, result model.Result, opts Options) error {
	if err := checkResult(result); err != nil {
		return err
	}
	tags := CollectRoomTags(result, opts)

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, tag := range tags {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderTag(pdf, x, y, tag); err != nil {
			return fmt.Errorf("failed to render tag for room %d: %w", tag.ID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderTag draws a single tag at the given position.
func renderTag(pdf *fpdf.Fpdf, x, y float64, tag RoomTag) error {
	// Cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(tag)
	if err != nil {
		return fmt.Errorf("failed to marshal room tag: %w", err)
	}
	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	// Room ids are unique within a result
	imgName := fmt.Sprintf("qr_room_%d", tag.ID)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, tag.Name, textW), "", 1, "L", false, 0, "")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, tr(fmt.Sprintf("%s | %.2f m²", tag.Type, tag.Area)), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%.0f W (%.2f kVA)", tag.Total, tag.KVA), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+13)
	pdf.CellFormat(textW, 3, fmt.Sprintf("Room %d | L %.0f W | S %.0f W", tag.ID, tag.Lighting, tag.Sockets), "", 1, "L", false, 0, "")

	if tag.Type == model.DefaultRoomType {
		pdf.SetXY(textX, y+labelPadding+16.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, "No label found", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens text with an ellipsis until it fits the given width.
func truncate(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > width {
		text = text[:len(text)-1]
	}
	return text + "..."
}

// CollectRoomTags builds the tag data for every room of a result, in room
// order.
func CollectRoomTags(result model.Result, opts Options) []RoomTag {
	tags := make([]RoomTag, 0, len(result.Rooms))
	for _, r := range result.Rooms {
		tags = append(tags, RoomTag{
			ID:        r.ID,
			Name:      r.Name,
			Type:      r.Type,
			Area:      r.Area,
			Lighting:  r.LightingLoad,
			Sockets:   r.SocketsLoad,
			Total:     r.TotalLoad,
			KVA:       opts.kva(r.TotalLoad),
			Drawing:   opts.Drawing,
			Timestamp: result.Timestamp,
		})
	}
	return tags
}
