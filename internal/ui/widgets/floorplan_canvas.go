package widgets

import (
	"fmt"
	"image/color"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/RoomLoad/internal/engine"
	"github.com/piwi3910/RoomLoad/internal/export"
	"github.com/piwi3910/RoomLoad/internal/model"
)

const planMargin = 8

// typeColor returns the room-type colour shared with the exported reports.
func typeColor(roomType string, alpha uint8) color.NRGBA {
	r, g, b := export.TypeColor(roomType)
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}

// PlanTransform maps drawing coordinates (y up) onto canvas pixels (y down).
type PlanTransform struct {
	Min    model.Point2D
	Scale  float32
	Width  float32
	Height float32
}

// FitPlan computes the transform that fits rooms inside maxW x maxH while
// keeping the aspect ratio. ok is false when no room has an outline.
func FitPlan(rooms []model.Room, maxW, maxH float32) (PlanTransform, bool) {
	first := true
	var min, max model.Point2D
	for _, r := range rooms {
		if len(r.Outline) == 0 {
			continue
		}
		lo, hi := r.Outline.BoundingBox()
		if first {
			min, max = lo, hi
			first = false
			continue
		}
		if lo.X < min.X {
			min.X = lo.X
		}
		if lo.Y < min.Y {
			min.Y = lo.Y
		}
		if hi.X > max.X {
			max.X = hi.X
		}
		if hi.Y > max.Y {
			max.Y = hi.Y
		}
	}
	if first {
		return PlanTransform{}, false
	}

	spanX := float32(max.X - min.X)
	spanY := float32(max.Y - min.Y)
	if spanX <= 0 || spanY <= 0 {
		return PlanTransform{}, false
	}
	availW := maxW - 2*planMargin
	availH := maxH - 2*planMargin
	scale := availW / spanX
	if s := availH / spanY; s < scale {
		scale = s
	}
	return PlanTransform{
		Min:    min,
		Scale:  scale,
		Width:  spanX*scale + 2*planMargin,
		Height: spanY*scale + 2*planMargin,
	}, true
}

// Pos converts a drawing point to a canvas position.
func (t PlanTransform) Pos(p model.Point2D) fyne.Position {
	x := planMargin + float32(p.X-t.Min.X)*t.Scale
	y := t.Height - planMargin - float32(p.Y-t.Min.Y)*t.Scale
	return fyne.NewPos(x, y)
}

// FloorPlanCanvas renders room outlines coloured by room type.
type FloorPlanCanvas struct {
	widget.BaseWidget
	rooms     []model.Room
	maxWidth  float32
	maxHeight float32

	// OnTapped is called with the id of the room under the pointer, or 0.
	OnTapped func(roomID int)
}

func NewFloorPlanCanvas(rooms []model.Room, maxW, maxH float32) *FloorPlanCanvas {
	fc := &FloorPlanCanvas{
		rooms:     rooms,
		maxWidth:  maxW,
		maxHeight: maxH,
	}
	fc.ExtendBaseWidget(fc)
	return fc
}

// SetRooms replaces the drawn rooms and refreshes the canvas.
func (fc *FloorPlanCanvas) SetRooms(rooms []model.Room) {
	fc.rooms = rooms
	fc.Refresh()
}

// Tapped resolves the room under the pointer.
func (fc *FloorPlanCanvas) Tapped(ev *fyne.PointEvent) {
	if fc.OnTapped == nil {
		return
	}
	t, ok := FitPlan(fc.rooms, fc.maxWidth, fc.maxHeight)
	if !ok {
		fc.OnTapped(0)
		return
	}
	fc.OnTapped(RoomAt(fc.rooms, t, ev.Position))
}

// RoomAt returns the id of the smallest room whose bounding box contains
// pos, or 0. Smallest wins so nested rooms stay selectable.
func RoomAt(rooms []model.Room, t PlanTransform, pos fyne.Position) int {
	best, bestArea := 0, 0.0
	for _, r := range rooms {
		if len(r.Outline) == 0 {
			continue
		}
		lo, hi := r.Outline.BoundingBox()
		topLeft := t.Pos(model.Point2D{X: lo.X, Y: hi.Y})
		bottomRight := t.Pos(model.Point2D{X: hi.X, Y: lo.Y})
		if pos.X < topLeft.X || pos.X > bottomRight.X || pos.Y < topLeft.Y || pos.Y > bottomRight.Y {
			continue
		}
		if best == 0 || r.Area < bestArea {
			best, bestArea = r.ID, r.Area
		}
	}
	return best
}

func (fc *FloorPlanCanvas) CreateRenderer() fyne.WidgetRenderer {
	return newFloorPlanRenderer(fc)
}

type floorPlanRenderer struct {
	fc      *FloorPlanCanvas
	objects []fyne.CanvasObject
}

func newFloorPlanRenderer(fc *FloorPlanCanvas) *floorPlanRenderer {
	r := &floorPlanRenderer{fc: fc}
	r.rebuild()
	return r
}

func (r *floorPlanRenderer) rebuild() {
	r.objects = nil

	t, ok := FitPlan(r.fc.rooms, r.fc.maxWidth, r.fc.maxHeight)
	if !ok {
		return
	}

	bg := canvas.NewRectangle(color.NRGBA{R: 250, G: 250, B: 247, A: 255})
	bg.StrokeColor = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	bg.StrokeWidth = 1
	bg.Resize(fyne.NewSize(t.Width, t.Height))
	r.objects = append(r.objects, bg)

	// Largest first so inner rooms are drawn on top.
	rooms := make([]model.Room, len(r.fc.rooms))
	copy(rooms, r.fc.rooms)
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].Area > rooms[j].Area })

	for _, room := range rooms {
		if len(room.Outline) < 2 {
			continue
		}
		col := typeColor(room.Type, 255)
		for i := 1; i < len(room.Outline); i++ {
			edge := canvas.NewLine(col)
			edge.StrokeWidth = 2
			edge.Position1 = t.Pos(room.Outline[i-1])
			edge.Position2 = t.Pos(room.Outline[i])
			r.objects = append(r.objects, edge)
		}

		anchor := roomLabelPoint(room)
		pos := t.Pos(anchor)
		label := canvas.NewText(fmt.Sprintf("%s %.0f W", room.Name, room.TotalLoad), color.Black)
		label.TextSize = 10
		label.Alignment = fyne.TextAlignCenter
		size := label.MinSize()
		label.Move(fyne.NewPos(pos.X-size.Width/2, pos.Y-size.Height/2))
		r.objects = append(r.objects, label)
	}
}

// roomLabelPoint prefers the matched label anchor, else the box centre.
func roomLabelPoint(room model.Room) model.Point2D {
	if room.Anchor != nil {
		return *room.Anchor
	}
	lo, hi := room.Outline.BoundingBox()
	return model.Point2D{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}
}

func (r *floorPlanRenderer) Layout(size fyne.Size)        {}
func (r *floorPlanRenderer) Refresh()                     { r.rebuild() }
func (r *floorPlanRenderer) Destroy()                     {}
func (r *floorPlanRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *floorPlanRenderer) MinSize() fyne.Size {
	t, ok := FitPlan(r.fc.rooms, r.fc.maxWidth, r.fc.maxHeight)
	if !ok {
		return fyne.NewSize(0, 0)
	}
	return fyne.NewSize(t.Width, t.Height)
}

// RenderFloorPlan creates a scrollable view of the plan with a per-type
// breakdown and the building total. onTap, if set, receives the id of a
// tapped room.
func RenderFloorPlan(result *model.Result, powerFactor float64, onTap func(roomID int)) fyne.CanvasObject {
	if result == nil || !result.Success || len(result.Rooms) == 0 {
		return widget.NewLabel("No rooms yet. Open a DXF drawing to begin.")
	}

	var items []fyne.CanvasObject

	plan := NewFloorPlanCanvas(result.Rooms, 800, 500)
	plan.OnTapped = onTap
	if _, ok := FitPlan(result.Rooms, 800, 500); ok {
		items = append(items, plan)
	} else {
		items = append(items, widget.NewLabel("Room outlines are not available for this result."))
	}

	if unknown := countUnknown(result.Rooms); unknown > 0 {
		warning := widget.NewLabel(fmt.Sprintf(
			"WARNING: %d room(s) have no label and use the DEFAULT load factors.", unknown,
		))
		warning.Importance = widget.DangerImportance
		items = append(items, warning)
	}

	breakdown := BuildTypeBreakdown(result.Rooms)
	if len(breakdown) > 0 {
		items = append(items, widget.NewSeparator())
		header := widget.NewLabel("Load by Room Type:")
		header.TextStyle = fyne.TextStyle{Bold: true}
		items = append(items, header)
		for _, line := range breakdown {
			swatch := canvas.NewRectangle(typeColor(line.Type, 200))
			swatch.SetMinSize(fyne.NewSize(14, 14))
			items = append(items, container.NewHBox(swatch, widget.NewLabel(line.String())))
		}
	}

	summary := widget.NewLabel(fmt.Sprintf(
		"Total: %d rooms, %.2f W (%.2f kVA)",
		len(result.Rooms), result.TotalLoad, engine.WattsToKVA(result.TotalLoad, powerFactor),
	))
	summary.TextStyle = fyne.TextStyle{Bold: true}
	items = append(items, summary)

	return container.NewVScroll(container.NewVBox(items...))
}

func countUnknown(rooms []model.Room) int {
	n := 0
	for _, r := range rooms {
		if r.Name == engine.UnknownRoomName {
			n++
		}
	}
	return n
}

// TypeBreakdown summarizes the rooms of one type.
type TypeBreakdown struct {
	Type  string
	Count int
	Area  float64
	Load  float64
}

func (b TypeBreakdown) String() string {
	return fmt.Sprintf("  %s: %d room(s), %.2f m², %.2f W", b.Type, b.Count, b.Area, b.Load)
}

// BuildTypeBreakdown groups rooms by type in order of first appearance.
func BuildTypeBreakdown(rooms []model.Room) []TypeBreakdown {
	var order []string
	stats := make(map[string]*TypeBreakdown)

	for _, r := range rooms {
		s, exists := stats[r.Type]
		if !exists {
			order = append(order, r.Type)
			s = &TypeBreakdown{Type: r.Type}
			stats[r.Type] = s
		}
		s.Count++
		s.Area += r.Area
		s.Load += r.TotalLoad
	}

	lines := make([]TypeBreakdown, 0, len(order))
	for _, t := range order {
		lines = append(lines, *stats[t])
	}
	return lines
}
