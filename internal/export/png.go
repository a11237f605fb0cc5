package export

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// planWidth is the rendered floor-plan width; the height follows the
// building's aspect ratio.
const planWidth = 20 * vg.Centimeter

// FloorPlan builds a plot with one filled polygon per room, coloured by
// type, and the room names at their label anchors.
func FloorPlan(result model.Result, opts Options) (*plot.Plot, error) {
	if err := checkResult(result); err != nil {
		return nil, err
	}
	if _, _, ok := planBounds(result.Rooms); !ok {
		return nil, fmt.Errorf("rooms carry no outlines to draw")
	}

	p := plot.New()
	p.Title.Text = planTitle(opts)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	var (
		labelXYs   plotter.XYs
		labelTexts []string
		legendDone = make(map[string]bool)
	)
	for _, r := range result.Rooms {
		if len(r.Outline) < 3 {
			continue
		}
		xys := make(plotter.XYs, len(r.Outline))
		for i, pt := range r.Outline {
			xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		poly, err := plotter.NewPolygon(xys)
		if err != nil {
			return nil, fmt.Errorf("room %d outline: %w", r.ID, err)
		}
		c := typeColor(r.Type)
		poly.Color = color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 200}
		poly.LineStyle.Width = vg.Points(0.8)
		poly.LineStyle.Color = color.Gray{Y: 40}
		p.Add(poly)
		if !legendDone[r.Type] {
			legendDone[r.Type] = true
			p.Legend.Add(r.Type, poly)
		}

		at := labelPoint(r)
		labelXYs = append(labelXYs, plotter.XY{X: at.X, Y: at.Y})
		labelTexts = append(labelTexts, fmt.Sprintf("%s\n%.0f W", r.Name, r.TotalLoad))
	}

	if len(labelXYs) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: labelXYs, Labels: labelTexts})
		if err != nil {
			return nil, fmt.Errorf("room labels: %w", err)
		}
		p.Add(labels)
	}
	p.Legend.Top = true
	return p, nil
}

// planSize returns the canvas size keeping the building's aspect ratio
// within sensible bounds.
func planSize(rooms []model.Room) (w, h vg.Length) {
	min, max, _ := planBounds(rooms)
	ratio := 0.75
	if dx := max.X - min.X; dx > 0 {
		ratio = (max.Y - min.Y) / dx
	}
	ratio = math.Max(0.3, math.Min(ratio, 2))
	return planWidth, vg.Length(float64(planWidth) * ratio)
}

// WriteFloorPlanPNG renders the floor plan to a file. The image format follows
// the file extension (.png, .svg, .pdf, ...).
func WriteFloorPlanPNG(path string, result model.Result, opts Options) error {
	p, err := FloorPlan(result, opts)
	if err != nil {
		return err
	}
	w, h := planSize(result.Rooms)
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save floor plan: %w", err)
	}
	return nil
}

// RenderFloorPlanPNG writes the floor plan as PNG to w.
func RenderFloorPlanPNG(w io.Writer, result model.Result, opts Options) error {
	p, err := FloorPlan(result, opts)
	if err != nil {
		return err
	}
	width, height := planSize(result.Rooms)
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
