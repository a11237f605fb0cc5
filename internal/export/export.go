// Package export renders room-load results to report formats: PDF reports,
// QR-coded room tags, Excel workbooks, GeoJSON, PNG floor plans and HTML
// charts.
package export

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/piwi3910/RoomLoad/internal/engine"
	"github.com/piwi3910/RoomLoad/internal/model"
)

// Options carries the report context that is not part of a Result.
type Options struct {
	Drawing     string         // Source drawing name shown in titles
	Settings    model.Settings // Reconstruction settings used for the run
	PowerFactor float64        // For kVA columns; values outside (0,1] mean 1
}

// DefaultOptions returns options with built-in settings and unity power factor.
func DefaultOptions() Options {
	return Options{Settings: model.DefaultSettings(), PowerFactor: 1}
}

// rgb is an 8-bit colour triple shared by the PDF, PNG and chart renderers.
type rgb struct {
	R, G, B int
}

// typeColors mirrors the room colours used by the viewer's floor-plan canvas.
var typeColors = []rgb{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

var unknownColor = rgb{R: 189, G: 189, B: 189}

// TypeColor returns the palette colour for a room type. The same type always
// gets the same colour; DEFAULT rooms are grey.
func TypeColor(roomType string) (r, g, b uint8) {
	c := typeColor(roomType)
	return uint8(c.R), uint8(c.G), uint8(c.B)
}

func typeColor(roomType string) rgb {
	if roomType == model.DefaultRoomType {
		return unknownColor
	}
	h := fnv.New32a()
	h.Write([]byte(roomType))
	return typeColors[h.Sum32()%uint32(len(typeColors))]
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	errFailedResult = errors.New("result is a failure, nothing to export")
	errNoRooms      = errors.New("no rooms to export")
)

// checkResult rejects failed and empty results.
func checkResult(result model.Result) error {
	if !result.Success {
		return errFailedResult
	}
	if len(result.Rooms) == 0 {
		return errNoRooms
	}
	return nil
}

// kva converts a room or building load to kVA at the options' power factor.
func (o Options) kva(watts float64) float64 {
	return engine.WattsToKVA(watts, o.PowerFactor)
}

// planBounds returns the bounding box of all room outlines.
func planBounds(rooms []model.Room) (min, max model.Point2D, ok bool) {
	min = model.Point2D{X: math.Inf(1), Y: math.Inf(1)}
	max = model.Point2D{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, r := range rooms {
		if len(r.Outline) == 0 {
			continue
		}
		lo, hi := r.Outline.BoundingBox()
		min.X = math.Min(min.X, lo.X)
		min.Y = math.Min(min.Y, lo.Y)
		max.X = math.Max(max.X, hi.X)
		max.Y = math.Max(max.Y, hi.Y)
		ok = true
	}
	return min, max, ok
}

// labelPoint is where a room's name is drawn: the matched label's anchor, or
// the centre of the outline's bounding box for UNKNOWN rooms.
func labelPoint(r model.Room) model.Point2D {
	if r.Anchor != nil {
		return *r.Anchor
	}
	lo, hi := r.Outline.BoundingBox()
	return model.Point2D{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}
}
