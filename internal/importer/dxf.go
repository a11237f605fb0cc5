package importer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// groupPair is one DXF group: a numeric code line followed by its value line.
type groupPair = [2]string

// yofuTypes are the entity types yofu/dxf can parse on its own. Anything
// else in the ENTITIES section would make dxf.FromFile fail the whole file.
var yofuTypes = map[string]bool{
	"LINE": true, "LWPOLYLINE": true, "TEXT": true, "CIRCLE": true,
	"ARC": true, "POINT": true, "SPLINE": true, "3DFACE": true, "VERTEX": true,
}

// ReadDXF opens an ASCII DXF file and converts the ENTITIES section into
// parser-neutral drawing entities, preserving source order. MTEXT and
// POLYLINE/VERTEX/SEQEND runs are decoded here; other types yofu/dxf
// understands go through its entity parser one at a time. Unknown types
// (HATCH, INSERT, DIMENSION...) become EntityOther. An unreadable file is an
// error; individual entities are never rejected here.
func ReadDXF(path string) ([]model.DrawingEntity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open DXF file: %w", err)
	}
	defer f.Close()

	entities, err := DecodeDXF(f)
	if err != nil {
		return nil, fmt.Errorf("cannot open DXF file: %w", err)
	}
	return entities, nil
}

// DecodeDXF reads the ENTITIES section of an ASCII DXF stream.
func DecodeDXF(r io.Reader) ([]model.DrawingEntity, error) {
	blocks, err := entityBlocks(r)
	if err != nil {
		return nil, err
	}

	d := dxf.NewDrawing()
	out := make([]model.DrawingEntity, 0, len(blocks))
	for i := 0; i < len(blocks); i++ {
		block := blocks[i]
		typ := strings.ToUpper(strings.TrimSpace(block[0][1]))

		var de model.DrawingEntity
		switch {
		case typ == "MTEXT":
			de = decodeMText(block)
		case typ == "POLYLINE":
			// Consume the VERTEX entities and the closing SEQEND.
			var vertices []groupPair
			j := i + 1
			for ; j < len(blocks); j++ {
				t := strings.ToUpper(strings.TrimSpace(blocks[j][0][1]))
				if t == "SEQEND" {
					break
				}
				if t != "VERTEX" {
					j--
					break
				}
				vertices = append(vertices, blocks[j]...)
			}
			i = min(j, len(blocks)-1)
			de = decodePolyline(block, vertices)
		case yofuTypes[typ]:
			de = parseWithYofu(d, typ, block)
		default:
			de = model.DrawingEntity{Kind: model.EntityOther, Type: typ}
		}
		de.Handle, de.Layer = groupValue(block, "5"), groupValue(block, "8")
		out = append(out, de)
	}
	return out, nil
}

// entityBlocks splits the ENTITIES section into per-entity group lists,
// each starting with its 0/type pair. Other sections are skipped.
func entityBlocks(r io.Reader) ([][]groupPair, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var (
		blocks    [][]groupPair
		current   []groupPair
		section   string
		expectSec bool
		sections  int
		line      int
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, current)
			current = nil
		}
	}

	for sc.Scan() {
		line++
		code := strings.TrimSpace(sc.Text())
		if !sc.Scan() {
			return nil, fmt.Errorf("line %d: group code %q has no value", line, code)
		}
		line++
		value := strings.TrimRight(sc.Text(), "\r")
		if _, err := strconv.Atoi(code); err != nil {
			return nil, fmt.Errorf("line %d: invalid group code %q", line-1, code)
		}

		if expectSec {
			expectSec = false
			if code == "2" {
				section = strings.ToUpper(strings.TrimSpace(value))
				sections++
				continue
			}
		}
		if code == "0" {
			switch strings.ToUpper(strings.TrimSpace(value)) {
			case "SECTION":
				expectSec = true
				continue
			case "ENDSEC":
				if section == "ENTITIES" {
					flush()
				}
				section = ""
				continue
			case "EOF":
				flush()
				return blocks, nil
			}
			if section == "ENTITIES" {
				flush()
			}
		}
		if section == "ENTITIES" && (code == "0" || len(current) > 0) {
			current = append(current, groupPair{code, value})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if sections == 0 {
		return nil, fmt.Errorf("no DXF sections found")
	}
	flush()
	return blocks, nil
}

// parseWithYofu hands a single entity to yofu/dxf. A parse failure keeps the
// entity's kind but drops its payload, so the extractor or the polygon
// builder skips it like any other malformed entity.
func parseWithYofu(d *drawing.Drawing, typ string, block []groupPair) model.DrawingEntity {
	ent, err := dxf.ParseEntity(d, block)
	if err != nil || ent == nil {
		switch typ {
		case "TEXT":
			return model.DrawingEntity{Kind: model.EntityText, Type: typ}
		case "LWPOLYLINE":
			return model.DrawingEntity{Kind: model.EntityPolyline, Type: typ}
		case "LINE":
			return model.DrawingEntity{Kind: model.EntityLine, Type: typ}
		}
		return model.DrawingEntity{Kind: model.EntityOther, Type: typ}
	}
	return convertEntities(entity.Entities{ent})[0]
}

// decodeMText joins the text chunks (code 3, then the final code 1) and
// reads the insertion point from codes 10 and 20.
func decodeMText(block []groupPair) model.DrawingEntity {
	de := model.DrawingEntity{Kind: model.EntityMText, Type: "MTEXT"}

	var b strings.Builder
	hasText := false
	var x, y *float64
	for _, g := range block[1:] {
		switch g[0] {
		case "1", "3":
			b.WriteString(g[1])
			hasText = true
		case "10":
			v := groupFloat(g[1])
			x = &v
		case "20":
			v := groupFloat(g[1])
			y = &v
		}
	}
	if hasText {
		text := b.String()
		de.Text = &text
	}
	if x != nil && y != nil {
		de.Position = &model.Point2D{X: *x, Y: *y}
	}
	return de
}

// decodePolyline builds an old-style POLYLINE from its VERTEX groups. Spline
// frame control points (flag 16) are not part of the outline.
func decodePolyline(header []groupPair, vertexGroups []groupPair) model.DrawingEntity {
	de := model.DrawingEntity{Kind: model.EntityPolyline, Type: "POLYLINE"}

	var cur *model.Point2D
	skip := false
	emit := func() {
		if cur != nil && !skip {
			de.Vertices = append(de.Vertices, *cur)
		}
		cur, skip = nil, false
	}
	for _, g := range vertexGroups {
		switch g[0] {
		case "0":
			emit()
			cur = &model.Point2D{X: math.NaN(), Y: math.NaN()}
		case "10":
			if cur != nil {
				cur.X = groupFloat(g[1])
			}
		case "20":
			if cur != nil {
				cur.Y = groupFloat(g[1])
			}
		case "70":
			if flags, err := strconv.Atoi(strings.TrimSpace(g[1])); err == nil && flags&16 != 0 {
				skip = true
			}
		}
	}
	emit()
	return de
}

// groupFloat parses a coordinate value. Garbage becomes NaN so that the
// extractor and the polygon builder reject the entity.
func groupFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// groupValue returns the first value for code after the type pair, or "".
func groupValue(block []groupPair, code string) string {
	for _, g := range block[1:] {
		if g[0] == code {
			return strings.TrimSpace(g[1])
		}
	}
	return ""
}

// convertEntities maps yofu/dxf entities onto model.DrawingEntity.
func convertEntities(entities entity.Entities) []model.DrawingEntity {
	out := make([]model.DrawingEntity, 0, len(entities))
	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.Text:
			text := e.Value
			de := model.DrawingEntity{Kind: model.EntityText, Type: "TEXT", Text: &text}
			de.Position = coordPoint(e.Coord1)
			out = append(out, de)

		case *entity.LwPolyline:
			vertices := make([]model.Point2D, 0, len(e.Vertices))
			for _, v := range e.Vertices {
				vertices = append(vertices, vertexPoint(v))
			}
			// Bulges are ignored: room boundaries are straight-edged.
			out = append(out, model.DrawingEntity{Kind: model.EntityPolyline, Type: "LWPOLYLINE", Vertices: vertices})

		case *entity.Line:
			out = append(out, model.DrawingEntity{
				Kind:     model.EntityLine,
				Type:     "LINE",
				Vertices: []model.Point2D{vertexPoint(e.Start), vertexPoint(e.End)},
			})

		default:
			out = append(out, model.DrawingEntity{Kind: model.EntityOther, Type: entityTypeName(ent)})
		}
	}
	return out
}

// coordPoint returns nil when the coordinate slice is too short to hold X and Y.
func coordPoint(c []float64) *model.Point2D {
	if len(c) < 2 {
		return nil
	}
	return &model.Point2D{X: c[0], Y: c[1]}
}

// vertexPoint maps a short coordinate slice to a NaN point so that the
// polygon builder rejects the ring instead of silently moving the vertex.
func vertexPoint(c []float64) model.Point2D {
	if len(c) < 2 {
		return model.Point2D{X: math.NaN(), Y: math.NaN()}
	}
	return model.Point2D{X: c[0], Y: c[1]}
}

// entityTypeName derives an upper-case type tag such as "CIRCLE" from the
// concrete yofu/dxf type.
func entityTypeName(ent entity.Entity) string {
	name := fmt.Sprintf("%T", ent)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.ToUpper(name)
}
