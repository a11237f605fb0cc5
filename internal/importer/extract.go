package importer

import (
	"math"
	"strings"

	"github.com/piwi3910/RoomLoad/internal/model"
)

// Extraction is the outcome of classifying a drawing's entities.
type Extraction struct {
	Labels     []model.Label
	Boundaries []model.Outline // Raw vertex lists in source order
	Lines      []Segment       // Loose LINE entities, used only when chaining
	Skipped    []model.EntitySkip
}

// Extract classifies each entity by kind. Text entities become labels with
// upper-cased, trimmed text anchored at their insertion point; polylines
// become raw boundary candidates. Entities that cannot be used are recorded
// in Skipped and never fail the extraction.
func Extract(entities []model.DrawingEntity) Extraction {
	var ex Extraction

	for i, e := range entities {
		skip := func(reason model.SkipReason) {
			ex.Skipped = append(ex.Skipped, model.EntitySkip{Index: i, Type: e.Type, Handle: e.Handle, Reason: reason})
		}

		switch e.Kind {
		case model.EntityText, model.EntityMText:
			if e.Text == nil {
				skip(model.SkipMissingText)
				continue
			}
			text := *e.Text
			if e.Kind == model.EntityMText {
				text = PlainMText(text)
			}
			text = strings.ToUpper(strings.TrimSpace(text))
			if text == "" {
				skip(model.SkipMissingText)
				continue
			}
			if e.Position == nil {
				skip(model.SkipMissingPosition)
				continue
			}
			if !finitePoint(*e.Position) {
				skip(model.SkipMalformedPosition)
				continue
			}
			ex.Labels = append(ex.Labels, model.Label{Text: text, Anchor: *e.Position})

		case model.EntityPolyline:
			vertices := make(model.Outline, len(e.Vertices))
			copy(vertices, e.Vertices)
			ex.Boundaries = append(ex.Boundaries, vertices)

		case model.EntityLine:
			if len(e.Vertices) < 2 || !finitePoint(e.Vertices[0]) || !finitePoint(e.Vertices[1]) {
				skip(model.SkipMalformedPosition)
				continue
			}
			ex.Lines = append(ex.Lines, Segment{Start: e.Vertices[0], End: e.Vertices[1], Index: i, Handle: e.Handle})

		default:
			skip(model.SkipUnsupported)
		}
	}

	return ex
}

// PlainMText strips inline MTEXT formatting codes such as font switches,
// height changes and grouping braces. Paragraph breaks become spaces.
func PlainMText(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '{', '}':
			continue
		case '\\':
			if i+1 >= len(runes) {
				continue
			}
			i++
			switch runes[i] {
			case 'P', 'X':
				b.WriteRune(' ')
			case '~':
				b.WriteRune(' ')
			case '\\', '{', '}':
				b.WriteRune(runes[i])
			case 'L', 'l', 'O', 'o', 'K', 'k':
				// Underline, overline and strike toggles carry no argument
			case 'S':
				// Stacked fraction: keep the text, drop the separator codes
				for i+1 < len(runes) && runes[i+1] != ';' {
					i++
					if runes[i] != '^' && runes[i] != '#' {
						b.WriteRune(runes[i])
					}
				}
				i++
			default:
				// Codes with an argument run to the next ';'
				for i+1 < len(runes) && runes[i] != ';' {
					i++
				}
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func finitePoint(p model.Point2D) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
