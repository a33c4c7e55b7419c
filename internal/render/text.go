package render

import (
	"strings"

	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
)

// CellMarginMM is the inset between a label edge and its text.
const CellMarginMM = 1.5

// FieldText is one field to typeset: the text as it should appear (already
// decorated) and its style.
type FieldText struct {
	Key   model.FieldKey
	Text  string
	Style model.FieldStyle
	Font  fonts.Key
}

// PlacedLine is a typeset line in device units.
type PlacedLine struct {
	Text     string
	X        float64
	Baseline float64
	Width    float64
	Font     fonts.Key
	Color    model.RGB
}

// PlacedField is the area one field occupies in the block.
type PlacedField struct {
	Key   model.FieldKey
	Rect  geometry.Rect
	Bg    model.RGB
	Lines []PlacedLine
}

// TextBlock is the vertically centred stack of fields in a cell.
type TextBlock struct {
	Top    float64
	Height float64
	Fields []PlacedField
}

// WrapText breaks text into lines no wider than maxWidth. Newlines force a
// break. A word wider than maxWidth gets a line of its own and is not split.
func WrapText(m Measurer, f fonts.Key, text string, maxWidth float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if m.TextWidth(f, candidate) <= maxWidth {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = w
		}
		lines = append(lines, line)
	}
	return lines
}

// LayoutText stacks the non-empty fields inside cell. Each field wraps to
// the cell width minus margin on both sides and contributes its own line
// height per wrapped line. The whole block is centred vertically and every
// line is aligned on its own.
func LayoutText(m Measurer, cell geometry.Rect, margin float64, fields []FieldText) TextBlock {
	contentX := cell.X + margin
	contentW := cell.W - 2*margin
	if contentW < 0 {
		contentW = 0
	}

	type wrapped struct {
		field FieldText
		lines []string
		lineH float64
		asc   float64
		desc  float64
	}
	var parts []wrapped
	total := 0.0
	for _, f := range fields {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		lines := WrapText(m, f.Font, f.Text, contentW)
		if len(lines) == 0 {
			continue
		}
		metrics := m.Metrics(f.Font)
		parts = append(parts, wrapped{field: f, lines: lines, lineH: metrics.LineHeight, asc: metrics.Ascent, desc: metrics.Descent})
		total += float64(len(lines)) * metrics.LineHeight
	}

	block := TextBlock{Top: cell.Y + (cell.H-total)/2, Height: total}
	y := block.Top
	for _, p := range parts {
		h := float64(len(p.lines)) * p.lineH
		pf := PlacedField{
			Key:  p.field.Key,
			Rect: geometry.Rect{X: contentX, Y: y, W: contentW, H: h},
			Bg:   p.field.Style.BgColor,
		}
		// Spread the leading evenly above and below the glyphs.
		lead := (p.lineH - p.asc - p.desc) / 2
		for i, text := range p.lines {
			w := m.TextWidth(p.field.Font, text)
			pf.Lines = append(pf.Lines, PlacedLine{
				Text:     text,
				X:        alignX(p.field.Style.Align, contentX, contentW, w),
				Baseline: y + float64(i)*p.lineH + lead + p.asc,
				Width:    w,
				Font:     p.field.Font,
				Color:    p.field.Style.FontColor,
			})
		}
		block.Fields = append(block.Fields, pf)
		y += h
	}
	return block
}

func alignX(a model.Align, x, w, textW float64) float64 {
	switch a {
	case model.AlignLeft:
		return x
	case model.AlignRight:
		return x + w - textW
	}
	return x + (w-textW)/2
}
