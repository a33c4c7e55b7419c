package render

import (
	"fmt"

	"github.com/piwi3910/TagSheet/internal/currency"
	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
)

// Overlay colours.
var (
	colorPage      = model.White
	colorBorder    = model.RGB{R: 120, G: 120, B: 120}
	colorPrintable = model.RGB{R: 200, G: 200, B: 220}
	colorOutline   = model.RGB{R: 170, G: 170, B: 170}
	colorCrosshair = model.RGB{R: 220, G: 40, B: 40}
	colorRuler     = model.RGB{R: 60, G: 60, B: 60}
	colorSelection = model.RGB{R: 33, G: 150, B: 243}
	colorSquare    = model.RGB{R: 0, G: 140, B: 70}
)

// Line widths in mm.
const (
	hairlineMM  = 0.2
	selectionMM = 0.8
	crossArmMM  = 2.5
)

// Options controls what DrawSheet draws besides label content.
type Options struct {
	Overlays model.Overlays
	// Selected cells get a highlight. Ignored outside screen mode.
	Selected map[int]bool

	CurrencyA model.Currency
	CurrencyB model.Currency

	// Logos may be nil, in which case no logos are drawn.
	Logos LogoSource
}

// DefaultOptions returns options with the default overlays and currencies.
func DefaultOptions() Options {
	cfg := model.DefaultAppConfig()
	return Options{
		Overlays:  model.DefaultOverlays(),
		CurrencyA: cfg.CurrencyA,
		CurrencyB: cfg.CurrencyB,
	}
}

// PrintOptions returns opts with the screen-only helpers switched off.
func PrintOptions(opts Options) Options {
	opts.Selected = nil
	opts.Overlays.Ruler = false
	opts.Overlays.Selection = false
	return opts
}

// DrawSheet draws one sheet: page, overlays, label text, logos and the
// selection. cells[i] is drawn into label i; missing cells stay blank and
// extra cells are ignored. A degenerate layout draws nothing.
func DrawSheet(p Painter, g geometry.GridLayout, cells []model.LabelContent, opts Options) error {
	if g.UnitsPerMM <= 0 || len(g.Labels) == 0 {
		return nil
	}
	screen := g.Mode.Kind == geometry.KindScreen
	px := func(mm float64) float64 { return mm * g.UnitsPerMM }

	p.FillRect(g.Page, colorPage, 0)

	if screen && opts.Overlays.Ruler {
		drawRuler(p, g)
	}
	if opts.Overlays.PageBorder {
		p.StrokeRect(g.Page, colorBorder, px(hairlineMM), 0)
		p.StrokeRect(g.Usable, colorPrintable, px(hairlineMM), 0)
	}
	if opts.Overlays.CellOutline {
		for _, r := range g.Labels {
			p.StrokeRect(r, colorOutline, px(hairlineMM), g.CornerRadius)
		}
	}
	if opts.Overlays.Crosshairs {
		arm := px(crossArmMM)
		for _, c := range g.Crosshairs() {
			p.Line(c.X-arm, c.Y, c.X+arm, c.Y, colorCrosshair, px(hairlineMM))
			p.Line(c.X, c.Y-arm, c.X, c.Y+arm, colorCrosshair, px(hairlineMM))
		}
	}
	if opts.Overlays.CalibrationSquare {
		drawCalibrationSquare(p, g)
	}

	for i, r := range g.Labels {
		if i >= len(cells) {
			break
		}
		drawCell(p, g, r, cells[i], opts)
	}

	if screen && opts.Overlays.Selection {
		for i := range opts.Selected {
			if i >= 0 && i < len(g.Labels) {
				p.StrokeRect(g.Labels[i], colorSelection, px(selectionMM), g.CornerRadius)
			}
		}
	}
	return nil
}

// CellFields returns the fields of c as they are printed: prices carry
// their currency decoration and unit.
func CellFields(c model.LabelContent, curA, curB model.Currency, unitsPerMM float64) []FieldText {
	fields := make([]FieldText, 0, len(model.FieldKeys))
	for _, key := range model.FieldKeys {
		f := c.Field(key)
		text := f.Text
		switch key {
		case model.FieldPriceA:
			text = priceText(text, curA, c.Unit)
		case model.FieldPriceB:
			text = priceText(text, curB, c.Unit)
		}
		fields = append(fields, FieldText{
			Key:   key,
			Text:  text,
			Style: f.FieldStyle,
			Font:  FontKey(f.FieldStyle, unitsPerMM),
		})
	}
	return fields
}

func priceText(text string, cur model.Currency, unit string) string {
	text = currency.Decorate(text, cur)
	if text != "" && unit != "" {
		text += "/" + unit
	}
	return text
}

func drawCell(p Painter, g geometry.GridLayout, r geometry.Rect, c model.LabelContent, opts Options) {
	block := LayoutText(p, r, CellMarginMM*g.UnitsPerMM, CellFields(c, opts.CurrencyA, opts.CurrencyB, g.UnitsPerMM))
	for _, f := range block.Fields {
		if f.Bg != model.White {
			p.FillRect(f.Rect, f.Bg, 0)
		}
		for _, line := range f.Lines {
			p.DrawText(line.X, line.Baseline, line.Text, line.Font, line.Color)
		}
	}

	if opts.Logos == nil {
		return
	}
	if lr, ok := LogoRect(r, c.Logo, g.UnitsPerMM); ok {
		if img := opts.Logos.Logo(c); img != nil {
			p.DrawImage(img, lr, c.Logo.Opacity)
		}
	}
}

// Ruler tick lengths in mm for 1, 5 and 10 mm marks.
const (
	tickMinorMM = 1.5
	tickMidMM   = 3.0
	tickMajorMM = 5.0
)

// RulerTicks returns the tick length in mm for the mark at mm.
func RulerTicks(mm int) float64 {
	switch {
	case mm%10 == 0:
		return tickMajorMM
	case mm%5 == 0:
		return tickMidMM
	}
	return tickMinorMM
}

// drawRuler marks the top and left page edges every millimetre.
func drawRuler(p Painter, g geometry.GridLayout) {
	width := hairlineMM * g.UnitsPerMM
	label := fonts.Key{Family: fonts.FamilySans, Size: 2.2 * g.UnitsPerMM}
	pageW, pageH := g.Params.PageWidth, g.Params.PageHeight

	for mm := 0; float64(mm) <= pageW; mm++ {
		x, y0 := g.PointToDevice(float64(mm), 0)
		_, y1 := g.PointToDevice(float64(mm), RulerTicks(mm))
		p.Line(x, y0, x, y1, colorRuler, width)
		if mm > 0 && mm%10 == 0 {
			_, ty := g.PointToDevice(0, tickMajorMM+2.5)
			p.DrawText(x+0.5*g.UnitsPerMM, ty, fmt.Sprint(mm/10), label, colorRuler)
		}
	}
	for mm := 0; float64(mm) <= pageH; mm++ {
		x0, y := g.PointToDevice(0, float64(mm))
		x1, _ := g.PointToDevice(RulerTicks(mm), float64(mm))
		p.Line(x0, y, x1, y, colorRuler, width)
		if mm > 0 && mm%10 == 0 {
			tx, _ := g.PointToDevice(tickMajorMM+0.5, 0)
			p.DrawText(tx, y+0.8*g.UnitsPerMM, fmt.Sprint(mm/10), label, colorRuler)
		}
	}
}

func drawCalibrationSquare(p Painter, g geometry.GridLayout) {
	sq := g.CalibrationSquare()
	p.StrokeRect(sq, colorSquare, hairlineMM*g.UnitsPerMM, 0)
	text := fmt.Sprintf("%.0f mm", model.CalibrationSquareMM)
	f := fonts.Key{Family: fonts.FamilySans, Size: 3 * g.UnitsPerMM}
	w := p.TextWidth(f, text)
	p.DrawText(sq.X+(sq.W-w)/2, sq.Y+sq.H/2, text, f, colorSquare)
}

// DrawCalibrationFill fills the printable area with one flat colour and
// draws nothing else. Printing it shows where the printer really starts
// and stops.
func DrawCalibrationFill(p Painter, g geometry.GridLayout, c model.RGB) {
	if g.UnitsPerMM <= 0 {
		return
	}
	p.FillRect(g.Usable, c, 0)
}
