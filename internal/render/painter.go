// Package render draws a label sheet. DrawSheet is the only drawing routine;
// the screen preview, PNG export, printer raster and PDF export differ only
// in the Painter they pass and in the geometry.RenderMode of the layout.
package render

import (
	"image"

	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
)

// Measurer measures text in device units.
type Measurer interface {
	TextWidth(f fonts.Key, text string) float64
	Metrics(f fonts.Key) fonts.Metrics
}

// Painter is an output surface addressed in device units with the origin at
// the top left.
type Painter interface {
	Measurer

	// Resolution returns device units per inch.
	Resolution() float64
	// PageRect returns the drawable surface.
	PageRect() geometry.Rect

	FillRect(r geometry.Rect, c model.RGB, radius float64)
	StrokeRect(r geometry.Rect, c model.RGB, width, radius float64)
	Line(x1, y1, x2, y2 float64, c model.RGB, width float64)
	// DrawText draws a single line with its baseline at y.
	DrawText(x, y float64, text string, f fonts.Key, c model.RGB)
	// DrawImage scales img into r.
	DrawImage(img image.Image, r geometry.Rect, opacity float64)
}

// registryMeasurer is the Measurer shared by the concrete painters.
type registryMeasurer struct {
	fonts *fonts.Registry
}

func (m registryMeasurer) TextWidth(f fonts.Key, text string) float64 {
	return m.fonts.TextWidth(f, text)
}

func (m registryMeasurer) Metrics(f fonts.Key) fonts.Metrics {
	return m.fonts.Metrics(f)
}

const mmPerPoint = 25.4 / 72

// FontKey converts a field style to a face key at the layout's device
// resolution.
func FontKey(s model.FieldStyle, unitsPerMM float64) fonts.Key {
	return fonts.Key{
		Family: s.FontFamily,
		Bold:   s.Bold,
		Italic: s.Italic,
		Size:   float64(model.ClampFontSize(s.SizePt)) * mmPerPoint * unitsPerMM,
	}
}
