package render

import (
	"image"

	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
)

// fakeMeasurer treats every glyph as half an em wide and every line as one
// em tall.
type fakeMeasurer struct{}

func (fakeMeasurer) TextWidth(f fonts.Key, text string) float64 {
	return float64(len([]rune(text))) * f.Size * 0.5
}

func (fakeMeasurer) Metrics(f fonts.Key) fonts.Metrics {
	return fonts.Metrics{Ascent: 0.8 * f.Size, Descent: 0.2 * f.Size, LineHeight: f.Size}
}

type drawCall struct {
	op    string
	rect  geometry.Rect
	text  string
	color model.RGB
	x, y  float64
}

// recorder is a Painter that records what it was asked to draw.
type recorder struct {
	fakeMeasurer
	calls []drawCall
}

func (r *recorder) Resolution() float64      { return 72 }
func (r *recorder) PageRect() geometry.Rect { return geometry.Rect{W: 1000, H: 1000} }

func (r *recorder) FillRect(rect geometry.Rect, c model.RGB, radius float64) {
	r.calls = append(r.calls, drawCall{op: "fill", rect: rect, color: c})
}

func (r *recorder) StrokeRect(rect geometry.Rect, c model.RGB, width, radius float64) {
	r.calls = append(r.calls, drawCall{op: "stroke", rect: rect, color: c})
}

func (r *recorder) Line(x1, y1, x2, y2 float64, c model.RGB, width float64) {
	r.calls = append(r.calls, drawCall{op: "line", color: c, x: x1, y: y1})
}

func (r *recorder) DrawText(x, y float64, text string, f fonts.Key, c model.RGB) {
	r.calls = append(r.calls, drawCall{op: "text", text: text, color: c, x: x, y: y})
}

func (r *recorder) DrawImage(img image.Image, rect geometry.Rect, opacity float64) {
	r.calls = append(r.calls, drawCall{op: "image", rect: rect})
}

func (r *recorder) ops(op string) []drawCall {
	var out []drawCall
	for _, c := range r.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (r *recorder) strokes(c model.RGB) int {
	n := 0
	for _, call := range r.ops("stroke") {
		if call.color == c {
			n++
		}
	}
	return n
}

func (r *recorder) texts() []string {
	var out []string
	for _, c := range r.ops("text") {
		out = append(out, c.text)
	}
	return out
}
