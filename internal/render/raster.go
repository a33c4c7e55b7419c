package render

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"

	"github.com/fogleman/gg"
	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// RasterPainter draws into an in-memory RGBA image. It backs the screen
// preview, PNG export and printer raster output.
type RasterPainter struct {
	registryMeasurer
	dc    *gg.Context
	dpi   float64
	faces map[fonts.Key]font.Face
}

// NewRasterPainter returns a white w x h pixel surface at dpi.
func NewRasterPainter(w, h int, dpi float64, reg *fonts.Registry) *RasterPainter {
	dc := gg.NewContext(max(w, 1), max(h, 1))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	return &RasterPainter{
		registryMeasurer: registryMeasurer{fonts: reg},
		dc:               dc,
		dpi:              dpi,
		faces:            map[fonts.Key]font.Face{},
	}
}

// NewPagePainter returns a raster surface covering the layout's page.
func NewPagePainter(g geometry.GridLayout, reg *fonts.Registry) *RasterPainter {
	w := int(math.Ceil(g.Page.Right()))
	h := int(math.Ceil(g.Page.Bottom()))
	return NewRasterPainter(w, h, g.Mode.DPI, reg)
}

// Image returns the drawn image.
func (p *RasterPainter) Image() image.Image {
	return p.dc.Image()
}

// SavePNG writes the image to path.
func (p *RasterPainter) SavePNG(path string) error {
	return p.dc.SavePNG(path)
}

// EncodePNG writes the image to w.
func (p *RasterPainter) EncodePNG(w io.Writer) error {
	return p.dc.EncodePNG(w)
}

func (p *RasterPainter) Resolution() float64 {
	return p.dpi
}

func (p *RasterPainter) PageRect() geometry.Rect {
	return geometry.Rect{W: float64(p.dc.Width()), H: float64(p.dc.Height())}
}

func (p *RasterPainter) path(r geometry.Rect, radius float64) {
	if radius > 0 {
		p.dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, radius)
		return
	}
	p.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
}

func (p *RasterPainter) FillRect(r geometry.Rect, c model.RGB, radius float64) {
	p.path(r, radius)
	p.dc.SetColor(c.NRGBA())
	p.dc.Fill()
}

func (p *RasterPainter) StrokeRect(r geometry.Rect, c model.RGB, width, radius float64) {
	p.path(r, radius)
	p.dc.SetColor(c.NRGBA())
	p.dc.SetLineWidth(math.Max(width, 1))
	p.dc.Stroke()
}

func (p *RasterPainter) Line(x1, y1, x2, y2 float64, c model.RGB, width float64) {
	p.dc.SetColor(c.NRGBA())
	p.dc.SetLineWidth(math.Max(width, 1))
	p.dc.DrawLine(x1, y1, x2, y2)
	p.dc.Stroke()
}

func (p *RasterPainter) DrawText(x, y float64, text string, f fonts.Key, c model.RGB) {
	face, ok := p.faces[f]
	if !ok {
		var err error
		face, err = p.fonts.NewFace(f)
		if err != nil {
			slog.Debug("skipping text with unusable face", "family", f.Family, "size", f.Size, "error", err)
			return
		}
		p.faces[f] = face
	}
	p.dc.SetFontFace(face)
	p.dc.SetColor(c.NRGBA())
	p.dc.DrawString(text, x, y)
}

func (p *RasterPainter) DrawImage(img image.Image, r geometry.Rect, opacity float64) {
	dst := image.Rect(int(math.Round(r.X)), int(math.Round(r.Y)), int(math.Round(r.Right())), int(math.Round(r.Bottom())))
	if dst.Empty() || opacity <= 0 {
		return
	}
	scaled := image.NewRGBA(image.Rect(0, 0, dst.Dx(), dst.Dy()))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	canvas, ok := p.dc.Image().(draw.Image)
	if !ok {
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(math.Min(opacity, 1) * 255))})
	draw.DrawMask(canvas, dst, scaled, image.Point{}, mask, image.Point{}, draw.Over)
}
