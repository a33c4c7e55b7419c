package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
)

// PDFPainter draws onto an fpdf document in points. Fonts are embedded from
// the shared registry so the PDF uses the glyph widths the layout was
// measured with.
type PDFPainter struct {
	registryMeasurer
	pdf    *fpdf.Fpdf
	page   geometry.Rect
	loaded map[string]bool
	images map[image.Image]string
}

// NewPDFPainter returns a painter for a document whose pages are
// pageWMM x pageHMM. Call AddPage before drawing.
func NewPDFPainter(pageWMM, pageHMM float64, reg *fonts.Registry) *PDFPainter {
	wPt := pageWMM / mmPerPoint
	hPt := pageHMM / mmPerPoint
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: wPt, Ht: hPt},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("TagSheet", true)
	return &PDFPainter{
		registryMeasurer: registryMeasurer{fonts: reg},
		pdf:              pdf,
		page:             geometry.Rect{W: wPt, H: hPt},
		loaded:           map[string]bool{},
		images:           map[image.Image]string{},
	}
}

// Document exposes the underlying fpdf document.
func (p *PDFPainter) Document() *fpdf.Fpdf {
	return p.pdf
}

// AddPage starts a new page.
func (p *PDFPainter) AddPage() {
	p.pdf.AddPage()
}

// PageCount returns the number of pages added so far.
func (p *PDFPainter) PageCount() int {
	return p.pdf.PageCount()
}

// Save writes the document to path.
func (p *PDFPainter) Save(path string) error {
	return p.pdf.OutputFileAndClose(path)
}

// Err returns the first error recorded by the document.
func (p *PDFPainter) Err() error {
	return p.pdf.Error()
}

func (p *PDFPainter) Resolution() float64 {
	return geometry.PointsPerInch
}

func (p *PDFPainter) PageRect() geometry.Rect {
	return p.page
}

func (p *PDFPainter) FillRect(r geometry.Rect, c model.RGB, radius float64) {
	p.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	p.rect(r, radius, "F")
}

func (p *PDFPainter) StrokeRect(r geometry.Rect, c model.RGB, width, radius float64) {
	p.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	p.pdf.SetLineWidth(width)
	p.rect(r, radius, "D")
}

func (p *PDFPainter) rect(r geometry.Rect, radius float64, style string) {
	if radius > 0 {
		p.pdf.RoundedRect(r.X, r.Y, r.W, r.H, radius, "1234", style)
		return
	}
	p.pdf.Rect(r.X, r.Y, r.W, r.H, style)
}

func (p *PDFPainter) Line(x1, y1, x2, y2 float64, c model.RGB, width float64) {
	p.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	p.pdf.SetLineWidth(width)
	p.pdf.Line(x1, y1, x2, y2)
}

func (p *PDFPainter) DrawText(x, y float64, text string, f fonts.Key, c model.RGB) {
	if f.Size <= 0 || text == "" {
		return
	}
	family, style := p.font(f)
	p.pdf.SetFont(family, style, f.Size)
	p.pdf.SetTextColor(int(c.R), int(c.G), int(c.B))
	p.pdf.Text(x, y, text)
}

// font embeds the registry face for f on first use and returns the fpdf
// family and style names.
func (p *PDFPainter) font(f fonts.Key) (string, string) {
	resolved := p.fonts.Resolve(f.Family)
	family := strings.ToLower(strings.ReplaceAll(resolved, " ", ""))
	style := ""
	if f.Bold {
		style += "B"
	}
	if f.Italic {
		style += "I"
	}
	id := family + ":" + style
	if !p.loaded[id] {
		p.pdf.AddUTF8FontFromBytes(family, style, p.fonts.TTF(resolved, f.Bold, f.Italic))
		p.loaded[id] = true
	}
	return family, style
}

func (p *PDFPainter) DrawImage(img image.Image, r geometry.Rect, opacity float64) {
	if opacity <= 0 || r.W <= 0 || r.H <= 0 {
		return
	}
	name, ok := p.images[img]
	if !ok {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			p.pdf.SetError(fmt.Errorf("encode logo: %w", err))
			return
		}
		name = fmt.Sprintf("logo%d", len(p.images))
		p.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, &buf)
		p.images[img] = name
	}
	if opacity < 1 {
		p.pdf.SetAlpha(opacity, "Normal")
		defer p.pdf.SetAlpha(1, "Normal")
	}
	p.pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
}
