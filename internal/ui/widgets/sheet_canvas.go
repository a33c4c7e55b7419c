package widgets

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/TagSheet/internal/editor"
	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/piwi3910/TagSheet/internal/render"
)

// viewportPad is the blank border around the page in device pixels.
const viewportPad = 16.0

var backdrop = model.RGB{R: 90, G: 90, B: 96}

// SheetSource supplies what the canvas draws. It is queried on every
// redraw, so the canvas never holds stale copies of the session.
type SheetSource interface {
	Params() model.CalibrationParams
	Cells() []model.LabelContent
	Options() render.Options
}

// SheetCanvas is the interactive preview of one sheet. It draws with the
// same routine as the printed output, scaled to fit the widget, and turns
// mouse clicks into cell indices.
type SheetCanvas struct {
	widget.BaseWidget

	source SheetSource
	fonts  *fonts.Registry
	dpi    float64

	// OnCellClicked is called with the cell under the pointer, or -1 for
	// a click outside every cell.
	OnCellClicked func(index int, mods editor.Modifiers)
	// OnCellDoubleClicked is called for a double click on a cell.
	OnCellDoubleClicked func(index int)

	raster *canvas.Raster

	mu     sync.Mutex
	layout geometry.GridLayout
	ok     bool
	pxPerU float32 // raster pixels per fyne unit at the last draw
}

// NewSheetCanvas creates a canvas drawing source at dpi screen pixels per
// inch (before zoom).
func NewSheetCanvas(source SheetSource, reg *fonts.Registry, dpi float64) *SheetCanvas {
	sc := &SheetCanvas{source: source, fonts: reg, dpi: dpi, pxPerU: 1}
	sc.raster = canvas.NewRaster(sc.draw)
	sc.ExtendBaseWidget(sc)
	return sc
}

// SetDPI changes the preview resolution and redraws.
func (sc *SheetCanvas) SetDPI(dpi float64) {
	if dpi > 0 {
		sc.dpi = dpi
		sc.Refresh()
	}
}

// Layout returns the geometry of the last draw. ok is false when the
// viewport was too small to draw anything.
func (sc *SheetCanvas) Layout() (geometry.GridLayout, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.layout, sc.ok
}

func (sc *SheetCanvas) draw(w, h int) image.Image {
	params := sc.source.Params()
	fit, ok := geometry.ScaleToFit(float64(w), float64(h), viewportPad, params, sc.dpi)

	sc.mu.Lock()
	sc.ok = ok
	if size := sc.Size(); size.Width > 0 {
		sc.pxPerU = float32(w) / size.Width
	}
	sc.mu.Unlock()

	p := render.NewRasterPainter(w, h, sc.dpi, sc.fonts)
	p.FillRect(geometry.Rect{W: float64(w), H: float64(h)}, backdrop, 0)
	if !ok {
		return p.Image()
	}

	g := geometry.Layout(params, fit.Mode(sc.dpi))
	if err := render.DrawSheet(p, g, sc.source.Cells(), sc.source.Options()); err != nil {
		fyne.LogError("sheet preview failed", err)
	}

	sc.mu.Lock()
	sc.layout = g
	sc.mu.Unlock()
	return p.Image()
}

// hit returns the cell index under a widget position.
func (sc *SheetCanvas) hit(pos fyne.Position) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if !sc.ok {
		return -1
	}
	return sc.layout.HitTest(float64(pos.X*sc.pxPerU), float64(pos.Y*sc.pxPerU))
}

// MouseDown implements desktop.Mouseable. Selection happens on press so
// modifier state is read at the moment of the click.
func (sc *SheetCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || sc.OnCellClicked == nil {
		return
	}
	sc.OnCellClicked(sc.hit(ev.Position), modifiers(ev.Modifier))
}

// MouseUp implements desktop.Mouseable.
func (sc *SheetCanvas) MouseUp(*desktop.MouseEvent) {}

// DoubleTapped implements fyne.DoubleTappable.
func (sc *SheetCanvas) DoubleTapped(ev *fyne.PointEvent) {
	if sc.OnCellDoubleClicked == nil {
		return
	}
	if i := sc.hit(ev.Position); i >= 0 {
		sc.OnCellDoubleClicked(i)
	}
}

func modifiers(m fyne.KeyModifier) editor.Modifiers {
	var mods editor.Modifiers
	if m&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0 {
		mods |= editor.ModToggle
	}
	if m&fyne.KeyModifierShift != 0 {
		mods |= editor.ModRange
	}
	return mods
}

// MinSize keeps the page legible when the window is small.
func (sc *SheetCanvas) MinSize() fyne.Size {
	return fyne.NewSize(320, 420)
}

func (sc *SheetCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &sheetCanvasRenderer{sc: sc}
}

type sheetCanvasRenderer struct {
	sc *SheetCanvas
}

func (r *sheetCanvasRenderer) Layout(size fyne.Size) { r.sc.raster.Resize(size) }
func (r *sheetCanvasRenderer) MinSize() fyne.Size    { return r.sc.MinSize() }
func (r *sheetCanvasRenderer) Refresh()              { r.sc.raster.Refresh() }
func (r *sheetCanvasRenderer) Destroy()              {}
func (r *sheetCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.sc.raster}
}
