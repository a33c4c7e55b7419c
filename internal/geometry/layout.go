// Package geometry converts calibration parameters into label rectangles in
// physical millimetres and in output device units.
//
// All positions are computed in page-relative millimetres first and then
// mapped to the device through a single units-per-mm factor, so the screen
// preview, the printer raster and the PDF agree up to device resolution.
package geometry

import "github.com/piwi3910/TagSheet/internal/model"

const mmPerInch = 25.4

// PointsPerInch is the PDF user space resolution.
const PointsPerInch = 72.0

// ModeKind selects the rendering target family.
type ModeKind int

const (
	KindScreen ModeKind = iota
	KindPrint
)

func (k ModeKind) String() string {
	if k == KindPrint {
		return "print"
	}
	return "screen"
}

// RenderMode describes the output device.
type RenderMode struct {
	Kind  ModeKind
	DPI   float64 // device units per inch
	Scale float64 // screen zoom, 1 for print

	// IncludeHWMargin places print origins at the paper corner instead of
	// the printable-area corner. Screen modes always include it.
	IncludeHWMargin bool

	// Device-unit translation applied after scaling (viewport padding).
	OffsetX, OffsetY float64
}

// Screen returns a preview mode at the given zoom and monitor resolution.
func Screen(scale, dpi float64) RenderMode {
	return RenderMode{Kind: KindScreen, DPI: dpi, Scale: scale, IncludeHWMargin: true}
}

// Print returns a hard-copy mode. Print(72) addresses PDF points.
func Print(dpi float64) RenderMode {
	return RenderMode{Kind: KindPrint, DPI: dpi, Scale: 1}
}

// PDF returns the mode used for PDF export.
func PDF() RenderMode {
	return Print(PointsPerInch)
}

// WithOffset returns a copy of m translated by (x, y) device units.
func (m RenderMode) WithOffset(x, y float64) RenderMode {
	m.OffsetX, m.OffsetY = x, y
	return m
}

// WithHWMargin returns a copy of m with the hardware margin term set.
func (m RenderMode) WithHWMargin(include bool) RenderMode {
	if m.Kind == KindPrint {
		m.IncludeHWMargin = include
	}
	return m
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Right returns the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Contains reports whether the point lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// Intersects reports whether r and o share interior area. Touching edges do
// not count.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right()-eps && o.X < r.Right()-eps && r.Y < o.Bottom()-eps && o.Y < r.Bottom()-eps
}

// Point is a device or mm coordinate pair.
type Point struct {
	X, Y float64
}

const eps = 1e-9

// GridLayout is the result of Layout. The *MM members are page-relative
// physical millimetres (paper corner origin, no correction); the other
// members are in device units.
type GridLayout struct {
	Params     model.CalibrationParams
	Mode       RenderMode
	UnitsPerMM float64

	PageMM   Rect
	UsableMM Rect
	LabelsMM []Rect

	Page   Rect
	Usable Rect
	Labels []Rect

	CornerRadius float64 // device units
}

// UnitsPerMM returns the mm to device factor for params under mode,
// including the scale correction factor.
func UnitsPerMM(params model.CalibrationParams, mode RenderMode) float64 {
	corr := params.ScaleCorrectionFactor
	if corr == 0 {
		corr = 1
	}
	scale := mode.Scale
	if scale == 0 || mode.Kind == KindPrint {
		scale = 1
	}
	return mode.DPI / mmPerInch * scale * corr
}

// Layout computes every label rectangle for params under mode. Rows and
// columns are clamped to at least one.
func Layout(params model.CalibrationParams, mode RenderMode) GridLayout {
	p := params.Normalize()
	g := GridLayout{
		Params:     p,
		Mode:       mode,
		UnitsPerMM: UnitsPerMM(p, mode),
	}

	g.PageMM = Rect{X: 0, Y: 0, W: p.PageWidth, H: p.PageHeight}
	g.UsableMM = Rect{
		X: p.HWMarginLeft,
		Y: p.HWMarginTop,
		W: p.UsableWidth(),
		H: p.UsableHeight(),
	}

	n := p.Rows * p.Cols
	g.LabelsMM = make([]Rect, n)
	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			g.LabelsMM[r*p.Cols+c] = Rect{
				X: p.HWMarginLeft + p.SheetOffsetLeft + float64(c)*(p.LabelWidth+p.ColGap),
				Y: p.HWMarginTop + p.SheetOffsetTop + float64(r)*(p.LabelHeight+p.RowGap),
				W: p.LabelWidth,
				H: p.LabelHeight,
			}
		}
	}

	g.Page = g.ToDevice(g.PageMM)
	g.Usable = g.ToDevice(g.UsableMM)
	g.Labels = make([]Rect, n)
	for i, r := range g.LabelsMM {
		g.Labels[i] = g.ToDevice(r)
	}
	g.CornerRadius = p.CornerRadius * g.UnitsPerMM
	return g
}

// originMM returns the page-relative mm position that maps to the device
// origin (before the mode offset).
func (g GridLayout) originMM() (float64, float64) {
	if g.Mode.Kind == KindPrint && !g.Mode.IncludeHWMargin {
		return g.Params.HWMarginLeft, g.Params.HWMarginTop
	}
	return 0, 0
}

// ToDevice maps a page-relative mm rectangle into device units.
func (g GridLayout) ToDevice(r Rect) Rect {
	x, y := g.PointToDevice(r.X, r.Y)
	return Rect{X: x, Y: y, W: r.W * g.UnitsPerMM, H: r.H * g.UnitsPerMM}
}

// PointToDevice maps a page-relative mm point into device units.
func (g GridLayout) PointToDevice(xMM, yMM float64) (float64, float64) {
	ox, oy := g.originMM()
	return (xMM-ox)*g.UnitsPerMM + g.Mode.OffsetX, (yMM-oy)*g.UnitsPerMM + g.Mode.OffsetY
}

// PointToMM maps a device point back to page-relative mm.
func (g GridLayout) PointToMM(x, y float64) (float64, float64) {
	if g.UnitsPerMM == 0 {
		return 0, 0
	}
	ox, oy := g.originMM()
	return (x-g.Mode.OffsetX)/g.UnitsPerMM + ox, (y-g.Mode.OffsetY)/g.UnitsPerMM + oy
}

// Len returns the number of label cells.
func (g GridLayout) Len() int {
	return len(g.Labels)
}

// Index returns the linear index of cell (row, col).
func (g GridLayout) Index(row, col int) int {
	return row*g.Params.Cols + col
}

// Cell returns the (row, col) of a linear index.
func (g GridLayout) Cell(index int) (row, col int) {
	return index / g.Params.Cols, index % g.Params.Cols
}

// HitTest returns the index of the label containing the device point, or
// -1 when the point falls on a gap or outside the grid.
func (g GridLayout) HitTest(x, y float64) int {
	for i, r := range g.Labels {
		if r.Contains(x, y) {
			return i
		}
	}
	return -1
}

// RowGapCenters returns, in device units, the y coordinate halfway between
// row r and row r+1 for every adjacent row pair. With a zero gap it is the
// shared edge.
func (g GridLayout) RowGapCenters() []float64 {
	p := g.Params
	centers := make([]float64, 0, max(p.Rows-1, 0))
	for r := 0; r+1 < p.Rows; r++ {
		bottom := g.Labels[g.Index(r, 0)].Bottom()
		top := g.Labels[g.Index(r+1, 0)].Y
		centers = append(centers, (bottom+top)/2)
	}
	return centers
}

// ColGapCenters is RowGapCenters for columns.
func (g GridLayout) ColGapCenters() []float64 {
	p := g.Params
	centers := make([]float64, 0, max(p.Cols-1, 0))
	for c := 0; c+1 < p.Cols; c++ {
		right := g.Labels[g.Index(0, c)].Right()
		left := g.Labels[g.Index(0, c+1)].X
		centers = append(centers, (right+left)/2)
	}
	return centers
}

// Crosshairs returns the (rows-1)*(cols-1) interior gap intersections in
// device units, row-major.
func (g GridLayout) Crosshairs() []Point {
	ys := g.RowGapCenters()
	xs := g.ColGapCenters()
	points := make([]Point, 0, len(xs)*len(ys))
	for _, y := range ys {
		for _, x := range xs {
			points = append(points, Point{X: x, Y: y})
		}
	}
	return points
}

// CalibrationSquare returns the measurement square anchored at the first
// label's origin, in device units.
func (g GridLayout) CalibrationSquare() Rect {
	if len(g.LabelsMM) == 0 {
		return Rect{}
	}
	first := g.LabelsMM[0]
	return g.ToDevice(Rect{X: first.X, Y: first.Y, W: model.CalibrationSquareMM, H: model.CalibrationSquareMM})
}

// Overlapping returns the index pairs of rectangles that share interior area.
func Overlapping(rects []Rect) [][2]int {
	var pairs [][2]int
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Intersects(rects[j]) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}

// Normalized divides r by the device factor, yielding device-independent mm.
func (g GridLayout) Normalized(r Rect) Rect {
	if g.UnitsPerMM == 0 {
		return Rect{}
	}
	return Rect{X: r.X / g.UnitsPerMM, Y: r.Y / g.UnitsPerMM, W: r.W / g.UnitsPerMM, H: r.H / g.UnitsPerMM}
}
