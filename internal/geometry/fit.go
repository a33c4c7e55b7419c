package geometry

import (
	"math"

	"github.com/piwi3910/TagSheet/internal/model"
)

// MinViewport is the smallest drawable viewport edge in device pixels after
// padding. Smaller viewports are skipped instead of producing degenerate
// geometry.
const MinViewport = 40.0

// Fit is the screen placement of the page inside a viewport.
type Fit struct {
	Scale            float64
	OffsetX, OffsetY float64
}

// ScaleToFit computes the zoom that fits the whole page into the viewport
// with pad pixels on every side, centred. ok is false when the viewport is
// too small to draw anything.
func ScaleToFit(viewportW, viewportH, pad float64, params model.CalibrationParams, dpi float64) (Fit, bool) {
	params = params.Normalize()
	availW := viewportW - 2*pad
	availH := viewportH - 2*pad
	if availW < MinViewport || availH < MinViewport || dpi <= 0 {
		return Fit{}, false
	}
	if params.PageWidth <= 0 || params.PageHeight <= 0 {
		return Fit{}, false
	}

	base := UnitsPerMM(params, Screen(1, dpi))
	scale := math.Min(availW/(params.PageWidth*base), availH/(params.PageHeight*base))
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return Fit{}, false
	}

	pageW := params.PageWidth * base * scale
	pageH := params.PageHeight * base * scale
	return Fit{
		Scale:   scale,
		OffsetX: (viewportW - pageW) / 2,
		OffsetY: (viewportH - pageH) / 2,
	}, true
}

// Mode returns the screen render mode for this fit.
func (f Fit) Mode(dpi float64) RenderMode {
	return Screen(f.Scale, dpi).WithOffset(f.OffsetX, f.OffsetY)
}
