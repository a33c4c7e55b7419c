package model

import (
	"fmt"
	"math"
)

// Correction factor bounds. A printer driver that scales more than 5% is
// broken, not miscalibrated.
const (
	MinCorrectionFactor = 0.95
	MaxCorrectionFactor = 1.05
)

// CalibrationSquareMM is the edge length of the measurement square drawn by
// the calibration overlay.
const CalibrationSquareMM = 50.0

const eps = 1e-9

// CalibrationParams describes the physical sheet, the printer and the label
// stock. All lengths are in mm.
type CalibrationParams struct {
	PageWidth  float64 `json:"page_w_mm"`
	PageHeight float64 `json:"page_h_mm"`

	// Border the printer cannot print to
	HWMarginLeft   float64 `json:"hw_margin_left_mm"`
	HWMarginTop    float64 `json:"hw_margin_top_mm"`
	HWMarginRight  float64 `json:"hw_margin_right_mm"`
	HWMarginBottom float64 `json:"hw_margin_bottom_mm"`

	// Registration of the first label relative to the printable origin
	SheetOffsetLeft float64 `json:"sheet_offset_left_mm"`
	SheetOffsetTop  float64 `json:"sheet_offset_top_mm"`

	LabelWidth   float64 `json:"label_w_mm"`
	LabelHeight  float64 `json:"label_h_mm"`
	ColGap       float64 `json:"col_gap_mm"`
	RowGap       float64 `json:"row_gap_mm"`
	Rows         int     `json:"rows"`
	Cols         int     `json:"cols"`
	CornerRadius float64 `json:"corner_radius_mm"`

	ScaleCorrectionFactor float64 `json:"scale_correction_factor"`
}

// DefaultCalibrationParams returns the parameters for A4 21-up (3x7) label
// stock on a typical office laser printer.
func DefaultCalibrationParams() CalibrationParams {
	return CalibrationParams{
		PageWidth:             210.0,
		PageHeight:            297.0,
		HWMarginLeft:          4.2,
		HWMarginTop:           4.2,
		HWMarginRight:         4.2,
		HWMarginBottom:        4.2,
		SheetOffsetLeft:       2.5,
		SheetOffsetTop:        10.5,
		LabelWidth:            63.5,
		LabelHeight:           38.1,
		ColGap:                2.5,
		RowGap:                0.0,
		Rows:                  7,
		Cols:                  3,
		CornerRadius:          2.0,
		ScaleCorrectionFactor: 1.0,
	}
}

// Capacity returns the number of label cells on one sheet.
func (p CalibrationParams) Capacity() int {
	return p.Rows * p.Cols
}

// UsableWidth returns the printable width of the page.
func (p CalibrationParams) UsableWidth() float64 {
	return p.PageWidth - p.HWMarginLeft - p.HWMarginRight
}

// UsableHeight returns the printable height of the page.
func (p CalibrationParams) UsableHeight() float64 {
	return p.PageHeight - p.HWMarginTop - p.HWMarginBottom
}

// GridWidth returns the total horizontal extent of the label grid.
func (p CalibrationParams) GridWidth() float64 {
	if p.Cols < 1 {
		return 0
	}
	return float64(p.Cols)*p.LabelWidth + float64(p.Cols-1)*p.ColGap
}

// GridHeight returns the total vertical extent of the label grid.
func (p CalibrationParams) GridHeight() float64 {
	if p.Rows < 1 {
		return 0
	}
	return float64(p.Rows)*p.LabelHeight + float64(p.Rows-1)*p.RowGap
}

// Normalize clamps values that would otherwise produce degenerate geometry.
// It is applied at every input boundary (file load, calibration edits).
func (p CalibrationParams) Normalize() CalibrationParams {
	if p.Rows < 1 {
		p.Rows = 1
	}
	if p.Cols < 1 {
		p.Cols = 1
	}
	if p.ColGap < 0 {
		p.ColGap = 0
	}
	if p.RowGap < 0 {
		p.RowGap = 0
	}
	if p.CornerRadius < 0 {
		p.CornerRadius = 0
	}
	if p.ScaleCorrectionFactor == 0 {
		p.ScaleCorrectionFactor = 1.0
	}
	p.ScaleCorrectionFactor = ClampCorrectionFactor(p.ScaleCorrectionFactor)
	return p
}

// Validate reports layout problems. Overflow is a warning, not an error: the
// grid is still drawn and visibly overflows the printable area.
func (p CalibrationParams) Validate() []string {
	var warnings []string
	if p.PageWidth <= 0 || p.PageHeight <= 0 {
		warnings = append(warnings, "Page size must be positive")
	}
	if p.LabelWidth <= 0 || p.LabelHeight <= 0 {
		warnings = append(warnings, "Label size must be positive")
	}
	gw, uw := p.GridWidth(), p.UsableWidth()
	gh, uh := p.GridHeight(), p.UsableHeight()
	switch {
	case gw > uw+eps:
		warnings = append(warnings, fmt.Sprintf("Grid width %.1f mm exceeds usable width %.1f mm", gw, uw))
	case p.SheetOffsetLeft+gw > uw+eps:
		warnings = append(warnings, fmt.Sprintf("Grid extends %.1f mm past the right printable edge", p.SheetOffsetLeft+gw-uw))
	}
	switch {
	case gh > uh+eps:
		warnings = append(warnings, fmt.Sprintf("Grid height %.1f mm exceeds usable height %.1f mm", gh, uh))
	case p.SheetOffsetTop+gh > uh+eps:
		warnings = append(warnings, fmt.Sprintf("Grid extends %.1f mm past the bottom printable edge", p.SheetOffsetTop+gh-uh))
	}
	if p.CornerRadius*2 > math.Min(p.LabelWidth, p.LabelHeight) {
		warnings = append(warnings, "Corner radius is larger than half the label size")
	}
	return warnings
}

// ClampCorrectionFactor bounds f to [MinCorrectionFactor, MaxCorrectionFactor].
func ClampCorrectionFactor(f float64) float64 {
	return math.Max(MinCorrectionFactor, math.Min(MaxCorrectionFactor, f))
}

// DeriveCorrectionFactor computes the scale correction from a length the
// layout should have produced and the length the user measured on paper.
// A non-positive measurement yields 1.0.
func DeriveCorrectionFactor(expectedMM, measuredMM float64) float64 {
	if measuredMM <= 0 || expectedMM <= 0 {
		return 1.0
	}
	return ClampCorrectionFactor(expectedMM / measuredMM)
}

// Recalibrate stores a new correction factor derived from the measured
// printed grid width. measuredWidthMM must come from a print made with the
// current factor: the result is current * expected/measured, clamped.
func (p *CalibrationParams) Recalibrate(measuredWidthMM float64) float64 {
	expected := p.GridWidth()
	current := p.ScaleCorrectionFactor
	if current == 0 {
		current = 1.0
	}
	p.ScaleCorrectionFactor = ClampCorrectionFactor(current * DeriveCorrectionFactor(expected, measuredWidthMM))
	return p.ScaleCorrectionFactor
}

// Overlays holds the on-screen helper toggles persisted with the calibration.
type Overlays struct {
	Ruler             bool `json:"ruler"`
	PageBorder        bool `json:"page_border"`
	CellOutline       bool `json:"cell_outline"`
	Crosshairs        bool `json:"crosshairs"`
	CalibrationSquare bool `json:"calibration_square"`
	Selection         bool `json:"selection"`
}

// DefaultOverlays returns the toggles used on first run.
func DefaultOverlays() Overlays {
	return Overlays{
		Ruler:       true,
		PageBorder:  true,
		CellOutline: true,
		Selection:   true,
	}
}

// Calibration is the full persisted calibration record.
type Calibration struct {
	Params  CalibrationParams `json:"params"`
	Toggles Overlays          `json:"toggles"`
	// SkipHWMargin makes print and PDF origins relative to the printable
	// area. Set it to false only for drivers whose origin is the paper corner.
	SkipHWMargin bool `json:"skip_hw_margin"`
}

// DefaultCalibration returns the first-run calibration.
func DefaultCalibration() Calibration {
	return Calibration{
		Params:       DefaultCalibrationParams(),
		Toggles:      DefaultOverlays(),
		SkipHWMargin: true,
	}
}
