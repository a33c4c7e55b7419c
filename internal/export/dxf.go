package export

import (
	"fmt"
	"math"

	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/table"
)

// DXF layer names.
const (
	LayerLabels = "LABELS"
	LayerMarks  = "MARKS"
)

// ExportDXF writes the label outlines of the sheet in page millimetres for
// plotters and die-cut tools. Rounded corners become ARC entities. DXF has
// Y pointing up, so the page is flipped around its height. Crosshairs go
// on a separate layer when marks is set.
func ExportDXF(path string, params model.CalibrationParams, marks bool) error {
	// Cut tools work in true millimetres; the printer correction does not apply.
	params = params.Normalize()
	params.ScaleCorrectionFactor = 1
	grid := geometry.Layout(params, geometry.Print(mmPerInchDXF).WithHWMargin(true))
	if grid.Len() == 0 {
		return fmt.Errorf("sheet has no labels")
	}

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(LayerLabels, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return err
	}

	flip := func(y float64) float64 { return params.PageHeight - y }
	for _, r := range grid.Labels {
		if err := roundedRect(d, r, grid.CornerRadius, flip); err != nil {
			return fmt.Errorf("failed to write outline: %w", err)
		}
	}

	if marks {
		if _, err := d.AddLayer(LayerMarks, color.Red, table.LT_CONTINUOUS, true); err != nil {
			return err
		}
		for _, c := range grid.Crosshairs() {
			if _, err := d.Line(c.X-crossArmMM, flip(c.Y), 0, c.X+crossArmMM, flip(c.Y), 0); err != nil {
				return err
			}
			if _, err := d.Line(c.X, flip(c.Y-crossArmMM), 0, c.X, flip(c.Y+crossArmMM), 0); err != nil {
				return err
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write DXF: %w", err)
	}
	return nil
}

// mmPerInchDXF makes the layout's device unit one millimetre.
const mmPerInchDXF = 25.4

const crossArmMM = 2.5

// roundedRect adds the outline of r as four lines and, when radius is set,
// four quarter arcs. Arc angles are in degrees, counter-clockwise in the
// flipped frame.
func roundedRect(d *drawing.Drawing, r geometry.Rect, radius float64, flip func(float64) float64) error {
	radius = math.Max(0, math.Min(radius, math.Min(r.W, r.H)/2))
	x0, x1 := r.X, r.Right()
	top, bottom := flip(r.Y), flip(r.Bottom())

	lines := [][4]float64{
		{x0 + radius, top, x1 - radius, top},
		{x1, top - radius, x1, bottom + radius},
		{x1 - radius, bottom, x0 + radius, bottom},
		{x0, bottom + radius, x0, top - radius},
	}
	for _, l := range lines {
		if _, err := d.Line(l[0], l[1], 0, l[2], l[3], 0); err != nil {
			return err
		}
	}
	if radius == 0 {
		return nil
	}

	arcs := []struct{ cx, cy, start, end float64 }{
		{x1 - radius, top - radius, 0, 90},
		{x0 + radius, top - radius, 90, 180},
		{x0 + radius, bottom + radius, 180, 270},
		{x1 - radius, bottom + radius, 270, 360},
	}
	for _, a := range arcs {
		if _, err := d.Arc(a.cx, a.cy, 0, radius, a.start, a.end); err != nil {
			return err
		}
	}
	return nil
}
