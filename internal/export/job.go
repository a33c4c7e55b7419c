// Package export writes label sheets to files: PDF for printing, PNG
// previews, a calibration test sheet and DXF cut outlines for plotters.
package export

import (
	"errors"

	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/piwi3910/TagSheet/internal/render"
)

// ErrNoCells is returned when there is nothing to export.
var ErrNoCells = errors.New("no label cells to export")

// Job is everything needed to lay out and draw a print run.
type Job struct {
	Calibration model.Calibration
	Cells       []model.LabelContent
	Options     render.Options
	Fonts       *fonts.Registry
}

// Params returns the normalized calibration parameters.
func (j Job) Params() model.CalibrationParams {
	return j.Calibration.Params.Normalize()
}

// PrintMode returns the hard-copy render mode at dpi, honouring the
// calibration's hardware margin convention.
func (j Job) PrintMode(dpi float64) geometry.RenderMode {
	return geometry.Print(dpi).WithHWMargin(!j.Calibration.SkipHWMargin)
}

// Pages returns the cells split into sheet-sized pages. Trailing blank
// cells do not start a new page, but a job always has at least one page.
func (j Job) Pages() [][]model.LabelContent {
	return Paginate(j.Cells, j.Params().Capacity())
}

// Paginate splits cells into chunks of capacity, dropping trailing blank
// cells first.
func Paginate(cells []model.LabelContent, capacity int) [][]model.LabelContent {
	if capacity < 1 {
		capacity = 1
	}
	last := len(cells)
	for last > 0 && cells[last-1].IsBlank() && !cells[last-1].Logo.Visible() {
		last--
	}
	cells = cells[:last]

	var pages [][]model.LabelContent
	for start := 0; start < len(cells); start += capacity {
		end := min(start+capacity, len(cells))
		pages = append(pages, cells[start:end])
	}
	if len(pages) == 0 {
		pages = append(pages, nil)
	}
	return pages
}

func (j Job) validate() error {
	if len(j.Cells) == 0 {
		return ErrNoCells
	}
	if j.Fonts == nil {
		return errors.New("export: no font registry")
	}
	return nil
}
