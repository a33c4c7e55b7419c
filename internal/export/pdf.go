package export

import (
	"fmt"

	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/piwi3910/TagSheet/internal/render"
)

// DefaultFillColor is the flat colour of the calibration fill page.
var DefaultFillColor = model.RGB{R: 255, G: 236, B: 140}

// ExportPDF writes the job as a vector PDF with one page per full grid of
// cells. The page geometry is the printer's, so the PDF prints with the
// same label positions as direct printing.
func ExportPDF(path string, job Job) error {
	painter, err := RenderPDF(job)
	if err != nil {
		return err
	}
	if err := painter.Save(path); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// RenderPDF draws the job into a PDF document without writing it.
func RenderPDF(job Job) (*render.PDFPainter, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}
	params := job.Params()
	grid := geometry.Layout(params, job.PrintMode(geometry.PointsPerInch))
	opts := render.PrintOptions(job.Options)

	painter := render.NewPDFPainter(params.PageWidth, params.PageHeight, job.Fonts)
	for i, page := range job.Pages() {
		painter.AddPage()
		if err := render.DrawSheet(painter, grid, page, opts); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}
	if err := painter.Err(); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return painter, nil
}

// ExportCalibrationPDF writes the two-page calibration test: the first page
// fills the printable area with one flat colour, the second shows the
// label outlines, crosshairs and the 50 mm measuring square.
func ExportCalibrationPDF(path string, cal model.Calibration, fill model.RGB, job Job) error {
	if job.Fonts == nil {
		return fmt.Errorf("export: no font registry")
	}
	job.Calibration = cal
	params := job.Params()
	grid := geometry.Layout(params, job.PrintMode(geometry.PointsPerInch))

	painter := render.NewPDFPainter(params.PageWidth, params.PageHeight, job.Fonts)
	painter.AddPage()
	render.DrawCalibrationFill(painter, grid, fill)

	painter.AddPage()
	opts := render.PrintOptions(job.Options)
	opts.Overlays = model.Overlays{CellOutline: true, Crosshairs: true, CalibrationSquare: true}
	if err := render.DrawSheet(painter, grid, nil, opts); err != nil {
		return err
	}

	if err := painter.Err(); err != nil {
		return fmt.Errorf("failed to render calibration PDF: %w", err)
	}
	if err := painter.Save(path); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
