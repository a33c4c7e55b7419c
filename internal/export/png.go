package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/render"
)

// ExportPNG rasterizes the job at dpi. A single page is written to path;
// further pages go next to it as name-2.png, name-3.png and so on. It
// returns the files written.
func ExportPNG(path string, job Job, dpi float64) ([]string, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}
	if dpi <= 0 {
		return nil, fmt.Errorf("invalid resolution %g dpi", dpi)
	}

	pages, err := RenderRaster(job, dpi)
	if err != nil {
		return nil, err
	}
	var written []string
	for i, p := range pages {
		name := PagePath(path, i)
		if err := p.SavePNG(name); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}

// RenderRaster draws every page of the job at dpi with the printer
// geometry.
func RenderRaster(job Job, dpi float64) ([]*render.RasterPainter, error) {
	grid := geometry.Layout(job.Params(), job.PrintMode(dpi))
	opts := render.PrintOptions(job.Options)

	var out []*render.RasterPainter
	for i, page := range job.Pages() {
		p := render.NewPagePainter(grid, job.Fonts)
		if err := render.DrawSheet(p, grid, page, opts); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// PagePath returns the file name for page i (zero based) of a multi-page
// raster export.
func PagePath(path string, i int) string {
	if i == 0 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
}
