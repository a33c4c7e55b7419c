package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/piwi3910/TagSheet/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

func testFonts(t *testing.T) *fonts.Registry {
	t.Helper()
	reg, err := fonts.NewRegistry()
	require.NoError(t, err)
	return reg
}

func buildTestJob(t *testing.T, n int) Job {
	t.Helper()
	cells := make([]model.LabelContent, n)
	for i := range cells {
		cells[i] = model.NewLabelContent()
		cells[i].Main.Text = "Apples"
		cells[i].PriceA.Text = "3.2"
		cells[i].PriceB.Text = "1.64"
		cells[i].Unit = "kg"
	}
	opts := render.DefaultOptions()
	opts.Logos = render.NewLogos(nil)
	return Job{
		Calibration: model.DefaultCalibration(),
		Cells:       cells,
		Options:     opts,
		Fonts:       testFonts(t),
	}
}

func TestPaginate(t *testing.T) {
	cells := make([]model.LabelContent, 50)
	for i := range cells {
		cells[i] = model.NewLabelContent()
		cells[i].Main.Text = "x"
	}
	pages := Paginate(cells, 21)
	require.Len(t, pages, 3)
	assert.Len(t, pages[0], 21)
	assert.Len(t, pages[2], 8)
}

func TestPaginate_TrailingBlanksDoNotAddPages(t *testing.T) {
	cells := make([]model.LabelContent, 30)
	for i := range cells {
		cells[i] = model.NewLabelContent()
	}
	cells[3].Main.Text = "only one"

	pages := Paginate(cells, 21)
	require.Len(t, pages, 1)
	assert.Len(t, pages[0], 4)

	// A fully blank run still prints one empty page.
	assert.Len(t, Paginate(cells[4:], 21), 1)
}

func TestPaginate_LogoKeepsCell(t *testing.T) {
	cells := []model.LabelContent{model.NewLabelContent(), model.NewLabelContent()}
	cells[1].Logo = model.Logo{Position: model.LogoBottomLeft, SizeMM: 10, Opacity: 1, QRText: "x"}
	pages := Paginate(cells, 21)
	require.Len(t, pages, 1)
	assert.Len(t, pages[0], 2)
}

func TestExportPDF_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.pdf")
	require.NoError(t, ExportPDF(path, buildTestJob(t, 21)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExportPDF_OnePagePerFullGrid(t *testing.T) {
	job := buildTestJob(t, 45)
	p, err := RenderPDF(job)
	require.NoError(t, err)
	assert.Equal(t, 3, p.PageCount())
}

func TestExportPDF_NoCells(t *testing.T) {
	job := buildTestJob(t, 0)
	err := ExportPDF(filepath.Join(t.TempDir(), "x.pdf"), job)
	assert.True(t, errors.Is(err, ErrNoCells))
}

func TestExportPDF_BadPath(t *testing.T) {
	err := ExportPDF(filepath.Join(t.TempDir(), "missing", "dir", "x.pdf"), buildTestJob(t, 1))
	assert.Error(t, err)
}

func TestExportCalibrationPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.pdf")
	job := Job{Fonts: testFonts(t), Options: render.DefaultOptions()}
	require.NoError(t, ExportCalibrationPDF(path, model.DefaultCalibration(), DefaultFillColor, job))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExportPNG_SinglePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.png")
	written, err := ExportPNG(path, buildTestJob(t, 3), 48)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, written)
	assert.FileExists(t, path)
}

func TestExportPNG_MultiPageNames(t *testing.T) {
	dir := t.TempDir()
	written, err := ExportPNG(filepath.Join(dir, "tags.png"), buildTestJob(t, 22), 36)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "tags.png"),
		filepath.Join(dir, "tags-2.png"),
	}, written)
}

func TestExportPNG_InvalidDPI(t *testing.T) {
	_, err := ExportPNG(filepath.Join(t.TempDir(), "x.png"), buildTestJob(t, 1), 0)
	assert.Error(t, err)
}

func TestPagePath(t *testing.T) {
	assert.Equal(t, "out.png", PagePath("out.png", 0))
	assert.Equal(t, "out-3.png", PagePath("out.png", 2))
	assert.Equal(t, "dir/sheet-2", PagePath("dir/sheet", 1))
}

func TestRenderRaster_PageSizeFollowsDPI(t *testing.T) {
	job := buildTestJob(t, 1)
	pages, err := RenderRaster(job, 25.4)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	// The device origin is the printable corner, so the canvas runs from
	// there to the far paper edge at one pixel per mm.
	b := pages[0].Image().Bounds()
	assert.Equal(t, 206, b.Dx())
	assert.Equal(t, 293, b.Dy())
}

func TestExportDXF_Outlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.dxf")
	params := model.DefaultCalibrationParams()
	require.NoError(t, ExportDXF(path, params, false))

	d, err := dxf.Open(path)
	require.NoError(t, err)
	lines, arcs := 0, 0
	for _, e := range d.Entities() {
		switch e.(type) {
		case *entity.Line:
			lines++
		case *entity.Arc:
			arcs++
		}
	}
	assert.Equal(t, 4*params.Capacity(), lines)
	assert.Equal(t, 4*params.Capacity(), arcs)
}

func TestExportDXF_SquareCornersAndMarks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.dxf")
	params := model.DefaultCalibrationParams()
	params.CornerRadius = 0
	require.NoError(t, ExportDXF(path, params, true))

	d, err := dxf.Open(path)
	require.NoError(t, err)
	crosses := (params.Rows - 1) * (params.Cols - 1)
	assert.Len(t, d.Entities(), 4*params.Capacity()+2*crosses)
}
