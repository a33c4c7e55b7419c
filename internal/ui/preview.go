package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/TagSheet/internal/export"
	"github.com/piwi3910/TagSheet/internal/preview"
)

const previewTimeout = 30 * time.Second

// showPrintPreview opens a window with the first page exactly as it will
// be printed: the exported PDF rasterized by an external tool. Without the
// tool the page is rasterized in-process instead.
func (a *App) showPrintPreview() {
	a.fields.commitFocused()

	win := a.app.NewWindow("Print Preview")
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(420, 595))
	status := widget.NewLabel("Rendering...")

	load := func() {
		status.SetText("Rendering...")
		a.renderPreview(func(page image.Image, note string, err error) {
			if err != nil {
				status.SetText(fmt.Sprintf("Preview failed: %v", err))
				return
			}
			img.Image = page
			img.Refresh()
			status.SetText(note)
		})
	}

	refresh := newIconButtonWithTooltip(theme.ViewRefreshIcon(), "Render again", load)
	printBtn := newButtonWithTooltip("Print", theme.DocumentPrintIcon(), "Send this sheet to the printer", func() {
		a.printSheet()
		win.Close()
	})
	bar := container.NewBorder(nil, nil, refresh, printBtn, status)

	win.SetContent(container.NewBorder(nil, bar, nil, nil, img))
	win.Resize(fyne.NewSize(520, 760))
	win.Show()
	load()
}

// renderPreview produces the preview off the UI goroutine and calls done
// on it. Results superseded by a newer request are dropped silently.
func (a *App) renderPreview(done func(image.Image, string, error)) {
	job := a.job()
	sig, err := preview.Signature(job.Calibration, job.Cells, job.Options.Overlays,
		job.Options.CurrencyA, job.Options.CurrencyB, a.config.LogoPath)
	if err != nil {
		done(nil, "", err)
		return
	}
	cache := a.preview
	dpi := a.config.PreviewDPI

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), previewTimeout)
		defer cancel()

		page, err := cache.Image(ctx, sig, func() ([]byte, error) {
			p, err := export.RenderPDF(job)
			if err != nil {
				return nil, err
			}
			var buf bytes.Buffer
			if err := p.Document().Output(&buf); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		})
		note := fmt.Sprintf("Page 1 of %d, rendered from PDF", len(job.Pages()))

		if errors.Is(err, preview.ErrRasterizer) {
			slog.Warn("pdf rasterizer unavailable, drawing preview in-process", "error", err)
			page, err = rasterFallback(job, dpi)
			note = fmt.Sprintf("Page 1 of %d (install pdftoppm for a PDF-exact preview)", len(job.Pages()))
		}
		if errors.Is(err, preview.ErrStale) {
			return
		}
		fyne.Do(func() { done(page, note, err) })
	}()
}

func rasterFallback(job export.Job, dpi float64) (image.Image, error) {
	pages, err := export.RenderRaster(job, dpi)
	if err != nil {
		return nil, err
	}
	return pages[0].Image(), nil
}
