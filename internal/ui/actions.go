package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/TagSheet/internal/export"
	"github.com/piwi3910/TagSheet/internal/importer"
	"github.com/piwi3910/TagSheet/internal/model"
)

// printTimeout bounds one spool run, including rendering.
const printTimeout = 2 * time.Minute

// saveFile shows a save dialog for name and calls write with the chosen
// path. A successful write is added to the recent exports.
func (a *App) saveFile(name string, exts []string, write func(path string) (string, error)) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		msg, err := write(path)
		if err != nil {
			slog.Error("export failed", "path", path, "error", err)
			dialog.ShowError(err, a.window)
			return
		}
		a.rememberExport(path)
		dialog.ShowInformation("Export Complete", msg, a.window)
	}, a.window)
	d.SetFileName(name)
	if len(exts) > 0 {
		d.SetFilter(storage.NewExtensionFileFilter(exts))
	}
	d.Show()
}

func (a *App) exportPDF() {
	a.exportJobPDF(a.job(), "labels.pdf")
}

func (a *App) exportJobPDF(job export.Job, name string) {
	a.saveFile(name, []string{".pdf"}, func(path string) (string, error) {
		if err := export.ExportPDF(path, job); err != nil {
			return "", err
		}
		return fmt.Sprintf("PDF saved to %s (%d page(s)).", path, len(job.Pages())), nil
	})
}

func (a *App) exportPNG() {
	job := a.job()
	dpi := a.config.PrintDPI
	a.saveFile("labels.png", []string{".png"}, func(path string) (string, error) {
		written, err := export.ExportPNG(path, job, dpi)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Saved %d image(s) at %.0f dpi:\n%s", len(written), dpi, strings.Join(written, "\n")), nil
	})
}

func (a *App) exportDXF() {
	params := a.calibration.Params
	a.saveFile("label-outlines.dxf", []string{".dxf"}, func(path string) (string, error) {
		if err := export.ExportDXF(path, params, true); err != nil {
			return "", err
		}
		return fmt.Sprintf("Cut outlines saved to %s.", path), nil
	})
}

// printSheet spools the sheet in the background. The job is snapshotted
// first, so edits made while printing do not reach the printer.
func (a *App) printSheet() {
	a.fields.commitFocused()
	job := a.job()
	spooler := a.spooler
	printerName := spooler.Printer
	if printerName == "" {
		printerName = "default printer"
	}
	a.status.SetText(fmt.Sprintf("Printing to %s...", printerName))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), printTimeout)
		defer cancel()
		ids, err := spooler.Print(ctx, "TagSheet labels", job)
		fyne.Do(func() {
			if err != nil {
				slog.Error("print failed", "printer", printerName, "error", err)
				dialog.ShowError(err, a.window)
				a.updateStatus()
				return
			}
			a.status.SetText(fmt.Sprintf("Sent %d page(s) to %s %s", len(ids), printerName, strings.Join(ids, " ")))
		})
	}()
}

// importItems loads a CSV or Excel item list into the sheet. Each row
// becomes as many labels as its copies, styled like the selected label.
func (a *App) importItems() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		var result importer.ImportResult
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			result = importer.ImportExcel(path)
		} else {
			result = importer.ImportCSV(path)
		}
		a.handleImportResult(result)
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".txt", ".xlsx"}))
	d.Show()
}

func (a *App) handleImportResult(result importer.ImportResult) {
	if len(result.Warnings) > 0 {
		slog.Info("import warnings", "warnings", result.Warnings)
	}
	if len(result.Items) == 0 {
		msg := "No items found."
		if len(result.Errors) > 0 {
			msg = "Errors encountered during import:\n\n" + strings.Join(result.Errors, "\n")
		}
		dialog.ShowError(errors.New(msg), a.window)
		return
	}

	base, _ := a.editor.Cell(a.editor.Selection().Primary())
	cells := importer.ExpandItems(result.Items, base, a.editor.Linker())
	capacity := a.calibration.Params.Normalize().Capacity()

	msg := fmt.Sprintf("Imported %d item(s) as %d label(s).", len(result.Items), len(cells))
	if len(result.Errors) > 0 {
		msg += fmt.Sprintf("\n\n%d row(s) had errors and were skipped:\n%s",
			len(result.Errors), strings.Join(result.Errors, "\n"))
	}

	if len(cells) <= capacity {
		a.editor.Load(cells, "Import Items")
		dialog.ShowInformation("Import Complete", msg, a.window)
		return
	}

	// More labels than one sheet holds: the editor keeps the first sheet,
	// the full run can go straight to a multi-page PDF.
	job := a.job()
	job.Cells = cells
	pages := len(job.Pages())
	msg += fmt.Sprintf("\n\nThat is %d sheets of %d labels. The first sheet is loaded for editing.", pages, capacity)
	dialog.ShowCustomConfirm("Import Complete", "Export All to PDF...", "Load First Sheet",
		widget.NewLabel(msg), func(exportAll bool) {
			a.editor.Load(cells[:capacity], "Import Items")
			if exportAll {
				a.exportJobPDF(job, "labels-all.pdf")
			}
		}, a.window)
}

// exportItems writes the filled labels as an item list.
func (a *App) exportItems() {
	a.fields.commitFocused()
	items := importer.CollapseCells(a.editor.Cells())
	if len(items) == 0 {
		dialog.ShowInformation("Nothing to export", "Fill in at least one label first.", a.window)
		return
	}
	a.saveFile("items.csv", []string{".csv", ".xlsx"}, func(path string) (string, error) {
		var err error
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			err = importer.ExportExcel(path, items)
		} else {
			err = importer.ExportCSV(path, items)
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Exported %d item(s) (%d labels) to %s.", len(items), model.TotalCopies(items), path), nil
	})
}

// importSheetTemplate derives the label grid from a vendor DXF template.
// Printer properties stay as calibrated.
func (a *App) importSheetTemplate() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		result, err := importer.ImportSheetTemplate(path, a.calibration.Params)
		if err != nil {
			dialog.ShowError(fmt.Errorf("template import failed: %w", err), a.window)
			return
		}
		p := result.Params
		msg := fmt.Sprintf("Found %d labels: %d rows x %d columns of %.1f x %.1f mm.\nGaps %.1f / %.1f mm, first label at %.1f / %.1f mm.",
			result.Labels, p.Rows, p.Cols, p.LabelWidth, p.LabelHeight, p.ColGap, p.RowGap, p.SheetOffsetLeft, p.SheetOffsetTop)
		if len(result.Warnings) > 0 {
			msg += "\n\n" + strings.Join(result.Warnings, "\n")
		}
		dialog.ShowConfirm("Apply Sheet Template", msg+"\n\nApply this layout?", func(ok bool) {
			if !ok {
				return
			}
			cal := a.calibration.Calibration
			cal.Params = p.Normalize()
			a.setCalibration(cal)
		}, a.window)
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".dxf"}))
	d.Show()
}
