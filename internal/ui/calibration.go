package ui

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/TagSheet/internal/export"
	"github.com/piwi3910/TagSheet/internal/model"
)

// floatEntry creates an entry bound to val. Unparseable text leaves val
// unchanged.
func floatEntry(val *float64) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.FormatFloat(*val, 'f', -1, 64))
	e.OnChanged = func(text string) {
		if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			*val = v
		}
	}
	return e
}

func intEntry(val *int) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(strconv.Itoa(*val))
	e.OnChanged = func(text string) {
		if v, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			*val = v
		}
	}
	return e
}

// showCalibrationDialog edits the sheet geometry and printer registration.
// Nothing is applied until Save.
func (a *App) showCalibrationDialog() {
	cal := a.calibration.Calibration
	p := &cal.Params

	pageSection := widget.NewCard("Page", "Paper size and the border the printer cannot reach",
		container.NewGridWithColumns(4,
			widget.NewLabel("Width (mm)"), floatEntry(&p.PageWidth),
			widget.NewLabel("Height (mm)"), floatEntry(&p.PageHeight),
			widget.NewLabel("HW margin left"), floatEntry(&p.HWMarginLeft),
			widget.NewLabel("HW margin top"), floatEntry(&p.HWMarginTop),
			widget.NewLabel("HW margin right"), floatEntry(&p.HWMarginRight),
			widget.NewLabel("HW margin bottom"), floatEntry(&p.HWMarginBottom),
		))

	gridSection := widget.NewCard("Label Grid", "Label stock layout",
		container.NewGridWithColumns(4,
			widget.NewLabel("Rows"), intEntry(&p.Rows),
			widget.NewLabel("Columns"), intEntry(&p.Cols),
			widget.NewLabel("Label width (mm)"), floatEntry(&p.LabelWidth),
			widget.NewLabel("Label height (mm)"), floatEntry(&p.LabelHeight),
			widget.NewLabel("Column gap (mm)"), floatEntry(&p.ColGap),
			widget.NewLabel("Row gap (mm)"), floatEntry(&p.RowGap),
			widget.NewLabel("Corner radius (mm)"), floatEntry(&p.CornerRadius),
		))

	skipHW := widget.NewCheck("Printer origin is the printable area (usual)", func(on bool) {
		cal.SkipHWMargin = on
	})
	skipHW.SetChecked(cal.SkipHWMargin)

	factorLabel := widget.NewLabel("")
	showFactor := func() {
		factorLabel.SetText(fmt.Sprintf("Scale correction: %.4f", p.Normalize().ScaleCorrectionFactor))
	}
	showFactor()

	measured := 0.0
	measuredEntry := widget.NewEntry()
	measuredEntry.SetPlaceHolder("measured grid width (mm)")
	measuredEntry.OnChanged = func(text string) {
		measured, _ = strconv.ParseFloat(strings.TrimSpace(text), 64)
	}
	recalBtn := widget.NewButtonWithIcon("Apply Measurement", theme.ViewRefreshIcon(), func() {
		if measured <= 0 {
			dialog.ShowInformation("Measurement needed",
				fmt.Sprintf("Print the test sheet and measure from the left edge of the first column\n"+
					"to the right edge of the last column (expected %.1f mm).", p.GridWidth()), a.window)
			return
		}
		p.Recalibrate(measured)
		showFactor()
	})
	resetBtn := widget.NewButton("Reset to 1.0", func() {
		p.ScaleCorrectionFactor = 1.0
		showFactor()
	})

	registrationSection := widget.NewCard("Printer Registration",
		"Offset of the first label from the printable origin, and scale correction",
		container.NewVBox(
			container.NewGridWithColumns(4,
				widget.NewLabel("Offset left (mm)"), floatEntry(&p.SheetOffsetLeft),
				widget.NewLabel("Offset top (mm)"), floatEntry(&p.SheetOffsetTop),
			),
			skipHW,
			factorLabel,
			container.NewBorder(nil, nil, nil, container.NewHBox(recalBtn, resetBtn), measuredEntry),
		))

	testBtn := widget.NewButtonWithIcon("Calibration Test Sheet (PDF)...", theme.DocumentPrintIcon(), func() {
		a.saveCalibrationSheet(cal)
	})
	templateBtn := widget.NewButtonWithIcon("Reset to A4 21-up", theme.ContentUndoIcon(), nil)

	content := container.NewVScroll(container.NewVBox(
		pageSection,
		gridSection,
		registrationSection,
		container.NewHBox(testBtn, templateBtn),
	))
	content.SetMinSize(fyne.NewSize(620, 520))

	var d dialog.Dialog
	templateBtn.OnTapped = func() {
		dialog.ShowConfirm("Reset Calibration", "Replace the sheet layout with the A4 21-up defaults?", func(ok bool) {
			if ok {
				d.Hide()
				def := model.DefaultCalibration()
				def.Toggles = a.calibration.Toggles
				a.setCalibration(def)
			}
		}, a.window)
	}
	d = dialog.NewCustomConfirm("Sheet Calibration", "Save", "Cancel", content, func(ok bool) {
		if !ok {
			return
		}
		cal.Params = cal.Params.Normalize()
		a.setCalibration(cal)
		if warnings := cal.Params.Validate(); len(warnings) > 0 {
			dialog.ShowInformation("Calibration Warnings", strings.Join(warnings, "\n"), a.window)
		}
	}, a.window)
	d.Show()
}

// exportCalibrationSheet writes the test sheet for the saved calibration.
func (a *App) exportCalibrationSheet() {
	a.saveCalibrationSheet(a.calibration.Calibration)
}

func (a *App) saveCalibrationSheet(cal model.Calibration) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		path := writer.URI().Path()
		if err := export.ExportCalibrationPDF(path, cal, export.DefaultFillColor, a.job()); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.rememberExport(path)
		dialog.ShowInformation("Test Sheet Saved",
			fmt.Sprintf("Calibration test sheet saved to %s.\n\n"+
				"Page 1 shows the printable area. On page 2 measure the 50 mm square\n"+
				"and the grid width, then enter the width under Printer Registration.", path), a.window)
	}, a.window)
	d.SetFileName("calibration-test.pdf")
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	d.Show()
}
