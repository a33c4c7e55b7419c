package ui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/TagSheet/internal/editor"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/piwi3910/TagSheet/internal/preview"
	"github.com/piwi3910/TagSheet/internal/printer"
	"github.com/piwi3910/TagSheet/internal/project"
	"github.com/piwi3910/TagSheet/internal/render"
)

const defaultPrinterOption = "(system default)"

// showSettingsDialog displays the application settings editor.
func (a *App) showSettingsDialog() {
	cfg := a.config

	themeSelect := widget.NewSelect([]string{"system", "light", "dark"}, func(selected string) {
		cfg.Theme = selected
	})
	themeSelect.SetSelected(cfg.Theme)

	modeNames := make([]string, len(modeOrder))
	for i, m := range modeOrder {
		modeNames[i] = a.modeName(m)
	}
	modeSelect := widget.NewSelect(modeNames, func(selected string) {
		for _, m := range modeOrder {
			if a.modeName(m) == selected {
				cfg.DefaultMode = m
			}
		}
	})
	modeSelect.SetSelected(a.modeName(cfg.DefaultMode))

	stringEntry := func(val *string) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(*val)
		e.OnChanged = func(text string) { *val = text }
		return e
	}

	// Queue names come from lpstat, which may be slow or missing.
	printerSelect := widget.NewSelect([]string{defaultPrinterOption}, func(selected string) {
		if selected == defaultPrinterOption {
			cfg.PrinterName = ""
		} else {
			cfg.PrinterName = selected
		}
	})
	if cfg.PrinterName == "" {
		printerSelect.SetSelected(defaultPrinterOption)
	} else {
		printerSelect.Options = append(printerSelect.Options, cfg.PrinterName)
		printerSelect.SetSelected(cfg.PrinterName)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		names, err := printer.Printers(ctx, printer.ExecRunner)
		if err != nil {
			slog.Warn("printer list unavailable", "error", err)
			return
		}
		fyne.Do(func() {
			options := append([]string{defaultPrinterOption}, names...)
			if cfg.PrinterName != "" && !slices.Contains(options, cfg.PrinterName) {
				options = append(options, cfg.PrinterName)
			}
			printerSelect.Options = options
			printerSelect.Refresh()
		})
	}()

	formatSelect := widget.NewSelect([]string{printer.FormatRaster.String(), printer.FormatPDF.String()}, func(selected string) {
		cfg.PrintFormat = selected
	})
	if f, err := printer.ParseFormat(cfg.PrintFormat); err == nil {
		formatSelect.SetSelected(f.String())
	} else {
		formatSelect.SetSelected(printer.FormatRaster.String())
	}

	logoEntry := stringEntry(&cfg.LogoPath)
	logoBrowse := widget.NewButton("Browse...", func() {
		d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			logoEntry.SetText(reader.URI().Path())
			reader.Close()
		}, a.window)
		d.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg"}))
		d.Show()
	})

	formItems := []*widget.FormItem{
		widget.NewFormItem("Theme", themeSelect),
		widget.NewFormItem("", widget.NewSeparator()),
		widget.NewFormItem(fmt.Sprintf("Exchange Rate (%s per %s)", cfg.CurrencyA.Code, cfg.CurrencyB.Code), floatEntry(&cfg.ExchangeRate)),
		widget.NewFormItem("Default Conversion", modeSelect),
		widget.NewFormItem("Currency A Suffix", stringEntry(&cfg.CurrencyA.Suffix)),
		widget.NewFormItem("Currency B Suffix", stringEntry(&cfg.CurrencyB.Suffix)),
		widget.NewFormItem("", widget.NewSeparator()),
		widget.NewFormItem("Printer", printerSelect),
		widget.NewFormItem("Send As", formatSelect),
		widget.NewFormItem("Print Resolution (dpi)", floatEntry(&cfg.PrintDPI)),
		widget.NewFormItem("Preview Resolution (dpi)", floatEntry(&cfg.PreviewDPI)),
		widget.NewFormItem("PDF Rasterizer", stringEntry(&cfg.RasterizerPath)),
		widget.NewFormItem("Shop Logo", container.NewBorder(nil, nil, nil, logoBrowse, logoEntry)),
	}

	d := dialog.NewForm("Settings", "Save", "Cancel", formItems,
		func(ok bool) {
			if !ok {
				return
			}
			if cfg.ExchangeRate <= 0 || cfg.PrintDPI <= 0 || cfg.PreviewDPI <= 0 {
				dialog.ShowError(fmt.Errorf("exchange rate and resolutions must be > 0"), a.window)
				return
			}
			a.applyConfig(cfg)
			if err := a.saveConfig(); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save settings: %w", err), a.window)
			} else {
				dialog.ShowInformation("Settings Saved", "Application settings have been saved.", a.window)
			}
		},
		a.window,
	)
	d.Resize(fyne.NewSize(560, 600))
	d.Show()
}

// applyConfig swaps in cfg and rebuilds everything derived from it.
func (a *App) applyConfig(cfg model.AppConfig) {
	logoChanged := cfg.LogoPath != a.config.LogoPath
	a.config = cfg
	a.editor.SetCurrencies(cfg.CurrencyA, cfg.CurrencyB)
	if logoChanged {
		a.logos = render.NewLogos(a.loadShopLogo())
	}
	a.spooler = printer.NewSpooler(cfg)
	a.preview = preview.NewCache(preview.Pdftoppm{Binary: cfg.RasterizerPath}, cfg.PreviewDPI)
	if a.sheet != nil {
		a.sheet.SetDPI(cfg.PreviewDPI)
	}
	a.applyTheme()
	a.refresh()
}

// showImportExportDialog displays the backup dialog. A backup holds the
// settings, calibration, current sheet and presets.
func (a *App) showImportExportDialog() {
	exportBtn := widget.NewButton("Export All Data...", func() {
		a.fields.commitFocused()
		backup := project.NewBackup(a.config, a.calibration, a.editor.Session(), a.presets)
		d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil || writer == nil {
				return
			}
			path := writer.URI().Path()
			writer.Close()
			if err := project.ExportAllData(path, backup); err != nil {
				dialog.ShowError(err, a.window)
			} else {
				dialog.ShowInformation("Export Complete",
					fmt.Sprintf("All application data exported to:\n%s", path), a.window)
			}
		}, a.window)
		d.SetFileName("tagsheet-backup.json")
		d.Show()
	})

	importBtn := widget.NewButton("Import All Data...", func() {
		dialog.ShowConfirm("Import Data",
			"Importing data will replace your settings, calibration, current sheet and presets.\n\nAre you sure you want to continue?",
			func(ok bool) {
				if !ok {
					return
				}
				d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
					if err != nil || reader == nil {
						return
					}
					path := reader.URI().Path()
					reader.Close()
					backup, err := project.ImportAllData(path)
					if err != nil {
						dialog.ShowError(err, a.window)
						return
					}
					if err := a.restoreBackup(backup); err != nil {
						dialog.ShowError(fmt.Errorf("failed to save imported data: %w", err), a.window)
						return
					}
					dialog.ShowInformation("Import Complete",
						fmt.Sprintf("Data imported successfully from backup created at %s.", backup.CreatedAt), a.window)
				}, a.window)
				d.Show()
			},
			a.window,
		)
	})

	content := container.NewVBox(
		widget.NewLabel("Export all application data (settings, calibration, current sheet, presets)\nto a backup file, or import from a previously exported backup."),
		widget.NewSeparator(),
		exportBtn,
		widget.NewSeparator(),
		importBtn,
	)

	d := dialog.NewCustom("Import / Export Data", "Close", content, a.window)
	d.Resize(fyne.NewSize(480, 250))
	d.Show()
}

// restoreBackup applies and persists every store of backup. The sheet is
// loaded through the editor so the import can be undone.
func (a *App) restoreBackup(backup project.BackupData) error {
	var errs []string
	a.applyConfig(backup.Config)
	if err := a.saveConfig(); err != nil {
		errs = append(errs, err.Error())
	}

	a.presets = backup.Presets
	if err := project.SavePresets(a.paths.Presets(), a.presets); err != nil {
		errs = append(errs, err.Error())
	}
	a.fields.refreshPresets()

	a.calibration = backup.Calibration
	a.setCalibration(a.calibration.Calibration)
	a.SetupMenus()

	session := backup.Session
	if session.Mode.Valid() {
		a.dispatch(editor.ModeChanged{Mode: session.Mode})
	}
	a.editor.SetRate(session.ExchangeRate)
	a.editor.Load(session.Cells, "Import Backup")

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
