// Package ui is the TagSheet desktop interface: the sheet preview, the
// label field editor, and dialogs for calibration, presets and settings.
package ui

import (
	"fmt"
	"image"
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/TagSheet/internal/editor"
	"github.com/piwi3910/TagSheet/internal/export"
	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/piwi3910/TagSheet/internal/preview"
	"github.com/piwi3910/TagSheet/internal/printer"
	"github.com/piwi3910/TagSheet/internal/project"
	"github.com/piwi3910/TagSheet/internal/render"
	"github.com/piwi3910/TagSheet/internal/ui/widgets"
)

// App holds all application state and UI references. Every field is owned
// by the UI goroutine; background work copies what it needs first.
type App struct {
	app    fyne.App
	window fyne.Window
	paths  project.Paths
	theme  *TagSheetTheme

	config      model.AppConfig
	calibration project.CalibrationFile
	presets     model.PresetStore
	editor      *editor.Editor

	fonts   *fonts.Registry
	logos   *render.Logos
	spooler *printer.Spooler
	preview *preview.Cache

	// UI references for dynamic updates
	sheet  *widgets.SheetCanvas
	fields *fieldPanel
	status *widget.Label
}

// NewApp loads the stores under paths and creates the editor. Unreadable
// stores are logged and replaced by defaults; they never stop startup.
func NewApp(application fyne.App, window fyne.Window, paths project.Paths, reg *fonts.Registry) *App {
	a := &App{
		app:    application,
		window: window,
		paths:  paths,
		fonts:  reg,
	}

	var err error
	if a.config, err = project.LoadAppConfig(paths.Config()); err != nil {
		slog.Warn("config unreadable, using defaults", "path", paths.Config(), "error", err)
	}
	if a.calibration, err = project.LoadCalibration(paths.Calibration()); err != nil {
		slog.Warn("calibration unreadable, using defaults", "path", paths.Calibration(), "error", err)
	}
	if a.presets, err = project.LoadPresets(paths.Presets()); err != nil {
		slog.Warn("presets unreadable, starting empty", "path", paths.Presets(), "error", err)
		a.presets = model.NewPresetStore()
	}

	session, err := project.LoadSession(paths.Session())
	if err != nil {
		slog.Warn("session unreadable, starting blank", "path", paths.Session(), "error", err)
	}
	if _, statErr := os.Stat(paths.Session()); err != nil || statErr != nil {
		session.Mode = a.config.DefaultMode
		session.ExchangeRate = a.config.ExchangeRate
	}
	session.Reconcile(a.calibration.Params.Normalize().Capacity())
	a.editor = editor.New(session)
	a.editor.SetCurrencies(a.config.CurrencyA, a.config.CurrencyB)
	a.editor.OnChange = a.sessionChanged

	a.logos = render.NewLogos(a.loadShopLogo())
	a.spooler = printer.NewSpooler(a.config)
	a.preview = preview.NewCache(preview.Pdftoppm{Binary: a.config.RasterizerPath}, a.config.PreviewDPI)

	a.theme = NewTagSheetTheme()
	a.applyTheme()
	return a
}

func (a *App) loadShopLogo() image.Image {
	if a.config.LogoPath == "" {
		return nil
	}
	img, err := render.LoadImage(a.config.LogoPath)
	if err != nil {
		slog.Warn("shop logo unreadable", "path", a.config.LogoPath, "error", err)
		return nil
	}
	return img
}

// Params implements widgets.SheetSource.
func (a *App) Params() model.CalibrationParams {
	return a.calibration.Params
}

// Cells implements widgets.SheetSource.
func (a *App) Cells() []model.LabelContent {
	return a.editor.Cells()
}

// Options implements widgets.SheetSource.
func (a *App) Options() render.Options {
	return render.Options{
		Overlays:  a.calibration.Toggles,
		Selected:  a.editor.Selection().Lookup(),
		CurrencyA: a.config.CurrencyA,
		CurrencyB: a.config.CurrencyB,
		Logos:     a.logos,
	}
}

// job snapshots the session for an export or print. The cells are copied
// so background work never sees later edits.
func (a *App) job() export.Job {
	return export.Job{
		Calibration: a.calibration.Calibration,
		Cells:       model.CopyCells(a.editor.Cells()),
		Options:     render.PrintOptions(a.Options()),
		Fonts:       a.fonts,
	}
}

// sessionChanged autosaves the session and redraws.
func (a *App) sessionChanged(s model.Session) {
	if err := project.SaveSession(a.paths.Session(), s); err != nil {
		slog.Error("autosave failed", "path", a.paths.Session(), "error", err)
	}
	a.refresh()
}

// refresh redraws the sheet and re-reads the primary cell into the field
// panel.
func (a *App) refresh() {
	if a.sheet != nil {
		a.sheet.Refresh()
	}
	if a.fields != nil {
		a.fields.sync()
	}
	a.updateStatus()
}

func (a *App) updateStatus() {
	if a.status == nil {
		return
	}
	p := a.calibration.Params.Normalize()
	filled := 0
	for _, c := range a.editor.Cells() {
		if !c.IsBlank() {
			filled++
		}
	}
	a.status.SetText(fmt.Sprintf("%d x %d labels (%.1f x %.1f mm)  |  %d filled  |  %d selected  |  %s",
		p.Rows, p.Cols, p.LabelWidth, p.LabelHeight, filled,
		selectedCount(a.editor.Selection()), a.modeName(a.editor.Mode())))
}

func selectedCount(s *editor.Selection) int {
	return len(s.Selected())
}

// SetupMenus creates the native menu bar for the application.
func (a *App) SetupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Sheet", func() {
			dialog.ShowConfirm("New Sheet", "Clear every label on the sheet?", func(ok bool) {
				if ok {
					a.editor.Load(nil, "New Sheet")
				}
			}, a.window)
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Items...", a.importItems),
		fyne.NewMenuItem("Export Items...", a.exportItems),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PDF...", a.exportPDF),
		fyne.NewMenuItem("Export PNG...", a.exportPNG),
		fyne.NewMenuItem("Export Cut Outlines (DXF)...", a.exportDXF),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Print Preview", a.showPrintPreview),
		fyne.NewMenuItem("Print...", a.printSheet),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import / Export Data...", a.showImportExportDialog),
	)

	undo := fyne.NewMenuItem("Undo", a.undo)
	undo.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	redo := fyne.NewMenuItem("Redo", a.redo)
	redo.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}
	editMenu := fyne.NewMenu("Edit",
		undo,
		redo,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Copy Label", a.editor.Copy),
		fyne.NewMenuItem("Copy Style", a.editor.CopyStyle),
		fyne.NewMenuItem("Paste", a.paste),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Select All", func() {
			a.editor.Selection().SelectAll()
			a.refresh()
		}),
		fyne.NewMenuItem("Clear Selected Labels", a.clearSelected),
	)

	sheetMenu := fyne.NewMenu("Sheet",
		fyne.NewMenuItem("Calibration...", a.showCalibrationDialog),
		fyne.NewMenuItem("Import Sheet Template (DXF)...", a.importSheetTemplate),
		fyne.NewMenuItem("Calibration Test Sheet (PDF)...", a.exportCalibrationSheet),
		fyne.NewMenuItemSeparator(),
		a.overlayItem("Ruler", func(o *model.Overlays) *bool { return &o.Ruler }),
		a.overlayItem("Page Border", func(o *model.Overlays) *bool { return &o.PageBorder }),
		a.overlayItem("Cell Outlines", func(o *model.Overlays) *bool { return &o.CellOutline }),
		a.overlayItem("Crosshairs", func(o *model.Overlays) *bool { return &o.Crosshairs }),
		a.overlayItem("Calibration Square", func(o *model.Overlays) *bool { return &o.CalibrationSquare }),
		a.overlayItem("Selection Highlight", func(o *model.Overlays) *bool { return &o.Selection }),
	)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Style Presets...", a.showPresetManager),
		fyne.NewMenuItem("Settings...", a.showSettingsDialog),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", a.showAboutDialog),
	)

	a.window.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, sheetMenu, toolsMenu, helpMenu))

	// Edit shortcuts act on labels; text entries keep their own clipboard.
	canvas := a.window.Canvas()
	canvas.AddShortcut(undo.Shortcut, func(fyne.Shortcut) { a.undo() })
	canvas.AddShortcut(redo.Shortcut, func(fyne.Shortcut) { a.redo() })
}

// overlayItem returns a checkable menu item bound to one overlay toggle.
// Toggles persist with the calibration.
func (a *App) overlayItem(label string, field func(*model.Overlays) *bool) *fyne.MenuItem {
	item := fyne.NewMenuItem(label, nil)
	item.Checked = *field(&a.calibration.Toggles)
	item.Action = func() {
		flag := field(&a.calibration.Toggles)
		*flag = !*flag
		item.Checked = *flag
		a.saveCalibration()
		a.refresh()
	}
	return item
}

func (a *App) showAboutDialog() {
	dialog.ShowInformation(
		"About TagSheet",
		"TagSheet - price tag sheet designer\n\n"+
			"Design dual-currency (BGN / EUR) price labels on\n"+
			"calibrated sticker sheets and print them 1:1.\n\n"+
			"Version 1.0.0",
		a.window,
	)
}

// Build constructs the full UI and returns the root container.
func (a *App) Build() fyne.CanvasObject {
	a.sheet = widgets.NewSheetCanvas(a, a.fonts, a.config.PreviewDPI)
	a.sheet.OnCellClicked = func(index int, mods editor.Modifiers) {
		a.fields.commitFocused()
		a.editor.Selection().Click(index, mods)
		a.refresh()
	}
	a.sheet.OnCellDoubleClicked = func(int) {
		a.fields.focusMain()
	}

	a.fields = newFieldPanel(a)
	a.status = widget.NewLabel("")

	split := container.NewHSplit(a.sheet, container.NewVScroll(a.fields.Build()))
	split.SetOffset(0.55)

	a.refresh()
	return container.NewBorder(a.buildToolbar(), a.status, nil, nil, split)
}

func (a *App) buildToolbar() fyne.CanvasObject {
	return container.NewHBox(
		newIconButtonWithTooltip(theme.ContentUndoIcon(), "Undo", a.undo),
		newIconButtonWithTooltip(theme.ContentRedoIcon(), "Redo", a.redo),
		widget.NewSeparator(),
		newIconButtonWithTooltip(theme.ContentCopyIcon(), "Copy label", a.editor.Copy),
		newIconButtonWithTooltip(theme.ColorPaletteIcon(), "Copy style only", a.editor.CopyStyle),
		newIconButtonWithTooltip(theme.ContentPasteIcon(), "Paste onto selection", a.paste),
		newIconButtonWithTooltip(theme.ContentClearIcon(), "Clear selected labels", a.clearSelected),
		widget.NewSeparator(),
		newIconButtonWithTooltip(theme.SettingsIcon(), "Sheet calibration", a.showCalibrationDialog),
		newIconButtonWithTooltip(theme.VisibilityIcon(), "Print preview", a.showPrintPreview),
		newIconButtonWithTooltip(theme.DocumentSaveIcon(), "Export PDF", a.exportPDF),
		newIconButtonWithTooltip(theme.DocumentPrintIcon(), "Print", a.printSheet),
	)
}

func (a *App) undo() {
	a.fields.commitFocused()
	a.editor.Undo()
}

func (a *App) redo() {
	a.fields.commitFocused()
	a.editor.Redo()
}

func (a *App) paste() {
	a.fields.commitFocused()
	if a.editor.ClipboardKind() == editor.ClipEmpty {
		a.status.SetText("Clipboard is empty")
		return
	}
	a.editor.Paste()
}

func (a *App) clearSelected() {
	a.dispatch(editor.ClearCells{})
}

// dispatch sends cmd to the editor and reports failures. Failed commands
// leave the session untouched.
func (a *App) dispatch(cmd editor.Command) {
	if err := a.editor.Dispatch(cmd); err != nil {
		slog.Error("edit rejected", "command", cmd.Label(), "error", err)
		dialog.ShowError(err, a.window)
	}
}

// saveConfig persists the current app config to disk.
func (a *App) saveConfig() error {
	return project.SaveAppConfig(a.paths.Config(), a.config)
}

func (a *App) saveCalibration() {
	if err := project.SaveCalibration(a.paths.Calibration(), a.calibration); err != nil {
		slog.Error("calibration save failed", "path", a.paths.Calibration(), "error", err)
		dialog.ShowError(fmt.Errorf("failed to save calibration: %w", err), a.window)
	}
}

// setCalibration replaces the calibration, persists it and reconciles the
// session with the new grid size.
func (a *App) setCalibration(cal model.Calibration) {
	a.calibration.Calibration = cal
	a.saveCalibration()
	for _, w := range cal.Params.Validate() {
		slog.Warn("calibration warning", "warning", w)
	}
	a.preview.Invalidate()
	a.editor.Resize(cal.Params.Normalize().Capacity())
	a.refresh()
}

func (a *App) rememberExport(path string) {
	a.config.AddRecentExport(path)
	if err := a.saveConfig(); err != nil {
		slog.Warn("config save failed", "error", err)
	}
}
