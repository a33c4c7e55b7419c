package ui

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/TagSheet/internal/currency"
	"github.com/piwi3910/TagSheet/internal/editor"
	"github.com/piwi3910/TagSheet/internal/model"
)

// commitEntry is a single-line entry that reports a finished edit on
// Enter and on focus loss. Only user typing marks it dirty; leaving an
// untouched entry commits nothing.
type commitEntry struct {
	widget.Entry
	onEdit   func(text string)
	onCommit func(text string)

	dirty bool
	quiet bool
}

func newCommitEntry(placeholder string) *commitEntry {
	e := &commitEntry{}
	e.ExtendBaseWidget(e)
	e.SetPlaceHolder(placeholder)
	e.OnChanged = func(text string) {
		if e.quiet {
			return
		}
		e.dirty = true
		if e.onEdit != nil {
			e.onEdit(text)
		}
	}
	e.OnSubmitted = func(string) { e.commit() }
	return e
}

func (e *commitEntry) FocusLost() {
	e.Entry.FocusLost()
	e.commit()
}

func (e *commitEntry) commit() {
	if !e.dirty {
		return
	}
	e.dirty = false
	if e.onCommit != nil {
		e.onCommit(e.Text)
	}
}

// setText loads text without marking the entry dirty. Equal text is left
// alone so the cursor of the entry being typed into does not move.
func (e *commitEntry) setText(text string) {
	if e.Text == text {
		return
	}
	e.quiet = true
	e.SetText(text)
	e.quiet = false
	e.dirty = false
}

var alignNames = []string{"Left", "Center", "Right"}

var alignValues = map[string]model.Align{
	"Left":   model.AlignLeft,
	"Center": model.AlignCenter,
	"Right":  model.AlignRight,
}

var logoNames = []string{"None", "Bottom left", "Bottom right"}

var logoValues = map[string]model.LogoPosition{
	"None":         model.LogoNone,
	"Bottom left":  model.LogoBottomLeft,
	"Bottom right": model.LogoBottomRight,
}

var modeOrder = []model.ConversionMode{model.ModeAToB, model.ModeBToA, model.ModeBoth, model.ModeManual}

// modeName describes a conversion mode with the configured currency codes.
func (a *App) modeName(m model.ConversionMode) string {
	ca, cb := a.config.CurrencyA.Code, a.config.CurrencyB.Code
	switch m {
	case model.ModeAToB:
		return fmt.Sprintf("%s → %s", ca, cb)
	case model.ModeBToA:
		return fmt.Sprintf("%s → %s", cb, ca)
	case model.ModeBoth:
		return fmt.Sprintf("%s ↔ %s", ca, cb)
	}
	return "Manual"
}

// fieldRow holds the controls of one text field.
type fieldRow struct {
	key    model.FieldKey
	entry  *commitEntry
	font   *widget.Select
	size   *commitEntry
	bold   *widget.Check
	italic *widget.Check
	align  *widget.Select
	fg, bg *canvas.Rectangle
}

// fieldPanel edits the primary selected cell. Text edits go to that cell;
// style, unit and logo edits go to every selected cell.
type fieldPanel struct {
	a       *App
	syncing bool

	header  *widget.Label
	rows    []*fieldRow
	unit    *commitEntry
	logoPos *widget.Select
	logoMM  *commitEntry
	opacity *widget.Slider
	qr      *commitEntry
	mode    *widget.Select
	rate    *commitEntry
	preset  *widget.Select
}

func newFieldPanel(a *App) *fieldPanel {
	return &fieldPanel{a: a}
}

// Build creates the panel's widgets.
func (p *fieldPanel) Build() fyne.CanvasObject {
	p.header = widget.NewLabel("")
	p.header.TextStyle = fyne.TextStyle{Bold: true}

	var cards []fyne.CanvasObject
	cards = append(cards, p.header)
	for _, key := range model.FieldKeys {
		row := p.newRow(key)
		p.rows = append(p.rows, row)
		cards = append(cards, widget.NewCard(p.fieldTitle(key), "", p.rowContent(row)))
	}
	cards = append(cards,
		widget.NewCard("Prices", "", p.buildPrices()),
		widget.NewCard("Logo", "", p.buildLogo()),
		widget.NewCard("Style Preset", "", p.buildPresets()),
	)

	p.sync()
	return container.NewVBox(cards...)
}

func (p *fieldPanel) fieldTitle(key model.FieldKey) string {
	switch key {
	case model.FieldMain:
		return "Product Name"
	case model.FieldSecond:
		return "Second Line"
	case model.FieldPriceA:
		return "Price " + p.a.config.CurrencyA.Code
	}
	return "Price " + p.a.config.CurrencyB.Code
}

func (p *fieldPanel) newRow(key model.FieldKey) *fieldRow {
	a := p.a
	row := &fieldRow{key: key}

	placeholder := "Text"
	if key.IsPrice() {
		placeholder = "0.00"
	}
	row.entry = newCommitEntry(placeholder)
	row.entry.onEdit = func(text string) {
		if p.syncing || a.editor.Linker().Busy() {
			return
		}
		a.dispatch(editor.FieldEdited{Cell: a.editor.Selection().Primary(), Key: key, Text: text})
	}
	row.entry.onCommit = func(text string) {
		if p.syncing {
			return
		}
		a.dispatch(editor.FieldCommitted{Cell: a.editor.Selection().Primary(), Key: key, Text: text})
	}

	row.font = widget.NewSelect(a.fonts.Families(), func(family string) {
		p.applyStyle(key, model.StylePatch{FontFamily: &family})
	})

	row.size = newCommitEntry("pt")
	row.size.onCommit = func(text string) {
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			p.sync()
			return
		}
		p.applyStyle(key, model.StylePatch{SizePt: &n})
	}

	row.bold = widget.NewCheck("Bold", func(on bool) {
		p.applyStyle(key, model.StylePatch{Bold: &on})
	})
	row.italic = widget.NewCheck("Italic", func(on bool) {
		p.applyStyle(key, model.StylePatch{Italic: &on})
	})
	row.align = widget.NewSelect(alignNames, func(name string) {
		if al, ok := alignValues[name]; ok {
			p.applyStyle(key, model.StylePatch{Align: &al})
		}
	})

	row.fg = swatch()
	row.bg = swatch()
	return row
}

func (p *fieldPanel) rowContent(row *fieldRow) fyne.CanvasObject {
	key := row.key
	fgBtn := widget.NewButton("Text", func() {
		p.pickColor("Text Colour", row.fg.FillColor, func(c model.RGB) {
			p.applyStyle(key, model.StylePatch{FontColor: &c})
		})
	})
	bgBtn := widget.NewButton("Fill", func() {
		p.pickColor("Background Colour", row.bg.FillColor, func(c model.RGB) {
			p.applyStyle(key, model.StylePatch{BgColor: &c})
		})
	})
	return container.NewVBox(
		row.entry,
		container.NewGridWithColumns(3, row.font, row.size, row.align),
		container.NewHBox(row.bold, row.italic, layout.NewSpacer(), row.fg, fgBtn, row.bg, bgBtn),
	)
}

func (p *fieldPanel) buildPrices() fyne.CanvasObject {
	a := p.a
	p.unit = newCommitEntry("e.g. kg")
	p.unit.onCommit = func(text string) {
		if !p.syncing {
			a.dispatch(editor.UnitChanged{Unit: text})
		}
	}

	names := make([]string, len(modeOrder))
	for i, m := range modeOrder {
		names[i] = a.modeName(m)
	}
	p.mode = widget.NewSelect(names, func(name string) {
		if p.syncing {
			return
		}
		for _, m := range modeOrder {
			if a.modeName(m) == name {
				a.dispatch(editor.ModeChanged{Mode: m})
			}
		}
	})

	p.rate = newCommitEntry(strconv.FormatFloat(model.BGNPerEUR, 'f', -1, 64))
	p.rate.onCommit = func(text string) {
		if p.syncing {
			return
		}
		if rate := currency.Parse(text); rate > 0 {
			a.editor.SetRate(rate)
		}
		p.sync()
	}

	return widget.NewForm(
		widget.NewFormItem("Unit", p.unit),
		widget.NewFormItem("Conversion", p.mode),
		widget.NewFormItem(fmt.Sprintf("%s per %s", a.config.CurrencyA.Code, a.config.CurrencyB.Code), p.rate),
	)
}

func (p *fieldPanel) buildLogo() fyne.CanvasObject {
	p.logoPos = widget.NewSelect(logoNames, func(string) { p.applyLogo() })
	p.logoMM = newCommitEntry("mm")
	p.logoMM.onCommit = func(string) { p.applyLogo() }
	p.opacity = widget.NewSlider(0, 1)
	p.opacity.Step = 0.05
	p.opacity.OnChangeEnded = func(float64) { p.applyLogo() }
	p.qr = newCommitEntry("QR code text (blank = shop logo)")
	p.qr.onCommit = func(string) { p.applyLogo() }

	return widget.NewForm(
		widget.NewFormItem("Position", p.logoPos),
		widget.NewFormItem("Size (mm)", p.logoMM),
		widget.NewFormItem("Opacity", p.opacity),
		widget.NewFormItem("QR text", p.qr),
	)
}

func (p *fieldPanel) buildPresets() fyne.CanvasObject {
	a := p.a
	p.preset = widget.NewSelect(a.presets.Names(), func(name string) {
		if p.syncing || name == "" {
			return
		}
		if preset := a.presets.FindByName(name); preset != nil {
			a.dispatch(editor.PresetApplied{Name: preset.Name, Style: preset.Style})
		}
	})
	p.preset.PlaceHolder = "Apply preset..."

	saveBtn := newIconButtonWithTooltip(theme.DocumentSaveIcon(), "Save this label's style as a preset", a.savePresetFromSelection)
	manageBtn := newIconButtonWithTooltip(theme.SettingsIcon(), "Manage presets", a.showPresetManager)
	return container.NewBorder(nil, nil, nil, container.NewHBox(saveBtn, manageBtn), p.preset)
}

// refreshPresets reloads the preset names after the store changed.
func (p *fieldPanel) refreshPresets() {
	if p.preset == nil {
		return
	}
	p.syncing = true
	defer func() { p.syncing = false }()
	p.preset.Options = p.a.presets.Names()
	p.preset.ClearSelected()
	p.preset.Refresh()
}

func (p *fieldPanel) applyStyle(key model.FieldKey, patch model.StylePatch) {
	if p.syncing {
		return
	}
	p.a.dispatch(editor.StyleApplied{Key: key, Patch: patch})
}

func (p *fieldPanel) applyLogo() {
	if p.syncing {
		return
	}
	logo := model.Logo{
		Position: logoValues[p.logoPos.Selected],
		Opacity:  p.opacity.Value,
		QRText:   strings.TrimSpace(p.qr.Text),
	}
	size, err := strconv.ParseFloat(strings.TrimSpace(p.logoMM.Text), 64)
	if err != nil || size <= 0 {
		p.sync()
		return
	}
	logo.SizeMM = size
	p.a.dispatch(editor.LogoChanged{Logo: logo})
}

func (p *fieldPanel) pickColor(title string, current color.Color, apply func(model.RGB)) {
	picker := dialog.NewColorPicker(title, "", func(c color.Color) {
		apply(rgbFrom(c))
	}, p.a.window)
	picker.Advanced = true
	picker.SetColor(current)
	picker.Show()
}

// sync loads the primary cell into the controls. Control callbacks fired
// by the reload are ignored.
func (p *fieldPanel) sync() {
	if p.header == nil {
		return
	}
	a := p.a
	p.syncing = true
	defer func() { p.syncing = false }()

	primary := a.editor.Selection().Primary()
	cell, ok := a.editor.Cell(primary)
	if !ok {
		p.header.SetText("No labels on this sheet")
		return
	}
	cols := a.calibration.Params.Normalize().Cols
	header := fmt.Sprintf("Label %d (row %d, column %d)", primary+1, primary/cols+1, primary%cols+1)
	if n := a.editor.Selection().Len(); n > 1 {
		header += fmt.Sprintf(" - styles apply to %d labels", n)
	}
	p.header.SetText(header)

	for _, row := range p.rows {
		f := cell.Field(row.key)
		row.entry.setText(f.Text)
		row.font.SetSelected(a.fonts.Resolve(f.FontFamily))
		row.size.setText(strconv.Itoa(f.SizePt))
		row.bold.SetChecked(f.Bold)
		row.italic.SetChecked(f.Italic)
		for name, al := range alignValues {
			if al == f.Align {
				row.align.SetSelected(name)
			}
		}
		setSwatch(row.fg, f.FontColor)
		setSwatch(row.bg, f.BgColor)
	}

	p.unit.setText(cell.Unit)
	p.mode.SetSelected(a.modeName(a.editor.Mode()))
	p.rate.setText(strconv.FormatFloat(a.editor.Session().ExchangeRate, 'f', -1, 64))

	for name, pos := range logoValues {
		if pos == cell.Logo.Position {
			p.logoPos.SetSelected(name)
		}
	}
	p.logoMM.setText(strconv.FormatFloat(cell.Logo.SizeMM, 'f', -1, 64))
	p.opacity.SetValue(cell.Logo.Opacity)
	p.qr.setText(cell.Logo.QRText)
}

// commitFocused finishes an edit in progress before the selection or
// history moves. Unfocusing fires the entry's FocusLost commit.
func (p *fieldPanel) commitFocused() {
	if p == nil {
		return
	}
	p.a.window.Canvas().Unfocus()
}

// focusMain puts the cursor in the product name entry.
func (p *fieldPanel) focusMain() {
	if len(p.rows) > 0 {
		p.a.window.Canvas().Focus(p.rows[0].entry)
	}
}

func swatch() *canvas.Rectangle {
	r := canvas.NewRectangle(color.White)
	r.StrokeColor = color.Gray{Y: 0x80}
	r.StrokeWidth = 1
	r.SetMinSize(fyne.NewSize(18, 18))
	return r
}

func setSwatch(r *canvas.Rectangle, c model.RGB) {
	nc := c.NRGBA()
	if r.FillColor != nc {
		r.FillColor = nc
		r.Refresh()
	}
}

func rgbFrom(c color.Color) model.RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return model.RGB{R: n.R, G: n.G, B: n.B}
}

