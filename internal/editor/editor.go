// Package editor owns the editable session: label cells, the cell
// selection, the clipboard and undo history. The UI and the CLI change
// labels only by dispatching commands to an Editor.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/piwi3910/TagSheet/internal/currency"
	"github.com/piwi3910/TagSheet/internal/model"
)

// ErrNoCell is returned by commands addressing a cell outside the grid.
var ErrNoCell = errors.New("no such cell")

// Command is one user edit.
type Command interface {
	// Label names the edit in the undo history.
	Label() string
	apply(e *Editor) (bool, error)
}

// FieldEdited is a keystroke-level text change. It does not run the
// currency linker and does not create its own undo step; the following
// FieldCommitted does.
type FieldEdited struct {
	Cell int
	Key  model.FieldKey
	Text string
}

// FieldCommitted finishes an edit (focus loss or Enter). Price fields are
// normalized and linked according to the conversion mode.
type FieldCommitted struct {
	Cell int
	Key  model.FieldKey
	Text string
}

// StyleApplied merges a partial style into one field (or every field when
// Key is empty) of each selected cell.
type StyleApplied struct {
	Key   model.FieldKey
	Patch model.StylePatch
}

// PresetApplied pastes a full label style onto the selection.
type PresetApplied struct {
	Name  string
	Style model.LabelStyle
}

// LogoChanged sets the logo of each selected cell.
type LogoChanged struct {
	Logo model.Logo
}

// UnitChanged sets the unit printed after the prices of each selected
// cell, such as "kg".
type UnitChanged struct {
	Unit string
}

// ClearCells resets the selected cells to blank labels.
type ClearCells struct{}

// ModeChanged switches the currency conversion mode.
type ModeChanged struct {
	Mode model.ConversionMode
}

func (FieldEdited) Label() string    { return "Edit Text" }
func (FieldCommitted) Label() string { return "Edit Text" }
func (StyleApplied) Label() string   { return "Change Style" }
func (PresetApplied) Label() string  { return "Apply Preset" }
func (LogoChanged) Label() string    { return "Change Logo" }
func (UnitChanged) Label() string    { return "Change Unit" }
func (ClearCells) Label() string     { return "Clear Labels" }
func (ModeChanged) Label() string    { return "Change Conversion Mode" }

// Editor dispatches commands against a session.
type Editor struct {
	session   model.Session
	selection *Selection
	clipboard Clipboard
	linker    *currency.Linker
	history   *History

	// pending is the state before the first uncommitted keystroke.
	pending *Snapshot

	// OnChange is called after every change to the session, with the
	// session as it now stands. The UI uses it for autosave and redraw.
	OnChange func(model.Session)
}

// New creates an editor over session. The session's cell count is taken
// as the grid size.
func New(session model.Session) *Editor {
	if !session.Mode.Valid() {
		session.Mode = model.ModeAToB
	}
	if session.ExchangeRate <= 0 {
		session.ExchangeRate = model.BGNPerEUR
	}
	session.Version = model.SessionVersion
	return &Editor{
		session:   session,
		selection: NewSelection(len(session.Cells)),
		linker:    currency.NewLinker(session.Mode, session.ExchangeRate),
		history:   NewHistory(),
	}
}

// Session returns a copy of the current session.
func (e *Editor) Session() model.Session {
	return e.session.Clone()
}

// Cells returns the live cells. Callers must not modify them.
func (e *Editor) Cells() []model.LabelContent {
	return e.session.Cells
}

// Cell returns a copy of cell i.
func (e *Editor) Cell(i int) (model.LabelContent, bool) {
	if i < 0 || i >= len(e.session.Cells) {
		return model.LabelContent{}, false
	}
	return e.session.Cells[i], true
}

// Selection returns the cell selection.
func (e *Editor) Selection() *Selection {
	return e.selection
}

// ClipboardKind returns what the clipboard holds.
func (e *Editor) ClipboardKind() ClipKind {
	return e.clipboard.Kind()
}

// Linker returns the currency linker. The UI consults Busy to ignore
// change events caused by the linker's own writes.
func (e *Editor) Linker() *currency.Linker {
	return e.linker
}

// Mode returns the current conversion mode.
func (e *Editor) Mode() model.ConversionMode {
	return e.session.Mode
}

// Dispatch applies cmd. OnChange fires when the session changed.
func (e *Editor) Dispatch(cmd Command) error {
	changed, err := cmd.apply(e)
	if err != nil {
		return err
	}
	if changed {
		e.changed()
	}
	return nil
}

// SetRate changes the exchange rate used by later commits.
func (e *Editor) SetRate(rate float64) {
	if rate <= 0 || rate == e.session.ExchangeRate {
		return
	}
	e.session.ExchangeRate = rate
	e.linker.Rate = rate
	e.changed()
}

// SetCurrencies tells the linker which decoration to strip from committed
// prices.
func (e *Editor) SetCurrencies(a, b model.Currency) {
	e.linker.CurrencyA = a
	e.linker.CurrencyB = b
}

// Resize reconciles the session with a grid of n cells, as after a
// calibration change.
func (e *Editor) Resize(n int) {
	if n == len(e.session.Cells) {
		return
	}
	e.commitPending()
	e.history.Push(MakeSnapshot(e.session, "Resize Grid"))
	e.session.Reconcile(n)
	e.selection.Resize(n)
	e.changed()
}

// Load replaces the whole session, as after an import. The previous cells
// are kept in the undo history.
func (e *Editor) Load(cells []model.LabelContent, label string) {
	e.commitPending()
	e.history.Push(MakeSnapshot(e.session, label))
	n := len(e.session.Cells)
	e.session.Cells = model.CopyCells(cells)
	e.session.Reconcile(n)
	e.selection.Set(0)
	e.changed()
}

// Copy puts the primary selected cell on the clipboard.
func (e *Editor) Copy() {
	if cell, ok := e.Cell(e.selection.Primary()); ok {
		e.clipboard.Copy(cell)
	}
}

// CopyStyle puts the style of the primary selected cell on the clipboard.
func (e *Editor) CopyStyle() {
	if cell, ok := e.Cell(e.selection.Primary()); ok {
		e.clipboard.CopyStyle(cell)
	}
}

// Paste applies the clipboard to the selection. It is a no-op when the
// clipboard is empty.
func (e *Editor) Paste() {
	if e.clipboard.Kind() == ClipEmpty || len(e.selection.Selected()) == 0 {
		return
	}
	e.commitPending()
	before := MakeSnapshot(e.session, "Paste "+e.clipboard.Kind().String())
	if e.clipboard.Paste(e.session.Cells, e.selection.Selected()) > 0 {
		e.history.Push(before)
		e.changed()
	}
}

// Undo restores the state before the last change.
func (e *Editor) Undo() bool {
	e.commitPending()
	snap, ok := e.history.Undo(MakeSnapshot(e.session, "Undo"))
	if ok {
		e.restore(snap)
	}
	return ok
}

// Redo re-applies the last undone change.
func (e *Editor) Redo() bool {
	e.commitPending()
	snap, ok := e.history.Redo(MakeSnapshot(e.session, "Redo"))
	if ok {
		e.restore(snap)
	}
	return ok
}

// CanUndo reports whether Undo has anything to restore.
func (e *Editor) CanUndo() bool {
	return e.pending != nil || e.history.CanUndo()
}

// CanRedo reports whether Redo has anything to restore.
func (e *Editor) CanRedo() bool {
	return e.history.CanRedo()
}

func (e *Editor) restore(snap Snapshot) {
	n := len(e.session.Cells)
	e.session.Cells = model.CopyCells(snap.Cells)
	e.session.Mode = snap.Mode
	e.linker.Mode = snap.Mode
	e.session.Reconcile(n)
	e.selection.Resize(n)
	e.changed()
}

// commitPending turns uncommitted keystrokes into their own undo step.
func (e *Editor) commitPending() {
	if e.pending != nil {
		e.history.Push(*e.pending)
		e.pending = nil
	}
}

func (e *Editor) changed() {
	if e.OnChange != nil {
		e.OnChange(e.session)
	}
}

func (e *Editor) cell(i int) (*model.LabelContent, error) {
	if i < 0 || i >= len(e.session.Cells) {
		return nil, fmt.Errorf("%w: %d", ErrNoCell, i)
	}
	return &e.session.Cells[i], nil
}

// eachSelected pushes one undo step and calls fn for every selected cell.
func (e *Editor) eachSelected(label string, fn func(c *model.LabelContent) error) (bool, error) {
	selected := e.selection.Selected()
	if len(selected) == 0 {
		return false, nil
	}
	e.commitPending()
	before := MakeSnapshot(e.session, label)
	for _, i := range selected {
		c, err := e.cell(i)
		if err != nil {
			return false, err
		}
		if err := fn(c); err != nil {
			e.session.Cells = before.Cells
			return false, err
		}
	}
	e.history.Push(before)
	return true, nil
}

func (c FieldEdited) apply(e *Editor) (bool, error) {
	cell, err := e.cell(c.Cell)
	if err != nil {
		return false, err
	}
	f := cell.Field(c.Key)
	if f == nil {
		return false, fmt.Errorf("%w: %q", model.ErrUnknownField, c.Key)
	}
	if f.Text == c.Text {
		return false, nil
	}
	if e.pending == nil {
		snap := MakeSnapshot(e.session, c.Label())
		e.pending = &snap
	}
	f.Text = c.Text
	return true, nil
}

func (c FieldCommitted) apply(e *Editor) (bool, error) {
	cell, err := e.cell(c.Cell)
	if err != nil {
		return false, err
	}
	if cell.Field(c.Key) == nil {
		return false, fmt.Errorf("%w: %q", model.ErrUnknownField, c.Key)
	}

	before := e.pending
	e.pending = nil
	if before == nil {
		snap := MakeSnapshot(e.session, c.Label())
		before = &snap
	}

	if c.Key.IsPrice() {
		if !e.linker.Commit(c.Key, c.Text, func(key model.FieldKey, text string) {
			cell.Field(key).Text = text
		}) {
			slog.Debug("price commit ignored while linker busy", "cell", c.Cell, "field", c.Key)
		}
	} else {
		cell.Field(c.Key).Text = c.Text
	}

	if sameCells(before.Cells, e.session.Cells) {
		return false, nil
	}
	e.history.Push(*before)
	return true, nil
}

func (c StyleApplied) apply(e *Editor) (bool, error) {
	keys := model.FieldKeys
	if c.Key != "" {
		keys = []model.FieldKey{c.Key}
	}
	return e.eachSelected(c.Label(), func(cell *model.LabelContent) error {
		for _, key := range keys {
			if err := cell.SetStyle(key, c.Patch); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c PresetApplied) apply(e *Editor) (bool, error) {
	if len(c.Style) == 0 {
		return false, nil
	}
	return e.eachSelected(c.Label(), func(cell *model.LabelContent) error {
		cell.ApplyStyle(c.Style)
		return nil
	})
}

func (c LogoChanged) apply(e *Editor) (bool, error) {
	logo := c.Logo
	if logo.Position == "" {
		logo.Position = model.LogoNone
	}
	return e.eachSelected(c.Label(), func(cell *model.LabelContent) error {
		cell.Logo = logo
		return nil
	})
}

func (c UnitChanged) apply(e *Editor) (bool, error) {
	unit := strings.TrimSpace(c.Unit)
	same := true
	for _, i := range e.selection.Selected() {
		if cell, ok := e.Cell(i); ok && cell.Unit != unit {
			same = false
		}
	}
	if same {
		return false, nil
	}
	return e.eachSelected(c.Label(), func(cell *model.LabelContent) error {
		cell.Unit = unit
		return nil
	})
}

func (c ClearCells) apply(e *Editor) (bool, error) {
	return e.eachSelected(c.Label(), func(cell *model.LabelContent) error {
		*cell = model.NewLabelContent()
		return nil
	})
}

func (c ModeChanged) apply(e *Editor) (bool, error) {
	if !c.Mode.Valid() {
		return false, fmt.Errorf("unknown conversion mode %q", c.Mode)
	}
	if c.Mode == e.session.Mode {
		return false, nil
	}
	e.commitPending()
	e.history.Push(MakeSnapshot(e.session, c.Label()))
	e.session.Mode = c.Mode
	e.linker.Mode = c.Mode
	return true, nil
}

func sameCells(a, b []model.LabelContent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
