package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/TagSheet/internal/editor"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/piwi3910/TagSheet/internal/project"
)

// showPresetManager lists the saved style presets.
func (a *App) showPresetManager() {
	presetList := container.NewVBox()
	var refreshList func()

	refreshList = func() {
		presetList.RemoveAll()
		a.fields.refreshPresets()

		if len(a.presets.Presets) == 0 {
			presetList.Add(widget.NewLabel("No style presets saved. Select a label and use \"Save Current Style\"."))
			return
		}

		header := container.NewGridWithColumns(6,
			widget.NewLabelWithStyle("Name", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Sizes (pt)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("Created", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{}),
			widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{}),
			widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{}),
		)
		presetList.Add(header)
		presetList.Add(widget.NewSeparator())

		for i := range a.presets.Presets {
			p := a.presets.Presets[i]
			row := container.NewGridWithColumns(6,
				widget.NewLabel(p.Name),
				widget.NewLabel(styleSummary(p.Style)),
				widget.NewLabel(strings.SplitN(p.CreatedAt, "T", 2)[0]),
				newIconButtonWithTooltip(theme.ConfirmIcon(), "Apply to selected labels", func() {
					a.dispatch(editor.PresetApplied{Name: p.Name, Style: p.Style})
				}),
				newIconButtonWithTooltip(theme.DocumentCreateIcon(), "Rename", func() {
					a.showRenamePresetDialog(p.ID, refreshList)
				}),
				newIconButtonWithTooltip(theme.DeleteIcon(), "Delete", func() {
					a.presets.Remove(p.ID)
					a.savePresets()
					refreshList()
				}),
			)
			presetList.Add(row)
		}
	}

	refreshList()

	addBtn := widget.NewButtonWithIcon("Save Current Style", theme.ContentAddIcon(), func() {
		a.promptPresetName(refreshList)
	})

	importBtn := widget.NewButtonWithIcon("Import...", theme.FolderOpenIcon(), func() {
		a.importPresets(refreshList)
	})

	exportBtn := widget.NewButtonWithIcon("Export...", theme.DocumentSaveIcon(), func() {
		a.exportPresets()
	})

	toolbar := container.NewHBox(addBtn, layout.NewSpacer(), importBtn, exportBtn)

	content := container.NewBorder(
		toolbar,
		nil, nil, nil,
		container.NewVScroll(presetList),
	)

	d := dialog.NewCustom("Style Presets", "Close", content, a.window)
	d.Resize(fyne.NewSize(700, 450))
	d.Show()
}

// styleSummary lists the field sizes in stacking order.
func styleSummary(s model.LabelStyle) string {
	var sizes []string
	for _, key := range model.FieldKeys {
		if fs, ok := s[key]; ok {
			sizes = append(sizes, fmt.Sprintf("%d", fs.SizePt))
		}
	}
	return strings.Join(sizes, " / ")
}

// savePresetFromSelection stores the style of the primary selected label.
func (a *App) savePresetFromSelection() {
	a.promptPresetName(func() { a.fields.refreshPresets() })
}

func (a *App) promptPresetName(onDone func()) {
	cell, ok := a.editor.Cell(a.editor.Selection().Primary())
	if !ok {
		return
	}
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Preset name")

	form := dialog.NewForm("Save Style Preset", "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", nameEntry)},
		func(ok bool) {
			if !ok {
				return
			}
			name := strings.TrimSpace(nameEntry.Text)
			if name == "" {
				dialog.ShowError(fmt.Errorf("preset name must not be empty"), a.window)
				return
			}
			save := func() {
				a.presets.Add(model.NewStylePreset(name, cell))
				a.savePresets()
				onDone()
			}
			if a.presets.FindByName(name) != nil {
				dialog.ShowConfirm("Replace Preset", fmt.Sprintf("A preset named %q exists. Replace it?", name),
					func(replace bool) {
						if replace {
							save()
						}
					}, a.window)
				return
			}
			save()
		},
		a.window,
	)
	form.Resize(fyne.NewSize(380, 160))
	form.Show()
}

func (a *App) showRenamePresetDialog(id string, onDone func()) {
	idx := -1
	for i, p := range a.presets.Presets {
		if p.ID == id {
			idx = i
		}
	}
	if idx < 0 {
		return
	}
	nameEntry := widget.NewEntry()
	nameEntry.SetText(a.presets.Presets[idx].Name)

	form := dialog.NewForm("Rename Preset", "Save", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", nameEntry)},
		func(ok bool) {
			if !ok {
				return
			}
			name := strings.TrimSpace(nameEntry.Text)
			if name == "" {
				dialog.ShowError(fmt.Errorf("preset name must not be empty"), a.window)
				return
			}
			if other := a.presets.FindByName(name); other != nil && other.ID != id {
				dialog.ShowError(fmt.Errorf("a preset named %q already exists", name), a.window)
				return
			}
			a.presets.Presets[idx].Name = name
			a.savePresets()
			onDone()
		},
		a.window,
	)
	form.Resize(fyne.NewSize(380, 160))
	form.Show()
}

// importPresets merges the presets of another file; same-named presets
// are replaced.
func (a *App) importPresets(onDone func()) {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		store, err := project.LoadPresets(path)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to import presets: %w", err), a.window)
			return
		}
		for _, p := range store.Presets {
			a.presets.Add(p)
		}
		a.savePresets()
		onDone()
		dialog.ShowInformation("Import Complete", fmt.Sprintf("Imported %d preset(s).", len(store.Presets)), a.window)
	}, a.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	d.Show()
}

func (a *App) exportPresets() {
	store := a.presets
	a.saveFile("tagsheet-presets.json", []string{".json"}, func(path string) (string, error) {
		if err := project.SavePresets(path, store); err != nil {
			return "", err
		}
		return fmt.Sprintf("Exported %d preset(s) to %s.", len(store.Presets), path), nil
	})
}

func (a *App) savePresets() {
	if err := project.SavePresets(a.paths.Presets(), a.presets); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save presets: %w", err), a.window)
	}
}
