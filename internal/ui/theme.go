package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// TagSheetTheme wraps the default Fyne theme with compact sizing and an
// optional forced light or dark variant.
type TagSheetTheme struct {
	base   fyne.Theme
	forced bool
	// variant is used only when forced is set
	variant fyne.ThemeVariant
}

// NewTagSheetTheme creates a theme following the system variant.
func NewTagSheetTheme() *TagSheetTheme {
	return &TagSheetTheme{base: theme.DefaultTheme()}
}

// SetPreference applies a config theme name: "light", "dark" or anything
// else for the system default.
func (t *TagSheetTheme) SetPreference(name string) {
	switch name {
	case "light":
		t.forced, t.variant = true, theme.VariantLight
	case "dark":
		t.forced, t.variant = true, theme.VariantDark
	default:
		t.forced = false
	}
}

func (t *TagSheetTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if t.forced {
		variant = t.variant
	}
	return t.base.Color(name, variant)
}

func (t *TagSheetTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *TagSheetTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

// Size returns compact sizing overrides; the field panel holds many rows.
func (t *TagSheetTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 12
	case theme.SizeNameCaptionText:
		return 9
	case theme.SizeNameHeadingText:
		return 20
	case theme.SizeNameSubHeadingText:
		return 15
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameInlineIcon:
		return 16
	default:
		return t.base.Size(name)
	}
}

// applyTheme installs the theme for the configured preference.
func (a *App) applyTheme() {
	a.theme.SetPreference(a.config.Theme)
	a.app.Settings().SetTheme(a.theme)
}
