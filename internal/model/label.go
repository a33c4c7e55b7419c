package model

import (
	"errors"
	"fmt"
)

// FieldKey identifies one of the text fields of a label.
type FieldKey string

const (
	FieldMain   FieldKey = "main"
	FieldSecond FieldKey = "second"
	FieldPriceA FieldKey = "price_a" // currency A (BGN)
	FieldPriceB FieldKey = "price_b" // currency B (EUR)
)

// FieldKeys lists the fields in stacking order, top to bottom.
var FieldKeys = []FieldKey{FieldMain, FieldSecond, FieldPriceA, FieldPriceB}

// IsPrice reports whether the field holds a price.
func (k FieldKey) IsPrice() bool {
	return k == FieldPriceA || k == FieldPriceB
}

// ErrUnknownField is returned for a field key outside FieldKeys.
var ErrUnknownField = errors.New("unknown label field")

// Align is the horizontal alignment of a text field.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Font size bounds in points.
const (
	MinFontSize = 6
	MaxFontSize = 100
)

// ClampFontSize bounds a point size to [MinFontSize, MaxFontSize].
func ClampFontSize(size int) int {
	if size < MinFontSize {
		return MinFontSize
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}

// FieldStyle is everything about a text field except its text.
type FieldStyle struct {
	FontFamily string `json:"font_family"`
	SizePt     int    `json:"size_pt"`
	Bold       bool   `json:"bold"`
	Italic     bool   `json:"italic"`
	Align      Align  `json:"align"`
	FontColor  RGB    `json:"font_color"`
	BgColor    RGB    `json:"bg_color"`
}

// TextField is one line group on a label.
type TextField struct {
	Text string `json:"text"`
	FieldStyle
}

// StylePatch is a partial FieldStyle. Nil members are left untouched when
// the patch is applied.
type StylePatch struct {
	FontFamily *string `json:"font_family,omitempty"`
	SizePt     *int    `json:"size_pt,omitempty"`
	Bold       *bool   `json:"bold,omitempty"`
	Italic     *bool   `json:"italic,omitempty"`
	Align      *Align  `json:"align,omitempty"`
	FontColor  *RGB    `json:"font_color,omitempty"`
	BgColor    *RGB    `json:"bg_color,omitempty"`
}

// Apply merges the present members of p into s.
func (p StylePatch) Apply(s FieldStyle) FieldStyle {
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.SizePt != nil {
		s.SizePt = ClampFontSize(*p.SizePt)
	}
	if p.Bold != nil {
		s.Bold = *p.Bold
	}
	if p.Italic != nil {
		s.Italic = *p.Italic
	}
	if p.Align != nil {
		s.Align = *p.Align
	}
	if p.FontColor != nil {
		s.FontColor = *p.FontColor
	}
	if p.BgColor != nil {
		s.BgColor = *p.BgColor
	}
	return s
}

// PatchFrom returns a patch that sets every member of s.
func PatchFrom(s FieldStyle) StylePatch {
	return StylePatch{
		FontFamily: &s.FontFamily,
		SizePt:     &s.SizePt,
		Bold:       &s.Bold,
		Italic:     &s.Italic,
		Align:      &s.Align,
		FontColor:  &s.FontColor,
		BgColor:    &s.BgColor,
	}
}

// LogoPosition places the optional logo inside a cell.
type LogoPosition string

const (
	LogoNone        LogoPosition = "none"
	LogoBottomLeft  LogoPosition = "bottom_left"
	LogoBottomRight LogoPosition = "bottom_right"
)

// Logo is an optional square image in a bottom corner of the label. When
// QRText is set the image is a QR code of that text.
type Logo struct {
	Position LogoPosition `json:"position"`
	SizeMM   float64      `json:"size_mm"`
	Opacity  float64      `json:"opacity"`
	QRText   string       `json:"qr_text,omitempty"`
}

// Visible reports whether the logo should be drawn.
func (l Logo) Visible() bool {
	return l.Position != "" && l.Position != LogoNone && l.SizeMM > 0 && l.Opacity > 0
}

// LabelContent is everything printed in one label cell.
type LabelContent struct {
	Main   TextField `json:"main"`
	Second TextField `json:"second"`
	PriceA TextField `json:"price_a"`
	PriceB TextField `json:"price_b"`
	Unit   string    `json:"unit,omitempty"`
	Logo   Logo      `json:"logo"`
}

// NewLabelContent returns a blank label with the default styles.
func NewLabelContent() LabelContent {
	return LabelContent{
		Main:   TextField{FieldStyle: defaultStyle(14, true)},
		Second: TextField{FieldStyle: defaultStyle(10, false)},
		PriceA: TextField{FieldStyle: defaultStyle(18, true)},
		PriceB: TextField{FieldStyle: defaultStyle(16, true)},
		Logo:   Logo{Position: LogoNone, SizeMM: 12, Opacity: 1},
	}
}

func defaultStyle(size int, bold bool) FieldStyle {
	return FieldStyle{
		FontFamily: DefaultFontFamily,
		SizePt:     size,
		Bold:       bold,
		Align:      AlignCenter,
		FontColor:  Black,
		BgColor:    White,
	}
}

// DefaultFontFamily is the family every label starts with.
const DefaultFontFamily = "Go"

// Field returns a pointer to the field stored under key, or nil.
func (c *LabelContent) Field(key FieldKey) *TextField {
	switch key {
	case FieldMain:
		return &c.Main
	case FieldSecond:
		return &c.Second
	case FieldPriceA:
		return &c.PriceA
	case FieldPriceB:
		return &c.PriceB
	}
	return nil
}

// SetText replaces the text of one field.
func (c *LabelContent) SetText(key FieldKey, text string) error {
	f := c.Field(key)
	if f == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	f.Text = text
	return nil
}

// SetStyle merges a partial style into one field.
func (c *LabelContent) SetStyle(key FieldKey, patch StylePatch) error {
	f := c.Field(key)
	if f == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	f.FieldStyle = patch.Apply(f.FieldStyle)
	return nil
}

// IsBlank reports whether no field carries text.
func (c LabelContent) IsBlank() bool {
	for _, key := range FieldKeys {
		if c.Field(key).Text != "" {
			return false
		}
	}
	return true
}

// LabelStyle is the style-only snapshot of a label: every field's style and
// nothing else.
type LabelStyle map[FieldKey]FieldStyle

// Style returns the style snapshot of c.
func (c LabelContent) Style() LabelStyle {
	style := make(LabelStyle, len(FieldKeys))
	for _, key := range FieldKeys {
		style[key] = c.Field(key).FieldStyle
	}
	return style
}

// ApplyStyle overwrites the style of every field present in s. Text is kept.
func (c *LabelContent) ApplyStyle(s LabelStyle) {
	for key, fs := range s {
		if f := c.Field(key); f != nil {
			fs.SizePt = ClampFontSize(fs.SizePt)
			f.FieldStyle = fs
		}
	}
}

// Normalize repairs values a hand-edited or legacy file may carry.
func (c LabelContent) Normalize() LabelContent {
	for _, key := range FieldKeys {
		f := c.Field(key)
		if f.FontFamily == "" {
			f.FontFamily = DefaultFontFamily
		}
		if f.SizePt == 0 {
			f.SizePt = 12
		}
		f.SizePt = ClampFontSize(f.SizePt)
		switch f.Align {
		case AlignLeft, AlignCenter, AlignRight:
		default:
			f.Align = AlignCenter
		}
	}
	if c.Logo.Position == "" {
		c.Logo.Position = LogoNone
	}
	if c.Logo.Opacity < 0 {
		c.Logo.Opacity = 0
	}
	if c.Logo.Opacity > 1 {
		c.Logo.Opacity = 1
	}
	return c
}
