// Package currency keeps the two price fields of a label in step.
//
// Prices are stored as plain numbers ("5.11"). Currency symbols are added by
// Decorate when a label is drawn and never written back into the content.
package currency

import (
	"math"
	"strconv"
	"strings"

	"github.com/piwi3910/TagSheet/internal/model"
)

// Parse reads a price typed by a user. It accepts a comma decimal
// separator, ignores any symbol or text around the digits and keeps only
// the first decimal point. A point with no digit after it belongs to an
// abbreviation ("лв.") and is skipped. Anything it cannot read is 0.
func Parse(raw string) float64 {
	runes := []rune(strings.ReplaceAll(raw, ",", "."))

	var b strings.Builder
	seenPoint := false
	for i, r := range runes {
		switch {
		case isDigit(r):
			b.WriteRune(r)
		case r == '.' && !seenPoint && i+1 < len(runes) && isDigit(runes[i+1]):
			seenPoint = true
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// Round2 rounds to cents, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Format renders v with at most two decimals and without trailing zeros:
// 5.10 -> "5.1", 10.00 -> "10".
func Format(v float64) string {
	s := strconv.FormatFloat(Round2(v), 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-0" {
		return "0"
	}
	return s
}

// Normalize is Format(Parse(raw)). Blank input stays blank.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return Format(Parse(raw))
}

// AToB converts a currency A amount to currency B. rate is units of A per
// one B.
func AToB(a, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return Round2(a / rate)
}

// BToA converts a currency B amount to currency A.
func BToA(b, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return Round2(b * rate)
}

// Paired returns the field a commit to key writes under mode. ok is false
// when the mode does not link the fields in that direction.
func Paired(mode model.ConversionMode, key model.FieldKey) (model.FieldKey, bool) {
	switch key {
	case model.FieldPriceA:
		if mode == model.ModeAToB || mode == model.ModeBoth {
			return model.FieldPriceB, true
		}
	case model.FieldPriceB:
		if mode == model.ModeBToA || mode == model.ModeBoth {
			return model.FieldPriceA, true
		}
	}
	return "", false
}

// Setter stores text into one field of the label being edited.
type Setter func(key model.FieldKey, text string)

// Linker applies the conversion mode when a price edit is committed.
// The zero value is in manual mode.
type Linker struct {
	Mode model.ConversionMode
	Rate float64 // units of A per one B

	// Decoration stripped from committed text before it is parsed.
	CurrencyA model.Currency
	CurrencyB model.Currency

	writing bool
}

// NewLinker returns a linker for mode and rate.
func NewLinker(mode model.ConversionMode, rate float64) *Linker {
	return &Linker{Mode: mode, Rate: rate}
}

// Busy reports whether the linker is in the middle of writing fields.
// Edit handlers that fire while Busy are echoes of the linker's own writes.
func (l *Linker) Busy() bool {
	return l.writing
}

// Commit normalizes the finished edit raw of field key, stores it through
// set and, when the mode links the fields, writes the converted price into
// the paired field. It returns false without writing anything when called
// re-entrantly from inside set, or when key is not a price field.
func (l *Linker) Commit(key model.FieldKey, raw string, set Setter) bool {
	if l.writing || !key.IsPrice() {
		return false
	}
	l.writing = true
	defer func() { l.writing = false }()

	text := Normalize(Strip(raw, l.currencyOf(key)))
	set(key, text)

	other, ok := Paired(l.Mode, key)
	if !ok || l.Rate <= 0 {
		return true
	}
	if text == "" {
		set(other, "")
		return true
	}
	set(other, l.Convert(key, Parse(text)))
	return true
}

func (l *Linker) currencyOf(key model.FieldKey) model.Currency {
	if key == model.FieldPriceB {
		return l.CurrencyB
	}
	return l.CurrencyA
}

// Convert returns the formatted counterpart of value, which belongs to
// field from.
func (l *Linker) Convert(from model.FieldKey, value float64) string {
	if from == model.FieldPriceA {
		return Format(AToB(value, l.Rate))
	}
	return Format(BToA(value, l.Rate))
}

// Fill completes a label whose B price is missing, as happens with imported
// rows that only carry an A price. It writes nothing in manual mode.
func (l *Linker) Fill(c *model.LabelContent) {
	if l.Mode == model.ModeManual || l.Rate <= 0 {
		return
	}
	if c.PriceA.Text != "" && c.PriceB.Text == "" {
		c.PriceB.Text = l.Convert(model.FieldPriceA, Parse(c.PriceA.Text))
	}
	if c.PriceB.Text != "" && c.PriceA.Text == "" {
		c.PriceA.Text = l.Convert(model.FieldPriceB, Parse(c.PriceB.Text))
	}
}

// Strip removes cur's prefix and suffix from text, if present.
func Strip(text string, cur model.Currency) string {
	text = strings.TrimSpace(text)
	if p := strings.TrimSpace(cur.Prefix); p != "" {
		text = strings.TrimSpace(strings.TrimPrefix(text, p))
	}
	if s := strings.TrimSpace(cur.Suffix); s != "" {
		text = strings.TrimSpace(strings.TrimSuffix(text, s))
	}
	return text
}

// Decorate returns text with cur's prefix and suffix. Text that already
// carries them is not decorated twice. Blank text stays blank.
func Decorate(text string, cur model.Currency) string {
	text = Strip(text, cur)
	if text == "" {
		return ""
	}
	return cur.Prefix + text + cur.Suffix
}
