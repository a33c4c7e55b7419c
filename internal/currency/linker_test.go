package currency

import (
	"testing"

	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fields map[model.FieldKey]string

func (f fields) set(key model.FieldKey, text string) { f[key] = text }

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"10", 10},
		{"5,11", 5.11},
		{"12.50 лв.", 12.5},
		{"€ 3.2", 3.2},
		{"1.2.3", 1.23},
		{"", 0},
		{".", 0},
		{"abc", 0},
		{"  7 ", 7},
		{"-4", 4},
		{"лв. 12.50", 12.5},
		{"12.", 12},
		{"ст. .5", 0.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Parse(tt.raw), 1e-9, "Parse(%q)", tt.raw)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "5.11", Format(5.11))
	assert.Equal(t, "5.1", Format(5.10))
	assert.Equal(t, "10", Format(10))
	assert.Equal(t, "0", Format(0))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "12.5", Normalize("12,50 лв."))
	assert.Equal(t, "0", Normalize("n/a"))
	assert.Equal(t, "", Normalize("   "))
}

func TestCommit_AToB(t *testing.T) {
	l := NewLinker(model.ModeAToB, model.BGNPerEUR)
	f := fields{}

	require.True(t, l.Commit(model.FieldPriceA, "10", f.set))
	assert.Equal(t, "10", f[model.FieldPriceA])
	assert.Equal(t, "5.11", f[model.FieldPriceB])
}

func TestCommit_BToA(t *testing.T) {
	l := NewLinker(model.ModeBToA, model.BGNPerEUR)
	f := fields{}

	l.Commit(model.FieldPriceB, "5,11", f.set)
	assert.Equal(t, "5.11", f[model.FieldPriceB])
	assert.Equal(t, "9.99", f[model.FieldPriceA])

	// A edits do not write B in this mode.
	f = fields{}
	l.Commit(model.FieldPriceA, "20", f.set)
	_, wrote := f[model.FieldPriceB]
	assert.False(t, wrote)
}

func TestCommit_Both(t *testing.T) {
	l := NewLinker(model.ModeBoth, model.BGNPerEUR)
	f := fields{}

	l.Commit(model.FieldPriceA, "19.56", f.set)
	assert.Equal(t, "10", f[model.FieldPriceB])
	l.Commit(model.FieldPriceB, "2", f.set)
	assert.Equal(t, "3.91", f[model.FieldPriceA])
}

func TestCommit_ManualNeverCrossWrites(t *testing.T) {
	l := NewLinker(model.ModeManual, model.BGNPerEUR)
	f := fields{}

	l.Commit(model.FieldPriceA, "10", f.set)
	l.Commit(model.FieldPriceB, "7", f.set)
	assert.Equal(t, fields{model.FieldPriceA: "10", model.FieldPriceB: "7"}, f)
}

func TestCommit_BlankClearsPair(t *testing.T) {
	l := NewLinker(model.ModeAToB, model.BGNPerEUR)
	f := fields{model.FieldPriceB: "5.11"}

	l.Commit(model.FieldPriceA, " ", f.set)
	assert.Equal(t, "", f[model.FieldPriceA])
	assert.Equal(t, "", f[model.FieldPriceB])
}

func TestCommit_StripsConfiguredDecoration(t *testing.T) {
	l := NewLinker(model.ModeBoth, model.BGNPerEUR)
	l.CurrencyA = model.Currency{Code: "BGN", Prefix: "лв."}
	l.CurrencyB = model.Currency{Code: "EUR", Suffix: " €"}
	f := fields{}

	// The prefix dot sits right before the digits, so only stripping keeps
	// it out of the number.
	l.Commit(model.FieldPriceA, "лв.12.50", f.set)
	assert.Equal(t, "12.5", f[model.FieldPriceA])
	assert.Equal(t, "6.39", f[model.FieldPriceB])

	l.Commit(model.FieldPriceB, "2 €", f.set)
	assert.Equal(t, "2", f[model.FieldPriceB])
	assert.Equal(t, "3.91", f[model.FieldPriceA])
}

func TestCommit_IgnoresTextFields(t *testing.T) {
	l := NewLinker(model.ModeBoth, model.BGNPerEUR)
	f := fields{}
	assert.False(t, l.Commit(model.FieldMain, "10", f.set))
	assert.Empty(t, f)
}

func TestCommit_GuardBlocksReentry(t *testing.T) {
	l := NewLinker(model.ModeBoth, model.BGNPerEUR)
	f := fields{}
	calls := 0

	// A setter that behaves like a widget firing its commit handler on
	// programmatic writes.
	var set Setter
	set = func(key model.FieldKey, text string) {
		calls++
		f[key] = text
		assert.True(t, l.Busy())
		assert.False(t, l.Commit(key, text, set))
	}

	require.True(t, l.Commit(model.FieldPriceA, "10", set))
	assert.Equal(t, 2, calls)
	assert.Equal(t, "5.11", f[model.FieldPriceB])
	assert.False(t, l.Busy())
}

func TestRoundTripWithinRoundingBound(t *testing.T) {
	rate := model.BGNPerEUR
	// A -> B loses up to half a cent of B, worth rate/2 cents of A, plus the
	// final half cent of A.
	bound := 0.005*rate + 0.005 + 1e-9

	for cents := 0; cents <= 100000; cents += 37 {
		a := float64(cents) / 100
		back := BToA(AToB(a, rate), rate)
		assert.InDelta(t, a, back, bound, "a=%v", a)
	}
}

func TestRoundTripUnitRate(t *testing.T) {
	for cents := 0; cents <= 10000; cents += 13 {
		a := float64(cents) / 100
		assert.InDelta(t, a, BToA(AToB(a, 1), 1), 0.01)
	}
}

func TestZeroRateDoesNotConvert(t *testing.T) {
	l := NewLinker(model.ModeAToB, 0)
	f := fields{}
	l.Commit(model.FieldPriceA, "10", f.set)
	_, wrote := f[model.FieldPriceB]
	assert.False(t, wrote)
}

func TestFill(t *testing.T) {
	l := NewLinker(model.ModeAToB, model.BGNPerEUR)
	c := model.NewLabelContent()
	c.PriceA.Text = "10"
	l.Fill(&c)
	assert.Equal(t, "5.11", c.PriceB.Text)

	c = model.NewLabelContent()
	c.PriceA.Text = "10"
	NewLinker(model.ModeManual, model.BGNPerEUR).Fill(&c)
	assert.Equal(t, "", c.PriceB.Text)
}

func TestDecorate(t *testing.T) {
	bgn := model.Currency{Code: "BGN", Suffix: " лв."}
	eur := model.Currency{Code: "EUR", Prefix: "€"}

	assert.Equal(t, "10 лв.", Decorate("10", bgn))
	assert.Equal(t, "10 лв.", Decorate("10 лв.", bgn))
	assert.Equal(t, "10 лв.", Decorate(Decorate("10", bgn), bgn))
	assert.Equal(t, "€5.11", Decorate("5.11", eur))
	assert.Equal(t, "€5.11", Decorate("€ 5.11", eur))
	assert.Equal(t, "", Decorate("", bgn))
}

func TestRepeatedCommitsNeverDecorate(t *testing.T) {
	l := NewLinker(model.ModeBoth, model.BGNPerEUR)
	f := fields{}
	l.Commit(model.FieldPriceA, "10 лв.", f.set)
	for i := 0; i < 5; i++ {
		l.Commit(model.FieldPriceB, f[model.FieldPriceB], f.set)
		l.Commit(model.FieldPriceA, f[model.FieldPriceA], f.set)
	}
	assert.NotContains(t, f[model.FieldPriceA], "лв")
	assert.NotContains(t, f[model.FieldPriceB], "€")
}
