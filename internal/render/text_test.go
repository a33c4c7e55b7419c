package render

import (
	"testing"

	"github.com/piwi3910/TagSheet/internal/fonts"
	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(key model.FieldKey, text string, size float64, align model.Align) FieldText {
	lc := model.NewLabelContent()
	style := lc.Field(key).FieldStyle
	style.Align = align
	return FieldText{Key: key, Text: text, Style: style, Font: fonts.Key{Family: fonts.FamilySans, Size: size}}
}

func TestWrapText(t *testing.T) {
	f := fonts.Key{Size: 10} // 5 units per rune
	lines := WrapText(fakeMeasurer{}, f, "fresh red apples", 50)
	assert.Equal(t, []string{"fresh red", "apples"}, lines)

	lines = WrapText(fakeMeasurer{}, f, "supercalifragilistic is long", 50)
	assert.Equal(t, []string{"supercalifragilistic", "is long"}, lines)

	lines = WrapText(fakeMeasurer{}, f, "one\ntwo", 500)
	assert.Equal(t, []string{"one", "two"}, lines)

	assert.Empty(t, WrapText(fakeMeasurer{}, f, "   ", 50))
}

func TestLayoutText_BlockHeightIsSumOfFieldHeights(t *testing.T) {
	cell := geometry.Rect{X: 10, Y: 100, W: 200, H: 80}
	block := LayoutText(fakeMeasurer{}, cell, 0, []FieldText{
		field(model.FieldMain, "Bread", 20, model.AlignCenter),
		field(model.FieldSecond, "500 g", 15, model.AlignCenter),
	})

	assert.InDelta(t, 35, block.Height, 1e-9)
	assert.InDelta(t, cell.Y+(cell.H-35)/2, block.Top, 1e-9)
	require.Len(t, block.Fields, 2)
	assert.InDelta(t, block.Top, block.Fields[0].Rect.Y, 1e-9)
	assert.InDelta(t, block.Top+20, block.Fields[1].Rect.Y, 1e-9)
	assert.InDelta(t, 15, block.Fields[1].Rect.H, 1e-9)
}

func TestLayoutText_EmptyFieldsContributeNothing(t *testing.T) {
	cell := geometry.Rect{X: 0, Y: 0, W: 200, H: 100}
	block := LayoutText(fakeMeasurer{}, cell, 0, []FieldText{
		field(model.FieldMain, "", 30, model.AlignCenter),
		field(model.FieldSecond, "  ", 30, model.AlignCenter),
		field(model.FieldPriceA, "9.99", 20, model.AlignCenter),
	})
	require.Len(t, block.Fields, 1)
	assert.InDelta(t, 20, block.Height, 1e-9)
	assert.InDelta(t, 40, block.Top, 1e-9)
}

func TestLayoutText_WrappedLinesAddHeight(t *testing.T) {
	cell := geometry.Rect{X: 0, Y: 0, W: 60, H: 100}
	block := LayoutText(fakeMeasurer{}, cell, 5, []FieldText{
		field(model.FieldMain, "fresh red apples", 10, model.AlignLeft),
		field(model.FieldPriceA, "2", 12, model.AlignLeft),
	})
	assert.InDelta(t, 2*10+12, block.Height, 1e-9)
	assert.Len(t, block.Fields[0].Lines, 2)
}

func TestLayoutText_PerLineAlignment(t *testing.T) {
	cell := geometry.Rect{X: 0, Y: 0, W: 100, H: 100}
	margin := 5.0
	block := LayoutText(fakeMeasurer{}, cell, margin, []FieldText{
		field(model.FieldMain, "ab", 10, model.AlignLeft),    // 10 wide
		field(model.FieldSecond, "ab", 10, model.AlignCenter), // 10 wide
		field(model.FieldPriceA, "ab", 10, model.AlignRight),  // 10 wide
	})
	require.Len(t, block.Fields, 3)
	assert.InDelta(t, 5, block.Fields[0].Lines[0].X, 1e-9)
	assert.InDelta(t, 45, block.Fields[1].Lines[0].X, 1e-9)
	assert.InDelta(t, 85, block.Fields[2].Lines[0].X, 1e-9)
}

func TestLayoutText_Baselines(t *testing.T) {
	cell := geometry.Rect{X: 0, Y: 0, W: 100, H: 40}
	block := LayoutText(fakeMeasurer{}, cell, 0, []FieldText{
		field(model.FieldMain, "x", 20, model.AlignCenter),
	})
	// One 20 unit line centred in 40: top 10, ascent 16, no leading.
	assert.InDelta(t, 26, block.Fields[0].Lines[0].Baseline, 1e-9)
}

func TestFontKey(t *testing.T) {
	style := model.FieldStyle{FontFamily: "Go", SizePt: 12, Bold: true}
	k := FontKey(style, 72/25.4)
	assert.InDelta(t, 12, k.Size, 1e-9)
	assert.True(t, k.Bold)

	style.SizePt = 500
	assert.InDelta(t, 100, FontKey(style, 72/25.4).Size, 1e-9)
}

func TestLayoutText_RealFontsAgreeAcrossResolutions(t *testing.T) {
	reg, err := fonts.NewRegistry()
	require.NoError(t, err)
	m := registryMeasurer{fonts: reg}

	style := model.NewLabelContent().Main.FieldStyle
	text := "Organic wholegrain rye bread with seeds"

	lines := func(unitsPerMM float64) []string {
		return WrapText(m, FontKey(style, unitsPerMM), text, 40*unitsPerMM)
	}
	assert.Equal(t, lines(72/25.4), lines(300/25.4))
}
