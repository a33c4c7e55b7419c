package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry()
	require.NoError(t, err)
	return r
}

func TestNewRegistry_Families(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, []string{FamilySans, FamilyMono}, r.Families())
}

func TestResolveFallback(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, FamilyMono, r.Resolve(FamilyMono))
	assert.Equal(t, FamilySans, r.Resolve("Comic Sans"))
	assert.Equal(t, FamilySans, r.Resolve(""))
}

func TestTextWidth_ScalesWithSize(t *testing.T) {
	r := newTestRegistry(t)
	small := r.TextWidth(Key{Family: FamilySans, Size: 10}, "Price tag")
	large := r.TextWidth(Key{Family: FamilySans, Size: 20}, "Price tag")

	require.Greater(t, small, 0.0)
	assert.InDelta(t, small*2, large, 0.5)
	assert.Zero(t, r.TextWidth(Key{Family: FamilySans, Size: 0}, "x"))
	assert.Zero(t, r.TextWidth(Key{Family: FamilySans, Size: 10}, ""))
}

func TestTextWidth_BoldIsWider(t *testing.T) {
	r := newTestRegistry(t)
	regular := r.TextWidth(Key{Family: FamilySans, Size: 12}, "Tomatoes")
	bold := r.TextWidth(Key{Family: FamilySans, Bold: true, Size: 12}, "Tomatoes")
	assert.Greater(t, bold, regular)
}

func TestMonoAdvanceIsFixed(t *testing.T) {
	r := newTestRegistry(t)
	k := Key{Family: FamilyMono, Size: 12}
	assert.InDelta(t, r.TextWidth(k, "iiii"), r.TextWidth(k, "MMMM"), 1e-9)
}

func TestMetrics(t *testing.T) {
	r := newTestRegistry(t)
	m := r.Metrics(Key{Family: FamilySans, Size: 20})
	assert.Greater(t, m.Ascent, 0.0)
	assert.Greater(t, m.Descent, 0.0)
	assert.GreaterOrEqual(t, m.LineHeight, m.Ascent)
	assert.Equal(t, Metrics{}, r.Metrics(Key{Family: FamilySans}))
}

func TestTTFAndNewFace(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, goregular.TTF, r.TTF("unknown", false, false))
	assert.NotEqual(t, goregular.TTF, r.TTF(FamilySans, true, false))

	face, err := r.NewFace(Key{Family: FamilySans, Italic: true, Size: 14})
	require.NoError(t, err)
	assert.NotNil(t, face)

	_, err = r.NewFace(Key{Family: FamilySans, Size: 0})
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register("Custom", goregular.TTF, nil, nil, nil))
	assert.Contains(t, r.Families(), "Custom")
	assert.Equal(t, goregular.TTF, r.TTF("Custom", true, true))

	assert.Error(t, r.Register("Broken", nil, nil, nil, nil))
	assert.Error(t, r.Register("Garbage", []byte("not a font"), nil, nil, nil))
}
