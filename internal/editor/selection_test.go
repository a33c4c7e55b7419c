package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSelection_SelectsFirstCell(t *testing.T) {
	s := NewSelection(21)
	assert.Equal(t, []int{0}, s.Selected())
	assert.Equal(t, 0, s.Pivot())

	empty := NewSelection(0)
	assert.Empty(t, empty.Selected())
	assert.Equal(t, -1, empty.Primary())
}

func TestClick_Replace(t *testing.T) {
	s := NewSelection(21)
	s.Click(5, 0)
	s.Click(7, 0)
	assert.Equal(t, []int{7}, s.Selected())
	assert.Equal(t, 7, s.Pivot())
}

func TestClick_Toggle(t *testing.T) {
	s := NewSelection(21)
	s.Click(2, 0)
	s.Click(4, ModToggle)
	s.Click(9, ModToggle)
	assert.Equal(t, []int{2, 4, 9}, s.Selected())

	s.Click(4, ModToggle)
	assert.Equal(t, []int{2, 9}, s.Selected())
}

func TestClick_ToggleNeverEmpties(t *testing.T) {
	s := NewSelection(21)
	s.Click(3, 0)
	s.Click(3, ModToggle)
	assert.Equal(t, []int{3}, s.Selected())
}

func TestClick_RangeReplacesSelection(t *testing.T) {
	s := NewSelection(21)
	s.Click(1, 0)
	s.Click(10, ModToggle)
	s.Click(12, ModToggle)
	// Pivot is now 12; range back to 8 drops the earlier picks.
	s.Click(8, ModRange)
	assert.Equal(t, []int{12, 11, 10, 9, 8}, s.Selected())

	s.Click(14, ModRange)
	assert.Equal(t, []int{12, 13, 14}, s.Selected())
	assert.Equal(t, 12, s.Pivot())
}

func TestClick_RangeSingleCell(t *testing.T) {
	s := NewSelection(21)
	s.Click(6, 0)
	s.Click(6, ModRange)
	assert.Equal(t, []int{6}, s.Selected())
}

func TestClickEmpty_FallsBackToFirst(t *testing.T) {
	s := NewSelection(21)
	s.Click(4, 0)
	s.Click(5, ModToggle)
	s.ClickEmpty()
	assert.Equal(t, []int{0}, s.Selected())

	s.Click(99, 0)
	assert.Equal(t, []int{0}, s.Selected())
	s.Click(-1, ModToggle)
	assert.Equal(t, []int{0}, s.Selected())
}

func TestResize_DropsOutOfRange(t *testing.T) {
	s := NewSelection(21)
	s.Click(2, 0)
	s.Click(15, ModToggle)
	s.Click(20, ModToggle)

	s.Resize(12)
	assert.Equal(t, []int{2}, s.Selected())
	assert.Equal(t, -1, s.Pivot())

	s.Click(5, 0)
	s.Resize(4)
	assert.Equal(t, []int{0}, s.Selected())

	s.Resize(0)
	assert.Empty(t, s.Selected())
}

func TestSelection_SetAndAll(t *testing.T) {
	s := NewSelection(6)
	s.Set(4, 2, 4, 99)
	assert.Equal(t, []int{4, 2}, s.Selected())
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(3))

	s.SelectAll()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, s.Selected())
	assert.Len(t, s.Lookup(), 6)
}

func TestSelection_NeverEmptyAfterAnyInteraction(t *testing.T) {
	s := NewSelection(9)
	clicks := []struct {
		index int
		mods  Modifiers
	}{
		{0, ModToggle}, {0, ModToggle}, {8, ModRange}, {3, ModToggle},
		{-5, 0}, {4, ModToggle | ModRange}, {4, ModToggle}, {20, ModRange},
	}
	for _, c := range clicks {
		s.Click(c.index, c.mods)
		assert.NotEmpty(t, s.Selected(), "after click %d mods %d", c.index, c.mods)
	}
}
