package ui

import (
	"testing"

	"github.com/piwi3910/TagSheet/internal/editor"
	"github.com/piwi3910/TagSheet/internal/model"
)

func TestSelectedCountIsSelectionNotGridSize(t *testing.T) {
	ed := editor.New(model.NewSession(21))
	if got := selectedCount(ed.Selection()); got != 1 {
		t.Errorf("expected 1 selected on a fresh sheet, got %d", got)
	}

	ed.Selection().Click(4, editor.ModToggle)
	ed.Selection().Click(9, editor.ModToggle)
	if got := selectedCount(ed.Selection()); got != 3 {
		t.Errorf("expected 3 selected, got %d", got)
	}
}
