package editor

import "github.com/piwi3910/TagSheet/internal/model"

// ClipKind says what the clipboard holds.
type ClipKind int

const (
	ClipEmpty ClipKind = iota
	ClipContent
	ClipStyle
)

func (k ClipKind) String() string {
	switch k {
	case ClipContent:
		return "content"
	case ClipStyle:
		return "style"
	}
	return "empty"
}

// Clipboard is a single slot holding either a full label or a style-only
// snapshot. Copying one kind discards the other.
type Clipboard struct {
	kind    ClipKind
	content model.LabelContent
	style   model.LabelStyle
}

// Kind returns what the slot currently holds.
func (c *Clipboard) Kind() ClipKind {
	return c.kind
}

// Copy stores a full snapshot of cell.
func (c *Clipboard) Copy(cell model.LabelContent) {
	c.kind = ClipContent
	c.content = cell
	c.style = nil
}

// CopyStyle stores the style of every field of cell, without text.
func (c *Clipboard) CopyStyle(cell model.LabelContent) {
	c.kind = ClipStyle
	c.content = model.LabelContent{}
	c.style = cell.Style()
}

// Paste applies the slot to cells at every index in selected and returns
// how many cells were written. Content overwrites the whole cell; style is
// merged per field and keeps the text.
func (c *Clipboard) Paste(cells []model.LabelContent, selected []int) int {
	if c.kind == ClipEmpty {
		return 0
	}
	n := 0
	for _, i := range selected {
		if i < 0 || i >= len(cells) {
			continue
		}
		switch c.kind {
		case ClipContent:
			cells[i] = c.content
		case ClipStyle:
			cells[i].ApplyStyle(c.style)
		}
		n++
	}
	return n
}
