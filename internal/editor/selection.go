package editor

// Modifiers are the keyboard modifiers held during a click.
type Modifiers uint8

const (
	ModToggle Modifiers = 1 << iota // ctrl / cmd
	ModRange                        // shift
)

// Selection is the ordered set of selected cells. It is never empty while
// the grid has at least one cell.
type Selection struct {
	indices []int
	pivot   int // -1 when unset
	n       int
}

// NewSelection returns a selection over n cells with the first cell
// selected.
func NewSelection(n int) *Selection {
	s := &Selection{pivot: -1}
	s.Resize(n)
	return s
}

// Click applies a click on cell index. An index outside the grid behaves
// like a click on empty canvas.
func (s *Selection) Click(index int, mods Modifiers) {
	if index < 0 || index >= s.n {
		s.ClickEmpty()
		return
	}

	switch {
	case mods&ModRange != 0 && s.pivot >= 0:
		lo, hi := s.pivot, index
		step := 1
		if hi < lo {
			step = -1
		}
		s.indices = s.indices[:0]
		for i := lo; ; i += step {
			s.indices = append(s.indices, i)
			if i == hi {
				break
			}
		}
	case mods&ModToggle != 0:
		if pos := s.position(index); pos >= 0 {
			if len(s.indices) > 1 {
				s.indices = append(s.indices[:pos], s.indices[pos+1:]...)
			}
		} else {
			s.indices = append(s.indices, index)
		}
		s.pivot = index
	default:
		s.indices = append(s.indices[:0], index)
		s.pivot = index
	}
	s.ensure()
}

// ClickEmpty handles a click that hit no cell.
func (s *Selection) ClickEmpty() {
	s.indices = s.indices[:0]
	s.pivot = -1
	s.ensure()
}

// Resize adapts the selection to a grid of n cells, dropping indices that
// no longer exist.
func (s *Selection) Resize(n int) {
	if n < 0 {
		n = 0
	}
	s.n = n
	kept := s.indices[:0]
	for _, i := range s.indices {
		if i < n {
			kept = append(kept, i)
		}
	}
	s.indices = kept
	if s.pivot >= n {
		s.pivot = -1
	}
	s.ensure()
}

// Set replaces the selection with indices, ignoring those outside the grid.
func (s *Selection) Set(indices ...int) {
	s.indices = s.indices[:0]
	for _, i := range indices {
		if i >= 0 && i < s.n && s.position(i) < 0 {
			s.indices = append(s.indices, i)
		}
	}
	s.pivot = -1
	if len(s.indices) > 0 {
		s.pivot = s.indices[0]
	}
	s.ensure()
}

// SelectAll selects every cell in index order.
func (s *Selection) SelectAll() {
	s.indices = s.indices[:0]
	for i := 0; i < s.n; i++ {
		s.indices = append(s.indices, i)
	}
	s.ensure()
}

// Selected returns the selected indices in selection order.
func (s *Selection) Selected() []int {
	out := make([]int, len(s.indices))
	copy(out, s.indices)
	return out
}

// Contains reports whether index is selected.
func (s *Selection) Contains(index int) bool {
	return s.position(index) >= 0
}

// Lookup returns the selection as a set, as used by the renderer.
func (s *Selection) Lookup() map[int]bool {
	set := make(map[int]bool, len(s.indices))
	for _, i := range s.indices {
		set[i] = true
	}
	return set
}

// Primary returns the first selected index, or -1 for an empty grid.
func (s *Selection) Primary() int {
	if len(s.indices) == 0 {
		return -1
	}
	return s.indices[0]
}

// Pivot returns the range anchor, or -1 when none is set.
func (s *Selection) Pivot() int {
	return s.pivot
}

// Len returns the grid size the selection was last resized to.
func (s *Selection) Len() int {
	return s.n
}

func (s *Selection) position(index int) int {
	for pos, i := range s.indices {
		if i == index {
			return pos
		}
	}
	return -1
}

// ensure re-selects the first cell when the selection went empty.
func (s *Selection) ensure() {
	if len(s.indices) == 0 && s.n > 0 {
		s.indices = append(s.indices, 0)
		if s.pivot < 0 {
			s.pivot = 0
		}
	}
}
