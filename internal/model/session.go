package model

// ConversionMode controls how the two price fields follow each other.
type ConversionMode string

const (
	ModeAToB   ConversionMode = "a_to_b" // editing A rewrites B
	ModeBToA   ConversionMode = "b_to_a" // editing B rewrites A
	ModeBoth   ConversionMode = "both"
	ModeManual ConversionMode = "manual" // no cross-writes
)

// Valid reports whether m is one of the known modes.
func (m ConversionMode) Valid() bool {
	switch m {
	case ModeAToB, ModeBToA, ModeBoth, ModeManual:
		return true
	}
	return false
}

// BGNPerEUR is the fixed conversion rate between the two currencies.
const BGNPerEUR = 1.95583

// SessionVersion is the schema version written by this build.
const SessionVersion = 2

// Session is the persisted editing state: one LabelContent per cell.
type Session struct {
	Version      int            `json:"version"`
	Mode         ConversionMode `json:"conversion_mode"`
	ExchangeRate float64        `json:"exchange_rate"` // units of A per one B
	Cells        []LabelContent `json:"cells"`
}

// NewSession returns a session with n blank cells.
func NewSession(n int) Session {
	s := Session{
		Version:      SessionVersion,
		Mode:         ModeAToB,
		ExchangeRate: BGNPerEUR,
	}
	s.Reconcile(n)
	return s
}

// Reconcile resizes the cell list to n, truncating or padding with blank
// content. It is called whenever the grid dimensions change.
func (s *Session) Reconcile(n int) {
	if n < 0 {
		n = 0
	}
	if len(s.Cells) > n {
		s.Cells = s.Cells[:n]
		return
	}
	for len(s.Cells) < n {
		s.Cells = append(s.Cells, NewLabelContent())
	}
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	cp := s
	cp.Cells = CopyCells(s.Cells)
	return cp
}

// CopyCells returns a copy of cells. LabelContent has no reference members,
// so a slice copy is deep.
func CopyCells(cells []LabelContent) []LabelContent {
	if cells == nil {
		return nil
	}
	cp := make([]LabelContent, len(cells))
	copy(cp, cells)
	return cp
}
