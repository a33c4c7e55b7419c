// Package fonts holds the typefaces labels can use. Every output (screen,
// PNG, printer raster and PDF) measures text through the same Registry, so
// wrapped lines break at the same words everywhere.
package fonts

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Built-in families.
const (
	FamilySans = "Go"
	FamilyMono = "Go Mono"
)

// Key selects one face at one size. Size is in output device units (pixels
// or points), not in typographic points of the label style.
type Key struct {
	Family string
	Bold   bool
	Italic bool
	Size   float64
}

// variant returns the style index used for the TTF table: 0 regular,
// 1 bold, 2 italic, 3 bold italic.
func (k Key) variant() int {
	v := 0
	if k.Bold {
		v |= 1
	}
	if k.Italic {
		v |= 2
	}
	return v
}

// Metrics are vertical font measurements in device units.
type Metrics struct {
	Ascent     float64
	Descent    float64
	LineHeight float64
}

const maxCachedFaces = 256

type family struct {
	ttf    [4][]byte
	parsed [4]*opentype.Font
}

// Registry maps family names to parsed fonts. It is safe for concurrent
// use.
type Registry struct {
	mu       sync.Mutex
	families map[string]*family
	faces    map[Key]font.Face // measurement only, guarded by mu
	warned   map[string]bool
}

// NewRegistry returns a registry with the Go font families loaded.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		families: map[string]*family{},
		faces:    map[Key]font.Face{},
		warned:   map[string]bool{},
	}
	if err := r.Register(FamilySans, goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF); err != nil {
		return nil, err
	}
	if err := r.Register(FamilyMono, gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds or replaces a family from TrueType data. Missing styles
// fall back to regular.
func (r *Registry) Register(name string, regular, bold, italic, boldItalic []byte) error {
	if len(regular) == 0 {
		return fmt.Errorf("font %q: regular style is required", name)
	}
	f := &family{ttf: [4][]byte{regular, bold, italic, boldItalic}}
	for i := range f.ttf {
		if len(f.ttf[i]) == 0 {
			f.ttf[i] = regular
		}
		parsed, err := opentype.Parse(f.ttf[i])
		if err != nil {
			return fmt.Errorf("font %q: %w", name, err)
		}
		f.parsed[i] = parsed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.families[name] = f
	for k := range r.faces {
		if k.Family == name {
			delete(r.faces, k)
		}
	}
	return nil
}

// Families returns the registered family names, sorted.
func (r *Registry) Families() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns name if it is registered and FamilySans otherwise. The
// first fallback for each unknown name is logged.
func (r *Registry) Resolve(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(name)
}

func (r *Registry) resolveLocked(name string) string {
	if _, ok := r.families[name]; ok {
		return name
	}
	if !r.warned[name] {
		r.warned[name] = true
		slog.Warn("unknown font family, using fallback", "family", name, "fallback", FamilySans)
	}
	return FamilySans
}

// TTF returns the TrueType bytes of a family style, for sinks that embed
// fonts (PDF).
func (r *Registry) TTF(name string, bold, italic bool) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := Key{Family: r.resolveLocked(name), Bold: bold, Italic: italic}
	return r.families[k.Family].ttf[k.variant()]
}

// NewFace returns a fresh face for drawing. Faces are not safe for
// concurrent use, so each painter keeps its own.
func (r *Registry) NewFace(k Key) (font.Face, error) {
	r.mu.Lock()
	k.Family = r.resolveLocked(k.Family)
	f := r.families[k.Family].parsed[k.variant()]
	r.mu.Unlock()

	if k.Size <= 0 {
		return nil, fmt.Errorf("font %q: size must be positive, got %g", k.Family, k.Size)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    k.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// measureFace returns the cached measuring face for k. Callers hold mu.
func (r *Registry) measureFace(k Key) (font.Face, error) {
	k.Family = r.resolveLocked(k.Family)
	if face, ok := r.faces[k]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(r.families[k.Family].parsed[k.variant()], &opentype.FaceOptions{
		Size:    k.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	// Zooming produces a new size per step; drop the cache rather than grow
	// without bound.
	if len(r.faces) >= maxCachedFaces {
		clear(r.faces)
	}
	r.faces[k] = face
	return face, nil
}

// TextWidth returns the advance width of text in device units. Sizes that
// cannot produce a face measure as zero.
func (r *Registry) TextWidth(k Key, text string) float64 {
	if k.Size <= 0 || text == "" {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	face, err := r.measureFace(k)
	if err != nil {
		return 0
	}
	return toFloat(font.MeasureString(face, text))
}

// Metrics returns vertical metrics for k.
func (r *Registry) Metrics(k Key) Metrics {
	if k.Size <= 0 {
		return Metrics{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	face, err := r.measureFace(k)
	if err != nil {
		return Metrics{}
	}
	m := face.Metrics()
	return Metrics{
		Ascent:     toFloat(m.Ascent),
		Descent:    toFloat(m.Descent),
		LineHeight: toFloat(m.Height),
	}
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
