// Package preview produces print-faithful preview images by rasterizing the
// exported PDF with an external tool, memoized by a content signature.
package preview

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"sync"
)

// ErrStale is returned when a newer request superseded the one being
// rasterized. The result is discarded.
var ErrStale = errors.New("preview superseded by a newer request")

// Rasterizer turns the first page of a PDF document into an image.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte, dpi float64) (image.Image, error)
}

// Signature hashes the JSON encoding of parts. Values that encode equally
// produce equal signatures.
func Signature(parts ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Cache holds the last rasterized preview. It is safe for use from the UI
// goroutine and one background worker.
type Cache struct {
	r   Rasterizer
	dpi float64

	mu     sync.Mutex
	want   string // signature of the newest request
	sig    string // signature of img
	img    image.Image
	hits   int
	misses int
}

// NewCache returns an empty cache rasterizing at dpi.
func NewCache(r Rasterizer, dpi float64) *Cache {
	return &Cache{r: r, dpi: dpi}
}

// Get returns the cached image if it was produced for sig.
func (c *Cache) Get(sig string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.img != nil && c.sig == sig {
		return c.img, true
	}
	return nil, false
}

// Image returns the preview for sig, producing the PDF with render and
// rasterizing it on a miss. When another call with a different signature
// starts before this one finishes, this result is dropped and ErrStale
// returned.
func (c *Cache) Image(ctx context.Context, sig string, render func() ([]byte, error)) (image.Image, error) {
	c.mu.Lock()
	if c.img != nil && c.sig == sig {
		c.hits++
		img := c.img
		c.mu.Unlock()
		return img, nil
	}
	c.misses++
	c.want = sig
	c.mu.Unlock()

	pdf, err := render()
	if err != nil {
		return nil, err
	}
	img, err := c.r.Rasterize(ctx, pdf, c.dpi)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.want != sig {
		slog.Debug("discarding stale preview", "signature", sig[:min(8, len(sig))])
		return nil, ErrStale
	}
	c.sig, c.img = sig, img
	return img, nil
}

// Invalidate drops the cached image.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sig, c.img = "", nil
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
