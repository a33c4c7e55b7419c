package render

import (
	"fmt"
	"image"
	_ "image/jpeg" // logo files
	_ "image/png"
	"log/slog"
	"os"
	"sync"

	"github.com/piwi3910/TagSheet/internal/geometry"
	"github.com/piwi3910/TagSheet/internal/model"
	qrcode "github.com/skip2/go-qrcode"
)

// qrPixels is the QR bitmap edge; painters scale it to the logo size.
const qrPixels = 256

// LogoSource supplies the image drawn in a label's logo corner.
type LogoSource interface {
	Logo(c model.LabelContent) image.Image
}

// Logos draws a QR code for labels that carry QR text and the shop logo
// for the rest. QR images are cached by text.
type Logos struct {
	Shop image.Image

	mu sync.Mutex
	qr map[string]image.Image
}

// NewLogos returns a logo source with an optional shop logo.
func NewLogos(shop image.Image) *Logos {
	return &Logos{Shop: shop, qr: map[string]image.Image{}}
}

// Logo implements LogoSource.
func (l *Logos) Logo(c model.LabelContent) image.Image {
	if c.Logo.QRText == "" {
		return l.Shop
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if img, ok := l.qr[c.Logo.QRText]; ok {
		return img
	}
	img, err := QRImage(c.Logo.QRText)
	if err != nil {
		slog.Warn("cannot encode QR logo", "text", c.Logo.QRText, "error", err)
		return l.Shop
	}
	if l.qr == nil {
		l.qr = map[string]image.Image{}
	}
	l.qr[c.Logo.QRText] = img
	return img
}

// QRImage encodes text as a square QR bitmap without a quiet zone.
func QRImage(text string) (image.Image, error) {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	q.DisableBorder = true
	return q.Image(qrPixels), nil
}

// LoadImage reads a PNG or JPEG logo file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode logo %s: %w", path, err)
	}
	return img, nil
}

// LogoRect returns where the logo of a cell goes, or false when it is not
// drawn. The logo sits inside the cell margin in the requested bottom
// corner and is shrunk to fit small cells.
func LogoRect(cell geometry.Rect, logo model.Logo, unitsPerMM float64) (geometry.Rect, bool) {
	if !logo.Visible() {
		return geometry.Rect{}, false
	}
	margin := CellMarginMM * unitsPerMM
	size := logo.SizeMM * unitsPerMM
	size = min(size, cell.W-2*margin, cell.H-2*margin)
	if size <= 0 {
		return geometry.Rect{}, false
	}
	r := geometry.Rect{Y: cell.Bottom() - margin - size, W: size, H: size}
	switch logo.Position {
	case model.LogoBottomLeft:
		r.X = cell.X + margin
	case model.LogoBottomRight:
		r.X = cell.Right() - margin - size
	default:
		return geometry.Rect{}, false
	}
	return r, true
}
