package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrRasterizer wraps failures of the external rasterizer.
var ErrRasterizer = errors.New("pdf rasterizer failed")

// Pdftoppm rasterizes with poppler's pdftoppm. Binary defaults to
// "pdftoppm" on PATH.
type Pdftoppm struct {
	Binary string
}

// Rasterize writes pdf to a scratch directory and renders its first page
// to PNG.
func (p Pdftoppm) Rasterize(ctx context.Context, pdf []byte, dpi float64) (image.Image, error) {
	bin := p.Binary
	if bin == "" {
		bin = "pdftoppm"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterizer, err)
	}

	dir, err := os.MkdirTemp("", "tagsheet-preview-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "sheet.pdf")
	if err := os.WriteFile(in, pdf, 0644); err != nil {
		return nil, err
	}
	root := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, bin, Args(in, root, dpi)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrRasterizer, err, strings.TrimSpace(string(out)))
	}

	f, err := os.Open(root + ".png")
	if err != nil {
		return nil, fmt.Errorf("%w: no output: %v", ErrRasterizer, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterizer, err)
	}
	return img, nil
}

// Args returns the pdftoppm command line for the first page of in.
func Args(in, root string, dpi float64) []string {
	return []string{
		"-png",
		"-r", strconv.Itoa(int(dpi + 0.5)),
		"-f", "1", "-l", "1",
		"-singlefile",
		in, root,
	}
}
