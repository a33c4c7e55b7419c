// Package printer sends rendered sheets to a CUPS queue through lp.
package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/piwi3910/TagSheet/internal/export"
	"github.com/piwi3910/TagSheet/internal/model"
)

// ErrPrint wraps every spooling failure. The session is never touched by a
// failed print.
var ErrPrint = errors.New("print failed")

// Format selects what is sent to the queue.
type Format int

const (
	// FormatRaster sends one PNG per page rendered at the device resolution.
	FormatRaster Format = iota
	// FormatPDF sends the vector PDF and lets the driver rasterize it.
	FormatPDF
)

func (f Format) String() string {
	if f == FormatPDF {
		return "pdf"
	}
	return "raster"
}

// ParseFormat accepts "raster" or "pdf".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raster", "png":
		return FormatRaster, nil
	case "pdf":
		return FormatPDF, nil
	}
	return FormatRaster, fmt.Errorf("unknown print format %q", s)
}

// Runner executes an external command with stdin and returns its combined
// output. Tests replace it.
type Runner func(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, error)

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args []string, stdin io.Reader) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	return cmd.CombinedOutput()
}

// Spooler prints jobs on one queue.
type Spooler struct {
	Printer string // empty = system default queue
	DPI     float64
	Format  Format
	Binary  string
	Run     Runner
}

// NewSpooler returns a spooler for the configured printer.
func NewSpooler(cfg model.AppConfig) *Spooler {
	dpi := cfg.PrintDPI
	if dpi <= 0 {
		dpi = model.DefaultAppConfig().PrintDPI
	}
	format, err := ParseFormat(cfg.PrintFormat)
	if err != nil {
		slog.Warn("unknown print format, sending raster pages", "format", cfg.PrintFormat)
	}
	return &Spooler{
		Printer: cfg.PrinterName,
		DPI:     dpi,
		Format:  format,
		Binary:  "lp",
		Run:     ExecRunner,
	}
}

// Args returns the lp arguments for one document. Raster pages carry their
// resolution so CUPS prints them at 1:1 instead of fitting them to the page.
func (s *Spooler) Args(title string) []string {
	var args []string
	if s.Printer != "" {
		args = append(args, "-d", s.Printer)
	}
	args = append(args, "-t", title)
	if s.Format == FormatRaster {
		args = append(args, "-o", "ppi="+strconv.Itoa(int(s.DPI+0.5)))
	} else {
		args = append(args, "-o", "fit-to-page=false")
	}
	args = append(args, "-o", "media=A4", "-")
	return args
}

// Print renders the job and spools it. It returns the CUPS request ids.
func (s *Spooler) Print(ctx context.Context, title string, job export.Job) ([]string, error) {
	docs, err := s.documents(job)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrint, err)
	}

	var ids []string
	for i, doc := range docs {
		name := title
		if len(docs) > 1 {
			name = fmt.Sprintf("%s (%d/%d)", title, i+1, len(docs))
		}
		out, err := s.Run(ctx, s.Binary, s.Args(name), bytes.NewReader(doc))
		if err != nil {
			msg := strings.TrimSpace(string(out))
			if msg == "" {
				msg = err.Error()
			}
			return ids, fmt.Errorf("%w: %s: %s", ErrPrint, s.Binary, msg)
		}
		id := requestID(out)
		slog.Info("spooled print job", "printer", s.Printer, "format", s.Format, "request", id)
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Spooler) documents(job export.Job) ([][]byte, error) {
	if s.Format == FormatPDF {
		p, err := export.RenderPDF(job)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := p.Document().Output(&buf); err != nil {
			return nil, err
		}
		return [][]byte{buf.Bytes()}, nil
	}

	if len(job.Cells) == 0 {
		return nil, export.ErrNoCells
	}
	if s.DPI <= 0 {
		return nil, fmt.Errorf("invalid resolution %g dpi", s.DPI)
	}
	pages, err := export.RenderRaster(job, s.DPI)
	if err != nil {
		return nil, err
	}
	docs := make([][]byte, 0, len(pages))
	for _, p := range pages {
		var buf bytes.Buffer
		if err := p.EncodePNG(&buf); err != nil {
			return nil, err
		}
		docs = append(docs, buf.Bytes())
	}
	return docs, nil
}

var requestRe = regexp.MustCompile(`request id is (\S+)`)

func requestID(out []byte) string {
	if m := requestRe.FindSubmatch(out); m != nil {
		return string(m[1])
	}
	return ""
}

// Printers lists the queues known to CUPS via lpstat.
func Printers(ctx context.Context, run Runner) ([]string, error) {
	if run == nil {
		run = ExecRunner
	}
	out, err := run(ctx, "lpstat", []string{"-e"}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
