package importer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/TagSheet/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// ErrNoLabels is returned when a DXF file holds no usable label outlines.
var ErrNoLabels = errors.New("no label outlines found in DXF file")

// TemplateResult is a sheet layout recovered from a DXF drawing.
type TemplateResult struct {
	Params   model.CalibrationParams
	Labels   int
	Warnings []string
}

type point struct{ X, Y float64 }

// box is an axis-aligned bounding box in page millimetres, Y down.
type box struct{ X, Y, W, H float64 }

// segment represents a line segment between two 2D points, used for
// chaining disconnected LINE and ARC entities into closed outlines.
type segment struct {
	start point
	end   point
}

// ImportSheetTemplate reads the label outlines of a sticker sheet template
// (as published by label stock vendors, or written by ExportDXF) and
// derives the grid parameters from them. Printer properties (hardware
// margins, correction factor) are taken from base. A rectangle at least as
// large as the page is taken as the page outline.
func ImportSheetTemplate(path string, base model.CalibrationParams) (TemplateResult, error) {
	result := TemplateResult{Params: base}

	drawing, err := dxf.Open(path)
	if err != nil {
		return result, fmt.Errorf("cannot open DXF file: %w", err)
	}

	var outlines [][]point
	var segments []segment
	for _, ent := range drawing.Entities() {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			if o := lwPolylineToOutline(e); len(o) >= 3 {
				outlines = append(outlines, o)
			}
		case *entity.Arc:
			segments = append(segments, pointsToSegments(arcToPoints(e, 8))...)
		case *entity.Line:
			segments = append(segments, segment{
				start: point{e.Start[0], e.Start[1]},
				end:   point{e.End[0], e.End[1]},
			})
		default:
			// Text, dimensions and hatches are not outlines
		}
	}
	outlines = append(outlines, chainSegments(segments, 0.01)...)

	var boxes []box
	for _, o := range outlines {
		b := boundingBox(o)
		if b.W < 1 || b.H < 1 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f mm)", b.W, b.H))
			continue
		}
		boxes = append(boxes, b)
	}
	if len(boxes) == 0 {
		return result, ErrNoLabels
	}

	// DXF Y points up; flip around the page top.
	pageLeft, pageTop := 0.0, base.PageHeight
	var labels []box
	for _, b := range boxes {
		if b.W >= base.PageWidth-1 && b.H >= base.PageHeight-1 {
			result.Params.PageWidth, result.Params.PageHeight = round2(b.W), round2(b.H)
			pageLeft, pageTop = b.X, b.Y+b.H
			result.Warnings = append(result.Warnings, "Using outer rectangle as page outline")
			continue
		}
		labels = append(labels, b)
	}
	for i := range labels {
		labels[i].X -= pageLeft
		labels[i].Y = pageTop - (labels[i].Y + labels[i].H)
	}

	w, h := dominantSize(labels)
	var cells []box
	for _, b := range labels {
		if near(b.W, w, 0.5) && near(b.H, h, 0.5) {
			cells = append(cells, b)
		}
	}
	if len(cells) == 0 {
		return result, ErrNoLabels
	}
	if skipped := len(labels) - len(cells); skipped > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Ignored %d shapes that differ from the %.1f x %.1f mm label size", skipped, w, h))
	}

	xs := clusterStarts(cells, func(b box) float64 { return b.X })
	ys := clusterStarts(cells, func(b box) float64 { return b.Y })
	if len(xs)*len(ys) != len(cells) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d labels do not fill a %d x %d grid", len(cells), len(ys), len(xs)))
	}

	p := &result.Params
	p.LabelWidth, p.LabelHeight = round2(w), round2(h)
	p.Cols, p.Rows = len(xs), len(ys)
	p.ColGap = averageGap(xs, w, base.ColGap)
	p.RowGap = averageGap(ys, h, base.RowGap)
	p.SheetOffsetLeft = round2(xs[0] - p.HWMarginLeft)
	p.SheetOffsetTop = round2(ys[0] - p.HWMarginTop)
	if p.SheetOffsetLeft < 0 || p.SheetOffsetTop < 0 {
		result.Warnings = append(result.Warnings, "First label starts inside the printer's hardware margin")
	}
	result.Labels = len(cells)
	result.Warnings = append(result.Warnings, p.Validate()...)
	return result, nil
}

// dominantSize returns the most common label size, rounded to 0.1 mm.
func dominantSize(boxes []box) (float64, float64) {
	type key struct{ w, h int }
	counts := map[key]int{}
	sums := map[key][2]float64{}
	best, bestN := key{}, 0
	for _, b := range boxes {
		k := key{int(math.Round(b.W * 10)), int(math.Round(b.H * 10))}
		counts[k]++
		s := sums[k]
		sums[k] = [2]float64{s[0] + b.W, s[1] + b.H}
		if counts[k] > bestN || (counts[k] == bestN && k.w*k.h > best.w*best.h) {
			best, bestN = k, counts[k]
		}
	}
	if bestN == 0 {
		return 0, 0
	}
	s := sums[best]
	return s[0] / float64(bestN), s[1] / float64(bestN)
}

// clusterStarts returns the sorted distinct values of f over boxes, merging
// values closer than 0.5 mm.
func clusterStarts(boxes []box, f func(box) float64) []float64 {
	vals := make([]float64, len(boxes))
	for i, b := range boxes {
		vals[i] = f(b)
	}
	sort.Float64s(vals)
	var out []float64
	for _, v := range vals {
		if len(out) > 0 && v-out[len(out)-1] < 0.5 {
			continue
		}
		out = append(out, v)
	}
	return out
}

func averageGap(starts []float64, size, fallback float64) float64 {
	if len(starts) < 2 {
		return fallback
	}
	pitch := (starts[len(starts)-1] - starts[0]) / float64(len(starts)-1)
	return math.Max(0, round2(pitch-size))
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func boundingBox(o []point) box {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range o {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return box{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// lwPolylineToOutline converts a DXF LWPOLYLINE entity to an outline.
// Bulge values on vertices produce interpolated arc segments.
func lwPolylineToOutline(lw *entity.LwPolyline) []point {
	var outline []point
	for i := 0; i < len(lw.Vertices); i++ {
		v := lw.Vertices[i]
		current := point{v[0], v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) > 1e-9 {
			next := lw.Vertices[(i+1)%len(lw.Vertices)]
			arc := bulgeArcPoints(current, point{next[0], next[1]}, bulge, 8)
			outline = append(outline, arc[:len(arc)-1]...)
		} else {
			outline = append(outline, current)
		}
	}
	return outline
}

// bulgeArcPoints generates points along an arc defined by two endpoints and a
// DXF bulge factor. The bulge is the tangent of 1/4 the included angle.
func bulgeArcPoints(p1, p2 point, bulge float64, numSegments int) []point {
	mx, my := (p1.X+p2.X)/2, (p1.Y+p2.Y)/2
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return []point{p1, p2}
	}

	sagitta := math.Abs(bulge) * chord / 2
	radius := (chord*chord/(4*sagitta) + sagitta) / 2

	perpX, perpY := -dy/chord, dx/chord
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	dist := radius - sagitta
	cx, cy := mx+perpX*dist, my+perpY*dist

	start := math.Atan2(p1.Y-cy, p1.X-cx)
	end := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 && end > start {
		end -= 2 * math.Pi
	} else if bulge > 0 && end < start {
		end += 2 * math.Pi
	}

	pts := make([]point, numSegments+1)
	for i := range pts {
		a := start + float64(i)/float64(numSegments)*(end-start)
		pts[i] = point{cx + radius*math.Cos(a), cy + radius*math.Sin(a)}
	}
	return pts
}

// arcToPoints converts a DXF ARC entity to a series of points.
func arcToPoints(a *entity.Arc, numSegments int) []point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius
	start := a.Angle[0] * math.Pi / 180
	end := a.Angle[1] * math.Pi / 180
	if end <= start {
		end += 2 * math.Pi
	}

	pts := make([]point, numSegments+1)
	for i := range pts {
		t := start + float64(i)/float64(numSegments)*(end-start)
		pts[i] = point{cx + r*math.Cos(t), cy + r*math.Sin(t)}
	}
	return pts
}

// pointsToSegments converts a point sequence to connected segments.
func pointsToSegments(pts []point) []segment {
	if len(pts) < 2 {
		return nil
	}
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects segments into closed outlines. tolerance is the
// maximum distance between endpoints to consider them connected. Open
// chains are dropped.
func chainSegments(segs []segment, tolerance float64) [][]point {
	used := make([]bool, len(segs))
	var outlines [][]point

	for startIdx := range segs {
		if used[startIdx] {
			continue
		}
		chain := []point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		for changed := true; changed; {
			changed = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, tolerance) {
					chain = append(chain, seg.end)
				} else if pointsClose(tail, seg.end, tolerance) {
					chain = append(chain, seg.start)
				} else {
					continue
				}
				used[i] = true
				changed = true
				break
			}
		}

		if len(chain) >= 4 && pointsClose(chain[0], chain[len(chain)-1], tolerance) {
			outlines = append(outlines, chain[:len(chain)-1])
		}
	}
	return outlines
}

func pointsClose(a, b point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}
