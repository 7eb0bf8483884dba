// Package hexgrid resolves the pre-authored hexagonal collage templates into
// ordered slot polygons.
package hexgrid

import (
	"embed"
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"sync"
)

//go:embed templates/*.svg
var templateFS embed.FS

// ErrNoTemplate is returned when no hexagonal template exists for a member
// count. Callers skip hexagonal rendering for that order.
var ErrNoTemplate = errors.New("no hexagon template for this member count")

// MinCenterVertices keeps ordinary hexagons from being taken for the center.
const MinCenterVertices = 8

// HexSlot is one polygonal cell in template coordinates.
type HexSlot struct {
	OutlinePath string          `json:"outlinePath"`
	Points      []Point         `json:"points"`
	Bounds      image.Rectangle `json:"bounds"`
	Centroid    Point           `json:"centroid"`
	// Angle is the clockwise angle from 12 o'clock, in radians. Zero for the center.
	Angle    float64 `json:"angle"`
	IsCenter bool    `json:"isCenter"`
}

// HexLayout lists the center slot first followed by the border slots in
// clockwise order.
type HexLayout struct {
	Size       int       `json:"size"`
	Slots      []HexSlot `json:"slots"`
	ViewWidth  float64   `json:"viewWidth"`
	ViewHeight float64   `json:"viewHeight"`
}

// CenterIndex is the member-sequence position shown in the center slot.
// Border slot i shows member i.
func (l *HexLayout) CenterIndex() int {
	return len(l.Slots) - 1
}

// Border returns the non-center slots.
func (l *HexLayout) Border() []HexSlot {
	if len(l.Slots) == 0 {
		return nil
	}
	return l.Slots[1:]
}

var cache sync.Map // int -> *HexLayout

// Resolve returns the hexagonal layout for exactly n members.
func Resolve(n int) (*HexLayout, error) {
	if v, ok := cache.Load(n); ok {
		return v.(*HexLayout), nil
	}

	data, err := templateFS.ReadFile(fmt.Sprintf("templates/hex-%d.svg", n))
	if err != nil {
		return nil, ErrNoTemplate
	}

	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("hexagon template for %d members: %w", n, err)
	}
	l.Size = n

	v, _ := cache.LoadOrStore(n, l)
	return v.(*HexLayout), nil
}

// Supported returns the member counts that have a template.
func Supported() []int {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil
	}
	var counts []int
	for _, e := range entries {
		var n int
		if _, err := fmt.Sscanf(e.Name(), "hex-%d.svg", &n); err == nil {
			counts = append(counts, n)
		}
	}
	sort.Ints(counts)
	return counts
}

// Parse builds a HexLayout from template bytes. The center slot is the
// polygon with the most vertices among those with at least
// MinCenterVertices; the rest are sorted clockwise from 12 o'clock around the
// view-box center, nearer polygons first on equal angles.
func Parse(svg []byte) (*HexLayout, error) {
	doc, err := parseDocument(svg)
	if err != nil {
		return nil, err
	}

	centerIdx := -1
	for i, s := range doc.shapes {
		if len(s.points) < MinCenterVertices {
			continue
		}
		if centerIdx < 0 || len(s.points) > len(doc.shapes[centerIdx].points) {
			centerIdx = i
		}
	}
	if centerIdx < 0 {
		return nil, fmt.Errorf("template has no polygon with at least %d vertices", MinCenterVertices)
	}

	origin := Point{X: doc.viewWidth / 2, Y: doc.viewHeight / 2}
	center := newSlot(doc.shapes[centerIdx], origin)
	center.IsCenter = true
	center.Angle = 0

	border := make([]HexSlot, 0, len(doc.shapes)-1)
	for i, s := range doc.shapes {
		if i == centerIdx {
			continue
		}
		if len(s.points) < 3 {
			return nil, fmt.Errorf("polygon %d has %d vertices", i, len(s.points))
		}
		border = append(border, newSlot(s, origin))
	}

	sort.SliceStable(border, func(i, j int) bool {
		if border[i].Angle != border[j].Angle {
			return border[i].Angle < border[j].Angle
		}
		return dist(border[i].Centroid, origin) < dist(border[j].Centroid, origin)
	})

	return &HexLayout{
		Size:       len(border) + 1,
		Slots:      append([]HexSlot{center}, border...),
		ViewWidth:  doc.viewWidth,
		ViewHeight: doc.viewHeight,
	}, nil
}

func newSlot(s rawShape, origin Point) HexSlot {
	c := centroid(s.points)
	return HexSlot{
		OutlinePath: s.path,
		Points:      s.points,
		Bounds:      bounds(s.points),
		Centroid:    c,
		Angle:       ClockwiseAngle(origin, c),
	}
}

// ClockwiseAngle returns the angle of p around origin in screen coordinates
// (y down), with 12 o'clock at zero and increasing clockwise, in [0, 2π).
func ClockwiseAngle(origin, p Point) float64 {
	dx := p.X - origin.X
	dy := p.Y - origin.Y
	if math.Abs(dx) < 1e-9 && math.Abs(dy) < 1e-9 {
		return 0
	}
	a := math.Atan2(dx, -dy)
	if a < 0 {
		a += 2 * math.Pi
	}
	// snap rounding noise so symmetric templates tie exactly
	return math.Round(a*1e9) / 1e9
}

// centroid is the vertex average, which is exact for the regular polygons in
// the templates and stable for the irregular center outline.
func centroid(pts []Point) Point {
	var c Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(pts))
	return Point{X: c.X / n, Y: c.Y / n}
}

func bounds(pts []Point) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
