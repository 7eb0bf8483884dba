// Package layout maps a member count to a rectangular collage arrangement.
//
// Arrangements come from a small catalogue of hand-authored layouts. Counts
// outside the catalogue reuse the nearest entry.
package layout

import (
	"math"
	"sort"
)

// SlotKind names the band of the grid a slot belongs to.
type SlotKind string

const (
	KindTop       SlotKind = "top"
	KindLeft      SlotKind = "left"
	KindRight     SlotKind = "right"
	KindBottom    SlotKind = "bottom"
	KindBottomExt SlotKind = "bottomExt"
	KindCenter    SlotKind = "center"
)

// Slot is one cell of a layout. Row and Col are in grid units and may be
// fractional so partial rows can be centered.
type Slot struct {
	Kind        SlotKind `json:"kind"`
	MemberIndex int      `json:"memberIndex"`
	Row         float64  `json:"row"`
	Col         float64  `json:"col"`
	RowSpan     int      `json:"rowSpan"`
	ColSpan     int      `json:"colSpan"`
}

// Layout is an ordered slot list on a Columns x Rows grid.
type Layout struct {
	Size    int    `json:"size"`
	Slots   []Slot `json:"slots"`
	Columns int    `json:"columns"`
	Rows    int    `json:"rows"`
}

// CenterIndex is the member-sequence position shown in the center slot.
// Border slots use indices 0..Size-2, so the center takes the last one.
func (l Layout) CenterIndex() int {
	return l.Size - 1
}

// Center returns the center slot.
func (l Layout) Center() Slot {
	for _, s := range l.Slots {
		if s.Kind == KindCenter {
			return s
		}
	}
	return Slot{Kind: KindCenter, MemberIndex: -1, RowSpan: 1, ColSpan: 1}
}

// Sizes returns the catalogue member counts in ascending order.
func Sizes() []int {
	sizes := make([]int, 0, len(catalogue))
	for n := range catalogue {
		sizes = append(sizes, n)
	}
	sort.Ints(sizes)
	return sizes
}

// Nearest returns the catalogue size closest to n. Equidistant counts resolve
// to the smaller catalogue size.
func Nearest(n int) int {
	sizes := Sizes()
	best := sizes[0]
	bestDist := math.MaxInt
	for _, size := range sizes {
		d := size - n
		if d < 0 {
			d = -d
		}
		// strict comparison over ascending sizes keeps the smaller one on ties
		if d < bestDist {
			best, bestDist = size, d
		}
	}
	return best
}

// ForCount returns the catalogue layout for n members, or the nearest
// catalogue layout when n is not a catalogue size.
func ForCount(n int) Layout {
	size := Nearest(n)
	return catalogue[size].build(size)
}

// build expands the runs of an entry into a slot list. Border slots are
// numbered in run order, the center slot is appended last.
func (e entry) build(size int) Layout {
	l := Layout{Size: size, Columns: e.columns, Rows: e.rows}
	idx := 0
	for _, r := range e.runs {
		step := r.step
		if step == 0 {
			step = 1
		}
		for i := 0; i < r.count; i++ {
			s := Slot{Kind: r.kind, MemberIndex: idx, Row: r.row, Col: r.col, RowSpan: 1, ColSpan: 1}
			if r.vertical {
				s.Row += float64(i) * step
			} else {
				s.Col += float64(i) * step
			}
			l.Slots = append(l.Slots, s)
			idx++
		}
	}
	l.Slots = append(l.Slots, Slot{
		Kind:        KindCenter,
		MemberIndex: -1,
		Row:         e.center.row,
		Col:         e.center.col,
		RowSpan:     e.center.rowSpan,
		ColSpan:     e.center.colSpan,
	})
	return l
}
