package layout

import (
	"image"
	"math"
)

// Cell is a slot resolved to canvas pixels.
type Cell struct {
	Slot Slot
	Rect image.Rectangle
}

// Cells resolves every slot of l to a pixel rectangle on a width x height
// canvas with gap pixels between and around cells.
func Cells(l Layout, width, height, gap int) []Cell {
	cellW := cellSize(width, l.Columns, gap)
	cellH := cellSize(height, l.Rows, gap)

	cells := make([]Cell, 0, len(l.Slots))
	for _, s := range l.Slots {
		x0 := float64(gap) + s.Col*(cellW+float64(gap))
		y0 := float64(gap) + s.Row*(cellH+float64(gap))
		w := float64(s.ColSpan)*cellW + float64(s.ColSpan-1)*float64(gap)
		h := float64(s.RowSpan)*cellH + float64(s.RowSpan-1)*float64(gap)
		r := image.Rect(
			int(math.Round(x0)),
			int(math.Round(y0)),
			int(math.Round(x0+w)),
			int(math.Round(y0+h)),
		)
		cells = append(cells, Cell{Slot: s, Rect: r})
	}
	return cells
}

// CellSize returns the pixel size of a single 1x1 cell.
func CellSize(l Layout, width, height, gap int) image.Point {
	return image.Pt(
		int(math.Round(cellSize(width, l.Columns, gap))),
		int(math.Round(cellSize(height, l.Rows, gap))),
	)
}

func cellSize(dim, count, gap int) float64 {
	if count <= 0 {
		return float64(dim)
	}
	size := float64(dim-(count+1)*gap) / float64(count)
	if size < 1 {
		return 1
	}
	return size
}
