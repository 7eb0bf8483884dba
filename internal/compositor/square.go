package compositor

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/groupcollage/api/internal/layout"
	"github.com/groupcollage/api/internal/model"
)

// Square composites rectangular cells with cover-fit blits.
type Square struct {
	layout layout.Layout
	cells  []layout.Cell
	opts   Options
}

// NewSquare precomputes the pixel cells of l for the configured canvas.
func NewSquare(l layout.Layout, opts Options) *Square {
	opts = opts.withDefaults()
	return &Square{
		layout: l,
		cells:  layout.Cells(l, opts.Width, opts.Height, opts.Gap),
		opts:   opts,
	}
}

// CellSize is the pixel size of a 1x1 cell; photos are requested at this size.
func (s *Square) CellSize() image.Point {
	return layout.CellSize(s.layout, s.opts.Width, s.opts.Height, s.opts.Gap)
}

func (s *Square) Render(v model.Variant, images map[string]image.Image) (*Output, error) {
	if len(s.cells) == 0 {
		return nil, fmt.Errorf("layout has no cells")
	}

	canvas := image.NewRGBA(image.Rect(0, 0, s.opts.Width, s.opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(s.opts.Background), image.Point{}, draw.Src)

	border := v.Border()
	for _, c := range s.cells {
		var m *model.Member
		if c.Slot.Kind == layout.KindCenter {
			center := v.CenterMember
			m = &center
		} else {
			m = memberAt(border, c.Slot.MemberIndex)
		}

		r := c.Rect.Intersect(canvas.Bounds())
		if m != nil {
			if img := images[m.ID]; img != nil {
				drawCover(canvas, r, img)
				continue
			}
		}
		drawPlaceholder(canvas, r, m, s.opts)
	}

	return encode(canvas, s.opts.Quality)
}
