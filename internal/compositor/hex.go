package compositor

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/groupcollage/api/internal/hexgrid"
	"github.com/groupcollage/api/internal/model"
)

// hexTheme is the cell background palette. The center uses its own color.
var (
	hexCenterColor = color.RGBA{R: 242, G: 232, B: 207, A: 255}
	hexTheme       = []color.RGBA{
		{R: 224, G: 224, B: 230, A: 255},
		{R: 214, G: 226, B: 233, A: 255},
		{R: 230, G: 220, B: 232, A: 255},
		{R: 222, G: 233, B: 220, A: 255},
	}
)

// Hex composites polygonal cells from a hexagon template.
type Hex struct {
	layout *hexgrid.HexLayout
	opts   Options
	width  int
	height int
}

// NewHex scales the template by opts.HexScale.
func NewHex(l *hexgrid.HexLayout, opts Options) *Hex {
	opts = opts.withDefaults()
	return &Hex{
		layout: l,
		opts:   opts,
		width:  int(math.Ceil(l.ViewWidth * opts.HexScale)),
		height: int(math.Ceil(l.ViewHeight * opts.HexScale)),
	}
}

// CellSize is the pixel size of the first border slot.
func (h *Hex) CellSize() image.Point {
	border := h.layout.Border()
	if len(border) == 0 {
		return image.Point{}
	}
	r := h.scaleRect(border[0].Bounds)
	return r.Size()
}

func (h *Hex) Render(v model.Variant, images map[string]image.Image) (*Output, error) {
	if len(h.layout.Slots) == 0 {
		return nil, fmt.Errorf("hexagon layout has no slots")
	}

	canvas := image.NewRGBA(image.Rect(0, 0, h.width, h.height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(h.opts.Background), image.Point{}, draw.Src)

	border := v.Border()
	for i, slot := range h.layout.Slots {
		var m *model.Member
		bg := hexCenterColor
		if slot.IsCenter {
			center := v.CenterMember
			m = &center
		} else {
			m = memberAt(border, i-1)
			bg = hexTheme[(i-1)%len(hexTheme)]
		}

		box := h.scaleRect(slot.Bounds).Intersect(canvas.Bounds())
		if box.Empty() {
			continue
		}
		mask := h.polygonMask(slot.Points, box)

		draw.DrawMask(canvas, box, image.NewUniform(bg), image.Point{}, mask, image.Point{}, draw.Over)

		if m == nil {
			continue
		}
		img := images[m.ID]
		if img == nil {
			drawGlyph(canvas, box, placeholderText(m), h.opts.Glyph)
			continue
		}

		tile := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
		drawCover(tile, tile.Bounds(), img)
		draw.DrawMask(canvas, box, tile, image.Point{}, mask, image.Point{}, draw.Over)
	}

	return encode(canvas, h.opts.Quality)
}

// polygonMask rasterizes the scaled polygon into an alpha mask whose origin
// is box.Min.
func (h *Hex) polygonMask(pts []hexgrid.Point, box image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, box.Dx(), box.Dy()))
	if len(pts) < 3 {
		return mask
	}

	z := vector.NewRasterizer(box.Dx(), box.Dy())
	z.DrawOp = draw.Src
	for i, p := range pts {
		x := float32(p.X*h.opts.HexScale) - float32(box.Min.X)
		y := float32(p.Y*h.opts.HexScale) - float32(box.Min.Y)
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

func (h *Hex) scaleRect(r image.Rectangle) image.Rectangle {
	s := h.opts.HexScale
	return image.Rect(
		int(math.Floor(float64(r.Min.X)*s)),
		int(math.Floor(float64(r.Min.Y)*s)),
		int(math.Ceil(float64(r.Max.X)*s)),
		int(math.Ceil(float64(r.Max.Y)*s)),
	)
}

func placeholderText(m *model.Member) string {
	if in := Initials(m.Name); in != "" {
		return in
	}
	return "?"
}
