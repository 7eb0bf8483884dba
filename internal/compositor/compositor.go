// Package compositor renders a variant into a single JPEG raster.
//
// Rendering is deterministic: identical inputs produce identical bytes.
package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/groupcollage/api/internal/model"
)

const (
	FormatJPEG      = "jpeg"
	ContentTypeJPEG = "image/jpeg"
)

// Renderer composites one variant. images is keyed by member id; members
// without an entry get a placeholder.
type Renderer interface {
	Render(v model.Variant, images map[string]image.Image) (*Output, error)
}

// Output is an encoded composite.
type Output struct {
	Data        []byte
	Width       int
	Height      int
	Format      string
	ContentType string
}

// Options holds canvas settings shared by both strategies.
type Options struct {
	Width   int
	Height  int
	Gap     int
	Quality int
	// HexScale multiplies hexagon template coordinates into pixels.
	HexScale    float64
	Background  color.RGBA
	Placeholder color.RGBA
	Glyph       color.RGBA
}

// DefaultOptions returns the production canvas settings.
func DefaultOptions() Options {
	return Options{
		Width:       2400,
		Height:      2800,
		Gap:         12,
		Quality:     90,
		HexScale:    2,
		Background:  color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Placeholder: color.RGBA{R: 217, G: 217, B: 222, A: 255},
		Glyph:       color.RGBA{R: 120, G: 120, B: 130, A: 255},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Gap < 0 {
		o.Gap = 0
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = d.Quality
	}
	if o.HexScale <= 0 {
		o.HexScale = d.HexScale
	}
	if o.Background.A == 0 {
		o.Background = d.Background
	}
	if o.Placeholder.A == 0 {
		o.Placeholder = d.Placeholder
	}
	if o.Glyph.A == 0 {
		o.Glyph = d.Glyph
	}
	return o
}

// ParseHexColor parses "#rrggbb" or "rrggbb".
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func encode(img image.Image, quality int) (*Output, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode composite: %w", err)
	}
	b := img.Bounds()
	return &Output{
		Data:        buf.Bytes(),
		Width:       b.Dx(),
		Height:      b.Dy(),
		Format:      FormatJPEG,
		ContentType: ContentTypeJPEG,
	}, nil
}

// coverRect returns the centered region of src that, scaled to dst's aspect
// ratio, covers dst completely.
func coverRect(src image.Rectangle, dstW, dstH int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw <= 0 || sh <= 0 || dstW <= 0 || dstH <= 0 {
		return src
	}
	// compare sw/sh with dstW/dstH without floats
	if sw*dstH > sh*dstW {
		w := sh * dstW / dstH
		if w < 1 {
			w = 1
		}
		x0 := src.Min.X + (sw-w)/2
		return image.Rect(x0, src.Min.Y, x0+w, src.Max.Y)
	}
	h := sw * dstH / dstW
	if h < 1 {
		h = 1
	}
	y0 := src.Min.Y + (sh-h)/2
	return image.Rect(src.Min.X, y0, src.Max.X, y0+h)
}

// drawCover scales src to cover r on dst, cropping the overflow.
func drawCover(dst draw.Image, r image.Rectangle, src image.Image) {
	if r.Empty() {
		return
	}
	draw.CatmullRom.Scale(dst, r, src, coverRect(src.Bounds(), r.Dx(), r.Dy()), draw.Src, nil)
}

// drawPlaceholder fills r with a neutral tile and the member's initials.
func drawPlaceholder(dst draw.Image, r image.Rectangle, m *model.Member, opts Options) {
	draw.Draw(dst, r, image.NewUniform(opts.Placeholder), image.Point{}, draw.Src)
	if m == nil {
		return
	}
	text := Initials(m.Name)
	if text == "" {
		text = "?"
	}
	drawGlyph(dst, r, text, opts.Glyph)
}

// drawGlyph renders text with the fixed bitmap face and scales it up to
// roughly a third of the tile height.
func drawGlyph(dst draw.Image, r image.Rectangle, text string, c color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	tw := d.MeasureString(text).Ceil()
	th := face.Metrics().Height.Ceil()
	if tw <= 0 || th <= 0 {
		return
	}

	glyph := image.NewRGBA(image.Rect(0, 0, tw, th))
	d.Dst = glyph
	d.Src = image.NewUniform(c)
	d.Dot = fixed.P(0, face.Metrics().Ascent.Ceil())
	d.DrawString(text)

	scale := r.Dy() / 3 / th
	if maxScale := r.Dx() * 2 / 3 / tw; maxScale < scale {
		scale = maxScale
	}
	if scale < 1 {
		scale = 1
	}
	gw, gh := tw*scale, th*scale
	x0 := r.Min.X + (r.Dx()-gw)/2
	y0 := r.Min.Y + (r.Dy()-gh)/2
	target := image.Rect(x0, y0, x0+gw, y0+gh).Intersect(r)
	draw.NearestNeighbor.Scale(dst, target, glyph, glyph.Bounds(), draw.Over, nil)
}

// Initials returns up to two uppercase initials of a display name.
func Initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				if r > unicode.MaxASCII {
					// the bitmap face only covers ASCII
					break
				}
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// memberAt returns members[i] or nil when the slot has no occupant.
func memberAt(members []model.Member, i int) *model.Member {
	if i < 0 || i >= len(members) {
		return nil
	}
	return &members[i]
}
