package hexgrid

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Point is a template-space coordinate.
type Point struct {
	X, Y float64
}

// rawShape is one closed outline read from the template, in document order.
type rawShape struct {
	points []Point
	path   string
}

type document struct {
	viewWidth, viewHeight float64
	shapes                []rawShape
}

// parseDocument reads the viewBox and every <polygon> and <path> outline.
func parseDocument(svg []byte) (*document, error) {
	dec := xml.NewDecoder(bytes.NewReader(svg))
	doc := &document{}
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch el.Name.Local {
		case "svg":
			sawRoot = true
			w, h, err := parseViewBox(attr(el, "viewBox"), attr(el, "width"), attr(el, "height"))
			if err != nil {
				return nil, err
			}
			doc.viewWidth, doc.viewHeight = w, h
		case "polygon":
			pts, err := parsePoints(attr(el, "points"))
			if err != nil {
				return nil, err
			}
			doc.shapes = append(doc.shapes, rawShape{points: pts, path: pointsToPath(pts)})
		case "path":
			d := attr(el, "d")
			pts, err := parsePath(d)
			if err != nil {
				return nil, err
			}
			doc.shapes = append(doc.shapes, rawShape{points: pts, path: strings.TrimSpace(d)})
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("template has no svg root")
	}
	return doc, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func parseViewBox(viewBox, width, height string) (float64, float64, error) {
	if viewBox != "" {
		nums, err := parseNumbers(viewBox)
		if err != nil || len(nums) != 4 {
			return 0, 0, fmt.Errorf("invalid viewBox %q", viewBox)
		}
		return nums[2], nums[3], nil
	}
	w, errW := strconv.ParseFloat(strings.TrimSuffix(width, "px"), 64)
	h, errH := strconv.ParseFloat(strings.TrimSuffix(height, "px"), 64)
	if errW != nil || errH != nil {
		return 0, 0, fmt.Errorf("template has neither viewBox nor numeric width/height")
	}
	return w, h, nil
}

func parsePoints(s string) ([]Point, error) {
	nums, err := parseNumbers(s)
	if err != nil {
		return nil, err
	}
	if len(nums)%2 != 0 {
		return nil, fmt.Errorf("odd coordinate count in points %q", s)
	}
	pts := make([]Point, 0, len(nums)/2)
	for i := 0; i < len(nums); i += 2 {
		pts = append(pts, Point{X: nums[i], Y: nums[i+1]})
	}
	return dedupeClosing(pts), nil
}

func parseNumbers(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		nums = append(nums, v)
	}
	return nums, nil
}

// parsePath supports the straight-line subset of SVG path data: M, L, H, V
// and Z in absolute and relative form. Only the first subpath is used.
func parsePath(d string) ([]Point, error) {
	toks := tokenizePath(d)
	var (
		pts     []Point
		cur     Point
		cmd     byte
		started bool
	)

	for i := 0; i < len(toks); {
		t := toks[i]
		if isCommand(t) {
			cmd = t[0]
			i++
			if cmd == 'Z' || cmd == 'z' {
				break
			}
			if (cmd == 'M' || cmd == 'm') && started {
				break
			}
			continue
		}
		if cmd == 0 {
			return nil, fmt.Errorf("path data %q does not start with a command", d)
		}

		need := 2
		if cmd == 'H' || cmd == 'h' || cmd == 'V' || cmd == 'v' {
			need = 1
		}
		if i+need > len(toks) {
			return nil, fmt.Errorf("truncated path data %q", d)
		}
		vals := make([]float64, need)
		for j := 0; j < need; j++ {
			v, err := strconv.ParseFloat(toks[i+j], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid path number %q", toks[i+j])
			}
			vals[j] = v
		}
		i += need

		switch cmd {
		case 'M', 'L':
			cur = Point{vals[0], vals[1]}
		case 'm', 'l':
			cur = Point{cur.X + vals[0], cur.Y + vals[1]}
		case 'H':
			cur.X = vals[0]
		case 'h':
			cur.X += vals[0]
		case 'V':
			cur.Y = vals[0]
		case 'v':
			cur.Y += vals[0]
		default:
			return nil, fmt.Errorf("unsupported path command %q", cmd)
		}
		pts = append(pts, cur)
		started = true

		// implicit lineto after a moveto
		if cmd == 'M' {
			cmd = 'L'
		} else if cmd == 'm' {
			cmd = 'l'
		}
	}

	return dedupeClosing(pts), nil
}

func isCommand(t string) bool {
	return len(t) == 1 && strings.ContainsRune("MmLlHhVvZzCcSsQqTtAa", rune(t[0]))
}

func tokenizePath(d string) []string {
	var toks []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			toks = append(toks, b.String())
			b.Reset()
		}
	}
	for _, r := range d {
		switch {
		case unicode.IsLetter(r) && r != 'e' && r != 'E':
			flush()
			toks = append(toks, string(r))
		case r == ',' || unicode.IsSpace(r):
			flush()
		case r == '-' && b.Len() > 0 && !strings.HasSuffix(b.String(), "e") && !strings.HasSuffix(b.String(), "E"):
			flush()
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return toks
}

// dedupeClosing drops a trailing vertex that repeats the first one.
func dedupeClosing(pts []Point) []Point {
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		return pts[:len(pts)-1]
	}
	return pts
}

func pointsToPath(pts []Point) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
		b.WriteString(" ")
		b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
	}
	if len(pts) > 0 {
		b.WriteString(" Z")
	}
	return b.String()
}
