package export

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/inamate/schematic/internal/engine"
)

// Curves are flattened into this many segments when stroked.
const curveSteps = 16

// ImageLoader returns the decoded page background for an asset id.
type ImageLoader func(assetID string) (image.Image, error)

// Renderer rasterizes engine draw commands onto an RGBA canvas.
type Renderer struct {
	dst    *image.RGBA
	z      *vector.Rasterizer
	images ImageLoader
}

// NewRenderer creates a width x height canvas filled with bg.
func NewRenderer(width, height int, bg color.Color, images ImageLoader) *Renderer {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return &Renderer{
		dst:    dst,
		z:      vector.NewRasterizer(width, height),
		images: images,
	}
}

// Image returns the canvas.
func (r *Renderer) Image() *image.RGBA {
	return r.dst
}

// Draw executes cmds in order.
func (r *Renderer) Draw(cmds []engine.DrawCommand) {
	for _, c := range cmds {
		switch c.Op {
		case "path":
			r.drawPath(c)
		case "image":
			r.drawImage(c)
		case "text":
			r.drawText(c)
		}
	}
}

func (r *Renderer) drawPath(c engine.DrawCommand) {
	m := transformOf(c.Transform)
	if c.Fill != "" {
		r.reset()
		r.fill(c.Path, m)
		r.z.Draw(r.dst, r.dst.Bounds(), image.NewUniform(paint(c.Fill, c.Opacity)), image.Point{})
	}
	if c.Stroke != "" && c.StrokeWidth > 0 {
		r.reset()
		w := math.Max(1, c.StrokeWidth*m.scale())
		for _, line := range flatten(c.Path) {
			for i := 1; i < len(line); i++ {
				r.segment(m.apply(line[i-1]), m.apply(line[i]), w/2)
			}
		}
		r.z.Draw(r.dst, r.dst.Bounds(), image.NewUniform(paint(c.Stroke, c.Opacity)), image.Point{})
	}
}

func (r *Renderer) fill(path []engine.PathCommand, m affine) {
	open := false
	for _, pc := range path {
		if len(pc) == 0 {
			continue
		}
		op, _ := pc[0].(string)
		p := coords(pc)
		switch {
		case op == "M" && len(p) >= 2:
			if open {
				r.z.ClosePath()
			}
			r.z.MoveTo(m.f32(p[0], p[1]))
			open = true
		case op == "L" && len(p) >= 2 && open:
			r.z.LineTo(m.f32(p[0], p[1]))
		case op == "Q" && len(p) >= 4 && open:
			x1, y1 := m.f32(p[0], p[1])
			x2, y2 := m.f32(p[2], p[3])
			r.z.QuadTo(x1, y1, x2, y2)
		case op == "C" && len(p) >= 6 && open:
			x1, y1 := m.f32(p[0], p[1])
			x2, y2 := m.f32(p[2], p[3])
			x3, y3 := m.f32(p[4], p[5])
			r.z.CubeTo(x1, y1, x2, y2, x3, y3)
		case op == "Z" && open:
			r.z.ClosePath()
			open = false
		}
	}
	if open {
		r.z.ClosePath()
	}
}

// segment adds the quad covering a line of half-width hw from a to b. All
// quads share one winding direction, so overlaps do not cancel.
func (r *Renderer) segment(a, b point, hw float64) {
	dx, dy := b.x-a.x, b.y-a.y
	l := math.Hypot(dx, dy)
	if l == 0 {
		dx, dy, l = 1, 0, 1
	}
	nx, ny := -dy/l*hw, dx/l*hw
	r.z.MoveTo(float32(a.x+nx), float32(a.y+ny))
	r.z.LineTo(float32(b.x+nx), float32(b.y+ny))
	r.z.LineTo(float32(b.x-nx), float32(b.y-ny))
	r.z.LineTo(float32(a.x-nx), float32(a.y-ny))
	r.z.ClosePath()
}

func (r *Renderer) drawImage(c engine.DrawCommand) {
	m := transformOf(c.Transform)
	var src image.Image
	if r.images != nil && c.ImageAssetID != "" {
		src, _ = r.images(c.ImageAssetID)
	}
	if src == nil || src.Bounds().Empty() {
		// Missing background: draw the blank sheet instead.
		r.drawPath(engine.DrawCommand{
			Transform: c.Transform,
			Path: []engine.PathCommand{
				{"M", 0.0, 0.0}, {"L", c.ImageWidth, 0.0},
				{"L", c.ImageWidth, c.ImageHeight}, {"L", 0.0, c.ImageHeight}, {"Z"},
			},
			Fill:    "#ffffff",
			Opacity: 1,
		})
		return
	}

	b := src.Bounds()
	sx := c.ImageWidth / float64(b.Dx())
	sy := c.ImageHeight / float64(b.Dy())
	s2d := f64.Aff3{
		m[0] * sx, m[2] * sy, m[4] - (m[0]*sx*float64(b.Min.X) + m[2]*sy*float64(b.Min.Y)),
		m[1] * sx, m[3] * sy, m[5] - (m[1]*sx*float64(b.Min.X) + m[3]*sy*float64(b.Min.Y)),
	}
	xdraw.ApproxBiLinear.Transform(r.dst, s2d, src, b, xdraw.Over, nil)
}

// drawText draws with a fixed bitmap face. Only the origin of the transform is
// honoured; the preview does not scale or rotate glyphs.
func (r *Renderer) drawText(c engine.DrawCommand) {
	if c.Text == "" {
		return
	}
	o := transformOf(c.Transform).apply(point{})
	d := &font.Drawer{
		Dst:  r.dst,
		Src:  image.NewUniform(paint(c.Fill, c.Opacity)),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(int(math.Round(o.x)), int(math.Round(o.y))),
	}
	d.DrawString(c.Text)
}

func (r *Renderer) reset() {
	b := r.dst.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
}

type point struct{ x, y float64 }

// affine is a Canvas2D transform [a b c d e f]:
// x' = a*x + c*y + e, y' = b*x + d*y + f.
type affine [6]float64

func transformOf(t []float64) affine {
	if len(t) != 6 {
		return affine{1, 0, 0, 1, 0, 0}
	}
	var m affine
	copy(m[:], t)
	return m
}

func (m affine) apply(p point) point {
	return point{m[0]*p.x + m[2]*p.y + m[4], m[1]*p.x + m[3]*p.y + m[5]}
}

func (m affine) f32(x, y float64) (float32, float32) {
	p := m.apply(point{x, y})
	return float32(p.x), float32(p.y)
}

// scale is the geometric mean of the axis scale factors.
func (m affine) scale() float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

// flatten converts path commands into polylines in the path's own frame.
func flatten(path []engine.PathCommand) [][]point {
	var out [][]point
	var cur []point
	var start point
	last := func() point { return cur[len(cur)-1] }
	for _, pc := range path {
		if len(pc) == 0 {
			continue
		}
		op, _ := pc[0].(string)
		p := coords(pc)
		switch {
		case op == "M" && len(p) >= 2:
			if len(cur) > 1 {
				out = append(out, cur)
			}
			start = point{p[0], p[1]}
			cur = []point{start}
		case op == "L" && len(p) >= 2 && len(cur) > 0:
			cur = append(cur, point{p[0], p[1]})
		case op == "Q" && len(p) >= 4 && len(cur) > 0:
			p0 := last()
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				u := 1 - t
				cur = append(cur, point{
					u*u*p0.x + 2*u*t*p[0] + t*t*p[2],
					u*u*p0.y + 2*u*t*p[1] + t*t*p[3],
				})
			}
		case op == "C" && len(p) >= 6 && len(cur) > 0:
			p0 := last()
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				u := 1 - t
				cur = append(cur, point{
					u*u*u*p0.x + 3*u*u*t*p[0] + 3*u*t*t*p[2] + t*t*t*p[4],
					u*u*u*p0.y + 3*u*u*t*p[1] + 3*u*t*t*p[3] + t*t*t*p[5],
				})
			}
		case op == "Z" && len(cur) > 0:
			cur = append(cur, start)
			out = append(out, cur)
			cur = nil
		}
	}
	if len(cur) > 1 {
		out = append(out, cur)
	}
	return out
}

// coords returns the numeric operands of a path command.
func coords(pc engine.PathCommand) []float64 {
	out := make([]float64, 0, len(pc)-1)
	for _, v := range pc[1:] {
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case float32:
			out = append(out, float64(n))
		case int:
			out = append(out, float64(n))
		}
	}
	return out
}

// paint parses "#rgb" or "#rrggbb" and applies opacity. Anything else is
// black.
func paint(hex string, opacity float64) color.NRGBA {
	c := color.NRGBA{A: 0xff}
	if len(hex) > 0 && hex[0] == '#' {
		s := hex[1:]
		if len(s) == 3 {
			s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
		}
		if len(s) == 6 {
			if v, err := strconv.ParseUint(s, 16, 32); err == nil {
				c.R, c.G, c.B = uint8(v>>16), uint8(v>>8), uint8(v)
			}
		}
	}
	if opacity > 0 && opacity < 1 {
		c.A = uint8(math.Round(opacity * 0xff))
	}
	return c
}
