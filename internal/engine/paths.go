package engine

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// PathCommand is a single path segment in Canvas2D form:
// ["M", x, y], ["L", x, y], ["Q", cx, cy, x, y],
// ["C", x1, y1, x2, y2, x, y] or ["Z"].
type PathCommand []any

// k = 4 * (sqrt(2) - 1) / 3, the Bézier handle length of a quarter circle.
const kappa = 0.5522847498

const arcSegments = 24

// rectPath is an axis-aligned rectangle with its top-left corner at the
// origin.
func rectPath(w, h float64) []PathCommand {
	return []PathCommand{
		{"M", 0.0, 0.0},
		{"L", w, 0.0},
		{"L", w, h},
		{"L", 0.0, h},
		{"Z"},
	}
}

// circlePath is a circle of radius r centred on the origin, as four cubic
// Bézier curves.
func circlePath(r float64) []PathCommand {
	k := r * kappa
	return []PathCommand{
		{"M", r, 0.0},
		{"C", r, k, k, r, 0.0, r},
		{"C", -k, r, -r, k, -r, 0.0},
		{"C", -r, -k, -k, -r, 0.0, -r},
		{"C", k, -r, r, -k, r, 0.0},
		{"Z"},
	}
}

// crossPath is an X of half-size r centred on the origin.
func crossPath(r float64) []PathCommand {
	return []PathCommand{
		{"M", -r, -r},
		{"L", r, r},
		{"M", -r, r},
		{"L", r, -r},
	}
}

// symbolPath draws the glyph for a symbol kind in a local frame of radius 1.
// Unknown kinds fall back to a plain circle.
func symbolPath(kind string) []PathCommand {
	p := circlePath(1)
	switch kind {
	case "socket":
		p = append(p, PathCommand{"M", -1.0, -1.4}, PathCommand{"L", 1.0, -1.4})
	case "switch":
		p = append(p, PathCommand{"M", 0.7, -0.7}, PathCommand{"L", 1.6, -1.6})
	case "light":
		p = append(p, crossPath(0.7)...)
	}
	return p
}

func segmentPath(a, b vec.Vec2) []PathCommand {
	return []PathCommand{{"M", a.X, a.Y}, {"L", b.X, b.Y}}
}

// curvePath is the quadratic Bézier that starts at a, ends at c and passes
// through b at its midpoint.
func curvePath(a, b, c vec.Vec2) []PathCommand {
	ctrl := vec.Vec2{X: 2*b.X - (a.X+c.X)/2, Y: 2*b.Y - (a.Y+c.Y)/2}
	return []PathCommand{{"M", a.X, a.Y}, {"Q", ctrl.X, ctrl.Y, c.X, c.Y}}
}

// arcPath approximates the circular arc from a through b to c with a
// polyline. Collinear points give the straight path a-b-c.
func arcPath(a, b, c vec.Vec2) []PathCommand {
	center, ok := circumcenter(a, b, c)
	if !ok {
		return []PathCommand{{"M", a.X, a.Y}, {"L", b.X, b.Y}, {"L", c.X, c.Y}}
	}
	r := math.Hypot(a.X-center.X, a.Y-center.Y)
	start := math.Atan2(a.Y-center.Y, a.X-center.X)
	mid := math.Atan2(b.Y-center.Y, b.X-center.X)
	end := math.Atan2(c.Y-center.Y, c.X-center.X)

	// Sweep from start to end in whichever direction passes through mid.
	sweep := normAngle(end - start)
	if normAngle(mid-start) > sweep {
		sweep -= 2 * math.Pi
	}

	out := make([]PathCommand, 0, arcSegments+1)
	out = append(out, PathCommand{"M", a.X, a.Y})
	for i := 1; i < arcSegments; i++ {
		t := start + sweep*float64(i)/arcSegments
		out = append(out, PathCommand{"L", center.X + r*math.Cos(t), center.Y + r*math.Sin(t)})
	}
	return append(out, PathCommand{"L", c.X, c.Y})
}

// arrowPath is the shaft from tail to head plus an open head of the given
// length.
func arrowPath(tail, head vec.Vec2, headLen float64) []PathCommand {
	p := segmentPath(tail, head)
	d := math.Hypot(head.X-tail.X, head.Y-tail.Y)
	if d == 0 {
		return p
	}
	ux, uy := (head.X-tail.X)/d, (head.Y-tail.Y)/d
	bx, by := head.X-ux*headLen, head.Y-uy*headLen
	w := headLen / 2
	return append(p,
		PathCommand{"M", bx - uy*w, by + ux*w},
		PathCommand{"L", head.X, head.Y},
		PathCommand{"L", bx + uy*w, by - ux*w},
	)
}

// dimensionPath is the measured span with a perpendicular tick of half
// length tick at each end.
func dimensionPath(a, b vec.Vec2, tick float64) []PathCommand {
	p := segmentPath(a, b)
	d := math.Hypot(b.X-a.X, b.Y-a.Y)
	if d == 0 {
		return p
	}
	nx, ny := -(b.Y-a.Y)/d*tick, (b.X-a.X)/d*tick
	return append(p,
		PathCommand{"M", a.X - nx, a.Y - ny}, PathCommand{"L", a.X + nx, a.Y + ny},
		PathCommand{"M", b.X - nx, b.Y - ny}, PathCommand{"L", b.X + nx, b.Y + ny},
	)
}

func circumcenter(a, b, c vec.Vec2) (vec.Vec2, bool) {
	d := 2 * (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y))
	if math.Abs(d) < 1e-12 {
		return vec.Vec2{}, false
	}
	a2 := a.X*a.X + a.Y*a.Y
	b2 := b.X*b.X + b.Y*b.Y
	c2 := c.X*c.X + c.Y*c.Y
	return vec.Vec2{
		X: (a2*(b.Y-c.Y) + b2*(c.Y-a.Y) + c2*(a.Y-b.Y)) / d,
		Y: (a2*(c.X-b.X) + b2*(a.X-c.X) + c2*(b.X-a.X)) / d,
	}, true
}

// normAngle maps a to [0, 2π).
func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
