package engine

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Transforms use the layout of matrix.Matrix, [a, b, c, d, e, f]:
//
//	| a  c  e |
//	| b  d  f |
//	| 0  0  1 |

// multiply returns m * other, which applies other first and then m.
func multiply(m, other matrix.Matrix) matrix.Matrix {
	return matrix.Matrix{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// transformPoint applies m to p.
func transformPoint(m matrix.Matrix, p vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

// transformRect returns the axis-aligned bounding box of r under m.
func transformRect(m matrix.Matrix, r rect.Rect) rect.Rect {
	corners := [4]vec.Vec2{
		transformPoint(m, vec.Vec2{X: r.LLx, Y: r.LLy}),
		transformPoint(m, vec.Vec2{X: r.URx, Y: r.LLy}),
		transformPoint(m, vec.Vec2{X: r.URx, Y: r.URy}),
		transformPoint(m, vec.Vec2{X: r.LLx, Y: r.URy}),
	}
	out := rect.Rect{LLx: corners[0].X, LLy: corners[0].Y, URx: corners[0].X, URy: corners[0].Y}
	for _, c := range corners[1:] {
		out.LLx = min(out.LLx, c.X)
		out.LLy = min(out.LLy, c.Y)
		out.URx = max(out.URx, c.X)
		out.URy = max(out.URy, c.Y)
	}
	return out
}

// placement composes Translate(x, y) * Rotate(deg) * Scale(s): the local
// frame of a glyph anchored at (x, y).
func placement(x, y, rotationDeg, s float64) matrix.Matrix {
	rad := rotationDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return matrix.Matrix{cos * s, sin * s, -sin * s, cos * s, x, y}
}

func toSlice(m matrix.Matrix) []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}
