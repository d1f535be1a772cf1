// Package cull selects the elements of a schematic document that are visible
// through a viewport.
//
// Every function in this package is pure: inputs are only read, results are
// freshly allocated, and concurrent calls need no locking.
package cull

import (
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// SegmentBounds returns the axis-aligned bounding box of the segment ab.
func SegmentBounds(a, b vec.Vec2) rect.Rect {
	return rect.Rect{
		LLx: math.Min(a.X, b.X),
		LLy: math.Min(a.Y, b.Y),
		URx: math.Max(a.X, b.X),
		URy: math.Max(a.Y, b.Y),
	}
}

// ThreePointBounds returns the bounding box of three control points. For arcs
// and curves this is the hull of start, through and end points rather than
// the curve's true extent. The result may be larger than what is drawn but
// must never be smaller.
func ThreePointBounds(a, b, c vec.Vec2) rect.Rect {
	return rect.Rect{
		LLx: math.Min(a.X, math.Min(b.X, c.X)),
		LLy: math.Min(a.Y, math.Min(b.Y, c.Y)),
		URx: math.Max(a.X, math.Max(b.X, c.X)),
		URy: math.Max(a.Y, math.Max(b.Y, c.Y)),
	}
}

// PaddedPointBounds returns the square of half-size padding around p. It is
// the footprint PointInPaddedRect tests against.
func PaddedPointBounds(p vec.Vec2, padding float64) rect.Rect {
	return rect.Rect{
		LLx: p.X - padding,
		LLy: p.Y - padding,
		URx: p.X + padding,
		URy: p.Y + padding,
	}
}

// Union returns the smallest rectangle containing a and b.
func Union(a, b rect.Rect) rect.Rect {
	return rect.Rect{
		LLx: math.Min(a.LLx, b.LLx),
		LLy: math.Min(a.LLy, b.LLy),
		URx: math.Max(a.URx, b.URx),
		URy: math.Max(a.URy, b.URy),
	}
}

// Expand grows r by d on every side.
func Expand(r rect.Rect, d float64) rect.Rect {
	return rect.Rect{LLx: r.LLx - d, LLy: r.LLy - d, URx: r.URx + d, URy: r.URy + d}
}
