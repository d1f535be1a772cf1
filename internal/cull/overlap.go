package cull

import (
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// RectsOverlap reports whether a and b intersect. Edges are inclusive, so
// rectangles that only touch count as overlapping.
func RectsOverlap(a, b rect.Rect) bool {
	checkRect(a)
	checkRect(b)
	return a.LLx <= b.URx && a.URx >= b.LLx &&
		a.LLy <= b.URy && a.URy >= b.LLy
}

// PointInPaddedRect reports whether the square of half-size padding around p
// touches vp.
func PointInPaddedRect(p vec.Vec2, vp rect.Rect, padding float64) bool {
	checkRect(vp)
	return p.X+padding >= vp.LLx && p.X-padding <= vp.URx &&
		p.Y+padding >= vp.LLy && p.Y-padding <= vp.URy
}
