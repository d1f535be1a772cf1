// Package viewport converts between screen space and document space for a
// pan/zoom camera.
//
// The camera maps a document point p to the screen point p*Zoom + Pan.
package viewport

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// DefaultMarginPx is the screen-space buffer added around the visible area
// so elements do not pop in at the edges while panning.
const DefaultMarginPx = 200

// Zoom limits applied by the controller helpers (ZoomAt, Fit). DocRect
// itself accepts any positive zoom.
const (
	MinZoom float64 = 0.01
	MaxZoom float64 = 100
)

// ViewState is the camera state. Zoom is screen pixels per document unit and
// must be positive. Pan is a screen-space offset in pixels.
type ViewState struct {
	Zoom   float64  `json:"zoom"`
	Pan    vec.Vec2 `json:"pan"`
	PageID string   `json:"pageId,omitempty"`
}

// Identity returns a view with zoom 1 and no pan.
func Identity() ViewState {
	return ViewState{Zoom: 1}
}

// DocRect returns the document-space rectangle visible on a screen of the
// given size, expanded on every side by marginPx screen pixels.
func (v ViewState) DocRect(screenWidth, screenHeight, marginPx float64) rect.Rect {
	checkView(v)
	marginDoc := marginPx / v.Zoom
	return rect.Rect{
		LLx: -v.Pan.X/v.Zoom - marginDoc,
		LLy: -v.Pan.Y/v.Zoom - marginDoc,
		URx: (screenWidth-v.Pan.X)/v.Zoom + marginDoc,
		URy: (screenHeight-v.Pan.Y)/v.Zoom + marginDoc,
	}
}

// Matrix returns the document-to-screen transform.
func (v ViewState) Matrix() matrix.Matrix {
	return matrix.Matrix{v.Zoom, 0, 0, v.Zoom, v.Pan.X, v.Pan.Y}
}

// DocToScreen maps a document point to screen pixels.
func (v ViewState) DocToScreen(p vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: p.X*v.Zoom + v.Pan.X, Y: p.Y*v.Zoom + v.Pan.Y}
}

// ScreenToDoc maps a screen pixel to document space.
func (v ViewState) ScreenToDoc(p vec.Vec2) vec.Vec2 {
	checkView(v)
	return vec.Vec2{X: (p.X - v.Pan.X) / v.Zoom, Y: (p.Y - v.Pan.Y) / v.Zoom}
}

// Translate returns the view panned by (dx, dy) screen pixels.
func (v ViewState) Translate(dx, dy float64) ViewState {
	v.Pan.X += dx
	v.Pan.Y += dy
	return v
}

// ZoomAt scales the zoom by factor while keeping the document point under
// the screen position (sx, sy) fixed. The result is clamped to
// [MinZoom, MaxZoom].
func (v ViewState) ZoomAt(factor, sx, sy float64) ViewState {
	if !(factor > 0) {
		return v
	}
	anchor := v.ScreenToDoc(vec.Vec2{X: sx, Y: sy})
	v.Zoom = ClampZoom(v.Zoom * factor)
	v.Pan.X = sx - anchor.X*v.Zoom
	v.Pan.Y = sy - anchor.Y*v.Zoom
	return v
}

// Fit returns a view that shows r centred on a screen of the given size,
// leaving paddingPx pixels free on each side. The page id is kept.
func (v ViewState) Fit(r rect.Rect, screenWidth, screenHeight, paddingPx float64) ViewState {
	availW := screenWidth - 2*paddingPx
	availH := screenHeight - 2*paddingPx
	w := r.URx - r.LLx
	h := r.URy - r.LLy
	if availW <= 0 || availH <= 0 {
		return v
	}

	zoom := MaxZoom
	if w > 0 {
		zoom = math.Min(zoom, availW/w)
	}
	if h > 0 {
		zoom = math.Min(zoom, availH/h)
	}
	zoom = ClampZoom(zoom)

	cx := (r.LLx + r.URx) / 2
	cy := (r.LLy + r.URy) / 2
	return ViewState{
		Zoom:   zoom,
		Pan:    vec.Vec2{X: screenWidth/2 - cx*zoom, Y: screenHeight/2 - cy*zoom},
		PageID: v.PageID,
	}
}

// ClampZoom limits z to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
