package engine

import (
	"math"
	"testing"

	"seehuhn.de/go/geom/vec"

	"github.com/inamate/schematic/internal/viewport"
)

func lastPoint(t *testing.T, p []PathCommand) vec.Vec2 {
	t.Helper()
	c := p[len(p)-1]
	n := len(c)
	return vec.Vec2{X: c[n-2].(float64), Y: c[n-1].(float64)}
}

func TestArcPath(t *testing.T) {
	a, b, c := vec.Vec2{X: 10, Y: 10}, vec.Vec2{X: 50, Y: 50}, vec.Vec2{X: 90, Y: 10}
	p := arcPath(a, b, c)
	if len(p) != arcSegments+1 {
		t.Fatalf("got %d commands, want %d", len(p), arcSegments+1)
	}
	if got := lastPoint(t, p); got != c {
		t.Errorf("arc ends at %v, want %v", got, c)
	}

	// Every vertex lies on the circle through the three points, on the
	// side of the chord that contains b.
	center, ok := circumcenter(a, b, c)
	if !ok {
		t.Fatal("points reported collinear")
	}
	r := math.Hypot(a.X-center.X, a.Y-center.Y)
	for _, cmd := range p {
		x, y := cmd[1].(float64), cmd[2].(float64)
		if d := math.Hypot(x-center.X, y-center.Y); math.Abs(d-r) > 1e-9 {
			t.Errorf("vertex (%v, %v) off the circle by %v", x, y, d-r)
		}
		if y < 10-1e-9 {
			t.Errorf("vertex (%v, %v) on the wrong side of the chord", x, y)
		}
	}
}

func TestArcPathCollinear(t *testing.T) {
	p := arcPath(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 5, Y: 0}, vec.Vec2{X: 10, Y: 0})
	if len(p) != 3 {
		t.Errorf("got %d commands, want a 3-point polyline", len(p))
	}
}

func TestCurvePathPassesThroughMidpoint(t *testing.T) {
	a, b, c := vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 5, Y: 8}, vec.Vec2{X: 10, Y: 0}
	q := curvePath(a, b, c)[1]
	cx, cy := q[1].(float64), q[2].(float64)
	// Quadratic Bézier at t = 0.5.
	mx := 0.25*a.X + 0.5*cx + 0.25*c.X
	my := 0.25*a.Y + 0.5*cy + 0.25*c.Y
	if math.Abs(mx-b.X) > 1e-12 || math.Abs(my-b.Y) > 1e-12 {
		t.Errorf("midpoint = (%v, %v), want %v", mx, my, b)
	}
}

func TestPlacementAndMultiply(t *testing.T) {
	view := viewport.ViewState{Zoom: 2, Pan: vec.Vec2{X: 10, Y: 20}}
	m := multiply(view.Matrix(), placement(100, 50, 90, 3))

	// Local (1, 0) rotated by 90° is (0, 1), scaled by 3 and moved to
	// (100, 53) in the document, which the view puts at (210, 126).
	got := transformPoint(m, vec.Vec2{X: 1, Y: 0})
	if math.Abs(got.X-210) > 1e-9 || math.Abs(got.Y-126) > 1e-9 {
		t.Errorf("got %v, want (210, 126)", got)
	}
}

func TestCameraMoveSettles(t *testing.T) {
	from := viewport.ViewState{Zoom: 1}
	to := viewport.ViewState{Zoom: 8, Pan: vec.Vec2{X: -4000, Y: 1200}, PageID: "page_1"}
	c := newCameraMove(from, to)

	var v viewport.ViewState
	done := false
	for i := 0; !done; i++ {
		if i > maxCameraFrames {
			t.Fatal("camera never settled")
		}
		v, done = c.step()
		if !(v.Zoom > 0) || v.Zoom > to.Zoom*(1+1e-6) {
			t.Fatalf("frame %d: zoom %v outside (0, %v]", i, v.Zoom, to.Zoom)
		}
		if v.PageID != to.PageID {
			t.Fatalf("frame %d: page %q", i, v.PageID)
		}
	}
	if v != to {
		t.Errorf("settled on %+v, want %+v", v, to)
	}
}
