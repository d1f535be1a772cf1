package viewport

import (
	"math"
	"testing"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

const eps = 1e-9

func rectsClose(a, b rect.Rect) bool {
	return math.Abs(a.LLx-b.LLx) < eps && math.Abs(a.LLy-b.LLy) < eps &&
		math.Abs(a.URx-b.URx) < eps && math.Abs(a.URy-b.URy) < eps
}

func TestDocRectIdentity(t *testing.T) {
	sizes := [][2]float64{{0, 0}, {200, 200}, {1920, 1080}, {1, 3000}}
	for _, sz := range sizes {
		got := Identity().DocRect(sz[0], sz[1], 0)
		want := rect.Rect{LLx: 0, LLy: 0, URx: sz[0], URy: sz[1]}
		if !rectsClose(got, want) {
			t.Errorf("DocRect(%v, %v, 0) = %v, want %v", sz[0], sz[1], got, want)
		}
	}
}

func TestDocRectPan(t *testing.T) {
	tests := []struct {
		name   string
		px, py float64
	}{
		{"positive", 100, 50},
		{"negative", -300, -20},
		{"mixed", 12.5, -7.25},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := ViewState{Zoom: 1, Pan: vec.Vec2{X: tc.px, Y: tc.py}}
			got := v.DocRect(800, 600, 0)
			want := rect.Rect{LLx: -tc.px, LLy: -tc.py, URx: 800 - tc.px, URy: 600 - tc.py}
			if !rectsClose(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestDocRectZoomScales(t *testing.T) {
	base := Identity().DocRect(800, 600, 0)
	for _, z := range []float64{0.25, 0.5, 2, 8} {
		v := ViewState{Zoom: z}
		got := v.DocRect(800, 600, 0)
		want := rect.Rect{LLx: base.LLx / z, LLy: base.LLy / z, URx: base.URx / z, URy: base.URy / z}
		if !rectsClose(got, want) {
			t.Errorf("zoom %v: got %v, want %v", z, got, want)
		}
	}
}

func TestDocRectMargin(t *testing.T) {
	tests := []struct {
		zoom, margin float64
	}{
		{1, 200},
		{2, 200},
		{0.5, 200},
		{4, 37},
	}
	for _, tc := range tests {
		v := ViewState{Zoom: tc.zoom, Pan: vec.Vec2{X: 40, Y: -10}}
		bare := v.DocRect(640, 480, 0)
		got := v.DocRect(640, 480, tc.margin)
		d := tc.margin / tc.zoom
		want := rect.Rect{LLx: bare.LLx - d, LLy: bare.LLy - d, URx: bare.URx + d, URy: bare.URy + d}
		if !rectsClose(got, want) {
			t.Errorf("zoom %v margin %v: got %v, want %v", tc.zoom, tc.margin, got, want)
		}
	}
}

func TestScreenDocRoundTrip(t *testing.T) {
	v := ViewState{Zoom: 2.5, Pan: vec.Vec2{X: -120, Y: 33}}
	p := vec.Vec2{X: 17, Y: -4}
	back := v.ScreenToDoc(v.DocToScreen(p))
	if math.Abs(back.X-p.X) > eps || math.Abs(back.Y-p.Y) > eps {
		t.Errorf("round trip = %v, want %v", back, p)
	}
}

func TestMatrixMatchesDocToScreen(t *testing.T) {
	v := ViewState{Zoom: 3, Pan: vec.Vec2{X: 10, Y: 20}}
	m := v.Matrix()
	p := vec.Vec2{X: 7, Y: -2}
	x := m[0]*p.X + m[2]*p.Y + m[4]
	y := m[1]*p.X + m[3]*p.Y + m[5]
	want := v.DocToScreen(p)
	if math.Abs(x-want.X) > eps || math.Abs(y-want.Y) > eps {
		t.Errorf("matrix maps to (%v, %v), want %v", x, y, want)
	}
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	v := ViewState{Zoom: 1, Pan: vec.Vec2{X: 50, Y: 80}}
	cursor := vec.Vec2{X: 300, Y: 200}
	before := v.ScreenToDoc(cursor)

	z := v.ZoomAt(2, cursor.X, cursor.Y)
	if z.Zoom != 2 {
		t.Fatalf("zoom = %v, want 2", z.Zoom)
	}
	after := z.ScreenToDoc(cursor)
	if math.Abs(after.X-before.X) > eps || math.Abs(after.Y-before.Y) > eps {
		t.Errorf("anchor moved from %v to %v", before, after)
	}
}

func TestZoomAtClampsAndIgnoresBadFactor(t *testing.T) {
	v := ViewState{Zoom: 50}
	if got := v.ZoomAt(10, 0, 0).Zoom; got != MaxZoom {
		t.Errorf("zoom = %v, want %v", got, MaxZoom)
	}
	if got := v.ZoomAt(0, 0, 0); got != v {
		t.Errorf("factor 0 changed view to %v", got)
	}
	if got := v.ZoomAt(-1, 0, 0); got != v {
		t.Errorf("negative factor changed view to %v", got)
	}
}

func TestTranslate(t *testing.T) {
	v := ViewState{Zoom: 2, Pan: vec.Vec2{X: 1, Y: 2}, PageID: "page_1"}
	got := v.Translate(10, -5)
	want := ViewState{Zoom: 2, Pan: vec.Vec2{X: 11, Y: -3}, PageID: "page_1"}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFit(t *testing.T) {
	r := rect.Rect{LLx: 100, LLy: 100, URx: 500, URy: 300}
	v := ViewState{Zoom: 1, PageID: "p"}.Fit(r, 800, 600, 0)

	if v.PageID != "p" {
		t.Errorf("PageID = %q, want p", v.PageID)
	}
	if math.Abs(v.Zoom-2) > eps {
		t.Fatalf("zoom = %v, want 2", v.Zoom)
	}
	visible := v.DocRect(800, 600, 0)
	if visible.LLx > r.LLx+eps || visible.URx < r.URx-eps ||
		visible.LLy > r.LLy+eps || visible.URy < r.URy-eps {
		t.Errorf("fitted view %v does not contain %v", visible, r)
	}
	center := v.DocToScreen(vec.Vec2{X: 300, Y: 200})
	if math.Abs(center.X-400) > eps || math.Abs(center.Y-300) > eps {
		t.Errorf("rect centre maps to %v, want (400, 300)", center)
	}
}

func TestFitDegenerate(t *testing.T) {
	pt := rect.Rect{LLx: 10, LLy: 10, URx: 10, URy: 10}
	v := Identity().Fit(pt, 800, 600, 20)
	if v.Zoom != MaxZoom {
		t.Errorf("zoom = %v, want %v", v.Zoom, MaxZoom)
	}

	orig := ViewState{Zoom: 3}
	if got := orig.Fit(pt, 10, 10, 20); got != orig {
		t.Errorf("padding larger than screen changed view to %v", got)
	}
}
