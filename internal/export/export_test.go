package export

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/engine"
)

func previewBody(t *testing.T, doc *document.Document, zoom float64, w, h int) *bytes.Reader {
	t.Helper()
	body := map[string]any{
		"document": doc,
		"view":     map[string]any{"zoom": zoom, "pan": map[string]float64{"x": 0, "y": 0}},
		"width":    w,
		"height":   h,
		"margin":   0,
		"name":     "plan 1/a",
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(data)
}

func previewDocument() *document.Document {
	doc := document.NewEmptyDocument("dwg_1", "Plan", "page_1")
	doc.Pages[0].Width, doc.Pages[0].Height = 200, 100
	doc.Lines = []document.Line{
		{ID: "line_1", Start: document.Point{X: 10, Y: 50}, End: document.Point{X: 190, Y: 50}, Weight: 4},
		{ID: "line_far", Start: document.Point{X: 5000, Y: 5000}, End: document.Point{X: 6000, Y: 5000}},
	}
	return doc
}

func TestPreview(t *testing.T) {
	h := NewHandler(t.TempDir(), 200)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/export/preview", previewBody(t, previewDocument(), 1, 200, 100))
	h.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := rec.Header().Get("X-Cull-Kept"); got != "1" {
		t.Errorf("X-Cull-Kept = %s, want 1", got)
	}
	if got := rec.Header().Get("X-Cull-Total"); got != "2" {
		t.Errorf("X-Cull-Total = %s, want 2", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `inline; filename="plan-1-a.png"` {
		t.Errorf("Content-Disposition = %q", cd)
	}

	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("image is %v", b)
	}
	if r, _, _, _ := img.At(100, 50).RGBA(); r>>8 > 0x80 {
		t.Errorf("line pixel red = %#x, want dark", r>>8)
	}
	if r, _, _, _ := img.At(100, 20).RGBA(); r>>8 != 0xff {
		t.Errorf("page pixel red = %#x, want white", r>>8)
	}
}

func TestPreviewRejects(t *testing.T) {
	h := NewHandler(t.TempDir(), 200)
	tests := map[string]*bytes.Reader{
		"zoom":  previewBody(t, previewDocument(), 0, 200, 100),
		"size":  previewBody(t, previewDocument(), 1, 0, 100),
		"huge":  previewBody(t, previewDocument(), 1, 5000, 100),
		"nodoc": previewBody(t, nil, 1, 200, 100),
		"json":  bytes.NewReader([]byte(`{`)),
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Preview(rec, httptest.NewRequest(http.MethodPost, "/export/preview", body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status %d, want 400", rec.Code)
			}
		})
	}
}

func TestRendererFillsClosedPath(t *testing.T) {
	rd := NewRenderer(20, 20, color.White, nil)
	rd.Draw([]engine.DrawCommand{{
		Op:        "path",
		Transform: []float64{1, 0, 0, 1, 5, 5},
		Path: []engine.PathCommand{
			{"M", 0.0, 0.0}, {"L", 10.0, 0.0}, {"L", 10.0, 10.0}, {"L", 0.0, 10.0}, {"Z"},
		},
		Fill:    "#f00",
		Opacity: 1,
	}})
	img := rd.Image()
	if got := img.RGBAAt(10, 10); got != (color.RGBA{0xff, 0, 0, 0xff}) {
		t.Errorf("inside = %v", got)
	}
	if got := img.RGBAAt(2, 2); got != (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("outside = %v", got)
	}
}

func TestRendererDrawsPageImage(t *testing.T) {
	page := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			page.SetRGBA(x, y, color.RGBA{0, 0, 0xff, 0xff})
		}
	}
	load := func(string) (image.Image, error) { return page, nil }

	rd := NewRenderer(40, 40, color.White, load)
	rd.Draw([]engine.DrawCommand{{
		Op:           "image",
		Transform:    []float64{1, 0, 0, 1, 0, 0},
		ImageAssetID: "asset_x",
		ImageWidth:   20,
		ImageHeight:  20,
	}})
	img := rd.Image()
	if got := img.RGBAAt(10, 10); got != (color.RGBA{0, 0, 0xff, 0xff}) {
		t.Errorf("inside page = %v", got)
	}
	if got := img.RGBAAt(30, 30); got != (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("outside page = %v", got)
	}
}

func TestPaint(t *testing.T) {
	tests := []struct {
		in      string
		opacity float64
		want    color.NRGBA
	}{
		{"#ff8000", 1, color.NRGBA{0xff, 0x80, 0x00, 0xff}},
		{"#0f0", 0, color.NRGBA{0x00, 0xff, 0x00, 0xff}},
		{"#000000", 0.5, color.NRGBA{0, 0, 0, 0x80}},
		{"red", 1, color.NRGBA{0, 0, 0, 0xff}},
	}
	for _, tc := range tests {
		if got := paint(tc.in, tc.opacity); got != tc.want {
			t.Errorf("paint(%q, %v) = %v, want %v", tc.in, tc.opacity, got, tc.want)
		}
	}
}

func TestFlatten(t *testing.T) {
	lines := flatten([]engine.PathCommand{
		{"M", 0.0, 0.0}, {"L", 1.0, 0.0},
		{"M", 5.0, 5.0}, {"Q", 6.0, 6.0, 7.0, 5.0}, {"Z"},
	})
	if len(lines) != 2 {
		t.Fatalf("got %d polylines, want 2", len(lines))
	}
	if len(lines[0]) != 2 {
		t.Errorf("first polyline has %d points", len(lines[0]))
	}
	second := lines[1]
	if len(second) != 2+curveSteps || second[len(second)-1] != (point{5, 5}) {
		t.Errorf("second polyline = %v", second)
	}
}
