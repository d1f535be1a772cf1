package cull

import (
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"seehuhn.de/go/geom/rect"

	"github.com/inamate/schematic/internal/document"
)

func randomPoint(rng *rand.Rand, span float64) document.Point {
	return pt(rng.Float64()*2*span-span, rng.Float64()*2*span-span)
}

// randomDocument scatters n elements of every kind over [-span, span]². A few
// elements are very long or very far away so they land in the overflow list.
func randomDocument(rng *rand.Rand, n int, span float64) *document.Document {
	doc := &document.Document{Settings: document.Settings{AnnotationScale: 1}}
	near := func(p document.Point, d float64) document.Point {
		return p.Add(rng.Float64()*2*d-d, rng.Float64()*2*d-d)
	}
	for i := range n {
		p := randomPoint(rng, span)
		reach := 300.0
		if i%17 == 0 {
			reach = 4 * span
		}
		doc.Lines = append(doc.Lines, document.Line{ID: "l", Start: p, End: near(p, reach), Weight: float64(i)})
		doc.Arrows = append(doc.Arrows, document.Arrow{ID: "a", Tail: p, Head: near(p, reach), Color: "red"})
		doc.Arcs = append(doc.Arcs, document.Arc{ID: "arc", Start: p, Through: near(p, reach), End: near(p, reach)})
		doc.Curves = append(doc.Curves, document.Curve{ID: "c", Start: p, Through: near(p, reach), End: near(p, reach)})
		doc.Dimensions = append(doc.Dimensions, document.Dimension{ID: "d", Start: p, End: near(p, reach), Position: near(p, 50)})
		doc.Symbols = append(doc.Symbols, document.Symbol{ID: "s", Position: randomPoint(rng, span), Rotation: float64(i)})
		doc.Texts = append(doc.Texts, document.Text{ID: "t", Position: randomPoint(rng, span), Content: "x"})
		doc.Marks = append(doc.Marks, document.Mark{ID: "m", Position: randomPoint(rng, span)})
	}
	doc.Lines = append(doc.Lines, document.Line{ID: "far", Start: pt(-1e12, 0), End: pt(1e12, 10)})
	doc.Symbols = append(doc.Symbols, document.Symbol{ID: "far", Position: pt(1e15, 1e15)})
	doc.Legends = []document.LegendPlacement{{ID: "legend", Position: pt(1e9, 0)}}
	return doc
}

func randomViewport(rng *rand.Rand, span float64) rect.Rect {
	size := rng.Float64() * span
	if rng.IntN(5) == 0 {
		size *= 20 // zoomed far out
	}
	x := rng.Float64()*2*span - span
	y := rng.Float64()*2*span - span
	return r(x, y, x+size, y+size*0.6)
}

func TestIndexMatchesFilter(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	doc := randomDocument(rng, 400, 10000)

	for _, cellSize := range []float64{0, 64, 512, 5000} {
		ix := NewIndex(doc, cellSize)
		if ix.Document() != doc {
			t.Fatal("index lost its document")
		}
		for i := range 200 {
			vp := randomViewport(rng, 10000)
			scale := []float64{0.25, 1, 3}[i%3]

			want, wantStats := FilterStats(doc, vp, scale)
			got, gotStats := ix.FilterStats(vp, scale)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("cell %v, viewport %v, scale %v: index result differs from Filter", cellSize, vp, scale)
			}
			if gotStats != wantStats {
				t.Fatalf("cell %v, viewport %v: stats %+v, want %+v", cellSize, vp, gotStats, wantStats)
			}
		}
	}
}

func TestIndexEdgeCases(t *testing.T) {
	doc := &document.Document{
		Lines: []document.Line{
			{ID: "on-cell-border", Start: pt(512, 0), End: pt(512, 10)},
			{ID: "negative", Start: pt(-700, -700), End: pt(-600, -600)},
		},
		Marks: []document.Mark{
			{ID: "padded-in", Position: pt(-519, 5)},
		},
	}
	ix := NewIndex(doc, 512)

	tests := []struct {
		name  string
		vp    rect.Rect
		lines int
		marks int
	}{
		{"touching border", r(400, 0, 512, 10), 1, 0},
		{"negative cells", r(-650, -650, -640, -640), 1, 0},
		{"mark via padding", r(-499, 0, 0, 10), 0, 1},
		{"degenerate viewport", r(512, 5, 512, 5), 1, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ix.Filter(tc.vp, 1)
			if len(got.Lines) != tc.lines || len(got.Marks) != tc.marks {
				t.Errorf("got %d lines, %d marks; want %d, %d", len(got.Lines), len(got.Marks), tc.lines, tc.marks)
			}
			if !reflect.DeepEqual(got, Filter(doc, tc.vp, 1)) {
				t.Error("index result differs from Filter")
			}
		})
	}
}

// TestIndexBoundaryTies places anchors on cell borders and on the padded
// viewport edge, where rounding decides membership.
func TestIndexBoundaryTies(t *testing.T) {
	const cs = 512
	pads := PaddingFor(1)
	kinds := []struct {
		name string
		pad  float64
		doc  func(x float64) *document.Document
		kept func(d *document.Document) int
	}{
		{"symbol", pads.Symbol,
			func(x float64) *document.Document {
				return &document.Document{Symbols: []document.Symbol{{ID: "s", Position: pt(x, 5)}}}
			},
			func(d *document.Document) int { return len(d.Symbols) }},
		{"text", pads.Text,
			func(x float64) *document.Document {
				return &document.Document{Texts: []document.Text{{ID: "t", Position: pt(x, 5)}}}
			},
			func(d *document.Document) int { return len(d.Texts) }},
		{"mark", pads.Mark,
			func(x float64) *document.Document {
				return &document.Document{Marks: []document.Mark{{ID: "m", Position: pt(x, 5)}}}
			},
			func(d *document.Document) int { return len(d.Marks) }},
	}

	for _, k := range kinds {
		below := math.Nextafter(cs, 0)
		above := math.Nextafter(2*cs, math.Inf(1))
		tests := []struct {
			name string
			x    float64
			vp   rect.Rect
			want int
		}{
			{"left edge, anchor just below border", below, r(below+k.pad, 0, below+k.pad+100, 10), 1},
			{"left edge, anchor on border", cs, r(cs+k.pad, 0, cs+k.pad+100, 10), 1},
			{"left edge, one ulp out", cs, r(math.Nextafter(cs+k.pad, math.Inf(1)), 0, cs+k.pad+100, 10), 0},
			{"right edge, anchor just above border", above, r(above-k.pad-100, 0, above-k.pad, 10), 1},
			{"right edge, anchor on border", 2 * cs, r(2*cs-k.pad-100, 0, 2*cs-k.pad, 10), 1},
			{"right edge, one ulp out", 2 * cs, r(2*cs-k.pad-100, 0, math.Nextafter(2*cs-k.pad, 0), 10), 0},
		}
		for _, tc := range tests {
			t.Run(k.name+"/"+tc.name, func(t *testing.T) {
				doc := k.doc(tc.x)
				want := Filter(doc, tc.vp, 1)
				got := NewIndex(doc, cs).Filter(tc.vp, 1)
				if n := k.kept(want); n != tc.want {
					t.Fatalf("Filter kept %d, want %d", n, tc.want)
				}
				if !reflect.DeepEqual(got, want) {
					t.Errorf("index kept %d, Filter kept %d", k.kept(got), k.kept(want))
				}
			})
		}
	}

	lines := &document.Document{Lines: []document.Line{{ID: "l", Start: pt(2*cs, 0), End: pt(2*cs, 10)}}}
	ix := NewIndex(lines, cs)
	for _, tc := range []struct {
		name string
		vp   rect.Rect
		want int
	}{
		{"bounds on border", r(2*cs, 0, 3*cs, 10), 1},
		{"bounds one ulp left of viewport", r(math.Nextafter(2*cs, math.Inf(1)), 0, 3*cs, 10), 0},
		{"viewport ends on border", r(cs, 0, 2*cs, 10), 1},
	} {
		t.Run("line/"+tc.name, func(t *testing.T) {
			got := ix.Filter(tc.vp, 1)
			if len(got.Lines) != tc.want || !reflect.DeepEqual(got, Filter(lines, tc.vp, 1)) {
				t.Errorf("index kept %d lines, want %d", len(got.Lines), tc.want)
			}
		})
	}
}

func TestIndexNilDocument(t *testing.T) {
	ix := NewIndex(nil, 0)
	if got := ix.Filter(r(0, 0, 1, 1), 1); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func BenchmarkFilter(b *testing.B) {
	rng := rand.New(rand.NewPCG(3, 4))
	doc := randomDocument(rng, 5000, 50000)
	vp := r(0, 0, 2000, 1200)
	b.ReportAllocs()
	for b.Loop() {
		Filter(doc, vp, 1)
	}
}

func BenchmarkIndexFilter(b *testing.B) {
	rng := rand.New(rand.NewPCG(3, 4))
	doc := randomDocument(rng, 5000, 50000)
	ix := NewIndex(doc, DefaultCellSize)
	vp := r(0, 0, 2000, 1200)
	b.ReportAllocs()
	for b.Loop() {
		ix.Filter(vp, 1)
	}
}
