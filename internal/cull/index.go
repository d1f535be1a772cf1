package cull

import (
	"math"
	"slices"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/inamate/schematic/internal/document"
)

// DefaultCellSize is the grid cell edge length in document units.
const DefaultCellSize = 512

// Elements whose bounds span more cells than this are kept in an overflow
// list that every query scans.
const maxCellsPerElement = 64

// Index is a coarse uniform grid over one document. Index.Filter returns
// exactly what Filter returns for the same document, viewport and scale; the
// grid only limits which elements get tested.
//
// An Index is immutable once built and safe for concurrent queries. It must
// be rebuilt when the document changes.
type Index struct {
	doc      *document.Document
	cellSize float64

	lines, arrows, arcs, curves, dimensions grid
	symbols, texts, marks                   grid
}

type cellKey struct{ x, y int }

type grid struct {
	cells    map[cellKey][]int
	overflow []int
}

// NewIndex buckets the elements of doc into cells of the given size. A
// non-positive cellSize selects DefaultCellSize.
func NewIndex(doc *document.Document, cellSize float64) *Index {
	if !(cellSize > 0) {
		cellSize = DefaultCellSize
	}
	ix := &Index{doc: doc, cellSize: cellSize}
	if doc == nil {
		return ix
	}

	for i, l := range doc.Lines {
		ix.lines.insert(i, LineBounds(l), cellSize)
	}
	for i, a := range doc.Arrows {
		ix.arrows.insert(i, ArrowBounds(a), cellSize)
	}
	for i, a := range doc.Arcs {
		ix.arcs.insert(i, ArcBounds(a), cellSize)
	}
	for i, c := range doc.Curves {
		ix.curves.insert(i, CurveBounds(c), cellSize)
	}
	for i, d := range doc.Dimensions {
		ix.dimensions.insert(i, DimensionBounds(d), cellSize)
	}
	for i, s := range doc.Symbols {
		ix.symbols.insertPoint(i, s.Position.Vec(), cellSize)
	}
	for i, t := range doc.Texts {
		ix.texts.insertPoint(i, t.Position.Vec(), cellSize)
	}
	for i, m := range doc.Marks {
		ix.marks.insertPoint(i, m.Position.Vec(), cellSize)
	}
	return ix
}

// Document returns the document the index was built from.
func (ix *Index) Document() *document.Document {
	return ix.doc
}

// Filter is the indexed equivalent of Filter(ix.Document(), vp, annotationScale).
func (ix *Index) Filter(vp rect.Rect, annotationScale float64) *document.Document {
	out, _ := ix.FilterStats(vp, annotationScale)
	return out
}

// FilterStats is the indexed equivalent of FilterStats.
func (ix *Index) FilterStats(vp rect.Rect, annotationScale float64) (*document.Document, Stats) {
	doc := ix.doc
	if doc == nil {
		return nil, Stats{}
	}
	checkRect(vp)
	checkScale(annotationScale)

	pad := PaddingFor(annotationScale)
	cs := ix.cellSize
	out := *doc
	var st Stats

	out.Lines = pick(doc.Lines, ix.lines.query(vp, cs), &st.Lines, func(l document.Line) bool {
		return RectsOverlap(LineBounds(l), vp)
	})
	out.Arrows = pick(doc.Arrows, ix.arrows.query(vp, cs), &st.Arrows, func(a document.Arrow) bool {
		return RectsOverlap(ArrowBounds(a), vp)
	})
	out.Arcs = pick(doc.Arcs, ix.arcs.query(vp, cs), &st.Arcs, func(a document.Arc) bool {
		return RectsOverlap(ArcBounds(a), vp)
	})
	out.Curves = pick(doc.Curves, ix.curves.query(vp, cs), &st.Curves, func(c document.Curve) bool {
		return RectsOverlap(CurveBounds(c), vp)
	})
	out.Dimensions = pick(doc.Dimensions, ix.dimensions.query(vp, cs), &st.Dimensions, func(d document.Dimension) bool {
		return RectsOverlap(DimensionBounds(d), vp)
	})

	// An anchor is visible iff it lies in the viewport grown by the padding.
	// p+pad >= LLx and p >= LLx-pad round differently, so the candidate
	// search is one cell wider and PointInPaddedRect decides.
	out.Symbols = pick(doc.Symbols, ix.symbols.query(Expand(vp, pad.Symbol+cs), cs), &st.Symbols, func(s document.Symbol) bool {
		return PointInPaddedRect(s.Position.Vec(), vp, pad.Symbol)
	})
	out.Texts = pick(doc.Texts, ix.texts.query(Expand(vp, pad.Text+cs), cs), &st.Texts, func(t document.Text) bool {
		return PointInPaddedRect(t.Position.Vec(), vp, pad.Text)
	})
	out.Marks = pick(doc.Marks, ix.marks.query(Expand(vp, pad.Mark+cs), cs), &st.Marks, func(m document.Mark) bool {
		return PointInPaddedRect(m.Position.Vec(), vp, pad.Mark)
	})

	st.Legends = Count{Kept: len(doc.Legends), Total: len(doc.Legends)}
	st.GeneralNotes = Count{Kept: len(doc.GeneralNotes), Total: len(doc.GeneralNotes)}

	return &out, st
}

// pick applies visible to the candidate positions of in, which must be sorted.
func pick[T any](in []T, candidates []int, c *Count, visible func(T) bool) []T {
	c.Total = len(in)
	if len(in) == 0 {
		return in
	}
	out := make([]T, 0, len(candidates))
	for _, i := range candidates {
		if visible(in[i]) {
			out = append(out, in[i])
		}
	}
	c.Kept = len(out)
	return out
}

func (g *grid) insert(i int, r rect.Rect, cs float64) {
	x0, x1 := math.Floor(r.LLx/cs), math.Floor(r.URx/cs)
	y0, y1 := math.Floor(r.LLy/cs), math.Floor(r.URy/cs)
	n := (x1 - x0 + 1) * (y1 - y0 + 1)
	if !(n >= 1 && n <= maxCellsPerElement) || !inIntRange(x0, x1, y0, y1) {
		g.overflow = append(g.overflow, i)
		return
	}
	if g.cells == nil {
		g.cells = make(map[cellKey][]int)
	}
	for x := int(x0); x <= int(x1); x++ {
		for y := int(y0); y <= int(y1); y++ {
			k := cellKey{x, y}
			g.cells[k] = append(g.cells[k], i)
		}
	}
}

func (g *grid) insertPoint(i int, p vec.Vec2, cs float64) {
	g.insert(i, rect.Rect{LLx: p.X, LLy: p.Y, URx: p.X, URy: p.Y}, cs)
}

// query returns the sorted, de-duplicated positions of all elements stored
// in cells touching q, plus the overflow list.
func (g *grid) query(q rect.Rect, cs float64) []int {
	out := slices.Clone(g.overflow)

	x0, x1 := math.Floor(q.LLx/cs), math.Floor(q.URx/cs)
	y0, y1 := math.Floor(q.LLy/cs), math.Floor(q.URy/cs)
	span := (x1 - x0 + 1) * (y1 - y0 + 1)

	if span > float64(len(g.cells)) || !inIntRange(x0, x1, y0, y1) {
		// Far zoomed out: walking the occupied cells is cheaper.
		for k, ids := range g.cells {
			fx, fy := float64(k.x), float64(k.y)
			if fx >= x0 && fx <= x1 && fy >= y0 && fy <= y1 {
				out = append(out, ids...)
			}
		}
	} else {
		for x := int(x0); x <= int(x1); x++ {
			for y := int(y0); y <= int(y1); y++ {
				out = append(out, g.cells[cellKey{x, y}]...)
			}
		}
	}

	slices.Sort(out)
	return slices.Compact(out)
}

// inIntRange reports whether all cell coordinates fit comfortably in an int.
func inIntRange(vals ...float64) bool {
	const limit = 1 << 30
	for _, v := range vals {
		if !(v > -limit && v < limit) {
			return false
		}
	}
	return true
}
