package cull

import (
	"seehuhn.de/go/geom/rect"

	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/viewport"
)

// Count is the number of elements of one collection kept by a filter pass,
// out of Total.
type Count struct {
	Kept  int `json:"kept"`
	Total int `json:"total"`
}

// Stats reports a filter pass per collection.
type Stats struct {
	Lines        Count `json:"lines"`
	Arrows       Count `json:"arrows"`
	Arcs         Count `json:"arcs"`
	Curves       Count `json:"curves"`
	Symbols      Count `json:"symbols"`
	Texts        Count `json:"texts"`
	Marks        Count `json:"marks"`
	Dimensions   Count `json:"dimensions"`
	Legends      Count `json:"legends"`
	GeneralNotes Count `json:"generalNotes"`
}

// Kept returns the number of elements kept across all collections.
func (s Stats) Kept() int {
	return s.Lines.Kept + s.Arrows.Kept + s.Arcs.Kept + s.Curves.Kept +
		s.Symbols.Kept + s.Texts.Kept + s.Marks.Kept + s.Dimensions.Kept +
		s.Legends.Kept + s.GeneralNotes.Kept
}

// Total returns the number of elements examined across all collections.
func (s Stats) Total() int {
	return s.Lines.Total + s.Arrows.Total + s.Arcs.Total + s.Curves.Total +
		s.Symbols.Total + s.Texts.Total + s.Marks.Total + s.Dimensions.Total +
		s.Legends.Total + s.GeneralNotes.Total
}

// Filter returns a copy of doc whose element collections hold only the
// elements visible in vp. Relative order within each collection is
// preserved. Legends and general notes, project data, settings, pages and
// metadata are shared with doc rather than copied. doc is not modified.
func Filter(doc *document.Document, vp rect.Rect, annotationScale float64) *document.Document {
	out, _ := FilterStats(doc, vp, annotationScale)
	return out
}

// FilterStats is Filter that also reports how many elements were kept.
func FilterStats(doc *document.Document, vp rect.Rect, annotationScale float64) (*document.Document, Stats) {
	if doc == nil {
		return nil, Stats{}
	}
	checkRect(vp)
	checkScale(annotationScale)

	pad := PaddingFor(annotationScale)
	out := *doc
	var st Stats

	out.Lines = keep(doc.Lines, &st.Lines, func(l document.Line) bool {
		return RectsOverlap(LineBounds(l), vp)
	})
	out.Arrows = keep(doc.Arrows, &st.Arrows, func(a document.Arrow) bool {
		return RectsOverlap(ArrowBounds(a), vp)
	})
	out.Arcs = keep(doc.Arcs, &st.Arcs, func(a document.Arc) bool {
		return RectsOverlap(ArcBounds(a), vp)
	})
	out.Curves = keep(doc.Curves, &st.Curves, func(c document.Curve) bool {
		return RectsOverlap(CurveBounds(c), vp)
	})
	out.Dimensions = keep(doc.Dimensions, &st.Dimensions, func(d document.Dimension) bool {
		return RectsOverlap(DimensionBounds(d), vp)
	})
	out.Symbols = keep(doc.Symbols, &st.Symbols, func(s document.Symbol) bool {
		return PointInPaddedRect(s.Position.Vec(), vp, pad.Symbol)
	})
	out.Texts = keep(doc.Texts, &st.Texts, func(t document.Text) bool {
		return PointInPaddedRect(t.Position.Vec(), vp, pad.Text)
	})
	out.Marks = keep(doc.Marks, &st.Marks, func(m document.Mark) bool {
		return PointInPaddedRect(m.Position.Vec(), vp, pad.Mark)
	})

	st.Legends = Count{Kept: len(doc.Legends), Total: len(doc.Legends)}
	st.GeneralNotes = Count{Kept: len(doc.GeneralNotes), Total: len(doc.GeneralNotes)}

	return &out, st
}

// Cull computes the viewport of view on a screen of the given size and
// filters doc through it using the document's annotation scale.
func Cull(doc *document.Document, view viewport.ViewState, screenWidth, screenHeight, marginPx float64) (*document.Document, rect.Rect, Stats) {
	vp := view.DocRect(screenWidth, screenHeight, marginPx)
	if doc == nil {
		return nil, vp, Stats{}
	}
	out, st := FilterStats(doc, vp, doc.Settings.EffectiveAnnotationScale())
	return out, vp, st
}

// keep returns the elements of in for which visible holds, in order. The
// result never aliases the backing array of a non-empty in.
func keep[T any](in []T, c *Count, visible func(T) bool) []T {
	c.Total = len(in)
	if len(in) == 0 {
		return in
	}
	out := make([]T, 0, len(in))
	for _, e := range in {
		if visible(e) {
			out = append(out, e)
		}
	}
	c.Kept = len(out)
	return out
}

// LineBounds returns the bounding box of a line.
func LineBounds(l document.Line) rect.Rect {
	return SegmentBounds(l.Start.Vec(), l.End.Vec())
}

// ArrowBounds returns the bounding box of an arrow from tail to head.
func ArrowBounds(a document.Arrow) rect.Rect {
	return SegmentBounds(a.Tail.Vec(), a.Head.Vec())
}

// ArcBounds returns the control-point hull of an arc.
func ArcBounds(a document.Arc) rect.Rect {
	return ThreePointBounds(a.Start.Vec(), a.Through.Vec(), a.End.Vec())
}

// CurveBounds returns the control-point hull of a curve.
func CurveBounds(c document.Curve) rect.Rect {
	return ThreePointBounds(c.Start.Vec(), c.Through.Vec(), c.End.Vec())
}

// DimensionBounds covers both measured endpoints and the label anchor.
func DimensionBounds(d document.Dimension) rect.Rect {
	return ThreePointBounds(d.Start.Vec(), d.End.Vec(), d.Position.Vec())
}
