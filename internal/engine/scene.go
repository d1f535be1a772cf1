package engine

import (
	"math"
	"unicode/utf8"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/inamate/schematic/internal/cull"
	"github.com/inamate/schematic/internal/document"
)

// Glyph sizes in document units at annotation scale 1.
const (
	symbolRadius    = 10
	markRadius      = 4
	defaultTextSize = 12
	glyphAdvance    = 0.6 // average advance per rune, relative to text size
	legendWidth     = 160
	legendRowHeight = 14
)

// sceneItem is one drawable element flattened out of a document.
type sceneItem struct {
	ID     string
	Kind   string
	Bounds rect.Rect

	// Straight strokes are hit tested by distance rather than by bounds.
	segment  bool
	a, b     vec.Vec2
	halfWide float64
}

// scene is a document flattened in paint order, back to front.
type scene struct {
	items []sceneItem
	byID  map[string]int
}

// buildScene flattens doc in the order the renderer paints it: strokes
// first, then point annotations, then legends and notes on top.
func buildScene(doc *document.Document, scale float64) *scene {
	s := &scene{byID: make(map[string]int)}
	if doc == nil {
		return s
	}
	add := func(it sceneItem) {
		s.byID[it.ID] = len(s.items)
		s.items = append(s.items, it)
	}

	for _, l := range doc.Lines {
		add(sceneItem{ID: l.ID, Kind: "line", Bounds: cull.LineBounds(l),
			segment: true, a: l.Start.Vec(), b: l.End.Vec(), halfWide: strokeWidth(l.Weight) / 2})
	}
	for _, a := range doc.Arcs {
		add(sceneItem{ID: a.ID, Kind: "arc", Bounds: cull.ArcBounds(a)})
	}
	for _, c := range doc.Curves {
		add(sceneItem{ID: c.ID, Kind: "curve", Bounds: cull.CurveBounds(c)})
	}
	for _, d := range doc.Dimensions {
		add(sceneItem{ID: d.ID, Kind: "dimension", Bounds: cull.DimensionBounds(d)})
	}
	for _, a := range doc.Arrows {
		add(sceneItem{ID: a.ID, Kind: "arrow", Bounds: cull.ArrowBounds(a),
			segment: true, a: a.Tail.Vec(), b: a.Head.Vec(), halfWide: 0.5})
	}
	for _, m := range doc.Marks {
		add(sceneItem{ID: m.ID, Kind: "mark", Bounds: cull.PaddedPointBounds(m.Position.Vec(), markRadius*scale)})
	}
	for _, sym := range doc.Symbols {
		add(sceneItem{ID: sym.ID, Kind: "symbol", Bounds: cull.PaddedPointBounds(sym.Position.Vec(), symbolRadius*scale)})
	}
	for _, t := range doc.Texts {
		add(sceneItem{ID: t.ID, Kind: "text", Bounds: textBounds(t.Position, t.Content, textSize(t.Size, scale))})
	}
	for _, l := range doc.Legends {
		add(sceneItem{ID: l.ID, Kind: "legend", Bounds: blockBounds(l.Position, len(l.Entries), scale)})
	}
	for _, n := range doc.GeneralNotes {
		add(sceneItem{ID: n.ID, Kind: "note", Bounds: blockBounds(n.Position, len(n.Notes), scale)})
	}
	return s
}

// hitTest returns the id of the topmost item within tol document units of p.
func (s *scene) hitTest(p vec.Vec2, tol float64) string {
	for i := len(s.items) - 1; i >= 0; i-- {
		it := &s.items[i]
		if it.segment {
			if segmentDistance(p, it.a, it.b) <= tol+it.halfWide {
				return it.ID
			}
			continue
		}
		if cull.PointInPaddedRect(p, it.Bounds, tol) {
			return it.ID
		}
	}
	return ""
}

// bounds returns the union of the bounds of the listed items. Unknown ids
// are skipped; ok is false when none is found.
func (s *scene) bounds(ids []string) (r rect.Rect, ok bool) {
	for _, id := range ids {
		i, found := s.byID[id]
		if !found {
			continue
		}
		if !ok {
			r, ok = s.items[i].Bounds, true
			continue
		}
		r = cull.Union(r, s.items[i].Bounds)
	}
	return r, ok
}

// extent returns the union of all item bounds.
func (s *scene) extent() (r rect.Rect, ok bool) {
	for i, it := range s.items {
		if i == 0 {
			r = it.Bounds
		} else {
			r = cull.Union(r, it.Bounds)
		}
	}
	return r, len(s.items) > 0
}

func strokeWidth(weight float64) float64 {
	if weight > 0 {
		return weight
	}
	return 1
}

func textSize(size, scale float64) float64 {
	if size > 0 {
		return size * scale
	}
	return defaultTextSize * scale
}

// textBounds treats pos as the left end of the baseline.
func textBounds(pos document.Point, content string, size float64) rect.Rect {
	w := float64(utf8.RuneCountInString(content)) * glyphAdvance * size
	return rect.Rect{LLx: pos.X, LLy: pos.Y - size, URx: pos.X + w, URy: pos.Y}
}

// blockBounds is the box of a legend or note block with rows lines,
// hanging down from its top-left corner pos.
func blockBounds(pos document.Point, rows int, scale float64) rect.Rect {
	rows = max(rows, 1)
	return rect.Rect{
		LLx: pos.X,
		LLy: pos.Y,
		URx: pos.X + legendWidth*scale,
		URy: pos.Y + float64(rows)*legendRowHeight*scale,
	}
}

func segmentDistance(p, a, b vec.Vec2) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	t := 0.0
	if l2 > 0 {
		t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
		t = math.Max(0, math.Min(1, t))
	}
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

func vecOf(x, y float64) vec.Vec2 {
	return vec.Vec2{X: x, Y: y}
}
