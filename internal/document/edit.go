package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Element kinds, one per collection.
const (
	KindLine      = "line"
	KindArrow     = "arrow"
	KindArc       = "arc"
	KindCurve     = "curve"
	KindSymbol    = "symbol"
	KindText      = "text"
	KindMark      = "mark"
	KindDimension = "dimension"
	KindLegend    = "legend"
	KindNote      = "note"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrDuplicateID     = errors.New("element id already in use")
	ErrMissingID       = errors.New("element id is required")
	ErrUnknownKind     = errors.New("unknown element kind")
	ErrPageNotFound    = errors.New("page not found")
	ErrInvalidSettings = errors.New("invalid settings")
)

// The edit methods below never modify d. They return a shallow copy in which
// only the affected collection is replaced by a fresh slice, so documents
// handed out earlier stay valid.

// Locate returns the kind and collection index of the element with the
// given id.
func (d *Document) Locate(id string) (kind string, index int, ok bool) {
	if i := indexOf(d.Lines, id); i >= 0 {
		return KindLine, i, true
	}
	if i := indexOf(d.Arrows, id); i >= 0 {
		return KindArrow, i, true
	}
	if i := indexOf(d.Arcs, id); i >= 0 {
		return KindArc, i, true
	}
	if i := indexOf(d.Curves, id); i >= 0 {
		return KindCurve, i, true
	}
	if i := indexOf(d.Symbols, id); i >= 0 {
		return KindSymbol, i, true
	}
	if i := indexOf(d.Texts, id); i >= 0 {
		return KindText, i, true
	}
	if i := indexOf(d.Marks, id); i >= 0 {
		return KindMark, i, true
	}
	if i := indexOf(d.Dimensions, id); i >= 0 {
		return KindDimension, i, true
	}
	if i := indexOf(d.Legends, id); i >= 0 {
		return KindLegend, i, true
	}
	if i := indexOf(d.GeneralNotes, id); i >= 0 {
		return KindNote, i, true
	}
	return "", -1, false
}

// AddElement decodes raw as an element of the given kind and inserts it at
// index in its collection, or appends it when index is nil or out of range.
// It returns the new document and the element id.
func (d *Document) AddElement(kind string, raw json.RawMessage, index *int) (*Document, string, error) {
	out := *d
	var id string
	var err error
	switch kind {
	case KindLine:
		out.Lines, id, err = insertDecoded(d, d.Lines, raw, index)
	case KindArrow:
		out.Arrows, id, err = insertDecoded(d, d.Arrows, raw, index)
	case KindArc:
		out.Arcs, id, err = insertDecoded(d, d.Arcs, raw, index)
	case KindCurve:
		out.Curves, id, err = insertDecoded(d, d.Curves, raw, index)
	case KindSymbol:
		out.Symbols, id, err = insertDecoded(d, d.Symbols, raw, index)
	case KindText:
		out.Texts, id, err = insertDecoded(d, d.Texts, raw, index)
	case KindMark:
		out.Marks, id, err = insertDecoded(d, d.Marks, raw, index)
	case KindDimension:
		out.Dimensions, id, err = insertDecoded(d, d.Dimensions, raw, index)
	case KindLegend:
		out.Legends, id, err = insertDecoded(d, d.Legends, raw, index)
	case KindNote:
		out.GeneralNotes, id, err = insertDecoded(d, d.GeneralNotes, raw, index)
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, "", err
	}
	return &out, id, nil
}

// UpdateElement replaces the element of the given kind whose id matches the
// one decoded from raw. Its position in the collection is kept.
func (d *Document) UpdateElement(kind string, raw json.RawMessage) (*Document, error) {
	out := *d
	var err error
	switch kind {
	case KindLine:
		out.Lines, err = replaceDecoded(d.Lines, raw)
	case KindArrow:
		out.Arrows, err = replaceDecoded(d.Arrows, raw)
	case KindArc:
		out.Arcs, err = replaceDecoded(d.Arcs, raw)
	case KindCurve:
		out.Curves, err = replaceDecoded(d.Curves, raw)
	case KindSymbol:
		out.Symbols, err = replaceDecoded(d.Symbols, raw)
	case KindText:
		out.Texts, err = replaceDecoded(d.Texts, raw)
	case KindMark:
		out.Marks, err = replaceDecoded(d.Marks, raw)
	case KindDimension:
		out.Dimensions, err = replaceDecoded(d.Dimensions, raw)
	case KindLegend:
		out.Legends, err = replaceDecoded(d.Legends, raw)
	case KindNote:
		out.GeneralNotes, err = replaceDecoded(d.GeneralNotes, raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteElement removes the element with the given id.
func (d *Document) DeleteElement(id string) (*Document, error) {
	kind, i, ok := d.Locate(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	out := *d
	switch kind {
	case KindLine:
		out.Lines = removeAt(d.Lines, i)
	case KindArrow:
		out.Arrows = removeAt(d.Arrows, i)
	case KindArc:
		out.Arcs = removeAt(d.Arcs, i)
	case KindCurve:
		out.Curves = removeAt(d.Curves, i)
	case KindSymbol:
		out.Symbols = removeAt(d.Symbols, i)
	case KindText:
		out.Texts = removeAt(d.Texts, i)
	case KindMark:
		out.Marks = removeAt(d.Marks, i)
	case KindDimension:
		out.Dimensions = removeAt(d.Dimensions, i)
	case KindLegend:
		out.Legends = removeAt(d.Legends, i)
	case KindNote:
		out.GeneralNotes = removeAt(d.GeneralNotes, i)
	}
	return &out, nil
}

// MoveElement translates every point of the element with the given id by
// (dx, dy) document units.
func (d *Document) MoveElement(id string, dx, dy float64) (*Document, error) {
	kind, i, ok := d.Locate(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	out := *d
	switch kind {
	case KindLine:
		out.Lines = movedAt(d.Lines, i, dx, dy)
	case KindArrow:
		out.Arrows = movedAt(d.Arrows, i, dx, dy)
	case KindArc:
		out.Arcs = movedAt(d.Arcs, i, dx, dy)
	case KindCurve:
		out.Curves = movedAt(d.Curves, i, dx, dy)
	case KindSymbol:
		out.Symbols = movedAt(d.Symbols, i, dx, dy)
	case KindText:
		out.Texts = movedAt(d.Texts, i, dx, dy)
	case KindMark:
		out.Marks = movedAt(d.Marks, i, dx, dy)
	case KindDimension:
		out.Dimensions = movedAt(d.Dimensions, i, dx, dy)
	case KindLegend:
		out.Legends = movedAt(d.Legends, i, dx, dy)
	case KindNote:
		out.GeneralNotes = movedAt(d.GeneralNotes, i, dx, dy)
	}
	return &out, nil
}

// WithSettings returns d with its settings replaced. The annotation scale
// must be positive.
func (d *Document) WithSettings(s Settings) (*Document, error) {
	if !(s.AnnotationScale > 0) {
		return nil, fmt.Errorf("%w: annotation scale must be positive", ErrInvalidSettings)
	}
	out := *d
	out.Settings = s
	return &out, nil
}

// WithName returns d with the project renamed.
func (d *Document) WithName(name string) *Document {
	out := *d
	out.Project.Name = name
	return &out
}

// WithPage returns d with the page of the same id replaced by p.
func (d *Document) WithPage(p Page) (*Document, error) {
	i := slices.IndexFunc(d.Pages, func(q Page) bool { return q.ID == p.ID })
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, p.ID)
	}
	out := *d
	out.Pages = slices.Clone(d.Pages)
	out.Pages[i] = p
	return &out, nil
}

type element[T any] interface {
	elementID() string
	moved(dx, dy float64) T
}

func indexOf[T element[T]](s []T, id string) int {
	return slices.IndexFunc(s, func(e T) bool { return e.elementID() == id })
}

func insertDecoded[T element[T]](d *Document, s []T, raw json.RawMessage, index *int) ([]T, string, error) {
	var e T
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, "", fmt.Errorf("decode element: %w", err)
	}
	id := e.elementID()
	if id == "" {
		return nil, "", ErrMissingID
	}
	if _, _, taken := d.Locate(id); taken {
		return nil, "", fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	at := len(s)
	if index != nil && *index >= 0 && *index <= len(s) {
		at = *index
	}
	return slices.Insert(slices.Clone(s), at, e), id, nil
}

func replaceDecoded[T element[T]](s []T, raw json.RawMessage) ([]T, error) {
	var e T
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode element: %w", err)
	}
	i := indexOf(s, e.elementID())
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, e.elementID())
	}
	out := slices.Clone(s)
	out[i] = e
	return out, nil
}

func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

func movedAt[T element[T]](s []T, i int, dx, dy float64) []T {
	out := slices.Clone(s)
	out[i] = out[i].moved(dx, dy)
	return out
}

func (l Line) elementID() string { return l.ID }
func (l Line) moved(dx, dy float64) Line {
	l.Start, l.End = l.Start.Add(dx, dy), l.End.Add(dx, dy)
	return l
}

func (a Arrow) elementID() string { return a.ID }
func (a Arrow) moved(dx, dy float64) Arrow {
	a.Tail, a.Head = a.Tail.Add(dx, dy), a.Head.Add(dx, dy)
	return a
}

func (a Arc) elementID() string { return a.ID }
func (a Arc) moved(dx, dy float64) Arc {
	a.Start, a.Through, a.End = a.Start.Add(dx, dy), a.Through.Add(dx, dy), a.End.Add(dx, dy)
	return a
}

func (c Curve) elementID() string { return c.ID }
func (c Curve) moved(dx, dy float64) Curve {
	c.Start, c.Through, c.End = c.Start.Add(dx, dy), c.Through.Add(dx, dy), c.End.Add(dx, dy)
	return c
}

func (s Symbol) elementID() string { return s.ID }
func (s Symbol) moved(dx, dy float64) Symbol {
	s.Position = s.Position.Add(dx, dy)
	return s
}

func (t Text) elementID() string { return t.ID }
func (t Text) moved(dx, dy float64) Text {
	t.Position = t.Position.Add(dx, dy)
	return t
}

func (m Mark) elementID() string { return m.ID }
func (m Mark) moved(dx, dy float64) Mark {
	m.Position = m.Position.Add(dx, dy)
	return m
}

func (dm Dimension) elementID() string { return dm.ID }
func (dm Dimension) moved(dx, dy float64) Dimension {
	dm.Start, dm.End, dm.Position = dm.Start.Add(dx, dy), dm.End.Add(dx, dy), dm.Position.Add(dx, dy)
	return dm
}

func (l LegendPlacement) elementID() string { return l.ID }
func (l LegendPlacement) moved(dx, dy float64) LegendPlacement {
	l.Position = l.Position.Add(dx, dy)
	return l
}

func (n NotePlacement) elementID() string { return n.ID }
func (n NotePlacement) moved(dx, dy float64) NotePlacement {
	n.Position = n.Position.Add(dx, dy)
	return n
}
