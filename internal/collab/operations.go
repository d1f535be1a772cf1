package collab

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"seehuhn.de/go/geom/rect"

	"github.com/inamate/schematic/internal/cull"
	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/viewport"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidOperation = errors.New("invalid operation")
)

// IndexOptions controls when a room culls through a grid index.
type IndexOptions struct {
	Threshold int // element count above which an index is built; < 0 disables
	CellSize  float64
}

// DocumentState holds the authoritative document state for a room.
//
// Published documents are never modified: every operation produces a new
// document value that shares unchanged collections with the previous one,
// so a document returned by Document may be read without holding any lock.
type DocumentState struct {
	mu        sync.RWMutex
	doc       *document.Document
	serverSeq int64
	savedSeq  int64
	opLog     []Operation // Operation history since the last save

	indexOpts IndexOptions
	index     *cull.Index // built lazily for the current doc
}

// NewDocumentState creates a new document state from an initial document.
func NewDocumentState(doc *document.Document, opts IndexOptions) *DocumentState {
	return &DocumentState{
		doc:       doc,
		opLog:     make([]Operation, 0),
		indexOpts: opts,
	}
}

// Document returns the current document and its server sequence number.
// The caller must not modify it.
func (ds *DocumentState) Document() (*document.Document, int64) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.doc, ds.serverSeq
}

// ApplyOperation applies an operation to the document and returns the
// server sequence. op may be completed with data the server fills in, such
// as the element a delete removed.
func (ds *DocumentState) ApplyOperation(op *Operation) (int64, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	next, err := applyOperation(ds.doc, op)
	if err != nil {
		return 0, err
	}

	ds.doc = next
	ds.index = nil
	ds.serverSeq++
	ds.opLog = append(ds.opLog, *op)

	return ds.serverSeq, nil
}

// Cull returns the part of the current document visible in view on a
// screen of the given size.
func (ds *DocumentState) Cull(view viewport.ViewState, screenW, screenH, marginPx float64) (*document.Document, rect.Rect, cull.Stats, int64) {
	doc, ix, seq := ds.indexed()
	vp := view.DocRect(screenW, screenH, marginPx)
	if doc == nil {
		return nil, vp, cull.Stats{}, seq
	}
	scale := doc.Settings.EffectiveAnnotationScale()
	if ix != nil {
		out, st := ix.FilterStats(vp, scale)
		return out, vp, st, seq
	}
	out, st := cull.FilterStats(doc, vp, scale)
	return out, vp, st, seq
}

// indexed returns the current document with its grid index, building the
// index first if the document is large enough to need one.
func (ds *DocumentState) indexed() (*document.Document, *cull.Index, int64) {
	ds.mu.RLock()
	doc, ix, seq := ds.doc, ds.index, ds.serverSeq
	ds.mu.RUnlock()

	if ix != nil || doc == nil || ds.indexOpts.Threshold < 0 || doc.ElementCount() <= ds.indexOpts.Threshold {
		return doc, ix, seq
	}

	ix = cull.NewIndex(doc, ds.indexOpts.CellSize)
	ds.mu.Lock()
	if ds.doc == doc {
		ds.index = ix
	}
	ds.mu.Unlock()
	return doc, ix, seq
}

// Dirty returns the current document if it changed since the last save.
func (ds *DocumentState) Dirty() (*document.Document, int64, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.doc, ds.serverSeq, ds.serverSeq > ds.savedSeq
}

// MarkSaved records that the document at seq was persisted.
func (ds *DocumentState) MarkSaved(seq int64) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if seq > ds.savedSeq {
		ds.savedSeq = seq
		ds.opLog = ds.opLog[:0]
	}
}

func applyOperation(doc *document.Document, op *Operation) (*document.Document, error) {
	switch op.Type {
	case OpElementAdd:
		next, id, err := doc.AddElement(op.Kind, op.Element, op.Index)
		if err != nil {
			return nil, err
		}
		op.ObjectID = id
		return next, nil

	case OpElementUpdate:
		return doc.UpdateElement(op.Kind, op.Element)

	case OpElementDelete:
		prev, err := elementJSON(doc, op.ObjectID)
		if err != nil {
			return nil, err
		}
		next, err := doc.DeleteElement(op.ObjectID)
		if err != nil {
			return nil, err
		}
		op.PreviousElement = prev
		return next, nil

	case OpElementMove:
		return doc.MoveElement(op.ObjectID, op.DX, op.DY)

	case OpSettingsSet:
		if op.Settings == nil {
			return nil, fmt.Errorf("%w: missing settings", ErrInvalidOperation)
		}
		return doc.WithSettings(*op.Settings)

	case OpPageUpdate:
		if op.Page == nil {
			return nil, fmt.Errorf("%w: missing page", ErrInvalidOperation)
		}
		return doc.WithPage(*op.Page)

	case OpDrawingRename:
		if op.Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidOperation)
		}
		op.PreviousName = doc.Project.Name
		return doc.WithName(op.Name), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
}

// elementJSON returns the encoded element with the given id.
func elementJSON(doc *document.Document, id string) (json.RawMessage, error) {
	kind, i, ok := doc.Locate(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", document.ErrElementNotFound, id)
	}
	var v any
	switch kind {
	case document.KindLine:
		v = doc.Lines[i]
	case document.KindArrow:
		v = doc.Arrows[i]
	case document.KindArc:
		v = doc.Arcs[i]
	case document.KindCurve:
		v = doc.Curves[i]
	case document.KindSymbol:
		v = doc.Symbols[i]
	case document.KindText:
		v = doc.Texts[i]
	case document.KindMark:
		v = doc.Marks[i]
	case document.KindDimension:
		v = doc.Dimensions[i]
	case document.KindLegend:
		v = doc.Legends[i]
	case document.KindNote:
		v = doc.GeneralNotes[i]
	}
	return json.Marshal(v)
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
