package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"seehuhn.de/go/geom/rect"

	"github.com/inamate/schematic/internal/cull"
	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/viewport"
)

// DefaultIndexThreshold is the element count above which the engine culls
// through a grid index instead of a linear scan.
const DefaultIndexThreshold = 5000

const (
	defaultScreenWidth  = 1280
	defaultScreenHeight = 720
	fitPaddingPx        = 40
	hitTolerancePx      = 4
)

// Engine owns the document, the camera and the selection of one editor
// view. It processes commands from the frontend and returns query results.
// An Engine is not safe for concurrent use.
type Engine struct {
	// Document state
	doc      *document.Document
	docScene *scene

	// Grid index, built when the document is large enough
	index          *cull.Index
	indexThreshold int
	cellSize       float64

	// Camera
	view             viewport.ViewState
	screenW, screenH float64
	margin           float64
	camera           *cameraMove

	// Selection state (backend owns this)
	selection []string

	// Culling result for the current document, view, screen and margin
	visible      *document.Document
	visibleScene *scene
	vp           rect.Rect
	stats        cull.Stats

	// Dirty flag - culling result needs recomputing
	dirty bool
}

// NewEngine creates a new engine instance.
func NewEngine() *Engine {
	return &Engine{
		indexThreshold: DefaultIndexThreshold,
		cellSize:       cull.DefaultCellSize,
		view:           viewport.Identity(),
		screenW:        defaultScreenWidth,
		screenH:        defaultScreenHeight,
		margin:         viewport.DefaultMarginPx,
		dirty:          true,
	}
}

// SetIndexing changes when and how the grid index is used. A threshold
// below zero disables the index.
func (e *Engine) SetIndexing(threshold int, cellSize float64) {
	e.indexThreshold = threshold
	e.cellSize = cellSize
	e.rebuildIndex()
}

// --- Commands (frontend → backend) ---

// LoadDocument loads a document from JSON and resets the camera and
// selection.
func (e *Engine) LoadDocument(jsonData string) error {
	doc, err := decodeDocument(jsonData)
	if err != nil {
		return err
	}
	e.setDocument(doc)
	e.resetView()
	e.selection = nil
	return nil
}

// UpdateDocument replaces the document while preserving camera and
// selection. Used when the document changes during editing.
func (e *Engine) UpdateDocument(jsonData string) error {
	doc, err := decodeDocument(jsonData)
	if err != nil {
		return err
	}
	e.setDocument(doc)
	if _, ok := doc.Page(e.view.PageID); !ok {
		e.view.PageID = firstPageID(doc)
	}
	return nil
}

// LoadSampleDocument loads the built-in sample document.
func (e *Engine) LoadSampleDocument(drawingID string) {
	e.setDocument(document.NewSampleDocument(drawingID))
	e.resetView()
	e.selection = nil
}

// SetScreenSize sets the canvas size in pixels. Negative sizes are ignored.
func (e *Engine) SetScreenSize(width, height float64) {
	if width < 0 || height < 0 {
		return
	}
	e.screenW, e.screenH = width, height
	e.dirty = true
}

// SetMargin sets the culling margin in screen pixels.
func (e *Engine) SetMargin(px float64) {
	e.margin = max(px, 0)
	e.dirty = true
}

// SetView jumps the camera. A non-positive zoom is ignored.
func (e *Engine) SetView(zoom, panX, panY float64) {
	if !(zoom > 0) {
		return
	}
	e.camera = nil
	e.view.Zoom = viewport.ClampZoom(zoom)
	e.view.Pan.X, e.view.Pan.Y = panX, panY
	e.dirty = true
}

// Pan moves the camera by (dx, dy) screen pixels.
func (e *Engine) Pan(dx, dy float64) {
	e.camera = nil
	e.view = e.view.Translate(dx, dy)
	e.dirty = true
}

// ZoomAt zooms by factor around the screen point (sx, sy).
func (e *Engine) ZoomAt(factor, sx, sy float64) {
	e.camera = nil
	e.view = e.view.ZoomAt(factor, sx, sy)
	e.dirty = true
}

// SetPage switches to the page with the given id and starts a camera move
// that fits it on screen.
func (e *Engine) SetPage(pageID string) bool {
	if e.doc == nil {
		return false
	}
	page, ok := e.doc.Page(pageID)
	if !ok {
		return false
	}
	e.view.PageID = page.ID
	e.dirty = true
	e.animateTo(pageRect(page))
	return true
}

// SetSelection sets the selected element IDs.
func (e *Engine) SetSelection(ids []string) {
	e.selection = ids
}

// FocusSelection starts a camera move onto the selection. It reports false
// when nothing selected exists in the document.
func (e *Engine) FocusSelection() bool {
	r, ok := e.fullScene().bounds(e.selection)
	if !ok {
		return false
	}
	e.animateTo(r)
	return true
}

// ZoomToFit starts a camera move that shows the current page and every
// element.
func (e *Engine) ZoomToFit() bool {
	if e.doc == nil {
		return false
	}
	r, ok := e.fullScene().extent()
	if page, found := currentPage(e.doc, e.view.PageID); found {
		if ok {
			r = cull.Union(r, pageRect(page))
		} else {
			r, ok = pageRect(page), true
		}
	}
	if !ok {
		return false
	}
	e.animateTo(r)
	return true
}

// Tick advances a running camera move and returns draw commands.
// This is called once per animation frame from the frontend.
func (e *Engine) Tick() string {
	if e.camera != nil {
		v, done := e.camera.step()
		e.view = v
		e.dirty = true
		if done {
			e.camera = nil
		}
	}
	return e.Render()
}

// --- Queries (frontend ← backend) ---

// Render culls the document and returns draw commands for the visible
// elements as JSON.
func (e *Engine) Render() string {
	if e.doc == nil {
		return "[]"
	}
	e.cull()
	result, _ := DrawCommandsToJSON(CompileDrawCommands(e.visible, e.view))
	return result
}

// HitTest returns the ID of the topmost visible element under the screen
// point (sx, sy), or an empty string.
func (e *Engine) HitTest(sx, sy float64) string {
	if e.doc == nil {
		return ""
	}
	e.cull()
	if e.visibleScene == nil {
		e.visibleScene = buildScene(e.visible, e.doc.Settings.EffectiveAnnotationScale())
	}
	p := e.view.ScreenToDoc(vecOf(sx, sy))
	return e.visibleScene.hitTest(p, hitTolerancePx/e.view.Zoom)
}

// GetSelectionBounds returns the document-space bounding box of the
// current selection as JSON.
func (e *Engine) GetSelectionBounds() string {
	r, _ := e.fullScene().bounds(e.selection)
	return RectToJSON(r)
}

// GetViewport returns the culling rectangle in document space as JSON.
func (e *Engine) GetViewport() string {
	vp := e.Viewport()
	data, _ := json.Marshal(map[string]float64{
		"minX": vp.LLx,
		"minY": vp.LLy,
		"maxX": vp.URx,
		"maxY": vp.URy,
	})
	return string(data)
}

// GetVisibleDocument returns the culled document as JSON.
func (e *Engine) GetVisibleDocument() string {
	if e.doc == nil {
		return "{}"
	}
	e.cull()
	data, _ := json.Marshal(e.visible)
	return string(data)
}

// GetCullStats returns kept and total counts of the last culling pass.
func (e *Engine) GetCullStats() string {
	st := e.Stats()
	data, _ := json.Marshal(map[string]interface{}{
		"collections": st,
		"kept":        st.Kept(),
		"total":       st.Total(),
		"indexed":     e.index != nil,
	})
	return string(data)
}

// GetView returns the camera state as JSON.
func (e *Engine) GetView() string {
	data, _ := json.Marshal(map[string]interface{}{
		"zoom":         e.view.Zoom,
		"pan":          map[string]float64{"x": e.view.Pan.X, "y": e.view.Pan.Y},
		"pageId":       e.view.PageID,
		"screenWidth":  e.screenW,
		"screenHeight": e.screenH,
		"margin":       e.margin,
		"animating":    e.camera != nil,
	})
	return string(data)
}

// GetDocument returns the full document as JSON (for debugging/sync).
func (e *Engine) GetDocument() string {
	if e.doc == nil {
		return "{}"
	}
	data, _ := json.Marshal(e.doc)
	return string(data)
}

// GetSelection returns the current selection as JSON.
func (e *Engine) GetSelection() string {
	data, _ := json.Marshal(e.selection)
	return string(data)
}

// View returns the camera state.
func (e *Engine) View() viewport.ViewState {
	return e.view
}

// Viewport returns the culling rectangle in document space.
func (e *Engine) Viewport() rect.Rect {
	if e.doc == nil {
		return e.view.DocRect(e.screenW, e.screenH, e.margin)
	}
	e.cull()
	return e.vp
}

// Visible returns the culled document. The result must not be modified.
func (e *Engine) Visible() *document.Document {
	e.cull()
	return e.visible
}

// Stats returns the counts of the last culling pass.
func (e *Engine) Stats() cull.Stats {
	e.cull()
	return e.stats
}

// Indexed reports whether culling goes through the grid index.
func (e *Engine) Indexed() bool {
	return e.index != nil
}

// Animating reports whether a camera move is running.
func (e *Engine) Animating() bool {
	return e.camera != nil
}

// --- internals ---

func decodeDocument(jsonData string) (*document.Document, error) {
	var doc document.Document
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

func (e *Engine) setDocument(doc *document.Document) {
	e.doc = doc
	e.docScene = nil
	e.rebuildIndex()
	e.dirty = true
}

func (e *Engine) resetView() {
	e.camera = nil
	e.view = viewport.Identity()
	e.view.PageID = firstPageID(e.doc)
	e.dirty = true
}

func (e *Engine) rebuildIndex() {
	e.index = nil
	if e.doc != nil && e.indexThreshold >= 0 && e.doc.ElementCount() > e.indexThreshold {
		e.index = cull.NewIndex(e.doc, e.cellSize)
		slog.Debug("built cull index", "elements", e.doc.ElementCount(), "cellSize", e.cellSize)
	}
	e.dirty = true
}

func (e *Engine) animateTo(r rect.Rect) {
	target := e.view.Fit(r, e.screenW, e.screenH, fitPaddingPx)
	e.camera = newCameraMove(e.view, target)
}

// cull recomputes the visible subset if anything it depends on changed.
func (e *Engine) cull() {
	if !e.dirty {
		return
	}
	e.dirty = false
	e.visibleScene = nil
	e.vp = e.view.DocRect(e.screenW, e.screenH, e.margin)
	if e.doc == nil {
		e.visible, e.stats = nil, cull.Stats{}
		return
	}

	scale := e.doc.Settings.EffectiveAnnotationScale()
	if e.index != nil {
		e.visible, e.stats = e.index.FilterStats(e.vp, scale)
	} else {
		e.visible, e.stats = cull.FilterStats(e.doc, e.vp, scale)
	}
	slog.Debug("culled document",
		"kept", e.stats.Kept(),
		"total", e.stats.Total(),
		"indexed", e.index != nil,
		"zoom", e.view.Zoom,
	)
}

func (e *Engine) fullScene() *scene {
	if e.docScene == nil {
		scale := 1.0
		if e.doc != nil {
			scale = e.doc.Settings.EffectiveAnnotationScale()
		}
		e.docScene = buildScene(e.doc, scale)
	}
	return e.docScene
}

func firstPageID(doc *document.Document) string {
	if doc == nil || len(doc.Pages) == 0 {
		return ""
	}
	return doc.Pages[0].ID
}
