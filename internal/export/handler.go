package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/inamate/schematic/internal/cull"
	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/engine"
	"github.com/inamate/schematic/internal/typeid"
	"github.com/inamate/schematic/internal/viewport"
)

const (
	maxRequestSize = 32 << 20 // 32MB
	maxDimension   = 4096
)

type Handler struct {
	assetDir string
	marginPx float64
}

// NewHandler creates an export handler that reads page backgrounds from
// assetDir and culls with marginPx unless a request names its own margin.
func NewHandler(assetDir string, marginPx float64) *Handler {
	return &Handler{assetDir: assetDir, marginPx: marginPx}
}

type previewRequest struct {
	Document *document.Document `json:"document"`
	View     struct {
		Zoom   float64        `json:"zoom"`
		Pan    document.Point `json:"pan"`
		PageID string         `json:"pageId"`
	} `json:"view"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Margin *float64 `json:"margin,omitempty"`
	Name   string   `json:"name"`
}

// Preview handles POST /export/preview. It renders the part of the posted
// document visible in the posted view to a PNG of the requested size.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Document == nil {
		http.Error(w, "document is required", http.StatusBadRequest)
		return
	}
	if !(req.View.Zoom > 0) {
		http.Error(w, "zoom must be positive", http.StatusBadRequest)
		return
	}
	if req.Width <= 0 || req.Height <= 0 || req.Width > maxDimension || req.Height > maxDimension {
		http.Error(w, fmt.Sprintf("width and height must be between 1 and %d", maxDimension), http.StatusBadRequest)
		return
	}

	margin := h.marginPx
	if req.Margin != nil && *req.Margin >= 0 {
		margin = *req.Margin
	}
	view := viewport.ViewState{Zoom: req.View.Zoom, Pan: req.View.Pan.Vec(), PageID: req.View.PageID}

	visible, _, stats := cull.Cull(req.Document, view, float64(req.Width), float64(req.Height), margin)
	cmds := engine.CompileDrawCommands(visible, view)

	rd := NewRenderer(req.Width, req.Height, color.White, h.loadPage)
	rd.Draw(cmds)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rd.Image()); err != nil {
		slog.Error("encode preview", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Debug("rendered preview",
		"drawing", req.Document.Project.ID,
		"kept", stats.Kept(),
		"total", stats.Total(),
		"commands", len(cmds),
	)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.png"`, sanitizeName(req.Name)))
	w.Header().Set("X-Cull-Kept", strconv.Itoa(stats.Kept()))
	w.Header().Set("X-Cull-Total", strconv.Itoa(stats.Total()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// loadPage opens a stored page background written by the asset handler.
func (h *Handler) loadPage(assetID string) (image.Image, error) {
	if err := typeid.Validate(assetID, typeid.PrefixAsset); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(h.assetDir, assetID+".png"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode page %s: %w", assetID, err)
	}
	return img, nil
}

func sanitizeName(name string) string {
	if name == "" {
		return "preview"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
