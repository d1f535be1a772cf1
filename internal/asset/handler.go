package asset

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/inamate/schematic/internal/typeid"
)

const (
	maxUploadSize = 25 << 20 // 25MB
	maxPixels     = 100_000_000
	thumbSize     = 256
)

// UploadResponse is returned from the upload endpoint. Width and Height are
// the page size in pixels; the client uses them as the page extent in
// document units.
type UploadResponse struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	Name         string `json:"name"`
}

// Handler stores raster page backgrounds and serves them back.
type Handler struct {
	dir string // directory to store page files
}

// NewHandler creates a new asset handler that stores files in dir.
func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /assets/upload (multipart form with a "file" field).
// Any supported raster format is stored as PNG next to a PNG thumbnail.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 25MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		http.Error(w, "unsupported image: "+err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.Width*cfg.Height > maxPixels {
		http.Error(w, "image has too many pixels", http.StatusBadRequest)
		return
	}
	if _, err := file.Seek(0, 0); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	assetID := typeid.NewAssetID()
	if err := h.store(assetID, img); err != nil {
		slog.Error("store page image", "error", err, "asset", assetID)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	bounds := img.Bounds()
	resp := UploadResponse{
		ID:           assetID,
		URL:          fmt.Sprintf("/assets/%s.png", assetID),
		ThumbnailURL: fmt.Sprintf("/assets/%s.thumb.png", assetID),
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		Format:       format,
		Name:         header.Filename,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Serve returns an http.Handler that serves stored files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes a page image and its thumbnail.
func (h *Handler) Delete(assetID string) error {
	if err := typeid.Validate(assetID, typeid.PrefixAsset); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(h.dir, assetID+".png"))
	os.Remove(filepath.Join(h.dir, assetID+".thumb.png"))
	if err != nil {
		return fmt.Errorf("asset not found: %s", assetID)
	}
	return nil
}

func (h *Handler) store(assetID string, img image.Image) error {
	full := filepath.Join(h.dir, assetID+".png")
	if err := writePNG(full, img); err != nil {
		return err
	}
	if err := writePNG(filepath.Join(h.dir, assetID+".thumb.png"), Thumbnail(img, thumbSize)); err != nil {
		os.Remove(full)
		return err
	}
	return nil
}

// Thumbnail scales img so that its longer side is at most size pixels,
// keeping the aspect ratio. Smaller images are copied unscaled.
func Thumbnail(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > size || h > size {
		if w >= h {
			w, h = size, max(1, h*size/w)
		} else {
			w, h = max(1, w*size/h), size
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("encode png: %w", err)
	}
	return out.Close()
}
