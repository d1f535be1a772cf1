package drawing

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/inamate/schematic/internal/cull"
	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/viewport"
)

// VisibleRequest describes the camera of a client asking for the visible
// part of a drawing.
type VisibleRequest struct {
	Zoom         float64        `json:"zoom"`
	Pan          document.Point `json:"pan"`
	ScreenWidth  float64        `json:"screenWidth"`
	ScreenHeight float64        `json:"screenHeight"`
	Margin       *float64       `json:"margin,omitempty"`
}

type Viewport struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

type VisibleResponse struct {
	Viewport Viewport           `json:"viewport"`
	Document *document.Document `json:"document"`
	Stats    cull.Stats         `json:"stats"`
}

func (r VisibleRequest) validate() error {
	switch {
	case !(r.Zoom > 0):
		return errors.New("zoom must be positive")
	case r.ScreenWidth < 0 || r.ScreenHeight < 0:
		return errors.New("screen size must not be negative")
	case r.Margin != nil && *r.Margin < 0:
		return errors.New("margin must not be negative")
	}
	return nil
}

func cullView(doc *document.Document, req VisibleRequest, defaultMargin float64) *VisibleResponse {
	margin := defaultMargin
	if req.Margin != nil {
		margin = *req.Margin
	}
	view := viewport.ViewState{Zoom: req.Zoom, Pan: req.Pan.Vec()}
	out, vp, st := cull.Cull(doc, view, req.ScreenWidth, req.ScreenHeight, margin)
	return &VisibleResponse{
		Viewport: Viewport{MinX: vp.LLx, MinY: vp.LLy, MaxX: vp.URx, MaxY: vp.URy},
		Document: out,
		Stats:    st,
	}
}

func formatTime(t pgtype.Timestamptz) string {
	if !t.Valid {
		return ""
	}
	return t.Time.UTC().Format(time.RFC3339)
}
