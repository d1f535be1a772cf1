package drawing

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inamate/schematic/internal/document"
)

func visibleDocument() *document.Document {
	doc := document.NewEmptyDocument("dwg_1", "Plan", "page_1")
	doc.Symbols = []document.Symbol{
		{ID: "sym_in", Kind: "socket", Position: document.Point{X: 50, Y: 50}},
		{ID: "sym_out", Kind: "socket", Position: document.Point{X: 900, Y: 900}},
	}
	doc.Legends = []document.LegendPlacement{{ID: "legend_1", Position: document.Point{X: 9000, Y: 9000}}}
	return doc
}

func TestCullView(t *testing.T) {
	zero := 0.0
	tests := []struct {
		name   string
		req    VisibleRequest
		margin float64
		want   Viewport
		kept   []string
	}{
		{
			name: "identity",
			req:  VisibleRequest{Zoom: 1, ScreenWidth: 200, ScreenHeight: 100, Margin: &zero},
			want: Viewport{0, 0, 200, 100},
			kept: []string{"sym_in"},
		},
		{
			name:   "default margin",
			req:    VisibleRequest{Zoom: 2, ScreenWidth: 200, ScreenHeight: 100},
			margin: 100,
			want:   Viewport{-50, -50, 150, 100},
			kept:   []string{"sym_in"},
		},
		{
			name: "panned away",
			req:  VisibleRequest{Zoom: 1, Pan: document.Point{X: -1000, Y: -1000}, ScreenWidth: 200, ScreenHeight: 100, Margin: &zero},
			want: Viewport{1000, 1000, 1200, 1100},
			kept: nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := cullView(visibleDocument(), tc.req, tc.margin)
			if resp.Viewport != tc.want {
				t.Errorf("viewport = %+v, want %+v", resp.Viewport, tc.want)
			}
			var got []string
			for _, s := range resp.Document.Symbols {
				got = append(got, s.ID)
			}
			if fmt.Sprint(got) != fmt.Sprint(tc.kept) {
				t.Errorf("symbols = %v, want %v", got, tc.kept)
			}
			if len(resp.Document.Legends) != 1 {
				t.Error("legend was culled")
			}
			if resp.Stats.Symbols.Total != 2 {
				t.Errorf("symbol total = %d", resp.Stats.Symbols.Total)
			}
		})
	}
}

func TestVisibleRequestValidate(t *testing.T) {
	neg := -1.0
	tests := []struct {
		req VisibleRequest
		ok  bool
	}{
		{VisibleRequest{Zoom: 1, ScreenWidth: 10, ScreenHeight: 10}, true},
		{VisibleRequest{Zoom: 0, ScreenWidth: 10, ScreenHeight: 10}, false},
		{VisibleRequest{Zoom: -2}, false},
		{VisibleRequest{Zoom: 1, ScreenWidth: -1}, false},
		{VisibleRequest{Zoom: 1, Margin: &neg}, false},
	}
	for i, tc := range tests {
		if err := tc.req.validate(); (err == nil) != tc.ok {
			t.Errorf("case %d: validate() = %v, want ok=%v", i, err, tc.ok)
		}
	}
}

func TestVisibleRejectsBadRequests(t *testing.T) {
	h := NewHandler(nil)
	for _, body := range []string{`{`, `{"zoom":0,"screenWidth":10,"screenHeight":10}`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/drawings/dwg_1/visible", strings.NewReader(body))
		h.Visible(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", body, rec.Code)
		}
	}
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: bad", ErrInvalidDocument), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		handleServiceError(rec, tc.err)
		if rec.Code != tc.status {
			t.Errorf("%v: status %d, want %d", tc.err, rec.Code, tc.status)
		}
	}
}
