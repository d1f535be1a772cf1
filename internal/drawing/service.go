package drawing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/inamate/schematic/internal/db/dbgen"
	"github.com/inamate/schematic/internal/document"
	"github.com/inamate/schematic/internal/typeid"
)

var (
	ErrNotFound        = errors.New("drawing not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidDocument = errors.New("invalid document")
)

type Service struct {
	queries  *dbgen.Queries
	marginPx float64
}

// NewService creates a drawing service. marginPx is the culling margin used
// when a visible-subset request does not name one.
func NewService(queries *dbgen.Queries, marginPx float64) *Service {
	return &Service{queries: queries, marginPx: marginPx}
}

type Drawing struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// SavedSnapshot is returned after a document was stored.
type SavedSnapshot struct {
	ID      string `json:"id"`
	Version int32  `json:"version"`
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Drawing, error) {
	drawingID := typeid.NewDrawingID()

	dbDrawing, err := s.queries.CreateDrawing(ctx, dbgen.CreateDrawingParams{
		ID:      drawingID,
		Name:    name,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create drawing: %w", err)
	}

	emptyDoc := document.NewEmptyDocument(drawingID, name, typeid.NewPageID())
	emptyDoc.Project.CreatedAt = formatTime(dbDrawing.CreatedAt)
	emptyDoc.Project.UpdatedAt = emptyDoc.Project.CreatedAt
	docJSON, err := json.Marshal(emptyDoc)
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}

	_, err = s.queries.CreateSnapshot(ctx, dbgen.CreateSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		DrawingID: drawingID,
		Version:   1,
		Document:  docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return dbDrawingToDrawing(dbDrawing), nil
}

func (s *Service) Get(ctx context.Context, drawingID, userID string) (*Drawing, error) {
	dbDrawing, err := s.owned(ctx, drawingID, userID)
	if err != nil {
		return nil, err
	}
	return dbDrawingToDrawing(dbDrawing), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Drawing, error) {
	dbDrawings, err := s.queries.ListDrawingsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}

	drawings := make([]Drawing, len(dbDrawings))
	for i, d := range dbDrawings {
		drawings[i] = *dbDrawingToDrawing(d)
	}

	return drawings, nil
}

func (s *Service) Delete(ctx context.Context, drawingID, userID string) error {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return err
	}
	if err := s.queries.DeleteDrawing(ctx, drawingID); err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	return nil
}

// CanAccess reports whether userID may open the drawing.
func (s *Service) CanAccess(ctx context.Context, drawingID, userID string) error {
	_, err := s.owned(ctx, drawingID, userID)
	return err
}

func (s *Service) GetLatestSnapshot(ctx context.Context, drawingID, userID string) (json.RawMessage, error) {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return nil, err
	}

	snap, err := s.queries.GetLatestSnapshot(ctx, drawingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	return snap.Document, nil
}

// SaveSnapshot stores raw as the next version of the drawing's document.
func (s *Service) SaveSnapshot(ctx context.Context, drawingID, userID string, raw json.RawMessage) (*SavedSnapshot, error) {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return nil, err
	}

	var doc document.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Project.ID != "" && doc.Project.ID != drawingID {
		return nil, fmt.Errorf("%w: document belongs to %s", ErrInvalidDocument, doc.Project.ID)
	}

	return s.store(ctx, drawingID, &doc)
}

// LoadDocument returns the latest stored document of a drawing without an
// access check. It backs the collaboration hub.
func (s *Service) LoadDocument(ctx context.Context, drawingID string) (*document.Document, error) {
	snap, err := s.queries.GetLatestSnapshot(ctx, drawingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var doc document.Document
	if err := json.Unmarshal(snap.Document, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snap.ID, err)
	}
	return &doc, nil
}

// SaveDocument stores doc as the next snapshot of a drawing without an
// access check. It backs the collaboration hub.
func (s *Service) SaveDocument(ctx context.Context, drawingID string, doc *document.Document) error {
	_, err := s.store(ctx, drawingID, doc)
	return err
}

// Visible culls the latest document of a drawing for the requested view.
func (s *Service) Visible(ctx context.Context, drawingID, userID string, req VisibleRequest) (*VisibleResponse, error) {
	if _, err := s.owned(ctx, drawingID, userID); err != nil {
		return nil, err
	}
	doc, err := s.LoadDocument(ctx, drawingID)
	if err != nil {
		return nil, err
	}
	return cullView(doc, req, s.marginPx), nil
}

func (s *Service) store(ctx context.Context, drawingID string, doc *document.Document) (*SavedSnapshot, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	snap, err := s.queries.CreateNextSnapshot(ctx, dbgen.CreateNextSnapshotParams{
		ID:        typeid.NewSnapshotID(),
		DrawingID: drawingID,
		Document:  docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}

	if err := s.queries.TouchDrawing(ctx, dbgen.TouchDrawingParams{
		ID:   drawingID,
		Name: doc.Project.Name,
	}); err != nil {
		return nil, fmt.Errorf("touch drawing: %w", err)
	}

	return &SavedSnapshot{ID: snap.ID, Version: snap.Version}, nil
}

func (s *Service) owned(ctx context.Context, drawingID, userID string) (dbgen.Drawing, error) {
	dbDrawing, err := s.queries.GetDrawing(ctx, drawingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.Drawing{}, ErrNotFound
		}
		return dbgen.Drawing{}, fmt.Errorf("get drawing: %w", err)
	}
	if dbDrawing.OwnerID != userID {
		return dbgen.Drawing{}, ErrForbidden
	}
	return dbDrawing, nil
}

func dbDrawingToDrawing(d dbgen.Drawing) *Drawing {
	return &Drawing{
		ID:        d.ID,
		Name:      d.Name,
		OwnerID:   d.OwnerID,
		CreatedAt: formatTime(d.CreatedAt),
		UpdatedAt: formatTime(d.UpdatedAt),
	}
}
