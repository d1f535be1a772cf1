package dbgen

import (
	"context"
)

const createSnapshot = `-- name: CreateSnapshot :one
INSERT INTO snapshots (id, drawing_id, version, document)
VALUES ($1, $2, $3, $4)
RETURNING id, drawing_id, version, document, created_at
`

type CreateSnapshotParams struct {
	ID        string
	DrawingID string
	Version   int32
	Document  []byte
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (Snapshot, error) {
	row := q.db.QueryRow(ctx, createSnapshot,
		arg.ID,
		arg.DrawingID,
		arg.Version,
		arg.Document,
	)
	var i Snapshot
	err := row.Scan(
		&i.ID,
		&i.DrawingID,
		&i.Version,
		&i.Document,
		&i.CreatedAt,
	)
	return i, err
}

const createNextSnapshot = `-- name: CreateNextSnapshot :one
INSERT INTO snapshots (id, drawing_id, version, document)
SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3
FROM snapshots WHERE drawing_id = $2
RETURNING id, drawing_id, version, document, created_at
`

type CreateNextSnapshotParams struct {
	ID        string
	DrawingID string
	Document  []byte
}

// CreateNextSnapshot stores a snapshot one version above the latest one.
func (q *Queries) CreateNextSnapshot(ctx context.Context, arg CreateNextSnapshotParams) (Snapshot, error) {
	row := q.db.QueryRow(ctx, createNextSnapshot, arg.ID, arg.DrawingID, arg.Document)
	var i Snapshot
	err := row.Scan(
		&i.ID,
		&i.DrawingID,
		&i.Version,
		&i.Document,
		&i.CreatedAt,
	)
	return i, err
}

const getLatestSnapshot = `-- name: GetLatestSnapshot :one
SELECT id, drawing_id, version, document, created_at FROM snapshots
WHERE drawing_id = $1
ORDER BY version DESC
LIMIT 1
`

func (q *Queries) GetLatestSnapshot(ctx context.Context, drawingID string) (Snapshot, error) {
	row := q.db.QueryRow(ctx, getLatestSnapshot, drawingID)
	var i Snapshot
	err := row.Scan(
		&i.ID,
		&i.DrawingID,
		&i.Version,
		&i.Document,
		&i.CreatedAt,
	)
	return i, err
}
