package dbgen

import (
	"context"
)

const createDrawing = `-- name: CreateDrawing :one
INSERT INTO drawings (id, name, owner_id)
VALUES ($1, $2, $3)
RETURNING id, name, owner_id, created_at, updated_at
`

type CreateDrawingParams struct {
	ID      string
	Name    string
	OwnerID string
}

func (q *Queries) CreateDrawing(ctx context.Context, arg CreateDrawingParams) (Drawing, error) {
	row := q.db.QueryRow(ctx, createDrawing, arg.ID, arg.Name, arg.OwnerID)
	var i Drawing
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.OwnerID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getDrawing = `-- name: GetDrawing :one
SELECT id, name, owner_id, created_at, updated_at FROM drawings
WHERE id = $1
`

func (q *Queries) GetDrawing(ctx context.Context, id string) (Drawing, error) {
	row := q.db.QueryRow(ctx, getDrawing, id)
	var i Drawing
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.OwnerID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listDrawingsForUser = `-- name: ListDrawingsForUser :many
SELECT id, name, owner_id, created_at, updated_at FROM drawings
WHERE owner_id = $1
ORDER BY updated_at DESC
`

func (q *Queries) ListDrawingsForUser(ctx context.Context, ownerID string) ([]Drawing, error) {
	rows, err := q.db.Query(ctx, listDrawingsForUser, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Drawing
	for rows.Next() {
		var i Drawing
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.OwnerID,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const touchDrawing = `-- name: TouchDrawing :exec
UPDATE drawings SET name = $2, updated_at = now()
WHERE id = $1
`

type TouchDrawingParams struct {
	ID   string
	Name string
}

func (q *Queries) TouchDrawing(ctx context.Context, arg TouchDrawingParams) error {
	_, err := q.db.Exec(ctx, touchDrawing, arg.ID, arg.Name)
	return err
}

const deleteDrawing = `-- name: DeleteDrawing :exec
DELETE FROM drawings WHERE id = $1
`

func (q *Queries) DeleteDrawing(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteDrawing, id)
	return err
}
