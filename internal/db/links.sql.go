package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const linkColumns = `id, url, title, image_url, published_date, tags, notes, scraped_title, scraped_image, scraped_date, created_at`

const createLink = `-- name: CreateLink :one
INSERT INTO links (id, url, title, image_url, published_date, tags, notes, scraped_title, scraped_image, scraped_date, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + linkColumns

type CreateLinkParams struct {
	ID            uuid.UUID          `json:"id"`
	Url           string             `json:"url"`
	Title         string             `json:"title"`
	ImageUrl      pgtype.Text        `json:"image_url"`
	PublishedDate pgtype.Text        `json:"published_date"`
	Tags          []string           `json:"tags"`
	Notes         pgtype.Text        `json:"notes"`
	ScrapedTitle  pgtype.Text        `json:"scraped_title"`
	ScrapedImage  pgtype.Text        `json:"scraped_image"`
	ScrapedDate   pgtype.Text        `json:"scraped_date"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateLink(ctx context.Context, arg CreateLinkParams) (Link, error) {
	tags := arg.Tags
	if tags == nil {
		tags = []string{}
	}
	row := q.db.QueryRow(ctx, createLink,
		arg.ID,
		arg.Url,
		arg.Title,
		arg.ImageUrl,
		arg.PublishedDate,
		tags,
		arg.Notes,
		arg.ScrapedTitle,
		arg.ScrapedImage,
		arg.ScrapedDate,
		arg.CreatedAt,
	)
	return scanLink(row)
}

const listLinks = `-- name: ListLinks :many
SELECT ` + linkColumns + `
FROM links
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListLinks(ctx context.Context) ([]Link, error) {
	rows, err := q.db.Query(ctx, listLinks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Link{}
	for rows.Next() {
		i, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listLinksByTag = `-- name: ListLinksByTag :many
SELECT ` + linkColumns + `
FROM links
WHERE tags @> ARRAY[$1::text]
ORDER BY created_at DESC, id DESC`

func (q *Queries) ListLinksByTag(ctx context.Context, tag string) ([]Link, error) {
	rows, err := q.db.Query(ctx, listLinksByTag, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Link{}
	for rows.Next() {
		i, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteLink = `-- name: DeleteLink :exec
DELETE FROM links
WHERE id = $1`

func (q *Queries) DeleteLink(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteLink, id)
	return err
}

const updateLinkNotes = `-- name: UpdateLinkNotes :one
UPDATE links
SET notes = $2
WHERE id = $1
RETURNING ` + linkColumns

type UpdateLinkNotesParams struct {
	ID    uuid.UUID   `json:"id"`
	Notes pgtype.Text `json:"notes"`
}

func (q *Queries) UpdateLinkNotes(ctx context.Context, arg UpdateLinkNotesParams) (Link, error) {
	row := q.db.QueryRow(ctx, updateLinkNotes, arg.ID, arg.Notes)
	return scanLink(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(row scanner) (Link, error) {
	var i Link
	err := row.Scan(
		&i.ID,
		&i.Url,
		&i.Title,
		&i.ImageUrl,
		&i.PublishedDate,
		&i.Tags,
		&i.Notes,
		&i.ScrapedTitle,
		&i.ScrapedImage,
		&i.ScrapedDate,
		&i.CreatedAt,
	)
	return i, err
}
