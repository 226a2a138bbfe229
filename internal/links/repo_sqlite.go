package links

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3"

	"github.com/sundayezeilo/linkshelf/internal/errx"
)

// sqliteTimeLayout is fixed-width so that text order equals time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

const sqliteLinkColumns = `id, url, title, image_url, published_date, tags, notes,
	scraped_title, scraped_image, scraped_date, created_at`

// sqlDB is the subset of *sqlite.DB the repository needs.
type sqlDB interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqliteRepo struct {
	db  sqlDB
	cfg RepositoryConfig
}

// NewSQLiteRepository creates a Repository backed by an opened SQLite
// database. Tags are stored as a JSON array and filtered with json_each.
func NewSQLiteRepository(db sqlDB, config *RepositoryConfig) Repository {
	return &sqliteRepo{
		db:  db,
		cfg: config.withDefaults(),
	}
}

func (r *sqliteRepo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "links.sqliteRepo.Create"

	link, err := r.cfg.stamp(op, link)
	if err != nil {
		return Link{}, err
	}

	tags, err := json.Marshal(link.Tags)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO links (id, url, title, image_url, published_date, tags, notes,
			scraped_title, scraped_image, scraped_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, link.ID.String(), link.URL, link.Title, nullString(link.ImageURL), nullString(link.PublishedDate),
		string(tags), nullString(link.Notes), nullString(link.ScrapedTitle), nullString(link.ScrapedImage),
		nullString(link.ScrapedDate), link.CreatedAt.Format(sqliteTimeLayout))
	if errors.Is(err, sqlite3.CONSTRAINT) {
		return Link{}, errx.E(op, errx.Invalid, err)
	}
	if err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}

	return link.clone(), nil
}

func (r *sqliteRepo) List(ctx context.Context) ([]Link, error) {
	const op = "links.sqliteRepo.List"

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sqliteLinkColumns+`
		FROM links
		ORDER BY created_at DESC, seq DESC
	`)
	if err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}
	return collectSQLiteLinks(op, rows)
}

func (r *sqliteRepo) ListByTag(ctx context.Context, tag string) ([]Link, error) {
	const op = "links.sqliteRepo.ListByTag"

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sqliteLinkColumns+`
		FROM links
		WHERE EXISTS (SELECT 1 FROM json_each(links.tags) WHERE json_each.value = ?)
		ORDER BY created_at DESC, seq DESC
	`, tag)
	if err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}
	return collectSQLiteLinks(op, rows)
}

func (r *sqliteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "links.sqliteRepo.Delete"

	if _, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id.String()); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}
	return nil
}

func (r *sqliteRepo) UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (Link, error) {
	const op = "links.sqliteRepo.UpdateNotes"

	row := r.db.QueryRowContext(ctx, `
		UPDATE links SET notes = ?
		WHERE id = ?
		RETURNING `+sqliteLinkColumns,
		nullString(notes), id.String())

	link, err := scanSQLiteLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Link{}, errx.Errorf(op, errx.NotFound, "link %s not found", id)
	}
	if err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}
	return link, nil
}

func collectSQLiteLinks(op string, rows *sql.Rows) ([]Link, error) {
	defer rows.Close()

	out := []Link{}
	for rows.Next() {
		link, err := scanSQLiteLink(rows)
		if err != nil {
			return nil, errx.E(op, errx.Internal, err)
		}
		out = append(out, link)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLink(row rowScanner) (Link, error) {
	var (
		link      Link
		id        string
		tags      string
		createdAt string
		image     sql.NullString
		published sql.NullString
		notes     sql.NullString
		sTitle    sql.NullString
		sImage    sql.NullString
		sDate     sql.NullString
	)

	if err := row.Scan(&id, &link.URL, &link.Title, &image, &published, &tags, &notes,
		&sTitle, &sImage, &sDate, &createdAt); err != nil {
		return Link{}, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return Link{}, fmt.Errorf("failed to parse id: %w", err)
	}
	link.ID = parsedID

	if err := json.Unmarshal([]byte(tags), &link.Tags); err != nil {
		return Link{}, fmt.Errorf("failed to parse tags: %w", err)
	}
	if link.Tags == nil {
		link.Tags = []string{}
	}

	link.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return Link{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	link.ImageURL = nullStringPtr(image)
	link.PublishedDate = nullStringPtr(published)
	link.Notes = nullStringPtr(notes)
	link.ScrapedTitle = nullStringPtr(sTitle)
	link.ScrapedImage = nullStringPtr(sImage)
	link.ScrapedDate = nullStringPtr(sDate)

	return link, nil
}

// nullString converts optional fields before binding; the driver does not
// dereference pointers.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
