package links

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sundayezeilo/linkshelf/internal/db"
	"github.com/sundayezeilo/linkshelf/internal/errx"
)

// querier is an internal interface that abstracts *db.Queries
type querier interface {
	CreateLink(ctx context.Context, arg db.CreateLinkParams) (db.Link, error)
	ListLinks(ctx context.Context) ([]db.Link, error)
	ListLinksByTag(ctx context.Context, tag string) ([]db.Link, error)
	DeleteLink(ctx context.Context, id uuid.UUID) error
	UpdateLinkNotes(ctx context.Context, arg db.UpdateLinkNotesParams) (db.Link, error)
}

type postgresRepo struct {
	q   querier
	cfg RepositoryConfig
}

// NewPostgresRepository creates a Repository backed by Postgres.
func NewPostgresRepository(q querier, config *RepositoryConfig) Repository {
	return &postgresRepo{
		q:   q,
		cfg: config.withDefaults(),
	}
}

func toText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func toDomainLink(x db.Link) (Link, error) {
	if !x.CreatedAt.Valid {
		return Link{}, fmt.Errorf("created_at unexpectedly NULL")
	}

	tags := x.Tags
	if tags == nil {
		tags = []string{}
	}

	return Link{
		ID:            x.ID,
		URL:           x.Url,
		Title:         x.Title,
		ImageURL:      textPtr(x.ImageUrl),
		PublishedDate: textPtr(x.PublishedDate),
		Tags:          tags,
		Notes:         textPtr(x.Notes),
		ScrapedTitle:  textPtr(x.ScrapedTitle),
		ScrapedImage:  textPtr(x.ScrapedImage),
		ScrapedDate:   textPtr(x.ScrapedDate),
		CreatedAt:     x.CreatedAt.Time.UTC(),
	}, nil
}

func toDomainLinks(op string, rows []db.Link) ([]Link, error) {
	out := make([]Link, 0, len(rows))
	for _, row := range rows {
		link, err := toDomainLink(row)
		if err != nil {
			return nil, errx.E(op, errx.Internal, err)
		}
		out = append(out, link)
	}
	return out, nil
}

func (r *postgresRepo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "links.postgresRepo.Create"

	link, err := r.cfg.stamp(op, link)
	if err != nil {
		return Link{}, err
	}

	row, err := r.q.CreateLink(ctx, db.CreateLinkParams{
		ID:            link.ID,
		Url:           link.URL,
		Title:         link.Title,
		ImageUrl:      toText(link.ImageURL),
		PublishedDate: toText(link.PublishedDate),
		Tags:          link.Tags,
		Notes:         toText(link.Notes),
		ScrapedTitle:  toText(link.ScrapedTitle),
		ScrapedImage:  toText(link.ScrapedImage),
		ScrapedDate:   toText(link.ScrapedDate),
		CreatedAt:     pgtype.Timestamptz{Time: link.CreatedAt, Valid: true},
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	created, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return created, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]Link, error) {
	const op = "links.postgresRepo.List"

	rows, err := r.q.ListLinks(ctx)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	return toDomainLinks(op, rows)
}

func (r *postgresRepo) ListByTag(ctx context.Context, tag string) ([]Link, error) {
	const op = "links.postgresRepo.ListByTag"

	rows, err := r.q.ListLinksByTag(ctx, tag)
	if err != nil {
		return nil, mapRepoError(op, err)
	}
	return toDomainLinks(op, rows)
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "links.postgresRepo.Delete"

	if err := r.q.DeleteLink(ctx, id); err != nil {
		return mapRepoError(op, err)
	}
	return nil
}

func (r *postgresRepo) UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (Link, error) {
	const op = "links.postgresRepo.UpdateNotes"

	row, err := r.q.UpdateLinkNotes(ctx, db.UpdateLinkNotesParams{
		ID:    id,
		Notes: toText(notes),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return Link{}, errx.Errorf(op, errx.NotFound, "link %s not found", id)
	}
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	updated, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return updated, nil
}
