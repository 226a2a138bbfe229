package links

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/sundayezeilo/linkshelf/internal/errx"
)

// Service defines the business operations on saved links.
//
// Validation failures carry errx.Invalid, unknown ids errx.NotFound and
// storage failures errx.Unavailable.
type Service interface {
	CreateLink(ctx context.Context, req CreateLinkRequest) (Link, error)
	GetLinks(ctx context.Context) ([]Link, error)
	GetLinksByTag(ctx context.Context, tag string) ([]Link, error)
	DeleteLink(ctx context.Context, id uuid.UUID) error
	// UpdateLinkNotes replaces the notes of a link. A nil notes clears them.
	UpdateLinkNotes(ctx context.Context, id uuid.UUID, notes *string) (Link, error)
}

// service implements the Service interface.
type service struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	Logger *slog.Logger
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &service{
		repo:     repo,
		validate: newValidator(),
		logger:   logger,
	}
}

func (s *service) CreateLink(ctx context.Context, req CreateLinkRequest) (Link, error) {
	const op = "links.service.CreateLink"

	if err := validateCreateRequest(s.validate, req); err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	created, err := s.repo.Create(ctx, req.toLink())
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}

	s.logger.DebugContext(ctx, "link stored",
		"link_id", created.ID.String(),
		"tags", len(created.Tags),
	)
	return created, nil
}

func (s *service) GetLinks(ctx context.Context) ([]Link, error) {
	const op = "links.service.GetLinks"

	links, err := s.repo.List(ctx)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	return nonNil(links), nil
}

func (s *service) GetLinksByTag(ctx context.Context, tag string) ([]Link, error) {
	const op = "links.service.GetLinksByTag"

	// Stored tags are never empty, so nothing can match.
	if tag == "" {
		return []Link{}, nil
	}

	links, err := s.repo.ListByTag(ctx, tag)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	return nonNil(links), nil
}

func (s *service) DeleteLink(ctx context.Context, id uuid.UUID) error {
	const op = "links.service.DeleteLink"

	if err := s.repo.Delete(ctx, id); err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}
	return nil
}

func (s *service) UpdateLinkNotes(ctx context.Context, id uuid.UUID, notes *string) (Link, error) {
	const op = "links.service.UpdateLinkNotes"

	updated, err := s.repo.UpdateNotes(ctx, id, notes)
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}
	return updated, nil
}

func nonNil(links []Link) []Link {
	if links == nil {
		return []Link{}
	}
	return links
}
