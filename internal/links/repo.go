package links

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/linkshelf/internal/errx"
	"github.com/sundayezeilo/linkshelf/internal/idgen"
)

// Repository defines the persistence operations for Link entities.
//
// List and ListByTag return links newest first; links created at the same
// instant keep a stable order between calls. Delete of an unknown id is not
// an error. UpdateNotes of an unknown id fails with errx.NotFound.
type Repository interface {
	Create(ctx context.Context, link Link) (Link, error)
	List(ctx context.Context) ([]Link, error)
	ListByTag(ctx context.Context, tag string) ([]Link, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (Link, error)
}

// RepositoryConfig holds configuration shared by all backends.
type RepositoryConfig struct {
	IDGenerator idgen.Generator
	Clock       func() time.Time
}

func (c *RepositoryConfig) withDefaults() RepositoryConfig {
	var out RepositoryConfig
	if c != nil {
		out = *c
	}
	// UUID v7 keeps ids in allocation order, which backs the tiebreak on
	// equal timestamps.
	if out.IDGenerator == nil {
		out.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}
	if out.Clock == nil {
		out.Clock = time.Now
	}
	return out
}

// stamp assigns the id (unless preset) and the creation time. Timestamps are
// UTC at microsecond precision so every backend round-trips them unchanged.
func (c RepositoryConfig) stamp(op string, link Link) (Link, error) {
	if link.ID == uuid.Nil {
		id, err := c.IDGenerator.Generate()
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}
		link.ID = id
	}
	link.CreatedAt = c.Clock().UTC().Truncate(time.Microsecond)
	if link.Tags == nil {
		link.Tags = []string{}
	}
	return link, nil
}
