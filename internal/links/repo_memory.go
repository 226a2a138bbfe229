package links

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/sundayezeilo/linkshelf/internal/errx"
)

type memoryEntry struct {
	link Link
	seq  uint64
}

// memoryRepo keeps links in process memory. A tag index maps each tag to
// the ids carrying it and is updated together with the primary map under
// the same lock.
type memoryRepo struct {
	cfg RepositoryConfig

	mu    sync.RWMutex
	links map[uuid.UUID]memoryEntry
	byTag map[string]map[uuid.UUID]struct{}
	seq   uint64
}

// NewMemoryRepository creates an empty in-memory Repository. Each call
// returns an independent store.
func NewMemoryRepository(config *RepositoryConfig) Repository {
	return &memoryRepo{
		cfg:   config.withDefaults(),
		links: make(map[uuid.UUID]memoryEntry),
		byTag: make(map[string]map[uuid.UUID]struct{}),
	}
}

func (r *memoryRepo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "links.memoryRepo.Create"

	if err := ctx.Err(); err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}

	link, err := r.cfg.stamp(op, link)
	if err != nil {
		return Link{}, err
	}
	stored := link.clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[stored.ID]; exists {
		return Link{}, errx.E(op, errx.Invalid, errors.New("duplicate link id"))
	}

	r.seq++
	r.links[stored.ID] = memoryEntry{link: stored, seq: r.seq}
	for _, tag := range stored.Tags {
		ids, ok := r.byTag[tag]
		if !ok {
			ids = make(map[uuid.UUID]struct{})
			r.byTag[tag] = ids
		}
		ids[stored.ID] = struct{}{}
	}

	return stored.clone(), nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Link, error) {
	const op = "links.memoryRepo.List"

	if err := ctx.Err(); err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]memoryEntry, 0, len(r.links))
	for _, e := range r.links {
		entries = append(entries, e)
	}
	return newestFirst(entries), nil
}

func (r *memoryRepo) ListByTag(ctx context.Context, tag string) ([]Link, error) {
	const op = "links.memoryRepo.ListByTag"

	if err := ctx.Err(); err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byTag[tag]
	entries := make([]memoryEntry, 0, len(ids))
	for id := range ids {
		entries = append(entries, r.links[id])
	}
	return newestFirst(entries), nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "links.memoryRepo.Delete"

	if err := ctx.Err(); err != nil {
		return errx.E(op, errx.Unavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.links[id]
	if !ok {
		return nil
	}

	delete(r.links, id)
	for _, tag := range entry.link.Tags {
		ids := r.byTag[tag]
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.byTag, tag)
		}
	}
	return nil
}

func (r *memoryRepo) UpdateNotes(ctx context.Context, id uuid.UUID, notes *string) (Link, error) {
	const op = "links.memoryRepo.UpdateNotes"

	if err := ctx.Err(); err != nil {
		return Link{}, errx.E(op, errx.Unavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.links[id]
	if !ok {
		return Link{}, errx.Errorf(op, errx.NotFound, "link %s not found", id)
	}

	entry.link.Notes = cloneString(notes)
	r.links[id] = entry

	return entry.link.clone(), nil
}

// newestFirst sorts by CreatedAt descending; equal timestamps fall back to
// insertion order, latest first.
func newestFirst(entries []memoryEntry) []Link {
	slices.SortFunc(entries, func(a, b memoryEntry) int {
		if c := b.link.CreatedAt.Compare(a.link.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	out := make([]Link, len(entries))
	for i, e := range entries {
		out[i] = e.link.clone()
	}
	return out
}
