package links

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/linkshelf/internal/errx"
)

// fakeClock is a manually advanced clock safe for concurrent use.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type repoFactory func(t *testing.T, cfg *RepositoryConfig) Repository

func strPtr(s string) *string { return &s }

func newTestLink(title string, tags ...string) Link {
	return Link{
		URL:   "https://example.com/" + title,
		Title: title,
		Tags:  tags,
	}
}

func titles(links []Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.Title
	}
	return out
}

// runRepositoryContract checks the behaviour every backend must share.
func runRepositoryContract(t *testing.T, newRepo repoFactory) {
	ctx := context.Background()

	t.Run("empty store lists nothing", func(t *testing.T) {
		repo := newRepo(t, nil)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		tagged, err := repo.ListByTag(ctx, "go")
		require.NoError(t, err)
		assert.Empty(t, tagged)
	})

	t.Run("create assigns id and creation time", func(t *testing.T) {
		clock := newFakeClock()
		repo := newRepo(t, &RepositoryConfig{Clock: clock.Now})

		in := newTestLink("first", "go", "web")
		in.ImageURL = strPtr("https://cdn.example.com/a.png")
		in.PublishedDate = strPtr("2024-01-01")
		in.Notes = strPtr("read later")
		in.ScrapedTitle = strPtr("First (scraped)")

		created, err := repo.Create(ctx, in)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.True(t, created.CreatedAt.Equal(clock.Now()), "created_at = %v", created.CreatedAt)
		assert.Equal(t, in.URL, created.URL)
		assert.Equal(t, in.Title, created.Title)
		assert.Equal(t, in.ImageURL, created.ImageURL)
		assert.Equal(t, in.PublishedDate, created.PublishedDate)
		assert.Equal(t, in.Notes, created.Notes)
		assert.Equal(t, in.ScrapedTitle, created.ScrapedTitle)
		assert.Nil(t, created.ScrapedImage)
		assert.Nil(t, created.ScrapedDate)
		assert.Equal(t, []string{"go", "web"}, created.Tags)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, created, all[0])
	})

	t.Run("ids are unique", func(t *testing.T) {
		repo := newRepo(t, nil)

		seen := make(map[uuid.UUID]bool)
		for i := range 20 {
			created, err := repo.Create(ctx, newTestLink(fmt.Sprintf("l%d", i)))
			require.NoError(t, err)
			assert.False(t, seen[created.ID], "duplicate id %s", created.ID)
			seen[created.ID] = true
		}
	})

	t.Run("list is newest first", func(t *testing.T) {
		clock := newFakeClock()
		repo := newRepo(t, &RepositoryConfig{Clock: clock.Now})

		for _, title := range []string{"a", "b", "c"} {
			_, err := repo.Create(ctx, newTestLink(title))
			require.NoError(t, err)
			clock.Advance(time.Second)
		}

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, titles(all))
	})

	t.Run("equal timestamps keep a stable order", func(t *testing.T) {
		clock := newFakeClock()
		repo := newRepo(t, &RepositoryConfig{Clock: clock.Now})

		for _, title := range []string{"a", "b", "c", "d"} {
			_, err := repo.Create(ctx, newTestLink(title, "same"))
			require.NoError(t, err)
		}

		first, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, first, 4)
		for range 5 {
			again, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, titles(first), titles(again))
		}

		tagged, err := repo.ListByTag(ctx, "same")
		require.NoError(t, err)
		assert.Equal(t, titles(first), titles(tagged))
	})

	t.Run("list by tag filters exactly and keeps order", func(t *testing.T) {
		clock := newFakeClock()
		repo := newRepo(t, &RepositoryConfig{Clock: clock.Now})

		for _, l := range []Link{
			newTestLink("a", "go"),
			newTestLink("b", "rust"),
			newTestLink("c", "go", "web"),
			newTestLink("d", "Go"),
			newTestLink("e"),
		} {
			_, err := repo.Create(ctx, l)
			require.NoError(t, err)
			clock.Advance(time.Minute)
		}

		tagged, err := repo.ListByTag(ctx, "go")
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a"}, titles(tagged))
		for _, l := range tagged {
			assert.True(t, l.HasTag("go"))
		}

		none, err := repo.ListByTag(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, none)

		partial, err := repo.ListByTag(ctx, "g")
		require.NoError(t, err)
		assert.Empty(t, partial)
	})

	t.Run("tags keep order and duplicates", func(t *testing.T) {
		repo := newRepo(t, nil)

		created, err := repo.Create(ctx, newTestLink("dup", "b", "a", "b"))
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "b"}, created.Tags)

		tagged, err := repo.ListByTag(ctx, "b")
		require.NoError(t, err)
		require.Len(t, tagged, 1)
		assert.Equal(t, []string{"b", "a", "b"}, tagged[0].Tags)
	})

	t.Run("untagged link has empty tags", func(t *testing.T) {
		repo := newRepo(t, nil)

		created, err := repo.Create(ctx, newTestLink("plain"))
		require.NoError(t, err)
		assert.NotNil(t, created.Tags)
		assert.Empty(t, created.Tags)
	})

	t.Run("delete removes from list and tag results", func(t *testing.T) {
		repo := newRepo(t, nil)

		keep, err := repo.Create(ctx, newTestLink("keep", "go"))
		require.NoError(t, err)
		drop, err := repo.Create(ctx, newTestLink("drop", "go"))
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, drop.ID))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, keep.ID, all[0].ID)

		tagged, err := repo.ListByTag(ctx, "go")
		require.NoError(t, err)
		require.Len(t, tagged, 1)
		assert.Equal(t, keep.ID, tagged[0].ID)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		repo := newRepo(t, nil)

		created, err := repo.Create(ctx, newTestLink("once"))
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, created.ID))
		require.NoError(t, repo.Delete(ctx, created.ID))
		require.NoError(t, repo.Delete(ctx, uuid.New()))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("update notes changes only notes", func(t *testing.T) {
		repo := newRepo(t, nil)

		created, err := repo.Create(ctx, newTestLink("noted", "go"))
		require.NoError(t, err)

		updated, err := repo.UpdateNotes(ctx, created.ID, strPtr("great read"))
		require.NoError(t, err)

		want := created
		want.Notes = strPtr("great read")
		assert.Equal(t, want, updated)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, want, all[0])
	})

	t.Run("update notes with nil clears them", func(t *testing.T) {
		repo := newRepo(t, nil)

		in := newTestLink("cleared")
		in.Notes = strPtr("old")
		created, err := repo.Create(ctx, in)
		require.NoError(t, err)

		updated, err := repo.UpdateNotes(ctx, created.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, updated.Notes)
	})

	t.Run("update notes of unknown id is not found", func(t *testing.T) {
		repo := newRepo(t, nil)

		_, err := repo.Create(ctx, newTestLink("other"))
		require.NoError(t, err)

		_, err = repo.UpdateNotes(ctx, uuid.New(), strPtr("x"))
		require.Error(t, err)
		assert.Equal(t, errx.NotFound, errx.KindOf(err))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Nil(t, all[0].Notes)
	})

	t.Run("update notes of deleted id is not found", func(t *testing.T) {
		repo := newRepo(t, nil)

		created, err := repo.Create(ctx, newTestLink("gone"))
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, created.ID))

		_, err = repo.UpdateNotes(ctx, created.ID, strPtr("x"))
		assert.True(t, errx.Is(err, errx.NotFound))
	})

	t.Run("returned links do not alias stored state", func(t *testing.T) {
		repo := newRepo(t, nil)

		in := newTestLink("alias", "go")
		in.Notes = strPtr("original")
		created, err := repo.Create(ctx, in)
		require.NoError(t, err)

		in.Tags[0] = "mutated"
		*in.Notes = "mutated"
		created.Tags[0] = "mutated"

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, []string{"go"}, all[0].Tags)
		assert.Equal(t, "original", *all[0].Notes)
	})

	t.Run("concurrent delete and notes update on one link stay consistent", func(t *testing.T) {
		repo := newRepo(t, nil)

		bystanderIn := newTestLink("bystander", "race")
		bystanderIn.Notes = strPtr("original")
		bystander, err := repo.Create(ctx, bystanderIn)
		require.NoError(t, err)

		for round := range 20 {
			in := newTestLink(fmt.Sprintf("race-%d", round), "race")
			in.Notes = strPtr("original")
			created, err := repo.Create(ctx, in)
			require.NoError(t, err)

			const writers = 4
			var wg sync.WaitGroup
			for i := range writers {
				wg.Add(3)
				go func() {
					defer wg.Done()
					if _, err := repo.UpdateNotes(ctx, bystander.ID, strPtr(fmt.Sprintf("written-%d", i))); err != nil {
						t.Errorf("UpdateNotes() on surviving link: %v", err)
					}
				}()
				go func() {
					defer wg.Done()
					_, err := repo.UpdateNotes(ctx, created.ID, strPtr(fmt.Sprintf("written-%d", i)))
					if err != nil && !errx.Is(err, errx.NotFound) {
						t.Errorf("UpdateNotes() unexpected error: %v", err)
					}
				}()
				go func() {
					defer wg.Done()
					if err := repo.Delete(ctx, created.ID); err != nil {
						t.Errorf("Delete() unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			all, err := repo.List(ctx)
			require.NoError(t, err)
			tagged, err := repo.ListByTag(ctx, "race")
			require.NoError(t, err)
			assert.Equal(t, all, tagged, "round %d: List and ListByTag disagree", round)

			for _, l := range all {
				require.NotNil(t, l.Notes)
				assert.True(t, *l.Notes == "original" || strings.HasPrefix(*l.Notes, "written-"),
					"round %d: unexpected notes %q", round, *l.Notes)
			}
			require.Len(t, all, 1, "round %d: deleted link still listed", round)
			assert.Equal(t, bystander.ID, all[0].ID)

			_, err = repo.UpdateNotes(ctx, created.ID, strPtr("late"))
			assert.True(t, errx.Is(err, errx.NotFound), "round %d: update after delete should be NotFound", round)
		}
	})

	t.Run("concurrent creates are all stored", func(t *testing.T) {
		repo := newRepo(t, nil)

		const n = 25
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Create(ctx, newTestLink(fmt.Sprintf("c%d", i), "bulk"))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		tagged, err := repo.ListByTag(ctx, "bulk")
		require.NoError(t, err)
		assert.Len(t, tagged, n)
	})
}
