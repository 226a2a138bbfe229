package links

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/linkshelf/internal/metadata"
)

// Link is a saved bookmark. Notes is the only field that changes after
// creation; the Scraped* fields record what extraction found, independently
// of the user-edited Title, ImageURL and PublishedDate.
type Link struct {
	ID            uuid.UUID `json:"id"`
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	ImageURL      *string   `json:"imageUrl"`
	PublishedDate *string   `json:"publishedDate"`
	Tags          []string  `json:"tags"`
	Notes         *string   `json:"notes"`
	ScrapedTitle  *string   `json:"scrapedTitle"`
	ScrapedImage  *string   `json:"scrapedImage"`
	ScrapedDate   *string   `json:"scrapedDate"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HasTag reports whether tag is one of the link's tags. Matching is exact
// and case-sensitive.
func (l Link) HasTag(tag string) bool {
	return slices.Contains(l.Tags, tag)
}

// clone returns a copy that shares no mutable memory with l.
func (l Link) clone() Link {
	c := l
	c.Tags = slices.Clone(l.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.ImageURL = cloneString(l.ImageURL)
	c.PublishedDate = cloneString(l.PublishedDate)
	c.Notes = cloneString(l.Notes)
	c.ScrapedTitle = cloneString(l.ScrapedTitle)
	c.ScrapedImage = cloneString(l.ScrapedImage)
	c.ScrapedDate = cloneString(l.ScrapedDate)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// CreateLinkRequest is the payload for creating a link.
type CreateLinkRequest struct {
	URL           string   `json:"url" validate:"required,max=2048,http_url"`
	Title         string   `json:"title" validate:"required"`
	ImageURL      *string  `json:"imageUrl"`
	PublishedDate *string  `json:"publishedDate"`
	Tags          []string `json:"tags" validate:"dive,required"`
	Notes         *string  `json:"notes"`
	ScrapedTitle  *string  `json:"scrapedTitle"`
	ScrapedImage  *string  `json:"scrapedImage"`
	ScrapedDate   *string  `json:"scrapedDate"`
}

// ApplyMetadata merges an extraction result into the request. The Scraped*
// provenance fields always take the extracted values; Title, ImageURL and
// PublishedDate are filled only where the caller left them empty.
func (r CreateLinkRequest) ApplyMetadata(m metadata.Result) CreateLinkRequest {
	r.ScrapedTitle = cloneString(m.Title)
	r.ScrapedImage = cloneString(m.Image)
	r.ScrapedDate = cloneString(m.PublishedDate)

	if r.Title == "" && m.Title != nil {
		r.Title = *m.Title
	}
	if r.ImageURL == nil {
		r.ImageURL = cloneString(m.Image)
	}
	if r.PublishedDate == nil {
		r.PublishedDate = cloneString(m.PublishedDate)
	}
	return r
}

// toLink builds the unsaved entity; ID and CreatedAt are left for the
// repository to assign.
func (r CreateLinkRequest) toLink() Link {
	return Link{
		URL:           r.URL,
		Title:         r.Title,
		ImageURL:      cloneString(r.ImageURL),
		PublishedDate: cloneString(r.PublishedDate),
		Tags:          slices.Clone(r.Tags),
		Notes:         cloneString(r.Notes),
		ScrapedTitle:  cloneString(r.ScrapedTitle),
		ScrapedImage:  cloneString(r.ScrapedImage),
		ScrapedDate:   cloneString(r.ScrapedDate),
	}
}
