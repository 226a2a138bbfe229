// Package metadata extracts best-effort title, image and publication date
// from remote HTML pages.
//
// Extraction is advisory: every failure mode (bad URL, network error,
// non-2xx status, timeout, unparsable body) degrades to a Result with nil
// fields instead of an error.
package metadata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultTimeout bounds the whole fetch, redirects and body included.
	DefaultTimeout = 5 * time.Second

	// DefaultMaxBodyBytes caps how much of a page is read. Metadata lives in
	// <head>, so truncating large bodies loses nothing useful.
	DefaultMaxBodyBytes = 2 << 20

	DefaultUserAgent = "linkshelf-metadata/1.0 (+https://github.com/sundayezeilo/linkshelf)"
)

// Result holds the extracted fields. A nil field was not found.
type Result struct {
	Title         *string `json:"title"`
	Image         *string `json:"image"`
	PublishedDate *string `json:"publishedDate"`
}

// Empty reports whether no field was resolved.
func (r Result) Empty() bool {
	return r.Title == nil && r.Image == nil && r.PublishedDate == nil
}

// Extractor fetches pages over HTTP and applies the fallback chains.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
	userAgent    string
	logger       *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTimeout sets the per-extraction timeout.
// Defaults to DefaultTimeout if not specified or not positive.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithMaxBodyBytes caps the number of body bytes read per page.
func WithMaxBodyBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxBodyBytes = n
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(e *Extractor) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the HTTP client. The extractor's timeout is still
// enforced through the request context.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) {
		if c != nil {
			e.client = c
		}
	}
}

// WithLogger sets the logger used to report degraded extractions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		timeout:      DefaultTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		userAgent:    DefaultUserAgent,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.client == nil {
		e.client = &http.Client{Timeout: e.timeout}
	}

	return e
}

// Extract performs a single GET against rawURL and returns whatever metadata
// could be resolved. It never fails.
func (e *Extractor) Extract(ctx context.Context, rawURL string) Result {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	logger := e.logger.With("url", rawURL)

	target, err := parseTarget(rawURL)
	if err != nil {
		logger.DebugContext(ctx, "metadata extraction skipped", "error", err.Error())
		return Result{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		logger.DebugContext(ctx, "failed to build request", "error", err.Error())
		return Result{}
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	begin := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		logger.DebugContext(ctx, "metadata fetch failed",
			"error", err.Error(),
			"duration_ms", time.Since(begin).Milliseconds(),
		)
		return Result{}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.WarnContext(ctx, "metadata fetch returned non-2xx status",
			"status", resp.StatusCode,
		)
		return Result{}
	}

	body, err := e.readBody(resp)
	if err != nil {
		if len(body) == 0 {
			logger.DebugContext(ctx, "failed to read page body", "error", err.Error())
			return Result{}
		}
		// Parse what arrived; tags already received still count.
		logger.DebugContext(ctx, "page body truncated by read error",
			"error", err.Error(),
			"bytes", len(body),
		)
	}

	base := target
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	result := Parse(base, bytes.NewReader(body))

	logger.DebugContext(ctx, "metadata extracted",
		"title_found", result.Title != nil,
		"image_found", result.Image != nil,
		"date_found", result.PublishedDate != nil,
		"duration_ms", time.Since(begin).Milliseconds(),
	)

	return result
}

// readBody reads at most maxBodyBytes and transcodes the declared charset to
// UTF-8. On error the bytes read so far are returned alongside it.
func (e *Extractor) readBody(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, e.maxBodyBytes)

	r, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}

	return io.ReadAll(r)
}

// Parse applies the fallback chains to an HTML document. base, when non-nil,
// is used to resolve relative image references.
func Parse(base *url.URL, r io.Reader) Result {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}
	}

	result := Result{
		Title:         titleChain.Resolve(doc),
		Image:         imageChain.Resolve(doc),
		PublishedDate: publishedDateChain.Resolve(doc),
	}
	if result.Image != nil {
		resolved := resolveReference(base, *result.Image)
		result.Image = &resolved
	}

	return result
}

func parseTarget(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		return nil, errors.New("url is empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("url has no host")
	}
	return u, nil
}

// resolveReference returns ref unchanged when it is absolute or unparsable.
func resolveReference(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() {
		return ref
	}
	return base.ResolveReference(u).String()
}
