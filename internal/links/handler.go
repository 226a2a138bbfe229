package links

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/sundayezeilo/linkshelf/internal/errx"
	"github.com/sundayezeilo/linkshelf/internal/httpx"
	"github.com/sundayezeilo/linkshelf/internal/metadata"
)

// Extractor resolves page metadata for a URL. It never fails; missing
// fields are nil.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) metadata.Result
}

// HTTPCreateLinkRequest is the JSON body of POST /api/links. With Scrape
// set, the page is fetched first and its metadata merged into the request.
type HTTPCreateLinkRequest struct {
	CreateLinkRequest
	Scrape bool `json:"scrape,omitempty"`
}

// ScrapeRequest is the JSON body of POST /api/links/scrape.
type ScrapeRequest struct {
	URL string `json:"url"`
}

// UpdateNotesRequest is the JSON body of PATCH /api/links/{id}/notes.
// A null notes value clears them.
type UpdateNotesRequest struct {
	Notes *string `json:"notes"`
}

// Handler provides HTTP handlers for the link service.
type Handler struct {
	service   Service
	extractor Extractor
	logger    *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service   Service
	Extractor Extractor
	Logger    *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service:   cfg.Service,
		extractor: cfg.Extractor,
		logger:    logger,
	}
}

// Register mounts the link routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/links", h.ListLinks)
	mux.HandleFunc("GET /api/links/tag/{tag}", h.ListLinksByTag)
	mux.HandleFunc("POST /api/links", h.CreateLink)
	mux.HandleFunc("POST /api/links/scrape", h.Scrape)
	mux.HandleFunc("DELETE /api/links/{id}", h.DeleteLink)
	mux.HandleFunc("PATCH /api/links/{id}/notes", h.UpdateNotes)
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// ListLinks handles GET /api/links.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	links, err := h.service.GetLinks(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, h.requestLogger(r), err, "Unable to list links at this time.")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, links)
}

// ListLinksByTag handles GET /api/links/tag/{tag}.
func (h *Handler) ListLinksByTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tag := r.PathValue("tag")

	links, err := h.service.GetLinksByTag(ctx, tag)
	if err != nil {
		h.writeServiceError(ctx, w, h.requestLogger(r).With("tag", tag), err,
			"Unable to list links at this time.")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, links)
}

// CreateLink handles POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](w, r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	create := req.CreateLinkRequest
	if req.Scrape && h.extractor != nil {
		create = create.ApplyMetadata(h.extractor.Extract(ctx, create.URL))
	}

	link, err := h.service.CreateLink(ctx, create)
	if err != nil {
		h.writeServiceError(ctx, w, logger.With("url", create.URL), err,
			"Unable to save link at this time. Please try again.")
		return
	}

	logger.InfoContext(ctx, "link created",
		"link_id", link.ID.String(),
		"tags", len(link.Tags),
		"scraped", req.Scrape,
	)

	httpx.WriteJSON(w, http.StatusCreated, link)
}

// Scrape handles POST /api/links/scrape. Extraction never fails, so any
// well-formed request gets a 200 with possibly all-null fields.
func (h *Handler) Scrape(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	req, err := httpx.DecodeJSON[ScrapeRequest](w, r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}
	if req.URL == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "url is required", nil)
		return
	}
	if h.extractor == nil {
		httpx.WriteJSON(w, http.StatusOK, metadata.Result{})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, h.extractor.Extract(ctx, req.URL))
}

// DeleteLink handles DELETE /api/links/{id}. Deleting an unknown id is not
// an error.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteLink(ctx, id); err != nil {
		h.writeServiceError(ctx, w, logger.With("link_id", id.String()), err,
			"Unable to delete link at this time.")
		return
	}

	logger.InfoContext(ctx, "link deleted", "link_id", id.String())
	httpx.WriteNoContent(w)
}

// UpdateNotes handles PATCH /api/links/{id}/notes.
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	req, err := httpx.DecodeJSON[UpdateNotesRequest](w, r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	link, err := h.service.UpdateLinkNotes(ctx, id, req.Notes)
	if err != nil {
		h.writeServiceError(ctx, w, logger.With("link_id", id.String()), err,
			"Unable to update notes at this time.")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, link)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid link id",
			map[string]string{"id": raw})
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError logs err at a level matching its kind and writes the
// mapped JSON error.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error, generic string) {
	kind := errx.KindOf(err)

	attrs := []any{
		"error", err.Error(),
		"error_kind", kind.String(),
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Invalid, errx.NotFound:
		logger.WarnContext(ctx, "request rejected", attrs...)
	default:
		logger.ErrorContext(ctx, "link operation failed", attrs...)
	}

	httpx.WriteKindError(w, err, generic)
}
