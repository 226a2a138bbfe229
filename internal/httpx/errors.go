package httpx

import (
	"net/http"

	"github.com/sundayezeilo/linkshelf/internal/errx"
)

type kindResponse struct {
	status int
	code   string
}

var kindResponses = map[errx.Kind]kindResponse{
	errx.NotFound:    {http.StatusNotFound, "not_found"},
	errx.Invalid:     {http.StatusBadRequest, "invalid_input"},
	errx.Unavailable: {http.StatusServiceUnavailable, "unavailable"},
	errx.Internal:    {http.StatusInternalServerError, "internal_error"},
}

var fallbackResponse = kindResponse{http.StatusInternalServerError, "internal_error"}

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
func ErrorKindToStatus(kind errx.Kind) int {
	if r, ok := kindResponses[kind]; ok {
		return r.status
	}
	return fallbackResponse.status
}

// ErrorKindToCode maps errx.Kind to error codes for JSON responses.
func ErrorKindToCode(kind errx.Kind) string {
	if r, ok := kindResponses[kind]; ok {
		return r.code
	}
	return fallbackResponse.code
}

// WriteKindError writes err as a JSON error, deriving status and code from
// its kind. Client errors (4xx) expose err's message; server errors get the
// generic message instead, so storage details stay out of responses.
func WriteKindError(w http.ResponseWriter, err error, generic string) {
	kind := errx.KindOf(err)
	status := ErrorKindToStatus(kind)

	message := generic
	if status < http.StatusInternalServerError {
		message = errx.Message(err)
	}
	WriteError(w, status, ErrorKindToCode(kind), message, nil)
}
