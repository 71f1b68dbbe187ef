package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/auth"
)

// StatusFor maps an error to the HTTP status it is reported with.
func StatusFor(err error) int {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, fragments.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fragments.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, fragments.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes the error envelope for err. Server errors are logged with the
// underlying cause and reported with a generic message.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)

	switch status {
	case http.StatusInternalServerError:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		WriteError(w, r, status, "internal server error")
	case http.StatusUnauthorized:
		slog.DebugContext(r.Context(), "unauthorized request", "path", r.URL.Path, "err", err)
		WriteError(w, r, status, "unauthorized")
	case http.StatusNotFound:
		WriteError(w, r, status, "fragment not found")
	default:
		slog.DebugContext(r.Context(), "rejected request", "status", status, "err", err)
		WriteError(w, r, status, err.Error())
	}
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, "not found")
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
