// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"
)

// Sentinel errors raised by the transport layer itself.
var (
	ErrBadRequest   = errors.New("malformed request")
	ErrUnauthorized = errors.New("unauthorized")
)

// Mapping binds a domain error to the status it is reported with.
type Mapping struct {
	Err    error
	Status int
	Title  string
}

// Responder maps errors to RFC7807 responses. Unmapped errors are logged and reported as 500.
type Responder struct {
	logger   *slog.Logger
	mappings []Mapping
}

// NewResponder builds a Responder. Earlier mappings win.
func NewResponder(logger *slog.Logger, mappings ...Mapping) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	base := []Mapping{
		{Err: ErrBadRequest, Status: http.StatusBadRequest, Title: "Bad Request"},
		{Err: ErrUnauthorized, Status: http.StatusUnauthorized, Title: "Unauthorized"},
	}
	return &Responder{logger: logger, mappings: append(base, mappings...)}
}

// Error writes the problem response for err.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range rs.mappings {
		if errors.Is(err, m.Err) {
			Problem(w, m.Status, m.Title, err.Error())
			return
		}
	}
	rs.logger.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
