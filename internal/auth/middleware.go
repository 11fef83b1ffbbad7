// Package auth guards the mutating API routes behind a shared bearer token.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ambrevelours/av-suite/internal/shared"
)

// ActorHeader optionally names the operator behind a request for the audit trail.
const ActorHeader = "X-Actor"

// DefaultActor is recorded when a request carries no ActorHeader.
const DefaultActor = "api"

// ErrEmptyToken is returned by HashToken for blank input.
var ErrEmptyToken = errors.New("auth: empty token")

// Middleware checks bearer tokens against a bcrypt hash.
type Middleware struct {
	Hash   string
	Logger *slog.Logger
}

// Enabled reports whether a token hash is configured.
func (m Middleware) Enabled() bool {
	return strings.TrimSpace(m.Hash) != ""
}

// RequireToken rejects requests without a valid bearer token. With no hash configured the
// check is disabled and every request passes.
func (m Middleware) RequireToken() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.Enabled() {
				token, ok := bearerToken(r)
				if !ok {
					w.Header().Set("WWW-Authenticate", `Bearer realm="av-suite"`)
					http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
					return
				}
				if err := bcrypt.CompareHashAndPassword([]byte(m.Hash), []byte(token)); err != nil {
					if m.Logger != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
						m.Logger.Error("auth compare token", slog.Any("error", err))
					}
					http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
					return
				}
			}
			actor := strings.TrimSpace(r.Header.Get(ActorHeader))
			if actor == "" {
				actor = DefaultActor
			}
			next.ServeHTTP(w, r.WithContext(shared.WithActor(r.Context(), actor)))
		})
	}
}

// HashToken produces the value expected in API_TOKEN_HASH.
func HashToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
