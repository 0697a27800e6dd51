// Package auth provides API key authentication for the scouting data API.
//
// Every request outside the public paths must carry an API key in a
// configurable header. The key is looked up in the credential store and the
// matching credential, with its access level, travels in the request context.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/citruscircuits/grosbeak/internal/sources"
)

// DefaultHeader carries the API key when none is configured
const DefaultHeader = "X-API-Key"

type contextKey struct{}

// WithCredential returns a context carrying cred
func WithCredential(ctx context.Context, cred *sources.Credential) context.Context {
	return context.WithValue(ctx, contextKey{}, cred)
}

// CredentialFromContext returns the authenticated credential, if any
func CredentialFromContext(ctx context.Context) (*sources.Credential, bool) {
	cred, ok := ctx.Value(contextKey{}).(*sources.Credential)
	return cred, ok && cred != nil
}

// apiKeyMiddleware authenticates requests against a credential store.
type apiKeyMiddleware struct {
	store  sources.CredentialStore
	header string
}

// NewAPIKeyMiddleware creates the authentication middleware. An empty header
// name selects DefaultHeader.
func NewAPIKeyMiddleware(store sources.CredentialStore, header string) (func(http.Handler) http.Handler, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}
	if header == "" {
		header = DefaultHeader
	}
	m := &apiKeyMiddleware{store: store, header: http.CanonicalHeaderKey(header)}
	return m.Middleware, nil
}

// Middleware returns an HTTP middleware function that performs authentication.
func (m *apiKeyMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := strings.TrimSpace(r.Header.Get(m.header))
		if apiKey == "" {
			slog.Warn("API key missing",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path)
			m.writeError(w, http.StatusUnauthorized, fmt.Sprintf("missing %s header", m.header))
			return
		}

		cred, err := m.store.LookupCredential(r.Context(), apiKey)
		switch {
		case errors.Is(err, sources.ErrCredentialNotFound):
			slog.Warn("API key rejected",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path)
			m.writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		case err != nil:
			slog.Error("Credential lookup failed",
				"error", err,
				"path", r.URL.Path)
			m.writeError(w, http.StatusServiceUnavailable, "authentication unavailable")
			return
		}

		slog.Debug("Authentication successful",
			"description", cred.Description,
			"level", cred.Level,
			"path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), cred)))
	})
}

// writeError writes a JSON error response. 401 responses name the expected
// header in WWW-Authenticate.
func (m *apiKeyMiddleware) writeError(w http.ResponseWriter, status int, description string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf(`APIKey realm="grosbeak", header="%s"`, sanitizeHeaderValue(m.header)))
	}
	writeJSONError(w, status, description)
}

// RequireLevel rejects requests whose credential is below level with 403.
// It must run after the authentication middleware.
func RequireLevel(level int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, ok := CredentialFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if cred.Level < level {
				slog.Warn("Insufficient access level",
					"description", cred.Description,
					"level", cred.Level,
					"required", level,
					"path", r.URL.Path)
				writeJSONError(w, http.StatusForbidden, "insufficient access level")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// anonymousCredential is attached to every request when authentication is
// disabled.
var anonymousCredential = sources.Credential{Description: "anonymous", Level: sources.LevelAdmin}

// anonymousMiddleware passes requests through with full access.
func anonymousMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cred := anonymousCredential
		next.ServeHTTP(w, r.WithContext(WithCredential(r.Context(), &cred)))
	})
}

// NewAuthMiddleware returns the API key middleware, or a pass-through
// granting full access when enabled is false.
func NewAuthMiddleware(enabled bool, store sources.CredentialStore, header string) (func(http.Handler) http.Handler, error) {
	if !enabled {
		slog.Warn("auth: disabled, every request has admin access")
		return anonymousMiddleware, nil
	}
	slog.Info("auth: API key mode", "header", http.CanonicalHeaderKey(header))
	return NewAPIKeyMiddleware(store, header)
}

// WrapWithPublicPaths wraps an auth middleware to bypass authentication for public paths.
// Requests to public paths are passed directly to the next handler,
// while all other requests go through the provided auth middleware.
func WrapWithPublicPaths(
	authMw func(http.Handler) http.Handler,
	publicPaths []string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// Pre-wrap the handler once during initialization, not per-request
		authWrappedNext := authMw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsPublicPath(r.URL.Path, publicPaths) {
				authWrappedNext.ServeHTTP(w, r)
			} else {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// sanitizeHeaderValue removes characters that could enable header injection attacks.
func sanitizeHeaderValue(s string) string {
	if !strings.ContainsAny(s, "\r\n\"") {
		return s
	}
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func writeJSONError(w http.ResponseWriter, status int, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := struct {
		Error string `json:"error"`
	}{
		Error: description,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
