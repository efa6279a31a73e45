package auth

import (
	"context"
	"net/http"
	"strings"

	"newsmarker/internal/core"
)

type contextKey string

const userIDContextKey = contextKey("user_id")

// Middleware resolves bearer tokens into request identities
type Middleware struct {
	verifier Verifier
	logger   *core.Logger
}

// NewMiddleware creates new authentication middleware
func NewMiddleware(verifier Verifier, logger *core.Logger) *Middleware {
	return &Middleware{
		verifier: verifier,
		logger:   logger,
	}
}

// Authenticate adds the caller's user id to the request context. Missing
// or invalid tokens leave the request anonymous; routes that need a user
// reject it with RequireAuthenticatedUser.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.verifier.VerifyToken(r.Context(), token)
		if err != nil {
			m.logger.WithContext(r.Context()).Debug("Rejected bearer token", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	})
}

// RequireAuthenticatedUser rejects anonymous requests with 401 UNAUTHENTICATED
func (m *Middleware) RequireAuthenticatedUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			core.WriteErrorResponse(w, http.StatusUnauthorized,
				core.NewUnauthenticatedError("Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	}
}

// bearerToken extracts the token from an Authorization header value
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ContextWithUserID stores an authenticated user id in ctx
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}
