package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"stockwatch/internal/auth"
)

// SessionCookieName is the cookie carrying the JWT for browser sessions
const SessionCookieName = "stockwatch_token"

// claimsKey is the context key for authenticated claims
type claimsKey struct{}

// Authenticator validates JWT bearer tokens and injects claims into the
// request context. The HTML surface authenticates through the session
// cookie instead of the Authorization header.
type Authenticator struct {
	tokens *auth.TokenManager
	logger *slog.Logger
}

// NewAuthenticator creates JWT authentication middleware
func NewAuthenticator(tokens *auth.TokenManager, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth_middleware")),
	}
}

// Handler rejects requests without a valid token
func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := a.extractToken(r)
		if tokenString == "" {
			a.unauthorized(w, r, "missing credentials")
			return
		}

		claims, err := a.tokens.Verify(tokenString)
		if err != nil {
			a.unauthorized(w, r, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RedirectHandler is like Handler but redirects browsers to the login page
// instead of returning a JSON problem. Used on the HTML routes.
func (a *Authenticator) RedirectHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := a.extractToken(r)
		if tokenString == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		claims, err := a.tokens.Verify(tokenString)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken pulls the token from the Authorization header or,
// failing that, the session cookie.
func (a *Authenticator) extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimPrefix(header, "Bearer ")
		}
		return ""
	}

	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

func (a *Authenticator) unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	a.logger.WarnContext(r.Context(), "request rejected",
		slog.String("reason", detail),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"type":"/errors/unauthorized","title":"Unauthorized","status":401,"detail":"` + detail + `"}`))
}

// ClaimsFromContext returns the authenticated claims, if any
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user ID, or "" when anonymous
func UserIDFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}
