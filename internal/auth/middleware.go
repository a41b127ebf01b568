package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// CookieName is the cookie that carries the session token for browser clients.
const CookieName = "token"

// Messages returned to clients. They never say whether the account exists.
const (
	msgNoToken      = "no token provided, authorization denied"
	msgInvalidToken = "invalid or expired token"
	msgServerError  = "server error during authentication"
)

// TokenValidator is what RequireAuth needs from a token service.
// *TokenService satisfies it.
type TokenValidator interface {
	Validate(tokenStr string) (string, error)
}

// contextKey is an unexported type used for context keys in this package, so
// no other package can read or shadow the account ID.
type contextKey string

const accountIDKey contextKey = "accountID"

// RequireAuth gates a route on a valid session token.
//
// For each request it runs a small state machine:
//
//	no token in header or cookie   → 401 "no token provided"
//	token fails ErrInvalidToken    → 401 "invalid or expired token"
//	any other validation error     → 500 (the server is broken, not the caller)
//	valid                          → account ID stored in context, next handler runs
//
// Failures are terminal: the next handler is never called.
func RequireAuth(tokens TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := TokenFromRequest(r)
			if raw == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", msgNoToken)
				return
			}

			accountID, err := tokens.Validate(raw)
			if err != nil {
				if errors.Is(err, ErrInvalidToken) {
					logger.Debug("rejected session token",
						slog.String("path", r.URL.Path),
						slog.String("reason", err.Error()),
					)
					writeAuthError(w, http.StatusUnauthorized, "unauthorized", msgInvalidToken)
					return
				}
				logger.Error("token validation failed unexpectedly",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				writeAuthError(w, http.StatusInternalServerError, "internal_error", msgServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccountID(r.Context(), accountID)))
		})
	}
}

// TokenFromRequest returns the raw session token, or "" if there is none.
//
// The Authorization header ("Bearer <jwt>") is checked first, then the
// "token" cookie. Either carrier holds the same kind of token.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			if tok = strings.TrimSpace(tok); tok != "" {
				return tok
			}
		}
	}

	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}

	return ""
}

// WithAccountID returns a copy of ctx carrying the authenticated account ID.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AccountIDFromContext retrieves the authenticated account's ID.
//
// Returns ("", false) when RequireAuth did not run for this request.
// Handlers must use this value, and never a client-supplied ID, as the scope
// for every data access.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountIDKey).(string)
	return id, ok && id != ""
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
