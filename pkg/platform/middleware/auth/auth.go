// Package auth authenticates callers from bearer tokens and carries the
// resulting identity through the request context.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	id "custody/pkg/domain"
)

// JWTValidator validates a bearer token and returns its claims.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims are the claims the middleware needs from a validated token.
type JWTClaims struct {
	Identity id.Identity
	JTI      string
}

type contextKeyIdentity struct{}

// ContextKeyIdentity is exported for tests that build contexts by hand.
var ContextKeyIdentity = contextKeyIdentity{}

// GetIdentity returns the authenticated caller, or the zero identity.
func GetIdentity(ctx context.Context) id.Identity {
	caller, ok := ctx.Value(ContextKeyIdentity).(id.Identity)
	if !ok {
		return id.Identity{}
	}
	return caller
}

// WithIdentity stores caller in ctx.
func WithIdentity(ctx context.Context, caller id.Identity) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, caller)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token's identity in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := middleware.GetReqID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}
			if claims.Identity.IsNil() {
				logger.WarnContext(ctx, "unauthorized access - token has no subject",
					"jti", claims.JTI,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, claims.Identity)))
		})
	}
}
