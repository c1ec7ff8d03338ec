package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

type contextKey string

const OwnerKey contextKey = "owner"

// APIKeyAuth validates the API key from the Authorization header and puts
// the owning user id into the request context.
func APIKeyAuth(validKeys map[string]int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			// Support both "Bearer <key>" and "<key>" formats
			apiKey := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if apiKey == "" {
				http.Error(w, "invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			// constant-time comparison, semua key dicek
			var owner int64
			for key, id := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					owner = id
				}
			}
			if owner == 0 {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := WithOwner(r.Context(), owner)
			l := zerolog.Ctx(ctx).With().Int64("owner_id", owner).Logger()
			ctx = l.WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithOwner(ctx context.Context, owner int64) context.Context {
	return context.WithValue(ctx, OwnerKey, owner)
}

// OwnerFromContext returns the authenticated user id, or 0.
func OwnerFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(OwnerKey).(int64); ok {
		return id
	}
	return 0
}
