package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/alumni-hub/messaging-service/internal/domain"
)

type ctxKey string

const (
	ctxKeyToken    ctxKey = "token"
	ctxKeyUsername ctxKey = "username"
)

// AuthMiddleware trusts the identity the gateway already authenticated:
// Bearer token must be present, X-Username carries the caller's identity.
// Token validation happens upstream.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing bearer token"}`))
			return
		}

		username := domain.NormalizeUsername(r.Header.Get("X-Username"))
		if username == "" {
			http.Error(w, `{"error":"missing X-Username"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyToken, strings.TrimSpace(auth[7:]))
		ctx = context.WithValue(ctx, ctxKeyUsername, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UsernameFromCtx(ctx context.Context) string {
	if v := ctx.Value(ctxKeyUsername); v != nil {
		if u, ok := v.(string); ok {
			return u
		}
	}
	return ""
}
