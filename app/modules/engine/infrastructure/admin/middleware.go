package engineadmin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type claimsKey struct{}

// ClaimsFrom returns the verified claims RequireAdmin stored on ctx.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// RequireAdmin admits requests carrying a bearer token verifier accepts.
// Wrong role is 403; anything else wrong is 401.
func RequireAdmin(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(r.Context(), "Admin token rejected",
					slog.String("path", r.URL.Path),
					slog.Any("error", err),
				)
				if errors.Is(err, ErrNotAdmin) {
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
		})
	}
}
