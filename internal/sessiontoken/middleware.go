package sessiontoken

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/parcelpoint/tracking-backend/internal/common"
)

type shopKey struct{}

// ShopFromContext returns the verified shop domain stored by RequireToken.
func ShopFromContext(ctx context.Context) (string, bool) {
	shop, ok := ctx.Value(shopKey{}).(string)
	return shop, ok
}

// Middleware guards embedded-admin routes with session-token auth.
type Middleware struct {
	Verifier Verifier
}

// RequireToken validates the Authorization bearer token and injects the
// shop domain into the request context.
func (m Middleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token", nil)
			return
		}

		shop, err := m.Verifier.Verify(strings.TrimSpace(raw), time.Now())
		if err != nil {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), shopKey{}, shop)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
