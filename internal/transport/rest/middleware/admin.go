package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Emeka-Ugbanu-hub/DiscordBackend/internal/identity"
)

type contextKey string

const identityKey contextKey = "identity"

// AdminMiddleware gates routes behind the admin allow-list.
type AdminMiddleware struct {
	gate *identity.AdminGate
}

// NewAdminMiddleware creates a new admin middleware
func NewAdminMiddleware(gate *identity.AdminGate) *AdminMiddleware {
	return &AdminMiddleware{gate: gate}
}

// RequireAdmin validates the bearer token and checks the identity
// against the allow-list before letting the request through.
func (m *AdminMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			http.Error(w, `{"success":false,"error":"missing authorization header"}`, http.StatusUnauthorized)
			return
		}

		id, err := m.gate.Check(r.Context(), token)
		if err != nil {
			if errors.Is(err, identity.ErrNotAllowed) {
				http.Error(w, `{"success":false,"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			http.Error(w, `{"success":false,"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity returns the verified identity stored by RequireAdmin.
func GetIdentity(ctx context.Context) (identity.Identity, bool) {
	id, ok := ctx.Value(identityKey).(identity.Identity)
	return id, ok
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") || strings.HasPrefix(auth, "bearer ") {
		return auth[7:]
	}
	return ""
}
