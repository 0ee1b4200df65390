package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrNotAllowed   = errors.New("not on the admin allow list")
)

// Identity is the user record returned by the identity provider.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Verifier turns a bearer token into an identity. Provider failures
// surface as ErrInvalidToken so transports treat them as auth failures.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// AdminGate layers the single allow-list check on top of a Verifier.
type AdminGate struct {
	verifier Verifier
	allowed  map[string]struct{}
}

func NewAdminGate(verifier Verifier, ids []string) *AdminGate {
	allowed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		allowed[id] = struct{}{}
	}
	return &AdminGate{verifier: verifier, allowed: allowed}
}

// Check verifies the token and requires the identity to be allow-listed.
func (g *AdminGate) Check(ctx context.Context, token string) (Identity, error) {
	id, err := g.verifier.Verify(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	if _, ok := g.allowed[id.ID]; !ok {
		return Identity{}, ErrNotAllowed
	}
	return id, nil
}
