package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the dev-mode token claims: subject is the user id.
type Claims struct {
	Username string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier is the offline development verifier: HS256 tokens signed
// with a shared secret stand in for the identity provider.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: claims.Subject, Username: claims.Username, Avatar: claims.Avatar}, nil
}

// Sign issues a dev token for the given identity.
func (v *JWTVerifier) Sign(id Identity) (string, error) {
	claims := &Claims{
		Username: id.Username,
		Avatar:   id.Avatar,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
