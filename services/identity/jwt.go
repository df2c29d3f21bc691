package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// JWTResolver resolves bearer tokens as HMAC-signed JWTs whose subject claim
// is the caller identity.
type JWTResolver struct {
	Secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{Secret: []byte(secret)}
}

func (r *JWTResolver) Resolve(_ context.Context, bearerToken string) (string, error) {
	token, err := jwt.Parse(bearerToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.Secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

// IssueToken mints a token for the given subject. Used by operational tooling
// and tests; production callers arrive with tokens minted by the identity
// collaborator.
func (r *JWTResolver) IssueToken(subject string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(r.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
