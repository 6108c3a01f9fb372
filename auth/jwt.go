package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// jwtSessions implements SessionStore with stateless signed tokens.
//
// Nothing persists: the token is the session. Destroy is a no-op because a
// stateless token cannot be recalled; expiry is the only revocation.
type jwtSessions struct {
	key []byte
}

func newJWTSessions(key []byte) *jwtSessions {
	return &jwtSessions{key: key}
}

func (s *jwtSessions) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnexpected, err)
	}

	return token, nil
}

func (s *jwtSessions) Lookup(ctx context.Context, token string) (string, error) {
	claims := new(jwt.RegisteredClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: signing method %v", ErrNotValid, t.Header["alg"])
		}

		return s.key, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrNoSession
	}

	return claims.Subject, nil
}

func (s *jwtSessions) Destroy(ctx context.Context, token string) error { return nil }
