// Package token mints and verifies the bearer strings handed to clients.
package token

import (
	"errors"
	"fmt"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Signer wraps token-record ids into signed HS256 bearer strings. The payload
// is exactly {tokenId}: no exp and no iat; validity and expiry live on the
// token row and are re-checked against the store on every use, so the bearer
// itself carries no authority beyond the id.
type Signer struct {
	key []byte
}

func NewSigner(key []byte) *Signer {
	return &Signer{key: key}
}

func (s *Signer) Sign(tokenID int64) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"tokenId": tokenID})
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign bearer token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and extracts the wrapped token id. Tampered or
// garbage input fails, as does a well-signed payload without a usable tokenId
// claim; callers treat either as unauthenticated.
func (s *Signer) Verify(bearer string) (int64, error) {
	t, err := jwt.Parse(bearer, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	})
	if err != nil || !t.Valid {
		return 0, domain.ErrTokenInvalid
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, domain.ErrTokenInvalid
	}

	id, ok := claims["tokenId"].(float64)
	if !ok || id <= 0 {
		return 0, domain.ErrTokenInvalid
	}
	return int64(id), nil
}
