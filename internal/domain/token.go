package domain

import (
	"errors"
	"time"
)

var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenInvalid  = errors.New("token is invalid")
	ErrTokenExpired  = errors.New("token is expired")
	ErrCodeInvalid   = errors.New("login code is invalid")
	ErrCodeExpired   = errors.New("login code has expired")
	ErrUnauthorized  = errors.New("unauthorized")
)

type TokenType string

const (
	TokenEmail   TokenType = "EMAIL"
	TokenAPI     TokenType = "API"
	TokenRefresh TokenType = "REFRESH"
)

// Token is the store record behind every issued credential. EmailToken is set
// only for EMAIL tokens; API and REFRESH tokens carry no secret of their
// own, the bearer string handed to clients wraps the row id.
//
// Rows are never deleted: consumption and logout only flip Valid, and expiry
// is checked lazily at use time.
type Token struct {
	ID         int64
	Type       TokenType
	EmailToken *string
	Expiration time.Time
	Valid      bool
	UserID     int64
	CreatedAt  time.Time

	User *User // owner, populated by lookups that join users
}

// Live reports whether the token is usable at now. Both the session gate and
// the refresh flow decide through this, so the expiry rule lives in one place.
func (t *Token) Live(now time.Time) bool {
	return t.Valid && now.Before(t.Expiration)
}
