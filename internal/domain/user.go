package domain

import (
	"errors"
	"regexp"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrDuplicateUser = errors.New("email or username already in use")
)

type User struct {
	ID        int64
	Email     string
	Name      *string
	Username  *string
	Bio       *string
	Image     *string // external id of the profile picture, if any
	CreatedAt time.Time
	UpdatedAt time.Time
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}
