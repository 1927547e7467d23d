package domain

import (
	"errors"
	"time"
)

var ErrTweetNotFound = errors.New("tweet not found")

type Tweet struct {
	ID        int64
	UserID    int64
	Content   string
	Image     *string
	CreatedAt time.Time
	UpdatedAt time.Time

	User *User // author, populated by lookups that join users
}
