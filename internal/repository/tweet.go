package repository

import (
	"context"

	"github.com/ErlanBelekov/chirp/internal/domain"
)

type TweetRepository interface {
	// Create inserts the tweet and returns it with the author populated.
	Create(ctx context.Context, t *domain.Tweet) (*domain.Tweet, error)
	// FindByID returns the tweet with its author. domain.ErrTweetNotFound when absent.
	FindByID(ctx context.Context, id int64) (*domain.Tweet, error)
	// List returns all tweets newest-first with their authors.
	List(ctx context.Context) ([]*domain.Tweet, error)
	// ListByUser returns one user's tweets newest-first, authors not populated.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Tweet, error)
	Update(ctx context.Context, id int64, content string, image *string) (*domain.Tweet, error)
	Delete(ctx context.Context, id int64) error
}
