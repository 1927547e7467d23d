package usecase

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/ErlanBelekov/chirp/internal/repository"
)

type TweetUsecase struct {
	repo repository.TweetRepository
}

func NewTweetUsecase(repo repository.TweetRepository) *TweetUsecase {
	return &TweetUsecase{repo: repo}
}

func (u *TweetUsecase) Create(ctx context.Context, userID int64, content string, image *string) (*domain.Tweet, error) {
	tweet, err := u.repo.Create(ctx, &domain.Tweet{
		UserID:  userID,
		Content: content,
		Image:   image,
	})
	if err != nil {
		return nil, fmt.Errorf("create tweet: %w", err)
	}
	return tweet, nil
}

func (u *TweetUsecase) GetByID(ctx context.Context, id int64) (*domain.Tweet, error) {
	tweet, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tweet: %w", err)
	}
	return tweet, nil
}

func (u *TweetUsecase) List(ctx context.Context) ([]*domain.Tweet, error) {
	tweets, err := u.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tweets: %w", err)
	}
	return tweets, nil
}

func (u *TweetUsecase) Update(ctx context.Context, id int64, content string, image *string) (*domain.Tweet, error) {
	tweet, err := u.repo.Update(ctx, id, content, image)
	if err != nil {
		return nil, fmt.Errorf("update tweet: %w", err)
	}
	return tweet, nil
}

func (u *TweetUsecase) Delete(ctx context.Context, id int64) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	return nil
}
