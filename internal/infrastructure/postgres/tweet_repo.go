package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tweetColumns = `id, user_id, content, image, created_at, updated_at`

type TweetRepository struct {
	pool *pgxpool.Pool
}

func NewTweetRepository(pool *pgxpool.Pool) *TweetRepository {
	return &TweetRepository{pool: pool}
}

func (r *TweetRepository) Create(ctx context.Context, t *domain.Tweet) (*domain.Tweet, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tweets (user_id, content, image)
		VALUES ($1, $2, $3)
		RETURNING id`,
		t.UserID, t.Content, t.Image,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert tweet: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *TweetRepository) FindByID(ctx context.Context, id int64) (*domain.Tweet, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT t.id, t.user_id, t.content, t.image, t.created_at, t.updated_at,
		       u.id, u.email, u.name, u.username, u.bio, u.image, u.created_at, u.updated_at
		FROM tweets t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1`, id)

	var tw domain.Tweet
	var u domain.User
	err := row.Scan(
		&tw.ID, &tw.UserID, &tw.Content, &tw.Image, &tw.CreatedAt, &tw.UpdatedAt,
		&u.ID, &u.Email, &u.Name, &u.Username, &u.Bio, &u.Image, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTweetNotFound
		}
		return nil, fmt.Errorf("scan tweet: %w", err)
	}
	tw.User = &u
	return &tw, nil
}

func (r *TweetRepository) List(ctx context.Context) ([]*domain.Tweet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.user_id, t.content, t.image, t.created_at, t.updated_at,
		       u.id, u.name, u.username, u.image
		FROM tweets t
		JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tweets: %w", err)
	}
	defer rows.Close()

	var tweets []*domain.Tweet
	for rows.Next() {
		var tw domain.Tweet
		var u domain.User
		err := rows.Scan(
			&tw.ID, &tw.UserID, &tw.Content, &tw.Image, &tw.CreatedAt, &tw.UpdatedAt,
			&u.ID, &u.Name, &u.Username, &u.Image,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tweet: %w", err)
		}
		tw.User = &u
		tweets = append(tweets, &tw)
	}
	return tweets, rows.Err()
}

func (r *TweetRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Tweet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+tweetColumns+`
		FROM tweets
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user tweets: %w", err)
	}
	defer rows.Close()

	var tweets []*domain.Tweet
	for rows.Next() {
		var tw domain.Tweet
		err := rows.Scan(&tw.ID, &tw.UserID, &tw.Content, &tw.Image, &tw.CreatedAt, &tw.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan tweet: %w", err)
		}
		tweets = append(tweets, &tw)
	}
	return tweets, rows.Err()
}

func (r *TweetRepository) Update(ctx context.Context, id int64, content string, image *string) (*domain.Tweet, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tweets
		SET    content = $2, image = $3, updated_at = NOW()
		WHERE id = $1`, id, content, image)
	if err != nil {
		return nil, fmt.Errorf("update tweet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrTweetNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *TweetRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tweets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tweet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTweetNotFound
	}
	return nil
}
