package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tokenWithUserColumns = `
	t.id, t.type, t.email_token, t.expiration, t.valid, t.user_id, t.created_at,
	u.id, u.email, u.name, u.username, u.bio, u.image, u.created_at, u.updated_at`

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) CreateLoginCode(ctx context.Context, email, code string, expiresAt time.Time) (*domain.Token, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Upsert-on-login: a first login attempt creates the user row.
	var userID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO users (email) VALUES ($1)
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id`, email).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	token, err := insertToken(ctx, tx, domain.TokenEmail, &code, expiresAt, userID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return token, nil
}

func (r *TokenRepository) FindByCode(ctx context.Context, code string) (*domain.Token, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tokenWithUserColumns+`
		FROM tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.email_token = $1`, code)
	return scanTokenWithUser(row)
}

func (r *TokenRepository) FindByID(ctx context.Context, id int64) (*domain.Token, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tokenWithUserColumns+`
		FROM tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1`, id)
	return scanTokenWithUser(row)
}

func (r *TokenRepository) CreateSessionPair(ctx context.Context, userID int64, accessExp, refreshExp time.Time) (*domain.Token, *domain.Token, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	access, refresh, err := insertPair(ctx, tx, userID, accessExp, refreshExp)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}
	return access, refresh, nil
}

func (r *TokenRepository) RedeemLoginCode(ctx context.Context, emailTokenID, userID int64, accessExp, refreshExp time.Time) (*domain.Token, *domain.Token, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Conditional flip: a concurrent redemption of the same code loses here
	// and no pair is minted for it.
	tag, err := tx.Exec(ctx,
		`UPDATE tokens SET valid = FALSE WHERE id = $1 AND valid`, emailTokenID)
	if err != nil {
		return nil, nil, fmt.Errorf("consume login code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil, domain.ErrCodeInvalid
	}

	access, refresh, err := insertPair(ctx, tx, userID, accessExp, refreshExp)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit tx: %w", err)
	}
	return access, refresh, nil
}

func (r *TokenRepository) Invalidate(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tokens SET valid = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	return nil
}

func (r *TokenRepository) CountLive(ctx context.Context) (map[domain.TokenType]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT type, COUNT(*)
		FROM tokens
		WHERE valid AND expiration > NOW()
		GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("count live tokens: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.TokenType]int64)
	for rows.Next() {
		var tt domain.TokenType
		var n int64
		if err := rows.Scan(&tt, &n); err != nil {
			return nil, fmt.Errorf("scan token count: %w", err)
		}
		counts[tt] = n
	}
	return counts, rows.Err()
}

func insertPair(ctx context.Context, tx pgx.Tx, userID int64, accessExp, refreshExp time.Time) (*domain.Token, *domain.Token, error) {
	access, err := insertToken(ctx, tx, domain.TokenAPI, nil, accessExp, userID)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := insertToken(ctx, tx, domain.TokenRefresh, nil, refreshExp, userID)
	if err != nil {
		return nil, nil, err
	}
	return access, refresh, nil
}

func insertToken(ctx context.Context, tx pgx.Tx, tokenType domain.TokenType, code *string, expiration time.Time, userID int64) (*domain.Token, error) {
	token := &domain.Token{
		Type:       tokenType,
		EmailToken: code,
		Expiration: expiration,
		UserID:     userID,
	}
	err := tx.QueryRow(ctx, `
		INSERT INTO tokens (type, email_token, expiration, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, valid, created_at`,
		tokenType, code, expiration, userID,
	).Scan(&token.ID, &token.Valid, &token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert %s token: %w", tokenType, err)
	}
	return token, nil
}

func scanTokenWithUser(row pgx.Row) (*domain.Token, error) {
	var t domain.Token
	var u domain.User
	err := row.Scan(
		&t.ID, &t.Type, &t.EmailToken, &t.Expiration, &t.Valid, &t.UserID, &t.CreatedAt,
		&u.ID, &u.Email, &u.Name, &u.Username, &u.Bio, &u.Image, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	t.User = &u
	return &t, nil
}
