package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/chirp/internal/domain"
)

// TokenRepository is the single source of truth for credential validity.
// Implementations must make RedeemLoginCode's read-then-flip atomic so a
// concurrently replayed email code cannot mint two session pairs.
type TokenRepository interface {
	// CreateLoginCode stores an EMAIL token for the user with the given
	// address, creating the user row if absent, in one transaction.
	CreateLoginCode(ctx context.Context, email, code string, expiresAt time.Time) (*domain.Token, error)

	// FindByCode returns the EMAIL token carrying the given code, owner
	// included. domain.ErrTokenNotFound when absent.
	FindByCode(ctx context.Context, code string) (*domain.Token, error)

	// FindByID returns the token with the given id, owner included.
	// domain.ErrTokenNotFound when absent.
	FindByID(ctx context.Context, id int64) (*domain.Token, error)

	// CreateSessionPair inserts an API and a REFRESH token for the user.
	CreateSessionPair(ctx context.Context, userID int64, accessExp, refreshExp time.Time) (access, refresh *domain.Token, err error)

	// RedeemLoginCode consumes the EMAIL token and mints a session pair in a
	// single transaction. Consumption is conditional on the token still being
	// valid; losing a concurrent redemption returns domain.ErrCodeInvalid and
	// nothing is created.
	RedeemLoginCode(ctx context.Context, emailTokenID, userID int64, accessExp, refreshExp time.Time) (access, refresh *domain.Token, err error)

	// Invalidate flips valid to false. Unknown ids are a no-op.
	Invalidate(ctx context.Context, id int64) error

	// CountLive returns the number of valid, unexpired tokens per type.
	CountLive(ctx context.Context) (map[domain.TokenType]int64, error)
}
