package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/ErlanBelekov/chirp/internal/email"
	"github.com/ErlanBelekov/chirp/internal/repository"
	"github.com/ErlanBelekov/chirp/internal/token"
)

const (
	emailCodeTTL    = 10 * time.Minute
	accessTokenTTL  = 12 * time.Hour
	refreshTokenTTL = 3 * 30 * 24 * time.Hour // three months
)

// loginLimiter is the subset of rate.Limiter the usecase needs.
type loginLimiter interface {
	AllowLogin(ctx context.Context, email, ip string) error
}

type AuthUsecase struct {
	tokens  repository.TokenRepository
	signer  *token.Signer
	email   email.Sender
	limiter loginLimiter
}

// NewAuthUsecase wires the session lifecycle. A nil limiter disables login
// throttling (tests, local tooling).
func NewAuthUsecase(tokens repository.TokenRepository, signer *token.Signer, emailSender email.Sender, limiter loginLimiter) *AuthUsecase {
	return &AuthUsecase{
		tokens:  tokens,
		signer:  signer,
		email:   emailSender,
		limiter: limiter,
	}
}

// SessionPair is the signed bearer representation of a freshly minted
// API+REFRESH token pair.
type SessionPair struct {
	AccessToken  string
	RefreshToken string
}

// RequestLoginCode generates an 8-digit one-time code, stores it as an EMAIL
// token for the user (creating the user row if absent) and emails it.
// Persistence and delivery failures propagate to the caller.
func (u *AuthUsecase) RequestLoginCode(ctx context.Context, emailAddr, clientIP string) error {
	if u.limiter != nil {
		if err := u.limiter.AllowLogin(ctx, emailAddr, clientIP); err != nil {
			return err
		}
	}

	code, err := generateLoginCode()
	if err != nil {
		return fmt.Errorf("generate login code: %w", err)
	}

	if _, err := u.tokens.CreateLoginCode(ctx, emailAddr, code, time.Now().Add(emailCodeTTL)); err != nil {
		return fmt.Errorf("store login code: %w", err)
	}

	subject := "Your one time password"
	body := "Your one time password: " + code
	if err := u.email.Send(ctx, emailAddr, subject, body); err != nil {
		return fmt.Errorf("send login code: %w", err)
	}
	return nil
}

// generateLoginCode draws uniformly from the 8-digit space, 10000000-99999999.
func generateLoginCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+10000000, 10), nil
}

// Authenticate exchanges a one-time email code for a session pair. The code
// is consumed atomically with the pair mint; a concurrent replay loses with
// domain.ErrCodeInvalid.
func (u *AuthUsecase) Authenticate(ctx context.Context, emailAddr, code string) (*SessionPair, error) {
	t, err := u.tokens.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrCodeInvalid
		}
		return nil, fmt.Errorf("find login code: %w", err)
	}

	if !t.Valid {
		return nil, domain.ErrCodeInvalid
	}
	if time.Now().After(t.Expiration) {
		return nil, domain.ErrCodeExpired
	}
	// The code must be redeemed against the email it was issued for; a code
	// issued to one user cannot be replayed with another user's address.
	if t.User == nil || t.User.Email != emailAddr {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now()
	access, refresh, err := u.tokens.RedeemLoginCode(ctx, t.ID, t.UserID,
		now.Add(accessTokenTTL), now.Add(refreshTokenTTL))
	if err != nil {
		if errors.Is(err, domain.ErrCodeInvalid) {
			return nil, domain.ErrCodeInvalid
		}
		return nil, fmt.Errorf("redeem login code: %w", err)
	}

	return u.signPair(access, refresh)
}

// RefreshResult reports the outcome of a refresh call. StillValid means the
// presented access token was still live, not that the session survives;
// a successful rotation has StillValid false and Updated set.
type RefreshResult struct {
	StillValid bool
	Updated    *SessionPair
}

// Refresh checks whether the presented access token is still live and, when
// it is not, rotates the session off the refresh token. Rotation only creates
// new rows; the old pair is not invalidated.
func (u *AuthUsecase) Refresh(ctx context.Context, accessBearer, refreshBearer string) (*RefreshResult, error) {
	accessID, err := u.signer.Verify(accessBearer)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	now := time.Now()
	access, err := u.tokens.FindByID(ctx, accessID)
	if err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		return nil, fmt.Errorf("find access token: %w", err)
	}
	if err == nil && access.Live(now) {
		return &RefreshResult{StillValid: true}, nil
	}

	// Access token is spent; fall back to the refresh token.
	refreshID, err := u.signer.Verify(refreshBearer)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	refresh, err := u.tokens.FindByID(ctx, refreshID)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return &RefreshResult{StillValid: false}, nil
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if !refresh.Live(now) {
		// Both tokens are dead: the caller must re-authenticate. This is a
		// soft outcome, not an error.
		return &RefreshResult{StillValid: false}, nil
	}

	newAccess, newRefresh, err := u.tokens.CreateSessionPair(ctx, refresh.UserID,
		now.Add(accessTokenTTL), now.Add(refreshTokenTTL))
	if err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	pair, err := u.signPair(newAccess, newRefresh)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{StillValid: false, Updated: pair}, nil
}

// Logout invalidates whichever presented tokens can be resolved. Unreadable
// bearers are skipped; store failures are reported so the caller can decide
// to log or surface them.
func (u *AuthUsecase) Logout(ctx context.Context, accessBearer, refreshBearer string) error {
	var errs []error
	for _, bearer := range []string{accessBearer, refreshBearer} {
		if bearer == "" {
			continue
		}
		id, err := u.signer.Verify(bearer)
		if err != nil {
			continue
		}
		if err := u.tokens.Invalidate(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("invalidate token %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// UserFromBearer resolves a bearer string to its owning user, re-checking the
// backing token row. Signature and payload problems yield
// domain.ErrTokenInvalid; a missing, spent or expired row yields
// domain.ErrTokenExpired. The gate never rotates: an expired access token is
// rejected and rotation is only reachable through Refresh.
func (u *AuthUsecase) UserFromBearer(ctx context.Context, bearer string) (*domain.User, error) {
	id, err := u.signer.Verify(bearer)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	t, err := u.tokens.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	if !t.Live(time.Now()) || t.User == nil {
		return nil, domain.ErrTokenExpired
	}
	return t.User, nil
}

func (u *AuthUsecase) signPair(access, refresh *domain.Token) (*SessionPair, error) {
	accessBearer, err := u.signer.Sign(access.ID)
	if err != nil {
		return nil, err
	}
	refreshBearer, err := u.signer.Sign(refresh.ID)
	if err != nil {
		return nil, err
	}
	return &SessionPair{AccessToken: accessBearer, RefreshToken: refreshBearer}, nil
}
