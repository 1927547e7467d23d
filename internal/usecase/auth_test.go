package usecase_test

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/ErlanBelekov/chirp/internal/rate"
	"github.com/ErlanBelekov/chirp/internal/token"
	"github.com/ErlanBelekov/chirp/internal/usecase"
)

// ---- fakes ----

type fakeTokenRepo struct {
	createLoginCode   func(ctx context.Context, email, code string, expiresAt time.Time) (*domain.Token, error)
	findByCode        func(ctx context.Context, code string) (*domain.Token, error)
	findByID          func(ctx context.Context, id int64) (*domain.Token, error)
	createSessionPair func(ctx context.Context, userID int64, accessExp, refreshExp time.Time) (*domain.Token, *domain.Token, error)
	redeemLoginCode   func(ctx context.Context, emailTokenID, userID int64, accessExp, refreshExp time.Time) (*domain.Token, *domain.Token, error)
	invalidate        func(ctx context.Context, id int64) error
	countLive         func(ctx context.Context) (map[domain.TokenType]int64, error)
}

func (r *fakeTokenRepo) CreateLoginCode(ctx context.Context, email, code string, expiresAt time.Time) (*domain.Token, error) {
	return r.createLoginCode(ctx, email, code, expiresAt)
}

func (r *fakeTokenRepo) FindByCode(ctx context.Context, code string) (*domain.Token, error) {
	return r.findByCode(ctx, code)
}

func (r *fakeTokenRepo) FindByID(ctx context.Context, id int64) (*domain.Token, error) {
	return r.findByID(ctx, id)
}

func (r *fakeTokenRepo) CreateSessionPair(ctx context.Context, userID int64, accessExp, refreshExp time.Time) (*domain.Token, *domain.Token, error) {
	return r.createSessionPair(ctx, userID, accessExp, refreshExp)
}

func (r *fakeTokenRepo) RedeemLoginCode(ctx context.Context, emailTokenID, userID int64, accessExp, refreshExp time.Time) (*domain.Token, *domain.Token, error) {
	return r.redeemLoginCode(ctx, emailTokenID, userID, accessExp, refreshExp)
}

func (r *fakeTokenRepo) Invalidate(ctx context.Context, id int64) error {
	return r.invalidate(ctx, id)
}

func (r *fakeTokenRepo) CountLive(ctx context.Context) (map[domain.TokenType]int64, error) {
	return r.countLive(ctx)
}

type fakeEmailSender struct {
	send func(ctx context.Context, to, subject, body string) error
}

func (s *fakeEmailSender) Send(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}

type fakeLimiter struct {
	allow func(ctx context.Context, email, ip string) error
}

func (l *fakeLimiter) AllowLogin(ctx context.Context, email, ip string) error {
	return l.allow(ctx, email, ip)
}

// ---- helpers ----

const testJWTKey = "test-jwt-secret-at-least-32-chars!!"

func testSigner() *token.Signer {
	return token.NewSigner([]byte(testJWTKey))
}

func newUsecase(repo *fakeTokenRepo, sender *fakeEmailSender) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(repo, testSigner(), sender, nil)
}

var testUser = &domain.User{ID: 1, Email: "test@example.com"}

func emailToken(code string, expiration time.Time, valid bool) *domain.Token {
	return &domain.Token{
		ID:         100,
		Type:       domain.TokenEmail,
		EmailToken: &code,
		Expiration: expiration,
		Valid:      valid,
		UserID:     testUser.ID,
		User:       testUser,
	}
}

func sessionTokens() (*domain.Token, *domain.Token) {
	access := &domain.Token{ID: 10, Type: domain.TokenAPI, Valid: true, UserID: testUser.ID}
	refresh := &domain.Token{ID: 11, Type: domain.TokenRefresh, Valid: true, UserID: testUser.ID}
	return access, refresh
}

// ---- RequestLoginCode ----

func TestRequestLoginCode_StoresEightDigitCode(t *testing.T) {
	var capturedCode string
	var capturedExpiry time.Time
	var capturedBody string

	repo := &fakeTokenRepo{
		createLoginCode: func(_ context.Context, _, code string, expiresAt time.Time) (*domain.Token, error) {
			capturedCode = code
			capturedExpiry = expiresAt
			return emailToken(code, expiresAt, true), nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, body string) error {
			capturedBody = body
			return nil
		},
	}

	before := time.Now()
	if err := newUsecase(repo, sender).RequestLoginCode(context.Background(), testUser.Email, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !regexp.MustCompile(`^\d{8}$`).MatchString(capturedCode) {
		t.Errorf("code %q is not 8 digits", capturedCode)
	}
	n, _ := strconv.Atoi(capturedCode)
	if n < 10000000 || n > 99999999 {
		t.Errorf("code %d outside the 8-digit space", n)
	}

	wantExpiry := before.Add(10 * time.Minute)
	if capturedExpiry.Before(wantExpiry.Add(-time.Minute)) || capturedExpiry.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("expiry %v not within a minute of now+10m", capturedExpiry)
	}

	if capturedBody != "Your one time password: "+capturedCode {
		t.Errorf("email body %q does not carry the code", capturedBody)
	}
}

func TestRequestLoginCode_StoreError_Propagates(t *testing.T) {
	repoErr := errors.New("db down")
	repo := &fakeTokenRepo{
		createLoginCode: func(_ context.Context, _, _ string, _ time.Time) (*domain.Token, error) {
			return nil, repoErr
		},
	}
	sender := &fakeEmailSender{}

	err := newUsecase(repo, sender).RequestLoginCode(context.Background(), testUser.Email, "")
	if !errors.Is(err, repoErr) {
		t.Errorf("want wrapped repoErr, got %v", err)
	}
}

func TestRequestLoginCode_DeliveryError_Propagates(t *testing.T) {
	sendErr := errors.New("smtp unavailable")
	repo := &fakeTokenRepo{
		createLoginCode: func(_ context.Context, _, code string, expiresAt time.Time) (*domain.Token, error) {
			return emailToken(code, expiresAt, true), nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return sendErr },
	}

	err := newUsecase(repo, sender).RequestLoginCode(context.Background(), testUser.Email, "")
	if !errors.Is(err, sendErr) {
		t.Errorf("want wrapped sendErr, got %v", err)
	}
}

func TestRequestLoginCode_RateLimited(t *testing.T) {
	created := false
	repo := &fakeTokenRepo{
		createLoginCode: func(_ context.Context, _, code string, expiresAt time.Time) (*domain.Token, error) {
			created = true
			return emailToken(code, expiresAt, true), nil
		},
	}
	limiter := &fakeLimiter{
		allow: func(_ context.Context, _, _ string) error { return rate.ErrRateLimited },
	}
	uc := usecase.NewAuthUsecase(repo, testSigner(), &fakeEmailSender{}, limiter)

	err := uc.RequestLoginCode(context.Background(), testUser.Email, "1.2.3.4")
	if !errors.Is(err, rate.ErrRateLimited) {
		t.Errorf("want ErrRateLimited, got %v", err)
	}
	if created {
		t.Error("code created despite rate limit")
	}
}

// ---- Authenticate ----

func TestAuthenticate_Success_ReturnsSignedPair(t *testing.T) {
	var redeemedID int64
	repo := &fakeTokenRepo{
		findByCode: func(_ context.Context, code string) (*domain.Token, error) {
			return emailToken(code, time.Now().Add(5*time.Minute), true), nil
		},
		redeemLoginCode: func(_ context.Context, emailTokenID, _ int64, _, _ time.Time) (*domain.Token, *domain.Token, error) {
			redeemedID = emailTokenID
			a, r := sessionTokens()
			return a, r, nil
		},
	}

	pair, err := newUsecase(repo, &fakeEmailSender{}).Authenticate(context.Background(), testUser.Email, "12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if redeemedID != 100 {
		t.Errorf("redeemed token id = %d, want 100", redeemedID)
	}

	// Both bearers must wrap the ids of the freshly minted rows.
	if id, err := testSigner().Verify(pair.AccessToken); err != nil || id != 10 {
		t.Errorf("access bearer wraps %d (%v), want 10", id, err)
	}
	if id, err := testSigner().Verify(pair.RefreshToken); err != nil || id != 11 {
		t.Errorf("refresh bearer wraps %d (%v), want 11", id, err)
	}
}

func TestAuthenticate_UnknownCode_Invalid(t *testing.T) {
	repo := &fakeTokenRepo{
		findByCode: func(_ context.Context, _ string) (*domain.Token, error) {
			return nil, domain.ErrTokenNotFound
		},
	}

	_, err := newUsecase(repo, &fakeEmailSender{}).Authenticate(context.Background(), testUser.Email, "12345678")
	if !errors.Is(err, domain.ErrCodeInvalid) {
		t.Errorf("want ErrCodeInvalid, got %v", err)
	}
}

func TestAuthenticate_SpentCode_Invalid(t *testing.T) {
	repo := &fakeTokenRepo{
		findByCode: func(_ context.Context, code string) (*domain.Token, error) {
			return emailToken(code, time.Now().Add(5*time.Minute), false), nil
		},
	}

	_, err := newUsecase(repo, &fakeEmailSender{}).Authenticate(context.Background(), testUser.Email, "12345678")
	if !errors.Is(err, domain.ErrCodeInvalid) {
		t.Errorf("want ErrCodeInvalid, got %v", err)
	}
}

func TestAuthenticate_ExpiredCode_Expired(t *testing.T) {
	repo := &fakeTokenRepo{
		findByCode: func(_ context.Context, code string) (*domain.Token, error) {
			return emailToken(code, time.Now().Add(-time.Minute), true), nil
		},
	}

	_, err := newUsecase(repo, &fakeEmailSender{}).Authenticate(context.Background(), testUser.Email, "12345678")
	if !errors.Is(err, domain.ErrCodeExpired) {
		t.Errorf("want ErrCodeExpired, got %v", err)
	}
}

func TestAuthenticate_WrongOwner_Unauthorized(t *testing.T) {
	// Valid, unexpired code; the ownership check must fail on its own.
	repo := &fakeTokenRepo{
		findByCode: func(_ context.Context, code string) (*domain.Token, error) {
			return emailToken(code, time.Now().Add(5*time.Minute), true), nil
		},
	}

	_, err := newUsecase(repo, &fakeEmailSender{}).Authenticate(context.Background(), "other@example.com", "12345678")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("want ErrUnauthorized, got %v", err)
	}
}

func TestAuthenticate_ConcurrentRedeem_Invalid(t *testing.T) {
	repo := &fakeTokenRepo{
		findByCode: func(_ context.Context, code string) (*domain.Token, error) {
			return emailToken(code, time.Now().Add(5*time.Minute), true), nil
		},
		redeemLoginCode: func(_ context.Context, _, _ int64, _, _ time.Time) (*domain.Token, *domain.Token, error) {
			// Another request consumed the code between read and flip.
			return nil, nil, domain.ErrCodeInvalid
		},
	}

	_, err := newUsecase(repo, &fakeEmailSender{}).Authenticate(context.Background(), testUser.Email, "12345678")
	if !errors.Is(err, domain.ErrCodeInvalid) {
		t.Errorf("want ErrCodeInvalid, got %v", err)
	}
}

// ---- Refresh ----

func liveAPIToken(id int64) *domain.Token {
	return &domain.Token{ID: id, Type: domain.TokenAPI, Valid: true,
		Expiration: time.Now().Add(time.Hour), UserID: testUser.ID, User: testUser}
}

func deadAPIToken(id int64) *domain.Token {
	return &domain.Token{ID: id, Type: domain.TokenAPI, Valid: true,
		Expiration: time.Now().Add(-time.Hour), UserID: testUser.ID, User: testUser}
}

func TestRefresh_AccessStillValid_NoRotation(t *testing.T) {
	rotations := 0
	repo := &fakeTokenRepo{
		findByID: func(_ context.Context, id int64) (*domain.Token, error) {
			return liveAPIToken(id), nil
		},
		createSessionPair: func(_ context.Context, _ int64, _, _ time.Time) (*domain.Token, *domain.Token, error) {
			rotations++
			a, r := sessionTokens()
			return a, r, nil
		},
	}
	uc := newUsecase(repo, &fakeEmailSender{})
	accessBearer, _ := testSigner().Sign(10)
	refreshBearer, _ := testSigner().Sign(11)

	// Repeated calls stay idempotent while the access token lives.
	for i := 0; i < 3; i++ {
		res, err := uc.Refresh(context.Background(), accessBearer, refreshBearer)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.StillValid {
			t.Error("StillValid = false, want true")
		}
		if res.Updated != nil {
			t.Error("Updated set, want nil")
		}
	}
	if rotations != 0 {
		t.Errorf("rotations = %d, want 0", rotations)
	}
}

func TestRefresh_ExpiredAccess_Rotates(t *testing.T) {
	var rotatedFor int64
	repo := &fakeTokenRepo{
		findByID: func(_ context.Context, id int64) (*domain.Token, error) {
			if id == 10 {
				return deadAPIToken(id), nil
			}
			return &domain.Token{ID: id, Type: domain.TokenRefresh, Valid: true,
				Expiration: time.Now().Add(time.Hour), UserID: testUser.ID, User: testUser}, nil
		},
		createSessionPair: func(_ context.Context, userID int64, _, _ time.Time) (*domain.Token, *domain.Token, error) {
			rotatedFor = userID
			return &domain.Token{ID: 20, UserID: userID}, &domain.Token{ID: 21, UserID: userID}, nil
		},
	}
	accessBearer, _ := testSigner().Sign(10)
	refreshBearer, _ := testSigner().Sign(11)

	res, err := newUsecase(repo, &fakeEmailSender{}).Refresh(context.Background(), accessBearer, refreshBearer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// StillValid strictly means "the original access token was still live".
	if res.StillValid {
		t.Error("StillValid = true after rotation, want false")
	}
	if res.Updated == nil {
		t.Fatal("Updated = nil, want a fresh pair")
	}
	if rotatedFor != testUser.ID {
		t.Errorf("rotated for user %d, want %d", rotatedFor, testUser.ID)
	}
	if id, err := testSigner().Verify(res.Updated.AccessToken); err != nil || id != 20 {
		t.Errorf("new access bearer wraps %d (%v), want 20", id, err)
	}
}

func TestRefresh_BothDead_SoftFailure(t *testing.T) {
	repo := &fakeTokenRepo{
		findByID: func(_ context.Context, id int64) (*domain.Token, error) {
			return deadAPIToken(id), nil
		},
	}
	accessBearer, _ := testSigner().Sign(10)
	refreshBearer, _ := testSigner().Sign(11)

	res, err := newUsecase(repo, &fakeEmailSender{}).Refresh(context.Background(), accessBearer, refreshBearer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StillValid || res.Updated != nil {
		t.Errorf("res = %+v, want soft {stillValid:false} with no pair", res)
	}
}

func TestRefresh_MalformedAccess_TokenInvalid(t *testing.T) {
	repo := &fakeTokenRepo{}

	_, err := newUsecase(repo, &fakeEmailSender{}).Refresh(context.Background(), "garbage", "also-garbage")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

func TestRefresh_MalformedRefresh_TokenInvalid(t *testing.T) {
	repo := &fakeTokenRepo{
		findByID: func(_ context.Context, id int64) (*domain.Token, error) {
			return deadAPIToken(id), nil
		},
	}
	accessBearer, _ := testSigner().Sign(10)

	_, err := newUsecase(repo, &fakeEmailSender{}).Refresh(context.Background(), accessBearer, "garbage")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}

// ---- Logout ----

func TestLogout_InvalidatesBothTokens(t *testing.T) {
	var invalidated []int64
	repo := &fakeTokenRepo{
		invalidate: func(_ context.Context, id int64) error {
			invalidated = append(invalidated, id)
			return nil
		},
	}
	accessBearer, _ := testSigner().Sign(5)
	refreshBearer, _ := testSigner().Sign(6)

	if err := newUsecase(repo, &fakeEmailSender{}).Logout(context.Background(), accessBearer, refreshBearer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(invalidated) != 2 || invalidated[0] != 5 || invalidated[1] != 6 {
		t.Errorf("invalidated = %v, want [5 6]", invalidated)
	}
}

func TestLogout_SkipsUnreadableBearer(t *testing.T) {
	var invalidated []int64
	repo := &fakeTokenRepo{
		invalidate: func(_ context.Context, id int64) error {
			invalidated = append(invalidated, id)
			return nil
		},
	}
	refreshBearer, _ := testSigner().Sign(6)

	if err := newUsecase(repo, &fakeEmailSender{}).Logout(context.Background(), "garbage", refreshBearer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(invalidated) != 1 || invalidated[0] != 6 {
		t.Errorf("invalidated = %v, want [6]", invalidated)
	}
}

func TestLogout_StoreError_Reported(t *testing.T) {
	storeErr := errors.New("db down")
	repo := &fakeTokenRepo{
		invalidate: func(_ context.Context, _ int64) error { return storeErr },
	}
	accessBearer, _ := testSigner().Sign(5)

	err := newUsecase(repo, &fakeEmailSender{}).Logout(context.Background(), accessBearer, "")
	if !errors.Is(err, storeErr) {
		t.Errorf("want wrapped storeErr, got %v", err)
	}
}

// ---- UserFromBearer ----

func TestUserFromBearer_LiveToken_ReturnsUser(t *testing.T) {
	repo := &fakeTokenRepo{
		findByID: func(_ context.Context, id int64) (*domain.Token, error) {
			return liveAPIToken(id), nil
		},
	}
	bearer, _ := testSigner().Sign(10)

	user, err := newUsecase(repo, &fakeEmailSender{}).UserFromBearer(context.Background(), bearer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != testUser.ID {
		t.Errorf("user id = %d, want %d", user.ID, testUser.ID)
	}
}

func TestUserFromBearer_ExpiredToken(t *testing.T) {
	repo := &fakeTokenRepo{
		findByID: func(_ context.Context, id int64) (*domain.Token, error) {
			return deadAPIToken(id), nil
		},
	}
	bearer, _ := testSigner().Sign(10)

	_, err := newUsecase(repo, &fakeEmailSender{}).UserFromBearer(context.Background(), bearer)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
}

func TestUserFromBearer_RevokedToken(t *testing.T) {
	repo := &fakeTokenRepo{
		findByID: func(_ context.Context, id int64) (*domain.Token, error) {
			tok := liveAPIToken(id)
			tok.Valid = false
			return tok, nil
		},
	}
	bearer, _ := testSigner().Sign(10)

	_, err := newUsecase(repo, &fakeEmailSender{}).UserFromBearer(context.Background(), bearer)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
}

func TestUserFromBearer_UnknownToken(t *testing.T) {
	repo := &fakeTokenRepo{
		findByID: func(_ context.Context, _ int64) (*domain.Token, error) {
			return nil, domain.ErrTokenNotFound
		},
	}
	bearer, _ := testSigner().Sign(999)

	_, err := newUsecase(repo, &fakeEmailSender{}).UserFromBearer(context.Background(), bearer)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("want ErrTokenExpired, got %v", err)
	}
}

func TestUserFromBearer_Garbage(t *testing.T) {
	repo := &fakeTokenRepo{}

	_, err := newUsecase(repo, &fakeEmailSender{}).UserFromBearer(context.Background(), "garbage")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("want ErrTokenInvalid, got %v", err)
	}
}
