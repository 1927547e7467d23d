package middleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/ErlanBelekov/chirp/internal/transport/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator struct {
	userFromBearer func(ctx context.Context, bearer string) (*domain.User, error)
}

func (f *fakeAuthenticator) UserFromBearer(ctx context.Context, bearer string) (*domain.User, error) {
	return f.userFromBearer(ctx, bearer)
}

// newEngine builds a minimal gin engine with the Auth gate protecting
// GET /protected. The handler writes the attached user's email so we
// can assert it was set.
func newEngine(auth *fakeAuthenticator) *gin.Engine {
	r := gin.New()
	r.GET("/protected", middleware.Auth(auth, slog.Default()), func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		c.String(http.StatusOK, "%s", user.Email)
	})
	return r
}

func serve(t *testing.T, auth *fakeAuthenticator, header string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	newEngine(auth).ServeHTTP(w, req)
	return w
}

func TestAuth_MissingHeader_Returns401(t *testing.T) {
	auth := &fakeAuthenticator{
		userFromBearer: func(_ context.Context, _ string) (*domain.User, error) {
			t.Fatal("usecase called without a bearer header")
			return nil, nil
		},
	}

	w := serve(t, auth, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_NonBearerScheme_Returns401(t *testing.T) {
	auth := &fakeAuthenticator{
		userFromBearer: func(_ context.Context, _ string) (*domain.User, error) {
			t.Fatal("usecase called for a non-bearer scheme")
			return nil, nil
		},
	}

	w := serve(t, auth, "Basic dXNlcjpwYXNz")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuth_InvalidToken_Returns401EmptyBody(t *testing.T) {
	auth := &fakeAuthenticator{
		userFromBearer: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrTokenInvalid
		},
	}

	w := serve(t, auth, "Bearer not.a.jwt")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
}

func TestAuth_ExpiredToken_ReturnsExpiredMessage(t *testing.T) {
	auth := &fakeAuthenticator{
		userFromBearer: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrTokenExpired
		},
	}

	w := serve(t, auth, "Bearer some.old.token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if got := w.Body.String(); got != `{"error":"API token expired"}` {
		t.Errorf("body = %q, want the expired-token message", got)
	}
}

func TestAuth_StoreError_Returns401(t *testing.T) {
	auth := &fakeAuthenticator{
		userFromBearer: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, context.DeadlineExceeded
		},
	}

	w := serve(t, auth, "Bearer some.token")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
}

func TestAuth_ValidToken_AttachesUser(t *testing.T) {
	auth := &fakeAuthenticator{
		userFromBearer: func(_ context.Context, bearer string) (*domain.User, error) {
			if bearer != "good.token" {
				t.Errorf("bearer = %q, want good.token", bearer)
			}
			return &domain.User{ID: 1, Email: "me@example.com"}, nil
		},
	}

	w := serve(t, auth, "Bearer good.token")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "me@example.com" {
		t.Errorf("body = %q, want the user's email", got)
	}
}
