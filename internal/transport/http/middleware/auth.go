package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/chirp/internal/domain"
)

// UserKey is the gin context key the authenticated user is stored under.
const UserKey = "currentUser"

// bearerAuthenticator is the subset of AuthUsecase the gate needs.
// Defined here (point of use) so tests can inject a fake.
type bearerAuthenticator interface {
	UserFromBearer(ctx context.Context, bearer string) (*domain.User, error)
}

// Auth resolves the Bearer token to its owner and sets the user in the gin
// context. The gate only reads: it never rotates or invalidates tokens.
func Auth(auth bearerAuthenticator, logger *slog.Logger) gin.HandlerFunc {
	log := logger.With("component", "auth_middleware")
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		bearer := strings.TrimPrefix(header, "Bearer ")

		user, err := auth.UserFromBearer(c.Request.Context(), bearer)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API token expired"})
			case errors.Is(err, domain.ErrTokenInvalid):
				c.AbortWithStatus(http.StatusUnauthorized)
			default:
				log.Error("resolve bearer token", "error", err)
				c.AbortWithStatus(http.StatusUnauthorized)
			}
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user attached by Auth, or nil outside the gate.
func CurrentUser(c *gin.Context) *domain.User {
	user, _ := c.Get(UserKey)
	u, _ := user.(*domain.User)
	return u
}
