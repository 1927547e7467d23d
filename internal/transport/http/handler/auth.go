package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/ErlanBelekov/chirp/internal/metrics"
	"github.com/ErlanBelekov/chirp/internal/rate"
	"github.com/ErlanBelekov/chirp/internal/usecase"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	RequestLoginCode(ctx context.Context, email, clientIP string) error
	Authenticate(ctx context.Context, email, code string) (*usecase.SessionPair, error)
	Refresh(ctx context.Context, accessBearer, refreshBearer string) (*usecase.RefreshResult, error)
	Logout(ctx context.Context, accessBearer, refreshBearer string) error
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

type loginRequest struct {
	Email string `json:"email"`
}

// POST /auth/login
// Issues a one time password to the given address. Responds with an empty
// 200 so the caller learns nothing about whether the account existed.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmailMissing})
		return
	}
	if !domain.ValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmailInvalid})
		return
	}

	if err := h.authUsecase.RequestLoginCode(c.Request.Context(), req.Email, c.ClientIP()); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": errTooManyLogins})
			return
		}
		h.logger.Error("request login code", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errLoginInternal})
		return
	}

	metrics.LoginCodesIssuedTotal.Inc()
	c.Status(http.StatusOK)
}

type authenticateRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type sessionTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// POST /auth/authenticate
// Exchanges an emailed one time password for an access/refresh pair.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmailFieldMissing})
		return
	}
	if req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errTokenFieldMissing})
		return
	}

	pair, err := h.authUsecase.Authenticate(c.Request.Context(), req.Email, req.Token)
	if err != nil {
		metrics.AuthenticationsTotal.WithLabelValues("failure").Inc()
		switch {
		case errors.Is(err, domain.ErrCodeInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": errCodeInvalid})
		case errors.Is(err, domain.ErrCodeExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": errCodeExpired})
		case errors.Is(err, domain.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
		default:
			h.logger.Error("authenticate", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	metrics.AuthenticationsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, sessionTokens{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type refreshRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	StillValid    bool           `json:"stillValid"`
	UpdatedTokens *sessionTokens `json:"updatedTokens,omitempty"`
}

// POST /auth/refreshToken
// Reports whether the presented access token is still live and, when it is
// not, rotates the session off the refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AccessToken == "" || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, refreshResponse{StillValid: false})
		return
	}

	result, err := h.authUsecase.Refresh(c.Request.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, domain.ErrTokenInvalid) {
			c.JSON(http.StatusUnauthorized, refreshResponse{StillValid: false})
			return
		}
		h.logger.Error("refresh token", "error", err)
		c.Status(http.StatusUnauthorized)
		return
	}

	resp := refreshResponse{StillValid: result.StillValid}
	if result.Updated != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("rotated").Inc()
		resp.UpdatedTokens = &sessionTokens{
			AccessToken:  result.Updated.AccessToken,
			RefreshToken: result.Updated.RefreshToken,
		}
	} else {
		metrics.TokenRefreshesTotal.WithLabelValues("unchanged").Inc()
	}
	c.JSON(http.StatusOK, resp)
}

type logoutRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// POST /auth/logout
// Invalidates whichever of the two tokens can still be read. Always 200:
// a logout must not fail from the client's point of view.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.AccessToken == "" && req.RefreshToken == "") {
		c.Status(http.StatusOK)
		return
	}

	if err := h.authUsecase.Logout(c.Request.Context(), req.AccessToken, req.RefreshToken); err != nil {
		h.logger.Error("logout", "error", err)
	}

	metrics.LogoutsTotal.Inc()
	c.Status(http.StatusOK)
}
