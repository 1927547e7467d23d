package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/ErlanBelekov/chirp/internal/transport/http/middleware"
)

// tweetUsecaser is the subset of TweetUsecase the handler needs.
type tweetUsecaser interface {
	Create(ctx context.Context, userID int64, content string, image *string) (*domain.Tweet, error)
	GetByID(ctx context.Context, id int64) (*domain.Tweet, error)
	List(ctx context.Context) ([]*domain.Tweet, error)
	Update(ctx context.Context, id int64, content string, image *string) (*domain.Tweet, error)
	Delete(ctx context.Context, id int64) error
}

type TweetHandler struct {
	tweetUsecase tweetUsecaser
	logger       *slog.Logger
}

func NewTweetHandler(tweetUsecase tweetUsecaser, logger *slog.Logger) *TweetHandler {
	return &TweetHandler{tweetUsecase: tweetUsecase, logger: logger.With("component", "tweet_handler")}
}

type tweetAuthor struct {
	ID       int64   `json:"id"`
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Image    *string `json:"image"`
}

type tweetResponse struct {
	ID        int64        `json:"id"`
	Content   string       `json:"content"`
	Image     *string      `json:"image"`
	UserID    int64        `json:"userId"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	User      *tweetAuthor `json:"user,omitempty"`
}

func toTweetResponse(t *domain.Tweet) tweetResponse {
	resp := tweetResponse{
		ID:        t.ID,
		Content:   t.Content,
		Image:     t.Image,
		UserID:    t.UserID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.User != nil {
		resp.User = &tweetAuthor{
			ID:       t.User.ID,
			Name:     t.User.Name,
			Username: t.User.Username,
			Image:    t.User.Image,
		}
	}
	return resp
}

type createTweetRequest struct {
	Content string  `json:"content"`
	Image   *string `json:"image"`
}

// POST /tweet
func (h *TweetHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req createTweetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errTweetCreateFail})
		return
	}

	tweet, err := h.tweetUsecase.Create(c.Request.Context(), user.ID, req.Content, req.Image)
	if err != nil {
		h.logger.Error("create tweet", "user_id", user.ID, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errTweetCreateFail})
		return
	}

	c.JSON(http.StatusCreated, toTweetResponse(tweet))
}

// GET /tweet
// Newest first, each with its author.
func (h *TweetHandler) List(c *gin.Context) {
	tweets, err := h.tweetUsecase.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list tweets", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := make([]tweetResponse, 0, len(tweets))
	for _, t := range tweets {
		resp = append(resp, toTweetResponse(t))
	}
	c.JSON(http.StatusOK, resp)
}

// GET /tweet/:id
func (h *TweetHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errTweetNotFound})
		return
	}

	tweet, err := h.tweetUsecase.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTweetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errTweetNotFound})
			return
		}
		h.logger.Error("get tweet by id", "tweet_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, toTweetResponse(tweet))
}

type updateTweetRequest struct {
	Content string  `json:"content"`
	Image   *string `json:"image"`
}

// PUT /tweet/:id
func (h *TweetHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errTweetUpdateFail})
		return
	}

	var req updateTweetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errTweetUpdateFail})
		return
	}

	tweet, err := h.tweetUsecase.Update(c.Request.Context(), id, req.Content, req.Image)
	if err != nil {
		h.logger.Error("update tweet", "tweet_id", id, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errTweetUpdateFail})
		return
	}

	c.JSON(http.StatusOK, toTweetResponse(tweet))
}

// DELETE /tweet/:id
// Deleting an already-absent tweet is a 200 no-op.
func (h *TweetHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Status(http.StatusOK)
		return
	}

	if err := h.tweetUsecase.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrTweetNotFound) {
			c.Status(http.StatusOK)
			return
		}
		h.logger.Error("delete tweet", "tweet_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.Status(http.StatusOK)
}
