package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/chirp/internal/domain"
	"github.com/ErlanBelekov/chirp/internal/repository"
	"github.com/ErlanBelekov/chirp/internal/transport/http/middleware"
	"github.com/ErlanBelekov/chirp/internal/usecase"
)

// maxProfilePictureBytes caps multipart uploads on /user/updateProfilePicture.
const maxProfilePictureBytes = 15 << 20

type UserHandler struct {
	userUsecase *usecase.UserUsecase
	logger      *slog.Logger
}

func NewUserHandler(userUsecase *usecase.UserUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{userUsecase: userUsecase, logger: logger.With("component", "user_handler")}
}

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Username  *string   `json:"username"`
	Bio       *string   `json:"bio"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type userWithTweetsResponse struct {
	userResponse
	Tweets []tweetResponse `json:"tweets"`
}

// POST /user
// Registration is open: creating an account immediately emails a login code.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errEmailInvalid})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errNameMissing})
		return
	}
	if req.Username == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errUsernameMissing})
		return
	}
	if !domain.ValidEmail(req.Email) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errEmailInvalid})
		return
	}

	user, err := h.userUsecase.CreateUser(c.Request.Context(), usecase.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Username: req.Username,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": errEmailTaken})
		case errors.Is(err, domain.ErrDuplicateUser):
			c.JSON(http.StatusBadRequest, gin.H{"error": errUserUnique})
		default:
			h.logger.Error("create user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// GET /user/loggedUser
func (h *UserHandler) LoggedUser(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// GET /user
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userUsecase.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	c.JSON(http.StatusOK, resp)
}

// GET /user/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
		return
	}

	user, tweets, err := h.userUsecase.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
			return
		}
		h.logger.Error("get user by id", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := userWithTweetsResponse{
		userResponse: toUserResponse(user),
		Tweets:       make([]tweetResponse, 0, len(tweets)),
	}
	for _, tw := range tweets {
		resp.Tweets = append(resp.Tweets, toTweetResponse(tw))
	}
	c.JSON(http.StatusOK, resp)
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Bio   *string `json:"bio"`
	Image *string `json:"image"`
}

// PUT /user/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errUserUpdateFail})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errUserUpdateFail})
		return
	}

	user, err := h.userUsecase.Update(c.Request.Context(), repository.UpdateUserInput{
		ID:    id,
		Name:  req.Name,
		Bio:   req.Bio,
		Image: req.Image,
	})
	if err != nil {
		h.logger.Error("update user", "user_id", id, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errUserUpdateFail})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// DELETE /user/:id
// Deleting an already-absent user is a 200 no-op.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Status(http.StatusOK)
		return
	}

	if err := h.userUsecase.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.Status(http.StatusOK)
			return
		}
		h.logger.Error("delete user", "user_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.Status(http.StatusOK)
}

// POST /user/updateProfilePicture
// Multipart upload under the "image" field.
func (h *UserHandler) UpdateProfilePicture(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": errImageMissing})
		return
	}
	if fileHeader.Size > maxProfilePictureBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": errFileTooLarge})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxProfilePictureBytes))
	if err != nil {
		h.logger.Error("read uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	updated, err := h.userUsecase.UpdateProfilePicture(c.Request.Context(), user, data, fileHeader.Filename, contentType)
	if err != nil {
		h.logger.Error("update profile picture", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     "Profile picture updated successfully.",
		"updatedUser": toUserResponse(updated),
	})
}
