package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/chirp/internal/transport/http/handler"
	"github.com/ErlanBelekov/chirp/internal/transport/http/middleware"
	"github.com/ErlanBelekov/chirp/internal/usecase"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(
	logger *slog.Logger,
	authUsecase *usecase.AuthUsecase,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	tweetHandler *handler.TweetHandler,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(authUsecase, logger)

	auth := r.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/authenticate", authHandler.Authenticate)
	auth.POST("/refreshToken", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)

	// Registration is the only open user route.
	r.POST("/user", userHandler.Create)

	user := r.Group("/user", authMW)
	user.GET("", userHandler.List)
	user.GET("/loggedUser", userHandler.LoggedUser)
	user.GET("/:id", userHandler.GetByID)
	user.PUT("/:id", userHandler.Update)
	user.DELETE("/:id", userHandler.Delete)
	user.POST("/updateProfilePicture", userHandler.UpdateProfilePicture)

	tweets := r.Group("/tweet", authMW)
	tweets.POST("", tweetHandler.Create)
	tweets.GET("", tweetHandler.List)
	tweets.GET("/:id", tweetHandler.GetByID)
	tweets.PUT("/:id", tweetHandler.Update)
	tweets.DELETE("/:id", tweetHandler.Delete)

	return r
}
