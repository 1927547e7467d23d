package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ErlanBelekov/chirp/config"
	"github.com/ErlanBelekov/chirp/internal/email"
	"github.com/ErlanBelekov/chirp/internal/health"
	"github.com/ErlanBelekov/chirp/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/chirp/internal/logging"
	"github.com/ErlanBelekov/chirp/internal/metrics"
	"github.com/ErlanBelekov/chirp/internal/migrations"
	"github.com/ErlanBelekov/chirp/internal/rate"
	"github.com/ErlanBelekov/chirp/internal/storage"
	"github.com/ErlanBelekov/chirp/internal/token"
	httptransport "github.com/ErlanBelekov/chirp/internal/transport/http"
	"github.com/ErlanBelekov/chirp/internal/transport/http/handler"
	"github.com/ErlanBelekov/chirp/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := runMigrations(ctx, cfg.DatabaseURL); err != nil {
		stop()
		log.Fatalf("migrations: %v", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		stop()
		log.Fatalf("redis url: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	files, err := storage.NewStore(ctx, cfg.Env, storage.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	}, logger)
	if err != nil {
		stop()
		log.Fatalf("file store: %v", err)
	}

	signer := token.NewSigner([]byte(cfg.JWTSecret))
	limiter := rate.New(redisClient, rate.Config{
		MaxLoginRequests: cfg.LoginMaxAttempts,
		LoginWindow:      cfg.LoginWindow(),
	})

	tokenRepo := postgres.NewTokenRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	tweetRepo := postgres.NewTweetRepository(pool)

	authUsecase := usecase.NewAuthUsecase(tokenRepo, signer, sender, limiter)
	userUsecase := usecase.NewUserUsecase(userRepo, tweetRepo, files, authUsecase)
	tweetUsecase := usecase.NewTweetUsecase(tweetRepo)

	authHandler := handler.NewAuthHandler(authUsecase, logger)
	userHandler := handler.NewUserHandler(userUsecase, logger)
	tweetHandler := handler.NewTweetHandler(tweetUsecase, logger)

	metrics.Register()
	redisPinger := health.PingerFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	checker := health.NewChecker(pool, redisPinger, logger, prometheus.DefaultRegisterer)

	collector := metrics.NewCollector(tokenRepo, logger)
	if err := collector.Start(); err != nil {
		stop()
		log.Fatalf("metrics collector: %v", err)
	}

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, authUsecase, authHandler, userHandler, tweetHandler),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	collector.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func runMigrations(ctx context.Context, databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(logging.NewContextHandler(inner))
}
