// Package rate throttles login-code requests using Redis counters.
package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited signals the caller exceeded its login-code budget.
var ErrRateLimited = errors.New("too many requests")

// Config holds rate limiter tuning parameters.
type Config struct {
	MaxLoginRequests int
	LoginWindow      time.Duration
}

// Limiter enforces a per-email and per-IP budget for login-code requests.
// An email code is cheap to mint but costs an outbound email, so the budget
// caps delivery abuse rather than guessing attempts.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// AllowLogin records a login-code request for the email+IP pair and reports
// whether it is within budget.
func (l *Limiter) AllowLogin(ctx context.Context, email, ip string) error {
	if err := l.bump(ctx, loginEmailKey(email)); err != nil {
		return err
	}
	if ip != "" {
		return l.bump(ctx, loginIPKey(ip))
	}
	return nil
}

func (l *Limiter) bump(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("rate counter incr: %w", err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.LoginWindow).Err(); err != nil {
			return fmt.Errorf("rate counter expire: %w", err)
		}
	}
	if count > int64(l.config.MaxLoginRequests) {
		return ErrRateLimited
	}
	return nil
}

func loginEmailKey(email string) string {
	return "ratelimit:login:email:" + email
}

func loginIPKey(ip string) string {
	return "ratelimit:login:ip:" + ip
}
