package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ErlanBelekov/chirp/internal/domain"
)

// tokenCounter is the subset of the token repository the collector needs.
type tokenCounter interface {
	CountLive(ctx context.Context) (map[domain.TokenType]int64, error)
}

// Collector periodically refreshes the live-token gauges from the store.
type Collector struct {
	tokens tokenCounter
	logger *slog.Logger
	cron   *cron.Cron
}

func NewCollector(tokens tokenCounter, logger *slog.Logger) *Collector {
	return &Collector{
		tokens: tokens,
		logger: logger.With("component", "metrics_collector"),
		cron:   cron.New(),
	}
}

func (c *Collector) Start() error {
	if _, err := c.cron.AddFunc("@every 1m", c.refresh); err != nil {
		return err
	}
	c.cron.Start()
	c.refresh()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (c *Collector) Stop() {
	<-c.cron.Stop().Done()
}

func (c *Collector) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts, err := c.tokens.CountLive(ctx)
	if err != nil {
		c.logger.Warn("count live tokens", "error", err)
		return
	}

	for _, typ := range []domain.TokenType{domain.TokenEmail, domain.TokenAPI, domain.TokenRefresh} {
		LiveTokens.WithLabelValues(string(typ)).Set(float64(counts[typ]))
	}
}
