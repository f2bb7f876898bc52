package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/kindredapp/kindred-backend/internal/config"
	"github.com/kindredapp/kindred-backend/internal/service/chat"
)

// Retention runs the message retention purge on a fixed interval, out of
// the request path.
type Retention struct {
	chat     *chat.Service
	log      *slog.Logger
	days     int
	interval time.Duration
}

// NewRetention builds the retention job from config.
func NewRetention(chatSvc *chat.Service, cfg *config.Config, log *slog.Logger) *Retention {
	return &Retention{
		chat:     chatSvc,
		log:      log,
		days:     cfg.Retention.MessageDays,
		interval: time.Duration(cfg.Retention.IntervalHours) * time.Hour,
	}
}

// Run blocks until ctx is done, purging on every tick. One failed purge is
// logged and retried on the next tick.
func (r *Retention) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log.Info("retention scheduler started", "days", r.days, "interval", r.interval)

	for {
		select {
		case <-ticker.C:
			removed, err := r.chat.PurgeOlderThan(ctx, r.days)
			if err != nil {
				r.log.Error("retention purge failed", "err", err)
				continue
			}
			r.log.Debug("retention purge completed", "messages_removed", removed)
		case <-ctx.Done():
			r.log.Info("retention scheduler stopped")
			return
		}
	}
}
