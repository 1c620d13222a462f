package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/persistence"
)

const dedupTTL = 10 * time.Minute

// EventDedup filters redelivered gateway events using short-lived Redis keys.
// Without Redis every event is treated as fresh; handlers stay idempotent
// enough that occasional duplicates are tolerable.
type EventDedup struct {
	redis  *persistence.Redis
	logger *zap.Logger
}

// NewEventDedup constructs the filter.
func NewEventDedup(redis *persistence.Redis, logger *zap.Logger) *EventDedup {
	return &EventDedup{redis: redis, logger: logger}
}

// Seen marks eventID processed and reports whether it had been seen before.
func (d *EventDedup) Seen(ctx context.Context, eventID string) bool {
	if d == nil || d.redis == nil || d.redis.Client == nil || eventID == "" {
		return false
	}

	fresh, err := d.redis.Client.SetNX(ctx, "bridge:event:"+eventID, 1, dedupTTL).Result()
	if err != nil {
		d.logger.Debug("event dedup unavailable", zap.Error(err))
		return false
	}
	return !fresh
}
