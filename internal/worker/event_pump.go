package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/bridge"
	"github.com/spec-kit/ticket-bridge/internal/gateway"
)

const pollBackoff = 5 * time.Second

// EventPump is the long-lived consumer of gateway traffic. It runs registry
// recovery once, then feeds polled events into the dispatcher, skipping
// events already seen (the gateway delivers at least once).
type EventPump struct {
	client     gateway.Client
	registry   *bridge.Registry
	dispatcher *bridge.Dispatcher
	dedup      *EventDedup
	logger     *zap.Logger
}

// NewEventPump constructs the pump.
func NewEventPump(client gateway.Client, registry *bridge.Registry, dispatcher *bridge.Dispatcher, dedup *EventDedup, logger *zap.Logger) *EventPump {
	return &EventPump{
		client:     client,
		registry:   registry,
		dispatcher: dispatcher,
		dedup:      dedup,
		logger:     logger,
	}
}

// Run blocks until ctx is cancelled.
func (p *EventPump) Run(ctx context.Context) {
	if !p.client.Connected() {
		p.logger.Warn("gateway not configured; event pump idle")
		<-ctx.Done()
		return
	}

	if err := p.registry.Recover(ctx); err != nil {
		p.logger.Error("registry recovery", zap.Error(err))
	}

	for {
		events, err := p.client.PollEvents(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("poll gateway events", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollBackoff):
			}
			continue
		}

		for _, event := range events {
			if p.dedup.Seen(ctx, event.ID) {
				continue
			}
			p.dispatcher.HandleEvent(ctx, event)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
