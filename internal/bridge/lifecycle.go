package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/gateway"
	"github.com/spec-kit/ticket-bridge/internal/observability"
	"github.com/spec-kit/ticket-bridge/internal/repository"
)

// Button custom-id prefixes for the management controls posted into threads.
const (
	ButtonClose  = "ticket_close"
	ButtonReopen = "ticket_reopen"
)

// CreateResult reports the outcome of thread creation.
type CreateResult struct {
	OK       bool
	ThreadID string
}

// Lifecycle orchestrates thread create/close/reopen/delete against both the
// ticket store and the gateway, using the registry to decide whether a thread
// must be created, reused, or is stale.
type Lifecycle struct {
	cfg        config.GatewayConfig
	client     gateway.Client
	registry   *Registry
	tickets    repository.TicketRepository
	mappings   repository.ThreadMappingRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// LifecycleDependencies bundles collaborators for the lifecycle manager.
type LifecycleDependencies struct {
	Client      gateway.Client
	Registry    *Registry
	TicketRepo  repository.TicketRepository
	MappingRepo repository.ThreadMappingRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewLifecycle constructs the manager.
func NewLifecycle(cfg config.GatewayConfig, deps LifecycleDependencies) *Lifecycle {
	return &Lifecycle{
		cfg:        cfg,
		client:     deps.Client,
		registry:   deps.Registry,
		tickets:    deps.TicketRepo,
		mappings:   deps.MappingRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Registry exposes the registry for collaborators constructed alongside.
func (l *Lifecycle) Registry() *Registry {
	return l.registry
}

func (l *Lifecycle) available() bool {
	return l.cfg.Configured() && l.client.Connected()
}

// CreateThreadForTicket opens a gateway thread for a ticket. Creation is
// idempotent: an existing binding is returned as-is and no second thread is
// created. Nothing is persisted when thread creation on the gateway fails.
func (l *Lifecycle) CreateThreadForTicket(ctx context.Context, ticketID, subject, initialMessage, authorName string) CreateResult {
	if !l.available() {
		l.logger.Debug("bridge not configured; skipping thread creation", zap.String("ticket_id", ticketID))
		return CreateResult{}
	}

	if mapping, ok := l.registry.LookupOrLoad(ctx, ticketID); ok {
		return CreateResult{OK: true, ThreadID: mapping.ThreadID}
	}

	thread, err := l.client.CreateThread(ctx, l.cfg.ChannelID, ThreadName(ticketID, subject))
	if err != nil {
		l.gatewayFailure("create_thread", err)
		return CreateResult{}
	}

	mapping := domain.ThreadMapping{
		TicketID:  ticketID,
		ThreadID:  thread.ID,
		ChannelID: thread.ChannelID,
	}
	if mapping.ChannelID == "" {
		mapping.ChannelID = l.cfg.ChannelID
	}
	if err := l.mappings.Upsert(ctx, &mapping); err != nil {
		l.logger.Error("persist thread mapping", zap.String("ticket_id", ticketID), zap.Error(err))
		return CreateResult{}
	}
	l.registry.Bind(mapping)

	intro := fmt.Sprintf("**Ticket %s** — %s\nOpened by %s.\n\n%s", ticketID, subject, authorName, initialMessage)
	posted, err := l.client.Send(ctx, thread.ID, gateway.Outgoing{
		Content: intro,
		Buttons: []gateway.Button{{ID: buttonID(ButtonClose, ticketID), Label: "Close ticket"}},
	})
	if err != nil {
		l.gatewayFailure("send_intro", err)
	} else if err := l.client.Pin(ctx, thread.ID, posted.ID); err != nil {
		// Pinning is cosmetic; the thread is already usable.
		l.logger.Warn("pin control message", zap.String("thread_id", thread.ID), zap.Error(err))
	}

	l.publish(ctx, events.Event{
		Type:     events.EventThreadCreated,
		TicketID: ticketID,
		Actor:    authorName,
		Payload: events.ThreadCreatedPayload{
			ThreadID:  thread.ID,
			ChannelID: mapping.ChannelID,
			Name:      thread.Name,
		},
	})

	l.logger.Info("thread created",
		zap.String("ticket_id", ticketID),
		zap.String("thread_id", thread.ID))
	return CreateResult{OK: true, ThreadID: thread.ID}
}

// UpdateThreadStatus reflects a ticket status change onto the mapped thread.
// The ticket store is written before the gateway call, so a gateway failure
// leaves the store ahead of the thread's visible state until a retry; that
// window is accepted rather than masked. Returns false when no thread exists
// (status changes never auto-create threads).
func (l *Lifecycle) UpdateThreadStatus(ctx context.Context, ticketID string, newStatus domain.TicketStatus, actorName string) bool {
	if !l.available() || !newStatus.Valid() {
		return false
	}

	mapping, ok := l.registry.LookupOrLoad(ctx, ticketID)
	if !ok {
		l.logger.Debug("no thread for ticket; status not relayed", zap.String("ticket_id", ticketID))
		return false
	}

	ticket, err := l.tickets.GetByID(ctx, ticketID)
	if err != nil {
		l.logger.Error("load ticket", zap.String("ticket_id", ticketID), zap.Error(err))
		return false
	}
	oldStatus := ticket.Status

	ticket.Status = newStatus
	if newStatus == domain.TicketStatusClosed {
		now := time.Now()
		ticket.ClosedAt = &now
	} else {
		ticket.ClosedAt = nil
	}
	if err := l.tickets.Update(ctx, ticket); err != nil {
		l.logger.Error("update ticket status", zap.String("ticket_id", ticketID), zap.Error(err))
		return false
	}

	var relayed bool
	if newStatus == domain.TicketStatusClosed {
		relayed = l.closeThread(ctx, mapping.ThreadID, ticketID, actorName)
	} else {
		relayed = l.reopenThread(ctx, mapping.ThreadID, ticketID, actorName)
	}
	if !relayed {
		return false
	}

	l.publish(ctx, events.Event{
		Type:     events.EventThreadStatusChanged,
		TicketID: ticketID,
		Actor:    actorName,
		Payload: events.ThreadStatusChangedPayload{
			ThreadID:  mapping.ThreadID,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return true
}

func (l *Lifecycle) closeThread(ctx context.Context, threadID, ticketID, actorName string) bool {
	notice := fmt.Sprintf("🔒 Ticket closed by %s. Reply here after reopening.", actorName)
	if _, err := l.client.Send(ctx, threadID, gateway.Outgoing{
		Content: notice,
		Buttons: []gateway.Button{{ID: buttonID(ButtonReopen, ticketID), Label: "Reopen ticket"}},
	}); err != nil {
		l.gatewayFailure("send_close_notice", err)
		return false
	}
	if err := l.client.SetArchived(ctx, threadID, true); err != nil {
		l.gatewayFailure("archive", err)
		return false
	}
	return true
}

func (l *Lifecycle) reopenThread(ctx context.Context, threadID, ticketID, actorName string) bool {
	notice := fmt.Sprintf("🔓 Ticket reopened by %s.", actorName)
	if _, err := l.client.Send(ctx, threadID, gateway.Outgoing{
		Content: notice,
		Buttons: []gateway.Button{{ID: buttonID(ButtonClose, ticketID), Label: "Close ticket"}},
	}); err != nil {
		l.gatewayFailure("send_reopen_notice", err)
		return false
	}

	thread, err := l.client.FetchThread(ctx, threadID)
	if err != nil {
		l.gatewayFailure("fetch_thread", err)
		return false
	}
	if thread.Archived {
		if err := l.client.SetArchived(ctx, threadID, false); err != nil {
			l.gatewayFailure("unarchive", err)
			return false
		}
	}
	return true
}

// DeleteTicketThread tears down the thread side of a permanently deleted
// ticket. A missing mapping, or a thread already gone on the gateway, counts
// as success: the goal state is "no thread, no mapping".
func (l *Lifecycle) DeleteTicketThread(ctx context.Context, ticketID, actorName string) bool {
	mapping, ok := l.registry.LookupOrLoad(ctx, ticketID)
	if !ok {
		return true
	}

	if l.available() {
		notice := fmt.Sprintf("🗑️ Ticket deleted by %s. This thread is now read-only.", actorName)
		if _, err := l.client.Send(ctx, mapping.ThreadID, gateway.Outgoing{Content: notice}); err != nil {
			if !errors.Is(err, gateway.ErrUnknownEntity) {
				l.gatewayFailure("send_delete_notice", err)
			}
		}
		if err := l.client.SetArchived(ctx, mapping.ThreadID, true); err != nil {
			if !errors.Is(err, gateway.ErrUnknownEntity) {
				l.gatewayFailure("archive_deleted", err)
			}
		}
	}

	l.RemoveStaleMapping(ctx, ticketID)

	l.publish(ctx, events.Event{
		Type:     events.EventThreadDeleted,
		TicketID: ticketID,
		Actor:    actorName,
		Payload:  events.ThreadDeletedPayload{ThreadID: mapping.ThreadID},
	})
	return true
}

// RemoveStaleMapping drops a mapping from both the registry and the persisted
// store. Used for deletions and for self-healing when the gateway reports the
// mapped thread no longer exists.
func (l *Lifecycle) RemoveStaleMapping(ctx context.Context, ticketID string) {
	if err := l.mappings.Delete(ctx, ticketID); err != nil {
		l.logger.Debug("delete thread mapping", zap.String("ticket_id", ticketID), zap.Error(err))
	}
	l.registry.Unbind(ticketID)
}

func (l *Lifecycle) gatewayFailure(operation string, err error) {
	l.metrics.RecordGatewayError(operation, classify(err))
	l.logger.Warn("gateway call failed", zap.String("operation", operation), zap.Error(err))
}

func (l *Lifecycle) publish(ctx context.Context, event events.Event) {
	if l.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = l.dispatcher.Publish(ctx, event)
}

func classify(err error) string {
	switch {
	case errors.Is(err, gateway.ErrUnknownEntity):
		return "unknown_entity"
	case errors.Is(err, gateway.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, gateway.ErrExpiredInteraction):
		return "expired_interaction"
	case errors.Is(err, gateway.ErrNotConnected):
		return "not_connected"
	default:
		return "other"
	}
}

// ThreadName derives the deterministic thread title for a ticket.
func ThreadName(ticketID, subject string) string {
	slug := strings.ToLower(strings.TrimSpace(subject))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if len(slug) > 60 {
		slug = slug[:60]
	}
	if slug == "" {
		return "ticket-" + shortID(ticketID)
	}
	return "ticket-" + shortID(ticketID) + "-" + slug
}

func shortID(id string) string {
	cleaned := strings.ReplaceAll(id, "-", "")
	if len(cleaned) > 8 {
		return cleaned[:8]
	}
	return cleaned
}

func buttonID(action, ticketID string) string {
	return action + ":" + ticketID
}
