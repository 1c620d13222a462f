package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/gateway"
	"github.com/spec-kit/ticket-bridge/internal/observability"
	"github.com/spec-kit/ticket-bridge/internal/repository"
)

// Reaction markers applied to inbound gateway messages.
const (
	reactionSuccess = "✅"
	reactionFailure = "❌"
)

// inboundTag prefixes stored message bodies so the dashboard can tell relayed
// gateway traffic from native replies.
const inboundTag = "[chat]"

// Router relays messages in both directions: gateway events into the ticket
// store, and ticket-store replies out to the mapped thread.
type Router struct {
	cfg        config.GatewayConfig
	client     gateway.Client
	registry   *Registry
	lifecycle  *Lifecycle
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	users      repository.UserRepository
	sender     *ChunkedSender
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// RouterDependencies bundles collaborators for the router.
type RouterDependencies struct {
	Client      gateway.Client
	Registry    *Registry
	Lifecycle   *Lifecycle
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	UserRepo    repository.UserRepository
	Sender      *ChunkedSender
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewRouter constructs the router.
func NewRouter(cfg config.GatewayConfig, deps RouterDependencies) *Router {
	return &Router{
		cfg:        cfg,
		client:     deps.Client,
		registry:   deps.Registry,
		lifecycle:  deps.Lifecycle,
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		users:      deps.UserRepo,
		sender:     deps.Sender,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// HandleInbound ingests a gateway message into the ticket store. Messages
// outside bridged threads and messages from bots are ignored. Closed tickets
// reject the message with a failure reaction and a reopen hint; nothing is
// stored in that case.
func (r *Router) HandleInbound(ctx context.Context, msg gateway.Message) error {
	if msg.FromBot || msg.ThreadID == "" {
		return nil
	}
	ticketID, ok := r.registry.LookupTicket(msg.ThreadID)
	if !ok {
		return nil
	}

	ticket, err := r.tickets.GetByID(ctx, ticketID)
	if err != nil {
		r.react(ctx, msg, reactionFailure)
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn("thread mapped to missing ticket", zap.String("ticket_id", ticketID))
			return nil
		}
		return err
	}

	if ticket.Status == domain.TicketStatusClosed {
		r.react(ctx, msg, reactionFailure)
		if _, err := r.client.Send(ctx, msg.ThreadID, gateway.Outgoing{
			Content: "This ticket is closed. Reopen it before replying.",
		}); err != nil {
			r.logger.Warn("send closed-ticket notice", zap.Error(err))
		}
		return nil
	}

	actorID, err := r.systemActor(ctx)
	if err != nil {
		r.react(ctx, msg, reactionFailure)
		return fmt.Errorf("resolve system actor: %w", err)
	}

	record := &domain.TicketMessage{
		TicketID:   ticketID,
		AuthorType: domain.AuthorTypeSystem,
		AuthorID:   actorID,
		Body:       fmt.Sprintf("%s %s: %s", inboundTag, msg.AuthorName, msg.Content),
	}
	if err := r.messages.Create(ctx, record); err != nil {
		r.react(ctx, msg, reactionFailure)
		return fmt.Errorf("store inbound message: %w", err)
	}

	r.react(ctx, msg, reactionSuccess)
	r.metrics.RecordRelayed(string(events.DirectionInbound))
	r.publish(ctx, ticketID, msg.AuthorName, events.MessageRelayedPayload{
		Direction:   events.DirectionInbound,
		ThreadID:    msg.ThreadID,
		BodyPreview: preview(msg.Content, 120),
	})
	return nil
}

// SendReplyToThread relays a ticket-store reply out to the gateway. When no
// thread exists yet one is created on demand from the ticket's subject and
// first stored message; when the gateway reports the mapped thread gone, the
// stale mapping is removed and the send fails so the caller can retry (which
// re-creates).
func (r *Router) SendReplyToThread(ctx context.Context, ticketID, body, authorName string, isOperator bool) bool {
	if !r.cfg.Configured() || !r.client.Connected() {
		return false
	}

	mapping, ok := r.registry.LookupOrLoad(ctx, ticketID)
	threadID := mapping.ThreadID
	if !ok {
		ticket, err := r.tickets.GetByID(ctx, ticketID)
		if err != nil {
			r.logger.Error("load ticket for reply", zap.String("ticket_id", ticketID), zap.Error(err))
			return false
		}
		seed := ticket.Subject
		if first, err := r.messages.FirstByTicket(ctx, ticketID); err == nil {
			seed = first.Body
		}
		result := r.lifecycle.CreateThreadForTicket(ctx, ticketID, ticket.Subject, seed, authorName)
		if !result.OK {
			return false
		}
		threadID = result.ThreadID
	}

	styled := renderReply(authorName, body, isOperator)
	err := r.sender.Send(ctx, &threadTarget{client: r.client, threadID: threadID}, styled)
	if err != nil {
		if errors.Is(err, gateway.ErrUnknownEntity) {
			r.logger.Warn("mapped thread gone; removing stale mapping",
				zap.String("ticket_id", ticketID),
				zap.String("thread_id", threadID))
			r.lifecycle.RemoveStaleMapping(ctx, ticketID)
			return false
		}
		r.metrics.RecordGatewayError("send_reply", classify(err))
		r.logger.Warn("send reply", zap.String("ticket_id", ticketID), zap.Error(err))
		return false
	}

	r.metrics.RecordRelayed(string(events.DirectionOutbound))
	r.publish(ctx, ticketID, authorName, events.MessageRelayedPayload{
		Direction:   events.DirectionOutbound,
		ThreadID:    threadID,
		BodyPreview: preview(body, 120),
	})
	return true
}

// systemActor resolves the internal user inbound messages are attributed to:
// the configured system actor when set, otherwise the lowest-id active admin
// so attribution stays deterministic as the admin list changes.
func (r *Router) systemActor(ctx context.Context) (*string, error) {
	if r.cfg.SystemActorID != "" {
		id := r.cfg.SystemActorID
		return &id, nil
	}
	admins, err := r.users.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return nil, nil
	}
	return &admins[0].ID, nil
}

func (r *Router) react(ctx context.Context, msg gateway.Message, emoji string) {
	if err := r.client.React(ctx, msg.ThreadID, msg.ID, emoji); err != nil {
		r.logger.Debug("react failed", zap.String("message_id", msg.ID), zap.Error(err))
	}
}

func (r *Router) publish(ctx context.Context, ticketID, actor string, payload events.MessageRelayedPayload) {
	if r.dispatcher == nil {
		return
	}
	_ = r.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventMessageRelayed,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func renderReply(authorName, body string, isOperator bool) string {
	if isOperator {
		return fmt.Sprintf("🛠️ **%s (staff)**\n%s", authorName, body)
	}
	return fmt.Sprintf("💬 **%s**\n%s", authorName, body)
}

func preview(body string, max int) string {
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

// threadTarget delivers chunked segments into one thread; the first segment
// has no special form for plain thread sends.
type threadTarget struct {
	client   gateway.Client
	threadID string
}

func (t *threadTarget) SendFirst(ctx context.Context, content string) error {
	_, err := t.client.Send(ctx, t.threadID, gateway.Outgoing{Content: content})
	return err
}

func (t *threadTarget) SendFollowUp(ctx context.Context, content string) error {
	_, err := t.client.Send(ctx, t.threadID, gateway.Outgoing{Content: content})
	return err
}
