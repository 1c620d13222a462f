package bridge

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/assistant"
	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/gateway"
	"github.com/spec-kit/ticket-bridge/internal/repository"
)

// Slash command names understood by the dispatcher.
const (
	CommandClose  = "close"
	CommandReopen = "reopen"
	CommandDelete = "delete"
	CommandAsk    = "ask"
)

// Asker is the assistant integration surface the dispatcher depends on.
type Asker interface {
	Ask(ctx context.Context, userID, prompt string) (string, error)
}

// Dispatcher maps inbound commands and buttons onto lifecycle and router
// operations. Button-triggered and slash-triggered transitions funnel through
// the same lifecycle calls, so the close/reopen state machine has exactly one
// implementation regardless of entry point.
type Dispatcher struct {
	cfg       config.GatewayConfig
	client    gateway.Client
	registry  *Registry
	lifecycle *Lifecycle
	router    *Router
	tickets   repository.TicketRepository
	assistant Asker
	sender    *ChunkedSender
	logger    *zap.Logger
}

// DispatcherDependencies bundles collaborators for the dispatcher.
type DispatcherDependencies struct {
	Client     gateway.Client
	Registry   *Registry
	Lifecycle  *Lifecycle
	Router     *Router
	TicketRepo repository.TicketRepository
	Assistant  Asker
	Sender     *ChunkedSender
	Logger     *zap.Logger
}

// NewDispatcher constructs the dispatcher.
func NewDispatcher(cfg config.GatewayConfig, deps DispatcherDependencies) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		client:    deps.Client,
		registry:  deps.Registry,
		lifecycle: deps.Lifecycle,
		router:    deps.Router,
		tickets:   deps.TicketRepo,
		assistant: deps.Assistant,
		sender:    deps.Sender,
		logger:    deps.Logger,
	}
}

// HandleEvent routes one gateway event to the right handler. Errors are fully
// absorbed here; nothing escapes to kill the event pump.
func (d *Dispatcher) HandleEvent(ctx context.Context, event gateway.Event) {
	switch event.Type {
	case gateway.EventMessage:
		if event.Message == nil {
			return
		}
		if err := d.router.HandleInbound(ctx, *event.Message); err != nil {
			d.logger.Error("inbound message", zap.String("event_id", event.ID), zap.Error(err))
		}
	case gateway.EventCommand, gateway.EventButton:
		if event.Interaction == nil {
			return
		}
		d.handleInteraction(ctx, *event.Interaction)
	}
}

func (d *Dispatcher) handleInteraction(ctx context.Context, itx gateway.Interaction) {
	action, ticketArg := parseAction(itx.Name)

	if action == CommandAsk {
		d.handleAsk(ctx, itx)
		return
	}

	ticketID := ticketArg
	if ticketID == "" {
		id, ok := d.registry.LookupTicket(itx.ThreadID)
		if !ok {
			d.notify(ctx, itx, "This command only works inside a ticket thread.")
			return
		}
		ticketID = id
	}

	if !d.ensureUsable(ctx, itx) {
		return
	}

	switch action {
	case CommandClose:
		d.transition(ctx, itx, ticketID, domain.TicketStatusClosed)
	case CommandReopen:
		d.transition(ctx, itx, ticketID, domain.TicketStatusOpen)
	case CommandDelete:
		if d.lifecycle.DeleteTicketThread(ctx, ticketID, itx.UserName) {
			d.notify(ctx, itx, "Ticket thread removed.")
		} else {
			d.notify(ctx, itx, "Could not remove the ticket thread.")
		}
	default:
		d.notify(ctx, itx, "Unknown command.")
	}
}

// ensureUsable unarchives the invocation thread once when needed. A second
// failure aborts the command with a notice instead of retrying indefinitely.
func (d *Dispatcher) ensureUsable(ctx context.Context, itx gateway.Interaction) bool {
	if itx.ThreadID == "" {
		return true
	}
	thread, err := d.client.FetchThread(ctx, itx.ThreadID)
	if err != nil || !thread.Archived {
		return true
	}
	if err := d.client.SetArchived(ctx, itx.ThreadID, false); err != nil {
		d.logger.Warn("unarchive before command", zap.String("thread_id", itx.ThreadID), zap.Error(err))
		d.notify(ctx, itx, "Could not unarchive this thread; try again later.")
		return false
	}
	return true
}

// transition applies the close/reopen state machine with its idempotence
// guards: a no-op transition produces a notice, never a duplicate action.
func (d *Dispatcher) transition(ctx context.Context, itx gateway.Interaction, ticketID string, target domain.TicketStatus) {
	ticket, err := d.tickets.GetByID(ctx, ticketID)
	if err != nil {
		d.notify(ctx, itx, "Ticket not found.")
		return
	}

	if ticket.Status == target {
		if target == domain.TicketStatusClosed {
			d.notify(ctx, itx, "This ticket is already closed.")
		} else {
			d.notify(ctx, itx, "This ticket is already open.")
		}
		return
	}

	if d.lifecycle.UpdateThreadStatus(ctx, ticketID, target, itx.UserName) {
		if target == domain.TicketStatusClosed {
			d.notify(ctx, itx, "Ticket closed.")
		} else {
			d.notify(ctx, itx, "Ticket reopened.")
		}
		return
	}
	d.notify(ctx, itx, "Could not update the ticket; try again later.")
}

func (d *Dispatcher) handleAsk(ctx context.Context, itx gateway.Interaction) {
	if d.assistant == nil {
		d.notify(ctx, itx, "The assistant is not configured.")
		return
	}
	prompt := strings.TrimSpace(itx.Args["prompt"])
	if prompt == "" {
		d.notify(ctx, itx, "Ask something, e.g. /ask how do I reset my password?")
		return
	}

	reply, err := d.assistant.Ask(ctx, itx.UserID, prompt)
	if err != nil {
		var limited *assistant.RateLimitedError
		if errors.As(err, &limited) {
			d.notify(ctx, itx, limited.RetryMessage)
			return
		}
		d.logger.Error("assistant request", zap.String("user_id", itx.UserID), zap.Error(err))
		d.notify(ctx, itx, "The assistant is unavailable right now.")
		return
	}

	target := &interactionTarget{client: d.client, interaction: itx}
	if err := d.sender.Send(ctx, target, reply); err != nil {
		if errors.Is(err, gateway.ErrExpiredInteraction) {
			d.logger.Debug("interaction expired before reply", zap.String("interaction_id", itx.ID))
			return
		}
		d.logger.Warn("deliver assistant reply", zap.Error(err))
	}
}

// notify sends an ephemeral notice to the invoking user. An expired
// interaction is a silent no-op: any reply attempt at that point would itself
// fail.
func (d *Dispatcher) notify(ctx context.Context, itx gateway.Interaction, content string) {
	err := d.client.Respond(ctx, itx.ID, gateway.Outgoing{Content: content, Ephemeral: true})
	if err != nil {
		if errors.Is(err, gateway.ErrExpiredInteraction) {
			d.logger.Debug("interaction expired", zap.String("interaction_id", itx.ID))
			return
		}
		d.logger.Warn("respond to interaction", zap.String("interaction_id", itx.ID), zap.Error(err))
	}
}

// parseAction splits a button custom id like "ticket_close:1234" into the
// command it maps to and the embedded ticket id. Plain slash commands pass
// through unchanged.
func parseAction(name string) (string, string) {
	if idx := strings.IndexByte(name, ':'); idx > 0 {
		prefix, ticketID := name[:idx], name[idx+1:]
		switch prefix {
		case ButtonClose:
			return CommandClose, ticketID
		case ButtonReopen:
			return CommandReopen, ticketID
		}
	}
	return name, ""
}

// interactionTarget answers the triggering interaction with the first segment
// and posts follow-ups into the invocation channel.
type interactionTarget struct {
	client      gateway.Client
	interaction gateway.Interaction
}

func (t *interactionTarget) SendFirst(ctx context.Context, content string) error {
	return t.client.Respond(ctx, t.interaction.ID, gateway.Outgoing{Content: content})
}

func (t *interactionTarget) SendFollowUp(ctx context.Context, content string) error {
	channel := t.interaction.ThreadID
	if channel == "" {
		channel = t.interaction.ChannelID
	}
	_, err := t.client.Send(ctx, channel, gateway.Outgoing{Content: content})
	return err
}
