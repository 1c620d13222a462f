package events

import (
	"time"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventThreadCreated       EventType = "thread_created"
	EventThreadStatusChanged EventType = "thread_status_changed"
	EventThreadDeleted       EventType = "thread_deleted"
	EventMessageRelayed      EventType = "message_relayed"
)

// RelayDirection names which way a message crossed the bridge.
type RelayDirection string

const (
	DirectionInbound  RelayDirection = "inbound"
	DirectionOutbound RelayDirection = "outbound"
)

// Event represents a bridge event emitted after a completed operation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ThreadCreatedPayload payload.
type ThreadCreatedPayload struct {
	ThreadID  string `json:"thread_id"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
}

// ThreadStatusChangedPayload payload.
type ThreadStatusChangedPayload struct {
	ThreadID  string              `json:"thread_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// ThreadDeletedPayload payload.
type ThreadDeletedPayload struct {
	ThreadID string `json:"thread_id"`
}

// MessageRelayedPayload payload.
type MessageRelayedPayload struct {
	Direction   RelayDirection `json:"direction"`
	ThreadID    string         `json:"thread_id"`
	BodyPreview string         `json:"body_preview"`
}
