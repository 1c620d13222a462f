package gateway

import (
	"context"
	"errors"
)

// Sentinel errors classifying gateway call failures. Callers are expected to
// branch with errors.Is rather than string matching.
var (
	ErrNotConnected       = errors.New("gateway not connected")
	ErrUnknownEntity      = errors.New("unknown gateway entity")
	ErrPermissionDenied   = errors.New("gateway permission denied")
	ErrExpiredInteraction = errors.New("interaction expired")
)

// Thread is a gateway-side sub-conversation channel.
type Thread struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
	Archived  bool   `json:"archived"`
}

// Message is a message observed on or sent to the gateway.
type Message struct {
	ID         string `json:"id"`
	ChannelID  string `json:"channel_id"`
	ThreadID   string `json:"thread_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	FromBot    bool   `json:"from_bot"`
}

// Button is a clickable control attached to an outgoing message.
type Button struct {
	ID    string
	Label string
}

// Outgoing describes a message to send.
type Outgoing struct {
	Content   string
	Buttons   []Button
	Ephemeral bool
}

// EventType discriminates gateway event payloads.
type EventType string

const (
	EventMessage EventType = "message"
	EventCommand EventType = "command"
	EventButton  EventType = "button"
)

// Interaction is a slash-command or button invocation. The acknowledgment
// window on interactions is short; responding after it has elapsed yields
// ErrExpiredInteraction.
type Interaction struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	ChannelID string            `json:"channel_id"`
	ThreadID  string            `json:"thread_id"`
	UserID    string            `json:"user_id"`
	UserName  string            `json:"user_name"`
	Args      map[string]string `json:"args,omitempty"`
}

// Event is one unit of inbound gateway traffic.
type Event struct {
	ID          string       `json:"id"`
	Type        EventType    `json:"type"`
	Message     *Message     `json:"message,omitempty"`
	Interaction *Interaction `json:"interaction,omitempty"`
}

// Client is the chat-gateway surface the bridge depends on. Implementations
// live behind this interface so the core never handles gateway wire types.
type Client interface {
	Connected() bool

	CreateThread(ctx context.Context, channelID, name string) (*Thread, error)
	FetchThread(ctx context.Context, threadID string) (*Thread, error)
	SetArchived(ctx context.Context, threadID string, archived bool) error

	Send(ctx context.Context, channelID string, msg Outgoing) (*Message, error)
	EditMessage(ctx context.Context, channelID, messageID, content string) error
	React(ctx context.Context, channelID, messageID, emoji string) error
	Pin(ctx context.Context, channelID, messageID string) error

	Respond(ctx context.Context, interactionID string, msg Outgoing) error

	PollEvents(ctx context.Context) ([]Event, error)
}
