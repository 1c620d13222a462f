package domain

import "time"

// MessageAuthorType indicates who authored a message.
type MessageAuthorType string

const (
	AuthorTypeUser     MessageAuthorType = "USER"
	AuthorTypeOperator MessageAuthorType = "OPERATOR"
	AuthorTypeSystem   MessageAuthorType = "SYSTEM"
)

// TicketMessage captures one entry in a ticket conversation. Messages are
// append-only: the bridge creates them and never mutates or deletes them.
// Direction (inbound from the gateway vs outbound from staff) is encoded by
// a display-name prefix in Body, matching what the dashboard renders.
type TicketMessage struct {
	ID         string
	TicketID   string
	AuthorType MessageAuthorType
	AuthorID   *string
	Body       string
	CreatedAt  time.Time
}
