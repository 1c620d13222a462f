package dto

import "github.com/spec-kit/ticket-bridge/internal/domain"

// CreateThreadRequest payload for opening a thread for a ticket.
type CreateThreadRequest struct {
	Subject        string `json:"subject"`
	InitialMessage string `json:"initial_message"`
	AuthorName     string `json:"author_name"`
}

// CreateThreadResponse reports the bound thread.
type CreateThreadResponse struct {
	TicketID string `json:"ticket_id"`
	ThreadID string `json:"thread_id"`
}

// ReplyRequest payload for relaying a ticket reply to the thread.
type ReplyRequest struct {
	Body       string `json:"body"`
	AuthorName string `json:"author_name"`
	IsOperator bool   `json:"is_operator"`
}

// StatusRequest payload for relaying a ticket status change.
type StatusRequest struct {
	Status    domain.TicketStatus `json:"status"`
	ActorName string              `json:"actor_name"`
}

// DeleteThreadRequest payload for tearing down a deleted ticket's thread.
type DeleteThreadRequest struct {
	ActorName string `json:"actor_name"`
}

// BridgeStatusResponse summarizes bridge state for diagnostics.
type BridgeStatusResponse struct {
	Configured   bool  `json:"configured"`
	LiveMappings int   `json:"live_mappings"`
	RelayedIn    int64 `json:"relayed_inbound"`
	RelayedOut   int64 `json:"relayed_outbound"`
}
