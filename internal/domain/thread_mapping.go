package domain

import "time"

// ThreadMapping ties a ticket to its gateway thread. At most one mapping
// exists per ticket, and a thread id appears in at most one live mapping.
// The persisted copy is authoritative across restarts; the in-memory registry
// is rebuilt from it on startup.
type ThreadMapping struct {
	TicketID  string
	ThreadID  string
	ChannelID string
	CreatedAt time.Time
}
