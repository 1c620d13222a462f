package domain

import "time"

// UserStatus represents lifecycle states for an internal user.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is an internal operator account from the ticket store. Admin users are
// candidates for system-actor attribution of inbound gateway messages.
type User struct {
	ID        string
	Name      string
	Email     string
	IsAdmin   bool
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
