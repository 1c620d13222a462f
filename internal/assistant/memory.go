package assistant

import "sync"

// TurnRole names a side of the assistant conversation.
type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// Turn is one utterance in a user's conversation with the assistant.
type Turn struct {
	Role TurnRole
	Text string
}

// DefaultMemoryTurns caps how much short-term context is kept per user.
const DefaultMemoryTurns = 10

// Memory holds a bounded FIFO log of assistant turns per user. It exists only
// to give the stateless assistant short-term context; it is never persisted
// and is lost on restart by design.
type Memory struct {
	mu    sync.Mutex
	cap   int
	turns map[string][]Turn
}

// NewMemory builds a memory bounded to capacity turns per user.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryTurns
	}
	return &Memory{cap: capacity, turns: make(map[string][]Turn)}
}

// Get returns a copy of the user's turns, oldest first.
func (m *Memory) Get(userID string) []Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.turns[userID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Append records a turn, evicting the oldest once at capacity.
func (m *Memory) Append(userID string, turn Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := append(m.turns[userID], turn)
	if len(turns) > m.cap {
		turns = turns[len(turns)-m.cap:]
	}
	m.turns[userID] = turns
}
