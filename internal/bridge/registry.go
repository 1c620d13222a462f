package bridge

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/repository"
)

// Registry is the in-memory ticket-to-thread index and the single source of
// truth for "does this ticket have a live thread". It is rebuilt from the
// persisted mapping store on startup so the bridge resumes routing after a
// restart without re-creating threads.
type Registry struct {
	mu       sync.RWMutex
	byTicket map[string]domain.ThreadMapping

	tickets  repository.TicketRepository
	mappings repository.ThreadMappingRepository
	logger   *zap.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(tickets repository.TicketRepository, mappings repository.ThreadMappingRepository, logger *zap.Logger) *Registry {
	return &Registry{
		byTicket: make(map[string]domain.ThreadMapping),
		tickets:  tickets,
		mappings: mappings,
		logger:   logger,
	}
}

// Recover repopulates the registry from the persisted mapping store. A lookup
// failure for one ticket is skipped; the mapping is retried lazily on next
// use. Only a failure to enumerate tickets is reported.
func (r *Registry) Recover(ctx context.Context) error {
	tickets, err := r.tickets.ListAll(ctx)
	if err != nil {
		return err
	}

	recovered := 0
	for _, ticket := range tickets {
		mapping, err := r.mappings.GetByTicket(ctx, ticket.ID)
		if err != nil {
			continue
		}
		r.Bind(*mapping)
		recovered++
	}

	r.logger.Info("thread mappings recovered", zap.Int("count", recovered))
	return nil
}

// LookupThread returns the thread mapped to a ticket.
func (r *Registry) LookupThread(ticketID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mapping, ok := r.byTicket[ticketID]
	if !ok {
		return "", false
	}
	return mapping.ThreadID, true
}

// LookupTicket returns the ticket mapped to a thread. Reverse scan is fine at
// the expected scale of hundreds of live mappings.
func (r *Registry) LookupTicket(threadID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for ticketID, mapping := range r.byTicket {
		if mapping.ThreadID == threadID {
			return ticketID, true
		}
	}
	return "", false
}

// LookupOrLoad returns the mapping for a ticket, falling back to the
// persisted store when the in-memory copy is missing (the lazy retry after a
// skipped recovery).
func (r *Registry) LookupOrLoad(ctx context.Context, ticketID string) (domain.ThreadMapping, bool) {
	r.mu.RLock()
	mapping, ok := r.byTicket[ticketID]
	r.mu.RUnlock()
	if ok {
		return mapping, true
	}

	loaded, err := r.mappings.GetByTicket(ctx, ticketID)
	if err != nil {
		return domain.ThreadMapping{}, false
	}
	r.Bind(*loaded)
	return *loaded, true
}

// Bind records a ticket-to-thread mapping.
func (r *Registry) Bind(mapping domain.ThreadMapping) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTicket[mapping.TicketID] = mapping
}

// Unbind drops the mapping for a ticket.
func (r *Registry) Unbind(ticketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byTicket, ticketID)
}

// Len reports the number of live mappings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byTicket)
}
