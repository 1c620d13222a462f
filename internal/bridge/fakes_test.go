package bridge_test

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/gateway"
)

type sentMessage struct {
	ChannelID string
	Msg       gateway.Outgoing
}

type archiveCall struct {
	ThreadID string
	Archived bool
}

// fakeGateway implements gateway.Client in memory for tests.
type fakeGateway struct {
	connected bool
	threads   map[string]*gateway.Thread
	nextID    int

	sent      []sentMessage
	reactions []string
	pins      []string
	responses []gateway.Outgoing
	archives  []archiveCall

	createCalls int
	createErr   error
	sendErr     map[string]error
	fetchErr    map[string]error
	respondErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		connected: true,
		threads:   make(map[string]*gateway.Thread),
		sendErr:   make(map[string]error),
		fetchErr:  make(map[string]error),
	}
}

func (g *fakeGateway) Connected() bool { return g.connected }

func (g *fakeGateway) CreateThread(ctx context.Context, channelID, name string) (*gateway.Thread, error) {
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.nextID++
	thread := &gateway.Thread{
		ID:        fmt.Sprintf("thread-%d", g.nextID),
		ChannelID: channelID,
		Name:      name,
	}
	g.threads[thread.ID] = thread
	return thread, nil
}

func (g *fakeGateway) FetchThread(ctx context.Context, threadID string) (*gateway.Thread, error) {
	if err := g.fetchErr[threadID]; err != nil {
		return nil, err
	}
	thread, ok := g.threads[threadID]
	if !ok {
		return nil, gateway.ErrUnknownEntity
	}
	copied := *thread
	return &copied, nil
}

func (g *fakeGateway) SetArchived(ctx context.Context, threadID string, archived bool) error {
	g.archives = append(g.archives, archiveCall{ThreadID: threadID, Archived: archived})
	thread, ok := g.threads[threadID]
	if !ok {
		return gateway.ErrUnknownEntity
	}
	thread.Archived = archived
	return nil
}

func (g *fakeGateway) Send(ctx context.Context, channelID string, msg gateway.Outgoing) (*gateway.Message, error) {
	if err := g.sendErr[channelID]; err != nil {
		return nil, err
	}
	g.sent = append(g.sent, sentMessage{ChannelID: channelID, Msg: msg})
	g.nextID++
	return &gateway.Message{ID: fmt.Sprintf("msg-%d", g.nextID), ChannelID: channelID, Content: msg.Content}, nil
}

func (g *fakeGateway) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	return nil
}

func (g *fakeGateway) React(ctx context.Context, channelID, messageID, emoji string) error {
	g.reactions = append(g.reactions, emoji)
	return nil
}

func (g *fakeGateway) Pin(ctx context.Context, channelID, messageID string) error {
	g.pins = append(g.pins, messageID)
	return nil
}

func (g *fakeGateway) Respond(ctx context.Context, interactionID string, msg gateway.Outgoing) error {
	if g.respondErr != nil {
		return g.respondErr
	}
	g.responses = append(g.responses, msg)
	return nil
}

func (g *fakeGateway) PollEvents(ctx context.Context) ([]gateway.Event, error) {
	return nil, nil
}

// sentTo filters captured sends by channel or thread id.
func (g *fakeGateway) sentTo(channelID string) []gateway.Outgoing {
	var out []gateway.Outgoing
	for _, s := range g.sent {
		if s.ChannelID == channelID {
			out = append(out, s.Msg)
		}
	}
	return out
}

// fakeTicketRepo implements repository.TicketRepository in memory.
type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	updates int
	listErr error
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
	for _, t := range tickets {
		repo.tickets[t.ID] = t
	}
	return repo
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	r.updates++
	return nil
}

func (r *fakeTicketRepo) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Ticket
	for _, t := range r.tickets {
		out = append(out, *t)
	}
	return out, nil
}

// fakeMappingRepo implements repository.ThreadMappingRepository in memory.
type fakeMappingRepo struct {
	byTicket map[string]domain.ThreadMapping
	getErr   map[string]error
	upserts  int
	deletes  int
}

func newFakeMappingRepo(mappings ...domain.ThreadMapping) *fakeMappingRepo {
	repo := &fakeMappingRepo{
		byTicket: make(map[string]domain.ThreadMapping),
		getErr:   make(map[string]error),
	}
	for _, m := range mappings {
		repo.byTicket[m.TicketID] = m
	}
	return repo
}

func (r *fakeMappingRepo) GetByTicket(ctx context.Context, ticketID string) (*domain.ThreadMapping, error) {
	if err := r.getErr[ticketID]; err != nil {
		return nil, err
	}
	mapping, ok := r.byTicket[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &mapping, nil
}

func (r *fakeMappingRepo) Upsert(ctx context.Context, mapping *domain.ThreadMapping) error {
	r.byTicket[mapping.TicketID] = *mapping
	r.upserts++
	return nil
}

func (r *fakeMappingRepo) Delete(ctx context.Context, ticketID string) error {
	if _, ok := r.byTicket[ticketID]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byTicket, ticketID)
	r.deletes++
	return nil
}

// fakeMessageRepo implements repository.TicketMessageRepository in memory.
type fakeMessageRepo struct {
	created []domain.TicketMessage
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *domain.TicketMessage) error {
	msg.ID = fmt.Sprintf("tm-%d", len(r.created)+1)
	r.created = append(r.created, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	var out []domain.TicketMessage
	for _, m := range r.created {
		if m.TicketID == ticketID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) FirstByTicket(ctx context.Context, ticketID string) (*domain.TicketMessage, error) {
	for _, m := range r.created {
		if m.TicketID == ticketID {
			copied := m
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// fakeUserRepo implements repository.UserRepository in memory.
type fakeUserRepo struct {
	admins []domain.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range r.admins {
		if u.ID == id {
			copied := u
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListAdmins(ctx context.Context) ([]domain.User, error) {
	return append([]domain.User{}, r.admins...), nil
}
