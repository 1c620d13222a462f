package bridge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/ticket-bridge/internal/assistant"
	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/gateway"
)

type fakeAsker struct {
	reply string
	err   error
	calls int
}

func (a *fakeAsker) Ask(ctx context.Context, userID, prompt string) (string, error) {
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	return a.reply, nil
}

func commandEvent(itx gateway.Interaction) gateway.Event {
	return gateway.Event{ID: "e-1", Type: gateway.EventCommand, Interaction: &itx}
}

func lastResponse(t *testing.T, gw *fakeGateway) gateway.Outgoing {
	t.Helper()
	if len(gw.responses) == 0 {
		t.Fatal("expected an interaction response")
	}
	return gw.responses[len(gw.responses)-1]
}

func TestDispatcherCommandOutsideTicketThread(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	d := f.dispatcher(nil)

	d.HandleEvent(context.Background(), commandEvent(gateway.Interaction{
		ID:        "i-1",
		Name:      "close",
		ChannelID: "chan-1",
		UserID:    "u-1",
		UserName:  "Bob",
	}))

	resp := lastResponse(t, f.gw)
	if resp.Content != "This command only works inside a ticket thread." {
		t.Fatalf("unexpected notice: %q", resp.Content)
	}
	if !resp.Ephemeral {
		t.Fatal("notice must be ephemeral")
	}
	if f.tickets.updates != 0 {
		t.Fatal("no ticket may change")
	}
}

func TestDispatcherCloseCommand(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	ctx := context.Background()
	created := f.lifecycle.CreateThreadForTicket(ctx, "42", "Login broken", "hello", "Alice")
	d := f.dispatcher(nil)

	d.HandleEvent(ctx, commandEvent(gateway.Interaction{
		ID:       "i-1",
		Name:     "close",
		ThreadID: created.ThreadID,
		UserID:   "u-1",
		UserName: "Bob",
	}))

	ticket, _ := f.tickets.GetByID(ctx, "42")
	if ticket.Status != domain.TicketStatusClosed {
		t.Fatalf("ticket not closed: %q", ticket.Status)
	}
	if got := lastResponse(t, f.gw).Content; got != "Ticket closed." {
		t.Fatalf("unexpected confirmation: %q", got)
	}
}

func TestDispatcherCloseButtonCarriesTicketID(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	ctx := context.Background()
	f.registry.Bind(domain.ThreadMapping{TicketID: "42", ThreadID: "t-1", ChannelID: "chan-1"})
	f.gw.threads["t-1"] = &gateway.Thread{ID: "t-1", ChannelID: "chan-1"}
	d := f.dispatcher(nil)

	d.HandleEvent(ctx, gateway.Event{
		ID:   "e-1",
		Type: gateway.EventButton,
		Interaction: &gateway.Interaction{
			ID:       "i-1",
			Name:     "ticket_close:42",
			ThreadID: "t-1",
			UserID:   "u-1",
			UserName: "Bob",
		},
	})

	ticket, _ := f.tickets.GetByID(ctx, "42")
	if ticket.Status != domain.TicketStatusClosed {
		t.Fatalf("button press must close the embedded ticket, got %q", ticket.Status)
	}
}

func TestDispatcherCloseAlreadyClosed(t *testing.T) {
	ticket := openTicket("42", "Login broken")
	ticket.Status = domain.TicketStatusClosed
	f := newFixture(ticket)
	f.registry.Bind(domain.ThreadMapping{TicketID: "42", ThreadID: "t-1", ChannelID: "chan-1"})
	f.gw.threads["t-1"] = &gateway.Thread{ID: "t-1", ChannelID: "chan-1"}
	d := f.dispatcher(nil)

	d.HandleEvent(context.Background(), commandEvent(gateway.Interaction{
		ID:       "i-1",
		Name:     "close",
		ThreadID: "t-1",
		UserName: "Bob",
	}))

	if got := lastResponse(t, f.gw).Content; got != "This ticket is already closed." {
		t.Fatalf("expected idempotence notice, got %q", got)
	}
	if f.tickets.updates != 0 {
		t.Fatal("no store write allowed for a no-op transition")
	}
	if len(f.gw.archives) != 0 {
		t.Fatal("no archive call allowed for a no-op transition")
	}
}

func TestDispatcherUnarchivesBeforeCommand(t *testing.T) {
	ticket := openTicket("42", "Login broken")
	ticket.Status = domain.TicketStatusClosed
	f := newFixture(ticket)
	ctx := context.Background()
	f.registry.Bind(domain.ThreadMapping{TicketID: "42", ThreadID: "t-1", ChannelID: "chan-1"})
	f.gw.threads["t-1"] = &gateway.Thread{ID: "t-1", ChannelID: "chan-1", Archived: true}
	d := f.dispatcher(nil)

	d.HandleEvent(ctx, commandEvent(gateway.Interaction{
		ID:       "i-1",
		Name:     "reopen",
		ThreadID: "t-1",
		UserName: "Bob",
	}))

	if len(f.gw.archives) == 0 || f.gw.archives[0].Archived {
		t.Fatalf("expected an unarchive before the command, got %+v", f.gw.archives)
	}
	reloaded, _ := f.tickets.GetByID(ctx, "42")
	if reloaded.Status != domain.TicketStatusOpen {
		t.Fatalf("ticket not reopened: %q", reloaded.Status)
	}
}

func TestDispatcherExpiredInteractionIsSilent(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	f.gw.respondErr = gateway.ErrExpiredInteraction
	d := f.dispatcher(nil)

	d.HandleEvent(context.Background(), commandEvent(gateway.Interaction{
		ID:       "i-1",
		Name:     "close",
		UserName: "Bob",
	}))

	if len(f.gw.responses) != 0 {
		t.Fatal("expired interactions must not be answered")
	}
}

func TestDispatcherAsk(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	asker := &fakeAsker{reply: "Reset it from the login page."}
	d := f.dispatcher(asker)

	d.HandleEvent(context.Background(), commandEvent(gateway.Interaction{
		ID:        "i-1",
		Name:      "ask",
		ChannelID: "chan-1",
		UserID:    "u-1",
		UserName:  "Alice",
		Args:      map[string]string{"prompt": "how do I reset my password?"},
	}))

	if asker.calls != 1 {
		t.Fatalf("expected one assistant call, got %d", asker.calls)
	}
	if got := lastResponse(t, f.gw).Content; got != "Reset it from the login page." {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestDispatcherAskRateLimited(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	asker := &fakeAsker{err: &assistant.RateLimitedError{RetryMessage: "Rate limit reached — try again in 30s."}}
	d := f.dispatcher(asker)

	d.HandleEvent(context.Background(), commandEvent(gateway.Interaction{
		ID:     "i-1",
		Name:   "ask",
		UserID: "u-1",
		Args:   map[string]string{"prompt": "hello"},
	}))

	resp := lastResponse(t, f.gw)
	if resp.Content != "Rate limit reached — try again in 30s." {
		t.Fatalf("expected retry message, got %q", resp.Content)
	}
	if !resp.Ephemeral {
		t.Fatal("rate-limit notice must be ephemeral")
	}
}

func TestDispatcherAskWithoutPrompt(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	asker := &fakeAsker{reply: "unused"}
	d := f.dispatcher(asker)

	d.HandleEvent(context.Background(), commandEvent(gateway.Interaction{
		ID:     "i-1",
		Name:   "ask",
		UserID: "u-1",
	}))

	if asker.calls != 0 {
		t.Fatal("empty prompt must not reach the assistant")
	}
	if len(f.gw.responses) != 1 {
		t.Fatalf("expected a usage hint, got %d responses", len(f.gw.responses))
	}
}

func TestDispatcherAskFailure(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	asker := &fakeAsker{err: errors.New("upstream 500")}
	d := f.dispatcher(asker)

	d.HandleEvent(context.Background(), commandEvent(gateway.Interaction{
		ID:     "i-1",
		Name:   "ask",
		UserID: "u-1",
		Args:   map[string]string{"prompt": "hello"},
	}))

	if got := lastResponse(t, f.gw).Content; got != "The assistant is unavailable right now." {
		t.Fatalf("unexpected failure notice: %q", got)
	}
}
