package bridge_test

import (
	"context"
	"strings"
	"testing"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/gateway"
)

func inboundMessage(threadID, content string) gateway.Message {
	return gateway.Message{
		ID:         "m-1",
		ChannelID:  "chan-1",
		ThreadID:   threadID,
		AuthorID:   "ext-9",
		AuthorName: "Alice",
		Content:    content,
	}
}

func TestHandleInboundStoresTaggedMessage(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	ctx := context.Background()
	f.registry.Bind(domain.ThreadMapping{TicketID: "42", ThreadID: "t-1", ChannelID: "chan-1"})

	if err := f.router.HandleInbound(ctx, inboundMessage("t-1", "any update?")); err != nil {
		t.Fatalf("inbound failed: %v", err)
	}
	if len(f.messages.created) != 1 {
		t.Fatalf("expected one stored message, got %d", len(f.messages.created))
	}

	stored := f.messages.created[0]
	if stored.TicketID != "42" {
		t.Fatalf("wrong ticket: %q", stored.TicketID)
	}
	if stored.Body != "[chat] Alice: any update?" {
		t.Fatalf("wrong body: %q", stored.Body)
	}
	if stored.AuthorType != domain.AuthorTypeSystem {
		t.Fatalf("wrong author type: %q", stored.AuthorType)
	}
	if stored.AuthorID == nil || *stored.AuthorID != "admin-1" {
		t.Fatalf("expected attribution to the first admin, got %v", stored.AuthorID)
	}
	if len(f.gw.reactions) != 1 || f.gw.reactions[0] != "✅" {
		t.Fatalf("expected success reaction, got %v", f.gw.reactions)
	}
}

func TestHandleInboundRejectsClosedTicket(t *testing.T) {
	ticket := openTicket("42", "Login broken")
	ticket.Status = domain.TicketStatusClosed
	f := newFixture(ticket)
	ctx := context.Background()
	f.registry.Bind(domain.ThreadMapping{TicketID: "42", ThreadID: "t-1", ChannelID: "chan-1"})

	if err := f.router.HandleInbound(ctx, inboundMessage("t-1", "hello?")); err != nil {
		t.Fatalf("closed-ticket rejection must not error: %v", err)
	}
	if len(f.messages.created) != 0 {
		t.Fatal("nothing may be stored for a closed ticket")
	}
	if len(f.gw.reactions) != 1 || f.gw.reactions[0] != "❌" {
		t.Fatalf("expected failure reaction, got %v", f.gw.reactions)
	}

	notices := f.gw.sentTo("t-1")
	if len(notices) != 1 || !strings.Contains(notices[0].Content, "Reopen it before replying") {
		t.Fatalf("expected reopen hint in thread, got %+v", notices)
	}
}

func TestHandleInboundIgnoresBotsAndUnmappedThreads(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	ctx := context.Background()
	f.registry.Bind(domain.ThreadMapping{TicketID: "42", ThreadID: "t-1", ChannelID: "chan-1"})

	bot := inboundMessage("t-1", "automated")
	bot.FromBot = true
	if err := f.router.HandleInbound(ctx, bot); err != nil {
		t.Fatalf("bot message must be ignored: %v", err)
	}
	if err := f.router.HandleInbound(ctx, inboundMessage("t-unknown", "hi")); err != nil {
		t.Fatalf("unmapped thread must be ignored: %v", err)
	}
	if err := f.router.HandleInbound(ctx, inboundMessage("", "hi")); err != nil {
		t.Fatalf("non-thread message must be ignored: %v", err)
	}
	if len(f.messages.created) != 0 || len(f.gw.reactions) != 0 {
		t.Fatal("ignored messages must leave no trace")
	}
}

func TestSendReplyToThread(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	ctx := context.Background()
	f.registry.Bind(domain.ThreadMapping{TicketID: "42", ThreadID: "t-1", ChannelID: "chan-1"})

	if !f.router.SendReplyToThread(ctx, "42", "Try resetting your password.", "Bob", true) {
		t.Fatal("reply must be relayed")
	}
	sent := f.gw.sentTo("t-1")
	if len(sent) != 1 {
		t.Fatalf("expected one send, got %d", len(sent))
	}
	if !strings.Contains(sent[0].Content, "Bob (staff)") || !strings.Contains(sent[0].Content, "Try resetting your password.") {
		t.Fatalf("unexpected rendering: %q", sent[0].Content)
	}
}

func TestSendReplyCreatesThreadOnDemand(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	ctx := context.Background()

	if !f.router.SendReplyToThread(ctx, "42", "Looking into it.", "Bob", true) {
		t.Fatal("reply must succeed by creating the thread")
	}
	if f.gw.createCalls != 1 {
		t.Fatalf("expected on-demand thread creation, got %d creates", f.gw.createCalls)
	}
	threadID, ok := f.registry.LookupThread("42")
	if !ok {
		t.Fatal("created thread must be bound")
	}
	sent := f.gw.sentTo(threadID)
	// Intro first, then the reply.
	if len(sent) != 2 || !strings.Contains(sent[1].Content, "Looking into it.") {
		t.Fatalf("expected intro followed by reply, got %+v", sent)
	}
}

func TestSendReplyHealsStaleMapping(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	ctx := context.Background()
	f.registry.Bind(domain.ThreadMapping{TicketID: "42", ThreadID: "t-gone", ChannelID: "chan-1"})
	f.mappings.byTicket["42"] = domain.ThreadMapping{TicketID: "42", ThreadID: "t-gone", ChannelID: "chan-1"}
	f.gw.sendErr["t-gone"] = gateway.ErrUnknownEntity

	if f.router.SendReplyToThread(ctx, "42", "hello", "Bob", false) {
		t.Fatal("send to a vanished thread must fail")
	}
	if _, ok := f.registry.LookupThread("42"); ok {
		t.Fatal("stale mapping must be dropped from the registry")
	}
	if f.mappings.deletes != 1 {
		t.Fatalf("stale mapping must be dropped from the store, got %d deletes", f.mappings.deletes)
	}

	// The retry now recreates a fresh thread.
	if !f.router.SendReplyToThread(ctx, "42", "hello again", "Bob", false) {
		t.Fatal("retry after self-heal must succeed")
	}
	if f.gw.createCalls != 1 {
		t.Fatalf("expected one re-creation, got %d", f.gw.createCalls)
	}
}

func TestSendReplyWhenGatewayNotConfigured(t *testing.T) {
	f := newFixture(openTicket("42", "Login broken"))
	f.gw.connected = false

	if f.router.SendReplyToThread(context.Background(), "42", "hi", "Bob", false) {
		t.Fatal("reply must be skipped while disconnected")
	}
	if len(f.gw.sent) != 0 {
		t.Fatal("no sends expected while disconnected")
	}
}
