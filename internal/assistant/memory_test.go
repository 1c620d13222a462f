package assistant

import (
	"fmt"
	"testing"
)

func TestMemoryAppendAndGet(t *testing.T) {
	m := NewMemory(4)

	m.Append("u-1", Turn{Role: RoleUser, Text: "hi"})
	m.Append("u-1", Turn{Role: RoleAssistant, Text: "hello"})

	turns := m.Get("u-1")
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Text != "hi" || turns[1].Text != "hello" {
		t.Fatalf("turns out of order: %+v", turns)
	}
}

func TestMemoryEvictsOldestAtCapacity(t *testing.T) {
	m := NewMemory(10)

	for i := 0; i < 15; i++ {
		m.Append("u-1", Turn{Role: RoleUser, Text: fmt.Sprintf("turn-%d", i)})
	}

	turns := m.Get("u-1")
	if len(turns) != 10 {
		t.Fatalf("expected memory capped at 10, got %d", len(turns))
	}
	if turns[0].Text != "turn-5" || turns[9].Text != "turn-14" {
		t.Fatalf("expected oldest turns evicted, got first=%q last=%q", turns[0].Text, turns[9].Text)
	}
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	m := NewMemory(4)
	m.Append("u-1", Turn{Role: RoleUser, Text: "original"})

	turns := m.Get("u-1")
	turns[0].Text = "mutated"

	if got := m.Get("u-1")[0].Text; got != "original" {
		t.Fatalf("caller mutation leaked into memory: %q", got)
	}
}

func TestMemoryIsPerUser(t *testing.T) {
	m := NewMemory(4)
	m.Append("u-1", Turn{Role: RoleUser, Text: "mine"})

	if got := m.Get("u-2"); len(got) != 0 {
		t.Fatalf("expected empty memory for another user, got %+v", got)
	}
}
