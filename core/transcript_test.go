package core

import (
	"errors"
	"testing"
)

func TestTranscript_AppendEnforcesSequence(t *testing.T) {
	tr := NewTranscript()
	speaker := NewParticipant("Coder", RoleAssistant)

	if err := tr.Append(NewTurn(speaker, 0, Message{Content: "first"})); err != nil {
		t.Fatalf("append seq 0 failed: %v", err)
	}
	if err := tr.Append(NewTurn(speaker, 1, Message{Content: "second"})); err != nil {
		t.Fatalf("append seq 1 failed: %v", err)
	}

	// Duplicate sequence must be rejected.
	if err := tr.Append(NewTurn(speaker, 1, Message{Content: "dup"})); !errors.Is(err, ErrOutOfOrderTurn) {
		t.Fatalf("expected ErrOutOfOrderTurn, got %v", err)
	}
	// Gaps must be rejected.
	if err := tr.Append(NewTurn(speaker, 5, Message{Content: "gap"})); !errors.Is(err, ErrOutOfOrderTurn) {
		t.Fatalf("expected ErrOutOfOrderTurn, got %v", err)
	}

	if tr.Len() != 2 {
		t.Fatalf("expected 2 turns, got %d", tr.Len())
	}
	for i, turn := range tr.Turns() {
		if turn.Sequence != i {
			t.Errorf("turn %d has sequence %d", i, turn.Sequence)
		}
	}
}

func TestTranscript_TurnsIsDefensiveCopy(t *testing.T) {
	tr := NewTranscript()
	if err := tr.Append(NewTurn(NewParticipant("Init", RoleInitiator), 0, Message{Content: "hi"})); err != nil {
		t.Fatal(err)
	}

	snapshot := tr.Turns()
	snapshot[0].Content = "mutated"

	if got, _ := tr.Last(); got.Content != "hi" {
		t.Errorf("transcript mutated through snapshot: %q", got.Content)
	}
}

func TestTranscript_Last(t *testing.T) {
	tr := NewTranscript()
	if _, ok := tr.Last(); ok {
		t.Fatal("empty transcript should have no last turn")
	}
	if err := tr.Append(NewTurn(NewParticipant("Init", RoleInitiator), 0, Message{})); err != nil {
		t.Fatal(err)
	}
	last, ok := tr.Last()
	if !ok || last.Sequence != 0 {
		t.Fatalf("unexpected last turn: %+v ok=%v", last, ok)
	}
}
