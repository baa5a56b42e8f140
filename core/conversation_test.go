package core

import (
	"errors"
	"testing"
)

func TestConversation_RoundCap(t *testing.T) {
	c := NewConversation("c1", 2)
	init := NewParticipant("Init", RoleInitiator)
	worker := NewParticipant("Worker", RoleAssistant)

	// Seed does not consume a round; empty content is valid.
	if err := c.Seed(NewTurn(init, 0, Message{Content: ""})); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if c.RoundCount != 0 {
		t.Fatalf("seed consumed a round: %d", c.RoundCount)
	}

	if err := c.AppendTurn(NewTurn(worker, 1, Message{Content: "a"})); err != nil {
		t.Fatal(err)
	}
	if err := c.AppendTurn(NewTurn(worker, 2, Message{Content: "b"})); err != nil {
		t.Fatal(err)
	}
	if c.RoundsLeft() != 0 {
		t.Fatalf("expected 0 rounds left, got %d", c.RoundsLeft())
	}

	// Cap exhausted: further appends rejected, invariant round_count <= max_rounds holds.
	err := c.AppendTurn(NewTurn(worker, 3, Message{Content: "c"}))
	if !errors.Is(err, ErrConversationTerminated) {
		t.Fatalf("expected ErrConversationTerminated, got %v", err)
	}
	if c.RoundCount > c.MaxRounds {
		t.Fatalf("round count %d exceeds max %d", c.RoundCount, c.MaxRounds)
	}
}

func TestConversation_TerminateStopsAppends(t *testing.T) {
	c := NewConversation("c2", 10)
	if err := c.Seed(NewTurn(NewParticipant("Init", RoleInitiator), 0, Message{Content: "go"})); err != nil {
		t.Fatal(err)
	}

	c.Terminate(StopReasonPolicy)
	if !c.IsTerminated() || c.Reason() != StopReasonPolicy {
		t.Fatalf("unexpected state: terminated=%v reason=%q", c.IsTerminated(), c.Reason())
	}

	err := c.AppendTurn(NewTurn(NewParticipant("W", RoleAssistant), 1, Message{Content: "late"}))
	if !errors.Is(err, ErrConversationTerminated) {
		t.Fatalf("expected ErrConversationTerminated, got %v", err)
	}

	// First reason wins.
	c.Terminate(StopReasonRoundLimit)
	if c.Reason() != StopReasonPolicy {
		t.Errorf("terminate overwrote reason: %q", c.Reason())
	}
}

func TestConversation_CloneIsIndependent(t *testing.T) {
	c := NewConversation("c3", 5)
	if err := c.Seed(NewTurn(NewParticipant("Init", RoleInitiator), 0, Message{Content: "hi"})); err != nil {
		t.Fatal(err)
	}

	clone := c.Clone()
	if clone == c {
		t.Fatal("Clone should be a different pointer")
	}
	if err := clone.AppendTurn(NewTurn(NewParticipant("W", RoleAssistant), 1, Message{Content: "x"})); err != nil {
		t.Fatal(err)
	}
	if c.Transcript.Len() != 1 {
		t.Errorf("original transcript grew with clone: %d", c.Transcript.Len())
	}
}
