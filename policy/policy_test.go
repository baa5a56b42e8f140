package policy

import (
	"testing"

	"github.com/hupe1980/groupflow/core"
)

var (
	initP     = core.NewParticipant("Init", core.RoleInitiator)
	coder     = core.NewParticipant("Coder", core.RoleAssistant)
	executor  = core.NewParticipant("Executor", core.RoleExecutor)
	scientist = core.NewParticipant("Scientist", core.RoleAssistant)
)

func turnBy(p core.Participant, seq int, content string) core.Turn {
	return core.NewTurn(p, seq, core.Message{Content: content})
}

func researchFlow() *StateFlow {
	return NewStateFlow(initP, []core.Participant{coder, executor, scientist}, []Transition{
		{From: "Init", Next: "Coder"},
		{From: "Coder", Next: "Executor"},
		{From: "Executor", Next: "Coder", When: func(last core.Turn) bool { return last.Content == "exitcode: 1" }},
		{From: "Executor", Next: "Scientist"},
		{From: "Scientist", Next: ""},
	})
}

func TestStateFlow_ResearchWorkflow(t *testing.T) {
	flow := researchFlow()

	// Empty transcript yields the initiator.
	next, ok := flow.NextSpeaker(core.Participant{}, nil)
	if !ok || next != initP {
		t.Fatalf("empty transcript: got %v ok=%v", next, ok)
	}

	transcript := []core.Turn{turnBy(initP, 0, "Topic: LLM papers")}
	next, ok = flow.NextSpeaker(initP, transcript)
	if !ok || next != coder {
		t.Fatalf("after Init: got %v ok=%v", next, ok)
	}

	transcript = append(transcript, turnBy(coder, 1, "```python\nprint('hi')\n```"))
	next, ok = flow.NextSpeaker(coder, transcript)
	if !ok || next != executor {
		t.Fatalf("after Coder: got %v ok=%v", next, ok)
	}

	// Failed execution routes back to the Coder, not on to the Scientist.
	failed := append(transcript, turnBy(executor, 2, "exitcode: 1"))
	next, ok = flow.NextSpeaker(executor, failed)
	if !ok || next != coder {
		t.Fatalf("after failed execution: got %v ok=%v, want Coder", next, ok)
	}

	succeeded := append(transcript, turnBy(executor, 2, "exitcode: 0 (execution succeeded)"))
	next, ok = flow.NextSpeaker(executor, succeeded)
	if !ok || next != scientist {
		t.Fatalf("after successful execution: got %v ok=%v, want Scientist", next, ok)
	}

	done := append(succeeded, turnBy(scientist, 3, "| Domain | Title |"))
	if _, ok = flow.NextSpeaker(scientist, done); ok {
		t.Fatal("after Scientist: expected terminate")
	}
}

func TestStateFlow_FailsClosed(t *testing.T) {
	flow := researchFlow()
	stranger := core.NewParticipant("Stranger", core.RoleAssistant)
	transcript := []core.Turn{turnBy(stranger, 0, "hello")}

	if _, ok := flow.NextSpeaker(stranger, transcript); ok {
		t.Fatal("unknown last speaker must terminate")
	}

	// Edge pointing at an unregistered participant also terminates.
	broken := NewStateFlow(initP, nil, []Transition{{From: "Init", Next: "Ghost"}})
	if _, ok := broken.NextSpeaker(initP, transcript); ok {
		t.Fatal("edge to unregistered participant must terminate")
	}
}

func TestStateFlow_Deterministic(t *testing.T) {
	flow := researchFlow()
	transcript := []core.Turn{turnBy(initP, 0, "go"), turnBy(coder, 1, "code")}

	first, ok1 := flow.NextSpeaker(coder, transcript)
	for i := 0; i < 10; i++ {
		next, ok := flow.NextSpeaker(coder, transcript)
		if ok != ok1 || next != first {
			t.Fatalf("selection not deterministic: run %d got %v ok=%v", i, next, ok)
		}
	}
}

func TestRoundRobin(t *testing.T) {
	rr := NewRoundRobin(initP, coder, executor)

	next, ok := rr.NextSpeaker(core.Participant{}, nil)
	if !ok || next != initP {
		t.Fatalf("empty transcript: got %v", next)
	}

	transcript := []core.Turn{turnBy(executor, 0, "wrap")}
	next, ok = rr.NextSpeaker(executor, transcript)
	if !ok || next != initP {
		t.Fatalf("rotation should wrap to initiator, got %v", next)
	}

	if _, ok = rr.NextSpeaker(scientist, transcript); ok {
		t.Fatal("speaker outside rotation must terminate")
	}
}

func TestWithTermination_Sentinel(t *testing.T) {
	wrapped := WithTermination(NewRoundRobin(initP, coder), SentinelSuffix(DefaultSentinel))

	live := []core.Turn{turnBy(initP, 0, "keep going")}
	if _, ok := wrapped.NextSpeaker(initP, live); !ok {
		t.Fatal("non-sentinel content should not terminate")
	}

	done := []core.Turn{turnBy(coder, 0, "All done. TERMINATE")}
	if _, ok := wrapped.NextSpeaker(coder, done); ok {
		t.Fatal("sentinel suffix must terminate regardless of rotation")
	}
}

func TestSentinelMatchers(t *testing.T) {
	tests := []struct {
		name    string
		cond    TerminationFunc
		content string
		want    bool
	}{
		{"suffix match", SentinelSuffix("TERMINATE"), "done TERMINATE", true},
		{"suffix with trailing space", SentinelSuffix("TERMINATE"), "done TERMINATE  ", true},
		{"mention mid-sentence", SentinelSuffix("TERMINATE"), "say TERMINATE to stop", false},
		{"exact match", SentinelExact("TERMINATE"), "TERMINATE", true},
		{"exact rejects suffix", SentinelExact("TERMINATE"), "done TERMINATE", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn := turnBy(coder, 0, tt.content)
			if got := tt.cond.ShouldTerminate(turn); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetadataSignal(t *testing.T) {
	turn := core.NewTurn(coder, 0, core.Message{Content: "result", Metadata: map[string]string{"final": "true"}})
	if !MetadataSignal("final").ShouldTerminate(turn) {
		t.Fatal("metadata key should terminate")
	}
	if MetadataSignal("final").ShouldTerminate(turnBy(coder, 0, "result")) {
		t.Fatal("missing metadata key should not terminate")
	}
}
