package protocol

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeCapability struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (f *fakeCapability) Complete(ctx context.Context, instruction, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func answeredIDs(questions []Question) map[string]bool {
	out := make(map[string]bool)
	for _, q := range questions {
		if q.Answered {
			out[q.ID] = true
		}
	}
	return out
}

func TestInitialize_SeedsPredefinedSet(t *testing.T) {
	tr := NewTracker(&fakeCapability{})
	qs := tr.Initialize("call-1")
	if len(qs) != 6 {
		t.Fatalf("expected 6 predefined questions, got %d", len(qs))
	}
	for i, q := range qs {
		if !q.Predefined || q.Answered {
			t.Fatalf("question %d not seeded unanswered predefined: %+v", i, q)
		}
		if q.Priority != i+1 {
			t.Fatalf("expected ascending priorities 1..6, got %d at %d", q.Priority, i)
		}
	}
}

func TestCheckAndMark_PatternsAndCompletion(t *testing.T) {
	tr := NewTracker(&fakeCapability{})
	tr.Initialize("call-1")

	updated, marked := tr.CheckAndMark("call-1",
		"There is a fire at 45 Oak Street, my neighbor is trapped inside")
	if !updated {
		t.Fatalf("expected questions to be marked")
	}
	got := make(map[string]bool)
	for _, id := range marked {
		got[id] = true
	}
	for _, want := range []string{QLocation, QNature, QPeople} {
		if !got[want] {
			t.Fatalf("expected %s marked, got %v", want, marked)
		}
	}
	if pct := tr.CompletionPercentage("call-1"); pct != 50 {
		t.Fatalf("3 of 6 answered should be 50%%, got %d", pct)
	}
}

func TestCheckAndMark_AnsweredNeverReverts(t *testing.T) {
	tr := NewTracker(&fakeCapability{})
	tr.Initialize("call-1")
	tr.CheckAndMark("call-1", "it started 10 minutes ago")
	if !answeredIDs(tr.Questions("call-1"))[QTiming] {
		t.Fatalf("timing question should be answered")
	}

	// Later text with no timing signal must not flip it back.
	updated, marked := tr.CheckAndMark("call-1", "please hurry")
	if updated || len(marked) != 0 {
		t.Fatalf("expected no change, got %v", marked)
	}
	if !answeredIDs(tr.Questions("call-1"))[QTiming] {
		t.Fatalf("answered question reverted")
	}
}

func TestGenerateAdditional_AppendsDedupsAndSorts(t *testing.T) {
	cap := &fakeCapability{response: `[
		{"question": "Is anyone showing signs of smoke inhalation?", "category": "medical"},
		{"question": "What is the exact location of the emergency?", "category": "location"},
		{"question": "Are there pets inside the building?", "category": "safety", "priority": 50}
	]`}
	tr := NewTracker(cap)
	tr.Initialize("call-1")

	added := tr.GenerateAdditional(context.Background(), "call-1", "fire with trapped neighbor")
	if len(added) != 2 {
		t.Fatalf("duplicate of a predefined question must be skipped, got %d added", len(added))
	}
	qs := tr.Questions("call-1")
	if len(qs) != 8 {
		t.Fatalf("expected 8 questions after generation, got %d", len(qs))
	}
	for i := 1; i < len(qs); i++ {
		if qs[i].Priority < qs[i-1].Priority {
			t.Fatalf("questions not sorted by priority: %v before %v", qs[i-1], qs[i])
		}
	}
	// Explicit priority 50 lands between predefined and defaulted supplemental.
	if qs[6].Priority != 50 {
		t.Fatalf("expected explicit priority 50 at position 6, got %+v", qs[6])
	}
	if qs[7].Priority <= supplementalBasePriority {
		t.Fatalf("defaulted supplemental priority should exceed base, got %d", qs[7].Priority)
	}
}

func TestGenerateAdditional_OncePerSession(t *testing.T) {
	cap := &fakeCapability{response: `[{"question": "Any hazardous materials nearby?", "category": "safety"}]`}
	tr := NewTracker(cap)
	tr.Initialize("call-1")

	first := tr.GenerateAdditional(context.Background(), "call-1", "ctx")
	second := tr.GenerateAdditional(context.Background(), "call-1", "ctx")
	if len(first) != 1 || second != nil {
		t.Fatalf("expected a single generation per session, got %v then %v", first, second)
	}
	if cap.calls != 1 {
		t.Fatalf("capability should be consulted once, got %d calls", cap.calls)
	}
}

func TestGenerateAdditional_FailureLeavesStateUntouched(t *testing.T) {
	cap := &fakeCapability{err: errors.New("backend down")}
	tr := NewTracker(cap)
	tr.Initialize("call-1")

	added := tr.GenerateAdditional(context.Background(), "call-1", "ctx")
	if len(added) != 0 {
		t.Fatalf("expected no questions on failure, got %v", added)
	}
	if len(tr.Questions("call-1")) != 6 {
		t.Fatalf("question list must be untouched on failure")
	}
}

func TestShouldGenerateAdditional_Gating(t *testing.T) {
	tr := NewTracker(&fakeCapability{response: `[]`})
	tr.Initialize("call-1")

	tr.CheckAndMark("call-1", "fire at 45 Oak Street, two people trapped")
	if tr.ShouldGenerateAdditional("call-1") {
		t.Fatalf("should not trigger before 6 turns")
	}
	for i := 0; i < 6; i++ {
		tr.NoteTurn("call-1")
	}
	if !tr.ShouldGenerateAdditional("call-1") {
		t.Fatalf("expected trigger at >=50%% completion and >=6 turns")
	}

	tr.GenerateAdditional(context.Background(), "call-1", "ctx")
	if tr.ShouldGenerateAdditional("call-1") {
		t.Fatalf("should not trigger again after a generation")
	}
}

func TestCheckAndMark_SupplementalKeywordFallback(t *testing.T) {
	cap := &fakeCapability{response: `[{"question": "Are there pets inside the building?", "category": "safety"}]`}
	tr := NewTracker(cap)
	tr.Initialize("call-1")
	added := tr.GenerateAdditional(context.Background(), "call-1", "ctx")
	if len(added) != 1 {
		t.Fatalf("setup failed: %v", added)
	}

	tr.CheckAndMark("call-1", "yes we have two pets still in there")
	if !answeredIDs(tr.Questions("call-1"))[added[0].ID] {
		t.Fatalf("keyword fallback should mark the supplemental question")
	}
}

func TestCheckAndMark_SupplementalAnsweredBeforeGeneration(t *testing.T) {
	cap := &fakeCapability{response: `[{"question": "Is the neighbor trapped inside the building?", "category": "safety"}]`}
	tr := NewTracker(cap)
	tr.Initialize("call-1")

	// The answer was spoken before the question existed. Re-checking the
	// accumulated conversation must still mark it.
	conversation := "[CALLER] my neighbor is trapped and cannot get out\n[DISPATCH] help is coming"
	tr.CheckAndMark("call-1", conversation)

	added := tr.GenerateAdditional(context.Background(), "call-1", conversation)
	if len(added) != 1 {
		t.Fatalf("setup failed: %v", added)
	}
	if answeredIDs(tr.Questions("call-1"))[added[0].ID] {
		t.Fatalf("fresh supplemental question should start unanswered")
	}

	updated, marked := tr.CheckAndMark("call-1", conversation)
	if !updated || len(marked) != 1 || marked[0] != added[0].ID {
		t.Fatalf("expected supplemental question marked from earlier turns, got %v", marked)
	}
}

func TestDrop_ForgetsSession(t *testing.T) {
	tr := NewTracker(&fakeCapability{})
	tr.Initialize("call-1")
	tr.CheckAndMark("call-1", "fire at 45 Oak Street")
	tr.Drop("call-1")
	if pct := tr.CompletionPercentage("call-1"); pct != 0 {
		t.Fatalf("expected fresh state after drop, got %d%%", pct)
	}
}
