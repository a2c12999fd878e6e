package training

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeCapability struct {
	mu       sync.Mutex
	response string
	err      error
	contents []string
}

func (f *fakeCapability) Complete(ctx context.Context, instruction, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents = append(f.contents, content)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeCapability) lastContent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.contents) == 0 {
		return ""
	}
	return f.contents[len(f.contents)-1]
}

var testScenarios = []Scenario{
	{Title: "Structure Fire", Description: "House fire with people inside", Location: "Lower Merion"},
}

func newTestService(cap *fakeCapability) *Service {
	svc := NewService(cap, testScenarios)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc
}

func TestStart_OpensSessionWithCallerLine(t *testing.T) {
	cap := &fakeCapability{response: "My neighbor's house is on fire, there are people inside!"}
	svc := newTestService(cap)

	opening, err := svc.Start(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opening != cap.response {
		t.Fatalf("unexpected opening line %q", opening)
	}
	snap, err := svc.Session("sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Status != StatusActive {
		t.Fatalf("expected active session, got %s", snap.Status)
	}
	if len(snap.Conversation) != 1 || snap.Conversation[0].Sender != "Caller" {
		t.Fatalf("expected one caller entry, got %+v", snap.Conversation)
	}
}

func TestStart_DuplicateSessionRejected(t *testing.T) {
	svc := newTestService(&fakeCapability{response: "help!"})
	if _, err := svc.Start(context.Background(), "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Start(context.Background(), "sess-1"); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestStart_CapabilityFailureLeavesNoSession(t *testing.T) {
	svc := newTestService(&fakeCapability{err: errors.New("backend down")})
	if _, err := svc.Start(context.Background(), "sess-1"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := svc.Session("sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed start must not leave a session behind, got %v", err)
	}
}

func TestMessage_ReplaysConversation(t *testing.T) {
	cap := &fakeCapability{response: "It's at 45 Oak Street, hurry!"}
	svc := newTestService(cap)
	if _, err := svc.Start(context.Background(), "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := svc.Message(context.Background(), "sess-1", "What is the exact address?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != cap.response {
		t.Fatalf("unexpected reply %q", reply)
	}
	transcript := cap.lastContent()
	if !strings.Contains(transcript, "Dispatch: What is the exact address?") {
		t.Fatalf("dispatcher line missing from replayed conversation:\n%s", transcript)
	}
	if !strings.Contains(transcript, "Caller:") {
		t.Fatalf("earlier caller line missing from replayed conversation:\n%s", transcript)
	}
	snap, _ := svc.Session("sess-1")
	if len(snap.Conversation) != 3 {
		t.Fatalf("expected 3 conversation entries, got %d", len(snap.Conversation))
	}
}

func TestMessage_UnknownSession(t *testing.T) {
	svc := newTestService(&fakeCapability{response: "x"})
	if _, err := svc.Message(context.Background(), "missing", "hello"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnd_GradesAndCompletes(t *testing.T) {
	cap := &fakeCapability{response: "opening line"}
	svc := newTestService(cap)
	if _, err := svc.Start(context.Background(), "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cap.mu.Lock()
	cap.response = "Score: 88%\n\nEvaluation:\n\nStrengths:\n- Calm tone"
	cap.mu.Unlock()
	eval, err := svc.End(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Score != 88 {
		t.Fatalf("expected score 88, got %d", eval.Score)
	}
	snap, _ := svc.Session("sess-1")
	if snap.Status != StatusCompleted || snap.EndedAt == nil || snap.Score != 88 {
		t.Fatalf("session not completed with score: %+v", snap)
	}

	// A finished session accepts no further traffic.
	if _, err := svc.Message(context.Background(), "sess-1", "hello"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
	if _, err := svc.End(context.Background(), "sess-1"); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive on double end, got %v", err)
	}
}

func TestEnd_UnparseableScoreDefaults(t *testing.T) {
	cap := &fakeCapability{response: "opening line"}
	svc := newTestService(cap)
	if _, err := svc.Start(context.Background(), "sess-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cap.mu.Lock()
	cap.response = "The trainee did reasonably well overall."
	cap.mu.Unlock()
	eval, err := svc.End(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Score != defaultScore {
		t.Fatalf("expected default score %d, got %d", defaultScore, eval.Score)
	}
}

func TestParseScore(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"Score: 92%", 92},
		{"the dispatcher scored 100% on clarity", 100},
		{"no percentage here", defaultScore},
	}
	for _, tc := range cases {
		if got := parseScore(tc.text); got != tc.want {
			t.Fatalf("parseScore(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
