package training

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Session states.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// defaultScore is used when the evaluation text carries no parseable
// percentage.
const defaultScore = 75

var (
	ErrExists    = errors.New("training: session already exists")
	ErrNotFound  = errors.New("training: session not found")
	ErrNotActive = errors.New("training: session is not active")
)

var scorePattern = regexp.MustCompile(`(\d{1,3})%`)

// Capability produces the simulated caller's lines and the final
// evaluation (same chat-completion backend as insight extraction).
type Capability interface {
	Complete(ctx context.Context, instruction, content string) (string, error)
}

// Entry is one line of the training conversation.
type Entry struct {
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Evaluation is the graded outcome of a completed session.
type Evaluation struct {
	Score int    `json:"confidence_score"`
	Text  string `json:"evaluation"`
}

// Snapshot is a point-in-time copy of one training session.
type Snapshot struct {
	SessionID    string     `json:"session_id"`
	Scenario     Scenario   `json:"scenario"`
	Conversation []Entry    `json:"conversation"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Score        int        `json:"confidence_score,omitempty"`
	Evaluation   string     `json:"evaluation,omitempty"`
}

type state struct {
	scenario     Scenario
	conversation []Entry
	status       string
	startedAt    time.Time
	endedAt      time.Time
	score        int
	evaluation   string
}

// Service runs dispatcher training sessions: the capability roleplays an
// emergency caller for a randomly drawn scenario, and grades the
// dispatcher's performance when the session ends.
type Service struct {
	capability Capability
	scenarios  []Scenario

	// injectable for tests
	pick func(n int) int
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*state
}

func NewService(capability Capability, scenarios []Scenario) *Service {
	return &Service{
		capability: capability,
		scenarios:  scenarios,
		pick:       rand.Intn,
		now:        time.Now,
		sessions:   make(map[string]*state),
	}
}

// Start draws a random scenario, opens a session under the given ID and
// returns the caller's urgent opening line.
func (s *Service) Start(ctx context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	if _, ok := s.sessions[sessionID]; ok {
		s.mu.Unlock()
		return "", ErrExists
	}
	scenario := s.scenarios[s.pick(len(s.scenarios))]
	st := &state{scenario: scenario, status: StatusActive, startedAt: s.now()}
	s.sessions[sessionID] = st
	s.mu.Unlock()

	opening, err := s.capability.Complete(ctx, callerInstruction(scenario),
		"Begin the call now with your opening line. It should be urgent and give a key detail about the emergency.")
	if err != nil {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return "", fmt.Errorf("training: start session: %w", err)
	}

	s.mu.Lock()
	st.conversation = append(st.conversation, Entry{Sender: "Caller", Message: opening, Timestamp: s.now()})
	s.mu.Unlock()
	return opening, nil
}

// Message records one dispatcher line and returns the caller's reply.
// The whole conversation replays to the capability so the caller stays
// consistent across turns.
func (s *Service) Message(ctx context.Context, sessionID, message string) (string, error) {
	s.mu.Lock()
	st, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return "", ErrNotFound
	}
	if st.status != StatusActive {
		s.mu.Unlock()
		return "", ErrNotActive
	}
	st.conversation = append(st.conversation, Entry{Sender: "Dispatch", Message: message, Timestamp: s.now()})
	transcript := renderConversation(st.conversation)
	scenario := st.scenario
	s.mu.Unlock()

	reply, err := s.capability.Complete(ctx, callerInstruction(scenario), transcript)
	if err != nil {
		return "", fmt.Errorf("training: caller reply: %w", err)
	}

	s.mu.Lock()
	st.conversation = append(st.conversation, Entry{Sender: "Caller", Message: reply, Timestamp: s.now()})
	s.mu.Unlock()
	return reply, nil
}

// End grades the dispatcher and completes the session.
func (s *Service) End(ctx context.Context, sessionID string) (Evaluation, error) {
	s.mu.Lock()
	st, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return Evaluation{}, ErrNotFound
	}
	if st.status != StatusActive {
		s.mu.Unlock()
		return Evaluation{}, ErrNotActive
	}
	transcript := renderConversation(st.conversation)
	s.mu.Unlock()

	text, err := s.capability.Complete(ctx, gradingInstruction, transcript)
	if err != nil {
		return Evaluation{}, fmt.Errorf("training: evaluation: %w", err)
	}
	eval := Evaluation{Score: parseScore(text), Text: text}

	s.mu.Lock()
	st.status = StatusCompleted
	st.endedAt = s.now()
	st.score = eval.Score
	st.evaluation = eval.Text
	s.mu.Unlock()
	return eval, nil
}

// Session returns a snapshot of one session's full detail.
func (s *Service) Session(sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	snap := Snapshot{
		SessionID:    sessionID,
		Scenario:     st.scenario,
		Conversation: append([]Entry(nil), st.conversation...),
		Status:       st.status,
		StartedAt:    st.startedAt,
		Score:        st.score,
		Evaluation:   st.evaluation,
	}
	if !st.endedAt.IsZero() {
		ended := st.endedAt
		snap.EndedAt = &ended
	}
	return snap, nil
}

func renderConversation(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Sender)
		b.WriteString(": ")
		b.WriteString(e.Message)
		b.WriteString("\n")
	}
	return b.String()
}

// parseScore pulls the first percentage out of the evaluation text.
func parseScore(text string) int {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return defaultScore
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		return defaultScore
	}
	return score
}
