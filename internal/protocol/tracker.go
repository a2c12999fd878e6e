package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/shreesha345/RudraOne-1/internal/insight"
)

const additionalInstruction = `You assist an emergency dispatcher by proposing follow-up questions.
Given the conversation so far, return a JSON array of 3 to 5 new questions the dispatcher should still ask.
Each element: {"question": "...", "category": "...", "priority": <optional integer>}.
Do not repeat questions that were already asked or answered. Return only the JSON array.`

// Capability generates supplemental questions (same chat-completion
// backend as insight extraction).
type Capability interface {
	Complete(ctx context.Context, instruction, content string) (string, error)
}

// State is the per-call checklist.
type State struct {
	mu                    sync.Mutex
	questions             []Question
	turns                 int
	supplementalRequested bool
	supplementalSeq       int
}

// Tracker maintains protocol question coverage per session key.
type Tracker struct {
	capability Capability

	mu       sync.Mutex
	sessions map[string]*State
}

func NewTracker(capability Capability) *Tracker {
	return &Tracker{capability: capability, sessions: make(map[string]*State)}
}

// Initialize seeds the predefined question set for a session and returns
// a snapshot. Calling it again for a live session is a no-op.
func (t *Tracker) Initialize(sessionKey string) []Question {
	t.mu.Lock()
	st, ok := t.sessions[sessionKey]
	if !ok {
		st = &State{questions: predefinedQuestions()}
		t.sessions[sessionKey] = st
	}
	t.mu.Unlock()
	return t.snapshot(st)
}

func (t *Tracker) state(sessionKey string) *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.sessions[sessionKey]
	if !ok {
		st = &State{questions: predefinedQuestions()}
		t.sessions[sessionKey] = st
	}
	return st
}

func (t *Tracker) snapshot(st *State) []Question {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]Question(nil), st.questions...)
}

// Questions returns the current checklist, priority ascending.
func (t *Tracker) Questions(sessionKey string) []Question {
	return t.snapshot(t.state(sessionKey))
}

// Drop discards all state for a session key.
func (t *Tracker) Drop(sessionKey string) {
	t.mu.Lock()
	delete(t.sessions, sessionKey)
	t.mu.Unlock()
}

// NoteTurn records one completed conversation turn and returns the total.
func (t *Tracker) NoteTurn(sessionKey string) int {
	st := t.state(sessionKey)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.turns++
	return st.turns
}

// CheckAndMark tests every unanswered question against the conversation
// text. Predefined questions use their pattern table; supplemental ones
// fall back to keyword matching on the question's own content words.
// Answered questions never revert and are never re-evaluated.
func (t *Tracker) CheckAndMark(sessionKey, conversationText string) (bool, []string) {
	lower := strings.ToLower(conversationText)
	st := t.state(sessionKey)

	st.mu.Lock()
	defer st.mu.Unlock()
	var marked []string
	for i := range st.questions {
		q := &st.questions[i]
		if q.Answered {
			continue
		}
		if matchesQuestion(q, lower) {
			q.Answered = true
			marked = append(marked, q.ID)
		}
	}
	return len(marked) > 0, marked
}

func matchesQuestion(q *Question, lowerText string) bool {
	if patterns, ok := answerPatterns[q.ID]; ok {
		for _, re := range patterns {
			if re.MatchString(lowerText) {
				return true
			}
		}
		return false
	}
	for _, w := range contentWords(q.Text) {
		if strings.Contains(lowerText, w) {
			return true
		}
	}
	return false
}

// contentWords extracts lowercase words longer than 3 characters.
func contentWords(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,:;?!'\"()")
		if len(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}

// CompletionPercentage is answered predefined over total predefined,
// rounded. Supplemental questions are excluded from the ratio.
func (t *Tracker) CompletionPercentage(sessionKey string) int {
	st := t.state(sessionKey)
	st.mu.Lock()
	defer st.mu.Unlock()
	var answered, total int
	for _, q := range st.questions {
		if !q.Predefined {
			continue
		}
		total++
		if q.Answered {
			answered++
		}
	}
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(answered) / float64(total)))
}

// ShouldGenerateAdditional reports whether the once-per-session
// supplemental generation should run: predefined completion >= 50% and at
// least 6 conversation turns.
func (t *Tracker) ShouldGenerateAdditional(sessionKey string) bool {
	st := t.state(sessionKey)
	st.mu.Lock()
	requested := st.supplementalRequested
	turns := st.turns
	st.mu.Unlock()
	return !requested && turns >= 6 && t.CompletionPercentage(sessionKey) >= 50
}

type generatedQuestion struct {
	Question string `json:"question"`
	Category string `json:"category"`
	Priority int    `json:"priority"`
}

// GenerateAdditional requests supplemental questions from the capability,
// deduplicates them against existing question text, appends and re-sorts.
// Capability failure returns an empty list and leaves state untouched.
func (t *Tracker) GenerateAdditional(ctx context.Context, sessionKey, conversationContext string) []Question {
	st := t.state(sessionKey)

	st.mu.Lock()
	if st.supplementalRequested {
		st.mu.Unlock()
		return nil
	}
	st.supplementalRequested = true
	st.mu.Unlock()

	raw, err := t.capability.Complete(ctx, additionalInstruction, conversationContext)
	if err != nil {
		log.Printf("protocol: [%s] supplemental question generation failed: %v", sessionKey, err)
		return nil
	}
	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(insight.StripFence(raw)), &generated); err != nil {
		log.Printf("protocol: [%s] unparseable supplemental questions: %v", sessionKey, err)
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	existing := make(map[string]bool, len(st.questions))
	for _, q := range st.questions {
		existing[strings.ToLower(strings.TrimSpace(q.Text))] = true
	}
	var added []Question
	for _, g := range generated {
		text := strings.TrimSpace(g.Question)
		if text == "" || existing[strings.ToLower(text)] {
			continue
		}
		existing[strings.ToLower(text)] = true
		st.supplementalSeq++
		priority := g.Priority
		if priority <= 0 {
			priority = supplementalBasePriority + st.supplementalSeq
		}
		q := Question{
			ID:       fmt.Sprintf("supplemental_%d", st.supplementalSeq),
			Text:     text,
			Category: g.Category,
			Priority: priority,
		}
		st.questions = append(st.questions, q)
		added = append(added, q)
	}
	sort.SliceStable(st.questions, func(i, j int) bool {
		return st.questions[i].Priority < st.questions[j].Priority
	})
	return added
}
