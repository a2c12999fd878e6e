package session

import (
	"strings"
	"sync"
)

// Turn is one utterance slot in the conversation transcript.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	Final   bool   `json:"final"`
}

// TurnLog tracks the per-speaker utterance lifecycle: an interim event
// opens (or rewrites) the speaker's slot, each later interim from the
// same speaker supersedes it in place, and the final event closes it.
// Interleaved speakers never share a slot.
type TurnLog struct {
	mu    sync.Mutex
	turns []Turn
	open  map[string]int
}

func NewTurnLog() *TurnLog {
	return &TurnLog{open: make(map[string]int)}
}

// Observe records one transcription event.
func (l *TurnLog) Observe(speaker, text string, final bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx, ok := l.open[speaker]; ok {
		l.turns[idx].Text = text
		l.turns[idx].Final = final
		if final {
			delete(l.open, speaker)
		}
		return
	}
	l.turns = append(l.turns, Turn{Speaker: speaker, Text: text, Final: final})
	if !final {
		l.open[speaker] = len(l.turns) - 1
	}
}

// Turns returns a snapshot of the transcript.
func (l *TurnLog) Turns() []Turn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Turn(nil), l.turns...)
}

// FinalCount reports how many closed turns the transcript holds.
func (l *TurnLog) FinalCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, t := range l.turns {
		if t.Final {
			n++
		}
	}
	return n
}

// Context renders the most recent n finalized turns as labeled lines for
// capability prompts.
func (l *TurnLog) Context(n int) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var finals []Turn
	for _, t := range l.turns {
		if t.Final {
			finals = append(finals, t)
		}
	}
	if n > 0 && len(finals) > n {
		finals = finals[len(finals)-n:]
	}
	var b strings.Builder
	for _, t := range finals {
		b.WriteString("[")
		b.WriteString(t.Speaker)
		b.WriteString("] ")
		b.WriteString(t.Text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
