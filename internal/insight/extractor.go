package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
)

// extractionInstruction is the fixed preamble sent with every utterance.
// The capability must answer with a JSON partial of the Record shape
// containing only new, non-redundant fields.
const extractionInstruction = `You are a professional emergency dispatch intelligence system analyzing caller statements to extract critical information for incident investigation and response coordination.

EXTRACTION REQUIREMENTS:
1. Extract only verified, actionable intelligence
2. Return ONLY information not already present in the accumulated record
3. Maintain professional, concise language
4. Use actual values provided by the caller, never placeholders
5. Omit fields entirely if information is not explicitly provided
6. Avoid speculation or assumptions

Return a JSON object with this structure (all fields optional):
{
    "persons_described": [{"name": "John Doe", "role": "caller"}],
    "location": ["Sector 17, Gurgaon, near Community Center"],
    "incident": {
        "incident_type": "fire/medical/crime/noise/environmental/hazmat/other",
        "description": "brief professional summary",
        "severity": "low/medium/high/critical",
        "source": "origin of the incident",
        "current_state": "active/spreading/contained/stable/resolved"
    },
    "time_info": {"duration": "15 minutes", "start_time": "approximately 15 minutes ago"},
    "additional_info": ["critical operational details not captured elsewhere"],
    "new_information_found": true,
    "summary": "comprehensive professional paragraph covering location, incident type, severity, timeline and response needs"
}`

// Capability is the extraction backend (a chat-completion style model).
type Capability interface {
	Complete(ctx context.Context, instruction, content string) (string, error)
}

// sessionState carries the accumulated record for one call. Its mutex
// serializes merges so a slow in-flight extraction can never clobber a
// newer one: every merge reads the then-current record under the lock.
type sessionState struct {
	mu           sync.Mutex
	record       Record
	callerName   string
	nameInjected bool
}

// Extractor turns finalized caller utterances into merged insight state,
// one accumulated Record per session key.
type Extractor struct {
	capability Capability

	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewExtractor(capability Capability) *Extractor {
	return &Extractor{capability: capability, sessions: make(map[string]*sessionState)}
}

func (e *Extractor) session(key string) *sessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.sessions[key]
	if !ok {
		st = &sessionState{}
		e.sessions[key] = st
	}
	return st
}

// SetCallerName supplies the caller's out-of-band display name. It is
// injected into the persons list exactly once, before the first merge
// that sees it.
func (e *Extractor) SetCallerName(sessionKey, name string) {
	st := e.session(sessionKey)
	st.mu.Lock()
	st.callerName = strings.TrimSpace(name)
	st.mu.Unlock()
}

// Record returns a snapshot of the accumulated record for the session.
func (e *Extractor) Record(sessionKey string) Record {
	st := e.session(sessionKey)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.record.Clone()
}

// Drop discards all state for a session key.
func (e *Extractor) Drop(sessionKey string) {
	e.mu.Lock()
	delete(e.sessions, sessionKey)
	e.mu.Unlock()
}

// Process sends the utterance plus the current accumulated record to the
// extraction capability and merges the resulting partial. Any capability
// or parse failure leaves the accumulated record unchanged and returns
// it as-is.
func (e *Extractor) Process(ctx context.Context, sessionKey, utterance string) Record {
	st := e.session(sessionKey)

	st.mu.Lock()
	e.injectCallerNameLocked(st)
	snapshot := st.record.Clone()
	st.mu.Unlock()

	prior, _ := json.Marshal(snapshot)
	content := fmt.Sprintf("Accumulated record so far:\n%s\n\nNew caller statement:\n%s", prior, utterance)

	raw, err := e.capability.Complete(ctx, extractionInstruction, content)
	if err != nil {
		log.Printf("insight: [%s] extraction failed, keeping prior record: %v", sessionKey, err)
		return e.Record(sessionKey)
	}

	partial, err := ParsePartial(raw)
	if err != nil {
		log.Printf("insight: [%s] unparseable extraction response, keeping prior record: %v", sessionKey, err)
		return e.Record(sessionKey)
	}

	// Merge against the then-current record, not the pre-call snapshot.
	st.mu.Lock()
	e.injectCallerNameLocked(st)
	st.record = Merge(st.record, partial)
	merged := st.record.Clone()
	st.mu.Unlock()
	return merged
}

func (e *Extractor) injectCallerNameLocked(st *sessionState) {
	if st.nameInjected || st.callerName == "" {
		return
	}
	p := Person{Name: st.callerName, Role: "caller"}
	if !containsPerson(st.record.Persons, p) {
		st.record.Persons = append(st.record.Persons, p)
	}
	st.nameInjected = true
}

// ParsePartial decodes a capability response into a partial Record,
// stripping a fenced-code wrapper if present.
func ParsePartial(raw string) (Record, error) {
	cleaned := StripFence(raw)
	var partial Record
	if err := json.Unmarshal([]byte(cleaned), &partial); err != nil {
		return Record{}, fmt.Errorf("parse partial: %w", err)
	}
	return partial, nil
}

// StripFence removes a surrounding markdown code fence (with or without a
// language tag) from the payload.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
