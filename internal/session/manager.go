package session

import (
	"log"
	"sync"

	"github.com/shreesha345/RudraOne-1/internal/audio"
	"github.com/shreesha345/RudraOne-1/internal/duplex"
)

// Factory builds the transport for a new session; tests inject fakes.
type Factory struct {
	DuplexURL          string
	DispatcherLanguage string
	Translator         Translation
	Insights           Insights
	Tracker            Protocol
	Engine             Speech
	Player             audio.Player
	OnDisplay          func(callerID, speaker, text string)
	// NewChannel may be overridden in tests; the default dials a real
	// reconnecting WebSocket channel.
	NewChannel func(callerID string) Transport
}

// Manager owns the live sessions, one per caller id. Selecting a caller
// that already has a live session reuses it; audio buffers are never
// shared across sessions.
type Manager struct {
	factory Factory

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(factory Factory) *Manager {
	if factory.NewChannel == nil {
		factory.NewChannel = func(string) Transport {
			return duplex.NewChannel(duplex.DefaultPolicy(), nil)
		}
	}
	return &Manager{factory: factory, sessions: make(map[string]*Session)}
}

// Select returns the live session for the caller, creating and starting
// a fresh one when none exists.
func (m *Manager) Select(callerID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[callerID]; ok && !s.Ended() {
		return s
	}
	var onDisplay func(speaker, text string)
	if m.factory.OnDisplay != nil {
		cb := m.factory.OnDisplay
		onDisplay = func(speaker, text string) { cb(callerID, speaker, text) }
	}
	s := New(Options{
		CallerID:           callerID,
		DispatcherLanguage: m.factory.DispatcherLanguage,
		Channel:            m.factory.NewChannel(callerID),
		Translator:         m.factory.Translator,
		Insights:           m.factory.Insights,
		Tracker:            m.factory.Tracker,
		Engine:             m.factory.Engine,
		Player:             m.factory.Player,
		OnDisplay:          onDisplay,
	})
	m.sessions[callerID] = s
	s.Start(m.factory.DuplexURL)
	log.Printf("session: [%s] started", callerID)
	return s
}

// Get returns the session for the caller without creating one.
func (m *Manager) Get(callerID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[callerID]
	return s, ok
}

// End tears down the caller's live session but keeps its insight and
// protocol state readable.
func (m *Manager) End(callerID string) {
	m.mu.Lock()
	s, ok := m.sessions[callerID]
	m.mu.Unlock()
	if ok {
		s.End()
	}
}

// Release ends the session and discards its accumulated state.
func (m *Manager) Release(callerID string) {
	m.mu.Lock()
	s, ok := m.sessions[callerID]
	delete(m.sessions, callerID)
	m.mu.Unlock()
	if ok {
		s.Release()
	}
}

// Shutdown ends every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()
	for _, s := range sessions {
		s.End()
	}
}
