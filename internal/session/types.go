package session

import (
	"context"

	"github.com/shreesha345/RudraOne-1/internal/duplex"
	"github.com/shreesha345/RudraOne-1/internal/insight"
	"github.com/shreesha345/RudraOne-1/internal/protocol"
)

// Transport is the duplex call stream a session consumes and writes to.
type Transport interface {
	Open(address string)
	Send(v interface{}) error
	Close()
	Inbound() <-chan interface{}
	State() duplex.State
}

// Translation converts text between caller and dispatcher languages.
type Translation interface {
	CallerToDisplay(ctx context.Context, text, displayLang string) string
	DispatchToCaller(ctx context.Context, text, dispatcherLang, callerLang string) string
}

// Insights accumulates structured intelligence per session key.
type Insights interface {
	SetCallerName(sessionKey, name string)
	Process(ctx context.Context, sessionKey, utterance string) insight.Record
	Record(sessionKey string) insight.Record
	Drop(sessionKey string)
}

// Protocol tracks dispatcher question coverage per session key.
type Protocol interface {
	Initialize(sessionKey string) []protocol.Question
	CheckAndMark(sessionKey, conversationText string) (bool, []string)
	NoteTurn(sessionKey string) int
	ShouldGenerateAdditional(sessionKey string) bool
	GenerateAdditional(ctx context.Context, sessionKey, conversationContext string) []protocol.Question
	Questions(sessionKey string) []protocol.Question
	Drop(sessionKey string)
}

// Speech synthesizes dispatcher speech for the telephony leg.
type Speech interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}
