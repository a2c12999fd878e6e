package duplex

import (
	"encoding/json"
	"fmt"
)

// Speaker labels used on transcription events.
const (
	SpeakerCaller   = "CALLER"
	SpeakerDispatch = "DISPATCH"
)

// Transcription is a live or finalized utterance for one speaker.
type Transcription struct {
	Type       string  `json:"type"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Timestamp  string  `json:"timestamp,omitempty"`
	Final      bool    `json:"final"`
	Confidence float64 `json:"confidence,omitempty"`
}

// AudioFrame carries one chunk of caller audio for playback.
type AudioFrame struct {
	Type        string `json:"type"`
	AudioBase64 string `json:"audioBase64"`
	Encoding    string `json:"encoding"` // "pcm16" or "ulaw"
	SampleRate  int    `json:"sampleRate"`
}

// CallEvent marks call lifecycle boundaries.
type CallEvent struct {
	Type      string `json:"type"` // "call_started" or "call_ended"
	CallerID  string `json:"callerId"`
	CallSID   string `json:"callSid,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Control covers connection-level notices ("connected", "keepalive").
type Control struct {
	Type string `json:"type"`
}

// OutboundMessage injects dispatcher chat text into the call stream.
type OutboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewOutboundMessage builds the wire form of a dispatcher chat injection.
func NewOutboundMessage(text string) OutboundMessage {
	return OutboundMessage{Type: "message", Text: text}
}

// DecodeMessage parses one inbound frame into its typed form.
// Unknown types are an error so the caller can log and skip them.
func DecodeMessage(data []byte) (interface{}, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch base.Type {
	case "transcription":
		var m Transcription
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode transcription: %w", err)
		}
		return &m, nil
	case "audio":
		var m AudioFrame
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode audio: %w", err)
		}
		return &m, nil
	case "call_started", "call_ended":
		var m CallEvent
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode call event: %w", err)
		}
		return &m, nil
	case "connected", "keepalive":
		return &Control{Type: base.Type}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", base.Type)
	}
}
