package session

import (
	"context"
	"encoding/base64"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shreesha345/RudraOne-1/internal/audio"
	"github.com/shreesha345/RudraOne-1/internal/duplex"
	"github.com/shreesha345/RudraOne-1/internal/speech"
	"github.com/shreesha345/RudraOne-1/internal/translate"
)

// contextTurns bounds how much transcript is sent with a supplemental
// question request.
const contextTurns = 12

// Session orchestrates one emergency call: it consumes the duplex inbound
// stream and fans finalized utterances out to translation, insight
// extraction and protocol tracking, while feeding dispatcher speech back
// to the phone leg.
type Session struct {
	callerID       string
	dispatcherLang string

	channel    Transport
	translator Translation
	insights   Insights
	tracker    Protocol
	engine     Speech
	queue      *audio.PlaybackQueue
	capture    *audio.Capture

	// onDisplay receives dispatcher-language text for the live transcript
	// surface. May be nil.
	onDisplay func(speaker, text string)

	turns *TurnLog

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	callerLang string
	ended      bool
}

// Options carries the collaborators a session needs. Player may be nil
// when no local playback device exists (headless runs).
type Options struct {
	CallerID           string
	DispatcherLanguage string
	Channel            Transport
	Translator         Translation
	Insights           Insights
	Tracker            Protocol
	Engine             Speech
	Player             audio.Player
	Clock              audio.Clock
	OnDisplay          func(speaker, text string)
}

func New(opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		callerID:       opts.CallerID,
		dispatcherLang: opts.DispatcherLanguage,
		channel:        opts.Channel,
		translator:     opts.Translator,
		insights:       opts.Insights,
		tracker:        opts.Tracker,
		engine:         opts.Engine,
		onDisplay:      opts.OnDisplay,
		turns:          NewTurnLog(),
		ctx:            ctx,
		cancel:         cancel,
	}
	if opts.Player != nil {
		s.queue = audio.NewPlaybackQueue(audio.TargetSampleRate, opts.Player, opts.Clock)
	}
	s.capture = audio.NewCapture(0, s.sendCaptureFrame)
	return s
}

// CallerID returns the session key.
func (s *Session) CallerID() string { return s.callerID }

// CallerLanguage returns the most recently detected caller language,
// defaulting to English before the caller has spoken.
func (s *Session) CallerLanguage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.callerLang == "" {
		return "en"
	}
	return s.callerLang
}

// Turns exposes the transcript snapshot.
func (s *Session) Turns() []Turn { return s.turns.Turns() }

// Start opens the duplex channel and begins consuming its inbound stream.
func (s *Session) Start(duplexURL string) {
	s.tracker.Initialize(s.callerID)
	s.channel.Open(duplexURL)
	go s.dispatchLoop()
}

// dispatchLoop is the single consumer of the duplex inbound channel.
func (s *Session) dispatchLoop() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session: [%s] recovered from panic in dispatch loop: %v", s.callerID, r)
		}
	}()
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-s.channel.Inbound():
			if !ok {
				return
			}
			switch m := msg.(type) {
			case *duplex.Transcription:
				s.handleTranscription(m)
			case *duplex.AudioFrame:
				s.handleAudioFrame(m)
			case *duplex.CallEvent:
				s.handleCallEvent(m)
			case *duplex.Control:
				log.Printf("session: [%s] control: %s", s.callerID, m.Type)
			default:
				log.Printf("session: [%s] ignoring unexpected message %T", s.callerID, msg)
			}
		}
	}
}

func (s *Session) handleTranscription(t *duplex.Transcription) {
	text := strings.TrimSpace(t.Text)
	if text == "" {
		return
	}
	s.turns.Observe(t.Speaker, text, t.Final)
	if !t.Final {
		return
	}
	s.tracker.NoteTurn(s.callerID)

	switch t.Speaker {
	case duplex.SpeakerCaller:
		lang := translate.DetectLanguage(text)
		s.mu.Lock()
		s.callerLang = lang
		s.mu.Unlock()
		go s.displayCallerText(text)
		go s.extractInsights(text)
		go s.trackProtocol()
	case duplex.SpeakerDispatch:
		if s.onDisplay != nil {
			s.onDisplay(t.Speaker, text)
		}
		go s.trackProtocol()
		go s.speakToCaller(text)
	}
}

// displayCallerText pushes the caller's words, in the dispatcher's
// language, to the transcript surface.
func (s *Session) displayCallerText(text string) {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()
	translated := s.translator.CallerToDisplay(ctx, text, s.dispatcherLang)
	if s.onDisplay != nil {
		s.onDisplay(duplex.SpeakerCaller, translated)
	}
}

func (s *Session) extractInsights(text string) {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()
	s.insights.Process(ctx, s.callerID, text)
}

// trackProtocol re-checks the protocol questions against everything said
// so far. Matching on the whole conversation lets a supplemental question
// match answers that were given before the question existed, and lets
// dispatcher turns contribute too.
func (s *Session) trackProtocol() {
	conversation := s.turns.Context(0)
	if updated, marked := s.tracker.CheckAndMark(s.callerID, conversation); updated {
		log.Printf("session: [%s] protocol questions answered: %v", s.callerID, marked)
	}
	if s.tracker.ShouldGenerateAdditional(s.callerID) {
		ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
		defer cancel()
		added := s.tracker.GenerateAdditional(ctx, s.callerID, s.turns.Context(contextTurns))
		if len(added) > 0 {
			log.Printf("session: [%s] %d supplemental protocol questions added", s.callerID, len(added))
		}
	}
}

// speakToCaller translates finalized dispatcher speech to the caller's
// language and synthesizes it onto the phone leg. When both sides speak
// the same language the caller already heard the dispatcher directly.
func (s *Session) speakToCaller(text string) {
	callerLang := s.CallerLanguage()
	if callerLang == s.dispatcherLang {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()
	translated := s.translator.DispatchToCaller(ctx, text, s.dispatcherLang, callerLang)
	if s.engine == nil {
		return
	}
	pcm, err := s.engine.Synthesize(ctx, translated, callerLang)
	if err != nil {
		log.Printf("session: [%s] speech synthesis failed: %v", s.callerID, err)
		return
	}
	chunks, err := speech.ToTelephony(pcm)
	if err != nil {
		log.Printf("session: [%s] telephony conversion failed: %v", s.callerID, err)
		return
	}
	for _, chunk := range chunks {
		frame := &duplex.AudioFrame{
			Type:        "audio",
			AudioBase64: chunk,
			Encoding:    audio.EncodingULaw,
			SampleRate:  speech.TelephonyRate,
		}
		if err := s.channel.Send(frame); err != nil {
			log.Printf("session: [%s] dropping outbound audio: %v", s.callerID, err)
			return
		}
	}
}

func (s *Session) handleAudioFrame(f *duplex.AudioFrame) {
	if s.queue == nil {
		return
	}
	data, err := base64.StdEncoding.DecodeString(f.AudioBase64)
	if err != nil {
		log.Printf("session: [%s] dropping frame with bad base64: %v", s.callerID, err)
		return
	}
	samples, err := audio.DecodeFrame(f.Encoding, data)
	if err != nil {
		log.Printf("session: [%s] dropping undecodable frame: %v", s.callerID, err)
		return
	}
	s.queue.Enqueue(samples)
}

func (s *Session) handleCallEvent(e *duplex.CallEvent) {
	switch e.Type {
	case "call_started":
		log.Printf("session: [%s] call started (sid=%s)", s.callerID, e.CallSID)
		if s.queue != nil {
			s.queue.Start()
		}
	case "call_ended":
		log.Printf("session: [%s] call ended", s.callerID)
		s.End()
	}
}

// sendCaptureFrame ships one dispatcher microphone frame upstream.
func (s *Session) sendCaptureFrame(pcm []byte) {
	frame := &duplex.AudioFrame{
		Type:        "audio",
		AudioBase64: base64.StdEncoding.EncodeToString(pcm),
		Encoding:    audio.EncodingPCM16,
		SampleRate:  audio.TargetSampleRate,
	}
	if err := s.channel.Send(frame); err != nil {
		log.Printf("session: [%s] dropping capture frame: %v", s.callerID, err)
	}
}

// PushMicSamples feeds dispatcher microphone samples into the capture
// chunker. Must be called from a single goroutine.
func (s *Session) PushMicSamples(samples []float32) {
	s.capture.Push(samples)
}

// SendChat injects typed dispatcher text into the call stream and speaks
// it to the caller like any finalized dispatcher utterance.
func (s *Session) SendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := s.channel.Send(duplex.NewOutboundMessage(text)); err != nil {
		return err
	}
	s.turns.Observe(duplex.SpeakerDispatch, text, true)
	s.tracker.NoteTurn(s.callerID)
	go s.trackProtocol()
	go s.speakToCaller(text)
	return nil
}

// SetCallerName records the caller's display name for insight reporting.
func (s *Session) SetCallerName(name string) {
	s.insights.SetCallerName(s.callerID, name)
}

// End tears the live call down: the channel closes first so no reconnect
// fires mid-teardown, then capture flushes, then playback stops and drops
// its queue. Insight and protocol state stay readable until Release.
func (s *Session) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.mu.Unlock()

	s.channel.Close()
	s.capture.Flush()
	if s.queue != nil {
		s.queue.Stop()
	}
	s.cancel()
}

// Ended reports whether End has run.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Release discards the session's accumulated insight and protocol state.
func (s *Session) Release() {
	s.End()
	s.insights.Drop(s.callerID)
	s.tracker.Drop(s.callerID)
}
