package audio

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Playback queue thresholds. minBuffer absorbs network jitter at the cost
// of initial latency; maxBuffer bounds latency by evicting the oldest
// buffers instead of blocking.
const (
	DefaultMinBuffer = 3
	DefaultMaxBuffer = 15
)

// Clock abstracts time for the scheduler so tests control it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Player renders a conditioned sample buffer starting at the given instant.
// Implementations own the actual audio device timing.
type Player interface {
	PlayAt(samples []float32, at time.Time)
}

// PlaybackQueue is the incoming-audio FIFO and scheduler. Buffers are held
// until playback starts (depth >= minBuffer after Start), then each is
// scheduled at max(now, nextPlayTime) so playback is gap-free and never
// overlaps. An underrun pauses scheduling until minBuffer is satisfied
// again.
type PlaybackQueue struct {
	mu           sync.Mutex
	minBuffer    int
	maxBuffer    int
	sampleRate   int
	clock        Clock
	player       Player
	chain        *FilterChain
	pending      [][]float32
	started      bool
	playing      bool
	nextPlayTime time.Time
}

// NewPlaybackQueue constructs a queue with default thresholds. A nil clock
// selects the system clock.
func NewPlaybackQueue(sampleRate int, player Player, clock Clock) *PlaybackQueue {
	if clock == nil {
		clock = SystemClock{}
	}
	return &PlaybackQueue{
		minBuffer:  DefaultMinBuffer,
		maxBuffer:  DefaultMaxBuffer,
		sampleRate: sampleRate,
		clock:      clock,
		player:     player,
		chain:      NewFilterChain(sampleRate),
	}
}

// SetThresholds overrides minBuffer/maxBuffer. Values <= 0 keep the current
// setting.
func (q *PlaybackQueue) SetThresholds(minBuffer, maxBuffer int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if minBuffer > 0 {
		q.minBuffer = minBuffer
	}
	if maxBuffer > 0 {
		q.maxBuffer = maxBuffer
	}
}

// Start enables scheduling. Buffers already queued begin playing once the
// depth threshold is met.
func (q *PlaybackQueue) Start() {
	q.mu.Lock()
	q.started = true
	q.maybeScheduleLocked()
	q.mu.Unlock()
}

// Stop pauses scheduling and drops everything queued.
func (q *PlaybackQueue) Stop() {
	q.mu.Lock()
	q.started = false
	q.playing = false
	q.pending = nil
	q.nextPlayTime = time.Time{}
	q.mu.Unlock()
}

// Depth reports how many buffers are waiting to be scheduled.
func (q *PlaybackQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Enqueue adds one decoded buffer. Exceeding maxBuffer discards the oldest
// excess buffers; this is the only intentional data loss on this path and
// is logged distinctly from decode failures.
func (q *PlaybackQueue) Enqueue(samples []float32) {
	if len(samples) == 0 {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, samples)
	if excess := len(q.pending) - q.maxBuffer; excess > 0 {
		q.pending = q.pending[excess:]
		log.Printf("audio: playback queue full, dropped %d oldest buffer(s)", excess)
	}
	q.maybeScheduleLocked()
	q.mu.Unlock()
}

func (q *PlaybackQueue) maybeScheduleLocked() {
	if !q.started {
		return
	}
	now := q.clock.Now()
	if q.playing && now.After(q.nextPlayTime) {
		// Scheduled audio ran out before new data arrived: pause and
		// refill to the start threshold before resuming.
		q.playing = false
	}
	if !q.playing {
		if len(q.pending) < q.minBuffer {
			return
		}
		q.playing = true
	}
	for _, buf := range q.pending {
		at := q.nextPlayTime
		if at.Before(now) {
			at = now
		}
		q.player.PlayAt(q.chain.Process(buf), at)
		q.nextPlayTime = at.Add(bufferDuration(len(buf), q.sampleRate))
	}
	q.pending = q.pending[:0]
}

func bufferDuration(samples, sampleRate int) time.Duration {
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// DecodeFrame converts raw frame bytes in the given wire encoding to
// normalized samples. Malformed or unknown payloads return an error so the
// caller can drop the frame without tearing the session down.
func DecodeFrame(encoding string, data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("audio: empty frame")
	}
	switch encoding {
	case EncodingPCM16:
		if len(data)%2 != 0 {
			return nil, fmt.Errorf("audio: pcm16 frame has odd length %d", len(data))
		}
		return DecodePCM16(data), nil
	case EncodingULaw:
		return DecodeULaw(data), nil
	default:
		return nil, fmt.Errorf("audio: unsupported encoding %q", encoding)
	}
}
