package duplex

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State is the connection lifecycle state of a Channel.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
	// StateUnavailable is terminal for automatic recovery: the reconnect
	// ceiling was exhausted. A manual Open starts a fresh attempt series.
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Policy controls reconnection behavior.
type Policy struct {
	AutoReconnect bool
	MaxAttempts   int
	BaseDelay     time.Duration
}

// DefaultPolicy matches the production reconnect schedule: 3s, 6s, 12s, 24s, 48s.
func DefaultPolicy() Policy {
	return Policy{AutoReconnect: true, MaxAttempts: 5, BaseDelay: 3 * time.Second}
}

// ReconnectDelay returns the backoff before the given attempt (1-based).
func ReconnectDelay(p Policy, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay << uint(attempt-1)
}

// wsConn is the subset of *websocket.Conn the channel uses; tests stub it.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v interface{}) error
	Close() error
}

// Channel is a reconnecting, message-oriented duplex transport. Inbound
// frames are decoded and delivered in order on Inbound(); ordering holds
// within one physical connection, never across a reconnect boundary.
type Channel struct {
	inbound chan interface{}
	onState func(State)

	// injectable for tests
	dial      func(address string) (wsConn, error)
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu         sync.Mutex
	address    string
	conn       wsConn
	state      State
	attempt    int
	policy     Policy
	retryTimer *time.Timer
	closed     bool
	// done unblocks any readPump stuck delivering into inbound when the
	// channel closes. Replaced on reopen.
	done chan struct{}
}

// NewChannel constructs a channel with the given reconnect policy.
// onState may be nil.
func NewChannel(policy Policy, onState func(State)) *Channel {
	return &Channel{
		inbound: make(chan interface{}, 256),
		onState: onState,
		dial: func(address string) (wsConn, error) {
			d := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
			conn, _, err := d.Dial(address, nil)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
		afterFunc: time.AfterFunc,
		state:     StateDisconnected,
		policy:    policy,
		done:      make(chan struct{}),
	}
}

// Inbound returns the ordered stream of decoded inbound messages.
func (c *Channel) Inbound() <-chan interface{} { return c.inbound }

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open starts connecting to the given address. An empty address is a no-op.
// A previously exhausted or closed channel may be reopened; the attempt
// counter starts fresh.
func (c *Channel) Open(address string) {
	if address == "" {
		return
	}
	c.mu.Lock()
	c.address = address
	if c.closed {
		c.done = make(chan struct{})
	}
	c.closed = false
	c.attempt = 0
	c.mu.Unlock()
	go c.connect()
}

// Send writes one JSON message to the peer.
func (c *Channel) Send(v interface{}) error {
	c.mu.Lock()
	conn := c.conn
	state := c.state
	c.mu.Unlock()
	if conn == nil || state != StateConnected {
		return ErrNotConnected
	}
	return conn.WriteJSON(v)
}

// Close tears the channel down. It always wins over a pending reconnect
// timer and disables further automatic reconnects.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	c.setState(StateClosed)
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	cb := c.onState
	c.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

func (c *Channel) connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	address := c.address
	c.mu.Unlock()

	c.setState(StateConnecting)
	conn, err := c.dial(address)
	if err != nil {
		log.Printf("duplex: connect to %s failed: %v", address, err)
		c.handleDisconnect()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.attempt = 0
	c.mu.Unlock()

	c.setState(StateConnected)
	go c.readPump(conn)
}

// readPump reads frames from one physical connection until it dies.
// Delivery into the inbound channel blocks, so per-connection order holds.
// Close releases a pump stuck on a full inbound channel.
func (c *Channel) readPump(conn wsConn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("duplex: recovered from panic in readPump: %v", r)
		}
	}()
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			stillCurrent := c.conn == conn
			if stillCurrent {
				c.conn = nil
			}
			closed := c.closed
			c.mu.Unlock()
			if closed || !stillCurrent {
				return
			}
			log.Printf("duplex: read error: %v", err)
			c.handleDisconnect()
			return
		}
		msg, derr := DecodeMessage(data)
		if derr != nil {
			log.Printf("duplex: dropping frame: %v", derr)
			continue
		}
		if ctrl, ok := msg.(*Control); ok && ctrl.Type == "keepalive" {
			continue
		}
		select {
		case c.inbound <- msg:
		case <-done:
			return
		}
	}
}

// handleDisconnect schedules a reconnect per policy, or surfaces the
// terminal unavailable state once attempts are exhausted.
func (c *Channel) handleDisconnect() {
	c.setState(StateDisconnected)
	c.mu.Lock()
	if c.closed || !c.policy.AutoReconnect {
		c.mu.Unlock()
		return
	}
	c.attempt++
	if c.attempt > c.policy.MaxAttempts {
		c.mu.Unlock()
		log.Printf("duplex: reconnect ceiling reached after %d attempts", c.policy.MaxAttempts)
		c.setState(StateUnavailable)
		return
	}
	delay := ReconnectDelay(c.policy, c.attempt)
	attempt := c.attempt
	c.retryTimer = c.afterFunc(delay, func() {
		c.mu.Lock()
		c.retryTimer = nil
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		c.connect()
	})
	c.mu.Unlock()
	log.Printf("duplex: reconnect attempt %d scheduled in %s", attempt, delay)
}
