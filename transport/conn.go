// Package transport owns the one persistent bidirectional event channel to
// the session authority: a websocket carrying JSON event envelopes, with
// bounded-backoff reconnection and connection-state notifications.
package transport

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/rakaoran/minisketch/protocol"
)

var (
	ErrNotConnected = errors.New("transport: not connected")
	ErrSendBuffer   = errors.New("transport: send buffer full")
)

const (
	outboxSize   = 256
	pingInterval = 30 * time.Second
	pongWait     = time.Minute
	writeWait    = 10 * time.Second
	closeGrace   = 20 * time.Second
)

// Handler receives one inbound envelope. At most one handler is active per
// event name; handlers run sequentially on the read pump.
type Handler func(env protocol.Envelope)

type Options struct {
	URL               string
	DialTimeout       time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	Logger            zerolog.Logger
}

// Conn is the client's single channel to the authority. Sends while not
// Connected are dropped with ErrNotConnected, never queued; callers retry on
// their own schedule. Each successful (re)connect yields a fresh
// authority-assigned selfId, delivered by the handshake `connected` event.
type Conn struct {
	opts   Options
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu            sync.Mutex
	state         State
	selfID        string
	lastError     string
	handlers      map[string]Handler
	stateListener func(State)
	outbox        chan []byte
	started       bool

	done     chan struct{}
	stopOnce sync.Once
}

func NewConn(opts Options) *Conn {
	return &Conn{
		opts:     opts,
		dialer:   &websocket.Dialer{HandshakeTimeout: opts.DialTimeout},
		log:      opts.Logger,
		state:    Disconnected,
		handlers: make(map[string]Handler),
		done:     make(chan struct{}),
	}
}

// On registers the handler for an event name; re-registering replaces the
// previous handler.
func (c *Conn) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = h
}

// OnStateChange registers the single connection-state listener.
func (c *Conn) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stateListener = fn
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SelfID returns the authority-assigned id of the current connection, empty
// until the handshake completes.
func (c *Conn) SelfID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selfID
}

func (c *Conn) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Connect starts the connection manager. It is non-blocking; progress is
// observable through OnStateChange.
func (c *Conn) Connect() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.setState(Connecting, "")
	go c.run()
}

// Disconnect tears the channel down and stops any retrying.
func (c *Conn) Disconnect() {
	c.stopOnce.Do(func() { close(c.done) })
	c.setState(Disconnected, "")
}

// Send encodes and enqueues one outbound event. FIFO per call order; no
// ordering guarantee relative to other senders.
func (c *Conn) Send(event string, payload any) error {
	data, err := protocol.Encode(event, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != Connected || c.outbox == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	outbox := c.outbox
	c.mu.Unlock()

	select {
	case outbox <- data:
		return nil
	default:
		return ErrSendBuffer
	}
}

func (c *Conn) run() {
	delay := c.opts.ReconnectDelay
	attempts := 0

	for {
		select {
		case <-c.done:
			return
		default:
		}

		ws, _, err := c.dialer.Dial(c.opts.URL, nil)
		if err == nil {
			attempts = 0
			delay = c.opts.ReconnectDelay
			fatal := c.serve(ws)
			if fatal {
				return
			}
		} else {
			c.log.Debug().Err(err).Str("url", c.opts.URL).Msg("dial failed")
		}

		select {
		case <-c.done:
			return
		default:
		}

		attempts++
		if attempts >= c.opts.ReconnectAttempts {
			c.setState(Disconnected, "")
			return
		}
		c.setState(Connecting, "")

		select {
		case <-time.After(delay):
		case <-c.done:
			return
		}
		delay *= 2
		if delay > c.opts.ReconnectDelayMax {
			delay = c.opts.ReconnectDelayMax
		}
	}
}

// serve owns one live socket until it dies. Returns true on a fatal protocol
// error, which stops the manager for good.
func (c *Conn) serve(ws *websocket.Conn) bool {
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// The authority's first event names this connection.
	env, err := c.readEnvelope(ws)
	if err != nil {
		ws.Close()
		return false
	}
	if env.Event != protocol.EventConnected {
		c.fail(ws, "handshake: expected connected, got "+env.Event)
		return true
	}
	hello, err := protocol.DecodePayload[protocol.Connected](env)
	if err != nil {
		c.fail(ws, "handshake: "+err.Error())
		return true
	}

	outbox := make(chan []byte, outboxSize)
	writerDone := make(chan struct{})
	go c.writePump(ws, outbox, writerDone)

	c.mu.Lock()
	c.selfID = hello.ID
	c.outbox = outbox
	c.mu.Unlock()
	c.setState(Connected, "")
	c.log.Info().Str("self_id", hello.ID).Msg("connected")

	for {
		env, err := c.readEnvelope(ws)
		if err != nil {
			break
		}
		c.dispatch(env)
	}

	c.mu.Lock()
	c.outbox = nil
	c.mu.Unlock()
	close(writerDone)
	ws.Close()
	return false
}

// readEnvelope reads frames until one decodes, skipping malformed frames
// rather than killing the session.
func (c *Conn) readEnvelope(ws *websocket.Conn) (protocol.Envelope, error) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return protocol.Envelope{}, err
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}
		return env, nil
	}
}

func (c *Conn) dispatch(env protocol.Envelope) {
	c.mu.Lock()
	h := c.handlers[env.Event]
	c.mu.Unlock()
	if h == nil {
		c.log.Debug().Str("event", env.Event).Msg("no handler registered")
		return
	}
	h(env)
}

func (c *Conn) writePump(ws *websocket.Conn, outbox chan []byte, done chan struct{}) {
	pinger := time.NewTicker(pingInterval)
	defer pinger.Stop()

	for {
		select {
		case data := <-outbox:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-pinger.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-c.done:
			ws.SetWriteDeadline(time.Now().Add(closeGrace))
			ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			ws.Close()
			return
		}
	}
}

func (c *Conn) fail(ws *websocket.Conn, message string) {
	ws.Close()
	c.setState(Errored, message)
	c.log.Error().Str("reason", message).Msg("fatal protocol error")
}

func (c *Conn) setState(s State, errMsg string) {
	c.mu.Lock()
	if c.state == s && errMsg == "" {
		c.mu.Unlock()
		return
	}
	c.state = s
	if errMsg != "" {
		c.lastError = errMsg
	}
	if s != Connected {
		c.selfID = ""
	}
	listener := c.stateListener
	c.mu.Unlock()

	if listener != nil {
		listener(s)
	}
}
