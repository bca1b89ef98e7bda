package game

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rakaoran/minisketch/canvas"
	"github.com/rakaoran/minisketch/protocol"
	"github.com/rakaoran/minisketch/transport"
)

// --- Transport ---

type sentEvent struct {
	event   string
	payload any
}

// fakeConn records outbound sends and lets tests drive connection state.
type fakeConn struct {
	mu            sync.Mutex
	state         transport.State
	selfID        string
	lastError     string
	sendErr       error
	sent          []sentEvent
	handlers      map[string]transport.Handler
	stateListener func(transport.State)
}

func newFakeConn(selfID string) *fakeConn {
	return &fakeConn{
		state:    transport.Connected,
		selfID:   selfID,
		handlers: make(map[string]transport.Handler),
	}
}

func (f *fakeConn) Send(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentEvent{event: event, payload: payload})
	return nil
}

func (f *fakeConn) On(event string, h transport.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[event] = h
}

func (f *fakeConn) OnStateChange(fn func(transport.State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateListener = fn
}

func (f *fakeConn) SelfID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selfID
}

func (f *fakeConn) State() transport.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeConn) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastError
}

func (f *fakeConn) setState(st transport.State) {
	f.mu.Lock()
	f.state = st
	f.mu.Unlock()
}

func (f *fakeConn) sentEvents() []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEvent(nil), f.sent...)
}

func (f *fakeConn) sentNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.sent))
	for _, e := range f.sent {
		names = append(names, e.event)
	}
	return names
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}

// --- Surface ---

type MockSurface struct {
	mock.Mock
}

func (m *MockSurface) Paint(stroke canvas.Stroke) {
	m.Called(stroke)
}

func (m *MockSurface) Clear() {
	m.Called()
}

// --- Tickers ---

// stubTickers hands out buffered channels the test feeds by hand. The first
// channel created belongs to the stroke flush loop, later ones to turn
// countdowns.
type stubTickers struct {
	mu      sync.Mutex
	created []chan time.Time
}

func (st *stubTickers) Create(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 128)
	st.mu.Lock()
	st.created = append(st.created, ch)
	st.mu.Unlock()
	return ch
}

func (st *stubTickers) last() chan time.Time {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.created[len(st.created)-1]
}

func (st *stubTickers) count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.created)
}

// env builds an inbound envelope the way the authority would frame it.
func env(event string, payload any) protocol.Envelope {
	return protocol.MustEnvelope(event, payload)
}

// step drains and executes queued local intents on the calling goroutine,
// standing in for the session actor in synchronous tests.
func step(s *Session) {
	for {
		select {
		case cmd := <-s.commands:
			cmd()
		default:
			return
		}
	}
}
