package game

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rakaoran/minisketch/canvas"
	"github.com/rakaoran/minisketch/protocol"
	"github.com/rakaoran/minisketch/transport"
)

// Transport is the slice of the connection the session consumes. Satisfied
// by *transport.Conn.
type Transport interface {
	Send(event string, payload any) error
	On(event string, h transport.Handler)
	OnStateChange(fn func(transport.State))
	SelfID() string
	State() transport.State
	LastError() string
}

type Params struct {
	Conn          Transport
	Surface       canvas.Surface
	Tickers       TickerCreator
	TurnSeconds   int
	FlushInterval time.Duration
	Logger        zerolog.Logger
	// OnChange is invoked after applied mutations, off the session
	// goroutine; consecutive mutations may coalesce into one call. The
	// callback may call Snapshot.
	OnChange func()
}

// Session is the client's mirror of the authority: room roster, game/turn
// state, chat log, and the outbound intents that act on them. All state
// lives on the session goroutine.
type Session struct {
	conn     Transport
	surface  canvas.Surface
	tickers  TickerCreator
	log      zerolog.Logger
	onChange func()
	limiter  *rate.Limiter
	batcher  *canvas.Batcher

	turnSeconds int

	// roomID is duplicated here for the stroke flush path, which runs off
	// the session goroutine.
	roomID atomic.Value

	inbox      chan protocol.Envelope
	connStates chan transport.State
	commands   chan func()
	snapshots  chan chan Snapshot
	changes    chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	// Owned by the session goroutine.
	state         SessionState
	playerName    string
	pendingJoinID string
	isHost        bool
	room          Room
	game          GameState
	chat          []ChatEntry
	lastError     string
	resyncPending bool
	turnFired     bool
	countdown     *TurnCountdown
}

var inboundEvents = []string{
	protocol.EventRoomCreated,
	protocol.EventPlayerJoined,
	protocol.EventPlayerLeft,
	protocol.EventRoomStateUpdate,
	protocol.EventGameStarted,
	protocol.EventRoundStart,
	protocol.EventRoundEnd,
	protocol.EventTurnStart,
	protocol.EventWordSelected,
	protocol.EventWordGuessed,
	protocol.EventScoreUpdate,
	protocol.EventGameEnd,
	protocol.EventReceiveMessage,
	protocol.EventDraw,
	protocol.EventClearCanvas,
	protocol.EventError,
}

func NewSession(p Params) *Session {
	s := &Session{
		conn:        p.Conn,
		surface:     p.Surface,
		tickers:     p.Tickers,
		log:         p.Logger,
		onChange:    p.OnChange,
		limiter:     rate.NewLimiter(1, 5),
		turnSeconds: p.TurnSeconds,
		inbox:       make(chan protocol.Envelope, 256),
		connStates:  make(chan transport.State, 16),
		commands:    make(chan func(), 64),
		snapshots:   make(chan chan Snapshot),
		changes:     make(chan struct{}, 1),
		done:        make(chan struct{}),
		state:       StateIdle,
	}
	s.roomID.Store("")
	s.batcher = canvas.NewBatcher(s.flushStrokes, p.Tickers.Create(p.FlushInterval), p.Logger)

	for _, event := range inboundEvents {
		p.Conn.On(event, s.enqueue)
	}
	p.Conn.OnStateChange(func(st transport.State) {
		select {
		case s.connStates <- st:
		case <-s.done:
		}
	})
	return s
}

// Start runs the session goroutine and the stroke flush loop.
func (s *Session) Start() {
	s.batcher.Start()
	go s.run()
	if s.onChange != nil {
		go s.notifyLoop()
	}
}

// Close tears the session down; scheduled activity stops with it.
func (s *Session) Close() {
	s.stopOnce.Do(func() { close(s.done) })
	s.batcher.Stop()
}

func (s *Session) enqueue(env protocol.Envelope) {
	select {
	case s.inbox <- env:
	case <-s.done:
	}
}

func (s *Session) run() {
	defer func() {
		if s.countdown != nil {
			s.countdown.Stop()
		}
	}()
	for {
		select {
		case env := <-s.inbox:
			s.apply(env)
			s.notify()
		case cmd := <-s.commands:
			cmd()
			s.notify()
		case st := <-s.connStates:
			s.handleConnState(st)
			s.notify()
		case resp := <-s.snapshots:
			resp <- s.buildSnapshot()
		case <-s.done:
			return
		}
	}
}

// notify signals a mutation without blocking the session goroutine; the
// callback runs on notifyLoop, so it can read a Snapshot back.
func (s *Session) notify() {
	if s.onChange == nil {
		return
	}
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Session) notifyLoop() {
	for {
		select {
		case <-s.changes:
			s.onChange()
		case <-s.done:
			return
		}
	}
}

// do schedules fn on the session goroutine; intents are fire-and-forget,
// confirmation arrives later as its own inbound event.
func (s *Session) do(fn func()) {
	select {
	case s.commands <- fn:
	case <-s.done:
	}
}

// CreateRoom asks the authority for a new room hosted by this client.
func (s *Session) CreateRoom(playerName string) {
	s.do(func() {
		if s.state != StateIdle {
			s.log.Debug().Stringer("state", s.state).Msg("create_room ignored")
			return
		}
		if s.conn.State() != transport.Connected {
			s.lastError = ErrNotConnected.Error()
			return
		}
		s.playerName = playerName
		s.pendingJoinID = ""
		s.state = StateAwaitingRoomAck
		if err := s.conn.Send(protocol.MakeCreateRoom(playerName)); err != nil {
			s.state = StateIdle
			s.lastError = err.Error()
		}
	})
}

// JoinRoom asks the authority to add this client to an existing room.
func (s *Session) JoinRoom(roomID, playerName string) {
	s.do(func() {
		if s.state != StateIdle {
			s.log.Debug().Stringer("state", s.state).Msg("join_room ignored")
			return
		}
		if s.conn.State() != transport.Connected {
			s.lastError = ErrNotConnected.Error()
			return
		}
		s.playerName = playerName
		s.pendingJoinID = roomID
		s.state = StateAwaitingRoomAck
		if err := s.conn.Send(protocol.MakeJoinRoom(roomID, playerName)); err != nil {
			s.state = StateIdle
			s.lastError = err.Error()
		}
	})
}

// LeaveRoom notifies the authority and resets to a fresh idle machine.
func (s *Session) LeaveRoom() {
	s.do(func() {
		if s.room.ID != "" && s.conn.State() == transport.Connected {
			if err := s.conn.Send(protocol.MakeLeaveRoom(s.room.ID)); err != nil {
				s.log.Debug().Err(err).Msg("leave_room not sent")
			}
		}
		s.resetToIdle()
	})
}

// StartGame is valid only for the host, only from the waiting room, and only
// with at least two players present.
func (s *Session) StartGame() {
	s.do(func() {
		if s.state != StateInRoom {
			return
		}
		if !s.isHost {
			return
		}
		if len(s.room.Players) < 2 {
			return
		}
		if err := s.conn.Send(protocol.MakeStartGame(s.room.ID)); err != nil {
			s.lastError = err.Error()
		}
	})
}

// SubmitChat relays text as a chat message and, when guessing is permitted,
// also as a guess. Both sends happen; the authority alone judges guesses.
// The local log is only appended on authority echo.
func (s *Session) SubmitChat(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.do(func() {
		if s.state != StateInRoom && s.state != StateInGame {
			return
		}
		if s.conn.State() != transport.Connected {
			return
		}
		if !s.limiter.Allow() {
			s.log.Debug().Msg("chat submission rate limited")
			return
		}
		if err := s.conn.Send(protocol.MakeSendMessage(s.room.ID, s.playerName, text)); err != nil {
			return
		}
		if s.state == StateInGame && !s.game.LocalDrawing && !s.game.Ended {
			if err := s.conn.Send(protocol.MakeGuessWord(s.room.ID, text, s.playerName)); err != nil {
				s.log.Debug().Err(err).Msg("guess not sent")
			}
		}
	})
}

// ClearCanvas clears the local surface and relays the reset; drawer only.
func (s *Session) ClearCanvas() {
	s.do(func() {
		if s.state != StateInGame || !s.game.LocalDrawing {
			return
		}
		s.surface.Clear()
		if err := s.conn.Send(protocol.MakeClearCanvas(s.room.ID)); err != nil {
			s.log.Debug().Err(err).Msg("clear_canvas not sent")
		}
	})
}

// BeginStroke, ExtendStroke and EndStroke feed pointer input to the batcher.
// They are safe to call at pointer-move frequency.
func (s *Session) BeginStroke(p canvas.Point, tool canvas.Tool, color string, lineWidth int) {
	s.batcher.Begin(p, tool, color, lineWidth)
}

func (s *Session) ExtendStroke(p canvas.Point) {
	s.batcher.Extend(p)
}

func (s *Session) EndStroke() {
	s.batcher.End()
}

// Snapshot returns a copy of the session state, taken on the session
// goroutine.
func (s *Session) Snapshot() Snapshot {
	resp := make(chan Snapshot, 1)
	select {
	case s.snapshots <- resp:
		select {
		case snap := <-resp:
			return snap
		case <-s.done:
		}
	case <-s.done:
	}
	return Snapshot{State: s.state, ConnState: s.conn.State()}
}

func (s *Session) buildSnapshot() Snapshot {
	snap := Snapshot{
		State:      s.state,
		ConnState:  s.conn.State(),
		SelfID:     s.conn.SelfID(),
		PlayerName: s.playerName,
		Room: Room{
			ID:      s.room.ID,
			HostID:  s.room.HostID,
			Players: append([]Player(nil), s.room.Players...),
		},
		Game:      s.game,
		Chat:      append([]ChatEntry(nil), s.chat...),
		LastError: s.lastError,
	}
	if s.game.Winner != nil {
		winner := *s.game.Winner
		snap.Game.Winner = &winner
	}
	if s.countdown != nil {
		snap.TurnSecondsLeft = s.countdown.Remaining()
	}
	return snap
}

// flushStrokes runs on the batcher's flush loop. A non-nil error keeps the
// batch queued for the next tick.
func (s *Session) flushStrokes(strokes []canvas.Stroke) error {
	roomID, _ := s.roomID.Load().(string)
	if roomID == "" {
		return ErrNoRoom
	}
	selfID := s.conn.SelfID()
	for i := range strokes {
		strokes[i].SourceID = selfID
	}
	return s.conn.Send(protocol.MakeDrawEvent(selfID, roomID, strokes))
}

func (s *Session) resetToIdle() {
	s.state = StateIdle
	s.playerName = ""
	s.pendingJoinID = ""
	s.isHost = false
	s.room = Room{}
	s.game = GameState{}
	s.chat = nil
	s.lastError = ""
	s.resyncPending = false
	s.turnFired = false
	s.stopCountdown()
	s.batcher.SetAllowed(false)
	s.roomID.Store("")
}

func (s *Session) stopCountdown() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

func (s *Session) armCountdown(turnOwner string) {
	s.stopCountdown()
	cd := NewTurnCountdown(s.turnSeconds, s.tickers.Create(time.Second), func() {
		s.do(func() { s.handleTurnExpired(turnOwner) })
	})
	s.countdown = cd
	cd.Start()
}

// handleTurnExpired forwards the local time-up signal; a countdown armed for
// a turn that already advanced is suppressed.
func (s *Session) handleTurnExpired(turnOwner string) {
	if s.state != StateInGame {
		return
	}
	if s.game.CurrentTurnPlayerID != turnOwner {
		return
	}
	if s.turnFired {
		return
	}
	s.turnFired = true
	if err := s.conn.Send(protocol.MakeTurnEnd(s.room.ID)); err != nil {
		s.log.Debug().Err(err).Msg("turn_end not sent")
	}
}

func (s *Session) handleConnState(st transport.State) {
	switch st {
	case transport.Connecting:
		if s.state == StateAwaitingRoomAck {
			// The pending request died with the old connection.
			s.state = StateIdle
			s.lastError = "connection lost"
			return
		}
		if s.state != StateIdle {
			// Nothing incremental is trusted again until a full resync.
			s.resyncPending = true
		}
	case transport.Connected:
		// Wait for the authority's resync before applying incrementals.
	case transport.Disconnected, transport.Errored:
		if msg := s.conn.LastError(); msg != "" {
			s.lastError = msg
		} else if s.state != StateIdle {
			s.lastError = "connection lost"
		}
		s.stopCountdown()
		s.batcher.SetAllowed(false)
	}
}
