package game

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/rakaoran/minisketch/protocol"
)

// apply dispatches one inbound authority event. Malformed payloads and
// events that do not fit the current state are logged and dropped; they
// never crash the session.
func (s *Session) apply(env protocol.Envelope) {
	if s.resyncPending && env.Event != protocol.EventRoomStateUpdate && env.Event != protocol.EventError {
		s.log.Debug().Str("event", env.Event).Msg("dropped while awaiting resync")
		return
	}

	switch env.Event {
	case protocol.EventRoomCreated:
		applyDecoded(s, env, s.onRoomCreated)
	case protocol.EventPlayerJoined:
		applyDecoded(s, env, s.onPlayerJoined)
	case protocol.EventPlayerLeft:
		applyDecoded(s, env, s.onPlayerLeft)
	case protocol.EventRoomStateUpdate:
		applyDecoded(s, env, s.onRoomStateUpdate)
	case protocol.EventGameStarted:
		applyDecoded(s, env, s.onGameStarted)
	case protocol.EventRoundStart:
		applyDecoded(s, env, s.onRoundStart)
	case protocol.EventRoundEnd:
		applyDecoded(s, env, s.onRoundEnd)
	case protocol.EventTurnStart:
		applyDecoded(s, env, s.onTurnStart)
	case protocol.EventWordSelected:
		applyDecoded(s, env, s.onWordSelected)
	case protocol.EventWordGuessed:
		applyDecoded(s, env, s.onWordGuessed)
	case protocol.EventScoreUpdate:
		applyDecoded(s, env, s.onScoreUpdate)
	case protocol.EventGameEnd:
		applyDecoded(s, env, s.onGameEnd)
	case protocol.EventReceiveMessage:
		applyDecoded(s, env, s.onReceiveMessage)
	case protocol.EventDraw:
		applyDecoded(s, env, s.onDraw)
	case protocol.EventClearCanvas:
		applyDecoded(s, env, s.onClearCanvas)
	case protocol.EventError:
		applyDecoded(s, env, s.onError)
	default:
		s.log.Debug().Str("event", env.Event).Msg("unhandled event")
	}
}

func applyDecoded[T any](s *Session, env protocol.Envelope, handle func(T)) {
	payload, err := protocol.DecodePayload[T](env)
	if err != nil {
		s.log.Warn().Err(err).Str("event", env.Event).Msg("dropping invalid payload")
		return
	}
	handle(payload)
}

func (s *Session) onRoomCreated(p protocol.RoomCreated) {
	if s.state != StateAwaitingRoomAck || s.pendingJoinID != "" {
		s.log.Debug().Str("room_id", p.RoomID).Msg("stale room_created")
		return
	}
	selfID := s.conn.SelfID()
	s.state = StateInRoom
	s.isHost = true
	s.room = Room{
		ID:      p.RoomID,
		HostID:  selfID,
		Players: []Player{{ID: selfID, Name: s.playerName}},
	}
	s.game = GameState{}
	s.roomID.Store(p.RoomID)
}

func (s *Session) onPlayerJoined(p protocol.PlayerJoined) {
	if s.state != StateInRoom && s.state != StateInGame {
		return
	}
	// Duplicate joins are no-ops.
	if lo.SomeBy(s.room.Players, func(pl Player) bool { return pl.ID == p.ID }) {
		return
	}
	s.room.Players = append(s.room.Players, Player{ID: p.ID, Name: p.PlayerName})
}

func (s *Session) onPlayerLeft(p protocol.PlayerLeft) {
	if s.state != StateInRoom && s.state != StateInGame {
		return
	}
	s.room.Players = lo.Filter(s.room.Players, func(pl Player, _ int) bool {
		return pl.ID != p.ID
	})
}

// onRoomStateUpdate is the authority's resync: replace, never merge. It also
// acknowledges a pending join, and it is the only event trusted between a
// reconnect and full recovery.
func (s *Session) onRoomStateUpdate(p protocol.RoomStateUpdate) {
	switch s.state {
	case StateAwaitingRoomAck:
		if s.pendingJoinID == "" {
			return
		}
		s.state = StateInRoom
		s.isHost = false
		s.room.ID = s.pendingJoinID
		s.pendingJoinID = ""
		s.roomID.Store(s.room.ID)
	case StateInRoom, StateInGame, StateGameEnded:
	default:
		return
	}

	s.room.Players = toPlayers(p.Players)
	// The payload carries no hostId; a reconnected host keeps hosting under
	// its fresh connection id.
	if s.isHost {
		s.room.HostID = s.conn.SelfID()
	}
	s.game.CurrentRound = p.CurrentRound
	s.game.CurrentTurnPlayerID = p.CurrentTurn
	s.game.LocalDrawing = p.CurrentTurn != "" && p.CurrentTurn == s.conn.SelfID()
	if p.CurrentWord != "" {
		s.game.Word = RevealedWord(p.CurrentWord)
	} else {
		s.game.Word = HiddenWord()
	}
	if s.state == StateInRoom && (p.CurrentRound > 0 || p.CurrentTurn != "") {
		s.state = StateInGame
	}
	s.batcher.SetAllowed(s.game.LocalDrawing)
	s.resyncPending = false
}

func (s *Session) onGameStarted(p protocol.GameStarted) {
	if s.state != StateInRoom {
		return
	}
	s.state = StateInGame
	s.game = GameState{MaxRounds: p.MaxRounds}
	s.turnFired = false
}

func (s *Session) onRoundStart(p protocol.RoundStart) {
	if s.state != StateInGame {
		return
	}
	if p.Round < s.game.CurrentRound {
		s.log.Debug().Int("round", p.Round).Msg("stale round_start")
		return
	}
	s.game.CurrentRound = p.Round
	s.game.Word = HiddenWord()
}

func (s *Session) onRoundEnd(p protocol.RoundEnd) {
	if s.state != StateInGame {
		return
	}
	// The turn is over; the word may be revealed to everyone.
	if p.Word != "" {
		s.game.Word = RevealedWord(p.Word)
	}
	s.game.CurrentTurnPlayerID = ""
	s.game.LocalDrawing = false
	s.turnFired = true
	s.stopCountdown()
	s.batcher.SetAllowed(false)
}

func (s *Session) onTurnStart(p protocol.TurnStart) {
	if s.state != StateInGame {
		return
	}
	s.game.CurrentTurnPlayerID = p.CurrentTurn
	s.game.LocalDrawing = p.CurrentTurn == s.conn.SelfID()
	s.game.GuessedCorrectly = false
	// The drawer receives the word separately via word_selected.
	s.game.Word = HiddenWord()
	s.turnFired = false
	s.batcher.SetAllowed(s.game.LocalDrawing)
	s.armCountdown(p.CurrentTurn)
}

func (s *Session) onWordSelected(p protocol.WordSelected) {
	if s.state != StateInGame {
		return
	}
	// The authority is trusted to have sent this to the right client.
	if !p.IsDrawer && !s.game.LocalDrawing {
		s.log.Debug().Msg("word_selected for a non-drawer")
	}
	s.game.Word = RevealedWord(p.Word)
}

func (s *Session) onWordGuessed(p protocol.WordGuessed) {
	if s.state != StateInGame {
		return
	}
	entry := ChatEntry{ID: uuid.New(), PlayerName: p.PlayerName}
	if p.Correct {
		// Never echo a correct guess; the word stays secret to everyone
		// who has not solved it.
		entry.Kind = ChatCorrectGuess
		if p.PlayerName == s.playerName {
			s.game.GuessedCorrectly = true
		}
	} else {
		entry.Kind = ChatIncorrectGuess
		entry.Text = p.Guess
	}
	s.chat = append(s.chat, entry)
}

func (s *Session) onScoreUpdate(p protocol.ScoreUpdate) {
	if s.state != StateInRoom && s.state != StateInGame && s.state != StateGameEnded {
		return
	}
	s.room.Players = toPlayers(p.Players)
}

func (s *Session) onGameEnd(p protocol.GameEnd) {
	if s.state != StateInGame {
		return
	}
	s.state = StateGameEnded
	s.game.Ended = true
	if p.Winner != nil {
		s.game.Winner = &Player{ID: p.Winner.ID, Name: p.Winner.Name, Score: p.Winner.Score}
	}
	s.game.LocalDrawing = false
	s.stopCountdown()
	s.batcher.SetAllowed(false)
}

func (s *Session) onReceiveMessage(p protocol.ReceiveMessage) {
	if s.state != StateInRoom && s.state != StateInGame && s.state != StateGameEnded {
		return
	}
	s.chat = append(s.chat, ChatEntry{
		ID:         uuid.New(),
		PlayerName: p.PlayerName,
		Text:       p.Message,
		Kind:       ChatPlain,
	})
}

func (s *Session) onDraw(p protocol.DrawEvent) {
	if s.state != StateInGame {
		return
	}
	if p.RoomID != s.room.ID {
		s.log.Debug().Str("room_id", p.RoomID).Msg("draw_event for another room")
		return
	}
	// Own strokes were already painted locally.
	if p.SenderID == s.conn.SelfID() {
		return
	}
	for _, stroke := range p.Strokes {
		s.surface.Paint(stroke.Normalized())
	}
}

func (s *Session) onClearCanvas(p protocol.ClearCanvas) {
	if s.state != StateInGame {
		return
	}
	if p.RoomID != s.room.ID {
		return
	}
	s.surface.Clear()
}

// onError surfaces an authority rejection. While awaiting a room ack it is
// the create/join rejection and routes back to idle; otherwise it is
// recorded and the session stays up.
func (s *Session) onError(p protocol.ErrorPayload) {
	s.lastError = p.Message
	if s.state == StateAwaitingRoomAck {
		s.state = StateIdle
		s.pendingJoinID = ""
		return
	}
	s.log.Warn().Str("message", p.Message).Msg("authority error")
}

func toPlayers(states []protocol.PlayerState) []Player {
	return lo.Map(states, func(ps protocol.PlayerState, _ int) Player {
		return Player{ID: ps.ID, Name: ps.Name, Score: ps.Score}
	})
}
