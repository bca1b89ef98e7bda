// Package game mirrors the session authority's room/game/turn state on the
// client. One actor goroutine owns all canonical state; inbound authority
// events, local intents, and timer fires are interleaved through its
// channels, so handlers never race but must tolerate any arrival order.
package game

import (
	"github.com/google/uuid"

	"github.com/rakaoran/minisketch/transport"
)

// SessionState is the machine's lifecycle. GameEnded is terminal for that
// game instance; returning to the lobby resets to a fresh Idle machine.
type SessionState int

const (
	StateIdle SessionState = iota
	StateAwaitingRoomAck
	StateInRoom
	StateInGame
	StateGameEnded
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingRoomAck:
		return "awaiting_room_ack"
	case StateInRoom:
		return "in_room"
	case StateInGame:
		return "in_game"
	case StateGameEnded:
		return "game_ended"
	default:
		return "unknown"
	}
}

// Player id is the authority-assigned connection identifier, unique within a
// room; rejoining issues a new one.
type Player struct {
	ID    string
	Name  string
	Score int
}

type Room struct {
	ID      string
	HostID  string
	Players []Player
}

// WordView is the secret word's visibility. It is constructed only from
// event payloads (word_selected, round_end, resync), never inferred from
// role flags, so a guesser can never locally derive the word.
type WordView struct {
	revealed bool
	word     string
}

func HiddenWord() WordView { return WordView{} }

func RevealedWord(word string) WordView { return WordView{revealed: true, word: word} }

func (w WordView) Revealed() bool { return w.revealed }

func (w WordView) Word() (string, bool) { return w.word, w.revealed }

type GameState struct {
	CurrentRound        int
	MaxRounds           int
	CurrentTurnPlayerID string
	Word                WordView
	LocalDrawing        bool
	GuessedCorrectly    bool
	Ended               bool
	Winner              *Player
}

type ChatKind int

const (
	ChatPlain ChatKind = iota
	ChatCorrectGuess
	ChatIncorrectGuess
)

// ChatEntry is one line of the append-only chat log, in authority arrival
// order. A correct guess never carries the guessed text.
type ChatEntry struct {
	ID         uuid.UUID
	PlayerName string
	Text       string
	Kind       ChatKind
}

// Snapshot is a read-only copy of the session for view code. Views never
// touch session state directly.
type Snapshot struct {
	State           SessionState
	ConnState       transport.State
	SelfID          string
	PlayerName      string
	Room            Room
	Game            GameState
	Chat            []ChatEntry
	TurnSecondsLeft int
	LastError       string
}
