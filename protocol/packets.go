package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rakaoran/minisketch/canvas"
)

// Envelope is the wire frame: a discriminant naming the variant plus the
// still-encoded payload for that variant.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var ErrEmptyEvent = fmt.Errorf("protocol: envelope without event name")

func Encode(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Payload: raw})
}

func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, ErrEmptyEvent
	}
	return env, nil
}

// validator is implemented by payload variants with required fields.
type validator interface {
	Validate() error
}

// DecodePayload unmarshals an envelope's payload into its variant type and
// runs the variant's validation, if any.
func DecodePayload[T any](env Envelope) (T, error) {
	var payload T
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return payload, fmt.Errorf("protocol: decode %s payload: %w", env.Event, err)
	}
	if v, ok := any(payload).(validator); ok {
		if err := v.Validate(); err != nil {
			return payload, fmt.Errorf("protocol: invalid %s payload: %w", env.Event, err)
		}
	}
	return payload, nil
}

// PlayerState is the authority's view of one room member, used by the
// full-resync payloads.
type PlayerState struct {
	ID    string `json:"id"`
	Name  string `json:"playerName"`
	Score int    `json:"score"`
}

// --- Outbound payloads ---

type CreateRoom struct {
	PlayerName string `json:"playerName"`
}

type JoinRoom struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

type LeaveRoom struct {
	RoomID string `json:"roomId"`
}

type StartGame struct {
	RoomID string `json:"roomId"`
}

type TurnEnd struct {
	RoomID string `json:"roomId"`
}

type GuessWord struct {
	RoomID     string `json:"roomId"`
	Word       string `json:"word"`
	PlayerName string `json:"playerName"`
}

type SendMessage struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

// --- Inbound payloads ---

type Connected struct {
	ID string `json:"id"`
}

func (p Connected) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("connected without id")
	}
	return nil
}

type RoomCreated struct {
	RoomID string `json:"roomId"`
}

func (p RoomCreated) Validate() error {
	if p.RoomID == "" {
		return fmt.Errorf("room_created without roomId")
	}
	return nil
}

type PlayerJoined struct {
	ID         string `json:"id"`
	PlayerName string `json:"playerName"`
}

func (p PlayerJoined) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player_joined without id")
	}
	return nil
}

type PlayerLeft struct {
	ID string `json:"id"`
}

func (p PlayerLeft) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player_left without id")
	}
	return nil
}

// RoomStateUpdate is the authority's full resync. CurrentWord is only
// present when the receiver is allowed to see it.
type RoomStateUpdate struct {
	Players      []PlayerState `json:"players"`
	CurrentRound int           `json:"currentRound"`
	CurrentTurn  string        `json:"currentTurn"`
	CurrentWord  string        `json:"currentWord,omitempty"`
}

type GameStarted struct {
	MaxRounds int `json:"maxRounds"`
}

func (p GameStarted) Validate() error {
	if p.MaxRounds <= 0 {
		return fmt.Errorf("game_started with maxRounds %d", p.MaxRounds)
	}
	return nil
}

type RoundStart struct {
	Round int `json:"round"`
}

// RoundEnd reveals the word to everyone once the turn is over.
type RoundEnd struct {
	Word string `json:"word"`
}

type TurnStart struct {
	CurrentTurn string `json:"currentTurn"`
}

func (p TurnStart) Validate() error {
	if p.CurrentTurn == "" {
		return fmt.Errorf("turn_start without currentTurn")
	}
	return nil
}

type WordSelected struct {
	Word     string `json:"word"`
	IsDrawer bool   `json:"isDrawer"`
}

func (p WordSelected) Validate() error {
	if p.Word == "" {
		return fmt.Errorf("word_selected without word")
	}
	return nil
}

type WordGuessed struct {
	PlayerName string `json:"playerName"`
	Correct    bool   `json:"correct"`
	Guess      string `json:"guess"`
}

type ScoreUpdate struct {
	Players []PlayerState `json:"players"`
}

type GameEnd struct {
	Winner *PlayerState `json:"winner"`
}

type ReceiveMessage struct {
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// --- Bidirectional payloads ---

type DrawEvent struct {
	SenderID string          `json:"senderId"`
	RoomID   string          `json:"roomId"`
	Strokes  []canvas.Stroke `json:"strokes"`
}

func (p DrawEvent) Validate() error {
	if p.RoomID == "" {
		return fmt.Errorf("draw_event without roomId")
	}
	for i, s := range p.Strokes {
		if len(s.Points) == 0 {
			return fmt.Errorf("draw_event stroke %d has no points", i)
		}
	}
	return nil
}

type ClearCanvas struct {
	RoomID string `json:"roomId"`
}

func (p ClearCanvas) Validate() error {
	if p.RoomID == "" {
		return fmt.Errorf("clear_canvas without roomId")
	}
	return nil
}
