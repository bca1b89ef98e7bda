// Package protocol defines the event vocabulary spoken between a client and
// the session authority: one string discriminant per event, one payload
// shape per discriminant, carried in a JSON envelope.
package protocol

// Room events.
const (
	EventCreateRoom      = "create_room"
	EventRoomCreated     = "room_created"
	EventJoinRoom        = "join_room"
	EventLeaveRoom       = "leave_room"
	EventPlayerJoined    = "player_joined"
	EventPlayerLeft      = "player_left"
	EventRoomStateUpdate = "room_state_update"
)

// Chat events.
const (
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
)

// Drawing events.
const (
	EventDraw        = "draw_event"
	EventClearCanvas = "clear_canvas"
)

// Game events.
const (
	EventStartGame    = "start_game"
	EventGameStarted  = "game_started"
	EventRoundStart   = "round_start"
	EventRoundEnd     = "round_end"
	EventTurnStart    = "turn_start"
	EventTurnEnd      = "turn_end"
	EventWordSelected = "word_selected"
	EventGuessWord    = "guess_word"
	EventWordGuessed  = "word_guessed"
	EventScoreUpdate  = "score_update"
	EventGameEnd      = "game_end"
)

// Connection events.
const (
	EventConnected = "connected"
	EventError     = "error"
)
