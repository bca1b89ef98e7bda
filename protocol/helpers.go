package protocol

import "github.com/rakaoran/minisketch/canvas"

// Constructors for the outbound packets a client produces, mirrored by the
// inbound ones the fake authority in tests produces.

func MakeCreateRoom(playerName string) (string, any) {
	return EventCreateRoom, CreateRoom{PlayerName: playerName}
}

func MakeJoinRoom(roomID, playerName string) (string, any) {
	return EventJoinRoom, JoinRoom{RoomID: roomID, PlayerName: playerName}
}

func MakeLeaveRoom(roomID string) (string, any) {
	return EventLeaveRoom, LeaveRoom{RoomID: roomID}
}

func MakeStartGame(roomID string) (string, any) {
	return EventStartGame, StartGame{RoomID: roomID}
}

func MakeTurnEnd(roomID string) (string, any) {
	return EventTurnEnd, TurnEnd{RoomID: roomID}
}

func MakeGuessWord(roomID, word, playerName string) (string, any) {
	return EventGuessWord, GuessWord{RoomID: roomID, Word: word, PlayerName: playerName}
}

func MakeSendMessage(roomID, playerName, message string) (string, any) {
	return EventSendMessage, SendMessage{RoomID: roomID, PlayerName: playerName, Message: message}
}

func MakeDrawEvent(senderID, roomID string, strokes []canvas.Stroke) (string, any) {
	return EventDraw, DrawEvent{SenderID: senderID, RoomID: roomID, Strokes: strokes}
}

func MakeClearCanvas(roomID string) (string, any) {
	return EventClearCanvas, ClearCanvas{RoomID: roomID}
}

// MustEnvelope builds an Envelope from a constructor pair; it exists for
// tests and panics on marshal failure.
func MustEnvelope(event string, payload any) Envelope {
	data, err := Encode(event, payload)
	if err != nil {
		panic(err)
	}
	env, err := DecodeEnvelope(data)
	if err != nil {
		panic(err)
	}
	return env
}
