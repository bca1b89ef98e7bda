package game

import "errors"

var (
	ErrNoRoom       = errors.New("no room joined")
	ErrNotConnected = errors.New("not connected")
)
