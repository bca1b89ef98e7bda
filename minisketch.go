// Package minisketch is an embeddable client for the Minimal Sketch
// multiplayer drawing-and-guessing game. It owns the realtime session: the
// connection to the session authority, the room/game/turn state machine, the
// stroke batcher and the chat relay. Views drive it through intents and read
// it through snapshots.
package minisketch

import (
	"github.com/rs/zerolog"

	"github.com/rakaoran/minisketch/canvas"
	"github.com/rakaoran/minisketch/config"
	"github.com/rakaoran/minisketch/game"
	"github.com/rakaoran/minisketch/transport"
)

// Client bundles one connection and the session mirroring it. Construct a
// fresh Client per entry into the game; a failed session is recovered by
// closing it and starting over.
type Client struct {
	Conn    *transport.Conn
	Session *game.Session
}

type ClientParams struct {
	Config  config.Config
	Surface canvas.Surface
	Logger  zerolog.Logger
	// OnChange fires after every session mutation; read a Snapshot in
	// response.
	OnChange func()
}

func NewClient(p ClientParams) *Client {
	conn := transport.NewConn(transport.Options{
		URL:               p.Config.ServerURL,
		DialTimeout:       p.Config.DialTimeout,
		ReconnectAttempts: p.Config.ReconnectAttempts,
		ReconnectDelay:    p.Config.ReconnectDelay,
		ReconnectDelayMax: p.Config.ReconnectDelayMax,
		Logger:            p.Logger,
	})
	session := game.NewSession(game.Params{
		Conn:          conn,
		Surface:       p.Surface,
		Tickers:       game.NewTickerGen(),
		TurnSeconds:   p.Config.TurnSeconds,
		FlushInterval: p.Config.FlushInterval,
		Logger:        p.Logger,
		OnChange:      p.OnChange,
	})
	return &Client{Conn: conn, Session: session}
}

// Start connects and runs the session.
func (c *Client) Start() {
	c.Session.Start()
	c.Conn.Connect()
}

// Close releases the session and tears the connection down.
func (c *Client) Close() {
	c.Session.Close()
	c.Conn.Disconnect()
}
