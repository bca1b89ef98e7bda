package game

import (
	"sync"
	"sync/atomic"
	"time"
)

// TurnCountdown counts a turn down to zero and invokes onExpire exactly once
// per instance. A new turn arms a fresh countdown rather than resetting this
// one, so a stale timer cannot double-fire after the turn has advanced.
type TurnCountdown struct {
	ticks     <-chan time.Time
	onExpire  func()
	remaining atomic.Int32
	done      chan struct{}
	stopOnce  sync.Once
}

func NewTurnCountdown(seconds int, ticks <-chan time.Time, onExpire func()) *TurnCountdown {
	c := &TurnCountdown{
		ticks:    ticks,
		onExpire: onExpire,
		done:     make(chan struct{}),
	}
	c.remaining.Store(int32(seconds))
	return c
}

func (c *TurnCountdown) Start() {
	go func() {
		for {
			select {
			case <-c.ticks:
				select {
				case <-c.done:
					return
				default:
				}
				if c.remaining.Add(-1) <= 0 {
					c.onExpire()
					return
				}
			case <-c.done:
				return
			}
		}
	}()
}

// Stop cancels the countdown; ticks arriving after Stop never fire the
// callback.
func (c *TurnCountdown) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// Remaining reports whole seconds left, for display.
func (c *TurnCountdown) Remaining() int {
	n := int(c.remaining.Load())
	if n < 0 {
		return 0
	}
	return n
}
