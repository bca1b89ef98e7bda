package game

import "time"

// TickerCreator abstracts periodic tick channels so tests can step time by
// feeding channels by hand.
type TickerCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

type tickerGen struct{}

func (tickerGen) Create(duration time.Duration) <-chan time.Time {
	return time.NewTicker(duration).C
}

func NewTickerGen() TickerCreator {
	return tickerGen{}
}
