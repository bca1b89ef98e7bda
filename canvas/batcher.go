package canvas

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FlushFunc delivers one batch of completed strokes to the network. It must
// return a non-nil error when the batch could not be handed to a live
// connection, in which case the batcher keeps the strokes for the next tick.
type FlushFunc func(strokes []Stroke) error

// Batcher accumulates pointer input into discrete strokes and flushes
// completed strokes on a periodic tick, decoupling pointer-move frequency
// from network send rate. Begin is gated on the local draw permission; all
// other calls are no-ops when nothing is in progress.
type Batcher struct {
	flush FlushFunc
	ticks <-chan time.Time
	log   zerolog.Logger

	mu        sync.Mutex
	allowed   bool
	current   *Stroke
	completed []Stroke

	done     chan struct{}
	stopOnce sync.Once
}

func NewBatcher(flush FlushFunc, ticks <-chan time.Time, log zerolog.Logger) *Batcher {
	return &Batcher{
		flush: flush,
		ticks: ticks,
		log:   log,
		done:  make(chan struct{}),
	}
}

// Start runs the periodic flush loop until Stop.
func (b *Batcher) Start() {
	go func() {
		for {
			select {
			case <-b.ticks:
				b.flushCompleted()
			case <-b.done:
				return
			}
		}
	}()
}

// Stop cancels the flush loop. Strokes still queued are abandoned with the
// session that owned them.
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
}

// SetAllowed mirrors the local draw permission. Revoking permission discards
// any stroke in progress; the turn it belonged to is already over.
func (b *Batcher) SetAllowed(allowed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowed = allowed
	if !allowed {
		b.current = nil
	}
}

// Begin starts a new stroke at p. Without draw permission this is a policy
// no-op, not an error: the caller's UI is simply stale.
func (b *Batcher) Begin(p Point, tool Tool, color string, lineWidth int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.allowed {
		return
	}
	b.current = &Stroke{
		Tool:      tool,
		Color:     color,
		LineWidth: lineWidth,
		Points:    []Point{p},
	}
}

// Extend appends p to the stroke in progress; no-op otherwise.
func (b *Batcher) Extend(p Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return
	}
	b.current.Points = append(b.current.Points, p)
}

// End finalizes the stroke in progress into the completed queue.
func (b *Batcher) End() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return
	}
	if len(b.current.Points) > 0 {
		b.completed = append(b.completed, *b.current)
	}
	b.current = nil
}

func (b *Batcher) flushCompleted() {
	b.mu.Lock()
	if len(b.completed) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.completed
	b.completed = nil
	b.mu.Unlock()

	if err := b.flush(batch); err != nil {
		// Transient send failure: keep the batch, coalesce with whatever
		// completes before the next tick.
		b.log.Debug().Err(err).Int("strokes", len(batch)).Msg("stroke flush deferred")
		b.mu.Lock()
		b.completed = append(batch, b.completed...)
		b.mu.Unlock()
	}
}
