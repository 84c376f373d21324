// Package render drives periodic redraws of a sample.Buffer.
//
// Each tick compares the buffer's newest sequence number with the one seen
// at the previous draw. Unchanged buffers are skipped without calling the
// renderer, so an idle feed costs nothing but the check.
package render

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/fv/internal/logger"
	"github.com/rileyhilliard/fv/internal/sample"
)

// DefaultInterval is the tick period when none is given.
const DefaultInterval = 500 * time.Millisecond

// Renderer draws samples.
type Renderer interface {
	Render(samples []sample.Sample) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(samples []sample.Sample) error

func (f RenderFunc) Render(samples []sample.Sample) error {
	return f(samples)
}

// Observer is told about every completed tick.
type Observer interface {
	TickCompleted(state State, batch int, elapsed time.Duration, err error)
}

// Stats counts ticks by outcome. Ticks == Draws + Skips.
type Stats struct {
	Ticks  uint64
	Draws  uint64
	Skips  uint64
	Errors uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithMode sets full or incremental drawing.
func WithMode(m Mode) Option {
	return func(l *Loop) { l.mode = m }
}

// WithLogger sets the loop's logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// WithObserver adds a tick observer.
func WithObserver(o Observer) Option {
	return func(l *Loop) {
		if o != nil {
			l.observers = append(l.observers, o)
		}
	}
}

// Loop redraws a buffer whenever it has grown since the last draw.
type Loop struct {
	buf       *sample.Buffer
	renderer  Renderer
	interval  time.Duration
	mode      Mode
	log       logger.Logger
	observers []Observer

	// mu serializes ticks. The buffer has its own lock.
	mu       sync.Mutex
	baseline uint64

	state  atomic.Int32
	ticks  atomic.Uint64
	draws  atomic.Uint64
	skips  atomic.Uint64
	errors atomic.Uint64
}

// NewLoop creates a loop over buf. A non-positive interval uses DefaultInterval.
func NewLoop(buf *sample.Buffer, r Renderer, interval time.Duration, opts ...Option) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	l := &Loop{
		buf:      buf,
		renderer: r,
		interval: interval,
		log:      logger.Noop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tick runs one IDLE -> CHECK -> SKIP|DRAW -> IDLE cycle and returns the
// branch taken. A failed draw is logged and returned as *Error; the baseline
// still advances, so the same samples aren't retried on every tick.
func (l *Loop) Tick() (State, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	defer l.state.Store(int32(StateIdle))

	l.ticks.Add(1)
	l.state.Store(int32(StateCheck))

	if l.buf.LastSeq() == l.baseline {
		l.skips.Add(1)
		l.state.Store(int32(StateSkip))
		l.notify(StateSkip, 0, start, nil)
		return StateSkip, nil
	}

	l.state.Store(int32(StateDraw))
	batch := l.batch()
	if len(batch) == 0 {
		// Everything new was evicted before we got to it.
		l.baseline = l.buf.LastSeq()
		l.skips.Add(1)
		l.notify(StateSkip, 0, start, nil)
		return StateSkip, nil
	}

	newest := batch[len(batch)-1].Seq
	if l.mode == ModeIncremental && batch[0].Seq > l.baseline+1 {
		l.log.Warn("%d samples were evicted before they were drawn", batch[0].Seq-l.baseline-1)
	}
	l.baseline = newest
	l.draws.Add(1)

	err := l.draw(batch, newest)
	if err != nil {
		l.errors.Add(1)
		l.log.Error("%v", err)
	}
	l.notify(StateDraw, len(batch), start, err)
	return StateDraw, err
}

func (l *Loop) batch() []sample.Sample {
	if l.mode == ModeIncremental {
		return l.buf.Since(l.baseline)
	}
	return l.buf.Snapshot()
}

func (l *Loop) draw(batch []sample.Sample, newest uint64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Seq: newest, Panic: r, Stack: debug.Stack()}
		}
	}()

	if rerr := l.renderer.Render(batch); rerr != nil {
		return &Error{Seq: newest, Cause: rerr}
	}
	return nil
}

func (l *Loop) notify(s State, n int, start time.Time, err error) {
	elapsed := time.Since(start)
	for _, o := range l.observers {
		o.TickCompleted(s, n, elapsed, err)
	}
}

// Run ticks every interval until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.log.Debug("render loop started (interval=%s mode=%s)", l.interval, l.mode)
	for {
		select {
		case <-ctx.Done():
			l.log.Debug("render loop stopped")
			return ctx.Err()
		case <-ticker.C:
			_, _ = l.Tick()
		}
	}
}

// Reset forgets the baseline so the next tick draws everything retained.
func (l *Loop) Reset() {
	l.mu.Lock()
	l.baseline = 0
	l.mu.Unlock()
}

// Baseline returns the sequence number seen at the last draw.
func (l *Loop) Baseline() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.baseline
}

// State returns the loop's current state. Outside a tick it is StateIdle.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Interval returns the tick period.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Mode returns the draw mode.
func (l *Loop) Mode() Mode {
	return l.mode
}

// Stats returns a snapshot of the tick counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Ticks:  l.ticks.Load(),
		Draws:  l.draws.Load(),
		Skips:  l.skips.Load(),
		Errors: l.errors.Load(),
	}
}
