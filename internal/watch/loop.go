package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/logging"
	"github.com/thruflo/snapview/internal/progress"
)

// DefaultInterval is the refresh period when Options.Interval is zero.
const DefaultInterval = 500 * time.Millisecond

// Options configures a Loop.
type Options struct {
	// Source is refreshed and read on every tick. Required.
	Source progress.Source

	// Surfaces receive every frame, in order.
	Surfaces []display.Surface

	// Display controls title prefix and offered commands.
	Display display.Options

	// Interval is the tick period.
	// Default: 500ms
	Interval time.Duration

	// Logger receives refresh errors and recovered panics.
	// Default: the package-level logger with component=watch
	Logger *logging.Logger
}

// Loop is the progress display loop.
type Loop struct {
	opts Options
	log  *logging.Logger

	tickMu sync.Mutex // serializes ticks
	state  display.State
	frame  display.Frame
	ticks  int
}

// New creates a Loop.
func New(opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	log := opts.Logger
	if log == nil {
		log = logging.With("component", "watch")
	}
	return &Loop{opts: opts, log: log}
}

// Interval returns the tick period.
func (l *Loop) Interval() time.Duration {
	return l.opts.Interval
}

// State returns the state after the most recent tick.
func (l *Loop) State() display.State {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()
	return l.state
}

// Frame returns the most recently presented frame.
func (l *Loop) Frame() display.Frame {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()
	return l.frame
}

// Ticks returns how many ticks have completed.
func (l *Loop) Ticks() int {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()
	return l.ticks
}

// Tick runs one refresh/compose/present cycle and returns the frame.
func (l *Loop) Tick(ctx context.Context) display.Frame {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()

	if err := l.opts.Source.Refresh(ctx); err != nil {
		l.log.Debug("progress refresh failed", "error", err)
	}

	frame := display.Compose(l.opts.Source.Snapshot(), l.opts.Display)
	next := l.state.Advance(frame)

	for _, surface := range l.opts.Surfaces {
		l.present(surface, next, frame)
	}

	if frame.Stage != l.state.Stage || l.ticks == 0 {
		l.log.Info("stage changed", "stage", frame.Stage, "title", frame.Title)
	}

	l.state = next
	l.frame = frame
	l.ticks++
	return frame
}

// present shows frame on one surface, containing any panic so the other
// surfaces and later ticks still run.
func (l *Loop) present(surface display.Surface, state display.State, frame display.Frame) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("surface panicked", "surface", fmt.Sprintf("%T", surface), "panic", fmt.Sprint(r))
		}
	}()
	display.Present(surface, state, frame)
}

// Handle controls a started Loop.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop cancels the loop and waits for the running tick to finish.
// Safe to call more than once.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start runs the loop on a new goroutine until ctx is cancelled or Stop
// is called.
func (l *Loop) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		l.Run(ctx)
	}()
	return h
}

// Run ticks once immediately, then on every interval and on every change
// notification from the source, until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	var changes <-chan struct{}
	if n, ok := l.opts.Source.(progress.Notifier); ok {
		changes = n.Changes()
	}

	l.safeTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.safeTick(ctx)
		case <-changes:
			l.safeTick(ctx)
		}
	}
}

func (l *Loop) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("tick panicked", "panic", fmt.Sprint(r))
		}
	}()
	l.Tick(ctx)
}
