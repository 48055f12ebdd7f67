package watch

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/logging"
	"github.com/thruflo/snapview/internal/progress"
	"github.com/thruflo/snapview/internal/stage"
)

// recordingSurface keeps every title it is given. It is safe for use from
// the loop goroutine and the test goroutine.
type recordingSurface struct {
	mu       sync.Mutex
	titles   []string
	classes  []string
	statuses map[stage.Stage]string
	panicOn  string
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{statuses: make(map[stage.Stage]string)}
}

type statusWriter struct {
	s     *recordingSurface
	stage stage.Stage
}

func (w statusWriter) SetStatus(c display.Content) {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	w.s.statuses[w.stage] = c.Plain()
}

func (r *recordingSurface) StatusTarget(s stage.Stage) (display.Target, bool) {
	return statusWriter{s: r, stage: s}, true
}

func (r *recordingSurface) SetTitle(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicOn != "" && title == r.panicOn {
		panic("surface broke")
	}
	r.titles = append(r.titles, title)
}

func (r *recordingSurface) SetStage(s stage.Stage) {}

func (r *recordingSurface) SetClasses(classes []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes = classes
}

func (r *recordingSurface) SetActions(cmds []actions.Command) {}

func (r *recordingSurface) lastTitle() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.titles) == 0 {
		return ""
	}
	return r.titles[len(r.titles)-1]
}

func quietLogger() *logging.Logger {
	l := logging.New()
	l.SetOutput(log.New(&bytes.Buffer{}, "", 0))
	return l
}

func newTestLoop(src progress.Source, surfaces ...display.Surface) *Loop {
	return New(Options{
		Source:   src,
		Surfaces: surfaces,
		Display:  display.Options{TitlePrefix: "EOS", Commands: actions.NewCommands(nil)},
		Interval: 5 * time.Millisecond,
		Logger:   quietLogger(),
	})
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	l := New(Options{Source: progress.NewMemorySource(progress.Snapshot{})})
	assert.Equal(t, DefaultInterval, l.Interval())
}

func TestTick_ThreadsState(t *testing.T) {
	t.Parallel()

	src := progress.NewMemorySource(progress.Snapshot{})
	surface := newRecordingSurface()
	l := newTestLoop(src, surface)

	frame := l.Tick(context.Background())
	assert.Equal(t, stage.Welcome, frame.Stage)
	assert.Equal(t, "EOS | Welcome", surface.lastTitle())

	src.Set(progress.Snapshot{RegistrantsCount: 7})
	frame = l.Tick(context.Background())
	assert.Equal(t, stage.Registry, frame.Stage)
	assert.Equal(t, "EOS | Building Registry | 7", surface.lastTitle())
	assert.Equal(t, "Found 7 Registrants", surface.statuses[stage.Registry])

	state := l.State()
	assert.Equal(t, stage.Registry, state.Stage)
	assert.Equal(t, []string{"welcome", "registry"}, state.Classes)
	assert.Equal(t, 2, l.Ticks())
	assert.Equal(t, 2, src.Refreshes())
	assert.Equal(t, frame, l.Frame())
}

func TestTick_UnchangedInputsRenderIdentically(t *testing.T) {
	t.Parallel()

	src := progress.NewMemorySource(progress.Snapshot{SnapshotRowCount: 4, PercentComplete: 12.5, RegistryTotal: 8, RegistryAccepted: 1})
	surface := newRecordingSurface()
	l := newTestLoop(src, surface)

	first := l.Tick(context.Background())
	firstStatus := surface.statuses[stage.Distribute]
	second := l.Tick(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, firstStatus, surface.statuses[stage.Distribute])
	assert.Equal(t, surface.titles[0], surface.titles[1])
	assert.Equal(t, []string{"distribute"}, l.State().Classes)
}

func TestTick_RefreshErrorKeepsGoing(t *testing.T) {
	t.Parallel()

	src := progress.NewMemorySource(progress.Snapshot{ReclaimableCount: 2})
	src.SetError(errors.New("pipeline busy"))
	surface := newRecordingSurface()
	l := newTestLoop(src, surface)

	frame := l.Tick(context.Background())
	assert.Equal(t, stage.Reclaimer, frame.Stage)
	assert.Equal(t, "EOS | Reclaimable TXs | 2", surface.lastTitle())
}

func TestTick_PanickingSurfaceIsContained(t *testing.T) {
	t.Parallel()

	src := progress.NewMemorySource(progress.Snapshot{})
	bad := newRecordingSurface()
	bad.panicOn = "EOS | Welcome"
	good := newRecordingSurface()
	l := newTestLoop(src, bad, good)

	assert.NotPanics(t, func() { l.Tick(context.Background()) })
	assert.Equal(t, "EOS | Welcome", good.lastTitle())

	src.Set(progress.Snapshot{PercentComplete: 100})
	l.Tick(context.Background())
	assert.Equal(t, "EOS | Snapshot Complete", bad.lastTitle())
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	src := progress.NewMemorySource(progress.Snapshot{})
	surface := newRecordingSurface()
	l := newTestLoop(src, surface)

	h := l.Start(context.Background())

	require.Eventually(t, func() bool { return l.Ticks() >= 3 }, time.Second, time.Millisecond)

	src.Set(progress.Snapshot{PercentComplete: 100})
	require.Eventually(t, func() bool {
		return surface.lastTitle() == "EOS | Snapshot Complete"
	}, time.Second, time.Millisecond)

	h.Stop()
	h.Stop()

	select {
	case <-h.Done():
	default:
		t.Fatal("handle not done after Stop")
	}

	stopped := l.Ticks()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, l.Ticks(), "ticks after stop")
	assert.True(t, l.State().HasClass("welcome"))
	assert.True(t, l.State().HasClass("complete"))
}

func TestStart_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	l := newTestLoop(progress.NewMemorySource(progress.Snapshot{}))

	h := l.Start(ctx)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on cancel")
	}
}

func TestRun_TicksImmediately(t *testing.T) {
	t.Parallel()

	src := progress.NewMemorySource(progress.Snapshot{})
	l := New(Options{Source: src, Interval: time.Hour, Logger: quietLogger()})

	h := l.Start(context.Background())
	defer h.Stop()

	require.Eventually(t, func() bool { return l.Ticks() == 1 }, time.Second, time.Millisecond)
}

// notifyingSource signals a change without waiting for the interval.
type notifyingSource struct {
	*progress.MemorySource
	ch chan struct{}
}

func (n notifyingSource) Changes() <-chan struct{} { return n.ch }

func TestRun_ChangeNotificationTicks(t *testing.T) {
	t.Parallel()

	src := notifyingSource{MemorySource: progress.NewMemorySource(progress.Snapshot{}), ch: make(chan struct{}, 1)}
	surface := newRecordingSurface()
	l := New(Options{Source: src, Surfaces: []display.Surface{surface}, Interval: time.Hour, Logger: quietLogger(),
		Display: display.Options{TitlePrefix: "EOS"}})

	h := l.Start(context.Background())
	defer h.Stop()

	require.Eventually(t, func() bool { return l.Ticks() == 1 }, time.Second, time.Millisecond)

	src.Set(progress.Snapshot{RegistrantsCount: 3})
	src.ch <- struct{}{}

	require.Eventually(t, func() bool {
		return surface.lastTitle() == "EOS | Building Registry | 3"
	}, time.Second, time.Millisecond)
}

// panickingSource blows up on the first refresh only.
type panickingSource struct {
	*progress.MemorySource
	mu     sync.Mutex
	called bool
}

func (p *panickingSource) Refresh(ctx context.Context) error {
	p.mu.Lock()
	first := !p.called
	p.called = true
	p.mu.Unlock()
	if first {
		panic("refresh exploded")
	}
	return p.MemorySource.Refresh(ctx)
}

func TestRun_SurvivesPanickingRefresh(t *testing.T) {
	t.Parallel()

	src := &panickingSource{MemorySource: progress.NewMemorySource(progress.Snapshot{})}
	l := newTestLoop(src)

	h := l.Start(context.Background())
	defer h.Stop()

	require.Eventually(t, func() bool { return l.Ticks() >= 2 }, time.Second, time.Millisecond)
}
