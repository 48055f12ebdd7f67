package tui

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/logging"
	"github.com/thruflo/snapview/internal/stage"
)

// Action represents a user action from the TUI.
type Action int

const (
	ActionNone Action = iota
	ActionRun         // User picked one of the offered commands
	ActionQuit        // User confirmed quitting
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionRun:
		return "run"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// ActionEvent is sent when the user triggers an action.
type ActionEvent struct {
	Action  Action
	Command actions.Command // Only set for ActionRun
}

// toggleKeys are the keys logging toggles are bound to.
var toggleKeys = map[string]rune{
	logging.ToggleOn:  '+',
	logging.ToggleOff: '-',
}

var (
	_ display.Surface = (*TUI)(nil)
	_ logging.Binder  = (*TUI)(nil)
)

// Options configures a TUI.
type Options struct {
	// Stages lists the stages that get a panel row. Empty means all.
	Stages []stage.Stage
	// ConfirmExit asks before quitting.
	ConfirmExit bool
}

// TUI manages the terminal user interface. It is a display surface: the
// watch loop writes frames into it and it redraws after each one.
type TUI struct {
	terminal    *Terminal
	keyReader   *KeyReader
	notifier    *Notifier
	out         io.Writer
	mu          sync.Mutex
	state       ViewState
	view        *StageView
	toggles     map[rune]func() bool
	confirmExit bool
	width       int
	height      int
	running     bool
	actionCh    chan ActionEvent
}

// NewTUI creates a new TUI instance.
func NewTUI(out io.Writer, opts Options) *TUI {
	stages := opts.Stages
	if len(stages) == 0 {
		stages = stage.All
	}
	return &TUI{
		terminal: NewTerminal(out),
		notifier: NewNotifier(out),
		out:      out,
		state: ViewState{
			Stages:   slices.Clone(stages),
			Statuses: make(map[stage.Stage]display.Content),
		},
		view:        &StageView{},
		toggles:     make(map[rune]func() bool),
		confirmExit: opts.ConfirmExit,
		width:       80,
		height:      24,
		actionCh:    make(chan ActionEvent, 10),
	}
}

// GetState returns a copy of the current view state.
func (t *TUI) GetState() ViewState {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.state
	s.Stages = slices.Clone(s.Stages)
	s.Classes = slices.Clone(s.Classes)
	s.Statuses = maps.Clone(s.Statuses)
	s.Actions = slices.Clone(s.Actions)
	return s
}

type statusTarget struct {
	tui   *TUI
	stage stage.Stage
}

func (st statusTarget) SetStatus(c display.Content) {
	st.tui.mu.Lock()
	st.tui.state.Statuses[st.stage] = c
	st.tui.mu.Unlock()
}

// StatusTarget returns the panel row for s. Stages filtered out of the
// panel have no target.
func (t *TUI) StatusTarget(s stage.Stage) (display.Target, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !slices.Contains(t.state.Stages, s) {
		return nil, false
	}
	return statusTarget{tui: t, stage: s}, true
}

// SetTitle sets the header and the terminal window title.
func (t *TUI) SetTitle(title string) {
	t.mu.Lock()
	t.state.Title = title
	t.mu.Unlock()
}

// SetStage sets the stage marked as current.
func (t *TUI) SetStage(s stage.Stage) {
	t.mu.Lock()
	t.state.Current = s
	t.mu.Unlock()
}

// SetClasses records the visited stages. Reaching complete for the first
// time notifies the user.
func (t *TUI) SetClasses(classes []string) {
	t.mu.Lock()
	completed := !slices.Contains(t.state.Classes, stage.Complete.String()) &&
		slices.Contains(classes, stage.Complete.String())
	t.state.Classes = classes
	running := t.running
	t.mu.Unlock()

	if completed {
		if err := t.notifier.Notify("snapview", "Snapshot complete", running); err != nil {
			logging.Debug("notification failed", "error", err)
		}
	}
}

// SetActions sets the commands offered to the user. It is the last call
// of a presented frame, so the screen is redrawn here.
func (t *TUI) SetActions(cmds []actions.Command) {
	t.mu.Lock()
	t.state.Actions = slices.Clone(cmds)
	t.mu.Unlock()
	t.Update()
}

// SetMessage shows msg below the action list.
func (t *TUI) SetMessage(msg string) {
	t.mu.Lock()
	t.state.Message = msg
	t.mu.Unlock()
	t.Update()
}

// Bound reports whether a toggle is bound under name.
func (t *TUI) Bound(name string) bool {
	key, ok := toggleKeys[name]
	if !ok {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, bound := t.toggles[key]
	return bound
}

// Bind binds fn to the key for name. Names without a key are ignored.
func (t *TUI) Bind(name string, fn func() bool) {
	key, ok := toggleKeys[name]
	if !ok {
		return
	}
	t.mu.Lock()
	t.toggles[key] = fn
	t.mu.Unlock()
}

// Actions returns a channel that receives user actions.
func (t *TUI) Actions() <-chan ActionEvent {
	return t.actionCh
}

// Update redraws the view.
func (t *TUI) Update() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}

	width, height, err := t.terminal.Size()
	if err == nil {
		t.width = width
		t.height = height
	}

	t.terminal.Clear()
	t.terminal.HideCursor()
	t.terminal.SetTitle(t.state.Title)

	for _, line := range t.view.Render(t.state, t.width) {
		t.terminal.WriteLine(line)
	}
}

// Run starts the TUI event loop.
// It returns when the context is cancelled or the user quits.
func (t *TUI) Run(ctx context.Context) error {
	if err := t.terminal.EnterRaw(); err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer t.terminal.ExitRaw()
	defer t.terminal.ShowCursor()

	t.mu.Lock()
	t.running = true
	t.mu.Unlock()
	defer t.Stop()

	t.keyReader = NewKeyReader(t.terminal)

	t.Update()

	keyCh := make(chan KeyEvent, 10)
	keyErr := make(chan error, 1)

	go func() {
		for {
			ev, err := t.keyReader.ReadKey()
			if err != nil {
				keyErr <- err
				return
			}
			select {
			case keyCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-keyErr:
			if err == io.EOF {
				return nil
			}
			return err

		case ev := <-keyCh:
			action := t.handleKeyEvent(ev)
			if action.Action == ActionNone {
				continue
			}
			select {
			case t.actionCh <- action:
			default:
				// Channel full, drop event
			}
			if action.Action == ActionQuit {
				return nil
			}
		}
	}
}

// handleKeyEvent processes a key event and returns any triggered action.
func (t *TUI) handleKeyEvent(ev KeyEvent) ActionEvent {
	t.mu.Lock()
	confirming := t.state.Confirm
	t.mu.Unlock()

	if confirming {
		return t.handleConfirmKey(ev)
	}

	if ev.Key == KeyCtrlC || ev.Key == KeyCtrlD || (ev.Key == KeyRune && (ev.Rune == 'q' || ev.Rune == 'Q')) {
		if !t.confirmExit {
			return ActionEvent{Action: ActionQuit}
		}
		t.mu.Lock()
		t.state.Confirm = true
		t.mu.Unlock()
		t.Update()
		return ActionEvent{Action: ActionNone}
	}

	if ev.Key != KeyRune {
		return ActionEvent{Action: ActionNone}
	}

	t.mu.Lock()
	toggle := t.toggles[ev.Rune]
	cmds := t.state.Actions
	t.mu.Unlock()

	if toggle != nil {
		on := toggle()
		t.mu.Lock()
		t.state.Verbose = on
		t.mu.Unlock()
		t.Update()
		return ActionEvent{Action: ActionNone}
	}

	if i := actionIndex(ev.Rune, len(cmds)); i >= 0 {
		return ActionEvent{Action: ActionRun, Command: cmds[i]}
	}
	return ActionEvent{Action: ActionNone}
}

// handleConfirmKey answers the exit prompt. Only 'y' or a second ctrl+c
// quits; anything else dismisses the prompt.
func (t *TUI) handleConfirmKey(ev KeyEvent) ActionEvent {
	if ev.Key == KeyCtrlC || (ev.Key == KeyRune && (ev.Rune == 'y' || ev.Rune == 'Y')) {
		return ActionEvent{Action: ActionQuit}
	}
	t.mu.Lock()
	t.state.Confirm = false
	t.mu.Unlock()
	t.Update()
	return ActionEvent{Action: ActionNone}
}

// Stop signals the TUI to stop drawing.
// This is a no-op if the TUI is not running.
func (t *TUI) Stop() {
	t.mu.Lock()
	t.running = false
	t.mu.Unlock()
}

// IsRunning returns whether the TUI is currently running.
func (t *TUI) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
