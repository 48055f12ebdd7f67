package display

import (
	"slices"

	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/stage"
)

// State is what the loop carries from one tick to the next.
type State struct {
	Stage   stage.Stage
	Classes []string
}

// HasClass reports whether name is in the class list.
func (s State) HasClass(name string) bool {
	return slices.Contains(s.Classes, name)
}

// Advance returns the state after showing frame. The frame's stage is
// appended to the class list if it is not already there; classes are
// never removed. When nothing is added the existing slice is reused.
func (s State) Advance(frame Frame) State {
	next := State{Stage: frame.Stage, Classes: s.Classes}
	name := frame.Stage.String()
	if !s.HasClass(name) {
		next.Classes = append(slices.Clip(s.Classes), name)
	}
	return next
}

// Target receives a stage's status line.
type Target interface {
	SetStatus(c Content)
}

// Surface is somewhere a frame is shown.
type Surface interface {
	// StatusTarget returns the status target for s. ok is false when the
	// surface has nowhere to show that stage.
	StatusTarget(s stage.Stage) (t Target, ok bool)
	// SetStage marks s as the current stage. It is the frame's stage,
	// not the newest class.
	SetStage(s stage.Stage)
	SetTitle(title string)
	SetClasses(classes []string)
	SetActions(cmds []actions.Command)
}

// Present writes frame onto surface. Updates for stages the surface has no
// target for are skipped.
func Present(surface Surface, state State, frame Frame) {
	for _, u := range frame.Updates {
		t, ok := surface.StatusTarget(u.Target)
		if !ok || t == nil {
			continue
		}
		t.SetStatus(u.Content)
	}
	surface.SetStage(frame.Stage)
	surface.SetTitle(frame.Title)
	surface.SetClasses(slices.Clone(state.Classes))
	surface.SetActions(frame.Actions)
}
