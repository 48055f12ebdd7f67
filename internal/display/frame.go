// Package display turns a progress snapshot into what a surface shows:
// the stage, a title, per-stage status lines and the offered commands.
//
// Compose is pure. State is threaded through the loop explicitly: Advance
// takes the previous State and returns the next one, and Present writes a
// frame onto a Surface.
package display

import (
	"fmt"

	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/progress"
	"github.com/thruflo/snapview/internal/stage"
)

// Update is a status line destined for one stage's target.
type Update struct {
	Target  stage.Stage `json:"target"`
	Content Content     `json:"content"`
}

// Frame is everything rendered for one tick.
type Frame struct {
	Stage   stage.Stage       `json:"stage"`
	Title   string            `json:"title"`
	Updates []Update          `json:"updates"`
	Actions []actions.Command `json:"actions"`
}

// Options parameterizes Compose.
type Options struct {
	TitlePrefix string
	Commands    actions.Commands
}

// Title returns the title for s.
func Title(prefix string, s stage.Stage, snap progress.Snapshot) string {
	switch s {
	case stage.Distribute:
		return fmt.Sprintf("%s | Snapshot %s%% | %d/%d", prefix, snap.Percent(), snap.RegistryProcessed(), snap.RegistryTotal)
	case stage.Registry:
		return fmt.Sprintf("%s | Building Registry | %d", prefix, snap.RegistrantsCount)
	case stage.Reclaimer:
		return fmt.Sprintf("%s | Reclaimable TXs | %d", prefix, snap.ReclaimableCount)
	case stage.Complete:
		return prefix + " | Snapshot Complete"
	default:
		return prefix + " | Welcome"
	}
}

func snapshotDone(snap progress.Snapshot) Content {
	return Content{Text("Snapshot"), Emphasis(snap.Percent() + "%"), Text("Complete")}
}

// Compose derives the stage from snap and builds its frame.
func Compose(snap progress.Snapshot, opts Options) Frame {
	s := stage.Derive(snap)
	cmds := opts.Commands.For(s)

	frame := Frame{
		Stage:   s,
		Title:   Title(opts.TitlePrefix, s, snap),
		Actions: cmds,
	}

	var status Content
	switch s {
	case stage.Complete:
		// The distribute line is frozen at its final value before the
		// export list replaces the complete line.
		frame.Updates = append(frame.Updates, Update{Target: stage.Distribute, Content: snapshotDone(snap)})
		status = Content{Text("Export")}
	case stage.Distribute:
		status = snapshotDone(snap)
	case stage.Reclaimer:
		// The count, where the pipeline's old page showed the percent.
		status = Content{Text("Found"), Emphasis(fmt.Sprint(snap.ReclaimableCount)), Text("Reclaimable TXs")}
	case stage.Registry:
		status = Content{Text("Found"), Emphasis(fmt.Sprint(snap.RegistrantsCount)), Text("Registrants")}
	}
	for _, cmd := range cmds {
		status = append(status, Action(cmd))
	}

	frame.Updates = append(frame.Updates, Update{Target: s, Content: status})
	return frame
}

// Status returns the content frame sends to target, if any.
func (f Frame) Status(target stage.Stage) (Content, bool) {
	for i := len(f.Updates) - 1; i >= 0; i-- {
		if f.Updates[i].Target == target {
			return f.Updates[i].Content, true
		}
	}
	return nil, false
}
