// Package actions holds the pipeline's named triggers and the mapping
// from stage to the commands a surface offers the user.
package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/thruflo/snapview/internal/stage"
)

// Trigger names understood by the snapshot pipeline.
const (
	Init        = "init"
	Snapshot    = "snapshot"
	Rejects     = "rejects"
	Reclaimable = "reclaimable"
	Reclaimed   = "reclaimed"
	Logs        = "logs"
)

// Names lists every trigger name in display order.
var Names = []string{Init, Snapshot, Rejects, Reclaimable, Reclaimed, Logs}

var (
	// ErrNotConfigured is returned by a trigger with nothing bound to it.
	ErrNotConfigured = errors.New("action not configured")
	// ErrUnknownAction is returned when no command has the requested name.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInFlight is returned when the same action is already running.
	ErrInFlight = errors.New("action already running")
)

// Trigger is a parameterless call into the pipeline.
type Trigger interface {
	Fire(ctx context.Context) error
}

// TriggerFunc adapts a function to Trigger.
type TriggerFunc func(ctx context.Context) error

// Fire calls f.
func (f TriggerFunc) Fire(ctx context.Context) error {
	return f(ctx)
}

type unconfigured string

func (u unconfigured) Fire(ctx context.Context) error {
	return fmt.Errorf("%s: %w", string(u), ErrNotConfigured)
}

// Command is one user-facing action bound to its trigger.
type Command struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Trigger Trigger `json:"-"`
}

// Commands maps a stage to the ordered commands offered while it is shown.
type Commands map[stage.Stage][]Command

var labels = map[string]string{
	Init:        "Generate Snapshot",
	Snapshot:    "Snapshot CSV",
	Rejects:     "Rejects CSV",
	Reclaimable: "Reclaimable TX CSV",
	Reclaimed:   "Successfully Reclaimed CSV",
	Logs:        "Full Log",
}

// Label returns the display label for a trigger name.
func Label(name string) string {
	if l, ok := labels[name]; ok {
		return l
	}
	return name
}

// NewCommands builds the standard layout: init on the welcome stage and
// the five exports on the complete stage. Names missing from triggers are
// bound to a trigger that fails with ErrNotConfigured.
func NewCommands(triggers map[string]Trigger) Commands {
	bind := func(name string) Command {
		t, ok := triggers[name]
		if !ok || t == nil {
			t = unconfigured(name)
		}
		return Command{Name: name, Label: Label(name), Trigger: t}
	}

	return Commands{
		stage.Welcome: {bind(Init)},
		stage.Complete: {
			bind(Snapshot),
			bind(Rejects),
			bind(Reclaimable),
			bind(Reclaimed),
			bind(Logs),
		},
	}
}

// For returns a copy of the commands for s.
func (c Commands) For(s stage.Stage) []Command {
	cmds := c[s]
	if len(cmds) == 0 {
		return nil
	}
	out := make([]Command, len(cmds))
	copy(out, cmds)
	return out
}

// Lookup finds a command by name in any stage.
func (c Commands) Lookup(name string) (Command, error) {
	for _, s := range stage.All {
		for _, cmd := range c[s] {
			if cmd.Name == name {
				return cmd, nil
			}
		}
	}
	return Command{}, fmt.Errorf("%s: %w", name, ErrUnknownAction)
}

// Find returns the command with the given name from cmds.
func Find(cmds []Command, name string) (Command, error) {
	for _, cmd := range cmds {
		if cmd.Name == name {
			return cmd, nil
		}
	}
	return Command{}, fmt.Errorf("%s: %w", name, ErrUnknownAction)
}
