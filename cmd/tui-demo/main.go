// tui-demo is a manual test program for verifying the stage panel.
// Run with: go run ./cmd/tui-demo
//
// It steps a fixed sequence of snapshots through every stage:
// - Welcome with the Generate Snapshot action (press 'g' to start)
// - Registry, Reclaimer and Distribute with rising counters
// - Complete with the export list
//
// Press 'q' to exit.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/progress"
	"github.com/thruflo/snapview/internal/tui"
	"github.com/thruflo/snapview/internal/watch"
)

var steps = []progress.Snapshot{
	{RegistrantsCount: 12},
	{RegistrantsCount: 480},
	{RegistrantsCount: 480, ReclaimableCount: 31},
	{RegistrantsCount: 480, ReclaimableCount: 31, SnapshotRowCount: 100, PercentComplete: 20.5, RegistryAccepted: 90, RegistryRejected: 8, RegistryTotal: 480},
	{RegistrantsCount: 480, ReclaimableCount: 31, SnapshotRowCount: 300, PercentComplete: 62.5, RegistryAccepted: 280, RegistryRejected: 20, RegistryTotal: 480},
	{RegistrantsCount: 480, ReclaimableCount: 31, SnapshotRowCount: 480, PercentComplete: 100, RegistryAccepted: 450, RegistryRejected: 30, RegistryTotal: 480},
}

func main() {
	fmt.Println("TUI Demo - Stage Panel Test")
	fmt.Println("===========================")
	fmt.Println()
	fmt.Println("Press 'g' on the welcome screen to start the pipeline.")
	fmt.Println("Each stage then follows every two seconds.")
	fmt.Println()
	fmt.Println("Press Enter to start...")
	fmt.Scanln()

	if err := runDemo(); err != nil {
		fmt.Fprintf(os.Stderr, "Demo error: %v\n", err)
		os.Exit(1)
	}
}

func runDemo() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := progress.NewMemorySource(progress.Snapshot{})
	started := make(chan struct{}, 1)

	triggers := map[string]actions.Trigger{
		actions.Init: actions.TriggerFunc(func(ctx context.Context) error {
			select {
			case started <- struct{}{}:
			default:
			}
			return nil
		}),
	}
	for _, name := range actions.Names[1:] {
		triggers[name] = actions.TriggerFunc(func(ctx context.Context) error {
			time.Sleep(500 * time.Millisecond)
			return nil
		})
	}

	ui := tui.NewTUI(os.Stdout, tui.Options{ConfirmExit: true})
	loop := watch.New(watch.Options{
		Source:   src,
		Surfaces: []display.Surface{ui},
		Display:  display.Options{TitlePrefix: "EOS", Commands: actions.NewCommands(triggers)},
	})
	handle := loop.Start(ctx)
	defer handle.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- ui.Run(ctx)
	}()

	runner := actions.NewRunner()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ui.Actions():
				switch ev.Action {
				case tui.ActionQuit:
					cancel()
				case tui.ActionRun:
					if _, err := runner.Start(ctx, ev.Command); err != nil {
						ui.SetMessage(err.Error())
						continue
					}
					ui.SetMessage(">>> " + ev.Command.Label + " requested")
				}
			case res := <-runner.Results():
				if res.Err != nil {
					ui.SetMessage(fmt.Sprintf(">>> %s failed: %v", actions.Label(res.Name), res.Err))
				} else {
					ui.SetMessage(">>> " + actions.Label(res.Name) + " done")
				}
			}
		}
	}()

	// Walk the stages once the pipeline is started
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-started:
		}
		for _, snap := range steps {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				src.Set(snap)
			}
		}
	}()

	err := <-errCh
	runner.Wait()
	return err
}
