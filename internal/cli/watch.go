package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/logging"
	"github.com/thruflo/snapview/internal/tui"
)

var (
	watchServer bool
	watchPort   int
	watchDemo   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show pipeline progress in the terminal",
	Long: `Runs the progress loop against a terminal panel. Each stage gets a row
with its latest status, the window title follows the pipeline, and the
offered actions are bound to keys ('g' to generate a snapshot, 1-5 to
export). Log output goes to .snapview/snapview.log.

With --server the web status page runs alongside the panel.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchServer, "server", false, "also serve the web status page")
	watchCmd.Flags().IntVarP(&watchPort, "port", "p", 0, "web server port (default from config, 8375)")
	watchCmd.Flags().BoolVar(&watchDemo, "demo", false, "drive the display from a simulated pipeline")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !tui.NewTerminal(os.Stdout).IsTerminal() {
		return errors.New("watch needs an interactive terminal; use 'snapview serve' instead")
	}

	a, err := loadApp(watchDemo)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.logToFile(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui := tui.NewTUI(os.Stdout, tui.Options{
		Stages:      a.cfg.VisibleStages(),
		ConfirmExit: a.cfg.ConfirmExit,
	})
	logging.AttachToggles(ui)
	surfaces := []display.Surface{ui}

	if watchServer {
		srv, err := a.newServer(watchPort)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		logging.AttachToggles(srv)
		surfaces = append(surfaces, srv)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logging.Error("web server failed", "error", err)
			}
		}()
	}

	handle := a.newLoop(surfaces...).Start(ctx)
	defer handle.Stop()

	go relayTUI(ctx, ui, a.runner)

	err = ui.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// messenger shows action outcomes to the user.
type messenger interface {
	SetMessage(msg string)
}

// relayTUI starts the commands picked in ui and reports their results
// back to it until ctx is done.
func relayTUI(ctx context.Context, ui *tui.TUI, runner *actions.Runner) {
	relay(ctx, ui.Actions(), ui, runner)
}

func relay(ctx context.Context, events <-chan tui.ActionEvent, m messenger, runner *actions.Runner) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Action != tui.ActionRun {
				continue
			}
			if _, err := runner.Start(ctx, ev.Command); err != nil {
				m.SetMessage(err.Error())
				continue
			}
			m.SetMessage(ev.Command.Label + " started")
		case res := <-runner.Results():
			m.SetMessage(describeResult(res))
		}
	}
}
