package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/auth"
	"github.com/thruflo/snapview/internal/config"
	"github.com/thruflo/snapview/internal/logging"
)

var (
	servePort        int
	serveSetPassword bool
	serveDemo        bool
)

// newPrompter reads the web password. It can be overridden in tests.
var newPrompter = auth.NewPrompter

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web status page",
	Long: `Runs the progress loop against the web status page only. Browsers poll
the latest frame; leaving the page asks for confirmation.

With --password, prompts for a password, stores its argon2id hash in the
config file, and requires it for actions and console toggles.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config, 8375)")
	serveCmd.Flags().BoolVar(&serveSetPassword, "password", false, "set or change the web password before starting")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "drive the display from a simulated pipeline")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(serveDemo)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveSetPassword {
		if err := handleServerPassword(a.base, a.cfg); err != nil {
			return err
		}
	}

	srv, err := a.newServer(servePort)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	logging.AttachToggles(srv)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle := a.newLoop(srv).Start(ctx)
	defer handle.Stop()
	go logResults(ctx, a.runner)

	fmt.Fprintf(cmd.OutOrStdout(), "Status page on http://localhost:%d\n", srv.Port())
	return srv.Start(ctx)
}

// logResults logs finished action runs until ctx is done.
func logResults(ctx context.Context, runner *actions.Runner) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-runner.Results():
			if res.Err != nil {
				logging.Warn(describeResult(res), "run", res.ID)
			} else {
				logging.Info(describeResult(res), "run", res.ID)
			}
		}
	}
}

// handleServerPassword prompts for a new web password and saves its hash
// to the config file.
func handleServerPassword(basePath string, cfg *config.Config) error {
	if cfg.Server == nil {
		cfg.Server = config.DefaultServerConfig()
	}

	password, err := newPrompter().NewPassword()
	if err != nil {
		return fmt.Errorf("password setup failed: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	cfg.Server.PasswordHash = hash

	if err := config.SaveConfig(basePath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Password saved to config.")
	return nil
}
