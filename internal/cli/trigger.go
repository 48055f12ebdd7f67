package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thruflo/snapview/internal/actions"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger <name>",
	Short: "Fire one pipeline trigger and wait for it",
	Long: `Fires a configured trigger synchronously: init, snapshot, rejects,
reclaimable, reclaimed or logs. Triggers are bound in the actions section
of .snapview/config.yaml.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: actions.Names,
	RunE:      runTrigger,
}

func init() {
	rootCmd.AddCommand(triggerCmd)
}

func runTrigger(cmd *cobra.Command, args []string) error {
	a, err := loadApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	command, err := a.commands.Lookup(args[0])
	if err != nil {
		return err
	}
	if err := a.runner.Run(commandContext(cmd), command); err != nil {
		return fmt.Errorf("%s failed: %w", command.Label, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s finished\n", command.Label)
	return nil
}
