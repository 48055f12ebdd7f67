package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thruflo/snapview/internal/actions"
	"github.com/thruflo/snapview/internal/display"
	"github.com/thruflo/snapview/internal/stage"
)

var (
	statusJSON bool
	statusDemo bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current stage once",
	Long: `Refreshes the progress source once and prints the derived stage, the
title and the status lines.

With --demo, starts a simulated run and prints its first step.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the frame as JSON")
	statusCmd.Flags().BoolVar(&statusDemo, "demo", false, "read from a simulated pipeline")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := loadApp(statusDemo)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	if statusDemo {
		start, err := a.commands.Lookup(actions.Init)
		if err != nil {
			return err
		}
		if err := a.runner.Run(ctx, start); err != nil {
			return err
		}
	}

	if err := a.source.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to read progress: %w", err)
	}
	frame := display.Compose(a.source.Snapshot(), a.displayOptions())

	out := cmd.OutOrStdout()
	if statusJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(frame)
	}
	printFrame(out, frame)
	return nil
}

func printFrame(w io.Writer, frame display.Frame) {
	fmt.Fprintf(w, "Stage: %s\n", frame.Stage)
	fmt.Fprintf(w, "Title: %s\n", frame.Title)

	// Status lines in pipeline order.
	for _, s := range stage.All {
		c, ok := frame.Status(s)
		if !ok {
			continue
		}
		text := strings.TrimSpace(textOnly(c))
		if text == "" {
			continue
		}
		fmt.Fprintf(w, "  %-12s %s\n", s.String()+":", text)
	}

	if len(frame.Actions) > 0 {
		fmt.Fprintln(w, "Actions:")
		for _, cmd := range frame.Actions {
			fmt.Fprintf(w, "  %-12s %s\n", cmd.Name, cmd.Label)
		}
	}
}

// textOnly drops action segments, which are listed separately.
func textOnly(c display.Content) string {
	var parts display.Content
	for _, seg := range c {
		if seg.Kind != display.SegmentAction {
			parts = append(parts, seg)
		}
	}
	return parts.Plain()
}
