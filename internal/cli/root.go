package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// baseDir is the directory holding .snapview/config.yaml.
var baseDir string

var rootCmd = &cobra.Command{
	Use:   "snapview",
	Short: "Progress display for the EOS snapshot pipeline",
	Long: `Snapview polls the snapshot pipeline's progress counters and shows
which stage the run is in: welcome, registry, reclaimer, distribute or
complete. It renders a terminal panel, a web status page, or both, and
offers the pipeline's init and export triggers as actions.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("snapview version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&baseDir, "dir", ".", "directory containing .snapview/config.yaml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
