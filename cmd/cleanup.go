package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"vrewgen/internal/pkg/outputs"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove stale generated files",
	Long: `Remove entries of the output and work directories older than --older-than.
Waits for running generations to release the directory lock.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	flags := cleanupCmd.Flags()
	flags.Duration("older-than", 0, "minimum age of removed entries (default: pipeline.cleanup_after)")
	flags.StringSlice("dir", nil, "directories to sweep (default: pipeline.output_dir and pipeline.work_dir)")
	flags.Duration("timeout", 30*time.Second, "how long to wait for the directory lock")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	flags := cmd.Flags()

	age, _ := flags.GetDuration("older-than")
	if age <= 0 {
		age = cfg.Pipeline.CleanupAfter
	}
	if age <= 0 {
		return fmt.Errorf("cleanup age must be positive")
	}
	dirs, _ := flags.GetStringSlice("dir")
	if len(dirs) == 0 {
		dirs = []string{cfg.Pipeline.OutputDir, cfg.Pipeline.WorkDir}
	}
	timeout, _ := flags.GetDuration("timeout")

	var failed int
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		ctx, cancel := contextWithTimeout(cmd, timeout)
		report, err := outputs.Cleanup(ctx, dir, age)
		cancel()
		if err != nil {
			return err
		}
		for _, f := range report.Failed {
			log.Warn().Str("error", f.Err).Str("path", f.Path).Msg("failed to remove stale file")
		}
		failed += len(report.Failed)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: removed %d, failed %d\n", dir, len(report.Removed), len(report.Failed))
	}
	if failed > 0 {
		return fmt.Errorf("%d entries could not be removed", failed)
	}
	return nil
}
