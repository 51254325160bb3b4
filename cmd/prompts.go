package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"vrewgen/internal/pkg/scripttools"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Export the image prompts of every scene",
	Long: `Print one line per scene, numbered by the scene's A image, followed by its prompt.
Feed the output to an image generator and name the results by those numbers.`,
	RunE: runPrompts,
}

func init() {
	rootCmd.AddCommand(promptsCmd)

	addInputFlags(promptsCmd)
	promptsCmd.Flags().StringP("out", "o", "", "write to this file instead of stdout")
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("script", "", "narration script (UTF-8 or CP949 text)")
	cmd.Flags().String("sheet", "", "marker sheet (csv, tsv, xlsx, yaml)")
	_ = cmd.MarkFlagRequired("script")
	_ = cmd.MarkFlagRequired("sheet")
}

func runPrompts(cmd *cobra.Command, args []string) error {
	analysis, err := analyzeInputs(cmd)
	if err != nil {
		return err
	}
	prompts := scripttools.ExportPrompts(analysis.Alignment.Scenes)

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), prompts)
		return err
	}
	if err := os.WriteFile(out, []byte(prompts), 0o644); err != nil {
		return fmt.Errorf("write prompts: %w", err)
	}
	log.Info().Str("path", out).Int("scenes", len(analysis.Alignment.Scenes)).Msg("prompts written")
	return nil
}
