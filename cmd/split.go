package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"vrewgen/internal/pkg/sheet"
	projectService "vrewgen/internal/service/project"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Align a script with its markers and print the scenes",
	Long: `Locate every marker of the sheet in the script, cut the script into scenes
and split each scene into caption clips. Nothing is written to disk.`,
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	addInputFlags(splitCmd)
	splitCmd.Flags().Bool("json", false, "print the full analysis as JSON")
}

func runSplit(cmd *cobra.Command, args []string) error {
	analysis, err := analyzeInputs(cmd)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}

	clipsPerScene := make(map[string]int, len(analysis.Alignment.Scenes))
	for _, c := range analysis.Clips {
		clipsPerScene[c.RawID]++
	}

	rows := make([][]string, 0, len(analysis.Alignment.Scenes))
	for i, s := range analysis.Alignment.Scenes {
		m := analysis.Alignment.Matches[i].Match
		located := "-"
		if m.Found {
			located = m.Strategy.String()
		}
		rows = append(rows, []string{
			s.RawID,
			located,
			strconv.Itoa(clipsPerScene[s.RawID]),
			strconv.Itoa(len([]rune(s.Text))),
			s.Text,
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Located", "Clips", "Chars", "Text"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))

	sum := analysis.Summary
	fmt.Fprintf(out, "scenes: %d  shots: %d  clips: %d  unresolved: %d\n",
		sum.Scenes, sum.Shots, sum.Clips, sum.Unresolved)
	for _, c := range analysis.Oversized {
		log.Warn().Str("raw_id", c.RawID).Int("chars", len([]rune(c.Text))).Msg("clip longer than max_clip_chars")
	}
	return nil
}

func analyzeInputs(cmd *cobra.Command) (*projectService.Analysis, error) {
	scriptPath, _ := cmd.Flags().GetString("script")
	sheetPath, _ := cmd.Flags().GetString("sheet")

	script, err := sheet.LoadScript(scriptPath)
	if err != nil {
		return nil, err
	}
	rows, err := sheet.Load(sheetPath)
	if err != nil {
		return nil, err
	}

	analysis, err := projectService.Analyze(script, rows, GetConfig().Pipeline.MaxClipChars)
	if err != nil {
		return nil, err
	}
	for _, id := range analysis.UnresolvedIDs() {
		log.Warn().Str("raw_id", id).Str("reason", "start text not found").Msg("marker not located")
	}
	return analysis, nil
}
