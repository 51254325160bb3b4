package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vrewgen/internal/pkg/vrew"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE.vrew",
	Short: "Print the clips and media of a project file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("media", false, "also list the embedded media files")
}

func runInspect(cmd *cobra.Command, args []string) error {
	c, err := vrew.OpenContainer(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	clips := c.Document.Clips()
	rows := make([][]string, 0, len(clips))
	var total float64
	for i, clip := range clips {
		var duration float64
		for _, w := range clip.Words {
			duration += w.Duration
		}
		total += duration
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			captionText(clip),
			strconv.Itoa(len(clip.Words)),
			strconv.FormatFloat(duration, 'f', 2, 64),
			strings.Join(clip.AssetIDs, ", "),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Caption", "Words", "Seconds", "Assets"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft},
	))

	var mediaSize int64
	for _, size := range c.Media {
		mediaSize += size
	}
	fmt.Fprintf(out, "clips: %d  duration: %.1fs  media: %d (%s)\n",
		len(clips), total, len(c.Media), humanize.Bytes(uint64(mediaSize)))

	if listMedia, _ := cmd.Flags().GetBool("media"); listMedia {
		names := make([]string, 0, len(c.Media))
		for name := range c.Media {
			names = append(names, name)
		}
		sort.Strings(names)
		mediaRows := make([][]string, 0, len(names))
		for _, name := range names {
			mediaRows = append(mediaRows, []string{name, humanize.Bytes(uint64(c.Media[name]))})
		}
		fmt.Fprintln(out, renderTable([]string{"Media", "Size"}, mediaRows, []columnAlignment{alignLeft, alignRight}))
	}
	return nil
}

func captionText(clip vrew.Clip) string {
	var b strings.Builder
	for _, c := range clip.Captions {
		for _, ins := range c.Text {
			b.WriteString(ins.Insert)
		}
	}
	return strings.TrimSpace(b.String())
}
