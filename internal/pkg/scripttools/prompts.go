package scripttools

import (
	"fmt"
	"strings"
)

// ImageNumberA is the file number expected in slot A for the scene at index i.
func ImageNumberA(i int) int { return 2*i + 1 }

// ImageNumberB is the file number expected in slot B for the scene at index i.
func ImageNumberB(i int) int { return 2*i + 2 }

// ExportPrompts lists one "NNN prompt" line per scene followed by a blank line.
// NNN is the slot A image number, zero padded to three digits.
func ExportPrompts(scenes []Scene) string {
	lines := make([]string, 0, 2*len(scenes))
	for i, s := range scenes {
		lines = append(lines, fmt.Sprintf("%03d %s", ImageNumberA(i), s.Prompt), "")
	}
	return strings.Join(lines, "\n")
}

// Summary counts what an alignment produced.
type Summary struct {
	Scenes     int `json:"scenes"`
	Shots      int `json:"shots"`
	Clips      int `json:"clips"`
	Unresolved int `json:"unresolved"`
}

// Summarize counts distinct scene numbers, shots, clips and scenes left without text.
func Summarize(scenes []Scene, clips []Clip) Summary {
	distinct := make(map[int]struct{}, len(scenes))
	empty := 0
	for _, s := range scenes {
		distinct[s.Scene] = struct{}{}
		if s.Text == "" {
			empty++
		}
	}
	return Summary{
		Scenes:     len(distinct),
		Shots:      len(scenes),
		Clips:      len(clips),
		Unresolved: empty,
	}
}
