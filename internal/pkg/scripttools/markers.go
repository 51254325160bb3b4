package scripttools

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Marker is one sheet row: a scene/shot id, the sentence that opens the scene, and its prompt.
type Marker struct {
	Scene     int    `json:"scene" bson:"scene"`
	Shot      int    `json:"shot" bson:"shot"`
	RawID     string `json:"raw_id" bson:"raw_id"`
	StartText string `json:"start_text" bson:"start_text"`
	Prompt    string `json:"prompt" bson:"prompt"`
}

// Row is one positional sheet record: id, start text, prompt.
// Line is the 1-based source line or row number, kept for diagnostics.
type Row struct {
	Line      int
	ID        string
	StartText string
	Prompt    string
}

// NewRow builds a Row from raw cells; missing cells are empty and values are trimmed.
func NewRow(line int, cells []string) Row {
	cell := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	return Row{Line: line, ID: cell(0), StartText: cell(1), Prompt: cell(2)}
}

// ParseMarkerID splits "<scene>-<shot>" once on the hyphen. Both halves must be
// positive integers.
func ParseMarkerID(s string) (scene, shot int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	scene, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || scene <= 0 {
		return 0, 0, false
	}
	shot, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || shot <= 0 {
		return 0, 0, false
	}
	return scene, shot, true
}

// ExtractMarkers converts rows to markers in row order. Rows with an unparseable id or an
// empty start text are dropped. A repeated id keeps its first row.
func ExtractMarkers(rows []Row) []Marker {
	markers := make([]Marker, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		scene, shot, ok := ParseMarkerID(row.ID)
		if !ok || row.StartText == "" {
			continue
		}
		rawID := strings.TrimSpace(row.ID)
		if first, dup := seen[rawID]; dup {
			log.Warn().
				Str("raw_id", rawID).
				Int("line", row.Line).
				Int("first_line", first).
				Msg("duplicate marker id, row ignored")
			continue
		}
		seen[rawID] = row.Line

		markers = append(markers, Marker{
			Scene:     scene,
			Shot:      shot,
			RawID:     rawID,
			StartText: row.StartText,
			Prompt:    row.Prompt,
		})
	}
	return markers
}
