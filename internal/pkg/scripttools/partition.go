package scripttools

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// literalPrefixRunes is how much of a marker's start text the literal fallback searches for.
const literalPrefixRunes = 10

// Scene is the span of script text that belongs to one marker.
type Scene struct {
	Scene  int    `json:"scene" bson:"scene"`
	Shot   int    `json:"shot" bson:"shot"`
	RawID  string `json:"raw_id" bson:"raw_id"`
	Text   string `json:"text" bson:"text"`
	Prompt string `json:"prompt" bson:"prompt"`
}

// MarkerMatch records where a marker was found.
type MarkerMatch struct {
	Marker        Marker `json:"marker"`
	OriginalIndex int    `json:"original_index"`
	Match         Match  `json:"match"`
}

// Alignment is the result of partitioning a script.
// Scenes and Matches are both in marker order.
type Alignment struct {
	Scenes  []Scene       `json:"scenes"`
	Matches []MarkerMatch `json:"matches"`
}

// Unresolved returns the markers that could not be located.
func (a Alignment) Unresolved() []Marker {
	var out []Marker
	for _, m := range a.Matches {
		if !m.Match.Found {
			out = append(out, m.Marker)
		}
	}
	return out
}

// Partition locates every marker in script independently and slices the script into
// scene spans. Span boundaries follow the order markers appear in the script; the
// returned scenes keep marker order. Markers that cannot be located get empty text.
func Partition(script string, markers []Marker) Alignment {
	hay := Normalize(script)

	matches := make([]MarkerMatch, len(markers))
	for i, m := range markers {
		match := Locate(hay, m.StartText, 0)
		if !match.Found {
			match = locateLiteral(script, m.StartText)
		}
		if !match.Found {
			log.Warn().
				Str("raw_id", m.RawID).
				Str("start_text", truncateRunes(m.StartText, 20)).
				Msg("cannot locate marker in script")
		}
		matches[i] = MarkerMatch{Marker: m, OriginalIndex: i, Match: match}
	}

	found := make([]MarkerMatch, 0, len(matches))
	for _, m := range matches {
		if m.Match.Found {
			found = append(found, m)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Match.Offset < found[j].Match.Offset
	})

	spans := make(map[int]string, len(found))
	for i, m := range found {
		end := len(script)
		if i+1 < len(found) {
			end = found[i+1].Match.Offset
		}
		spans[m.OriginalIndex] = strings.TrimSpace(script[m.Match.Offset:end])
	}

	scenes := make([]Scene, len(markers))
	for i, m := range markers {
		scenes[i] = Scene{
			Scene:  m.Scene,
			Shot:   m.Shot,
			RawID:  m.RawID,
			Text:   spans[i],
			Prompt: m.Prompt,
		}
	}
	return Alignment{Scenes: scenes, Matches: matches}
}

func locateLiteral(script, startText string) Match {
	prefix := truncateRunes(startText, literalPrefixRunes)
	if prefix == "" {
		return NotFound
	}
	idx := strings.Index(script, prefix)
	if idx < 0 {
		return NotFound
	}
	return Match{Offset: idx, Found: true, Strategy: StrategyLiteral}
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
