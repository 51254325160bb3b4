package vrew

import (
	"math"
	"strings"
	"unicode/utf8"
)

// WordTiming is a caption word with its share of the narration time.
type WordTiming struct {
	Text      string
	StartTime float64
	Duration  float64
}

var (
	sentenceEnds = []string{".", "!", "?", "。"}
	pauseEnds    = []string{",", ":", ";"}
	particleEnds = []string{"이", "가", "을", "를", "의", "에", "에서", "으로", "로", "와", "과", "도", "만", "은", "는"}
	linkingEnds  = []string{"다는", "면서", "지만", "거나", "든지", "듯이"}

	captionCleaner = strings.NewReplacer(`\"`, `"`, `\n`, " ", `\t`, " ")
)

var kenBurnsPresets = []KenBurns{
	{
		Type: "right-to-left",
		From: KenBurnsFrame{Scale: 0.7, CenterX: 0.58, CenterY: 0.5},
		To:   KenBurnsFrame{Scale: 0.7, CenterX: 0.42, CenterY: 0.5},
	},
	{
		Type: "left-to-right",
		From: KenBurnsFrame{Scale: 0.7, CenterX: 0.42, CenterY: 0.5},
		To:   KenBurnsFrame{Scale: 0.7, CenterX: 0.58, CenterY: 0.5},
	},
	{
		Type: "zoom-in",
		From: KenBurnsFrame{Scale: 0.8, CenterX: 0.5, CenterY: 0.5},
		To:   KenBurnsFrame{Scale: 1.0, CenterX: 0.5, CenterY: 0.5},
	},
	{
		Type: "zoom-out",
		From: KenBurnsFrame{Scale: 1.0, CenterX: 0.5, CenterY: 0.5},
		To:   KenBurnsFrame{Scale: 0.8, CenterX: 0.5, CenterY: 0.5},
	},
}

// KenBurnsPreset returns the i-th animation of the four preset cycle.
func KenBurnsPreset(i int) KenBurns {
	n := len(kenBurnsPresets)
	return kenBurnsPresets[((i%n)+n)%n]
}

// EstimateDuration is the narration length in seconds assumed for a caption.
func EstimateDuration(caption string) float64 {
	return math.Max(1.5, 0.08*float64(utf8.RuneCountInString(caption))+0.5)
}

// SplitWords divides total among the whitespace separated words of caption in proportion
// to their length. Start times accumulate unrounded and are reported to 0.01s.
// A caption without words yields one entry spanning total.
func SplitWords(caption string, total float64) []WordTiming {
	words := strings.Fields(caption)
	if len(words) == 0 {
		return []WordTiming{{Text: caption, Duration: total}}
	}

	chars := 0
	for _, w := range words {
		chars += utf8.RuneCountInString(w)
	}
	if chars == 0 {
		chars = 1
	}

	out := make([]WordTiming, 0, len(words))
	current := 0.0
	for _, w := range words {
		d := float64(utf8.RuneCountInString(w)) / float64(chars) * total
		out = append(out, WordTiming{Text: w, StartTime: round2(current), Duration: round2(d)})
		current += d
	}
	return out
}

// SilenceAfter is the pause in seconds inserted after the last word of a caption.
func SilenceAfter(word string) float64 {
	switch {
	case hasAnySuffix(word, sentenceEnds):
		return 0.8
	case hasAnySuffix(word, pauseEnds):
		return 0.4
	case hasAnySuffix(word, particleEnds), hasAnySuffix(word, linkingEnds):
		return 0.1
	}

	if utf8.RuneCountInString(strings.Trim(word, ".,!?:;。")) <= 2 {
		return 0.15
	}
	return 0.2
}

// CleanCaption turns literal escape sequences left by spreadsheet exports into plain text.
func CleanCaption(s string) string {
	return captionCleaner.Replace(s)
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
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
