package scripttools

import (
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// DefaultMaxClipChars is the nominal caption length. It is advisory: sentences are never cut.
const DefaultMaxClipChars = 100

// Clip is one caption unit: a sentence-bounded chunk of a scene's text.
type Clip struct {
	Scene  int    `json:"scene" bson:"scene"`
	Shot   int    `json:"shot" bson:"shot"`
	RawID  string `json:"raw_id" bson:"raw_id"`
	Text   string `json:"text" bson:"text"`
	Prompt string `json:"prompt" bson:"prompt"`
}

// SplitSentences collapses all whitespace to single spaces and splits after '.', '!' or '?'
// when followed by whitespace. The terminator stays with its sentence.
func SplitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] != ' ' {
				continue
			}
			if piece := strings.TrimSpace(text[start : i+1]); piece != "" {
				out = append(out, piece)
			}
			start = i + 1
		}
	}
	if piece := strings.TrimSpace(text[start:]); piece != "" {
		out = append(out, piece)
	}

	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// CreateClips splits every scene into clips, keeping scene order and sentence order.
func CreateClips(scenes []Scene) []Clip {
	var clips []Clip
	for _, s := range scenes {
		for _, chunk := range SplitSentences(s.Text) {
			clips = append(clips, Clip{
				Scene:  s.Scene,
				Shot:   s.Shot,
				RawID:  s.RawID,
				Text:   chunk,
				Prompt: s.Prompt,
			})
		}
	}
	return clips
}

// ClipSplitter wraps CreateClips and reports captions longer than MaxChars.
type ClipSplitter struct {
	MaxChars int
}

// NewClipSplitter returns a splitter; maxChars <= 0 uses DefaultMaxClipChars.
func NewClipSplitter(maxChars int) *ClipSplitter {
	if maxChars <= 0 {
		maxChars = DefaultMaxClipChars
	}
	return &ClipSplitter{MaxChars: maxChars}
}

// Split creates clips and logs the oversized ones.
func (s *ClipSplitter) Split(scenes []Scene) []Clip {
	clips := CreateClips(scenes)
	for _, c := range s.Oversized(clips) {
		log.Debug().
			Str("raw_id", c.RawID).
			Int("chars", utf8.RuneCountInString(c.Text)).
			Int("max_chars", s.MaxChars).
			Msg("clip exceeds nominal length, kept whole")
	}
	return clips
}

// Oversized returns the clips whose text is longer than MaxChars runes.
func (s *ClipSplitter) Oversized(clips []Clip) []Clip {
	var out []Clip
	for _, c := range clips {
		if utf8.RuneCountInString(c.Text) > s.MaxChars {
			out = append(out, c)
		}
	}
	return out
}
