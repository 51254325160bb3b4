package scripttools

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// parenRe matches one non-nested parenthesised span, e.g. "(경어)".
var parenRe = regexp.MustCompile(`\(.*?\)`)

// NormalizedText is the alphanumeric-only projection of a string.
// Mapping[i] is the byte offset in the source string of the i-th rune of Text.
type NormalizedText struct {
	Text    string
	Mapping []int
}

// Len returns the number of runes in the normalized text.
func (n NormalizedText) Len() int {
	return len(n.Mapping)
}

// Canonical strips a leading byte order mark and composes the text to NFC,
// so that decomposed Hangul jamo compare equal to precomposed syllables.
func Canonical(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return norm.NFC.String(s)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Normalize keeps only letters and digits of s and records where each kept rune came from.
func Normalize(s string) NormalizedText {
	if s == "" {
		return NormalizedText{}
	}

	var b strings.Builder
	b.Grow(len(s))
	mapping := make([]int, 0, len(s)/2)
	for i, r := range s {
		if isAlnum(r) {
			b.WriteRune(r)
			mapping = append(mapping, i)
		}
	}
	return NormalizedText{Text: b.String(), Mapping: mapping}
}

// NormalizeSearchTerm drops parenthesised spans (one non-greedy pass) and then
// keeps only letters and digits.
func NormalizeSearchTerm(s string) string {
	if s == "" {
		return ""
	}
	s = parenRe.ReplaceAllString(s, "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
