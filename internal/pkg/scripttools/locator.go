package scripttools

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// minSearchRunes is the shortest normalized search term Locate will try.
const minSearchRunes = 3

// Strategy identifies which matching rule located a marker.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyFull
	StrategyPrefix20
	StrategyPrefix10
	StrategyPrefix5
	StrategySuffix20
	// StrategyLiteral is the raw substring fallback used by Partition.
	StrategyLiteral
)

var strategyNames = map[Strategy]string{
	StrategyNone:     "none",
	StrategyFull:     "full",
	StrategyPrefix20: "prefix20",
	StrategyPrefix10: "prefix10",
	StrategyPrefix5:  "prefix5",
	StrategySuffix20: "suffix20",
	StrategyLiteral:  "literal",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "unknown"
}

// Match is the outcome of a locate attempt.
// Offset is a byte offset into the original text and is meaningful only when Found is true.
type Match struct {
	Offset   int      `json:"offset"`
	Found    bool     `json:"found"`
	Strategy Strategy `json:"strategy"`
}

// NotFound is the zero match.
var NotFound = Match{}

type attempt struct {
	snippet  string
	strategy Strategy
	tail     bool
}

// attempts builds the cascade for a normalized term: the full term, 20, 10 and 5 rune
// prefixes, then the 20 rune suffix.
func attempts(term []rune) []attempt {
	head := func(n int) string {
		if n > len(term) {
			n = len(term)
		}
		return string(term[:n])
	}

	out := []attempt{{snippet: string(term), strategy: StrategyFull}}
	if n := min(20, len(term)); n >= 5 {
		out = append(out, attempt{snippet: head(20), strategy: StrategyPrefix20})
	}
	if n := min(10, len(term)); n >= 5 {
		out = append(out, attempt{snippet: head(10), strategy: StrategyPrefix10})
	}
	if n := min(5, len(term)); n >= 3 {
		out = append(out, attempt{snippet: head(5), strategy: StrategyPrefix5})
	}
	if n := min(20, len(term)); n >= 5 {
		out = append(out, attempt{snippet: string(term[len(term)-n:]), strategy: StrategySuffix20, tail: true})
	}
	return out
}

// Locate finds search inside hay, starting at the original byte offset from, and
// returns the original byte offset where the match begins.
//
// The first rule of the cascade that matches wins; within a rule the leftmost
// occurrence is used. A suffix match is projected back to where the full term
// would have started, clamped to the search base.
func Locate(hay NormalizedText, search string, from int) Match {
	term := []rune(NormalizeSearchTerm(search))
	if len(term) < minSearchRunes {
		return NotFound
	}

	base := 0
	if from > 0 {
		base = sort.SearchInts(hay.Mapping, from)
		if base >= hay.Len() {
			return NotFound
		}
	}

	space := hay.Text[runeByteOffset(hay.Text, base):]
	for _, a := range attempts(term) {
		byteIdx := strings.Index(space, a.snippet)
		if byteIdx < 0 {
			continue
		}

		idx := utf8.RuneCountInString(space[:byteIdx])
		if a.tail {
			idx = idx - len(term) + utf8.RuneCountInString(a.snippet)
			if idx < 0 {
				idx = 0
			}
		}

		abs := base + idx
		if abs >= hay.Len() {
			return NotFound
		}
		return Match{Offset: hay.Mapping[abs], Found: true, Strategy: a.strategy}
	}
	return NotFound
}

// runeByteOffset returns the byte offset of the n-th rune of s, or len(s).
func runeByteOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}
