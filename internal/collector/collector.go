// Package collector gathers words the parser could not classify so they can
// be reviewed and promoted into the known clue table.
package collector

import (
	"errors"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Nomadcxx/mediaclue/internal/clues"
	"github.com/Nomadcxx/mediaclue/internal/parser"
)

// ErrUnknownCategory is returned when a classification names no clue list.
var ErrUnknownCategory = errors.New("unknown clue category")

// Candidate is an unmatched word and how often it was seen.
type Candidate struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Tally counts unmatched words across a batch of results. Words are keyed
// case-insensitively and keep their first spelling. Words the table already
// knows, pure numbers and single characters are skipped. The result is
// sorted by count descending, then by word.
func Tally(results []parser.Result, table *clues.Table) []Candidate {
	counts := make(map[string]*Candidate)
	for _, r := range results {
		for _, word := range r.UnmatchedWords {
			if !worthCollecting(word) {
				continue
			}
			if table != nil && table.Contains(word) {
				continue
			}
			key := strings.ToLower(word)
			if c, ok := counts[key]; ok {
				c.Count++
				continue
			}
			counts[key] = &Candidate{Word: word, Count: 1}
		}
	}

	out := make([]Candidate, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sortCandidates(out)
	return out
}

func worthCollecting(word string) bool {
	if utf8.RuneCountInString(word) < 2 {
		return false
	}
	return strings.IndexFunc(word, unicode.IsLetter) >= 0
}

func sortCandidates(c []Candidate) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Count != c[j].Count {
			return c[i].Count > c[j].Count
		}
		return strings.ToLower(c[i].Word) < strings.ToLower(c[j].Word)
	})
}
