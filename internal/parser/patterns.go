package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Nomadcxx/mediaclue/internal/clues"
)

// pattern is one entry of the clue library. Patterns are word-bounded by
// hand (RE2 has no lookaround): a match is rejected when a letter or digit
// touches either end, unless open is set.
type pattern struct {
	kind      Kind
	expr      string
	normalize func(groups []string) (string, bool)
	open      bool

	re *regexp.Regexp
}

// Pattern table in priority order. Compiled once in init.
var patterns = []*pattern{
	{kind: Episode, expr: `s(\d{1,2})\s?e(\d{1,4})(?:-?e\d{1,4})*`, normalize: episodeText},
	{kind: Episode, expr: `(\d{1,2})x(\d{1,3})`, normalize: episodeText},

	{kind: SeasonRange, expr: `s(\d{1,2})\s?-\s?s(\d{1,2})`, normalize: seasonRangeText},
	{kind: SeasonOnly, expr: `s(\d{1,2})`, normalize: seasonText},
	{kind: SeasonOnly, expr: `season[ ._]?(\d{1,2})`, normalize: seasonText},
	{kind: SeasonOnly, expr: `(\d{1,2})(?:st|nd|rd|th)[ ._]season`, normalize: seasonText},

	{kind: Chapter, expr: `chapter[ ._-]?(\d{1,4})`, normalize: chapterText},

	{kind: AnimeRange, expr: `\((\d{3,4})-(\d{3,4})\)`, normalize: animeRangeText, open: true},
	{kind: AnimeEpisode, expr: `ep?\.?(\d{1,4})`, normalize: animeEpisodeText},

	{kind: MovieYear, expr: `(\d{4})`, normalize: yearText},

	{kind: Resolution, expr: `(\d{3,4})x(\d{3,4})`, normalize: dimensionText},
	{kind: Resolution, expr: `(\d{3,4})(px|p|i)`, normalize: resolutionText},
	{kind: Resolution, expr: `([248])k`, normalize: upperText},

	{kind: Codec, expr: `h\.?26([45])`, normalize: prefixText("H.26")},
	{kind: Codec, expr: `x26([45])`, normalize: prefixText("x26")},
	{kind: Codec, expr: `hevc`, normalize: constText("HEVC")},
	{kind: Codec, expr: `avc`, normalize: constText("AVC")},
	{kind: Codec, expr: `xvid`, normalize: constText("XviD")},
	{kind: Codec, expr: `av1`, normalize: constText("AV1")},

	{kind: AudioFormat, expr: `aac(?:2\.0|2|\.0)?`, normalize: constText("AAC")},
	{kind: AudioFormat, expr: `e-?ac-?3`, normalize: constText("EAC3")},
	{kind: AudioFormat, expr: `ac-?3`, normalize: constText("AC3")},
	{kind: AudioFormat, expr: `dd(?:p|\+)(?:\d\.\d)?|dd\d\.\d`, normalize: upperText},
	{kind: AudioFormat, expr: `dts(?:-hd(?:[ .]?ma)?|-x|-es)?`, normalize: upperText},
	{kind: AudioFormat, expr: `truehd`, normalize: constText("TrueHD")},
	{kind: AudioFormat, expr: `atmos`, normalize: constText("Atmos")},
	{kind: AudioFormat, expr: `flac`, normalize: constText("FLAC")},
	{kind: AudioFormat, expr: `mp3`, normalize: constText("MP3")},

	{kind: Source, expr: `blu-?ray|bdremux|bdrip|brrip|bdr`, normalize: constText("BluRay")},
	{kind: Source, expr: `web-?dl`, normalize: constText("WEB-DL")},
	{kind: Source, expr: `web-?rip`, normalize: constText("WEBRip")},
	{kind: Source, expr: `hdtv(?:rip)?`, normalize: constText("HDTV")},
	{kind: Source, expr: `dvd-?rip`, normalize: constText("DVDRip")},
	{kind: Source, expr: `hd-?rip`, normalize: constText("HDRip")},
	{kind: Source, expr: `dvd(?:r|5|9)?`, normalize: constText("DVD")},
	{kind: Source, expr: `telesync|hdcam`, normalize: upperText},
}

// animeDashEpisodeRegex matches a trailing " - 02" style episode number; it is
// only trusted once an anime prefix has been seen.
var animeDashEpisodeRegex *regexp.Regexp

func init() {
	for _, p := range patterns {
		p.re = regexp.MustCompile(`(?i)` + p.expr)
	}
	animeDashEpisodeRegex = regexp.MustCompile(`(?:^|\s)-\s*(\d{1,4})(?:v\d)?$`)
}

// Matcher runs the pattern library and the known clue table over tokens.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	table *clues.Table
}

// NewMatcher creates a matcher backed by a known clue table. A nil table is
// treated as empty.
func NewMatcher(table *clues.Table) *Matcher {
	if table == nil {
		table = clues.Empty()
	}
	return &Matcher{table: table}
}

// Patterns returns every non-overlapping pattern match in s, sorted by start
// offset. Overlaps are settled by pattern priority.
func (m *Matcher) Patterns(s string) []Clue {
	var accepted []Clue
	for _, p := range patterns {
		for _, c := range p.find(s) {
			if overlapsAny(c, accepted) {
				continue
			}
			accepted = append(accepted, c)
		}
	}
	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Start < accepted[j].Start
	})
	return accepted
}

// Match returns the pattern matches for a token. When no pattern matches it
// falls back to the known clue table, and a hit reclassifies the whole token.
func (m *Matcher) Match(token string) []Clue {
	if found := m.Patterns(token); len(found) > 0 {
		return found
	}
	if c, ok := m.Lookup(token); ok {
		c.Start, c.End = 0, len(token)
		return []Clue{c}
	}
	return nil
}

// Lookup classifies a bare word against the known clue table.
func (m *Matcher) Lookup(word string) (Clue, bool) {
	entry, ok := m.table.Lookup(word)
	if !ok {
		return Clue{}, false
	}
	return Clue{
		Kind: categoryKind(entry.Category),
		Raw:  word,
		Text: entry.Canonical,
		End:  len(word),
	}, true
}

func categoryKind(c clues.Category) Kind {
	switch c {
	case clues.Resolution:
		return Resolution
	case clues.Quality:
		return Source
	case clues.Audio:
		return AudioFormat
	case clues.ReleaseGroup, clues.AnimeReleaseGroup:
		return ReleaseGroup
	default:
		return Unknown
	}
}

// find returns all bounded matches of p in s. After a rejected candidate the
// search resumes one rune later so a valid overlapping match is not hidden.
func (p *pattern) find(s string) []Clue {
	var out []Clue
	pos := 0
	for pos < len(s) {
		loc := p.re.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && (p.open || bounded(s, start, end)) {
			if text, ok := p.normalize(submatches(s, pos, loc)); ok {
				out = append(out, Clue{Kind: p.kind, Raw: s[start:end], Text: text, Start: start, End: end})
				pos = end
				continue
			}
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		if size == 0 {
			size = 1
		}
		pos = start + size
	}
	return out
}

func submatches(s string, offset int, loc []int) []string {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = s[offset+loc[2*i] : offset+loc[2*i+1]]
		}
	}
	return groups
}

func bounded(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func hasWordRune(s string) bool {
	return strings.IndexFunc(s, isWordRune) >= 0
}

func overlapsAny(c Clue, others []Clue) bool {
	for _, o := range others {
		if c.overlaps(o) {
			return true
		}
	}
	return false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// episodeText keeps the first episode of a multi-episode marker like
// "S01E01E02".
func episodeText(g []string) (string, bool) {
	return fmt.Sprintf("S%02dE%02d", atoi(g[1]), atoi(g[2])), true
}

func seasonRangeText(g []string) (string, bool) {
	from, to := atoi(g[1]), atoi(g[2])
	if to < from {
		return "", false
	}
	return fmt.Sprintf("S%02d-S%02d", from, to), true
}

func seasonText(g []string) (string, bool) {
	return fmt.Sprintf("S%02d", atoi(g[1])), true
}

func chapterText(g []string) (string, bool) {
	return fmt.Sprintf("Chapter %d", atoi(g[1])), true
}

func animeRangeText(g []string) (string, bool) {
	from, to := atoi(g[1]), atoi(g[2])
	if to < from {
		return "", false
	}
	return fmt.Sprintf("%03d-%03d", from, to), true
}

// animeEpisodeText refuses year-shaped numbers so "WALL-E.2008" keeps its
// release year.
func animeEpisodeText(g []string) (string, bool) {
	n := atoi(g[1])
	if len(g[1]) == 4 && n >= 1900 && n <= 2100 {
		return "", false
	}
	return fmt.Sprintf("EP%02d", n), true
}

func yearText(g []string) (string, bool) {
	year := atoi(g[1])
	if year < 1900 || year > 2100 {
		return "", false
	}
	return g[1], true
}

func dimensionText(g []string) (string, bool) {
	return g[1] + "x" + g[2], true
}

func resolutionText(g []string) (string, bool) {
	suffix := strings.ToLower(g[2])
	if suffix == "px" {
		suffix = "p"
	}
	return g[1] + suffix, true
}

func upperText(g []string) (string, bool) {
	return strings.ToUpper(g[0]), true
}

func constText(text string) func([]string) (string, bool) {
	return func([]string) (string, bool) { return text, true }
}

func prefixText(prefix string) func([]string) (string, bool) {
	return func(g []string) (string, bool) { return prefix + g[1], true }
}
