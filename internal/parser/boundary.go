package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// maxTailStrips bounds the trailing-clue fixed point so stacked clues cannot
// keep the loop alive.
const maxTailStrips = 5

var (
	pieceSplitRegex = regexp.MustCompile(`[\s._\-\[\](){}+,&]+`)
	lastPieceRegex  = regexp.MustCompile(`[\s._\-]+([^\s._\-]+)$`)
)

// resolver walks tokens right to left, routes clues into their lists and
// tracks the title boundary. One resolver serves one parse.
type resolver struct {
	m           *Matcher
	animePrefix bool

	tv        *orderedSet
	anime     *orderedSet
	movie     *orderedSet
	extras    *orderedSet
	unmatched *orderedSet
	found     []Clue

	boundary      int
	boundaryLeft  string
	leadingYear   *Clue
	yearCommitted bool
	trace         []int
}

func newResolver(m *Matcher, animePrefix bool) *resolver {
	return &resolver{
		m:           m,
		animePrefix: animePrefix,
		tv:          newOrderedSet(),
		anime:       newOrderedSet(),
		movie:       newOrderedSet(),
		extras:      newOrderedSet(),
		unmatched:   newOrderedSet(),
	}
}

// resolve returns the possible title for a preprocessed name.
func (r *resolver) resolve(pre Preprocessed) string {
	tokens := pre.Tokens
	n := len(tokens)
	r.boundary = n
	r.trace = append(r.trace, n)

	matches := make([][]Clue, n)
	for i, tok := range tokens {
		matches[i] = r.m.Patterns(tok.Text)
	}

	rejected := make([][]Clue, n)
	var pending []int
	for i := n - 1; i >= 0; i-- {
		found, dropped := r.guardYears(matches, i)
		rejected[i] = dropped
		if len(found) == 0 {
			pending = append(pending, i)
			continue
		}

		text := tokens[i].Text
		for _, c := range found {
			r.record(c)
		}
		r.collectLeftovers(text, found, dropped)
		r.moveBoundary(i, trimRightSeparators(text[:found[0].Start]), found[0])
	}

	title := r.titleText(tokens)
	fallbackEnd := -1
	if title == "" && r.boundary == 0 && r.leadingYear != nil {
		title, fallbackEnd = r.fallbackTitle(pre.Name, tokens[0], *r.leadingYear)
	}

	// pending holds indexes right to left; flush in reading order
	var run []int
	for k := len(pending) - 1; k >= 0; k-- {
		i := pending[k]
		if i < r.boundary {
			continue
		}
		if fallbackEnd >= 0 && tokens[i].Start < fallbackEnd {
			continue
		}
		if len(run) > 0 && run[len(run)-1] != i-1 {
			r.flushRun(pre.Name, tokens, run, rejected)
			run = run[:0]
		}
		run = append(run, i)
	}
	r.flushRun(pre.Name, tokens, run, rejected)

	title = r.stripTail(title)
	if !hasWordRune(title) {
		return ""
	}
	return title
}

// guardYears applies the year rules to a token's matches: only the rightmost
// year of a token can be committed, only one year is ever committed, and a
// year next to a season/episode marker is not a release year. Rejected years
// come back separately; in the title zone they stay title text, elsewhere
// they are discarded.
func (r *resolver) guardYears(matches [][]Clue, i int) ([]Clue, []Clue) {
	found := matches[i]
	last := -1
	seasonal := false
	for j, c := range found {
		switch {
		case c.Kind == MovieYear:
			last = j
		case c.Kind.seasonal() || c.Kind == Chapter:
			seasonal = true
		}
	}
	if last < 0 {
		return found, nil
	}

	keep := !r.yearCommitted && !seasonal && !neighborSeasonal(matches, i)
	var out, rejected []Clue
	for j, c := range found {
		if c.Kind == MovieYear && (!keep || j != last) {
			rejected = append(rejected, c)
			continue
		}
		out = append(out, c)
	}
	return out, rejected
}

func neighborSeasonal(matches [][]Clue, i int) bool {
	for _, j := range [2]int{i - 1, i + 1} {
		if j < 0 || j >= len(matches) {
			continue
		}
		for _, c := range matches[j] {
			if c.Kind.seasonal() {
				return true
			}
		}
	}
	return false
}

// record routes a clue into its list.
func (r *resolver) record(c Clue) {
	switch c.Kind {
	case Episode, SeasonOnly:
		r.tv.add(c.Text)
	case SeasonRange:
		for _, part := range strings.Split(c.Text, "-") {
			r.tv.add(part)
		}
	case Chapter:
		if r.animePrefix {
			r.anime.add(c.Text)
		} else {
			r.tv.add(c.Text)
		}
	case AnimeRange, AnimeEpisode:
		r.anime.add(c.Text)
	case MovieYear:
		if r.yearCommitted {
			return
		}
		r.yearCommitted = true
		r.movie.add(c.Text)
	default:
		r.extras.add(c.Text)
	}
	r.found = append(r.found, c)
}

// moveBoundary moves the title boundary left. It never moves right.
func (r *resolver) moveBoundary(i int, left string, first Clue) {
	if i >= r.boundary {
		return
	}
	r.boundary = i
	r.boundaryLeft = left
	r.leadingYear = nil
	if first.Kind == MovieYear && left == "" {
		c := first
		r.leadingYear = &c
	}
	r.trace = append(r.trace, i)
}

// collectLeftovers handles the text between and after the matches of a
// token. Text before the first match belongs to the title.
func (r *resolver) collectLeftovers(text string, found, dropped []Clue) {
	spans := append(append([]Clue(nil), found[1:]...), dropped...)
	r.collectGaps(text, found[0].End, spans)
}

// flushRun collects a run of adjacent unclaimed metadata tokens. Clues spelled
// across tokens, such as "Chapter 1" or "Season 2", are matched over the
// whole run first.
func (r *resolver) flushRun(name string, tokens []Token, run []int, dropped [][]Clue) {
	if len(run) == 0 {
		return
	}
	base := tokens[run[0]].Start
	last := tokens[run[len(run)-1]]

	var spanning []Clue
	if len(run) > 1 {
		for _, c := range r.m.Patterns(name[base : last.Start+len(last.Text)]) {
			if !strings.ContainsFunc(c.Raw, unicode.IsSpace) {
				continue
			}
			r.record(c)
			c.Start += base
			c.End += base
			spanning = append(spanning, c)
		}
	}

	for _, i := range run {
		tok := tokens[i]
		end := tok.Start + len(tok.Text)
		spans := append([]Clue(nil), dropped[i]...)
		for _, c := range spanning {
			if c.Start < end && c.End > tok.Start {
				c.Start = max(c.Start-tok.Start, 0)
				c.End = min(c.End-tok.Start, len(tok.Text))
				spans = append(spans, c)
			}
		}
		r.collectGaps(tok.Text, 0, spans)
	}
}

// collectGaps collects the text of s from offset from that no span covers.
func (r *resolver) collectGaps(s string, from int, spans []Clue) {
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].Start < spans[j].Start
	})
	prev := from
	for _, c := range spans {
		if c.End <= prev {
			continue
		}
		if c.Start > prev {
			r.collectWord(s[prev:c.Start])
		}
		prev = c.End
	}
	r.collectWord(s[prev:])
}

// collectWord classifies metadata text through the known clue table; misses
// become unmatched words.
func (r *resolver) collectWord(s string) {
	if !hasWordRune(s) {
		return
	}
	if c, ok := r.m.Lookup(s); ok {
		r.record(c)
		return
	}
	for _, piece := range pieceSplitRegex.Split(s, -1) {
		if !hasWordRune(piece) {
			continue
		}
		if c, ok := r.m.Lookup(piece); ok {
			r.record(c)
			continue
		}
		r.unmatched.add(piece)
	}
}

func (r *resolver) titleText(tokens []Token) string {
	parts := make([]string, 0, r.boundary+1)
	for _, tok := range tokens[:r.boundary] {
		parts = append(parts, tok.Text)
	}
	if r.boundaryLeft != "" {
		parts = append(parts, r.boundaryLeft)
	}
	return trimRightSeparators(strings.Join(parts, " "))
}

// fallbackTitle recovers a title for names that open with their year, such
// as "(2000) Title (DvdRip)": the title is the text between the year and the
// first technical tag. It returns the title and the offset where it ends.
func (r *resolver) fallbackTitle(name string, tok Token, year Clue) (string, int) {
	yearEnd := tok.Start + year.End
	end := len(name)
	for _, c := range r.m.Patterns(name) {
		if c.Start >= yearEnd && c.Kind.technical() {
			end = c.Start
			break
		}
	}
	title := strings.Trim(name[yearEnd:end], " ._-[](){}")
	return title, end
}

// stripTail repeatedly removes a clue that ends exactly at the end of the
// title. It stops when nothing trails, when stripping would leave no title,
// or after maxTailStrips rounds.
func (r *resolver) stripTail(title string) string {
	for i := 0; i < maxTailStrips; i++ {
		title = trimRightSeparators(title)
		c, ok := r.trailingClue(title)
		if !ok {
			break
		}
		rest := trimRightSeparators(title[:c.Start])
		if !hasWordRune(rest) {
			break
		}
		if c.Kind == MovieYear && (r.tv.len() > 0 || r.anime.len() > 0) {
			// an episodic item keeps its year out of movie_clues
			title = rest
			continue
		}
		r.record(c)
		title = rest
	}
	return title
}

func (r *resolver) trailingClue(title string) (Clue, bool) {
	if title == "" {
		return Clue{}, false
	}
	for _, c := range r.m.Patterns(title) {
		if c.End != len(title) {
			continue
		}
		if c.Kind == MovieYear && r.yearCommitted {
			break
		}
		return c, true
	}

	if r.animePrefix {
		if loc := animeDashEpisodeRegex.FindStringSubmatchIndex(title); loc != nil {
			return Clue{
				Kind:  AnimeEpisode,
				Raw:   title[loc[0]:loc[1]],
				Text:  fmt.Sprintf("EP%02d", atoi(title[loc[2]:loc[3]])),
				Start: loc[0],
				End:   loc[1],
			}, true
		}
	}

	if loc := lastPieceRegex.FindStringSubmatchIndex(title); loc != nil {
		if c, ok := r.m.Lookup(title[loc[2]:loc[3]]); ok {
			c.Start, c.End = loc[2], loc[3]
			return c, true
		}
	}
	return Clue{}, false
}
