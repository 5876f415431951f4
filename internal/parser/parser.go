// Package parser recovers a title, a media type and metadata clues from media
// release names such as "The.Mandalorian.S01E01.Chapter.1.1080p.WEB-DL.mkv".
//
// A parse runs five stages: preprocessing (extension and prefix removal),
// clue matching, right-to-left title boundary resolution, media-type
// classification and title normalization. Parsing never fails; names that
// carry no recognizable structure come back with media type "unknown".
package parser

import (
	"sync"

	"github.com/Nomadcxx/mediaclue/internal/clues"
)

var defaultParser = sync.OnceValue(func() *Parser {
	return New(clues.Default())
})

// Parser is safe for concurrent use. Its clue table is immutable; swapping
// tables means building a new Parser.
type Parser struct {
	table   *clues.Table
	matcher *Matcher
}

// New creates a parser backed by a known clue table. A nil table disables
// table lookups and title overrides.
func New(table *clues.Table) *Parser {
	if table == nil {
		table = clues.Empty()
	}
	return &Parser{table: table, matcher: NewMatcher(table)}
}

// Table returns the known clue table the parser reads.
func (p *Parser) Table() *clues.Table {
	return p.table
}

// Parse parses one release name.
func (p *Parser) Parse(name string) Result {
	res, _ := p.parse(name)
	return res
}

// ParseDir parses a directory name. Directories have no extension, so a
// trailing dot segment such as the "Wars" of "Star.Wars" stays in the name.
func (p *Parser) ParseDir(name string) Result {
	res, _ := p.run(name, p.matcher.PreprocessDir(name))
	return res
}

// parse also returns the boundary trace for tests.
func (p *Parser) parse(name string) (Result, []int) {
	return p.run(name, p.matcher.Preprocess(name))
}

func (p *Parser) run(name string, pre Preprocessed) (Result, []int) {
	r := newResolver(p.matcher, pre.AnimePrefix)
	title := r.resolve(pre)

	res := Result{
		Original:       name,
		Extension:      pre.Extension,
		PossibleTitle:  title,
		CleanTitle:     Normalize(title),
		TVClues:        r.tv.items,
		AnimeClues:     r.anime.items,
		MovieClues:     r.movie.items,
		Extras:         r.extras.items,
		UnmatchedWords: r.unmatched.items,
		AnimePrefix:    pre.AnimePrefix,
		Clues:          r.found,
	}
	res.MediaType = classify(res, r.found, p.table)
	return res, r.trace
}

// Parse parses name with the built-in clue table.
func Parse(name string) Result {
	return defaultParser().Parse(name)
}
