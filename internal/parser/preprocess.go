package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// maxPrefixPasses bounds prefix stripping; banners and group tags can stack.
const maxPrefixPasses = 3

// Token is a whitespace-delimited piece of the name with its byte offset.
type Token struct {
	Text  string
	Start int
}

// Preprocessed is the output of the first pipeline stage.
type Preprocessed struct {
	Name        string // extension and prefixes removed
	Extension   string
	Prefixes    []string
	Tokens      []Token
	AnimePrefix bool
}

type prefixRule struct {
	re *regexp.Regexp
	// anime decides whether the stripped prefix raises the anime signal.
	anime func(m *Matcher, groups []string) bool
}

var (
	extensionRegex      = regexp.MustCompile(`^(.+?)(\.[A-Za-z][A-Za-z0-9]{0,4})$`)
	letterTailRegex     = regexp.MustCompile(`(?:^|[.\s])[A-Za-z]$`)
	leadingSepRegex     = regexp.MustCompile(`^[\s._\-]+`)
	tokenRegex          = regexp.MustCompile(`\S+`)
	alwaysAnime         = func(*Matcher, []string) bool { return true }
	neverAnime          = func(*Matcher, []string) bool { return false }
	bracketGroupIsAnime = func(m *Matcher, g []string) bool { return m.table.IsAnimeGroup(g[1]) }
	prefixRules         []prefixRule
)

func init() {
	prefixRules = []prefixRule{
		{re: regexp.MustCompile(`^【[^】]*】`), anime: alwaysAnime},
		{re: regexp.MustCompile(`^★[^★]*★`), anime: alwaysAnime},
		{re: regexp.MustCompile(`(?i)^\[\s*w{2,3}[.,][^\]]*\]`), anime: neverAnime},
		{re: regexp.MustCompile(`(?i)^w{2,3}[.,]\S+(?:\s+-\s+|\s+)`), anime: neverAnime},
		{re: regexp.MustCompile(`^\[([^\]]*)\]`), anime: bracketGroupIsAnime},
	}
}

// foldText applies NFKC and width folding so full-width punctuation and
// letters behave like their ASCII forms.
func foldText(s string) string {
	return width.Fold.String(norm.NFKC.String(s))
}

// Preprocess splits off the extension, strips stacked prefixes and tokenizes
// on whitespace. It never fails; unrecognized input passes through.
func (m *Matcher) Preprocess(raw string) Preprocessed {
	return m.preprocess(raw, true)
}

// PreprocessDir is Preprocess for directory names, which keep every dot
// segment.
func (m *Matcher) PreprocessDir(raw string) Preprocessed {
	return m.preprocess(raw, false)
}

func (m *Matcher) preprocess(raw string, file bool) Preprocessed {
	name := strings.TrimSpace(foldText(raw))

	var out Preprocessed
	if file {
		name, out.Extension = m.splitExtension(name)
	}

	name, out.Prefixes, out.AnimePrefix = m.stripPrefixes(name)
	out.Name = name

	for _, loc := range tokenRegex.FindAllStringIndex(name, -1) {
		out.Tokens = append(out.Tokens, Token{Text: name[loc[0]:loc[1]], Start: loc[0]})
	}
	return out
}

// splitExtension separates the final dot segment. The split is undone when
// the "extension" is itself a clue, when a clue straddles the dot (garbled
// names like "S.H.I.E.L.D.s01") or when a single letter ends a dotted
// acronym like "S.H.I.E.L.D".
func (m *Matcher) splitExtension(s string) (string, string) {
	groups := extensionRegex.FindStringSubmatch(s)
	if groups == nil {
		return s, ""
	}
	name, ext := groups[1], groups[2]
	if len(ext) == 2 && letterTailRegex.MatchString(name) {
		return s, ""
	}
	if len(m.Patterns(ext)) > 0 || m.table.Contains(ext) {
		return s, ""
	}
	dot := len(name)
	for _, c := range m.Patterns(s) {
		if c.Start < dot && c.End > dot {
			return s, ""
		}
	}
	return name, ext
}

// stripPrefixes removes banners, bracket tags and site adverts anchored at
// the start. It never strips the name down to nothing.
func (m *Matcher) stripPrefixes(s string) (string, []string, bool) {
	var stripped []string
	anime := false

	for pass := 0; pass < maxPrefixPasses; pass++ {
		matched := false
		for _, rule := range prefixRules {
			loc := rule.re.FindStringSubmatchIndex(s)
			if loc == nil {
				continue
			}
			rest := leadingSepRegex.ReplaceAllString(s[loc[1]:], "")
			if rest == "" {
				continue
			}
			if rule.anime(m, submatches(s, 0, loc)) {
				anime = true
			}
			stripped = append(stripped, strings.TrimSpace(s[:loc[1]]))
			s = rest
			matched = true
			break
		}
		if !matched {
			break
		}
	}
	return s, stripped, anime
}

// stripLeadingAdverts is the prefix pass reused by the normalizer. It ignores
// the anime signal and runs until nothing strips, so its output is stable.
// Every pass shortens s, which bounds the loop.
func stripLeadingAdverts(s string) string {
	for {
		matched := false
		for _, rule := range prefixRules {
			loc := rule.re.FindStringIndex(s)
			if loc == nil {
				continue
			}
			rest := leadingSepRegex.ReplaceAllString(s[loc[1]:], "")
			if rest == "" {
				continue
			}
			s = rest
			matched = true
			break
		}
		if !matched {
			break
		}
	}
	return s
}

// trimRightSeparators drops trailing separators and dangling brackets. A
// closing bracket that balances an opener, as in "Movie (1899)", is kept.
func trimRightSeparators(s string) string {
	for s != "" {
		switch s[len(s)-1] {
		case '.', '-', '_', ' ', '\t', '(', '[':
		case ')':
			if strings.Count(s, "(") >= strings.Count(s, ")") {
				return s
			}
		case ']':
			if strings.Count(s, "[") >= strings.Count(s, "]") {
				return s
			}
		default:
			return s
		}
		s = s[:len(s)-1]
	}
	return s
}
