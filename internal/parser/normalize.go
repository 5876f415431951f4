package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	dottedAcronymRegex = regexp.MustCompile(`^(?:[A-Za-z]\.){2,}[A-Za-z]?$`)
	numericIdiomRegex  = regexp.MustCompile(`^\d+(?:-\d+)+$`)
	titleSepRegex      = regexp.MustCompile(`[._\-]+`)
	embeddedAcronym    = regexp.MustCompile(`(?:^|[^A-Za-z0-9])((?:[A-Za-z]\.){2,}[A-Za-z])(?:[^A-Za-z0-9]|$)`)
)

// Normalize turns a possible title into a display title: separators become
// spaces and words are title-cased. Dotted acronyms ("S.W.A.T") and numeric
// idioms ("9-1-1") are kept verbatim. Normalize(Normalize(s)) == Normalize(s).
func Normalize(title string) string {
	t := strings.TrimSpace(foldText(title))
	if t == "" {
		return ""
	}
	if isIdiom(t) {
		return t
	}

	t = stripLeadingAdverts(t)
	if strings.Contains(t, "/") {
		t = bestSegment(t)
		if isIdiom(t) {
			return t
		}
	}

	// cases.Caser keeps state between calls and must not be shared
	caser := cases.Title(language.English)
	var words []string
	for _, field := range strings.Fields(t) {
		if isIdiom(field) {
			words = append(words, field)
			continue
		}
		words = append(words, splitField(caser, field)...)
	}
	return strings.Join(words, " ")
}

// splitField breaks a dotted or underscored field into words, keeping
// embedded acronyms such as the one in "Agents.of.S.H.I.E.L.D" intact.
func splitField(caser cases.Caser, field string) []string {
	var words []string
	add := func(s string) {
		for _, w := range strings.Fields(titleSepRegex.ReplaceAllString(s, " ")) {
			words = append(words, capitalize(caser, w))
		}
	}

	pos := 0
	for _, loc := range embeddedAcronym.FindAllStringSubmatchIndex(field, -1) {
		add(field[pos:loc[2]])
		words = append(words, field[loc[2]:loc[3]])
		pos = loc[3]
	}
	add(field[pos:])
	return words
}

func isIdiom(s string) bool {
	return dottedAcronymRegex.MatchString(s) || numericIdiomRegex.MatchString(s)
}

func capitalize(caser cases.Caser, w string) string {
	if keepsCase(w) {
		return w
	}
	r, _ := utf8.DecodeRuneInString(w)
	if unicode.IsDigit(r) {
		return strings.ToLower(w)
	}
	return caser.String(w)
}

// keepsCase reports whether w is a short all-caps word such as "UK" or "TV".
func keepsCase(w string) bool {
	if utf8.RuneCountInString(w) > 3 {
		return false
	}
	letters := 0
	for _, r := range w {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters > 0
}

// bestSegment picks one side of a bilingual "Original / English" title,
// preferring Latin script. Ties go to the first segment.
func bestSegment(t string) string {
	best, bestScore := "", -1.0
	for _, seg := range strings.Split(t, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if score := segmentScore(seg); score > bestScore {
			best, bestScore = seg, score
		}
	}
	return best
}

func segmentScore(seg string) float64 {
	latin, length := 0, 0
	for _, r := range seg {
		length++
		if unicode.Is(unicode.Latin, r) {
			latin++
		}
	}
	return 2*float64(latin) + 0.5*float64(length) + float64(len(strings.Fields(seg)))
}
