package clues

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

//go:embed default_clues.json
var defaultDocument []byte

// ErrCorrupt indicates a clue file exists but could not be decoded.
var ErrCorrupt = errors.New("corrupt clue file")

// Category identifies which list of the clue document a word belongs to.
type Category int

const (
	Resolution Category = iota
	Quality
	Audio
	AnimeReleaseGroup
	ReleaseGroup
	Misc
)

// Categories lists every category in lookup precedence order.
var Categories = []Category{Resolution, Quality, Audio, AnimeReleaseGroup, ReleaseGroup, Misc}

var categoryNames = map[Category]string{
	Resolution:        "resolution",
	Quality:           "quality",
	Audio:             "audio",
	AnimeReleaseGroup: "release_group_anime",
	ReleaseGroup:      "release_group",
	Misc:              "misc",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory accepts either the short category name or the document key
// ("audio" or "audio_clues").
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "resolution", "resolution_clues":
		return Resolution, nil
	case "quality", "quality_clues":
		return Quality, nil
	case "audio", "audio_clues":
		return Audio, nil
	case "release_group_anime", "release_groups_anime", "anime":
		return AnimeReleaseGroup, nil
	case "release_group", "release_groups", "group":
		return ReleaseGroup, nil
	case "misc", "misc_clues":
		return Misc, nil
	}
	return 0, fmt.Errorf("unknown clue category: %q", s)
}

// Document is the on-disk clue configuration.
type Document struct {
	QualityClues       []string `json:"quality_clues"`
	ReleaseGroups      []string `json:"release_groups"`
	ReleaseGroupsAnime []string `json:"release_groups_anime"`
	AudioClues         []string `json:"audio_clues"`
	ResolutionClues    []string `json:"resolution_clues"`
	MiscClues          []string `json:"misc_clues"`

	// Curated titles that force a classification when structural clues are
	// missing or misleading.
	TVTitles    []string `json:"tv_titles,omitempty"`
	AnimeTitles []string `json:"anime_titles,omitempty"`
}

// List returns a pointer to the list backing a category.
func (d *Document) List(c Category) *[]string {
	switch c {
	case Resolution:
		return &d.ResolutionClues
	case Quality:
		return &d.QualityClues
	case Audio:
		return &d.AudioClues
	case AnimeReleaseGroup:
		return &d.ReleaseGroupsAnime
	case ReleaseGroup:
		return &d.ReleaseGroups
	default:
		return &d.MiscClues
	}
}

func (d Document) clone() Document {
	cp := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return append([]string(nil), s...)
	}
	return Document{
		QualityClues:       cp(d.QualityClues),
		ReleaseGroups:      cp(d.ReleaseGroups),
		ReleaseGroupsAnime: cp(d.ReleaseGroupsAnime),
		AudioClues:         cp(d.AudioClues),
		ResolutionClues:    cp(d.ResolutionClues),
		MiscClues:          cp(d.MiscClues),
		TVTitles:           cp(d.TVTitles),
		AnimeTitles:        cp(d.AnimeTitles),
	}
}

// Entry is the result of a successful lookup.
type Entry struct {
	Category  Category
	Canonical string // spelling used in the document
}

// Table is an immutable, case-insensitive view over a Document.
// It is safe for concurrent use.
type Table struct {
	doc         Document
	words       map[string]Entry
	animeGroups []string
	tvTitles    []string
	animeTitles []string
}

var fansubMarkerRegex = regexp.MustCompile(`(?:^|[^a-z])(?:raws?|subs?|fansubs?|team)(?:[^a-z]|$)|(?:raws|subs?)$|^subs`)

// New builds a table from a document. Later duplicates never override an
// earlier category.
func New(doc Document) *Table {
	t := &Table{
		doc:   doc.clone(),
		words: make(map[string]Entry),
	}

	for _, cat := range Categories {
		for _, word := range *t.doc.List(cat) {
			key := lookupKey(word)
			if key == "" {
				continue
			}
			if _, exists := t.words[key]; !exists {
				t.words[key] = Entry{Category: cat, Canonical: strings.TrimSpace(word)}
			}
			if cat == AnimeReleaseGroup {
				t.animeGroups = append(t.animeGroups, key)
			}
		}
	}

	for _, title := range t.doc.TVTitles {
		if key := titleKey(title); key != "" {
			t.tvTitles = append(t.tvTitles, key)
		}
	}
	for _, title := range t.doc.AnimeTitles {
		if key := titleKey(title); key != "" {
			t.animeTitles = append(t.animeTitles, key)
		}
	}

	return t
}

// Empty returns a table with no entries; parsing falls back to patterns only.
func Empty() *Table {
	return New(Document{})
}

// Default returns the table built from the embedded default document.
func Default() *Table {
	var doc Document
	if err := json.Unmarshal(defaultDocument, &doc); err != nil {
		// the embedded document is validated by tests
		panic(fmt.Sprintf("clues: embedded default document: %v", err))
	}
	return New(doc)
}

// Load reads a clue document from disk. A missing file yields an empty table
// and no error. An undecodable file yields an empty table and an error
// wrapping ErrCorrupt so callers can decide whether to continue.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Empty(), nil
		}
		return Empty(), fmt.Errorf("failed to read clue file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Empty(), fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	return New(doc), nil
}

// LoadOrDefault is Load, except that a missing file yields the embedded
// default table. A corrupt file still yields an empty table and ErrCorrupt.
func LoadOrDefault(path string) (*Table, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes a document as indented JSON. The file is replaced atomically.
func Save(path string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create clue directory: %w", err)
	}

	data, err := json.MarshalIndent(doc.clone(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode clue document: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write clue file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace clue file: %w", err)
	}
	return nil
}

// Document returns a copy of the underlying document.
func (t *Table) Document() Document {
	return t.doc.clone()
}

// Len returns the number of distinct words across all categories.
func (t *Table) Len() int {
	return len(t.words)
}

// Lookup classifies a word. Surrounding brackets and separators are ignored
// and matching is case-insensitive.
func (t *Table) Lookup(word string) (Entry, bool) {
	key := lookupKey(word)
	if key == "" {
		return Entry{}, false
	}
	e, ok := t.words[key]
	return e, ok
}

// Contains reports whether the word is already known in any category.
func (t *Table) Contains(word string) bool {
	_, ok := t.Lookup(word)
	return ok
}

// IsAnimeGroup reports whether a bracketed group name looks like an anime
// fansub group: either a configured anime release group or a name carrying
// a fansub marker such as "-raws" or "Subs".
func (t *Table) IsAnimeGroup(name string) bool {
	key := lookupKey(name)
	if key == "" {
		return false
	}
	if e, ok := t.words[key]; ok && e.Category == AnimeReleaseGroup {
		return true
	}
	for _, group := range t.animeGroups {
		// short names are only trusted on exact match
		if len(group) >= 4 && strings.Contains(key, group) {
			return true
		}
	}
	return fansubMarkerRegex.MatchString(key)
}

// KnownTVTitle reports whether a cleaned title matches a curated TV title.
func (t *Table) KnownTVTitle(title string) bool {
	return matchTitle(t.tvTitles, title)
}

// KnownAnimeTitle reports whether a cleaned title matches a curated anime title.
func (t *Table) KnownAnimeTitle(title string) bool {
	return matchTitle(t.animeTitles, title)
}

// WithAdditions returns a new table with words appended to a category.
// Words already known in any category are skipped.
func (t *Table) WithAdditions(cat Category, words []string) *Table {
	doc := t.doc.clone()
	list := doc.List(cat)
	seen := make(map[string]bool)
	for _, w := range words {
		w = strings.TrimSpace(w)
		key := lookupKey(w)
		if key == "" || seen[key] || t.Contains(w) {
			continue
		}
		seen[key] = true
		*list = append(*list, w)
	}
	return New(doc)
}

func lookupKey(word string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(word), "[](){}._- "))
}

// titleKey lowercases and collapses every run of non letters/digits into a
// single space, so "S.W.A.T." and "S.W.A.T" compare equal.
func titleKey(title string) string {
	var sb strings.Builder
	space := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			space = false
			sb.WriteRune(r)
			continue
		}
		space = true
	}
	return sb.String()
}

// matchTitle matches a title against curated keys. Keys of two or more words
// also match titles they start, so "pawn stars" covers "Pawn Stars UK"; a
// single-word key like "grimm" must match the whole title.
func matchTitle(keys []string, title string) bool {
	key := titleKey(title)
	if key == "" {
		return false
	}
	for _, k := range keys {
		if key == k {
			return true
		}
		if strings.Contains(k, " ") && strings.HasPrefix(key, k+" ") {
			return true
		}
	}
	return false
}
