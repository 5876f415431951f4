package parser

// MediaType is the derived classification of a parse.
type MediaType string

const (
	MediaTV      MediaType = "tv"
	MediaAnime   MediaType = "anime"
	MediaMovie   MediaType = "movie"
	MediaUnknown MediaType = "unknown"
)

// Result is everything recovered from one name. Clue lists are deduplicated
// in first-seen order. MediaType is derived from the other fields.
type Result struct {
	Original       string    `json:"original"`
	Extension      string    `json:"extension,omitempty"`
	PossibleTitle  string    `json:"possible_title"`
	CleanTitle     string    `json:"clean_title"`
	MediaType      MediaType `json:"media_type"`
	TVClues        []string  `json:"tv_clues"`
	AnimeClues     []string  `json:"anime_clues"`
	MovieClues     []string  `json:"movie_clues"`
	Extras         []string  `json:"extras"`
	UnmatchedWords []string  `json:"unmatched_words"`
	AnimePrefix    bool      `json:"anime_prefix"`
	Clues          []Clue    `json:"clues,omitempty"`
}

// Year returns the committed release year, or "" when there is none.
func (r Result) Year() string {
	if len(r.MovieClues) > 0 {
		return r.MovieClues[0]
	}
	return ""
}

// HasTitle reports whether a display title was recovered.
func (r Result) HasTitle() bool {
	return r.CleanTitle != ""
}

// orderedSet keeps the first occurrence of each value.
type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{items: []string{}, seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) len() int {
	return len(s.items)
}
