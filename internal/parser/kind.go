package parser

import "fmt"

// Kind classifies a clue. The declaration order is the conflict priority:
// when two patterns claim overlapping text, the lower Kind wins.
type Kind int

const (
	Episode Kind = iota
	SeasonRange
	SeasonOnly
	Chapter
	AnimeRange
	AnimeEpisode
	MovieYear
	Resolution
	Codec
	AudioFormat
	Source
	ReleaseGroup
	Unknown
)

var kindNames = [...]string{
	Episode:      "episode",
	SeasonRange:  "season_range",
	SeasonOnly:   "season",
	Chapter:      "chapter",
	AnimeRange:   "anime_range",
	AnimeEpisode: "anime_episode",
	MovieYear:    "movie_year",
	Resolution:   "resolution",
	Codec:        "codec",
	AudioFormat:  "audio",
	Source:       "source",
	ReleaseGroup: "release_group",
	Unknown:      "unknown",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes a kind by name so reports stay readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown clue kind %q", text)
}

// Structural reports whether the kind identifies what the item is
// (episode, season, year...) rather than how it was encoded.
func (k Kind) Structural() bool {
	return k <= MovieYear
}

// seasonal reports whether the kind is an unambiguous TV season/episode marker.
func (k Kind) seasonal() bool {
	return k == Episode || k == SeasonRange || k == SeasonOnly
}

// technical reports whether the kind describes encoding: resolution, codec,
// audio or source.
func (k Kind) technical() bool {
	return k >= Resolution && k <= Source
}

// Clue is a typed span found in a token or title string.
type Clue struct {
	Kind  Kind   `json:"kind"`
	Raw   string `json:"raw"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func (c Clue) overlaps(o Clue) bool {
	return c.Start < o.End && o.Start < c.End
}
