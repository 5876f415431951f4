package parser

import "github.com/Nomadcxx/mediaclue/internal/clues"

// classify derives the media type. The anime prefix wins, then TV, anime and
// movie clues in that order. Known-title overrides run last and correct names
// whose markers are misleading: a known anime title beats everything except a
// real SxxEyy marker, and a known TV title beats everything except an anime
// prefix or an episode range.
func classify(res Result, found []Clue, table *clues.Table) MediaType {
	mt := byClues(res)
	if res.CleanTitle == "" || table == nil {
		return mt
	}

	switch {
	case table.KnownAnimeTitle(res.CleanTitle) && !hasKind(found, Episode):
		return MediaAnime
	case table.KnownTVTitle(res.CleanTitle) && !res.AnimePrefix && !hasKind(found, AnimeRange):
		return MediaTV
	}
	return mt
}

func byClues(res Result) MediaType {
	switch {
	case res.AnimePrefix:
		return MediaAnime
	case len(res.TVClues) > 0:
		return MediaTV
	case len(res.AnimeClues) > 0:
		return MediaAnime
	case len(res.MovieClues) > 0:
		return MediaMovie
	}
	return MediaUnknown
}

func hasKind(found []Clue, k Kind) bool {
	for _, c := range found {
		if c.Kind == k {
			return true
		}
	}
	return false
}
