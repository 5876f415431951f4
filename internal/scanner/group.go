package scanner

import (
	"sort"

	"github.com/Nomadcxx/mediaclue/internal/parser"
)

// Group is every path that parsed to the same title, type and year.
type Group struct {
	CleanTitle string           `json:"clean_title"`
	MediaType  parser.MediaType `json:"media_type"`
	Year       string           `json:"year,omitempty"`
	Paths      []string         `json:"paths"`
}

type groupKey struct {
	title     string
	mediaType parser.MediaType
	year      string
}

// GroupItems buckets items by (clean title, media type, year). Items without a
// clean title are left out. Paths are deduplicated and sorted; groups are
// sorted by title, then type, then year.
func GroupItems(items []Item) []Group {
	groups := make(map[groupKey]*Group)
	seen := make(map[groupKey]map[string]bool)

	for _, item := range items {
		r := item.Result
		if !r.HasTitle() {
			continue
		}
		key := groupKey{title: r.CleanTitle, mediaType: r.MediaType, year: r.Year()}
		g, ok := groups[key]
		if !ok {
			g = &Group{CleanTitle: key.title, MediaType: key.mediaType, Year: key.year}
			groups[key] = g
			seen[key] = make(map[string]bool)
		}
		if seen[key][item.Path] {
			continue
		}
		seen[key][item.Path] = true
		g.Paths = append(g.Paths, item.Path)
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		sort.Strings(g.Paths)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CleanTitle != out[j].CleanTitle {
			return out[i].CleanTitle < out[j].CleanTitle
		}
		if out[i].MediaType != out[j].MediaType {
			return out[i].MediaType < out[j].MediaType
		}
		return out[i].Year < out[j].Year
	})
	return out
}
