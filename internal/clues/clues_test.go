package clues

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultDocumentDecodes(t *testing.T) {
	table := Default()
	if table.Len() == 0 {
		t.Fatal("expected default table to contain words")
	}

	for _, cat := range Categories {
		doc := table.Document()
		if len(*doc.List(cat)) == 0 {
			t.Errorf("default document has no %s entries", cat)
		}
	}
}

func TestLookup(t *testing.T) {
	table := New(Document{
		QualityClues:    []string{"WEB"},
		ReleaseGroups:   []string{"SYNCOPY"},
		AudioClues:      []string{"AAC"},
		ResolutionClues: []string{"4K"},
		MiscClues:       []string{"COMPLETE", "web"},
	})

	tests := []struct {
		word      string
		found     bool
		category  Category
		canonical string
	}{
		{"web", true, Quality, "WEB"},
		{"[WEB]", true, Quality, "WEB"},
		{"Syncopy", true, ReleaseGroup, "SYNCOPY"},
		{"4k", true, Resolution, "4K"},
		{"(complete", true, Misc, "COMPLETE"},
		{"aac", true, Audio, "AAC"},
		{"Mandalorian", false, 0, ""},
		{"", false, 0, ""},
		{"...", false, 0, ""},
	}

	for _, tt := range tests {
		entry, ok := table.Lookup(tt.word)
		if ok != tt.found {
			t.Errorf("Lookup(%q) found = %v, want %v", tt.word, ok, tt.found)
			continue
		}
		if !ok {
			continue
		}
		if entry.Category != tt.category {
			t.Errorf("Lookup(%q) category = %s, want %s", tt.word, entry.Category, tt.category)
		}
		if entry.Canonical != tt.canonical {
			t.Errorf("Lookup(%q) canonical = %q, want %q", tt.word, entry.Canonical, tt.canonical)
		}
	}
}

func TestIsAnimeGroup(t *testing.T) {
	table := New(Document{ReleaseGroupsAnime: []string{"Judas", "喵萌奶茶屋"}})

	tests := []struct {
		name     string
		expected bool
	}{
		{"Erai-raws", true},
		{"SubsPlease", true},
		{"HorribleSubs", true},
		{"SweetSub", true},
		{"GM-Team", true},
		{"Judas", true},
		{"喵萌奶茶屋&LoliHouse", true},
		{"TGx", false},
		{"www.site.com", false},
		{"Complete Series", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := table.IsAnimeGroup(tt.name); got != tt.expected {
			t.Errorf("IsAnimeGroup(%q) = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestKnownTitles(t *testing.T) {
	table := New(Document{
		TVTitles:    []string{"s.w.a.t.", "pawn stars", "9-1-1", "grimm"},
		AnimeTitles: []string{"spy×family", "one piece"},
	})

	tests := []struct {
		title string
		tv    bool
		anime bool
	}{
		{"S.W.A.T", true, false},
		{"Pawn Stars", true, false},
		{"Pawn Stars Uk", true, false},
		{"Pawnshop", false, false},
		{"Grimm", true, false},
		{"Grimm Love", false, false},
		{"9-1-1", true, false},
		{"Spy×family", false, true},
		{"One Piece Film Red", false, true},
		{"", false, false},
	}

	for _, tt := range tests {
		if got := table.KnownTVTitle(tt.title); got != tt.tv {
			t.Errorf("KnownTVTitle(%q) = %v, want %v", tt.title, got, tt.tv)
		}
		if got := table.KnownAnimeTitle(tt.title); got != tt.anime {
			t.Errorf("KnownAnimeTitle(%q) = %v, want %v", tt.title, got, tt.anime)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load() on missing file returned error: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("expected empty table, got %d words", table.Len())
	}
}

func TestLoadOrDefault(t *testing.T) {
	table, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadOrDefault() on missing file returned error: %v", err)
	}
	if table.Len() != Default().Len() {
		t.Errorf("expected default table (%d words), got %d", Default().Len(), table.Len())
	}

	path := filepath.Join(t.TempDir(), "clues.json")
	if err := Save(path, Document{MiscClues: []string{"ONLY"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	table, err = LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault() returned error: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("expected the file's single word, got %d", table.Len())
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clues.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	table, err := Load(path)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if table == nil || table.Len() != 0 {
		t.Error("expected an empty table alongside the error")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "clues.json")
	doc := Document{
		QualityClues: []string{"WEB"},
		MiscClues:    []string{"COMPLETE"},
	}

	if err := Save(path, doc); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !table.Contains("complete") || !table.Contains("web") {
		t.Error("expected saved words to be loaded back")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestWithAdditions(t *testing.T) {
	base := New(Document{QualityClues: []string{"WEB"}})
	next := base.WithAdditions(Misc, []string{"PROPER", "web", " ", "PROPER"})

	if base.Contains("PROPER") {
		t.Error("WithAdditions mutated the original table")
	}
	if e, ok := next.Lookup("proper"); !ok || e.Category != Misc {
		t.Errorf("expected PROPER in misc, got %+v (found=%v)", e, ok)
	}
	if e, _ := next.Lookup("web"); e.Category != Quality {
		t.Errorf("existing word moved to %s", e.Category)
	}
	doc := next.Document()
	if len(doc.MiscClues) != 1 {
		t.Errorf("expected a single misc entry, got %v", doc.MiscClues)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected Category
		wantErr  bool
	}{
		{"audio", Audio, false},
		{"audio_clues", Audio, false},
		{"release_groups", ReleaseGroup, false},
		{"release_groups_anime", AnimeReleaseGroup, false},
		{" MISC ", Misc, false},
		{"codec", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCategory(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCategory(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.expected {
			t.Errorf("ParseCategory(%q) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}
