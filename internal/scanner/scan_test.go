package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Nomadcxx/mediaclue/internal/clues"
	"github.com/Nomadcxx/mediaclue/internal/parser"
)

func buildLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	dirs := []string{
		"Blade.Runner.2049.2017.1080p.BluRay.x264-SPARKS",
		"9-1-1 s02-s03",
		".hidden",
		"Nested/Inner.Show.S01",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
	}

	files := []string{
		"1408.2007.DC.1080p.BluRay.H264.AAC.mp4",
		"notes.txt",
		".DS_Store",
		".hidden/secret.mkv",
		"Nested/Inner.Show.S01/Inner.Show.S01E01.mkv",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(root, f), []byte("test content"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}
	return root
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestScan(t *testing.T) {
	root := buildLibrary(t)
	ctx := context.Background()

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"dirs", Options{Mode: ModeDirs}, []string{"9-1-1 s02-s03", "Blade.Runner.2049.2017.1080p.BluRay.x264-SPARKS", "Nested"}},
		{"files", Options{Mode: ModeFiles}, []string{"1408.2007.DC.1080p.BluRay.H264.AAC.mp4", "notes.txt"}},
		{"video files", Options{Mode: ModeFiles, VideoOnly: true}, []string{"1408.2007.DC.1080p.BluRay.H264.AAC.mp4"}},
		{"recursive video files", Options{Mode: ModeFiles, Recursive: true, VideoOnly: true}, []string{"1408.2007.DC.1080p.BluRay.H264.AAC.mp4", "Inner.Show.S01E01.mkv"}},
		{"recursive dirs", Options{Mode: ModeDirs, Recursive: true}, []string{"9-1-1 s02-s03", "Blade.Runner.2049.2017.1080p.BluRay.x264-SPARKS", "Nested", "Inner.Show.S01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Scan(ctx, root, tt.opts)
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			got := names(entries)
			if len(got) != len(tt.want) {
				t.Fatalf("Scan() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Scan()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
			for _, e := range entries {
				if !filepath.IsAbs(e.Path) {
					t.Errorf("path %q is not absolute", e.Path)
				}
			}
		})
	}
}

func TestScanErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := Scan(ctx, filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Error("expected error for missing directory")
	}

	file := filepath.Join(t.TempDir(), "file.mkv")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Scan(ctx, file, Options{}); err == nil {
		t.Error("expected error when scanning a file")
	}

	if _, err := Scan(ctx, t.TempDir(), Options{Mode: "both"}); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Scan() error = %v, want ErrInvalidMode", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Scan(cancelled, buildLibrary(t), Options{Recursive: true}); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan() error = %v, want context.Canceled", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"", ModeDirs, false},
		{"dirs", ModeDirs, false},
		{" FILES ", ModeFiles, false},
		{"recursive", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParallelConfig(t *testing.T) {
	config := DefaultParallelConfig()
	if config.Workers <= 0 {
		t.Errorf("DefaultParallelConfig() returned invalid workers: %d", config.Workers)
	}
}

func TestParseParallelKeepsOrder(t *testing.T) {
	p := parser.New(clues.Default())
	inputs := []string{
		"The.Mandalorian.S01E01.Chapter.1.1080p.Web-DL.mkv",
		"1408.2007.DC.1080p.BluRay.H264.AAC.mp4",
		"9-1-1.s02.mkv",
		"Blade.Runner.2049.2017.1080p.BluRay.x264-SPARKS.mkv",
		"holiday_photos_backup",
	}
	var entries []Entry
	for i := 0; i < 20; i++ {
		for _, name := range inputs {
			entries = append(entries, Entry{Path: "/lib/" + name, Name: name})
		}
	}

	progressCh := make(chan ScanProgress, 256)
	items, err := ParseParallel(context.Background(), entries, p, ParallelConfig{Workers: 4}, progressCh)
	if err != nil {
		t.Fatalf("ParseParallel failed: %v", err)
	}
	if len(items) != len(entries) {
		t.Fatalf("got %d items, want %d", len(items), len(entries))
	}
	for i, item := range items {
		if item.Path != entries[i].Path {
			t.Fatalf("items[%d].Path = %q, want %q", i, item.Path, entries[i].Path)
		}
		want := p.Parse(entries[i].Name)
		if item.Result.CleanTitle != want.CleanTitle || item.Result.MediaType != want.MediaType {
			t.Errorf("items[%d] = %q/%s, want %q/%s", i, item.Result.CleanTitle, item.Result.MediaType, want.CleanTitle, want.MediaType)
		}
	}

	close(progressCh)
	var last ScanProgress
	for msg := range progressCh {
		last = msg
	}
	if last.Stage != "complete" || last.Total != len(entries) {
		t.Errorf("last progress = %+v, want complete with total %d", last, len(entries))
	}
}

func TestParseParallelDirectoryNames(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"Star.Wars", "Star.Trek", "Agents.of.S.H.I.E.L.D"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
	}

	ctx := context.Background()
	entries, err := Scan(ctx, root, Options{Mode: ModeDirs})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	items, err := ParseParallel(ctx, entries, parser.New(clues.Default()), ParallelConfig{Workers: 2}, nil)
	if err != nil {
		t.Fatalf("ParseParallel failed: %v", err)
	}

	groups := GroupItems(items)
	want := []string{"Agents Of S.H.I.E.L.D", "Star Trek", "Star Wars"}
	if len(groups) != len(want) {
		t.Fatalf("GroupItems() returned %d groups, want %d: %+v", len(groups), len(want), groups)
	}
	for i, g := range groups {
		if g.CleanTitle != want[i] || len(g.Paths) != 1 {
			t.Errorf("groups[%d] = %q with %d paths, want %q with 1", i, g.CleanTitle, len(g.Paths), want[i])
		}
	}
	for _, item := range items {
		if item.Result.Extension != "" {
			t.Errorf("%s: extension = %q, want none for a directory", item.Path, item.Result.Extension)
		}
	}
}

func TestParseParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []Entry{{Path: "/a", Name: "a"}, {Path: "/b", Name: "b"}}
	if _, err := ParseParallel(ctx, entries, nil, ParallelConfig{Workers: 1}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("ParseParallel() error = %v, want context.Canceled", err)
	}
}

func TestGroupItems(t *testing.T) {
	items := []Item{
		{Path: "/lib/b", Result: parser.Result{CleanTitle: "Movie 12", MediaType: parser.MediaMovie, MovieClues: []string{"2009"}}},
		{Path: "/lib/a", Result: parser.Result{CleanTitle: "Movie 12", MediaType: parser.MediaMovie, MovieClues: []string{"2009"}}},
		{Path: "/lib/a", Result: parser.Result{CleanTitle: "Movie 12", MediaType: parser.MediaMovie, MovieClues: []string{"2009"}}},
		{Path: "/lib/c", Result: parser.Result{CleanTitle: "Movie 12", MediaType: parser.MediaMovie}},
		{Path: "/lib/d", Result: parser.Result{CleanTitle: "Grimm", MediaType: parser.MediaTV, TVClues: []string{"S01"}}},
		{Path: "/lib/e", Result: parser.Result{CleanTitle: "", MediaType: parser.MediaUnknown}},
	}

	groups := GroupItems(items)
	if len(groups) != 3 {
		t.Fatalf("GroupItems() returned %d groups, want 3: %+v", len(groups), groups)
	}

	if groups[0].CleanTitle != "Grimm" {
		t.Errorf("groups[0] = %q, want Grimm", groups[0].CleanTitle)
	}
	if groups[1].Year != "" || len(groups[1].Paths) != 1 {
		t.Errorf("groups[1] = %+v, want yearless Movie 12 with one path", groups[1])
	}
	g := groups[2]
	if g.Year != "2009" || len(g.Paths) != 2 || g.Paths[0] != "/lib/a" || g.Paths[1] != "/lib/b" {
		t.Errorf("groups[2] = %+v, want Movie 12 (2009) with [/lib/a /lib/b]", g)
	}
}
