// Package reporter writes scan results to timestamped JSON report files and
// renders plain-text summaries of them.
package reporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nomadcxx/mediaclue/internal/collector"
	"github.com/Nomadcxx/mediaclue/internal/parser"
	"github.com/Nomadcxx/mediaclue/internal/scanner"
)

const (
	filePrefix      = "scan_"
	fileExt         = ".json"
	timestampLayout = "20060102_150405"
	topLimit        = 15
)

// ErrNoReports is returned by Latest when the directory holds no report.
var ErrNoReports = errors.New("no scan reports found")

// Report is the outcome of one scan.
type Report struct {
	ID          string                `json:"id"`
	ScannedDir  string                `json:"scanned_dir"`
	Mode        scanner.Mode          `json:"mode"`
	Recursive   bool                  `json:"recursive"`
	GeneratedAt time.Time             `json:"generated_at"`
	Results     []scanner.Item        `json:"results"`
	Groups      []scanner.Group       `json:"groups"`
	Unknown     []collector.Candidate `json:"unknown_words"`
	Totals      Totals                `json:"totals"`
}

// Totals are counts derived from a report's contents.
type Totals struct {
	Items        int            `json:"items"`
	Groups       int            `json:"groups"`
	Untitled     int            `json:"untitled"`
	UnknownWords int            `json:"unknown_words"`
	ByType       map[string]int `json:"by_type"`
}

// New builds a report with a fresh ID and computed totals.
func New(dir string, mode scanner.Mode, recursive bool, items []scanner.Item, groups []scanner.Group, unknown []collector.Candidate) Report {
	r := Report{
		ID:          uuid.NewString(),
		ScannedDir:  dir,
		Mode:        mode,
		Recursive:   recursive,
		GeneratedAt: time.Now(),
		Results:     items,
		Groups:      groups,
		Unknown:     unknown,
	}
	r.Totals = computeTotals(r)
	return r
}

func computeTotals(r Report) Totals {
	t := Totals{
		Items:        len(r.Results),
		Groups:       len(r.Groups),
		UnknownWords: len(r.Unknown),
		ByType:       make(map[string]int),
	}
	for _, item := range r.Results {
		t.ByType[string(item.Result.MediaType)]++
		if !item.Result.HasTitle() {
			t.Untitled++
		}
	}
	return t
}

// DefaultDir returns the report directory path
func DefaultDir() string {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "mediaclue", "reports")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mediaclue", "reports")
	}
	return filepath.Join(home, ".local", "share", "mediaclue", "reports")
}

// Generate writes the report as scan_<timestamp>.json under dir and returns
// the file path. An empty dir means DefaultDir.
func Generate(report Report, dir string) (string, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}

	filename := filepath.Join(dir, filePrefix+report.GeneratedAt.Format(timestampLayout)+fileExt)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return filename, nil
}

// Load reads a report written by Generate.
func Load(path string) (Report, error) {
	var r Report
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("failed to read report: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	if r.Totals.ByType == nil {
		r.Totals = computeTotals(r)
	}
	return r, nil
}

// List returns the report files in dir, newest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	// The timestamp layout sorts lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

// Latest returns the newest report file in dir.
func Latest(dir string) (string, error) {
	paths, err := List(dir)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoReports, dir)
	}
	return paths[0], nil
}

// TopGroups returns up to n groups with the most paths, ties broken by title.
func TopGroups(report Report, n int) []scanner.Group {
	groups := make([]scanner.Group, len(report.Groups))
	copy(groups, report.Groups)
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].Paths) != len(groups[j].Paths) {
			return len(groups[i].Paths) > len(groups[j].Paths)
		}
		return groups[i].CleanTitle < groups[j].CleanTitle
	})
	if n > 0 && len(groups) > n {
		return groups[:n]
	}
	return groups
}

// GroupLabel formats a group as "Title (Year) [type]".
func GroupLabel(g scanner.Group) string {
	label := g.CleanTitle
	if g.Year != "" {
		label += " (" + g.Year + ")"
	}
	return label + " [" + string(g.MediaType) + "]"
}

// Summary renders the report as text
func Summary(report Report) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 80) + "\n"

	sb.WriteString("MEDIACLUE SCAN REPORT\n")
	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Report ID: %s\n", report.ID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Directory: %s\n", report.ScannedDir))
	mode := string(report.Mode)
	if report.Recursive {
		mode += " (recursive)"
	}
	sb.WriteString(fmt.Sprintf("Mode: %s\n", mode))
	sb.WriteString("\n")

	sb.WriteString("SUMMARY\n")
	sb.WriteString(rule)
	sb.WriteString(fmt.Sprintf("Parsed: %s\n", formatCount(report.Totals.Items, "name")))
	sb.WriteString(fmt.Sprintf("Groups: %s\n", formatCount(report.Totals.Groups, "group")))
	for _, mt := range []parser.MediaType{parser.MediaMovie, parser.MediaTV, parser.MediaAnime, parser.MediaUnknown} {
		sb.WriteString(fmt.Sprintf("  %-8s %d\n", mt+":", report.Totals.ByType[string(mt)]))
	}
	sb.WriteString(fmt.Sprintf("Without title: %s\n", formatCount(report.Totals.Untitled, "name")))
	sb.WriteString(fmt.Sprintf("Unknown words: %s\n", formatCount(report.Totals.UnknownWords, "word")))
	sb.WriteString("\n")

	if top := TopGroups(report, topLimit); len(top) > 0 {
		sb.WriteString("LARGEST GROUPS\n")
		sb.WriteString(rule)
		for i, g := range top {
			sb.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, GroupLabel(g), formatCount(len(g.Paths), "path")))
		}
		sb.WriteString("\n")
	}

	if len(report.Unknown) > 0 {
		sb.WriteString("UNKNOWN WORDS\n")
		sb.WriteString(rule)
		for i, c := range report.Unknown {
			if i == topLimit {
				sb.WriteString(fmt.Sprintf("... and %s more\n", formatCount(len(report.Unknown)-topLimit, "word")))
				break
			}
			sb.WriteString(fmt.Sprintf("%-24s %d\n", c.Word, c.Count))
		}
		sb.WriteString("\n")
	}

	if report.Totals.Untitled > 0 {
		sb.WriteString("NO TITLE RECOVERED\n")
		sb.WriteString(rule)
		for _, item := range report.Results {
			if !item.Result.HasTitle() {
				sb.WriteString(item.Path + "\n")
			}
		}
	}

	return sb.String()
}

// formatCount formats n with a singular or plural noun.
func formatCount(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
