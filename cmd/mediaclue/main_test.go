package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Nomadcxx/mediaclue/internal/clues"
	"github.com/Nomadcxx/mediaclue/internal/config"
	"github.com/Nomadcxx/mediaclue/internal/parser"
	"github.com/Nomadcxx/mediaclue/internal/store"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	library    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	for _, key := range []string{config.EnvSourceDir, config.EnvOutputDir, config.EnvCluesFile, config.EnvUnknownFile} {
		t.Setenv(key, "")
	}

	base := t.TempDir()
	library := filepath.Join(base, "library")
	if err := os.MkdirAll(library, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	for _, name := range []string{
		"1408.2007.DC.1080p.BluRay.H264.AAC.mp4",
		"1408.2007.DC.1080p.BluRay.H264.AAC.mkv",
		"The.Mandalorian.S01E01.Chapter.1.1080p.Web-DL.mkv",
	} {
		if err := os.WriteFile(filepath.Join(library, name), []byte("test content"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Paths = config.PathsConfig{
		CluesFile:   filepath.Join(base, "config", "clues.json"),
		UnknownFile: filepath.Join(base, "data", "unknown_words.json"),
		Database:    filepath.Join(base, "data", "mediaclue.db"),
		ReportDir:   filepath.Join(base, "data", "reports"),
	}
	cfg.Scan.Dirs = []string{library}
	cfg.Scan.Mode = "files"
	cfg.Daemon.MinUnknownCount = 1

	configPath := filepath.Join(base, "config", "config.toml")
	if err := config.SaveTo(cfg, configPath); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cliTestEnv{cfg: cfg, configPath: configPath, library: library}
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestParseCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"parse", "The.Mandalorian.S01E01.Chapter.1.1080p.Web-DL.mkv"}, env.configPath, "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var res parser.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not a JSON result: %v\n%s", err, out)
	}
	if res.CleanTitle != "The Mandalorian" {
		t.Errorf("clean title = %q, want %q", res.CleanTitle, "The Mandalorian")
	}
	if res.MediaType != parser.MediaTV {
		t.Errorf("media type = %q, want tv", res.MediaType)
	}
}

func TestParseCommandStdin(t *testing.T) {
	env := setupCLITestEnv(t)

	stdin := "The.Mandalorian.S01E01.Chapter.1.1080p.Web-DL.mkv\n\n1408.2007.DC.1080p.BluRay.H264.AAC.mp4\n"
	out, _, err := runCLI(t, []string{"parse"}, env.configPath, stdin)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var results []parser.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[1].CleanTitle != "1408" {
		t.Errorf("second title = %q, want 1408", results[1].CleanTitle)
	}
}

func TestParseCommandNoInput(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"parse"}, env.configPath, ""); err == nil {
		t.Error("expected an error when no names are given")
	}
}

func TestScanThenInspect(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"scan", env.library, "--quiet"}, env.configPath, "")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	reportPath := strings.TrimSpace(out)
	if filepath.Dir(reportPath) != env.cfg.Paths.ReportDir {
		t.Fatalf("report path = %q, want under %q", reportPath, env.cfg.Paths.ReportDir)
	}
	if _, err := os.Stat(reportPath); err != nil {
		t.Fatalf("report missing: %v", err)
	}

	out, _, err = runCLI(t, []string{"view"}, env.configPath, "")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	requireContains(t, out, "MEDIACLUE SCAN REPORT")
	requireContains(t, out, "1408")

	out, _, err = runCLI(t, []string{"groups", "--json"}, env.configPath, "")
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	var groups []store.GroupRecord
	if err := json.Unmarshal([]byte(out), &groups); err != nil {
		t.Fatalf("groups output is not JSON: %v\n%s", err, out)
	}
	var found bool
	for _, g := range groups {
		if g.CleanTitle == "1408" && g.PathCount == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("no 1408 group with 2 paths in %+v", groups)
	}

	out, _, err = runCLI(t, []string{"groups", "stats"}, env.configPath, "")
	if err != nil {
		t.Fatalf("groups stats: %v", err)
	}
	requireContains(t, out, env.cfg.Paths.Database)
}

func TestScanNoStore(t *testing.T) {
	env := setupCLITestEnv(t)

	out, stderr, err := runCLI(t, []string{"scan", "--no-store"}, env.configPath, "")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "Report saved to")
	requireContains(t, stderr, "Scanning "+env.library)
	if _, err := os.Stat(env.cfg.Paths.Database); !os.IsNotExist(err) {
		t.Error("database created despite --no-store")
	}
}

func TestScanRejectsBadMode(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"scan", env.library, "--mode", "bogus"}, env.configPath, ""); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestViewWithoutReports(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"view"}, env.configPath, "")
	if err == nil {
		t.Fatal("expected an error with no reports")
	}
	requireContains(t, err.Error(), "mediaclue scan")
}

func TestUnknownsClassify(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"unknowns", "classify", "release_group", "NTGX"}, env.configPath, "")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	requireContains(t, out, "Added NTGX")

	table, err := clues.Load(env.cfg.Paths.CluesFile)
	if err != nil {
		t.Fatalf("load clue file: %v", err)
	}
	if !table.Contains("ntgx") {
		t.Error("classified word missing from clue file")
	}

	if _, _, err := runCLI(t, []string{"unknowns", "classify", "nonsense", "NTGX"}, env.configPath, ""); err == nil {
		t.Error("expected an error for an unknown category")
	}
}

func TestConfigDirCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	extra := t.TempDir()

	if _, _, err := runCLI(t, []string{"config", "add-dir", extra}, env.configPath, ""); err != nil {
		t.Fatalf("add-dir: %v", err)
	}
	cfg, err := config.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if len(cfg.Scan.Dirs) != 2 || cfg.Scan.Dirs[1] != extra {
		t.Errorf("scan dirs = %v, want library and %s", cfg.Scan.Dirs, extra)
	}

	if _, _, err := runCLI(t, []string{"config", "remove-dir", extra}, env.configPath, ""); err != nil {
		t.Fatalf("remove-dir: %v", err)
	}
	cfg, err = config.ReadFile(env.configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if len(cfg.Scan.Dirs) != 1 {
		t.Errorf("scan dirs = %v, want only the library", cfg.Scan.Dirs)
	}

	out, _, err := runCLI(t, []string{"config"}, env.configPath, "")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, "[scan]")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, filepath.Join(t.TempDir(), "unused.toml"), "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "mediaclue dev")
}

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Word", "Seen"},
		[][]string{{"NTG", "4"}, {"short"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"WORD", "NTG", "short", "╭"} {
		requireContains(t, out, want)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("expected empty output without headers")
	}
}
