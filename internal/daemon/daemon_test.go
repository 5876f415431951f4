package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/Nomadcxx/mediaclue/internal/clues"
	"github.com/Nomadcxx/mediaclue/internal/config"
	"github.com/Nomadcxx/mediaclue/internal/reporter"
	"github.com/Nomadcxx/mediaclue/internal/scanner"
	"github.com/Nomadcxx/mediaclue/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	lib := filepath.Join(root, "library")
	if err := os.MkdirAll(lib, 0755); err != nil {
		t.Fatalf("Failed to create library: %v", err)
	}
	for _, name := range []string{
		"1408.2007.DC.1080p.BluRay.H264.AAC.mp4",
		"1408.2007.DC.1080p.BluRay.H264.AAC.mkv",
		"The.Mandalorian.S01E01.Chapter.1.1080p.Web-DL.mkv",
	} {
		if err := os.WriteFile(filepath.Join(lib, name), []byte("test content"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Paths = config.PathsConfig{
		CluesFile:   filepath.Join(root, "config", "clues.json"),
		UnknownFile: filepath.Join(root, "data", "unknown_words.json"),
		Database:    filepath.Join(root, "data", "mediaclue.db"),
		ReportDir:   filepath.Join(root, "data", "reports"),
	}
	cfg.Scan.Dirs = []string{lib}
	cfg.Scan.Mode = "files"
	cfg.Scan.Workers = 2
	return cfg
}

func TestServiceScanDir(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg, nil, false)
	ctx := context.Background()

	outcome, err := svc.ScanDir(ctx, svc.RequestFor(cfg.Scan.Dirs[0]), nil)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}

	if outcome.Report.Totals.Items != 3 {
		t.Errorf("items = %d, want 3", outcome.Report.Totals.Items)
	}
	if filepath.Dir(outcome.ReportPath) != cfg.Paths.ReportDir {
		t.Errorf("report written to %q, want under %q", outcome.ReportPath, cfg.Paths.ReportDir)
	}
	loaded, err := reporter.Load(outcome.ReportPath)
	if err != nil {
		t.Fatalf("report not loadable: %v", err)
	}
	if loaded.ID != outcome.Report.ID {
		t.Errorf("loaded ID = %q, want %q", loaded.ID, outcome.Report.ID)
	}

	var found bool
	for _, g := range outcome.Report.Groups {
		if g.CleanTitle == "1408" && g.Year == "2007" {
			found = true
			if len(g.Paths) != 2 {
				t.Errorf("1408 group has %d paths, want 2", len(g.Paths))
			}
		}
	}
	if !found {
		t.Errorf("no 1408 (2007) group in %+v", outcome.Report.Groups)
	}

	if outcome.Saved.GroupsAdded != len(outcome.Report.Groups) {
		t.Errorf("groups added = %d, want %d", outcome.Saved.GroupsAdded, len(outcome.Report.Groups))
	}

	// A second scan finds the same groups and adds nothing.
	again, err := svc.ScanDir(ctx, svc.RequestFor(cfg.Scan.Dirs[0]), nil)
	if err != nil {
		t.Fatalf("second ScanDir failed: %v", err)
	}
	if again.Saved.GroupsAdded != 0 || again.Saved.PathsAdded != 0 {
		t.Errorf("second scan saved %+v, want nothing new", again.Saved)
	}

	st, err := store.Open(cfg.Paths.Database, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Groups != len(outcome.Report.Groups) {
		t.Errorf("stored groups = %d, want %d", stats.Groups, len(outcome.Report.Groups))
	}
}

func TestServiceNoStore(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg, nil, false)

	req := svc.RequestFor(cfg.Scan.Dirs[0])
	req.NoStore = true
	if _, err := svc.ScanDir(context.Background(), req, nil); err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.Database); !os.IsNotExist(err) {
		t.Error("database created despite NoStore")
	}
}

func TestServiceProgress(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg, nil, false)

	progressCh := make(chan scanner.ScanProgress, 64)
	if _, err := svc.RunScan(context.Background(), progressCh); err != nil {
		t.Fatalf("RunScan failed: %v", err)
	}
	close(progressCh)

	ops := map[string]bool{}
	for p := range progressCh {
		if p.Stage == "complete" {
			ops[p.Operation] = true
		}
	}
	if !ops["parsing"] || !ops["reporting"] {
		t.Errorf("completed operations = %v, want parsing and reporting", ops)
	}
}

func TestLoadCluesCorrupt(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.CluesFile), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(cfg.Paths.CluesFile, []byte("{oops"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	table, err := NewService(cfg, nil, false).LoadClues()
	if err != nil {
		t.Fatalf("lenient LoadClues returned error: %v", err)
	}
	if table.Len() != 0 {
		t.Errorf("expected empty table, got %d words", table.Len())
	}

	if _, err := NewService(cfg, nil, true).LoadClues(); !errors.Is(err, clues.ErrCorrupt) {
		t.Errorf("strict LoadClues error = %v, want ErrCorrupt", err)
	}
}

func TestRunScanRequiresDirs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scan.Dirs = nil
	if _, err := NewService(cfg, nil, false).RunScan(context.Background(), nil); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("RunScan() error = %v, want ErrInvalid", err)
	}
}

func TestRunRefusesSecondInstance(t *testing.T) {
	cfg := testConfig(t)
	lockPath := LockPath(cfg)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(lockPath)
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("failed to take lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	d := New(cfg, filepath.Join(t.TempDir(), "config.toml"), nil)
	if err := d.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Run() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestRunPerformsInitialScan(t *testing.T) {
	cfg := testConfig(t)
	d := New(cfg, filepath.Join(t.TempDir(), "config.toml"), nil)
	d.StartupDelay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := reporter.Latest(cfg.Paths.ReportDir); err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("no report written by the initial scan")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil after cancel", err)
	}
}

func TestReload(t *testing.T) {
	cfg := testConfig(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")

	next := config.DefaultConfig()
	next.Daemon.ScanFrequency = "hourly"
	if err := config.SaveTo(next, configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	d := New(cfg, configPath, nil)
	if err := d.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if d.Config().Daemon.ScanFrequency != "hourly" {
		t.Errorf("frequency after reload = %q, want hourly", d.Config().Daemon.ScanFrequency)
	}

	if err := os.WriteFile(configPath, []byte("[daemon]\nscan_frequency = \"monthly\"\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := d.Reload(); err == nil {
		t.Error("expected invalid config to be rejected")
	}
	if d.Config().Daemon.ScanFrequency != "hourly" {
		t.Error("rejected reload replaced the running config")
	}
}

func TestPruneReports(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "scan_20200101_000000.json")
	fresh := filepath.Join(dir, "scan_20990101_000000.json")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{old, fresh, other} {
		if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	past := time.Now().Add(-60 * 24 * time.Hour)
	for _, p := range []string{old, other} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed, err := PruneReports(dir, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("PruneReports failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d reports, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("old report still present")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("non-report file was removed")
	}

	if n, err := PruneReports(filepath.Join(dir, "missing"), time.Hour); err != nil || n != 0 {
		t.Errorf("PruneReports(missing) = %d, %v", n, err)
	}
}

func TestGenerateSystemdTimer(t *testing.T) {
	tests := []struct {
		frequency string
		want      string
		wantErr   bool
	}{
		{"hourly", "OnCalendar=hourly", false},
		{"daily", "OnCalendar=*-*-* 02:00:00", false},
		{"weekly", "OnCalendar=Sun *-*-* 02:00:00", false},
		{"biweekly", "", true},
	}

	for _, tt := range tests {
		got, err := GenerateSystemdTimer(tt.frequency)
		if (err != nil) != tt.wantErr {
			t.Errorf("GenerateSystemdTimer(%q) error = %v, wantErr %v", tt.frequency, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !strings.Contains(got, tt.want) {
			t.Errorf("GenerateSystemdTimer(%q) missing %q", tt.frequency, tt.want)
		}
	}
}
