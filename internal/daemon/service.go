package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Nomadcxx/mediaclue/internal/clues"
	"github.com/Nomadcxx/mediaclue/internal/collector"
	"github.com/Nomadcxx/mediaclue/internal/config"
	"github.com/Nomadcxx/mediaclue/internal/logging"
	"github.com/Nomadcxx/mediaclue/internal/parser"
	"github.com/Nomadcxx/mediaclue/internal/reporter"
	"github.com/Nomadcxx/mediaclue/internal/scanner"
	"github.com/Nomadcxx/mediaclue/internal/store"
)

// Service runs scans: list, parse, group, store, tally unknown words and
// write a report.
type Service struct {
	cfg         *config.Config
	base        *slog.Logger
	logger      *slog.Logger
	strictClues bool
}

// ScanRequest describes one directory scan.
type ScanRequest struct {
	Dir       string
	Mode      scanner.Mode
	Recursive bool
	VideoOnly bool
	NoStore   bool
}

// ScanOutcome is what a finished scan produced.
type ScanOutcome struct {
	Report     reporter.Report
	ReportPath string
	Saved      store.SaveStats
}

// NewService creates a service for cfg. With strictClues a corrupt clue file
// fails the scan instead of degrading to an empty table.
func NewService(cfg *config.Config, logger *slog.Logger, strictClues bool) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cfg:         cfg,
		base:        logger,
		logger:      logging.Component(logger, "daemon"),
		strictClues: strictClues,
	}
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// LoadClues loads the configured clue file. A missing file yields the
// built-in defaults. A corrupt file yields an empty table and a warning, or
// an error in strict mode.
func (s *Service) LoadClues() (*clues.Table, error) {
	table, err := clues.LoadOrDefault(s.cfg.Paths.CluesFile)
	if err == nil {
		return table, nil
	}
	if s.strictClues || !errors.Is(err, clues.ErrCorrupt) {
		return nil, err
	}
	s.logger.Warn("clue file unreadable, continuing with regex-only matching",
		"path", s.cfg.Paths.CluesFile, "error", err)
	return clues.Empty(), nil
}

// RequestFor builds a request for dir from the scan settings.
func (s *Service) RequestFor(dir string) ScanRequest {
	return ScanRequest{
		Dir:       dir,
		Mode:      scanner.Mode(s.cfg.Scan.Mode),
		Recursive: s.cfg.Scan.Recursive,
		VideoOnly: s.cfg.Scan.VideoOnly,
	}
}

// RunScan scans every configured directory and returns the report paths.
func (s *Service) RunScan(ctx context.Context, progressCh chan<- scanner.ScanProgress) ([]string, error) {
	if err := s.cfg.ValidateDirs(); err != nil {
		return nil, err
	}
	var paths []string
	for _, dir := range s.cfg.Scan.Dirs {
		outcome, err := s.ScanDir(ctx, s.RequestFor(dir), progressCh)
		if err != nil {
			return paths, fmt.Errorf("scan %s: %w", dir, err)
		}
		paths = append(paths, outcome.ReportPath)
	}
	return paths, nil
}

// ScanDir runs a full scan of one directory.
func (s *Service) ScanDir(ctx context.Context, req ScanRequest, progressCh chan<- scanner.ScanProgress) (*ScanOutcome, error) {
	start := time.Now()
	logger := s.logger.With("dir", req.Dir, "mode", string(req.Mode))
	logger.Info("scan started")

	table, err := s.LoadClues()
	if err != nil {
		return nil, fmt.Errorf("failed to load clue file: %w", err)
	}

	entries, err := scanner.Scan(ctx, req.Dir, scanner.Options{
		Mode:      req.Mode,
		Recursive: req.Recursive,
		VideoOnly: req.VideoOnly,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("entries listed", "count", len(entries))

	items, err := scanner.ParseParallel(ctx, entries, parser.New(table), scanner.ParallelConfig{Workers: s.cfg.Scan.Workers}, progressCh)
	if err != nil {
		return nil, err
	}
	groups := scanner.GroupItems(items)

	outcome := &ScanOutcome{}
	if !req.NoStore && s.cfg.Paths.Database != "" {
		saved, err := s.saveGroups(ctx, groups)
		if err != nil {
			return nil, err
		}
		outcome.Saved = saved
	}

	results := make([]parser.Result, len(items))
	for i, item := range items {
		results[i] = item.Result
	}
	unknown := collector.Tally(results, table)
	if err := collector.Open(s.cfg.Paths.UnknownFile, s.base).Merge(ctx, unknown); err != nil {
		return nil, fmt.Errorf("failed to record unknown words: %w", err)
	}

	pr := scanner.NewProgressReporter(progressCh, "reporting")
	pr.Start(1, "Writing report")
	report := reporter.New(req.Dir, req.Mode, req.Recursive, items, groups, filterCandidates(unknown, s.cfg.Daemon.MinUnknownCount))
	path, err := reporter.Generate(report, s.cfg.Paths.ReportDir)
	if err != nil {
		return nil, err
	}
	pr.Complete("Report saved")

	outcome.Report = report
	outcome.ReportPath = path
	logger.Info("scan complete",
		"items", report.Totals.Items,
		"groups", report.Totals.Groups,
		"groups_added", outcome.Saved.GroupsAdded,
		"unknown_words", len(unknown),
		"report", path,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return outcome, nil
}

func (s *Service) saveGroups(ctx context.Context, groups []scanner.Group) (store.SaveStats, error) {
	st, err := store.Open(s.cfg.Paths.Database, s.base)
	if err != nil {
		return store.SaveStats{}, err
	}
	defer func() {
		if err := st.Close(); err != nil {
			s.logger.Warn("failed to close store", "error", err)
		}
	}()

	rows := make([]store.Group, len(groups))
	for i, g := range groups {
		rows[i] = store.Group{
			CleanTitle: g.CleanTitle,
			MediaType:  string(g.MediaType),
			Year:       g.Year,
			Paths:      g.Paths,
		}
	}
	return st.SaveGroups(ctx, rows)
}

func filterCandidates(c []collector.Candidate, minCount int) []collector.Candidate {
	if minCount <= 1 {
		return c
	}
	out := make([]collector.Candidate, 0, len(c))
	for _, cand := range c {
		if cand.Count >= minCount {
			out = append(out, cand)
		}
	}
	return out
}
