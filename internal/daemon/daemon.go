// Package daemon runs scans on demand and on a schedule. A single advisory
// lock keeps two schedulers from scanning the same libraries at once.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/Nomadcxx/mediaclue/internal/config"
	"github.com/Nomadcxx/mediaclue/internal/logging"
)

// ErrAlreadyRunning is returned by Run when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another mediaclued instance is already running")

const (
	defaultStartupDelay = time.Minute
	reportRetention     = 30 * 24 * time.Hour
)

// Daemon represents the background service
type Daemon struct {
	configPath string
	logger     *slog.Logger
	base       *slog.Logger
	service    *Service

	lockPath string
	lock     *flock.Flock

	// StartupDelay postpones the first scan to avoid boot load.
	StartupDelay time.Duration
}

// New creates a new daemon instance. configPath is re-read on SIGHUP.
func New(cfg *config.Config, configPath string, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := LockPath(cfg)
	return &Daemon{
		configPath:   configPath,
		logger:       logging.Component(logger, "daemon"),
		base:         logger,
		service:      NewService(cfg, logger, false),
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
		StartupDelay: defaultStartupDelay,
	}
}

// LockPath returns the single-instance lock file for cfg.
func LockPath(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(cfg.Paths.Database), "mediaclued.lock")
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	return d.service.Config()
}

// Run holds the instance lock and scans on the configured schedule until ctx
// is cancelled. SIGHUP reloads the configuration and resets the ticker.
func (d *Daemon) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", "error", err)
		}
	}()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	ticker := time.NewTicker(d.Config().ScanInterval())
	defer ticker.Stop()

	startup := time.NewTimer(d.StartupDelay)
	defer startup.Stop()

	d.logger.Info("daemon started",
		"lock", d.lockPath,
		"scan_frequency", d.Config().Daemon.ScanFrequency,
		"dirs", strings.Join(d.Config().Scan.Dirs, ", "))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopping")
			return nil
		case <-hup:
			if err := d.Reload(); err != nil {
				d.logger.Error("config reload failed", "error", err)
				continue
			}
			ticker.Reset(d.Config().ScanInterval())
		case <-startup.C:
			d.logger.Info("running initial scan after startup delay")
			d.scanOnce(ctx)
		case <-ticker.C:
			d.logger.Info("starting scheduled scan")
			d.scanOnce(ctx)
		}
	}
}

// Reload re-reads the config file. The running configuration is kept when
// the new one does not load or validate.
func (d *Daemon) Reload() error {
	cfg, err := config.LoadFrom(d.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.service = NewService(cfg, d.base, false)
	d.logger.Info("configuration reloaded", "scan_frequency", cfg.Daemon.ScanFrequency)
	return nil
}

func (d *Daemon) scanOnce(ctx context.Context) {
	paths, err := d.service.RunScan(ctx, nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		d.logger.Error("scheduled scan failed", "error", err)
	}
	for _, p := range paths {
		d.logger.Info("report written", "path", p)
	}
	if removed, err := PruneReports(d.Config().Paths.ReportDir, reportRetention); err != nil {
		d.logger.Warn("report cleanup failed", "error", err)
	} else if removed > 0 {
		d.logger.Info("old reports removed", "count", removed)
	}
}

// PruneReports removes report files older than maxAge and returns how many
// were deleted.
func PruneReports(reportDir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(reportDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read report directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "scan_") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(reportDir, entry.Name())); err == nil {
				deleted++
			}
		}
	}

	return deleted, nil
}

// GenerateSystemdTimer creates systemd timer configuration based on scan frequency
func GenerateSystemdTimer(frequency string) (string, error) {
	var onCalendar string

	switch frequency {
	case "hourly":
		onCalendar = "hourly"
	case "daily":
		onCalendar = "*-*-* 02:00:00"
	case "weekly":
		onCalendar = "Sun *-*-* 02:00:00"
	default:
		return "", fmt.Errorf("invalid scan frequency: %s (must be hourly, daily, or weekly)", frequency)
	}

	timer := fmt.Sprintf(`[Unit]
Description=mediaclue library scan timer
Requires=mediaclued.service

[Timer]
OnCalendar=%s
Persistent=true

[Install]
WantedBy=timers.target
`, onCalendar)

	return timer, nil
}
