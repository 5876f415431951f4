// Package store persists title groups in SQLite so repeated scans of the same
// library accumulate instead of starting over.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Nomadcxx/mediaclue/internal/logging"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages group persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Group is one (title, type, year) bucket with the paths that parsed into it.
type Group struct {
	CleanTitle string
	MediaType  string
	Year       string
	Paths      []string
}

// GroupRecord is a stored group.
type GroupRecord struct {
	ID         int64
	CleanTitle string
	MediaType  string
	Year       string
	PathCount  int
	CreatedAt  time.Time
}

// Filter narrows ListGroups. Empty fields match everything.
type Filter struct {
	MediaType string
	Title     string // case-insensitive substring
}

// SaveStats counts rows inserted by SaveGroups. Rows that already existed
// are not counted.
type SaveStats struct {
	GroupsAdded int
	PathsAdded  int
}

// Stats summarizes the database contents.
type Stats struct {
	Groups int
	Paths  int
	ByType map[string]int
}

// Open initializes or connects to the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// pragmas are per connection; one connection keeps foreign_keys in force
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path, logger: logging.Component(logger, "store")}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveGroups inserts groups and their paths. Existing groups and paths are
// left untouched, so saving the same scan twice is a no-op.
func (s *Store) SaveGroups(ctx context.Context, groups []Group) (SaveStats, error) {
	var stats SaveStats
	err := retryOnBusy(ctx, func() error {
		stats = SaveStats{}
		return s.saveGroups(ctx, groups, &stats)
	})
	if err != nil {
		return SaveStats{}, err
	}
	s.logger.Debug("groups saved", "groups_added", stats.GroupsAdded, "paths_added", stats.PathsAdded)
	return stats, nil
}

func (s *Store) saveGroups(ctx context.Context, groups []Group, stats *SaveStats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, g := range groups {
		if strings.TrimSpace(g.CleanTitle) == "" {
			continue
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO media_groups (clean_title, media_type, year, created_at) VALUES (?, ?, ?, ?)`,
			g.CleanTitle, g.MediaType, g.Year, now)
		if err != nil {
			return fmt.Errorf("insert group %q: %w", g.CleanTitle, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stats.GroupsAdded++
		}

		var id int64
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM media_groups WHERE clean_title = ? AND media_type = ? AND year = ?`,
			g.CleanTitle, g.MediaType, g.Year).Scan(&id)
		if err != nil {
			return fmt.Errorf("lookup group %q: %w", g.CleanTitle, err)
		}

		for _, p := range g.Paths {
			res, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO media_paths (group_id, full_path, created_at) VALUES (?, ?, ?)`,
				id, p, now)
			if err != nil {
				return fmt.Errorf("insert path %q: %w", p, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				stats.PathsAdded++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

// ListGroups returns stored groups ordered by title.
func (s *Store) ListGroups(ctx context.Context, filter Filter) ([]GroupRecord, error) {
	query := `SELECT g.id, g.clean_title, g.media_type, g.year, g.created_at, COUNT(p.id)
		FROM media_groups g
		LEFT JOIN media_paths p ON p.group_id = g.id`
	var (
		where []string
		args  []any
	)
	if filter.MediaType != "" {
		where = append(where, "g.media_type = ?")
		args = append(args, filter.MediaType)
	}
	if filter.Title != "" {
		where = append(where, "LOWER(g.clean_title) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Title)+"%")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " GROUP BY g.id ORDER BY g.clean_title, g.year"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []GroupRecord
	for rows.Next() {
		var (
			rec     GroupRecord
			created string
		)
		if err := rows.Scan(&rec.ID, &rec.CleanTitle, &rec.MediaType, &rec.Year, &created, &rec.PathCount); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return out, nil
}

// Paths returns the paths stored for a group, sorted.
func (s *Store) Paths(ctx context.Context, groupID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT full_path FROM media_paths WHERE group_id = ? ORDER BY full_path`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}
	return out, nil
}

// DeleteGroup removes a group and, through the foreign key, its paths. It
// reports whether a row was deleted.
func (s *Store) DeleteGroup(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM media_groups WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete group %d: %w", id, err)
	}
	return deleted, nil
}

// Stats counts stored groups and paths.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByType: make(map[string]int)}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM media_groups`).Scan(&stats.Groups); err != nil {
		return Stats{}, fmt.Errorf("count groups: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM media_paths`).Scan(&stats.Paths); err != nil {
		return Stats{}, fmt.Errorf("count paths: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT media_type, COUNT(1) FROM media_groups GROUP BY media_type`)
	if err != nil {
		return Stats{}, fmt.Errorf("count by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			mediaType string
			n         int
		)
		if err := rows.Scan(&mediaType, &n); err != nil {
			return Stats{}, fmt.Errorf("scan type count: %w", err)
		}
		stats.ByType[mediaType] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate type counts: %w", err)
	}
	return stats, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
