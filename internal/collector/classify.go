package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/Nomadcxx/mediaclue/internal/clues"
)

// Classify promotes words into a category of the clue file at cluesPath and
// drops them from the unknown tally. Words the table already knows are
// skipped. It returns the words actually added.
//
// A missing clue file is seeded from the built-in defaults. A corrupt one is
// left alone and reported, so a bad edit is never overwritten.
func Classify(ctx context.Context, cluesPath, category string, words []string, unknowns *Store) ([]string, error) {
	cat, err := clues.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	if err := os.MkdirAll(filepath.Dir(cluesPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create clue directory: %w", err)
	}
	lock := flock.New(cluesPath + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", cluesPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock %s", cluesPath)
	}
	defer func() { _ = lock.Unlock() }()

	table, err := clues.LoadOrDefault(cluesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load clue file: %w", err)
	}

	updated := table.WithAdditions(cat, words)
	var added []string
	seen := make(map[string]bool)
	for _, w := range words {
		key := strings.ToLower(strings.TrimSpace(w))
		if seen[key] || table.Contains(w) || !updated.Contains(w) {
			continue
		}
		seen[key] = true
		added = append(added, w)
	}

	if len(added) > 0 {
		if err := clues.Save(cluesPath, updated.Document()); err != nil {
			return nil, err
		}
	}

	if unknowns != nil {
		if _, err := unknowns.Remove(ctx, words); err != nil {
			return added, err
		}
	}
	return added, nil
}

// Export writes the table's document to path.
func Export(path string, table *clues.Table) error {
	return clues.Save(path, table.Document())
}
