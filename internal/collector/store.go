package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/Nomadcxx/mediaclue/internal/logging"
)

const lockRetryDelay = 50 * time.Millisecond

// Store is the on-disk tally of unknown words. Every read-modify-write runs
// under an advisory file lock so the CLI and the daemon can share the file.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

type document struct {
	Words map[string]int `json:"words"`
}

// Open returns a store for the unknown-word file at path. The file is created
// on first write.
func Open(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.Component(logger, "collector"),
	}
}

// Path returns the unknown-word file path.
func (s *Store) Path() string {
	return s.path
}

// List returns words seen at least minCount times, most frequent first.
func (s *Store) List(ctx context.Context, minCount int) ([]Candidate, error) {
	var out []Candidate
	err := s.withLock(ctx, func() error {
		doc, err := s.read()
		if err != nil {
			return err
		}
		for word, count := range doc.Words {
			if count >= minCount {
				out = append(out, Candidate{Word: word, Count: count})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortCandidates(out)
	return out, nil
}

// Merge adds candidate counts to the file. A word already present under a
// different spelling is counted against the existing spelling.
func (s *Store) Merge(ctx context.Context, candidates []Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	return s.withLock(ctx, func() error {
		doc, err := s.read()
		if err != nil {
			return err
		}
		index := make(map[string]string, len(doc.Words))
		for word := range doc.Words {
			index[strings.ToLower(word)] = word
		}
		for _, c := range candidates {
			key := strings.ToLower(c.Word)
			word, ok := index[key]
			if !ok {
				word = c.Word
				index[key] = word
			}
			doc.Words[word] += c.Count
		}
		s.logger.Debug("unknown words merged", "candidates", len(candidates), "total", len(doc.Words))
		return s.write(doc)
	})
}

// Remove deletes words, matched case-insensitively, and returns how many
// entries were removed.
func (s *Store) Remove(ctx context.Context, words []string) (int, error) {
	removed := 0
	err := s.withLock(ctx, func() error {
		doc, err := s.read()
		if err != nil {
			return err
		}
		drop := make(map[string]bool, len(words))
		for _, w := range words {
			drop[strings.ToLower(strings.TrimSpace(w))] = true
		}
		for word := range doc.Words {
			if drop[strings.ToLower(word)] {
				delete(doc.Words, word)
				removed++
			}
		}
		if removed == 0 {
			return nil
		}
		return s.write(doc)
	})
	return removed, err
}

// Clear empties the file.
func (s *Store) Clear(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		return s.write(document{Words: map[string]int{}})
	})
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create unknown-word directory: %w", err)
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", s.path, err)
	}
	if !locked {
		return fmt.Errorf("failed to lock %s", s.path)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release lock", "path", s.path, "error", err)
		}
	}()
	return fn()
}

func (s *Store) read() (document, error) {
	doc := document{Words: map[string]int{}}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("failed to read unknown-word file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode unknown-word file %s: %w", s.path, err)
	}
	if doc.Words == nil {
		doc.Words = map[string]int{}
	}
	return doc, nil
}

func (s *Store) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode unknown-word file: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write unknown-word file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace unknown-word file: %w", err)
	}
	return nil
}
