// Package scanner lists the entries of a library directory, parses their
// names in a worker pool and groups the results by recovered title.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Mode selects which directory entries are parsed.
type Mode string

const (
	ModeDirs  Mode = "dirs"
	ModeFiles Mode = "files"
)

// ErrInvalidMode is returned for a mode other than dirs or files.
var ErrInvalidMode = errors.New("mode must be \"dirs\" or \"files\"")

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDirs, "":
		return ModeDirs, nil
	case ModeFiles:
		return ModeFiles, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Options controls Scan.
type Options struct {
	Mode      Mode
	Recursive bool
	VideoOnly bool // files mode only
}

// Entry is one listed directory entry.
type Entry struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true,
	".webm": true, ".m4v": true, ".mpg": true, ".mpeg": true, ".m2ts": true, ".ts": true,
}

// isVideoFile checks if file extension is a video format
func isVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Scan lists the entries of dir that should be parsed. Paths are absolute and
// sorted. Hidden entries, and everything below a hidden directory, are
// skipped.
func Scan(ctx context.Context, dir string, opts Options) ([]Entry, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("library path not accessible: %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library path is not a directory: %s", dir)
	}

	keep := func(path string, d fs.DirEntry) bool {
		if mode == ModeDirs {
			return d.IsDir()
		}
		if !d.Type().IsRegular() {
			return false
		}
		return !opts.VideoOnly || isVideoFile(path)
	}

	var entries []Entry
	if !opts.Recursive {
		list, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("error scanning %s: %w", dir, err)
		}
		for _, d := range list {
			if isHidden(d.Name()) {
				continue
			}
			path := filepath.Join(root, d.Name())
			if keep(path, d) {
				entries = append(entries, Entry{Path: path, Name: d.Name(), IsDir: d.IsDir()})
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return entries, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if keep(path, d) {
			entries = append(entries, Entry{Path: path, Name: d.Name(), IsDir: d.IsDir()})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}
