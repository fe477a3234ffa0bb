// Package source loads a host directory into the virtual file map the
// scanner consumes.
//
// Paths in the map are slash-separated and relative to the loaded root.
// Version-control metadata, dependency caches and build output are
// skipped, as are binary files and files larger than
// [Options.MaxFileBytes].
package source

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackscan/pkg/errors"
)

// DefaultMaxFileBytes is the size limit used when Options.MaxFileBytes is zero.
const DefaultMaxFileBytes int64 = 2 << 20

// SkipDirs are directory names never descended into.
var SkipDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "vendor",
	"build", "target", "dist",
	"__pycache__", ".venv",
}

// binarySniffLen is how much of a file is inspected for NUL bytes.
const binarySniffLen = 8000

// Options configures [Load].
type Options struct {
	// MaxFileBytes skips larger files (default: 2 MiB). Negative disables
	// the limit.
	MaxFileBytes int64

	// Exclude lists doublestar globs ("**/testdata/**", "*.min.js")
	// matched against the relative path and the base name.
	Exclude []string

	Logger *log.Logger
}

// Stats counts what Load saw.
type Stats struct {
	Files       int // files loaded
	SkippedDirs int
	TooLarge    int
	Binary      int
	Excluded    int
	Unreadable  int
}

// Load walks root and returns its files keyed by relative path.
// Unreadable entries are logged and skipped; only a missing or
// non-directory root is an error.
func Load(ctx context.Context, root string, opts Options) (map[string]string, Stats, error) {
	var stats Stats
	if opts.MaxFileBytes == 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, stats, errors.New(errors.ErrCodeInvalidConfig, "invalid exclude pattern %q", p)
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, stats, errors.Wrap(errors.ErrCodeInvalidPath, err, "open source root %s", root)
	}
	if !info.IsDir() {
		return nil, stats, errors.New(errors.ErrCodeInvalidPath, "source root %s is not a directory", root)
	}

	skip := make(map[string]bool, len(SkipDirs))
	for _, d := range SkipDirs {
		skip[d] = true
	}

	files := make(map[string]string)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn("unreadable entry", "path", p, "err", err)
			stats.Unreadable++
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if skip[d.Name()] || excluded(opts.Exclude, rel) {
				stats.SkippedDirs++
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if excluded(opts.Exclude, rel) {
			stats.Excluded++
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			logger.Warn("unreadable file", "file", rel, "err", err)
			stats.Unreadable++
			return nil
		}
		if opts.MaxFileBytes > 0 && fi.Size() > opts.MaxFileBytes {
			logger.Debug("file too large", "file", rel, "size", fi.Size())
			stats.TooLarge++
			return nil
		}

		data, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("unreadable file", "file", rel, "err", err)
			stats.Unreadable++
			return nil
		}
		if IsBinary(data) {
			stats.Binary++
			return nil
		}
		files[rel] = string(data)
		stats.Files++
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	logger.Debug("source loaded", "root", root, "files", stats.Files, "skipped_dirs", stats.SkippedDirs,
		"too_large", stats.TooLarge, "binary", stats.Binary, "excluded", stats.Excluded)
	return files, stats, nil
}

// IsBinary reports whether data looks like a binary file: a NUL byte in
// the first 8000 bytes.
func IsBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

func excluded(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}
