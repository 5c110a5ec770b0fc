// Package callgrind parses callgrind/cachegrind trace files into a
// tracedata graph. One trace file becomes one Part; multi-part traces are
// discovered by their shared base name. Malformed records are skipped and
// counted unless strict mode is enabled.
package callgrind

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// openTrace opens a trace file, transparently decompressing .gz and .lz4.
func openTrace(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("callgrind: open trace: %w", err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		reader, gzErr := gzip.NewReader(file)
		if gzErr != nil {
			file.Close()

			return nil, fmt.Errorf("callgrind: gzip header: %w", gzErr)
		}

		return &wrappedReadCloser{Reader: reader, closers: []io.Closer{reader, file}}, nil

	case strings.HasSuffix(path, ".lz4"):
		return &wrappedReadCloser{Reader: lz4.NewReader(file), closers: []io.Closer{file}}, nil

	default:
		return file, nil
	}
}

// wrappedReadCloser closes a decompressor and its underlying file.
type wrappedReadCloser struct {
	io.Reader

	closers []io.Closer
}

func (w *wrappedReadCloser) Close() error {
	var firstErr error

	for _, closer := range w.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// stripCompressedSuffix removes a trailing .gz or .lz4 for part matching.
func stripCompressedSuffix(name string) string {
	name = strings.TrimSuffix(name, ".gz")

	return strings.TrimSuffix(name, ".lz4")
}

// FindParts returns the trace files belonging to base: the file itself
// plus any "base.N" part files next to it, in part order.
func FindParts(base string) ([]string, error) {
	var parts []string

	if _, err := os.Stat(base); err == nil {
		parts = append(parts, base)
	}

	for _, pattern := range []string{base + ".*", stripCompressedSuffix(base) + ".*"} {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("callgrind: glob parts: %w", err)
		}

		for _, match := range matches {
			if match == base {
				continue
			}

			// Only numeric suffixes (optionally compressed) are parts.
			suffix := strings.TrimPrefix(stripCompressedSuffix(match), stripCompressedSuffix(base)+".")
			if isAllDigits(suffix) {
				parts = append(parts, match)
			}
		}
	}

	sort.Strings(parts)

	parts = dedupe(parts)

	if len(parts) == 0 {
		return nil, fmt.Errorf("callgrind: no trace parts found for %q", base)
	}

	return parts, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

func dedupe(sorted []string) []string {
	result := sorted[:0]

	for i, name := range sorted {
		if i == 0 || name != sorted[i-1] {
			result = append(result, name)
		}
	}

	return result
}
