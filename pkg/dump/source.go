package dump

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pierrec/lz4/v4"
)

// Dump file suffixes.
const (
	SuffixDump       = ".out"
	SuffixCompressed = ".lz4"
)

// Source is a named dump stream.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Open returns a reader positioned at the start of the decoded dump.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// IsDumpName reports whether path names a plain or lz4-compressed dump.
func IsDumpName(path string) bool {
	return strings.HasSuffix(path, SuffixDump) || strings.HasSuffix(path, SuffixDump+SuffixCompressed)
}

// ParseMaxSize converts a human-readable size such as "512MB" into bytes.
// An empty string means no limit.
func ParseMaxSize(raw string) (uint64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("parse dump size limit %q: %w", raw, err)
	}

	return size, nil
}

// FileSource reads a dump from the local filesystem. Paths ending in .lz4
// are decoded as LZ4 frames. MaxSize bounds the on-disk size; zero disables
// the check.
type FileSource struct {
	Path    string
	MaxSize uint64
}

// Name implements Source.
func (s FileSource) Name() string {
	return s.Path
}

// Open implements Source.
func (s FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	info, statErr := os.Stat(s.Path)
	if statErr != nil {
		return nil, fmt.Errorf("stat dump: %w", statErr)
	}

	sizeErr := checkSize(s.Path, info.Size(), s.MaxSize)
	if sizeErr != nil {
		return nil, sizeErr
	}

	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}

	return decode(s.Path, file), nil
}

// Glob expands patterns into file sources. A pattern naming a directory
// expands to the dump files directly inside it. Matches are sorted per
// pattern and deduplicated across patterns.
func Glob(maxSize uint64, patterns ...string) ([]Source, error) {
	var paths []string

	for _, pattern := range patterns {
		matches, err := expand(pattern)
		if err != nil {
			return nil, err
		}

		for _, m := range matches {
			if !slices.Contains(paths, m) {
				paths = append(paths, m)
			}
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDumps, strings.Join(patterns, ", "))
	}

	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		sources = append(sources, FileSource{Path: path, MaxSize: maxSize})
	}

	return sources, nil
}

func expand(pattern string) ([]string, error) {
	info, statErr := os.Stat(pattern)
	if statErr == nil && info.IsDir() {
		entries, err := os.ReadDir(pattern)
		if err != nil {
			return nil, fmt.Errorf("read dump dir: %w", err)
		}

		var matches []string

		for _, entry := range entries {
			if !entry.IsDir() && IsDumpName(entry.Name()) {
				matches = append(matches, filepath.Join(pattern, entry.Name()))
			}
		}

		slices.Sort(matches)

		return matches, nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	slices.Sort(matches)

	return matches, nil
}

func checkSize(name string, size int64, limit uint64) error {
	if limit == 0 || size < 0 || uint64(size) <= limit {
		return nil
	}

	return fmt.Errorf("%w: %s is %s (limit %s)", ErrDumpTooLarge, name,
		humanize.Bytes(uint64(size)), humanize.Bytes(limit))
}

// decode wraps rc with an LZ4 frame reader when name carries the .lz4 suffix.
func decode(name string, rc io.ReadCloser) io.ReadCloser {
	if !strings.HasSuffix(name, SuffixCompressed) {
		return rc
	}

	return &lz4ReadCloser{Reader: lz4.NewReader(rc), closer: rc}
}

type lz4ReadCloser struct {
	*lz4.Reader

	closer io.Closer
}

func (l *lz4ReadCloser) Close() error {
	return l.closer.Close()
}
