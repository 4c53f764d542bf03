package view

import (
	"path"
	"strings"

	"github.com/src-d/enry/v2"
)

// DefaultSourceSuffix is the source file suffix kept by DefaultConfig.
const DefaultSourceSuffix = ".java"

// SourceFilter decides which paths of a commit's file lists are kept.
// String identifies the filter in cache keys and logs.
type SourceFilter interface {
	Keep(path string) bool
	String() string
}

// SuffixFilter keeps paths ending in the suffix.
type SuffixFilter string

// Keep implements SourceFilter.
func (s SuffixFilter) Keep(p string) bool {
	return strings.HasSuffix(p, string(s))
}

func (s SuffixFilter) String() string {
	return "suffix:" + string(s)
}

// LanguageFilter keeps paths that enry detects as the named language by
// file name alone. Vendored paths are dropped.
type LanguageFilter string

// Keep implements SourceFilter.
func (l LanguageFilter) Keep(p string) bool {
	if enry.IsVendor(p) {
		return false
	}

	return strings.EqualFold(enry.GetLanguage(path.Base(p), nil), string(l))
}

func (l LanguageFilter) String() string {
	return "language:" + string(l)
}

// NewSourceFilter builds the filter for a configured suffix or language.
// A language wins when both are set; neither yields nil, which keeps all paths.
func NewSourceFilter(suffix, language string) SourceFilter {
	switch {
	case language != "":
		return LanguageFilter(language)
	case suffix != "":
		return SuffixFilter(suffix)
	default:
		return nil
	}
}

// FilterKey returns a stable identifier for f, including the nil filter.
func FilterKey(f SourceFilter) string {
	if f == nil {
		return "all"
	}

	return f.String()
}

func keepFunc(f SourceFilter) func(string) bool {
	if f == nil {
		return nil
	}

	return f.Keep
}
