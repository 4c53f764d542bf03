package view

import (
	"slices"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/typetrail/pkg/alg/mapx"
)

// Delta lists the paths a commit added to or removed from the file tree.
type Delta struct {
	Added   []string `json:"added"   yaml:"added"`
	Removed []string `json:"removed" yaml:"removed"`
}

// Empty reports whether the tree did not change.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// TreeDelta line-diffs two consecutive tree listings. A path that only moved
// within the listing is reported in neither list.
func TreeDelta(prev, next []string) Delta {
	dmp := diffmatchpatch.New()

	src, dst, lines := dmp.DiffLinesToRunes(joinLines(prev), joinLines(next))
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lines)

	var added, removed []string

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added = append(added, splitLines(d.Text)...)
		case diffmatchpatch.DiffDelete:
			removed = append(removed, splitLines(d.Text)...)
		case diffmatchpatch.DiffEqual:
		}
	}

	return Delta{
		Added:   mapx.Filter(added, func(p string) bool { return !slices.Contains(removed, p) }),
		Removed: mapx.Filter(removed, func(p string) bool { return !slices.Contains(added, p) }),
	}
}

// Deltas returns the tree delta of every commit against its predecessor in
// doc. The first commit is compared against an empty tree.
func Deltas(doc *Document) []Delta {
	deltas := make([]Delta, 0, len(doc.Commits))

	var prev []string

	for _, c := range doc.Commits {
		deltas = append(deltas, TreeDelta(prev, c.AllFiles))
		prev = c.AllFiles
	}

	return deltas
}

func joinLines(paths []string) string {
	if len(paths) == 0 {
		return ""
	}

	return strings.Join(paths, "\n") + "\n"
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
