// Package history holds the in-memory model rebuilt from a history dump:
// projects own commits, commits own file stat blocks, and every stat block
// carries a declarations and an invocations histogram.
package history

import "github.com/Sumatoshi-tech/typetrail/pkg/alg/mapx"

// EditKind is the edit token carried by #DECLARE and #INVOCATIONS records.
type EditKind string

// Recognized edit kinds. Any other token is ignored by Histogram.Add.
const (
	EditInsert EditKind = "INSERT"
	EditDelete EditKind = "DELETE"
)

// Histogram names used for the two histograms of every File.
const (
	HistogramDeclarations = "Declarations"
	HistogramInvocations  = "Invocations"
)

// Histogram accumulates edit counts per entity name, split into additions
// and deletions. Keys keep the order of their first occurrence.
type Histogram struct {
	Name      string                    `json:"name"`
	Additions mapx.Counter[string, int] `json:"additions"`
	Deletions mapx.Counter[string, int] `json:"deletions"`
}

// NewHistogram creates an empty histogram with the given label.
func NewHistogram(name string) Histogram {
	return Histogram{Name: name}
}

// Add accumulates value for name into the map selected by kind.
// Kinds other than EditInsert and EditDelete are ignored.
func (h *Histogram) Add(name string, kind EditKind, value int) {
	switch kind {
	case EditInsert:
		h.Additions.Add(name, value)
	case EditDelete:
		h.Deletions.Add(name, value)
	}
}

// Empty reports whether neither map holds a key.
func (h *Histogram) Empty() bool {
	return h.Additions.Len() == 0 && h.Deletions.Len() == 0
}
