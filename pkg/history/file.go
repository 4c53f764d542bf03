package history

// File is a stat block of one commit: the edits made to one source file.
// It is not a filesystem file; the same path may appear in several blocks.
type File struct {
	Local        string    `json:"local"`
	Remote       string    `json:"remote"`
	Declarations Histogram `json:"declarations"`
	Invocations  Histogram `json:"invocations"`
}

// NewFile creates a stat block with empty, labelled histograms.
func NewFile() *File {
	return &File{
		Declarations: NewHistogram(HistogramDeclarations),
		Invocations:  NewHistogram(HistogramInvocations),
	}
}

// Renamed reports whether the block records a path change.
func (f *File) Renamed() bool {
	return f.Remote != "" && f.Local != f.Remote
}
