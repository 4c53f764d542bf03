package history

import (
	"fmt"
	"time"
)

// DateLayout is the layout of Commit.Date: date, "T", time and zone offset
// concatenated without separators between time and zone.
const DateLayout = "2006-01-02T15:04:05-0700"

// Commit is one commit of a project together with its stat blocks.
type Commit struct {
	Author       string   `json:"author"`
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	Message      string   `json:"message"`
	TouchedFiles []string `json:"touched_files"`
	TreeFiles    []string `json:"tree_files"`
	Files        []*File  `json:"files"`
}

// NewCommit creates an empty commit.
func NewCommit() *Commit {
	return &Commit{}
}

// AddTouchedFile appends a path modified by the commit.
func (c *Commit) AddTouchedFile(path string) {
	c.TouchedFiles = append(c.TouchedFiles, path)
}

// AddTreeFile appends a path of the full tree listing at the commit.
func (c *Commit) AddTreeFile(path string) {
	c.TreeFiles = append(c.TreeFiles, path)
}

// AddFile appends a stat block.
func (c *Commit) AddFile(f *File) {
	c.Files = append(c.Files, f)
}

// ParseDate parses a commit date written in DateLayout.
func ParseDate(date string) (time.Time, error) {
	ts, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("commit date: %w", err)
	}

	return ts, nil
}
