package history

import "github.com/Sumatoshi-tech/typetrail/pkg/alg/mapx"

// Project is the root aggregate: a named directory and its commits in
// parse order.
type Project struct {
	Name    string    `json:"name"`
	Commits []*Commit `json:"commits"`
}

// NewProject creates an empty project.
func NewProject() *Project {
	return &Project{}
}

// AddCommit appends a commit.
func (p *Project) AddCommit(c *Commit) {
	p.Commits = append(p.Commits, c)
}

// Authors returns the distinct commit authors in first-seen order.
// It is recomputed on every call.
func (p *Project) Authors() []string {
	names := make([]string, 0, len(p.Commits))

	for _, c := range p.Commits {
		names = append(names, c.Author)
	}

	return mapx.Unique(names)
}

// FileCount returns the number of stat blocks across all commits.
func (p *Project) FileCount() int {
	total := 0

	for _, c := range p.Commits {
		total += len(c.Files)
	}

	return total
}
