package catalog

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Sumatoshi-tech/typetrail/pkg/history"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

// DefaultViewCacheSize is the number of view documents kept per snapshot.
const DefaultViewCacheSize = 256

// Summary describes one project in an index listing.
type Summary struct {
	Name    string `json:"name"    yaml:"name"`
	Commits int    `json:"commits" yaml:"commits"`
	Authors int    `json:"authors" yaml:"authors"`
	Files   int    `json:"files"   yaml:"files"`
}

type viewKey struct {
	project   string
	mode      view.Mode
	ignore    bool
	threshold int
	filter    string
}

// Snapshot is an immutable published project list. View documents built
// from it are cached for the snapshot's lifetime and must not be mutated.
type Snapshot struct {
	projects    []*history.Project
	publishedAt time.Time
	views       *lru.Cache[viewKey, *view.Document]
}

// NewSnapshot wraps projects. A non-positive cacheSize selects DefaultViewCacheSize.
func NewSnapshot(projects []*history.Project, cacheSize int) (*Snapshot, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultViewCacheSize
	}

	views, err := lru.New[viewKey, *view.Document](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create view cache: %w", err)
	}

	if projects == nil {
		projects = []*history.Project{}
	}

	return &Snapshot{
		projects:    projects,
		publishedAt: time.Now(),
		views:       views,
	}, nil
}

// Projects returns the projects in parse order.
func (s *Snapshot) Projects() []*history.Project {
	return s.projects
}

// PublishedAt returns when the snapshot was built.
func (s *Snapshot) PublishedAt() time.Time {
	return s.publishedAt
}

// Project returns the first project named name.
func (s *Snapshot) Project(name string) (*history.Project, error) {
	for _, p := range s.projects {
		if p.Name == name {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, name)
}

// Summaries lists every project with its headline counts.
func (s *Snapshot) Summaries() []Summary {
	out := make([]Summary, 0, len(s.projects))

	for _, p := range s.projects {
		out = append(out, SummaryOf(p))
	}

	return out
}

// SummaryOf returns the headline counts of p.
func SummaryOf(p *history.Project) Summary {
	return Summary{
		Name:    p.Name,
		Commits: len(p.Commits),
		Authors: len(p.Authors()),
		Files:   p.FileCount(),
	}
}

// View aggregates the named project, reusing a cached document when the
// same configuration was requested before. The boolean reports a cache hit.
func (s *Snapshot) View(name string, cfg view.Config) (*view.Document, bool, error) {
	key := viewKey{
		project:   name,
		mode:      cfg.Mode,
		ignore:    cfg.IgnoreLargeCommits,
		threshold: cfg.LargeCommitThreshold,
		filter:    view.FilterKey(cfg.Sources),
	}

	if doc, ok := s.views.Get(key); ok {
		return doc, true, nil
	}

	project, err := s.Project(name)
	if err != nil {
		return nil, false, err
	}

	doc := view.ProjectToView(project, cfg)
	s.views.Add(key, doc)

	return doc, false, nil
}
