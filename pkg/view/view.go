// Package view aggregates a parsed project into the flat document consumed
// by the visualization front end: the included commits, a chronological list
// of edit events, the project authors and the distinct identifying names.
package view

import (
	"strings"

	"github.com/Sumatoshi-tech/typetrail/pkg/alg/mapx"
	"github.com/Sumatoshi-tech/typetrail/pkg/history"
)

// Mode selects which histograms feed the edit events.
type Mode string

// View modes.
const (
	ModeDeclarations Mode = "Declarations"
	ModeTypes        Mode = "Types"
	ModeInvocations  Mode = "Invocations"
)

// Modes lists the recognized view modes.
var Modes = []Mode{ModeDeclarations, ModeTypes, ModeInvocations}

// ParseMode converts raw into a Mode without normalization. Only the exact
// mode names are recognized; anything else yields no events.
func ParseMode(raw string) Mode {
	return Mode(raw)
}

// MatchMode is the lenient variant for interactive input: surrounding space
// and letter case are ignored. Unknown values are returned verbatim.
func MatchMode(raw string) Mode {
	trimmed := strings.TrimSpace(raw)

	for _, m := range Modes {
		if strings.EqualFold(trimmed, string(m)) {
			return m
		}
	}

	return Mode(raw)
}

// Known reports whether m is one of the recognized modes.
func (m Mode) Known() bool {
	switch m {
	case ModeDeclarations, ModeTypes, ModeInvocations:
		return true
	default:
		return false
	}
}

// ObjectConstructor is the invocation key excluded whenever invocations are walked.
const ObjectConstructor = "java.lang.Object#Object()"

// DefaultLargeCommitThreshold is the stat block count above which a commit
// counts as large.
const DefaultLargeCommitThreshold = 50

const memberSeparator = "#"

// Config controls a single aggregation.
type Config struct {
	Mode               Mode
	IgnoreLargeCommits bool
	// LargeCommitThreshold defaults to DefaultLargeCommitThreshold when not positive.
	LargeCommitThreshold int
	// Sources filters the touched and tree file lists. Nil keeps every path.
	Sources SourceFilter
}

// DefaultConfig returns the declarations view over Java sources with large
// commits kept.
func DefaultConfig() Config {
	return Config{
		Mode:                 ModeDeclarations,
		LargeCommitThreshold: DefaultLargeCommitThreshold,
		Sources:              SuffixFilter(DefaultSourceSuffix),
	}
}

func (c Config) threshold() int {
	if c.LargeCommitThreshold <= 0 {
		return DefaultLargeCommitThreshold
	}

	return c.LargeCommitThreshold
}

// CommitView is the reduced form of a commit.
type CommitView struct {
	Author   string   `json:"author"    yaml:"author"`
	CommitID string   `json:"commitID"  yaml:"commitID"`
	Date     string   `json:"date"      yaml:"date"`
	Message  string   `json:"message"   yaml:"message"`
	Files    []string `json:"files"     yaml:"files"`
	AllFiles []string `json:"all_files" yaml:"all_files"`
}

// EditEvent records one identifying name added or removed by a commit.
type EditEvent struct {
	CommitID string       `json:"commitID" yaml:"commitID"`
	Type     string       `json:"type"     yaml:"type"`
	Edit     Modification `json:"edit"     yaml:"edit"`
}

// Document is the aggregated view of one project. Array fields are never nil.
type Document struct {
	Name    string       `json:"name"    yaml:"name"`
	Commits []CommitView `json:"commits" yaml:"commits"`
	Dates   []EditEvent  `json:"dates"   yaml:"dates"`
	Authors []string     `json:"authors" yaml:"authors"`
	Types   []string     `json:"types"   yaml:"types"`
}

// ProjectToView aggregates project under cfg. Events keep encounter order:
// commit order, then stat block order, then histogram insertion order.
func ProjectToView(project *history.Project, cfg Config) *Document {
	doc := &Document{
		Name:    project.Name,
		Commits: []CommitView{},
		Dates:   []EditEvent{},
		Authors: project.Authors(),
	}

	agg := aggregator{cfg: cfg, doc: doc}

	for _, commit := range project.Commits {
		if cfg.IgnoreLargeCommits && len(commit.Files) > cfg.threshold() {
			continue
		}

		doc.Commits = append(doc.Commits, CommitView{
			Author:   commit.Author,
			CommitID: commit.ID,
			Date:     commit.Date,
			Message:  commit.Message,
			Files:    mapx.Filter(commit.TouchedFiles, keepFunc(cfg.Sources)),
			AllFiles: mapx.Filter(commit.TreeFiles, keepFunc(cfg.Sources)),
		})

		for _, file := range commit.Files {
			agg.file(commit.ID, file)
		}
	}

	doc.Types = mapx.Unique(agg.types)

	return doc
}

type aggregator struct {
	cfg   Config
	doc   *Document
	types []string
}

func (a *aggregator) file(commitID string, f *history.File) {
	switch a.cfg.Mode {
	case ModeDeclarations:
		a.declarations(commitID, f.Declarations)
	case ModeTypes:
		a.declarations(commitID, f.Declarations)
		a.invocations(commitID, f.Invocations, typeName)
	case ModeInvocations:
		a.invocations(commitID, f.Invocations, rawName)
	}
}

func (a *aggregator) declarations(commitID string, h history.Histogram) {
	for name := range h.Additions.All() {
		a.emit(commitID, name, Add)
	}

	for name := range h.Deletions.All() {
		a.emit(commitID, name, Remove)
	}
}

func (a *aggregator) invocations(commitID string, h history.Histogram, identify func(string) (string, bool)) {
	walk := func(counter mapx.Counter[string, int], edit Modification) {
		for key := range counter.All() {
			if key == ObjectConstructor {
				continue
			}

			if name, ok := identify(key); ok {
				a.emit(commitID, name, edit)
			}
		}
	}

	walk(h.Additions, Add)
	walk(h.Deletions, Remove)
}

func (a *aggregator) emit(commitID, name string, edit Modification) {
	a.types = append(a.types, name)
	a.doc.Dates = append(a.doc.Dates, EditEvent{CommitID: commitID, Type: name, Edit: edit})
}

func rawName(key string) (string, bool) {
	return key, true
}

// typeName returns the segment of an invocation key before the member
// separator. Keys with an empty owner are dropped.
func typeName(key string) (string, bool) {
	owner, _, _ := strings.Cut(key, memberSeparator)

	return owner, owner != ""
}
