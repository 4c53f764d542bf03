// Package dump parses the marker-tagged history dump format into the
// history model and locates dump files on disk or in object storage.
//
// The format is line oriented. Every line is tested against a fixed,
// ordered list of marker substrings and every marker it contains takes
// effect, so one line can open and close blocks at the same time. Lines
// without a known marker are ignored.
package dump

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/typetrail/pkg/history"
)

// Markers recognized by the parser, in checking order.
const (
	MarkerProjectStart  = "#PROJECT_START"
	MarkerProjectEnd    = "#PROJECT_END"
	MarkerProjectName   = "#PROJECT_NAME"
	MarkerCommitStart   = "#COMMIT_START"
	MarkerCommitEnd     = "#COMMIT_END"
	MarkerAuthor        = "#AUTHOR"
	MarkerCommitID      = "#COMMIT_ID |"
	MarkerDate          = "#DATE |"
	MarkerMessageStart  = "#COMMIT_MESSAGE_START"
	MarkerMessageEnd    = "#COMMIT_MESSAGE_END"
	MarkerTouchedStart  = "#FILES_TOUCHED_START"
	MarkerTouchedEnd    = "#FILES_TOUCHED_END"
	MarkerTreeStart     = "#FILES_START"
	MarkerTreeEnd       = "#FILES_END"
	MarkerLocalFile     = "#FILE1"
	MarkerRemoteFile    = "#FILE2"
	MarkerStatsStart    = "#STATS_START"
	MarkerStatsEnd      = "#STATS_END"
	MarkerDeclaration   = "#DECLARE"
	MarkerInvocation    = "#INVOCATIONS"
	fieldSeparator      = "|"
	dateTimeSeparator   = "T"
	defaultStreamName   = "<stream>"
	editRecordFieldSize = 4
)

// Stats summarizes a parse run.
type Stats struct {
	Lines    int
	Projects int
	Commits  int
	Files    int
}

// Add returns the element-wise sum of two Stats.
func (s Stats) Add(other Stats) Stats {
	return Stats{
		Lines:    s.Lines + other.Lines,
		Projects: s.Projects + other.Projects,
		Commits:  s.Commits + other.Commits,
		Files:    s.Files + other.Files,
	}
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for per-file diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Parser accumulates projects from any number of dump streams into one
// shared, ordered result. A Parser is not safe for concurrent use.
type Parser struct {
	logger   *slog.Logger
	projects []*history.Project
}

// NewParser creates a parser with an empty result collection.
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: slog.Default()}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Projects returns the projects parsed so far, in parse order.
func (p *Parser) Projects() []*history.Project {
	return p.projects
}

// Parse reads one dump stream and appends its projects to the shared result.
// The name attributes errors. On error nothing from this stream is appended.
func (p *Parser) Parse(name string, r io.Reader) (Stats, error) {
	st := newParseState(name)
	br := bufio.NewReader(r)

	for {
		line, readErr := br.ReadString('\n')
		if line != "" {
			st.line++

			stepErr := st.step(line)
			if stepErr != nil {
				return Stats{}, stepErr
			}
		}

		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return Stats{}, fmt.Errorf("read %s: %w", name, readErr)
		}
	}

	st.finish()

	p.projects = append(p.projects, st.projects...)

	stats := st.stats()
	p.logger.Debug("parsed dump",
		"file", name,
		"lines", stats.Lines,
		"projects", stats.Projects,
		"commits", stats.Commits,
		"files", stats.Files,
	)

	return stats, nil
}

// Parse is a convenience wrapper that parses a single stream.
func Parse(r io.Reader) ([]*history.Project, error) {
	p := NewParser()

	_, err := p.Parse(defaultStreamName, r)
	if err != nil {
		return nil, err
	}

	return p.Projects(), nil
}

// parseState is the builder state carried across the lines of one stream.
type parseState struct {
	name string
	line int

	project     *history.Project
	projectOpen bool
	commit      *history.Commit
	file        *history.File

	inMessage bool
	message   strings.Builder
	inTouched bool
	inTree    bool

	projects []*history.Project
}

func newParseState(name string) *parseState {
	return &parseState{name: name}
}

// step applies every marker contained in line, in the fixed checking order.
// End checks come before accumulation, which comes before start checks, so
// block delimiters are never accumulated as content.
func (st *parseState) step(line string) error {
	st.projectMarkers(line)
	st.commitMarkers(line)
	st.messageBlock(line)
	st.touchedBlock(line)
	st.treeBlock(line)
	st.statsMarkers(line)

	return st.editRecords(line)
}

func (st *parseState) projectMarkers(line string) {
	if strings.Contains(line, MarkerProjectStart) {
		st.project = history.NewProject()
		st.projectOpen = true
	}

	if strings.Contains(line, MarkerProjectEnd) {
		if st.project != nil {
			st.projects = append(st.projects, st.project)
		}

		st.projectOpen = false
	}

	if strings.Contains(line, MarkerProjectName) && st.project != nil {
		if name, ok := field(line, 1); ok {
			st.project.Name = strings.TrimSpace(strings.ReplaceAll(name, "/", ""))
		}
	}
}

func (st *parseState) commitMarkers(line string) {
	if strings.Contains(line, MarkerCommitStart) {
		st.commit = history.NewCommit()
	}

	if strings.Contains(line, MarkerCommitEnd) && st.project != nil && st.commit != nil {
		st.project.AddCommit(st.commit)
	}

	if st.commit == nil {
		return
	}

	if strings.Contains(line, MarkerAuthor) {
		if author, ok := field(line, 1); ok {
			st.commit.Author = author
		}
	}

	if strings.Contains(line, MarkerCommitID) {
		if value, ok := field(line, 1); ok {
			if tokens := strings.Fields(value); len(tokens) > 0 {
				st.commit.ID = tokens[0]
			}
		}
	}

	if strings.Contains(line, MarkerDate) {
		if value, ok := field(line, 1); ok {
			if date := joinDate(value); date != "" {
				st.commit.Date = date
			}
		}
	}
}

func (st *parseState) messageBlock(line string) {
	if strings.Contains(line, MarkerMessageEnd) {
		if st.commit != nil {
			st.commit.Message = st.message.String()
		}

		st.inMessage = false
		st.message.Reset()
	}

	if st.inMessage {
		st.message.WriteString(line)
	}

	if strings.Contains(line, MarkerMessageStart) {
		st.inMessage = true
	}
}

func (st *parseState) touchedBlock(line string) {
	if strings.Contains(line, MarkerTouchedEnd) {
		st.inTouched = false
	}

	if st.inTouched && st.commit != nil {
		st.commit.AddTouchedFile(strings.TrimSpace(line))
	}

	if strings.Contains(line, MarkerTouchedStart) {
		st.inTouched = true
	}
}

func (st *parseState) treeBlock(line string) {
	if strings.Contains(line, MarkerTreeEnd) {
		st.inTree = false
	}

	if st.inTree && st.commit != nil {
		st.commit.AddTreeFile(strings.TrimSpace(line))
	}

	if strings.Contains(line, MarkerTreeStart) {
		st.inTree = true
	}
}

func (st *parseState) statsMarkers(line string) {
	if strings.Contains(line, MarkerLocalFile) && st.file != nil {
		if path, ok := field(line, 1); ok {
			st.file.Local = path
		}
	}

	if strings.Contains(line, MarkerRemoteFile) && st.file != nil {
		if path, ok := field(line, 1); ok {
			st.file.Remote = path
		}
	}

	if strings.Contains(line, MarkerStatsStart) {
		st.file = history.NewFile()
	}

	if strings.Contains(line, MarkerStatsEnd) && st.commit != nil && st.file != nil {
		st.commit.AddFile(st.file)
	}
}

func (st *parseState) editRecords(line string) error {
	if strings.Contains(line, MarkerDeclaration) && st.file != nil {
		err := st.addEdit(line, MarkerDeclaration, &st.file.Declarations)
		if err != nil {
			return err
		}
	}

	if strings.Contains(line, MarkerInvocation) && st.file != nil {
		err := st.addEdit(line, MarkerInvocation, &st.file.Invocations)
		if err != nil {
			return err
		}
	}

	return nil
}

// addEdit reads the edit kind, entity name and count fields of an edit record.
// Records with missing fields are skipped; a non-integer count is fatal.
func (st *parseState) addEdit(line, marker string, h *history.Histogram) error {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) < editRecordFieldSize {
		return nil
	}

	kind := strings.TrimSpace(parts[1])
	name := strings.TrimSpace(parts[2])
	raw := strings.TrimSpace(parts[3])

	value, convErr := strconv.Atoi(raw)
	if convErr != nil {
		return &ParseError{
			File:   st.name,
			Line:   st.line,
			Marker: marker,
			Err:    fmt.Errorf("%w %q: %w", ErrInvalidCount, raw, convErr),
		}
	}

	h.Add(name, history.EditKind(kind), value)

	return nil
}

// finish publishes a project left open by a truncated stream.
func (st *parseState) finish() {
	if st.projectOpen && st.project != nil {
		st.projects = append(st.projects, st.project)
	}
}

func (st *parseState) stats() Stats {
	stats := Stats{Lines: st.line, Projects: len(st.projects)}

	for _, p := range st.projects {
		stats.Commits += len(p.Commits)
		stats.Files += p.FileCount()
	}

	return stats
}

// field returns the trimmed idx-th "|"-separated field of line.
func field(line string, idx int) (string, bool) {
	parts := strings.Split(line, fieldSeparator)
	if idx >= len(parts) {
		return "", false
	}

	return strings.TrimSpace(parts[idx]), true
}

// joinDate rebuilds "2020-01-01 10:00:00 +0000" as "2020-01-01T10:00:00+0000".
func joinDate(value string) string {
	tokens := strings.Fields(value)

	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return tokens[0]
	case 2:
		return tokens[0] + dateTimeSeparator + tokens[1]
	default:
		return tokens[0] + dateTimeSeparator + tokens[1] + tokens[2]
	}
}
