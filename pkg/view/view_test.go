package view_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/typetrail/pkg/dump"
	"github.com/Sumatoshi-tech/typetrail/pkg/history"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

const demoDump = `#PROJECT_START
#PROJECT_NAME|demo
#COMMIT_START
#AUTHOR|alice
#COMMIT_ID |abc123
#DATE |2020-01-01 10:00:00 +0000
#STATS_START
#FILE1|A.java
#DECLARE|INSERT|Foo#bar()|1
#STATS_END
#COMMIT_END
#PROJECT_END
`

func parseOne(t *testing.T, input string) *history.Project {
	t.Helper()

	projects, err := dump.Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, projects, 1)

	return projects[0]
}

func mixedProject() *history.Project {
	f := history.NewFile()
	f.Declarations.Add("Foo#bar()", history.EditInsert, 1)
	f.Declarations.Add("Foo#old()", history.EditDelete, 1)
	f.Invocations.Add("Baz#qux()", history.EditInsert, 2)
	f.Invocations.Add(view.ObjectConstructor, history.EditInsert, 5)
	f.Invocations.Add("#orphan()", history.EditInsert, 1)
	f.Invocations.Add("Baz#gone()", history.EditDelete, 1)
	f.Invocations.Add(view.ObjectConstructor, history.EditDelete, 1)

	c := history.NewCommit()
	c.Author = "alice"
	c.ID = "c1"
	c.AddFile(f)

	p := history.NewProject()
	p.Name = "mixed"
	p.AddCommit(c)

	return p
}

func TestProjectToView_Scenario(t *testing.T) {
	t.Parallel()

	doc := view.ProjectToView(parseOne(t, demoDump), view.Config{Mode: view.ModeDeclarations})

	assert.Equal(t, "demo", doc.Name)
	assert.Equal(t, []view.EditEvent{{CommitID: "abc123", Type: "Foo#bar()", Edit: view.Add}}, doc.Dates)
	assert.Equal(t, []string{"Foo#bar()"}, doc.Types)
	assert.Equal(t, []string{"alice"}, doc.Authors)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"dates":[{"commitID":"abc123","type":"Foo#bar()","edit":"+"}]`)
}

func TestProjectToView_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode  view.Mode
		dates []view.EditEvent
		types []string
	}{
		{
			mode: view.ModeDeclarations,
			dates: []view.EditEvent{
				{CommitID: "c1", Type: "Foo#bar()", Edit: view.Add},
				{CommitID: "c1", Type: "Foo#old()", Edit: view.Remove},
			},
			types: []string{"Foo#bar()", "Foo#old()"},
		},
		{
			mode: view.ModeTypes,
			dates: []view.EditEvent{
				{CommitID: "c1", Type: "Foo#bar()", Edit: view.Add},
				{CommitID: "c1", Type: "Foo#old()", Edit: view.Remove},
				{CommitID: "c1", Type: "Baz", Edit: view.Add},
				{CommitID: "c1", Type: "Baz", Edit: view.Remove},
			},
			types: []string{"Foo#bar()", "Foo#old()", "Baz"},
		},
		{
			mode: view.ModeInvocations,
			dates: []view.EditEvent{
				{CommitID: "c1", Type: "Baz#qux()", Edit: view.Add},
				{CommitID: "c1", Type: "#orphan()", Edit: view.Add},
				{CommitID: "c1", Type: "Baz#gone()", Edit: view.Remove},
			},
			types: []string{"Baz#qux()", "#orphan()", "Baz#gone()"},
		},
		{
			mode:  view.Mode("Everything"),
			dates: []view.EditEvent{},
			types: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()

			doc := view.ProjectToView(mixedProject(), view.Config{Mode: tt.mode})

			assert.Equal(t, tt.dates, doc.Dates)
			assert.Equal(t, tt.types, doc.Types)
			assert.Len(t, doc.Commits, 1)
		})
	}
}

func TestProjectToView_SentinelExcluded(t *testing.T) {
	t.Parallel()

	for _, mode := range []view.Mode{view.ModeTypes, view.ModeInvocations} {
		doc := view.ProjectToView(mixedProject(), view.Config{Mode: mode})

		for _, ev := range doc.Dates {
			assert.NotEqual(t, view.ObjectConstructor, ev.Type)
			assert.NotEqual(t, "java.lang.Object", ev.Type)
		}

		assert.NotContains(t, doc.Types, view.ObjectConstructor)
		assert.NotContains(t, doc.Types, "java.lang.Object")
	}
}

func commitWithFiles(id, author string, n int) *history.Commit {
	c := history.NewCommit()
	c.ID = id
	c.Author = author

	for i := range n {
		f := history.NewFile()
		f.Local = fmt.Sprintf("F%d.java", i)
		f.Declarations.Add(fmt.Sprintf("T%d", i), history.EditInsert, 1)
		c.AddFile(f)
	}

	return c
}

func TestProjectToView_LargeCommitFilter(t *testing.T) {
	t.Parallel()

	p := history.NewProject()
	p.Name = "big"
	p.AddCommit(commitWithFiles("large", "bob", 51))
	p.AddCommit(commitWithFiles("small", "alice", 49))

	ignored := view.ProjectToView(p, view.Config{Mode: view.ModeDeclarations, IgnoreLargeCommits: true})
	require.Len(t, ignored.Commits, 1)
	assert.Equal(t, "small", ignored.Commits[0].CommitID)
	assert.Len(t, ignored.Dates, 49)
	assert.Equal(t, []string{"bob", "alice"}, ignored.Authors, "authors span every commit")

	kept := view.ProjectToView(p, view.Config{Mode: view.ModeDeclarations})
	assert.Len(t, kept.Commits, 2)
	assert.Len(t, kept.Dates, 100)
	assert.Len(t, kept.Types, 51)
}

func TestProjectToView_CustomThreshold(t *testing.T) {
	t.Parallel()

	p := history.NewProject()
	p.AddCommit(commitWithFiles("three", "bob", 3))

	doc := view.ProjectToView(p, view.Config{IgnoreLargeCommits: true, LargeCommitThreshold: 2})
	assert.Empty(t, doc.Commits)
}

func TestProjectToView_SourceFilter(t *testing.T) {
	t.Parallel()

	c := history.NewCommit()
	c.ID = "c1"
	c.TouchedFiles = []string{"src/A.java", "README.md", "src/A.javax"}
	c.TreeFiles = []string{"src/A.java", "src/B.java", "build.gradle"}

	p := history.NewProject()
	p.AddCommit(c)

	doc := view.ProjectToView(p, view.DefaultConfig())
	assert.Equal(t, []string{"src/A.java"}, doc.Commits[0].Files)
	assert.Equal(t, []string{"src/A.java", "src/B.java"}, doc.Commits[0].AllFiles)

	all := view.ProjectToView(p, view.Config{})
	assert.Len(t, all.Commits[0].Files, 3)
}

func TestProjectToView_EmptyArraysEncoded(t *testing.T) {
	t.Parallel()

	doc := view.ProjectToView(history.NewProject(), view.Config{Mode: view.ModeTypes})

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"","commits":[],"dates":[],"authors":[],"types":[]}`, string(data))

	c := history.NewCommit()
	p := history.NewProject()
	p.AddCommit(c)

	data, err = json.Marshal(view.ProjectToView(p, view.DefaultConfig()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"files":[],"all_files":[]`)
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, view.ModeTypes, view.ParseMode("Types"))
	assert.Equal(t, view.Mode("types"), view.ParseMode("types"))
	assert.Equal(t, view.Mode(" Declarations "), view.ParseMode(" Declarations "))
	assert.False(t, view.ParseMode("TYPES").Known())
	assert.True(t, view.ModeDeclarations.Known())
	assert.False(t, view.Mode("Calls").Known())
}

func TestMatchMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, view.ModeTypes, view.MatchMode("types"))
	assert.Equal(t, view.ModeInvocations, view.MatchMode(" INVOCATIONS "))
	assert.Equal(t, view.Mode("Calls"), view.MatchMode("Calls"))
}

func TestModification(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+", view.Add.Symbol())
	assert.Equal(t, "-", view.Remove.Symbol())

	var m view.Modification

	require.NoError(t, m.UnmarshalText([]byte("-")))
	assert.Equal(t, view.Remove, m)
	require.ErrorIs(t, m.UnmarshalText([]byte("*")), view.ErrUnknownModification)
}
