package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/typetrail/pkg/catalog"
	"github.com/Sumatoshi-tech/typetrail/pkg/mcp"
	"github.com/Sumatoshi-tech/typetrail/pkg/render"
	"github.com/Sumatoshi-tech/typetrail/pkg/server"
	"github.com/Sumatoshi-tech/typetrail/pkg/view"
)

const testDump = `#PROJECT_START
#PROJECT_NAME|demo
#COMMIT_START
#AUTHOR|alice
#COMMIT_ID |aaa1
#DATE |2020-01-01 10:00:00 +0000
#FILES_TOUCHED_START
src/Foo.java
#FILES_TOUCHED_END
#STATS_START
#FILE1|src/Foo.java
#DECLARE|INSERT|Foo#bar()|1
#INVOCATIONS|INSERT|Baz#qux()|2
#STATS_END
#COMMIT_END
#COMMIT_START
#AUTHOR|bob
#COMMIT_ID |bbb2
#DATE |2020-01-02 10:00:00 +0000
#STATS_START
#FILE1|src/Foo.java
#DECLARE|DELETE|Foo#bar()|1
#STATS_END
#COMMIT_END
#PROJECT_END
`

func writeDumpDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out1.out"), []byte(testDump), 0o600))

	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand()

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestProjects_JSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "--dump", writeDumpDir(t), "-q", "projects", "--format", "json")
	require.NoError(t, err)

	var summaries []catalog.Summary

	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, catalog.Summary{Name: "demo", Commits: 2, Authors: 2, Files: 2}, summaries[0])
}

func TestProjects_Text(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "--dump", writeDumpDir(t), "-q", "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "Total: 1 projects")
}

func TestProjects_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "--dump", writeDumpDir(t), "projects", "--format", "plot")
	assert.ErrorIs(t, err, render.ErrUnsupportedFormat)
}

func TestProjects_NoDumps(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "--dump", filepath.Join(t.TempDir(), "*.out"), "-q", "projects")
	assert.Error(t, err)
}

func TestView_Declarations(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "--dump", writeDumpDir(t), "-q", "view", "demo")
	require.NoError(t, err)

	var doc view.Document

	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "demo", doc.Name)
	assert.Equal(t, []string{"Foo#bar()"}, doc.Types)
	assert.Equal(t, []view.EditEvent{
		{CommitID: "aaa1", Type: "Foo#bar()", Edit: view.Add},
		{CommitID: "bbb2", Type: "Foo#bar()", Edit: view.Remove},
	}, doc.Dates)
	assert.Equal(t, []string{"alice", "bob"}, doc.Authors)
}

func TestView_TypesToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "demo.json")

	out, err := execute(t, "--dump", writeDumpDir(t), "-q", "view", "demo", "--type", "types", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc view.Document

	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{"Foo#bar()", "Baz"}, doc.Types)
	assert.NoError(t, view.ValidateDocument(data))
}

func TestView_IgnoreLargeCommitsFlag(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "typetrail.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("view:\n  large_commit_threshold: 1\n"), 0o600))

	big := strings.Replace(testDump, "#STATS_END\n#COMMIT_END\n#COMMIT_START",
		"#STATS_END\n#STATS_START\n#FILE1|src/Other.java\n#STATS_END\n#COMMIT_END\n#COMMIT_START", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out1.out"), []byte(big), 0o600))

	out, err := execute(t, "--config", configPath, "--dump", dir, "-q", "view", "demo", "--ignore-large-commits")
	require.NoError(t, err)

	var doc view.Document

	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Commits, 1)
	assert.Equal(t, "bbb2", doc.Commits[0].CommitID)
}

func TestView_UnknownProject(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "--dump", writeDumpDir(t), "-q", "view", "missing")
	assert.ErrorIs(t, err, catalog.ErrProjectNotFound)
}

func TestView_Text(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "--dump", writeDumpDir(t), "-q", "view", "demo", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "=== demo ===")
	assert.Contains(t, out, "Foo#bar()")
}

func TestShow(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "--dump", writeDumpDir(t), "-q", "show", "demo")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "demo\n"))
	assert.Contains(t, out, "Number of Commits: 2")
}

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	dumps := writeDumpDir(t)
	snapDir := filepath.Join(t.TempDir(), "snap")

	out, err := execute(t, "--dump", dumps, "-q", "snapshot", "--out", snapDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 1 projects")

	require.NoError(t, os.RemoveAll(dumps))

	out, err = execute(t, "--snapshot-dir", snapDir, "-q", "view", "demo")
	require.NoError(t, err)

	var doc view.Document

	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Len(t, doc.Dates, 2)
}

func TestSnapshot_RejectsSnapshotInput(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "--snapshot-dir", t.TempDir(), "snapshot")
	assert.ErrorIs(t, err, ErrSnapshotInput)
}

func TestValidate_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "demo.json")

	_, err := execute(t, "--dump", writeDumpDir(t), "-q", "view", "demo", "-o", path)
	require.NoError(t, err)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Document is valid")
}

func TestValidate_Stdin(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := runValidate(strings.NewReader(`{"name":"x","commits":[],"dates":[],"authors":[],"types":[]}`), &out, "-")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "(stdin)")
}

func TestValidate_Invalid(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := runValidate(strings.NewReader(`{"name":1}`), &out, "-")
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, out.String(), "Document validation failed")
}

func TestValidate_MalformedJSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	err := runValidate(strings.NewReader(`{`), &out, "-")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidationFailed)
}

func TestServe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := &GlobalOptions{Dumps: []string{writeDumpDir(t)}, Quiet: true}

	var (
		status int
		body   []byte
	)

	cmd := newServeCommandWithDeps(opts, func(srv *server.Server) {
		defer cancel()

		resp, err := http.Get("http://" + srv.Addr() + "/projects/demo/get_project?type=Declarations")
		if err != nil {
			return
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		body, _ = io.ReadAll(resp.Body)
	})

	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--host", "127.0.0.1", "--port", "0"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Equal(t, http.StatusOK, status)

	var doc view.Document

	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "demo", doc.Name)
}

func TestMCP(t *testing.T) {
	t.Parallel()

	opts := &GlobalOptions{Dumps: []string{writeDumpDir(t)}, Quiet: true}

	var names []string

	cmd := newMCPCommandWithDeps(opts, func(srv *mcp.Server, _ context.Context) error {
		names = srv.ListToolNames()

		return nil
	})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, []string{"typetrail_get_project", "typetrail_list_projects", "typetrail_type_activity"}, names)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "typetrail "))
}
