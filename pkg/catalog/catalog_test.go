package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/typetrail/pkg/catalog"
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

func writeDumps(t *testing.T, contents ...string) []dump.Source {
	t.Helper()

	dir := t.TempDir()

	for i, content := range contents {
		path := filepath.Join(dir, "dump"+string(rune('a'+i))+".out")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	sources, err := dump.Glob(0, dir)
	require.NoError(t, err)

	return sources
}

func TestCatalog_NotReadyBeforeLoad(t *testing.T) {
	t.Parallel()

	c := catalog.New()

	require.ErrorIs(t, c.Ready(context.Background()), catalog.ErrNotReady)

	_, err := c.Project("demo")
	require.ErrorIs(t, err, catalog.ErrNotReady)

	_, err = c.View(context.Background(), "demo", view.DefaultConfig())
	require.ErrorIs(t, err, catalog.ErrNotReady)
	assert.Nil(t, c.Snapshot())
}

func TestCatalog_Load(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	c := catalog.New(catalog.WithTracer(tp.Tracer("test")))

	stats, err := c.Load(context.Background(), writeDumps(t, demoDump, strings.Replace(demoDump, "demo", "other", 1)))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Projects)
	require.NoError(t, c.Ready(context.Background()))

	summaries, err := c.Summaries()
	require.NoError(t, err)
	assert.Equal(t, []catalog.Summary{
		{Name: "demo", Commits: 1, Authors: 1, Files: 1},
		{Name: "other", Commits: 1, Authors: 1, Files: 1},
	}, summaries)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "catalog.load", spans[0].Name)
}

func TestCatalog_ProjectNotFound(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	require.NoError(t, c.Publish(nil))

	_, err := c.Project("missing")
	require.ErrorIs(t, err, catalog.ErrProjectNotFound)

	_, err = c.View(context.Background(), "missing", view.DefaultConfig())
	require.ErrorIs(t, err, catalog.ErrProjectNotFound)

	projects, err := c.Projects()
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestCatalog_DuplicateNamesResolveToFirst(t *testing.T) {
	t.Parallel()

	first := history.NewProject()
	first.Name = "dup"
	first.AddCommit(history.NewCommit())

	second := history.NewProject()
	second.Name = "dup"

	c := catalog.New()
	require.NoError(t, c.Publish([]*history.Project{first, second}))

	got, err := c.Project("dup")
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestCatalog_ViewCache(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	_, err := c.Load(context.Background(), writeDumps(t, demoDump))
	require.NoError(t, err)

	ctx := context.Background()
	cfg := view.Config{Mode: view.ModeDeclarations}

	first, err := c.View(ctx, "demo", cfg)
	require.NoError(t, err)

	second, err := c.View(ctx, "demo", cfg)
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := c.View(ctx, "demo", view.Config{Mode: view.ModeTypes})
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	require.NoError(t, c.Publish(c.Snapshot().Projects()))

	fresh, err := c.View(ctx, "demo", cfg)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.Equal(t, first, fresh)
}

func TestCatalog_FailedLoadKeepsSnapshot(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	_, err := c.Load(context.Background(), writeDumps(t, demoDump))
	require.NoError(t, err)

	before := c.Snapshot()

	bad := strings.Replace(demoDump, "Foo#bar()|1", "Foo#bar()|one", 1)

	_, err = c.Load(context.Background(), writeDumps(t, bad))
	require.ErrorIs(t, err, dump.ErrInvalidCount)
	assert.Same(t, before, c.Snapshot())
}

func TestCatalog_ConcurrentReadersDuringPublish(t *testing.T) {
	t.Parallel()

	c := catalog.New()
	sources := writeDumps(t, demoDump)

	_, err := c.Load(context.Background(), sources)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 50 {
				doc, viewErr := c.View(context.Background(), "demo", view.DefaultConfig())
				if assert.NoError(t, viewErr) {
					assert.Len(t, doc.Dates, 1)
				}
			}
		}()
	}

	for range 5 {
		_, loadErr := c.Load(context.Background(), sources)
		require.NoError(t, loadErr)
	}

	wg.Wait()
}
