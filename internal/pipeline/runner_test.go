package pipeline_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-content-pipeline/internal/config"
	"go-content-pipeline/internal/feeds"
	"go-content-pipeline/internal/model"
	"go-content-pipeline/internal/pipeline"
	"go-content-pipeline/internal/store"
)

func content() fstest.MapFS {
	fsys := fstest.MapFS{
		"guides/setup/index.md":       {Data: []byte("---\ntitle: Setup\n---\nSteps.\n")},
		"posts/2024/05/old/index.md":  {Data: []byte("---\ntitle: Old\ndate: 2024-05-01\n---\nold\n")},
		"posts/2025/02/wip/index.md":  {Data: []byte("---\ntitle: WIP\ndate: 2025-02-10\ndraft: true\n---\nwip\n")},
		"posts/2025/02/note/index.md": {Data: []byte("---\ntitle: Note\ndate: 2025-02-11\n---\nSee [this](https://x).\n")},
	}
	for i := 1; i <= 11; i++ {
		p := fmt.Sprintf("posts/2025/03/p%02d/index.md", i)
		fsys[p] = &fstest.MapFile{Data: []byte(fmt.Sprintf("---\ntitle: P%02d\ndate: 2025-03-%02d\n---\nbody\n", i, i))}
	}
	return fsys
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		OutputDir: t.TempDir(),
		Feed:      config.Feed{Title: "Blog", Base: "https://blog.example.com/"},
		Export:    config.Export{Path: "data.json"},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunner_BuildsFeedAndIndex(t *testing.T) {
	cfg := testConfig(t)
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer s.Close()

	res, err := pipeline.New(cfg, s, content()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, res.Records)
	assert.Equal(t, 13, res.Posts)
	assert.Equal(t, 1, res.Guides)
	assert.Equal(t, 12, res.RSS)

	f, err := os.Open(res.FeedPath)
	require.NoError(t, err)
	defer f.Close()
	sum, err := feeds.Parse(f)
	require.NoError(t, err)
	require.Len(t, sum.Items, 10)
	assert.Equal(t, "P11", sum.Items[0].Title)
	assert.True(t, sum.NewestFirst())

	_, err = os.Stat(res.DataPath)
	require.NoError(t, err)

	rs, err := s.ListRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, rs, 15)
	require.NotNil(t, res.Snapshot)
	assert.Equal(t, 15, res.Snapshot.RecordsTotal)
	assert.Equal(t, 14, res.Snapshot.PostsTotal)
	assert.Equal(t, 1, res.Snapshot.DraftsTotal)
}

func TestRunner_SameDayOrderSurvivesSnapshot(t *testing.T) {
	cfg := testConfig(t)
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer s.Close()
	fsys := fstest.MapFS{
		"posts/2025/03/am/index.md": {Data: []byte("---\ntitle: AM\ndate: 2025-03-04T08:00:00Z\n---\n")},
		"posts/2025/03/pm/index.md": {Data: []byte("---\ntitle: PM\ndate: 2025-03-04T20:00:00Z\n---\n")},
	}
	r := pipeline.New(cfg, s, fsys)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	fromFS, err := r.Records()
	require.NoError(t, err)
	fromDB, err := s.ListRecords(context.Background())
	require.NoError(t, err)
	want := r.Builder().Posts(fromFS)
	got := r.Builder().Posts(fromDB)
	require.Len(t, got, 2)
	assert.Equal(t, want[0].Title, got[0].Title)
	assert.Equal(t, "PM", got[0].Title)
}

func TestRunner_ReindexAndExportFromStore(t *testing.T) {
	cfg := testConfig(t)
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer s.Close()
	fsys := content()
	r := pipeline.New(cfg, s, fsys)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	// 修改一篇文章后只重建这一条
	fsys["posts/2025/03/p11/index.md"] = &fstest.MapFile{Data: []byte("---\ntitle: P11 edited\ndate: 2025-03-11\n---\nbody\n")}
	rec, err := r.Reindex(context.Background(), cfg.ContentDir+"/posts/2025/03/p11/index.md")
	require.NoError(t, err)
	assert.Equal(t, model.KindPost, rec.Kind)
	assert.Equal(t, "P11 edited", rec.Title)

	out := filepath.Join(t.TempDir(), "data.json")
	idx, err := r.Export(context.Background(), out)
	require.NoError(t, err)
	require.NotEmpty(t, idx.RSS)
	assert.Equal(t, "P11 edited", idx.RSS[0].Title)
	assert.Equal(t, 15, idx.Stats.RecordsTotal)
	_, err = os.Stat(out)
	require.NoError(t, err)

	_, err = r.Reindex(context.Background(), "../outside.md")
	assert.Error(t, err)
}

func TestRunner_ReindexNeedsStore(t *testing.T) {
	_, err := pipeline.New(testConfig(t), nil, content()).Reindex(context.Background(), "guides/setup/index.md")
	assert.ErrorIs(t, err, pipeline.ErrNoStore)
}

func TestRunner_ExportFromContent(t *testing.T) {
	cfg := testConfig(t)
	idx, err := pipeline.New(cfg, nil, content()).Export(context.Background(), filepath.Join(cfg.OutputDir, "data.json"))
	require.NoError(t, err)
	assert.Len(t, idx.Posts, 13)
	assert.Len(t, idx.RSS, 10)
}

func TestRunner_NoExportNoStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Path = ""
	res, err := pipeline.New(cfg, nil, content()).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.DataPath)
	_, err = os.Stat(filepath.Join(cfg.OutputDir, "feed.xml"))
	assert.NoError(t, err)
}
