// 包 pipeline 负责一次构建的编排：
// - 从内容目录加载记录
// - 计算 posts/guides/rssPosts 视图
// - 写出 feed.xml、data.json，并按需刷新 SQLite 快照
// - 单文件重建快照、从快照重新导出索引
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go-content-pipeline/internal/collection"
	"go-content-pipeline/internal/config"
	"go-content-pipeline/internal/export"
	"go-content-pipeline/internal/feeds"
	"go-content-pipeline/internal/logx"
	"go-content-pipeline/internal/model"
	"go-content-pipeline/internal/source"
	"go-content-pipeline/internal/store"
)

// Runner 构建执行器，持有配置/构建器/可选存储。
type Runner struct {
	cfg     *config.Config
	builder *collection.Builder
	store   *store.SQLite
	content fs.FS
}

// Result 为一次构建的产物路径与视图规模。
type Result struct {
	Records  int
	Posts    int
	Guides   int
	RSS      int
	FeedPath string
	DataPath string
	// Snapshot 为写入后的快照统计，未启用存储时为 nil
	Snapshot *model.Stats
}

// ErrNoStore 表示操作需要 SQLite 快照但未启用。
var ErrNoStore = errors.New("sqlite snapshot disabled")

// New 创建 Runner；s 为 nil 时不写快照，content 为 nil 时使用 CONTENT_DIR。
func New(cfg *config.Config, s *store.SQLite, content fs.FS) *Runner {
	if content == nil {
		content = os.DirFS(cfg.ContentDir)
	}
	return &Runner{
		cfg:     cfg,
		builder: collection.New(collection.Config{RSSCutoff: cfg.Cutoff()}),
		store:   s,
		content: content,
	}
}

// Builder 返回视图构建器。
func (r *Runner) Builder() *collection.Builder { return r.builder }

// Records 从内容目录加载全部记录。
func (r *Runner) Records() ([]model.Record, error) {
	return source.Load(r.content, r.sourceOptions())
}

func (r *Runner) sourceOptions() source.Options {
	return source.Options{PostGlob: r.cfg.PostGlob, GuideGlob: r.cfg.GuideGlob}
}

// Run 执行一次构建：加载→视图→订阅→导出→快照。
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	records, err := r.Records()
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	logx.Infof("loaded %d records from %s", len(records), r.cfg.ContentDir)

	posts := r.builder.Posts(records)
	guides := r.builder.Guides(records)
	rss := r.builder.RSSPosts(records)
	res := &Result{Records: len(records), Posts: len(posts), Guides: len(guides), RSS: len(rss)}

	xml, err := feeds.Build(rss, r.metadata(), feeds.Options{Limit: r.cfg.Feed.Limit})
	if err != nil {
		return nil, fmt.Errorf("build feed: %w", err)
	}
	res.FeedPath = filepath.Join(r.cfg.OutputDir, r.cfg.Feed.Output)
	if err := writeFile(res.FeedPath, []byte(xml)); err != nil {
		return nil, err
	}
	logx.Infof("feed written: %s (%d of %d eligible posts)", res.FeedPath, min(len(rss), r.cfg.Feed.Limit), len(rss))

	if r.cfg.Export.Path != "" {
		res.DataPath = filepath.Join(r.cfg.OutputDir, r.cfg.Export.Path)
		idx := export.Index(records, r.builder, r.cfg.Feed.Limit)
		if err := export.ToJSON(ctx, idx, res.DataPath); err != nil {
			return nil, fmt.Errorf("export index: %w", err)
		}
		logx.Infof("index written: %s", res.DataPath)
	}

	// 快照失败不影响站点产物
	if r.store != nil {
		if err := r.store.ReplaceAll(ctx, records); err != nil {
			logx.Warnf("refresh sqlite snapshot failed: %v", err)
		} else if st, err := r.store.Stats(ctx); err != nil {
			logx.Warnf("read sqlite snapshot stats failed: %v", err)
		} else {
			res.Snapshot = &st
			logx.Infof("sqlite snapshot: records=%d posts=%d guides=%d drafts=%d",
				st.RecordsTotal, st.PostsTotal, st.GuidesTotal, st.DraftsTotal)
		}
	}
	return res, nil
}

// Reindex 重新解析单个内容文件并写入快照（按 path 覆盖），无需整站构建。
// p 可以是相对内容目录的路径，也可以带 CONTENT_DIR 前缀。
func (r *Runner) Reindex(ctx context.Context, p string) (model.Record, error) {
	if r.store == nil {
		return model.Record{}, ErrNoStore
	}
	rel := r.relPath(p)
	if !fs.ValidPath(rel) {
		return model.Record{}, fmt.Errorf("invalid content path %q", p)
	}
	b, err := fs.ReadFile(r.content, rel)
	if err != nil {
		return model.Record{}, fmt.Errorf("read %s: %w", rel, err)
	}
	rec, err := source.Parse(rel, b)
	if err != nil {
		return model.Record{}, err
	}
	cl, err := source.NewClassifier(r.sourceOptions())
	if err != nil {
		return model.Record{}, err
	}
	rec.Kind = cl.Kind(rel)
	if err := r.store.UpsertRecord(ctx, rec); err != nil {
		return model.Record{}, err
	}
	logx.Infof("reindexed %s (%s)", rel, rec.Kind)
	return rec, nil
}

func (r *Runner) relPath(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	if dir := path.Clean(filepath.ToSlash(r.cfg.ContentDir)); dir != "." && dir != "" {
		p = strings.TrimPrefix(p, dir+"/")
	}
	return p
}

// Export 写出 data.json：有快照时从快照回读，否则从内容目录加载。
func (r *Runner) Export(ctx context.Context, out string) (model.Export, error) {
	var (
		idx model.Export
		err error
	)
	if r.store != nil {
		idx, err = export.FromStore(ctx, r.store, r.builder, r.cfg.Feed.Limit)
	} else {
		var records []model.Record
		if records, err = r.Records(); err == nil {
			idx = export.Index(records, r.builder, r.cfg.Feed.Limit)
		}
	}
	if err != nil {
		return model.Export{}, fmt.Errorf("build index: %w", err)
	}
	if err := export.ToJSON(ctx, idx, out); err != nil {
		return model.Export{}, fmt.Errorf("export index: %w", err)
	}
	logx.Infof("index written: %s (posts=%d guides=%d rss=%d)", out, len(idx.Posts), len(idx.Guides), len(idx.RSS))
	return idx, nil
}

func (r *Runner) metadata() feeds.Metadata {
	f := r.cfg.Feed
	return feeds.Metadata{
		Title:       f.Title,
		Subtitle:    f.Subtitle,
		Base:        f.Base,
		Language:    f.Language,
		AuthorName:  f.Author,
		AuthorEmail: f.AuthorEmail,
	}
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
