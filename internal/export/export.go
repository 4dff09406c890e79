// 包 export 负责把视图导出为 data.json（统计 + posts/guides/rss 索引），
// 供搜索、站点地图等下游工具使用。
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-content-pipeline/internal/collection"
	"go-content-pipeline/internal/dates"
	"go-content-pipeline/internal/feeds"
	"go-content-pipeline/internal/model"
	"go-content-pipeline/internal/store"
)

// MaxPosts 为导出文章数上限（按日期倒序保留最新的部分）。
const MaxPosts = 150

// Index 基于全量记录构建导出结构：视图现算，rss 条目与订阅保持同样的反转+截取。
func Index(records []model.Record, b *collection.Builder, feedLimit int) model.Export {
	posts := collection.Limit(b.Posts(records), MaxPosts)
	guides := b.Guides(records)
	rss := feeds.Select(b.RSSPosts(records), feedLimit)

	st := model.Stats{
		RecordsTotal: len(records),
		FeedTotal:    len(rss),
		UpdatedAt:    time.Now(),
	}
	for _, r := range records {
		switch r.Kind {
		case model.KindPost:
			st.PostsTotal++
		case model.KindGuide:
			st.GuidesTotal++
		}
		if r.Draft {
			st.DraftsTotal++
		}
	}
	return model.Export{
		Stats:  st,
		Posts:  entries(posts),
		Guides: entries(guides),
		RSS:    entries(rss),
	}
}

// FromStore 从 SQLite 快照回读记录后构建导出结构。
func FromStore(ctx context.Context, s *store.SQLite, b *collection.Builder, feedLimit int) (model.Export, error) {
	records, err := s.ListRecords(ctx)
	if err != nil {
		return model.Export{}, fmt.Errorf("list records: %w", err)
	}
	return Index(records, b, feedLimit), nil
}

func entries(rs []model.Record) []model.Entry {
	out := make([]model.Entry, 0, len(rs))
	for _, r := range rs {
		out = append(out, model.Entry{
			Title: r.Title,
			Date:  dates.Normalize(r.Date, dates.ISO),
			Path:  r.Path,
			URL:   r.URL(),
		})
	}
	return out
}

// ToJSON 将导出结构写入文件（带缩进格式），必要时创建父目录。
func ToJSON(_ context.Context, e model.Export, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode json to %s: %w", path, err)
	}
	return nil
}
