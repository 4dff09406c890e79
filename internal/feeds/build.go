package feeds

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	gfeeds "github.com/gorilla/feeds"

	"go-content-pipeline/internal/collection"
	"go-content-pipeline/internal/dates"
	"go-content-pipeline/internal/filters"
	"go-content-pipeline/internal/model"
	"go-content-pipeline/internal/render"
)

// DefaultLimit 为订阅条目上限。
const DefaultLimit = 10

// Metadata 为订阅的静态信息（来自配置）。
type Metadata struct {
	Title       string
	Subtitle    string
	Base        string
	Language    string
	AuthorName  string
	AuthorEmail string
}

// Options 为订阅生成参数。
type Options struct {
	Limit int
	// Now 为空时使用 time.Now，仅在没有任何条目时用作更新时间
	Now func() time.Time
}

// Select 按订阅约定挑选条目：输入为 rssPosts 视图（日期正序），
// 先反转为最新在前，再截取前 limit 条。
func Select(entries []model.Record, limit int) []model.Record {
	if limit == 0 {
		limit = DefaultLimit
	}
	rev := slices.Clone(entries)
	slices.Reverse(rev)
	return collection.Limit(rev, limit)
}

// Build 生成 RSS 2.0 文档。
func Build(entries []model.Record, meta Metadata, opts Options) (string, error) {
	selected := Select(entries, opts.Limit)
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	f := &gfeeds.Feed{
		Title:       meta.Title,
		Link:        &gfeeds.Link{Href: meta.Base},
		Description: meta.Subtitle,
		Updated:     now(),
	}
	// managingEditor 必须是邮箱，只有名字时不写
	if meta.AuthorEmail != "" {
		f.Author = &gfeeds.Author{Name: meta.AuthorName, Email: meta.AuthorEmail}
	}
	for i, r := range selected {
		link := joinURL(meta.Base, r.URL())
		created, _ := dates.Parse(r.Date)
		if i == 0 {
			f.Updated = created
		}
		f.Items = append(f.Items, &gfeeds.Item{
			Title:       r.Title,
			Link:        &gfeeds.Link{Href: link},
			Id:          link,
			Created:     created,
			Description: render.NoLinks(filters.Excerpt(r.Body)),
		})
	}
	rss := (&gfeeds.Rss{Feed: f}).RssFeed()
	rss.Language = meta.Language
	out, err := gfeeds.ToXML(rss)
	if err != nil {
		return "", fmt.Errorf("encode rss: %w", err)
	}
	return out, nil
}

// joinURL 将站内路径解析为基于 base 的绝对 URL。
func joinURL(base, ref string) string {
	if base == "" || strings.HasPrefix(ref, "http") {
		return ref
	}
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + ref
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return strings.TrimSuffix(base, "/") + ref
	}
	return u.ResolveReference(ru).String()
}
