// 包 collection 从全量记录派生有序视图：
// - posts：文章，按日期倒序
// - guides：指南，按标题本地化排序
// - rssPosts：截止日期之后的文章，按日期正序（订阅生成器会再反转）
// 每次调用都重新计算，不缓存、不修改输入；所有排序均为稳定排序。
package collection

import (
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"go-content-pipeline/internal/dates"
	"go-content-pipeline/internal/logx"
	"go-content-pipeline/internal/model"
)

// DefaultRSSCutoff 早于该日期的文章不进入订阅视图（仍出现在 posts 中）。
var DefaultRSSCutoff = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultLocale 为标题排序使用的语言。
var DefaultLocale = language.Make("en-AU")

// Config 为视图构建参数。
type Config struct {
	RSSCutoff time.Time
	Locale    language.Tag
}

// Builder 按配置构建视图，本身无可变状态，可并发使用。
type Builder struct {
	cfg Config
}

// New 创建 Builder，零值字段回退到默认值。
func New(cfg Config) *Builder {
	if cfg.RSSCutoff.IsZero() {
		cfg.RSSCutoff = DefaultRSSCutoff
	}
	if cfg.Locale == language.Und {
		cfg.Locale = DefaultLocale
	}
	return &Builder{cfg: cfg}
}

// Cutoff 返回订阅视图的截止日期。
func (b *Builder) Cutoff() time.Time { return b.cfg.RSSCutoff }

type dated struct {
	rec  model.Record
	date time.Time
	ok   bool
}

// published 过滤出指定类型的非草稿记录并附带解析后的日期（解析失败为零值）。
func published(records []model.Record, kind model.Kind) []dated {
	out := make([]dated, 0, len(records))
	for _, r := range records {
		if r.Kind != kind || r.Draft {
			continue
		}
		t, ok := dates.Parse(r.Date)
		out = append(out, dated{rec: r, date: t, ok: ok})
	}
	return out
}

func unwrap(in []dated) []model.Record {
	out := make([]model.Record, len(in))
	for i, d := range in {
		out[i] = d.rec
	}
	return out
}

// Posts 返回全部已发布文章，最新在前。
func (b *Builder) Posts(records []model.Record) []model.Record {
	ps := published(records, model.KindPost)
	slices.SortStableFunc(ps, func(x, y dated) int { return y.date.Compare(x.date) })
	logx.Debugf("view=posts size=%d", len(ps))
	return unwrap(ps)
}

// Guides 返回全部已发布指南，按标题本地化升序。
func (b *Builder) Guides(records []model.Record) []model.Record {
	gs := make([]model.Record, 0, len(records))
	for _, r := range records {
		if r.Kind == model.KindGuide && !r.Draft {
			gs = append(gs, r)
		}
	}
	// collate.Collator 非并发安全，每次调用单独创建
	c := collate.New(b.cfg.Locale)
	slices.SortStableFunc(gs, func(x, y model.Record) int { return c.CompareString(x.Title, y.Title) })
	logx.Debugf("view=guides size=%d", len(gs))
	return gs
}

// RSSPosts 返回截止日期（含）之后的已发布文章，最旧在前。
// 正序是订阅生成器的输入约定：生成器先反转再截取。
func (b *Builder) RSSPosts(records []model.Record) []model.Record {
	ps := published(records, model.KindPost)
	kept := ps[:0]
	for _, p := range ps {
		if p.ok && !p.date.Before(b.cfg.RSSCutoff) {
			kept = append(kept, p)
		}
	}
	slices.SortStableFunc(kept, func(x, y dated) int { return x.date.Compare(y.date) })
	logx.Debugf("view=rssPosts size=%d cutoff=%s", len(kept), b.cfg.RSSCutoff.Format(time.DateOnly))
	return unwrap(kept)
}

// View 按名称返回视图，未知名称返回 false。
func (b *Builder) View(name string, records []model.Record) ([]model.Record, bool) {
	switch name {
	case "posts":
		return b.Posts(records), true
	case "guides":
		return b.Guides(records), true
	case "rssPosts":
		return b.RSSPosts(records), true
	}
	return nil, false
}

// Limit 返回前 n 个元素；n 超过长度时返回全部，n <= 0 时返回空切片。
func Limit[T any](s []T, n int) []T {
	if n <= 0 {
		return []T{}
	}
	if n > len(s) {
		n = len(s)
	}
	out := make([]T, n)
	copy(out, s)
	return out
}
