// 包 model 定义内容记录与导出结构（文章/指南/统计/索引）。
package model

import (
	"strings"
	"time"
)

// Kind 表示记录在内容树中的类型。
type Kind string

const (
	KindPost  Kind = "post"  // posts/<年>/<月>/<slug>/index.md
	KindGuide Kind = "guide" // guides/<slug>/index.md
	KindPage  Kind = "page"
)

// Record 为一条内容记录（front matter + 正文）。
// 由记录源产生后不可变，视图只返回新的切片。
type Record struct {
	Path  string `json:"path"`
	Kind  Kind   `json:"kind"`
	Title string `json:"title,omitempty"`
	// Date 保留原始形态：字符串、time.Time、Unix 毫秒或 nil
	Date   any            `json:"date,omitempty"`
	Draft  bool           `json:"draft,omitempty"`
	Body   string         `json:"-"`
	Params map[string]any `json:"params,omitempty"`
}

// Entry 为导出索引中的单条记录，日期已归一化。
type Entry struct {
	Title string `json:"title"`
	Date  string `json:"date"`
	Path  string `json:"path"`
	URL   string `json:"url"`
}

// Stats 为构建统计信息。
type Stats struct {
	RecordsTotal int       `json:"records_total"`
	PostsTotal   int       `json:"posts_total"`
	GuidesTotal  int       `json:"guides_total"`
	DraftsTotal  int       `json:"drafts_total"`
	FeedTotal    int       `json:"feed_total"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Export 为 data.json 顶层结构。
type Export struct {
	Stats  Stats   `json:"stats"`
	Posts  []Entry `json:"posts"`
	Guides []Entry `json:"guides"`
	RSS    []Entry `json:"rss"`
}

// URL 返回记录的站内地址：去掉 index.md/扩展名并以 / 结尾。
// 例：posts/2025/03/hello/index.md → /posts/2025/03/hello/
func (r Record) URL() string {
	p := strings.TrimPrefix(r.Path, "/")
	p = strings.TrimSuffix(p, "index.md")
	p = strings.TrimSuffix(p, ".md")
	if p == "" {
		return "/"
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return "/" + p
}
