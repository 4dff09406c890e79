// 包 feeds 负责订阅的生成与校验：
// - Build：把 rssPosts 视图反转、截取后生成 RSS 2.0（gorilla/feeds）
// - Parse/Fetch：使用 gofeed 解析已生成或已发布的订阅，便于核对顺序与条目数
package feeds

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"go-content-pipeline/internal/fetch"
)

// Item 为解析后的订阅条目。
type Item struct {
	Title     string
	Link      string
	Author    string
	Published time.Time
	Updated   time.Time
}

// Summary 为解析后的订阅概要。
type Summary struct {
	Title    string
	Link     string
	Language string
	Items    []Item
}

// Parse 解析 RSS/Atom/JSON Feed 并归一化条目（保持文档顺序）。
func Parse(r io.Reader) (*Summary, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	s := &Summary{
		Title:    safe(feed.Title),
		Link:     safe(feed.Link),
		Language: safe(feed.Language),
		Items:    make([]Item, 0, len(feed.Items)),
	}
	for _, it := range feed.Items {
		s.Items = append(s.Items, Item{
			Title:     safe(it.Title),
			Link:      safe(it.Link),
			Author:    authorName(it),
			Published: pickTime(it.PublishedParsed, it.UpdatedParsed),
			Updated:   pickTime(it.UpdatedParsed, it.PublishedParsed),
		})
	}
	return s, nil
}

// Fetch 抓取远端订阅并解析，用于核对已发布的 feed.xml。
func Fetch(ctx context.Context, cl *fetch.Client, feedURL string) (*Summary, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 25*time.Second)
	defer cancel()
	resp, err := cl.Get(reqCtx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("GET feed %s: %w", feedURL, err)
	}
	defer resp.Body.Close()
	return Parse(resp.Body)
}

// NewestFirst 检查条目是否按发布时间倒序。
func (s *Summary) NewestFirst() bool {
	for i := 1; i < len(s.Items); i++ {
		if s.Items[i].Published.After(s.Items[i-1].Published) {
			return false
		}
	}
	return true
}

func pickTime(a, b *time.Time) time.Time {
	if a != nil {
		return *a
	}
	if b != nil {
		return *b
	}
	return time.Time{}
}

func authorName(it *gofeed.Item) string {
	if it.Author != nil {
		if it.Author.Name != "" {
			return it.Author.Name
		}
		if it.Author.Email != "" {
			return it.Author.Email
		}
	}
	return ""
}

func safe(s string) string { return strings.TrimSpace(s) }
