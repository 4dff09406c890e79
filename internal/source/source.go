// 包 source 是内容记录的来源：
// - 遍历内容目录下的 Markdown 文件（按字典序，保证视图稳定排序的原始顺序）
// - 解析 YAML/TOML front matter，拆出 title/date/draft，其余字段放入 Params
// - 按路径 glob 区分文章（posts/*/*/*/index.md）与指南（guides/*/index.md）
package source

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/gobwas/glob"

	"go-content-pipeline/internal/logx"
	"go-content-pipeline/internal/model"
)

const (
	DefaultPostGlob  = "posts/*/*/*/index.md"
	DefaultGuideGlob = "guides/*/index.md"
)

// Options 为记录源参数，空值使用默认 glob。
type Options struct {
	PostGlob  string
	GuideGlob string
}

// Classifier 根据路径判断记录类型。
type Classifier struct {
	post  glob.Glob
	guide glob.Glob
}

// NewClassifier 编译 glob 模式（以 / 为分隔符，* 不跨目录）。
func NewClassifier(opts Options) (*Classifier, error) {
	if opts.PostGlob == "" {
		opts.PostGlob = DefaultPostGlob
	}
	if opts.GuideGlob == "" {
		opts.GuideGlob = DefaultGuideGlob
	}
	pg, err := glob.Compile(opts.PostGlob, '/')
	if err != nil {
		return nil, fmt.Errorf("compile post glob %q: %w", opts.PostGlob, err)
	}
	gg, err := glob.Compile(opts.GuideGlob, '/')
	if err != nil {
		return nil, fmt.Errorf("compile guide glob %q: %w", opts.GuideGlob, err)
	}
	return &Classifier{post: pg, guide: gg}, nil
}

// Kind 返回路径对应的记录类型。
func (c *Classifier) Kind(p string) model.Kind {
	switch {
	case c.post.Match(p):
		return model.KindPost
	case c.guide.Match(p):
		return model.KindGuide
	}
	return model.KindPage
}

// Load 读取 fsys 下全部 Markdown 记录。
// front matter 损坏的文件记录警告后跳过，不中断整体加载。
func Load(fsys fs.FS, opts Options) ([]model.Record, error) {
	cl, err := NewClassifier(opts)
	if err != nil {
		return nil, err
	}
	var out []model.Record
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".md" {
			return nil
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		rec, err := Parse(p, b)
		if err != nil {
			logx.Warnf("skip %s: %v", p, err)
			return nil
		}
		rec.Kind = cl.Kind(p)
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content: %w", err)
	}
	logx.Debugf("loaded %d records", len(out))
	return out, nil
}

// Parse 解析单个文件内容为记录（Kind 由调用方设置）。
func Parse(p string, content []byte) (model.Record, error) {
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(content), &meta)
	if err != nil {
		return model.Record{}, fmt.Errorf("parse front matter: %w", err)
	}
	rec := model.Record{Path: p, Body: string(body)}
	if v, ok := meta["title"]; ok {
		if v != nil {
			rec.Title = strings.TrimSpace(fmt.Sprint(v))
		}
		delete(meta, "title")
	}
	if v, ok := meta["date"]; ok {
		rec.Date = v
		delete(meta, "date")
	}
	if v, ok := meta["draft"]; ok {
		rec.Draft = truthy(v)
		delete(meta, "draft")
	}
	if len(meta) > 0 {
		rec.Params = make(map[string]any, len(meta))
		for k, v := range meta {
			rec.Params[k] = normalize(v)
		}
	}
	return rec, nil
}

// normalize 把 YAML 解码出的 map[any]any 递归转换为 map[string]any，便于 JSON 编码。
func normalize(v any) any {
	switch x := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[fmt.Sprint(k)] = normalize(vv)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = normalize(vv)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = normalize(vv)
		}
		return out
	}
	return v
}

// truthy 兼容 draft: true 与 draft: "true" 两种写法。
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(strings.TrimSpace(b), "true")
	}
	return false
}
