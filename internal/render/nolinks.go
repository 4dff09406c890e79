// 包 render 提供去链接的 Markdown 渲染（用于摘要/卡片预览）：
// - 禁用原始 HTML（按普通文本转义输出）、不做自动链接识别、单个换行即硬换行
// - 显式启用缩进代码块
// - 链接只保留内部文本，其余节点按 goldmark 默认规则渲染
package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"go-content-pipeline/internal/logx"
)

// Renderer 持有配置好的 goldmark 实例，可并发复用。
type Renderer struct {
	md goldmark.Markdown
}

// New 构建去链接渲染器。
func New() *Renderer {
	p := parser.NewParser(
		parser.WithBlockParsers(blockParsers()...),
		parser.WithInlineParsers(inlineParsers()...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
	)
	md := goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			// 优先级数值小于默认 HTML 渲染器（1000），后注册而覆盖 Link/AutoLink
			renderer.WithNodeRenderers(util.Prioritized(&linkSuppressor{}, 100)),
		),
	)
	return &Renderer{md: md}
}

// blockParsers 与 goldmark 默认集合一致，但去掉 HTML 块解析器；
// 缩进代码块解析器保留在列表中。
func blockParsers() []util.PrioritizedValue {
	return []util.PrioritizedValue{
		util.Prioritized(parser.NewSetextHeadingParser(), 100),
		util.Prioritized(parser.NewThematicBreakParser(), 200),
		util.Prioritized(parser.NewListParser(), 300),
		util.Prioritized(parser.NewListItemParser(), 400),
		util.Prioritized(parser.NewCodeBlockParser(), 500),
		util.Prioritized(parser.NewATXHeadingParser(), 600),
		util.Prioritized(parser.NewFencedCodeBlockParser(), 700),
		util.Prioritized(parser.NewBlockquoteParser(), 800),
		util.Prioritized(parser.NewParagraphParser(), 1000),
	}
}

// inlineParsers 去掉原始 HTML 行内解析器，尖括号按文本转义。
func inlineParsers() []util.PrioritizedValue {
	return []util.PrioritizedValue{
		util.Prioritized(parser.NewCodeSpanParser(), 100),
		util.Prioritized(parser.NewLinkParser(), 200),
		util.Prioritized(parser.NewAutoLinkParser(), 300),
		util.Prioritized(parser.NewEmphasisParser(), 500),
	}
}

// Render 渲染 Markdown；空输入直接返回空串。
func (r *Renderer) Render(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		logx.Debugf("markdown render failed: %v", err)
		return ""
	}
	return buf.String()
}

var std = New()

// NoLinks 使用包级渲染器渲染 Markdown 并去掉所有链接外壳。
func NoLinks(src string) string { return std.Render(src) }

// linkSuppressor 覆盖链接节点的渲染：
// - Link：开闭标签都输出为空，子节点照常渲染
// - AutoLink：没有子节点，只输出转义后的标签文本
type linkSuppressor struct{}

func (s *linkSuppressor) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindLink, s.renderLink)
	reg.Register(ast.KindAutoLink, s.renderAutoLink)
}

func (s *linkSuppressor) renderLink(_ util.BufWriter, _ []byte, _ ast.Node, _ bool) (ast.WalkStatus, error) {
	return ast.WalkContinue, nil
}

func (s *linkSuppressor) renderAutoLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.AutoLink)
	_, _ = w.Write(util.EscapeHTML(n.Label(source)))
	return ast.WalkContinue, nil
}
