// 包 filters 将核心转换注册为模板过滤器（date/excerpt/limit/length/markdown_no_links/cache_bust）。
// 模板会传入任意字段值，所有过滤器对异常输入返回兜底值而不是报错。
package filters

import (
	"reflect"
	"strings"
	"text/template"

	"go-content-pipeline/internal/cachebust"
	"go-content-pipeline/internal/dates"
	"go-content-pipeline/internal/render"
)

// Date 对应模板中的 date 过滤器，format 为 "iso" 时输出 YYYY-MM-DD。
func Date(v any, format string) string {
	return dates.Normalize(v, dates.ParseMode(format))
}

// Excerpt 取正文前三行并以空格连接。
func Excerpt(content any) string {
	s, _ := content.(string)
	lines := strings.Split(s, "\n")
	if len(lines) > 3 {
		lines = lines[:3]
	}
	return strings.Join(lines, " ")
}

// Limit 截取切片或数组的前 n 个元素；非序列输入原样返回。
func Limit(seq any, n int) any {
	v := reflect.ValueOf(seq)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return seq
	}
	if n < 0 {
		n = 0
	}
	if n > v.Len() {
		n = v.Len()
	}
	out := reflect.MakeSlice(reflect.SliceOf(v.Type().Elem()), n, n)
	reflect.Copy(out, v)
	return out.Interface()
}

// Length 返回序列长度，nil 或不可计数的值为 0。
func Length(seq any) int {
	v := reflect.ValueOf(seq)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Chan:
		return v.Len()
	}
	return 0
}

// MarkdownNoLinks 渲染 Markdown 并去掉链接，非字符串输入返回空串。
func MarkdownNoLinks(content any) string {
	s, _ := content.(string)
	return render.NoLinks(s)
}

// CacheBust 改写 opengraph 代理地址，其余值原样返回。
func CacheBust(v any) any { return cachebust.RewriteValue(v) }

// FuncMap 返回可注册到 text/template 或 html/template 的过滤器集合。
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"date":              Date,
		"excerpt":           Excerpt,
		"limit":             Limit,
		"length":            Length,
		"markdown_no_links": MarkdownNoLinks,
		"cache_bust":        CacheBust,
	}
}
