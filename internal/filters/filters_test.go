package filters_test

import (
	"bytes"
	"strings"
	"testing"
	"text/template"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-content-pipeline/internal/filters"
)

func TestDate(t *testing.T) {
	assert.Equal(t, "2025-03-04", filters.Date("2025-03-04", "iso"))
	assert.Equal(t, "4 March 2025", filters.Date("2025-03-04", ""))
	assert.Equal(t, "Invalid Date", filters.Date(nil, "long"))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "one two three", filters.Excerpt("one\ntwo\nthree\nfour"))
	assert.Equal(t, "single", filters.Excerpt("single"))
	assert.Equal(t, "", filters.Excerpt(nil))
}

func TestLimitAndLength(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, filters.Limit([]string{"a", "b", "c"}, 2))
	assert.Equal(t, []int{1, 2}, filters.Limit([2]int{1, 2}, 5))
	assert.Equal(t, []int{}, filters.Limit([]int{1}, -3))
	assert.Equal(t, "x", filters.Limit("x", 1))

	assert.Equal(t, 3, filters.Length([]int{1, 2, 3}))
	assert.Equal(t, 0, filters.Length(nil))
	assert.Equal(t, 0, filters.Length(12))
	assert.Equal(t, 2, filters.Length(map[string]int{"a": 1, "b": 2}))
}

func TestMarkdownNoLinks(t *testing.T) {
	assert.Equal(t, "", filters.MarkdownNoLinks(nil))
	assert.Equal(t, "", filters.MarkdownNoLinks(""))
	assert.Equal(t, "<p>hi</p>\n", filters.MarkdownNoLinks("[hi](https://x)"))
}

func TestFuncMap_Template(t *testing.T) {
	const page = `{{ range limit .Posts 2 }}<article><time datetime="{{ date .Date "iso" }}">{{ date .Date "long" }}</time>{{ markdown_no_links .Body }}<img src="{{ cache_bust .Image }}"></article>{{ end }}<p id="n">{{ length .Posts }}</p>`
	tpl, err := template.New("page").Funcs(filters.FuncMap()).Parse(page)
	require.NoError(t, err)

	type post struct {
		Date  any
		Body  string
		Image any
	}
	data := map[string]any{"Posts": []post{
		{Date: "2025-03-04", Body: "see [here](https://x)", Image: "https://opengraph.githubassets.com/abc/o/r"},
		{Date: nil, Body: "", Image: nil},
		{Date: "2020-01-01", Body: "hidden", Image: "https://other/x"},
	}}
	var buf bytes.Buffer
	require.NoError(t, tpl.Execute(&buf, data))

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Find("article").Length())
	assert.Equal(t, 0, doc.Find("a").Length())
	assert.Equal(t, "3", doc.Find("#n").Text())

	first := doc.Find("article").First()
	iso, _ := first.Find("time").Attr("datetime")
	assert.Equal(t, "2025-03-04", iso)
	assert.Equal(t, "4 March 2025", first.Find("time").Text())
	src, _ := first.Find("img").Attr("src")
	assert.True(t, strings.HasPrefix(src, "https://opengraph.githubassets.com/"))
	assert.NotContains(t, src, "/abc/")

	second := doc.Find("article").Eq(1)
	iso, _ = second.Find("time").Attr("datetime")
	assert.Equal(t, "1970-01-01", iso)
	assert.Equal(t, "Invalid Date", second.Find("time").Text())
}
