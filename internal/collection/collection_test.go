package collection_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"go-content-pipeline/internal/collection"
	"go-content-pipeline/internal/dates"
	"go-content-pipeline/internal/model"
)

func post(path string, date any, draft bool) model.Record {
	return model.Record{Path: path, Kind: model.KindPost, Date: date, Draft: draft, Title: path}
}

func guide(title string, draft bool) model.Record {
	return model.Record{Path: "guides/" + title + "/index.md", Kind: model.KindGuide, Title: title, Draft: draft}
}

func paths(rs []model.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Path
	}
	return out
}

func sample() []model.Record {
	return []model.Record{
		post("a", "2024-06-01", false),
		post("b", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), false),
		post("c", "2025-01-01", false),
		post("d", "2025-03-04", true),
		post("e", "not-a-date", false),
		post("f", "2025-02-01", false),
		guide("zebra", false),
		guide("Apple", false),
		guide("éclair", false),
		guide("draft", true),
		{Path: "about/index.md", Kind: model.KindPage, Title: "About"},
	}
}

func TestPosts_DescendingStableNoDrafts(t *testing.T) {
	b := collection.New(collection.Config{})
	got := b.Posts(sample())
	// b 与 f 同日，保持输入顺序；无法解析的日期排在最后
	assert.Equal(t, []string{"b", "f", "c", "a", "e"}, paths(got))
}

func TestGuides_LocaleOrder(t *testing.T) {
	b := collection.New(collection.Config{})
	got := b.Guides(sample())
	titles := make([]string, len(got))
	for i, g := range got {
		titles[i] = g.Title
	}
	// 字节序会把 "Apple" 和 "éclair" 排在两端
	assert.Equal(t, []string{"Apple", "éclair", "zebra"}, titles)
}

func TestGuides_StableForEqualTitles(t *testing.T) {
	rs := []model.Record{
		{Path: "1", Kind: model.KindGuide, Title: "same"},
		{Path: "2", Kind: model.KindGuide, Title: "same"},
		{Path: "3", Kind: model.KindGuide, Title: "alpha"},
	}
	got := collection.New(collection.Config{}).Guides(rs)
	assert.Equal(t, []string{"3", "1", "2"}, paths(got))
}

func TestRSSPosts_CutoffAndAscending(t *testing.T) {
	b := collection.New(collection.Config{})
	got := b.RSSPosts(sample())
	// 截止日当天包含在内；草稿、旧文章与无效日期被剔除
	assert.Equal(t, []string{"c", "b", "f"}, paths(got))
}

func TestRSSPosts_CustomCutoff(t *testing.T) {
	b := collection.New(collection.Config{RSSCutoff: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)})
	assert.Equal(t, []string{"b", "f"}, paths(b.RSSPosts(sample())))
	assert.Equal(t, "2025-02-01", b.Cutoff().Format(time.DateOnly))
}

func TestViews_DoNotMutateInput(t *testing.T) {
	in := sample()
	before := paths(in)
	b := collection.New(collection.Config{})
	_ = b.Posts(in)
	_ = b.Guides(in)
	_ = b.RSSPosts(in)
	assert.Equal(t, before, paths(in))
}

func TestViews_EmptyInput(t *testing.T) {
	b := collection.New(collection.Config{})
	assert.Empty(t, b.Posts(nil))
	assert.Empty(t, b.Guides(nil))
	assert.Empty(t, b.RSSPosts(nil))
}

func TestView_ByName(t *testing.T) {
	b := collection.New(collection.Config{})
	for _, name := range []string{"posts", "guides", "rssPosts"} {
		_, ok := b.View(name, sample())
		assert.True(t, ok, name)
	}
	_, ok := b.View("pages", sample())
	assert.False(t, ok)
}

// 随机记录集上的性质检查
func TestViews_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	titles := []string{"alpha", "Beta", "gamma", "Ångström", "delta", "Zulu", "beta"}
	for round := 0; round < 50; round++ {
		var rs []model.Record
		for i := 0; i < 30; i++ {
			d := time.Date(2023+rng.Intn(3), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
			r := model.Record{
				Path:  string(rune('a' + i%26)),
				Date:  d.Format(time.DateOnly),
				Draft: rng.Intn(4) == 0,
				Title: titles[rng.Intn(len(titles))],
			}
			if rng.Intn(2) == 0 {
				r.Kind = model.KindPost
			} else {
				r.Kind = model.KindGuide
			}
			rs = append(rs, r)
		}
		b := collection.New(collection.Config{})
		posts, guides, rss := b.Posts(rs), b.Guides(rs), b.RSSPosts(rs)
		for _, view := range [][]model.Record{posts, guides, rss} {
			for _, r := range view {
				require.False(t, r.Draft)
			}
		}
		for i := 1; i < len(posts); i++ {
			prev, _ := dates.Parse(posts[i-1].Date)
			cur, _ := dates.Parse(posts[i].Date)
			require.False(t, cur.After(prev))
		}
		c := collate.New(language.Make("en-AU"))
		for i := 1; i < len(guides); i++ {
			require.LessOrEqual(t, c.CompareString(guides[i-1].Title, guides[i].Title), 0)
		}
		for i, r := range rss {
			cur, _ := dates.Parse(r.Date)
			require.False(t, cur.Before(collection.DefaultRSSCutoff))
			if i > 0 {
				prev, _ := dates.Parse(rss[i-1].Date)
				require.False(t, cur.Before(prev))
			}
		}
	}
}

func TestLimit(t *testing.T) {
	assert.Equal(t, []int{1, 2}, collection.Limit([]int{1, 2, 3, 4}, 2))
	assert.Equal(t, []int{1, 2}, collection.Limit([]int{1, 2}, 10))
	assert.Equal(t, []int{}, collection.Limit([]int{1, 2}, 0))
	assert.Equal(t, []int{}, collection.Limit([]int{1, 2}, -1))
	assert.Equal(t, []int{}, collection.Limit([]int(nil), 3))

	src := []int{1, 2, 3}
	out := collection.Limit(src, 2)
	out[0] = 9
	assert.Equal(t, 1, src[0])
}
