// 命令行入口：
// - 加载 .env、settings.yaml 并初始化日志
// - build：加载内容→计算视图→写出 feed.xml / data.json（可选 SQLite 快照）
// - views：打印某个视图，便于排查排序与过滤
// - export：单独重写 data.json（可从 SQLite 快照回读）
// - index：重新解析单个内容文件并写入 SQLite 快照
// - check-feed：解析本地或已发布的订阅，核对条目数与顺序
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"go-content-pipeline/internal/collection"
	"go-content-pipeline/internal/config"
	"go-content-pipeline/internal/dates"
	"go-content-pipeline/internal/feeds"
	"go-content-pipeline/internal/fetch"
	"go-content-pipeline/internal/logx"
	"go-content-pipeline/internal/model"
	"go-content-pipeline/internal/pipeline"
	"go-content-pipeline/internal/store"
)

var CLI struct {
	Config string `short:"c" help:"Configuration file path" default:"settings.yaml"`
	Env    string `help:"Dotenv file loaded before the configuration" default:".env"`

	Build struct {
		Reset bool `help:"Clear the SQLite snapshot before writing"`
	} `cmd:"" help:"Build the feed and index from the content directory"`

	Views struct {
		Name   string `arg:"" enum:"posts,guides,rssPosts" help:"View to print (posts, guides, rssPosts)"`
		Limit  int    `short:"n" help:"Print at most N entries (0 = all)"`
		FromDB bool   `name:"from-db" help:"Read records from the SQLite snapshot instead of the content directory"`
	} `cmd:"" help:"Print an ordered view"`

	Export struct {
		Out    string `short:"o" help:"Output path (defaults to OUTPUT_DIR/EXPORT.path)"`
		FromDB bool   `name:"from-db" help:"Build the index from the SQLite snapshot"`
	} `cmd:"" help:"Write the JSON index without rebuilding the feed"`

	Index struct {
		Path string `arg:"" help:"Content file to re-parse, relative to CONTENT_DIR"`
	} `cmd:"" help:"Re-parse one content file into the SQLite snapshot"`

	CheckFeed struct {
		Target string `arg:"" help:"Feed file path or URL"`
		Retry  int    `help:"Retries for remote feeds" default:"2"`
	} `cmd:"" help:"Parse a feed and verify its entry order"`
}

func main() {
	kctx := kong.Parse(&CLI, kong.Name("pipeline"), kong.Description("Content pipeline for a static blog."))

	if err := config.LoadDotEnv(CLI.Env); err != nil {
		fmt.Fprintf(os.Stderr, "load env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logx.Init(logx.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Locale: cfg.LogLocale, Color: cfg.LogColor})

	ctx := context.Background()
	switch kctx.Command() {
	case "build":
		err = runBuild(ctx, cfg, CLI.Build.Reset)
	case "views <name>":
		err = runViews(ctx, cfg, CLI.Views.Name, CLI.Views.Limit, CLI.Views.FromDB)
	case "export":
		err = runExport(ctx, cfg, CLI.Export.Out, CLI.Export.FromDB)
	case "index <path>":
		err = runIndex(ctx, cfg, CLI.Index.Path)
	case "check-feed <target>":
		err = runCheckFeed(ctx, CLI.CheckFeed.Target, CLI.CheckFeed.Retry)
	default:
		err = fmt.Errorf("unknown command %q", kctx.Command())
	}
	if err != nil {
		logx.Errorf("%s failed: %v", kctx.Command(), err)
		os.Exit(1)
	}
}

func runBuild(ctx context.Context, cfg *config.Config, reset bool) error {
	var st *store.SQLite
	if cfg.Database.Enabled {
		var err error
		st, err = store.OpenSQLite(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer st.Close()
		if reset {
			if err := st.Reset(ctx); err != nil {
				logx.Warnf("reset sqlite snapshot failed: %v", err)
			}
		}
	}
	start := time.Now()
	res, err := pipeline.New(cfg, st, nil).Run(ctx)
	if err != nil {
		return err
	}
	logx.Infof("build done in %s: records=%d posts=%d guides=%d rss=%d",
		time.Since(start).Round(time.Millisecond), res.Records, res.Posts, res.Guides, res.RSS)
	return nil
}

func runViews(ctx context.Context, cfg *config.Config, name string, limit int, fromDB bool) error {
	var (
		records []model.Record
		err     error
	)
	runner := pipeline.New(cfg, nil, nil)
	if fromDB {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if records, err = st.ListRecords(ctx); err != nil {
			return err
		}
	} else if records, err = runner.Records(); err != nil {
		return err
	}
	view, ok := runner.Builder().View(name, records)
	if !ok {
		return fmt.Errorf("unknown view %q", name)
	}
	if limit > 0 {
		view = collection.Limit(view, limit)
	}
	for _, r := range view {
		fmt.Printf("%s  %-40s  %s\n", dates.Normalize(r.Date, dates.ISO), r.Title, r.URL())
	}
	return nil
}

func openStore(cfg *config.Config) (*store.SQLite, error) {
	if !cfg.Database.Enabled {
		return nil, fmt.Errorf("DATABASE.enabled is false")
	}
	st, err := store.OpenSQLite(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return st, nil
}

func runExport(ctx context.Context, cfg *config.Config, out string, fromDB bool) error {
	if out == "" {
		if cfg.Export.Path == "" {
			return fmt.Errorf("no output path: set EXPORT.path or --out")
		}
		out = filepath.Join(cfg.OutputDir, cfg.Export.Path)
	}
	var st *store.SQLite
	if fromDB {
		var err error
		if st, err = openStore(cfg); err != nil {
			return err
		}
		defer st.Close()
	}
	_, err := pipeline.New(cfg, st, nil).Export(ctx, out)
	return err
}

func runIndex(ctx context.Context, cfg *config.Config, p string) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	rec, err := pipeline.New(cfg, st, nil).Reindex(ctx, p)
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  %s  draft=%t\n", rec.Kind, dates.Normalize(rec.Date, dates.ISO), rec.Title, rec.Draft)
	return nil
}

func runCheckFeed(ctx context.Context, target string, retry int) error {
	var (
		sum *feeds.Summary
		err error
	)
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		cl, cerr := fetch.New(fetch.Options{Retry: retry})
		if cerr != nil {
			return cerr
		}
		sum, err = feeds.Fetch(ctx, cl, target)
	} else {
		f, ferr := os.Open(target)
		if ferr != nil {
			return fmt.Errorf("open %s: %w", target, ferr)
		}
		defer f.Close()
		sum, err = feeds.Parse(f)
	}
	if err != nil {
		return err
	}
	logx.Infof("%s: %q items=%d language=%s", target, sum.Title, len(sum.Items), sum.Language)
	for _, it := range sum.Items {
		fmt.Printf("%s  %s\n", it.Published.Format(time.DateOnly), it.Title)
	}
	if !sum.NewestFirst() {
		return fmt.Errorf("entries are not newest first")
	}
	return nil
}
