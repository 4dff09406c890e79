// 包 config 负责加载与校验构建配置（settings.yaml），
// 对外提供结构体 Config 及默认值/合法性校验；.env 与环境变量可覆盖部分字段。
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-content-pipeline/internal/collection"
	"go-content-pipeline/internal/dates"
)

type Config struct {
	ContentDir string   `yaml:"CONTENT_DIR"`
	OutputDir  string   `yaml:"OUTPUT_DIR"`
	PostGlob   string   `yaml:"POST_GLOB"`
	GuideGlob  string   `yaml:"GUIDE_GLOB"`
	RSSCutoff  string   `yaml:"RSS_CUTOFF"` // YYYY-MM-DD
	Feed       Feed     `yaml:"FEED"`
	Export     Export   `yaml:"EXPORT"`
	Database   Database `yaml:"DATABASE"`
	LogLevel   string   `yaml:"LOG_LEVEL"`
	LogFormat  string   `yaml:"LOG_FORMAT"` // pretty|json|text
	LogLocale  string   `yaml:"LOG_LOCALE"` // en|zh-CN
	LogColor   string   `yaml:"LOG_COLOR"`  // auto|always|never

	cutoff time.Time
}

// Feed 为订阅的静态元数据与输出设置。
type Feed struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Base        string `yaml:"base"`
	Language    string `yaml:"language"`
	Author      string `yaml:"author"`
	AuthorEmail string `yaml:"author_email"`
	Limit       int    `yaml:"limit"`
	Output      string `yaml:"output"` // 相对 OUTPUT_DIR
}

type Export struct {
	Path string `yaml:"path"` // 相对 OUTPUT_DIR，为空则不导出
}

type Database struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Load 从文件读取 YAML，应用环境变量覆盖后校验并填充默认值。
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadDotEnv 加载 .env 文件到进程环境（已存在的变量不覆盖），文件不存在时忽略。
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env %s: %w", f, err)
		}
	}
	return nil
}

// applyEnv 允许部署环境覆盖站点地址与日志级别。
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("SITE_BASE_URL")); v != "" {
		c.Feed.Base = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
}

// Validate 负责合法性检查与默认值设置。
func (c *Config) Validate() error {
	if c.ContentDir == "" {
		c.ContentDir = "src"
	}
	if c.OutputDir == "" {
		c.OutputDir = "_site"
	}
	if c.RSSCutoff == "" {
		c.cutoff = collection.DefaultRSSCutoff
		c.RSSCutoff = c.cutoff.Format(time.DateOnly)
	} else {
		t, ok := dates.Parse(c.RSSCutoff)
		if !ok {
			return fmt.Errorf("invalid RSS_CUTOFF: %q", c.RSSCutoff)
		}
		c.cutoff = t
	}
	if c.Feed.Limit < 0 {
		return errors.New("FEED.limit must be >= 0")
	}
	if c.Feed.Limit == 0 {
		c.Feed.Limit = 10
	}
	if c.Feed.Output == "" {
		c.Feed.Output = "feed.xml"
	}
	if c.Feed.Language == "" {
		c.Feed.Language = "en"
	}
	if c.Feed.Base != "" && !strings.HasSuffix(c.Feed.Base, "/") {
		c.Feed.Base += "/"
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		c.Database.DSN = "./index.db"
	}
	if c.LogFormat == "" {
		c.LogFormat = "pretty"
	}
	if c.LogLocale == "" {
		c.LogLocale = "en"
	}
	if c.LogColor == "" {
		c.LogColor = "auto"
	}
	return nil
}

// Cutoff 返回解析后的订阅截止日期（Validate 之后有效）。
func (c *Config) Cutoff() time.Time {
	if c.cutoff.IsZero() {
		return collection.DefaultRSSCutoff
	}
	return c.cutoff
}
