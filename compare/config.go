package compare

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Viewport is one emulated window size.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Label renders the conventional "WxH" form used in filenames and the
// report.
func (v Viewport) Label() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// BrowserConfig controls Chrome lifecycle and environment emulation.
type BrowserConfig struct {
	Headless   bool   `yaml:"headless"`
	Channel    string `yaml:"channel"` // path to a system Chrome/Edge binary
	Remote     string `yaml:"remote"`  // ws:// URL of an external Chrome
	Stealth    bool   `yaml:"stealth"`
	Timezone   string `yaml:"timezone"`
	Locale     string `yaml:"locale"`
	FreezeTime string `yaml:"freeze_time"` // RFC3339; empty = live clock
}

// RenderConfig controls the stabilization pipeline.
type RenderConfig struct {
	FullPage      bool     `yaml:"full_page"`
	WaitTime      Duration `yaml:"wait_time"`
	HideSelectors []string `yaml:"hide_selectors"`
	NavTimeout    Duration `yaml:"nav_timeout"`
	ImageWait     Duration `yaml:"image_wait"`
	ScrollStep    int      `yaml:"scroll_step"`
	ScrollPause   Duration `yaml:"scroll_pause"`
}

// CrawlConfig bounds crawl-mode path discovery.
type CrawlConfig struct {
	Enabled    bool     `yaml:"enabled"`
	StartPaths []string `yaml:"start_paths"`
	MaxPages   int      `yaml:"max_pages"`
	MaxDepth   int      `yaml:"max_depth"`
}

// SitemapConfig configures sitemap-mode path discovery. Origin
// filtering is strict unless LenientOrigin is set.
type SitemapConfig struct {
	URLs          []string `yaml:"urls"`
	LenientOrigin bool     `yaml:"lenient_origin"`
}

// OutputConfig controls where results land.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Highlight bool   `yaml:"highlight"`
	RunLogDB  string `yaml:"run_log_db"` // empty = no run log
}

// Config is the complete, immutable run configuration. It is threaded
// explicitly through every component; nothing reads ambient state.
type Config struct {
	BaseURL    string `yaml:"base_url"`
	CompareURL string `yaml:"compare_url"`

	// Path sources, by precedence: sitemap > crawl > static paths.
	Paths    []string      `yaml:"paths"`
	Sitemaps SitemapConfig `yaml:"sitemaps"`
	Crawl    CrawlConfig   `yaml:"crawl"`

	// KeepQuery treats ?a=1 and ?a=2 as distinct pages.
	KeepQuery bool     `yaml:"keep_query"`
	Excludes  []string `yaml:"excludes"`

	Viewports []Viewport    `yaml:"viewports"`
	Browser   BrowserConfig `yaml:"browser"`
	Render    RenderConfig  `yaml:"render"`
	Output    OutputConfig  `yaml:"output"`
}

// DefaultConfig returns the baseline configuration. YAML loading
// unmarshals over it, so absent keys keep these values.
func DefaultConfig() *Config {
	return &Config{
		Crawl: CrawlConfig{
			StartPaths: []string{"/"},
			MaxPages:   50,
			MaxDepth:   2,
		},
		Viewports: []Viewport{{1366, 768}, {390, 844}},
		Browser: BrowserConfig{
			Headless: true,
			Timezone: "UTC",
			Locale:   "en-US",
		},
		Render: RenderConfig{
			FullPage:    true,
			WaitTime:    DurationFrom(300 * time.Millisecond),
			NavTimeout:  DurationFrom(60 * time.Second),
			ImageWait:   DurationFrom(15 * time.Second),
			ScrollStep:  600,
			ScrollPause: DurationFrom(150 * time.Millisecond),
		},
		Output: OutputConfig{Dir: "visual_diff"},
	}
}

// LoadConfigFile reads a YAML configuration file over the defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compare: read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("compare: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("compare: base_url is required")
	}
	if c.CompareURL == "" {
		return fmt.Errorf("compare: compare_url is required")
	}
	if len(c.Viewports) == 0 {
		return fmt.Errorf("compare: at least one viewport is required")
	}
	for _, v := range c.Viewports {
		if v.Width <= 0 || v.Height <= 0 {
			return fmt.Errorf("compare: invalid viewport %dx%d", v.Width, v.Height)
		}
	}
	if _, err := c.FreezeEpochMS(); err != nil {
		return err
	}
	return nil
}

// FreezeEpochMS parses the freeze-time setting. Zero means disabled.
func (c *Config) FreezeEpochMS() (int64, error) {
	if c.Browser.FreezeTime == "" {
		return 0, nil
	}
	t, err := time.Parse(time.RFC3339, c.Browser.FreezeTime)
	if err != nil {
		return 0, fmt.Errorf("compare: freeze_time %q: %w", c.Browser.FreezeTime, err)
	}
	return t.UnixMilli(), nil
}

// SourceMode identifies which path source a configuration selects.
type SourceMode int

const (
	SourceStatic SourceMode = iota
	SourceSitemap
	SourceCrawl
)

// SourceMode resolves the configured sources by fixed precedence:
// sitemap beats crawl beats the static list. The richer source wins
// when more than one is configured.
func (c *Config) SourceMode() SourceMode {
	if len(c.Sitemaps.URLs) > 0 {
		return SourceSitemap
	}
	if c.Crawl.Enabled {
		return SourceCrawl
	}
	return SourceStatic
}
