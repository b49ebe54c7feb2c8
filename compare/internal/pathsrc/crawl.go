package pathsrc

import (
	"context"
	"log/slog"
)

// LinkPage is the narrow browser capability the crawler depends on:
// navigate somewhere and report the anchors the live DOM ended up with
// after JavaScript ran. The production implementation drives a Rod
// page; tests use a fake.
type LinkPage interface {
	// Navigate loads the URL and settles it best-effort. An error means
	// the page could not be expanded; the crawl skips it.
	Navigate(ctx context.Context, url string) error
	// Links returns the resolved absolute hrefs of every anchor in the
	// current DOM.
	Links(ctx context.Context) ([]string, error)
}

// CrawlTarget is one queued expansion: a normalized path and the BFS
// depth it was first discovered at.
type CrawlTarget struct {
	Path  string
	Depth int
}

// CrawlConfig bounds a crawl.
type CrawlConfig struct {
	StartPaths []string
	MaxPages   int
	MaxDepth   int
	KeepQuery  bool
	Excludes   *ExcludeList
	Logger     *slog.Logger
}

func (c *CrawlConfig) defaults() {
	if len(c.StartPaths) == 0 {
		c.StartPaths = []string{"/"}
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 50
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 2
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Crawler walks the internal link graph of one origin breadth-first.
// A single page is reused across navigations; nothing runs in
// parallel.
type Crawler struct {
	origin string
	page   LinkPage
	cfg    CrawlConfig
}

// NewCrawler creates a crawler rooted at origin ("scheme://host").
func NewCrawler(origin string, page LinkPage, cfg CrawlConfig) *Crawler {
	cfg.defaults()
	return &Crawler{origin: origin, page: page, cfg: cfg}
}

// Run performs the BFS and returns the discovered paths sorted
// shallow-first. The visited set is the sole dedup mechanism: a path
// is enqueued at most once, at the shallowest depth it was seen.
func (c *Crawler) Run(ctx context.Context) ([]string, error) {
	log := c.cfg.Logger
	discovered := make(map[string]struct{})
	var queue []CrawlTarget

	for _, sp := range c.cfg.StartPaths {
		abs, err := ResolveAgainst(c.origin, sp)
		if err != nil {
			log.Warn("crawl: bad start path", "path", sp, "error", err)
			continue
		}
		path, err := NormalizePath(abs, c.cfg.KeepQuery)
		if err != nil || c.cfg.Excludes.Match(path) {
			continue
		}
		if _, seen := discovered[path]; seen {
			continue
		}
		discovered[path] = struct{}{}
		queue = append(queue, CrawlTarget{Path: path, Depth: 0})
	}

	for len(queue) > 0 && len(discovered) < c.cfg.MaxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		abs, err := ResolveAgainst(c.origin, current.Path)
		if err != nil {
			continue
		}
		if err := c.page.Navigate(ctx, abs); err != nil {
			// A broken page loses its children, nothing else.
			log.Warn("crawl: navigation failed, skipping", "url", abs, "error", err)
			continue
		}

		links, err := c.page.Links(ctx)
		if err != nil {
			log.Warn("crawl: link extraction failed", "url", abs, "error", err)
			continue
		}

		for _, href := range links {
			if !SameOrigin(href, c.origin) {
				continue
			}
			path, err := NormalizePath(href, c.cfg.KeepQuery)
			if err != nil {
				continue
			}
			if c.cfg.Excludes.Match(path) {
				continue
			}
			if _, seen := discovered[path]; seen {
				continue
			}
			if current.Depth+1 > c.cfg.MaxDepth || len(discovered) >= c.cfg.MaxPages {
				continue
			}
			discovered[path] = struct{}{}
			queue = append(queue, CrawlTarget{Path: path, Depth: current.Depth + 1})
		}
	}

	paths := make([]string, 0, len(discovered))
	for p := range discovered {
		paths = append(paths, p)
	}
	SortPaths(paths)
	return paths, nil
}
