package pathsrc

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/MUGALN/Site-visual-crawler-compare/compare/internal/fetchx"
)

// SitemapConfig configures sitemap ingestion.
type SitemapConfig struct {
	// Origin restricts collected URLs to the base deployment's host
	// when StrictOrigin is set. Lenient mode keeps foreign hosts'
	// paths anyway.
	Origin       string
	StrictOrigin bool
	KeepQuery    bool
	Excludes     *ExcludeList
	Logger       *slog.Logger
}

// SitemapSource collects page paths from sitemap XML documents,
// following sitemap-index entries to arbitrary depth and decompressing
// .gz payloads.
type SitemapSource struct {
	fetcher *fetchx.Fetcher
	cfg     SitemapConfig
}

// NewSitemapSource creates a sitemap path source.
func NewSitemapSource(fetcher *fetchx.Fetcher, cfg SitemapConfig) *SitemapSource {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SitemapSource{fetcher: fetcher, cfg: cfg}
}

// Paths fetches every configured sitemap URL and returns the unique
// normalized paths, sorted shallow-first. A fetch or parse failure is
// local to its sitemap: the rest still contribute.
func (s *SitemapSource) Paths(ctx context.Context, sitemapURLs []string) ([]string, error) {
	discovered := make(map[string]struct{})
	// Sitemaps are assumed acyclic, but a visited set turns a
	// malformed cycle into a no-op instead of a hang.
	visited := make(map[string]struct{})

	for _, u := range sitemapURLs {
		if err := s.scan(ctx, u, discovered, visited); err != nil {
			s.cfg.Logger.Warn("sitemap: skipping", "url", u, "error", err)
		}
	}

	paths := make([]string, 0, len(discovered))
	for p := range discovered {
		paths = append(paths, p)
	}
	SortPaths(paths)
	return paths, nil
}

func (s *SitemapSource) scan(ctx context.Context, sitemapURL string, discovered, visited map[string]struct{}) error {
	if _, seen := visited[sitemapURL]; seen {
		return nil
	}
	visited[sitemapURL] = struct{}{}

	body, err := s.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		return err
	}

	var r io.Reader = bytes.NewReader(body)
	if strings.HasSuffix(strings.ToLower(sitemapURL), ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("pathsrc: gunzip %s: %w", sitemapURL, err)
		}
		defer gz.Close()
		r = gz
	}

	doc, err := xmlquery.Parse(r)
	if err != nil {
		return fmt.Errorf("pathsrc: parse sitemap %s: %w", sitemapURL, err)
	}

	// A sitemap-index nests further sitemaps; a leaf sitemap lists
	// pages.
	if children := xmlquery.Find(doc, "//sitemap/loc"); len(children) > 0 {
		for _, loc := range children {
			child := strings.TrimSpace(loc.InnerText())
			if child == "" {
				continue
			}
			if err := s.scan(ctx, child, discovered, visited); err != nil {
				s.cfg.Logger.Warn("sitemap: skipping nested", "url", child, "error", err)
			}
		}
		return nil
	}

	for _, loc := range xmlquery.Find(doc, "//url/loc") {
		raw := strings.TrimSpace(loc.InnerText())
		if raw == "" {
			continue
		}
		if s.cfg.StrictOrigin && !SameOrigin(raw, s.cfg.Origin) {
			continue
		}
		path, err := NormalizePath(raw, s.cfg.KeepQuery)
		if err != nil {
			continue
		}
		if s.cfg.Excludes.Match(path) {
			continue
		}
		discovered[path] = struct{}{}
	}
	return nil
}
