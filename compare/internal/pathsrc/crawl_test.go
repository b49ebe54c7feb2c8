package pathsrc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

// fakeLinkPage serves a canned link graph keyed by absolute URL.
type fakeLinkPage struct {
	graph    map[string][]string
	current  string
	failNav  map[string]bool
	navCount int
}

func (f *fakeLinkPage) Navigate(ctx context.Context, url string) error {
	f.navCount++
	if f.failNav[url] {
		return errors.New("navigation timeout")
	}
	f.current = url
	return nil
}

func (f *fakeLinkPage) Links(ctx context.Context) ([]string, error) {
	return f.graph[f.current], nil
}

func newTestCrawler(page LinkPage, cfg CrawlConfig) *Crawler {
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCrawler("https://example.com", page, cfg)
}

func TestCrawler_BFSDiscovery(t *testing.T) {
	page := &fakeLinkPage{graph: map[string][]string{
		"https://example.com/":      {"https://example.com/a", "https://example.com/b"},
		"https://example.com/a":     {"https://example.com/a/sub"},
		"https://example.com/b":     {},
		"https://example.com/a/sub": {},
	}}
	c := newTestCrawler(page, CrawlConfig{MaxPages: 10, MaxDepth: 3})
	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"/", "/a", "/b", "/a/sub"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestCrawler_TerminatesOnCyclicGraph(t *testing.T) {
	// WHAT: A cyclic link graph terminates, bounded by the page cap.
	// WHY: The visited set is the sole dedup mechanism; without it the
	// queue never drains.
	page := &fakeLinkPage{graph: map[string][]string{
		"https://example.com/":  {"https://example.com/a"},
		"https://example.com/a": {"https://example.com/", "https://example.com/a"},
	}}
	c := newTestCrawler(page, CrawlConfig{MaxPages: 10, MaxDepth: 5})
	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %v, want 2 paths", got)
	}
}

func TestCrawler_PageCap(t *testing.T) {
	// WHAT: At most MaxPages distinct paths are discovered, even on an
	// effectively infinite graph.
	graph := map[string][]string{}
	graph["https://example.com/"] = []string{
		"https://example.com/p1", "https://example.com/p2", "https://example.com/p3",
		"https://example.com/p4", "https://example.com/p5", "https://example.com/p6",
	}
	page := &fakeLinkPage{graph: graph}
	c := newTestCrawler(page, CrawlConfig{MaxPages: 3, MaxDepth: 4})
	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d paths (%v), want 3", len(got), got)
	}
}

func TestCrawler_DepthBound(t *testing.T) {
	// WHAT: A page at max depth contributes no children.
	page := &fakeLinkPage{graph: map[string][]string{
		"https://example.com/":   {"https://example.com/d1"},
		"https://example.com/d1": {"https://example.com/d2"},
		"https://example.com/d2": {"https://example.com/d3"},
		"https://example.com/d3": {"https://example.com/toodeep"},
	}}
	c := newTestCrawler(page, CrawlConfig{MaxPages: 50, MaxDepth: 2})
	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range got {
		if p == "/d3" || p == "/toodeep" {
			t.Errorf("path %q beyond depth bound was discovered: %v", p, got)
		}
	}
	if len(got) != 3 { // "/", "/d1", "/d2"
		t.Errorf("got %v, want 3 paths", got)
	}
}

func TestCrawler_ExclusionOnNormalizedPath(t *testing.T) {
	// WHAT: Excluded paths never appear, even when linked from several
	// in-scope pages, and matching is case-insensitive against the
	// normalized path.
	excl, err := CompileExcludes([]string{"^/admin", `\.pdf$`})
	if err != nil {
		t.Fatalf("compile excludes: %v", err)
	}
	page := &fakeLinkPage{graph: map[string][]string{
		"https://example.com/":  {"https://example.com/ADMIN/panel", "https://example.com/a", "https://example.com/doc.PDF"},
		"https://example.com/a": {"https://example.com/admin/panel"},
	}}
	c := newTestCrawler(page, CrawlConfig{MaxPages: 10, MaxDepth: 3, Excludes: excl})
	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range got {
		if p != "/" && p != "/a" {
			t.Errorf("unexpected path %q in %v", p, got)
		}
	}
}

func TestCrawler_CrossOriginRejected(t *testing.T) {
	page := &fakeLinkPage{graph: map[string][]string{
		"https://example.com/": {"https://elsewhere.com/x", "https://example.com/in"},
	}}
	c := newTestCrawler(page, CrawlConfig{MaxPages: 10, MaxDepth: 2})
	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %v, want [/ /in]", got)
	}
}

func TestCrawler_NavigationFailureSkipsTarget(t *testing.T) {
	// WHAT: A failed navigation loses only that target's children; the
	// rest of the queue proceeds.
	page := &fakeLinkPage{
		graph: map[string][]string{
			"https://example.com/":     {"https://example.com/dead", "https://example.com/live"},
			"https://example.com/live": {"https://example.com/deep"},
		},
		failNav: map[string]bool{"https://example.com/dead": true},
	}
	c := newTestCrawler(page, CrawlConfig{MaxPages: 10, MaxDepth: 3})
	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// /dead stays discovered (it was enqueued) but contributes nothing.
	want := map[string]bool{"/": true, "/dead": true, "/live": true, "/deep": true}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for _, p := range got {
		if !want[p] {
			t.Errorf("unexpected path %q", p)
		}
	}
}

func TestCrawler_QueryNormalizationDedup(t *testing.T) {
	// WHAT: With keepQuery=false, /page?a=1 and /page?a=2 collapse to
	// one visit.
	page := &fakeLinkPage{graph: map[string][]string{
		"https://example.com/": {
			"https://example.com/page?a=1",
			"https://example.com/page?a=2",
		},
	}}
	c := newTestCrawler(page, CrawlConfig{MaxPages: 10, MaxDepth: 2})
	got, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 { // "/" and "/page"
		t.Errorf("got %v, want [/ /page]", got)
	}
}
