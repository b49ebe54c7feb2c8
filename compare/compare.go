// Package compare orchestrates a visual regression run: it resolves
// the set of page paths, captures both deployments at every viewport,
// diffs the pairs, and writes a static report.
//
// Everything runs sequentially. Browser work is inherently
// I/O-suspending; captures for one viewport share two long-lived
// pages (base and compare) that are torn down when the viewport's
// paths are done.
package compare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"

	"github.com/MUGALN/Site-visual-crawler-compare/compare/internal/browser"
	"github.com/MUGALN/Site-visual-crawler-compare/compare/internal/fetchx"
	"github.com/MUGALN/Site-visual-crawler-compare/compare/internal/pathsrc"
	"github.com/MUGALN/Site-visual-crawler-compare/compare/internal/render"
	"github.com/MUGALN/Site-visual-crawler-compare/imagediff"
	"github.com/MUGALN/Site-visual-crawler-compare/report"
	"github.com/MUGALN/Site-visual-crawler-compare/runlog"
)

// ErrNoPaths means no page path survived discovery; there is nothing
// to compare and the run terminates.
var ErrNoPaths = errors.New("compare: no paths discovered")

// Summary is the outcome of a run.
type Summary struct {
	Paths      []string
	Results    []report.Result
	ReportPath string
}

// Runner executes one comparison run.
type Runner struct {
	cfg      *Config
	logger   *slog.Logger
	excludes *pathsrc.ExcludeList
	rlog     *runlog.Log
}

// NewRunner validates cfg and prepares a Runner.
func NewRunner(cfg *Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	excl, err := pathsrc.CompileExcludes(cfg.Excludes)
	if err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, logger: logger, excludes: excl}, nil
}

// Run performs the whole comparison and writes the report. Individual
// capture failures are skipped and logged; only the absence of any
// discovered path aborts the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	cfg := r.cfg
	log := r.logger

	mgr := browser.NewManager(browser.Config{
		RemoteURL: cfg.Browser.Remote,
		Headless:  cfg.Browser.Headless,
		Channel:   cfg.Browser.Channel,
		Stealth:   cfg.Browser.Stealth,
		Logger:    log,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	defer mgr.Close()

	paths, err := r.resolvePaths(ctx, mgr)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}
	log.Info("compare: paths resolved", "count", len(paths))
	for _, p := range paths {
		log.Debug("compare: will compare", "path", p)
	}

	if err := report.EnsureDirs(cfg.Output.Dir); err != nil {
		return nil, err
	}

	if cfg.Output.RunLogDB != "" {
		rl, err := runlog.Open(cfg.Output.RunLogDB, log)
		if err != nil {
			log.Warn("compare: run log unavailable", "error", err)
		} else {
			r.rlog = rl
			defer rl.Close()
		}
	}
	runID := r.rlog.StartRun(ctx, cfg.BaseURL, cfg.CompareURL)

	var results []report.Result
	for _, vp := range cfg.Viewports {
		if err := r.compareViewport(ctx, mgr, vp, paths, runID, &results); err != nil {
			return nil, err
		}
	}

	viewports := make([]string, 0, len(cfg.Viewports))
	for _, vp := range cfg.Viewports {
		viewports = append(viewports, vp.Label())
	}
	meta := report.Meta{
		GeneratedAt: time.Now().UTC(),
		BaseURL:     cfg.BaseURL,
		CompareURL:  cfg.CompareURL,
		Viewports:   viewports,
		Options: report.Options{
			FullPage:      cfg.Render.FullPage,
			Headless:      cfg.Browser.Headless,
			Timezone:      cfg.Browser.Timezone,
			Locale:        cfg.Browser.Locale,
			FreezeTime:    cfg.Browser.FreezeTime,
			Channel:       cfg.Browser.Channel,
			HideSelectors: cfg.Render.HideSelectors,
			MaxPages:      cfg.Crawl.MaxPages,
			MaxDepth:      cfg.Crawl.MaxDepth,
			KeepQuery:     cfg.KeepQuery,
			Excludes:      cfg.Excludes,
		},
	}

	reportPath, err := report.Write(cfg.Output.Dir, meta, results)
	if err != nil {
		return nil, err
	}
	r.rlog.FinishRun(ctx, runID, len(results))
	log.Info("compare: report written", "path", reportPath, "cases", len(results))

	return &Summary{Paths: paths, Results: results, ReportPath: reportPath}, nil
}

// resolvePaths picks the configured path source. Precedence is
// sitemap > crawl > static list; a shadowed source is reported, not
// silently ignored.
func (r *Runner) resolvePaths(ctx context.Context, mgr *browser.Manager) ([]string, error) {
	cfg := r.cfg
	switch cfg.SourceMode() {
	case SourceSitemap:
		if cfg.Crawl.Enabled {
			r.logger.Warn("compare: crawl configured but sitemaps take precedence")
		}
		origin, err := pathsrc.Origin(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		src := pathsrc.NewSitemapSource(fetchx.New(fetchx.Config{}), pathsrc.SitemapConfig{
			Origin:       origin,
			StrictOrigin: !cfg.Sitemaps.LenientOrigin,
			KeepQuery:    cfg.KeepQuery,
			Excludes:     r.excludes,
			Logger:       r.logger,
		})
		return src.Paths(ctx, cfg.Sitemaps.URLs)

	case SourceCrawl:
		origin, err := pathsrc.Origin(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		// The crawl uses its own desktop-sized page, torn down before
		// any capture context opens.
		page, err := mgr.OpenPage(ctx, browser.PageOptions{
			Width:    1366,
			Height:   768,
			Timezone: cfg.Browser.Timezone,
			Locale:   cfg.Browser.Locale,
		})
		if err != nil {
			return nil, err
		}
		defer page.Close()

		r.logger.Info("compare: crawling", "origin", origin,
			"max_pages", cfg.Crawl.MaxPages, "max_depth", cfg.Crawl.MaxDepth)
		crawler := pathsrc.NewCrawler(origin,
			render.NewLinkPage(page, cfg.Render.NavTimeout.Duration, r.logger),
			pathsrc.CrawlConfig{
				StartPaths: cfg.Crawl.StartPaths,
				MaxPages:   cfg.Crawl.MaxPages,
				MaxDepth:   cfg.Crawl.MaxDepth,
				KeepQuery:  cfg.KeepQuery,
				Excludes:   r.excludes,
				Logger:     r.logger,
			})
		return crawler.Run(ctx)

	default:
		return pathsrc.Static(cfg.Paths, cfg.KeepQuery), nil
	}
}

// pageCapturer renders one URL and returns PNG bytes. The production
// implementation drives a rod page; the comparison loop only sees this
// interface so its skip accounting runs against fakes in tests.
type pageCapturer interface {
	Capture(ctx context.Context, url string) ([]byte, error)
}

// rodCapturer binds a browser page to its render options.
type rodCapturer struct {
	page *rod.Page
	opt  render.Options
}

func (c rodCapturer) Capture(ctx context.Context, url string) ([]byte, error) {
	return render.Capture(ctx, c.page, url, c.opt)
}

// compareViewport owns the two pages for one viewport and walks every
// path through them. Page teardown is guaranteed even when individual
// paths fail.
func (r *Runner) compareViewport(ctx context.Context, mgr *browser.Manager, vp Viewport, paths []string, runID string, results *[]report.Result) error {
	cfg := r.cfg
	epochMS, err := cfg.FreezeEpochMS()
	if err != nil {
		return err
	}
	opt := browser.PageOptions{
		Width:         vp.Width,
		Height:        vp.Height,
		Timezone:      cfg.Browser.Timezone,
		Locale:        cfg.Browser.Locale,
		FreezeEpochMS: epochMS,
	}

	basePage, err := mgr.OpenPage(ctx, opt)
	if err != nil {
		return fmt.Errorf("compare: open base page: %w", err)
	}
	defer basePage.Close()

	cmpPage, err := mgr.OpenPage(ctx, opt)
	if err != nil {
		return fmt.Errorf("compare: open compare page: %w", err)
	}
	defer cmpPage.Close()

	ropt := render.Options{
		FullPage:      cfg.Render.FullPage,
		HideSelectors: cfg.Render.HideSelectors,
		NavTimeout:    cfg.Render.NavTimeout.Duration,
		SettleDelay:   cfg.Render.WaitTime.Duration,
		ImageWait:     cfg.Render.ImageWait.Duration,
		ScrollStep:    cfg.Render.ScrollStep,
		ScrollPause:   cfg.Render.ScrollPause.Duration,
		Logger:        r.logger,
	}

	return r.comparePaths(ctx, rodCapturer{basePage, ropt}, rodCapturer{cmpPage, ropt}, vp, paths, runID, results)
}

// comparePaths walks every path through one base/compare capturer
// pair. A failed pair is skipped and recorded; it never contributes a
// result.
func (r *Runner) comparePaths(ctx context.Context, base, cmp pageCapturer, vp Viewport, paths []string, runID string, results *[]report.Result) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, ok := r.comparePath(ctx, base, cmp, vp, path)
		if ok {
			*results = append(*results, res)
			r.rlog.RecordCase(ctx, runID, path, vp.Label(), "compared",
				res.MismatchedPixels, res.MismatchPercentage)
		} else {
			r.rlog.RecordCase(ctx, runID, path, vp.Label(), "skipped", 0, 0)
		}
	}
	return nil
}

// comparePath captures one path in both deployments and diffs the
// pair. A failure anywhere drops the pair entirely: the report never
// contains a partial record.
func (r *Runner) comparePath(ctx context.Context, base, cmp pageCapturer, vp Viewport, path string) (report.Result, bool) {
	cfg := r.cfg
	log := r.logger

	baseURL, err := pathsrc.ResolveAgainst(cfg.BaseURL, path)
	if err != nil {
		log.Warn("compare: skipping path", "path", path, "error", err)
		return report.Result{}, false
	}
	cmpURL, err := pathsrc.ResolveAgainst(cfg.CompareURL, path)
	if err != nil {
		log.Warn("compare: skipping path", "path", path, "error", err)
		return report.Result{}, false
	}

	basePNG, err := base.Capture(ctx, baseURL)
	if err != nil {
		log.Warn("compare: base capture failed", "path", path, "viewport", vp.Label(), "error", err)
		return report.Result{}, false
	}
	cmpPNG, err := cmp.Capture(ctx, cmpURL)
	if err != nil {
		log.Warn("compare: compare capture failed", "path", path, "viewport", vp.Label(), "error", err)
		return report.Result{}, false
	}

	baseImg, err := imagediff.Decode(basePNG)
	if err != nil {
		log.Warn("compare: base screenshot unreadable", "path", path, "viewport", vp.Label(), "error", err)
		return report.Result{}, false
	}
	cmpImg, err := imagediff.Decode(cmpPNG)
	if err != nil {
		log.Warn("compare: compare screenshot unreadable", "path", path, "viewport", vp.Label(), "error", err)
		return report.Result{}, false
	}

	diff, err := imagediff.Compare(baseImg, cmpImg, imagediff.Options{Highlight: cfg.Output.Highlight})
	if err != nil {
		log.Warn("compare: diff failed", "path", path, "viewport", vp.Label(), "error", err)
		return report.Result{}, false
	}

	stem := report.FilenameStem(path)
	imagesDir := filepath.Join(cfg.Output.Dir, report.ImagesDirName)

	res := report.Result{
		Path:               path,
		Viewport:           vp.Label(),
		Width:              diff.Width,
		Height:             diff.Height,
		MismatchedPixels:   diff.MismatchedPixels,
		MismatchPercentage: diff.MismatchPercentage,
	}

	save := func(kind string, write func(dst string) error) (string, bool) {
		name := report.ImageFile(stem, vp.Label(), kind)
		if err := write(filepath.Join(imagesDir, name)); err != nil {
			log.Warn("compare: saving image failed", "path", path, "kind", kind, "error", err)
			return "", false
		}
		return report.ImagesDirName + "/" + name, true
	}

	var ok bool
	if res.BaseImage, ok = save("base", func(dst string) error {
		return os.WriteFile(dst, basePNG, 0o644)
	}); !ok {
		return report.Result{}, false
	}
	if res.CompareImage, ok = save("compare", func(dst string) error {
		return os.WriteFile(dst, cmpPNG, 0o644)
	}); !ok {
		return report.Result{}, false
	}
	if res.DiffImage, ok = save("diff", func(dst string) error {
		return imaging.Save(diff.DiffImage, dst)
	}); !ok {
		return report.Result{}, false
	}
	if diff.HighlightImage != nil {
		if res.HighlightImage, ok = save("highlight", func(dst string) error {
			return imaging.Save(diff.HighlightImage, dst)
		}); !ok {
			return report.Result{}, false
		}
	}

	log.Info("compare: compared", "path", path, "viewport", vp.Label(),
		"mismatch_pct", diff.MismatchPercentage, "mismatch_px", diff.MismatchedPixels,
		"differs", diff.MismatchedPixels > 0)
	return res, true
}
