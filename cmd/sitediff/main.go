// Command sitediff compares the visual rendering of two deployments
// of the same website and writes a static HTML report.
//
// Usage:
//
//	sitediff -base https://prod.example.com -compare https://staging.example.com -paths /,/pricing
//	sitediff -config sitediff.yaml
//	sitediff -serve :8080 -out visual_diff   # serve an existing report
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/MUGALN/Site-visual-crawler-compare/compare"
	"github.com/MUGALN/Site-visual-crawler-compare/report"
)

func main() {
	configPath := flag.String("config", "", "path to sitediff.yaml config file")
	baseURL := flag.String("base", "", "base deployment root URL")
	compareURL := flag.String("compare", "", "compare deployment root URL")
	pathList := flag.String("paths", "", "comma-separated page paths to compare")
	outDir := flag.String("out", "", "output directory (overrides config)")
	crawl := flag.Bool("crawl", false, "discover paths by crawling the base deployment")
	sitemaps := flag.String("sitemaps", "", "comma-separated sitemap URLs")
	serveAddr := flag.String("serve", "", "serve the report directory at this address instead of running")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *baseURL, *compareURL, *pathList, *outDir, *crawl, *sitemaps, *serveAddr); err != nil {
		logger.Error("sitediff: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, baseURL, compareURL, pathList, outDir string, crawl bool, sitemaps, serveAddr string) error {
	cfg := compare.DefaultConfig()
	if configPath != "" {
		loaded, err := compare.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// Flags override the file.
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if compareURL != "" {
		cfg.CompareURL = compareURL
	}
	if pathList != "" {
		cfg.Paths = splitList(pathList)
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if crawl {
		cfg.Crawl.Enabled = true
	}
	if sitemaps != "" {
		cfg.Sitemaps.URLs = splitList(sitemaps)
	}

	if serveAddr != "" {
		return report.Serve(ctx, serveAddr, cfg.Output.Dir, logger)
	}

	if cfg.BaseURL == "" && cfg.CompareURL == "" && configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: sitediff -base <url> -compare <url> [-paths /a,/b | -crawl | -sitemaps <urls>]")
		fmt.Fprintln(os.Stderr, "       sitediff -config <file>")
		fmt.Fprintln(os.Stderr, "       sitediff -serve <addr> [-out <dir>]")
		os.Exit(1)
	}

	runner, err := compare.NewRunner(cfg, logger)
	if err != nil {
		return err
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, compare.ErrNoPaths) {
			return fmt.Errorf("nothing to compare: %w", err)
		}
		return err
	}

	fmt.Fprintf(os.Stdout, "report: %s (%d cases over %d paths)\n",
		summary.ReportPath, len(summary.Results), len(summary.Paths))
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
