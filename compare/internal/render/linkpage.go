package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
)

// LinkPage adapts a Rod page to the crawler's navigate-and-extract
// capability. Navigation settles like a capture (load, network quiet,
// fonts) but skips the heavier image pipeline: the crawler only needs
// anchors, not pixels.
type LinkPage struct {
	page       *rod.Page
	navTimeout time.Duration
	quiet      time.Duration
	logger     *slog.Logger
}

// NewLinkPage wraps page for crawling.
func NewLinkPage(page *rod.Page, navTimeout time.Duration, logger *slog.Logger) *LinkPage {
	if navTimeout <= 0 {
		navTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkPage{page: page, navTimeout: navTimeout, quiet: 500 * time.Millisecond, logger: logger}
}

// Navigate loads url and waits for quiescence.
func (l *LinkPage) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, l.navTimeout)
	defer cancel()
	p := l.page.Context(navCtx)

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("render: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("render: load %s: %w", url, err)
	}
	wait := p.WaitRequestIdle(l.quiet, nil, nil, nil)
	wait()

	if _, err := evalWithin(ctx, l.page, 5*time.Second, jsWaitFonts); err != nil {
		l.logger.Debug("render: crawl font wait failed", "url", url, "error", err)
	}
	return nil
}

// Links extracts the anchors of the current DOM.
func (l *LinkPage) Links(ctx context.Context) ([]string, error) {
	res, err := evalWithin(ctx, l.page, 10*time.Second, jsExtractLinks)
	if err != nil {
		return nil, fmt.Errorf("render: extract links: %w", err)
	}
	var links []string
	for _, v := range res.Value.Arr() {
		if s := v.Str(); s != "" {
			links = append(links, s)
		}
	}
	return links, nil
}
