// Package render drives a page from freshly navigated to visually
// deterministic, then captures it. Only the initial navigation is a
// hard failure; every later settling step degrades to best effort so
// a stubborn font or image never costs the whole comparison.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Options controls the stabilization pipeline.
type Options struct {
	// FullPage captures the whole scrollable height instead of the
	// viewport.
	FullPage bool

	// HideSelectors are CSS selectors forced to an invisible but
	// laid-out state (visibility:hidden keeps the layout, so hiding a
	// cookie banner does not reflow the page).
	HideSelectors []string

	// NavTimeout bounds navigation plus network quiescence.
	// Default: 60s.
	NavTimeout time.Duration

	// NetworkQuiet is the silence window that counts as network-idle.
	// Default: 500ms.
	NetworkQuiet time.Duration

	// SettleDelay is the fixed pause before the final image wait.
	// Default: 300ms.
	SettleDelay time.Duration

	// ImageWait bounds the wait for every image to report complete.
	// Default: 15s.
	ImageWait time.Duration

	// ScrollStep and ScrollPause drive the progressive scroll that
	// triggers intersection-based lazy loaders. Defaults: 600px, 150ms.
	ScrollStep  int
	ScrollPause time.Duration

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.NavTimeout <= 0 {
		o.NavTimeout = 60 * time.Second
	}
	if o.NetworkQuiet <= 0 {
		o.NetworkQuiet = 500 * time.Millisecond
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = 300 * time.Millisecond
	}
	if o.ImageWait <= 0 {
		o.ImageWait = 15 * time.Second
	}
	if o.ScrollStep <= 0 {
		o.ScrollStep = 600
	}
	if o.ScrollPause <= 0 {
		o.ScrollPause = 150 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Capture navigates page to url, runs the stabilization sequence, and
// returns PNG bytes. A navigation failure is returned to the caller;
// everything after navigation logs and proceeds.
func Capture(ctx context.Context, page *rod.Page, url string, opt Options) ([]byte, error) {
	opt.defaults()
	log := opt.Logger

	navCtx, cancel := context.WithTimeout(ctx, opt.NavTimeout)
	defer cancel()
	p := page.Context(navCtx)

	// 1. Navigate and settle the network. Hard failure.
	if err := p.Navigate(url); err != nil {
		return nil, fmt.Errorf("render: navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("render: load %s: %w", url, err)
	}
	waitIdle := p.WaitRequestIdle(opt.NetworkQuiet, nil, nil, nil)
	waitIdle()

	// 2. Fonts, best effort.
	if _, err := evalWithin(ctx, page, 5*time.Second, jsWaitFonts); err != nil {
		log.Debug("render: font wait failed", "url", url, "error", err)
	}

	// 3. Kill animations, hide configured dynamic elements.
	if _, err := evalWithin(ctx, page, 5*time.Second, jsInjectStyle, OverlayCSS(opt.HideSelectors)); err != nil {
		log.Debug("render: style injection failed", "url", url, "error", err)
	}

	// 4. Promote lazy images to eager loading.
	if _, err := evalWithin(ctx, page, 5*time.Second, jsEagerImages); err != nil {
		log.Debug("render: eager images failed", "url", url, "error", err)
	}

	// 5. Progressive scroll to trigger viewport-intersection loaders.
	if opt.FullPage {
		scrollBudget := opt.ImageWait + 30*time.Second
		if _, err := evalWithin(ctx, page, scrollBudget, jsProgressiveScroll,
			opt.ScrollStep, opt.ScrollPause.Milliseconds()); err != nil {
			log.Debug("render: progressive scroll failed", "url", url, "error", err)
		}
	}

	// 6. Fixed settling delay.
	select {
	case <-time.After(opt.SettleDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// 7. Bounded wait for image completion. Timing out is fine.
	if _, err := evalWithin(ctx, page, opt.ImageWait+time.Second, jsWaitImages, opt.ImageWait.Milliseconds()); err != nil {
		log.Debug("render: image wait failed", "url", url, "error", err)
	}

	// 8. Capture starts at the page origin.
	if _, err := evalWithin(ctx, page, 5*time.Second, jsScrollTop); err != nil {
		log.Debug("render: scroll reset failed", "url", url, "error", err)
	}

	// 9. Capture.
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	buf, err := page.Context(ctx).Screenshot(opt.FullPage, req)
	if err != nil {
		return nil, fmt.Errorf("render: screenshot %s: %w", url, err)
	}
	return buf, nil
}

// OverlayCSS builds the stabilization style rule: no transitions, no
// animations, no caret blinking, instant scrolling, and the configured
// selectors hidden without removing their layout box.
func OverlayCSS(hideSelectors []string) string {
	rules := []string{
		"* { transition: none !important; animation: none !important; caret-color: transparent !important; }",
		"html { scroll-behavior: auto !important; }",
	}
	if len(hideSelectors) > 0 {
		rules = append(rules, strings.Join(hideSelectors, ", ")+" { visibility: hidden !important; }")
	}
	return strings.Join(rules, "\n")
}

func evalWithin(ctx context.Context, page *rod.Page, d time.Duration, js string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	stepCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return page.Context(stepCtx).Eval(js, args...)
}
