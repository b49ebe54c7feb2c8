package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// PageOptions describes the emulated environment of one page. A page
// stands in for a browsing context: viewport, timezone, locale and
// clock pinning are applied per page before any navigation.
type PageOptions struct {
	Width    int
	Height   int
	Timezone string
	Locale   string

	// FreezeEpochMS pins the page's Date and performance clocks to a
	// fixed instant. Zero disables pinning.
	FreezeEpochMS int64
}

// OpenPage creates a page with the requested emulation applied. The
// caller owns the page and must Close it.
func (m *Manager) OpenPage(ctx context.Context, opt PageOptions) (*rod.Page, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error
	if m.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if err := m.emulate(ctx, page, opt); err != nil {
		page.Close()
		return nil, err
	}
	return page, nil
}

func (m *Manager) emulate(ctx context.Context, page *rod.Page, opt PageOptions) error {
	p := page.Context(ctx)

	if opt.Width > 0 && opt.Height > 0 {
		err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             opt.Width,
			Height:            opt.Height,
			DeviceScaleFactor: 1,
			Mobile:            false,
		})
		if err != nil {
			return fmt.Errorf("browser: set viewport: %w", err)
		}
	}

	if opt.Timezone != "" {
		err := proto.EmulationSetTimezoneOverride{TimezoneID: opt.Timezone}.Call(p)
		if err != nil {
			return fmt.Errorf("browser: set timezone: %w", err)
		}
	}

	if opt.Locale != "" {
		err := proto.EmulationSetLocaleOverride{Locale: opt.Locale}.Call(p)
		if err != nil {
			return fmt.Errorf("browser: set locale: %w", err)
		}
	}

	if opt.FreezeEpochMS != 0 {
		if _, err := p.EvalOnNewDocument(FreezeTimeScript(opt.FreezeEpochMS)); err != nil {
			return fmt.Errorf("browser: freeze time: %w", err)
		}
	}
	return nil
}

// FreezeTimeScript returns an init script pinning Date.now, new Date()
// and performance.now to a fixed epoch, so clock-driven UI renders
// identically in both deployments.
func FreezeTimeScript(epochMS int64) string {
	return fmt.Sprintf(`(function() {
  const fixed = %d;
  const _Date = Date;
  class FixedDate extends _Date {
    constructor(...args) {
      if (args.length) { super(...args); } else { super(fixed); }
    }
    static now() { return fixed; }
    static parse(s) { return _Date.parse(s); }
    static UTC(...args) { return _Date.UTC(...args); }
  }
  Date = FixedDate;
  if (typeof performance !== 'undefined' && performance) {
    const start = performance.timeOrigin || fixed;
    performance.now = () => 0;
    try { Object.defineProperty(performance, 'timeOrigin', { value: start }); } catch (e) {}
  }
})();`, epochMS)
}
