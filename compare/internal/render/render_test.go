package render

import (
	"strings"
	"testing"
	"time"
)

func TestOverlayCSS_NoSelectors(t *testing.T) {
	css := OverlayCSS(nil)
	if !strings.Contains(css, "transition: none !important") {
		t.Error("missing transition suppression")
	}
	if !strings.Contains(css, "animation: none !important") {
		t.Error("missing animation suppression")
	}
	if !strings.Contains(css, "caret-color: transparent !important") {
		t.Error("missing caret suppression")
	}
	if !strings.Contains(css, "scroll-behavior: auto !important") {
		t.Error("missing scroll behavior override")
	}
	if strings.Contains(css, "visibility: hidden") {
		t.Error("hide rule emitted with no selectors")
	}
}

func TestOverlayCSS_HideSelectorsKeepLayout(t *testing.T) {
	// WHAT: Hidden selectors use visibility, not display.
	// WHY: display:none reflows the page and shifts every pixel below
	// the hidden element.
	css := OverlayCSS([]string{".cookie-banner", ".chat-widget"})
	if !strings.Contains(css, ".cookie-banner, .chat-widget { visibility: hidden !important; }") {
		t.Errorf("unexpected hide rule in:\n%s", css)
	}
	if strings.Contains(css, "display: none") {
		t.Error("hide rule must not remove layout")
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.defaults()
	if o.NavTimeout != 60*time.Second {
		t.Errorf("NavTimeout = %v", o.NavTimeout)
	}
	if o.ScrollStep != 600 {
		t.Errorf("ScrollStep = %d", o.ScrollStep)
	}
	if o.ImageWait != 15*time.Second {
		t.Errorf("ImageWait = %v", o.ImageWait)
	}
	if o.SettleDelay != 300*time.Millisecond {
		t.Errorf("SettleDelay = %v", o.SettleDelay)
	}
}
