package browser

import (
	"context"
	"strings"
	"testing"
)

func TestFreezeTimeScript_EmbedsEpoch(t *testing.T) {
	js := FreezeTimeScript(1767225600000)
	if !strings.Contains(js, "const fixed = 1767225600000;") {
		t.Errorf("script does not pin the expected epoch:\n%s", js)
	}
	if !strings.Contains(js, "static now() { return fixed; }") {
		t.Error("script does not override Date.now")
	}
	if !strings.Contains(js, "performance.now = () => 0;") {
		t.Error("script does not pin performance.now")
	}
}

func TestManager_OpenPageWithoutStartFails(t *testing.T) {
	m := NewManager(Config{})
	if _, err := m.OpenPage(context.Background(), PageOptions{Width: 800, Height: 600}); err == nil {
		t.Error("expected error before Start")
	}
}

func TestManager_StartAfterCloseFails(t *testing.T) {
	m := NewManager(Config{})
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := m.Start(context.Background()); err == nil {
		t.Error("expected error after Close")
	}
}
