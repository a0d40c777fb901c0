package render

import (
	"strings"
	"testing"
	"time"
)

func TestFileURL(t *testing.T) {
	got := fileURL("/tmp/decks/slide_1.html")
	if got != "file:///tmp/decks/slide_1.html" {
		t.Errorf("fileURL = %q", got)
	}
}

func TestFileURLEscapesSpaces(t *testing.T) {
	got := fileURL("/tmp/my decks/slide 1.html")
	if strings.Contains(got, " ") {
		t.Errorf("fileURL left unescaped spaces: %q", got)
	}
	if !strings.HasPrefix(got, "file:///") {
		t.Errorf("fileURL = %q", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	if cfg.GetViewportWidth() != 1920 {
		t.Errorf("GetViewportWidth = %d", cfg.GetViewportWidth())
	}
	if cfg.GetViewportHeight() != 1080 {
		t.Errorf("GetViewportHeight = %d", cfg.GetViewportHeight())
	}
	if cfg.NavigationTimeout() != 30*time.Second {
		t.Errorf("NavigationTimeout = %v", cfg.NavigationTimeout())
	}
}

func TestCapturerStartsDisconnected(t *testing.T) {
	c := NewCapturer(DefaultConfig(), nil)
	if c.IsConnected() {
		t.Error("fresh capturer should not be connected")
	}
	if c.ControlURL() != "" {
		t.Errorf("ControlURL = %q, want empty", c.ControlURL())
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on fresh capturer: %v", err)
	}
}
