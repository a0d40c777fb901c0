// Package render captures pixel-accurate screenshots of local HTML
// files with a headless Chrome instance. The screenshot is the visual
// ground truth the code generator reproduces as slides.
package render

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"deckforge/internal/logging"
)

// Config holds browser configuration.
type Config struct {
	ViewportWidth  int           `json:"viewport_width"`
	ViewportHeight int           `json:"viewport_height"`
	NavTimeout     time.Duration `json:"nav_timeout"`
	SettleDelay    time.Duration `json:"settle_delay"`
	BrowserBin     string        `json:"browser_bin"`
	DebuggerURL    string        `json:"debugger_url"`
}

// DefaultConfig returns sensible defaults. The 1920x1080 viewport
// matches the 16:9 slide geometry downstream.
func DefaultConfig() Config {
	return Config{
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		NavTimeout:     30 * time.Second,
		SettleDelay:    time.Second,
	}
}

// GetViewportWidth returns viewport width.
func (c Config) GetViewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1920
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c Config) GetViewportHeight() int {
	if c.ViewportHeight == 0 {
		return 1080
	}
	return c.ViewportHeight
}

// NavigationTimeout returns the navigation timeout.
func (c Config) NavigationTimeout() time.Duration {
	if c.NavTimeout == 0 {
		return 30 * time.Second
	}
	return c.NavTimeout
}

// Capturer owns one headless Chrome instance and takes screenshots on
// demand. It is safe for concurrent use.
type Capturer struct {
	cfg Config
	log *logging.Logger

	mu         sync.Mutex
	browser    *rod.Browser
	controlURL string
}

// NewCapturer creates a capturer. The browser is launched lazily on the
// first capture. A nil logger is replaced with a no-op one.
func NewCapturer(cfg Config, log *logging.Logger) *Capturer {
	if log == nil {
		log = logging.Nop().Get(logging.CategoryRender)
	}
	return &Capturer{cfg: cfg, log: log}
}

// Start connects to an existing Chrome or launches a new headless one.
func (c *Capturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx)
}

func (c *Capturer) startLocked(ctx context.Context) error {
	if c.browser != nil {
		if _, err := c.browser.Version(); err == nil {
			return nil // Browser is healthy
		}
		c.log.Warn("Stale browser connection detected, reconnecting")
		_ = c.browser.Close()
		c.browser = nil
		c.controlURL = ""
	}

	controlURL := c.cfg.DebuggerURL
	if controlURL == "" {
		launch := launcher.New().Headless(true)
		if c.cfg.BrowserBin != "" {
			launch = launch.Bin(c.cfg.BrowserBin)
		}
		u, err := launch.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}

	c.browser = browser
	c.controlURL = controlURL
	c.log.Info("Browser connected at %s", controlURL)
	return nil
}

// ControlURL returns the WebSocket debugger URL.
func (c *Capturer) ControlURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controlURL
}

// IsConnected returns whether the browser is connected.
func (c *Capturer) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.browser != nil
}

// Close shuts down the browser.
func (c *Capturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
	}
	c.controlURL = ""
	return err
}

// CaptureFile renders a local HTML file at the configured viewport and
// returns a lossless PNG screenshot.
func (c *Capturer) CaptureFile(ctx context.Context, htmlPath string) ([]byte, error) {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", htmlPath, err)
	}
	return c.CaptureURL(ctx, fileURL(abs))
}

// CaptureURL renders any URL and returns a PNG screenshot.
func (c *Capturer) CaptureURL(ctx context.Context, pageURL string) ([]byte, error) {
	c.mu.Lock()
	if err := c.startLocked(ctx); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	browser := c.browser
	c.mu.Unlock()

	if browser == nil {
		return nil, errors.New("browser not connected")
	}

	timer := c.log.StartTimer("screenshot capture")
	defer timer.StopWithInfo()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             c.cfg.GetViewportWidth(),
		Height:            c.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		c.log.Warn("Failed to set viewport: %v", err)
	}

	nav := page.Context(ctx).Timeout(c.cfg.NavigationTimeout())
	if err := nav.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", pageURL, err)
	}
	if err := nav.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait for load: %w", err)
	}

	// Give web fonts and CSS animations a moment to settle.
	if c.cfg.SettleDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.SettleDelay):
		}
	}

	png, err := page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}

	c.log.Debug("Captured %d bytes from %s", len(png), pageURL)
	return png, nil
}

// fileURL converts an absolute path to a file:// URL.
func fileURL(abs string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}
