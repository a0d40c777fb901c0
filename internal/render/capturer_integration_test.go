//go:build integration

package render_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"deckforge/internal/render"
)

func TestCaptureFile_Integration(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "slide_1.html")
	html := `<html><body style="background:#123456;width:1920px;height:1080px"><h1>Hello Deck</h1></body></html>`
	require.NoError(t, os.WriteFile(htmlPath, []byte(html), 0644))

	cfg := render.DefaultConfig()
	cfg.SettleDelay = 100 * time.Millisecond

	c := render.NewCapturer(cfg, nil)
	defer func() {
		require.NoError(t, c.Close())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	png, err := c.CaptureFile(ctx, htmlPath)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	// PNG magic bytes
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	// Second capture reuses the browser.
	require.True(t, c.IsConnected())
	png2, err := c.CaptureFile(ctx, htmlPath)
	require.NoError(t, err)
	require.NotEmpty(t, png2)
}
