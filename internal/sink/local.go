// Package sink delivers finished .pptx artifacts: to a path beside the
// source document, or to a Google Cloud Storage bucket.
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"deckforge/internal/logging"
)

// LocalSink moves the artifact onto the local filesystem. With no Dest
// it lands next to the source with the extension swapped, so
// slide_1.html delivers as slide_1.pptx.
type LocalSink struct {
	// Dest, when set, is the explicit output path.
	Dest string

	Log *logging.Logger
}

// Store moves artifactPath to its final location and returns that path.
func (s *LocalSink) Store(_ context.Context, artifactPath, sourcePath string) (string, error) {
	dest := s.Dest
	if dest == "" {
		ext := filepath.Ext(sourcePath)
		dest = strings.TrimSuffix(sourcePath, ext) + ".pptx"
	}

	if err := moveFile(artifactPath, dest); err != nil {
		return "", fmt.Errorf("deliver %s: %w", dest, err)
	}
	if s.Log != nil {
		s.Log.Info("Delivered artifact to %s", dest)
	}
	return dest, nil
}

// moveFile renames src to dest, copying when they sit on different
// filesystems (the artifact comes out of a temp dir).
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
