package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"deckforge/internal/logging"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// GCSSink uploads artifacts to a Google Cloud Storage bucket. Objects
// get random names so repeated conversions of the same document never
// overwrite each other.
type GCSSink struct {
	client *storage.Client
	bucket string
	prefix string
	log    *logging.Logger
}

// NewGCSSink creates a sink for the given bucket. credentialsFile is
// optional; when empty the client uses application default credentials.
func NewGCSSink(ctx context.Context, bucket, keyPrefix, credentialsFile string, log *logging.Logger) (*GCSSink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("GCS bucket name is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at %s", credentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	if log == nil {
		log = logging.Nop().Get(logging.CategorySink)
	}

	return &GCSSink{
		client: client,
		bucket: bucket,
		prefix: keyPrefix,
		log:    log,
	}, nil
}

// Store uploads the artifact and returns its public-style URL.
func (s *GCSSink) Store(ctx context.Context, artifactPath, _ string) (string, error) {
	localFile, err := os.Open(artifactPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact %s: %w", artifactPath, err)
	}
	defer localFile.Close()

	key := ObjectKey(s.prefix)
	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = pptxContentType

	if _, err := io.Copy(writer, localFile); err != nil {
		return "", fmt.Errorf("failed to copy %s to GCS object %s: %w", artifactPath, key, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", key, err)
	}

	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
	s.log.Info("Uploaded artifact to gs://%s/%s", s.bucket, key)
	return url, nil
}

// Close releases the underlying client.
func (s *GCSSink) Close() error {
	return s.client.Close()
}

// ObjectKey builds the object name for one upload: the prefix joined
// with a fresh UUID and the .pptx extension.
func ObjectKey(prefix string) string {
	name := uuid.NewString() + ".pptx"
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}
