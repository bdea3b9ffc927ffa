package export

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"fintrack/internal/api"
)

const uploadTimeout = 2 * time.Minute

// objectWriter opens a writer for bucket/object. The object is committed
// when the writer is closed without error.
type objectWriter interface {
	NewWriter(ctx context.Context, bucket, object, contentType string) io.WriteCloser
}

type storageWriter struct {
	client *storage.Client
}

func (s storageWriter) NewWriter(ctx context.Context, bucket, object, contentType string) io.WriteCloser {
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	return w
}

// GCSSink uploads exports to gs://Bucket/Prefix/<name>.
type GCSSink struct {
	Bucket string
	Prefix string

	objects objectWriter
	close   func() error
}

// NewGCSSink creates a storage client using Application Default Credentials.
func NewGCSSink(ctx context.Context, bucket, prefix string) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSSink{
		Bucket:  bucket,
		Prefix:  prefix,
		objects: storageWriter{client: client},
		close:   client.Close,
	}, nil
}

func (s *GCSSink) ObjectName(fileName string) string {
	return path.Join(strings.Trim(s.Prefix, "/"), fileName)
}

func (s *GCSSink) Write(ctx context.Context, f api.File) (string, error) {
	name, err := safeName(f.Name)
	if err != nil {
		return "", err
	}
	object := s.ObjectName(name)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.objects.NewWriter(ctx, s.Bucket, object, f.ContentType)
	if _, err := w.Write(f.Data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy export to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.Bucket, object), nil
}

func (s *GCSSink) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
