package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ObjectReader reads whole objects from a bucket store.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, object string, limit int64) (data []byte, contentType string, err error)
	Close() error
}

type gcsReader struct {
	client *storage.Client
}

// NewGCSReader creates an ObjectReader on Cloud Storage using application
// default credentials unless opts say otherwise.
func NewGCSReader(ctx context.Context, opts ...option.ClientOption) (ObjectReader, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &gcsReader{client: client}, nil
}

func (g *gcsReader) ReadObject(ctx context.Context, bucket, object string, limit int64) ([]byte, string, error) {
	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, "", fmt.Errorf("object gs://%s/%s not found: %w", bucket, object, err)
		}
		return nil, "", fmt.Errorf("opening object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, "", fmt.Errorf("reading object: %w", err)
	}
	return data, r.Attrs.ContentType, nil
}

func (g *gcsReader) Close() error {
	return g.client.Close()
}

// parseGCSURI splits gs://bucket/path/to/object.
func parseGCSURI(raw string) (bucket, object string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "gs" {
		return "", "", fmt.Errorf("scheme %q is not gs", u.Scheme)
	}
	bucket = u.Host
	object = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || object == "" {
		return "", "", errors.New("expected gs://bucket/object")
	}
	return bucket, object, nil
}
