// Package storage uploads listing photos to Cloud Storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const MaxUploadBytes = 10 << 20

var (
	ErrNotConfigured      = errors.New("image storage is not configured")
	ErrUnsupportedContent = errors.New("only jpeg, png and webp images are accepted")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Uploader interface {
	Upload(ctx context.Context, contentType string, r io.Reader) (string, error)
}

// ObjectName builds a collision-free object key for a product photo.
func ObjectName(contentType string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedContent
	}
	return path.Join("products", uuid.NewString()+ext), nil
}

func PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}

type GCSUploader struct {
	client *gcs.Client
	bucket string
}

func NewGCSUploader(ctx context.Context, bucket string) (*GCSUploader, error) {
	if bucket == "" {
		return nil, ErrNotConfigured
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (u *GCSUploader) Upload(ctx context.Context, contentType string, r io.Reader) (string, error) {
	object, err := ObjectName(contentType)
	if err != nil {
		return "", err
	}
	err = copyObject(ctx, r, func(ctx context.Context) objectWriter {
		w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
		w.ContentType = contentType
		w.CacheControl = "public, max-age=86400"
		return w
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return PublicURL(u.bucket, object), nil
}

type objectWriter interface {
	io.Writer
	Close() error
}

// copyObject streams r into a writer bound to a cancellable context. A
// failed copy cancels before Close so the partial object is discarded.
func copyObject(ctx context.Context, r io.Reader, open func(context.Context) objectWriter) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := open(ctx)
	if _, err := io.Copy(w, io.LimitReader(r, MaxUploadBytes)); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	return nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}
