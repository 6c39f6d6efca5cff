package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	UseSSL    bool
}

// MinioStorage stores logos as individually named blobs in a fixed
// S3-compatible bucket.
type MinioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinio(cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &MinioStorage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload names the object with a millisecond timestamp so a new logo
// never overwrites the previous one.
func (s *MinioStorage) Upload(ctx context.Context, fileName, contentType string, size int64, r io.Reader) (string, error) {
	key := objectKey(fileName, time.Now().UTC())
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "max-age=3600",
	})
	if err != nil {
		return "", fmt.Errorf("upload logo: %w", err)
	}
	return s.publicURL + "/" + s.bucket + "/" + key, nil
}

func (s *MinioStorage) Remove(ctx context.Context, objectURL string) error {
	key, err := keyFromURL(objectURL)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove logo: %w", err)
	}
	return nil
}

func objectKey(fileName string, now time.Time) string {
	ext := path.Ext(fileName)
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("logo-%d%s", now.UnixMilli(), ext)
}

func keyFromURL(objectURL string) (string, error) {
	parsed, err := url.Parse(objectURL)
	if err != nil {
		return "", fmt.Errorf("parse logo url: %w", err)
	}
	key := path.Base(parsed.Path)
	if key == "" || key == "." || key == "/" {
		return "", fmt.Errorf("logo url %q has no object name", objectURL)
	}
	return key, nil
}
