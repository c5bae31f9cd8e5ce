// Package storage provides the object-storage collaborator: blobs go in,
// public URLs come out, and deletion by URL removes the backing object.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the S3/MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicBaseURL is the externally reachable prefix for stored objects.
	// Empty means the endpoint itself.
	PublicBaseURL string
}

// Store wraps MinIO/S3 interactions for archived attachments and shared
// report PDFs.
type Store struct {
	client        *minio.Client
	bucket        string
	region        string
	publicBaseURL string
}

// New creates a MinIO client from the Config.
func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &Store{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: strings.TrimSuffix(base, "/"),
	}, nil
}

// EnsureBucket makes sure the attachment bucket exists before use.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Upload stores the blob and returns its public URL.
func (s *Store) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", fmt.Errorf("upload object %s: %w", name, err)
	}
	return s.publicBaseURL + "/" + url.PathEscape(name), nil
}

// Delete removes the object backing the given public URL.
func (s *Store) Delete(ctx context.Context, objectURL string) error {
	name, err := s.objectName(objectURL)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", name, err)
	}
	return nil
}

func (s *Store) objectName(objectURL string) (string, error) {
	if !strings.HasPrefix(objectURL, s.publicBaseURL+"/") {
		return "", fmt.Errorf("URL %s is not under %s", objectURL, s.publicBaseURL)
	}
	name, err := url.PathUnescape(strings.TrimPrefix(objectURL, s.publicBaseURL+"/"))
	if err != nil {
		return "", fmt.Errorf("unescape object name: %w", err)
	}
	return name, nil
}
