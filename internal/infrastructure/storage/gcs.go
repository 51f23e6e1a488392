package storage

import (
	"context"
	"time"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/foodgram/pkg/helpers"
)

// GCSStore writes objects to a Google Cloud Storage bucket.
type GCSStore struct {
	Client  *storage.Client
	Bucket  string
	Timeout time.Duration
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{Client: client, Bucket: bucket, Timeout: 30 * time.Second}
}

// Put uploads data under key. Keys are fresh UUIDs, so an existing object means a collision and fails.
func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	obj := s.Client.Bucket(s.Bucket).Object(key).If(storage.Conditions{DoesNotExist: true})
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"
	wc.ChunkSize = 0 // single request for small files
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return helpers.GCSObjectURL(s.Bucket, key), nil
}
