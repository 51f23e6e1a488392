package helpers

import (
	"context"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSPublicHost serves public objects. Tests and emulators may point it elsewhere.
var GCSPublicHost = "https://storage.googleapis.com"

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCSObjectURL builds the public URL of bucket/objectPath, escaping each path segment.
func GCSObjectURL(bucket, objectPath string) string {
	segs := strings.Split(strings.TrimLeft(objectPath, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(GCSPublicHost, "/") + "/" + bucket + "/" + strings.Join(segs, "/")
}
