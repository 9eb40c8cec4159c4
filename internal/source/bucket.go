package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Bucket reads a submission tree mirrored into an object-store bucket.
// Object keys are slash-separated paths; a delimiter listing stands in
// for directory entries.
type Bucket struct {
	client *minio.Client
	bucket string
}

func NewBucketWithClient(client *minio.Client, bucket string) (*Bucket, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &Bucket{client: client, bucket: bucket}, nil
}

func (b *Bucket) List(ctx context.Context, path string) ([]Entry, error) {
	prefix := strings.Trim(path, "/")
	if prefix != "" {
		prefix += "/"
	}
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: false}

	var entries []Entry
	for obj := range b.client.ListObjects(ctx, b.bucket, opts) {
		if obj.Err != nil {
			return nil, mapBucketErr(path, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" {
			continue
		}
		if strings.HasSuffix(name, "/") {
			entries = append(entries, Entry{Name: strings.TrimSuffix(name, "/"), Type: TypeDir})
			continue
		}
		entries = append(entries, Entry{Name: name, Type: TypeFile})
	}
	return entries, nil
}

func (b *Bucket) Read(ctx context.Context, path string) ([]byte, error) {
	key := strings.Trim(path, "/")
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapBucketErr(path, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapBucketErr(path, err)
	}
	return data, nil
}

func mapBucketErr(path string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case http.StatusForbidden, http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrPermission, path)
	}
	return fmt.Errorf("bucket %s: %w", path, err)
}
