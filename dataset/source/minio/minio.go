// Package minio provides a dataset source for MinIO and other
// S3-compatible object stores.
package minio

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/clusterkit/clusterkit/dataset/source"
)

// Source reads a dataset object from a MinIO bucket.
type Source struct {
	client *minio.Client
	bucket string
	key    string
}

// New creates a Source for the given client, bucket and key.
func New(client *minio.Client, bucket, key string) *Source {
	return &Source{client: client, bucket: bucket, key: key}
}

// Open streams the object. Missing objects map to source.ErrNotFound.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	// Stat first so a missing key fails here instead of on first read.
	if _, err := s.client.StatObject(ctx, s.bucket, s.key, minio.StatObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("%w: %s", source.ErrNotFound, s.Name())
		}
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Name returns the minio://bucket/key form.
func (s *Source) Name() string {
	return fmt.Sprintf("minio://%s/%s", s.bucket, s.key)
}
