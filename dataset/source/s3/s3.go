// Package s3 provides a dataset source backed by Amazon S3.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/clusterkit/clusterkit/dataset/source"
)

// Source reads a dataset object from an S3 bucket.
type Source struct {
	client *s3.Client
	bucket string
	key    string
}

// New creates a Source for the given client, bucket and key.
func New(client *s3.Client, bucket, key string) *Source {
	return &Source{client: client, bucket: bucket, key: key}
}

// NewFromDefaultConfig creates a Source using the default AWS
// credential chain (environment, shared config, instance metadata).
func NewFromDefaultConfig(ctx context.Context, bucket, key string) (*Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket, key), nil
}

// Open downloads the object and returns a reader over its contents.
// The transfer manager fetches ranges concurrently, so the whole
// object is buffered before the reader is returned.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: %s", source.ErrNotFound, s.Name())
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", source.ErrNotFound, s.Name())
		}
		return nil, err
	}

	buf := manager.NewWriteAtBuffer(make([]byte, 0, aws.ToInt64(head.ContentLength)))
	downloader := manager.NewDownloader(s.client)
	if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	}); err != nil {
		return nil, fmt.Errorf("download %s: %w", s.Name(), err)
	}

	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

// Name returns the s3://bucket/key form.
func (s *Source) Name() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}
