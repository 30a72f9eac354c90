package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API defines the S3 operations the store uses. *s3.Client
// satisfies it.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store is an S3-backed Store, suitable for multi-server deployments
// that share rendered documents. Each entry is one JSON object; Set
// issues a single PutObject, so readers see either the old entry or
// the new one, never a mix.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	closed bool
}

// S3StoreOption configures S3Store behavior.
type S3StoreOption func(*s3StoreConfig)

type s3StoreConfig struct {
	prefix string
}

// WithS3Prefix sets the object key prefix. Default: "weft/renders/".
func WithS3Prefix(prefix string) S3StoreOption {
	return func(c *s3StoreConfig) {
		c.prefix = prefix
	}
}

// NewS3Store creates an S3-backed store.
func NewS3Store(client S3API, bucket string, opts ...S3StoreOption) *S3Store {
	cfg := &s3StoreConfig{
		prefix: "weft/renders/",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: cfg.prefix,
	}
}

// objectKey returns the S3 object key for a cache key.
func (s *S3Store) objectKey(key string) string {
	return s.prefix + key
}

// Get retrieves an entry if the object exists.
func (s *S3Store) Get(ctx context.Context, key string) (*Entry, error) {
	if s.closed {
		return nil, ErrStoreClosed{}
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil
		}
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Set writes the entry as one object.
func (s *S3Store) Set(ctx context.Context, key string, entry *Entry) error {
	if s.closed {
		return ErrStoreClosed{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

// Delete removes the object for key.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if s.closed {
		return ErrStoreClosed{}
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	return err
}

// Clear removes every object under the store's prefix, paging through
// the listing.
func (s *S3Store) Clear(ctx context.Context) error {
	if s.closed {
		return ErrStoreClosed{}
	}

	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return err
		}

		for _, obj := range out.Contents {
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}); err != nil {
				return err
			}
		}

		if out.NextContinuationToken == nil {
			return nil
		}
		token = out.NextContinuationToken
	}
}

// Close marks the store closed. The underlying client is not owned by
// the store.
func (s *S3Store) Close() error {
	s.closed = true
	return nil
}
