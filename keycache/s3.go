package keycache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// S3Store persists cache entries in an S3 or S3-compatible bucket. Without
// credentials the store is read-only against public buckets.
type S3Store struct {
	client     *s3.S3
	bucketName string
	prefix     string
	log        *slog.Logger
}

// NewS3Store creates an S3 cache store. If accessKey and secretKey are
// empty, requests are unsigned and writes will fail unless the bucket is
// publicly writable.
func NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Store, error) {
	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	} else {
		log.Warn("No S3 credentials provided, cache writes may fail unless bucket is public writable")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{
		client:     s3.New(sess),
		bucketName: bucketName,
		prefix:     prefix,
		log:        log,
	}, nil
}

// Get reads the object stored for key. Returns ErrCacheMiss for missing
// objects.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, interfaces.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to fetch cache object: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache object: %w", err)
	}

	s.log.Debug("Fetched cache entry from S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", s.objectKey(key)))

	return data, nil
}

// Put writes the object for key, overwriting any previous object.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to store cache object: %w", err)
	}

	s.log.Debug("Stored cache entry in S3",
		slog.String("bucket", s.bucketName),
		slog.String("key", s.objectKey(key)))

	return nil
}

// Available checks that the bucket is reachable.
func (s *S3Store) Available(ctx context.Context) bool {
	_, err := s.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		s.log.Debug("S3 store unavailable", slog.String("bucket", s.bucketName), "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *S3Store) Name() string {
	return fmt.Sprintf("s3-%s", s.bucketName)
}

func (s *S3Store) objectKey(key string) string {
	return path.Join(s.prefix, key)
}
