package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"roomrent/marketplace/internal/models"
)

const DefaultBucket = "listing-images"

type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
}

type Options struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	PublicBaseURL string
}

// ImageStorage writes listing images to an S3-compatible bucket. Writes go
// through a circuit breaker; an open breaker fails fast with ErrBackend.
type ImageStorage struct {
	client  objectClient
	bucket  string
	baseURL string
	breaker *gobreaker.CircuitBreaker
	logger  *logrus.Logger
}

func NewImageStorage(opts Options, logger *logrus.Logger) (*ImageStorage, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", opts.Endpoint, err)
	}

	baseURL := opts.PublicBaseURL
	if baseURL == "" {
		baseURL = client.EndpointURL().String()
	}
	return newImageStorage(client, opts.Bucket, baseURL, logger), nil
}

func newImageStorage(client objectClient, bucket, baseURL string, logger *logrus.Logger) *ImageStorage {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &ImageStorage{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		breaker: newBreaker("image-storage", logger),
		logger:  logger,
	}
}

func newBreaker(name string, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

// EnsureBucket creates the bucket when missing and makes its objects
// publicly readable.
func (s *ImageStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket %s: %v", models.ErrBackend, s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: make bucket %s: %v", models.ErrBackend, s.bucket, err)
		}
		s.logger.WithField("bucket", s.bucket).Info("Bucket created")
	}

	if err := s.client.SetBucketPolicy(ctx, s.bucket, publicReadPolicy(s.bucket)); err != nil {
		return fmt.Errorf("%w: set bucket policy: %v", models.ErrBackend, err)
	}
	return nil
}

func (s *ImageStorage) Put(ctx context.Context, name string, body io.Reader, size int64, contentType string) error {
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return s.client.PutObject(ctx, s.bucket, name, body, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"bucket": s.bucket,
			"object": name,
		}).Error("Failed to put object")
		return fmt.Errorf("%w: put object %s: %v", models.ErrBackend, name, err)
	}

	s.logger.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"object": name,
		"size":   size,
	}).Debug("Object stored")
	return nil
}

func (s *ImageStorage) PublicURL(name string) string {
	return s.baseURL + "/" + s.bucket + "/" + url.PathEscape(name)
}

func (s *ImageStorage) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("%w: storage ping: %v", models.ErrBackend, err)
	}
	return nil
}
