package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roomrent/marketplace/internal/models"
)

type mockObjectClient struct {
	mock.Mock
}

func (m *mockObjectClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, args.Error(0)
}

func (m *mockObjectClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *mockObjectClient) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	args := m.Called(ctx, bucketName, opts)
	return args.Error(0)
}

func (m *mockObjectClient) SetBucketPolicy(ctx context.Context, bucketName, policy string) error {
	args := m.Called(ctx, bucketName, policy)
	return args.Error(0)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestImageStorage_PutPassesContentType(t *testing.T) {
	client := new(mockObjectClient)
	store := newImageStorage(client, "", "http://localhost:9000/", quietLogger())

	body := strings.NewReader("jpg")
	client.On("PutObject", mock.Anything, DefaultBucket, "1-room.jpg", body, int64(3), minio.PutObjectOptions{ContentType: "image/jpeg"}).Return(nil)

	require.NoError(t, store.Put(context.Background(), "1-room.jpg", body, 3, "image/jpeg"))
	client.AssertExpectations(t)
}

func TestImageStorage_PublicURL(t *testing.T) {
	store := newImageStorage(new(mockObjectClient), "", "http://localhost:9000/", quietLogger())

	assert.Equal(t, "http://localhost:9000/listing-images/1-my%20room.jpg", store.PublicURL("1-my room.jpg"))
}

func TestImageStorage_BreakerOpensAfterFailures(t *testing.T) {
	client := new(mockObjectClient)
	store := newImageStorage(client, "", "http://localhost:9000", quietLogger())

	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	for i := 0; i < 3; i++ {
		err := store.Put(context.Background(), "x.jpg", strings.NewReader(""), 0, "image/jpeg")
		assert.ErrorIs(t, err, models.ErrBackend)
	}

	err := store.Put(context.Background(), "x.jpg", strings.NewReader(""), 0, "image/jpeg")
	assert.ErrorIs(t, err, models.ErrBackend)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	client.AssertNumberOfCalls(t, "PutObject", 3)
}

func TestImageStorage_EnsureBucketCreatesMissing(t *testing.T) {
	client := new(mockObjectClient)
	store := newImageStorage(client, "photos", "http://localhost:9000", quietLogger())

	client.On("BucketExists", mock.Anything, "photos").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "photos", minio.MakeBucketOptions{}).Return(nil)
	client.On("SetBucketPolicy", mock.Anything, "photos", mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "arn:aws:s3:::photos/*")
	})).Return(nil)

	require.NoError(t, store.EnsureBucket(context.Background()))
	client.AssertExpectations(t)
}

func TestImageStorage_EnsureBucketExisting(t *testing.T) {
	client := new(mockObjectClient)
	store := newImageStorage(client, "", "http://localhost:9000", quietLogger())

	client.On("BucketExists", mock.Anything, DefaultBucket).Return(true, nil)
	client.On("SetBucketPolicy", mock.Anything, DefaultBucket, mock.Anything).Return(nil)

	require.NoError(t, store.EnsureBucket(context.Background()))
	client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}
