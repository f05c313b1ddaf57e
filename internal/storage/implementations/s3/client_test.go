package s3

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/pkg/errors"
)

func TestNewS3Storage(t *testing.T) {
	config := &S3Config{
		Region: "us-east-1",
		Bucket: "healthtrack-artifacts",
	}

	logger := logrus.New()
	storage, err := NewS3Storage(config, logger)

	require.NoError(t, err)
	assert.Equal(t, config, storage.config)
	assert.Equal(t, logger, storage.logger)
}

func TestNewS3StorageInvalidConfig(t *testing.T) {
	_, err := NewS3Storage(nil, logrus.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")

	_, err = NewS3Storage(&S3Config{Region: "us-east-1"}, logrus.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")
}

func TestS3StorageKeys(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{"no prefix", "", "weight_prediction/weight", "artifacts/weight_prediction/weight.json"},
		{"prefix", "prod", "anomaly_detection/body_fat", "prod/artifacts/anomaly_detection/body_fat.json"},
		{"trailing slash", "prod/", "weight_prediction/weight", "prod/artifacts/weight_prediction/weight.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := NewS3Storage(&S3Config{Bucket: "b", Prefix: tt.prefix}, nil)
			require.NoError(t, err)

			objectKey := storage.generateKey(tt.key)
			assert.Equal(t, tt.want, objectKey)
			assert.Equal(t, tt.key, storage.extractKey(objectKey))
		})
	}
}

func TestS3StorageExtractKeyIgnoresForeignObjects(t *testing.T) {
	storage, err := NewS3Storage(&S3Config{Bucket: "b", Prefix: "prod"}, nil)
	require.NoError(t, err)

	assert.Empty(t, storage.extractKey("prod/exports/data.csv"))
	assert.Empty(t, storage.extractKey("prod/artifacts/readme.txt"))
}

func TestCompressRoundTrip(t *testing.T) {
	payload := []byte(`{"name":"weight_prediction","parameters":{"order":[5,1,0]}}`)

	compressed, err := compress(payload)
	require.NoError(t, err)
	assert.NotEqual(t, payload, compressed)

	restored, err := decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, payload, restored)

	_, err = decompress([]byte("not gzip"))
	assert.Error(t, err)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)))
	assert.False(t, isNotFound(awserr.New("AccessDenied", "denied", nil)))
	assert.False(t, isNotFound(assert.AnError))
}

func TestS3StorageRequiresConnection(t *testing.T) {
	storage, err := NewS3Storage(&S3Config{Bucket: "b"}, nil)
	require.NoError(t, err)

	ctx := context.Background()

	assert.True(t, errors.IsType(storage.Save(ctx, "k", []byte("{}")), errors.ErrorTypeStorage))

	_, err = storage.Load(ctx, "k")
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))

	_, err = storage.List(ctx)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))

	assert.NoError(t, storage.Close())
}

func TestS3StorageIntegration(t *testing.T) {
	t.Skip("Integration test - requires S3 or a compatible endpoint")

	storage, err := NewS3Storage(&S3Config{
		Region:         "us-east-1",
		Bucket:         "healthtrack-test",
		Endpoint:       "http://localhost:9000",
		ForcePathStyle: true,
		DisableSSL:     true,
		UseCompression: true,
	}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, storage.Connect(ctx))
	defer storage.Close()

	require.NoError(t, storage.Save(ctx, "weight_prediction/weight", []byte(`{"name":"weight_prediction"}`)))

	data, err := storage.Load(ctx, "weight_prediction/weight")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"weight_prediction"}`, string(data))

	keys, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, "weight_prediction/weight")
}
