package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/miv/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorageConfig() config.StorageConfig {
	return config.StorageConfig{
		Bucket:            "miv-test",
		AccessKeyID:       "test-key",
		SecretAccessKey:   "test-secret",
		Endpoint:          "http://localhost:9000",
		UsePathStyle:      true,
		PresignExpiration: 15 * time.Minute,
	}
}

func newTestS3Storage(t *testing.T) *S3ObjectStorage {
	t.Helper()
	s, err := NewS3ObjectStorage(context.Background(), testStorageConfig())
	require.NoError(t, err)
	return s
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.StorageConfig)
		wantErr string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKeyID = "" }, "credentials are required"},
		{"missing secret", func(c *config.StorageConfig) { c.SecretAccessKey = "" }, "credentials are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testStorageConfig()
			tt.mutate(&cfg)
			_, err := NewS3ObjectStorage(context.Background(), cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("defaults presign expiration", func(t *testing.T) {
		cfg := testStorageConfig()
		cfg.PresignExpiration = 0
		s, err := NewS3ObjectStorage(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
		assert.Equal(t, "miv-test", s.Bucket())
	})
}

func TestS3ObjectStorage_PresignedURLs(t *testing.T) {
	s := newTestS3Storage(t)
	ctx := context.Background()
	key := "documents/ventures/abc/deck.pdf"

	uploadURL, expiresAt, err := s.GenerateUploadURL(ctx, key, "application/pdf", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uploadURL, "http://localhost:9000/miv-test/"))
	assert.Contains(t, uploadURL, "X-Amz-Signature")
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	downloadURL, expiresAt, err := s.GenerateDownloadURL(ctx, key, 0)
	require.NoError(t, err)
	assert.Contains(t, downloadURL, "deck.pdf")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
}

func TestS3ObjectStorage_RejectsEmptyKey(t *testing.T) {
	s := newTestS3Storage(t)
	ctx := context.Background()

	_, _, err := s.GenerateUploadURL(ctx, "", "", 0)
	assert.ErrorIs(t, err, errEmptyKey)
	_, _, err = s.GenerateDownloadURL(ctx, "", 0)
	assert.ErrorIs(t, err, errEmptyKey)
	_, err = s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, errEmptyKey)
	assert.ErrorIs(t, s.DeleteObject(ctx, ""), errEmptyKey)
	assert.ErrorIs(t, s.Upload(ctx, "", []byte("x"), "text/plain"), errEmptyKey)
}

func TestMemoryObjectStorage(t *testing.T) {
	s := NewMemoryObjectStorage()
	ctx := context.Background()

	u, _, err := s.GenerateUploadURL(ctx, "reports/a.pdf", "application/pdf", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "reports/a.pdf")
	assert.Contains(t, u, "action=upload")

	exists, err := s.ObjectExists(ctx, "reports/a.pdf")
	require.NoError(t, err)
	assert.True(t, exists, "unknown keys count as uploaded")

	require.NoError(t, s.Upload(ctx, "reports/a.pdf", []byte("%PDF"), "application/pdf"))
	data, ok := s.Object("reports/a.pdf")
	require.True(t, ok)
	assert.Equal(t, []byte("%PDF"), data)

	require.NoError(t, s.DeleteObject(ctx, "reports/a.pdf"))
	exists, err = s.ObjectExists(ctx, "reports/a.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
	_, ok = s.Object("reports/a.pdf")
	assert.False(t, ok)
}
