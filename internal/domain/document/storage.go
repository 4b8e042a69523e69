package document

import (
	"context"
	"time"
)

// ObjectStorage holds document bytes. Clients upload and download through
// presigned URLs; the service itself only writes generated reports.
type ObjectStorage interface {
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
	DeleteObject(ctx context.Context, key string) error
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}
