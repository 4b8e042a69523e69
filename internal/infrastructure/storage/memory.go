package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/miv/backend/internal/domain/document"
)

// MemoryObjectStorage is used when object storage is disabled. Presigned
// URLs point at BaseURL and are never served; an object counts as present
// unless it was deleted, so the upload confirmation flow works locally.
type MemoryObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
	deleted map[string]bool
}

// NewMemoryObjectStorage creates an empty in-memory store
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "http://localhost:9000/miv-documents",
		objects: make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

func (m *MemoryObjectStorage) signed(action, key string, expiresIn time.Duration) (string, time.Time) {
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{"action": {action}, "expires": {expiresAt.UTC().Format(time.RFC3339)}}
	return m.BaseURL + "/" + key + "?" + q.Encode(), expiresAt
}

func (m *MemoryObjectStorage) GenerateUploadURL(_ context.Context, key, _ string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	u, exp := m.signed("upload", key, expiresIn)
	return u, exp, nil
}

func (m *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	u, exp := m.signed("download", key, expiresIn)
	return u, exp, nil
}

func (m *MemoryObjectStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.deleted[key], nil
}

func (m *MemoryObjectStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted[key] = true
	return nil
}

func (m *MemoryObjectStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	delete(m.deleted, key)
	return nil
}

// Object returns the bytes written by Upload
func (m *MemoryObjectStorage) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}

var _ document.ObjectStorage = (*MemoryObjectStorage)(nil)
