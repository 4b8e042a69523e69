package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/workflow"
)

type lockEntry struct {
	owner     string
	expiresAt time.Time
}

// InMemoryRunLock implements workflow.RunLock with a mutex-guarded map.
// Suitable for single-instance deployments and tests.
type InMemoryRunLock struct {
	mu      sync.Mutex
	entries map[uuid.UUID]lockEntry
	now     func() time.Time
}

// NewInMemoryRunLock creates an empty lock table
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		entries: make(map[uuid.UUID]lockEntry),
		now:     time.Now,
	}
}

// Acquire takes the lock when it is free or expired
func (l *InMemoryRunLock) Acquire(_ context.Context, workflowID uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.entries[workflowID]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	l.entries[workflowID] = lockEntry{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

// Extend pushes the expiry of a live lock held by owner
func (l *InMemoryRunLock) Extend(_ context.Context, workflowID uuid.UUID, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[workflowID]
	if !ok || e.owner != owner || !now.Before(e.expiresAt) {
		return false, nil
	}
	e.expiresAt = now.Add(ttl)
	l.entries[workflowID] = e
	return true, nil
}

// Release frees the lock only if owner holds it
func (l *InMemoryRunLock) Release(_ context.Context, workflowID uuid.UUID, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.entries[workflowID]; ok && e.owner == owner {
		delete(l.entries, workflowID)
	}
	return nil
}

// Holder returns the current owner, or "" when unlocked
func (l *InMemoryRunLock) Holder(_ context.Context, workflowID uuid.UUID) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[workflowID]
	if !ok || !l.now().Before(e.expiresAt) {
		return "", nil
	}
	return e.owner, nil
}

// Size returns the number of live locks
func (l *InMemoryRunLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	n := 0
	for id, e := range l.entries {
		if now.Before(e.expiresAt) {
			n++
		} else {
			delete(l.entries, id)
		}
	}
	return n
}

var _ workflow.RunLock = (*InMemoryRunLock)(nil)
