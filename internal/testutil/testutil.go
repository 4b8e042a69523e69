// Package testutil provides shared fixtures for application and HTTP tests:
// an in-memory database, event capture and request helpers.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/infrastructure/config"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	// bcrypt at production cost makes every user fixture take ~250ms.
	identity.SetPasswordCost(4)
}

// NewSQLiteDB opens an in-memory sqlite database with the full schema.
// The connection is closed when the test ends.
func NewSQLiteDB(t *testing.T) *persistence.Database {
	t.Helper()
	db, err := persistence.NewDatabaseWithCustomLogger(&config.DatabaseConfig{
		Driver:       "sqlite",
		SQLitePath:   ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, gormlogger.Discard)
	require.NoError(t, err, "Failed to open sqlite database")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// ObservedLogger returns a logger whose entries can be asserted on.
func ObservedLogger(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// NewTestUUID generates a deterministic UUID from seed.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// ContextWithTimeout creates a context that is cancelled when the test ends.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CreateUser stores an active user with the given role.
func CreateUser(t *testing.T, db *persistence.Database, email string, role identity.Role) *identity.User {
	t.Helper()
	user, err := identity.NewUser("Test "+string(role), email, "password123", role)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(db.DB).Create(context.Background(), user))
	user.ClearDomainEvents()
	return user
}
