package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint
	Name string
}

func TestRegisterDBTracing(t *testing.T) {
	rec := withRecorder(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, RegisterDBTracing(db, "sqlite", 0, zap.NewNop()))
	require.NoError(t, db.AutoMigrate(&tracedRow{}))

	ctx, span := StartSpan(context.Background(), "test", "db")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	span.End()

	var found bool
	for _, s := range rec.Ended() {
		for _, kv := range s.Attributes() {
			if kv == attribute.String("db.sql.table", "traced_rows") {
				found = true
			}
		}
	}
	assert.True(t, found, "expected a span annotated with the table name")
}

func TestRegisterDBTracing_Twice(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, RegisterDBTracing(db, "sqlite", 0, zap.NewNop()))
	assert.Error(t, RegisterDBTracing(db, "sqlite", 0, zap.NewNop()))
}
