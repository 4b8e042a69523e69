package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSlowQueryThreshold marks queries slower than this on their span
const DefaultSlowQueryThreshold = 200 * time.Millisecond

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// RegisterDBTracing installs otelgorm plus slow-query annotation on db.
// Query variables are never recorded.
func RegisterDBTracing(db *gorm.DB, dbSystem string, slowThreshold time.Duration, logger *zap.Logger) error {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowQueryThreshold
	}
	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(dbSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartTimeKey, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateSpan(tx, slowThreshold) }

	// Annotations must land before otelgorm ends the span.
	cb := db.Callback()
	regs := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("miv_otel:before_create", before) },
		func() error { return cb.Query().Before("gorm:query").Register("miv_otel:before_query", before) },
		func() error { return cb.Update().Before("gorm:update").Register("miv_otel:before_update", before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("miv_otel:before_delete", before) },
		func() error { return cb.Row().Before("gorm:row").Register("miv_otel:before_row", before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("miv_otel:before_raw", before) },
		func() error {
			return cb.Create().After("gorm:create").Before("otel:after_create").Register("miv_otel:after_create", after)
		},
		func() error {
			return cb.Query().After("gorm:query").Before("otel:after_query").Register("miv_otel:after_query", after)
		},
		func() error {
			return cb.Update().After("gorm:update").Before("otel:after_update").Register("miv_otel:after_update", after)
		},
		func() error {
			return cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("miv_otel:after_delete", after)
		},
		func() error {
			return cb.Row().After("gorm:row").Before("otel:after_row").Register("miv_otel:after_row", after)
		},
		func() error {
			return cb.Raw().After("gorm:raw").Before("otel:after_raw").Register("miv_otel:after_raw", after)
		},
	}
	for _, register := range regs {
		if err := register(); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled", zap.String("db_system", dbSystem), zap.Duration("slow_query_threshold", slowThreshold))
	return nil
}

func annotateSpan(tx *gorm.DB, slowThreshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		RecordError(span, tx.Error)
	}
	if start, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		if elapsed := time.Since(start); elapsed > slowThreshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
