//go:build integration

package persistence_test

import (
	"context"
	"testing"

	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/catalog"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// The SQL migrations and the gorm models must describe the same schema.
func TestPostgresSchema_MatchesRepositories(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewPostgresDB(t)
	require.Equal(t, "postgres", db.Driver())

	t.Run("users", func(t *testing.T) {
		repo := persistence.NewGormUserRepository(db.DB)
		u, err := identity.NewUser("Grace", "grace@miv.test", "password123", identity.RoleManager)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, u))

		dup, err := identity.NewUser("Other", "grace@miv.test", "password123", identity.RoleAnalyst)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("ventures keep decimal amounts", func(t *testing.T) {
		repo := persistence.NewGormVentureRepository(db.DB)
		v, err := venture.NewVenture(venture.Profile{
			Name:          "Solar Kiosk",
			Sector:        "Energy",
			CapitalSought: decimal.RequireFromString("125000.50"),
			FundingType:   venture.FundingTypeBlended,
			WomenLed:      true,
		}, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, v))

		stored, err := repo.FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.True(t, stored.CapitalSought.Equal(decimal.RequireFromString("125000.50")))

		found, total, err := repo.FindAll(ctx, venture.VentureFilter{Keyword: "solar"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, found, 1)
	})

	t.Run("iris catalog upsert", func(t *testing.T) {
		repo := persistence.NewGormIRISMetricRepository(db.DB)
		first, err := catalog.Import(ctx, repo, zap.NewNop())
		require.NoError(t, err)
		second, err := catalog.Import(ctx, repo, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, first, second)

		_, total, err := repo.FindAll(ctx, venture.IRISFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(first), total)
	})

	t.Run("workflow runs", func(t *testing.T) {
		workflows := persistence.NewGormWorkflowRepository(db.DB)
		runs := persistence.NewGormWorkflowRunRepository(db.DB)

		wf, err := workflow.NewWorkflow(workflow.Definition{
			Name:    "Intake welcome",
			Trigger: workflow.TriggerVentureCreated,
			Steps:   []workflow.Step{{Type: workflow.StepLogActivity, Config: map[string]any{"title": "Welcome"}}},
		}, workflow.ValidationOptions{}, nil)
		require.NoError(t, err)
		require.NoError(t, workflows.Create(ctx, wf))

		run := workflow.NewWorkflowRun(wf, workflow.TriggerManual, map[string]any{"ventureId": "abc"}, nil)
		require.NoError(t, runs.Create(ctx, run))
		require.NoError(t, run.Start())
		require.NoError(t, runs.Update(ctx, run))

		open, err := runs.FindByStatuses(ctx, workflow.RunStatusRunning)
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, "abc", open[0].Input["ventureId"])
	})
}
