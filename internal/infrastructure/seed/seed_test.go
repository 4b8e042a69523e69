package seed_test

import (
	"context"
	"testing"

	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/catalog"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/infrastructure/seed"
	"github.com/miv/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeeder_Run(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	repos := seed.Repositories{
		Users:      persistence.NewGormUserRepository(db.DB),
		Ventures:   persistence.NewGormVentureRepository(db.DB),
		Metrics:    persistence.NewGormGEDSIMetricRepository(db.DB),
		IRIS:       persistence.NewGormIRISMetricRepository(db.DB),
		Activities: persistence.NewGormActivityRepository(db.DB),
		Workflows:  persistence.NewGormWorkflowRepository(db.DB),
	}
	_, err := catalog.Import(ctx, repos.IRIS, zap.NewNop())
	require.NoError(t, err)

	res, err := seed.New(repos, 42, zap.NewNop()).Run(ctx, seed.Options{Ventures: 5})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Users)
	assert.Equal(t, 5, res.Ventures)
	assert.Equal(t, 5, res.Activities)
	assert.Equal(t, 1, res.Workflows)

	_, total, err := repos.Ventures.FindAll(ctx, venture.VentureFilter{Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)

	active, err := repos.Workflows.FindActiveByTrigger(ctx, workflow.TriggerVentureCreated)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	admin, err := repos.Users.FindByEmail(ctx, "admin@miv.local")
	require.NoError(t, err)
	assert.True(t, admin.VerifyPassword("changeme123"))

	t.Run("second run reuses the admin", func(t *testing.T) {
		res, err := seed.New(repos, 7, zap.NewNop()).Run(ctx, seed.Options{Ventures: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Users)
	})
}
