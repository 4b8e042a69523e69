package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	documentapp "github.com/miv/backend/internal/application/document"
	"github.com/miv/backend/internal/domain/document"
	"github.com/miv/backend/internal/domain/shared"
	"github.com/miv/backend/internal/domain/venture"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/infrastructure/printing"
	"github.com/miv/backend/internal/infrastructure/storage"
	"github.com/miv/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(ctx context.Context, req *printing.RenderRequest) (*printing.RenderResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*printing.RenderResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRenderer) Close() error { return nil }

type reportFixture struct {
	svc      *VentureReportService
	objects  *storage.MemoryObjectStorage
	ventures venture.VentureRepository
	metrics  venture.GEDSIMetricRepository
	docs     document.DocumentRepository
}

func newReportFixture(t *testing.T, renderer printing.Renderer) *reportFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &reportFixture{
		objects:  storage.NewMemoryObjectStorage(),
		ventures: persistence.NewGormVentureRepository(db.DB),
		metrics:  persistence.NewGormGEDSIMetricRepository(db.DB),
		docs:     persistence.NewGormDocumentRepository(db.DB),
	}
	docs := documentapp.NewDocumentService(f.docs, f.ventures, f.objects, documentapp.Config{MaxSizeBytes: 1 << 20}, zap.NewNop())
	svc, err := NewVentureReportService(f.ventures, f.metrics, f.docs, docs, renderer, "en", 1<<20, zap.NewNop())
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	f.svc = svc
	return f
}

func (f *reportFixture) venture(t *testing.T) *venture.Venture {
	t.Helper()
	v, err := venture.NewVenture(venture.Profile{
		Name:          "Kilimo <Fresh>",
		Sector:        "Agriculture",
		Location:      "Eldoret",
		Currency:      "KES",
		CapitalSought: decimal.NewFromInt(2500000),
		FundingRaised: decimal.NewFromInt(1000000),
		JobsCreated:   1200,
		WomenLed:      true,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, f.ventures.Create(context.Background(), v))

	m, err := venture.NewGEDSIMetric(v.ID, venture.MetricSpec{
		Name:         "Women in management",
		Category:     venture.CategoryGender,
		TargetValue:  decimal.NewFromInt(10),
		CurrentValue: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	require.NoError(t, f.metrics.Create(context.Background(), m))
	return v
}

func TestVentureReportService_Generate(t *testing.T) {
	renderer := new(MockRenderer)
	f := newReportFixture(t, renderer)
	ctx := context.Background()
	v := f.venture(t)
	actor := uuid.New()

	var html string
	renderer.On("Render", mock.Anything, mock.MatchedBy(func(req *printing.RenderRequest) bool {
		html = req.HTML
		return req.PaperSize == printing.PaperA4
	})).Return(&printing.RenderResult{PDF: []byte("%PDF-1.4 report"), PageCount: 2}, nil).Once()

	resp, err := f.svc.Generate(ctx, v.ID, &actor)
	require.NoError(t, err)

	assert.Equal(t, string(document.TypeImpactReport), resp.Type)
	assert.Equal(t, string(document.StatusUploaded), resp.Status)
	assert.Equal(t, "application/pdf", resp.MimeType)
	assert.Equal(t, 2, resp.PageCount)
	assert.Equal(t, &actor, resp.UploadedByID)
	assert.Equal(t, "Kilimo <Fresh> impact report 2026-03-14.pdf", resp.Name)

	stored, ok := f.objects.Object(resp.StorageKey)
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.4 report", string(stored))

	assert.Contains(t, html, "Kilimo &lt;Fresh&gt;")
	assert.Contains(t, html, "KES 2,500,000.00")
	assert.Contains(t, html, "KES 1,500,000.00")
	assert.Contains(t, html, "1,200")
	assert.Contains(t, html, "50%")
	assert.Contains(t, html, "Women-led.")

	saved, err := f.docs.FindByVenture(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 2, saved[0].PageCount)
	renderer.AssertExpectations(t)
}

func TestVentureReportService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("printing disabled", func(t *testing.T) {
		f := newReportFixture(t, printing.DisabledRenderer{})
		v := f.venture(t)
		_, err := f.svc.Generate(ctx, v.ID, nil)
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})

	t.Run("unknown venture", func(t *testing.T) {
		f := newReportFixture(t, new(MockRenderer))
		_, err := f.svc.Generate(ctx, uuid.New(), nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("render failure stores nothing", func(t *testing.T) {
		renderer := new(MockRenderer)
		f := newReportFixture(t, renderer)
		v := f.venture(t)
		renderer.On("Render", mock.Anything, mock.Anything).
			Return(nil, printing.NewRenderError(printing.ErrCodeRenderFailed, "chrome crashed", errors.New("boom"))).Once()

		_, err := f.svc.Generate(ctx, v.ID, nil)
		var re *printing.RenderError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, printing.ErrCodeRenderFailed, re.Code)

		saved, err := f.docs.FindByVenture(ctx, v.ID)
		require.NoError(t, err)
		assert.Empty(t, saved)
	})
}
