package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	activityapp "github.com/miv/backend/internal/application/activity"
	"github.com/miv/backend/internal/application/dashboard"
	documentapp "github.com/miv/backend/internal/application/document"
	notificationapp "github.com/miv/backend/internal/application/notification"
	ventureapp "github.com/miv/backend/internal/application/venture"
	"github.com/miv/backend/internal/domain/identity"
	"github.com/miv/backend/internal/infrastructure/auth"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/infrastructure/storage"
	"github.com/miv/backend/internal/interfaces/http/middleware"
	"github.com/miv/backend/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingMailer keeps sent subjects and fails while err is set
type recordingMailer struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (m *recordingMailer) Send(_ context.Context, _ []string, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.subjects = append(m.subjects, subject)
	return nil
}

// portfolioFixture serves the venture, metric, document, notification,
// activity and dashboard handlers behind the JWT middleware, with the
// routes laid out as the API router does.
type portfolioFixture struct {
	db     *persistence.Database
	router *gin.Engine
	user   *identity.User
	token  string
	mailer *recordingMailer
	store  *storage.MemoryObjectStorage
}

func newPortfolioFixture(t *testing.T) *portfolioFixture {
	t.Helper()
	middleware.SetupValidator()
	db := testutil.NewSQLiteDB(t)
	log := zap.NewNop()

	users := persistence.NewGormUserRepository(db.DB)
	ventures := persistence.NewGormVentureRepository(db.DB)
	metrics := persistence.NewGormGEDSIMetricRepository(db.DB)
	iris := persistence.NewGormIRISMetricRepository(db.DB)
	documents := persistence.NewGormDocumentRepository(db.DB)
	notifications := persistence.NewGormNotificationRepository(db.DB)
	emails := persistence.NewGormEmailLogRepository(db.DB)
	activities := persistence.NewGormActivityRepository(db.DB)
	runs := persistence.NewGormWorkflowRunRepository(db.DB)

	f := &portfolioFixture{
		db:     db,
		user:   testutil.CreateUser(t, db, "manager@miv.test", identity.RoleManager),
		mailer: &recordingMailer{},
		store:  storage.NewMemoryObjectStorage(),
	}

	jwtService := auth.NewJWTService(testJWTConfig())
	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID: f.user.ID, Email: f.user.Email, Role: string(f.user.Role),
	})
	require.NoError(t, err)
	f.token = pair.AccessToken

	dashboardService := dashboard.NewDashboardService(dashboard.Repositories{
		Ventures:      ventures,
		Metrics:       metrics,
		Documents:     documents,
		Users:         users,
		Notifications: notifications,
		Runs:          runs,
		Activities:    activities,
	}, log)
	ventureHandler := NewVentureHandler(ventureapp.NewVentureService(ventures, users, log), dashboardService, nil)
	metricHandler := NewMetricHandler(
		ventureapp.NewMetricService(metrics, ventures, iris, log),
		ventureapp.NewIRISService(iris),
	)
	documentHandler := NewDocumentHandler(documentapp.NewDocumentService(documents, ventures, f.store,
		documentapp.Config{MaxSizeBytes: 1000 * 1000}, log))
	notificationHandler := NewNotificationHandler(
		notificationapp.NewNotificationService(notifications, users, log),
		notificationapp.NewEmailService(emails, f.mailer, log),
	)
	activityHandler := NewActivityHandler(activityapp.NewActivityService(activities, log))
	dashboardHandler := NewDashboardHandler(dashboardService)

	router := gin.New()
	router.Use(middleware.JWTAuthMiddleware(jwtService))
	api := router.Group("/api")

	v := api.Group("/ventures")
	v.GET("", ventureHandler.List)
	v.POST("", ventureHandler.Create)
	v.GET("/:id", ventureHandler.GetByID)
	v.GET("/:id/detail", ventureHandler.Detail)
	v.PUT("/:id", ventureHandler.Update)
	v.PUT("/:id/stage", ventureHandler.ChangeStage)
	v.PUT("/:id/status", ventureHandler.ChangeStatus)
	v.PUT("/:id/assign", ventureHandler.Assign)
	v.DELETE("/:id", ventureHandler.Delete)
	v.POST("/:id/report", ventureHandler.GenerateReport)
	v.GET("/:id/metrics", metricHandler.ListForVenture)
	v.POST("/:id/metrics", metricHandler.Create)
	v.GET("/:id/documents", documentHandler.ListForVenture)

	m := api.Group("/metrics")
	m.GET("", metricHandler.List)
	m.GET("/:id", metricHandler.GetByID)
	m.PUT("/:id/progress", metricHandler.RecordProgress)
	m.POST("/:id/verify", metricHandler.Verify)
	m.DELETE("/:id", metricHandler.Delete)

	d := api.Group("/documents")
	d.GET("", documentHandler.List)
	d.POST("", documentHandler.Create)
	d.GET("/:id", documentHandler.GetByID)
	d.PUT("/:id", documentHandler.Update)
	d.DELETE("/:id", documentHandler.Delete)
	d.POST("/:id/confirm", documentHandler.ConfirmUpload)
	d.GET("/:id/download", documentHandler.GetDownloadURL)

	n := api.Group("/notifications")
	n.GET("", notificationHandler.List)
	n.POST("", notificationHandler.Create)
	n.GET("/unread-count", notificationHandler.UnreadCount)
	n.PUT("/read-all", notificationHandler.MarkAllRead)
	n.PUT("/:id/read", notificationHandler.MarkRead)
	n.DELETE("/:id", notificationHandler.Delete)

	e := api.Group("/emails")
	e.GET("", notificationHandler.ListEmails)
	e.POST("", notificationHandler.SendEmail)
	e.GET("/:id", notificationHandler.GetEmail)

	a := api.Group("/activities")
	a.GET("", activityHandler.List)
	a.POST("", activityHandler.Record)
	a.GET("/recent", activityHandler.Recent)

	dash := api.Group("/dashboard")
	dash.GET("/overview", dashboardHandler.Overview)
	dash.GET("/calendar", dashboardHandler.Calendar)
	dash.GET("/capital", dashboardHandler.Capital)
	dash.GET("/social-impact", dashboardHandler.SocialImpact)
	dash.GET("/due-diligence", dashboardHandler.DueDiligence)

	f.router = router
	return f
}

// do serves req as the fixture user unless req carries its own token
func (f *portfolioFixture) do(t *testing.T, req testutil.Request) *httptest.ResponseRecorder {
	t.Helper()
	if req.Token == "" {
		req.Token = f.token
	}
	return testutil.Do(t, f.router, req)
}

func (f *portfolioFixture) createVenture(t *testing.T, body map[string]any) ventureapp.VentureResponse {
	t.Helper()
	w := f.do(t, testutil.Request{Method: http.MethodPost, Path: "/api/ventures", Body: body})
	return testutil.DecodeData[ventureapp.VentureResponse](t, w, http.StatusCreated)
}
