package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	activityapp "github.com/miv/backend/internal/application/activity"
	"github.com/miv/backend/internal/application/dashboard"
	documentapp "github.com/miv/backend/internal/application/document"
	identityapp "github.com/miv/backend/internal/application/identity"
	notificationapp "github.com/miv/backend/internal/application/notification"
	reportapp "github.com/miv/backend/internal/application/report"
	ventureapp "github.com/miv/backend/internal/application/venture"
	workflowapp "github.com/miv/backend/internal/application/workflow"
	"github.com/miv/backend/internal/domain/document"
	"github.com/miv/backend/internal/domain/workflow"
	"github.com/miv/backend/internal/infrastructure/auth"
	"github.com/miv/backend/internal/infrastructure/cache"
	"github.com/miv/backend/internal/infrastructure/catalog"
	"github.com/miv/backend/internal/infrastructure/config"
	"github.com/miv/backend/internal/infrastructure/event"
	"github.com/miv/backend/internal/infrastructure/mail"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/infrastructure/printing"
	"github.com/miv/backend/internal/infrastructure/scheduler"
	"github.com/miv/backend/internal/infrastructure/storage"
	"github.com/miv/backend/internal/infrastructure/telemetry"
	"github.com/miv/backend/internal/infrastructure/webhook"
	"github.com/miv/backend/internal/interfaces/http/handler"
	"github.com/miv/backend/internal/interfaces/http/middleware"
	"github.com/miv/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// queueDepthInterval is how often the worker queue gauge is refreshed
const queueDepthInterval = 5 * time.Second

// orphanSweepInterval is how often open runs without a live owner are closed
const orphanSweepInterval = time.Minute

// application holds every long-lived component of the server process
type application struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *persistence.Database
	redis   *redis.Client
	tracer  *telemetry.TracerProvider
	logs    *telemetry.LoggerProvider
	metrics *telemetry.Metrics
	bus     *event.InMemoryEventBus
	pool    *scheduler.Scheduler
	runner  *workflowapp.Runner
	printer printing.Renderer
	server  *http.Server

	stopGauge context.CancelFunc
}

// newApplication connects the stores and wires services, handlers and routes.
// On error everything opened so far is closed again.
func newApplication(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *application, err error) {
	app := &application{cfg: cfg, log: log, metrics: telemetry.NewMetrics()}
	defer func() {
		if err != nil {
			app.close()
			if app.tracer != nil {
				_ = app.tracer.Shutdown(context.WithoutCancel(ctx))
			}
			if app.logs != nil {
				_ = app.logs.Shutdown(context.WithoutCancel(ctx))
			}
		}
	}()

	if app.tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, version, log); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	if app.logs, err = telemetry.NewLoggerProvider(ctx, cfg.Telemetry, version, log); err != nil {
		return nil, fmt.Errorf("init log export: %w", err)
	}
	// everything below logs to the collector as well when telemetry is on
	log = app.logs.Bridge(log)
	app.log = log

	// sqlite schemas are auto-migrated on open; postgres is owned by the migrations
	if app.db, err = persistence.NewDatabase(&cfg.Database, log.Named("gorm")); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Database connected", zap.String("driver", app.db.Driver()))

	if err = telemetry.RegisterDBTracing(app.db.DB, app.db.Driver(), cfg.Database.SlowThreshold, log); err != nil {
		return nil, fmt.Errorf("register db tracing: %w", err)
	}
	sqlDB, err := app.db.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if err = app.metrics.RegisterDBStats(sqlDB, cfg.App.Name); err != nil {
		return nil, fmt.Errorf("register db stats: %w", err)
	}

	if cfg.Redis.Enabled {
		if app.redis, err = cache.NewRedisClient(ctx, cfg.Redis); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	mailer, err := mail.New(cfg.Mail, log)
	if err != nil {
		return nil, fmt.Errorf("init mailer: %w", err)
	}
	objects, err := newObjectStorage(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	app.printer = printing.New(cfg.Printing, log)

	pool, err := scheduler.NewScheduler(scheduler.SchedulerConfig{
		MaxConcurrentJobs: cfg.Workflow.Workers,
		QueueSize:         cfg.Workflow.QueueSize,
		// runs bound themselves with their own timeout
		JobTimeout: 0,
	}, log.Named("workers"))
	if err != nil {
		return nil, fmt.Errorf("init worker pool: %w", err)
	}
	app.pool = pool
	app.bus = event.NewInMemoryEventBus(log.Named("events"))

	// Repositories
	db := app.db.DB
	userRepo := persistence.NewGormUserRepository(db)
	ventureRepo := persistence.NewGormVentureRepository(db)
	metricRepo := persistence.NewGormGEDSIMetricRepository(db)
	irisRepo := persistence.NewGormIRISMetricRepository(db)
	documentRepo := persistence.NewGormDocumentRepository(db)
	notificationRepo := persistence.NewGormNotificationRepository(db)
	emailRepo := persistence.NewGormEmailLogRepository(db)
	activityRepo := persistence.NewGormActivityRepository(db)
	workflowRepo := persistence.NewGormWorkflowRepository(db)
	runRepo := persistence.NewGormWorkflowRunRepository(db)

	if _, err = catalog.Import(ctx, irisRepo, log); err != nil {
		return nil, fmt.Errorf("import iris catalog: %w", err)
	}

	// Identity
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewTokenBlacklist(app.redis, log)
	userService := identityapp.NewUserService(userRepo, log)
	userService.SetRevoker(blacklist, cfg.JWT.RefreshTokenExpiration)
	userService.SetEventPublisher(app.bus)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)

	// Portfolio
	ventureService := ventureapp.NewVentureService(ventureRepo, userRepo, log)
	ventureService.SetEventPublisher(app.bus)
	metricService := ventureapp.NewMetricService(metricRepo, ventureRepo, irisRepo, log)
	metricService.SetEventPublisher(app.bus)
	irisService := ventureapp.NewIRISService(irisRepo)
	documentService := documentapp.NewDocumentService(documentRepo, ventureRepo, objects, documentapp.Config{
		MaxSizeBytes:      cfg.Storage.MaxDocumentBytes(),
		PresignExpiration: cfg.Storage.PresignExpiration,
	}, log)
	documentService.SetEventPublisher(app.bus)

	// Notifications and activity feed
	notificationService := notificationapp.NewNotificationService(notificationRepo, userRepo, log)
	emailService := notificationapp.NewEmailService(emailRepo, mailer, log)
	emailService.SetObserver(app.metrics.EmailSent)
	activityService := activityapp.NewActivityService(activityRepo, log)

	dashboardService := dashboard.NewDashboardService(dashboard.Repositories{
		Ventures:      ventureRepo,
		Metrics:       metricRepo,
		Documents:     documentRepo,
		Users:         userRepo,
		Notifications: notificationRepo,
		Runs:          runRepo,
		Activities:    activityRepo,
	}, log)

	var reportService *reportapp.VentureReportService
	if cfg.Printing.Enabled {
		reportService, err = reportapp.NewVentureReportService(ventureRepo, metricRepo, documentRepo,
			documentService, app.printer, cfg.Printing.Locale, cfg.Storage.MaxDocumentBytes(), log)
		if err != nil {
			return nil, fmt.Errorf("init report service: %w", err)
		}
	}

	// Workflows
	workflowService := workflowapp.NewWorkflowService(workflowRepo, workflow.ValidationOptions{
		MaxDelaySeconds: int(cfg.Workflow.MaxDelay / time.Second),
	}, log)
	caller := webhook.NewCaller(webhook.Config{
		RatePerSecond: cfg.Workflow.WebhookRatePerSecond,
		Burst:         cfg.Workflow.WebhookBurst,
		Timeout:       cfg.Workflow.WebhookTimeout,
		UserAgent:     cfg.App.Name + "/" + version,
	}, nil)
	executors := workflowapp.NewStepExecutors(workflowapp.StepDependencies{
		Emails:        emailService,
		Notifications: notificationService,
		Ventures:      ventureService,
		Activities:    activityService,
		Webhooks:      caller,
		OnWebhook:     app.metrics.WebhookCalled,
	})
	app.runner = workflowapp.NewRunner(workflowRepo, runRepo, cache.NewRunLock(app.redis, log), pool, executors,
		workflowapp.RunnerConfig{
			DefaultTimeout: cfg.Workflow.DefaultTimeout,
			StepTimeout:    cfg.Workflow.StepTimeout,
			LockTTLMargin:  cfg.Workflow.LockTTLMargin,
		}, log.Named("runner"))
	app.runner.SetEventPublisher(app.bus)
	app.runner.SetMetrics(app.metrics)

	recorder := activityapp.NewEventRecorder(activityService, log)
	app.bus.Subscribe(recorder)
	triggers := workflowapp.NewTriggerHandler(app.runner, workflowRepo, ventureService, log)
	app.bus.Subscribe(triggers)
	log.Info("Event handlers registered",
		zap.Strings("activity_events", recorder.EventTypes()),
		zap.Strings("trigger_events", triggers.EventTypes()),
	)

	// HTTP
	middleware.SetupValidator()
	checks := map[string]handler.HealthCheck{"database": app.db.Ping}
	if app.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return app.redis.Ping(ctx).Err() }
	}
	engine := router.NewEngine(router.EngineDeps{
		Config:    cfg,
		Logger:    log,
		Metrics:   app.metrics,
		JWT:       jwtService,
		Blacklist: blacklist,
	})
	router.Mount(engine, router.Handlers{
		System:       handler.NewSystemHandler(cfg.App.Name, version, checks),
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService),
		Venture:      handler.NewVentureHandler(ventureService, dashboardService, reportService),
		Metric:       handler.NewMetricHandler(metricService, irisService),
		Document:     handler.NewDocumentHandler(documentService),
		Notification: handler.NewNotificationHandler(notificationService, emailService),
		Activity:     handler.NewActivityHandler(activityService),
		Workflow:     handler.NewWorkflowHandler(workflowService, app.runner),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
	})

	app.server = &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	return app, nil
}

// newObjectStorage picks S3 when configured and the in-process store otherwise
func newObjectStorage(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (document.ObjectStorage, error) {
	if !cfg.Enabled {
		log.Warn("Object storage disabled, documents are kept in memory")
		return storage.NewMemoryObjectStorage(), nil
	}
	s3, err := storage.NewS3ObjectStorage(ctx, cfg, storage.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", s3.Bucket(), err)
	}
	return s3, nil
}

// start launches the background machinery and resumes interrupted runs.
// It does not start the HTTP listener.
func (a *application) start(ctx context.Context) error {
	if err := a.bus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	if err := a.pool.Start(ctx); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}

	gaugeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopGauge = cancel
	go a.reportQueueDepth(gaugeCtx)
	go a.sweepOrphanRuns(gaugeCtx)

	resumed, err := a.runner.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover workflow runs: %w", err)
	}
	if resumed > 0 {
		a.log.Info("Recovered interrupted workflow runs", zap.Int("count", resumed))
	}
	return nil
}

func (a *application) reportQueueDepth(ctx context.Context) {
	ticker := time.NewTicker(queueDepthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.metrics.SetQueueDepth(a.pool.Stats().Queued)
		}
	}
}

// sweepOrphanRuns closes runs whose process died after their lock expired.
// Runs still holding a lock are skipped by Recover.
func (a *application) sweepOrphanRuns(ctx context.Context) {
	ticker := time.NewTicker(orphanSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.runner.Recover(ctx); err != nil {
				a.log.Warn("Workflow run sweep failed", zap.Error(err))
			}
		}
	}
}

// shutdown stops accepting requests, lets runs wind down, releases the
// stores and finally flushes pending spans.
func (a *application) shutdown(ctx context.Context) {
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.log.Error("HTTP server forced to shut down", zap.Error(err))
		}
	}
	if a.runner != nil {
		if err := a.runner.Stop(ctx); err != nil {
			a.log.Error("Error stopping workflow runner", zap.Error(err))
		}
	}
	if a.pool != nil {
		if err := a.pool.Stop(ctx); err != nil {
			a.log.Error("Error stopping worker pool", zap.Error(err))
		}
	}
	if a.bus != nil {
		if err := a.bus.Stop(ctx); err != nil {
			a.log.Error("Error stopping event bus", zap.Error(err))
		}
	}
	a.close()
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.log.Error("Error shutting down tracer", zap.Error(err))
		}
	}
	if a.logs != nil {
		_ = a.logs.Shutdown(ctx)
	}
}

// close releases connections and the browser. It is safe on a partially
// built application.
func (a *application) close() {
	if a.stopGauge != nil {
		a.stopGauge()
	}
	if a.printer != nil {
		if err := a.printer.Close(); err != nil {
			a.log.Error("Error closing renderer", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("Error closing redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error("Error closing database", zap.Error(err))
		}
	}
}
