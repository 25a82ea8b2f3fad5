package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	assessmentapp "github.com/claimswift/backend/internal/application/assessment"
	auditapp "github.com/claimswift/backend/internal/application/audit"
	claimapp "github.com/claimswift/backend/internal/application/claim"
	paymentapp "github.com/claimswift/backend/internal/application/payment"
	"github.com/claimswift/backend/internal/domain/collaborator"
	"github.com/claimswift/backend/internal/infrastructure/auth"
	"github.com/claimswift/backend/internal/infrastructure/cache"
	"github.com/claimswift/backend/internal/infrastructure/client"
	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/claimswift/backend/internal/infrastructure/gateway"
	"github.com/claimswift/backend/internal/infrastructure/logger"
	"github.com/claimswift/backend/internal/infrastructure/migration"
	"github.com/claimswift/backend/internal/infrastructure/persistence"
	"github.com/claimswift/backend/internal/infrastructure/scheduler"
	"github.com/claimswift/backend/internal/infrastructure/telemetry"
	"github.com/claimswift/backend/internal/interfaces/http/handler"
	"github.com/claimswift/backend/internal/interfaces/http/middleware"
	"github.com/claimswift/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			ClaimSwift Backend API
//	@version		1.0
//	@description	Claim lifecycle, assessment and payment settlement service
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "claims-server: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "claims-server: %v\n", err)
		os.Exit(1)
	}
}

// run wires the service together and blocks until ctx is cancelled and the
// HTTP server has drained.
func run(ctx context.Context, cfg *config.Config) error {
	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}

	// The telemetry provider logs through a plain logger; everything after
	// it also tees into the OTLP log bridge when that is enabled.
	bootLog, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	tel, err := telemetry.NewProvider(ctx, telemetrySettings(cfg.Telemetry), bootLog)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	log, err := logger.New(logCfg, tel.ZapCore(cfg.Telemetry.ServiceName))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync(log) }()
	zap.ReplaceGlobals(log)

	log.Info("Starting ClaimSwift backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Closing database failed", zap.Error(err))
		}
	}()

	stopDBMetrics, err := instrumentDatabase(ctx, db, tel, cfg, log)
	if err != nil {
		return err
	}
	defer stopDBMetrics()

	claimMetrics, err := telemetry.NewClaimMetrics(tel.Meter("claimswift"))
	if err != nil {
		return fmt.Errorf("register claim metrics: %w", err)
	}

	claimRepo := persistence.NewGormClaimRepository(db.DB)
	historyRepo := persistence.NewGormClaimHistoryRepository(db.DB)
	assessmentRepo := persistence.NewGormAssessmentRepository(db.DB)
	assignmentRepo := persistence.NewGormAssignmentRepository(db.DB)
	workloadRepo := persistence.NewGormWorkloadRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	paymentTxRepo := persistence.NewGormPaymentTransactionRepository(db.DB)
	auditTrail := persistence.NewGormAuditTrail(db.DB)

	claimService := claimapp.NewClaimService(claimapp.ClaimServiceConfig{
		ClaimRepo:   claimRepo,
		HistoryRepo: historyRepo,
		TxScope:     persistence.NewGormClaimTransactionScope(db.DB),
		Recorder:    claimMetrics,
		Logger:      log,
	})
	claims, notifier := collaborators(cfg.Collaborators, claimService, log)

	locker, closeLocker, err := cache.NewLockerFactory(cfg.Redis, cache.WithLogger(log)).CreateLocker()
	if err != nil {
		return fmt.Errorf("create payment locker: %w", err)
	}
	defer func() {
		if err := closeLocker(); err != nil {
			log.Error("Closing payment locker failed", zap.Error(err))
		}
	}()

	paymentGateway, err := gateway.New(cfg.Gateway, log)
	if err != nil {
		return fmt.Errorf("create payment gateway: %w", err)
	}

	assessmentService := assessmentapp.NewAssessmentService(assessmentapp.AssessmentServiceConfig{
		AssessmentRepo: assessmentRepo,
		AssignmentRepo: assignmentRepo,
		WorkloadRepo:   workloadRepo,
		AuditTrail:     auditTrail,
		Claims:         claims,
		TxScope:        persistence.NewGormAssessmentTransactionScope(db.DB),
		Logger:         log,
	})
	paymentService := paymentapp.NewPaymentService(paymentapp.PaymentServiceConfig{
		PaymentRepo:     paymentRepo,
		TransactionRepo: paymentTxRepo,
		AuditTrail:      auditTrail,
		Claims:          claims,
		Notifier:        notifier,
		Gateway:         paymentGateway,
		TxScope:         persistence.NewGormPaymentTransactionScope(db.DB),
		Locker:          locker,
		LockTTL:         cfg.Redis.LockTTL,
		Metrics:         claimMetrics,
		Logger:          log,
	})
	auditService := auditapp.NewAuditService(auditTrail, log)

	if cfg.Reconciliation.Enabled {
		sweep, err := scheduler.NewReconciliationScheduler(scheduler.ReconciliationConfig{
			Interval:  cfg.Reconciliation.Interval,
			BatchSize: cfg.Reconciliation.BatchSize,
		}, paymentService, log)
		if err != nil {
			return fmt.Errorf("create reconciliation scheduler: %w", err)
		}
		if err := sweep.Start(ctx); err != nil {
			return fmt.Errorf("start reconciliation scheduler: %w", err)
		}
		defer func() {
			if err := sweep.Stop(context.Background()); err != nil {
				log.Error("Stopping reconciliation scheduler failed", zap.Error(err))
			}
		}()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := router.NewEngine(router.EngineConfig{
		Logger:      log,
		HTTP:        cfg.HTTP,
		ServiceName: cfg.Telemetry.ServiceName,
		Telemetry:   tel,
	})
	handler.NewHealthHandler(db).RegisterRoutes(&engine.RouterGroup)

	var authMiddleware gin.HandlerFunc
	if cfg.Auth.Enabled {
		authMiddleware = middleware.NewBearerAuth(auth.NewJWTService(cfg.Auth), log).Handler()
		log.Info("Bearer token authentication enabled", zap.String("issuer", cfg.Auth.Issuer))
	} else {
		log.Warn("Authentication disabled, caller identity is taken from the X-User-ID header")
	}

	router.Mount(engine, router.API{
		Version:    "v1",
		Middleware: router.Identity(authMiddleware),
		Registrars: []router.RouteRegistrar{
			handler.NewClaimHandler(claimService),
			handler.NewAssessmentHandler(assessmentService, auditService),
			handler.NewPaymentHandler(paymentService, auditService),
		},
	})

	serveErr := serve(ctx, &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}, cfg, log)

	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := tel.Shutdown(flushCtx); err != nil {
		log.Error("Flushing telemetry failed", zap.Error(err))
	}
	return serveErr
}

// serve runs srv until ctx is done, then gives in-flight requests
// HTTP.ShutdownTimeout to finish.
func serve(ctx context.Context, srv *http.Server, cfg *config.Config, log *zap.Logger) error {
	listenErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		listenErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	log.Info("Shutdown signal received, draining requests",
		zap.Duration("timeout", cfg.HTTP.ShutdownTimeout))
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("drain http server: %w", err)
	}
	log.Info("HTTP server stopped")
	return nil
}

// openDatabase connects and brings the schema up to date: AutoMigrate for
// sqlite, the embedded migrations for postgres when database.auto_migrate
// is set.
func openDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.GormConfig(cfg.Log.Level, cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.Connect(ctx, &cfg.Database, gormLog)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	switch {
	case cfg.Database.Driver == config.DriverSQLite:
		err = db.AutoMigrate()
	case cfg.Database.AutoMigrate:
		err = migration.ApplyEmbedded(ctx, cfg.Database.DSN(), log)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	log.Info("Database ready", zap.String("driver", db.Driver))
	return db, nil
}

// instrumentDatabase installs the gorm tracing and metrics plugins. The
// returned func stops the pool sampler.
func instrumentDatabase(ctx context.Context, db *persistence.Database, tel *telemetry.Provider, cfg *config.Config, log *zap.Logger) (func(), error) {
	if _, err := telemetry.RegisterDBTracing(db.DB, tel, telemetry.DBTracingConfig{
		Enabled:            cfg.Telemetry.DBTraceEnabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		DBName:             cfg.Database.DBName,
	}, log); err != nil {
		return nil, fmt.Errorf("register database tracing: %w", err)
	}

	metricsCfg := telemetry.DefaultDBMetricsConfig()
	metricsCfg.Enabled = cfg.Telemetry.MetricsEnabled
	metricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	m, err := telemetry.RegisterDBMetrics(ctx, db.DB, tel, metricsCfg, log)
	if err != nil {
		return nil, fmt.Errorf("register database metrics: %w", err)
	}
	if m == nil {
		return func() {}, nil
	}
	return m.Stop, nil
}

func telemetrySettings(t config.TelemetryConfig) telemetry.Settings {
	return telemetry.Settings{
		ServiceName:       t.ServiceName,
		CollectorEndpoint: t.CollectorEndpoint,
		Insecure:          t.Insecure,
		TracesEnabled:     t.Enabled,
		SamplingRatio:     t.SamplingRatio,
		MetricsEnabled:    t.MetricsEnabled,
		ExportInterval:    t.ExportInterval,
		LogsEnabled:       t.LogsEnabled,
	}
}

// collaborators picks the claim service and notifier: HTTP clients when a
// URL is configured, in-process adapters otherwise.
func collaborators(cfg config.CollaboratorsConfig, claimService *claimapp.ClaimService, log *zap.Logger) (collaborator.ClaimService, collaborator.Notifier) {
	httpClient := client.NewHTTPClient(cfg.Timeout)

	var claims collaborator.ClaimService = client.NewClaimAdapter(claimService)
	if cfg.ClaimServiceURL != "" {
		claims = client.NewHTTPClaimClient(cfg.ClaimServiceURL, httpClient, client.DefaultRetryPolicy(), log)
		log.Info("Using remote claim service", zap.String("url", cfg.ClaimServiceURL))
	}

	var notifier collaborator.Notifier = client.NewLoggingNotifier(log)
	if cfg.NotificationServiceURL != "" {
		notifier = client.NewHTTPNotifier(cfg.NotificationServiceURL, httpClient)
		log.Info("Using remote notification service", zap.String("url", cfg.NotificationServiceURL))
	}
	return claims, notifier
}
