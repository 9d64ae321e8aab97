// Package main is the entry point of the Training Hub core service: the
// enrollment, waitlist, examination, and certification API.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure business logic without external dependencies
// - Application: use case orchestration (Commands/Queries/EventHandlers)
// - Infrastructure: repository implementations, external API clients
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/roastery-academy/training-hub/config"

	// Application layer
	"github.com/roastery-academy/training-hub/internal/application/command"
	"github.com/roastery-academy/training-hub/internal/application/eventhandler"
	"github.com/roastery-academy/training-hub/internal/application/query"

	// Domain contracts
	"github.com/roastery-academy/training-hub/internal/domain/certificate"
	"github.com/roastery-academy/training-hub/internal/domain/enrollment"
	"github.com/roastery-academy/training-hub/internal/domain/exam"
	"github.com/roastery-academy/training-hub/internal/domain/session"
	"github.com/roastery-academy/training-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/roastery-academy/training-hub/internal/infrastructure/external/directory"
	"github.com/roastery-academy/training-hub/internal/infrastructure/external/notify"
	"github.com/roastery-academy/training-hub/internal/infrastructure/external/questionbank"
	"github.com/roastery-academy/training-hub/internal/infrastructure/external/renderer"
	"github.com/roastery-academy/training-hub/internal/infrastructure/messaging"
	"github.com/roastery-academy/training-hub/internal/infrastructure/persistence/memory"
	"github.com/roastery-academy/training-hub/internal/infrastructure/persistence/postgres"
	"github.com/roastery-academy/training-hub/internal/infrastructure/persistence/redis"
	"github.com/roastery-academy/training-hub/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/roastery-academy/training-hub/internal/interface/http"

	"github.com/roastery-academy/training-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Training Hub",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PERSISTENCE
	// The in-memory store carries development without a database; anything
	// beyond that requires Postgres, which Validate() enforces in production.
	// ─────────────────────────────────────────────────────────────────────────
	var (
		sessionRepo session.Repository
		ledger      session.Ledger
		enrollRepo  enrollment.Repository
		queueRepo   enrollment.QueueRepository
		attemptRepo exam.AttemptRepository
		certRepo    certificate.Repository
		dbPinger    httpserver.Pinger
	)

	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		log.Info("connecting to database...")
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		if err := dbConn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		log.Info("database connection established")

		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		// A crash between a slot reservation and its enrollment write can
		// strand the reservation; settle any drift before taking traffic.
		pgLedger := postgres.NewCapacityLedger(dbConn)
		corrected, err := pgLedger.Reconcile(ctx)
		if err != nil {
			return fmt.Errorf("failed to reconcile capacity counters: %w", err)
		}
		if corrected > 0 {
			log.Warn("capacity counters reconciled", "sessions", corrected)
		}

		sessionRepo = postgres.NewSessionRepository(dbConn)
		ledger = pgLedger
		enrollRepo = postgres.NewEnrollmentRepository(dbConn)
		queueRepo = postgres.NewQueueRepository(dbConn)
		attemptRepo = postgres.NewAttemptRepository(dbConn)
		certRepo = postgres.NewCertificateRepository(dbConn)
		dbPinger = dbConn
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		store := memory.NewStore()
		sessionRepo = memory.NewSessionRepository(store)
		ledger = memory.NewCapacityLedger(store)
		enrollRepo = memory.NewEnrollmentRepository(store)
		queueRepo = memory.NewQueueRepository(store)
		attemptRepo = memory.NewAttemptRepository(store)
		certRepo = memory.NewCertificateRepository(store)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// Backs the certificate number sequence and the question bank cache.
	// Without it the in-memory allocator takes over and exams are fetched
	// from the bank on every start.
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, falling back to in-memory sequence", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	var numbers certificate.NumberAllocator
	if redisCache != nil {
		numbers = redis.NewNumberAllocator(redisCache)
	} else {
		numbers = memory.NewNumberAllocator()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EXTERNAL CLIENTS
	// Each collaborator is optional outside production: a missing directory
	// disables administrative actions, a missing notifier or renderer turns
	// those handoffs into no-ops.
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing external clients...")

	var userDirectory shared.Directory
	if cfg.Directory.BaseURL != "" {
		dirConfig := directory.DefaultClientConfig(cfg.Directory.BaseURL)
		dirConfig.APIKey = cfg.Directory.APIKey
		dirConfig.Timeout = cfg.Directory.RequestTimeout
		dirConfig.Logger = log
		userDirectory = directory.NewClient(dirConfig)
	}

	var bank exam.QuestionBank
	if cfg.QuestionBank.BaseURL != "" {
		qbConfig := questionbank.DefaultClientConfig(cfg.QuestionBank.BaseURL)
		qbConfig.APIKey = cfg.QuestionBank.APIKey
		qbConfig.Timeout = cfg.QuestionBank.RequestTimeout
		qbConfig.Logger = log
		bank = questionbank.NewClient(qbConfig)
	} else {
		log.Warn("QUESTION_BANK_BASE_URL not set, using empty in-memory question bank")
		bank = memory.NewQuestionBank()
	}
	if redisCache != nil {
		bank = redis.NewQuestionBankCache(redisCache, bank)
	}

	var notifier shared.Notifier
	if cfg.Notify.BaseURL != "" {
		notifyConfig := notify.DefaultClientConfig(cfg.Notify.BaseURL)
		notifyConfig.APIKey = cfg.Notify.APIKey
		notifyConfig.Timeout = cfg.Notify.RequestTimeout
		notifyConfig.Logger = log
		notifier = notify.NewClient(notifyConfig)
	}

	var certRenderer certificate.Renderer
	if cfg.Renderer.BaseURL != "" {
		rendererConfig := renderer.DefaultClientConfig(cfg.Renderer.BaseURL)
		rendererConfig.APIKey = cfg.Renderer.APIKey
		rendererConfig.Timeout = cfg.Renderer.RequestTimeout
		rendererConfig.Logger = log
		certRenderer = renderer.NewClient(rendererConfig)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS & DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = log
	localBusConfig.AsyncMode = true

	// With Redis available, finalization events fan out over Pub/Sub so
	// the certification gate fires wherever it is subscribed; otherwise
	// the in-memory bus carries a single instance.
	var eventBus shared.EventBus
	if redisCache != nil {
		eventBus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redisCache.Client(),
			LocalBusConfig: localBusConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to create event bus: %w", err)
		}
	} else {
		eventBus = messaging.NewInMemoryEventBus(localBusConfig)
	}
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	dispatcherConfig := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherConfig.Logger = log
	dispatcher := messaging.NewDispatcher(dispatcherConfig)
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	ids := service.NewUUIDGenerator()
	clock := shared.SystemClock()

	queueManager := command.NewQueueManager(queueRepo, enrollRepo, ledger, eventBus, ids)

	commands := httpserver.Commands{
		EnrollTrainee:    command.NewEnrollTraineeHandler(sessionRepo, enrollRepo, queueRepo, ledger, queueManager, eventBus, ids),
		CancelEnrollment: command.NewCancelEnrollmentHandler(enrollRepo, ledger, queueManager, userDirectory, eventBus),
		Queue:            queueManager,
		ScheduleSession:  command.NewScheduleSessionHandler(sessionRepo, userDirectory, eventBus, ids),
		CancelSession:    command.NewCancelSessionHandler(sessionRepo, enrollRepo, queueRepo, userDirectory, eventBus),
		StartExam:        command.NewStartExamHandler(attemptRepo, bank, eventBus, ids, clock),
		SubmitExam:       command.NewSubmitExamHandler(attemptRepo, bank, eventBus, clock),
		RecordAnswers:    command.NewRecordAnswersHandler(attemptRepo),
		ResetAttempt:     command.NewResetAttemptHandler(attemptRepo, userDirectory),
		RevokeCert:       command.NewRevokeCertificateHandler(certRepo, userDirectory, eventBus),
	}

	queries := httpserver.Queries{
		GetAttempt:        query.NewGetAttemptHandler(attemptRepo, bank, eventBus, clock),
		ListAttempts:      query.NewListAttemptsHandler(attemptRepo),
		GetQueueStatus:    query.NewGetQueueStatusHandler(queueRepo),
		ListTraineeQueues: query.NewListTraineeQueuesHandler(queueRepo),
		GetRoster:         query.NewGetRosterHandler(sessionRepo, enrollRepo, queueRepo),
		ListEnrollments:   query.NewListTraineeEnrollmentsHandler(enrollRepo),
		ListCertificates:  query.NewListCertificatesHandler(certRepo),
		VerifyCertificate: query.NewVerifyCertificateHandler(certRepo),
	}

	issueCert := command.NewIssueCertificateHandler(certRepo, attemptRepo, numbers, eventBus, ids)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EVENT HANDLERS
	// The certification gate, notification dispatch, and the renderer
	// handoff all run here, off the request path.
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	onFinalized := eventhandler.NewOnExamFinalizedHandler(issueCert, notifier, log)
	for _, eventType := range []shared.EventType{shared.EventExamPassed, shared.EventExamFailed, shared.EventExamExpired} {
		if err := dispatcher.Register(eventType, "certification-gate", onFinalized.Handle); err != nil {
			return fmt.Errorf("failed to register finalization handler: %w", err)
		}
	}

	onIssued := eventhandler.NewOnCertificateIssuedHandler(certRepo, certRenderer, log)
	if err := dispatcher.Register(shared.EventCertificateIssued, "renderer-handoff", onIssued.Handle); err != nil {
		return fmt.Errorf("failed to register issuance handler: %w", err)
	}

	onEnrollment := eventhandler.NewOnEnrollmentHandler(notifier, log)
	if err := dispatcher.Register(shared.EventEnrollmentConfirmed, "enrollment-notify", onEnrollment.Handle); err != nil {
		return fmt.Errorf("failed to register enrollment handler: %w", err)
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	server := httpserver.NewServer(httpserver.ServerConfig{
		Addr:         cfg.HTTP.Addr(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Logger:       log,
	}, commands, queries, dbPinger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Training Hub is running", "addr", cfg.HTTP.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Event bus and database close via defers, after the server has
	// stopped producing events.
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging per the observability config.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Observability.LogLevel
	if cfg.App.Debug {
		level = "debug"
	}

	format := cfg.Observability.LogFormat
	if cfg.IsDevelopment() {
		format = "text"
	}

	return logger.New(logger.Options{
		Level:      level,
		Format:     format,
		SetDefault: true,
	})
}
