package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credtrust/internal/audit"
	"credtrust/internal/cleanup"
	credservice "credtrust/internal/credential/service"
	credstore "credtrust/internal/credential/store"
	"credtrust/internal/did"
	"credtrust/internal/issuance"
	"credtrust/internal/issuer"
	issuerservice "credtrust/internal/issuer/service"
	"credtrust/internal/platform/config"
	"credtrust/internal/platform/database"
	"credtrust/internal/platform/health"
	"credtrust/internal/platform/httpserver"
	"credtrust/internal/platform/kafka"
	"credtrust/internal/platform/kafka/producer"
	"credtrust/internal/platform/logger"
	"credtrust/internal/platform/metrics"
	platformredis "credtrust/internal/platform/redis"
	"credtrust/internal/storage"
	"credtrust/internal/team"
	httptransport "credtrust/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	log.Info("initializing credtrust",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	pool, err := database.New(cfg.Database)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}

	// Audit trail: always persisted locally, optionally fanned out to Kafka.
	auditOpts := []audit.PublisherOption{audit.WithPublisherLogger(log)}
	var kafkaProducer *producer.Producer
	if cfg.Kafka.Brokers != "" {
		kafkaProducer, err = producer.New(producer.Config{
			Brokers: cfg.Kafka.Brokers,
			Retries: 3,
		}, log)
		if err != nil {
			log.Error("kafka producer init failed", "error", err)
			os.Exit(1)
		}
		auditOpts = append(auditOpts, audit.WithKafka(kafkaProducer, cfg.Kafka.AuditTopic))
	}
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), auditOpts...)

	trustNetwork := issuance.NewClient(cfg.Network)

	// Store selection: PostgreSQL when configured, in-memory otherwise.
	var (
		credentials credstore.Store
		issuers     issuer.Store
		didStore    did.Store
		teams       team.Store
		users       storage.UserStore
		candidates  storage.CandidateStore
		pipelines   storage.PipelineStore
		activity    storage.ActivityStore
		quizzes     storage.QuizStore
		credTx      credservice.Tx
		cleanupTx   cleanup.Tx
	)
	if pool != nil {
		db := pool.DB()
		credentials = credstore.NewPostgres(db)
		issuers = issuer.NewPostgres(db)
		didStore = did.NewPostgres(db)
		teams = team.NewPostgres(db)
		users = storage.NewPostgres(db)
		candidates = storage.NewPostgresCandidates(db)
		pipelines = storage.NewPostgresPipelines(db)
		activity = storage.NewPostgresActivity(db)
		quizzes = storage.NewPostgresQuizzes(db)
		credTx = newCredentialPostgresTx(db)
		cleanupTx = newCleanupPostgresTx(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		credentials = credstore.New()
		issuers = issuer.NewInMemoryStore()
		didStore = did.NewInMemoryStore()
		teams = team.NewInMemoryStore()
		users = storage.NewInMemoryUsers()
		candidates = storage.NewInMemoryCandidates()
		pipelines = storage.NewInMemoryPipelines()
		activity = storage.NewInMemoryActivity()
		quizzes = storage.NewInMemoryQuizzes()
		credTx = credservice.NewMemoryTx(credentials)
		cleanupTx = cleanup.NewMemoryTx(cleanup.Stores{
			Credentials: credentials,
			Issuers:     issuers,
			DIDs:        didStore,
			Teams:       teams,
			Users:       users,
			Candidates:  candidates,
			Pipelines:   pipelines,
			Activity:    activity,
			Quizzes:     quizzes,
		})
	}

	// DID reads sit on every Approve path; cache them when Redis is available.
	didStore = did.NewCachedStore(didStore, redisClient, log)

	didService := did.NewService(didStore, issuers, teams, trustNetwork, log,
		did.WithMetrics(m),
		did.WithAuditor(auditor),
	)
	issuerService := issuerservice.NewService(issuers, auditor, log)
	credentialService := credservice.NewService(
		credentials, credTx, candidates, issuers, didService, trustNetwork, log,
		credservice.WithMetrics(m),
		credservice.WithAuditor(auditor),
	)
	cleanupService := cleanup.NewService(cleanupTx, log,
		cleanup.WithMetrics(m),
		cleanup.WithAuditor(auditor),
	)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", pool.Health)
	}
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", redisClient.Health)
	}
	if cfg.Kafka.Brokers != "" {
		healthHandler.RegisterCheck("kafka", kafka.NewHealthChecker(cfg.Kafka.Brokers).Check)
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:        log,
		Metrics:       m,
		JWTSigningKey: []byte(cfg.JWTSigningKey),
		Credentials:   httptransport.NewCredentialHandler(credentialService, log),
		DIDs:          httptransport.NewDIDHandler(didService, log),
		Issuers:       httptransport.NewIssuerHandler(issuerService, log),
		Cleanup:       httptransport.NewCleanupHandler(cleanupService, log),
		Health:        healthHandler,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	if kafkaProducer != nil {
		kafkaProducer.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if pool != nil {
		_ = pool.Close()
	}

	log.Info("server stopped")
}
