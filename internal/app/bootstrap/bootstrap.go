package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	treasuryledger "nexus/contexts/finance-core/treasury-ledger"
	treasurypostgres "nexus/contexts/finance-core/treasury-ledger/adapters/postgres"
	treasuryworkers "nexus/contexts/finance-core/treasury-ledger/application/workers"
	electionservice "nexus/contexts/governance/election-service"
	electionpostgres "nexus/contexts/governance/election-service/adapters/postgres"
	electionworkers "nexus/contexts/governance/election-service/application/workers"
	memberdirectory "nexus/contexts/identity-access/member-directory"
	memberpostgres "nexus/contexts/identity-access/member-directory/adapters/postgres"
	"nexus/internal/platform/config"
	"nexus/internal/platform/db"
	"nexus/internal/platform/httpserver"
	"nexus/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	cfg      config.Config
	logger   *slog.Logger

	electionRelay electionworkers.OutboxRelay
	treasuryRelay treasuryworkers.OutboxRelay
	reconciler    electionworkers.TallyReconciler
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := migrateAll(pg); err != nil {
		_ = pg.Close()
		return nil, err
	}

	electionRepo := electionpostgres.NewRepository(pg.DB, logger)
	elections := electionservice.NewModule(electionservice.Dependencies{
		Elections: electionRepo,
		Ledger:    electionRepo,
		Members:   electionRepo,
		Clock:     electionpostgres.SystemClock{},
		IDGen:     electionpostgres.UUIDGenerator{},
		Logger:    logger,
	})

	memberRepo := memberpostgres.NewRepository(pg.DB, logger)
	members := memberdirectory.NewModule(memberdirectory.Dependencies{
		Repository: memberRepo,
		Clock:      memberpostgres.SystemClock{},
		IDGen:      memberpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	treasuryRepo := treasurypostgres.NewRepository(pg.DB, logger)
	treasury := treasuryledger.NewModule(treasuryledger.Dependencies{
		Repository:     treasuryRepo,
		Idempotency:    treasuryRepo,
		Outbox:         treasuryRepo,
		Clock:          treasurypostgres.SystemClock{},
		IDGenerator:    treasurypostgres.UUIDGenerator{},
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})

	server := httpserver.New(elections, members, treasury, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	electionRepo := electionpostgres.NewRepository(pg.DB, logger)
	treasuryRepo := treasurypostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		cfg:      cfg,
		logger:   logger,
		electionRelay: electionworkers.OutboxRelay{
			Outbox:    electionRepo,
			Publisher: kafka,
			Clock:     electionpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		treasuryRelay: treasuryworkers.OutboxRelay{
			Outbox:    treasuryRepo,
			Publisher: kafka,
			Clock:     treasurypostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		reconciler: electionworkers.TallyReconciler{
			Elections: electionRepo,
			Logger:    logger,
		},
	}, nil
}

func migrateAll(pg *db.Postgres) error {
	models := memberpostgres.Models()
	models = append(models, electionpostgres.Models()...)
	models = append(models, treasurypostgres.Models()...)
	return pg.Migrate(models...)
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	relayTicker := time.NewTicker(w.cfg.OutboxRelayInterval)
	defer relayTicker.Stop()
	reconcileTicker := time.NewTicker(w.cfg.TallyReconcileInterval)
	defer reconcileTicker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"relay_interval", w.cfg.OutboxRelayInterval.String(),
		"reconcile_interval", w.cfg.TallyReconcileInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-relayTicker.C:
			if !w.cfg.EnableOutboxRelay {
				continue
			}
			if err := w.electionRelay.RunOnce(ctx); err != nil {
				return err
			}
			if err := w.treasuryRelay.RunOnce(ctx); err != nil {
				return err
			}
		case <-reconcileTicker.C:
			if !w.cfg.EnableTallyReconciler {
				continue
			}
			if _, err := w.reconciler.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
