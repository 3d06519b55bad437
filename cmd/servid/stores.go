package main

import (
	"context"
	"fmt"
	"time"

	"github.com/phbpx/leadsync"
	"github.com/phbpx/leadsync/memory"
	"github.com/phbpx/leadsync/mongodb"
	"github.com/phbpx/leadsync/postgres"
	"go.uber.org/zap"
)

type storeConfig struct {
	Kind string

	PostgresURL      string
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresName     string
	PostgresMaxIdle  int
	PostgresMaxOpen  int
	PostgresNoTLS    bool

	MongoURL          string
	MongoName         string
	MongoConnectLimit time.Duration
}

// stores is the opened record store. close releases the underlying
// connection and must be called exactly once.
type stores struct {
	leads  leadsync.LeadStore
	checks leadsync.StatusCheckStore
	check  func(ctx context.Context) error
	close  func()
}

func openStores(ctx context.Context, cfg storeConfig, log *zap.SugaredLogger) (stores, error) {
	switch cfg.Kind {
	case "postgres":
		log.Infow("startup", "status", "initializing database support", "host", cfg.PostgresHost)

		db, err := postgres.Open(postgres.Config{
			URL:          cfg.PostgresURL,
			User:         cfg.PostgresUser,
			Password:     cfg.PostgresPassword,
			Host:         cfg.PostgresHost,
			Name:         cfg.PostgresName,
			MaxIdleConns: cfg.PostgresMaxIdle,
			MaxOpenConns: cfg.PostgresMaxOpen,
			DisableTLS:   cfg.PostgresNoTLS,
		})
		if err != nil {
			return stores{}, fmt.Errorf("connecting to db: %w", err)
		}

		log.Infow("startup", "status", "updating database schema", "database", cfg.PostgresName, "host", cfg.PostgresHost)

		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := postgres.Migrate(migrateCtx, db); err != nil {
			db.Close()
			return stores{}, fmt.Errorf("updating database schema: %w", err)
		}

		return stores{
			leads:  postgres.NewLeadStore(db),
			checks: postgres.NewStatusCheckStore(db),
			check: func(ctx context.Context) error {
				return postgres.StatusCheck(ctx, db)
			},
			close: func() { db.Close() },
		}, nil

	case "mongo":
		log.Infow("startup", "status", "initializing mongo support", "database", cfg.MongoName)

		connectCtx, cancel := startupContext(ctx, cfg.MongoConnectLimit)
		defer cancel()

		db, err := mongodb.Open(connectCtx, mongodb.Config{
			URL:            cfg.MongoURL,
			Name:           cfg.MongoName,
			ConnectTimeout: cfg.MongoConnectLimit,
		})
		if err != nil {
			return stores{}, err
		}

		indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := mongodb.EnsureIndexes(indexCtx, db); err != nil {
			mongodb.Close(context.Background(), db)
			return stores{}, err
		}

		return stores{
			leads:  mongodb.NewLeadStore(db),
			checks: mongodb.NewStatusCheckStore(db),
			check: func(ctx context.Context) error {
				return mongodb.StatusCheck(ctx, db)
			},
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := mongodb.Close(ctx, db); err != nil {
					log.Errorw("shutdown", "status", "closing mongo", "error", err)
				}
			},
		}, nil

	case "memory":
		log.Warnw("startup", "status", "using in-memory record store, data is lost on restart")

		return stores{
			leads:  memory.NewLeadStore(),
			checks: memory.NewStatusCheckStore(),
			check:  func(ctx context.Context) error { return nil },
			close:  func() {},
		}, nil
	}

	return stores{}, fmt.Errorf("unknown record store kind %q", cfg.Kind)
}

// startupContext bounds a startup step by d. A non-positive d leaves the
// step bounded only by ctx.
func startupContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
