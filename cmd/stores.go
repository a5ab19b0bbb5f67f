package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/vmatch/internal/adapters/repository"
	"github.com/okian/vmatch/internal/adapters/repository/postgres"
	"github.com/okian/vmatch/internal/adapters/repository/redisstore"
	"github.com/okian/vmatch/internal/config"
	"github.com/okian/vmatch/pkg/logger"
)

// stores holds the backends selected by configuration.
type stores struct {
	catalog       repository.Catalog
	registrations repository.Registrations
	notifications repository.Notifications
	history       repository.History

	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores connects the catalog and registry drivers named in cfg.
func openStores(ctx context.Context, cfg *config.Config, log logger.Logger) (*stores, error) {
	st := &stores{}
	var pg *postgres.Store

	switch cfg.CatalogDriver {
	case config.DriverPostgres:
		if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		st.closers = append(st.closers, db.Close)
		if err := db.Ready(ctx); err != nil {
			st.close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		pg = postgres.NewStore(db)
		if cfg.SeedDemoData {
			if err := pg.Seed(ctx); err != nil {
				st.close()
				return nil, fmt.Errorf("postgres seed: %w", err)
			}
		}
		st.catalog, st.notifications, st.history = pg, pg, pg
		log.Info(ctx, "catalog on postgres")

	default:
		opts := []repository.Option{repository.WithMetricsUpdateInterval(serviceMetricsInterval)}
		if cfg.SeedDemoData {
			opts = append(opts, repository.WithDemoData())
		}
		mem := repository.NewMemoryStore(ctx, opts...)
		st.closers = append(st.closers, func() { _ = mem.Close() })
		st.catalog, st.notifications, st.history = mem, mem, mem
		st.registrations = mem
		log.Info(ctx, "catalog in memory", logger.Bool("demo_data", cfg.SeedDemoData))
	}

	switch cfg.RegistryDriver {
	case config.DriverPostgres:
		st.registrations = pg
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		st.closers = append(st.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			st.close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		st.registrations = redisstore.NewStore(client)
		log.Info(ctx, "registrations on redis", logger.String("addr", cfg.RedisAddr))
	default:
		if st.registrations == nil {
			// Postgres catalog with in-memory registrations.
			mem := repository.NewMemoryStore(ctx)
			st.registrations = mem
		}
	}
	return st, nil
}
