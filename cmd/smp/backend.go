package main

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/infra/cache"
	"github.com/totegamma/smp/internal/infra/database"
	"github.com/totegamma/smp/internal/infra/memstore"
	"github.com/totegamma/smp/internal/infra/repository"
	"github.com/totegamma/smp/internal/usecase"
)

const serviceGroupCacheSeconds = 60

// openStores connects the storage backend the snapshot names.
func openStores(snap *config.Snapshot) (usecase.Stores, func(), error) {
	switch snap.Backend {
	case config.BackendMemory:
		slog.Warn(
			"using in-memory storage, data is lost on restart",
			slog.String("module", "main"),
		)
		return memstore.NewBackend().Stores(), func() {}, nil
	}

	var dial func() (*gorm.DB, error)
	switch snap.Backend {
	case config.BackendSQLite:
		dial = func() (*gorm.DB, error) { return database.NewSQLite(snap.Server.SqlitePath) }
	default:
		dial = func() (*gorm.DB, error) { return database.NewPostgres(snap.Server.PostgresDsn) }
	}

	db, err := dial()
	if err != nil {
		return usecase.Stores{}, nil, errors.Wrap(err, "failed to connect database")
	}
	if err := database.Migrate(db); err != nil {
		return usecase.Stores{}, nil, errors.Wrap(err, "failed to migrate database")
	}

	closer := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return repository.NewStores(db), closer, nil
}

// withCache puts the memcache read-through cache in front of the service
// group store when a memcached server is configured.
func withCache(ctx context.Context, snap *config.Snapshot, stores usecase.Stores) usecase.Stores {
	if snap.Server.MemcachedAddr == "" {
		return stores
	}
	mc := database.NewMemcached(snap.Server.MemcachedAddr)
	if err := mc.Ping(); err != nil {
		slog.WarnContext(
			ctx, "memcached is not reachable, cache disabled",
			slog.String("addr", snap.Server.MemcachedAddr),
			slog.String("error", err.Error()),
			slog.String("module", "main"),
		)
		return stores
	}
	stores.ServiceGroups = cache.NewServiceGroupStore(stores.ServiceGroups, mc, serviceGroupCacheSeconds)
	return stores
}
