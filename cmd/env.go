package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/boreal-data/transfers-cli/internal/catalog"
	"github.com/boreal-data/transfers-cli/internal/monitoring"
	"github.com/boreal-data/transfers-cli/internal/store"
)

// cmdEnv holds the store and catalog shared by the scrape/serve/export/status
// commands.
type cmdEnv struct {
	Store     store.Store
	Catalog   *catalog.Catalog
	Collector *monitoring.Collector
}

// Close releases resources held by the command environment.
func (e *cmdEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv loads the catalog, opens the configured store, and runs migrations.
// Callers should defer env.Close().
func initEnv(ctx context.Context) (*cmdEnv, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	maxAge := time.Duration(cfg.Scrape.MaxAgeDays) * 24 * time.Hour
	collector := monitoring.NewCollector(st, cat.SourceURL, maxAge)

	return &cmdEnv{
		Store:     st,
		Catalog:   cat,
		Collector: collector,
	}, nil
}

func loadCatalog() (*catalog.Catalog, error) {
	if cfg.Catalog.Path != "" {
		return catalog.Load(cfg.Catalog.Path)
	}
	return catalog.Default()
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "transfers.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
