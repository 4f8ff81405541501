package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ryanbastic/go-contentstore/internal/api"
	"github.com/ryanbastic/go-contentstore/internal/circuitbreaker"
	"github.com/ryanbastic/go-contentstore/internal/config"
	"github.com/ryanbastic/go-contentstore/internal/content"
	"github.com/ryanbastic/go-contentstore/internal/element"
	"github.com/ryanbastic/go-contentstore/internal/event"
	"github.com/ryanbastic/go-contentstore/internal/search"
	"github.com/ryanbastic/go-contentstore/internal/storage"
	"github.com/ryanbastic/go-contentstore/internal/storage/memory"
	"github.com/ryanbastic/go-contentstore/internal/storage/sqlite"
	"github.com/ryanbastic/go-contentstore/internal/trigger"
)

// SearchUnavailableAlert is raised while the search breaker rejects writes.
const SearchUnavailableAlert = "The search index is unavailable. Saved content is not being indexed."

// rowBackend is what every database driver provides.
type rowBackend interface {
	storage.RowStore
	storage.Migrator
	api.Pinger
}

// app holds the services built from one configuration.
type app struct {
	cfg    config.Config
	logger *slog.Logger

	types    *element.Registry
	pool     *pgxpool.Pool
	rows     rowBackend
	indexer  search.Indexer
	searcher search.Searcher
	breaker  *search.BreakerIndexer

	pluginStore *trigger.PostgresPluginStore
	plugins     *trigger.PluginRegistry
	notifier    *trigger.Notifier
	content     *content.Service

	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	defs, err := config.LoadElementTypes(cfg.ElementTypesPath)
	if err != nil {
		return nil, err
	}
	if a.types, err = defs.Build(); err != nil {
		return nil, err
	}

	if err := a.openDatabase(ctx); err != nil {
		return nil, err
	}
	if err := a.openSearch(); err != nil {
		return nil, err
	}

	a.plugins = trigger.NewPluginRegistry()
	if a.pool != nil {
		a.pluginStore = trigger.NewPostgresPluginStore(a.pool, cfg.QueryTimeout)
		a.plugins = trigger.NewPluginRegistry(a.pluginStore)
	}
	rpc := trigger.NewRPCClient(cfg.PluginRPCRetryMax, cfg.PluginRPCRetryBackoff, cfg.PluginRPCTimeout)
	a.notifier = trigger.NewNotifier(a.plugins, rpc, logger)

	a.content = content.New(a.rows, a.indexer, content.WithLogger(logger))
	a.attachListeners()
	return a, nil
}

func (a *app) openDatabase(ctx context.Context) error {
	switch a.cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		a.pool = pool
		a.rows = postgresBackend{PostgresStore: storage.NewPostgresStore(pool, a.cfg.QueryTimeout), pool: pool}
	case config.DriverSQLite:
		s, err := sqlite.Open(a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, s.Close)
		a.rows = s
	case config.DriverMemory:
		a.rows = memory.New()
	default:
		return fmt.Errorf("unknown database driver %q", a.cfg.DatabaseDriver)
	}
	a.logger.Info("database ready", "driver", a.cfg.DatabaseDriver)
	return nil
}

func (a *app) openSearch() error {
	var backend search.Indexer
	switch a.cfg.SearchBackend {
	case config.SearchNone:
		a.indexer = search.NopIndexer{}
		return nil
	case config.SearchBleve:
		idx, err := search.OpenBleve(a.cfg.SearchIndexPath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, idx.Close)
		backend = idx
	case config.SearchPostgres:
		if a.pool == nil {
			return fmt.Errorf("search backend %q needs a postgres database", config.SearchPostgres)
		}
		backend = search.NewPostgresIndexer(a.pool, a.cfg.QueryTimeout)
	default:
		return fmt.Errorf("unknown search backend %q", a.cfg.SearchBackend)
	}

	cb := circuitbreaker.New(a.cfg.SearchBreakerMaxFailures, a.cfg.SearchBreakerReset,
		circuitbreaker.WithOnStateChange(func(from, to circuitbreaker.State) {
			a.logger.Warn("search breaker state changed", "backend", a.cfg.SearchBackend, "from", from, "to", to)
		}))
	a.breaker = search.NewBreakerIndexer(backend, cb)
	a.indexer = a.breaker
	a.searcher = a.breaker
	a.logger.Info("search ready", "backend", a.cfg.SearchBackend)
	return nil
}

func (a *app) attachListeners() {
	bus := a.content.Events()

	a.notifier.Attach(bus)

	bus.RegisterCpAlerts.On(func(ctx context.Context, ev *event.RegisterCpAlertsEvent) {
		if a.breaker != nil && a.breaker.Open() {
			ev.Alerts = append(ev.Alerts, SearchUnavailableAlert)
		}
	})

	if a.cfg.ResourcesDir != "" {
		bus.ResolveResourcePath.On(api.ResourceDirResolver(a.cfg.ResourcesDir))
	}
}

// migrate creates every content table and field column the element types
// need, plus the search and plugin tables of the postgres backends.
func (a *app) migrate(ctx context.Context) error {
	for _, t := range a.types.Types() {
		if !t.HasContent {
			continue
		}
		coords := element.New(t, 0, 0).Coordinates()
		cols := storage.FieldColumns(coords.ColumnPrefix, t.Layout)
		if err := a.rows.EnsureContentTable(ctx, coords.Table, cols); err != nil {
			return fmt.Errorf("migrate element type %q: %w", t.Handle, err)
		}
		a.logger.Info("content table ready", "type", t.Handle, "table", coords.Table, "columns", len(cols))
	}

	if a.pool != nil {
		if a.cfg.SearchBackend == config.SearchPostgres {
			if err := search.NewPostgresIndexer(a.pool, a.cfg.QueryTimeout).EnsureSchema(ctx); err != nil {
				return err
			}
		}
		if err := a.pluginStore.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) handler() http.Handler {
	return api.NewServer(api.Deps{
		Logger:   a.logger,
		Content:  a.content,
		Types:    a.types,
		Searcher: a.searcher,
		Plugins:  a.plugins,
		Backends: map[string]api.Pinger{"database": a.rows},
	})
}

// Close waits for in-flight plugin notifications and releases the backends
// in reverse order of opening.
func (a *app) Close() error {
	if a.notifier != nil {
		a.notifier.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// postgresBackend adds the pool's Ping to the postgres row store.
type postgresBackend struct {
	*storage.PostgresStore
	pool *pgxpool.Pool
}

func (b postgresBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}
