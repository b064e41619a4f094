package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/audit"
	"github.com/go-petr/pet-ledger/internal/entryrepo"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/metrics"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"

	_ "github.com/lib/pq"
)

// app holds the wired ledger and everything that must be released on exit.
type app struct {
	service    *ledgerservice.Service
	dispatcher *audit.Dispatcher
	registry   *prometheus.Registry
	db         *sql.DB
}

func newApp(ctx context.Context, config configpkg.Config, logger zerolog.Logger) (*app, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := metrics.New(registry)

	a := &app{
		dispatcher: audit.NewDispatcher(m),
		registry:   registry,
	}

	repo, err := a.openStore(config)
	if err != nil {
		return nil, err
	}

	a.dispatcher.Register("file", audit.NewFileSink(config.AuditLogPath))

	if a.db != nil {
		a.dispatcher.Register("postgres", entryrepo.NewRepoPGS(a.db))
	}

	if config.RedisURL != "" {
		sink, err := audit.DialRedisSink(ctx, config.RedisURL, config.RedisAuditKey)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("cannot connect to redis: %w", err)
		}

		a.dispatcher.Register("redis", sink)
	}

	a.dispatcher.Register("log", audit.SinkFunc(func(ctx context.Context, e audit.Entry) error {
		zerolog.Ctx(ctx).Debug().
			Str("account", e.AccountRef).
			Str("kind", e.Kind.String()).
			Int64("amount", e.Amount).
			Msg("transaction recorded")

		return nil
	}))

	a.service = ledgerservice.New(repo, a.dispatcher,
		ledgerservice.WithMetrics(m),
		ledgerservice.WithStoreTimeout(config.StoreTimeout),
	)

	logger.Info().
		Str("store", config.Store).
		Str("audit_log", config.AuditLogPath).
		Int("sinks", a.dispatcher.Len()).
		Msg("ledger is ready")

	return a, nil
}

func (a *app) openStore(config configpkg.Config) (ledgerservice.Repo, error) {
	switch config.Store {
	case configpkg.StoreMemory:
		return accountrepo.NewMemory(), nil
	case configpkg.StorePostgres:
		db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
		if err != nil {
			return nil, fmt.Errorf("cannot connect to database: %w", err)
		}

		a.db = db

		return accountrepo.NewRepoPGS(db), nil
	}

	return nil, fmt.Errorf("unknown store %q", config.Store)
}

// Close releases the audit sinks and the database.
func (a *app) Close() error {
	var errs []error

	if err := a.dispatcher.Close(); err != nil {
		errs = append(errs, err)
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
