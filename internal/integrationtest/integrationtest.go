// Package integrationtest provides db helpers used in integration tests.
package integrationtest

import (
	"database/sql"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/audit"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/metrics"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"

	// Registers the postgres driver for dbpkg.Setup.
	_ "github.com/lib/pq"
)

// ConfigPath is the configs directory as seen from a package two levels below the module root.
const ConfigPath = "../../configs"

// MigrationURL is the migration source as seen from a package two levels below the module root.
const MigrationURL = "file://../../db/migration"

// LoadConfig loads the integration test configuration.
func LoadConfig(t *testing.T) configpkg.Config {
	t.Helper()

	config, err := configpkg.Load(ConfigPath)
	if err != nil {
		t.Fatalf(`configpkg.Load(%q) returned error: %v`, ConfigPath, err)
	}

	return config
}

// SetupServer returns a test server backed by PostgreSQL and the db it uses.
//
// The db is flushed once the test is done.
func SetupServer(t *testing.T, sinks ...audit.Sink) (*httpserver.Server, *sql.DB) {
	t.Helper()

	config := LoadConfig(t)

	zerolog.SetGlobalLevel(zerolog.FatalLevel)

	logger := middleware.CreateLogger(config)

	db := SetupDB(t, config.DBDriver, config.DBSource)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	dispatcher := audit.NewDispatcher(m)
	for _, s := range sinks {
		dispatcher.Register("test", s)
	}

	service := ledgerservice.New(
		accountrepo.NewRepoPGS(db),
		dispatcher,
		ledgerservice.WithMetrics(m),
		ledgerservice.WithStoreTimeout(config.StoreTimeout),
	)

	gin.SetMode(gin.ReleaseMode)

	server, err := httpserver.New(service, logger, registry)
	if err != nil {
		t.Fatalf(`httpserver.New(service, logger, registry) returned error: %v`, err)
	}

	return server, db
}

func migrateUp(t *testing.T, source string) {
	t.Helper()

	if err := dbpkg.MigrateUp(MigrationURL, source); err != nil {
		t.Fatalf(`dbpkg.MigrateUp(%q, source) returned error: %v`, MigrationURL, err)
	}
}

// Flush flushes all db tables without droping.
func Flush(t *testing.T, db *sql.DB) {
	t.Helper()

	var tables string

	const query = `
	SELECT string_agg(table_name, ', ')
	FROM information_schema.tables
	WHERE table_schema='public' AND table_name <> 'schema_migrations';`

	row := db.QueryRow(query)

	err := row.Scan(&tables)
	if err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}

	if _, err := db.Exec(`TRUNCATE TABLE ` + tables + " RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("db cleanup failed. err: %v", err)
	}
}

// SetupDB sets up connection with database for testing and then cleans it.
func SetupDB(t *testing.T, driver, source string) *sql.DB {
	t.Helper()

	migrateUp(t, source)

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	t.Cleanup(func() {
		Flush(t, db)

		if err := db.Close(); err != nil {
			t.Fatalf("db cleanup failed. err: %v", err)
		}
	})

	return db
}

// SetupTX sets up a database transaction to be used in tests.
//
// Once the tests are done it will rollback the transaction.
func SetupTX(t *testing.T, driver, source string) *sql.Tx {
	t.Helper()

	migrateUp(t, source)

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("db.Begin() failed: %v", err)
	}

	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil {
			t.Fatalf("tx.Rollback() failed: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("db.Close() failed: %v", err)
		}
	})

	return tx
}
