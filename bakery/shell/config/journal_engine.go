package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/memoryengine"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/postgresengine"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/sqliteengine"
)

const (
	envDBAdapter      = "DB_ADAPTER"
	defaultSQLitePath = "bakery-journal.db"
)

var (
	ErrUnknownJournalKind   = errors.New("unknown journal kind")
	ErrUnknownDBAdapter     = errors.New("unknown database adapter")
	ErrOpeningJournalFailed = errors.New("opening the journal failed")
)

// JournalKind selects the engine the run's events are appended to.
type JournalKind string

const (
	JournalNone     JournalKind = "none"
	JournalMemory   JournalKind = "memory"
	JournalPostgres JournalKind = "postgres"
	JournalSQLite   JournalKind = "sqlite"
)

func ParseJournalKind(s string) (JournalKind, error) {
	switch kind := JournalKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case JournalNone, JournalMemory, JournalPostgres, JournalSQLite:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownJournalKind, s)
	}
}

// DBAdapter selects the Postgres driver stack.
type DBAdapter string

const (
	AdapterPGX   DBAdapter = "pgx"
	AdapterSQLDB DBAdapter = "sql.db"
	AdapterSQLX  DBAdapter = "sqlx"
)

func ParseDBAdapter(s string) (DBAdapter, error) {
	switch adapter := DBAdapter(strings.ToLower(strings.TrimSpace(s))); adapter {
	case "":
		return AdapterPGX, nil
	case AdapterPGX, AdapterSQLDB, AdapterSQLX:
		return adapter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDBAdapter, s)
	}
}

// DBAdapterFromEnv reads DB_ADAPTER, defaulting to pgx.
func DBAdapterFromEnv() (DBAdapter, error) {
	return ParseDBAdapter(os.Getenv(envDBAdapter))
}

// EngineObservability is handed to whichever engine gets opened. Nil fields are skipped.
type EngineObservability struct {
	Logger           eventstore.Logger
	ContextualLogger eventstore.ContextualLogger
	MetricsCollector eventstore.MetricsCollector
	TracingCollector eventstore.TracingCollector
}

// JournalSettings describe the engine to open.
type JournalSettings struct {
	Kind          JournalKind
	Adapter       DBAdapter
	PostgresDSN   string
	ReplicaDSN    string
	SQLitePath    string
	TableName     string
	Observability EngineObservability
}

// JournalSettingsFromEnv fills the connection details from the environment.
func JournalSettingsFromEnv(kind JournalKind) (JournalSettings, error) {
	adapter, err := DBAdapterFromEnv()
	if err != nil {
		return JournalSettings{}, err
	}

	return JournalSettings{
		Kind:        kind,
		Adapter:     adapter,
		PostgresDSN: PostgresDSN(),
		ReplicaDSN:  PostgresReplicaDSN(),
		SQLitePath:  defaultSQLitePath,
	}, nil
}

// OpenJournal opens the engine and makes sure its schema exists. The returned close function releases
// the connections. JournalNone returns a nil engine.
func OpenJournal(ctx context.Context, settings JournalSettings) (eventstore.Engine, func(), error) {
	switch settings.Kind {
	case JournalNone:
		return nil, func() {}, nil

	case JournalMemory:
		engine, err := memoryengine.NewEventStore(memoryOptions(settings.Observability)...)
		if err != nil {
			return nil, nil, errors.Join(ErrOpeningJournalFailed, err)
		}

		return engine, func() {}, nil

	case JournalSQLite:
		return openSQLite(ctx, settings)

	case JournalPostgres:
		return openPostgres(ctx, settings)

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownJournalKind, settings.Kind)
	}
}

func openSQLite(ctx context.Context, settings JournalSettings) (eventstore.Engine, func(), error) {
	path := settings.SQLitePath
	if path == "" {
		path = defaultSQLitePath
	}

	db, err := sqliteengine.OpenDB(path)
	if err != nil {
		return nil, nil, errors.Join(ErrOpeningJournalFailed, err)
	}

	options := sqliteOptions(settings.Observability)
	if settings.TableName != "" {
		options = append(options, sqliteengine.WithTableName(settings.TableName))
	}

	engine, err := sqliteengine.NewEventStoreFromSQLDB(db, options...)
	if err != nil {
		_ = db.Close()

		return nil, nil, errors.Join(ErrOpeningJournalFailed, err)
	}

	if schemaErr := engine.EnsureSchema(ctx); schemaErr != nil {
		_ = db.Close()

		return nil, nil, errors.Join(ErrOpeningJournalFailed, schemaErr)
	}

	return engine, func() { _ = db.Close() }, nil
}

func openPostgres(ctx context.Context, settings JournalSettings) (eventstore.Engine, func(), error) {
	options := postgresOptions(settings.Observability)
	if settings.TableName != "" {
		options = append(options, postgresengine.WithTableName(settings.TableName))
	}

	var engine postgresengine.EventStore
	var closeFn func()

	switch settings.Adapter {
	case AdapterPGX, "":
		pool, err := NewPGXPool(ctx, settings.PostgresDSN)
		if err != nil {
			return nil, nil, errors.Join(ErrOpeningJournalFailed, err)
		}

		if settings.ReplicaDSN == "" {
			engine, err = postgresengine.NewEventStoreFromPGXPool(pool, options...)
			closeFn = pool.Close
		} else {
			replica, replicaErr := NewPGXPool(ctx, settings.ReplicaDSN)
			if replicaErr != nil {
				pool.Close()

				return nil, nil, errors.Join(ErrOpeningJournalFailed, replicaErr)
			}

			engine, err = postgresengine.NewEventStoreFromPGXPoolAndReplica(pool, replica, options...)
			closeFn = func() {
				replica.Close()
				pool.Close()
			}
		}

		if err != nil {
			closeFn()

			return nil, nil, errors.Join(ErrOpeningJournalFailed, err)
		}

	case AdapterSQLDB:
		db, err := OpenPostgresSQLDB(ctx, settings.PostgresDSN)
		if err != nil {
			return nil, nil, errors.Join(ErrOpeningJournalFailed, err)
		}

		closeFn = func() { _ = db.Close() }

		if engine, err = postgresengine.NewEventStoreFromSQLDB(db, options...); err != nil {
			closeFn()

			return nil, nil, errors.Join(ErrOpeningJournalFailed, err)
		}

	case AdapterSQLX:
		db, err := OpenPostgresSQLX(ctx, settings.PostgresDSN)
		if err != nil {
			return nil, nil, errors.Join(ErrOpeningJournalFailed, err)
		}

		closeFn = func() { _ = db.Close() }

		if engine, err = postgresengine.NewEventStoreFromSQLX(db, options...); err != nil {
			closeFn()

			return nil, nil, errors.Join(ErrOpeningJournalFailed, err)
		}

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDBAdapter, settings.Adapter)
	}

	if err := engine.EnsureSchema(ctx); err != nil {
		closeFn()

		return nil, nil, errors.Join(ErrOpeningJournalFailed, err)
	}

	return engine, closeFn, nil
}

func memoryOptions(o EngineObservability) []memoryengine.Option {
	var options []memoryengine.Option

	if o.Logger != nil {
		options = append(options, memoryengine.WithLogger(o.Logger))
	}

	if o.ContextualLogger != nil {
		options = append(options, memoryengine.WithContextualLogger(o.ContextualLogger))
	}

	if o.MetricsCollector != nil {
		options = append(options, memoryengine.WithMetrics(o.MetricsCollector))
	}

	if o.TracingCollector != nil {
		options = append(options, memoryengine.WithTracing(o.TracingCollector))
	}

	return options
}

func sqliteOptions(o EngineObservability) []sqliteengine.Option {
	var options []sqliteengine.Option

	if o.Logger != nil {
		options = append(options, sqliteengine.WithLogger(o.Logger))
	}

	if o.ContextualLogger != nil {
		options = append(options, sqliteengine.WithContextualLogger(o.ContextualLogger))
	}

	if o.MetricsCollector != nil {
		options = append(options, sqliteengine.WithMetrics(o.MetricsCollector))
	}

	if o.TracingCollector != nil {
		options = append(options, sqliteengine.WithTracing(o.TracingCollector))
	}

	return options
}

func postgresOptions(o EngineObservability) []postgresengine.Option {
	var options []postgresengine.Option

	if o.Logger != nil {
		options = append(options, postgresengine.WithLogger(o.Logger))
	}

	if o.ContextualLogger != nil {
		options = append(options, postgresengine.WithContextualLogger(o.ContextualLogger))
	}

	if o.MetricsCollector != nil {
		options = append(options, postgresengine.WithMetrics(o.MetricsCollector))
	}

	if o.TracingCollector != nil {
		options = append(options, postgresengine.WithTracing(o.TracingCollector))
	}

	return options
}
