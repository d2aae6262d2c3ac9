package config_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bakery-simulation/bakery/shell/config"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/testutil/helper"
)

func Test_ParseJournalKind(t *testing.T) {
	kind, err := config.ParseJournalKind(" SQLite ")
	require.NoError(t, err)
	assert.Equal(t, config.JournalSQLite, kind)

	_, err = config.ParseJournalKind("redis")
	assert.ErrorIs(t, err, config.ErrUnknownJournalKind)
}

func Test_DBAdapterFromEnv(t *testing.T) {
	t.Setenv("DB_ADAPTER", "")
	adapter, err := config.DBAdapterFromEnv()
	require.NoError(t, err)
	assert.Equal(t, config.AdapterPGX, adapter)

	t.Setenv("DB_ADAPTER", "sqlx")
	adapter, err = config.DBAdapterFromEnv()
	require.NoError(t, err)
	assert.Equal(t, config.AdapterSQLX, adapter)

	t.Setenv("DB_ADAPTER", "gorm")
	_, err = config.DBAdapterFromEnv()
	assert.ErrorIs(t, err, config.ErrUnknownDBAdapter)
}

func Test_PostgresDSN_FromEnv(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	assert.Contains(t, config.PostgresDSN(), "localhost:5432")

	t.Setenv("POSTGRES_DSN", "postgres://u:p@db:5432/x")
	assert.Equal(t, "postgres://u:p@db:5432/x", config.PostgresDSN())
}

func Test_OTLPEndpoint_FromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	assert.Equal(t, "collector:4317", config.OTLPEndpoint())
}

func Test_OpenJournal_None(t *testing.T) {
	engine, closeFn, err := config.OpenJournal(context.Background(), config.JournalSettings{Kind: config.JournalNone})

	require.NoError(t, err)
	assert.Nil(t, engine)
	closeFn()
}

func givenAppendAndQuery(t *testing.T, engine eventstore.Engine) {
	t.Helper()

	ctx := context.Background()
	event := helper.GivenStorableEvent(t, "SupplyPurchased", time.Now(), `{"SupplyKind":"wheat"}`)
	require.NoError(t, engine.Append(ctx, event))

	events, err := engine.Query(ctx, eventstore.BuildEventFilter().AnyEventTypeOf("SupplyPurchased").Finalize())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "SupplyPurchased", events[0].EventType)
}

func Test_OpenJournal_Memory(t *testing.T) {
	engine, closeFn, err := config.OpenJournal(context.Background(), config.JournalSettings{Kind: config.JournalMemory})
	require.NoError(t, err)
	t.Cleanup(closeFn)

	givenAppendAndQuery(t, engine)
}

func Test_OpenJournal_SQLite(t *testing.T) {
	engine, closeFn, err := config.OpenJournal(context.Background(), config.JournalSettings{
		Kind:       config.JournalSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "journal.db"),
	})
	require.NoError(t, err)
	t.Cleanup(closeFn)

	givenAppendAndQuery(t, engine)
}

func Test_OpenJournal_Postgres(t *testing.T) {
	dsn := helper.PostgresDSNOrSkip(t)

	for _, adapter := range []config.DBAdapter{config.AdapterPGX, config.AdapterSQLDB, config.AdapterSQLX} {
		t.Run(string(adapter), func(t *testing.T) {
			engine, closeFn, err := config.OpenJournal(context.Background(), config.JournalSettings{
				Kind:        config.JournalPostgres,
				Adapter:     adapter,
				PostgresDSN: dsn,
				TableName:   helper.UniqueTableName(t, "journal"),
			})
			require.NoError(t, err)
			t.Cleanup(closeFn)

			givenAppendAndQuery(t, engine)
		})
	}
}

func Test_OpenJournal_UnknownAdapter(t *testing.T) {
	_, _, err := config.OpenJournal(context.Background(), config.JournalSettings{
		Kind:    config.JournalPostgres,
		Adapter: config.DBAdapter("odbc"),
	})

	assert.ErrorIs(t, err, config.ErrUnknownDBAdapter)
}
