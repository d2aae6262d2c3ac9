// Package config provides the infrastructure settings of a bakery run: database connections for the
// journal engines (pgx.Pool, sql.DB, sqlx.DB, SQLite) and the OpenTelemetry providers.
//
// Settings come from the environment with local development defaults. Every constructor returns its
// error; the caller treats it as a setup failure.
//
// This package is part of the shell (infrastructure) layer.
package config
