package main

import (
	"flag"
	"log/slog"
	"time"
)

const (
	defaultJournal     = "memory"
	defaultSQLitePath  = "bakery-journal.db"
	defaultShutdownMax = 10 * time.Second
)

// Flags holds the command line of one run.
type Flags struct {
	ConfigPath           string
	Journal              string
	SQLitePath           string
	TableName            string
	Report               string
	MetricsAddr          string
	ObservabilityEnabled bool
	TimeUnit             time.Duration
	Seed                 int64
	LogLevel             slog.Level
	Quiet                bool
}

func parseFlags() Flags {
	var (
		configPath    = flag.String("config", "", "Configuration file (key=value or .yaml), defaults apply when empty")
		journal       = flag.String("journal", defaultJournal, "Event journal: memory, postgres, sqlite or none")
		sqlitePath    = flag.String("sqlite-path", defaultSQLitePath, "Database file of the sqlite journal")
		tableName     = flag.String("table", "", "Events table of the postgres and sqlite journals")
		report        = flag.String("report", "", "Report target: a directory or s3://bucket/prefix, no report when empty")
		metricsAddr   = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
		observability = flag.Bool("observability-enabled", false, "Export traces and metrics over OTLP gRPC")
		timeUnit      = flag.Duration("time-unit", 0, "Wall-clock length of one simulated time unit, overrides the config")
		seed          = flag.Int64("seed", 0, "Seed of every random draw, random when 0")
		verbose       = flag.Bool("verbose", false, "Log at debug level")
		quiet         = flag.Bool("quiet", false, "Suppress the periodic status lines")
	)

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	return Flags{
		ConfigPath:           *configPath,
		Journal:              *journal,
		SQLitePath:           *sqlitePath,
		TableName:            *tableName,
		Report:               *report,
		MetricsAddr:          *metricsAddr,
		ObservabilityEnabled: *observability,
		TimeUnit:             *timeUnit,
		Seed:                 *seed,
		LogLevel:             level,
		Quiet:                *quiet,
	}
}
