// Package main is a consistency check for journaled bakery runs. It rebuilds each run's totals from its
// events and compares them with the figures the run reported when it stopped.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/AntonStoeckl/bakery-simulation/bakery/audit"
	shellconfig "github.com/AntonStoeckl/bakery-simulation/bakery/shell/config"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

var errNotPersistent = errors.New("only the postgres and sqlite journals outlive a run")

// Config holds the command-line configuration of the audit.
type Config struct {
	Journal    string
	SQLitePath string
	TableName  string
	Since      time.Duration
	RunID      string
	Verbose    bool
}

func parseFlags() Config {
	var (
		journal    = flag.String("journal", "sqlite", "Journal to audit: postgres or sqlite")
		sqlitePath = flag.String("sqlite-path", "bakery-journal.db", "Database file of the sqlite journal")
		tableName  = flag.String("table", "", "Events table of the journal")
		since      = flag.Duration("since", 0, "Only audit events of the last duration, all when 0")
		runID      = flag.String("run", "", "Only audit the run with this ID")
		verbose    = flag.Bool("verbose", false, "Print the event counts per type")
	)

	flag.Parse()

	return Config{
		Journal:    *journal,
		SQLitePath: *sqlitePath,
		TableName:  *tableName,
		Since:      *since,
		RunID:      *runID,
		Verbose:    *verbose,
	}
}

func main() {
	fmt.Printf("🔍 %s\n", Header("Bakery Journal Audit"))
	fmt.Printf("%s\n", Separator("=", 22))

	inconsistent, err := run(context.Background(), parseFlags())
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	if inconsistent > 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (int, error) {
	kind, err := shellconfig.ParseJournalKind(cfg.Journal)
	if err != nil {
		return 0, err
	}

	if kind != shellconfig.JournalPostgres && kind != shellconfig.JournalSQLite {
		return 0, fmt.Errorf("%w: %s", errNotPersistent, kind)
	}

	settings, err := shellconfig.JournalSettingsFromEnv(kind)
	if err != nil {
		return 0, err
	}

	settings.SQLitePath = cfg.SQLitePath
	settings.TableName = cfg.TableName

	engine, closeEngine, err := shellconfig.OpenJournal(ctx, settings)
	if err != nil {
		return 0, err
	}
	defer closeEngine()

	builder := eventstore.BuildEventFilter()
	if cfg.Since > 0 {
		builder = builder.OccurredFrom(time.Now().Add(-cfg.Since))
	}

	runs, err := audit.Load(ctx, engine, builder.Finalize())
	if err != nil {
		return 0, err
	}

	if cfg.RunID != "" {
		runs = slices.DeleteFunc(runs, func(r audit.RunAudit) bool { return r.RunID != cfg.RunID })
	}

	if len(runs) == 0 {
		fmt.Println(Warning("No runs found"))
		return 0, nil
	}

	inconsistent := 0
	for _, r := range runs {
		if !printRun(r, cfg.Verbose) {
			inconsistent++
		}
	}

	fmt.Printf("\n%s %d runs, %d inconsistent\n", Bold("Summary:"), len(runs), inconsistent)

	return inconsistent, nil
}

// printRun prints one run and reports whether it is consistent.
func printRun(r audit.RunAudit, verbose bool) bool {
	fmt.Printf("\n%s %s %s\n", Bold("Run"), r.RunID,
		Gray(fmt.Sprintf("(%s .. %s, %d events)", r.FirstEvent.Format(time.DateTime), r.LastEvent.Format(time.DateTime), r.Events)))
	fmt.Printf("   profit %.2f | sold %d | customers %d | complaints %d | frustrated %d | missing %d\n",
		r.Projected.Profit, r.UnitsSold, r.Customers, r.Projected.Complaints, r.Projected.Frustrated, r.Projected.MissingItems)

	if verbose {
		types := make([]string, 0, len(r.EventsByType))
		for eventType := range r.EventsByType {
			types = append(types, eventType)
		}
		slices.Sort(types)

		for _, eventType := range types {
			fmt.Printf("   %s %-20s %d\n", Gray("·"), eventType, r.EventsByType[eventType])
		}
	}

	if !r.Complete() {
		fmt.Printf("   %s\n", Warning("⚠️  no SimulationStopped event, the run did not finish or its journal lost it"))
		return true
	}

	mismatches := r.Mismatches()
	if len(mismatches) == 0 {
		fmt.Printf("   %s stopped by %s\n", Success("✅ consistent,"), r.Stopped.Reason)
		return true
	}

	parts := make([]string, 0, len(mismatches))
	for _, m := range mismatches {
		parts = append(parts, fmt.Sprintf("%s journal %.2f vs reported %.2f", m.Field, m.Projected, m.Reported))
	}

	fmt.Printf("   %s %s\n", Error("❌ inconsistent:"), strings.Join(parts, "; "))

	return false
}
