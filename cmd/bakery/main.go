package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/bakery-simulation/bakery/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/bakery/ledger"
	"github.com/AntonStoeckl/bakery-simulation/bakery/report"
	"github.com/AntonStoeckl/bakery-simulation/bakery/shell"
	shellconfig "github.com/AntonStoeckl/bakery-simulation/bakery/shell/config"
	"github.com/AntonStoeckl/bakery-simulation/bakery/simulation"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
	"github.com/AntonStoeckl/bakery-simulation/eventstore/oteladapters"
)

const instrumentationName = "bakery-simulation"

func main() {
	if err := run(parseFlags()); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

//nolint:funlen
func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: flags.LogLevel}))
	runID := uuid.New()

	var (
		contextualLogger eventstore.ContextualLogger
		tracing          eventstore.TracingCollector
		otelMetrics      eventstore.MetricsCollector
		promMetrics      eventstore.MetricsCollector
	)

	if flags.ObservabilityEnabled {
		providers, err := shellconfig.NewObservabilityProviders(ctx, shellconfig.ObservabilitySettings{ServiceName: instrumentationName})
		if err != nil {
			return err
		}
		defer shutdownWithTimeout("observability providers", providers.Shutdown)

		contextualLogger = oteladapters.NewSlogBridgeLogger(instrumentationName)
		tracing = oteladapters.NewTracingCollector(otel.Tracer(instrumentationName))
		otelMetrics = oteladapters.NewMetricsCollector(otel.Meter(instrumentationName), oteladapters.WithDescriptions(metricDescriptions))

		log.Printf("🔭 Observability enabled: exporting to %s", shellconfig.OTLPEndpoint())
	}

	if flags.MetricsAddr != "" {
		server := startMetricsServer(flags.MetricsAddr)
		defer shutdownWithTimeout("metrics server", server.Shutdown)

		promMetrics = server.collector

		log.Printf("📈 Prometheus metrics on %s/metrics", flags.MetricsAddr)
	}

	metrics := combineMetrics(otelMetrics, promMetrics)

	kind, err := shellconfig.ParseJournalKind(flags.Journal)
	if err != nil {
		return err
	}

	settings, err := shellconfig.JournalSettingsFromEnv(kind)
	if err != nil {
		return err
	}

	settings.SQLitePath = flags.SQLitePath
	settings.TableName = flags.TableName
	settings.Observability = shellconfig.EngineObservability{
		Logger:           logger,
		ContextualLogger: contextualLogger,
		MetricsCollector: metrics,
		TracingCollector: tracing,
	}

	engine, closeEngine, err := shellconfig.OpenJournal(ctx, settings)
	if err != nil {
		return err
	}
	defer closeEngine()

	options := []simulation.Option{
		simulation.WithRunID(runID),
		simulation.WithLogger(logger),
		simulation.WithMetrics(metrics),
	}

	if contextualLogger != nil {
		options = append(options, simulation.WithContextualLogger(contextualLogger))
	}

	if tracing != nil {
		options = append(options, simulation.WithTracing(tracing))
	}

	if flags.Seed != 0 {
		options = append(options, simulation.WithSeed(flags.Seed))
	}

	if !flags.Quiet {
		options = append(options, simulation.WithStatus(printStatus))
	}

	var journal *shell.Journal
	if engine != nil {
		journalOptions := []shell.JournalOption{shell.WithJournalLogger(logger)}
		if contextualLogger != nil {
			journalOptions = append(journalOptions, shell.WithJournalContextualLogger(contextualLogger))
		}

		if metrics != nil {
			journalOptions = append(journalOptions, shell.WithJournalMetrics(metrics))
		}

		journal, err = shell.NewJournal(engine, runID, journalOptions...)
		if err != nil {
			return err
		}

		options = append(options, simulation.WithRecorder(journal))
		log.Printf("📒 Journal: %s", kind)
	}

	sim, err := simulation.New(cfg, options...)
	if err != nil {
		return err
	}

	log.Printf("🥐 Bakery opened: run %s, %d chefs, %d bakers, %d sellers, %d restockers, %s per time unit",
		runID, cfg.Chefs, cfg.Bakers, cfg.Sellers, cfg.Restockers, cfg.TimeUnit)
	log.Printf("Stops at %d complaints, %d frustrated, %d missing requests, %.2f profit or %d minutes",
		cfg.MaxComplaints, cfg.MaxFrustrated, cfg.MaxMissingRequests, cfg.ProfitThreshold, cfg.SimulationMinutes)
	log.Printf("Press Ctrl+C to stop...")

	result, err := sim.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(result)

	var journalStats *report.JournalStats
	if journal != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownMax)
		defer cancel()

		if err := journal.Close(closeCtx); err != nil {
			log.Printf("⚠️ Journal did not drain: %v", err)
		}

		journalStats = &report.JournalStats{
			Engine:   string(kind),
			Appended: journal.Appended(),
			Dropped:  journal.Dropped(),
			Failed:   journal.Failed(),
		}

		log.Printf("📒 Journal: %d appended, %d dropped, %d failed",
			journalStats.Appended, journalStats.Dropped, journalStats.Failed)
	}

	if flags.Report == "" {
		return nil
	}

	return saveReport(flags.Report, report.Input{
		RunID:         result.RunID,
		Reason:        result.Reason,
		Final:         result.Final,
		SellersServed: result.SellersServed,
		Outcomes:      result.Outcomes,
		Journal:       journalStats,
		GeneratedAt:   time.Now(),
	})
}

func loadConfig(flags Flags) (config.Config, error) {
	cfg := config.Default()

	if flags.ConfigPath != "" {
		loaded, err := config.Load(flags.ConfigPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("loading %s: %w", flags.ConfigPath, err)
		}

		cfg = loaded
	}

	if flags.TimeUnit > 0 {
		cfg.TimeUnit = flags.TimeUnit
	}

	return cfg, nil
}

func saveReport(target string, in report.Input) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownMax)
	defer cancel()

	store, err := report.StoreFor(ctx, target, report.S3SettingsFromEnv())
	if err != nil {
		return fmt.Errorf("opening the report store: %w", err)
	}

	r := report.Build(in)
	if err := report.Save(ctx, store, r); err != nil {
		return err
	}

	log.Printf("📝 Report written to %s (%s)", target, r.Key())

	return nil
}

func shutdownWithTimeout(name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownMax)
	defer cancel()

	if err := shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("⚠️ Shutting down the %s failed: %v", name, err)
	}
}

func printStatus(s ledger.Snapshot) {
	log.Printf("📊 %6.0fs | profit %8.2f | served %4d | complaints %3d | frustrated %3d | missing %3d | customers %3d | sellers %d/%d",
		s.Elapsed.Seconds(), s.Stats.Profit, s.Stats.Served, s.Stats.Complaints, s.Stats.Frustrated,
		s.Stats.MissingRequests, s.LiveCustomers, s.AvailableSellers, s.TotalSellers)
}

func printSummary(result simulation.Result) {
	s := result.Final

	log.Printf("🛑 Bakery closed: %s after %s", result.Reason, s.Elapsed.Round(time.Millisecond))
	log.Printf("💰 Profit %.2f (refunded %.2f), %d served, %d low quality",
		s.Stats.Profit, s.Stats.Refunded, s.Stats.Served, s.Stats.LowQuality)
	log.Printf("😠 %d complaints, %d frustrated, %d missing requests, %d fled",
		s.Stats.Complaints, s.Stats.Frustrated, s.Stats.MissingRequests, s.Stats.Fled)

	for _, kind := range core.ItemKinds() {
		log.Printf("   %-18s produced %5d  sold %5d  left %4d",
			kind, s.Stats.Produced[kind], s.Stats.Sold[kind], s.InventoryTotal(kind))
	}

	for i, served := range result.SellersServed {
		log.Printf("   seller %d served %d", i, served)
	}

	outcomes := make([]core.Outcome, 0, len(result.Outcomes))
	for outcome := range result.Outcomes {
		outcomes = append(outcomes, outcome)
	}
	slices.Sort(outcomes)

	for _, outcome := range outcomes {
		log.Printf("   %-14s %d", outcome, result.Outcomes[outcome])
	}
}
