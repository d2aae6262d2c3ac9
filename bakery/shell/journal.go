package shell

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bakery-simulation/bakery/core"
	"github.com/AntonStoeckl/bakery-simulation/eventstore"
)

const (
	defaultBufferSize    = 4096
	defaultBatchSize     = 64
	defaultFlushInterval = 250 * time.Millisecond

	operationAppend = "append"

	// JournalAppendedMetric counts events the engine accepted.
	JournalAppendedMetric = "bakery_journal_events_appended_total"

	// JournalDroppedMetric counts events rejected because the buffer was full or the journal closed.
	JournalDroppedMetric = "bakery_journal_events_dropped_total"

	// JournalFailedMetric counts events lost to mapping errors or exhausted retries.
	JournalFailedMetric = "bakery_journal_events_failed_total"

	// JournalAppendDurationMetric records how long one batch append took, retries included.
	JournalAppendDurationMetric = "bakery_journal_append_duration_seconds"

	labelEventType = "event_type"

	logMsgJournalAppendFailed  = "journal append failed"
	logMsgJournalMappingFailed = "mapping event for the journal failed"
	logMsgJournalDropped       = "journal event dropped"
	logMsgJournalClosed        = "journal closed"
	logAttrEventType           = "event_type"
	logAttrEventCount          = "event_count"
	logAttrAttempts            = "attempts"
	logAttrAppended            = "appended"
	logAttrDropped             = "dropped"
	logAttrFailed              = "failed"
)

var (
	ErrNilAppender          = errors.New("journal appender must not be nil")
	ErrInvalidBufferSize    = errors.New("journal buffer size must be positive")
	ErrInvalidBatchSize     = errors.New("journal batch size must be positive")
	ErrInvalidFlushInterval = errors.New("journal flush interval must be positive")
)

// Journal records domain events asynchronously. Record never blocks: events go into a bounded buffer
// and a background goroutine appends them in batches. When the buffer is full the event is dropped
// and counted.
type Journal struct {
	appender      eventstore.Appender
	runID         uuid.UUID
	bufferSize    int
	batchSize     int
	flushInterval time.Duration
	retryOptions  []RetryOption

	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metricsCollector eventstore.MetricsCollector

	mu     sync.RWMutex
	closed bool
	events chan core.DomainEvent
	stop   chan struct{}
	done   chan struct{}

	appended atomic.Int64
	dropped  atomic.Int64
	failed   atomic.Int64
}

// JournalOption defines a functional option for configuring a Journal.
type JournalOption func(*Journal) error

func WithBufferSize(size int) JournalOption {
	return func(j *Journal) error {
		if size <= 0 {
			return ErrInvalidBufferSize
		}

		j.bufferSize = size

		return nil
	}
}

func WithBatchSize(size int) JournalOption {
	return func(j *Journal) error {
		if size <= 0 {
			return ErrInvalidBatchSize
		}

		j.batchSize = size

		return nil
	}
}

// WithFlushInterval sets how long a partial batch may wait before it is appended.
func WithFlushInterval(interval time.Duration) JournalOption {
	return func(j *Journal) error {
		if interval <= 0 {
			return ErrInvalidFlushInterval
		}

		j.flushInterval = interval

		return nil
	}
}

// WithRetryOptions configures the backoff of failed appends.
func WithRetryOptions(options ...RetryOption) JournalOption {
	return func(j *Journal) error {
		j.retryOptions = append(j.retryOptions, options...)

		return nil
	}
}

func WithJournalLogger(logger eventstore.Logger) JournalOption {
	return func(j *Journal) error {
		j.logger = logger

		return nil
	}
}

func WithJournalContextualLogger(logger eventstore.ContextualLogger) JournalOption {
	return func(j *Journal) error {
		j.contextualLogger = logger

		return nil
	}
}

// WithJournalMetrics sets the collector for the journal's own metrics and for its retries.
func WithJournalMetrics(collector eventstore.MetricsCollector) JournalOption {
	return func(j *Journal) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		j.metricsCollector = collector
		j.retryOptions = append(j.retryOptions, WithMetrics(collector, operationAppend))

		return nil
	}
}

// NewJournal starts the background appender. Every event gets metadata correlated with runID.
// Close must be called to flush the buffer and stop the goroutine.
func NewJournal(appender eventstore.Appender, runID uuid.UUID, options ...JournalOption) (*Journal, error) {
	if appender == nil {
		return nil, ErrNilAppender
	}

	j := &Journal{
		appender:      appender,
		runID:         runID,
		bufferSize:    defaultBufferSize,
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}

	for _, option := range options {
		if err := option(j); err != nil {
			return nil, err
		}
	}

	j.events = make(chan core.DomainEvent, j.bufferSize)

	go j.run()

	return j, nil
}

// Record hands the event to the background appender without blocking.
func (j *Journal) Record(event core.DomainEvent) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		j.drop(event)
		return
	}

	select {
	case j.events <- event:
	default:
		j.drop(event)
	}
}

// Close stops accepting events, appends everything still buffered and waits for the background
// goroutine. It returns ctx.Err() if ctx ends first; the goroutine still finishes on its own.
func (j *Journal) Close(ctx context.Context) error {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.stop)
	}
	j.mu.Unlock()

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Journal) Appended() int64 {
	return j.appended.Load()
}

func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

func (j *Journal) Failed() int64 {
	return j.failed.Load()
}

func (j *Journal) run() {
	defer close(j.done)

	ctx := context.Background()
	ticker := time.NewTicker(j.flushInterval)
	defer ticker.Stop()

	batch := make([]core.DomainEvent, 0, j.batchSize)

	for {
		select {
		case event := <-j.events:
			batch = append(batch, event)
			if len(batch) >= j.batchSize {
				batch = j.flush(ctx, batch)
			}

		case <-ticker.C:
			batch = j.flush(ctx, batch)

		case <-j.stop:
			for {
				select {
				case event := <-j.events:
					batch = append(batch, event)
					if len(batch) >= j.batchSize {
						batch = j.flush(ctx, batch)
					}

				default:
					j.flush(ctx, batch)
					j.logInfo(ctx, logMsgJournalClosed,
						logAttrAppended, j.appended.Load(),
						logAttrDropped, j.dropped.Load(),
						logAttrFailed, j.failed.Load(),
					)

					return
				}
			}
		}
	}
}

// flush appends the batch and returns it emptied for reuse.
func (j *Journal) flush(ctx context.Context, batch []core.DomainEvent) []core.DomainEvent {
	if len(batch) == 0 {
		return batch
	}

	storableEvents := make(eventstore.StorableEvents, 0, len(batch))

	for _, event := range batch {
		storableEvent, err := StorableEventFrom(event, BuildRunEventMetadata(j.runID))
		if err != nil {
			j.failed.Add(1)
			j.count(ctx, JournalFailedMetric, event.EventType())
			j.logError(ctx, logMsgJournalMappingFailed, err, logAttrEventType, event.EventType())

			continue
		}

		storableEvents = append(storableEvents, storableEvent)
	}

	if len(storableEvents) == 0 {
		return batch[:0]
	}

	start := time.Now()
	retryMetrics, err := RetryWithExponentialBackoff(
		ctx,
		func(ctx context.Context) error {
			return j.appender.Append(ctx, storableEvents[0], storableEvents[1:]...)
		},
		j.retryOptions...,
	)
	j.recordDuration(ctx, time.Since(start))

	if err != nil {
		j.failed.Add(int64(len(storableEvents)))
		for _, e := range storableEvents {
			j.count(ctx, JournalFailedMetric, e.EventType)
		}

		j.logError(ctx, logMsgJournalAppendFailed, err,
			logAttrEventCount, len(storableEvents),
			logAttrAttempts, retryMetrics.Attempts,
		)

		return batch[:0]
	}

	j.appended.Add(int64(len(storableEvents)))
	for _, e := range storableEvents {
		j.count(ctx, JournalAppendedMetric, e.EventType)
	}

	return batch[:0]
}

func (j *Journal) drop(event core.DomainEvent) {
	// Only the first drop is logged.
	if j.dropped.Add(1) == 1 {
		j.logWarn(context.Background(), logMsgJournalDropped, logAttrEventType, event.EventType())
	}

	j.count(context.Background(), JournalDroppedMetric, event.EventType())
}

func (j *Journal) count(ctx context.Context, metric string, eventType string) {
	if j.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelEventType: eventType}

	if contextualCollector, ok := j.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	j.metricsCollector.IncrementCounter(metric, labels)
}

func (j *Journal) recordDuration(ctx context.Context, d time.Duration) {
	if j.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := j.metricsCollector.(eventstore.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, JournalAppendDurationMetric, d, nil)
		return
	}

	j.metricsCollector.RecordDuration(JournalAppendDurationMetric, d, nil)
}

func (j *Journal) logInfo(ctx context.Context, msg string, args ...any) {
	if j.logger != nil {
		j.logger.Info(msg, args...)
	}

	if j.contextualLogger != nil {
		j.contextualLogger.InfoContext(ctx, msg, args...)
	}
}

func (j *Journal) logWarn(ctx context.Context, msg string, args ...any) {
	if j.logger != nil {
		j.logger.Warn(msg, args...)
	}

	if j.contextualLogger != nil {
		j.contextualLogger.WarnContext(ctx, msg, args...)
	}
}

func (j *Journal) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{"error", err.Error()}, args...)

	if j.logger != nil {
		j.logger.Error(msg, allArgs...)
	}

	if j.contextualLogger != nil {
		j.contextualLogger.ErrorContext(ctx, msg, allArgs...)
	}
}
