// Package metrics exposes journal generation health as prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/ledger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	QueueEntries   = "entries"
	QueueLineItems = "line_items"
)

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeConflict = "conflict"
	OutcomeDryRun   = "dry_run"
)

// Low-cardinality reasons a transaction root could not be journaled.
const (
	ReasonValidation     = "validation"
	ReasonAccountMissing = "account_missing"
	ReasonChecksum       = "checksum"
	ReasonDB             = "db"
	ReasonCanceled       = "canceled"
	ReasonUnknown        = "unknown"
)

// JournalMetrics records batching and regeneration signals.
type JournalMetrics struct {
	entriesFlushed prometheus.Counter
	linesFlushed   prometheus.Counter
	flushes        *prometheus.CounterVec
	unbalanced     prometheus.Counter
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	rootFailures   *prometheus.CounterVec
	rootsJournaled *prometheus.CounterVec
}

var _ ledger.Recorder = (*JournalMetrics)(nil)

var (
	journalMetricsOnce sync.Once
	journalMetrics     *JournalMetrics
)

// Journal returns the process-wide metrics registered with the default registerer.
func Journal() *JournalMetrics {
	journalMetricsOnce.Do(func() {
		journalMetrics = NewJournalMetrics(prometheus.DefaultRegisterer)
	})
	return journalMetrics
}

// NewJournalMetrics creates the metrics and registers them with registerer.
func NewJournalMetrics(registerer prometheus.Registerer) *JournalMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &JournalMetrics{
		entriesFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "books_journal_entries_flushed_total",
			Help: "Journal entries written by batch flushes.",
		}),
		linesFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "books_journal_line_items_flushed_total",
			Help: "Journal entry line items written by batch flushes.",
		}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "books_journal_flushes_total",
			Help: "Batch flushes by queue.",
		}, []string{"queue"}),
		unbalanced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "books_journal_unbalanced_entries_total",
			Help: "Journal entries batched with debits different from credits.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "books_regeneration_runs_total",
			Help: "Journal regeneration runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "books_regeneration_duration_seconds",
			Help:    "Wall time of journal regeneration runs.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
		rootFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "books_regeneration_root_failures_total",
			Help: "Transactions that could not be journaled, by kind and reason.",
		}, []string{"kind", "reason"}),
		rootsJournaled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "books_regeneration_roots_total",
			Help: "Transactions journaled, by kind.",
		}, []string{"kind"}),
	}
	registerer.MustRegister(
		m.entriesFlushed, m.linesFlushed, m.flushes, m.unbalanced,
		m.runs, m.runDuration, m.rootFailures, m.rootsJournaled,
	)
	return m
}

func (m *JournalMetrics) EntriesFlushed(n int) {
	m.entriesFlushed.Add(float64(n))
	m.flushes.WithLabelValues(QueueEntries).Inc()
}

func (m *JournalMetrics) LinesFlushed(n int) {
	m.linesFlushed.Add(float64(n))
	m.flushes.WithLabelValues(QueueLineItems).Inc()
}

func (m *JournalMetrics) EntryUnbalanced() {
	m.unbalanced.Inc()
}

// RunFinished records a regeneration run's outcome and duration.
func (m *JournalMetrics) RunFinished(outcome string, elapsed time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// RootJournaled counts a transaction journaled without error.
func (m *JournalMetrics) RootJournaled(kind string) {
	m.rootsJournaled.WithLabelValues(kind).Inc()
}

// RootFailed counts a transaction that could not be journaled.
func (m *JournalMetrics) RootFailed(kind string, err error) {
	m.rootFailures.WithLabelValues(kind, ClassifyReason(err)).Inc()
}

// ClassifyReason maps an error to a low-cardinality reason label.
func ClassifyReason(err error) string {
	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return ReasonUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	case errors.Is(err, apperrors.ErrAccountMissing):
		return ReasonAccountMissing
	case errors.Is(err, apperrors.ErrChecksum):
		return ReasonChecksum
	case errors.Is(err, apperrors.ErrValidation):
		return ReasonValidation
	case errors.As(err, &pgErr):
		return ReasonDB
	}
	return ReasonUnknown
}
