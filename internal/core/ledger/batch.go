package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultBatchThreshold is the queue length past which a queue is flushed.
const DefaultBatchThreshold = 1000

// Sink persists journal data in bulk. InsertJournalEntries must assign an ID
// to every entry it is given.
type Sink interface {
	InsertJournalEntries(ctx context.Context, entries []*domain.JournalEntry) error
	InsertJournalEntryLineItems(ctx context.Context, lines []*domain.JournalEntryLineItem) error
}

// Recorder receives batching signals, typically for metrics.
type Recorder interface {
	EntriesFlushed(n int)
	LinesFlushed(n int)
	EntryUnbalanced()
}

type nopRecorder struct{}

func (nopRecorder) EntriesFlushed(int) {}
func (nopRecorder) LinesFlushed(int)   {}
func (nopRecorder) EntryUnbalanced()   {}

// BatchStats summarises what a BatchContext has done so far.
type BatchStats struct {
	EntriesBatched int
	EntriesFlushed int
	LinesFlushed   int
	EntryFlushes   int
	LineFlushes    int
	Unbalanced     int
}

// BatchContext accumulates journal entries and line items for one
// regeneration run and writes them in bulk.
//
// Entries are queued first. Line items wait on their entry until the entry
// is flushed and has an ID, then move to the line item queue. Each queue is
// flushed on its own once it grows past the threshold. Whatever is left
// must be written with Finalize; Close reports work that never was.
//
// A BatchContext is owned by a single run and is not safe for concurrent use.
type BatchContext struct {
	sink      Sink
	chart     *Chart
	logger    *slog.Logger
	recorder  Recorder
	threshold int
	urlBase   string

	pendingEntries []*domain.JournalEntry
	pendingLines   []*domain.JournalEntryLineItem
	unbalanced     []unbalancedEntry

	grandTotalDebits  decimal.Decimal
	grandTotalCredits decimal.Decimal

	stats  BatchStats
	closed bool
}

type unbalancedEntry struct {
	entry           *domain.JournalEntry
	debits, credits decimal.Decimal
}

// BatchOption configures a BatchContext.
type BatchOption func(*BatchContext)

// WithThreshold overrides DefaultBatchThreshold.
func WithThreshold(n int) BatchOption {
	return func(bc *BatchContext) {
		if n > 0 {
			bc.threshold = n
		}
	}
}

// WithLogger sets the logger used for batching diagnostics.
func WithLogger(logger *slog.Logger) BatchOption {
	return func(bc *BatchContext) {
		if logger != nil {
			bc.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) BatchOption {
	return func(bc *BatchContext) {
		if r != nil {
			bc.recorder = r
		}
	}
}

// WithSourceURLBase prefixes every source URL handed out by SourceURL.
func WithSourceURLBase(base string) BatchOption {
	return func(bc *BatchContext) {
		bc.urlBase = base
	}
}

// NewBatchContext creates a BatchContext writing to sink.
func NewBatchContext(sink Sink, chart *Chart, opts ...BatchOption) *BatchContext {
	if chart == nil {
		chart = NewChart()
	}
	bc := &BatchContext{
		sink:              sink,
		chart:             chart,
		logger:            slog.Default(),
		recorder:          nopRecorder{},
		threshold:         DefaultBatchThreshold,
		grandTotalDebits:  decimal.Zero,
		grandTotalCredits: decimal.Zero,
	}
	for _, opt := range opts {
		opt(bc)
	}
	return bc
}

// Chart returns the well-known accounts available to contributors.
func (bc *BatchContext) Chart() *Chart {
	return bc.chart
}

// SourceURL returns the source reference for a root's entries.
func (bc *BatchContext) SourceURL(j Journaler) string {
	return bc.urlBase + j.AbsoluteURL()
}

// Batch queues an assembled entry. Unbalanced entries are recorded for the
// audit report but are queued all the same.
func (bc *BatchContext) Batch(ctx context.Context, je *domain.JournalEntry) error {
	if bc.closed {
		return fmt.Errorf("%w: batch context is closed", apperrors.ErrConflict)
	}
	if len(je.PrebatchedLineItems()) == 0 {
		bc.logger.Warn("Journal entry has no line items", slog.String("source_url", je.SourceURL))
	}

	debits, credits := je.PendingDebitsAndCredits()
	bc.grandTotalDebits = bc.grandTotalDebits.Add(debits)
	bc.grandTotalCredits = bc.grandTotalCredits.Add(credits)
	if !debits.Equal(credits) {
		bc.unbalanced = append(bc.unbalanced, unbalancedEntry{entry: je, debits: debits, credits: credits})
		bc.stats.Unbalanced++
		bc.recorder.EntryUnbalanced()
		bc.logger.Debug("Unbalanced journal entry batched",
			slog.String("source_url", je.SourceURL),
			slog.String("debits", debits.StringFixed(2)),
			slog.String("credits", credits.StringFixed(2)))
	}

	bc.pendingEntries = append(bc.pendingEntries, je)
	bc.stats.EntriesBatched++
	if len(bc.pendingEntries) > bc.threshold {
		return bc.flushEntries(ctx, bc.threshold)
	}
	return nil
}

func (bc *BatchContext) batchLine(ctx context.Context, li *domain.JournalEntryLineItem) error {
	bc.pendingLines = append(bc.pendingLines, li)
	if len(bc.pendingLines) > bc.threshold {
		return bc.flushLines(ctx, bc.threshold)
	}
	return nil
}

// flushEntries writes the first n pending entries, then moves their line
// items, now carrying real entry IDs, to the line item queue.
func (bc *BatchContext) flushEntries(ctx context.Context, n int) error {
	if n > len(bc.pendingEntries) {
		n = len(bc.pendingEntries)
	}
	if n == 0 {
		return nil
	}
	batch := bc.pendingEntries[:n]
	if err := bc.sink.InsertJournalEntries(ctx, batch); err != nil {
		return fmt.Errorf("failed to flush %d journal entries: %w", n, err)
	}
	bc.pendingEntries = append([]*domain.JournalEntry(nil), bc.pendingEntries[n:]...)
	bc.stats.EntriesFlushed += n
	bc.stats.EntryFlushes++
	bc.recorder.EntriesFlushed(n)
	bc.logger.Debug("Flushed journal entries", slog.Int("count", n), slog.Int("still_pending", len(bc.pendingEntries)))

	for _, je := range batch {
		if je.ID == 0 {
			return fmt.Errorf("%w: journal entry for %s was not assigned an id", apperrors.ErrInternal, je.SourceURL)
		}
		for _, li := range je.ProcessPrebatch() {
			if err := bc.batchLine(ctx, li); err != nil {
				return err
			}
		}
	}
	return nil
}

func (bc *BatchContext) flushLines(ctx context.Context, n int) error {
	if n > len(bc.pendingLines) {
		n = len(bc.pendingLines)
	}
	if n == 0 {
		return nil
	}
	if err := bc.sink.InsertJournalEntryLineItems(ctx, bc.pendingLines[:n]); err != nil {
		return fmt.Errorf("failed to flush %d journal entry line items: %w", n, err)
	}
	bc.pendingLines = append([]*domain.JournalEntryLineItem(nil), bc.pendingLines[n:]...)
	bc.stats.LinesFlushed += n
	bc.stats.LineFlushes++
	bc.recorder.LinesFlushed(n)
	bc.logger.Debug("Flushed journal entry line items", slog.Int("count", n), slog.Int("still_pending", len(bc.pendingLines)))
	return nil
}

// Finalize writes every pending entry and line item.
func (bc *BatchContext) Finalize(ctx context.Context) error {
	for len(bc.pendingEntries) > 0 {
		if err := bc.flushEntries(ctx, bc.threshold); err != nil {
			return err
		}
	}
	for len(bc.pendingLines) > 0 {
		if err := bc.flushLines(ctx, bc.threshold); err != nil {
			return err
		}
	}
	return nil
}

// Close ends the run. It fails with ErrUnflushedBatch when Finalize was not
// called for work that is still queued; that work is dropped.
func (bc *BatchContext) Close() error {
	if bc.closed {
		return nil
	}
	bc.closed = true
	entries, lines := bc.Pending()
	if entries == 0 && lines == 0 {
		return nil
	}
	bc.logger.Warn("Batch closed with unflushed work",
		slog.Int("pending_entries", entries),
		slog.Int("pending_line_items", lines))
	return fmt.Errorf("%w: %d entries and %d line items were never written", apperrors.ErrUnflushedBatch, entries, lines)
}

// Pending returns the number of queued entries and line items. Line items
// still waiting on an unflushed entry are not counted.
func (bc *BatchContext) Pending() (entries, lines int) {
	return len(bc.pendingEntries), len(bc.pendingLines)
}

// Unbalanced returns the totals of every entry batched so far whose debits
// and credits differ. EntryID stays 0 for entries not yet flushed.
func (bc *BatchContext) Unbalanced() []domain.EntryBalance {
	out := make([]domain.EntryBalance, 0, len(bc.unbalanced))
	for _, u := range bc.unbalanced {
		out = append(out, domain.EntryBalance{
			EntryID:   u.entry.ID,
			SourceURL: u.entry.SourceURL,
			When:      u.entry.When,
			Debits:    u.debits,
			Credits:   u.credits,
		})
	}
	return out
}

// GrandTotals returns the debits and credits of everything batched so far.
func (bc *BatchContext) GrandTotals() (debits, credits decimal.Decimal) {
	return bc.grandTotalDebits, bc.grandTotalCredits
}

// Stats returns a snapshot of the run's counters.
func (bc *BatchContext) Stats() BatchStats {
	return bc.stats
}
