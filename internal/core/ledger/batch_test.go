package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink assigns sequential IDs and remembers every insert.
type recordingSink struct {
	nextID       int64
	entryBatches []int
	lineBatches  []int
	lines        []*domain.JournalEntryLineItem
	failEntries  error
}

func (s *recordingSink) InsertJournalEntries(_ context.Context, entries []*domain.JournalEntry) error {
	if s.failEntries != nil {
		return s.failEntries
	}
	for _, je := range entries {
		s.nextID++
		je.ID = s.nextID
	}
	s.entryBatches = append(s.entryBatches, len(entries))
	return nil
}

func (s *recordingSink) InsertJournalEntryLineItems(_ context.Context, lines []*domain.JournalEntryLineItem) error {
	s.lineBatches = append(s.lineBatches, len(lines))
	s.lines = append(s.lines, lines...)
	return nil
}

type countingRecorder struct {
	entries, lines, unbalanced int
}

func (r *countingRecorder) EntriesFlushed(n int) { r.entries += n }
func (r *countingRecorder) LinesFlushed(n int)   { r.lines += n }
func (r *countingRecorder) EntryUnbalanced()     { r.unbalanced++ }

var (
	cash      = &domain.Account{ID: 1, Name: domain.AcctAssetCash, Category: domain.Asset, Type: domain.Debit}
	donations = &domain.Account{ID: 2, Name: domain.AcctRevenueDonation, Category: domain.Revenue, Type: domain.Credit}
	day       = time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)
)

func balancedEntry(t *testing.T, amount int64) *domain.JournalEntry {
	t.Helper()
	je := domain.NewJournalEntry(day, "/admin/books/sale/1/change/")
	require.NoError(t, ledger.PrebatchLine(je, cash, domain.Increase, decimal.NewFromInt(amount)))
	require.NoError(t, ledger.PrebatchLine(je, donations, domain.Increase, decimal.NewFromInt(amount)))
	return je
}

func TestBatch_FlushesExactlyThresholdEntries(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	bc := ledger.NewBatchContext(sink, nil)

	for i := 0; i < 1001; i++ {
		je := domain.NewJournalEntry(day, "/admin/books/sale/1/change/")
		require.NoError(t, bc.Batch(ctx, je))
	}

	assert.Equal(t, []int{1000}, sink.entryBatches)
	entries, _ := bc.Pending()
	assert.Equal(t, 1, entries)
	assert.Equal(t, 1, bc.Stats().EntryFlushes)
}

func TestBatch_LineQueueFlushesOnItsOwn(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	bc := ledger.NewBatchContext(sink, nil, ledger.WithThreshold(3))

	// Four two-line entries: the fourth pushes the entry queue past 3, which
	// moves six lines into the line queue and trips a line flush of 3.
	for i := 0; i < 4; i++ {
		require.NoError(t, bc.Batch(ctx, balancedEntry(t, 10)))
	}

	assert.Equal(t, []int{3}, sink.entryBatches)
	assert.Equal(t, []int{3}, sink.lineBatches)
	entries, lines := bc.Pending()
	assert.Equal(t, 1, entries)
	assert.Equal(t, 3, lines)

	require.NoError(t, bc.Finalize(ctx))
	entries, lines = bc.Pending()
	assert.Zero(t, entries)
	assert.Zero(t, lines)
	assert.Len(t, sink.lines, 8)
	for _, li := range sink.lines {
		assert.NotZero(t, li.JournalEntryID, "every line carries its entry id")
	}
	assert.NoError(t, bc.Close())
}

func TestBatch_UnbalancedIsRecordedNotRaised(t *testing.T) {
	ctx := context.Background()
	rec := &countingRecorder{}
	bc := ledger.NewBatchContext(&recordingSink{}, nil, ledger.WithRecorder(rec))

	je := domain.NewJournalEntry(day, "/admin/books/sale/7/change/")
	require.NoError(t, ledger.PrebatchLine(je, cash, domain.Increase, decimal.NewFromInt(100)))
	require.NoError(t, ledger.PrebatchLine(je, donations, domain.Increase, decimal.NewFromInt(95)))

	require.NoError(t, bc.Batch(ctx, je))
	require.NoError(t, bc.Batch(ctx, balancedEntry(t, 5)))
	require.NoError(t, bc.Finalize(ctx))

	unbalanced := bc.Unbalanced()
	require.Len(t, unbalanced, 1)
	assert.Equal(t, je.ID, unbalanced[0].EntryID)
	assert.Equal(t, "/admin/books/sale/7/change/", unbalanced[0].SourceURL)
	assert.True(t, unbalanced[0].Debits.Equal(decimal.NewFromInt(100)))
	assert.True(t, unbalanced[0].Credits.Equal(decimal.NewFromInt(95)))
	assert.Equal(t, 1, rec.unbalanced)
	assert.Equal(t, 2, rec.entries)
	assert.Equal(t, 4, rec.lines)

	debits, credits := bc.GrandTotals()
	assert.True(t, debits.Equal(decimal.NewFromInt(105)))
	assert.True(t, credits.Equal(decimal.NewFromInt(100)))
}

func TestClose_WithoutFinalizeReportsUnflushedWork(t *testing.T) {
	ctx := context.Background()
	bc := ledger.NewBatchContext(&recordingSink{}, nil)
	require.NoError(t, bc.Batch(ctx, balancedEntry(t, 1)))

	err := bc.Close()
	assert.ErrorIs(t, err, apperrors.ErrUnflushedBatch)
	assert.Contains(t, err.Error(), "1 entries")

	assert.NoError(t, bc.Close(), "close is idempotent")
	assert.ErrorIs(t, bc.Batch(ctx, balancedEntry(t, 1)), apperrors.ErrConflict)
}

func TestFlush_SinkFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	bc := ledger.NewBatchContext(&recordingSink{failEntries: boom}, nil, ledger.WithThreshold(1))

	require.NoError(t, bc.Batch(ctx, balancedEntry(t, 1)))
	err := bc.Batch(ctx, balancedEntry(t, 1))
	assert.ErrorIs(t, err, boom)
}

type lazySink struct{ recordingSink }

func (s *lazySink) InsertJournalEntries(context.Context, []*domain.JournalEntry) error { return nil }

func TestFlush_EntryWithoutIDIsInternalError(t *testing.T) {
	ctx := context.Background()
	bc := ledger.NewBatchContext(&lazySink{}, nil)
	require.NoError(t, bc.Batch(ctx, balancedEntry(t, 1)))

	assert.ErrorIs(t, bc.Finalize(ctx), apperrors.ErrInternal)
}

func TestSourceURL_UsesBase(t *testing.T) {
	bc := ledger.NewBatchContext(&recordingSink{}, nil, ledger.WithSourceURLBase("https://books.example.org"))
	assert.Equal(t, "https://books.example.org/admin/books/sale/12/change/", bc.SourceURL(fakeRoot{id: 12}))
}
