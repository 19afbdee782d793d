package repositories

import (
	"context"

	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
)

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindEntryByID retrieves an entry and its line items.
	FindEntryByID(ctx context.Context, entryID int64) (*domain.JournalEntry, error)

	// ListEntries retrieves a page of entries, newest first, without line items.
	// It returns the entries and a token for the next page.
	ListEntries(ctx context.Context, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// ListEntriesWithLines retrieves every entry with its line items.
	ListEntriesWithLines(ctx context.Context) ([]domain.JournalEntry, error)

	// FindUnbalancedEntries returns the totals of every persisted entry whose
	// debits and credits differ.
	FindUnbalancedEntries(ctx context.Context) ([]domain.EntryBalance, error)

	// FrozenSourceURLs returns the source URLs that have at least one frozen entry.
	FrozenSourceURLs(ctx context.Context) (map[string]struct{}, error)
}

// JournalWriter defines write operations for journal data
type JournalWriter interface {
	ledger.Sink

	// DeleteUnfrozenEntries removes every entry not marked frozen, with its
	// line items, and returns how many entries went.
	DeleteUnfrozenEntries(ctx context.Context) (int64, error)
}

// RegenerationLocker serialises regeneration runs.
type RegenerationLocker interface {
	// TryLockRegeneration takes the regeneration lock without waiting. It
	// fails with apperrors.ErrConflict when another run holds it. The
	// returned function releases the lock.
	TryLockRegeneration(ctx context.Context) (unlock func(context.Context) error, err error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	RegenerationLocker
}
