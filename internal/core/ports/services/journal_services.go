package services

import (
	"context"

	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/dto"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetEntryByID retrieves an entry with its line items.
	GetEntryByID(ctx context.Context, entryID int64) (*domain.JournalEntry, error)

	// ListEntries retrieves a page of entries.
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// JournalRegeneratorSvc rebuilds the journal from the transactions.
type JournalRegeneratorSvc interface {
	// Regenerate deletes every unfrozen entry and builds the journal again
	// from all registered transaction kinds. Only one run may be active.
	Regenerate(ctx context.Context, req dto.RegenerateRequest) (*dto.RegenerationReport, error)
}

// JournalAuditSvc defines the data-quality reports.
type JournalAuditSvc interface {
	// UnbalancedEntries returns the unbalanced entries seen by the last
	// regeneration run in this process, and that run's ID.
	UnbalancedEntries(ctx context.Context) ([]domain.EntryBalance, string, error)

	// FindUnbalancedEntries computes unbalanced entries from stored line items.
	FindUnbalancedEntries(ctx context.Context) ([]domain.EntryBalance, error)

	// DBCheck checks every stored entry's balance and every transaction's
	// internal consistency.
	DBCheck(ctx context.Context) (*dto.DBCheckReport, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalRegeneratorSvc
	JournalAuditSvc
}
