package services

import (
	"context"
	"io"

	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	"github.com/SscSPs/org_books/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// ListAccounts retrieves the chart of accounts.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// LoadChart looks up the well-known accounts used by journal generation.
	// Missing accounts are logged, not returned as errors.
	LoadChart(ctx context.Context) *ledger.Chart
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// SeedAccounts creates the accounts described by a YAML document, skipping
	// names that already exist.
	SeedAccounts(ctx context.Context, r io.Reader) (*dto.SeedAccountsResponse, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
