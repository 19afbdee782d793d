package repositories

import (
	"context"

	"github.com/SscSPs/org_books/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its identifier.
	FindAccountByID(ctx context.Context, accountID int64) (*domain.Account, error)

	// FindAccountByName retrieves an account by its exact name.
	FindAccountByName(ctx context.Context, name string) (*domain.Account, error)

	// ListAccounts retrieves every account, ordered by name.
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account and sets its ID.
	SaveAccount(ctx context.Context, account *domain.Account) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
