package pgsql

import (
	portsrepo "github.com/SscSPs/org_books/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	journalRepo := newPgxJournalRepository(dbPool)
	transactionRepo := newPgxTransactionRepository(dbPool, accountRepo)

	return portsrepo.RepositoryProvider{
		AccountRepo:     accountRepo,
		JournalRepo:     journalRepo,
		TransactionRepo: transactionRepo,
	}
}
