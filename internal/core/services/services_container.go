package services

import (
	portsrepo "github.com/SscSPs/org_books/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/org_books/internal/core/ports/services"
	"github.com/SscSPs/org_books/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo)
	container.Journal = NewJournalService(
		repos.JournalRepo,
		repos.TransactionRepo,
		container.Account,
		WithBatchThreshold(cfg.BatchThreshold),
		WithSourceURLBase(cfg.SourceURLBase),
	)

	return container
}
