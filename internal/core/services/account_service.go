package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	portsrepo "github.com/SscSPs/org_books/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/org_books/internal/core/ports/services"
	"github.com/SscSPs/org_books/internal/dto"
	"gopkg.in/yaml.v3"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates a new account service.
func NewAccountService(repo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: repo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// ListAccounts retrieves the chart of accounts.
func (s *accountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts from repository")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	s.LogDebug(ctx, "Accounts listed successfully from service", slog.Int("count", len(accounts)))
	return accounts, nil
}

func (s *accountService) LoadChart(ctx context.Context) *ledger.Chart {
	return ledger.LoadChart(ctx, s.accountRepo, s.GetLogger(ctx))
}

// seedFile is the layout of the chart of accounts seed document.
type seedFile struct {
	Accounts []seedAccount `yaml:"accounts"`
}

type seedAccount struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// SeedAccounts creates every account in the document that does not exist yet.
// The document is validated as a whole before anything is written.
func (s *accountService) SeedAccounts(ctx context.Context, r io.Reader) (*dto.SeedAccountsResponse, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: reading accounts seed: %v", apperrors.ErrValidation, err)
	}

	accounts := make([]domain.Account, 0, len(doc.Accounts))
	seen := make(map[string]struct{}, len(doc.Accounts))
	for i, sa := range doc.Accounts {
		acct := domain.Account{
			Name:        sa.Name,
			Category:    domain.AccountCategory(sa.Category),
			Type:        domain.BalanceType(sa.Type),
			Description: sa.Description,
		}
		if err := acct.Validate(); err != nil {
			return nil, fmt.Errorf("accounts[%d]: %w", i, err)
		}
		if _, dup := seen[acct.Name]; dup {
			return nil, fmt.Errorf("%w: account %q listed twice", apperrors.ErrDuplicate, acct.Name)
		}
		seen[acct.Name] = struct{}{}
		accounts = append(accounts, acct)
	}

	resp := &dto.SeedAccountsResponse{Created: []string{}, Skipped: []string{}}
	for i := range accounts {
		acct := &accounts[i]
		_, err := s.accountRepo.FindAccountByName(ctx, acct.Name)
		switch {
		case err == nil:
			resp.Skipped = append(resp.Skipped, acct.Name)
			continue
		case !errors.Is(err, apperrors.ErrNotFound):
			s.LogError(ctx, err, "Failed to look up account", slog.String("account", acct.Name))
			return nil, err
		}
		if err := s.accountRepo.SaveAccount(ctx, acct); err != nil {
			s.LogError(ctx, err, "Failed to save account", slog.String("account", acct.Name))
			return nil, err
		}
		resp.Created = append(resp.Created, acct.Name)
	}

	s.LogInfo(ctx, "Chart of accounts seeded",
		slog.Int("created", len(resp.Created)),
		slog.Int("skipped", len(resp.Skipped)))
	return resp, nil
}
