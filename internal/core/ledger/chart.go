package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/domain"
)

// AccountFinder looks accounts up by their human-readable name.
type AccountFinder interface {
	FindAccountByName(ctx context.Context, name string) (*domain.Account, error)
}

// Chart holds the well-known accounts used by journal generation.
type Chart struct {
	accounts map[string]*domain.Account
	missing  []string
}

// NewChart builds a chart from already-loaded accounts.
func NewChart(accounts ...*domain.Account) *Chart {
	c := &Chart{accounts: make(map[string]*domain.Account, len(accounts))}
	for _, acct := range accounts {
		c.accounts[acct.Name] = acct
	}
	return c
}

// LoadChart looks up every well-known account. A lookup failure is logged
// and otherwise ignored; whatever later needs the account fails on Require.
func LoadChart(ctx context.Context, finder AccountFinder, logger *slog.Logger) *Chart {
	if logger == nil {
		logger = slog.Default()
	}
	c := NewChart()
	for _, name := range domain.WellKnownAccountNames {
		acct, err := finder.FindAccountByName(ctx, name)
		if err != nil {
			logger.Error("Couldn't find account", slog.String("account", name), slog.String("error", err.Error()))
			c.missing = append(c.missing, name)
			continue
		}
		c.accounts[name] = acct
	}
	return c
}

// Lookup returns the named account if it was found.
func (c *Chart) Lookup(name string) (*domain.Account, bool) {
	acct, ok := c.accounts[name]
	return acct, ok
}

// Require returns the named account or ErrAccountMissing.
func (c *Chart) Require(name string) (*domain.Account, error) {
	acct, ok := c.accounts[name]
	if !ok || acct == nil {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrAccountMissing, name)
	}
	return acct, nil
}

// Missing lists the well-known accounts LoadChart could not find.
func (c *Chart) Missing() []string {
	return c.missing
}
