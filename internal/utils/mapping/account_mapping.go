package mapping

import (
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		ID:          d.ID,
		Name:        d.Name,
		Category:    string(d.Category),
		Type:        string(d.Type),
		ManagerID:   d.ManagerID,
		Description: d.Description,
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		ID:          m.ID,
		Name:        m.Name,
		Category:    domain.AccountCategory(m.Category),
		Type:        domain.BalanceType(m.Type),
		ManagerID:   m.ManagerID,
		Description: m.Description,
	}
}
