package dto

import (
	"github.com/SscSPs/org_books/internal/core/domain"
)

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID   int64                  `json:"accountID"`
	Name        string                 `json:"name"`
	Category    domain.AccountCategory `json:"category"`
	Type        domain.BalanceType     `json:"type"`
	Description string                 `json:"description"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:   acc.ID,
		Name:        acc.Name,
		Category:    acc.Category,
		Type:        acc.Type,
		Description: acc.Description,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return res
}

// SeedAccountsResponse reports the outcome of seeding the chart of accounts.
type SeedAccountsResponse struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

// ListAccountsResponse wraps the chart of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
