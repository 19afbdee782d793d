package domain

import (
	"fmt"
	"slices"

	"github.com/SscSPs/org_books/internal/apperrors"
)

// AccountCategory defines the fundamental accounting category of an account.
type AccountCategory string

const (
	Asset     AccountCategory = "A"
	Liability AccountCategory = "L"
	Equity    AccountCategory = "Q"
	Revenue   AccountCategory = "R"
	Expense   AccountCategory = "X"
)

// BalanceType is the side on which an account's balance normally sits.
type BalanceType string

const (
	Credit BalanceType = "C"
	Debit  BalanceType = "D"
)

// Names of the accounts that journal generation looks up at startup.
const (
	AcctLiabilityPayable              = "Accounts Payable"
	AcctLiabilityUnearnedMshipRevenue = "Unearned Membership Revenue"
	AcctAssetReceivable               = "Accounts Receivable"
	AcctAssetCash                     = "Cash"
	AcctExpenseBusiness               = "Expense, Business"
	AcctRevenueDonation               = "Revenue, Cash Donations"
	AcctRevenueMembership             = "Revenue, Membership"
)

// WellKnownAccountNames lists the bootstrap chart in lookup order.
var WellKnownAccountNames = []string{
	AcctLiabilityPayable,
	AcctLiabilityUnearnedMshipRevenue,
	AcctAssetReceivable,
	AcctAssetCash,
	AcctExpenseBusiness,
	AcctRevenueDonation,
	AcctRevenueMembership,
}

// Account is an entry in the chart of accounts.
// Accounts are referenced, never mutated, by transactions and line items.
type Account struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name" validate:"required,max=40"`
	Category    AccountCategory `json:"category" validate:"required,oneof=A L Q R X"`
	Type        BalanceType     `json:"type" validate:"required,oneof=C D"`
	ManagerID   *int64          `json:"managerID,omitempty"`
	Description string          `json:"description" validate:"max=1024"`
}

// IsCategory reports whether the account belongs to any of the given categories.
func (a *Account) IsCategory(cats ...AccountCategory) bool {
	return slices.Contains(cats, a.Category)
}

// IsCredit reports whether the account is a credit-balance account.
func (a *Account) IsCredit() bool { return a.Type == Credit }

// IsDebit reports whether the account is a debit-balance account.
func (a *Account) IsDebit() bool { return a.Type == Debit }

// Validate checks the account's own fields.
func (a *Account) Validate() error {
	if err := Validator().Struct(a); err != nil {
		return fmt.Errorf("%w: account %q: %s", apperrors.ErrValidation, a.Name, err.Error())
	}
	return nil
}

func (a *Account) String() string {
	return a.Name
}
