package repositories

import (
	"context"

	"github.com/SscSPs/org_books/internal/core/books"
)

// TransactionSource loads transaction roots with their contributors attached,
// ordered by ID.
type TransactionSource interface {
	ListSales(ctx context.Context) ([]*books.Sale, error)
	ListReceivableInvoices(ctx context.Context) ([]*books.ReceivableInvoice, error)
	ListPayableInvoices(ctx context.Context) ([]*books.PayableInvoice, error)
	ListExpenseClaims(ctx context.Context) ([]*books.ExpenseClaim, error)
	ListExpenseTransactions(ctx context.Context) ([]*books.ExpenseTransaction, error)
	ReferenceDataSource
}

// ReferenceDataSource loads records that are checked but never journaled.
type ReferenceDataSource interface {
	ListDonationRewards(ctx context.Context) ([]*books.MonetaryDonationReward, error)
	ListCampaigns(ctx context.Context) ([]*books.Campaign, error)
}
