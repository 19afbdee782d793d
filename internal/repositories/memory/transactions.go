package memory

import (
	"context"

	"github.com/SscSPs/org_books/internal/core/books"
	portsrepo "github.com/SscSPs/org_books/internal/core/ports/repositories"
)

// Transactions is a fixed set of transaction roots.
type Transactions struct {
	Sales               []*books.Sale
	ReceivableInvoices  []*books.ReceivableInvoice
	PayableInvoices     []*books.PayableInvoice
	ExpenseClaims       []*books.ExpenseClaim
	ExpenseTransactions []*books.ExpenseTransaction
	DonationRewards     []*books.MonetaryDonationReward
	Campaigns           []*books.Campaign
}

var _ portsrepo.TransactionSource = (*Transactions)(nil)

func (t *Transactions) ListSales(context.Context) ([]*books.Sale, error) {
	return t.Sales, nil
}

func (t *Transactions) ListReceivableInvoices(context.Context) ([]*books.ReceivableInvoice, error) {
	return t.ReceivableInvoices, nil
}

func (t *Transactions) ListPayableInvoices(context.Context) ([]*books.PayableInvoice, error) {
	return t.PayableInvoices, nil
}

func (t *Transactions) ListExpenseClaims(context.Context) ([]*books.ExpenseClaim, error) {
	return t.ExpenseClaims, nil
}

func (t *Transactions) ListExpenseTransactions(context.Context) ([]*books.ExpenseTransaction, error) {
	return t.ExpenseTransactions, nil
}

func (t *Transactions) ListDonationRewards(context.Context) ([]*books.MonetaryDonationReward, error) {
	return t.DonationRewards, nil
}

func (t *Transactions) ListCampaigns(context.Context) ([]*books.Campaign, error) {
	return t.Campaigns, nil
}
