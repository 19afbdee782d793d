package services

import (
	"context"

	"github.com/SscSPs/org_books/internal/core/books"
	"github.com/SscSPs/org_books/internal/core/ledger"
	portsrepo "github.com/SscSPs/org_books/internal/core/ports/repositories"
)

// NewTransactionRegistry registers every transaction kind that is journaled,
// in the order regeneration sweeps them.
func NewTransactionRegistry(src portsrepo.TransactionSource) *ledger.Registry {
	r := ledger.NewRegistry()
	r.MustRegister(books.KindSale, loader(src.ListSales))
	r.MustRegister(books.KindReceivableInvoice, loader(src.ListReceivableInvoices))
	r.MustRegister(books.KindPayableInvoice, loader(src.ListPayableInvoices))
	r.MustRegister(books.KindExpenseClaim, loader(src.ListExpenseClaims))
	r.MustRegister(books.KindExpenseTransaction, loader(src.ListExpenseTransactions))
	return r
}

func loader[T ledger.Journaler](list func(context.Context) ([]T, error)) ledger.Loader {
	return func(ctx context.Context) ([]ledger.Journaler, error) {
		items, err := list(ctx)
		if err != nil {
			return nil, err
		}
		roots := make([]ledger.Journaler, len(items))
		for i, item := range items {
			roots[i] = item
		}
		return roots, nil
	}
}
