package books_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	"github.com/SscSPs/org_books/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	payable    = &domain.Account{ID: 1, Name: domain.AcctLiabilityPayable, Category: domain.Liability, Type: domain.Credit}
	receivable = &domain.Account{ID: 2, Name: domain.AcctAssetReceivable, Category: domain.Asset, Type: domain.Debit}
	cash       = &domain.Account{ID: 3, Name: domain.AcctAssetCash, Category: domain.Asset, Type: domain.Debit}
	business   = &domain.Account{ID: 4, Name: domain.AcctExpenseBusiness, Category: domain.Expense, Type: domain.Debit}
	donations  = &domain.Account{ID: 5, Name: domain.AcctRevenueDonation, Category: domain.Revenue, Type: domain.Credit}
	sodas      = &domain.Account{ID: 6, Name: "Revenue, Sodas", Category: domain.Revenue, Type: domain.Credit}
	supplies   = &domain.Account{ID: 7, Name: "Expense, Supplies", Category: domain.Expense, Type: domain.Debit}
	tools      = &domain.Account{ID: 8, Name: "Tools", Category: domain.Asset, Type: domain.Debit}
)

func allAccounts() []*domain.Account {
	return []*domain.Account{payable, receivable, cash, business, donations, sodas, supplies, tools}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func int64Ptr(v int64) *int64 { return &v }

type harness struct {
	store *memory.Store
	bc    *ledger.BatchContext
}

// newHarness wires a batch context to an in-memory store holding accts.
func newHarness(t *testing.T, accts ...*domain.Account) *harness {
	t.Helper()
	rows := make([]domain.Account, len(accts))
	for i, a := range accts {
		rows[i] = *a
	}
	store := memory.NewStore(rows...)
	bc := ledger.NewBatchContext(store, ledger.NewChart(accts...))
	t.Cleanup(func() { _ = bc.Close() })
	return &harness{store: store, bc: bc}
}

// journal runs every root through the batch and flushes it.
func (h *harness) journal(t *testing.T, roots ...ledger.Journaler) []domain.JournalEntry {
	t.Helper()
	ctx := context.Background()
	for _, root := range roots {
		require.NoError(t, root.CreateJournalEntry(ctx, h.bc))
	}
	require.NoError(t, h.bc.Finalize(ctx))
	entries, err := h.store.ListEntriesWithLines(ctx)
	require.NoError(t, err)
	return entries
}

type lineSummary struct {
	Account string
	Action  domain.Action
	Amount  string
}

func summarize(je domain.JournalEntry) []lineSummary {
	out := make([]lineSummary, len(je.LineItems))
	for i, li := range je.LineItems {
		out[i] = lineSummary{Account: li.Account.Name, Action: li.Action, Amount: li.Amount.StringFixed(2)}
	}
	return out
}
