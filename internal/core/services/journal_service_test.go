package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/books"
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	portssvc "github.com/SscSPs/org_books/internal/core/ports/services"
	"github.com/SscSPs/org_books/internal/core/services"
	"github.com/SscSPs/org_books/internal/dto"
	"github.com/SscSPs/org_books/internal/metrics"
	"github.com/SscSPs/org_books/internal/repositories/memory"
)

var chartOfAccounts = []domain.Account{
	{ID: 1, Name: domain.AcctLiabilityPayable, Category: domain.Liability, Type: domain.Credit},
	{ID: 2, Name: domain.AcctLiabilityUnearnedMshipRevenue, Category: domain.Liability, Type: domain.Credit},
	{ID: 3, Name: domain.AcctAssetReceivable, Category: domain.Asset, Type: domain.Debit},
	{ID: 4, Name: domain.AcctAssetCash, Category: domain.Asset, Type: domain.Debit},
	{ID: 5, Name: domain.AcctExpenseBusiness, Category: domain.Expense, Type: domain.Debit},
	{ID: 6, Name: domain.AcctRevenueDonation, Category: domain.Revenue, Type: domain.Credit},
	{ID: 7, Name: domain.AcctRevenueMembership, Category: domain.Revenue, Type: domain.Credit},
	{ID: 8, Name: "Revenue, Sodas", Category: domain.Revenue, Type: domain.Credit},
	{ID: 9, Name: "Expense, Supplies", Category: domain.Expense, Type: domain.Debit},
}

func acct(id int64) *domain.Account {
	a := chartOfAccounts[id-1]
	return &a
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(d int) time.Time { return time.Date(2019, 4, d, 0, 0, 0, 0, time.UTC) }

func idPtr(v int64) *int64 { return &v }

// sampleTransactions yields 7 entries and 15 line items, all balanced.
func sampleTransactions() *memory.Transactions {
	soda := &books.OtherItemType{ID: 1, Name: "Soda", RevenueAccount: acct(8)}
	recv := &books.ReceivableInvoice{LineItems: []*books.ReceivableInvoiceLineItem{{}}}
	recv.ID, recv.UserID, recv.InvoiceDate, recv.Amount = 1, idPtr(10), day(3), money("50.00")
	recv.LineItems[0].ID, recv.LineItems[0].Account, recv.LineItems[0].Amount = 1, acct(8), money("50.00")
	pay := &books.PayableInvoice{LineItems: []*books.PayableInvoiceLineItem{{}}}
	pay.ID, pay.EntityID, pay.InvoiceDate, pay.Amount = 1, idPtr(20), day(4), money("30.00")
	pay.LineItems[0].ID, pay.LineItems[0].Account, pay.LineItems[0].Amount = 1, acct(9), money("30.00")
	paid := day(9)

	return &memory.Transactions{
		Sales: []*books.Sale{
			{
				ID: 1, SaleDate: day(1), PaymentMethod: books.PaidBySquare, FeePayer: books.FeePaidByUs,
				TotalPaidByCustomer: money("100.00"), ProcessingFee: money("5.00"),
				MonetaryDonations: []*books.MonetaryDonation{{ID: 1, SaleID: 1, Amount: money("100.00")}},
			},
			{
				ID: 2, SaleDate: day(2), PaymentMethod: books.PaidByCash, FeePayer: books.FeePaidByNobody,
				TotalPaidByCustomer: money("20.00"),
				OtherItems:          []*books.OtherItem{{ID: 1, SaleID: 2, Type: soda, SalePrice: money("10.00"), QtySold: 2}},
			},
		},
		ReceivableInvoices: []*books.ReceivableInvoice{recv},
		PayableInvoices:    []*books.PayableInvoice{pay},
		ExpenseClaims: []*books.ExpenseClaim{{
			ID: 1, Amount: money("100.00"),
			LineItems: []*books.ExpenseLineItem{
				{ID: 1, ClaimID: idPtr(1), ExpenseDate: day(5), Amount: money("40.00"), Account: acct(9)},
				{ID: 2, ClaimID: idPtr(1), ExpenseDate: day(6), Amount: money("60.00"), Account: acct(9)},
			},
		}},
		ExpenseTransactions: []*books.ExpenseTransaction{{
			ID: 1, PaymentDate: &paid, RecipientUserID: idPtr(10), PaymentMethod: books.PaidByCheck,
			AmountPaid:      money("100.00"),
			ClaimReferences: []*books.ExpenseClaimReference{{ID: 1, ExpenseTransactionID: 1, ClaimID: 1, ClaimAmount: money("100.00")}},
		}},
	}
}

type JournalServiceTestSuite struct {
	suite.Suite
	store   *memory.Store
	txns    *memory.Transactions
	reg     *prometheus.Registry
	service portssvc.JournalSvcFacade
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.store = memory.NewStore(chartOfAccounts...)
	suite.txns = sampleTransactions()
	suite.reg = prometheus.NewRegistry()
	suite.service = suite.newService()
}

func (suite *JournalServiceTestSuite) newService(opts ...services.JournalServiceOption) portssvc.JournalSvcFacade {
	opts = append([]services.JournalServiceOption{services.WithJournalMetrics(metrics.NewJournalMetrics(suite.reg))}, opts...)
	return services.NewJournalService(suite.store, suite.txns, services.NewAccountService(suite.store), opts...)
}

func (suite *JournalServiceTestSuite) assertMetric(expected string, names ...string) {
	suite.NoError(testutil.GatherAndCompare(suite.reg, strings.NewReader(expected), names...))
}

func (suite *JournalServiceTestSuite) TestRegenerate_WritesEveryKind() {
	ctx := context.Background()

	report, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Require().NoError(err)
	suite.NotEmpty(report.RunID)
	suite.Equal(7, report.EntriesWritten)
	suite.Equal(15, report.LinesWritten)
	suite.Equal(map[string]int{
		books.KindSale:               2,
		books.KindReceivableInvoice:  1,
		books.KindPayableInvoice:     1,
		books.KindExpenseClaim:       1,
		books.KindExpenseTransaction: 1,
	}, report.RootsByKind)
	suite.Empty(report.Failures)
	suite.Empty(report.MissingAccounts)
	suite.Empty(report.Unbalanced)
	suite.True(report.TotalDebits.Equal(report.TotalCredits))

	entries, lines := suite.store.Counts()
	suite.Equal(7, entries)
	suite.Equal(15, lines)

	unbalanced, runID, err := suite.service.UnbalancedEntries(ctx)
	suite.Require().NoError(err)
	suite.Equal(report.RunID, runID)
	suite.Empty(unbalanced)

	suite.assertMetric(`
# HELP books_regeneration_runs_total Journal regeneration runs by outcome.
# TYPE books_regeneration_runs_total counter
books_regeneration_runs_total{outcome="success"} 1
# HELP books_journal_entries_flushed_total Journal entries written by batch flushes.
# TYPE books_journal_entries_flushed_total counter
books_journal_entries_flushed_total 7
`, "books_regeneration_runs_total", "books_journal_entries_flushed_total")
}

func (suite *JournalServiceTestSuite) TestRegenerate_IsIdempotent() {
	ctx := context.Background()
	first, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})
	suite.Require().NoError(err)
	before, err := suite.store.ListEntriesWithLines(ctx)
	suite.Require().NoError(err)

	second, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Require().NoError(err)
	suite.Equal(int64(first.EntriesWritten), second.DeletedEntries)
	after, err := suite.store.ListEntriesWithLines(ctx)
	suite.Require().NoError(err)
	suite.Equal(summarizeJournal(before), summarizeJournal(after))
}

func (suite *JournalServiceTestSuite) TestRegenerate_SkipsFrozenSources() {
	ctx := context.Background()
	_, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})
	suite.Require().NoError(err)
	entries, err := suite.store.ListEntriesWithLines(ctx)
	suite.Require().NoError(err)
	var frozenURL string
	for _, je := range entries {
		if je.SourceURL == ledger.AdminURL(books.KindSale, 1) {
			suite.Require().NoError(suite.store.Freeze(je.ID))
			frozenURL = je.SourceURL
		}
	}
	suite.Require().NotEmpty(frozenURL)

	report, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Require().NoError(err)
	suite.Equal([]string{frozenURL}, report.SkippedFrozen)
	suite.Equal(int64(6), report.DeletedEntries)
	suite.Equal(6, report.EntriesWritten)
	count, _ := suite.store.Counts()
	suite.Equal(7, count)
}

func (suite *JournalServiceTestSuite) TestRegenerate_ReportsBadRootsAndContinues() {
	ctx := context.Background()
	suite.txns.Sales[1].OtherItems[0].Type = &books.OtherItemType{Name: "Unfiled"}
	suite.txns.ExpenseTransactions[0].PaymentDate = nil

	report, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Require().NoError(err)
	suite.Require().Len(report.Failures, 2)
	suite.Equal(books.KindSale, report.Failures[0].Kind)
	suite.Equal(ledger.AdminURL(books.KindSale, 2), report.Failures[0].SourceURL)
	suite.Equal(books.KindExpenseTransaction, report.Failures[1].Kind)
	suite.Equal(5, report.EntriesWritten)

	suite.assertMetric(`
# HELP books_regeneration_root_failures_total Transactions that could not be journaled, by kind and reason.
# TYPE books_regeneration_root_failures_total counter
books_regeneration_root_failures_total{kind="expensetransaction",reason="validation"} 1
books_regeneration_root_failures_total{kind="sale",reason="account_missing"} 1
`, "books_regeneration_root_failures_total")
}

func (suite *JournalServiceTestSuite) TestRegenerate_MissingAccountIsNotFatal() {
	ctx := context.Background()
	suite.store = memory.NewStore(chartOfAccounts[3:]...) // no payables or receivables
	suite.service = suite.newService()

	report, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Require().NoError(err)
	suite.ElementsMatch([]string{
		domain.AcctLiabilityPayable,
		domain.AcctLiabilityUnearnedMshipRevenue,
		domain.AcctAssetReceivable,
	}, report.MissingAccounts)
	suite.Equal(2, report.RootsByKind[books.KindSale])
	for _, f := range report.Failures {
		suite.Contains(f.Error, "required account is missing")
	}
	suite.Len(report.Failures, 4)
}

func (suite *JournalServiceTestSuite) TestRegenerate_Unbalanced() {
	ctx := context.Background()
	suite.txns.Sales[0].MonetaryDonations[0].Amount = money("95.00")

	report, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Require().NoError(err)
	suite.Require().Len(report.Unbalanced, 1)
	suite.Equal(ledger.AdminURL(books.KindSale, 1), report.Unbalanced[0].SourceURL)
	suite.NotZero(report.Unbalanced[0].EntryID)

	persisted, err := suite.service.FindUnbalancedEntries(ctx)
	suite.Require().NoError(err)
	suite.Require().Len(persisted, 1)
	suite.Equal(report.Unbalanced[0].EntryID, persisted[0].EntryID)
	suite.Equal("100.00", persisted[0].Debits.StringFixed(2))
	suite.Equal("95.00", persisted[0].Credits.StringFixed(2))
}

func (suite *JournalServiceTestSuite) TestRegenerate_Conflict() {
	ctx := context.Background()
	unlock, err := suite.store.TryLockRegeneration(ctx)
	suite.Require().NoError(err)
	defer unlock(ctx)

	report, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Nil(report)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.assertMetric(`
# HELP books_regeneration_runs_total Journal regeneration runs by outcome.
# TYPE books_regeneration_runs_total counter
books_regeneration_runs_total{outcome="conflict"} 1
`, "books_regeneration_runs_total")
}

func (suite *JournalServiceTestSuite) TestRegenerate_ReleasesLock() {
	ctx := context.Background()
	_, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})
	suite.Require().NoError(err)

	unlock, err := suite.store.TryLockRegeneration(ctx)
	suite.Require().NoError(err)
	suite.NoError(unlock(ctx))
}

func (suite *JournalServiceTestSuite) TestRegenerate_LoaderErrorAbortsRun() {
	ctx := context.Background()
	registry := ledger.NewRegistry()
	registry.MustRegister("broken", func(context.Context) ([]ledger.Journaler, error) {
		return nil, errors.New("connection reset")
	})
	svc := suite.newService(services.WithRegistry(registry))

	report, err := svc.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Nil(report)
	suite.ErrorContains(err, "loading broken roots")
	_, _, err = svc.UnbalancedEntries(ctx)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.assertMetric(`
# HELP books_regeneration_runs_total Journal regeneration runs by outcome.
# TYPE books_regeneration_runs_total counter
books_regeneration_runs_total{outcome="failure"} 1
`, "books_regeneration_runs_total")
}

func (suite *JournalServiceTestSuite) TestRegenerate_DryRunLeavesJournalAlone() {
	ctx := context.Background()

	report, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{DryRun: true})

	suite.Require().NoError(err)
	suite.True(report.DryRun)
	suite.Equal(7, report.EntriesWritten)
	suite.Zero(report.DeletedEntries)
	entries, lines := suite.store.Counts()
	suite.Zero(entries)
	suite.Zero(lines)
}

func (suite *JournalServiceTestSuite) TestRegenerate_BatchThreshold() {
	ctx := context.Background()
	svc := suite.newService(services.WithBatchThreshold(2))

	report, err := svc.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Require().NoError(err)
	entryBatches, lineBatches := suite.store.BatchSizes()
	for _, n := range append(entryBatches, lineBatches...) {
		suite.LessOrEqual(n, 2)
	}
	suite.Equal(len(entryBatches), report.EntryFlushes)
	suite.Equal(7, report.EntriesWritten)
}

func (suite *JournalServiceTestSuite) TestRegenerate_SourceURLBase() {
	ctx := context.Background()
	svc := suite.newService(services.WithSourceURLBase("https://books.example.org"))

	_, err := svc.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Require().NoError(err)
	entries, err := suite.store.ListEntriesWithLines(ctx)
	suite.Require().NoError(err)
	for _, je := range entries {
		suite.True(strings.HasPrefix(je.SourceURL, "https://books.example.org/admin/books/"), je.SourceURL)
	}
}

func (suite *JournalServiceTestSuite) TestDBCheck() {
	ctx := context.Background()
	_, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})
	suite.Require().NoError(err)

	report, err := suite.service.DBCheck(ctx)
	suite.Require().NoError(err)
	suite.True(report.Clean(), "%+v", report.Findings)
	suite.Equal(7, report.CheckedEntries)
	suite.Equal(6, report.CheckedRoots)

	suite.txns.ReceivableInvoices[0].Amount = money("55.00")
	suite.txns.ExpenseClaims[0].LineItems[1].ClaimID = nil

	report, err = suite.service.DBCheck(ctx)

	suite.Require().NoError(err)
	suite.Require().Len(report.Findings, 2)
	suite.Equal(books.KindReceivableInvoice, report.Findings[0].Kind)
	suite.Contains(report.Findings[0].Problem, "must match amount")
	suite.Equal(books.KindExpenseClaim, report.Findings[1].Kind)
	suite.Contains(report.Findings[1].Reference, "expense_line_items[1]")
	suite.Contains(report.Findings[1].Problem, "must be part of a claim or transaction")
}

func (suite *JournalServiceTestSuite) TestDBCheck_UnbalancedEntry() {
	ctx := context.Background()
	suite.txns.Sales[0].MonetaryDonations[0].Amount = money("95.00")
	_, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})
	suite.Require().NoError(err)

	report, err := suite.service.DBCheck(ctx)

	suite.Require().NoError(err)
	var entryFindings, saleFindings int
	for _, f := range report.Findings {
		switch f.Kind {
		case "journalentry":
			entryFindings++
			suite.Contains(f.Problem, "total credits do not equal total debits")
		case books.KindSale:
			saleFindings++
		}
	}
	suite.Equal(1, entryFindings)
	suite.Equal(0, saleFindings) // net-shaped details still reconcile
}

func (suite *JournalServiceTestSuite) TestDBCheck_ValidationRules() {
	ctx := context.Background()
	suite.txns.ExpenseTransactions[0].RecipientName = "Bob"
	suite.txns.PayableInvoices[0].LineItems[0].Account = acct(8)
	suite.txns.DonationRewards = []*books.MonetaryDonationReward{
		{ID: 1, Name: "Mug", MinDonation: money("25.00"), CostToOrg: money("8.00")},
		{ID: 2, Name: "Jacket", MinDonation: money("25.00"), CostToOrg: money("40.00")},
	}
	suite.txns.Campaigns = []*books.Campaign{
		{ID: 1, Name: "Roof", Account: acct(6)},
		{ID: 2, Name: "Lathe", Account: acct(9)},
	}

	report, err := suite.service.DBCheck(ctx)

	suite.Require().NoError(err)
	suite.Equal(6, report.CheckedRoots)
	suite.Equal(4, report.CheckedRecords)
	suite.Require().Len(report.Findings, 4)

	suite.Equal(books.KindPayableInvoice, report.Findings[0].Kind)
	suite.Contains(report.Findings[0].Reference, "payable_invoice_line_items[0]")
	suite.Contains(report.Findings[0].Problem, "category EXPENSE or ASSET")

	suite.Equal(books.KindExpenseTransaction, report.Findings[1].Kind)
	suite.Equal(ledger.AdminURL(books.KindExpenseTransaction, 1), report.Findings[1].Reference)
	suite.Contains(report.Findings[1].Problem, "one of recipient")

	suite.Equal(books.KindMonetaryDonationReward, report.Findings[2].Kind)
	suite.Equal(ledger.AdminURL(books.KindMonetaryDonationReward, 2), report.Findings[2].Reference)
	suite.Contains(report.Findings[2].Problem, "cover the cost")

	suite.Equal(books.KindCampaign, report.Findings[3].Kind)
	suite.Equal(ledger.AdminURL(books.KindCampaign, 2), report.Findings[3].Reference)
	suite.Contains(report.Findings[3].Problem, "category REVENUE")
}

func (suite *JournalServiceTestSuite) TestRegenerate_ClaimWithBadLineWritesNoneOfIt() {
	ctx := context.Background()
	suite.txns.ExpenseClaims[0].LineItems[1].Account = nil

	report, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})

	suite.Require().NoError(err)
	suite.Require().Len(report.Failures, 1)
	suite.Equal(books.KindExpenseClaim, report.Failures[0].Kind)
	suite.Contains(report.Failures[0].Error, "required account is missing")
	suite.Zero(report.RootsByKind[books.KindExpenseClaim])

	entries, err := suite.store.ListEntriesWithLines(ctx)
	suite.Require().NoError(err)
	suite.Len(entries, 5)
	for _, je := range entries {
		suite.NotContains(je.SourceURL, ledger.AdminURL(books.KindExpenseClaim, 1))
	}
}

func (suite *JournalServiceTestSuite) TestGetAndListEntries() {
	ctx := context.Background()
	_, err := suite.service.Regenerate(ctx, dto.RegenerateRequest{})
	suite.Require().NoError(err)

	page, err := suite.service.ListEntries(ctx, dto.ListEntriesParams{Limit: 5})
	suite.Require().NoError(err)
	suite.Len(page.Entries, 5)
	suite.Require().NotNil(page.NextToken)

	rest, err := suite.service.ListEntries(ctx, dto.ListEntriesParams{Limit: 5, NextToken: page.NextToken})
	suite.Require().NoError(err)
	suite.Len(rest.Entries, 2)
	suite.Nil(rest.NextToken)

	je, err := suite.service.GetEntryByID(ctx, page.Entries[0].EntryID)
	suite.Require().NoError(err)
	suite.NotEmpty(je.LineItems)

	_, err = suite.service.GetEntryByID(ctx, 9999)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}

type entrySummary struct {
	SourceURL string
	When      time.Time
	Lines     []string
}

func summarizeJournal(entries []domain.JournalEntry) []entrySummary {
	out := make([]entrySummary, len(entries))
	for i, je := range entries {
		out[i] = entrySummary{SourceURL: je.SourceURL, When: je.When}
		for _, li := range je.LineItems {
			out[i].Lines = append(out[i].Lines, li.String()[strings.Index(li.String(), ","):])
		}
	}
	return out
}
