package pgsql

import (
	"context"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/books"
	"github.com/SscSPs/org_books/internal/core/domain"
	portsrepo "github.com/SscSPs/org_books/internal/core/ports/repositories"
	"github.com/SscSPs/org_books/internal/models"
	"github.com/SscSPs/org_books/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxTransactionRepository loads transaction roots with their details for
// journal generation. Every list is ordered by ID.
type PgxTransactionRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountReader
}

func newPgxTransactionRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountReader) *PgxTransactionRepository {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.TransactionSource = (*PgxTransactionRepository)(nil)

// collect runs query and scans every row into T by column name.
func collect[T any](ctx context.Context, pool *pgxpool.Pool, what, query string, args ...any) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query "+what, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan "+what, err)
	}
	return out, nil
}

// accountLookup loads the chart of accounts once for a whole list call.
func (r *PgxTransactionRepository) accountLookup(ctx context.Context) (mapping.AccountLookup, error) {
	accounts, err := r.accountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.Account, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = &accounts[i]
	}
	return func(id int64) *domain.Account { return byID[id] }, nil
}

func (r *PgxTransactionRepository) ListSales(ctx context.Context) ([]*books.Sale, error) {
	accounts, err := r.accountLookup(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := collect[models.Sale](ctx, r.Pool, "sales", `
		SELECT id, sale_date, deposit_date, payer_user_id, payer_name, payer_email,
		       payment_method, method_detail, total_paid_by_customer, processing_fee,
		       fee_payer, ctrlid, protected
		FROM sales
		ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	items, err := collect[models.OtherItem](ctx, r.Pool, "other items", `
		SELECT oi.id, oi.sale_id, oi.type_id, t.name AS type_name, t.description AS type_description,
		       t.revenue_account_id, oi.sale_price, oi.qty_sold, oi.ctrlid, oi.protected
		FROM other_items oi
		JOIN other_item_types t ON t.id = oi.type_id
		ORDER BY oi.sale_id, oi.id;
	`)
	if err != nil {
		return nil, err
	}
	donations, err := collect[models.MonetaryDonation](ctx, r.Pool, "monetary donations", `
		SELECT id, sale_id, amount, earmark_account_id, reward_id, ctrlid, protected
		FROM monetary_donations
		ORDER BY sale_id, id;
	`)
	if err != nil {
		return nil, err
	}
	refs, err := collect[models.InvoiceReference](ctx, r.Pool, "receivable invoice references", `
		SELECT ref.id, ref.sale_id AS owner_id, ref.invoice_id, inv.amount AS invoice_amount, ref.portion
		FROM receivable_invoice_references ref
		JOIN receivable_invoices inv ON inv.id = ref.invoice_id
		ORDER BY ref.sale_id, ref.id;
	`)
	if err != nil {
		return nil, err
	}

	sales := make([]*books.Sale, len(rows))
	byID := make(map[int64]*books.Sale, len(rows))
	for i, row := range rows {
		sales[i] = mapping.ToDomainSale(row)
		byID[row.ID] = sales[i]
	}
	for _, m := range items {
		if s, ok := byID[m.SaleID]; ok {
			s.OtherItems = append(s.OtherItems, mapping.ToDomainOtherItem(m, accounts))
		}
	}
	for _, m := range donations {
		if s, ok := byID[m.SaleID]; ok {
			s.MonetaryDonations = append(s.MonetaryDonations, mapping.ToDomainMonetaryDonation(m))
		}
	}
	for _, m := range refs {
		if s, ok := byID[m.OwnerID]; ok {
			s.InvoiceReferences = append(s.InvoiceReferences, mapping.ToDomainReceivableInvoiceReference(m))
		}
	}
	return sales, nil
}

func (r *PgxTransactionRepository) ListReceivableInvoices(ctx context.Context) ([]*books.ReceivableInvoice, error) {
	accounts, err := r.accountLookup(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := collect[models.Invoice](ctx, r.Pool, "receivable invoices", `
		SELECT id, user_id, entity_id, invoice_date, description, amount
		FROM receivable_invoices
		ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	lines, err := collect[models.InvoiceLineItem](ctx, r.Pool, "receivable invoice line items", `
		SELECT id, invoice_id, description, account_id, amount
		FROM receivable_invoice_line_items
		ORDER BY invoice_id, id;
	`)
	if err != nil {
		return nil, err
	}

	invoices := make([]*books.ReceivableInvoice, len(rows))
	byID := make(map[int64]*books.ReceivableInvoice, len(rows))
	for i, row := range rows {
		invoices[i] = mapping.ToDomainReceivableInvoice(row)
		byID[row.ID] = invoices[i]
	}
	for _, m := range lines {
		if inv, ok := byID[m.InvoiceID]; ok {
			inv.LineItems = append(inv.LineItems, mapping.ToDomainReceivableInvoiceLineItem(m, accounts))
		}
	}
	return invoices, nil
}

func (r *PgxTransactionRepository) ListPayableInvoices(ctx context.Context) ([]*books.PayableInvoice, error) {
	accounts, err := r.accountLookup(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := collect[models.Invoice](ctx, r.Pool, "payable invoices", `
		SELECT id, user_id, entity_id, invoice_date, description, amount
		FROM payable_invoices
		ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	lines, err := collect[models.InvoiceLineItem](ctx, r.Pool, "payable invoice line items", `
		SELECT id, invoice_id, description, account_id, amount
		FROM payable_invoice_line_items
		ORDER BY invoice_id, id;
	`)
	if err != nil {
		return nil, err
	}

	invoices := make([]*books.PayableInvoice, len(rows))
	byID := make(map[int64]*books.PayableInvoice, len(rows))
	for i, row := range rows {
		invoices[i] = mapping.ToDomainPayableInvoice(row)
		byID[row.ID] = invoices[i]
	}
	for _, m := range lines {
		if inv, ok := byID[m.InvoiceID]; ok {
			inv.LineItems = append(inv.LineItems, mapping.ToDomainPayableInvoiceLineItem(m, accounts))
		}
	}
	return invoices, nil
}

func (r *PgxTransactionRepository) ListExpenseClaims(ctx context.Context) ([]*books.ExpenseClaim, error) {
	accounts, err := r.accountLookup(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := collect[models.ExpenseClaim](ctx, r.Pool, "expense claims", `
		SELECT id, claimant_id, amount, submitted, closed, donate_reimbursement
		FROM expense_claims
		ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	lines, err := r.expenseLineItems(ctx, "claim_id IS NOT NULL")
	if err != nil {
		return nil, err
	}
	refs, err := r.claimReferences(ctx)
	if err != nil {
		return nil, err
	}

	claims := make([]*books.ExpenseClaim, len(rows))
	byID := make(map[int64]*books.ExpenseClaim, len(rows))
	for i, row := range rows {
		claims[i] = mapping.ToDomainExpenseClaim(row)
		byID[row.ID] = claims[i]
	}
	for _, m := range lines {
		if c, ok := byID[*m.ClaimID]; ok {
			c.LineItems = append(c.LineItems, mapping.ToDomainExpenseLineItem(m, accounts))
		}
	}
	for _, m := range refs {
		if c, ok := byID[m.ClaimID]; ok {
			c.References = append(c.References, mapping.ToDomainExpenseClaimReference(m))
		}
	}
	return claims, nil
}

func (r *PgxTransactionRepository) ListExpenseTransactions(ctx context.Context) ([]*books.ExpenseTransaction, error) {
	accounts, err := r.accountLookup(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := collect[models.ExpenseTransaction](ctx, r.Pool, "expense transactions", `
		SELECT id, payment_date, recipient_user_id, recipient_entity_id, recipient_name,
		       recipient_email, amount_paid, payment_method, method_detail
		FROM expense_transactions
		ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	lines, err := r.expenseLineItems(ctx, "expense_transaction_id IS NOT NULL")
	if err != nil {
		return nil, err
	}
	claimRefs, err := r.claimReferences(ctx)
	if err != nil {
		return nil, err
	}
	invoiceRefs, err := collect[models.InvoiceReference](ctx, r.Pool, "payable invoice references", `
		SELECT ref.id, ref.expense_transaction_id AS owner_id, ref.invoice_id, inv.amount AS invoice_amount, ref.portion
		FROM payable_invoice_references ref
		JOIN payable_invoices inv ON inv.id = ref.invoice_id
		ORDER BY ref.expense_transaction_id, ref.id;
	`)
	if err != nil {
		return nil, err
	}

	txns := make([]*books.ExpenseTransaction, len(rows))
	byID := make(map[int64]*books.ExpenseTransaction, len(rows))
	for i, row := range rows {
		txns[i] = mapping.ToDomainExpenseTransaction(row)
		byID[row.ID] = txns[i]
	}
	for _, m := range lines {
		if t, ok := byID[*m.ExpenseTransactionID]; ok {
			t.LineItems = append(t.LineItems, mapping.ToDomainExpenseLineItem(m, accounts))
		}
	}
	for _, m := range claimRefs {
		if t, ok := byID[m.ExpenseTransactionID]; ok {
			t.ClaimReferences = append(t.ClaimReferences, mapping.ToDomainExpenseClaimReference(m))
		}
	}
	for _, m := range invoiceRefs {
		if t, ok := byID[m.OwnerID]; ok {
			t.InvoiceReferences = append(t.InvoiceReferences, mapping.ToDomainPayableInvoiceReference(m))
		}
	}
	return txns, nil
}

// expenseLineItems loads the expense line items matching cond. cond is a
// fixed SQL fragment, never user input.
func (r *PgxTransactionRepository) expenseLineItems(ctx context.Context, cond string) ([]models.ExpenseLineItem, error) {
	return collect[models.ExpenseLineItem](ctx, r.Pool, "expense line items", `
		SELECT id, claim_id, expense_transaction_id, receipt_number, expense_date,
		       description, amount, account_id, approved
		FROM expense_line_items
		WHERE `+cond+`
		ORDER BY id;
	`)
}

func (r *PgxTransactionRepository) claimReferences(ctx context.Context) ([]models.ExpenseClaimReference, error) {
	return collect[models.ExpenseClaimReference](ctx, r.Pool, "expense claim references", `
		SELECT ref.id, ref.expense_transaction_id, ref.claim_id, c.amount AS claim_amount, ref.portion
		FROM expense_claim_references ref
		JOIN expense_claims c ON c.id = ref.claim_id
		ORDER BY ref.id;
	`)
}

func (r *PgxTransactionRepository) ListDonationRewards(ctx context.Context) ([]*books.MonetaryDonationReward, error) {
	rows, err := collect[models.DonationReward](ctx, r.Pool, "donation rewards", `
		SELECT id, name, min_donation, cost_to_org, fair_mkt_value, description
		FROM monetary_donation_rewards
		ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	rewards := make([]*books.MonetaryDonationReward, len(rows))
	for i, row := range rows {
		rewards[i] = mapping.ToDomainDonationReward(row)
	}
	return rewards, nil
}

func (r *PgxTransactionRepository) ListCampaigns(ctx context.Context) ([]*books.Campaign, error) {
	accounts, err := r.accountLookup(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := collect[models.Campaign](ctx, r.Pool, "campaigns", `
		SELECT id, name, is_active, is_public, target_amount, account_id, description
		FROM campaigns
		ORDER BY id;
	`)
	if err != nil {
		return nil, err
	}
	campaigns := make([]*books.Campaign, len(rows))
	for i, row := range rows {
		campaigns[i] = mapping.ToDomainCampaign(row, accounts)
	}
	return campaigns, nil
}
