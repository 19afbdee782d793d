package books

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// ExpenseClaim status values.
const (
	ClaimClosed    = "closed"
	ClaimSubmitted = "submitted"
	ClaimOpen      = "open"
	ClaimUnknown   = "?"
)

// ExpenseClaim is a member asking to be paid back for money they spent on
// the organization's behalf. Each of its line items becomes a journal entry
// of its own; the claim has none.
type ExpenseClaim struct {
	ID                  int64           `json:"id"`
	ClaimantID          *int64          `json:"claimantID,omitempty"`
	Amount              decimal.Decimal `json:"amount" validate:"gte=0"`
	Submitted           *time.Time      `json:"submitted,omitempty"`
	Closed              *time.Time      `json:"closed,omitempty"`
	DonateReimbursement bool            `json:"donateReimbursement"`

	LineItems []*ExpenseLineItem `json:"lineItems,omitempty"`
	// References are the payments made against this claim. They are
	// journaled by the paying transaction.
	References []*ExpenseClaimReference `json:"references,omitempty"`
}

var (
	_ ledger.Journaler           = (*ExpenseClaim)(nil)
	_ ledger.ContributorManifest = (*ExpenseClaim)(nil)
)

func (c *ExpenseClaim) Kind() string { return KindExpenseClaim }

func (c *ExpenseClaim) AbsoluteURL() string { return ledger.AdminURL(KindExpenseClaim, c.ID) }

func (c *ExpenseClaim) Contributors() []ledger.Collection {
	return []ledger.Collection{
		ledger.Collect("expense_line_items", c.LineItems),
	}
}

// CreateJournalEntry batches one entry per line item. Every line is checked
// first so a bad line leaves none of the claim's entries batched.
func (c *ExpenseClaim) CreateJournalEntry(ctx context.Context, bc *ledger.BatchContext) error {
	target := ledger.DeferredPerLineEntry{SourceURL: bc.SourceURL(c)}
	for i, li := range c.LineItems {
		if _, err := li.claimEntry(bc, target.SourceURL); err != nil {
			return fmt.Errorf("expense claim %d: expense_line_items[%d]: %w", c.ID, i, err)
		}
	}
	if err := ledger.ContributeChildren(ctx, bc, c, target); err != nil {
		return fmt.Errorf("expense claim %d: %w", c.ID, err)
	}
	return nil
}

func (c *ExpenseClaim) Checksum() decimal.Decimal {
	total := decimal.Zero
	for _, li := range c.LineItems {
		total = total.Add(li.Amount)
	}
	return total
}

// Reimbursed is the total paid against the claim so far.
func (c *ExpenseClaim) Reimbursed() decimal.Decimal {
	total := decimal.Zero
	for _, ref := range c.References {
		total = total.Add(ref.PaidAmount())
	}
	return total
}

// Remaining is what is still owed on the claim.
func (c *ExpenseClaim) Remaining() decimal.Decimal {
	return c.Amount.Sub(c.Reimbursed())
}

// Status is closed once nothing remains owed, then submitted, then open
// while a balance remains. An overpaid, unsubmitted claim is ClaimUnknown.
func (c *ExpenseClaim) Status() string {
	remaining := c.Remaining()
	switch {
	case remaining.IsZero():
		return ClaimClosed
	case c.Submitted != nil:
		return ClaimSubmitted
	case remaining.IsPositive():
		return ClaimOpen
	}
	return ClaimUnknown
}

func (c *ExpenseClaim) Validate() error {
	if err := validateStruct("expense claim", c); err != nil {
		return err
	}
	if c.Submitted != nil && c.Closed != nil && c.Closed.Before(*c.Submitted) {
		return validationError("claim cannot be closed before it was submitted")
	}
	return nil
}

func (c *ExpenseClaim) DBCheck() error {
	if sum := c.Checksum(); !sum.Equal(c.Amount) {
		return &ChecksumError{Kind: KindExpenseClaim, ID: c.ID, Stated: c.Amount, Computed: sum}
	}
	return nil
}

func (c *ExpenseClaim) String() string {
	return fmt.Sprintf("Expense Claim #%d", c.ID)
}

// ExpenseLineItem is one purchase, either on a claim or on a transaction.
type ExpenseLineItem struct {
	ID                   int64           `json:"id"`
	ClaimID              *int64          `json:"claimID,omitempty"`
	ExpenseTransactionID *int64          `json:"expenseTransactionID,omitempty"`
	ReceiptNumber        *int            `json:"receiptNumber,omitempty"`
	ExpenseDate          time.Time       `json:"expenseDate" validate:"required"`
	Description          string          `json:"description" validate:"max=80"`
	Amount               decimal.Decimal `json:"amount" validate:"gte=0"`
	Account              *domain.Account `json:"account"`
	Approved             bool            `json:"approved"`
}

var _ ledger.JournalLiner = (*ExpenseLineItem)(nil)

// ContributeLineItems charges the line's account. On a claim it also builds
// and batches an entry of its own, owing the claimant the same amount.
func (l *ExpenseLineItem) ContributeLineItems(ctx context.Context, bc *ledger.BatchContext, target ledger.EntryTarget) error {
	switch t := target.(type) {
	case ledger.RealEntry:
		if t.Entry == nil {
			return fmt.Errorf("%w: expense line item %d has no entry to join", apperrors.ErrValidation, l.ID)
		}
		if err := ledger.PrebatchLine(t.Entry, l.Account, domain.Increase, l.Amount); err != nil {
			return fmt.Errorf("expense line item %d: %w", l.ID, err)
		}
		return nil

	case ledger.DeferredPerLineEntry:
		je, err := l.claimEntry(bc, t.SourceURL)
		if err != nil {
			return err
		}
		return bc.Batch(ctx, je)
	}
	return fmt.Errorf("%w: unsupported entry target %T", apperrors.ErrValidation, target)
}

// claimEntry builds the line's own entry owing the claimant its amount.
func (l *ExpenseLineItem) claimEntry(bc *ledger.BatchContext, sourceURL string) (*domain.JournalEntry, error) {
	payable, err := bc.Chart().Require(domain.AcctLiabilityPayable)
	if err != nil {
		return nil, fmt.Errorf("expense line item %d: %w", l.ID, err)
	}
	je := domain.NewJournalEntry(l.ExpenseDate, sourceURL)
	if err := ledger.PrebatchLine(je, payable, domain.Increase, l.Amount); err != nil {
		return nil, fmt.Errorf("expense line item %d: %w", l.ID, err)
	}
	if err := ledger.PrebatchLine(je, l.Account, domain.Increase, l.Amount); err != nil {
		return nil, fmt.Errorf("expense line item %d: %w", l.ID, err)
	}
	return je, nil
}

func (l *ExpenseLineItem) Validate() error {
	if err := validateStruct("expense line item", l); err != nil {
		return err
	}
	if l.Account == nil {
		return validationError("expense line item has no account")
	}
	if !l.Account.IsCategory(domain.Expense, domain.Asset) {
		return validationError("account chosen must have category EXPENSE or ASSET")
	}
	return nil
}

// DBCheck verifies the line belongs to something.
func (l *ExpenseLineItem) DBCheck() error {
	if l.ClaimID == nil && l.ExpenseTransactionID == nil {
		return validationError("expense line item %d must be part of a claim or transaction", l.ID)
	}
	return nil
}

// ExpenseClaimReference records a transaction paying an expense claim.
type ExpenseClaimReference struct {
	ID                   int64 `json:"id"`
	ExpenseTransactionID int64 `json:"expenseTransactionID"`
	ClaimID              int64 `json:"claimID"`
	// ClaimAmount is the referenced claim's total.
	ClaimAmount decimal.Decimal  `json:"claimAmount"`
	Portion     *decimal.Decimal `json:"portion,omitempty"`
}

var _ ledger.JournalLiner = (*ExpenseClaimReference)(nil)

// PaidAmount is the portion, or the whole claim when no portion was given.
func (r *ExpenseClaimReference) PaidAmount() decimal.Decimal {
	return portionOr(r.Portion, r.ClaimAmount)
}

func (r *ExpenseClaimReference) ContributeLineItems(_ context.Context, bc *ledger.BatchContext, target ledger.EntryTarget) error {
	return payDown(bc, target, "expense claim reference", r.PaidAmount())
}

// PayableInvoiceReference records a transaction paying a payable invoice.
type PayableInvoiceReference struct {
	ID                   int64            `json:"id"`
	ExpenseTransactionID int64            `json:"expenseTransactionID"`
	InvoiceID            int64            `json:"invoiceID"`
	InvoiceAmount        decimal.Decimal  `json:"invoiceAmount"`
	Portion              *decimal.Decimal `json:"portion,omitempty"`
}

var _ ledger.JournalLiner = (*PayableInvoiceReference)(nil)

func (r *PayableInvoiceReference) PaidAmount() decimal.Decimal {
	return portionOr(r.Portion, r.InvoiceAmount)
}

func (r *PayableInvoiceReference) ContributeLineItems(_ context.Context, bc *ledger.BatchContext, target ledger.EntryTarget) error {
	return payDown(bc, target, "payable invoice reference", r.PaidAmount())
}

// payDown reduces accounts payable by amount on the target entry.
func payDown(bc *ledger.BatchContext, target ledger.EntryTarget, who string, amount decimal.Decimal) error {
	je, err := sharedEntry(target, who)
	if err != nil {
		return err
	}
	payable, err := bc.Chart().Require(domain.AcctLiabilityPayable)
	if err != nil {
		return err
	}
	return ledger.PrebatchLine(je, payable, domain.Decrease, amount)
}

// ExpenseTransaction is money paid out: directly for expenses, or against
// claims and payable invoices.
type ExpenseTransaction struct {
	ID          int64      `json:"id"`
	PaymentDate *time.Time `json:"paymentDate,omitempty"`

	RecipientUserID   *int64 `json:"recipientUserID,omitempty"`
	RecipientEntityID *int64 `json:"recipientEntityID,omitempty"`
	RecipientName     string `json:"recipientName" validate:"max=40"`
	RecipientEmail    string `json:"recipientEmail" validate:"omitempty,email,max=40"`

	AmountPaid    decimal.Decimal `json:"amountPaid" validate:"gte=0"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" validate:"required,oneof=$ C X"`
	MethodDetail  string          `json:"methodDetail" validate:"max=40"`

	LineItems         []*ExpenseLineItem         `json:"lineItems,omitempty"`
	ClaimReferences   []*ExpenseClaimReference   `json:"claimReferences,omitempty"`
	InvoiceReferences []*PayableInvoiceReference `json:"invoiceReferences,omitempty"`
}

var (
	_ ledger.Journaler           = (*ExpenseTransaction)(nil)
	_ ledger.ContributorManifest = (*ExpenseTransaction)(nil)
)

func (t *ExpenseTransaction) Kind() string { return KindExpenseTransaction }

func (t *ExpenseTransaction) AbsoluteURL() string {
	return ledger.AdminURL(KindExpenseTransaction, t.ID)
}

func (t *ExpenseTransaction) Contributors() []ledger.Collection {
	return []ledger.Collection{
		ledger.Collect("expense_line_items", t.LineItems),
		ledger.Collect("expense_claim_references", t.ClaimReferences),
		ledger.Collect("payable_invoice_references", t.InvoiceReferences),
	}
}

func (t *ExpenseTransaction) CreateJournalEntry(ctx context.Context, bc *ledger.BatchContext) error {
	if t.PaymentDate == nil {
		return validationError("expense transaction %d has no payment date", t.ID)
	}
	cash, err := bc.Chart().Require(domain.AcctAssetCash)
	if err != nil {
		return fmt.Errorf("expense transaction %d: %w", t.ID, err)
	}
	je := domain.NewJournalEntry(*t.PaymentDate, bc.SourceURL(t))
	if err := ledger.PrebatchLine(je, cash, domain.Decrease, t.AmountPaid); err != nil {
		return fmt.Errorf("expense transaction %d: %w", t.ID, err)
	}
	if err := ledger.ContributeChildren(ctx, bc, t, ledger.RealEntry{Entry: je}); err != nil {
		return fmt.Errorf("expense transaction %d: %w", t.ID, err)
	}
	return bc.Batch(ctx, je)
}

func (t *ExpenseTransaction) Checksum() decimal.Decimal {
	total := decimal.Zero
	for _, li := range t.LineItems {
		total = total.Add(li.Amount)
	}
	for _, ref := range t.ClaimReferences {
		total = total.Add(ref.PaidAmount())
	}
	for _, ref := range t.InvoiceReferences {
		total = total.Add(ref.PaidAmount())
	}
	return total
}

func (t *ExpenseTransaction) Validate() error {
	if err := validateStruct("expense transaction", t); err != nil {
		return err
	}
	recipients := 0
	if t.RecipientUserID != nil {
		recipients++
	}
	if t.RecipientEntityID != nil {
		recipients++
	}
	if t.RecipientName != "" {
		recipients++
	}
	if recipients != 1 {
		return validationError("specify one of recipient user, entity or name")
	}
	return checkMethodDetail(t.PaymentMethod, t.MethodDetail)
}

func (t *ExpenseTransaction) DBCheck() error {
	if sum := t.Checksum(); !sum.Equal(t.AmountPaid) {
		return &ChecksumError{Kind: KindExpenseTransaction, ID: t.ID, Stated: t.AmountPaid, Computed: sum}
	}
	return nil
}

func (t *ExpenseTransaction) String() string {
	if t.PaymentDate == nil {
		return fmt.Sprintf("Expense Transaction #%d", t.ID)
	}
	return fmt.Sprintf("%s payment of $%s", t.PaymentDate.Format(time.DateOnly), t.AmountPaid.StringFixed(2))
}
