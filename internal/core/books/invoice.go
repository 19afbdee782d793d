package books

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// invoiceBase holds what receivable and payable invoices have in common.
// The counterparty is either a member (UserID) or an outside entity.
type invoiceBase struct {
	ID          int64           `json:"id"`
	UserID      *int64          `json:"userID,omitempty"`
	EntityID    *int64          `json:"entityID,omitempty"`
	InvoiceDate time.Time       `json:"invoiceDate" validate:"required"`
	Description string          `json:"description" validate:"max=1024"`
	Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
}

func (b *invoiceBase) validateParty() error {
	if (b.UserID == nil) == (b.EntityID == nil) {
		return validationError("invoice must have a user or an entity, but not both")
	}
	return nil
}

// open creates the invoice's entry with its headline line.
func (b *invoiceBase) open(bc *ledger.BatchContext, j ledger.Journaler, acctName string) (*domain.JournalEntry, error) {
	acct, err := bc.Chart().Require(acctName)
	if err != nil {
		return nil, err
	}
	je := domain.NewJournalEntry(b.InvoiceDate, bc.SourceURL(j))
	if err := ledger.PrebatchLine(je, acct, domain.Increase, b.Amount); err != nil {
		return nil, err
	}
	return je, nil
}

// invoiceLine is a single billed or owed item on an invoice.
type invoiceLine struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoiceID"`
	Description string          `json:"description" validate:"max=1024"`
	Account     *domain.Account `json:"account"`
	Amount      decimal.Decimal `json:"amount" validate:"gte=0"`
}

func (l *invoiceLine) contribute(target ledger.EntryTarget, who string) error {
	je, err := sharedEntry(target, who)
	if err != nil {
		return err
	}
	if err := ledger.PrebatchLine(je, l.Account, domain.Increase, l.Amount); err != nil {
		return fmt.Errorf("%s %d: %w", who, l.ID, err)
	}
	return nil
}

func sumInvoiceLines[T interface{ lineAmount() decimal.Decimal }](lines []T) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.lineAmount())
	}
	return total
}

func (l *invoiceLine) lineAmount() decimal.Decimal { return l.Amount }

// ReceivableInvoice is money the organization is owed.
type ReceivableInvoice struct {
	invoiceBase
	LineItems []*ReceivableInvoiceLineItem `json:"lineItems,omitempty"`
}

var (
	_ ledger.Journaler           = (*ReceivableInvoice)(nil)
	_ ledger.ContributorManifest = (*ReceivableInvoice)(nil)
)

func (inv *ReceivableInvoice) Kind() string { return KindReceivableInvoice }

func (inv *ReceivableInvoice) AbsoluteURL() string {
	return ledger.AdminURL(KindReceivableInvoice, inv.ID)
}

func (inv *ReceivableInvoice) Contributors() []ledger.Collection {
	return []ledger.Collection{
		ledger.Collect("receivable_invoice_line_items", inv.LineItems),
	}
}

func (inv *ReceivableInvoice) CreateJournalEntry(ctx context.Context, bc *ledger.BatchContext) error {
	je, err := inv.open(bc, inv, domain.AcctAssetReceivable)
	if err != nil {
		return fmt.Errorf("receivable invoice %d: %w", inv.ID, err)
	}
	if err := ledger.ContributeChildren(ctx, bc, inv, ledger.RealEntry{Entry: je}); err != nil {
		return fmt.Errorf("receivable invoice %d: %w", inv.ID, err)
	}
	return bc.Batch(ctx, je)
}

func (inv *ReceivableInvoice) Checksum() decimal.Decimal {
	return sumInvoiceLines(inv.LineItems)
}

func (inv *ReceivableInvoice) Validate() error {
	if err := validateStruct("receivable invoice", inv); err != nil {
		return err
	}
	return inv.validateParty()
}

func (inv *ReceivableInvoice) DBCheck() error {
	if sum := inv.Checksum(); !sum.Equal(inv.Amount) {
		return &ChecksumError{Kind: KindReceivableInvoice, ID: inv.ID, Stated: inv.Amount, Computed: sum}
	}
	return nil
}

func (inv *ReceivableInvoice) String() string {
	return fmt.Sprintf("Receivable Invoice #%d", inv.ID)
}

// ReceivableInvoiceLineItem bills for something, crediting a revenue account.
type ReceivableInvoiceLineItem struct {
	invoiceLine
}

var _ ledger.JournalLiner = (*ReceivableInvoiceLineItem)(nil)

func (l *ReceivableInvoiceLineItem) ContributeLineItems(_ context.Context, _ *ledger.BatchContext, target ledger.EntryTarget) error {
	return l.contribute(target, "receivable invoice line item")
}

func (l *ReceivableInvoiceLineItem) Validate() error {
	if err := validateStruct("receivable invoice line item", l); err != nil {
		return err
	}
	if l.Account == nil {
		return validationError("receivable invoice line item has no account")
	}
	if !l.Account.IsCategory(domain.Revenue) || !l.Account.IsCredit() {
		return validationError("account chosen must have category REVENUE and type CREDIT")
	}
	return nil
}

// PayableInvoice is money the organization owes.
type PayableInvoice struct {
	invoiceBase
	LineItems []*PayableInvoiceLineItem `json:"lineItems,omitempty"`
}

var (
	_ ledger.Journaler           = (*PayableInvoice)(nil)
	_ ledger.ContributorManifest = (*PayableInvoice)(nil)
)

func (inv *PayableInvoice) Kind() string { return KindPayableInvoice }

func (inv *PayableInvoice) AbsoluteURL() string {
	return ledger.AdminURL(KindPayableInvoice, inv.ID)
}

func (inv *PayableInvoice) Contributors() []ledger.Collection {
	return []ledger.Collection{
		ledger.Collect("payable_invoice_line_items", inv.LineItems),
	}
}

func (inv *PayableInvoice) CreateJournalEntry(ctx context.Context, bc *ledger.BatchContext) error {
	je, err := inv.open(bc, inv, domain.AcctLiabilityPayable)
	if err != nil {
		return fmt.Errorf("payable invoice %d: %w", inv.ID, err)
	}
	if err := ledger.ContributeChildren(ctx, bc, inv, ledger.RealEntry{Entry: je}); err != nil {
		return fmt.Errorf("payable invoice %d: %w", inv.ID, err)
	}
	return bc.Batch(ctx, je)
}

func (inv *PayableInvoice) Checksum() decimal.Decimal {
	return sumInvoiceLines(inv.LineItems)
}

func (inv *PayableInvoice) Validate() error {
	if err := validateStruct("payable invoice", inv); err != nil {
		return err
	}
	return inv.validateParty()
}

func (inv *PayableInvoice) DBCheck() error {
	if sum := inv.Checksum(); !sum.Equal(inv.Amount) {
		return &ChecksumError{Kind: KindPayableInvoice, ID: inv.ID, Stated: inv.Amount, Computed: sum}
	}
	return nil
}

func (inv *PayableInvoice) String() string {
	return fmt.Sprintf("Payable Invoice #%d", inv.ID)
}

// PayableInvoiceLineItem is something the organization was billed for,
// charged to an expense or asset account.
type PayableInvoiceLineItem struct {
	invoiceLine
}

var _ ledger.JournalLiner = (*PayableInvoiceLineItem)(nil)

func (l *PayableInvoiceLineItem) ContributeLineItems(_ context.Context, _ *ledger.BatchContext, target ledger.EntryTarget) error {
	return l.contribute(target, "payable invoice line item")
}

func (l *PayableInvoiceLineItem) Validate() error {
	if err := validateStruct("payable invoice line item", l); err != nil {
		return err
	}
	if l.Account == nil {
		return validationError("payable invoice line item has no account")
	}
	if !l.Account.IsCategory(domain.Expense, domain.Asset) || !l.Account.IsDebit() {
		return validationError("account chosen must have category EXPENSE or ASSET and type DEBIT")
	}
	return nil
}
