package books

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// FeePayer says who bore a payment processor's fee.
type FeePayer string

const (
	FeePaidByNobody   FeePayer = "N"
	FeePaidByCustomer FeePayer = "C"
	FeePaidByUs       FeePayer = "U"
)

// ReconciliationMode names the way a sale's detail total matched its amount.
// Both shapes occur in historical data.
type ReconciliationMode string

const (
	// ReconcileGross: details add up to everything the customer paid.
	ReconcileGross ReconciliationMode = "gross"
	// ReconcileNet: details add up to what was left after the processing fee.
	ReconcileNet ReconciliationMode = "net"
)

// Sale is an income transaction: money received from a customer, made up of
// items sold, donations and payments against receivable invoices.
type Sale struct {
	ID          int64      `json:"id"`
	SaleDate    time.Time  `json:"saleDate" validate:"required"`
	DepositDate *time.Time `json:"depositDate,omitempty"`

	PayerUserID *int64 `json:"payerUserID,omitempty"`
	PayerName   string `json:"payerName" validate:"max=40"`
	PayerEmail  string `json:"payerEmail" validate:"omitempty,email,max=40"`

	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=$ C S 2 W P G"`
	MethodDetail  string        `json:"methodDetail" validate:"max=40"`

	// TotalPaidByCustomer includes the processing fee only if the customer paid it.
	TotalPaidByCustomer decimal.Decimal `json:"totalPaidByCustomer" validate:"gte=0"`
	// ProcessingFee is recorded regardless of who paid it.
	ProcessingFee decimal.Decimal `json:"processingFee" validate:"gte=0"`
	FeePayer      FeePayer        `json:"feePayer" validate:"required,oneof=N C U"`

	Ctrlid    string `json:"ctrlid" validate:"max=40"`
	Protected bool   `json:"protected"`

	OtherItems        []*OtherItem                  `json:"otherItems,omitempty"`
	MonetaryDonations []*MonetaryDonation           `json:"monetaryDonations,omitempty"`
	InvoiceReferences []*ReceivableInvoiceReference `json:"invoiceReferences,omitempty"`
}

var (
	_ ledger.Journaler           = (*Sale)(nil)
	_ ledger.ContributorManifest = (*Sale)(nil)
)

func (s *Sale) Kind() string { return KindSale }

func (s *Sale) AbsoluteURL() string { return ledger.AdminURL(KindSale, s.ID) }

// Contributors lists the sale's own detail records. Invoice references are
// included: the sale is the paying side.
func (s *Sale) Contributors() []ledger.Collection {
	return []ledger.Collection{
		ledger.Collect("other_items", s.OtherItems),
		ledger.Collect("monetary_donations", s.MonetaryDonations),
		ledger.Collect("receivable_invoice_references", s.InvoiceReferences),
	}
}

// CreateJournalEntry records the cash received and, when the organization
// absorbed the processing fee, the fee as a business expense.
func (s *Sale) CreateJournalEntry(ctx context.Context, bc *ledger.BatchContext) error {
	cash, err := bc.Chart().Require(domain.AcctAssetCash)
	if err != nil {
		return fmt.Errorf("sale %d: %w", s.ID, err)
	}
	je := domain.NewJournalEntry(s.SaleDate, bc.SourceURL(s))
	if err := ledger.PrebatchLine(je, cash, domain.Increase, s.TotalPaidByCustomer.Sub(s.ProcessingFee)); err != nil {
		return fmt.Errorf("sale %d: %w", s.ID, err)
	}
	if s.ProcessingFee.IsPositive() && s.FeePayer == FeePaidByUs {
		business, err := bc.Chart().Require(domain.AcctExpenseBusiness)
		if err != nil {
			return fmt.Errorf("sale %d: %w", s.ID, err)
		}
		if err := ledger.PrebatchLine(je, business, domain.Increase, s.ProcessingFee); err != nil {
			return fmt.Errorf("sale %d: %w", s.ID, err)
		}
	}
	if err := ledger.ContributeChildren(ctx, bc, s, ledger.RealEntry{Entry: je}); err != nil {
		return fmt.Errorf("sale %d: %w", s.ID, err)
	}
	return bc.Batch(ctx, je)
}

// Checksum is the sum of every detail's line total.
func (s *Sale) Checksum() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.OtherItems {
		total = total.Add(item.LineTotal())
	}
	for _, don := range s.MonetaryDonations {
		total = total.Add(don.Amount)
	}
	for _, ref := range s.InvoiceReferences {
		total = total.Add(ref.PaidAmount())
	}
	return total
}

// Reconcile reports which shape the sale's details match.
func (s *Sale) Reconcile() (ReconciliationMode, error) {
	sum := s.Checksum()
	switch {
	case sum.Equal(s.TotalPaidByCustomer):
		return ReconcileGross, nil
	case sum.Equal(s.TotalPaidByCustomer.Sub(s.ProcessingFee)):
		return ReconcileNet, nil
	}
	return "", &ChecksumError{Kind: KindSale, ID: s.ID, Stated: s.TotalPaidByCustomer, Computed: sum}
}

// DBCheck verifies that the sale's details add up in either mode.
func (s *Sale) DBCheck() error {
	_, err := s.Reconcile()
	return err
}

// Validate checks the sale's fields. A zero fee always means nobody paid
// one; the fee payer is set accordingly rather than reported.
func (s *Sale) Validate() error {
	if s.ProcessingFee.IsZero() && s.FeePayer != FeePaidByNobody {
		s.FeePayer = FeePaidByNobody
	}
	if err := validateStruct("sale", s); err != nil {
		return err
	}
	if s.DepositDate != nil && s.DepositDate.Before(s.SaleDate) {
		return validationError("deposit date cannot be earlier than sale date")
	}
	return checkMethodDetail(s.PaymentMethod, s.MethodDetail)
}

func (s *Sale) String() string {
	date := s.SaleDate.Format(time.DateOnly)
	switch {
	case s.PayerName != "":
		return fmt.Sprintf("%s sale to %s", date, s.PayerName)
	case s.PayerUserID != nil:
		return fmt.Sprintf("%s sale to user %d", date, *s.PayerUserID)
	case s.PayerEmail != "":
		return fmt.Sprintf("%s sale to %s", date, s.PayerEmail)
	}
	return fmt.Sprintf("%s sale", date)
}

// OtherItemType is a kind of merchandise: soda, bumper stickers, materials.
type OtherItemType struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name" validate:"required,max=40"`
	Description    string          `json:"description" validate:"max=1024"`
	RevenueAccount *domain.Account `json:"revenueAccount,omitempty"`
}

// OtherItem is merchandise sold as part of a sale.
type OtherItem struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"saleID"`
	Type      *OtherItemType  `json:"type"`
	SalePrice decimal.Decimal `json:"salePrice"` // unit price
	QtySold   int64           `json:"qtySold"`
	Ctrlid    string          `json:"ctrlid"`
	Protected bool            `json:"protected"`
}

var _ ledger.JournalLiner = (*OtherItem)(nil)

// LineTotal is unit price times quantity.
func (o *OtherItem) LineTotal() decimal.Decimal {
	return o.SalePrice.Mul(decimal.NewFromInt(o.QtySold))
}

func (o *OtherItem) ContributeLineItems(_ context.Context, _ *ledger.BatchContext, target ledger.EntryTarget) error {
	je, err := sharedEntry(target, "other item")
	if err != nil {
		return err
	}
	var revenue *domain.Account
	if o.Type != nil {
		revenue = o.Type.RevenueAccount
	}
	if err := ledger.PrebatchLine(je, revenue, domain.Increase, o.LineTotal()); err != nil {
		return fmt.Errorf("other item %d: %w", o.ID, err)
	}
	return nil
}

// MonetaryDonation is money donated as part of a sale.
type MonetaryDonation struct {
	ID               int64           `json:"id"`
	SaleID           int64           `json:"saleID"`
	Amount           decimal.Decimal `json:"amount"`
	EarmarkAccountID *int64          `json:"earmarkAccountID,omitempty"`
	RewardID         *int64          `json:"rewardID,omitempty"`
	Ctrlid           string          `json:"ctrlid"`
	Protected        bool            `json:"protected"`
}

var _ ledger.JournalLiner = (*MonetaryDonation)(nil)

func (d *MonetaryDonation) ContributeLineItems(_ context.Context, bc *ledger.BatchContext, target ledger.EntryTarget) error {
	je, err := sharedEntry(target, "monetary donation")
	if err != nil {
		return err
	}
	revenue, err := bc.Chart().Require(domain.AcctRevenueDonation)
	if err != nil {
		return err
	}
	return ledger.PrebatchLine(je, revenue, domain.Increase, d.Amount)
}

func (d *MonetaryDonation) String() string {
	return "$" + d.Amount.StringFixed(2)
}

// ReceivableInvoiceReference records a sale paying a receivable invoice,
// fully or in part. It belongs to the sale's entry, not the invoice's.
type ReceivableInvoiceReference struct {
	ID        int64 `json:"id"`
	SaleID    int64 `json:"saleID"`
	InvoiceID int64 `json:"invoiceID"`
	// InvoiceAmount is the referenced invoice's total.
	InvoiceAmount decimal.Decimal `json:"invoiceAmount"`
	// Portion is set only when the sale pays part of the invoice.
	Portion *decimal.Decimal `json:"portion,omitempty"`
}

var _ ledger.JournalLiner = (*ReceivableInvoiceReference)(nil)

// PaidAmount is the portion, or the whole invoice when no portion was given.
func (r *ReceivableInvoiceReference) PaidAmount() decimal.Decimal {
	return portionOr(r.Portion, r.InvoiceAmount)
}

func (r *ReceivableInvoiceReference) ContributeLineItems(_ context.Context, bc *ledger.BatchContext, target ledger.EntryTarget) error {
	je, err := sharedEntry(target, "receivable invoice reference")
	if err != nil {
		return err
	}
	receivable, err := bc.Chart().Require(domain.AcctAssetReceivable)
	if err != nil {
		return err
	}
	return ledger.PrebatchLine(je, receivable, domain.Decrease, r.PaidAmount())
}
