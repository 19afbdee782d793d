package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a row of the sales table.
type Sale struct {
	ID                  int64           `db:"id"`
	SaleDate            time.Time       `db:"sale_date"`
	DepositDate         *time.Time      `db:"deposit_date"`
	PayerUserID         *int64          `db:"payer_user_id"`
	PayerName           string          `db:"payer_name"`
	PayerEmail          string          `db:"payer_email"`
	PaymentMethod       string          `db:"payment_method"`
	MethodDetail        string          `db:"method_detail"`
	TotalPaidByCustomer decimal.Decimal `db:"total_paid_by_customer"`
	ProcessingFee       decimal.Decimal `db:"processing_fee"`
	FeePayer            string          `db:"fee_payer"` // N, C or U
	Ctrlid              string          `db:"ctrlid"`
	Protected           bool            `db:"protected"`
}

// OtherItem is a row of other_items joined to its item type.
type OtherItem struct {
	ID               int64           `db:"id"`
	SaleID           int64           `db:"sale_id"`
	TypeID           int64           `db:"type_id"`
	TypeName         string          `db:"type_name"`
	TypeDescription  string          `db:"type_description"`
	RevenueAccountID *int64          `db:"revenue_account_id"`
	SalePrice        decimal.Decimal `db:"sale_price"`
	QtySold          int64           `db:"qty_sold"`
	Ctrlid           string          `db:"ctrlid"`
	Protected        bool            `db:"protected"`
}

// MonetaryDonation is a row of the monetary_donations table.
type MonetaryDonation struct {
	ID               int64           `db:"id"`
	SaleID           int64           `db:"sale_id"`
	Amount           decimal.Decimal `db:"amount"`
	EarmarkAccountID *int64          `db:"earmark_account_id"`
	RewardID         *int64          `db:"reward_id"`
	Ctrlid           string          `db:"ctrlid"`
	Protected        bool            `db:"protected"`
}

// InvoiceReference is a row of receivable_invoice_references or
// payable_invoice_references joined to the invoice's amount. OwnerID is the
// sale or expense transaction making the payment.
type InvoiceReference struct {
	ID            int64            `db:"id"`
	OwnerID       int64            `db:"owner_id"`
	InvoiceID     int64            `db:"invoice_id"`
	InvoiceAmount decimal.Decimal  `db:"invoice_amount"`
	Portion       *decimal.Decimal `db:"portion"`
}

// Invoice is a row of receivable_invoices or payable_invoices.
type Invoice struct {
	ID          int64           `db:"id"`
	UserID      *int64          `db:"user_id"`
	EntityID    *int64          `db:"entity_id"`
	InvoiceDate time.Time       `db:"invoice_date"`
	Description string          `db:"description"`
	Amount      decimal.Decimal `db:"amount"`
}

// InvoiceLineItem is a row of receivable_invoice_line_items or
// payable_invoice_line_items.
type InvoiceLineItem struct {
	ID          int64           `db:"id"`
	InvoiceID   int64           `db:"invoice_id"`
	Description string          `db:"description"`
	AccountID   int64           `db:"account_id"`
	Amount      decimal.Decimal `db:"amount"`
}

// ExpenseClaim is a row of the expense_claims table.
type ExpenseClaim struct {
	ID                  int64           `db:"id"`
	ClaimantID          *int64          `db:"claimant_id"`
	Amount              decimal.Decimal `db:"amount"`
	Submitted           *time.Time      `db:"submitted"`
	Closed              *time.Time      `db:"closed"`
	DonateReimbursement bool            `db:"donate_reimbursement"`
}

// ExpenseLineItem is a row of the expense_line_items table.
type ExpenseLineItem struct {
	ID                   int64           `db:"id"`
	ClaimID              *int64          `db:"claim_id"`
	ExpenseTransactionID *int64          `db:"expense_transaction_id"`
	ReceiptNumber        *int            `db:"receipt_number"`
	ExpenseDate          time.Time       `db:"expense_date"`
	Description          string          `db:"description"`
	Amount               decimal.Decimal `db:"amount"`
	AccountID            int64           `db:"account_id"`
	Approved             bool            `db:"approved"`
}

// ExpenseClaimReference is a row of expense_claim_references joined to the
// claim's amount.
type ExpenseClaimReference struct {
	ID                   int64            `db:"id"`
	ExpenseTransactionID int64            `db:"expense_transaction_id"`
	ClaimID              int64            `db:"claim_id"`
	ClaimAmount          decimal.Decimal  `db:"claim_amount"`
	Portion              *decimal.Decimal `db:"portion"`
}

// ExpenseTransaction is a row of the expense_transactions table.
type ExpenseTransaction struct {
	ID                int64           `db:"id"`
	PaymentDate       *time.Time      `db:"payment_date"`
	RecipientUserID   *int64          `db:"recipient_user_id"`
	RecipientEntityID *int64          `db:"recipient_entity_id"`
	RecipientName     string          `db:"recipient_name"`
	RecipientEmail    string          `db:"recipient_email"`
	AmountPaid        decimal.Decimal `db:"amount_paid"`
	PaymentMethod     string          `db:"payment_method"`
	MethodDetail      string          `db:"method_detail"`
}

// DonationReward is a row of the monetary_donation_rewards table.
type DonationReward struct {
	ID           int64           `db:"id"`
	Name         string          `db:"name"`
	MinDonation  decimal.Decimal `db:"min_donation"`
	CostToOrg    decimal.Decimal `db:"cost_to_org"`
	FairMktValue decimal.Decimal `db:"fair_mkt_value"`
	Description  string          `db:"description"`
}

// Campaign is a row of the campaigns table.
type Campaign struct {
	ID           int64           `db:"id"`
	Name         string          `db:"name"`
	IsActive     bool            `db:"is_active"`
	IsPublic     bool            `db:"is_public"`
	TargetAmount decimal.Decimal `db:"target_amount"`
	AccountID    int64           `db:"account_id"`
	Description  string          `db:"description"`
}
