// Package books holds the organization's transaction types and the rules by
// which each of them debits and credits the ledger.
package books

import (
	"fmt"
	"unicode"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/core/ledger"
	"github.com/shopspring/decimal"
)

// Kinds of transaction roots, as used in source URLs and the registry.
const (
	KindSale               = "sale"
	KindReceivableInvoice  = "receivableinvoice"
	KindPayableInvoice     = "payableinvoice"
	KindExpenseClaim       = "expenseclaim"
	KindExpenseTransaction = "expensetransaction"
)

// PaymentMethod is how money changed hands.
type PaymentMethod string

const (
	PaidByCash     PaymentMethod = "$"
	PaidByCheck    PaymentMethod = "C"
	PaidBySquare   PaymentMethod = "S"
	PaidBy2CO      PaymentMethod = "2"
	PaidByWePay    PaymentMethod = "W"
	PaidByPayPal   PaymentMethod = "P"
	PaidByGoFundMe PaymentMethod = "G"
	PaidByXfer     PaymentMethod = "X" // electronic transfer
)

var paymentMethodNames = map[PaymentMethod]string{
	PaidByCash:     "Cash",
	PaidByCheck:    "Check",
	PaidBySquare:   "Square",
	PaidBy2CO:      "2Checkout",
	PaidByWePay:    "WePay",
	PaidByPayPal:   "PayPal",
	PaidByGoFundMe: "GoFundMe",
	PaidByXfer:     "Electronic",
}

func (m PaymentMethod) String() string {
	if name, ok := paymentMethodNames[m]; ok {
		return name
	}
	return string(m)
}

// ChecksumError reports a transaction whose stated total differs from the
// sum of its details.
type ChecksumError struct {
	Kind     string
	ID       int64
	Stated   decimal.Decimal
	Computed decimal.Decimal
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("total of line items (%s) must match amount of %s #%d (%s)",
		e.Computed.StringFixed(2), e.Kind, e.ID, e.Stated.StringFixed(2))
}

// Is makes a ChecksumError match both ErrChecksum and ErrValidation.
func (e *ChecksumError) Is(target error) bool {
	return target == apperrors.ErrChecksum || target == apperrors.ErrValidation
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{apperrors.ErrValidation}, args...)...)
}

func validateStruct(what string, v any) error {
	if err := domain.Validator().Struct(v); err != nil {
		return validationError("%s: %s", what, err.Error())
	}
	return nil
}

// checkMethodDetail enforces the detail rules shared by sales and expenses.
func checkMethodDetail(method PaymentMethod, detail string) error {
	if method == PaidByCheck && detail != "" && !isNumeric(detail) {
		return validationError("detail for check payments should only be the bare check number without # or other text")
	}
	if method == PaidByCash && detail != "" {
		return validationError("cash payments shouldn't have detail, cash is cash")
	}
	return nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

// portionOr returns the portion when one was given, else the full amount.
func portionOr(portion *decimal.Decimal, full decimal.Decimal) decimal.Decimal {
	if portion != nil {
		return *portion
	}
	return full
}

// sharedEntry unwraps a RealEntry target. Contributors that only ever join
// a root's own entry use it.
func sharedEntry(target ledger.EntryTarget, who string) (*domain.JournalEntry, error) {
	re, ok := target.(ledger.RealEntry)
	if !ok || re.Entry == nil {
		return nil, fmt.Errorf("%w: %s can only contribute to a real journal entry", apperrors.ErrValidation, who)
	}
	return re.Entry, nil
}
