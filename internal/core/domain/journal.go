package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Action says whether a line item raises or lowers its account's balance.
// "Increase" is a credit for credit-type accounts and a debit for debit-type
// accounts; "Decrease" is the opposite.
type Action string

const (
	Increase Action = ">"
	Decrease Action = "<"
)

func (a Action) String() string {
	switch a {
	case Increase:
		return "Increase"
	case Decrease:
		return "Decrease"
	default:
		return "?"
	}
}

// JournalEntry is one economic event. It is generated (and regenerated) from
// the transactions that gave rise to it; SourceURL points back at them.
type JournalEntry struct {
	ID        int64                  `json:"id"` // 0 until persisted
	SourceURL string                 `json:"sourceURL"`
	When      time.Time              `json:"when"`
	Frozen    bool                   `json:"frozen"` // frozen entries survive regeneration
	LineItems []JournalEntryLineItem `json:"lineItems,omitempty"`

	// Line items waiting for this entry to receive an ID.
	prebatched []*JournalEntryLineItem
}

// NewJournalEntry creates an unsaved entry.
func NewJournalEntry(when time.Time, sourceURL string) *JournalEntry {
	return &JournalEntry{When: when, SourceURL: sourceURL}
}

// Prebatch queues a line item until the entry has been persisted.
func (e *JournalEntry) Prebatch(li *JournalEntryLineItem) *JournalEntryLineItem {
	e.prebatched = append(e.prebatched, li)
	return li
}

// PrebatchedLineItems returns the line items still waiting for the entry's ID.
func (e *JournalEntry) PrebatchedLineItems() []*JournalEntryLineItem {
	return e.prebatched
}

// ProcessPrebatch stamps the entry's ID on every waiting line item and hands
// them back, leaving the pre-batch list empty. It must only be called after
// the entry was assigned an ID.
func (e *JournalEntry) ProcessPrebatch() []*JournalEntryLineItem {
	lines := e.prebatched
	for _, li := range lines {
		li.JournalEntryID = e.ID
	}
	e.prebatched = nil
	return lines
}

// DebitsAndCredits totals the persisted line items per side.
func (e *JournalEntry) DebitsAndCredits() (totalDebits, totalCredits decimal.Decimal) {
	totalDebits, totalCredits = decimal.Zero, decimal.Zero
	for i := range e.LineItems {
		line := &e.LineItems[i]
		if line.IsCredit() {
			totalCredits = totalCredits.Add(line.Amount)
		} else {
			totalDebits = totalDebits.Add(line.Amount)
		}
	}
	return totalDebits, totalCredits
}

// PendingDebitsAndCredits totals the pre-batched line items per side.
func (e *JournalEntry) PendingDebitsAndCredits() (totalDebits, totalCredits decimal.Decimal) {
	totalDebits, totalCredits = decimal.Zero, decimal.Zero
	for _, line := range e.prebatched {
		if line.IsCredit() {
			totalCredits = totalCredits.Add(line.Amount)
		} else {
			totalDebits = totalDebits.Add(line.Amount)
		}
	}
	return totalDebits, totalCredits
}

// CheckBalance is the after-the-fact consistency check on persisted lines.
func (e *JournalEntry) CheckBalance() error {
	debits, credits := e.DebitsAndCredits()
	if !debits.Equal(credits) {
		return &ImbalanceError{EntryID: e.ID, SourceURL: e.SourceURL, Debits: debits, Credits: credits}
	}
	return nil
}

func (e *JournalEntry) String() string {
	return fmt.Sprintf("Journal Entry #%d dated %s", e.ID, e.When.Format(time.DateOnly))
}

// JournalEntryLineItem is one account movement within an entry.
type JournalEntryLineItem struct {
	ID             int64           `json:"id"`
	JournalEntryID int64           `json:"journalEntryID"`
	AccountID      int64           `json:"accountID"`
	Account        *Account        `json:"-"`
	Action         Action          `json:"action"`
	Amount         decimal.Decimal `json:"amount"` // always >= 0
	Description    string          `json:"description,omitempty"`
}

// NewLineItem builds a line item for acct. Amounts are magnitudes; direction
// is carried by action alone.
func NewLineItem(acct *Account, action Action, amount decimal.Decimal) (*JournalEntryLineItem, error) {
	if acct == nil {
		return nil, apperrors.ErrAccountMissing
	}
	if action != Increase && action != Decrease {
		return nil, fmt.Errorf("%w: unknown line item action %q", apperrors.ErrValidation, action)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: line item amount %s for account %q is negative", apperrors.ErrValidation, amount, acct.Name)
	}
	return &JournalEntryLineItem{
		AccountID: acct.ID,
		Account:   acct,
		Action:    action,
		Amount:    amount,
	}, nil
}

// IsCredit reports whether the line is a credit in traditional terms.
func (li *JournalEntryLineItem) IsCredit() bool {
	if li.Account == nil {
		return false
	}
	switch li.Account.Type {
	case Credit:
		return li.Action == Increase
	case Debit:
		return li.Action == Decrease
	}
	return false
}

// IsDebit is always the negation of IsCredit.
func (li *JournalEntryLineItem) IsDebit() bool {
	return !li.IsCredit()
}

func (li *JournalEntryLineItem) String() string {
	side := "dr"
	if li.IsCredit() {
		side = "cr"
	}
	name := "?"
	if li.Account != nil {
		name = li.Account.Name
	}
	return fmt.Sprintf("Line Item #%d, %s '%s', $%s %s", li.ID, li.Action, name, li.Amount.StringFixed(2), side)
}

// ImbalanceError reports an entry whose debits and credits differ.
type ImbalanceError struct {
	EntryID   int64
	SourceURL string
	Debits    decimal.Decimal
	Credits   decimal.Decimal
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("total credits do not equal total debits for entry %d (dr %s != cr %s)",
		e.EntryID, e.Debits.StringFixed(2), e.Credits.StringFixed(2))
}

func (e *ImbalanceError) Is(target error) bool {
	return target == apperrors.ErrImbalance
}

// EntryBalance is an entry's per-side totals as computed by storage.
type EntryBalance struct {
	EntryID   int64           `json:"entryID"`
	SourceURL string          `json:"sourceURL"`
	When      time.Time       `json:"when"`
	Debits    decimal.Decimal `json:"debits"`
	Credits   decimal.Decimal `json:"credits"`
}

// Balanced reports whether both sides agree.
func (b EntryBalance) Balanced() bool {
	return b.Debits.Equal(b.Credits)
}
