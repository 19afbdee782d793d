package dto

import (
	"time"

	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LineItemResponse defines the data returned for a journal entry line item.
type LineItemResponse struct {
	LineItemID  int64           `json:"lineItemID"`
	AccountID   int64           `json:"accountID"`
	AccountName string          `json:"accountName,omitempty"`
	Action      string          `json:"action"` // Increase or Decrease
	Amount      decimal.Decimal `json:"amount"`
	Side        string          `json:"side"` // dr or cr
	Description string          `json:"description,omitempty"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	EntryID   int64              `json:"entryID"`
	SourceURL string             `json:"sourceURL"`
	When      string             `json:"when"`
	Frozen    bool               `json:"frozen"`
	Debits    decimal.Decimal    `json:"debits"`
	Credits   decimal.Decimal    `json:"credits"`
	Balanced  bool               `json:"balanced"`
	LineItems []LineItemResponse `json:"lineItems,omitempty"`
}

// ListEntriesParams defines query parameters for listing journal entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse wraps a page of journal entries.
type ListEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"nextToken,omitempty"`
}

// ToLineItemResponse converts a domain line item to its DTO.
func ToLineItemResponse(li *domain.JournalEntryLineItem) LineItemResponse {
	side := "dr"
	if li.IsCredit() {
		side = "cr"
	}
	res := LineItemResponse{
		LineItemID:  li.ID,
		AccountID:   li.AccountID,
		Action:      li.Action.String(),
		Amount:      li.Amount,
		Side:        side,
		Description: li.Description,
	}
	if li.Account != nil {
		res.AccountName = li.Account.Name
	}
	return res
}

// ToJournalEntryResponse converts a domain.JournalEntry to JournalEntryResponse DTO.
// Totals are computed from the persisted line items.
func ToJournalEntryResponse(je *domain.JournalEntry) JournalEntryResponse {
	debits, credits := je.DebitsAndCredits()
	res := JournalEntryResponse{
		EntryID:   je.ID,
		SourceURL: je.SourceURL,
		When:      je.When.Format(time.DateOnly),
		Frozen:    je.Frozen,
		Debits:    debits,
		Credits:   credits,
		Balanced:  debits.Equal(credits),
	}
	if len(je.LineItems) > 0 {
		res.LineItems = make([]LineItemResponse, len(je.LineItems))
		for i := range je.LineItems {
			res.LineItems[i] = ToLineItemResponse(&je.LineItems[i])
		}
	}
	return res
}

// ToJournalEntryResponses converts a slice of entries.
func ToJournalEntryResponses(entries []domain.JournalEntry) []JournalEntryResponse {
	res := make([]JournalEntryResponse, len(entries))
	for i := range entries {
		res[i] = ToJournalEntryResponse(&entries[i])
	}
	return res
}

// EntryBalanceResponse defines the data returned for an entry's totals.
type EntryBalanceResponse struct {
	EntryID   int64           `json:"entryID"`
	SourceURL string          `json:"sourceURL"`
	When      string          `json:"when"`
	Debits    decimal.Decimal `json:"debits"`
	Credits   decimal.Decimal `json:"credits"`
}

// ToEntryBalanceResponses converts storage-computed entry totals.
func ToEntryBalanceResponses(balances []domain.EntryBalance) []EntryBalanceResponse {
	res := make([]EntryBalanceResponse, len(balances))
	for i, b := range balances {
		res[i] = EntryBalanceResponse{
			EntryID:   b.EntryID,
			SourceURL: b.SourceURL,
			When:      b.When.Format(time.DateOnly),
			Debits:    b.Debits,
			Credits:   b.Credits,
		}
	}
	return res
}

// UnbalancedEntriesResponse is returned by the unbalanced entries report.
type UnbalancedEntriesResponse struct {
	// Source is "persisted" or "last_run".
	Source  string                 `json:"source"`
	RunID   string                 `json:"runID,omitempty"`
	Entries []EntryBalanceResponse `json:"entries"`
}
