package mapping

import (
	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/SscSPs/org_books/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to a model JournalEntry
func ToModelJournalEntry(d *domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		ID:        d.ID,
		SourceURL: d.SourceURL,
		WhenDate:  d.When,
		Frozen:    d.Frozen,
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry
// without line items.
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		ID:        m.ID,
		SourceURL: m.SourceURL,
		When:      m.WhenDate,
		Frozen:    m.Frozen,
	}
}

// ToModelLineItem converts a domain line item to a model line item
func ToModelLineItem(d *domain.JournalEntryLineItem) models.JournalEntryLineItem {
	return models.JournalEntryLineItem{
		ID:             d.ID,
		JournalEntryID: d.JournalEntryID,
		AccountID:      d.AccountID,
		Action:         string(d.Action),
		Amount:         d.Amount,
		Description:    d.Description,
	}
}

// ToDomainLineItem converts a model line item to a domain line item. The
// account is attached when known; IsCredit needs it.
func ToDomainLineItem(m models.JournalEntryLineItem, acct *domain.Account) domain.JournalEntryLineItem {
	return domain.JournalEntryLineItem{
		ID:             m.ID,
		JournalEntryID: m.JournalEntryID,
		AccountID:      m.AccountID,
		Account:        acct,
		Action:         domain.Action(m.Action),
		Amount:         m.Amount,
		Description:    m.Description,
	}
}
