package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of the journal_entries table.
type JournalEntry struct {
	ID        int64     `db:"id"`
	SourceURL string    `db:"source_url"`
	WhenDate  time.Time `db:"when_date"`
	Frozen    bool      `db:"frozen"`
}

// JournalEntryLineItem is a row of the journal_entry_line_items table.
type JournalEntryLineItem struct {
	ID             int64           `db:"id"`
	JournalEntryID int64           `db:"journal_entry_id"`
	AccountID      int64           `db:"account_id"`
	Action         string          `db:"action"` // > or <
	Amount         decimal.Decimal `db:"amount"`
	Description    string          `db:"description"`
}
