package dto

import (
	"time"

	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RegenerateRequest defines the options for a regeneration run.
type RegenerateRequest struct {
	// DryRun builds every entry without touching stored journal data.
	DryRun bool `json:"dryRun"`
}

// RootFailure describes a transaction that could not be journaled.
type RootFailure struct {
	Kind      string `json:"kind"`
	SourceURL string `json:"sourceURL"`
	Error     string `json:"error"`
}

// RegenerationReport summarises a regeneration run.
type RegenerationReport struct {
	RunID           string                `json:"runID"`
	DryRun          bool                  `json:"dryRun"`
	StartedAt       time.Time             `json:"startedAt"`
	FinishedAt      time.Time             `json:"finishedAt"`
	DeletedEntries  int64                 `json:"deletedEntries"`
	RootsByKind     map[string]int        `json:"rootsByKind"`
	SkippedFrozen   []string              `json:"skippedFrozen,omitempty"`
	Failures        []RootFailure         `json:"failures,omitempty"`
	MissingAccounts []string              `json:"missingAccounts,omitempty"`
	EntriesWritten  int                   `json:"entriesWritten"`
	LinesWritten    int                   `json:"linesWritten"`
	EntryFlushes    int                   `json:"entryFlushes"`
	LineFlushes     int                   `json:"lineFlushes"`
	TotalDebits     decimal.Decimal       `json:"totalDebits"`
	TotalCredits    decimal.Decimal       `json:"totalCredits"`
	Unbalanced      []domain.EntryBalance `json:"unbalanced"`
}

// DBCheckFinding is one inconsistency found by a database check.
type DBCheckFinding struct {
	Kind      string `json:"kind"`
	Reference string `json:"reference"`
	Problem   string `json:"problem"`
}

// DBCheckReport is the result of a database check.
type DBCheckReport struct {
	CheckedEntries int              `json:"checkedEntries"`
	CheckedRoots   int              `json:"checkedRoots"`
	CheckedRecords int              `json:"checkedRecords"`
	Findings       []DBCheckFinding `json:"findings"`
}

// Clean reports whether the check found nothing.
func (r *DBCheckReport) Clean() bool {
	return len(r.Findings) == 0
}
