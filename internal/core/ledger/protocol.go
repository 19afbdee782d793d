// Package ledger turns transactions into journal entries: the contributor
// and root protocols, the entry target variants and the batching engine.
package ledger

import (
	"context"
	"fmt"

	"github.com/SscSPs/org_books/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EntryTarget tells a contributor where its line items go.
// It is either a RealEntry or a DeferredPerLineEntry.
type EntryTarget interface {
	isEntryTarget()
}

// RealEntry is a shared entry assembled by a transaction root. Contributors
// append to its pre-batch list and never batch it themselves.
type RealEntry struct {
	Entry *domain.JournalEntry
}

// DeferredPerLineEntry asks every contributor to build, fill and batch an
// entry of its own. Expense claims use it: each claim line becomes one entry
// dated at the line's expense date.
type DeferredPerLineEntry struct {
	SourceURL string
}

func (RealEntry) isEntryTarget()            {}
func (DeferredPerLineEntry) isEntryTarget() {}

// JournalLiner is implemented by detail records that add line items to
// someone else's entry.
type JournalLiner interface {
	ContributeLineItems(ctx context.Context, bc *BatchContext, target EntryTarget) error
}

// Journaler is implemented by transaction roots that head their own entry.
type Journaler interface {
	// Kind names the root type, e.g. "sale".
	Kind() string
	// AbsoluteURL is the stable reference stored as the entry's source.
	AbsoluteURL() string
	// CreateJournalEntry builds the root's entry, pulls in contributions
	// from its children and hands the result to bc.
	CreateJournalEntry(ctx context.Context, bc *BatchContext) error
}

// ContributorManifest is implemented by roots that own contributor
// collections. The order of the returned collections is the order in which
// they contribute.
type ContributorManifest interface {
	Contributors() []Collection
}

// Collection is one named group of contributors owned by a root.
type Collection struct {
	Name  string
	Items []JournalLiner
}

// Collect builds a Collection from a typed slice. The type parameter makes
// the compiler check that every collection a root declares really holds
// contributors.
func Collect[T JournalLiner](name string, items []T) Collection {
	liners := make([]JournalLiner, len(items))
	for i, item := range items {
		liners[i] = item
	}
	return Collection{Name: name, Items: liners}
}

// ContributeChildren asks every contributor in m's manifest to add its line
// items to target.
func ContributeChildren(ctx context.Context, bc *BatchContext, m ContributorManifest, target EntryTarget) error {
	for _, coll := range m.Contributors() {
		for i, child := range coll.Items {
			if err := child.ContributeLineItems(ctx, bc, target); err != nil {
				return fmt.Errorf("%s[%d]: %w", coll.Name, i, err)
			}
		}
	}
	return nil
}

// PrebatchLine creates a line item on acct and queues it on je.
func PrebatchLine(je *domain.JournalEntry, acct *domain.Account, action domain.Action, amount decimal.Decimal) error {
	li, err := domain.NewLineItem(acct, action, amount)
	if err != nil {
		return err
	}
	je.Prebatch(li)
	return nil
}

// AdminURL is the reference format used for journal entry sources.
func AdminURL(kind string, id int64) string {
	return fmt.Sprintf("/admin/books/%s/%d/change/", kind, id)
}
