// Package memory implements the repositories in process memory. It backs
// dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/domain"
	portsrepo "github.com/SscSPs/org_books/internal/core/ports/repositories"
	"github.com/SscSPs/org_books/internal/models"
	"github.com/SscSPs/org_books/internal/utils/mapping"
	"github.com/SscSPs/org_books/internal/utils/pagination"
)

// Store holds accounts and journal data. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	accounts      map[int64]models.Account
	nextAccountID int64

	entries     map[int64]models.JournalEntry
	lines       map[int64][]models.JournalEntryLineItem // by entry ID
	lineAccts   map[int64]*domain.Account               // accounts seen on inserted lines
	nextEntryID int64
	nextLineID  int64

	entryBatches []int
	lineBatches  []int

	locked bool
}

var (
	_ portsrepo.AccountRepositoryFacade = (*Store)(nil)
	_ portsrepo.JournalRepositoryFacade = (*Store)(nil)
)

// NewStore creates an empty store holding accts.
func NewStore(accts ...domain.Account) *Store {
	s := &Store{
		accounts:  make(map[int64]models.Account),
		entries:   make(map[int64]models.JournalEntry),
		lines:     make(map[int64][]models.JournalEntryLineItem),
		lineAccts: make(map[int64]*domain.Account),
	}
	for i := range accts {
		_ = s.SaveAccount(context.Background(), &accts[i])
	}
	return s
}

func (s *Store) FindAccountByID(_ context.Context, accountID int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.accounts[accountID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	acct := mapping.ToDomainAccount(m)
	return &acct, nil
}

func (s *Store) FindAccountByName(_ context.Context, name string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.accounts {
		if m.Name == name {
			acct := mapping.ToDomainAccount(m)
			return &acct, nil
		}
	}
	return nil, fmt.Errorf("%w: account %q", apperrors.ErrNotFound, name)
}

func (s *Store) ListAccounts(_ context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Account, 0, len(s.accounts))
	for _, m := range s.accounts {
		out = append(out, mapping.ToDomainAccount(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SaveAccount stores a new account. Names are unique. An account without an
// ID is given the next free one.
func (s *Store) SaveAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.accounts {
		if m.Name == account.Name {
			return fmt.Errorf("%w: account %q already exists", apperrors.ErrDuplicate, account.Name)
		}
	}
	if account.ID == 0 {
		s.nextAccountID++
		account.ID = s.nextAccountID
	} else if account.ID > s.nextAccountID {
		s.nextAccountID = account.ID
	}
	if _, ok := s.accounts[account.ID]; ok {
		return fmt.Errorf("%w: account id %d already exists", apperrors.ErrDuplicate, account.ID)
	}
	s.accounts[account.ID] = mapping.ToModelAccount(*account)
	return nil
}

// InsertJournalEntries stores the entries and assigns their IDs.
func (s *Store) InsertJournalEntries(ctx context.Context, entries []*domain.JournalEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, je := range entries {
		s.nextEntryID++
		je.ID = s.nextEntryID
		s.entries[je.ID] = mapping.ToModelJournalEntry(je)
	}
	s.entryBatches = append(s.entryBatches, len(entries))
	return nil
}

// InsertJournalEntryLineItems stores the line items and assigns their IDs.
// Every line must belong to a stored entry.
func (s *Store) InsertJournalEntryLineItems(ctx context.Context, lines []*domain.JournalEntryLineItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, li := range lines {
		if _, ok := s.entries[li.JournalEntryID]; !ok {
			return fmt.Errorf("%w: line item refers to missing journal entry %d", apperrors.ErrValidation, li.JournalEntryID)
		}
	}
	for _, li := range lines {
		s.nextLineID++
		li.ID = s.nextLineID
		s.lines[li.JournalEntryID] = append(s.lines[li.JournalEntryID], mapping.ToModelLineItem(li))
		if li.Account != nil {
			s.lineAccts[li.AccountID] = li.Account
		}
	}
	s.lineBatches = append(s.lineBatches, len(lines))
	return nil
}

func (s *Store) DeleteUnfrozenEntries(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, row := range s.entries {
		if row.Frozen {
			continue
		}
		delete(s.entries, id)
		delete(s.lines, id)
		n++
	}
	return n, nil
}

func (s *Store) FrozenSourceURLs(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]struct{})
	for _, row := range s.entries {
		if row.Frozen {
			out[row.SourceURL] = struct{}{}
		}
	}
	return out, nil
}

// Freeze marks an entry frozen so that regeneration keeps it.
func (s *Store) Freeze(entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.entries[entryID]
	if !ok {
		return apperrors.ErrNotFound
	}
	row.Frozen = true
	s.entries[entryID] = row
	return nil
}

func (s *Store) FindEntryByID(_ context.Context, entryID int64) (*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.entries[entryID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	je := s.entryWithLines(row)
	return &je, nil
}

func (s *Store) ListEntries(_ context.Context, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	rows := s.sortedEntries()
	s.mu.RUnlock()

	if nextToken != nil && *nextToken != "" {
		cursorWhen, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", err)
		}
		kept := rows[:0]
		for _, row := range rows {
			if pagination.After(row.WhenDate, row.ID, cursorWhen, cursorID) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	var next *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		token := pagination.EncodeToken(last.WhenDate, last.ID)
		next = &token
	}
	out := make([]domain.JournalEntry, len(rows))
	for i, row := range rows {
		out[i] = mapping.ToDomainJournalEntry(row)
	}
	return out, next, nil
}

func (s *Store) ListEntriesWithLines(_ context.Context) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.sortedEntries()
	out := make([]domain.JournalEntry, len(rows))
	for i, row := range rows {
		out[i] = s.entryWithLines(row)
	}
	return out, nil
}

func (s *Store) FindUnbalancedEntries(ctx context.Context) ([]domain.EntryBalance, error) {
	entries, err := s.ListEntriesWithLines(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.EntryBalance
	for i := range entries {
		debits, credits := entries[i].DebitsAndCredits()
		if debits.Equal(credits) {
			continue
		}
		out = append(out, domain.EntryBalance{
			EntryID:   entries[i].ID,
			SourceURL: entries[i].SourceURL,
			When:      entries[i].When,
			Debits:    debits,
			Credits:   credits,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryID < out[j].EntryID })
	return out, nil
}

func (s *Store) TryLockRegeneration(_ context.Context) (func(context.Context) error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return nil, fmt.Errorf("%w: regeneration already in progress", apperrors.ErrConflict)
	}
	s.locked = true
	return func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.locked = false
		return nil
	}, nil
}

// BatchSizes returns the size of every entry and line item insert so far.
func (s *Store) BatchSizes() (entries, lines []int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int(nil), s.entryBatches...), append([]int(nil), s.lineBatches...)
}

// Counts returns the number of stored entries and line items.
func (s *Store) Counts() (entries, lines int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ls := range s.lines {
		lines += len(ls)
	}
	return len(s.entries), lines
}

// sortedEntries returns the entries newest first. Callers hold the lock.
func (s *Store) sortedEntries() []models.JournalEntry {
	rows := make([]models.JournalEntry, 0, len(s.entries))
	for _, row := range s.entries {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WhenDate.Equal(rows[j].WhenDate) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].WhenDate.After(rows[j].WhenDate)
	})
	return rows
}

// entryWithLines converts a row and attaches its lines. Callers hold the lock.
func (s *Store) entryWithLines(row models.JournalEntry) domain.JournalEntry {
	je := mapping.ToDomainJournalEntry(row)
	for _, lrow := range s.lines[row.ID] {
		je.LineItems = append(je.LineItems, mapping.ToDomainLineItem(lrow, s.accountFor(lrow.AccountID)))
	}
	return je
}

func (s *Store) accountFor(id int64) *domain.Account {
	if m, ok := s.accounts[id]; ok {
		acct := mapping.ToDomainAccount(m)
		return &acct
	}
	return s.lineAccts[id]
}
