package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/org_books/internal/apperrors"
	"github.com/SscSPs/org_books/internal/core/domain"
	portsrepo "github.com/SscSPs/org_books/internal/core/ports/repositories"
	"github.com/SscSPs/org_books/internal/models"
	"github.com/SscSPs/org_books/internal/utils/mapping"
	"github.com/SscSPs/org_books/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// regenerationLockKey is the advisory lock key held for the duration of a
// journal regeneration run.
const regenerationLockKey int64 = 0x6a6f75726e616c // "journal"

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and line items.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

// InsertJournalEntries saves the entries in one round trip and assigns their IDs.
func (r *PgxJournalRepository) InsertJournalEntries(ctx context.Context, entries []*domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // Will be ignored if transaction is committed successfully

	query := `
		INSERT INTO journal_entries (source_url, when_date, frozen)
		VALUES ($1, $2, $3)
		RETURNING id;
	`
	batch := &pgx.Batch{}
	for _, je := range entries {
		m := mapping.ToModelJournalEntry(je)
		batch.Queue(query, m.SourceURL, m.WhenDate, m.Frozen)
	}

	br := tx.SendBatch(ctx, batch)
	for _, je := range entries {
		if err := br.QueryRow().Scan(&je.ID); err != nil {
			br.Close()
			return apperrors.NewAppError(500, "failed to insert journal entry for "+je.SourceURL, err)
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute journal entry batch", err)
	}

	return r.Commit(ctx, tx)
}

// InsertJournalEntryLineItems saves the line items in one round trip and assigns their IDs.
func (r *PgxJournalRepository) InsertJournalEntryLineItems(ctx context.Context, lines []*domain.JournalEntryLineItem) error {
	if len(lines) == 0 {
		return nil
	}
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	query := `
		INSERT INTO journal_entry_line_items (journal_entry_id, account_id, action, amount, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`
	batch := &pgx.Batch{}
	for _, li := range lines {
		m := mapping.ToModelLineItem(li)
		batch.Queue(query, m.JournalEntryID, m.AccountID, m.Action, m.Amount, m.Description)
	}

	br := tx.SendBatch(ctx, batch)
	for _, li := range lines {
		if err := br.QueryRow().Scan(&li.ID); err != nil {
			br.Close()
			return apperrors.NewAppError(500, fmt.Sprintf("failed to insert line item for journal entry %d", li.JournalEntryID), err)
		}
	}
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to execute line item batch", err)
	}

	return r.Commit(ctx, tx)
}

// DeleteUnfrozenEntries removes every entry not marked frozen. Line items go
// with their entry through the foreign key cascade.
func (r *PgxJournalRepository) DeleteUnfrozenEntries(ctx context.Context) (int64, error) {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM journal_entries WHERE NOT frozen;`)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to delete unfrozen journal entries", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgxJournalRepository) FrozenSourceURLs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.Pool.Query(ctx, `SELECT DISTINCT source_url FROM journal_entries WHERE frozen;`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query frozen source urls", err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan frozen source urls", err)
	}
	out := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		out[u] = struct{}{}
	}
	return out, nil
}

// FindEntryByID retrieves an entry and its line items.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID int64) (*domain.JournalEntry, error) {
	query := `
		SELECT id, source_url, when_date, frozen
		FROM journal_entries
		WHERE id = $1;
	`
	var m models.JournalEntry
	err := r.Pool.QueryRow(ctx, query, entryID).Scan(&m.ID, &m.SourceURL, &m.WhenDate, &m.Frozen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to find journal entry %d", entryID), err)
	}

	je := mapping.ToDomainJournalEntry(m)
	lines, err := r.lineItems(ctx, `WHERE li.journal_entry_id = $1`, entryID)
	if err != nil {
		return nil, err
	}
	je.LineItems = lines[entryID]
	return &je, nil
}

// ListEntries retrieves a page of entries, newest first, using keyset pagination.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	args := []any{limit + 1} // Fetch one extra to know whether another page exists
	where := ""
	if nextToken != nil && *nextToken != "" {
		cursorWhen, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", err)
		}
		where = `WHERE (when_date, id) < ($2, $3)`
		args = append(args, cursorWhen, cursorID)
	}

	query := `
		SELECT id, source_url, when_date, frozen
		FROM journal_entries
		` + where + `
		ORDER BY when_date DESC, id DESC
		LIMIT $1;
	`
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list journal entries", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[limit-1]
		token := pagination.EncodeToken(last.When, last.ID)
		next = &token
	}
	return entries, next, nil
}

// ListEntriesWithLines retrieves every entry, newest first, with its line items.
func (r *PgxJournalRepository) ListEntriesWithLines(ctx context.Context) ([]domain.JournalEntry, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, source_url, when_date, frozen
		FROM journal_entries
		ORDER BY when_date DESC, id DESC;
	`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list journal entries", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	lines, err := r.lineItems(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].LineItems = lines[entries[i].ID]
	}
	return entries, nil
}

// FindUnbalancedEntries totals each entry's debits and credits in the database.
func (r *PgxJournalRepository) FindUnbalancedEntries(ctx context.Context) ([]domain.EntryBalance, error) {
	query := `
		SELECT je.id, je.source_url, je.when_date,
		       COALESCE(SUM(CASE WHEN (a.type = 'D') = (li.action = '>') THEN li.amount ELSE 0 END), 0) AS debits,
		       COALESCE(SUM(CASE WHEN (a.type = 'D') <> (li.action = '>') THEN li.amount ELSE 0 END), 0) AS credits
		FROM journal_entries je
		JOIN journal_entry_line_items li ON li.journal_entry_id = je.id
		JOIN accounts a ON a.id = li.account_id
		GROUP BY je.id, je.source_url, je.when_date
		HAVING SUM(CASE WHEN (a.type = 'D') = (li.action = '>') THEN li.amount ELSE -li.amount END) <> 0
		ORDER BY je.id;
	`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query unbalanced journal entries", err)
	}
	defer rows.Close()

	out := []domain.EntryBalance{}
	for rows.Next() {
		var b domain.EntryBalance
		if err := rows.Scan(&b.EntryID, &b.SourceURL, &b.When, &b.Debits, &b.Credits); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan entry balance row", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating entry balance rows", err)
	}
	return out, nil
}

// TryLockRegeneration takes a session-level advisory lock on a dedicated
// connection. The connection stays checked out until unlock is called.
func (r *PgxJournalRepository) TryLockRegeneration(ctx context.Context) (func(context.Context) error, error) {
	conn, err := r.Pool.Acquire(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to acquire connection for regeneration lock", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1);`, regenerationLockKey).Scan(&locked); err != nil {
		conn.Release()
		return nil, apperrors.NewAppError(500, "failed to take regeneration lock", err)
	}
	if !locked {
		conn.Release()
		return nil, fmt.Errorf("%w: regeneration already in progress", apperrors.ErrConflict)
	}

	return func(ctx context.Context) error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock($1);`, regenerationLockKey); err != nil {
			return apperrors.NewAppError(500, "failed to release regeneration lock", err)
		}
		return nil
	}, nil
}

func scanEntries(rows pgx.Rows) ([]domain.JournalEntry, error) {
	defer rows.Close()
	entries := []domain.JournalEntry{}
	for rows.Next() {
		var m models.JournalEntry
		if err := rows.Scan(&m.ID, &m.SourceURL, &m.WhenDate, &m.Frozen); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal entry row", err)
		}
		entries = append(entries, mapping.ToDomainJournalEntry(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating journal entry rows", err)
	}
	return entries, nil
}

// lineItems loads line items with their accounts, grouped by entry ID.
func (r *PgxJournalRepository) lineItems(ctx context.Context, where string, args ...any) (map[int64][]domain.JournalEntryLineItem, error) {
	query := `
		SELECT li.id, li.journal_entry_id, li.account_id, li.action, li.amount, li.description,
		       a.id, a.name, a.category, a.type, a.manager_id, a.description
		FROM journal_entry_line_items li
		JOIN accounts a ON a.id = li.account_id
		` + where + `
		ORDER BY li.journal_entry_id, li.id;
	`
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query journal entry line items", err)
	}
	defer rows.Close()

	accounts := make(map[int64]*domain.Account)
	out := make(map[int64][]domain.JournalEntryLineItem)
	for rows.Next() {
		var li models.JournalEntryLineItem
		var a models.Account
		err := rows.Scan(
			&li.ID, &li.JournalEntryID, &li.AccountID, &li.Action, &li.Amount, &li.Description,
			&a.ID, &a.Name, &a.Category, &a.Type, &a.ManagerID, &a.Description,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan journal entry line item row", err)
		}
		acct, ok := accounts[a.ID]
		if !ok {
			d := mapping.ToDomainAccount(a)
			acct = &d
			accounts[a.ID] = acct
		}
		out[li.JournalEntryID] = append(out[li.JournalEntryID], mapping.ToDomainLineItem(li, acct))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating journal entry line item rows", err)
	}
	return out, nil
}
