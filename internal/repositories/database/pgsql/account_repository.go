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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `id, name, category, type, manager_id, description`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var m models.Account
	if err := row.Scan(&m.ID, &m.Name, &m.Category, &m.Type, &m.ManagerID, &m.Description); err != nil {
		return domain.Account{}, err
	}
	return mapping.ToDomainAccount(m), nil
}

// SaveAccount inserts a new account and sets its ID.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account *domain.Account) error {
	m := mapping.ToModelAccount(*account)
	query := `
		INSERT INTO accounts (name, category, type, manager_id, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`
	err := r.Pool.QueryRow(ctx, query, m.Name, m.Category, m.Type, m.ManagerID, m.Description).Scan(&account.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: account %q already exists", apperrors.ErrDuplicate, account.Name)
		}
		return fmt.Errorf("failed to save account %q: %w", account.Name, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1;`
	acct, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to find account %d", accountID), err)
	}
	return &acct, nil
}

// FindAccountByName retrieves an account by its exact name.
func (r *PgxAccountRepository) FindAccountByName(ctx context.Context, name string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE name = $1;`
	acct, err := scanAccount(r.Pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %q", apperrors.ErrNotFound, name)
		}
		return nil, apperrors.NewAppError(500, fmt.Sprintf("failed to find account %q", name), err)
	}
	return &acct, nil
}

// ListAccounts retrieves every account, ordered by name.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY name;`
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list accounts", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account row", err)
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account rows", err)
	}
	return accounts, nil
}
