package models

// Account is a row of the accounts table.
type Account struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Category    string `db:"category"` // A, L, Q, R or X
	Type        string `db:"type"`     // C or D
	ManagerID   *int64 `db:"manager_id"`
	Description string `db:"description"`
}
