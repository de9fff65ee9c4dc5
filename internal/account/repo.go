package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/notepid/postboard/internal/db"
)

//go:generate go run go.uber.org/mock/mockgen -source=repo.go -destination=../mocks/mock_account_store.go -package=mocks -mock_names=Store=MockAccountStore

// Store persists accounts.
type Store interface {
	GetByUsername(ctx context.Context, username string) (*Record, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByID(ctx context.Context, id int) (bool, error)
	Create(ctx context.Context, username, passwordHash string) (*Record, error)
	List(ctx context.Context) ([]*Record, error)
}

// Repo handles database operations for accounts.
type Repo struct {
	db *db.DB
}

var _ Store = (*Repo)(nil)

// NewRepo creates a new account repository.
func NewRepo(database *db.DB) *Repo {
	return &Repo{db: database}
}

func (r *Repo) ext(ctx context.Context) sqlx.ExtContext {
	return r.db.Ext(ctx)
}

// Create inserts an account and returns it with its generated id. A username
// collision reported by the database maps to ErrDuplicateUsername.
func (r *Repo) Create(ctx context.Context, username, passwordHash string) (*Record, error) {
	q := r.ext(ctx)

	var id int
	err := sqlx.GetContext(ctx, q, &id, q.Rebind(`
		INSERT INTO accounts (username, password_hash)
		VALUES (?, ?)
		RETURNING account_id
	`), username, passwordHash)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create account %s: %w", username, ErrDuplicateUsername)
		}
		return nil, fmt.Errorf("create account %s: %w", username, err)
	}

	return r.getByID(ctx, q, id)
}

func (r *Repo) getByID(ctx context.Context, q sqlx.ExtContext, id int) (*Record, error) {
	rec := &Record{}
	err := sqlx.GetContext(ctx, q, rec, q.Rebind(`
		SELECT account_id, username, password_hash, created_at
		FROM accounts WHERE account_id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	return rec, nil
}

// GetByUsername retrieves an account by exact username.
func (r *Repo) GetByUsername(ctx context.Context, username string) (*Record, error) {
	q := r.ext(ctx)

	rec := &Record{}
	err := sqlx.GetContext(ctx, q, rec, q.Rebind(`
		SELECT account_id, username, password_hash, created_at
		FROM accounts WHERE username = ?
	`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", username, err)
	}

	return rec, nil
}

// ExistsByUsername checks if a username is already taken.
func (r *Repo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	q := r.ext(ctx)

	var count int
	if err := sqlx.GetContext(ctx, q, &count, q.Rebind(`SELECT COUNT(*) FROM accounts WHERE username = ?`), username); err != nil {
		return false, fmt.Errorf("check username %s: %w", username, err)
	}
	return count > 0, nil
}

// ExistsByID checks if an account with the given id exists.
func (r *Repo) ExistsByID(ctx context.Context, id int) (bool, error) {
	q := r.ext(ctx)

	var count int
	if err := sqlx.GetContext(ctx, q, &count, q.Rebind(`SELECT COUNT(*) FROM accounts WHERE account_id = ?`), id); err != nil {
		return false, fmt.Errorf("check account %d: %w", id, err)
	}
	return count > 0, nil
}

// List returns all accounts, ordered by id.
func (r *Repo) List(ctx context.Context) ([]*Record, error) {
	records := make([]*Record, 0)
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &records, `
		SELECT account_id, username, password_hash, created_at
		FROM accounts ORDER BY account_id
	`); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return records, nil
}
