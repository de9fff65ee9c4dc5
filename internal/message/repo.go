package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/notepid/postboard/internal/db"
)

//go:generate go run go.uber.org/mock/mockgen -source=repo.go -destination=../mocks/mock_message_store.go -package=mocks -mock_names=Store=MockMessageStore,AccountChecker=MockAccountChecker

// Store persists messages.
type Store interface {
	Create(ctx context.Context, m *Message) (*Message, error)
	List(ctx context.Context) ([]*Message, error)
	Get(ctx context.Context, id int) (*Message, error)
	Delete(ctx context.Context, id int) (int, error)
	UpdateText(ctx context.Context, id int, text string) (int, error)
	ListByAuthor(ctx context.Context, accountID int) ([]*Message, error)
}

// AccountChecker tells whether an account id refers to a stored account.
type AccountChecker interface {
	ExistsByID(ctx context.Context, id int) (bool, error)
}

const selectMessages = `SELECT message_id, posted_by, message_text, time_posted_epoch FROM messages`

// Repo handles database operations for messages.
type Repo struct {
	db *db.DB
}

var _ Store = (*Repo)(nil)

// NewRepo creates a new message repository.
func NewRepo(database *db.DB) *Repo {
	return &Repo{db: database}
}

// Create inserts a message and returns a copy carrying the generated id.
func (r *Repo) Create(ctx context.Context, m *Message) (*Message, error) {
	q := r.db.Ext(ctx)

	var id int
	err := sqlx.GetContext(ctx, q, &id, q.Rebind(`
		INSERT INTO messages (posted_by, message_text, time_posted_epoch)
		VALUES (?, ?, ?)
		RETURNING message_id
	`), m.PostedBy, m.Text, m.TimePostedEpoch)
	if err != nil {
		return nil, fmt.Errorf("create message by %d: %w", m.PostedBy, err)
	}

	created := *m
	created.ID = id
	return &created, nil
}

// List returns all messages in id order.
func (r *Repo) List(ctx context.Context) ([]*Message, error) {
	msgs := make([]*Message, 0)
	if err := sqlx.SelectContext(ctx, r.db.Ext(ctx), &msgs, selectMessages+` ORDER BY message_id`); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// Get retrieves a single message by id.
func (r *Repo) Get(ctx context.Context, id int) (*Message, error) {
	q := r.db.Ext(ctx)

	m := &Message{}
	err := sqlx.GetContext(ctx, q, m, q.Rebind(selectMessages+` WHERE message_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get message %d: %w", id, ErrMessageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get message %d: %w", id, err)
	}
	return m, nil
}

// Delete removes a message and returns the number of rows removed.
func (r *Repo) Delete(ctx context.Context, id int) (int, error) {
	q := r.db.Ext(ctx)

	result, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM messages WHERE message_id = ?`), id)
	if err != nil {
		return 0, fmt.Errorf("delete message %d: %w", id, err)
	}
	return affected(result, "delete message", id)
}

// UpdateText replaces the text of a message and returns the number of rows
// changed.
func (r *Repo) UpdateText(ctx context.Context, id int, text string) (int, error) {
	q := r.db.Ext(ctx)

	result, err := q.ExecContext(ctx, q.Rebind(`UPDATE messages SET message_text = ? WHERE message_id = ?`), text, id)
	if err != nil {
		return 0, fmt.Errorf("update message %d: %w", id, err)
	}
	return affected(result, "update message", id)
}

// ListByAuthor returns the messages posted by an account in id order.
func (r *Repo) ListByAuthor(ctx context.Context, accountID int) ([]*Message, error) {
	q := r.db.Ext(ctx)

	msgs := make([]*Message, 0)
	err := sqlx.SelectContext(ctx, q, &msgs, q.Rebind(selectMessages+` WHERE posted_by = ? ORDER BY message_id`), accountID)
	if err != nil {
		return nil, fmt.Errorf("list messages by %d: %w", accountID, err)
	}
	return msgs, nil
}

func affected(result sql.Result, op string, id int) (int, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s %d: rows affected: %w", op, id, err)
	}
	return int(n), nil
}
