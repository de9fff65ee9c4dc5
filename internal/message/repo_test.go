package message

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/notepid/postboard/internal/config"
	"github.com/notepid/postboard/internal/db"
)

// newTestRepo opens a fresh database with two accounts and returns their ids.
func newTestRepo(t *testing.T) (*Repo, int, int) {
	t.Helper()
	database, err := db.Open(context.Background(), config.DatabaseConfig{
		Driver: db.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "messages.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	var ids []int
	for _, name := range []string{"alice", "bob"} {
		var id int
		require.NoError(t, database.Get(&id,
			`INSERT INTO accounts (username, password_hash) VALUES (?, 'x') RETURNING account_id`, name))
		ids = append(ids, id)
	}
	return NewRepo(database), ids[0], ids[1]
}

func TestRepoCreateGetList(t *testing.T) {
	req := require.New(t)
	repo, alice, bob := newTestRepo(t)
	ctx := context.Background()

	all, err := repo.List(ctx)
	req.NoError(err)
	req.NotNil(all)
	req.Empty(all)

	first, err := repo.Create(ctx, &Message{PostedBy: alice, Text: "hello", TimePostedEpoch: 1669947792})
	req.NoError(err)
	req.Positive(first.ID)

	second, err := repo.Create(ctx, &Message{PostedBy: bob, Text: "  padded  ", TimePostedEpoch: 1669947800})
	req.NoError(err)
	req.Greater(second.ID, first.ID)

	got, err := repo.Get(ctx, first.ID)
	req.NoError(err)
	req.Equal(first, got)

	got, err = repo.Get(ctx, second.ID)
	req.NoError(err)
	req.Equal("  padded  ", got.Text, "text is stored as submitted")

	all, err = repo.List(ctx)
	req.NoError(err)
	req.Equal([]*Message{first, second}, all)

	_, err = repo.Get(ctx, second.ID+1)
	req.ErrorIs(err, ErrMessageNotFound)
}

func TestRepoCreateRejectsUnknownAuthor(t *testing.T) {
	repo, _, _ := newTestRepo(t)

	_, err := repo.Create(context.Background(), &Message{PostedBy: 9999, Text: "orphan"})
	require.Error(t, err)
}

func TestRepoUpdateAndDelete(t *testing.T) {
	req := require.New(t)
	repo, alice, _ := newTestRepo(t)
	ctx := context.Background()

	m, err := repo.Create(ctx, &Message{PostedBy: alice, Text: "before"})
	req.NoError(err)

	n, err := repo.UpdateText(ctx, m.ID, "after")
	req.NoError(err)
	req.Equal(1, n)

	got, err := repo.Get(ctx, m.ID)
	req.NoError(err)
	req.Equal("after", got.Text)

	n, err = repo.UpdateText(ctx, m.ID+1, "nothing")
	req.NoError(err)
	req.Zero(n)

	n, err = repo.Delete(ctx, m.ID)
	req.NoError(err)
	req.Equal(1, n)

	n, err = repo.Delete(ctx, m.ID)
	req.NoError(err)
	req.Zero(n)

	_, err = repo.Get(ctx, m.ID)
	req.ErrorIs(err, ErrMessageNotFound)
}

func TestRepoListByAuthor(t *testing.T) {
	req := require.New(t)
	repo, alice, bob := newTestRepo(t)
	ctx := context.Background()

	for _, m := range []*Message{
		{PostedBy: alice, Text: "a1"},
		{PostedBy: bob, Text: "b1"},
		{PostedBy: alice, Text: "a2"},
	} {
		_, err := repo.Create(ctx, m)
		req.NoError(err)
	}

	msgs, err := repo.ListByAuthor(ctx, alice)
	req.NoError(err)
	req.Len(msgs, 2)
	req.Equal("a1", msgs[0].Text)
	req.Equal("a2", msgs[1].Text)

	msgs, err = repo.ListByAuthor(ctx, 9999)
	req.NoError(err)
	req.NotNil(msgs)
	req.Empty(msgs)
}

func TestRepoWrapsDriverErrors(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewRepo(db.New(sqlx.NewDb(mockDB, "sqlmock"), zerolog.Nop()))
	ctx := context.Background()
	boom := errors.New("connection reset")

	mock.ExpectExec(`DELETE FROM messages WHERE message_id = \?`).
		WithArgs(4).
		WillReturnError(boom)
	_, err = repo.Delete(ctx, 4)
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "delete message 4")

	mock.ExpectExec(`UPDATE messages SET message_text = \? WHERE message_id = \?`).
		WithArgs("x", 4).
		WillReturnResult(sqlmock.NewErrorResult(boom))
	_, err = repo.UpdateText(ctx, 4, "x")
	require.ErrorIs(t, err, boom)

	mock.ExpectQuery(`SELECT message_id, posted_by, message_text, time_posted_epoch FROM messages ORDER BY message_id`).
		WillReturnError(boom)
	_, err = repo.List(ctx)
	require.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}
