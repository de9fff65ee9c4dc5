package account_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/notepid/postboard/internal/account"
	"github.com/notepid/postboard/internal/mocks"
)

// passthroughTx runs the unit of work without a database.
type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func intPtr(v int) *int { return &v }

func TestService_CreateAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockAccountStore(ctrl)
	svc := account.NewService(store, passthroughTx{}, bcrypt.MinCost)
	ctx := context.Background()

	t.Run("should persist a valid account", func(t *testing.T) {
		req := require.New(t)

		var storedHash string
		store.EXPECT().ExistsByUsername(gomock.Any(), "alice").Return(false, nil)
		store.EXPECT().
			Create(gomock.Any(), "alice", gomock.Any()).
			DoAndReturn(func(_ context.Context, username, hash string) (*account.Record, error) {
				storedHash = hash
				return &account.Record{ID: 1, Username: username, PasswordHash: hash}, nil
			})

		acc, err := svc.CreateAccount(ctx, account.Candidate{Username: "alice", Password: "pass1"})
		req.NoError(err)
		req.Equal(1, acc.ID)
		req.Equal("alice", acc.Username)
		req.Equal("pass1", acc.Password)
		req.NotEqual("pass1", storedHash, "password must be stored hashed")
		req.True(account.CheckPassword("pass1", storedHash))
	})

	t.Run("should reject invalid candidates without touching the store", func(t *testing.T) {
		cases := []struct {
			name string
			c    account.Candidate
		}{
			{"preassigned id", account.Candidate{ID: intPtr(5), Username: "alice", Password: "pass1"}},
			{"zero id still counts as assigned", account.Candidate{ID: intPtr(0), Username: "alice", Password: "pass1"}},
			{"empty username", account.Candidate{Username: "", Password: "pass1"}},
			{"blank username", account.Candidate{Username: "   ", Password: "pass1"}},
			{"short password", account.Candidate{Username: "alice", Password: "abc"}},
			{"password short after trim", account.Candidate{Username: "alice", Password: "  ab  "}},
			{"empty password", account.Candidate{Username: "alice"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				acc, err := svc.CreateAccount(ctx, tc.c)
				require.ErrorIs(t, err, account.ErrInvalidAccount)
				require.Nil(t, acc)
			})
		}
	})

	t.Run("should register passwords longer than 72 bytes", func(t *testing.T) {
		req := require.New(t)
		password := strings.Repeat("p", 100)

		var storedHash string
		store.EXPECT().ExistsByUsername(gomock.Any(), "long").Return(false, nil)
		store.EXPECT().
			Create(gomock.Any(), "long", gomock.Any()).
			DoAndReturn(func(_ context.Context, username, hash string) (*account.Record, error) {
				storedHash = hash
				return &account.Record{ID: 9, Username: username, PasswordHash: hash}, nil
			})

		acc, err := svc.CreateAccount(ctx, account.Candidate{Username: "long", Password: password})
		req.NoError(err)
		req.Equal(9, acc.ID)
		req.True(account.CheckPassword(password, storedHash))
		req.False(account.CheckPassword(strings.Repeat("p", 72), storedHash), "prefix must not match")
	})

	t.Run("should fail with duplicate username when taken", func(t *testing.T) {
		store.EXPECT().ExistsByUsername(gomock.Any(), "alice").Return(true, nil)

		_, err := svc.CreateAccount(ctx, account.Candidate{Username: "alice", Password: "pass1"})
		require.ErrorIs(t, err, account.ErrDuplicateUsername)
	})

	t.Run("should surface a duplicate detected on insert", func(t *testing.T) {
		store.EXPECT().ExistsByUsername(gomock.Any(), "racer").Return(false, nil)
		store.EXPECT().
			Create(gomock.Any(), "racer", gomock.Any()).
			Return(nil, account.ErrDuplicateUsername)

		_, err := svc.CreateAccount(ctx, account.Candidate{Username: "racer", Password: "pass1"})
		require.ErrorIs(t, err, account.ErrDuplicateUsername)
	})

	t.Run("should propagate store failures", func(t *testing.T) {
		boom := errors.New("db down")
		store.EXPECT().ExistsByUsername(gomock.Any(), "eve").Return(false, boom)

		_, err := svc.CreateAccount(ctx, account.Candidate{Username: "eve", Password: "pass1"})
		require.ErrorIs(t, err, boom)
	})
}

func TestService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockAccountStore(ctrl)
	svc := account.NewService(store, passthroughTx{}, bcrypt.MinCost)
	ctx := context.Background()

	hash, err := account.HashPassword("pass1", bcrypt.MinCost)
	require.NoError(t, err)
	stored := &account.Record{ID: 3, Username: "alice", PasswordHash: hash}

	t.Run("should login with correct credentials", func(t *testing.T) {
		req := require.New(t)
		store.EXPECT().GetByUsername(gomock.Any(), "alice").Return(stored, nil)

		acc, err := svc.Login(ctx, account.Candidate{Username: "alice", Password: "pass1"})
		req.NoError(err)
		req.Equal(&account.Account{ID: 3, Username: "alice", Password: "pass1"}, acc)
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		store.EXPECT().GetByUsername(gomock.Any(), "alice").Return(stored, nil)

		acc, err := svc.Login(ctx, account.Candidate{Username: "alice", Password: "wrong"})
		require.ErrorIs(t, err, account.ErrUnauthorized)
		require.Nil(t, acc)
	})

	t.Run("should reject an unknown username with the same error", func(t *testing.T) {
		store.EXPECT().
			GetByUsername(gomock.Any(), "nobody").
			Return(nil, account.ErrNotFound)

		_, err := svc.Login(ctx, account.Candidate{Username: "nobody", Password: "pass1"})
		require.ErrorIs(t, err, account.ErrUnauthorized)
		require.EqualError(t, err, "invalid username and/or password")
	})

	t.Run("should propagate store failures", func(t *testing.T) {
		boom := errors.New("db down")
		store.EXPECT().GetByUsername(gomock.Any(), "alice").Return(nil, boom)

		_, err := svc.Login(ctx, account.Candidate{Username: "alice", Password: "pass1"})
		require.ErrorIs(t, err, boom)
		require.NotErrorIs(t, err, account.ErrUnauthorized)
	})
}
