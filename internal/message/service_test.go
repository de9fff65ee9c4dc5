package message_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/notepid/postboard/internal/message"
	"github.com/notepid/postboard/internal/mocks"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newService(t *testing.T) (*message.Service, *mocks.MockMessageStore, *mocks.MockAccountChecker) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMessageStore(ctrl)
	accounts := mocks.NewMockAccountChecker(ctrl)
	return message.NewService(store, accounts, passthroughTx{}), store, accounts
}

func TestValidateText(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		valid bool
	}{
		{"single character", "a", true},
		{"exactly max", strings.Repeat("x", 255), true},
		{"max after trimming", "  " + strings.Repeat("x", 255) + "\n", true},
		{"multibyte at max", strings.Repeat("é", 255), true},
		{"empty", "", false},
		{"whitespace only", " \t\n ", false},
		{"one over max", strings.Repeat("x", 256), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := message.ValidateText(tc.text)
			if tc.valid {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, message.ErrInvalidMessageText)
			}
		})
	}
}

func TestService_CreateMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist a valid message", func(t *testing.T) {
		req := require.New(t)
		svc, store, accounts := newService(t)

		accounts.EXPECT().ExistsByID(gomock.Any(), 1).Return(true, nil)
		store.EXPECT().
			Create(gomock.Any(), &message.Message{PostedBy: 1, Text: "hello", TimePostedEpoch: 1669947792}).
			Return(&message.Message{ID: 10, PostedBy: 1, Text: "hello", TimePostedEpoch: 1669947792}, nil)

		m, err := svc.CreateMessage(ctx, message.Message{ID: 99, PostedBy: 1, Text: "hello", TimePostedEpoch: 1669947792})
		req.NoError(err)
		req.Equal(10, m.ID)
	})

	t.Run("should stamp the current time when none is given", func(t *testing.T) {
		req := require.New(t)
		svc, store, accounts := newService(t)
		before := time.Now().Unix()

		accounts.EXPECT().ExistsByID(gomock.Any(), 1).Return(true, nil)
		store.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, m *message.Message) (*message.Message, error) {
				created := *m
				created.ID = 11
				return &created, nil
			})

		m, err := svc.CreateMessage(ctx, message.Message{PostedBy: 1, Text: "now"})
		req.NoError(err)
		req.GreaterOrEqual(m.TimePostedEpoch, before)
		req.LessOrEqual(m.TimePostedEpoch, time.Now().Unix())
	})

	t.Run("should fail when the author does not exist", func(t *testing.T) {
		svc, _, accounts := newService(t)
		accounts.EXPECT().ExistsByID(gomock.Any(), 42).Return(false, nil)

		_, err := svc.CreateMessage(ctx, message.Message{PostedBy: 42, Text: "hello"})
		require.ErrorIs(t, err, message.ErrNoAssociatedUser)
	})

	t.Run("should check the author before the text", func(t *testing.T) {
		svc, _, accounts := newService(t)
		accounts.EXPECT().ExistsByID(gomock.Any(), 42).Return(false, nil)

		_, err := svc.CreateMessage(ctx, message.Message{PostedBy: 42, Text: ""})
		require.ErrorIs(t, err, message.ErrNoAssociatedUser)
	})

	t.Run("should reject invalid text without persisting", func(t *testing.T) {
		for _, text := range []string{"", "   ", strings.Repeat("x", 256)} {
			svc, _, accounts := newService(t)
			accounts.EXPECT().ExistsByID(gomock.Any(), 1).Return(true, nil)

			_, err := svc.CreateMessage(ctx, message.Message{PostedBy: 1, Text: text})
			require.ErrorIs(t, err, message.ErrInvalidMessageText)
		}
	})

	t.Run("should propagate store failures", func(t *testing.T) {
		svc, store, accounts := newService(t)
		boom := errors.New("disk full")
		accounts.EXPECT().ExistsByID(gomock.Any(), 1).Return(true, nil)
		store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, boom)

		_, err := svc.CreateMessage(ctx, message.Message{PostedBy: 1, Text: "hello"})
		require.ErrorIs(t, err, boom)
	})
}

func TestService_GetMessageByID(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the stored message", func(t *testing.T) {
		svc, store, _ := newService(t)
		want := &message.Message{ID: 5, PostedBy: 1, Text: "hi"}
		store.EXPECT().Get(gomock.Any(), 5).Return(want, nil)

		got, err := svc.GetMessageByID(ctx, 5)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("should return nil without error when absent", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().Get(gomock.Any(), 6).Return(nil, message.ErrMessageNotFound)

		got, err := svc.GetMessageByID(ctx, 6)
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("should propagate store failures", func(t *testing.T) {
		svc, store, _ := newService(t)
		boom := errors.New("db down")
		store.EXPECT().Get(gomock.Any(), 7).Return(nil, boom)

		_, err := svc.GetMessageByID(ctx, 7)
		require.ErrorIs(t, err, boom)
	})
}

func TestService_DeleteMessage(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	store.EXPECT().Delete(gomock.Any(), 5).Return(1, nil)
	n, err := svc.DeleteMessage(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	store.EXPECT().Delete(gomock.Any(), 6).Return(0, nil)
	n, err = svc.DeleteMessage(ctx, 6)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestService_UpdateMessageText(t *testing.T) {
	ctx := context.Background()

	t.Run("should update valid text", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().UpdateText(gomock.Any(), 5, "edited").Return(1, nil)

		n, err := svc.UpdateMessageText(ctx, 5, "edited")
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("should report zero rows for a missing message", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().UpdateText(gomock.Any(), 6, "edited").Return(0, nil)

		n, err := svc.UpdateMessageText(ctx, 6, "edited")
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("should reject invalid text without touching the store", func(t *testing.T) {
		svc, _, _ := newService(t)

		_, err := svc.UpdateMessageText(ctx, 5, "")
		require.ErrorIs(t, err, message.ErrInvalidMessageText)

		_, err = svc.UpdateMessageText(ctx, 5, strings.Repeat("x", 256))
		require.ErrorIs(t, err, message.ErrInvalidMessageText)
	})
}

func TestService_GetUserMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the author's messages", func(t *testing.T) {
		svc, store, _ := newService(t)
		want := []*message.Message{{ID: 1, PostedBy: 3, Text: "a"}}
		store.EXPECT().ListByAuthor(gomock.Any(), 3).Return(want, nil)

		got, err := svc.GetUserMessages(ctx, 3)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("should return an empty list rather than nil", func(t *testing.T) {
		svc, store, _ := newService(t)
		store.EXPECT().ListByAuthor(gomock.Any(), 4).Return(nil, nil)

		got, err := svc.GetUserMessages(ctx, 4)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Empty(t, got)
	})
}
