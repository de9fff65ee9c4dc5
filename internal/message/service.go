package message

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/notepid/postboard/internal/db"
)

// MaxTextLength is the longest message text accepted, in characters, after
// surrounding whitespace is trimmed.
const MaxTextLength = 255

var validate = validator.New()

// Service validates and applies message changes.
type Service struct {
	store    Store
	accounts AccountChecker
	tx       db.Transactor
	now      func() time.Time
}

// NewService creates a message service.
func NewService(store Store, accounts AccountChecker, tx db.Transactor) *Service {
	return &Service{store: store, accounts: accounts, tx: tx, now: time.Now}
}

// ValidateText returns ErrInvalidMessageText unless text is non-blank and at
// most MaxTextLength characters once trimmed.
func ValidateText(text string) error {
	if err := validate.Var(strings.TrimSpace(text), "required,max=255"); err != nil {
		return ErrInvalidMessageText
	}
	return nil
}

// CreateMessage persists a new message. The author is checked before the
// text. Any id on the candidate is ignored.
func (s *Service) CreateMessage(ctx context.Context, m Message) (*Message, error) {
	log := zerolog.Ctx(ctx)

	var created *Message
	err := s.tx.WithTx(ctx, "create message", func(ctx context.Context) error {
		exists, err := s.accounts.ExistsByID(ctx, m.PostedBy)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNoAssociatedUser
		}

		if err := ValidateText(m.Text); err != nil {
			return err
		}

		m.ID = 0
		if m.TimePostedEpoch == 0 {
			m.TimePostedEpoch = s.now().Unix()
		}

		created, err = s.store.Create(ctx, &m)
		return err
	})
	if err != nil {
		log.Debug().Err(err).Int("posted_by", m.PostedBy).Msg("message rejected")
		return nil, err
	}

	log.Info().Int("message_id", created.ID).Int("posted_by", created.PostedBy).Msg("message created")
	return created, nil
}

// GetAllMessages returns every stored message.
func (s *Service) GetAllMessages(ctx context.Context) ([]*Message, error) {
	return s.store.List(ctx)
}

// GetMessageByID returns the message with the given id, or nil when there is
// none.
func (s *Service) GetMessageByID(ctx context.Context, id int) (*Message, error) {
	m, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrMessageNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMessage removes a message and returns the number of rows removed. A
// missing message is not an error.
func (s *Service) DeleteMessage(ctx context.Context, id int) (int, error) {
	var n int
	err := s.tx.WithTx(ctx, "delete message", func(ctx context.Context) error {
		var err error
		n, err = s.store.Delete(ctx, id)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		zerolog.Ctx(ctx).Info().Int("message_id", id).Msg("message deleted")
	}
	return n, nil
}

// UpdateMessageText validates text and stores it on the message. It returns
// the number of rows changed, 0 when the message does not exist. The author
// is not re-checked.
func (s *Service) UpdateMessageText(ctx context.Context, id int, text string) (int, error) {
	if err := ValidateText(text); err != nil {
		return 0, err
	}

	var n int
	err := s.tx.WithTx(ctx, "update message", func(ctx context.Context) error {
		var err error
		n, err = s.store.UpdateText(ctx, id, text)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// GetUserMessages returns the messages posted by an account. An unknown
// account yields an empty list, the same as an account with no messages.
func (s *Service) GetUserMessages(ctx context.Context, accountID int) ([]*Message, error) {
	msgs, err := s.store.ListByAuthor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = make([]*Message, 0)
	}
	return msgs, nil
}
