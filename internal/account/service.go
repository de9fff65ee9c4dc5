package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/notepid/postboard/internal/db"
)

var validate = validator.New()

// registration holds the trimmed fields a candidate is validated against.
type registration struct {
	Username string `validate:"required"`
	Password string `validate:"min=4"`
}

// Service registers and authenticates accounts.
type Service struct {
	store Store
	tx    db.Transactor
	cost  int
}

// NewService creates an account service. cost is the bcrypt work factor used
// for new passwords.
func NewService(store Store, tx db.Transactor, cost int) *Service {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: store, tx: tx, cost: cost}
}

// CreateAccount validates and persists a new account. It returns
// ErrInvalidAccount when the candidate carries an id, has a blank username or
// a password shorter than four characters, and ErrDuplicateUsername when the
// username is taken.
func (s *Service) CreateAccount(ctx context.Context, c Candidate) (*Account, error) {
	log := zerolog.Ctx(ctx)

	if err := validateCandidate(c); err != nil {
		log.Debug().Err(err).Str("username", c.Username).Msg("registration rejected")
		return nil, err
	}

	var created *Account
	err := s.tx.WithTx(ctx, "register", func(ctx context.Context) error {
		exists, err := s.store.ExistsByUsername(ctx, c.Username)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateUsername
		}

		hash, err := HashPassword(c.Password, s.cost)
		if err != nil {
			return err
		}

		rec, err := s.store.Create(ctx, c.Username, hash)
		if err != nil {
			return err
		}

		created = &Account{ID: rec.ID, Username: rec.Username, Password: c.Password}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("account_id", created.ID).Str("username", created.Username).Msg("account registered")
	return created, nil
}

func validateCandidate(c Candidate) error {
	if c.ID != nil {
		return fmt.Errorf("%w: accountId must not be set", ErrInvalidAccount)
	}

	reg := registration{
		Username: strings.TrimSpace(c.Username),
		Password: strings.TrimSpace(c.Password),
	}
	if err := validate.Struct(reg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			switch verrs[0].Field() {
			case "Username":
				return fmt.Errorf("%w: username must not be blank", ErrInvalidAccount)
			case "Password":
				return fmt.Errorf("%w: password must be at least 4 characters", ErrInvalidAccount)
			}
		}
		return fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}
	return nil
}

// Login returns the account whose username and password both match. Any
// mismatch yields ErrUnauthorized without saying which part was wrong.
func (s *Service) Login(ctx context.Context, c Candidate) (*Account, error) {
	rec, err := s.store.GetByUsername(ctx, c.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			zerolog.Ctx(ctx).Debug().Str("username", c.Username).Msg("login for unknown username")
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if !CheckPassword(c.Password, rec.PasswordHash) {
		zerolog.Ctx(ctx).Debug().Int("account_id", rec.ID).Msg("login with wrong password")
		return nil, ErrUnauthorized
	}

	return &Account{ID: rec.ID, Username: rec.Username, Password: c.Password}, nil
}

// List returns every stored account.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.store.List(ctx)
}
