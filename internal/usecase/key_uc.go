package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"course-progression/internal/domain"
	"course-progression/internal/domain/model"
	"course-progression/internal/domain/ports/repository"
	"course-progression/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

const (
	MaxBulkKeys        = 1000
	codeGenerateTries  = 5
	defaultKeyPageSize = 50
	maxKeyPageSize     = 500
)

// Compile-time check
var _ KeyUseCase = (*keyUC)(nil)

// RedeemResult is what a successful redemption returns. Activated is true
// only for the call that moved the key out of the issued state.
type RedeemResult struct {
	Product   model.ProductRef
	Activated bool
	UserID    string
}

// KeyUseCase covers the registration key store and the redemption flow.
type KeyUseCase interface {
	Issue(ctx context.Context, product model.ProductRef, notes *string, price *int64) (*model.RegistrationKey, error)
	IssueMany(ctx context.Context, product model.ProductRef, quantity int, notes *string, price *int64) ([]*model.RegistrationKey, error)
	Deactivate(ctx context.Context, code string) error
	Redeem(ctx context.Context, code, email string) (*RedeemResult, error)
	List(ctx context.Context, product *model.ProductRef, offset, limit int) ([]*model.RegistrationKey, error)
	Stats(ctx context.Context) (map[model.KeyState]int, error)
}

type keyUC struct {
	keys        repository.RegistrationKeyRepository
	users       repository.UserRepository
	enrollments repository.EnrollmentRepository
	tm          repository.TransactionManager
	log         *zerolog.Logger
	dev         bool
}

func NewKeyUseCase(
	keys repository.RegistrationKeyRepository,
	users repository.UserRepository,
	enrollments repository.EnrollmentRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
	dev bool,
) *keyUC {
	l := logger.With().Str("component", "key_uc").Logger()
	return &keyUC{
		keys:        keys,
		users:       users,
		enrollments: enrollments,
		tm:          tm,
		log:         &l,
		dev:         dev,
	}
}

func (k *keyUC) Issue(ctx context.Context, product model.ProductRef, notes *string, price *int64) (*model.RegistrationKey, error) {
	defer logging.TraceDuration(k.log, "KeyUC.Issue")()

	keys, err := k.IssueMany(ctx, product, 1, notes, price)
	if err != nil {
		return nil, err
	}
	return keys[0], nil
}

// IssueMany creates quantity keys in one transaction. Either all keys are
// stored or none.
func (k *keyUC) IssueMany(ctx context.Context, product model.ProductRef, quantity int, notes *string, price *int64) ([]*model.RegistrationKey, error) {
	defer logging.TraceDuration(k.log, "KeyUC.IssueMany")()

	if quantity < 1 || quantity > MaxBulkKeys {
		return nil, domain.ErrInvalidQuantity
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	if price != nil && *price < 0 {
		return nil, domain.ErrInvalidArgument
	}

	var out []*model.RegistrationKey
	err := k.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		out = make([]*model.RegistrationKey, 0, quantity)
		for i := 0; i < quantity; i++ {
			key, err := k.createWithFreshCode(ctx, tx, product, notes, price)
			if err != nil {
				return err
			}
			out = append(out, key)
		}
		return nil
	})
	if err != nil {
		k.log.Error().Err(err).Str("product_id", product.ID).Int("quantity", quantity).Msg("issue keys failed")
		return nil, err
	}

	k.log.Info().Str("product_kind", string(product.Kind)).Str("product_id", product.ID).Int("quantity", quantity).Msg("keys issued")
	return out, nil
}

// createWithFreshCode retries with a new code when the store reports a
// duplicate.
func (k *keyUC) createWithFreshCode(ctx context.Context, tx repository.Tx, product model.ProductRef, notes *string, price *int64) (*model.RegistrationKey, error) {
	for attempt := 0; attempt < codeGenerateTries; attempt++ {
		code, err := generateKeyCode()
		if err != nil {
			return nil, fmt.Errorf("generate key code: %w", err)
		}
		key, err := model.NewRegistrationKey(code, product, notes, price)
		if err != nil {
			return nil, err
		}
		err = k.keys.Create(ctx, tx, key)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		k.log.Warn().Int("attempt", attempt+1).Msg("key code collision, regenerating")
	}
	return nil, domain.ErrCodeGeneration
}

func (k *keyUC) Deactivate(ctx context.Context, code string) error {
	defer logging.TraceDuration(k.log, "KeyUC.Deactivate")()

	code = model.NormalizeCode(code)
	if code == "" {
		return domain.ErrInvalidArgument
	}
	if err := k.keys.Deactivate(ctx, repository.NoTX, code, time.Now().UTC()); err != nil {
		return err
	}
	k.log.Info().Str("code", logging.Redact(code, k.dev)).Msg("key deactivated")
	return nil
}

// Redeem binds an issued key to email. The issued -> activated step is a
// conditional update in the store; a caller that loses the race re-reads the
// key and gets the activated-state outcome.
func (k *keyUC) Redeem(ctx context.Context, code, email string) (*RedeemResult, error) {
	defer logging.TraceDuration(k.log, "KeyUC.Redeem")()

	code = model.NormalizeCode(code)
	email = model.NormalizeEmail(email)
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidArgument
	}

	var res *RedeemResult
	err := k.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		key, err := k.keys.FindByCode(ctx, tx, code)
		if err != nil {
			return err
		}

		activated := false
		if key.State == model.KeyStateIssued {
			now := time.Now().UTC()
			won, err := k.keys.Activate(ctx, tx, code, email, now)
			if err != nil {
				return err
			}
			if won {
				activated = true
				key.State = model.KeyStateActivated
				key.BoundEmail = &email
				key.ActivatedAt = &now
			} else if key, err = k.keys.FindByCode(ctx, tx, code); err != nil {
				return err
			}
		}

		if !activated {
			switch key.State {
			case model.KeyStateDeactivated:
				return domain.ErrKeyDeactivated
			case model.KeyStateActivated:
				if !key.BoundTo(email) {
					return domain.ErrKeyAlreadyUsed
				}
			default:
				return domain.ErrOperationFailed
			}
		}

		res = &RedeemResult{Product: key.Product, Activated: activated}
		if !key.Product.IsCourse() {
			return nil
		}

		user, err := k.users.FindOrCreateByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		res.UserID = user.ID
		created, err := k.enrollments.EnsureExists(ctx, tx, user.ID, key.Product.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if created {
			k.log.Info().Str("user_id", user.ID).Str("course_id", key.Product.ID).Msg("enrollment created from key")
		}
		return nil
	})
	if err != nil {
		k.log.Debug().Err(err).Str("code", logging.Redact(code, k.dev)).Msg("redeem rejected")
		return nil, err
	}

	k.log.Info().
		Str("code", logging.Redact(code, k.dev)).
		Str("email", logging.Redact(email, k.dev)).
		Bool("activated", res.Activated).
		Msg("key redeemed")
	return res, nil
}

func (k *keyUC) List(ctx context.Context, product *model.ProductRef, offset, limit int) ([]*model.RegistrationKey, error) {
	defer logging.TraceDuration(k.log, "KeyUC.List")()

	if product != nil {
		if err := product.Validate(); err != nil {
			return nil, err
		}
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultKeyPageSize
	}
	if limit > maxKeyPageSize {
		limit = maxKeyPageSize
	}
	return k.keys.ListByProduct(ctx, repository.NoTX, product, offset, limit)
}

func (k *keyUC) Stats(ctx context.Context) (map[model.KeyState]int, error) {
	defer logging.TraceDuration(k.log, "KeyUC.Stats")()
	return k.keys.CountByState(ctx, repository.NoTX)
}
