package paymentmethods

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/campground-backend/pkg/auth"
	"github.com/angelmondragon/campground-backend/pkg/db"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/logger"
)

const (
	msgNotFound      = "Payment method not found"
	msgNotAuthorized = "Not authorized"
	msgDuplicate     = "Payment method already exists"
)

type repository interface {
	Create(ctx context.Context, pm *models.PaymentMethod) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error)
	FingerprintTaken(ctx context.Context, kind enums.PaymentMethodKind, fingerprint string, excludeID uuid.UUID) (bool, error)
	Save(ctx context.Context, pm *models.PaymentMethod) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service manages the caller's stored payment instruments.
type Service interface {
	Add(ctx context.Context, principal auth.Principal, input AddInput) (*PaymentMethodDTO, error)
	Update(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateInput) (*PaymentMethodDTO, error)
	Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*PaymentMethodDTO, error)
	List(ctx context.Context, principal auth.Principal) ([]PaymentMethodDTO, error)
}

// ServiceParams wires the payment method service.
type ServiceParams struct {
	Repo        repository
	Logger      *logger.Logger
	RequireLuhn bool
}

type service struct {
	repo        repository
	logg        *logger.Logger
	requireLuhn bool
}

// NewService builds a payment method service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payment method repository required")
	}
	return &service{
		repo:        params.Repo,
		logg:        params.Logger,
		requireLuhn: params.RequireLuhn,
	}, nil
}

func (s *service) Add(ctx context.Context, principal auth.Principal, input AddInput) (*PaymentMethodDTO, error) {
	if principal.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgNotAuthorized)
	}
	instrument, err := input.Instrument()
	if err != nil {
		return nil, err
	}
	if err := instrument.validate(s.requireLuhn); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, instrument, uuid.Nil); err != nil {
		return nil, err
	}

	pm := &models.PaymentMethod{UserID: principal.UserID, Label: trimmedLabel(input.Label)}
	instrument.apply(pm)
	if err := s.repo.Create(ctx, pm); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicate, err, msgDuplicate)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment method")
	}
	dto := withRaw(FromModel(pm), instrument)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateInput) (*PaymentMethodDTO, error) {
	pm, err := s.loadOwned(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	instrument, err := patchedInstrument(pm, input)
	if err != nil {
		return nil, err
	}
	if instrument != nil {
		if err := instrument.validate(s.requireLuhn); err != nil {
			return nil, err
		}
		if err := s.ensureUnique(ctx, instrument, pm.ID); err != nil {
			return nil, err
		}
		instrument.apply(pm)
	} else if input.BankName != nil {
		bank := enums.BankName(strings.TrimSpace(*input.BankName))
		if !bank.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please select a supported bank").
				WithDetails(map[string]string{"bankName": "is invalid"})
		}
		pm.BankName = &bank
	}
	if input.Label != nil {
		pm.Label = trimmedLabel(input.Label)
	}

	if err := s.repo.Save(ctx, pm); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicate, err, msgDuplicate)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment method")
	}
	dto := FromModel(pm)
	if instrument != nil {
		dto = withRaw(dto, instrument)
	}
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error {
	if _, err := s.loadOwned(ctx, principal, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete payment method")
	}
	return nil
}

// Get hides records of other users behind NotFound. Admins may read any.
func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*PaymentMethodDTO, error) {
	pm, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.CanManage(pm.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	dto := FromModel(pm)
	return &dto, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal) ([]PaymentMethodDTO, error) {
	rows, err := s.repo.ListByUser(ctx, principal.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	out := make([]PaymentMethodDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	pm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	return pm, nil
}

// loadOwned applies the mutation rules: 404 when absent, 401 when the caller
// is not the owner. Admins get no override here.
func (s *service) loadOwned(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.PaymentMethod, error) {
	pm, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.Owns(pm.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, msgNotAuthorized)
	}
	return pm, nil
}

func (s *service) ensureUnique(ctx context.Context, instrument Instrument, excludeID uuid.UUID) error {
	taken, err := s.repo.FingerprintTaken(ctx, instrument.Kind(), instrument.Fingerprint(), excludeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payment method fingerprint")
	}
	if taken {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "method", instrument.Kind()), "duplicate payment method rejected")
		}
		return pkgerrors.New(pkgerrors.CodeDuplicate, msgDuplicate)
	}
	return nil
}

// patchedInstrument returns the instrument the patch asks for, or nil when no
// sensitive number changes.
func patchedInstrument(pm *models.PaymentMethod, input UpdateInput) (Instrument, error) {
	kind := pm.Method
	if input.Method != nil {
		parsed, err := enums.ParsePaymentMethodKind(strings.TrimSpace(*input.Method))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please select a payment method").
				WithDetails(map[string]string{"method": "is invalid"})
		}
		kind = parsed
	}
	switching := kind != pm.Method

	switch kind {
	case enums.PaymentMethodCreditCard:
		if input.BankAccountNumber != nil || input.BankName != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Bank fields do not apply to a credit card")
		}
		if input.CardNumber == nil {
			if switching {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please add a card number").
					WithDetails(map[string]string{"cardNumber": "is required"})
			}
			return nil, nil
		}
		return CreditCard{Number: strings.TrimSpace(*input.CardNumber)}, nil
	case enums.PaymentMethodBankAccount:
		if input.CardNumber != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Card fields do not apply to a bank account")
		}
		if input.BankAccountNumber == nil {
			if switching {
				details := map[string]string{"bankAccountNumber": "is required"}
				if input.BankName == nil {
					details["bankName"] = "is required"
				}
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please provide a valid Thai bank account number (10-12 digits)").
					WithDetails(details)
			}
			return nil, nil
		}
		bank := enums.BankName("")
		if input.BankName != nil {
			bank = enums.BankName(strings.TrimSpace(*input.BankName))
		} else if pm.BankName != nil && !switching {
			bank = *pm.BankName
		}
		return BankAccount{Number: strings.TrimSpace(*input.BankAccountNumber), Bank: bank}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please select a payment method")
}

func trimmedLabel(label *string) *string {
	if label == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*label)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
