package paymentmethods

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/campground-backend/pkg/db/models"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
)

// PaymentMethodDTO is the read projection. Raw numbers are only present on
// the response to the request that supplied them.
type PaymentMethodDTO struct {
	ID                uuid.UUID               `json:"id"`
	User              uuid.UUID               `json:"user"`
	Method            enums.PaymentMethodKind `json:"method"`
	MaskedNumber      string                  `json:"maskedNumber"`
	CardNumber        string                  `json:"cardNumber,omitempty"`
	BankAccountNumber string                  `json:"bankAccountNumber,omitempty"`
	BankName          *enums.BankName         `json:"bankName,omitempty"`
	Label             *string                 `json:"label,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

// AddInput is the wire payload for a new payment method.
type AddInput struct {
	Method            string  `json:"method" validate:"required,oneof=credit_card bank_account"`
	CardNumber        string  `json:"cardNumber"`
	BankAccountNumber string  `json:"bankAccountNumber"`
	BankName          string  `json:"bankName"`
	Label             *string `json:"label" validate:"omitempty,max=100"`
}

// UpdateInput is a partial patch. A method switch must carry the fields of
// the new branch.
type UpdateInput struct {
	Method            *string `json:"method" validate:"omitempty,oneof=credit_card bank_account"`
	CardNumber        *string `json:"cardNumber"`
	BankAccountNumber *string `json:"bankAccountNumber"`
	BankName          *string `json:"bankName"`
	Label             *string `json:"label" validate:"omitempty,max=100"`
}

// Instrument builds the instrument selected by Method.
func (in AddInput) Instrument() (Instrument, error) {
	kind, err := enums.ParsePaymentMethodKind(strings.TrimSpace(in.Method))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please select a payment method").
			WithDetails(map[string]string{"method": "is invalid"})
	}
	switch kind {
	case enums.PaymentMethodCreditCard:
		return CreditCard{Number: strings.TrimSpace(in.CardNumber)}, nil
	case enums.PaymentMethodBankAccount:
		return BankAccount{
			Number: strings.TrimSpace(in.BankAccountNumber),
			Bank:   enums.BankName(strings.TrimSpace(in.BankName)),
		}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please select a payment method")
}

// FromModel builds the masked read projection.
func FromModel(pm *models.PaymentMethod) PaymentMethodDTO {
	dto := PaymentMethodDTO{
		ID:        pm.ID,
		User:      pm.UserID,
		Method:    pm.Method,
		BankName:  pm.BankName,
		Label:     pm.Label,
		CreatedAt: pm.CreatedAt,
		UpdatedAt: pm.UpdatedAt,
	}
	switch pm.Method {
	case enums.PaymentMethodCreditCard:
		if pm.CardNumber != nil {
			dto.MaskedNumber = *pm.CardNumber
		}
	case enums.PaymentMethodBankAccount:
		if pm.BankAccountNumber != nil {
			dto.MaskedNumber = *pm.BankAccountNumber
		}
	}
	return dto
}

// withRaw adds the caller supplied number to the projection.
func withRaw(dto PaymentMethodDTO, in Instrument) PaymentMethodDTO {
	switch v := in.(type) {
	case CreditCard:
		dto.CardNumber = v.Number
	case BankAccount:
		dto.BankAccountNumber = v.Number
	}
	return dto
}
