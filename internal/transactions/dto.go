package transactions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/campground-backend/internal/campgrounds"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
	"github.com/angelmondragon/campground-backend/pkg/enums"
)

// TransactionDTO is the public ledger entry.
type TransactionDTO struct {
	ID              uuid.UUID               `json:"id"`
	User            uuid.UUID               `json:"user"`
	BookingID       uuid.UUID               `json:"bookingId"`
	CampgroundID    uuid.UUID               `json:"campgroundId"`
	PaymentMethodID uuid.UUID               `json:"paymentMethodId"`
	Amount          decimal.Decimal         `json:"amount"`
	Status          enums.TransactionStatus `json:"status"`
	TransactionDate time.Time               `json:"transactionDate"`
	PaidAt          *time.Time              `json:"paidAt,omitempty"`
	CreatedAt       time.Time               `json:"createdAt"`

	Booking       *BookingSummary       `json:"booking,omitempty"`
	Campground    *campgrounds.Summary  `json:"campground,omitempty"`
	PaymentMethod *PaymentMethodSummary `json:"paymentMethod,omitempty"`
}

// BookingSummary is embedded while the booking still exists.
type BookingSummary struct {
	ID       uuid.UUID `json:"id"`
	ApptDate time.Time `json:"apptDate"`
}

// PaymentMethodSummary is embedded while the instrument still exists.
type PaymentMethodSummary struct {
	ID           uuid.UUID               `json:"id"`
	Method       enums.PaymentMethodKind `json:"method"`
	MaskedNumber string                  `json:"maskedNumber"`
	BankName     *enums.BankName         `json:"bankName,omitempty"`
}

// FromModel converts a ledger row without summaries.
func FromModel(t *models.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:              t.ID,
		User:            t.UserID,
		BookingID:       t.BookingID,
		CampgroundID:    t.CampgroundID,
		PaymentMethodID: t.PaymentMethodID,
		Amount:          t.Amount,
		Status:          t.Status,
		TransactionDate: t.TransactionDate,
		PaidAt:          t.PaidAt,
		CreatedAt:       t.CreatedAt,
	}
}

func paymentMethodSummary(pm *models.PaymentMethod) *PaymentMethodSummary {
	summary := &PaymentMethodSummary{ID: pm.ID, Method: pm.Method, BankName: pm.BankName}
	switch pm.Method {
	case enums.PaymentMethodCreditCard:
		if pm.CardNumber != nil {
			summary.MaskedNumber = *pm.CardNumber
		}
	case enums.PaymentMethodBankAccount:
		if pm.BankAccountNumber != nil {
			summary.MaskedNumber = *pm.BankAccountNumber
		}
	}
	return summary
}
