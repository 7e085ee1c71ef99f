package models

import (
	"time"

	"github.com/angelmondragon/campground-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is a ledger entry paired with the booking that created it.
// Rows outlive their booking unless the booking is deleted explicitly.
type Transaction struct {
	ID              uuid.UUID               `gorm:"type:uuid;primaryKey"`
	UserID          uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	BookingID       uuid.UUID               `gorm:"column:booking_id;type:uuid;not null;index"`
	CampgroundID    uuid.UUID               `gorm:"column:campground_id;type:uuid;not null"`
	PaymentMethodID uuid.UUID               `gorm:"column:payment_method_id;type:uuid;not null"`
	Amount          decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	Status          enums.TransactionStatus `gorm:"column:status;type:text;not null"`
	TransactionDate time.Time               `gorm:"column:transaction_date;not null;index"`
	PaidAt          *time.Time              `gorm:"column:paid_at"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
}

func (t *Transaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = enums.TransactionStatusSuccess
	}
	return nil
}
