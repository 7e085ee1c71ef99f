package models

import (
	"time"

	"github.com/angelmondragon/campground-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod stores one card or bank account per row. The fields of the
// branch not selected by Method are always NULL.
type PaymentMethod struct {
	ID                     uuid.UUID               `gorm:"type:uuid;primaryKey"`
	UserID                 uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Method                 enums.PaymentMethodKind `gorm:"column:method;type:text;not null"`
	CardNumber             *string                 `gorm:"column:card_number;type:text"`
	CardFingerprint        *string                 `gorm:"column:card_fingerprint;type:text;uniqueIndex"`
	BankAccountNumber      *string                 `gorm:"column:bank_account_number;type:text"`
	BankName               *enums.BankName         `gorm:"column:bank_name;type:text"`
	BankAccountFingerprint *string                 `gorm:"column:bank_account_fingerprint;type:text;uniqueIndex"`
	Label                  *string                 `gorm:"column:label;type:text"`
	CreatedAt              time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentMethod) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
