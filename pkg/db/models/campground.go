package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Campground is a bookable site administered by admins.
type Campground struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name       string          `gorm:"column:name;type:text;not null;uniqueIndex"`
	Address    string          `gorm:"column:address;type:text;not null"`
	District   string          `gorm:"column:district;type:text"`
	Province   string          `gorm:"column:province;type:text"`
	PostalCode string          `gorm:"column:postal_code;type:text"`
	Tel        *string         `gorm:"column:tel;type:text;uniqueIndex"`
	Region     string          `gorm:"column:region;type:text"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Campground) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
