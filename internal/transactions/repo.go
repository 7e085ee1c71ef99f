package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/internal/repo"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
)

// Repository handles ledger persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB (or transaction) to ledger operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create appends a ledger entry.
func (r *Repository) Create(ctx context.Context, t *models.Transaction) error {
	if t == nil {
		return fmt.Errorf("transaction is required")
	}
	return r.DB(ctx).Create(t).Error
}

// FindByID loads a ledger entry by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return repo.FindByID[models.Transaction](ctx, r.Base, id)
}

// FindByBookingID returns the entry paired with a booking.
func (r *Repository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.DB(ctx).Where("booking_id = ?", bookingID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns entries newest first. A nil userID lists every entry.
func (r *Repository) List(ctx context.Context, userID *uuid.UUID) ([]models.Transaction, error) {
	query := r.DB(ctx).Order("transaction_date DESC").Order("id")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var rows []models.Transaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes exactly one entry by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Transaction{})
	return res.RowsAffected, res.Error
}
