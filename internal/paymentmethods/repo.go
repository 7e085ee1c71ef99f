package paymentmethods

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/internal/repo"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
	"github.com/angelmondragon/campground-backend/pkg/enums"
)

// Repository handles payment method persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to payment method operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new payment method.
func (r *Repository) Create(ctx context.Context, pm *models.PaymentMethod) error {
	if pm == nil {
		return fmt.Errorf("payment method is required")
	}
	return r.DB(ctx).Create(pm).Error
}

// FindByID loads a payment method by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	return repo.FindByID[models.PaymentMethod](ctx, r.Base, id)
}

// FindByIDs loads payment methods keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.PaymentMethod, error) {
	return repo.FindByIDs(ctx, r.Base, ids, func(row models.PaymentMethod) uuid.UUID { return row.ID })
}

// ListByUser returns the user's payment methods, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	var rows []models.PaymentMethod
	if err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FingerprintTaken reports whether any record other than excludeID carries
// the fingerprint for the given kind. Ownership is ignored.
func (r *Repository) FingerprintTaken(ctx context.Context, kind enums.PaymentMethodKind, fingerprint string, excludeID uuid.UUID) (bool, error) {
	column := "card_fingerprint"
	if kind == enums.PaymentMethodBankAccount {
		column = "bank_account_fingerprint"
	}
	query := r.DB(ctx).Model(&models.PaymentMethod{}).Where(column+" = ?", fingerprint)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save writes every column of the record, including cleared ones.
func (r *Repository) Save(ctx context.Context, pm *models.PaymentMethod) error {
	if pm == nil {
		return fmt.Errorf("payment method is required")
	}
	return r.DB(ctx).Save(pm).Error
}

// Delete removes a payment method row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Where("id = ?", id).Delete(&models.PaymentMethod{}).Error
}
