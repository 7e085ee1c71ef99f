package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/internal/repo"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
)

// Repository handles booking persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB (or transaction) to booking operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is required")
	}
	return r.DB(ctx).Create(booking).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return repo.FindByID[models.Booking](ctx, r.Base, id)
}

// FindByIDs loads bookings keyed by id. Missing ids are absent from the map.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Booking, error) {
	return repo.FindByIDs(ctx, r.Base, ids, func(row models.Booking) uuid.UUID { return row.ID })
}

// CountByUser counts every booking the user holds, past or future.
func (r *Repository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Booking{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListFilter narrows List. Nil fields do not filter.
type ListFilter struct {
	UserID       *uuid.UUID
	CampgroundID *uuid.UUID
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Booking, error) {
	query := r.DB(ctx).Order("appt_date ASC").Order("id")
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.CampgroundID != nil {
		query = query.Where("campground_id = ?", *filter.CampgroundID)
	}
	var rows []models.Booking
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) Save(ctx context.Context, booking *models.Booking) error {
	return r.DB(ctx).Save(booking).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Booking{})
	return res.RowsAffected, res.Error
}

// DeleteApptBefore removes every booking dated strictly before cutoff in a
// single statement. Ledger rows are not touched.
func (r *Repository) DeleteApptBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).Where("appt_date < ?", cutoff.UTC()).Delete(&models.Booking{})
	return res.RowsAffected, res.Error
}
