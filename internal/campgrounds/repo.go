package campgrounds

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/internal/repo"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
)

// Repository handles campground persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB (or transaction) to campground operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create persists a new campground row.
func (r *Repository) Create(ctx context.Context, campground *models.Campground) error {
	if campground == nil {
		return fmt.Errorf("campground is required")
	}
	return r.DB(ctx).Create(campground).Error
}

// FindByID loads a campground by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Campground, error) {
	return repo.FindByID[models.Campground](ctx, r.Base, id)
}

// FindByIDs loads the campgrounds with the given ids keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Campground, error) {
	return repo.FindByIDs(ctx, r.Base, ids, func(row models.Campground) uuid.UUID { return row.ID })
}

// List returns one page of campgrounds matching the query and the total
// number of matching rows.
func (r *Repository) List(ctx context.Context, q ListQuery) ([]models.Campground, int64, error) {
	base := r.DB(ctx).Model(&models.Campground{}).Scopes(filterScope(q.Filters))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Session(&gorm.Session{}).Scopes(repo.OrderScope(q.Sort), q.Page.Scope())
	if len(q.Fields) > 0 {
		selected := []string{"id"}
		for _, f := range q.Fields {
			selected = append(selected, columns[f])
		}
		query = query.Select(selected)
	}

	var rows []models.Campground
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update saves the provided campground.
func (r *Repository) Update(ctx context.Context, campground *models.Campground) error {
	if campground == nil {
		return fmt.Errorf("campground is required")
	}
	return r.DB(ctx).Save(campground).Error
}

// CountBookings returns how many bookings reference the campground.
func (r *Repository) CountBookings(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Booking{}).Where("campground_id = ?", id).Count(&count).Error
	return count, err
}

// DeleteBookings removes every booking referencing the campground. Paired
// transactions are not touched.
func (r *Repository) DeleteBookings(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("campground_id = ?", id).Delete(&models.Booking{})
	return res.RowsAffected, res.Error
}

// Delete removes the campground row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("id = ?", id).Delete(&models.Campground{})
	return res.RowsAffected, res.Error
}

func filterScope(filters []Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, f := range filters {
			if len(f.Values) == 0 {
				continue
			}
			if f.Op == OpIn {
				db = db.Where(fmt.Sprintf("%s IN ?", f.Column), f.Values)
				continue
			}
			db = db.Where(fmt.Sprintf("%s %s ?", f.Column, sqlOperators[f.Op]), f.Values[0])
		}
		return db
	}
}
