package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base is embedded by every domain repository. It holds either the pool or
// a transaction handle.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds ctx to the handle. A nil ctx returns the handle untouched.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// FindByID loads one row of T by primary key. A missing row surfaces as
// gorm.ErrRecordNotFound for the service layer to map.
func FindByID[T any](ctx context.Context, b Base, id uuid.UUID) (*T, error) {
	var row T
	if err := b.DB(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByIDs loads the rows of T whose id is in ids, keyed by key(row).
// Missing ids are simply absent from the result.
func FindByIDs[T any](ctx context.Context, b Base, ids []uuid.UUID, key func(T) uuid.UUID) (map[uuid.UUID]T, error) {
	out := make(map[uuid.UUID]T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []T
	if err := b.DB(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[key(row)] = row
	}
	return out, nil
}
