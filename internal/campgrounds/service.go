package campgrounds

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/internal/repo"
	"github.com/angelmondragon/campground-backend/pkg/auth"
	"github.com/angelmondragon/campground-backend/pkg/db"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/logger"
	"github.com/angelmondragon/campground-backend/pkg/outbox"
	"github.com/angelmondragon/campground-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes campground operations.
type Service interface {
	List(ctx context.Context, q ListQuery) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*CampgroundDTO, error)
	Create(ctx context.Context, principal auth.Principal, input CreateInput) (*CampgroundDTO, error)
	Update(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateInput) (*CampgroundDTO, error)
	Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error
}

// ListResult is one page of campgrounds.
type ListResult struct {
	Items  []CampgroundDTO
	Fields []string
	Total  int64
	Next   *repo.Page
	Prev   *repo.Page
}

// ServiceParams wires the campground service.
type ServiceParams struct {
	DB     txRunner
	Repo   *Repository
	Outbox outboxEmitter
	Logger *logger.Logger
}

type service struct {
	db     txRunner
	repo   *Repository
	outbox outboxEmitter
	logg   *logger.Logger
}

// NewService builds a campground service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("campground repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		db:     params.DB,
		repo:   params.Repo,
		outbox: params.Outbox,
		logg:   params.Logger,
	}, nil
}

func notFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("No campground with the id of %s", id))
}

func (s *service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	q.Page = q.Page.Normalize()
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list campgrounds")
	}
	items := make([]CampgroundDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	next, prev := Pagination(q.Page, total)
	return &ListResult{
		Items:  items,
		Fields: q.Fields,
		Total:  total,
		Next:   next,
		Prev:   prev,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CampgroundDTO, error) {
	campground, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campground")
	}
	count, err := s.repo.CountBookings(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count campground bookings")
	}
	dto := FromModel(campground)
	dto.BookingsCount = &count
	return &dto, nil
}

func (s *service) Create(ctx context.Context, principal auth.Principal, input CreateInput) (*CampgroundDTO, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized")
	}
	if input.Price == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please add a price")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	campground := input.ToModel()
	if campground.Name == "" || campground.Address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and address are required")
	}
	if err := s.repo.Create(ctx, campground); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "campground name or tel already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create campground")
	}
	dto := FromModel(campground)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateInput) (*CampgroundDTO, error) {
	if !principal.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	campground, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campground")
	}
	input.Apply(campground)
	if err := s.repo.Update(ctx, campground); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "campground name or tel already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update campground")
	}
	dto := FromModel(campground)
	return &dto, nil
}

// Delete removes the campground and every booking referencing it in one
// database transaction. Transactions of those bookings are retained.
func (s *service) Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error {
	if !principal.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized")
	}
	var removed int64
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := NewRepository(tx)
		campground, err := txRepo.FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return notFound(id)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campground")
		}
		removed, err = txRepo.DeleteBookings(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete campground bookings")
		}
		if _, err := txRepo.Delete(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete campground")
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCampgroundDeleted,
			AggregateType: enums.AggregateCampground,
			AggregateID:   id,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: string(principal.Role)},
			Data: payloads.CampgroundDeletedEvent{
				CampgroundID:    id,
				Name:            campground.Name,
				BookingsRemoved: removed,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit campground deleted")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithField(s.logg.WithCampgroundID(ctx, id.String()), "bookings_removed", removed)
		s.logg.Info(logCtx, "campground deleted")
	}
	return nil
}
