package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/campground-backend/internal/campgrounds"
	"github.com/angelmondragon/campground-backend/pkg/auth"
	"github.com/angelmondragon/campground-backend/pkg/db"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/logger"
)

const msgNotFound = "Transaction not found"

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	List(ctx context.Context, userID *uuid.UUID) ([]models.Transaction, error)
}

// BookingLookup resolves bookings that may have been removed since.
type BookingLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Booking, error)
}

type campgroundLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Campground, error)
}

type paymentMethodLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.PaymentMethod, error)
}

// Service reads the ledger. Entries are never edited through it.
type Service interface {
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*TransactionDTO, error)
	List(ctx context.Context, principal auth.Principal) ([]TransactionDTO, error)
}

// ServiceParams wires the ledger service.
type ServiceParams struct {
	Repo           repository
	Bookings       BookingLookup
	Campgrounds    campgroundLookup
	PaymentMethods paymentMethodLookup
	Logger         *logger.Logger
}

type service struct {
	repo           repository
	bookings       BookingLookup
	campgrounds    campgroundLookup
	paymentMethods paymentMethodLookup
	logg           *logger.Logger
}

// NewService builds the ledger service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	if params.Bookings == nil || params.Campgrounds == nil || params.PaymentMethods == nil {
		return nil, fmt.Errorf("summary lookups required")
	}
	return &service{
		repo:           params.Repo,
		bookings:       params.Bookings,
		campgrounds:    params.Campgrounds,
		paymentMethods: params.PaymentMethods,
		logg:           params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*TransactionDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	// Entries of other users are indistinguishable from missing ones.
	if !principal.CanManage(row.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	items, err := s.decorate(ctx, []models.Transaction{*row})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *service) List(ctx context.Context, principal auth.Principal) ([]TransactionDTO, error) {
	var scope *uuid.UUID
	if !principal.IsAdmin() {
		if principal.UserID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized")
		}
		scope = &principal.UserID
	}
	rows, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return s.decorate(ctx, rows)
}

func (s *service) decorate(ctx context.Context, rows []models.Transaction) ([]TransactionDTO, error) {
	bookingIDs := make([]uuid.UUID, 0, len(rows))
	campgroundIDs := make([]uuid.UUID, 0, len(rows))
	methodIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		bookingIDs = append(bookingIDs, row.BookingID)
		campgroundIDs = append(campgroundIDs, row.CampgroundID)
		methodIDs = append(methodIDs, row.PaymentMethodID)
	}

	bookings, err := s.bookings.FindByIDs(ctx, bookingIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction bookings")
	}
	camps, err := s.campgrounds.FindByIDs(ctx, campgroundIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction campgrounds")
	}
	methods, err := s.paymentMethods.FindByIDs(ctx, methodIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction payment methods")
	}

	out := make([]TransactionDTO, 0, len(rows))
	for i := range rows {
		dto := FromModel(&rows[i])
		if b, ok := bookings[rows[i].BookingID]; ok {
			dto.Booking = &BookingSummary{ID: b.ID, ApptDate: b.ApptDate}
		}
		if c, ok := camps[rows[i].CampgroundID]; ok {
			summary := campgrounds.SummaryFromModel(&c)
			dto.Campground = &summary
		}
		if pm, ok := methods[rows[i].PaymentMethodID]; ok {
			dto.PaymentMethod = paymentMethodSummary(&pm)
		}
		out = append(out, dto)
	}
	return out, nil
}
