package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/internal/transactions"
	"github.com/angelmondragon/campground-backend/pkg/auth"
	"github.com/angelmondragon/campground-backend/pkg/db"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/logger"
	"github.com/angelmondragon/campground-backend/pkg/outbox"
	"github.com/angelmondragon/campground-backend/pkg/outbox/payloads"
)

const defaultMaxPerUser = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type campgroundLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Campground, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Campground, error)
}

type paymentMethodLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
}

type userLocker interface {
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.User, error)
}

// Service runs the booking lifecycle.
type Service interface {
	Create(ctx context.Context, principal auth.Principal, campgroundID uuid.UUID, input CreateInput) (*CreateResult, error)
	List(ctx context.Context, principal auth.Principal, campgroundID *uuid.UUID) ([]BookingDTO, error)
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*BookingDTO, error)
	Update(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateInput) (*BookingDTO, error)
	Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error
}

// ServiceParams wires the booking service.
type ServiceParams struct {
	DB             txRunner
	Repo           *Repository
	Campgrounds    campgroundLookup
	PaymentMethods paymentMethodLookup
	Users          userLocker
	Outbox         outboxEmitter
	Logger         *logger.Logger
	MaxPerUser     int
	Now            func() time.Time
}

type service struct {
	db             txRunner
	repo           *Repository
	campgrounds    campgroundLookup
	paymentMethods paymentMethodLookup
	users          userLocker
	outbox         outboxEmitter
	logg           *logger.Logger
	maxPerUser     int
	now            func() time.Time
}

// NewService builds a booking service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("booking repository required")
	}
	if params.Campgrounds == nil {
		return nil, fmt.Errorf("campground lookup required")
	}
	if params.PaymentMethods == nil {
		return nil, fmt.Errorf("payment method lookup required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user locker required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	maxPerUser := params.MaxPerUser
	if maxPerUser <= 0 {
		maxPerUser = defaultMaxPerUser
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:             params.DB,
		repo:           params.Repo,
		campgrounds:    params.Campgrounds,
		paymentMethods: params.PaymentMethods,
		users:          params.Users,
		outbox:         params.Outbox,
		logg:           params.Logger,
		maxPerUser:     maxPerUser,
		now:            now,
	}, nil
}

func bookingNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("No Booking with the id of %s", id))
}

func campgroundNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("No campground with the id of %s", id))
}

func notAuthorized(userID uuid.UUID, action string) error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, fmt.Sprintf("User %s is not authorized to %s this booking", userID, action))
}

// inPast compares at second granularity so a date equal to now is accepted.
func (s *service) inPast(appt time.Time) bool {
	return appt.Truncate(time.Second).Before(s.now().Truncate(time.Second))
}

func (s *service) Create(ctx context.Context, principal auth.Principal, campgroundID uuid.UUID, input CreateInput) (*CreateResult, error) {
	if principal.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized")
	}

	campground, err := s.campgrounds.FindByID(ctx, campgroundID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, campgroundNotFound(campgroundID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campground")
	}

	if input.PaymentMethod == nil || *input.PaymentMethod == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Payment method is required")
	}
	method, err := s.paymentMethods.FindByID(ctx, *input.PaymentMethod)
	if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	if method == nil || method.UserID != principal.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Payment method not found")
	}

	if input.ApptDate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please add an appointment date")
	}
	apptDate := input.ApptDate.UTC()
	if s.inPast(apptDate) {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "Cannot book a past date")
	}

	var (
		booking *models.Booking
		entry   *models.Transaction
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.users.LockByID(ctx, tx, principal.UserID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock user")
		}

		txBookings := NewRepository(tx)
		if !principal.IsAdmin() {
			count, err := txBookings.CountByUser(ctx, principal.UserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count bookings")
			}
			if count >= int64(s.maxPerUser) {
				return pkgerrors.New(pkgerrors.CodeBusinessRule,
					fmt.Sprintf("The user with id of %s has already made %d bookings", principal.UserID, s.maxPerUser))
			}
		}

		booking = &models.Booking{
			UserID:       principal.UserID,
			CampgroundID: campground.ID,
			ApptDate:     apptDate,
		}
		if err := txBookings.Create(ctx, booking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
		}

		paidAt := s.now().UTC()
		entry = &models.Transaction{
			UserID:          principal.UserID,
			BookingID:       booking.ID,
			CampgroundID:    campground.ID,
			PaymentMethodID: method.ID,
			Amount:          campground.Price,
			Status:          enums.TransactionStatusSuccess,
			TransactionDate: paidAt,
			PaidAt:          &paidAt,
		}
		if err := transactions.NewRepository(tx).Create(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
		}

		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingCreated,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: string(principal.Role)},
			Data: payloads.BookingCreatedEvent{
				BookingID:       booking.ID,
				TransactionID:   entry.ID,
				UserID:          principal.UserID,
				CampgroundID:    campground.ID,
				PaymentMethodID: method.ID,
				Amount:          entry.Amount,
				ApptDate:        apptDate,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit booking created")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithBookingID(ctx, booking.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"campground_id":  campground.ID.String(),
			"transaction_id": entry.ID.String(),
			"amount":         entry.Amount.String(),
		})
		s.logg.Info(logCtx, "booking created")
	}

	return &CreateResult{
		Booking:     FromModel(booking, campground),
		Transaction: transactions.FromModel(entry),
	}, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal, campgroundID *uuid.UUID) ([]BookingDTO, error) {
	var filter ListFilter
	if principal.IsAdmin() {
		filter.CampgroundID = campgroundID
	} else {
		if principal.UserID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Not authorized")
		}
		filter.UserID = &principal.UserID
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.CampgroundID)
	}
	camps, err := s.campgrounds.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking campgrounds")
	}

	out := make([]BookingDTO, 0, len(rows))
	for i := range rows {
		var campground *models.Campground
		if c, ok := camps[rows[i].CampgroundID]; ok {
			campground = &c
		}
		out = append(out, FromModel(&rows[i], campground))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*BookingDTO, error) {
	booking, err := s.loadManaged(ctx, s.repo, principal, id, "view")
	if err != nil {
		return nil, err
	}
	return s.withCampground(ctx, booking)
}

func (s *service) Update(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateInput) (*BookingDTO, error) {
	booking, err := s.loadManaged(ctx, s.repo, principal, id, "update")
	if err != nil {
		return nil, err
	}
	if input.ApptDate != nil {
		apptDate := input.ApptDate.UTC()
		if s.inPast(apptDate) {
			return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "Cannot book a past date")
		}
		booking.ApptDate = apptDate
	}
	if input.CampgroundID != nil && *input.CampgroundID != booking.CampgroundID {
		if _, err := s.campgrounds.FindByID(ctx, *input.CampgroundID); err != nil {
			if db.IsNotFound(err) {
				return nil, campgroundNotFound(*input.CampgroundID)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campground")
		}
		booking.CampgroundID = *input.CampgroundID
	}
	if err := s.repo.Save(ctx, booking); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
	}
	return s.withCampground(ctx, booking)
}

// Delete removes the booking together with its one paired ledger entry.
func (s *service) Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error {
	var event payloads.BookingDeletedEvent
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txBookings := NewRepository(tx)
		booking, err := s.loadManaged(ctx, txBookings, principal, id, "delete")
		if err != nil {
			return err
		}
		event = payloads.BookingDeletedEvent{
			BookingID:    booking.ID,
			UserID:       booking.UserID,
			CampgroundID: booking.CampgroundID,
			DeletedBy:    principal.UserID,
		}

		ledger := transactions.NewRepository(tx)
		paired, err := ledger.FindByBookingID(ctx, booking.ID)
		switch {
		case err == nil:
			if _, err := ledger.Delete(ctx, paired.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete transaction")
			}
			event.TransactionID = &paired.ID
			event.TransactionRemoved = true
		case !db.IsNotFound(err):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load paired transaction")
		}

		if _, err := txBookings.Delete(ctx, booking.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete booking")
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingDeleted,
			AggregateType: enums.AggregateBooking,
			AggregateID:   booking.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: string(principal.Role)},
			Data:          event,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit booking deleted")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithBookingID(ctx, id.String())
		logCtx = s.logg.WithField(logCtx, "transaction_removed", event.TransactionRemoved)
		s.logg.Info(logCtx, "booking deleted")
	}
	return nil
}

func (s *service) loadManaged(ctx context.Context, r *Repository, principal auth.Principal, id uuid.UUID, action string) (*models.Booking, error) {
	booking, err := r.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, bookingNotFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if !principal.CanManage(booking.UserID) {
		return nil, notAuthorized(principal.UserID, action)
	}
	return booking, nil
}

func (s *service) withCampground(ctx context.Context, booking *models.Booking) (*BookingDTO, error) {
	campground, err := s.campgrounds.FindByID(ctx, booking.CampgroundID)
	if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campground")
	}
	dto := FromModel(booking, campground)
	return &dto, nil
}
