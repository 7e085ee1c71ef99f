package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/pkg/enums"
	"github.com/angelmondragon/campground-backend/pkg/logger"
	"github.com/angelmondragon/campground-backend/pkg/outbox"
	"github.com/angelmondragon/campground-backend/pkg/outbox/payloads"
)

const bookingExpiryJobName = "booking_expiry"

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ExpiredBookingDeleter removes bookings whose appointment is before cutoff.
type ExpiredBookingDeleter interface {
	DeleteApptBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BookingExpiryJobParams wires the booking sweeper.
type BookingExpiryJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	// Bookings binds a deleter to the job transaction.
	Bookings func(tx *gorm.DB) ExpiredBookingDeleter
	Outbox   outboxEmitter
}

type bookingExpiryJob struct {
	logg     *logger.Logger
	db       txRunner
	bookings func(tx *gorm.DB) ExpiredBookingDeleter
	outbox   outboxEmitter
	now      func() time.Time
}

// NewBookingExpiryJob builds the job that drops bookings dated in the past.
// Paired transactions are left in place.
func NewBookingExpiryJob(params BookingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking repository factory required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &bookingExpiryJob{
		logg:     params.Logger,
		db:       params.DB,
		bookings: params.Bookings,
		outbox:   params.Outbox,
		now:      time.Now,
	}, nil
}

func (j *bookingExpiryJob) Name() string { return bookingExpiryJobName }

func (j *bookingExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	var removed int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.bookings(tx).DeleteApptBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("delete expired bookings: %w", err)
		}
		removed = rows
		if rows == 0 {
			return nil
		}
		runID := uuid.New()
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBookingsExpired,
			AggregateType: enums.AggregateBooking,
			AggregateID:   runID,
			OccurredAt:    cutoff,
			Data: payloads.BookingsExpiredEvent{
				RunID:   runID,
				Cutoff:  cutoff,
				Removed: rows,
			},
		})
	})
	if err != nil {
		return fmt.Errorf("booking expiry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": removed,
	})
	j.logg.Info(logCtx, "booking expiry sweep complete")
	return nil
}
