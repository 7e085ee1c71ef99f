package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingCreatedEvent is emitted alongside the booking and its transaction.
type BookingCreatedEvent struct {
	BookingID       uuid.UUID       `json:"booking_id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	UserID          uuid.UUID       `json:"user_id"`
	CampgroundID    uuid.UUID       `json:"campground_id"`
	PaymentMethodID uuid.UUID       `json:"payment_method_id"`
	Amount          decimal.Decimal `json:"amount"`
	ApptDate        time.Time       `json:"appt_date"`
}

// BookingDeletedEvent reports an explicit delete and whether its paired
// transaction went with it.
type BookingDeletedEvent struct {
	BookingID          uuid.UUID  `json:"booking_id"`
	UserID             uuid.UUID  `json:"user_id"`
	CampgroundID       uuid.UUID  `json:"campground_id"`
	TransactionID      *uuid.UUID `json:"transaction_id,omitempty"`
	DeletedBy          uuid.UUID  `json:"deleted_by"`
	TransactionRemoved bool       `json:"transaction_removed"`
}

// CampgroundDeletedEvent carries the cascade result.
type CampgroundDeletedEvent struct {
	CampgroundID    uuid.UUID `json:"campground_id"`
	Name            string    `json:"name"`
	BookingsRemoved int64     `json:"bookings_removed"`
}

// BookingsExpiredEvent is emitted once per sweeper run that removed rows.
type BookingsExpiredEvent struct {
	RunID   uuid.UUID `json:"run_id"`
	Cutoff  time.Time `json:"cutoff"`
	Removed int64     `json:"removed"`
}
