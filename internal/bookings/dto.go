package bookings

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/campground-backend/internal/campgrounds"
	"github.com/angelmondragon/campground-backend/internal/transactions"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
)

// BookingDTO is the public booking shape.
type BookingDTO struct {
	ID           uuid.UUID            `json:"id"`
	User         uuid.UUID            `json:"user"`
	CampgroundID uuid.UUID            `json:"campgroundId"`
	Campground   *campgrounds.Summary `json:"campground,omitempty"`
	ApptDate     time.Time            `json:"apptDate"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// CreateInput is the booking request body. The campground comes from the path.
type CreateInput struct {
	ApptDate      *Date      `json:"apptDate"`
	PaymentMethod *uuid.UUID `json:"paymentMethod"`
}

// UpdateInput patches a booking.
type UpdateInput struct {
	ApptDate     *Date      `json:"apptDate"`
	CampgroundID *uuid.UUID `json:"campgroundId"`
}

// CreateResult pairs the booking with the ledger entry written alongside it.
type CreateResult struct {
	Booking     BookingDTO                  `json:"booking"`
	Transaction transactions.TransactionDTO `json:"transaction"`
}

// FromModel converts a booking and, when given, its campground.
func FromModel(b *models.Booking, campground *models.Campground) BookingDTO {
	dto := BookingDTO{
		ID:           b.ID,
		User:         b.UserID,
		CampgroundID: b.CampgroundID,
		ApptDate:     b.ApptDate,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
	if campground != nil {
		summary := campgrounds.SummaryFromModel(campground)
		dto.Campground = &summary
	}
	return dto
}
