package enums

import "slices"

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateBooking    OutboxAggregateType = "booking"
	AggregateCampground OutboxAggregateType = "campground"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBooking,
	AggregateCampground,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return slices.Contains(validAggregateTypes, a)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse(validAggregateTypes, value, "aggregate type")
}

// OutboxEventType names the domain event carried by an outbox row.
type OutboxEventType string

const (
	EventBookingCreated    OutboxEventType = "booking.created"
	EventBookingDeleted    OutboxEventType = "booking.deleted"
	EventBookingsExpired   OutboxEventType = "bookings.expired"
	EventCampgroundDeleted OutboxEventType = "campground.deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBookingCreated,
	EventBookingDeleted,
	EventBookingsExpired,
	EventCampgroundDeleted,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	return slices.Contains(validOutboxEventTypes, e)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse(validOutboxEventTypes, value, "event type")
}
