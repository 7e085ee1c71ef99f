package models

// All lists every persisted model, used by sqlite dev mode and tests to build
// the schema without goose.
func All() []any {
	return []any{
		&User{},
		&Campground{},
		&PaymentMethod{},
		&Booking{},
		&Transaction{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
