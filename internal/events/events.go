// Package events defines the Kafka topics and event payloads this service
// publishes. Downstream consumers (notifications, billing, analytics) read
// these from the booking events topic.
package events

import (
	"time"

	"github.com/google/uuid"
)

// TopicBookingEvents carries all booking lifecycle events.
const TopicBookingEvents = "booking.events"

// Event types published to TopicBookingEvents.
const (
	BookingCreated   = "rental.booking.created"
	BookingCancelled = "rental.booking.cancelled"
	BookingReturned  = "rental.booking.returned"
)

// BookingCreatedEvent is emitted when a booking is created and the vehicle
// is claimed.
type BookingCreatedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	CustomerID      uuid.UUID `json:"customer_id"`
	VehicleID       uuid.UUID `json:"vehicle_id"`
	RentStartDate   time.Time `json:"rent_start_date"`
	RentEndDate     time.Time `json:"rent_end_date"`
	TotalPriceCents int64     `json:"total_price_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is emitted when a customer or admin cancels an
// active booking and the vehicle is released.
type BookingCancelledEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	VehicleID   uuid.UUID `json:"vehicle_id"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingReturnedEvent is emitted when an admin marks a booking as
// returned and the vehicle is released.
type BookingReturnedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	ReturnedBy uuid.UUID `json:"returned_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
