package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking
// aggregates. The two write operations are transactional units covering
// both the booking row and the vehicle availability flag, so the two can
// never diverge under concurrency or partial failure.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByCustomerID retrieves bookings belonging to a customer with pagination.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// HasActiveForVehicle reports whether the vehicle currently has an
	// active booking. This lookup is authoritative over the vehicle's
	// availability flag.
	HasActiveForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error)

	// CreateActive atomically inserts the booking and flips its vehicle
	// from available to booked. Returns a conflict error if the vehicle
	// is not available or already holds an active booking.
	CreateActive(ctx context.Context, b *Booking) error

	// UpdateStatus persists a status change with optimistic locking.
	// When the new status releases the vehicle, the availability flag is
	// flipped back to available in the same transaction.
	UpdateStatus(ctx context.Context, b *Booking) error
}
