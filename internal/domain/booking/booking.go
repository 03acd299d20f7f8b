package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/torque-rentals/service-rental/internal/common/domain"
)

// Booking is the aggregate root for a vehicle rental. The rental period
// is an inclusive calendar-date range; the total price is fixed at
// creation and never recomputed.
type Booking struct {
	id              uuid.UUID
	customerID      uuid.UUID
	vehicleID       uuid.UUID
	rentStartDate   time.Time
	rentEndDate     time.Time
	totalPriceCents int64
	status          BookingStatus

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking in the active state.
func NewBooking(customerID, vehicleID uuid.UUID, rentStart, rentEnd time.Time, totalPriceCents int64) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if vehicleID == uuid.Nil {
		return nil, domain.NewValidationError("vehicle ID is required")
	}
	if rentEnd.Before(rentStart) {
		return nil, domain.NewValidationError("rent_end_date cannot be before rent_start_date")
	}
	if totalPriceCents < 0 {
		return nil, domain.NewValidationError("total price cannot be negative")
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		customerID:      customerID,
		vehicleID:       vehicleID,
		rentStartDate:   normalizeDate(rentStart),
		rentEndDate:     normalizeDate(rentEnd),
		totalPriceCents: totalPriceCents,
		status:          StatusActive,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id, customerID, vehicleID uuid.UUID,
	rentStart, rentEnd time.Time,
	totalPriceCents int64,
	status BookingStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		customerID:      customerID,
		vehicleID:       vehicleID,
		rentStartDate:   rentStart,
		rentEndDate:     rentEnd,
		totalPriceCents: totalPriceCents,
		status:          status,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// CustomerID returns the renting customer's user ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// VehicleID returns the rented vehicle's ID.
func (b *Booking) VehicleID() uuid.UUID { return b.vehicleID }

// RentStartDate returns the first rental day.
func (b *Booking) RentStartDate() time.Time { return b.rentStartDate }

// RentEndDate returns the last rental day (inclusive).
func (b *Booking) RentEndDate() time.Time { return b.rentEndDate }

// TotalPriceCents returns the total price in cents, fixed at creation.
func (b *Booking) TotalPriceCents() int64 { return b.totalPriceCents }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// IsActive returns true while the booking occupies its vehicle.
func (b *Booking) IsActive() bool { return b.status == StatusActive }

// TransitionTo moves the booking to the target status, enforcing the
// state machine. Terminal states reject every transition.
func (b *Booking) TransitionTo(target BookingStatus) error {
	if b.status.IsTerminal() {
		return domain.NewConflictError("booking is already " + b.status.String())
	}
	if !b.status.CanTransitionTo(target) {
		return domain.NewInvalidStateError(b.status.String(), target.String())
	}
	b.status = target
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}

// normalizeDate truncates a timestamp to its UTC calendar date.
func normalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
