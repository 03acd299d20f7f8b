package booking

import "github.com/torque-rentals/service-rental/internal/domain/vehicle"

// AvailabilityGuard decides whether a vehicle may be booked. It is pure
// logic over vehicle state: the actual flag flips happen inside the
// booking repository's transactional operations.
type AvailabilityGuard struct{}

// NewAvailabilityGuard creates a new AvailabilityGuard.
func NewAvailabilityGuard() *AvailabilityGuard {
	return &AvailabilityGuard{}
}

// CanBook returns true iff the vehicle's availability flag reads
// available AND it has no active booking. The active-booking lookup is
// authoritative; the flag is a fast-path duplicate of it, so both are
// required to agree before a booking is allowed.
func (AvailabilityGuard) CanBook(v *vehicle.Vehicle, hasActiveBooking bool) bool {
	return v.IsAvailable() && !hasActiveBooking
}
