package booking

import (
	"github.com/google/uuid"

	"github.com/torque-rentals/service-rental/internal/domain/user"
)

// TransitionPolicy is the single point of truth for who may move a
// booking between states:
//
//	customer -> cancelled, only on their own booking
//	admin    -> returned, on any booking
//
// Every other (role, status) combination is denied.
type TransitionPolicy struct{}

// NewTransitionPolicy creates a new TransitionPolicy.
func NewTransitionPolicy() *TransitionPolicy {
	return &TransitionPolicy{}
}

// Allow reports whether the caller may request the given status on the booking.
func (TransitionPolicy) Allow(role user.Role, subjectID uuid.UUID, b *Booking, requested BookingStatus) bool {
	switch role {
	case user.RoleCustomer:
		return requested == StatusCancelled && subjectID == b.CustomerID()
	case user.RoleAdmin:
		return requested == StatusReturned
	default:
		return false
	}
}
