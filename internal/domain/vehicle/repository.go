package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// VehicleRepository defines the persistence contract for the vehicle catalog.
//
// Note that there is deliberately no standalone "set availability"
// operation here: availability flips are performed inside the booking
// repository's transactional operations so the flag can never drift from
// the set of active bookings.
type VehicleRepository interface {
	// FindByID retrieves a vehicle by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// ListAll retrieves all vehicles with pagination.
	ListAll(ctx context.Context, page, limit int) ([]*Vehicle, int64, error)

	// Save persists a new vehicle.
	Save(ctx context.Context, v *Vehicle) error

	// Update persists changes to an existing vehicle's catalog fields.
	Update(ctx context.Context, v *Vehicle) error

	// Delete removes a vehicle by ID.
	Delete(ctx context.Context, id uuid.UUID) error
}
