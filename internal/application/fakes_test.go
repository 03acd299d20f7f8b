package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/torque-rentals/service-rental/internal/common/domain"
	bookingDomain "github.com/torque-rentals/service-rental/internal/domain/booking"
	userDomain "github.com/torque-rentals/service-rental/internal/domain/user"
	vehicleDomain "github.com/torque-rentals/service-rental/internal/domain/vehicle"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// In-memory repository fakes. The booking fake mirrors the transactional
// contract of the real store: CreateActive checks and claims the vehicle
// under one lock, so concurrent creates race exactly as they would
// against Postgres.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userDomain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*userDomain.User)}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NewNotFoundError("User", id.String())
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email() == email {
			return u, nil
		}
	}
	return nil, domain.NewNotFoundError("User", email)
}

func (r *fakeUserRepo) ListAll(_ context.Context, page, limit int) ([]*userDomain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*userDomain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, int64(len(users)), nil
}

func (r *fakeUserRepo) Save(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email() == u.Email() {
			return domain.NewConflictError("email already registered")
		}
	}
	r.users[u.ID()] = u
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID()]; !ok {
		return domain.NewNotFoundError("User", u.ID().String())
	}
	r.users[u.ID()] = u
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.NewNotFoundError("User", id.String())
	}
	delete(r.users, id)
	return nil
}

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]*vehicleDomain.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[uuid.UUID]*vehicleDomain.Vehicle)}
}

func (r *fakeVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, domain.NewNotFoundError("Vehicle", id.String())
	}
	return v, nil
}

func (r *fakeVehicleRepo) ListAll(_ context.Context, page, limit int) ([]*vehicleDomain.Vehicle, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	vehicles := make([]*vehicleDomain.Vehicle, 0, len(r.vehicles))
	for _, v := range r.vehicles {
		vehicles = append(vehicles, v)
	}
	return vehicles, int64(len(vehicles)), nil
}

func (r *fakeVehicleRepo) Save(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vehicles[v.ID()] = v
	return nil
}

func (r *fakeVehicleRepo) Update(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[v.ID()]; !ok {
		return domain.NewNotFoundError("Vehicle", v.ID().String())
	}
	r.vehicles[v.ID()] = v
	return nil
}

func (r *fakeVehicleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vehicles[id]; !ok {
		return domain.NewNotFoundError("Vehicle", id.String())
	}
	delete(r.vehicles, id)
	return nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	vehicles *fakeVehicleRepo
}

func newFakeBookingRepo(vehicles *fakeVehicleRepo) *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		vehicles: vehicles,
	}
}

// cloneBooking rebuilds a detached aggregate, the way the Postgres
// repository reconstructs one per read. Callers mutate the copy and the
// stored row keeps its version until UpdateStatus accepts the write.
func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		b.ID(), b.CustomerID(), b.VehicleID(),
		b.RentStartDate(), b.RentEndDate(),
		b.TotalPriceCents(), b.Status(), b.Version(),
		b.CreatedAt(), b.UpdatedAt(),
	)
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(b), nil
}

func (r *fakeBookingRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if b.CustomerID() == customerID {
			out = append(out, cloneBooking(b))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*bookingDomain.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, cloneBooking(b))
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) HasActiveForVehicle(_ context.Context, vehicleID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasActiveLocked(vehicleID), nil
}

func (r *fakeBookingRepo) hasActiveLocked(vehicleID uuid.UUID) bool {
	for _, b := range r.bookings {
		if b.VehicleID() == vehicleID && b.IsActive() {
			return true
		}
	}
	return false
}

func (r *fakeBookingRepo) CreateActive(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vehicles.mu.Lock()
	defer r.vehicles.mu.Unlock()

	v, ok := r.vehicles.vehicles[b.VehicleID()]
	if !ok || !v.IsAvailable() {
		return domain.NewConflictError("vehicle is not available for booking")
	}
	if r.hasActiveLocked(b.VehicleID()) {
		return domain.NewConflictError("vehicle already has an active booking")
	}

	r.bookings[b.ID()] = b
	v.MarkBooked()
	return nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.bookings[b.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", b.ID().String())
	}
	// Same optimistic-lock predicate as the Postgres repository:
	// the stored row must still carry the version the caller read.
	if stored.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[b.ID()] = cloneBooking(b)

	if b.Status().ReleasesVehicle() {
		r.vehicles.mu.Lock()
		if v, ok := r.vehicles.vehicles[b.VehicleID()]; ok {
			v.MarkAvailable()
		}
		r.vehicles.mu.Unlock()
	}
	return nil
}
