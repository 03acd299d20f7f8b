package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/torque-rentals/service-rental/internal/common/domain"
	bookingDomain "github.com/torque-rentals/service-rental/internal/domain/booking"
	userDomain "github.com/torque-rentals/service-rental/internal/domain/user"
	vehicleDomain "github.com/torque-rentals/service-rental/internal/domain/vehicle"
)

type bookingFixture struct {
	service  *BookingService
	users    *fakeUserRepo
	vehicles *fakeVehicleRepo
	bookings *fakeBookingRepo
	customer *userDomain.User
	admin    *userDomain.User
	vehicle  *vehicleDomain.Vehicle
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	users := newFakeUserRepo()
	vehicles := newFakeVehicleRepo()
	bookings := newFakeBookingRepo(vehicles)

	customer, err := userDomain.NewUser("Ana Silva", "ana@example.com", "hash", "+5511999990000", userDomain.RoleCustomer)
	require.NoError(t, err)
	admin, err := userDomain.NewUser("Ops Admin", "ops@example.com", "hash", "+5511999990001", userDomain.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, users.Save(context.Background(), customer))
	require.NoError(t, users.Save(context.Background(), admin))

	v, err := vehicleDomain.NewVehicle("Corolla", vehicleDomain.TypeCar, "ABC-1234", 5000)
	require.NoError(t, err)
	require.NoError(t, vehicles.Save(context.Background(), v))

	service := NewBookingService(
		bookings, vehicles, users,
		bookingDomain.NewDailyRatePricing(),
		nil, nil,
		zap.NewNop(),
	)

	return &bookingFixture{
		service:  service,
		users:    users,
		vehicles: vehicles,
		bookings: bookings,
		customer: customer,
		admin:    admin,
		vehicle:  v,
	}
}

func (f *bookingFixture) createRequest() CreateBookingRequest {
	return CreateBookingRequest{
		CustomerID:    f.customer.ID().String(),
		VehicleID:     f.vehicle.ID().String(),
		RentStartDate: "2024-01-01",
		RentEndDate:   "2024-01-03",
	}
}

func appErrorCode(t *testing.T, err error) domain.ErrorCode {
	t.Helper()
	var appErr *domain.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestBookingService_CreateBooking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	dto, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	// 3 inclusive days at 5000 cents/day
	assert.Equal(t, int64(15000), dto.TotalPriceCents)
	assert.Equal(t, "active", dto.Status)
	assert.Equal(t, f.customer.ID(), dto.CustomerID)

	require.NotNil(t, dto.Vehicle)
	assert.Equal(t, "Corolla", dto.Vehicle.Name)
	assert.Equal(t, "booked", dto.Vehicle.AvailabilityStatus)
	assert.Nil(t, dto.Customer, "customer summary is admin-only")

	stored, err := f.vehicles.FindByID(ctx, f.vehicle.ID())
	require.NoError(t, err)
	assert.False(t, stored.IsAvailable())
}

func TestBookingService_CreateBooking_AdminSeesCustomerSummary(t *testing.T) {
	f := newBookingFixture(t)

	dto, err := f.service.CreateBooking(context.Background(), userDomain.RoleAdmin, f.createRequest())
	require.NoError(t, err)

	require.NotNil(t, dto.Customer)
	assert.Equal(t, "ana@example.com", dto.Customer.Email)
}

func TestBookingService_CreateBooking_UnknownCustomer(t *testing.T) {
	f := newBookingFixture(t)

	req := f.createRequest()
	req.CustomerID = uuid.NewString()

	_, err := f.service.CreateBooking(context.Background(), userDomain.RoleCustomer, req)
	assert.Equal(t, domain.CodeNotFound, appErrorCode(t, err))
}

func TestBookingService_CreateBooking_UnknownVehicle(t *testing.T) {
	f := newBookingFixture(t)

	req := f.createRequest()
	req.VehicleID = uuid.NewString()

	_, err := f.service.CreateBooking(context.Background(), userDomain.RoleCustomer, req)
	assert.Equal(t, domain.CodeNotFound, appErrorCode(t, err))
}

func TestBookingService_CreateBooking_InvalidInput(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateBookingRequest)
	}{
		{"bad customer id", func(r *CreateBookingRequest) { r.CustomerID = "not-a-uuid" }},
		{"bad vehicle id", func(r *CreateBookingRequest) { r.VehicleID = "42" }},
		{"bad start date", func(r *CreateBookingRequest) { r.RentStartDate = "01/01/2024" }},
		{"bad end date", func(r *CreateBookingRequest) { r.RentEndDate = "tomorrow" }},
		{"end before start", func(r *CreateBookingRequest) {
			r.RentStartDate = "2024-01-05"
			r.RentEndDate = "2024-01-03"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.createRequest()
			tt.mutate(&req)
			_, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, req)
			assert.Equal(t, domain.CodeValidation, appErrorCode(t, err))
		})
	}
}

func TestBookingService_CreateBooking_VehicleAlreadyBooked(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	_, err = f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	assert.Equal(t, domain.CodeConflict, appErrorCode(t, err))
}

func TestBookingService_CreateBooking_ConcurrentSameVehicle(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, domain.CodeConflict, appErrorCode(t, err))
		conflicted++
	}

	assert.Equal(t, 1, succeeded, "exactly one create may win the vehicle")
	assert.Equal(t, attempts-1, conflicted)
}

func TestBookingService_UpdateBookingStatus_CustomerCancelsOwn(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	dto, err := f.service.UpdateBookingStatus(ctx, created.ID, f.customer.ID(), userDomain.RoleCustomer,
		UpdateBookingStatusRequest{Status: "cancelled"})
	require.NoError(t, err)

	assert.Equal(t, "cancelled", dto.Status)
	require.NotNil(t, dto.Vehicle)
	assert.Equal(t, "available", dto.Vehicle.AvailabilityStatus)
}

func TestBookingService_UpdateBookingStatus_AdvancesVersion(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)

	// The repository only accepts writes carrying the stored version
	// plus one, so a cancel that skipped the bump would come back as a
	// lock conflict instead of succeeding.
	dto, err := f.service.UpdateBookingStatus(ctx, created.ID, f.customer.ID(), userDomain.RoleCustomer,
		UpdateBookingStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), dto.Version)

	stored, err := f.bookings.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version())
	assert.Equal(t, bookingDomain.StatusCancelled, stored.Status())
}

func TestBookingRepo_UpdateStatus_RejectsStaleVersion(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	stale, err := f.bookings.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, stale.TransitionTo(bookingDomain.StatusCancelled))

	err = f.bookings.UpdateStatus(ctx, stale)
	assert.Equal(t, domain.CodeConflict, appErrorCode(t, err))
}

func TestBookingService_UpdateBookingStatus_CustomerCannotCancelOthers(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	other, err := userDomain.NewUser("Bia Costa", "bia@example.com", "hash", "+5511999990002", userDomain.RoleCustomer)
	require.NoError(t, err)
	require.NoError(t, f.users.Save(ctx, other))

	_, err = f.service.UpdateBookingStatus(ctx, created.ID, other.ID(), userDomain.RoleCustomer,
		UpdateBookingStatusRequest{Status: "cancelled"})
	assert.Equal(t, domain.CodeForbidden, appErrorCode(t, err))
}

func TestBookingService_UpdateBookingStatus_CustomerCannotReturn(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	_, err = f.service.UpdateBookingStatus(ctx, created.ID, f.customer.ID(), userDomain.RoleCustomer,
		UpdateBookingStatusRequest{Status: "returned"})
	assert.Equal(t, domain.CodeForbidden, appErrorCode(t, err))
}

func TestBookingService_UpdateBookingStatus_AdminReturns(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	dto, err := f.service.UpdateBookingStatus(ctx, created.ID, f.admin.ID(), userDomain.RoleAdmin,
		UpdateBookingStatusRequest{Status: "returned"})
	require.NoError(t, err)

	assert.Equal(t, "returned", dto.Status)
	require.NotNil(t, dto.Vehicle)
	assert.Equal(t, "available", dto.Vehicle.AvailabilityStatus)
}

func TestBookingService_UpdateBookingStatus_AdminCannotCancel(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	_, err = f.service.UpdateBookingStatus(ctx, created.ID, f.admin.ID(), userDomain.RoleAdmin,
		UpdateBookingStatusRequest{Status: "cancelled"})
	assert.Equal(t, domain.CodeForbidden, appErrorCode(t, err))
}

func TestBookingService_UpdateBookingStatus_TerminalIsFinal(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	_, err = f.service.UpdateBookingStatus(ctx, created.ID, f.customer.ID(), userDomain.RoleCustomer,
		UpdateBookingStatusRequest{Status: "cancelled"})
	require.NoError(t, err)

	_, err = f.service.UpdateBookingStatus(ctx, created.ID, f.customer.ID(), userDomain.RoleCustomer,
		UpdateBookingStatusRequest{Status: "cancelled"})
	assert.Equal(t, domain.CodeConflict, appErrorCode(t, err))
}

func TestBookingService_UpdateBookingStatus_UnknownBooking(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.service.UpdateBookingStatus(context.Background(), uuid.New(), f.admin.ID(), userDomain.RoleAdmin,
		UpdateBookingStatusRequest{Status: "returned"})
	assert.Equal(t, domain.CodeNotFound, appErrorCode(t, err))
}

func TestBookingService_UpdateBookingStatus_BadStatus(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	_, err = f.service.UpdateBookingStatus(ctx, created.ID, f.admin.ID(), userDomain.RoleAdmin,
		UpdateBookingStatusRequest{Status: "finished"})
	assert.Equal(t, domain.CodeValidation, appErrorCode(t, err))
}

func TestBookingService_CancelThenRebook(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	_, err = f.service.UpdateBookingStatus(ctx, created.ID, f.customer.ID(), userDomain.RoleCustomer,
		UpdateBookingStatusRequest{Status: "cancelled"})
	require.NoError(t, err)

	// Released vehicle can be booked again.
	_, err = f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	assert.NoError(t, err)
}

func TestBookingService_ListBookings_RoleScoped(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	other, err := userDomain.NewUser("Bia Costa", "bia@example.com", "hash", "+5511999990002", userDomain.RoleCustomer)
	require.NoError(t, err)
	require.NoError(t, f.users.Save(ctx, other))

	secondVehicle, err := vehicleDomain.NewVehicle("Civic", vehicleDomain.TypeCar, "XYZ-9876", 6000)
	require.NoError(t, err)
	require.NoError(t, f.vehicles.Save(ctx, secondVehicle))

	_, err = f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)
	_, err = f.service.CreateBooking(ctx, userDomain.RoleCustomer, CreateBookingRequest{
		CustomerID:    other.ID().String(),
		VehicleID:     secondVehicle.ID().String(),
		RentStartDate: "2024-02-01",
		RentEndDate:   "2024-02-02",
	})
	require.NoError(t, err)

	mine, err := f.service.ListBookings(ctx, f.customer.ID(), userDomain.RoleCustomer, 1, 10)
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, f.customer.ID(), mine.Items[0].CustomerID)
	assert.Nil(t, mine.Items[0].Customer)

	all, err := f.service.ListBookings(ctx, f.admin.ID(), userDomain.RoleAdmin, 1, 10)
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	for _, item := range all.Items {
		assert.NotNil(t, item.Customer, "admin listing carries customer summaries")
		assert.NotNil(t, item.Vehicle)
	}
}

func TestBookingService_GetBooking_CustomerScoped(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	created, err := f.service.CreateBooking(ctx, userDomain.RoleCustomer, f.createRequest())
	require.NoError(t, err)

	dto, err := f.service.GetBooking(ctx, created.ID, f.customer.ID(), userDomain.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, created.ID, dto.ID)

	other, err := userDomain.NewUser("Bia Costa", "bia@example.com", "hash", "+5511999990002", userDomain.RoleCustomer)
	require.NoError(t, err)
	require.NoError(t, f.users.Save(ctx, other))

	_, err = f.service.GetBooking(ctx, created.ID, other.ID(), userDomain.RoleCustomer)
	assert.Equal(t, domain.CodeNotFound, appErrorCode(t, err))
}
