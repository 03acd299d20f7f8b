//go:build integration

package main_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/torque-rentals/service-rental/internal/application"
	bookingDomain "github.com/torque-rentals/service-rental/internal/domain/booking"
	userDomain "github.com/torque-rentals/service-rental/internal/domain/user"
	vehicleDomain "github.com/torque-rentals/service-rental/internal/domain/vehicle"
	"github.com/torque-rentals/service-rental/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB      *gorm.DB
	Cleanup func()
}

// rentalStack holds wired-up service components over a real database.
type rentalStack struct {
	Bookings *application.BookingService
	Vehicles *application.VehicleService
}

// setupPostgres starts a PostgreSQL testcontainer and returns a connected
// GORM DB with the schema migrated.
func setupPostgres(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_rental",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_rental sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.UserModel{},
		&repository.VehicleModel{},
		&repository.BookingModel{},
	))

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{DB: db, Cleanup: cleanup}
}

// setupRentalStack wires the application services over the real repositories.
// Kafka and Redis stay out; these tests cover the persistence invariants.
func setupRentalStack(t *testing.T, db *gorm.DB) *rentalStack {
	t.Helper()
	logger := zap.NewNop()

	userRepo := repository.NewGormUserRepository(db)
	vehicleRepo := repository.NewGormVehicleRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)

	return &rentalStack{
		Bookings: application.NewBookingService(
			bookingRepo, vehicleRepo, userRepo,
			bookingDomain.NewDailyRatePricing(),
			nil, nil, logger,
		),
		Vehicles: application.NewVehicleService(vehicleRepo, bookingRepo, nil, logger),
	}
}

// seedUser inserts a user row and returns their ID.
func seedUser(t *testing.T, db *gorm.DB, email string, role userDomain.Role) uuid.UUID {
	t.Helper()
	u, err := userDomain.NewUser("Integration User", email, "hash", "+5511999990000", role)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormUserRepository(db).Save(context.Background(), u))
	return u.ID()
}

// seedVehicle inserts an available vehicle and returns its ID.
func seedVehicle(t *testing.T, db *gorm.DB, registration string, dailyRateCents int64) uuid.UUID {
	t.Helper()
	v, err := vehicleDomain.NewVehicle("Integration Car", vehicleDomain.TypeCar, registration, dailyRateCents)
	require.NoError(t, err)
	require.NoError(t, repository.NewGormVehicleRepository(db).Save(context.Background(), v))
	return v.ID()
}

// vehicleStatus reads the availability flag straight from the table.
func vehicleStatus(t *testing.T, db *gorm.DB, id uuid.UUID) string {
	t.Helper()
	var model repository.VehicleModel
	require.NoError(t, db.Where("id = ?", id).First(&model).Error)
	return model.AvailabilityStatus
}

// activeBookingCount counts active bookings for a vehicle straight from the table.
func activeBookingCount(t *testing.T, db *gorm.DB, vehicleID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&repository.BookingModel{}).
		Where("vehicle_id = ? AND status = ?", vehicleID, "active").
		Count(&count).Error)
	return count
}
