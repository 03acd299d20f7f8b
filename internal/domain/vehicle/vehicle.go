package vehicle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/torque-rentals/service-rental/internal/common/domain"
)

// VehicleType categorizes a vehicle in the rental fleet.
type VehicleType string

const (
	TypeCar  VehicleType = "car"
	TypeBike VehicleType = "bike"
	TypeVan  VehicleType = "van"
	TypeSUV  VehicleType = "SUV"
)

// IsValid returns true if the vehicle type is recognized.
func (t VehicleType) IsValid() bool {
	switch t {
	case TypeCar, TypeBike, TypeVan, TypeSUV:
		return true
	}
	return false
}

// AvailabilityStatus tracks whether a vehicle can currently be booked.
// It is a cached derivative of "does this vehicle have an active booking"
// and is only ever flipped by the booking lifecycle.
type AvailabilityStatus string

const (
	StatusAvailable AvailabilityStatus = "available"
	StatusBooked    AvailabilityStatus = "booked"
)

// IsValid returns true if the availability status is recognized.
func (s AvailabilityStatus) IsValid() bool {
	return s == StatusAvailable || s == StatusBooked
}

// Vehicle is the aggregate root for a rentable vehicle.
type Vehicle struct {
	id                 uuid.UUID
	name               string
	vehicleType        VehicleType
	registrationNumber string
	dailyRentPriceCents int64
	availability       AvailabilityStatus
	createdAt          time.Time
	updatedAt          time.Time
}

// NewVehicle creates a new available Vehicle with validated fields.
func NewVehicle(name string, vehicleType VehicleType, registrationNumber string, dailyRentPriceCents int64) (*Vehicle, error) {
	if name == "" {
		return nil, domain.NewValidationError("vehicle name is required")
	}
	if !vehicleType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("vehicle type must be one of: %s, %s, %s, %s", TypeCar, TypeBike, TypeVan, TypeSUV))
	}
	if registrationNumber == "" {
		return nil, domain.NewValidationError("registration number is required")
	}
	if dailyRentPriceCents <= 0 {
		return nil, domain.NewValidationError("daily rent price must be positive")
	}

	now := time.Now().UTC()
	return &Vehicle{
		id:                  uuid.New(),
		name:                name,
		vehicleType:         vehicleType,
		registrationNumber:  registrationNumber,
		dailyRentPriceCents: dailyRentPriceCents,
		availability:        StatusAvailable,
		createdAt:           now,
		updatedAt:           now,
	}, nil
}

// ReconstructVehicle rebuilds a Vehicle from persistence data (no validation).
func ReconstructVehicle(
	id uuid.UUID,
	name string,
	vehicleType VehicleType,
	registrationNumber string,
	dailyRentPriceCents int64,
	availability AvailabilityStatus,
	createdAt, updatedAt time.Time,
) *Vehicle {
	return &Vehicle{
		id:                  id,
		name:                name,
		vehicleType:         vehicleType,
		registrationNumber:  registrationNumber,
		dailyRentPriceCents: dailyRentPriceCents,
		availability:        availability,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

// ID returns the vehicle's unique identifier.
func (v *Vehicle) ID() uuid.UUID { return v.id }

// Name returns the vehicle's display name.
func (v *Vehicle) Name() string { return v.name }

// Type returns the vehicle's category.
func (v *Vehicle) Type() VehicleType { return v.vehicleType }

// RegistrationNumber returns the vehicle's unique registration plate.
func (v *Vehicle) RegistrationNumber() string { return v.registrationNumber }

// DailyRentPriceCents returns the per-day rental rate in cents.
func (v *Vehicle) DailyRentPriceCents() int64 { return v.dailyRentPriceCents }

// Availability returns the vehicle's current availability flag.
func (v *Vehicle) Availability() AvailabilityStatus { return v.availability }

// CreatedAt returns the creation timestamp.
func (v *Vehicle) CreatedAt() time.Time { return v.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (v *Vehicle) UpdatedAt() time.Time { return v.updatedAt }

// IsAvailable returns true if the availability flag allows booking.
func (v *Vehicle) IsAvailable() bool { return v.availability == StatusAvailable }

// MarkBooked flips the availability flag to booked. Idempotent.
func (v *Vehicle) MarkBooked() {
	v.availability = StatusBooked
	v.updatedAt = time.Now().UTC()
}

// MarkAvailable flips the availability flag to available. Idempotent.
func (v *Vehicle) MarkAvailable() {
	v.availability = StatusAvailable
	v.updatedAt = time.Now().UTC()
}

// UpdateDetails changes the mutable catalog fields. Zero values leave the
// current value in place. The availability flag is deliberately not
// touched here; only the booking lifecycle may flip it.
func (v *Vehicle) UpdateDetails(name string, vehicleType VehicleType, registrationNumber string, dailyRentPriceCents int64) error {
	if vehicleType != "" && !vehicleType.IsValid() {
		return domain.NewValidationError(fmt.Sprintf("invalid vehicle type: %s", vehicleType))
	}
	if dailyRentPriceCents < 0 {
		return domain.NewValidationError("daily rent price must be positive")
	}

	if name != "" {
		v.name = name
	}
	if vehicleType != "" {
		v.vehicleType = vehicleType
	}
	if registrationNumber != "" {
		v.registrationNumber = registrationNumber
	}
	if dailyRentPriceCents > 0 {
		v.dailyRentPriceCents = dailyRentPriceCents
	}
	v.updatedAt = time.Now().UTC()
	return nil
}
