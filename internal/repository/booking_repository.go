package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/torque-rentals/service-rental/internal/common/domain"
	bookingDomain "github.com/torque-rentals/service-rental/internal/domain/booking"
	vehicleDomain "github.com/torque-rentals/service-rental/internal/domain/vehicle"
)

// BookingModel is the GORM model for the bookings table. The partial
// unique index on vehicle_id makes a second active booking for the same
// vehicle structurally impossible at the storage layer.
type BookingModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID      uuid.UUID `gorm:"type:uuid;index;not null"`
	VehicleID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_active_vehicle_booking,where:status = 'active'"`
	RentStartDate   time.Time `gorm:"type:date;not null"`
	RentEndDate     time.Time `gorm:"type:date;not null"`
	TotalPriceCents int64     `gorm:"not null"`
	Status          string    `gorm:"not null;size:30;index"`
	Version         int64     `gorm:"not null;default:1"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByCustomerID retrieves bookings for a specific customer with pagination.
func (r *GormBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customer bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find customer bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	return toDomainBookings(models, total)
}

// HasActiveForVehicle reports whether the vehicle currently has an active booking.
func (r *GormBookingRepository) HasActiveForVehicle(ctx context.Context, vehicleID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("vehicle_id = ? AND status = ?", vehicleID, bookingDomain.StatusActive.String()).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return count > 0, nil
}

// CreateActive atomically claims the vehicle and inserts the booking.
//
// The conditional UPDATE on the vehicle row is the serialization point:
// under concurrent creates for the same vehicle, Postgres row locking
// lets exactly one transaction observe availability_status = 'available'
// and flip it; every other transaction affects zero rows and fails with
// a conflict. The partial unique index on bookings(vehicle_id) backs
// this up at insert time.
func (r *GormBookingRepository) CreateActive(ctx context.Context, b *bookingDomain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&VehicleModel{}).
			Where("id = ? AND availability_status = ?", b.VehicleID(), vehicleDomain.StatusAvailable).
			Updates(map[string]interface{}{
				"availability_status": string(vehicleDomain.StatusBooked),
				"updated_at":          time.Now().UTC(),
			})
		if claim.Error != nil {
			return fmt.Errorf("failed to claim vehicle: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			return domain.NewConflictError("vehicle is not available for booking")
		}

		if err := tx.Create(toBookingModel(b)).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.NewConflictError("vehicle already has an active booking")
			}
			return fmt.Errorf("failed to save booking: %w", err)
		}
		return nil
	})
}

// UpdateStatus persists a status change with optimistic locking and, for
// releasing statuses, frees the vehicle inside the same transaction.
func (r *GormBookingRepository) UpdateStatus(ctx context.Context, b *bookingDomain.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expectedVersion := b.Version() - 1
		result := tx.Model(&BookingModel{}).
			Where("id = ? AND version = ?", b.ID(), expectedVersion).
			Updates(map[string]interface{}{
				"status":     b.Status().String(),
				"version":    b.Version(),
				"updated_at": b.UpdatedAt(),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update booking: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewConflictError("booking was modified by another transaction")
		}

		if b.Status().ReleasesVehicle() {
			release := tx.Model(&VehicleModel{}).
				Where("id = ?", b.VehicleID()).
				Updates(map[string]interface{}{
					"availability_status": string(vehicleDomain.StatusAvailable),
					"updated_at":          time.Now().UTC(),
				})
			if release.Error != nil {
				return fmt.Errorf("failed to release vehicle: %w", release.Error)
			}
			if release.RowsAffected == 0 {
				return domain.NewNotFoundError("Vehicle", b.VehicleID().String())
			}
		}
		return nil
	})
}

// isUniqueViolation reports whether err is a Postgres unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- Conversion helpers ---

func toBookingModel(b *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:              b.ID(),
		CustomerID:      b.CustomerID(),
		VehicleID:       b.VehicleID(),
		RentStartDate:   b.RentStartDate(),
		RentEndDate:     b.RentEndDate(),
		TotalPriceCents: b.TotalPriceCents(),
		Status:          b.Status().String(),
		Version:         b.Version(),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return bookingDomain.ReconstructBooking(
		m.ID, m.CustomerID, m.VehicleID,
		m.RentStartDate, m.RentEndDate,
		m.TotalPriceCents,
		status,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel, total int64) ([]*bookingDomain.Booking, int64, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		b, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = b
	}
	return bookings, total, nil
}
