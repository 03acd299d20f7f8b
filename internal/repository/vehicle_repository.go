package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/torque-rentals/service-rental/internal/common/domain"
	vehicleDomain "github.com/torque-rentals/service-rental/internal/domain/vehicle"
)

// VehicleModel is the GORM model for the vehicles table.
type VehicleModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	VehicleName         string    `gorm:"not null;size:250"`
	Type                string    `gorm:"not null;size:50"`
	RegistrationNumber  string    `gorm:"uniqueIndex;not null;size:100"`
	DailyRentPriceCents int64     `gorm:"not null"`
	AvailabilityStatus  string    `gorm:"not null;size:50;index"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (VehicleModel) TableName() string {
	return "vehicles"
}

// GormVehicleRepository is the GORM-based implementation of VehicleRepository.
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository.
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID retrieves a vehicle by its unique identifier.
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	var model VehicleModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Vehicle", id.String())
		}
		return nil, fmt.Errorf("failed to find vehicle by ID: %w", err)
	}
	return toDomainVehicle(&model), nil
}

// ListAll retrieves all vehicles with pagination.
func (r *GormVehicleRepository) ListAll(ctx context.Context, page, limit int) ([]*vehicleDomain.Vehicle, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&VehicleModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	var models []VehicleModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}

	vehicles := make([]*vehicleDomain.Vehicle, len(models))
	for i, m := range models {
		vehicles[i] = toDomainVehicle(&m)
	}
	return vehicles, total, nil
}

// Save persists a new vehicle.
func (r *GormVehicleRepository) Save(ctx context.Context, v *vehicleDomain.Vehicle) error {
	if err := r.db.WithContext(ctx).Create(toVehicleModel(v)).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("registration number already exists")
		}
		return fmt.Errorf("failed to save vehicle: %w", err)
	}
	return nil
}

// Update persists changes to an existing vehicle's catalog fields. The
// availability flag is deliberately excluded; only booking transactions
// touch it.
func (r *GormVehicleRepository) Update(ctx context.Context, v *vehicleDomain.Vehicle) error {
	result := r.db.WithContext(ctx).
		Model(&VehicleModel{}).
		Where("id = ?", v.ID()).
		Updates(map[string]interface{}{
			"vehicle_name":           v.Name(),
			"type":                   string(v.Type()),
			"registration_number":    v.RegistrationNumber(),
			"daily_rent_price_cents": v.DailyRentPriceCents(),
			"updated_at":             v.UpdatedAt(),
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return domain.NewConflictError("registration number already exists")
		}
		return fmt.Errorf("failed to update vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Vehicle", v.ID().String())
	}
	return nil
}

// Delete removes a vehicle by ID.
func (r *GormVehicleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&VehicleModel{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete vehicle: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Vehicle", id.String())
	}
	return nil
}

// --- Conversion helpers ---

func toVehicleModel(v *vehicleDomain.Vehicle) *VehicleModel {
	return &VehicleModel{
		ID:                  v.ID(),
		VehicleName:         v.Name(),
		Type:                string(v.Type()),
		RegistrationNumber:  v.RegistrationNumber(),
		DailyRentPriceCents: v.DailyRentPriceCents(),
		AvailabilityStatus:  string(v.Availability()),
		CreatedAt:           v.CreatedAt(),
		UpdatedAt:           v.UpdatedAt(),
	}
}

func toDomainVehicle(m *VehicleModel) *vehicleDomain.Vehicle {
	return vehicleDomain.ReconstructVehicle(
		m.ID,
		m.VehicleName,
		vehicleDomain.VehicleType(m.Type),
		m.RegistrationNumber,
		m.DailyRentPriceCents,
		vehicleDomain.AvailabilityStatus(m.AvailabilityStatus),
		m.CreatedAt,
		m.UpdatedAt,
	)
}
