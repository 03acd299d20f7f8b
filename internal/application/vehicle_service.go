package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/torque-rentals/service-rental/internal/cache"
	"github.com/torque-rentals/service-rental/internal/common/domain"
	bookingDomain "github.com/torque-rentals/service-rental/internal/domain/booking"
	vehicleDomain "github.com/torque-rentals/service-rental/internal/domain/vehicle"
)

// CreateVehicleRequest is the request DTO for adding a vehicle to the fleet.
type CreateVehicleRequest struct {
	Name                string `json:"name" binding:"required"`
	Type                string `json:"type" binding:"required"`
	RegistrationNumber  string `json:"registration_number" binding:"required"`
	DailyRentPriceCents int64  `json:"daily_rent_price_cents" binding:"required"`
}

// UpdateVehicleRequest is the request DTO for updating vehicle catalog
// fields. Availability cannot be set here; it only moves through booking
// transitions.
type UpdateVehicleRequest struct {
	Name                string `json:"name"`
	Type                string `json:"type"`
	RegistrationNumber  string `json:"registration_number"`
	DailyRentPriceCents int64  `json:"daily_rent_price_cents"`
}

// VehicleDTO is the API response representation of a vehicle.
type VehicleDTO struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Type                string    `json:"type"`
	RegistrationNumber  string    `json:"registration_number"`
	DailyRentPriceCents int64     `json:"daily_rent_price_cents"`
	AvailabilityStatus  string    `json:"availability_status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// VehicleService implements use cases for fleet management.
type VehicleService struct {
	repo     vehicleDomain.VehicleRepository
	bookings bookingDomain.BookingRepository
	cache    *cache.VehicleCache
	logger   *zap.Logger
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(
	repo vehicleDomain.VehicleRepository,
	bookings bookingDomain.BookingRepository,
	cache *cache.VehicleCache,
	logger *zap.Logger,
) *VehicleService {
	return &VehicleService{repo: repo, bookings: bookings, cache: cache, logger: logger}
}

// CreateVehicle adds a new vehicle to the fleet.
func (s *VehicleService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*VehicleDTO, error) {
	v, err := vehicleDomain.NewVehicle(
		req.Name,
		vehicleDomain.VehicleType(req.Type),
		req.RegistrationNumber,
		req.DailyRentPriceCents,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, v); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)

	s.logger.Info("vehicle created",
		zap.String("vehicle_id", v.ID().String()),
		zap.String("registration_number", v.RegistrationNumber()),
	)
	result := toVehicleDTO(v)
	return &result, nil
}

// GetVehicle returns a single vehicle by ID.
func (s *VehicleService) GetVehicle(ctx context.Context, id uuid.UUID) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toVehicleDTO(v)
	return &result, nil
}

// ListVehicles returns a page of vehicles, served from cache when warm.
func (s *VehicleService) ListVehicles(ctx context.Context, page, limit int) (*domain.PaginatedResult[VehicleDTO], error) {
	cached, total, hit, err := s.cache.GetList(ctx, page, limit)
	if err != nil {
		s.logger.Warn("vehicle cache read failed", zap.Error(err))
	}
	if hit {
		result := domain.NewPaginatedResult(toVehicleDTOs(cached), total, page, limit)
		return &result, nil
	}

	vehicles, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	if err := s.cache.SetList(ctx, page, limit, vehicles, total); err != nil {
		s.logger.Warn("vehicle cache write failed", zap.Error(err))
	}

	result := domain.NewPaginatedResult(toVehicleDTOs(vehicles), total, page, limit)
	return &result, nil
}

// UpdateVehicle updates a vehicle's catalog fields.
func (s *VehicleService) UpdateVehicle(ctx context.Context, id uuid.UUID, req UpdateVehicleRequest) (*VehicleDTO, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := v.UpdateDetails(
		req.Name,
		vehicleDomain.VehicleType(req.Type),
		req.RegistrationNumber,
		req.DailyRentPriceCents,
	); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)

	s.logger.Info("vehicle updated", zap.String("vehicle_id", id.String()))
	result := toVehicleDTO(v)
	return &result, nil
}

// DeleteVehicle removes a vehicle from the fleet. A vehicle holding an
// active booking cannot be removed.
func (s *VehicleService) DeleteVehicle(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	hasActive, err := s.bookings.HasActiveForVehicle(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check active bookings: %w", err)
	}
	if hasActive {
		return domain.NewConflictError("vehicle has an active booking")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)

	s.logger.Info("vehicle deleted", zap.String("vehicle_id", id.String()))
	return nil
}

func (s *VehicleService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate vehicle cache", zap.Error(err))
	}
}

func toVehicleDTO(v *vehicleDomain.Vehicle) VehicleDTO {
	return VehicleDTO{
		ID:                  v.ID(),
		Name:                v.Name(),
		Type:                string(v.Type()),
		RegistrationNumber:  v.RegistrationNumber(),
		DailyRentPriceCents: v.DailyRentPriceCents(),
		AvailabilityStatus:  string(v.Availability()),
		CreatedAt:           v.CreatedAt(),
		UpdatedAt:           v.UpdatedAt(),
	}
}

func toVehicleDTOs(vehicles []*vehicleDomain.Vehicle) []VehicleDTO {
	dtos := make([]VehicleDTO, len(vehicles))
	for i, v := range vehicles {
		dtos[i] = toVehicleDTO(v)
	}
	return dtos
}
