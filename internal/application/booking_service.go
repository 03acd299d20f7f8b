package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/torque-rentals/service-rental/internal/cache"
	"github.com/torque-rentals/service-rental/internal/common/domain"
	"github.com/torque-rentals/service-rental/internal/common/kafka"
	bookingDomain "github.com/torque-rentals/service-rental/internal/domain/booking"
	userDomain "github.com/torque-rentals/service-rental/internal/domain/user"
	vehicleDomain "github.com/torque-rentals/service-rental/internal/domain/vehicle"
	"github.com/torque-rentals/service-rental/internal/events"
)

const dateLayout = "2006-01-02"

// CreateBookingRequest holds the data needed to create a new booking.
// Dates use the YYYY-MM-DD calendar format; the range is inclusive of
// both endpoints.
type CreateBookingRequest struct {
	CustomerID    string `json:"customer_id" binding:"required"`
	VehicleID     string `json:"vehicle_id" binding:"required"`
	RentStartDate string `json:"rent_start_date" binding:"required"`
	RentEndDate   string `json:"rent_end_date" binding:"required"`
}

// UpdateBookingStatusRequest carries the requested status transition.
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// VehicleSummaryDTO is the vehicle projection nested in booking responses.
type VehicleSummaryDTO struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Type                string    `json:"type"`
	RegistrationNumber  string    `json:"registration_number"`
	DailyRentPriceCents int64     `json:"daily_rent_price_cents"`
	AvailabilityStatus  string    `json:"availability_status"`
}

// CustomerSummaryDTO is the customer projection nested in booking
// responses. Only admins receive it.
type CustomerSummaryDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID           `json:"id"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	VehicleID       uuid.UUID           `json:"vehicle_id"`
	RentStartDate   string              `json:"rent_start_date"`
	RentEndDate     string              `json:"rent_end_date"`
	TotalPriceCents int64               `json:"total_price_cents"`
	Status          string              `json:"status"`
	Vehicle         *VehicleSummaryDTO  `json:"vehicle,omitempty"`
	Customer        *CustomerSummaryDTO `json:"customer,omitempty"`
	Version         int64               `json:"version"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	bookings bookingDomain.BookingRepository
	vehicles vehicleDomain.VehicleRepository
	users    userDomain.UserRepository
	pricing  bookingDomain.PricingStrategy
	guard    *bookingDomain.AvailabilityGuard
	policy   *bookingDomain.TransitionPolicy
	cache    *cache.VehicleCache
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	vehicles vehicleDomain.VehicleRepository,
	users userDomain.UserRepository,
	pricing bookingDomain.PricingStrategy,
	cache *cache.VehicleCache,
	producer *kafka.Producer,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		vehicles: vehicles,
		users:    users,
		pricing:  pricing,
		guard:    bookingDomain.NewAvailabilityGuard(),
		policy:   bookingDomain.NewTransitionPolicy(),
		cache:    cache,
		producer: producer,
		logger:   logger,
	}
}

// CreateBooking creates a new booking, claims the vehicle, and returns the
// booking enriched with a vehicle summary.
func (s *BookingService) CreateBooking(ctx context.Context, callerRole userDomain.Role, req CreateBookingRequest) (*BookingDTO, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, domain.NewValidationError("customer_id must be a valid UUID")
	}
	vehicleID, err := uuid.Parse(req.VehicleID)
	if err != nil {
		return nil, domain.NewValidationError("vehicle_id must be a valid UUID")
	}
	rentStart, err := time.Parse(dateLayout, req.RentStartDate)
	if err != nil {
		return nil, domain.NewValidationError("rent_start_date must be a YYYY-MM-DD date")
	}
	rentEnd, err := time.Parse(dateLayout, req.RentEndDate)
	if err != nil {
		return nil, domain.NewValidationError("rent_end_date must be a YYYY-MM-DD date")
	}

	customer, err := s.users.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	v, err := s.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	// The flag alone is not trusted; an active-booking lookup is the
	// authoritative occupancy source.
	hasActive, err := s.bookings.HasActiveForVehicle(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active bookings: %w", err)
	}
	if !s.guard.CanBook(v, hasActive) {
		return nil, domain.NewConflictError("vehicle is not available for booking")
	}

	if rentEnd.Before(rentStart) {
		return nil, domain.NewValidationError("rent_end_date must not be before rent_start_date")
	}

	priceCents, err := s.pricing.Calculate(bookingDomain.PricingParams{
		DailyRateCents: v.DailyRentPriceCents(),
		RentStart:      rentStart,
		RentEnd:        rentEnd,
	})
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("pricing error: %v", err))
	}

	bk, err := bookingDomain.NewBooking(customer.ID(), vehicleID, rentStart, rentEnd, priceCents)
	if err != nil {
		return nil, err
	}

	// Insert and vehicle claim happen in one transaction; concurrent
	// creates for the same vehicle lose with a conflict.
	if err := s.bookings.CreateActive(ctx, bk); err != nil {
		return nil, err
	}
	v.MarkBooked()

	s.invalidateVehicleCache(ctx)
	s.publishEvent(ctx, events.BookingCreated, events.BookingCreatedEvent{
		BookingID:       bk.ID(),
		CustomerID:      bk.CustomerID(),
		VehicleID:       bk.VehicleID(),
		RentStartDate:   bk.RentStartDate(),
		RentEndDate:     bk.RentEndDate(),
		TotalPriceCents: bk.TotalPriceCents(),
		OccurredAt:      time.Now().UTC(),
	})

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("vehicle_id", vehicleID.String()),
		zap.String("customer_id", customer.ID().String()),
	)

	dto := toBookingDTO(bk)
	dto.Vehicle = toVehicleSummary(v)
	if callerRole == userDomain.RoleAdmin {
		dto.Customer = toCustomerSummary(customer)
	}
	return &dto, nil
}

// UpdateBookingStatus applies a role-gated status transition. Transitions
// into cancelled or returned release the vehicle in the same transaction.
func (s *BookingService) UpdateBookingStatus(
	ctx context.Context,
	bookingID uuid.UUID,
	callerID uuid.UUID,
	callerRole userDomain.Role,
	req UpdateBookingStatusRequest,
) (*BookingDTO, error) {
	target, err := bookingDomain.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !s.policy.Allow(callerRole, callerID, bk, target) {
		return nil, domain.NewForbiddenError("you are not allowed to perform this transition")
	}

	if err := bk.TransitionTo(target); err != nil {
		return nil, err
	}
	bk.IncrementVersion()

	if err := s.bookings.UpdateStatus(ctx, bk); err != nil {
		return nil, err
	}

	s.invalidateVehicleCache(ctx)
	switch target {
	case bookingDomain.StatusCancelled:
		s.publishEvent(ctx, events.BookingCancelled, events.BookingCancelledEvent{
			BookingID:   bk.ID(),
			CustomerID:  bk.CustomerID(),
			VehicleID:   bk.VehicleID(),
			CancelledBy: callerID,
			OccurredAt:  time.Now().UTC(),
		})
	case bookingDomain.StatusReturned:
		s.publishEvent(ctx, events.BookingReturned, events.BookingReturnedEvent{
			BookingID:  bk.ID(),
			CustomerID: bk.CustomerID(),
			VehicleID:  bk.VehicleID(),
			ReturnedBy: callerID,
			OccurredAt: time.Now().UTC(),
		})
	}

	s.logger.Info("booking status updated",
		zap.String("booking_id", bk.ID().String()),
		zap.String("status", bk.Status().String()),
	)

	return s.assembleView(ctx, bk, callerRole)
}

// GetBooking retrieves a single booking. Customers may only read their own.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, callerID uuid.UUID, callerRole userDomain.Role) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if callerRole != userDomain.RoleAdmin && bk.CustomerID() != callerID {
		return nil, domain.NewNotFoundError("Booking", bookingID.String())
	}
	return s.assembleView(ctx, bk, callerRole)
}

// ListBookings returns a role-scoped page of bookings: admins see every
// booking, customers only their own.
func (s *BookingService) ListBookings(ctx context.Context, callerID uuid.UUID, callerRole userDomain.Role, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	var (
		rows  []*bookingDomain.Booking
		total int64
		err   error
	)
	if callerRole == userDomain.RoleAdmin {
		rows, total, err = s.bookings.ListAll(ctx, page, limit)
	} else {
		rows, total, err = s.bookings.FindByCustomerID(ctx, callerID, page, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	vehicleByID := make(map[uuid.UUID]*vehicleDomain.Vehicle)
	customerByID := make(map[uuid.UUID]*userDomain.User)

	dtos := make([]BookingDTO, len(rows))
	for i, bk := range rows {
		dto := toBookingDTO(bk)

		v, ok := vehicleByID[bk.VehicleID()]
		if !ok {
			if v, err = s.vehicles.FindByID(ctx, bk.VehicleID()); err != nil {
				return nil, err
			}
			vehicleByID[bk.VehicleID()] = v
		}
		dto.Vehicle = toVehicleSummary(v)

		if callerRole == userDomain.RoleAdmin {
			c, ok := customerByID[bk.CustomerID()]
			if !ok {
				if c, err = s.users.FindByID(ctx, bk.CustomerID()); err != nil {
					return nil, err
				}
				customerByID[bk.CustomerID()] = c
			}
			dto.Customer = toCustomerSummary(c)
		}
		dtos[i] = dto
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func (s *BookingService) assembleView(ctx context.Context, bk *bookingDomain.Booking, callerRole userDomain.Role) (*BookingDTO, error) {
	dto := toBookingDTO(bk)

	v, err := s.vehicles.FindByID(ctx, bk.VehicleID())
	if err != nil {
		return nil, err
	}
	dto.Vehicle = toVehicleSummary(v)

	if callerRole == userDomain.RoleAdmin {
		c, err := s.users.FindByID(ctx, bk.CustomerID())
		if err != nil {
			return nil, err
		}
		dto.Customer = toCustomerSummary(c)
	}
	return &dto, nil
}

func (s *BookingService) invalidateVehicleCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate vehicle cache", zap.Error(err))
	}
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, data interface{}) {
	if s.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent("service-rental", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", events.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:              bk.ID(),
		CustomerID:      bk.CustomerID(),
		VehicleID:       bk.VehicleID(),
		RentStartDate:   bk.RentStartDate().Format(dateLayout),
		RentEndDate:     bk.RentEndDate().Format(dateLayout),
		TotalPriceCents: bk.TotalPriceCents(),
		Status:          bk.Status().String(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toVehicleSummary(v *vehicleDomain.Vehicle) *VehicleSummaryDTO {
	return &VehicleSummaryDTO{
		ID:                  v.ID(),
		Name:                v.Name(),
		Type:                string(v.Type()),
		RegistrationNumber:  v.RegistrationNumber(),
		DailyRentPriceCents: v.DailyRentPriceCents(),
		AvailabilityStatus:  string(v.Availability()),
	}
}

func toCustomerSummary(u *userDomain.User) *CustomerSummaryDTO {
	return &CustomerSummaryDTO{
		ID:    u.ID(),
		Name:  u.Name(),
		Email: u.Email(),
		Phone: u.Phone(),
	}
}
