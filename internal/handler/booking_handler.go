package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/torque-rentals/service-rental/internal/application"
	"github.com/torque-rentals/service-rental/internal/common/auth"
	"github.com/torque-rentals/service-rental/internal/common/middleware"
	"github.com/torque-rentals/service-rental/internal/common/response"
	userDomain "github.com/torque-rentals/service-rental/internal/domain/user"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	bookings := r.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware(jwtManager))
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id", h.UpdateBookingStatus)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	role, ok := callerRole(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), role, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "booking created", result)
}

// ListBookings handles GET /api/v1/bookings. Admins see every booking,
// customers only their own.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, role, ok := caller(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.ListBookings(c.Request.Context(), userID, role, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, "bookings retrieved", result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, role, ok := caller(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "booking retrieved", result)
}

// UpdateBookingStatus handles PUT /api/v1/bookings/:id.
func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, role, ok := caller(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateBookingStatus(c.Request.Context(), bookingID, userID, role, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "booking updated", result)
}

func caller(c *gin.Context) (uuid.UUID, userDomain.Role, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return uuid.Nil, "", false
	}
	role, ok := callerRole(c)
	if !ok {
		return uuid.Nil, "", false
	}
	return userID, role, true
}

func callerRole(c *gin.Context) (userDomain.Role, bool) {
	role, ok := middleware.GetUserRole(c)
	if !ok {
		return "", false
	}
	return userDomain.Role(role), true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
