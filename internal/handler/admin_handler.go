package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rentify/service-booking/internal/application"
	"github.com/rentify/service-booking/internal/platform/auth"
	"github.com/rentify/service-booking/internal/platform/middleware"
	"github.com/rentify/service-booking/internal/platform/response"
)

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service      *application.BookingService
	availability *application.AvailabilityService
	sweeper      *application.ExpirySweeper
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(
	service *application.BookingService,
	availability *application.AvailabilityService,
	sweeper *application.ExpirySweeper,
) *AdminBookingHandler {
	return &AdminBookingHandler{service: service, availability: availability, sweeper: sweeper}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.DELETE("/bookings/:id", h.DeleteBooking)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.POST("/sweeps/expiry", h.RunExpirySweep)
		admin.POST("/sweeps/reminders", h.RunReminders)
		admin.POST("/items/reconcile", h.ReconcileItems)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// DeleteBooking handles DELETE /api/v1/admin/bookings/:id.
func (h *AdminBookingHandler) DeleteBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), bookingID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// RunExpirySweep handles POST /api/v1/admin/sweeps/expiry.
func (h *AdminBookingHandler) RunExpirySweep(c *gin.Context) {
	var body struct {
		DryRun bool `json:"dry_run"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.sweeper.Run(c.Request.Context(), body.DryRun)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RunReminders handles POST /api/v1/admin/sweeps/reminders.
func (h *AdminBookingHandler) RunReminders(c *gin.Context) {
	result, err := h.sweeper.RunReturnReminders(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ReconcileItems handles POST /api/v1/admin/items/reconcile. An empty list reconciles every item.
func (h *AdminBookingHandler) ReconcileItems(c *gin.Context) {
	var body struct {
		ItemIDs []uuid.UUID `json:"item_ids"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, "item_ids must be a list of UUIDs")
			return
		}
	}

	results, err := h.availability.Reconcile(c.Request.Context(), body.ItemIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, results)
}
