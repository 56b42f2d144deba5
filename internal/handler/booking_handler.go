package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rentify/service-booking/internal/application"
	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	"github.com/rentify/service-booking/internal/platform/auth"
	"github.com/rentify/service-booking/internal/platform/middleware"
	"github.com/rentify/service-booking/internal/platform/response"
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
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.GET("/:id/history", h.GetHistory)
		bookings.POST("/:id/owner_accept", h.OwnerAccept)
		bookings.POST("/:id/renter_confirm", h.RenterConfirm)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/return", h.ReturnBooking)
		bookings.POST("/:id/complete", h.CompleteBooking)
		bookings.POST("/:id/extend", h.ExtendBooking)
		bookings.POST("/:id/assign_logistics", h.AssignLogistics)
	}
}

// CreateBooking handles POST /api/v1/bookings. The caller is the renter.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Lists bookings where the caller is renter or owner.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var filter bookingDomain.ListFilter
	if raw := c.Query("item"); raw != "" {
		itemID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid item ID")
			return
		}
		filter.ItemID = &itemID
	}
	if raw := c.Query("status"); raw != "" {
		status, err := bookingDomain.ParseStatus(raw)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		filter.Status = &status
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListForParticipant(c.Request.Context(), userID, filter, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), userID, bookingID, isAdmin(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetHistory handles GET /api/v1/bookings/:id/history. Newest first unless ?order=asc.
func (h *BookingHandler) GetHistory(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	order := bookingDomain.ParseHistoryOrder(c.Query("order"))
	result, err := h.service.GetHistory(c.Request.Context(), userID, bookingID, isAdmin(c), order)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

type noteBody struct {
	Note string `json:"note"`
}

// OwnerAccept handles POST /api/v1/bookings/:id/owner_accept.
func (h *BookingHandler) OwnerAccept(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	var body struct {
		OwnerNote string `json:"owner_note"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.OwnerAccept(c.Request.Context(), bookingID, userID, body.OwnerNote)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RenterConfirm handles POST /api/v1/bookings/:id/renter_confirm.
func (h *BookingHandler) RenterConfirm(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	var body noteBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.RenterConfirm(c.Request.Context(), bookingID, userID, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.Cancel(c.Request.Context(), bookingID, userID, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ReturnBooking handles POST /api/v1/bookings/:id/return (renter hands the item back).
func (h *BookingHandler) ReturnBooking(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	var body noteBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.Return(c.Request.Context(), bookingID, userID, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CompleteBooking handles POST /api/v1/bookings/:id/complete (owner closes the rental).
func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	var body noteBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.Complete(c.Request.Context(), bookingID, userID, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ExtendBooking handles POST /api/v1/bookings/:id/extend.
func (h *BookingHandler) ExtendBooking(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	var body struct {
		Days int `json:"days" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "days is required")
		return
	}

	result, err := h.service.Extend(c.Request.Context(), bookingID, userID, body.Days)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AssignLogistics handles POST /api/v1/bookings/:id/assign_logistics.
func (h *BookingHandler) AssignLogistics(c *gin.Context) {
	userID, bookingID, ok := callerAndBooking(c)
	if !ok {
		return
	}

	var body struct {
		Provider string `json:"provider" binding:"required"`
		Details  string `json:"details"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "provider is required")
		return
	}

	result, err := h.service.AssignLogistics(c.Request.Context(), bookingID, userID, body.Provider, body.Details)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// callerAndBooking reads the authenticated caller and the :id param. It
// writes the error response itself and reports false on failure.
func callerAndBooking(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, bookingID, true
}

func isAdmin(c *gin.Context) bool {
	role, ok := middleware.GetUserRole(c)
	return ok && role == auth.RoleAdmin
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
