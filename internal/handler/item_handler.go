package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rentify/service-booking/internal/application"
	"github.com/rentify/service-booking/internal/platform/auth"
	"github.com/rentify/service-booking/internal/platform/middleware"
	"github.com/rentify/service-booking/internal/platform/response"
)

// ItemHandler serves the booking core's view of items and their availability.
type ItemHandler struct {
	items        *application.ItemService
	availability *application.AvailabilityService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(items *application.ItemService, availability *application.AvailabilityService) *ItemHandler {
	return &ItemHandler{items: items, availability: availability}
}

// RegisterRoutes registers item routes.
func (h *ItemHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	items := r.Group("/api/v1/items")
	items.Use(middleware.AuthMiddleware(jwtManager))
	{
		items.GET("/:id", h.GetItem)
		items.GET("/:id/availability", h.AvailableNow)
		items.GET("/:id/availability/check", h.CheckRange)
	}
}

// GetItem handles GET /api/v1/items/:id.
func (h *ItemHandler) GetItem(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	result, err := h.items.GetItem(c.Request.Context(), itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// AvailableNow handles GET /api/v1/items/:id/availability.
func (h *ItemHandler) AvailableNow(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}

	result, err := h.availability.IsAvailableNow(c.Request.Context(), itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CheckRange handles GET /api/v1/items/:id/availability/check?start=&end=.
func (h *ItemHandler) CheckRange(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid item ID")
		return
	}
	start, end := c.Query("start"), c.Query("end")
	if start == "" || end == "" {
		response.BadRequest(c, "start and end are required")
		return
	}

	result, err := h.availability.CheckRange(c.Request.Context(), itemID, start, end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
