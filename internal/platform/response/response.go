package response

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rentify/service-booking/internal/platform/apperror"
)

// Envelope is the JSON body every endpoint returns.
type Envelope struct {
	Success bool        `json:"success"`
	Data    any         `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Pagination `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind         string `json:"kind"`
	Message      string `json:"message"`
	CurrentState string `json:"current_state,omitempty"`
}

// Pagination is attached to list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Success writes a 200 with data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 with data.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// NoContent writes a 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a 200 with a page of items.
func Paginated(c *gin.Context, items any, total int64, page, limit int) {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages},
	})
}

// BadRequest writes a 400 validation error.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, ErrorBody{Kind: string(apperror.KindValidation), Message: message})
}

// Unauthorized writes a 401.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, ErrorBody{Kind: string(apperror.KindUnauthorized), Message: message})
}

// Forbidden writes a 403.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, ErrorBody{Kind: string(apperror.KindForbidden), Message: message})
}

// Error maps err onto a status code. Anything that is not an *apperror.Error
// is reported as an opaque internal error.
func Error(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		abort(c, http.StatusInternalServerError, ErrorBody{
			Kind:    string(apperror.KindInternal),
			Message: "internal server error",
		})
		return
	}

	status := StatusFor(appErr.Kind)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	abort(c, status, ErrorBody{
		Kind:         string(appErr.Kind),
		Message:      appErr.Message,
		CurrentState: appErr.CurrentState,
	})
}

// StatusFor returns the HTTP status for an error kind.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindInvariantViolation:
		return http.StatusUnprocessableEntity
	case apperror.KindInvalidTransition, apperror.KindOverlapConflict, apperror.KindConflict:
		return http.StatusConflict
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, body ErrorBody) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: &body})
}
