package domain

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

// BaseHandler carries the pieces every endpoint handler needs and the single
// place where domain errors become HTTP statuses.
type BaseHandler struct {
	Logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{Logger: logger}
}

// ErrorResponse is the failure body for every endpoint.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// RespondError maps a domain error onto an HTTP status and writes the
// structured failure body. Unknown errors become 500 without leaking detail.
func (h *BaseHandler) RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, models.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, models.ErrConflict):
		status, message = http.StatusConflict, "conflict"
	case errors.Is(err, models.ErrUnauthenticated):
		status, message = http.StatusUnauthorized, "authentication required"
	case errors.Is(err, models.ErrForbidden):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, models.ErrBadRequest), errors.Is(err, models.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrInvalidState):
		status, message = http.StatusBadRequest, err.Error()
	default:
		h.Logger.Error("Unhandled error", zap.Error(err))
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Status: status})
}
