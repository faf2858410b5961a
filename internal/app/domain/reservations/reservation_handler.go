package reservations

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/domain"
	"github.com/hanapbahay/hanapbahay-go/internal/app/middleware"
)

type ReservationHandlers struct {
	*domain.BaseHandler
	service Service
}

func NewReservationHandlers(service Service, logger *zap.Logger) *ReservationHandlers {
	return &ReservationHandlers{
		BaseHandler: domain.NewBaseHandler(logger),
		service:     service,
	}
}

type createReservationRequest struct {
	ListingID  string     `json:"listingId" binding:"required"`
	StartDate  time.Time  `json:"startDate" binding:"required"`
	EndDate    *time.Time `json:"endDate"`
	TotalPrice float64    `json:"totalPrice"`
}

type confirmReservationRequest struct {
	ReservationID string `json:"reservationId" binding:"required"`
	Status        string `json:"status" binding:"required"`
}

func (h *ReservationHandlers) Create(c *gin.Context) {
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "listingId and startDate are required", Status: http.StatusBadRequest})
		return
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid listing id", Status: http.StatusBadRequest})
		return
	}

	callerID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "authentication required", Status: http.StatusUnauthorized})
		return
	}

	reservation, err := h.service.Create(c.Request.Context(), callerID, CreateReservationParams{
		ListingID:  listingID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		TotalPrice: req.TotalPrice,
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

func (h *ReservationHandlers) Confirm(c *gin.Context) {
	var req confirmReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "reservationId and status are required", Status: http.StatusBadRequest})
		return
	}
	if req.Status != "confirmed" {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "status must be confirmed", Status: http.StatusBadRequest})
		return
	}

	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid reservation id", Status: http.StatusBadRequest})
		return
	}

	callerID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "authentication required", Status: http.StatusUnauthorized})
		return
	}

	reservation, err := h.service.Confirm(c.Request.Context(), reservationID, callerID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservation)
}

func (h *ReservationHandlers) Delete(c *gin.Context) {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid reservation id", Status: http.StatusBadRequest})
		return
	}

	callerID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "authentication required", Status: http.StatusUnauthorized})
		return
	}

	if err := h.service.Delete(c.Request.Context(), reservationID, callerID); err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": reservationID})
}

func (h *ReservationHandlers) List(c *gin.Context) {
	callerID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "authentication required", Status: http.StatusUnauthorized})
		return
	}

	reservations, err := h.service.List(c.Request.Context(), callerID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservations)
}
