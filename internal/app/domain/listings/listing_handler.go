package listings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/domain"
	"github.com/hanapbahay/hanapbahay-go/internal/app/middleware"
	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

type ListingHandlers struct {
	*domain.BaseHandler
	service Service
}

func NewListingHandlers(service Service, logger *zap.Logger) *ListingHandlers {
	return &ListingHandlers{
		BaseHandler: domain.NewBaseHandler(logger),
		service:     service,
	}
}

type createListingRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	RentalType  string  `json:"rentalType" binding:"required"`
	Price       float64 `json:"price" binding:"required"`
}

type updateListingRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	RentalType  *string  `json:"rentalType"`
	Price       *float64 `json:"price"`
}

func (h *ListingHandlers) Create(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "title, rentalType and price are required", Status: http.StatusBadRequest})
		return
	}

	callerID, callerRole, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "authentication required", Status: http.StatusUnauthorized})
		return
	}

	listing, err := h.service.Create(c.Request.Context(), callerID, callerRole, CreateListingParams{
		Title:       req.Title,
		Description: req.Description,
		RentalType:  models.RentalType(req.RentalType),
		Price:       req.Price,
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}

func (h *ListingHandlers) Get(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid listing id", Status: http.StatusBadRequest})
		return
	}

	listing, err := h.service.Get(c.Request.Context(), listingID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

func (h *ListingHandlers) List(c *gin.Context) {
	listings, err := h.service.List(c.Request.Context())
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listings)
}

func (h *ListingHandlers) Update(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid listing id", Status: http.StatusBadRequest})
		return
	}

	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid request body", Status: http.StatusBadRequest})
		return
	}

	callerID, callerRole, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "authentication required", Status: http.StatusUnauthorized})
		return
	}

	params := UpdateListingParams{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	}
	if req.RentalType != nil {
		rt := models.RentalType(*req.RentalType)
		params.RentalType = &rt
	}

	listing, err := h.service.Update(c.Request.Context(), listingID, callerID, callerRole, params)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

func (h *ListingHandlers) AdminUnarchive(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid listing id", Status: http.StatusBadRequest})
		return
	}

	listing, err := h.service.AdminUnarchive(c.Request.Context(), listingID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

