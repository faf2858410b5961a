package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/domain"
	"github.com/hanapbahay/hanapbahay-go/internal/app/middleware"
	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

type BillingHandlers struct {
	*domain.BaseHandler
	gcash GcashService
	subs  SubscriptionService
}

func NewBillingHandlers(gcash GcashService, subs SubscriptionService, logger *zap.Logger) *BillingHandlers {
	return &BillingHandlers{
		BaseHandler: domain.NewBaseHandler(logger),
		gcash:       gcash,
		subs:        subs,
	}
}

type submitGcashRequest struct {
	Plan          string  `json:"plan" binding:"required"`
	BillingPeriod string  `json:"billingPeriod" binding:"required"`
	ReceiptFile   string  `json:"receiptFile" binding:"required"`
	Price         float64 `json:"price" binding:"required"`
}

func (h *BillingHandlers) SubmitGcash(c *gin.Context) {
	var req submitGcashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "plan, billingPeriod, receiptFile and price are required", Status: http.StatusBadRequest})
		return
	}

	callerID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "authentication required", Status: http.StatusUnauthorized})
		return
	}

	payment, err := h.gcash.Submit(c.Request.Context(), callerID, SubmitGcashParams{
		Plan:          models.Plan(req.Plan),
		BillingPeriod: req.BillingPeriod,
		ReceiptRef:    req.ReceiptFile,
		Price:         req.Price,
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

func (h *BillingHandlers) ListGcash(c *gin.Context) {
	var status *models.GcashStatus
	if raw := c.Query("status"); raw != "" {
		s := models.GcashStatus(raw)
		status = &s
	}

	payments, err := h.gcash.List(c.Request.Context(), status)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

func (h *BillingHandlers) GetGcash(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid payment id", Status: http.StatusBadRequest})
		return
	}

	payment, err := h.gcash.Get(c.Request.Context(), paymentID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

func (h *BillingHandlers) ApproveGcash(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid payment id", Status: http.StatusBadRequest})
		return
	}

	sub, err := h.gcash.Approve(c.Request.Context(), paymentID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *BillingHandlers) DeclineGcash(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid payment id", Status: http.StatusBadRequest})
		return
	}

	if err := h.gcash.Decline(c.Request.Context(), paymentID); err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"declined": paymentID})
}

func (h *BillingHandlers) CurrentSubscription(c *gin.Context) {
	callerID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "authentication required", Status: http.StatusUnauthorized})
		return
	}

	view, err := h.subs.Current(c.Request.Context(), callerID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *BillingHandlers) Unsubscribe(c *gin.Context) {
	callerID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "authentication required", Status: http.StatusUnauthorized})
		return
	}

	if err := h.subs.Unsubscribe(c.Request.Context(), callerID); err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unsubscribed": callerID})
}

func (h *BillingHandlers) Plans(c *gin.Context) {
	plans, err := h.subs.Plans(c.Request.Context())
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plans)
}

type planRequest struct {
	Name        string   `json:"name" binding:"required"`
	Price       float64  `json:"price"`
	AnnualPrice float64  `json:"annualPrice"`
	Features    []string `json:"features"`
}

func (h *BillingHandlers) CreatePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "name is required", Status: http.StatusBadRequest})
		return
	}

	plan := &models.SubscriptionPlan{
		Name:        req.Name,
		Price:       req.Price,
		AnnualPrice: req.AnnualPrice,
		Features:    req.Features,
	}
	if err := h.subs.CreatePlan(c.Request.Context(), plan); err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (h *BillingHandlers) UpdatePlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid plan id", Status: http.StatusBadRequest})
		return
	}

	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "name is required", Status: http.StatusBadRequest})
		return
	}

	plan := &models.SubscriptionPlan{
		ID:          planID,
		Name:        req.Name,
		Price:       req.Price,
		AnnualPrice: req.AnnualPrice,
		Features:    req.Features,
	}
	if err := h.subs.UpdatePlan(c.Request.Context(), plan); err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}
