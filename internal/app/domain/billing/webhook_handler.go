package billing

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/domain"
)

// Stripe caps event payloads well below this.
const maxWebhookBody = 64 * 1024

// EventVerifier checks a raw payload against its signature header before the
// event reaches any business logic.
type EventVerifier interface {
	VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type WebhookHandlers struct {
	*domain.BaseHandler
	verifier EventVerifier
	service  WebhookService
}

func NewWebhookHandlers(verifier EventVerifier, service WebhookService, logger *zap.Logger) *WebhookHandlers {
	return &WebhookHandlers{
		BaseHandler: domain.NewBaseHandler(logger),
		verifier:    verifier,
		service:     service,
	}
}

// HandleStripeEvent responds non-2xx on any failure so the provider retries
// the delivery; retries are safe because processing is idempotent.
func (h *WebhookHandlers) HandleStripeEvent(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "failed to read request body", Status: http.StatusBadRequest})
		return
	}

	event, err := h.verifier.VerifyEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.Logger.Warn("Rejected webhook with bad signature", zap.Error(err))
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid signature", Status: http.StatusBadRequest})
		return
	}

	if err := h.service.ProcessEvent(c.Request.Context(), event); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "event processing failed", Status: http.StatusBadRequest})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
