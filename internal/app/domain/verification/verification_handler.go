package verification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/domain"
	"github.com/hanapbahay/hanapbahay-go/internal/app/middleware"
	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

type VerificationHandlers struct {
	*domain.BaseHandler
	service Service
}

func NewVerificationHandlers(service Service, logger *zap.Logger) *VerificationHandlers {
	return &VerificationHandlers{
		BaseHandler: domain.NewBaseHandler(logger),
		service:     service,
	}
}

type submitIDRequest struct {
	IDFront string `json:"idFront" binding:"required"`
	IDBack  string `json:"idBack" binding:"required"`
	IDType  string `json:"idType" binding:"required"`
}

type reviewRequest struct {
	IDStatus string `json:"idStatus" binding:"required"`
	IDFront  string `json:"idFront"`
	IDBack   string `json:"idBack"`
	IDType   string `json:"idType"`
}

// SubmitID lets the authenticated user hand in identity documents, moving
// their verification state to pending.
func (h *VerificationHandlers) SubmitID(c *gin.Context) {
	var req submitIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "idFront, idBack and idType are required", Status: http.StatusBadRequest})
		return
	}

	callerID, _, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse{Error: "authentication required", Status: http.StatusUnauthorized})
		return
	}

	user, err := h.service.SubmitID(c.Request.Context(), callerID, req.IDFront, req.IDBack, req.IDType)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Review is the admin decision endpoint.
func (h *VerificationHandlers) Review(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "invalid user id", Status: http.StatusBadRequest})
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse{Error: "idStatus is required", Status: http.StatusBadRequest})
		return
	}

	user, err := h.service.Review(c.Request.Context(), userID, ReviewParams{
		Decision: models.IDStatus(req.IDStatus),
		IDFront:  req.IDFront,
		IDBack:   req.IDBack,
		IDType:   req.IDType,
	})
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
