package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
	"github.com/hanapbahay/hanapbahay-go/internal/app/observability/metrics"
)

var _ GcashService = (*GcashServiceImpl)(nil)

// GcashService is the manual payment channel: a user submits a receipt
// reference, an admin reviews it.
type GcashService interface {
	Submit(ctx context.Context, userID uuid.UUID, params SubmitGcashParams) (*models.GcashPayment, error)
	Approve(ctx context.Context, paymentID uuid.UUID) (*models.Subscription, error)
	Decline(ctx context.Context, paymentID uuid.UUID) error
	Get(ctx context.Context, paymentID uuid.UUID) (*models.GcashPayment, error)
	List(ctx context.Context, status *models.GcashStatus) ([]*models.GcashPayment, error)
}

type SubmitGcashParams struct {
	Plan          models.Plan
	BillingPeriod string
	ReceiptRef    string
	Price         float64
}

type GcashServiceImpl struct {
	logger *zap.Logger
	repo   Repository
}

func NewGcashService(repo Repository, logger *zap.Logger) *GcashServiceImpl {
	return &GcashServiceImpl{logger: logger, repo: repo}
}

func (s *GcashServiceImpl) Submit(ctx context.Context, userID uuid.UUID, params SubmitGcashParams) (*models.GcashPayment, error) {
	if params.Plan != models.PlanPremium && params.Plan != models.PlanBusiness {
		return nil, fmt.Errorf("plan must be premium or business: %w", models.ErrBadRequest)
	}
	if params.BillingPeriod == "" || params.ReceiptRef == "" {
		return nil, fmt.Errorf("billingPeriod and receipt are required: %w", models.ErrBadRequest)
	}
	if params.Price <= 0 {
		return nil, fmt.Errorf("price must be positive: %w", models.ErrBadRequest)
	}

	payment := &models.GcashPayment{
		UserID:        userID,
		Plan:          params.Plan,
		BillingPeriod: params.BillingPeriod,
		Price:         params.Price,
		ReceiptRef:    params.ReceiptRef,
	}
	if err := s.repo.CreateGcashPayment(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Info("GCash payment submitted",
		zap.String("paymentID", payment.ID.String()),
		zap.String("userID", userID.String()),
		zap.String("plan", string(params.Plan)))
	return payment, nil
}

func (s *GcashServiceImpl) Approve(ctx context.Context, paymentID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.repo.ApproveGcashPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if metrics.Get() != nil {
		metrics.Get().GcashReviewsTotal.Add(ctx, 1)
	}
	s.logger.Info("GCash payment approved",
		zap.String("paymentID", paymentID.String()),
		zap.String("subscriptionID", sub.ID.String()),
		zap.String("plan", string(sub.Plan)))
	return sub, nil
}

func (s *GcashServiceImpl) Decline(ctx context.Context, paymentID uuid.UUID) error {
	if err := s.repo.DeclineGcashPayment(ctx, paymentID); err != nil {
		return err
	}

	if metrics.Get() != nil {
		metrics.Get().GcashReviewsTotal.Add(ctx, 1)
	}
	s.logger.Info("GCash payment declined", zap.String("paymentID", paymentID.String()))
	return nil
}

func (s *GcashServiceImpl) Get(ctx context.Context, paymentID uuid.UUID) (*models.GcashPayment, error) {
	return s.repo.GetGcashPayment(ctx, paymentID)
}

func (s *GcashServiceImpl) List(ctx context.Context, status *models.GcashStatus) ([]*models.GcashPayment, error) {
	return s.repo.ListGcashPayments(ctx, status)
}
