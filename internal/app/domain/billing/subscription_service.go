package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

var _ SubscriptionService = (*SubscriptionServiceImpl)(nil)

// SubscriptionService is the read-and-cancel side of the ledger. Creation
// always goes through a payment channel, never through here.
type SubscriptionService interface {
	Current(ctx context.Context, userID uuid.UUID) (*SubscriptionView, error)
	Unsubscribe(ctx context.Context, userID uuid.UUID) error
	Plans(ctx context.Context) ([]*models.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
	UpdatePlan(ctx context.Context, plan *models.SubscriptionPlan) error
}

// SubscriptionView joins the user's subscription row with its catalog entry.
type SubscriptionView struct {
	models.Subscription
	PlanDetails *models.SubscriptionPlan `json:"planDetails,omitempty"`
}

const plansCacheKey = "subscription_plans"

type SubscriptionServiceImpl struct {
	logger *zap.Logger
	repo   Repository
	cache  *cache.Cache
}

func NewSubscriptionService(repo Repository, logger *zap.Logger) *SubscriptionServiceImpl {
	return &SubscriptionServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Current fetches the subscription row and the plan catalog concurrently and
// joins them by plan name.
func (s *SubscriptionServiceImpl) Current(ctx context.Context, userID uuid.UUID) (*SubscriptionView, error) {
	var (
		sub   *models.Subscription
		plans []*models.SubscriptionPlan
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sub, err = s.repo.GetSubscriptionByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		plans, err = s.Plans(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &SubscriptionView{Subscription: *sub}
	for _, p := range plans {
		if strings.EqualFold(p.Name, string(sub.Plan)) {
			view.PlanDetails = p
			break
		}
	}
	return view, nil
}

func (s *SubscriptionServiceImpl) Unsubscribe(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.CancelSubscription(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("Subscription cancelled", zap.String("userID", userID.String()))
	return nil
}

// Plans serves the catalog from a short TTL cache; the catalog changes only
// through admin writes, which invalidate it.
func (s *SubscriptionServiceImpl) Plans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	if cached, found := s.cache.Get(plansCacheKey); found {
		return cached.([]*models.SubscriptionPlan), nil
	}

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(plansCacheKey, plans, cache.DefaultExpiration)
	return plans, nil
}

func (s *SubscriptionServiceImpl) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	if err := validatePlan(plan); err != nil {
		return err
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return err
	}
	s.cache.Delete(plansCacheKey)
	return nil
}

func (s *SubscriptionServiceImpl) UpdatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	if plan.ID == uuid.Nil {
		return fmt.Errorf("plan id is required: %w", models.ErrBadRequest)
	}
	if err := validatePlan(plan); err != nil {
		return err
	}
	if err := s.repo.UpdatePlan(ctx, plan); err != nil {
		return err
	}
	s.cache.Delete(plansCacheKey)
	return nil
}

func validatePlan(plan *models.SubscriptionPlan) error {
	if plan.Name == "" {
		return fmt.Errorf("plan name is required: %w", models.ErrBadRequest)
	}
	if plan.Price < 0 || plan.AnnualPrice < 0 {
		return fmt.Errorf("plan prices must not be negative: %w", models.ErrBadRequest)
	}
	return nil
}
