package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

func TestSubscriptionService_Current(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("joins subscription with catalog entry", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())

		premiumPlan := &models.SubscriptionPlan{ID: uuid.New(), Name: "Premium", Price: 349}
		mockRepo.On("GetSubscriptionByUser", mock.Anything, userID).Return(&models.Subscription{
			UserID: userID, Plan: models.PlanPremium, Status: models.SubscriptionActive,
		}, nil).Once()
		mockRepo.On("ListPlans", mock.Anything).Return([]*models.SubscriptionPlan{
			premiumPlan,
			{ID: uuid.New(), Name: "Business", Price: 649},
		}, nil).Once()

		view, err := service.Current(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, models.PlanPremium, view.Plan)
		require.NotNil(t, view.PlanDetails)
		assert.Equal(t, premiumPlan.ID, view.PlanDetails.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("no subscription row", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())

		mockRepo.On("GetSubscriptionByUser", mock.Anything, userID).
			Return(nil, fmt.Errorf("no subscription: %w", models.ErrNotFound)).Once()
		mockRepo.On("ListPlans", mock.Anything).Return([]*models.SubscriptionPlan{}, nil).Maybe()

		_, err := service.Current(ctx, userID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestSubscriptionService_Plans(t *testing.T) {
	ctx := context.Background()

	t.Run("second read hits the cache", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())

		mockRepo.On("ListPlans", mock.Anything).Return([]*models.SubscriptionPlan{
			{ID: uuid.New(), Name: "Premium"},
		}, nil).Once()

		first, err := service.Plans(ctx)
		require.NoError(t, err)
		second, err := service.Plans(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		mockRepo.AssertExpectations(t)
	})

	t.Run("admin write invalidates the cache", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())

		mockRepo.On("ListPlans", mock.Anything).Return([]*models.SubscriptionPlan{}, nil).Twice()
		mockRepo.On("CreatePlan", mock.Anything, mock.Anything).Return(nil).Once()

		_, err := service.Plans(ctx)
		require.NoError(t, err)

		require.NoError(t, service.CreatePlan(ctx, &models.SubscriptionPlan{Name: "Business", Price: 649}))

		_, err = service.Plans(ctx)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestSubscriptionService_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("active subscription cancels", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())

		mockRepo.On("CancelSubscription", mock.Anything, userID).Return(nil).Once()
		require.NoError(t, service.Unsubscribe(ctx, userID))
		mockRepo.AssertExpectations(t)
	})

	t.Run("nothing to cancel", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		service := NewSubscriptionService(mockRepo, zap.NewNop())

		mockRepo.On("CancelSubscription", mock.Anything, userID).
			Return(fmt.Errorf("no active subscription: %w", models.ErrNotFound)).Once()

		err := service.Unsubscribe(ctx, userID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestSubscriptionService_PlanValidation(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockBillingRepo)
	service := NewSubscriptionService(mockRepo, zap.NewNop())

	t.Run("plan needs a name", func(t *testing.T) {
		err := service.CreatePlan(ctx, &models.SubscriptionPlan{Price: 349})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrBadRequest))
	})

	t.Run("update needs an id", func(t *testing.T) {
		err := service.UpdatePlan(ctx, &models.SubscriptionPlan{Name: "Premium"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrBadRequest))
	})

	mockRepo.AssertNotCalled(t, "CreatePlan", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "UpdatePlan", mock.Anything, mock.Anything)
}
