package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
	"github.com/hanapbahay/hanapbahay-go/internal/pkg/config"
)

type fakeLister struct {
	items []*stripe.LineItem
	err   error
}

func (f *fakeLister) ListCheckoutLineItems(sessionID string) ([]*stripe.LineItem, error) {
	return f.items, f.err
}

func testPriceTable() map[string]config.PricePlan {
	return map[string]config.PricePlan{
		"price_premium_yearly":   {Plan: models.PlanPremium, Period: models.PeriodYearly},
		"price_business_quarter": {Plan: models.PlanBusiness, Period: models.PeriodQuarterly},
	}
}

func checkoutEvent(t *testing.T, created int64) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":               "cs_test_123",
		"customer":         map[string]any{"id": "cus_abc"},
		"customer_details": map[string]any{"email": "maria@example.ph"},
	})
	require.NoError(t, err)
	return stripe.Event{
		ID:      "evt_1",
		Type:    stripe.EventTypeCheckoutSessionCompleted,
		Created: created,
		Data:    &stripe.EventData{Raw: raw},
	}
}

func recurringItem(priceID string) *stripe.LineItem {
	return &stripe.LineItem{
		Price: &stripe.Price{ID: priceID, Recurring: &stripe.PriceRecurring{}},
	}
}

func TestWebhookService_CheckoutCompleted(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("maps price id and upserts subscription", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		lister := &fakeLister{items: []*stripe.LineItem{recurringItem("price_premium_yearly")}}
		service := NewWebhookService(mockRepo, lister, testPriceTable(), zap.NewNop())

		mockRepo.On("GetUserIDByEmail", mock.Anything, "maria@example.ph").Return(userID, nil).Once()
		mockRepo.On("UpsertSubscriptionFromEvent", mock.Anything, SubscriptionEventParams{
			UserID:           userID,
			Plan:             models.PlanPremium,
			Period:           models.PeriodYearly,
			EventTS:          1700000000,
			StripeCustomerID: "cus_abc",
		}).Return(&models.Subscription{UserID: userID, Plan: models.PlanPremium}, nil).Once()

		err := service.ProcessEvent(ctx, checkoutEvent(t, 1700000000))
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("replay produces the same calls, never a second row path", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		lister := &fakeLister{items: []*stripe.LineItem{recurringItem("price_premium_yearly")}}
		service := NewWebhookService(mockRepo, lister, testPriceTable(), zap.NewNop())

		mockRepo.On("GetUserIDByEmail", mock.Anything, "maria@example.ph").Return(userID, nil).Twice()
		mockRepo.On("UpsertSubscriptionFromEvent", mock.Anything, mock.Anything).
			Return(&models.Subscription{UserID: userID}, nil).Twice()

		event := checkoutEvent(t, 1700000000)
		require.NoError(t, service.ProcessEvent(ctx, event))
		require.NoError(t, service.ProcessEvent(ctx, event))
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown price id fails the whole event before any write", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		lister := &fakeLister{items: []*stripe.LineItem{recurringItem("price_from_another_app")}}
		service := NewWebhookService(mockRepo, lister, testPriceTable(), zap.NewNop())

		mockRepo.On("GetUserIDByEmail", mock.Anything, "maria@example.ph").Return(userID, nil).Once()

		err := service.ProcessEvent(ctx, checkoutEvent(t, 1700000000))
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrInvalidState))
		mockRepo.AssertNotCalled(t, "UpsertSubscriptionFromEvent", mock.Anything, mock.Anything)
	})

	t.Run("unknown customer email surfaces not found", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		lister := &fakeLister{items: []*stripe.LineItem{recurringItem("price_premium_yearly")}}
		service := NewWebhookService(mockRepo, lister, testPriceTable(), zap.NewNop())

		mockRepo.On("GetUserIDByEmail", mock.Anything, "maria@example.ph").
			Return(uuid.Nil, fmt.Errorf("no user: %w", models.ErrNotFound)).Once()

		err := service.ProcessEvent(ctx, checkoutEvent(t, 1700000000))
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})

	t.Run("non recurring items are ignored", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		lister := &fakeLister{items: []*stripe.LineItem{
			{Price: &stripe.Price{ID: "price_one_off"}},
			recurringItem("price_business_quarter"),
		}}
		service := NewWebhookService(mockRepo, lister, testPriceTable(), zap.NewNop())

		mockRepo.On("GetUserIDByEmail", mock.Anything, "maria@example.ph").Return(userID, nil).Once()
		mockRepo.On("UpsertSubscriptionFromEvent", mock.Anything, mock.MatchedBy(func(p SubscriptionEventParams) bool {
			return p.Plan == models.PlanBusiness && p.Period == models.PeriodQuarterly
		})).Return(&models.Subscription{UserID: userID}, nil).Once()

		require.NoError(t, service.ProcessEvent(ctx, checkoutEvent(t, 1700000000)))
		mockRepo.AssertExpectations(t)
	})
}

func TestWebhookService_SubscriptionDeleted(t *testing.T) {
	ctx := context.Background()

	deletionEvent := func(t *testing.T) stripe.Event {
		t.Helper()
		raw, err := json.Marshal(map[string]any{
			"id":       "sub_123",
			"customer": map[string]any{"id": "cus_abc"},
		})
		require.NoError(t, err)
		return stripe.Event{
			ID:      "evt_2",
			Type:    stripe.EventTypeCustomerSubscriptionDeleted,
			Created: 1700000500,
			Data:    &stripe.EventData{Raw: raw},
		}
	}

	t.Run("expires the customer's subscription", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		service := NewWebhookService(mockRepo, &fakeLister{}, testPriceTable(), zap.NewNop())

		mockRepo.On("ExpireSubscriptionsByCustomer", mock.Anything, "cus_abc", int64(1700000500)).
			Return(nil).Once()

		require.NoError(t, service.ProcessEvent(ctx, deletionEvent(t)))
		mockRepo.AssertExpectations(t)
	})

	t.Run("unknown customer is surfaced, not swallowed", func(t *testing.T) {
		mockRepo := new(MockBillingRepo)
		service := NewWebhookService(mockRepo, &fakeLister{}, testPriceTable(), zap.NewNop())

		mockRepo.On("ExpireSubscriptionsByCustomer", mock.Anything, "cus_abc", int64(1700000500)).
			Return(fmt.Errorf("no user for stripe customer: %w", models.ErrNotFound)).Once()

		err := service.ProcessEvent(ctx, deletionEvent(t))
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	})
}

func TestWebhookService_UnhandledEvent(t *testing.T) {
	mockRepo := new(MockBillingRepo)
	service := NewWebhookService(mockRepo, &fakeLister{}, testPriceTable(), zap.NewNop())

	err := service.ProcessEvent(context.Background(), stripe.Event{
		ID:      "evt_3",
		Type:    "invoice.paid",
		Created: time.Now().Unix(),
		Data:    &stripe.EventData{Raw: json.RawMessage(`{}`)},
	})
	require.NoError(t, err)
	mockRepo.AssertNotCalled(t, "UpsertSubscriptionFromEvent", mock.Anything, mock.Anything)
}
