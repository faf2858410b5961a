package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
)

// MockBillingRepo is the shared repository double for the billing service
// tests.
type MockBillingRepo struct {
	mock.Mock
}

func (m *MockBillingRepo) CreateGcashPayment(ctx context.Context, payment *models.GcashPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockBillingRepo) GetGcashPayment(ctx context.Context, paymentID uuid.UUID) (*models.GcashPayment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GcashPayment), args.Error(1)
}

func (m *MockBillingRepo) ListGcashPayments(ctx context.Context, status *models.GcashStatus) ([]*models.GcashPayment, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GcashPayment), args.Error(1)
}

func (m *MockBillingRepo) ApproveGcashPayment(ctx context.Context, paymentID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockBillingRepo) DeclineGcashPayment(ctx context.Context, paymentID uuid.UUID) error {
	args := m.Called(ctx, paymentID)
	return args.Error(0)
}

func (m *MockBillingRepo) UpsertSubscriptionFromEvent(ctx context.Context, params SubscriptionEventParams) (*models.Subscription, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockBillingRepo) ExpireSubscriptionsByCustomer(ctx context.Context, stripeCustomerID string, eventTS int64) error {
	args := m.Called(ctx, stripeCustomerID, eventTS)
	return args.Error(0)
}

func (m *MockBillingRepo) GetUserIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockBillingRepo) GetSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockBillingRepo) CancelSubscription(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockBillingRepo) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionPlan), args.Error(1)
}

func (m *MockBillingRepo) CreatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockBillingRepo) UpdatePlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}
