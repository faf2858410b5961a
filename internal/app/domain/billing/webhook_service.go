package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"go.uber.org/zap"

	"github.com/hanapbahay/hanapbahay-go/internal/app/models"
	"github.com/hanapbahay/hanapbahay-go/internal/app/observability/metrics"
	"github.com/hanapbahay/hanapbahay-go/internal/pkg/config"
)

var _ WebhookService = (*WebhookServiceImpl)(nil)

// LineItemLister fetches checkout line items when the webhook payload does
// not embed them. Satisfied by the stripe provider; faked in tests.
type LineItemLister interface {
	ListCheckoutLineItems(sessionID string) ([]*stripe.LineItem, error)
}

// WebhookService normalizes provider events into ledger mutations. Every
// handler is idempotent: retried deliveries land on upserts, not appends.
type WebhookService interface {
	ProcessEvent(ctx context.Context, event stripe.Event) error
}

type WebhookServiceImpl struct {
	logger     *zap.Logger
	repo       Repository
	lister     LineItemLister
	priceTable map[string]config.PricePlan
}

func NewWebhookService(repo Repository, lister LineItemLister, priceTable map[string]config.PricePlan, logger *zap.Logger) *WebhookServiceImpl {
	return &WebhookServiceImpl{
		logger:     logger,
		repo:       repo,
		lister:     lister,
		priceTable: priceTable,
	}
}

// ProcessEvent dispatches a verified event to the handler for its kind.
// Unhandled kinds are acknowledged without processing so the provider does
// not retry them forever.
func (s *WebhookServiceImpl) ProcessEvent(ctx context.Context, event stripe.Event) error {
	if metrics.Get() != nil {
		metrics.Get().WebhookEventsTotal.Add(ctx, 1)
	}

	var err error
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		err = s.handleCheckoutCompleted(ctx, event)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event)
	default:
		s.logger.Debug("Ignoring unhandled webhook event",
			zap.String("eventID", event.ID),
			zap.String("type", string(event.Type)))
		return nil
	}

	if err != nil {
		if metrics.Get() != nil {
			metrics.Get().WebhookFailuresTotal.Add(ctx, 1)
		}
		s.logger.Error("Webhook event processing failed",
			zap.Error(err),
			zap.String("eventID", event.ID),
			zap.String("type", string(event.Type)))
	}
	return err
}

// handleCheckoutCompleted resolves the paying user by the checkout session
// email, maps every recurring line item through the price table, then
// upserts the subscription. An unrecognized price id fails the whole event
// before anything is written.
func (s *WebhookServiceImpl) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("malformed checkout session payload: %w", models.ErrInvalidState)
	}

	email := session.CustomerEmail
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		email = session.CustomerDetails.Email
	}
	if email == "" {
		return fmt.Errorf("checkout session %s carries no customer email: %w", session.ID, models.ErrInvalidState)
	}

	userID, err := s.repo.GetUserIDByEmail(ctx, email)
	if err != nil {
		return err
	}

	items := sessionLineItems(&session)
	if items == nil {
		items, err = s.lister.ListCheckoutLineItems(session.ID)
		if err != nil {
			return err
		}
	}

	// Validate every recurring item before applying any of them.
	var mapped []config.PricePlan
	for _, item := range items {
		if item.Price == nil || item.Price.Recurring == nil {
			continue
		}
		pp, ok := s.priceTable[item.Price.ID]
		if !ok {
			return fmt.Errorf("unknown price id %s on checkout session %s: %w",
				item.Price.ID, session.ID, models.ErrInvalidState)
		}
		mapped = append(mapped, pp)
	}
	if len(mapped) == 0 {
		return fmt.Errorf("checkout session %s has no recurring line items: %w", session.ID, models.ErrInvalidState)
	}

	var customerID string
	if session.Customer != nil {
		customerID = session.Customer.ID
	}

	for _, pp := range mapped {
		sub, err := s.repo.UpsertSubscriptionFromEvent(ctx, SubscriptionEventParams{
			UserID:           userID,
			Plan:             pp.Plan,
			Period:           pp.Period,
			EventTS:          event.Created,
			StripeCustomerID: customerID,
		})
		if err != nil {
			return err
		}
		if sub == nil {
			// Stale event, a newer one already wrote the row.
			continue
		}
		s.logger.Info("Subscription activated from checkout",
			zap.String("userID", userID.String()),
			zap.String("plan", string(pp.Plan)),
			zap.String("period", string(pp.Period)))
	}
	return nil
}

// handleSubscriptionDeleted expires the subscription of the user behind the
// provider customer id. A customer id with no matching user is surfaced, not
// swallowed: it means the ledger and the provider disagree.
func (s *WebhookServiceImpl) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("malformed subscription payload: %w", models.ErrInvalidState)
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return fmt.Errorf("subscription deletion event carries no customer: %w", models.ErrInvalidState)
	}

	if err := s.repo.ExpireSubscriptionsByCustomer(ctx, sub.Customer.ID, event.Created); err != nil {
		return err
	}

	s.logger.Info("Subscription expired from provider event",
		zap.String("stripeCustomerID", sub.Customer.ID))
	return nil
}

func sessionLineItems(session *stripe.CheckoutSession) []*stripe.LineItem {
	if session.LineItems == nil || len(session.LineItems.Data) == 0 {
		return nil
	}
	return session.LineItems.Data
}
