package stripe

import (
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"
)

// Provider wraps the Stripe API surface the billing domain needs: webhook
// signature verification and checkout line-item retrieval.
type Provider struct {
	apiKey        string
	webhookSecret string
}

func NewProvider(apiKey, webhookSecret string) *Provider {
	stripe.Key = apiKey
	return &Provider{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
	}
}

// VerifyEvent checks the Stripe-Signature header against the raw payload and
// returns the parsed event. An event that fails verification is never parsed
// further.
func (p *Provider) VerifyEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return event, nil
}

// ListCheckoutLineItems fetches the line items of a checkout session. Checkout
// webhook payloads do not embed line items unless expanded, so processing a
// checkout.session.completed event usually needs this round trip.
func (p *Provider) ListCheckoutLineItems(sessionID string) ([]*stripe.LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}

	var items []*stripe.LineItem
	iter := session.ListLineItems(params)
	for iter.Next() {
		items = append(items, iter.LineItem())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list checkout line items: %w", err)
	}

	return items, nil
}
