// Package payments wraps the card-payment provider behind a narrow
// interface: create a hosted checkout session, and turn a verified
// webhook callback into a fulfillment order.
package payments

import (
	"context"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/touristahq/tourista/internal/app/system/apperr"
)

// SessionParams describes one checkout for one tour.
type SessionParams struct {
	TourID        string // carried through as the client reference
	TourName      string
	TourSummary   string
	ImageURL      string
	AmountCents   int64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutCompleted is the provider-verified fulfillment order parsed
// from a webhook callback.
type CheckoutCompleted struct {
	TourID        string
	CustomerEmail string
	AmountCents   int64
}

// Checkout is the capability set the booking feature needs.
type Checkout interface {
	// CreateSession returns the hosted payment page URL.
	CreateSession(ctx context.Context, p SessionParams) (string, error)
	// ParseWebhook verifies the callback signature. It returns nil for
	// verified events that are not checkout completions.
	ParseWebhook(payload []byte, signature string) (*CheckoutCompleted, error)
}

// Stripe implements Checkout against the Stripe API.
type Stripe struct {
	webhookSecret string
}

// NewStripe configures the global Stripe client key and returns the
// wrapper. webhookSecret verifies callback signatures.
func NewStripe(apiKey, webhookSecret string) *Stripe {
	stripe.Key = apiKey
	return &Stripe{webhookSecret: webhookSecret}
}

func (s *Stripe) CreateSession(ctx context.Context, p SessionParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		CustomerEmail:     stripe.String(p.CustomerEmail),
		ClientReferenceID: stripe.String(p.TourID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.TourName),
						Description: stripe.String(p.TourSummary),
						Images:      imageList(p.ImageURL),
					},
				},
			},
		},
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func imageList(url string) []*string {
	if url == "" {
		return nil
	}
	return []*string{stripe.String(url)}
}

func (s *Stripe) ParseWebhook(payload []byte, signature string) (*CheckoutCompleted, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, apperr.ValidationFailed("webhook signature verification failed").Wrap(err)
	}
	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, apperr.ValidationFailed("malformed checkout session payload").Wrap(err)
	}

	email := sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}
	return &CheckoutCompleted{
		TourID:        sess.ClientReferenceID,
		CustomerEmail: email,
		AmountCents:   sess.AmountTotal,
	}, nil
}
