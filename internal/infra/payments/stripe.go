package payments

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"albergo/internal/app/policies"
)

var ErrEmptyPaymentRef = errors.New("payments: payment reference is required")

// StripePayments treats Stripe as a black box that answers whether a
// PaymentIntent settled. No charge creation, no webhooks, no gateway
// plumbing lives here.
type StripePayments struct{}

func New(apiKey string) *StripePayments {
	stripe.Key = apiKey
	return &StripePayments{}
}

func (p *StripePayments) ConfirmationStatus(ctx context.Context, paymentRef string) (policies.PaymentOutcome, error) {
	if paymentRef == "" {
		return "", ErrEmptyPaymentRef
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(paymentRef, params)
	if err != nil {
		return "", err
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return policies.PaymentOutcomePaid, nil
	case stripe.PaymentIntentStatusCanceled:
		return policies.PaymentOutcomeFailed, nil
	default:
		return policies.PaymentOutcomePending, nil
	}
}
