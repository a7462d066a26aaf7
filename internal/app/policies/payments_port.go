package policies

import "context"

type PaymentOutcome string

const (
	PaymentOutcomePaid    PaymentOutcome = "PAID"
	PaymentOutcomeFailed  PaymentOutcome = "FAILED"
	PaymentOutcomePending PaymentOutcome = "PENDING"
)

// Payments exposes the payment provider as a black box that answers one
// question: did this payment settle. Gateway specifics stay behind the port.
type Payments interface {
	ConfirmationStatus(ctx context.Context, paymentRef string) (PaymentOutcome, error)
}
