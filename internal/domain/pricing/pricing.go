package pricing

import (
	"errors"

	"albergo/internal/domain/shared/money"
)

var (
	ErrInvalidNights   = errors.New("pricing: nights must be positive")
	ErrInvalidRate     = errors.New("pricing: nightly rate must be positive")
	ErrNegativeFee     = errors.New("pricing: fees cannot be negative")
	ErrInvalidPercent  = errors.New("pricing: percentage out of range")
	ErrReconciliation  = errors.New("pricing: breakdown does not reconcile")
	ErrCurrencyUnknown = errors.New("pricing: currency must be defined")
)

// Platform defaults, in basis points. The guest-facing service fee sits on
// top of the subtotal; the platform commission comes out of the host payout.
const (
	DefaultServiceFeeBps = 1400
	DefaultTaxBps        = 0
	DefaultCommissionBps = 1000
)

// Params carries everything a quote needs. Percentages are basis points
// (100 bps = 1%) so the whole calculation stays in integer arithmetic.
type Params struct {
	Nights        int
	NightlyRate   money.Money
	CleaningFee   money.Money
	ServiceFeeBps int64
	TaxBps        int64
	CommissionBps int64
}

// Breakdown is the frozen pricing snapshot stored on a booking. It is never
// recomputed from the live listing afterwards.
type Breakdown struct {
	Nights      int         `json:"nights" bson:"nights"`
	NightlyRate money.Money `json:"nightly_rate" bson:"nightly_rate"`
	Subtotal    money.Money `json:"subtotal" bson:"subtotal"`
	CleaningFee money.Money `json:"cleaning_fee" bson:"cleaning_fee"`
	ServiceFee  money.Money `json:"service_fee" bson:"service_fee"`
	Taxes       money.Money `json:"taxes" bson:"taxes"`
	Total       money.Money `json:"total" bson:"total"`
	HostPayout  money.Money `json:"host_payout" bson:"host_payout"`
	PlatformFee money.Money `json:"platform_fee" bson:"platform_fee"`
}

// Calculate produces a breakdown for a stay. Pure function, no side effects.
func Calculate(p Params) (Breakdown, error) {
	if p.Nights < 1 {
		return Breakdown{}, ErrInvalidNights
	}
	if p.NightlyRate.Amount <= 0 || p.NightlyRate.Currency == "" {
		return Breakdown{}, ErrInvalidRate
	}
	if p.CleaningFee.Amount < 0 {
		return Breakdown{}, ErrNegativeFee
	}
	if p.ServiceFeeBps < 0 || p.TaxBps < 0 || p.CommissionBps < 0 ||
		p.ServiceFeeBps > 10000 || p.TaxBps > 10000 || p.CommissionBps > 10000 {
		return Breakdown{}, ErrInvalidPercent
	}

	cleaning := p.CleaningFee
	if cleaning.Currency == "" {
		cleaning.Currency = p.NightlyRate.Currency
	}

	subtotal := p.NightlyRate.Multiply(int64(p.Nights))
	serviceFee := subtotal.PercentBps(p.ServiceFeeBps)

	taxable, err := subtotal.Add(cleaning)
	if err != nil {
		return Breakdown{}, err
	}
	taxable, err = taxable.Add(serviceFee)
	if err != nil {
		return Breakdown{}, err
	}
	taxes := taxable.PercentBps(p.TaxBps)

	total, err := taxable.Add(taxes)
	if err != nil {
		return Breakdown{}, err
	}

	platformFee := total.PercentBps(p.CommissionBps)
	hostPayout, err := total.Sub(platformFee)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		Nights:      p.Nights,
		NightlyRate: p.NightlyRate,
		Subtotal:    subtotal,
		CleaningFee: cleaning,
		ServiceFee:  serviceFee,
		Taxes:       taxes,
		Total:       total,
		HostPayout:  hostPayout,
		PlatformFee: platformFee,
	}, nil
}

// Reconcile verifies the breakdown invariants:
// total = subtotal + cleaning + service fee + taxes, and
// host payout + platform fee = total.
func (b Breakdown) Reconcile() error {
	sum := b.Subtotal.Amount + b.CleaningFee.Amount + b.ServiceFee.Amount + b.Taxes.Amount
	if sum != b.Total.Amount {
		return ErrReconciliation
	}
	if b.HostPayout.Amount+b.PlatformFee.Amount != b.Total.Amount {
		return ErrReconciliation
	}
	if b.Total.Currency == "" {
		return ErrCurrencyUnknown
	}
	return nil
}
