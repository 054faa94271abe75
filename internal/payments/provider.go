// Package payments drives a payment through its lifecycle against an
// external card terminal: pending on initiation, then completed, failed, or
// cancelled once the provider reports a terminal outcome. The package
// depends only on the narrow Provider and Store surfaces so the state
// machine is testable without a terminal or a database.
package payments

import (
	"context"

	"github.com/pawdesk/pawdesk/internal/money"
)

// Remote checkout statuses as the provider reports them.
const (
	RemoteCompleted = "COMPLETED"
	RemoteCanceled  = "CANCELED"
	RemoteFailed    = "FAILED"
)

// Money is a provider-side amount in minor units.
type Money struct {
	Amount   money.Cents `json:"amount"`
	Currency string      `json:"currency"`
}

// Checkout is the provider's view of a terminal checkout. PaymentID and the
// money fields are only populated once the terminal interaction finishes.
type Checkout struct {
	ID         string
	Status     string
	PaymentID  string
	TipMoney   *Money
	TotalMoney *Money
	ReceiptURL string
	CreatedAt  string
	UpdatedAt  string
}

// PaymentRecord is the provider's underlying payment. Tip data may be
// present here and absent on the checkout, so completion prefers this tip.
type PaymentRecord struct {
	ID         string
	Status     string
	TipMoney   *Money
	TotalMoney *Money
	ReceiptURL string
}

// Provider is the terminal capability surface the state machine consumes.
type Provider interface {
	CreateCheckout(ctx context.Context, deviceID string, amount money.Cents, referenceID, note string) (Checkout, error)
	GetCheckout(ctx context.Context, checkoutID string) (Checkout, error)
	GetPayment(ctx context.Context, paymentID string) (PaymentRecord, error)
	CancelCheckout(ctx context.Context, checkoutID string) (Checkout, error)
}

// ProviderFactory builds a provider client from just-decrypted credentials.
// A fresh client per operation keeps plaintext credentials scoped to the
// single provider interaction.
type ProviderFactory func(credentials map[string]string, locationID string) (Provider, error)
