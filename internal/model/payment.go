package model

import (
	"time"

	"github.com/pawdesk/pawdesk/internal/money"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"

	PaymentTypeCharge = "charge"
	PaymentTypeRefund = "refund"
)

type Payment struct {
	ID               int64
	BusinessID       int64
	OrderID          *int64
	DeviceID         *int64
	Amount           money.Cents
	TipAmount        money.Cents
	PaymentType      string
	PaymentMethod    string
	Status           string
	SquareCheckoutID string
	SquarePaymentID  string
	ReceiptURL       string
	ErrorMessage     string
	ProviderMetadata []byte
	CompletedAt      *time.Time
	FailedAt         *time.Time
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsTerminal reports whether the payment has reached a final state. Terminal
// payments must never re-run completion or failure side effects on re-poll.
func (p Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

type PaymentDevice struct {
	ID         int64
	BusinessID int64
	DeviceID   string
	Name       string
	IsActive   bool
	CreatedAt  time.Time
}

// PaymentConfiguration carries the provider OAuth bundle for a business.
// Credentials holds the sealed ciphertext; plaintext is decrypted immediately
// before a provider call and never written back.
type PaymentConfiguration struct {
	ID          int64
	BusinessID  int64
	Provider    string
	LocationID  string
	Credentials string
	IsActive    bool
	CreatedAt   time.Time
}
