package payments

import (
	"context"

	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/outbox"
)

// Tx is the slice of a database transaction the state machine needs. The
// production implementation hands back a pgx transaction.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the persistence surface for payment transitions. Every mutation
// runs under a Tx so a provider failure mid-flow rolls the whole step back.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	CreatePayment(ctx context.Context, tx Tx, p *model.Payment) (int64, error)
	SetPaymentCheckout(ctx context.Context, tx Tx, businessID, paymentID int64, checkoutID string, metadata []byte) error
	GetPayment(ctx context.Context, businessID, paymentID int64) (model.Payment, error)
	GetPaymentForUpdate(ctx context.Context, tx Tx, businessID, paymentID int64) (model.Payment, error)
	CompletePayment(ctx context.Context, tx Tx, p *model.Payment) error
	FailPayment(ctx context.Context, tx Tx, businessID, paymentID int64, status, errorMessage string) error
	CancelPayment(ctx context.Context, tx Tx, businessID, paymentID int64) error

	GetOrderForUpdate(ctx context.Context, tx Tx, businessID, orderID int64) (model.Order, error)
	GetOrder(ctx context.Context, businessID, orderID int64) (model.Order, error)
	SetOrderPaymentStatus(ctx context.Context, tx Tx, businessID, orderID int64, paymentStatus string) error
	CompleteOrder(ctx context.Context, tx Tx, businessID, orderID int64) error

	GetActiveDevice(ctx context.Context, businessID, deviceID int64) (model.PaymentDevice, error)
	GetActiveConfiguration(ctx context.Context, businessID int64) (model.PaymentConfiguration, error)

	InsertEvent(ctx context.Context, tx Tx, evt outbox.Event) error
}
