package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pawdesk/pawdesk/internal/apperr"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/outbox"
	"github.com/pawdesk/pawdesk/internal/payments"
	"github.com/pawdesk/pawdesk/libs/db"
)

// PaymentStore adapts the pgx repositories to the payment state machine's
// store interface. Missing rows surface as the application's not-found
// error so the service layer never sees driver sentinels.
type PaymentStore struct {
	pool     *db.Pool
	payments *PaymentRepository
	orders   *OrderRepository
	outbox   *outbox.Repository
}

func NewPaymentStore(pool *db.Pool, pay *PaymentRepository, ord *OrderRepository, ob *outbox.Repository) *PaymentStore {
	return &PaymentStore{pool: pool, payments: pay, orders: ord, outbox: ob}
}

func (s *PaymentStore) Begin(ctx context.Context) (payments.Tx, error) {
	return s.pool.Begin(ctx)
}

func pgxTx(tx payments.Tx) pgx.Tx {
	return tx.(pgx.Tx)
}

func notFound(err error, format string, args ...any) error {
	if IsNotFound(err) {
		return apperr.NotFoundf(format, args...)
	}
	return err
}

func (s *PaymentStore) CreatePayment(ctx context.Context, tx payments.Tx, p *model.Payment) (int64, error) {
	return s.payments.Create(ctx, pgxTx(tx), p)
}

func (s *PaymentStore) SetPaymentCheckout(ctx context.Context, tx payments.Tx, businessID, paymentID int64, checkoutID string, metadata []byte) error {
	err := s.payments.SetCheckout(ctx, pgxTx(tx), businessID, paymentID, checkoutID, metadata)
	return notFound(err, "payment %d", paymentID)
}

func (s *PaymentStore) GetPayment(ctx context.Context, businessID, paymentID int64) (model.Payment, error) {
	p, err := s.payments.Get(ctx, businessID, paymentID)
	return p, notFound(err, "payment %d", paymentID)
}

func (s *PaymentStore) GetPaymentForUpdate(ctx context.Context, tx payments.Tx, businessID, paymentID int64) (model.Payment, error) {
	p, err := s.payments.GetForUpdate(ctx, pgxTx(tx), businessID, paymentID)
	return p, notFound(err, "payment %d", paymentID)
}

func (s *PaymentStore) CompletePayment(ctx context.Context, tx payments.Tx, p *model.Payment) error {
	err := s.payments.Complete(ctx, pgxTx(tx), p)
	return notFound(err, "payment %d", p.ID)
}

func (s *PaymentStore) FailPayment(ctx context.Context, tx payments.Tx, businessID, paymentID int64, status, errorMessage string) error {
	err := s.payments.Fail(ctx, pgxTx(tx), businessID, paymentID, status, errorMessage)
	return notFound(err, "payment %d", paymentID)
}

func (s *PaymentStore) CancelPayment(ctx context.Context, tx payments.Tx, businessID, paymentID int64) error {
	err := s.payments.Cancel(ctx, pgxTx(tx), businessID, paymentID)
	return notFound(err, "payment %d", paymentID)
}

func (s *PaymentStore) GetOrderForUpdate(ctx context.Context, tx payments.Tx, businessID, orderID int64) (model.Order, error) {
	o, err := s.orders.GetForUpdate(ctx, pgxTx(tx), businessID, orderID)
	return o, notFound(err, "order %d", orderID)
}

func (s *PaymentStore) GetOrder(ctx context.Context, businessID, orderID int64) (model.Order, error) {
	o, err := s.orders.Get(ctx, businessID, orderID)
	return o, notFound(err, "order %d", orderID)
}

func (s *PaymentStore) SetOrderPaymentStatus(ctx context.Context, tx payments.Tx, businessID, orderID int64, paymentStatus string) error {
	err := s.orders.SetPaymentStatus(ctx, pgxTx(tx), businessID, orderID, paymentStatus)
	return notFound(err, "order %d", orderID)
}

func (s *PaymentStore) CompleteOrder(ctx context.Context, tx payments.Tx, businessID, orderID int64) error {
	err := s.orders.MarkCompleted(ctx, pgxTx(tx), businessID, orderID)
	return notFound(err, "order %d", orderID)
}

func (s *PaymentStore) GetActiveDevice(ctx context.Context, businessID, deviceID int64) (model.PaymentDevice, error) {
	d, err := s.payments.GetActiveDevice(ctx, businessID, deviceID)
	return d, notFound(err, "payment device %d", deviceID)
}

func (s *PaymentStore) GetActiveConfiguration(ctx context.Context, businessID int64) (model.PaymentConfiguration, error) {
	c, err := s.payments.GetActiveConfiguration(ctx, businessID)
	return c, notFound(err, "payment configuration for business %d", businessID)
}

func (s *PaymentStore) InsertEvent(ctx context.Context, tx payments.Tx, evt outbox.Event) error {
	return s.outbox.Insert(ctx, pgxTx(tx), evt)
}
