package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/libs/db"
)

type PaymentRepository struct {
	pool *db.Pool
}

func NewPaymentRepository(pool *db.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *PaymentRepository) Create(ctx context.Context, tx pgx.Tx, p *model.Payment) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO payments
			(business_id, order_id, device_id, amount_cents, tip_cents, payment_type, payment_method,
			status, square_checkout_id, provider_metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, p.BusinessID, p.OrderID, p.DeviceID, p.Amount, p.TipAmount, p.PaymentType, p.PaymentMethod,
		p.Status, p.SquareCheckoutID, p.ProviderMetadata).Scan(&id)
	return id, err
}

const paymentColumns = `
	id, business_id, order_id, device_id, amount_cents, tip_cents, payment_type, payment_method,
	status, COALESCE(square_checkout_id, ''), COALESCE(square_payment_id, ''),
	COALESCE(receipt_url, ''), COALESCE(error_message, ''), COALESCE(provider_metadata, '{}'),
	completed_at, failed_at, cancelled_at, created_at, updated_at`

func scanPayment(row pgx.Row) (model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.ID, &p.BusinessID, &p.OrderID, &p.DeviceID, &p.Amount, &p.TipAmount, &p.PaymentType, &p.PaymentMethod,
		&p.Status, &p.SquareCheckoutID, &p.SquarePaymentID,
		&p.ReceiptURL, &p.ErrorMessage, &p.ProviderMetadata,
		&p.CompletedAt, &p.FailedAt, &p.CancelledAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return model.Payment{}, err
	}
	return p, nil
}

// SetCheckout attaches the provider checkout to a freshly created payment
// row, inside the initiation transaction.
func (r *PaymentRepository) SetCheckout(ctx context.Context, tx pgx.Tx, businessID, paymentID int64, checkoutID string, metadata []byte) error {
	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET square_checkout_id = $3,
			provider_metadata = $4,
			updated_at = now()
		WHERE id = $1 AND business_id = $2
	`, paymentID, businessID, checkoutID, metadata)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PaymentRepository) Get(ctx context.Context, businessID, paymentID int64) (model.Payment, error) {
	return scanPayment(r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1 AND business_id = $2
	`, paymentID, businessID))
}

// GetForUpdate row-locks the payment so a terminal transition runs exactly
// once even under concurrent polls.
func (r *PaymentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, businessID, paymentID int64) (model.Payment, error) {
	return scanPayment(tx.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE id = $1 AND business_id = $2
		FOR UPDATE
	`, paymentID, businessID))
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, businessID, orderID int64) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1 AND business_id = $2
		ORDER BY created_at DESC
	`, orderID, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) Complete(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = $3,
			square_payment_id = $4,
			receipt_url = $5,
			tip_cents = $6,
			provider_metadata = $7,
			completed_at = now(),
			updated_at = now()
		WHERE id = $1 AND business_id = $2
	`, p.ID, p.BusinessID, model.PaymentCompleted, p.SquarePaymentID, p.ReceiptURL, p.TipAmount, p.ProviderMetadata)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Fail records a provider-reported terminal failure. status is either failed
// or cancelled depending on what the provider said.
func (r *PaymentRepository) Fail(ctx context.Context, tx pgx.Tx, businessID, paymentID int64, status, errorMessage string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = $3,
			error_message = $4,
			failed_at = now(),
			updated_at = now()
		WHERE id = $1 AND business_id = $2
	`, paymentID, businessID, status, errorMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Cancel records a staff-initiated cancellation of a pending payment.
func (r *PaymentRepository) Cancel(ctx context.Context, tx pgx.Tx, businessID, paymentID int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE payments
		SET status = $3,
			cancelled_at = now(),
			updated_at = now()
		WHERE id = $1 AND business_id = $2
	`, paymentID, businessID, model.PaymentCancelled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PaymentRepository) GetActiveDevice(ctx context.Context, businessID, deviceID int64) (model.PaymentDevice, error) {
	var d model.PaymentDevice
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_id, device_id, name, is_active, created_at
		FROM payment_devices
		WHERE id = $1 AND business_id = $2 AND is_active
	`, deviceID, businessID).Scan(&d.ID, &d.BusinessID, &d.DeviceID, &d.Name, &d.IsActive, &d.CreatedAt)
	if err != nil {
		return model.PaymentDevice{}, err
	}
	return d, nil
}

func (r *PaymentRepository) GetActiveConfiguration(ctx context.Context, businessID int64) (model.PaymentConfiguration, error) {
	var c model.PaymentConfiguration
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_id, provider, COALESCE(location_id, ''), credentials, is_active, created_at
		FROM payment_configurations
		WHERE business_id = $1 AND is_active
		ORDER BY created_at DESC
		LIMIT 1
	`, businessID).Scan(&c.ID, &c.BusinessID, &c.Provider, &c.LocationID, &c.Credentials, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return model.PaymentConfiguration{}, err
	}
	return c, nil
}
