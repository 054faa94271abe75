package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/money"
	"github.com/pawdesk/pawdesk/libs/db"
)

type OrderRepository struct {
	pool *db.Pool
}

// BillingSnapshot is the appointment state an order freezes at creation:
// the first linked service with its price, plus display names resolved at
// this instant.
type BillingSnapshot struct {
	AppointmentID int64
	CustomerID    *int64
	PetID         *int64
	ServiceTitle  string
	ServicePrice  money.Cents
	GroomerName   string
	PetName       string
}

func NewOrderRepository(pool *db.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *OrderRepository) GetBillingSnapshot(ctx context.Context, tx pgx.Tx, businessID, appointmentID int64) (BillingSnapshot, error) {
	var snap BillingSnapshot
	err := tx.QueryRow(ctx, `
		SELECT a.id, a.customer_id, a.pet_id,
			COALESCE(fs.name, ''),
			COALESCE(fs.price_cents, 0),
			COALESCE(sm.first_name || ' ' || sm.last_name, ''),
			COALESCE(p.name, '')
		FROM appointments a
		LEFT JOIN LATERAL (
			SELECT s.name, s.price_cents
			FROM appointment_services aps
			JOIN services s ON s.id = aps.service_id
			WHERE aps.appointment_id = a.id
			ORDER BY aps.service_id ASC
			LIMIT 1
		) fs ON true
		LEFT JOIN staff_members sm ON sm.id = a.staff_id
		LEFT JOIN pets p ON p.id = a.pet_id
		WHERE a.id = $1 AND a.business_id = $2
	`, appointmentID, businessID).Scan(
		&snap.AppointmentID, &snap.CustomerID, &snap.PetID,
		&snap.ServiceTitle, &snap.ServicePrice, &snap.GroomerName, &snap.PetName,
	)
	if err != nil {
		return BillingSnapshot{}, err
	}
	return snap, nil
}

func (r *OrderRepository) ExistsForAppointment(ctx context.Context, tx pgx.Tx, businessID, appointmentID int64) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders WHERE business_id = $1 AND appointment_id = $2
		)
	`, businessID, appointmentID).Scan(&exists)
	return exists, err
}

func (r *OrderRepository) Create(ctx context.Context, tx pgx.Tx, o *model.Order) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO orders
			(business_id, appointment_id, customer_id, pet_id, order_number,
			service_title, groomer_name, pet_name,
			subtotal_cents, tax_cents, tip_cents,
			discount_type, discount_value_cents, discount_amount_cents, total_cents,
			order_status, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`, o.BusinessID, o.AppointmentID, o.CustomerID, o.PetID, o.OrderNumber,
		o.ServiceTitle, o.GroomerName, o.PetName,
		o.Subtotal, o.Tax, o.Tip,
		o.DiscountType, o.DiscountValue, o.DiscountAmount, o.Total,
		o.OrderStatus, o.PaymentStatus).Scan(&id)
	return id, err
}

const orderColumns = `
	id, business_id, appointment_id, customer_id, pet_id, order_number,
	service_title, groomer_name, pet_name,
	subtotal_cents, tax_cents, tip_cents,
	discount_type, discount_value_cents, discount_amount_cents, total_cents,
	order_status, payment_status, completed_at, created_at, updated_at`

func scanOrder(row pgx.Row) (model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.BusinessID, &o.AppointmentID, &o.CustomerID, &o.PetID, &o.OrderNumber,
		&o.ServiceTitle, &o.GroomerName, &o.PetName,
		&o.Subtotal, &o.Tax, &o.Tip,
		&o.DiscountType, &o.DiscountValue, &o.DiscountAmount, &o.Total,
		&o.OrderStatus, &o.PaymentStatus, &o.CompletedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderRepository) Get(ctx context.Context, businessID, orderID int64) (model.Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1 AND business_id = $2
	`, orderID, businessID))
}

func (r *OrderRepository) GetByAppointment(ctx context.Context, businessID, appointmentID int64) (model.Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE appointment_id = $1 AND business_id = $2
	`, appointmentID, businessID))
}

// GetForUpdate row-locks the order so discount and payment transitions
// apply their multi-field writes as one atomic unit.
func (r *OrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, businessID, orderID int64) (model.Order, error) {
	return scanOrder(tx.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1 AND business_id = $2
		FOR UPDATE
	`, orderID, businessID))
}

func (r *OrderRepository) List(ctx context.Context, businessID int64, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, businessID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateTotals persists the outcome of a discount or tip recalculation.
func (r *OrderRepository) UpdateTotals(ctx context.Context, tx pgx.Tx, o *model.Order) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET tax_cents = $3,
			tip_cents = $4,
			discount_type = $5,
			discount_value_cents = $6,
			discount_amount_cents = $7,
			total_cents = $8,
			updated_at = now()
		WHERE id = $1 AND business_id = $2
	`, o.ID, o.BusinessID, o.Tax, o.Tip, o.DiscountType, o.DiscountValue, o.DiscountAmount, o.Total)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *OrderRepository) SetPaymentStatus(ctx context.Context, tx pgx.Tx, businessID, orderID int64, paymentStatus string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = $3,
			updated_at = now()
		WHERE id = $1 AND business_id = $2
	`, orderID, businessID, paymentStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkCompleted is the payment-completion cascade: the order is paid and its
// workflow state closes in the same statement.
func (r *OrderRepository) MarkCompleted(ctx context.Context, tx pgx.Tx, businessID, orderID int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status = $3,
			order_status = $4,
			completed_at = now(),
			updated_at = now()
		WHERE id = $1 AND business_id = $2
	`, orderID, businessID, model.PaymentStatusPaid, model.OrderStatusCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
