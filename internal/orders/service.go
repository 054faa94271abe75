package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/pawdesk/pawdesk/internal/apperr"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/money"
	"github.com/pawdesk/pawdesk/internal/outbox"
	"github.com/pawdesk/pawdesk/internal/storage"
)

type Service struct {
	repo   *storage.OrderRepository
	outbox *outbox.Repository
	logger *slog.Logger
	now    func() time.Time
}

func New(repo *storage.OrderRepository, ob *outbox.Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, outbox: ob, logger: logger, now: time.Now}
}

// CreateFromAppointment derives the order from the appointment's current
// state: the first linked service sets the subtotal, tax is computed at the
// given rate, and display names are frozen for history. Exactly one order
// may exist per appointment; the check runs inside the same transaction as
// the insert and a unique constraint backstops it.
func (s *Service) CreateFromAppointment(ctx context.Context, businessID, appointmentID int64, taxRate money.RatePPM) (model.Order, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return model.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	snap, err := s.repo.GetBillingSnapshot(ctx, tx, businessID, appointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Order{}, apperr.NotFoundf("appointment %d", appointmentID)
		}
		return model.Order{}, err
	}

	exists, err := s.repo.ExistsForAppointment(ctx, tx, businessID, appointmentID)
	if err != nil {
		return model.Order{}, err
	}
	if exists {
		return model.Order{}, apperr.Validationf("order already exists for appointment %d", appointmentID)
	}

	subtotal := snap.ServicePrice
	tax := subtotal.TimesRate(taxRate)

	order := model.Order{
		BusinessID:    businessID,
		AppointmentID: &snap.AppointmentID,
		CustomerID:    snap.CustomerID,
		PetID:         snap.PetID,
		OrderNumber:   OrderNumber(s.now(), businessID),
		ServiceTitle:  snap.ServiceTitle,
		GroomerName:   snap.GroomerName,
		PetName:       snap.PetName,
		Subtotal:      subtotal,
		Tax:           tax,
		Tip:           0,
		DiscountType:  model.DiscountNone,
		Total:         subtotal + tax,
		OrderStatus:   model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
	}

	id, err := s.repo.Create(ctx, tx, &order)
	if err != nil {
		if storage.IsConflict(err) {
			return model.Order{}, apperr.Validationf("order already exists for appointment %d", appointmentID)
		}
		return model.Order{}, err
	}

	evt, err := outbox.NewEvent("order", id, outbox.EventOrderCreated, map[string]any{
		"order_id":       id,
		"business_id":    businessID,
		"appointment_id": appointmentID,
		"order_number":   order.OrderNumber,
		"total_cents":    order.Total,
	})
	if err != nil {
		return model.Order{}, err
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Order{}, err
	}

	s.logger.Info("order created",
		"order_id", id, "business_id", businessID,
		"appointment_id", appointmentID, "total_cents", order.Total)
	return s.Get(ctx, businessID, id)
}

func (s *Service) Get(ctx context.Context, businessID, orderID int64) (model.Order, error) {
	order, err := s.repo.Get(ctx, businessID, orderID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Order{}, apperr.NotFoundf("order %d", orderID)
		}
		return model.Order{}, err
	}
	return order, nil
}

func (s *Service) GetByAppointment(ctx context.Context, businessID, appointmentID int64) (model.Order, error) {
	order, err := s.repo.GetByAppointment(ctx, businessID, appointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Order{}, apperr.NotFoundf("order for appointment %d", appointmentID)
		}
		return model.Order{}, err
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, businessID int64, limit int) ([]model.Order, error) {
	return s.repo.List(ctx, businessID, limit)
}

// UpdateDiscount applies a discount and recomputes tax and total as one
// atomic write. The order row is locked for the duration so a concurrent
// payment cannot see half-updated totals.
func (s *Service) UpdateDiscount(ctx context.Context, businessID, orderID int64, discountType string, discountValue money.Cents) (model.Order, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return model.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := s.repo.GetForUpdate(ctx, tx, businessID, orderID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Order{}, apperr.NotFoundf("order %d", orderID)
		}
		return model.Order{}, err
	}

	out, err := ApplyDiscount(order.Subtotal, order.Tax, order.Tip, discountType, discountValue)
	if err != nil {
		return model.Order{}, err
	}

	order.DiscountType = discountType
	order.DiscountValue = discountValue
	order.DiscountAmount = out.DiscountAmount
	order.Tax = out.Tax
	order.Total = out.Total

	if err := s.repo.UpdateTotals(ctx, tx, &order); err != nil {
		return model.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Order{}, err
	}
	return s.Get(ctx, businessID, orderID)
}

// SetTip updates the order's own tip line (distinct from a terminal tip,
// which lives on the Payment) and recomputes the total.
func (s *Service) SetTip(ctx context.Context, businessID, orderID int64, tip money.Cents) (model.Order, error) {
	if tip < 0 {
		return model.Order{}, apperr.Validationf("tip cannot be negative")
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return model.Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := s.repo.GetForUpdate(ctx, tx, businessID, orderID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Order{}, apperr.NotFoundf("order %d", orderID)
		}
		return model.Order{}, err
	}

	order.Tip = tip
	order.Total = Total(order.Subtotal, order.DiscountAmount, order.Tax, order.Tip)

	if err := s.repo.UpdateTotals(ctx, tx, &order); err != nil {
		return model.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Order{}, err
	}
	return s.Get(ctx, businessID, orderID)
}
