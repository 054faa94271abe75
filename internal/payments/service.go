package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pawdesk/pawdesk/internal/apperr"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/money"
	"github.com/pawdesk/pawdesk/internal/outbox"
	"github.com/pawdesk/pawdesk/libs/secrets"
)

type Service struct {
	store       Store
	box         *secrets.Box
	newProvider ProviderFactory
	logger      *slog.Logger
}

func New(store Store, box *secrets.Box, factory ProviderFactory, logger *slog.Logger) *Service {
	return &Service{store: store, box: box, newProvider: factory, logger: logger}
}

// PollResult is the reconciled view returned by Poll, whether or not a local
// transition happened.
type PollResult struct {
	PaymentID          int64       `json:"payment_id"`
	Status             string      `json:"status"`
	RemoteStatus       string      `json:"remote_status"`
	OrderPaymentStatus string      `json:"order_payment_status,omitempty"`
	TipAmount          money.Cents `json:"tip_amount_cents"`
	ReceiptURL         string      `json:"receipt_url,omitempty"`
}

// Initiate creates a pending payment for the order's full total and requests
// a terminal checkout on the chosen device. The local payment row and the
// remote checkout stand or fall together: if the provider call fails, the
// transaction rolls back and no payment row survives.
func (s *Service) Initiate(ctx context.Context, businessID, orderID, deviceID int64) (model.Payment, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return model.Payment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := s.store.GetOrderForUpdate(ctx, tx, businessID, orderID)
	if err != nil {
		return model.Payment{}, err
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		return model.Payment{}, apperr.Validationf("order %s is already paid", order.OrderNumber)
	}

	device, err := s.store.GetActiveDevice(ctx, businessID, deviceID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return model.Payment{}, apperr.Validationf("payment device %d not found or inactive", deviceID)
		}
		return model.Payment{}, err
	}

	provider, err := s.openProvider(ctx, businessID)
	if err != nil {
		return model.Payment{}, err
	}

	payment := model.Payment{
		BusinessID:    businessID,
		OrderID:       &order.ID,
		DeviceID:      &device.ID,
		Amount:        order.Total,
		PaymentType:   model.PaymentTypeCharge,
		PaymentMethod: "square_terminal",
		Status:        model.PaymentPending,
	}
	paymentID, err := s.store.CreatePayment(ctx, tx, &payment)
	if err != nil {
		return model.Payment{}, err
	}
	payment.ID = paymentID

	note := fmt.Sprintf("Order %s - %s", order.OrderNumber, order.ServiceTitle)
	checkout, err := provider.CreateCheckout(ctx, device.DeviceID, order.Total, order.OrderNumber, note)
	if err != nil {
		return model.Payment{}, apperr.Providerf("create checkout: %v", err)
	}

	metadata, err := json.Marshal(map[string]any{
		"square_status": checkout.Status,
		"created_at":    checkout.CreatedAt,
		"device_id":     device.DeviceID,
	})
	if err != nil {
		return model.Payment{}, err
	}
	if err := s.store.SetPaymentCheckout(ctx, tx, businessID, paymentID, checkout.ID, metadata); err != nil {
		return model.Payment{}, err
	}
	if err := s.store.SetOrderPaymentStatus(ctx, tx, businessID, order.ID, model.PaymentStatusPending); err != nil {
		return model.Payment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Payment{}, err
	}

	s.logger.Info("terminal checkout created",
		"payment_id", paymentID, "order_id", order.ID,
		"business_id", businessID, "checkout_id", checkout.ID,
		"amount_cents", order.Total)
	return s.store.GetPayment(ctx, businessID, paymentID)
}

// Poll reconciles local state with the provider. A payment already in a
// terminal status returns its current view without touching the provider or
// re-running transition side effects, so re-polls are idempotent.
func (s *Service) Poll(ctx context.Context, businessID, paymentID int64) (PollResult, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return PollResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	payment, err := s.store.GetPaymentForUpdate(ctx, tx, businessID, paymentID)
	if err != nil {
		return PollResult{}, err
	}

	if payment.IsTerminal() {
		return s.currentView(ctx, payment, "")
	}
	if payment.SquareCheckoutID == "" {
		return PollResult{}, apperr.Validationf("payment %d has no checkout", paymentID)
	}

	provider, err := s.openProvider(ctx, businessID)
	if err != nil {
		return PollResult{}, err
	}

	checkout, err := provider.GetCheckout(ctx, payment.SquareCheckoutID)
	if err != nil {
		return PollResult{}, apperr.Providerf("get checkout: %v", err)
	}

	switch checkout.Status {
	case RemoteCompleted:
		if err := s.complete(ctx, tx, provider, &payment, checkout); err != nil {
			return PollResult{}, err
		}
	case RemoteCanceled, RemoteFailed:
		if err := s.fail(ctx, tx, &payment, checkout.Status); err != nil {
			return PollResult{}, err
		}
	default:
		// Still in progress on the terminal: no local transition.
		return s.currentView(ctx, payment, checkout.Status)
	}

	if err := tx.Commit(ctx); err != nil {
		return PollResult{}, err
	}

	refreshed, err := s.store.GetPayment(ctx, businessID, paymentID)
	if err != nil {
		return PollResult{}, err
	}
	return s.currentView(ctx, refreshed, checkout.Status)
}

// Cancel is the staff-initiated escape hatch for a stalled checkout. Unlike
// a provider-reported cancellation, it resets the order to unpaid on the
// assumption the customer will retry.
func (s *Service) Cancel(ctx context.Context, businessID, paymentID int64) (model.Payment, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return model.Payment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	payment, err := s.store.GetPaymentForUpdate(ctx, tx, businessID, paymentID)
	if err != nil {
		return model.Payment{}, err
	}
	if payment.Status != model.PaymentPending {
		return model.Payment{}, apperr.Validationf("cannot cancel payment with status %s", payment.Status)
	}
	if payment.SquareCheckoutID == "" {
		return model.Payment{}, apperr.Validationf("payment %d has no checkout", paymentID)
	}

	provider, err := s.openProvider(ctx, businessID)
	if err != nil {
		return model.Payment{}, err
	}
	if _, err := provider.CancelCheckout(ctx, payment.SquareCheckoutID); err != nil {
		return model.Payment{}, apperr.Providerf("cancel checkout: %v", err)
	}

	if err := s.store.CancelPayment(ctx, tx, businessID, paymentID); err != nil {
		return model.Payment{}, err
	}
	if payment.OrderID != nil {
		if err := s.store.SetOrderPaymentStatus(ctx, tx, businessID, *payment.OrderID, model.PaymentStatusUnpaid); err != nil {
			return model.Payment{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Payment{}, err
	}

	s.logger.Info("payment cancelled", "payment_id", paymentID, "business_id", businessID)
	return s.store.GetPayment(ctx, businessID, paymentID)
}

func (s *Service) Get(ctx context.Context, businessID, paymentID int64) (model.Payment, error) {
	return s.store.GetPayment(ctx, businessID, paymentID)
}

func (s *Service) complete(ctx context.Context, tx Tx, provider Provider, payment *model.Payment, checkout Checkout) error {
	// The checkout often omits the tip; the underlying payment record is the
	// authoritative source when it exists.
	tip := checkout.TipMoney
	receiptURL := checkout.ReceiptURL
	if checkout.PaymentID != "" {
		record, err := provider.GetPayment(ctx, checkout.PaymentID)
		if err != nil {
			s.logger.Warn("could not fetch provider payment record",
				"payment_id", payment.ID, "provider_payment_id", checkout.PaymentID, "err", err)
		} else {
			if record.TipMoney != nil {
				tip = record.TipMoney
			}
			if record.ReceiptURL != "" {
				receiptURL = record.ReceiptURL
			}
		}
	}

	payment.SquarePaymentID = checkout.PaymentID
	payment.ReceiptURL = receiptURL
	if tip != nil {
		payment.TipAmount = tip.Amount
	}

	metadata, err := json.Marshal(map[string]any{
		"square_status": checkout.Status,
		"updated_at":    checkout.UpdatedAt,
		"payment_id":    checkout.PaymentID,
	})
	if err != nil {
		return err
	}
	payment.ProviderMetadata = metadata

	if err := s.store.CompletePayment(ctx, tx, payment); err != nil {
		return err
	}
	if payment.OrderID != nil {
		if err := s.store.CompleteOrder(ctx, tx, payment.BusinessID, *payment.OrderID); err != nil {
			return err
		}
	}

	evt, err := outbox.NewEvent("payment", payment.ID, outbox.EventPaymentCompleted, map[string]any{
		"payment_id":   payment.ID,
		"business_id":  payment.BusinessID,
		"order_id":     payment.OrderID,
		"amount_cents": payment.Amount,
		"tip_cents":    payment.TipAmount,
	})
	if err != nil {
		return err
	}
	if err := s.store.InsertEvent(ctx, tx, evt); err != nil {
		return err
	}

	s.logger.Info("payment completed",
		"payment_id", payment.ID, "business_id", payment.BusinessID,
		"tip_cents", payment.TipAmount)
	return nil
}

func (s *Service) fail(ctx context.Context, tx Tx, payment *model.Payment, remoteStatus string) error {
	status := model.PaymentCancelled
	if remoteStatus == RemoteFailed {
		status = model.PaymentFailed
	}
	errMsg := fmt.Sprintf("checkout %s", remoteStatus)

	if err := s.store.FailPayment(ctx, tx, payment.BusinessID, payment.ID, status, errMsg); err != nil {
		return err
	}
	if payment.OrderID != nil {
		if err := s.store.SetOrderPaymentStatus(ctx, tx, payment.BusinessID, *payment.OrderID, model.PaymentStatusFailed); err != nil {
			return err
		}
	}

	s.logger.Warn("payment did not complete",
		"payment_id", payment.ID, "business_id", payment.BusinessID,
		"status", status, "remote_status", remoteStatus)
	return nil
}

func (s *Service) currentView(ctx context.Context, payment model.Payment, remoteStatus string) (PollResult, error) {
	result := PollResult{
		PaymentID:    payment.ID,
		Status:       payment.Status,
		RemoteStatus: remoteStatus,
		TipAmount:    payment.TipAmount,
		ReceiptURL:   payment.ReceiptURL,
	}
	if payment.OrderID != nil {
		order, err := s.store.GetOrder(ctx, payment.BusinessID, *payment.OrderID)
		if err != nil {
			return PollResult{}, err
		}
		result.OrderPaymentStatus = order.PaymentStatus
	}
	return result, nil
}

// openProvider decrypts the business's provider credentials and builds a
// client for a single interaction. Plaintext never outlives the call.
func (s *Service) openProvider(ctx context.Context, businessID int64) (Provider, error) {
	config, err := s.store.GetActiveConfiguration(ctx, businessID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validationf("no active payment configuration for business %d", businessID)
		}
		return nil, err
	}
	credentials, err := s.box.Decrypt(config.Credentials)
	if err != nil {
		return nil, fmt.Errorf("decrypt provider credentials: %w", err)
	}
	return s.newProvider(credentials, config.LocationID)
}
