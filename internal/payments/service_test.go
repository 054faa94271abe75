package payments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pawdesk/pawdesk/internal/apperr"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/money"
	"github.com/pawdesk/pawdesk/internal/outbox"
	"github.com/pawdesk/pawdesk/libs/secrets"
)

type fakeState struct {
	order    model.Order
	payments map[int64]model.Payment
	events   []outbox.Event
}

func (st fakeState) clone() fakeState {
	out := st
	out.payments = make(map[int64]model.Payment, len(st.payments))
	for id, p := range st.payments {
		out.payments[id] = p
	}
	out.events = append([]outbox.Event(nil), st.events...)
	return out
}

// fakeStore applies writes immediately and restores the Begin-time snapshot
// on rollback, mirroring transactional behavior.
type fakeStore struct {
	state  fakeState
	device model.PaymentDevice
	config model.PaymentConfiguration
	nextID int64
}

type fakeTx struct {
	store     *fakeStore
	snapshot  fakeState
	committed bool
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.store.state = t.snapshot
	}
	return nil
}

func (s *fakeStore) Begin(context.Context) (Tx, error) {
	return &fakeTx{store: s, snapshot: s.state.clone()}, nil
}

func (s *fakeStore) CreatePayment(_ context.Context, _ Tx, p *model.Payment) (int64, error) {
	s.nextID++
	p.ID = s.nextID
	s.state.payments[p.ID] = *p
	return p.ID, nil
}

func (s *fakeStore) SetPaymentCheckout(_ context.Context, _ Tx, _, paymentID int64, checkoutID string, metadata []byte) error {
	p, ok := s.state.payments[paymentID]
	if !ok {
		return apperr.NotFoundf("payment %d", paymentID)
	}
	p.SquareCheckoutID = checkoutID
	p.ProviderMetadata = metadata
	s.state.payments[paymentID] = p
	return nil
}

func (s *fakeStore) GetPayment(_ context.Context, _ int64, paymentID int64) (model.Payment, error) {
	p, ok := s.state.payments[paymentID]
	if !ok {
		return model.Payment{}, apperr.NotFoundf("payment %d", paymentID)
	}
	return p, nil
}

func (s *fakeStore) GetPaymentForUpdate(ctx context.Context, _ Tx, businessID, paymentID int64) (model.Payment, error) {
	return s.GetPayment(ctx, businessID, paymentID)
}

func (s *fakeStore) CompletePayment(_ context.Context, _ Tx, p *model.Payment) error {
	got, ok := s.state.payments[p.ID]
	if !ok {
		return apperr.NotFoundf("payment %d", p.ID)
	}
	now := time.Now()
	got.Status = model.PaymentCompleted
	got.SquarePaymentID = p.SquarePaymentID
	got.ReceiptURL = p.ReceiptURL
	got.TipAmount = p.TipAmount
	got.ProviderMetadata = p.ProviderMetadata
	got.CompletedAt = &now
	s.state.payments[p.ID] = got
	return nil
}

func (s *fakeStore) FailPayment(_ context.Context, _ Tx, _, paymentID int64, status, errorMessage string) error {
	p, ok := s.state.payments[paymentID]
	if !ok {
		return apperr.NotFoundf("payment %d", paymentID)
	}
	now := time.Now()
	p.Status = status
	p.ErrorMessage = errorMessage
	p.FailedAt = &now
	s.state.payments[paymentID] = p
	return nil
}

func (s *fakeStore) CancelPayment(_ context.Context, _ Tx, _, paymentID int64) error {
	p, ok := s.state.payments[paymentID]
	if !ok {
		return apperr.NotFoundf("payment %d", paymentID)
	}
	now := time.Now()
	p.Status = model.PaymentCancelled
	p.CancelledAt = &now
	s.state.payments[paymentID] = p
	return nil
}

func (s *fakeStore) GetOrderForUpdate(_ context.Context, _ Tx, _, orderID int64) (model.Order, error) {
	if s.state.order.ID != orderID {
		return model.Order{}, apperr.NotFoundf("order %d", orderID)
	}
	return s.state.order, nil
}

func (s *fakeStore) GetOrder(_ context.Context, _, orderID int64) (model.Order, error) {
	if s.state.order.ID != orderID {
		return model.Order{}, apperr.NotFoundf("order %d", orderID)
	}
	return s.state.order, nil
}

func (s *fakeStore) SetOrderPaymentStatus(_ context.Context, _ Tx, _, orderID int64, paymentStatus string) error {
	if s.state.order.ID != orderID {
		return apperr.NotFoundf("order %d", orderID)
	}
	s.state.order.PaymentStatus = paymentStatus
	return nil
}

func (s *fakeStore) CompleteOrder(_ context.Context, _ Tx, _, orderID int64) error {
	if s.state.order.ID != orderID {
		return apperr.NotFoundf("order %d", orderID)
	}
	now := time.Now()
	s.state.order.PaymentStatus = model.PaymentStatusPaid
	s.state.order.OrderStatus = model.OrderStatusCompleted
	s.state.order.CompletedAt = &now
	return nil
}

func (s *fakeStore) GetActiveDevice(_ context.Context, _, deviceID int64) (model.PaymentDevice, error) {
	if s.device.ID != deviceID || !s.device.IsActive {
		return model.PaymentDevice{}, apperr.NotFoundf("payment device %d", deviceID)
	}
	return s.device, nil
}

func (s *fakeStore) GetActiveConfiguration(context.Context, int64) (model.PaymentConfiguration, error) {
	return s.config, nil
}

func (s *fakeStore) InsertEvent(_ context.Context, _ Tx, evt outbox.Event) error {
	s.state.events = append(s.state.events, evt)
	return nil
}

type fakeProvider struct {
	checkout       Checkout
	payment        PaymentRecord
	createErr      error
	getCheckoutErr error
	cancelErr      error

	createCalls      int
	getCheckoutCalls int
	getPaymentCalls  int
	cancelCalls      int
}

func (p *fakeProvider) CreateCheckout(_ context.Context, _ string, amount money.Cents, reference, _ string) (Checkout, error) {
	p.createCalls++
	if p.createErr != nil {
		return Checkout{}, p.createErr
	}
	out := p.checkout
	if out.ID == "" {
		out.ID = "chk_1"
	}
	if out.Status == "" {
		out.Status = "PENDING"
	}
	return out, nil
}

func (p *fakeProvider) GetCheckout(context.Context, string) (Checkout, error) {
	p.getCheckoutCalls++
	if p.getCheckoutErr != nil {
		return Checkout{}, p.getCheckoutErr
	}
	return p.checkout, nil
}

func (p *fakeProvider) GetPayment(context.Context, string) (PaymentRecord, error) {
	p.getPaymentCalls++
	return p.payment, nil
}

func (p *fakeProvider) CancelCheckout(context.Context, string) (Checkout, error) {
	p.cancelCalls++
	if p.cancelErr != nil {
		return Checkout{}, p.cancelErr
	}
	return Checkout{ID: "chk_1", Status: "CANCELED"}, nil
}

func newTestService(t *testing.T, store *fakeStore, provider *fakeProvider) *Service {
	t.Helper()
	box, err := secrets.NewBox("payments-test-secret")
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}
	sealed, err := box.Encrypt(map[string]string{"access_token": "tok"})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	store.config = model.PaymentConfiguration{
		ID: 1, BusinessID: 1, Provider: "square", Credentials: sealed, IsActive: true,
	}
	factory := func(credentials map[string]string, _ string) (Provider, error) {
		if credentials["access_token"] != "tok" {
			t.Errorf("factory got credentials %v", credentials)
		}
		return provider, nil
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, box, factory, logger)
}

func newStore() *fakeStore {
	return &fakeStore{
		state: fakeState{
			order: model.Order{
				ID: 10, BusinessID: 1, OrderNumber: "ORD-20260310143000-1",
				ServiceTitle: "Full Groom", Subtotal: 8000, Tax: 640, Total: 8640,
				OrderStatus: model.OrderStatusPending, PaymentStatus: model.PaymentStatusUnpaid,
			},
			payments: map[int64]model.Payment{},
		},
		device: model.PaymentDevice{ID: 5, BusinessID: 1, DeviceID: "dev_9", IsActive: true},
	}
}

func TestInitiateCreatesPendingPayment(t *testing.T) {
	store := newStore()
	provider := &fakeProvider{}
	svc := newTestService(t, store, provider)

	payment, err := svc.Initiate(context.Background(), 1, 10, 5)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if payment.Status != model.PaymentPending {
		t.Errorf("status = %q", payment.Status)
	}
	if payment.Amount != 8640 {
		t.Errorf("amount = %d, want order total 8640", payment.Amount)
	}
	if payment.SquareCheckoutID != "chk_1" {
		t.Errorf("checkout id = %q", payment.SquareCheckoutID)
	}
	if store.state.order.PaymentStatus != model.PaymentStatusPending {
		t.Errorf("order payment status = %q", store.state.order.PaymentStatus)
	}
	if provider.createCalls != 1 {
		t.Errorf("createCalls = %d", provider.createCalls)
	}
}

func TestInitiateRollsBackOnProviderFailure(t *testing.T) {
	store := newStore()
	provider := &fakeProvider{createErr: errors.New("terminal offline")}
	svc := newTestService(t, store, provider)

	_, err := svc.Initiate(context.Background(), 1, 10, 5)
	if !apperr.IsProvider(err) {
		t.Fatalf("got %v, want provider error", err)
	}
	if len(store.state.payments) != 0 {
		t.Errorf("payment row survived rollback: %v", store.state.payments)
	}
	if store.state.order.PaymentStatus != model.PaymentStatusUnpaid {
		t.Errorf("order payment status = %q, want unpaid", store.state.order.PaymentStatus)
	}
}

func TestInitiateRejectsPaidOrder(t *testing.T) {
	store := newStore()
	store.state.order.PaymentStatus = model.PaymentStatusPaid
	svc := newTestService(t, store, &fakeProvider{})

	_, err := svc.Initiate(context.Background(), 1, 10, 5)
	if !apperr.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestInitiateRejectsInactiveDevice(t *testing.T) {
	store := newStore()
	store.device.IsActive = false
	svc := newTestService(t, store, &fakeProvider{})

	_, err := svc.Initiate(context.Background(), 1, 10, 5)
	if !apperr.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func pendingPayment(store *fakeStore) int64 {
	orderID := store.state.order.ID
	store.nextID++
	id := store.nextID
	store.state.payments[id] = model.Payment{
		ID: id, BusinessID: 1, OrderID: &orderID, Amount: store.state.order.Total,
		PaymentType: model.PaymentTypeCharge, PaymentMethod: "square_terminal",
		Status: model.PaymentPending, SquareCheckoutID: "chk_1",
	}
	store.state.order.PaymentStatus = model.PaymentStatusPending
	return id
}

func TestPollCompletedSetsBothRecords(t *testing.T) {
	store := newStore()
	id := pendingPayment(store)
	provider := &fakeProvider{
		checkout: Checkout{
			ID: "chk_1", Status: RemoteCompleted, PaymentID: "pay_7",
			ReceiptURL: "https://squareup.com/receipt/pay_7",
		},
		payment: PaymentRecord{
			ID: "pay_7", Status: "COMPLETED",
			TipMoney: &Money{Amount: 250, Currency: "USD"},
		},
	}
	svc := newTestService(t, store, provider)

	result, err := svc.Poll(context.Background(), 1, id)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.Status != model.PaymentCompleted {
		t.Errorf("result status = %q", result.Status)
	}

	payment := store.state.payments[id]
	if payment.Status != model.PaymentCompleted {
		t.Errorf("payment status = %q", payment.Status)
	}
	if payment.TipAmount != 250 {
		t.Errorf("tip = %d, want 250 (from payment record)", payment.TipAmount)
	}
	if payment.SquarePaymentID != "pay_7" {
		t.Errorf("square payment id = %q", payment.SquarePaymentID)
	}
	if payment.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	order := store.state.order
	if order.PaymentStatus != model.PaymentStatusPaid {
		t.Errorf("order payment status = %q", order.PaymentStatus)
	}
	if order.OrderStatus != model.OrderStatusCompleted {
		t.Errorf("order status = %q", order.OrderStatus)
	}
	if order.CompletedAt == nil {
		t.Error("order completed_at not set")
	}
	// Terminal tip lives on the payment only; the order's own tip is untouched.
	if order.Tip != 0 {
		t.Errorf("order tip = %d, want 0", order.Tip)
	}

	if len(store.state.events) != 1 || store.state.events[0].EventType != outbox.EventPaymentCompleted {
		t.Errorf("events = %+v", store.state.events)
	}
}

func TestPollPrefersPaymentRecordTipOverCheckoutTip(t *testing.T) {
	store := newStore()
	id := pendingPayment(store)
	provider := &fakeProvider{
		checkout: Checkout{
			ID: "chk_1", Status: RemoteCompleted, PaymentID: "pay_7",
			TipMoney: &Money{Amount: 100, Currency: "USD"},
		},
		payment: PaymentRecord{
			ID: "pay_7", TipMoney: &Money{Amount: 250, Currency: "USD"},
		},
	}
	svc := newTestService(t, store, provider)

	if _, err := svc.Poll(context.Background(), 1, id); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if got := store.state.payments[id].TipAmount; got != 250 {
		t.Errorf("tip = %d, want payment-record tip 250", got)
	}
}

func TestPollCanceledFailsPaymentAndOrder(t *testing.T) {
	store := newStore()
	id := pendingPayment(store)
	provider := &fakeProvider{checkout: Checkout{ID: "chk_1", Status: RemoteCanceled}}
	svc := newTestService(t, store, provider)

	if _, err := svc.Poll(context.Background(), 1, id); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	payment := store.state.payments[id]
	if payment.Status != model.PaymentCancelled {
		t.Errorf("payment status = %q, want cancelled", payment.Status)
	}
	if payment.FailedAt == nil {
		t.Error("failed_at not set")
	}
	// Provider-reported cancellation means something went wrong: order fails.
	if store.state.order.PaymentStatus != model.PaymentStatusFailed {
		t.Errorf("order payment status = %q, want failed", store.state.order.PaymentStatus)
	}
}

func TestPollFailedMapsToFailed(t *testing.T) {
	store := newStore()
	id := pendingPayment(store)
	provider := &fakeProvider{checkout: Checkout{ID: "chk_1", Status: RemoteFailed}}
	svc := newTestService(t, store, provider)

	if _, err := svc.Poll(context.Background(), 1, id); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if got := store.state.payments[id].Status; got != model.PaymentFailed {
		t.Errorf("payment status = %q, want failed", got)
	}
}

func TestPollInProgressLeavesStateAlone(t *testing.T) {
	store := newStore()
	id := pendingPayment(store)
	provider := &fakeProvider{checkout: Checkout{ID: "chk_1", Status: "IN_PROGRESS"}}
	svc := newTestService(t, store, provider)

	result, err := svc.Poll(context.Background(), 1, id)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if result.Status != model.PaymentPending || result.RemoteStatus != "IN_PROGRESS" {
		t.Errorf("result = %+v", result)
	}
	if got := store.state.payments[id].Status; got != model.PaymentPending {
		t.Errorf("payment status = %q, want pending", got)
	}
}

func TestRePollOfTerminalPaymentIsIdempotent(t *testing.T) {
	store := newStore()
	id := pendingPayment(store)
	provider := &fakeProvider{
		checkout: Checkout{ID: "chk_1", Status: RemoteCompleted, PaymentID: "pay_7"},
		payment:  PaymentRecord{ID: "pay_7", TipMoney: &Money{Amount: 250}},
	}
	svc := newTestService(t, store, provider)

	if _, err := svc.Poll(context.Background(), 1, id); err != nil {
		t.Fatalf("first Poll: %v", err)
	}
	firstCompletedAt := store.state.payments[id].CompletedAt
	eventsAfterFirst := len(store.state.events)

	result, err := svc.Poll(context.Background(), 1, id)
	if err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if result.Status != model.PaymentCompleted {
		t.Errorf("status = %q", result.Status)
	}
	if provider.getCheckoutCalls != 1 {
		t.Errorf("getCheckoutCalls = %d, want 1 (terminal payment skips provider)", provider.getCheckoutCalls)
	}
	if len(store.state.events) != eventsAfterFirst {
		t.Errorf("re-poll emitted %d new events", len(store.state.events)-eventsAfterFirst)
	}
	if store.state.payments[id].CompletedAt != firstCompletedAt {
		t.Error("completed_at changed on re-poll")
	}
}

func TestCancelResetsOrderToUnpaid(t *testing.T) {
	store := newStore()
	id := pendingPayment(store)
	provider := &fakeProvider{}
	svc := newTestService(t, store, provider)

	payment, err := svc.Cancel(context.Background(), 1, id)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if payment.Status != model.PaymentCancelled {
		t.Errorf("payment status = %q", payment.Status)
	}
	if payment.CancelledAt == nil {
		t.Error("cancelled_at not set")
	}
	// Staff cancel assumes the customer will retry: unpaid, not failed.
	if store.state.order.PaymentStatus != model.PaymentStatusUnpaid {
		t.Errorf("order payment status = %q, want unpaid", store.state.order.PaymentStatus)
	}
	if provider.cancelCalls != 1 {
		t.Errorf("cancelCalls = %d", provider.cancelCalls)
	}
}

func TestCancelRejectsNonPending(t *testing.T) {
	store := newStore()
	id := pendingPayment(store)
	p := store.state.payments[id]
	p.Status = model.PaymentCompleted
	store.state.payments[id] = p
	svc := newTestService(t, store, &fakeProvider{})

	if _, err := svc.Cancel(context.Background(), 1, id); !apperr.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestCancelRollsBackOnProviderFailure(t *testing.T) {
	store := newStore()
	id := pendingPayment(store)
	provider := &fakeProvider{cancelErr: errors.New("network")}
	svc := newTestService(t, store, provider)

	if _, err := svc.Cancel(context.Background(), 1, id); !apperr.IsProvider(err) {
		t.Fatalf("got %v, want provider error", err)
	}
	if got := store.state.payments[id].Status; got != model.PaymentPending {
		t.Errorf("payment status = %q, want pending after rollback", got)
	}
}
