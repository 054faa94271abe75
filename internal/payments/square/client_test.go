package square

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateCheckout(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/terminals/checkouts" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"checkout": map[string]any{
				"id":     "chk_1",
				"status": "PENDING",
			},
		})
	}))
	defer srv.Close()

	client := NewClient("tok-1", "sandbox", WithBaseURL(srv.URL))
	checkout, err := client.CreateCheckout(context.Background(), "dev_9", 6980, "ORD-20260310143000-42", "Order note")
	if err != nil {
		t.Fatalf("CreateCheckout: %v", err)
	}
	if checkout.ID != "chk_1" || checkout.Status != "PENDING" {
		t.Fatalf("got %+v", checkout)
	}

	if gotBody["idempotency_key"] == "" {
		t.Error("missing idempotency_key")
	}
	inner := gotBody["checkout"].(map[string]any)
	amount := inner["amount_money"].(map[string]any)
	if amount["amount"].(float64) != 6980 {
		t.Errorf("amount = %v", amount["amount"])
	}
	if inner["reference_id"] != "ORD-20260310143000-42" {
		t.Errorf("reference_id = %v", inner["reference_id"])
	}
	device := inner["device_options"].(map[string]any)
	if device["device_id"] != "dev_9" {
		t.Errorf("device_id = %v", device["device_id"])
	}
}

func TestGetCheckoutExtractsFirstPaymentID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/terminals/checkouts/chk_1" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"checkout": map[string]any{
				"id":          "chk_1",
				"status":      "COMPLETED",
				"payment_ids": []string{"pay_7", "pay_8"},
				"tip_money":   map[string]any{"amount": 250, "currency": "USD"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("tok-1", "sandbox", WithBaseURL(srv.URL))
	checkout, err := client.GetCheckout(context.Background(), "chk_1")
	if err != nil {
		t.Fatalf("GetCheckout: %v", err)
	}
	if checkout.PaymentID != "pay_7" {
		t.Errorf("payment id = %q, want pay_7", checkout.PaymentID)
	}
	if checkout.TipMoney == nil || checkout.TipMoney.Amount != 250 {
		t.Errorf("tip = %+v", checkout.TipMoney)
	}
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/payments/pay_7" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"payment": map[string]any{
				"id":          "pay_7",
				"status":      "COMPLETED",
				"tip_money":   map[string]any{"amount": 250, "currency": "USD"},
				"receipt_url": "https://squareup.com/receipt/pay_7",
			},
		})
	}))
	defer srv.Close()

	client := NewClient("tok-1", "sandbox", WithBaseURL(srv.URL))
	record, err := client.GetPayment(context.Background(), "pay_7")
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if record.TipMoney == nil || record.TipMoney.Amount != 250 {
		t.Errorf("tip = %+v", record.TipMoney)
	}
	if record.ReceiptURL == "" {
		t.Error("missing receipt url")
	}
}

func TestCancelCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/terminals/checkouts/chk_1/cancel" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"checkout": map[string]any{"id": "chk_1", "status": "CANCELED"},
		})
	}))
	defer srv.Close()

	client := NewClient("tok-1", "sandbox", WithBaseURL(srv.URL))
	checkout, err := client.CancelCheckout(context.Background(), "chk_1")
	if err != nil {
		t.Fatalf("CancelCheckout: %v", err)
	}
	if checkout.Status != "CANCELED" {
		t.Errorf("status = %q", checkout.Status)
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{
				{"category": "INVALID_REQUEST_ERROR", "code": "NOT_FOUND", "detail": "checkout not found"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("tok-1", "sandbox", WithBaseURL(srv.URL))
	if _, err := client.GetCheckout(context.Background(), "nope"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFactoryRequiresAccessToken(t *testing.T) {
	factory := Factory()
	if _, err := factory(map[string]string{}, ""); err == nil {
		t.Fatal("expected error for missing access_token")
	}
	if _, err := factory(map[string]string{"access_token": "tok"}, "loc_1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
