// Command square-terminal-sim is a local stand-in for the Square Terminal
// API. It accepts checkout creation, transitions each checkout to the
// configured outcome after a delay, and serves the matching payment record,
// so the full initiate/poll/cancel flow can be exercised without hardware.
//
// Point the service at it by adding "base_url": "http://localhost:8090" to a
// business's payment credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

type checkout struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	AmountMoney json.RawMessage `json:"amount_money"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Note        string          `json:"note,omitempty"`
	PaymentIDs  []string        `json:"payment_ids,omitempty"`
	TipMoney    *moneyJSON      `json:"tip_money,omitempty"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`

	settleAt time.Time
}

type moneyJSON struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type simulator struct {
	mu        sync.Mutex
	checkouts map[string]*checkout
	seq       int

	outcome  string
	tipCents int64
	delay    time.Duration
}

func main() {
	var (
		addr     = flag.String("addr", getenv("ADDR", ":8090"), "listen address")
		outcome  = flag.String("outcome", getenv("OUTCOME", "COMPLETED"), "terminal outcome: COMPLETED, CANCELED, or FAILED")
		tipCents = flag.Int64("tip-cents", 250, "tip attached to completed payments")
		delay    = flag.Duration("delay", 5*time.Second, "time before a checkout settles")
	)
	flag.Parse()

	switch *outcome {
	case "COMPLETED", "CANCELED", "FAILED":
	default:
		fmt.Fprintf(os.Stderr, "unsupported outcome: %s\n", *outcome)
		os.Exit(2)
	}

	sim := &simulator{
		checkouts: make(map[string]*checkout),
		outcome:   *outcome,
		tipCents:  *tipCents,
		delay:     *delay,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/terminals/checkouts", sim.create)
	mux.HandleFunc("GET /v2/terminals/checkouts/{id}", sim.get)
	mux.HandleFunc("POST /v2/terminals/checkouts/{id}/cancel", sim.cancel)
	mux.HandleFunc("GET /v2/payments/{id}", sim.payment)

	fmt.Printf("square-terminal-sim listening on %s (outcome=%s delay=%s)\n", *addr, *outcome, *delay)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (s *simulator) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IdempotencyKey string `json:"idempotency_key"`
		Checkout       struct {
			AmountMoney json.RawMessage `json:"amount_money"`
			ReferenceID string          `json:"reference_id"`
			Note        string          `json:"note"`
		} `json:"checkout"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, "INVALID_REQUEST_ERROR", "BAD_REQUEST", "invalid body")
		return
	}
	if req.IdempotencyKey == "" {
		writeErrors(w, http.StatusBadRequest, "INVALID_REQUEST_ERROR", "MISSING_REQUIRED_PARAMETER", "idempotency_key is required")
		return
	}

	s.mu.Lock()
	s.seq++
	now := time.Now().UTC()
	c := &checkout{
		ID:          fmt.Sprintf("sim_chk_%d", s.seq),
		Status:      "PENDING",
		AmountMoney: req.Checkout.AmountMoney,
		ReferenceID: req.Checkout.ReferenceID,
		Note:        req.Checkout.Note,
		CreatedAt:   now.Format(time.RFC3339),
		UpdatedAt:   now.Format(time.RFC3339),
		settleAt:    now.Add(s.delay),
	}
	s.checkouts[c.ID] = c
	s.mu.Unlock()

	writeCheckout(w, c)
}

func (s *simulator) get(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checkouts[r.PathValue("id")]
	if !ok {
		writeErrors(w, http.StatusNotFound, "INVALID_REQUEST_ERROR", "NOT_FOUND", "checkout not found")
		return
	}
	s.settle(c)
	writeCheckout(w, c)
}

func (s *simulator) cancel(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.checkouts[r.PathValue("id")]
	if !ok {
		writeErrors(w, http.StatusNotFound, "INVALID_REQUEST_ERROR", "NOT_FOUND", "checkout not found")
		return
	}
	if c.Status != "PENDING" && c.Status != "IN_PROGRESS" {
		writeErrors(w, http.StatusBadRequest, "INVALID_REQUEST_ERROR", "BAD_REQUEST",
			fmt.Sprintf("checkout in state %s cannot be canceled", c.Status))
		return
	}
	c.Status = "CANCELED"
	c.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	writeCheckout(w, c)
}

func (s *simulator) payment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !strings.HasPrefix(id, "sim_pay_") {
		writeErrors(w, http.StatusNotFound, "INVALID_REQUEST_ERROR", "NOT_FOUND", "payment not found")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"payment": map[string]any{
			"id":          id,
			"status":      "COMPLETED",
			"tip_money":   moneyJSON{Amount: s.tipCents, Currency: "USD"},
			"receipt_url": "http://localhost/receipts/" + id,
		},
	})
}

// settle moves a pending checkout to the configured outcome once its delay
// has elapsed. Caller holds the lock.
func (s *simulator) settle(c *checkout) {
	if c.Status != "PENDING" || time.Now().Before(c.settleAt) {
		return
	}
	c.Status = s.outcome
	c.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if s.outcome == "COMPLETED" {
		c.PaymentIDs = []string{strings.Replace(c.ID, "sim_chk_", "sim_pay_", 1)}
		c.TipMoney = &moneyJSON{Amount: s.tipCents, Currency: "USD"}
	}
}

func writeCheckout(w http.ResponseWriter, c *checkout) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"checkout": c})
}

func writeErrors(w http.ResponseWriter, status int, category, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"category": category, "code": code, "detail": detail}},
	})
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
