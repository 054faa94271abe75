package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/payments"
)

// PaymentHandler drives the terminal payment lifecycle: initiate a checkout,
// poll for its outcome, and cancel a stalled one.
type PaymentHandler struct {
	svc    *payments.Service
	logger *slog.Logger
}

func NewPaymentHandler(svc *payments.Service, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, logger: logger}
}

func (h *PaymentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments", h.initiate)
	mux.HandleFunc("GET /api/v1/payments/{id}", h.get)
	mux.HandleFunc("POST /api/v1/payments/{id}/poll", h.poll)
	mux.HandleFunc("POST /api/v1/payments/{id}/cancel", h.cancel)
}

type initiatePaymentRequest struct {
	OrderID  int64 `json:"order_id"`
	DeviceID int64 `json:"device_id"`
}

type paymentResponse struct {
	ID               int64  `json:"id"`
	OrderID          *int64 `json:"order_id"`
	Amount           string `json:"amount"`
	TipAmount        string `json:"tip_amount"`
	PaymentType      string `json:"payment_type"`
	PaymentMethod    string `json:"payment_method"`
	Status           string `json:"status"`
	SquareCheckoutID string `json:"square_checkout_id,omitempty"`
	SquarePaymentID  string `json:"square_payment_id,omitempty"`
	ReceiptURL       string `json:"receipt_url,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`
	CompletedAt      string `json:"completed_at,omitempty"`
	FailedAt         string `json:"failed_at,omitempty"`
	CancelledAt      string `json:"cancelled_at,omitempty"`
	CreatedAt        string `json:"created_at"`
}

func toPaymentResponse(p model.Payment) paymentResponse {
	return paymentResponse{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Amount:           p.Amount.String(),
		TipAmount:        p.TipAmount.String(),
		PaymentType:      p.PaymentType,
		PaymentMethod:    p.PaymentMethod,
		Status:           p.Status,
		SquareCheckoutID: p.SquareCheckoutID,
		SquarePaymentID:  p.SquarePaymentID,
		ReceiptURL:       p.ReceiptURL,
		ErrorMessage:     p.ErrorMessage,
		CompletedAt:      formatTimePtr(p.CompletedAt),
		FailedAt:         formatTimePtr(p.FailedAt),
		CancelledAt:      formatTimePtr(p.CancelledAt),
		CreatedAt:        formatTime(p.CreatedAt),
	}
}

func (h *PaymentHandler) initiate(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	if req.OrderID <= 0 || req.DeviceID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "order_id and device_id required"})
		return
	}

	payment, err := h.svc.Initiate(r.Context(), businessID(r), req.OrderID, req.DeviceID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (h *PaymentHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payment id"})
		return
	}
	payment, err := h.svc.Get(r.Context(), businessID(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (h *PaymentHandler) poll(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payment id"})
		return
	}
	result, err := h.svc.Poll(r.Context(), businessID(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PaymentHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payment id"})
		return
	}
	payment, err := h.svc.Cancel(r.Context(), businessID(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(payment))
}
