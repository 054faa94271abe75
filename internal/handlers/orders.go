package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/money"
	"github.com/pawdesk/pawdesk/internal/orders"
	"github.com/pawdesk/pawdesk/internal/storage"
)

// OrderHandler serves order creation and the post-creation money operations.
// Amounts cross the wire as decimal strings ("69.80"); cents never leak into
// request or response bodies.
type OrderHandler struct {
	svc    *orders.Service
	biz    *storage.BusinessRepository
	logger *slog.Logger
}

func NewOrderHandler(svc *orders.Service, biz *storage.BusinessRepository, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, biz: biz, logger: logger}
}

func (h *OrderHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/orders", h.create)
	mux.HandleFunc("GET /api/v1/orders", h.list)
	mux.HandleFunc("GET /api/v1/orders/{id}", h.get)
	mux.HandleFunc("PUT /api/v1/orders/{id}/discount", h.updateDiscount)
	mux.HandleFunc("PUT /api/v1/orders/{id}/tip", h.setTip)
}

type createOrderRequest struct {
	AppointmentID int64  `json:"appointment_id"`
	TaxRate       string `json:"tax_rate"`
}

type orderResponse struct {
	ID             int64  `json:"id"`
	AppointmentID  *int64 `json:"appointment_id"`
	CustomerID     *int64 `json:"customer_id"`
	PetID          *int64 `json:"pet_id"`
	OrderNumber    string `json:"order_number"`
	ServiceTitle   string `json:"service_title"`
	GroomerName    string `json:"groomer_name"`
	PetName        string `json:"pet_name"`
	Subtotal       string `json:"subtotal"`
	Tax            string `json:"tax"`
	Tip            string `json:"tip"`
	DiscountType   string `json:"discount_type"`
	DiscountValue  string `json:"discount_value"`
	DiscountAmount string `json:"discount_amount"`
	Total          string `json:"total"`
	OrderStatus    string `json:"order_status"`
	PaymentStatus  string `json:"payment_status"`
	CompletedAt    string `json:"completed_at,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toOrderResponse(o model.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		AppointmentID:  o.AppointmentID,
		CustomerID:     o.CustomerID,
		PetID:          o.PetID,
		OrderNumber:    o.OrderNumber,
		ServiceTitle:   o.ServiceTitle,
		GroomerName:    o.GroomerName,
		PetName:        o.PetName,
		Subtotal:       o.Subtotal.String(),
		Tax:            o.Tax.String(),
		Tip:            o.Tip.String(),
		DiscountType:   o.DiscountType,
		DiscountValue:  o.DiscountValue.String(),
		DiscountAmount: o.DiscountAmount.String(),
		Total:          o.Total.String(),
		OrderStatus:    o.OrderStatus,
		PaymentStatus:  o.PaymentStatus,
		CompletedAt:    formatTimePtr(o.CompletedAt),
		CreatedAt:      formatTime(o.CreatedAt),
		UpdatedAt:      formatTime(o.UpdatedAt),
	}
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	if req.AppointmentID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "appointment_id required"})
		return
	}

	// The request may pin a tax rate; otherwise the business's configured
	// rate applies.
	rateStr := req.TaxRate
	if rateStr == "" {
		biz, err := h.biz.Get(r.Context(), businessID(r))
		if err != nil {
			if storage.IsNotFound(err) {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: "business not found"})
				return
			}
			writeError(w, h.logger, err)
			return
		}
		rateStr = biz.TaxRate
	}
	rate, err := money.ParseRate(rateStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid tax_rate"})
		return
	}

	order, err := h.svc.CreateFromAppointment(r.Context(), businessID(r), req.AppointmentID, rate)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}
	order, err := h.svc.Get(r.Context(), businessID(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	if appointmentID, ok := queryID(r, "appointment_id"); ok {
		order, err := h.svc.GetByAppointment(r.Context(), businessID(r), appointmentID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, []orderResponse{toOrderResponse(order)})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	list, err := h.svc.List(r.Context(), businessID(r), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items := make([]orderResponse, 0, len(list))
	for _, o := range list {
		items = append(items, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, items)
}

type discountRequest struct {
	DiscountType  string `json:"discount_type"`
	DiscountValue string `json:"discount_value"`
}

func (h *OrderHandler) updateDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}
	var req discountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	value := money.Cents(0)
	if req.DiscountType != model.DiscountNone {
		value, err = money.Parse(req.DiscountValue)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid discount_value"})
			return
		}
	}

	order, err := h.svc.UpdateDiscount(r.Context(), businessID(r), id, req.DiscountType, value)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

type tipRequest struct {
	TipAmount string `json:"tip_amount"`
}

func (h *OrderHandler) setTip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}
	var req tipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	tip, err := money.Parse(req.TipAmount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid tip_amount"})
		return
	}

	order, err := h.svc.SetTip(r.Context(), businessID(r), id, tip)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}
