package model

import (
	"time"

	"github.com/pawdesk/pawdesk/internal/money"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"

	PaymentStatusUnpaid        = "unpaid"
	PaymentStatusPending       = "pending"
	PaymentStatusPaid          = "paid"
	PaymentStatusPartiallyPaid = "partially_paid"
	PaymentStatusRefunded      = "refunded"
	PaymentStatusFailed        = "failed"

	DiscountNone       = "none"
	DiscountPercentage = "percentage"
	DiscountDollar     = "dollar"
)

// Order is an append-only financial snapshot of one appointment. The display
// strings are frozen at creation so the record stays accurate after the
// source rows change or are deleted; never re-join to refresh them.
type Order struct {
	ID             int64
	BusinessID     int64
	AppointmentID  *int64
	CustomerID     *int64
	PetID          *int64
	OrderNumber    string
	ServiceTitle   string
	GroomerName    string
	PetName        string
	Subtotal       money.Cents
	Tax            money.Cents
	Tip            money.Cents
	DiscountType   string
	DiscountValue  money.Cents
	DiscountAmount money.Cents
	Total          money.Cents
	OrderStatus    string
	PaymentStatus  string
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
