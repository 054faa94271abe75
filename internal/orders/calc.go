// Package orders turns completed appointments into financial records and
// keeps their totals consistent through discount and tip changes. All math
// runs on integer cents with half-up rounding at every step.
package orders

import (
	"fmt"
	"time"

	"github.com/pawdesk/pawdesk/internal/apperr"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/money"
)

// OrderNumber builds the human-facing reference, e.g. ORD-20260310143000-42.
// It doubles as the provider checkout reference.
func OrderNumber(now time.Time, businessID int64) string {
	return fmt.Sprintf("ORD-%s-%d", now.UTC().Format("20060102150405"), businessID)
}

// DiscountOutcome is the atomic result of a discount recalculation. Either
// all of it is persisted or none of it; a stored discount with stale tax is
// never acceptable.
type DiscountOutcome struct {
	DiscountAmount money.Cents
	Tax            money.Cents
	Total          money.Cents
}

// ApplyDiscount recomputes order totals for a discount change, in this exact
// sequence: compute the discount (clamped to the subtotal), subtract it,
// recover the original tax rate from the persisted tax/subtotal pair, re-tax
// the discounted subtotal, then add tax and tip back. The rate is never
// stored; existingTax/subtotal is its only source.
//
// discountValue is in cents: for a percentage discount 1500 means 15%, for a
// dollar discount 1500 means $15.00.
func ApplyDiscount(subtotal, existingTax, tip money.Cents, discountType string, discountValue money.Cents) (DiscountOutcome, error) {
	if discountValue < 0 {
		return DiscountOutcome{}, apperr.Validationf("discount value cannot be negative")
	}

	var discount money.Cents
	switch discountType {
	case model.DiscountPercentage:
		discount = money.MulDiv(subtotal, discountValue, 10000)
	case model.DiscountDollar:
		discount = discountValue
	case model.DiscountNone:
		discount = 0
	default:
		return DiscountOutcome{}, apperr.Validationf("unknown discount type %q", discountType)
	}
	discount = money.Min(discount, subtotal)

	subtotalAfter := subtotal - discount
	newTax := money.MulDiv(subtotalAfter, existingTax, subtotal)

	return DiscountOutcome{
		DiscountAmount: discount,
		Tax:            newTax,
		Total:          subtotalAfter + newTax + tip,
	}, nil
}

// Total recomputes an order total from its stored parts.
func Total(subtotal, discountAmount, tax, tip money.Cents) money.Cents {
	return subtotal - discountAmount + tax + tip
}
