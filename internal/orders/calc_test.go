package orders

import (
	"testing"
	"time"

	"github.com/pawdesk/pawdesk/internal/apperr"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/money"
)

func TestOrderNumber(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	if got := OrderNumber(now, 42); got != "ORD-20260310143000-42" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyDiscountDollar(t *testing.T) {
	// subtotal 80.00, tax 6.40 (8%), tip 5.00, $20 off:
	// discounted subtotal 60.00, recovered rate 0.08, new tax 4.80, total 69.80.
	out, err := ApplyDiscount(8000, 640, 500, model.DiscountDollar, 2000)
	if err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	if out.DiscountAmount != 2000 {
		t.Errorf("discount = %d, want 2000", out.DiscountAmount)
	}
	if out.Tax != 480 {
		t.Errorf("tax = %d, want 480", out.Tax)
	}
	if out.Total != 6980 {
		t.Errorf("total = %d, want 6980", out.Total)
	}
}

func TestApplyDiscountPercentageClamp(t *testing.T) {
	// 150% of 100.00 clamps to the full subtotal; tax collapses to zero.
	out, err := ApplyDiscount(10000, 800, 0, model.DiscountPercentage, 15000)
	if err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	if out.DiscountAmount != 10000 {
		t.Errorf("discount = %d, want 10000", out.DiscountAmount)
	}
	if out.Tax != 0 {
		t.Errorf("tax = %d, want 0", out.Tax)
	}
	if out.Total != 0 {
		t.Errorf("total = %d, want 0", out.Total)
	}
}

func TestApplyDiscountClampKeepsTip(t *testing.T) {
	out, err := ApplyDiscount(10000, 800, 500, model.DiscountPercentage, 15000)
	if err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	if out.Total != 500 {
		t.Errorf("total = %d, want tip only (500)", out.Total)
	}
}

func TestApplyDiscountPercentage(t *testing.T) {
	// 15% of 80.00 = 12.00; rate recovery keeps 8%: tax on 68.00 = 5.44.
	out, err := ApplyDiscount(8000, 640, 0, model.DiscountPercentage, 1500)
	if err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	if out.DiscountAmount != 1200 {
		t.Errorf("discount = %d, want 1200", out.DiscountAmount)
	}
	if out.Tax != 544 {
		t.Errorf("tax = %d, want 544", out.Tax)
	}
	if out.Total != 8000-1200+544 {
		t.Errorf("total = %d", out.Total)
	}
}

func TestApplyDiscountZeroSubtotal(t *testing.T) {
	// Rate recovery guards division by zero: everything stays zero plus tip.
	out, err := ApplyDiscount(0, 0, 300, model.DiscountDollar, 1000)
	if err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	if out.DiscountAmount != 0 || out.Tax != 0 || out.Total != 300 {
		t.Errorf("got %+v", out)
	}
}

func TestApplyDiscountNone(t *testing.T) {
	out, err := ApplyDiscount(8000, 640, 0, model.DiscountNone, 0)
	if err != nil {
		t.Fatalf("ApplyDiscount: %v", err)
	}
	if out.DiscountAmount != 0 || out.Tax != 640 || out.Total != 8640 {
		t.Errorf("got %+v", out)
	}
}

func TestApplyDiscountRejectsBadInput(t *testing.T) {
	if _, err := ApplyDiscount(8000, 640, 0, "bogo", 100); !apperr.IsValidation(err) {
		t.Errorf("unknown type: got %v", err)
	}
	if _, err := ApplyDiscount(8000, 640, 0, model.DiscountDollar, -100); !apperr.IsValidation(err) {
		t.Errorf("negative value: got %v", err)
	}
}

func TestTotal(t *testing.T) {
	if got := Total(8000, 2000, 480, 500); got != money.Cents(6980) {
		t.Fatalf("got %d", got)
	}
}
