// Package money implements fixed-point USD arithmetic on integer cents.
// Card providers already speak minor units, and integer math keeps the
// order calculations exact; floats never enter the financial path.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Cents is a USD amount in minor units (1 dollar = 100 cents).
type Cents int64

var ErrInvalidAmount = errors.New("invalid money amount")

// Parse reads a decimal dollar string ("69.80", "100", "0.5") into cents.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	c := Cents(w*100 + f)
	if neg {
		c = -c
	}
	return c, nil
}

// String renders the amount as a plain decimal dollar string ("69.80").
func (c Cents) String() string {
	n := int64(c)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

// RatePPM is a tax/discount rate in parts per million (0.08 == 80000).
// Six decimal places of rate precision are enough for any sales tax table.
type RatePPM int64

// ParseRate reads a decimal rate string ("0.08") into parts per million.
func ParseRate(s string) (RatePPM, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 6 {
		frac = frac[:6]
	}
	for len(frac) < 6 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return RatePPM(w*1_000_000 + f), nil
}

// TimesRate returns round(c * rate) to the nearest cent, half away from zero.
func (c Cents) TimesRate(rate RatePPM) Cents {
	return mulDiv(c, Cents(rate), 1_000_000)
}

// MulDiv returns round(c * num / den) to the nearest cent, half away from
// zero. It is the primitive behind derived-rate recalculation: the original
// tax rate is recovered exactly as the rational tax/subtotal.
func MulDiv(c, num, den Cents) Cents {
	return mulDiv(c, num, den)
}

func mulDiv(a, num, den Cents) Cents {
	if den == 0 {
		return 0
	}
	p := int64(a) * int64(num)
	d := int64(den)
	if d < 0 {
		p, d = -p, -d
	}
	if p >= 0 {
		return Cents((p + d/2) / d)
	}
	return Cents(-((-p + d/2) / d))
}

// Min returns the smaller of two amounts.
func Min(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}
