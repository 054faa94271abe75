package money

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Cents
		ok   bool
	}{
		{"69.80", 6980, true},
		{"100", 10000, true},
		{"0.5", 50, true},
		{"0.00", 0, true},
		{"-3.25", -325, true},
		{"1.999", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.ok && err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("Parse(%q) expected error", tc.in)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := Cents(6980).String(); got != "69.80" {
		t.Errorf("got %q", got)
	}
	if got := Cents(5).String(); got != "0.05" {
		t.Errorf("got %q", got)
	}
	if got := Cents(-325).String(); got != "-3.25" {
		t.Errorf("got %q", got)
	}
}

func TestTimesRate(t *testing.T) {
	rate, err := ParseRate("0.08")
	if err != nil {
		t.Fatalf("ParseRate: %v", err)
	}
	// 80.00 * 0.08 = 6.40
	if got := Cents(8000).TimesRate(rate); got != 640 {
		t.Errorf("got %d, want 640", got)
	}
	// Rounding: 10.33 * 0.0825 = 0.852225 -> 0.85
	rate2, _ := ParseRate("0.0825")
	if got := Cents(1033).TimesRate(rate2); got != 85 {
		t.Errorf("got %d, want 85", got)
	}
}

func TestMulDivHalfUp(t *testing.T) {
	// 60.00 * (6.40 / 80.00) = 4.80 exactly.
	if got := MulDiv(6000, 640, 8000); got != 480 {
		t.Errorf("got %d, want 480", got)
	}
	// Half-cent rounds away from zero: 1.25 * (1/2) = 0.625 -> 0.63.
	if got := MulDiv(125, 1, 2); got != 63 {
		t.Errorf("got %d, want 63", got)
	}
	// Zero denominator guards the subtotal==0 rate recovery.
	if got := MulDiv(100, 5, 0); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}
