package schedule

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestCheckConflictsOverlap(t *testing.T) {
	occupants := []Occupant{
		{Label: "Appointment", Start: at(9, 0), End: at(10, 0)},
	}

	cases := []struct {
		name     string
		start    time.Time
		duration int
		want     bool
	}{
		{"fully inside", at(9, 15), 30, true},
		{"straddles start", at(8, 30), 60, true},
		{"straddles end", at(9, 30), 60, true},
		{"covers entirely", at(8, 0), 180, true},
		{"identical", at(9, 0), 60, true},
		{"touches end exactly", at(10, 0), 60, false},
		{"touches start exactly", at(8, 0), 60, false},
		{"well before", at(7, 0), 30, false},
		{"well after", at(11, 0), 30, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, msg := CheckConflicts(occupants, tc.start, tc.duration)
			if got != tc.want {
				t.Fatalf("got conflict=%v, want %v", got, tc.want)
			}
			if got && msg == "" {
				t.Fatal("conflict reported with empty message")
			}
			if !got && msg != "" {
				t.Fatalf("no conflict but message %q", msg)
			}
		})
	}
}

func TestCheckConflictsMessageListsEveryOverlap(t *testing.T) {
	occupants := []Occupant{
		{Label: "Appointment", Start: at(9, 0), End: at(10, 0)},
		{Label: "Lunch Break", Start: at(12, 0), End: at(13, 0)},
		{Label: "Appointment", Start: at(15, 0), End: at(16, 0)},
	}

	// 9:30 through 12:30 overlaps the first two but not the third.
	got, msg := CheckConflicts(occupants, at(9, 30), 180)
	if !got {
		t.Fatal("expected conflict")
	}
	want := "Conflicts with: Appointment at 9:00 AM-10:00 AM, Lunch Break at 12:00 PM-1:00 PM"
	if msg != want {
		t.Fatalf("message = %q, want %q", msg, want)
	}
}

func TestCheckConflictsEmptyCalendar(t *testing.T) {
	got, msg := CheckConflicts(nil, at(9, 0), 60)
	if got || msg != "" {
		t.Fatalf("got (%v, %q), want (false, \"\")", got, msg)
	}
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{at(9, 0), "9:00 AM"},
		{at(0, 5), "12:05 AM"},
		{at(12, 0), "12:00 PM"},
		{at(17, 45), "5:45 PM"},
	}
	for _, tc := range cases {
		if got := FormatClock(tc.in); got != tc.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
