// Package schedule holds the pure calendar logic: overlap detection for a
// staff member's day and the per-groomer daily view. Nothing here touches
// the database; callers fetch the candidate rows and pass them in.
package schedule

import (
	"strings"
	"time"
)

// Occupant is one item already on a staff member's calendar. Label is the
// display name used in conflict messages: "Appointment" for bookings, the
// reason label for time blocks.
type Occupant struct {
	Label string
	Start time.Time
	End   time.Time
}

// CheckConflicts tests a proposed [start, start+duration) slot against the
// existing occupants and renders an advisory message listing every overlap.
// Touching endpoints do not conflict. Conflicts never block a write: the
// caller persists regardless and surfaces the message to the user.
func CheckConflicts(occupants []Occupant, start time.Time, durationMinutes int) (bool, string) {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	var parts []string
	for _, o := range occupants {
		if o.Start.Before(end) && o.End.After(start) {
			parts = append(parts, o.Label+" at "+FormatClock(o.Start)+"-"+FormatClock(o.End))
		}
	}
	if len(parts) == 0 {
		return false, ""
	}
	return true, "Conflicts with: " + strings.Join(parts, ", ")
}

// FormatClock renders a wall-clock time in 12-hour form without a leading
// zero ("9:00 AM").
func FormatClock(t time.Time) string {
	return t.Format("3:04 PM")
}
