package schedule

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pawdesk/pawdesk/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v int64) *int64 { return &v }

func TestBuildDailyIncludesEveryGroomer(t *testing.T) {
	groomers := []model.StaffMember{
		{ID: 1, FirstName: "Ana", LastName: "Brown"},
		{ID: 2, FirstName: "Ben", LastName: "Cole"},
		{ID: 3, FirstName: "Cam", LastName: "Diaz"},
	}
	appts := []AppointmentView{
		{ID: 10, StaffID: ptr(2), Start: at(9, 0), DurationMinutes: 60,
			PetName: "Rex", CustomerName: "Dana", GroomerName: "Ben Cole",
			ServiceName: "Full Groom", StatusLabel: "Scheduled"},
	}

	out := BuildDaily(discardLogger(), at(0, 0), groomers, appts)

	if len(out.Groomers) != len(groomers) {
		t.Fatalf("got %d groomers, want %d", len(out.Groomers), len(groomers))
	}
	if out.TotalAppointments != 1 {
		t.Fatalf("total = %d, want 1", out.TotalAppointments)
	}
	for _, g := range out.Groomers {
		if g.Appointments == nil {
			t.Fatalf("groomer %d has nil appointments list", g.ID)
		}
		want := 0
		if g.ID == 2 {
			want = 1
		}
		if len(g.Appointments) != want {
			t.Errorf("groomer %d has %d appointments, want %d", g.ID, len(g.Appointments), want)
		}
	}
	if out.Groomers[1].Appointments[0].Time != "9:00 AM" || out.Groomers[1].Appointments[0].EndTime != "10:00 AM" {
		t.Errorf("unexpected item times: %+v", out.Groomers[1].Appointments[0])
	}
}

func TestBuildDailyDropsOrphanedAppointments(t *testing.T) {
	groomers := []model.StaffMember{{ID: 1, FirstName: "Ana", LastName: "Brown"}}
	appts := []AppointmentView{
		{ID: 10, StaffID: ptr(1), Start: at(9, 0), DurationMinutes: 30},
		{ID: 11, StaffID: ptr(99), Start: at(10, 0), DurationMinutes: 30},
		{ID: 12, StaffID: nil, Start: at(11, 0), DurationMinutes: 30},
	}

	out := BuildDaily(discardLogger(), at(0, 0), groomers, appts)

	if len(out.Groomers[0].Appointments) != 1 {
		t.Fatalf("got %d grouped appointments, want 1", len(out.Groomers[0].Appointments))
	}
	// Orphans are dropped from the view but still counted in the day total.
	if out.TotalAppointments != 3 {
		t.Fatalf("total = %d, want 3", out.TotalAppointments)
	}
}

func TestBuildDailyPlaceholders(t *testing.T) {
	groomers := []model.StaffMember{{ID: 1, FirstName: "Ana", LastName: "Brown"}}
	appts := []AppointmentView{
		{ID: 10, StaffID: ptr(1), Start: at(9, 0), DurationMinutes: 30},
	}

	out := BuildDaily(discardLogger(), at(0, 0), groomers, appts)

	item := out.Groomers[0].Appointments[0]
	if item.PetName != "Unknown" {
		t.Errorf("pet = %q, want Unknown", item.PetName)
	}
	if item.Owner != "Unknown" {
		t.Errorf("owner = %q, want Unknown", item.Owner)
	}
	if item.Service != "No Service" {
		t.Errorf("service = %q, want No Service", item.Service)
	}
	if item.Groomer != "Unassigned" {
		t.Errorf("groomer = %q, want Unassigned", item.Groomer)
	}
}

func TestBuildDailyDate(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	out := BuildDaily(discardLogger(), day, nil, nil)
	if out.Date != "2026-03-10" {
		t.Fatalf("date = %q", out.Date)
	}
	if out.TotalAppointments != 0 || len(out.Groomers) != 0 {
		t.Fatalf("unexpected output: %+v", out)
	}
}
