package schedule

import (
	"log/slog"
	"time"

	"github.com/pawdesk/pawdesk/internal/model"
)

// AppointmentView is one day-schedule input row: an appointment with its
// relations already resolved. Empty name fields mean the relation is missing
// and a placeholder is shown instead.
type AppointmentView struct {
	ID              int64
	StaffID         *int64
	Start           time.Time
	DurationMinutes int
	PetName         string
	CustomerName    string
	GroomerName     string
	ServiceName     string
	StatusLabel     string
}

type ScheduleItem struct {
	ID        int64  `json:"id"`
	Time      string `json:"time"`
	EndTime   string `json:"end_time"`
	PetName   string `json:"pet_name"`
	Owner     string `json:"owner"`
	Service   string `json:"service"`
	Groomer   string `json:"groomer"`
	GroomerID *int64 `json:"groomer_id"`
	Status    string `json:"status"`
}

type GroomerDay struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Appointments []ScheduleItem `json:"appointments"`
}

type DailySchedule struct {
	Date              string       `json:"date"`
	TotalAppointments int          `json:"total_appointments"`
	Groomers          []GroomerDay `json:"groomers"`
}

// BuildDaily assembles the per-groomer day view. Every groomer passed in
// appears in the output, empty list included; the caller supplies active
// groomer-role staff sorted by (first name, last name) and the day's
// appointments in start-time order. An appointment assigned to a staff id
// outside the groomer set is dropped with a warning, but it still counts
// toward the day total.
func BuildDaily(logger *slog.Logger, day time.Time, groomers []model.StaffMember, appts []AppointmentView) DailySchedule {
	byGroomer := make(map[int64][]ScheduleItem, len(groomers))
	for _, g := range groomers {
		byGroomer[g.ID] = []ScheduleItem{}
	}

	for _, a := range appts {
		item := ScheduleItem{
			ID:        a.ID,
			Time:      FormatClock(a.Start),
			EndTime:   FormatClock(a.Start.Add(time.Duration(a.DurationMinutes) * time.Minute)),
			PetName:   fallback(a.PetName, "Unknown"),
			Owner:     fallback(a.CustomerName, "Unknown"),
			Service:   fallback(a.ServiceName, "No Service"),
			Groomer:   fallback(a.GroomerName, "Unassigned"),
			GroomerID: a.StaffID,
			Status:    a.StatusLabel,
		}

		if a.StaffID != nil {
			if _, ok := byGroomer[*a.StaffID]; ok {
				byGroomer[*a.StaffID] = append(byGroomer[*a.StaffID], item)
				continue
			}
		}
		logger.Warn("appointment assigned outside active groomer set",
			"appointment_id", a.ID,
			"staff_id", a.StaffID)
	}

	out := DailySchedule{
		Date:              day.Format("2006-01-02"),
		TotalAppointments: len(appts),
		Groomers:          make([]GroomerDay, 0, len(groomers)),
	}
	for _, g := range groomers {
		out.Groomers = append(out.Groomers, GroomerDay{
			ID:           g.ID,
			Name:         g.FullName(),
			Appointments: byGroomer[g.ID],
		})
	}
	return out
}

func fallback(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
