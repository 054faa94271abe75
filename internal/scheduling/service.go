// Package scheduling implements the calendar operations: appointments, time
// blocks, advisory conflict checks, staff availability, and the daily
// schedule view. Conflicts never block a write; every mutation persists and
// carries its conflict assessment back to the caller.
package scheduling

import (
	"context"
	"log/slog"
	"time"

	"github.com/pawdesk/pawdesk/internal/apperr"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/outbox"
	"github.com/pawdesk/pawdesk/internal/schedule"
	"github.com/pawdesk/pawdesk/internal/storage"
)

type Service struct {
	cal    *storage.CalendarRepository
	staff  *storage.StaffRepository
	biz    *storage.BusinessRepository
	outbox *outbox.Repository
	logger *slog.Logger
}

func New(cal *storage.CalendarRepository, staff *storage.StaffRepository, biz *storage.BusinessRepository, ob *outbox.Repository, logger *slog.Logger) *Service {
	return &Service{cal: cal, staff: staff, biz: biz, outbox: ob, logger: logger}
}

// ConflictReport is the advisory result attached to calendar writes.
type ConflictReport struct {
	HasConflict bool   `json:"has_conflict"`
	Message     string `json:"conflict_message,omitempty"`
}

type AppointmentInput struct {
	CustomerID      *int64
	PetID           *int64
	StaffID         *int64
	Status          string
	StartsAt        time.Time
	DurationMinutes int
	IsConfirmed     bool
	Notes           string
	ServiceIDs      []int64
}

// CheckConflicts runs the advisory overlap scan for a proposed slot. The
// exclude ids drop the row being updated from its own scan.
func (s *Service) CheckConflicts(ctx context.Context, businessID, staffID int64, start time.Time, durationMinutes int, excludeAppointmentID, excludeBlockID int64) (ConflictReport, error) {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	occupants, err := s.cal.ListOccupants(ctx, businessID, staffID, start, end, excludeAppointmentID, excludeBlockID)
	if err != nil {
		return ConflictReport{}, err
	}
	has, msg := schedule.CheckConflicts(occupants, start, durationMinutes)
	return ConflictReport{HasConflict: has, Message: msg}, nil
}

func (s *Service) CreateAppointment(ctx context.Context, businessID int64, in AppointmentInput) (model.Appointment, ConflictReport, error) {
	if err := s.validateAppointmentInput(ctx, businessID, in); err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}

	statusID, err := s.resolveStatus(ctx, in.Status)
	if err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}

	report := ConflictReport{}
	if in.StaffID != nil {
		report, err = s.CheckConflicts(ctx, businessID, *in.StaffID, in.StartsAt, in.DurationMinutes, 0, 0)
		if err != nil {
			return model.Appointment{}, ConflictReport{}, err
		}
	}

	appt := model.Appointment{
		BusinessID:      businessID,
		CustomerID:      in.CustomerID,
		PetID:           in.PetID,
		StaffID:         in.StaffID,
		StatusID:        statusID,
		AppointmentAt:   in.StartsAt,
		DurationMinutes: in.DurationMinutes,
		IsConfirmed:     in.IsConfirmed,
		Notes:           in.Notes,
		ServiceIDs:      in.ServiceIDs,
	}

	tx, err := s.cal.Begin(ctx)
	if err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := s.cal.CreateAppointment(ctx, tx, &appt)
	if err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}
	appt.ID = id

	evt, err := outbox.NewEvent("appointment", id, outbox.EventAppointmentCreated, map[string]any{
		"appointment_id":   id,
		"business_id":      businessID,
		"staff_id":         in.StaffID,
		"starts_at":        in.StartsAt.UTC().Format(time.RFC3339),
		"duration_minutes": in.DurationMinutes,
		"has_conflict":     report.HasConflict,
	})
	if err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}

	if report.HasConflict {
		s.logger.Info("appointment created with conflicts",
			"appointment_id", id, "business_id", businessID, "conflicts", report.Message)
	}
	return s.GetAppointmentWithReport(ctx, businessID, id, report)
}

func (s *Service) GetAppointment(ctx context.Context, businessID, appointmentID int64) (model.Appointment, error) {
	appt, err := s.cal.GetAppointment(ctx, businessID, appointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.Appointment{}, apperr.NotFoundf("appointment %d", appointmentID)
		}
		return model.Appointment{}, err
	}
	return appt, nil
}

func (s *Service) GetAppointmentWithReport(ctx context.Context, businessID, appointmentID int64, report ConflictReport) (model.Appointment, ConflictReport, error) {
	appt, err := s.GetAppointment(ctx, businessID, appointmentID)
	return appt, report, err
}

func (s *Service) UpdateAppointment(ctx context.Context, businessID, appointmentID int64, in AppointmentInput) (model.Appointment, ConflictReport, error) {
	if _, err := s.GetAppointment(ctx, businessID, appointmentID); err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}
	if err := s.validateAppointmentInput(ctx, businessID, in); err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}

	statusID, err := s.resolveStatus(ctx, in.Status)
	if err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}

	report := ConflictReport{}
	if in.StaffID != nil {
		report, err = s.CheckConflicts(ctx, businessID, *in.StaffID, in.StartsAt, in.DurationMinutes, appointmentID, 0)
		if err != nil {
			return model.Appointment{}, ConflictReport{}, err
		}
	}

	appt := model.Appointment{
		ID:              appointmentID,
		BusinessID:      businessID,
		CustomerID:      in.CustomerID,
		PetID:           in.PetID,
		StaffID:         in.StaffID,
		StatusID:        statusID,
		AppointmentAt:   in.StartsAt,
		DurationMinutes: in.DurationMinutes,
		IsConfirmed:     in.IsConfirmed,
		Notes:           in.Notes,
		ServiceIDs:      in.ServiceIDs,
	}

	tx, err := s.cal.Begin(ctx)
	if err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.cal.UpdateAppointment(ctx, tx, &appt); err != nil {
		if storage.IsNotFound(err) {
			return model.Appointment{}, ConflictReport{}, apperr.NotFoundf("appointment %d", appointmentID)
		}
		return model.Appointment{}, ConflictReport{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, ConflictReport{}, err
	}
	return s.GetAppointmentWithReport(ctx, businessID, appointmentID, report)
}

func (s *Service) DeleteAppointment(ctx context.Context, businessID, appointmentID int64) error {
	err := s.cal.DeleteAppointment(ctx, businessID, appointmentID)
	if storage.IsNotFound(err) {
		return apperr.NotFoundf("appointment %d", appointmentID)
	}
	return err
}

// DailySchedule builds the per-groomer view for one calendar day. The day
// window is midnight to midnight in the business's configured timezone; an
// unloadable timezone falls back to UTC with a warning.
func (s *Service) DailySchedule(ctx context.Context, businessID int64, day time.Time) (schedule.DailySchedule, error) {
	biz, err := s.biz.Get(ctx, businessID)
	if err != nil {
		if storage.IsNotFound(err) {
			return schedule.DailySchedule{}, apperr.NotFoundf("business %d", businessID)
		}
		return schedule.DailySchedule{}, err
	}

	loc, err := time.LoadLocation(biz.Timezone)
	if err != nil {
		s.logger.Warn("unknown business timezone, using UTC", "business_id", businessID, "timezone", biz.Timezone)
		loc = time.UTC
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)

	groomers, err := s.staff.ListActiveGroomers(ctx, businessID)
	if err != nil {
		return schedule.DailySchedule{}, err
	}
	appts, err := s.cal.ListDay(ctx, businessID, start, end)
	if err != nil {
		return schedule.DailySchedule{}, err
	}
	return schedule.BuildDaily(s.logger, start, groomers, appts), nil
}

func (s *Service) validateAppointmentInput(ctx context.Context, businessID int64, in AppointmentInput) error {
	if in.DurationMinutes < model.MinAppointmentMinutes || in.DurationMinutes > model.MaxAppointmentMinutes {
		return apperr.Validationf("duration must be between %d and %d minutes",
			model.MinAppointmentMinutes, model.MaxAppointmentMinutes)
	}
	if in.StartsAt.IsZero() {
		return apperr.Validationf("appointment time is required")
	}

	if in.PetID == nil {
		return apperr.Validationf("pet is required")
	}
	exists, err := s.cal.PetExists(ctx, businessID, *in.PetID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFoundf("pet %d", *in.PetID)
	}

	if in.StaffID != nil {
		if _, err := s.staff.GetActive(ctx, businessID, *in.StaffID); err != nil {
			if storage.IsNotFound(err) {
				return apperr.Validationf("staff member %d not found or not active", *in.StaffID)
			}
			return err
		}
	}

	if len(in.ServiceIDs) > 0 {
		n, err := s.cal.CountServices(ctx, businessID, in.ServiceIDs)
		if err != nil {
			return err
		}
		if n != len(in.ServiceIDs) {
			return apperr.Validationf("one or more services not found")
		}
	}
	return nil
}

func (s *Service) resolveStatus(ctx context.Context, code string) (int64, error) {
	if code == "" {
		code = model.StatusScheduled
	}
	status, err := s.cal.GetStatusByCode(ctx, code)
	if err != nil {
		if storage.IsNotFound(err) {
			return 0, apperr.Validationf("unknown appointment status %q", code)
		}
		return 0, err
	}
	return status.ID, nil
}
