package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/scheduling"
)

// CalendarHandler serves appointments, time blocks, staff availability, the
// conflict probe, and the daily schedule view.
type CalendarHandler struct {
	svc    *scheduling.Service
	logger *slog.Logger
}

func NewCalendarHandler(svc *scheduling.Service, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{svc: svc, logger: logger}
}

func (h *CalendarHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/appointments", h.createAppointment)
	mux.HandleFunc("GET /api/v1/appointments/conflicts", h.checkConflicts)
	mux.HandleFunc("GET /api/v1/appointments/{id}", h.getAppointment)
	mux.HandleFunc("PUT /api/v1/appointments/{id}", h.updateAppointment)
	mux.HandleFunc("DELETE /api/v1/appointments/{id}", h.deleteAppointment)
	mux.HandleFunc("GET /api/v1/schedule/daily", h.dailySchedule)
	mux.HandleFunc("POST /api/v1/time-blocks", h.createTimeBlock)
	mux.HandleFunc("GET /api/v1/time-blocks", h.listTimeBlocks)
	mux.HandleFunc("GET /api/v1/time-blocks/{id}", h.getTimeBlock)
	mux.HandleFunc("PUT /api/v1/time-blocks/{id}", h.updateTimeBlock)
	mux.HandleFunc("DELETE /api/v1/time-blocks/{id}", h.deleteTimeBlock)
	mux.HandleFunc("GET /api/v1/staff/{id}/availability", h.getAvailability)
	mux.HandleFunc("PUT /api/v1/staff/{id}/availability", h.replaceAvailability)
}

type appointmentRequest struct {
	CustomerID      *int64  `json:"customer_id"`
	PetID           *int64  `json:"pet_id"`
	StaffID         *int64  `json:"staff_id"`
	Status          string  `json:"status"`
	StartsAt        string  `json:"starts_at"`
	DurationMinutes int     `json:"duration_minutes"`
	IsConfirmed     bool    `json:"is_confirmed"`
	Notes           string  `json:"notes"`
	ServiceIDs      []int64 `json:"service_ids"`
}

type appointmentResponse struct {
	ID              int64   `json:"id"`
	CustomerID      *int64  `json:"customer_id"`
	PetID           *int64  `json:"pet_id"`
	StaffID         *int64  `json:"staff_id"`
	StatusID        int64   `json:"status_id"`
	StartsAt        string  `json:"starts_at"`
	EndsAt          string  `json:"ends_at"`
	DurationMinutes int     `json:"duration_minutes"`
	IsConfirmed     bool    `json:"is_confirmed"`
	Notes           string  `json:"notes,omitempty"`
	ServiceIDs      []int64 `json:"service_ids"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	HasConflict     bool    `json:"has_conflict"`
	ConflictMessage string  `json:"conflict_message,omitempty"`
}

func toAppointmentResponse(appt model.Appointment, report scheduling.ConflictReport) appointmentResponse {
	serviceIDs := appt.ServiceIDs
	if serviceIDs == nil {
		serviceIDs = []int64{}
	}
	return appointmentResponse{
		ID:              appt.ID,
		CustomerID:      appt.CustomerID,
		PetID:           appt.PetID,
		StaffID:         appt.StaffID,
		StatusID:        appt.StatusID,
		StartsAt:        formatTime(appt.AppointmentAt),
		EndsAt:          formatTime(appt.EndAt()),
		DurationMinutes: appt.DurationMinutes,
		IsConfirmed:     appt.IsConfirmed,
		Notes:           appt.Notes,
		ServiceIDs:      serviceIDs,
		CreatedAt:       formatTime(appt.CreatedAt),
		UpdatedAt:       formatTime(appt.UpdatedAt),
		HasConflict:     report.HasConflict,
		ConflictMessage: report.Message,
	}
}

func (r appointmentRequest) toInput() (scheduling.AppointmentInput, error) {
	startsAt, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return scheduling.AppointmentInput{}, err
	}
	return scheduling.AppointmentInput{
		CustomerID:      r.CustomerID,
		PetID:           r.PetID,
		StaffID:         r.StaffID,
		Status:          r.Status,
		StartsAt:        startsAt,
		DurationMinutes: r.DurationMinutes,
		IsConfirmed:     r.IsConfirmed,
		Notes:           r.Notes,
		ServiceIDs:      r.ServiceIDs,
	}, nil
}

func (h *CalendarHandler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "starts_at must be RFC 3339"})
		return
	}

	appt, report, err := h.svc.CreateAppointment(r.Context(), businessID(r), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt, report))
}

func (h *CalendarHandler) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid appointment id"})
		return
	}
	appt, err := h.svc.GetAppointment(r.Context(), businessID(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt, scheduling.ConflictReport{}))
}

func (h *CalendarHandler) updateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid appointment id"})
		return
	}
	var req appointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "starts_at must be RFC 3339"})
		return
	}

	appt, report, err := h.svc.UpdateAppointment(r.Context(), businessID(r), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt, report))
}

func (h *CalendarHandler) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid appointment id"})
		return
	}
	if err := h.svc.DeleteAppointment(r.Context(), businessID(r), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CalendarHandler) checkConflicts(w http.ResponseWriter, r *http.Request) {
	staffID, ok := queryID(r, "staff_id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "staff_id required"})
		return
	}
	startsAt, err := time.Parse(time.RFC3339, r.URL.Query().Get("starts_at"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "starts_at must be RFC 3339"})
		return
	}
	duration, ok := queryID(r, "duration_minutes")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "duration_minutes required"})
		return
	}
	excludeAppt, _ := queryID(r, "exclude_appointment_id")
	excludeBlock, _ := queryID(r, "exclude_block_id")

	report, err := h.svc.CheckConflicts(r.Context(), businessID(r), staffID, startsAt, int(duration), excludeAppt, excludeBlock)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *CalendarHandler) dailySchedule(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}
	sched, err := h.svc.DailySchedule(r.Context(), businessID(r), day)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

type timeBlockRequest struct {
	StaffID         int64  `json:"staff_id"`
	StartsAt        string `json:"starts_at"`
	DurationMinutes int    `json:"duration_minutes"`
	Reason          string `json:"reason"`
	Description     string `json:"description"`
}

type timeBlockResponse struct {
	ID              int64  `json:"id"`
	StaffID         int64  `json:"staff_id"`
	StartsAt        string `json:"starts_at"`
	EndsAt          string `json:"ends_at"`
	DurationMinutes int    `json:"duration_minutes"`
	Reason          string `json:"reason"`
	ReasonLabel     string `json:"reason_label"`
	Description     string `json:"description,omitempty"`
	HasConflict     bool   `json:"has_conflict"`
	ConflictMessage string `json:"conflict_message,omitempty"`
}

func toTimeBlockResponse(block model.TimeBlock, report scheduling.ConflictReport) timeBlockResponse {
	return timeBlockResponse{
		ID:              block.ID,
		StaffID:         block.StaffID,
		StartsAt:        formatTime(block.BlockAt),
		EndsAt:          formatTime(block.EndAt()),
		DurationMinutes: block.DurationMinutes,
		Reason:          block.Reason,
		ReasonLabel:     model.BlockReasonLabel(block.Reason),
		Description:     block.Description,
		HasConflict:     report.HasConflict,
		ConflictMessage: report.Message,
	}
}

func (r timeBlockRequest) toInput() (scheduling.TimeBlockInput, error) {
	startsAt, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return scheduling.TimeBlockInput{}, err
	}
	return scheduling.TimeBlockInput{
		StaffID:         r.StaffID,
		StartsAt:        startsAt,
		DurationMinutes: r.DurationMinutes,
		Reason:          r.Reason,
		Description:     r.Description,
	}, nil
}

func (h *CalendarHandler) createTimeBlock(w http.ResponseWriter, r *http.Request) {
	var req timeBlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "starts_at must be RFC 3339"})
		return
	}

	block, report, err := h.svc.CreateTimeBlock(r.Context(), businessID(r), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimeBlockResponse(block, report))
}

func (h *CalendarHandler) getTimeBlock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid time block id"})
		return
	}
	block, err := h.svc.GetTimeBlock(r.Context(), businessID(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeBlockResponse(block, scheduling.ConflictReport{}))
}

func (h *CalendarHandler) updateTimeBlock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid time block id"})
		return
	}
	var req timeBlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "starts_at must be RFC 3339"})
		return
	}

	block, report, err := h.svc.UpdateTimeBlock(r.Context(), businessID(r), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeBlockResponse(block, report))
}

func (h *CalendarHandler) deleteTimeBlock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid time block id"})
		return
	}
	if err := h.svc.DeleteTimeBlock(r.Context(), businessID(r), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CalendarHandler) listTimeBlocks(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "start must be RFC 3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "end must be RFC 3339"})
		return
	}
	if !end.After(start) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "end must be after start"})
		return
	}

	blocks, err := h.svc.ListTimeBlocks(r.Context(), businessID(r), start, end)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	items := make([]timeBlockResponse, 0, len(blocks))
	for _, block := range blocks {
		items = append(items, toTimeBlockResponse(block, scheduling.ConflictReport{}))
	}
	writeJSON(w, http.StatusOK, items)
}

type availabilityEntry struct {
	DayOfWeek   int    `json:"day_of_week"`
	IsAvailable bool   `json:"is_available"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

func toAvailabilityEntries(entries []model.StaffAvailability) []availabilityEntry {
	out := make([]availabilityEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, availabilityEntry{
			DayOfWeek:   e.DayOfWeek,
			IsAvailable: e.IsAvailable,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
		})
	}
	return out
}

func (h *CalendarHandler) getAvailability(w http.ResponseWriter, r *http.Request) {
	staffID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid staff id"})
		return
	}
	entries, err := h.svc.GetAvailability(r.Context(), businessID(r), staffID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailabilityEntries(entries))
}

func (h *CalendarHandler) replaceAvailability(w http.ResponseWriter, r *http.Request) {
	staffID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid staff id"})
		return
	}
	var req []availabilityEntry
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	entries := make([]model.StaffAvailability, 0, len(req))
	for _, e := range req {
		entries = append(entries, model.StaffAvailability{
			StaffID:     staffID,
			DayOfWeek:   e.DayOfWeek,
			IsAvailable: e.IsAvailable,
			StartTime:   e.StartTime,
			EndTime:     e.EndTime,
		})
	}

	updated, err := h.svc.ReplaceAvailability(r.Context(), businessID(r), staffID, entries)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toAvailabilityEntries(updated))
}
