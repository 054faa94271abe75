package model

import "time"

type Appointment struct {
	ID              int64
	BusinessID      int64
	CustomerID      *int64
	PetID           *int64
	StaffID         *int64
	StatusID        int64
	AppointmentAt   time.Time
	DurationMinutes int
	IsConfirmed     bool
	Notes           string
	ServiceIDs      []int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a Appointment) EndAt() time.Time {
	return a.AppointmentAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// AppointmentStatus is a lookup row, not a fixed enum: labels and ordering are
// business-configurable. ExpectedStatusCodes is the closed set used for
// validation; unrecognized extra rows are tolerated at read time.
type AppointmentStatus struct {
	ID        int64
	Code      string
	Label     string
	SortOrder int
}

const (
	StatusScheduled      = "scheduled"
	StatusCheckedIn      = "checked_in"
	StatusInProgress     = "in_progress"
	StatusReadyForPickup = "ready_for_pickup"
	StatusCancelled      = "cancelled"
	StatusNoShow         = "no_show"
)

var ExpectedStatusCodes = []string{
	StatusScheduled,
	StatusCheckedIn,
	StatusInProgress,
	StatusReadyForPickup,
	StatusCancelled,
	StatusNoShow,
}

const (
	MinAppointmentMinutes = 15
	MaxAppointmentMinutes = 480
)
