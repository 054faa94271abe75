package model

import "time"

type Business struct {
	ID        int64
	Name      string
	Timezone  string
	TaxRate   string
	IsActive  bool
	CreatedAt time.Time
}

const (
	RoleOwner   = "owner"
	RoleStaff   = "staff"
	RoleGroomer = "groomer"
)

type StaffMember struct {
	ID         int64
	BusinessID int64
	FirstName  string
	LastName   string
	Email      string
	Role       string
	IsActive   bool
	CreatedAt  time.Time
}

func (s StaffMember) FullName() string {
	switch {
	case s.FirstName == "" && s.LastName == "":
		return ""
	case s.LastName == "":
		return s.FirstName
	case s.FirstName == "":
		return s.LastName
	}
	return s.FirstName + " " + s.LastName
}

// StaffAvailability holds one weekday entry. DayOfWeek runs 0=Monday through
// 6=Sunday; a missing entry means the staff member is unavailable that day.
type StaffAvailability struct {
	ID          int64
	BusinessID  int64
	StaffID     int64
	DayOfWeek   int
	IsAvailable bool
	StartTime   string
	EndTime     string
}
