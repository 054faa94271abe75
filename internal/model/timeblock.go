package model

import "time"

type TimeBlock struct {
	ID              int64
	BusinessID      int64
	StaffID         int64
	BlockAt         time.Time
	DurationMinutes int
	Reason          string
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (b TimeBlock) EndAt() time.Time {
	return b.BlockAt.Add(time.Duration(b.DurationMinutes) * time.Minute)
}

var blockReasonLabels = map[string]string{
	"lunch":       "Lunch Break",
	"meeting":     "Meeting",
	"personal":    "Personal Time",
	"training":    "Training",
	"cleaning":    "Equipment Cleaning",
	"maintenance": "Maintenance",
	"vacation":    "Vacation",
	"sick":        "Sick Leave",
	"other":       "Other",
}

// BlockReasonLabel maps a reason code to its display label, falling back to
// the raw code for reasons added after this build.
func BlockReasonLabel(reason string) string {
	if label, ok := blockReasonLabels[reason]; ok {
		return label
	}
	return reason
}

// ValidBlockReason reports whether reason is one of the known codes.
func ValidBlockReason(reason string) bool {
	_, ok := blockReasonLabels[reason]
	return ok
}
