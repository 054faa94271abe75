package scheduling

import (
	"context"

	"github.com/pawdesk/pawdesk/internal/apperr"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/storage"
)

// DefaultWeek is the availability seeded for a staff member with no entries:
// Monday through Friday 9am-5pm, weekend off.
func DefaultWeek(staffID int64) []model.StaffAvailability {
	week := make([]model.StaffAvailability, 0, 7)
	for day := 0; day < 7; day++ {
		week = append(week, model.StaffAvailability{
			StaffID:     staffID,
			DayOfWeek:   day,
			IsAvailable: day < 5,
			StartTime:   "09:00",
			EndTime:     "17:00",
		})
	}
	return week
}

// ValidateWeek checks that a bulk update covers each weekday 0-6 exactly once.
func ValidateWeek(entries []model.StaffAvailability) error {
	if len(entries) != 7 {
		return apperr.Validationf("must provide availability for all 7 days (0-6)")
	}
	var seen [7]bool
	for _, e := range entries {
		if e.DayOfWeek < 0 || e.DayOfWeek > 6 || seen[e.DayOfWeek] {
			return apperr.Validationf("must provide availability for all 7 days (0-6)")
		}
		seen[e.DayOfWeek] = true
	}
	return nil
}

// GetAvailability returns the staff member's week, seeding the default week
// on first access.
func (s *Service) GetAvailability(ctx context.Context, businessID, staffID int64) ([]model.StaffAvailability, error) {
	if _, err := s.staff.Get(ctx, businessID, staffID); err != nil {
		if storage.IsNotFound(err) {
			return nil, apperr.NotFoundf("staff member %d", staffID)
		}
		return nil, err
	}

	entries, err := s.staff.ListAvailability(ctx, businessID, staffID)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		return entries, nil
	}

	tx, err := s.staff.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.staff.ReplaceAvailability(ctx, tx, staffID, DefaultWeek(staffID)); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("seeded default availability", "staff_id", staffID, "business_id", businessID)
	return s.staff.ListAvailability(ctx, businessID, staffID)
}

// ReplaceAvailability swaps the whole week at once; partial weeks are
// rejected before any write.
func (s *Service) ReplaceAvailability(ctx context.Context, businessID, staffID int64, entries []model.StaffAvailability) ([]model.StaffAvailability, error) {
	if _, err := s.staff.Get(ctx, businessID, staffID); err != nil {
		if storage.IsNotFound(err) {
			return nil, apperr.NotFoundf("staff member %d", staffID)
		}
		return nil, err
	}
	if err := ValidateWeek(entries); err != nil {
		return nil, err
	}

	tx, err := s.staff.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.staff.ReplaceAvailability(ctx, tx, staffID, entries); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.staff.ListAvailability(ctx, businessID, staffID)
}
