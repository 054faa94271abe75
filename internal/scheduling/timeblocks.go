package scheduling

import (
	"context"
	"time"

	"github.com/pawdesk/pawdesk/internal/apperr"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/outbox"
	"github.com/pawdesk/pawdesk/internal/storage"
)

type TimeBlockInput struct {
	StaffID         int64
	StartsAt        time.Time
	DurationMinutes int
	Reason          string
	Description     string
}

func (s *Service) CreateTimeBlock(ctx context.Context, businessID int64, in TimeBlockInput) (model.TimeBlock, ConflictReport, error) {
	if err := s.validateTimeBlockInput(ctx, businessID, in); err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}

	report, err := s.CheckConflicts(ctx, businessID, in.StaffID, in.StartsAt, in.DurationMinutes, 0, 0)
	if err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}

	block := model.TimeBlock{
		BusinessID:      businessID,
		StaffID:         in.StaffID,
		BlockAt:         in.StartsAt,
		DurationMinutes: in.DurationMinutes,
		Reason:          in.Reason,
		Description:     in.Description,
	}

	tx, err := s.cal.Begin(ctx)
	if err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := s.cal.CreateTimeBlock(ctx, tx, &block)
	if err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}
	block.ID = id

	evt, err := outbox.NewEvent("time_block", id, outbox.EventTimeBlockCreated, map[string]any{
		"time_block_id":    id,
		"business_id":      businessID,
		"staff_id":         in.StaffID,
		"starts_at":        in.StartsAt.UTC().Format(time.RFC3339),
		"duration_minutes": in.DurationMinutes,
		"reason":           in.Reason,
	})
	if err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}
	if err := s.outbox.Insert(ctx, tx, evt); err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}

	got, err := s.GetTimeBlock(ctx, businessID, id)
	return got, report, err
}

func (s *Service) GetTimeBlock(ctx context.Context, businessID, blockID int64) (model.TimeBlock, error) {
	block, err := s.cal.GetTimeBlock(ctx, businessID, blockID)
	if err != nil {
		if storage.IsNotFound(err) {
			return model.TimeBlock{}, apperr.NotFoundf("time block %d", blockID)
		}
		return model.TimeBlock{}, err
	}
	return block, nil
}

// UpdateTimeBlock re-runs the conflict scan with the block's own row
// excluded, so an unmoved block does not conflict with itself.
func (s *Service) UpdateTimeBlock(ctx context.Context, businessID, blockID int64, in TimeBlockInput) (model.TimeBlock, ConflictReport, error) {
	if _, err := s.GetTimeBlock(ctx, businessID, blockID); err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}
	if err := s.validateTimeBlockInput(ctx, businessID, in); err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}

	report, err := s.CheckConflicts(ctx, businessID, in.StaffID, in.StartsAt, in.DurationMinutes, 0, blockID)
	if err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}

	block := model.TimeBlock{
		ID:              blockID,
		BusinessID:      businessID,
		StaffID:         in.StaffID,
		BlockAt:         in.StartsAt,
		DurationMinutes: in.DurationMinutes,
		Reason:          in.Reason,
		Description:     in.Description,
	}

	tx, err := s.cal.Begin(ctx)
	if err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.cal.UpdateTimeBlock(ctx, tx, &block); err != nil {
		if storage.IsNotFound(err) {
			return model.TimeBlock{}, ConflictReport{}, apperr.NotFoundf("time block %d", blockID)
		}
		return model.TimeBlock{}, ConflictReport{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.TimeBlock{}, ConflictReport{}, err
	}

	got, err := s.GetTimeBlock(ctx, businessID, blockID)
	return got, report, err
}

func (s *Service) DeleteTimeBlock(ctx context.Context, businessID, blockID int64) error {
	err := s.cal.DeleteTimeBlock(ctx, businessID, blockID)
	if storage.IsNotFound(err) {
		return apperr.NotFoundf("time block %d", blockID)
	}
	return err
}

func (s *Service) ListTimeBlocks(ctx context.Context, businessID int64, start, end time.Time) ([]model.TimeBlock, error) {
	return s.cal.ListTimeBlocks(ctx, businessID, start, end)
}

func (s *Service) validateTimeBlockInput(ctx context.Context, businessID int64, in TimeBlockInput) error {
	if in.DurationMinutes <= 0 {
		return apperr.Validationf("duration must be positive")
	}
	if in.StartsAt.IsZero() {
		return apperr.Validationf("block time is required")
	}
	if !model.ValidBlockReason(in.Reason) {
		return apperr.Validationf("unknown block reason %q", in.Reason)
	}
	if _, err := s.staff.GetActive(ctx, businessID, in.StaffID); err != nil {
		if storage.IsNotFound(err) {
			return apperr.Validationf("staff member %d not found or not active", in.StaffID)
		}
		return err
	}
	return nil
}
