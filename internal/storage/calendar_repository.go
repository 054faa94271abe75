package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/internal/schedule"
	"github.com/pawdesk/pawdesk/libs/db"
)

// CalendarRepository persists the two calendar occupants, appointments and
// time blocks, plus the appointment status lookup. Every query filters by
// business_id; tenant isolation lives here, not in the schema.
type CalendarRepository struct {
	pool *db.Pool
}

func NewCalendarRepository(pool *db.Pool) *CalendarRepository {
	return &CalendarRepository{pool: pool}
}

func (r *CalendarRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// ListOccupants fetches every appointment and time block for the staff member
// overlapping [start, end), rendered as conflict-check inputs. The exclude ids
// drop the row being updated from its own overlap scan; zero means no
// exclusion.
func (r *CalendarRepository) ListOccupants(ctx context.Context, businessID, staffID int64, start, end time.Time, excludeAppointmentID, excludeBlockID int64) ([]schedule.Occupant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_datetime, duration_minutes
		FROM appointments
		WHERE business_id = $1
			AND staff_id = $2
			AND appointment_datetime < $4
			AND appointment_datetime + make_interval(mins => duration_minutes) > $3
			AND ($5 = 0 OR id <> $5)
		ORDER BY appointment_datetime ASC
	`, businessID, staffID, start, end, excludeAppointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var occupants []schedule.Occupant
	for rows.Next() {
		var at time.Time
		var mins int
		if err := rows.Scan(&at, &mins); err != nil {
			return nil, err
		}
		occupants = append(occupants, schedule.Occupant{
			Label: "Appointment",
			Start: at,
			End:   at.Add(time.Duration(mins) * time.Minute),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	blockRows, err := r.pool.Query(ctx, `
		SELECT block_datetime, duration_minutes, reason
		FROM time_blocks
		WHERE business_id = $1
			AND staff_id = $2
			AND block_datetime < $4
			AND block_datetime + make_interval(mins => duration_minutes) > $3
			AND ($5 = 0 OR id <> $5)
		ORDER BY block_datetime ASC
	`, businessID, staffID, start, end, excludeBlockID)
	if err != nil {
		return nil, err
	}
	defer blockRows.Close()

	for blockRows.Next() {
		var at time.Time
		var mins int
		var reason string
		if err := blockRows.Scan(&at, &mins, &reason); err != nil {
			return nil, err
		}
		occupants = append(occupants, schedule.Occupant{
			Label: model.BlockReasonLabel(reason),
			Start: at,
			End:   at.Add(time.Duration(mins) * time.Minute),
		})
	}
	return occupants, blockRows.Err()
}

func (r *CalendarRepository) CreateAppointment(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(business_id, customer_id, pet_id, staff_id, status_id, appointment_datetime, duration_minutes, is_confirmed, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, appt.BusinessID, appt.CustomerID, appt.PetID, appt.StaffID, appt.StatusID,
		appt.AppointmentAt, appt.DurationMinutes, appt.IsConfirmed, appt.Notes).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, serviceID := range appt.ServiceIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO appointment_services (appointment_id, service_id)
			VALUES ($1, $2)
		`, id, serviceID); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (r *CalendarRepository) GetAppointment(ctx context.Context, businessID, appointmentID int64) (model.Appointment, error) {
	var a model.Appointment
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_id, customer_id, pet_id, staff_id, status_id,
			appointment_datetime, duration_minutes, is_confirmed, COALESCE(notes, ''),
			created_at, updated_at
		FROM appointments
		WHERE id = $1 AND business_id = $2
	`, appointmentID, businessID).Scan(
		&a.ID, &a.BusinessID, &a.CustomerID, &a.PetID, &a.StaffID, &a.StatusID,
		&a.AppointmentAt, &a.DurationMinutes, &a.IsConfirmed, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT service_id FROM appointment_services WHERE appointment_id = $1 ORDER BY service_id ASC
	`, appointmentID)
	if err != nil {
		return model.Appointment{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var serviceID int64
		if err := rows.Scan(&serviceID); err != nil {
			return model.Appointment{}, err
		}
		a.ServiceIDs = append(a.ServiceIDs, serviceID)
	}
	return a, rows.Err()
}

func (r *CalendarRepository) UpdateAppointment(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET customer_id = $3,
			pet_id = $4,
			staff_id = $5,
			status_id = $6,
			appointment_datetime = $7,
			duration_minutes = $8,
			is_confirmed = $9,
			notes = $10,
			updated_at = now()
		WHERE id = $1 AND business_id = $2
	`, appt.ID, appt.BusinessID, appt.CustomerID, appt.PetID, appt.StaffID, appt.StatusID,
		appt.AppointmentAt, appt.DurationMinutes, appt.IsConfirmed, appt.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx, `DELETE FROM appointment_services WHERE appointment_id = $1`, appt.ID); err != nil {
		return err
	}
	for _, serviceID := range appt.ServiceIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO appointment_services (appointment_id, service_id)
			VALUES ($1, $2)
		`, appt.ID, serviceID); err != nil {
			return err
		}
	}
	return nil
}

func (r *CalendarRepository) DeleteAppointment(ctx context.Context, businessID, appointmentID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM appointments WHERE id = $1 AND business_id = $2
	`, appointmentID, businessID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListDay returns the day's appointments with display relations resolved,
// ordered by start time. Missing relations come back as empty strings and the
// view layer substitutes placeholders.
func (r *CalendarRepository) ListDay(ctx context.Context, businessID int64, start, end time.Time) ([]schedule.AppointmentView, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.staff_id, a.appointment_datetime, a.duration_minutes,
			COALESCE(p.name, ''),
			COALESCE(c.account_name, ''),
			COALESCE(sm.first_name || ' ' || sm.last_name, ''),
			COALESCE(st.label, ''),
			COALESCE((
				SELECT s.name
				FROM appointment_services aps
				JOIN services s ON s.id = aps.service_id
				WHERE aps.appointment_id = a.id
				ORDER BY aps.service_id ASC
				LIMIT 1
			), '')
		FROM appointments a
		LEFT JOIN pets p ON p.id = a.pet_id
		LEFT JOIN customers c ON c.id = a.customer_id
		LEFT JOIN staff_members sm ON sm.id = a.staff_id
		LEFT JOIN appointment_statuses st ON st.id = a.status_id
		WHERE a.business_id = $1
			AND a.appointment_datetime >= $2
			AND a.appointment_datetime < $3
		ORDER BY a.appointment_datetime ASC
	`, businessID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []schedule.AppointmentView
	for rows.Next() {
		var v schedule.AppointmentView
		if err := rows.Scan(
			&v.ID, &v.StaffID, &v.Start, &v.DurationMinutes,
			&v.PetName, &v.CustomerName, &v.GroomerName, &v.StatusLabel, &v.ServiceName,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *CalendarRepository) CreateTimeBlock(ctx context.Context, tx pgx.Tx, block *model.TimeBlock) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO time_blocks
			(business_id, staff_id, block_datetime, duration_minutes, reason, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, block.BusinessID, block.StaffID, block.BlockAt, block.DurationMinutes,
		block.Reason, block.Description).Scan(&id)
	return id, err
}

func (r *CalendarRepository) GetTimeBlock(ctx context.Context, businessID, blockID int64) (model.TimeBlock, error) {
	var b model.TimeBlock
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_id, staff_id, block_datetime, duration_minutes,
			reason, COALESCE(description, ''), created_at, updated_at
		FROM time_blocks
		WHERE id = $1 AND business_id = $2
	`, blockID, businessID).Scan(
		&b.ID, &b.BusinessID, &b.StaffID, &b.BlockAt, &b.DurationMinutes,
		&b.Reason, &b.Description, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return model.TimeBlock{}, err
	}
	return b, nil
}

func (r *CalendarRepository) UpdateTimeBlock(ctx context.Context, tx pgx.Tx, block *model.TimeBlock) error {
	tag, err := tx.Exec(ctx, `
		UPDATE time_blocks
		SET staff_id = $3,
			block_datetime = $4,
			duration_minutes = $5,
			reason = $6,
			description = $7,
			updated_at = now()
		WHERE id = $1 AND business_id = $2
	`, block.ID, block.BusinessID, block.StaffID, block.BlockAt, block.DurationMinutes,
		block.Reason, block.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CalendarRepository) DeleteTimeBlock(ctx context.Context, businessID, blockID int64) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM time_blocks WHERE id = $1 AND business_id = $2
	`, blockID, businessID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CalendarRepository) ListTimeBlocks(ctx context.Context, businessID int64, start, end time.Time) ([]model.TimeBlock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, business_id, staff_id, block_datetime, duration_minutes,
			reason, COALESCE(description, ''), created_at, updated_at
		FROM time_blocks
		WHERE business_id = $1
			AND block_datetime >= $2
			AND block_datetime < $3
		ORDER BY block_datetime ASC
	`, businessID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []model.TimeBlock
	for rows.Next() {
		var b model.TimeBlock
		if err := rows.Scan(
			&b.ID, &b.BusinessID, &b.StaffID, &b.BlockAt, &b.DurationMinutes,
			&b.Reason, &b.Description, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (r *CalendarRepository) GetStatusByCode(ctx context.Context, code string) (model.AppointmentStatus, error) {
	var s model.AppointmentStatus
	err := r.pool.QueryRow(ctx, `
		SELECT id, code, label, sort_order
		FROM appointment_statuses
		WHERE code = $1
	`, code).Scan(&s.ID, &s.Code, &s.Label, &s.SortOrder)
	if err != nil {
		return model.AppointmentStatus{}, err
	}
	return s, nil
}

func (r *CalendarRepository) ListStatuses(ctx context.Context) ([]model.AppointmentStatus, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, label, sort_order
		FROM appointment_statuses
		ORDER BY sort_order ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []model.AppointmentStatus
	for rows.Next() {
		var s model.AppointmentStatus
		if err := rows.Scan(&s.ID, &s.Code, &s.Label, &s.SortOrder); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// CountServices verifies that every referenced service exists for the tenant.
func (r *CalendarRepository) CountServices(ctx context.Context, businessID int64, serviceIDs []int64) (int, error) {
	if len(serviceIDs) == 0 {
		return 0, nil
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM services WHERE business_id = $1 AND id = ANY($2)
	`, businessID, serviceIDs).Scan(&n)
	return n, err
}

// PetExists checks tenant-scoped pet existence through its owning customer.
func (r *CalendarRepository) PetExists(ctx context.Context, businessID, petID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM pets p
			JOIN customers c ON c.id = p.customer_id
			WHERE p.id = $1 AND c.business_id = $2
		)
	`, petID, businessID).Scan(&exists)
	return exists, err
}
