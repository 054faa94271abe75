package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pawdesk/pawdesk/internal/model"
	"github.com/pawdesk/pawdesk/libs/db"
)

type StaffRepository struct {
	pool *db.Pool
}

func NewStaffRepository(pool *db.Pool) *StaffRepository {
	return &StaffRepository{pool: pool}
}

func (r *StaffRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *StaffRepository) Get(ctx context.Context, businessID, staffID int64) (model.StaffMember, error) {
	var s model.StaffMember
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_id, first_name, last_name, email, role, is_active, created_at
		FROM staff_members
		WHERE id = $1 AND business_id = $2
	`, staffID, businessID).Scan(
		&s.ID, &s.BusinessID, &s.FirstName, &s.LastName, &s.Email, &s.Role, &s.IsActive, &s.CreatedAt,
	)
	if err != nil {
		return model.StaffMember{}, err
	}
	return s, nil
}

func (r *StaffRepository) GetActive(ctx context.Context, businessID, staffID int64) (model.StaffMember, error) {
	var s model.StaffMember
	err := r.pool.QueryRow(ctx, `
		SELECT id, business_id, first_name, last_name, email, role, is_active, created_at
		FROM staff_members
		WHERE id = $1 AND business_id = $2 AND is_active
	`, staffID, businessID).Scan(
		&s.ID, &s.BusinessID, &s.FirstName, &s.LastName, &s.Email, &s.Role, &s.IsActive, &s.CreatedAt,
	)
	if err != nil {
		return model.StaffMember{}, err
	}
	return s, nil
}

// ListActiveGroomers returns the business's active groomer-role staff sorted
// by (first name, last name), the order the daily schedule presents them in.
func (r *StaffRepository) ListActiveGroomers(ctx context.Context, businessID int64) ([]model.StaffMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, business_id, first_name, last_name, email, role, is_active, created_at
		FROM staff_members
		WHERE business_id = $1 AND role = $2 AND is_active
		ORDER BY first_name ASC, last_name ASC
	`, businessID, model.RoleGroomer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []model.StaffMember
	for rows.Next() {
		var s model.StaffMember
		if err := rows.Scan(
			&s.ID, &s.BusinessID, &s.FirstName, &s.LastName, &s.Email, &s.Role, &s.IsActive, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}

func (r *StaffRepository) ListAvailability(ctx context.Context, businessID, staffID int64) ([]model.StaffAvailability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, s.business_id, a.staff_id, a.day_of_week, a.is_available,
			to_char(a.start_time, 'HH24:MI'), to_char(a.end_time, 'HH24:MI')
		FROM staff_availability a
		JOIN staff_members s ON s.id = a.staff_id
		WHERE a.staff_id = $1 AND s.business_id = $2
		ORDER BY a.day_of_week ASC
	`, staffID, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.StaffAvailability
	for rows.Next() {
		var e model.StaffAvailability
		if err := rows.Scan(
			&e.ID, &e.BusinessID, &e.StaffID, &e.DayOfWeek, &e.IsAvailable, &e.StartTime, &e.EndTime,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReplaceAvailability swaps the staff member's whole week in one transaction.
// Callers validate the seven-day coverage before getting here.
func (r *StaffRepository) ReplaceAvailability(ctx context.Context, tx pgx.Tx, staffID int64, entries []model.StaffAvailability) error {
	if _, err := tx.Exec(ctx, `DELETE FROM staff_availability WHERE staff_id = $1`, staffID); err != nil {
		return err
	}
	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO staff_availability (staff_id, day_of_week, is_available, start_time, end_time)
			VALUES ($1, $2, $3, $4::time, $5::time)
		`, staffID, e.DayOfWeek, e.IsAvailable, e.StartTime, e.EndTime)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *StaffRepository) CountAvailability(ctx context.Context, staffID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM staff_availability WHERE staff_id = $1
	`, staffID).Scan(&n)
	return n, err
}
