package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"clinic-service/internal/models"
	"clinic-service/pkg/response"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// #### working hours ####

func (s *Storage) GetWorkingHours(ctx context.Context, staffID string, dayOfWeek int) (*models.WorkingHours, error) {
	const op = "storage.postgres.GetWorkingHours"

	var wh models.WorkingHours

	err := s.db.QueryRowContext(ctx,
		`SELECT staff_id, day_of_week, start_time, end_time, is_available
		FROM working_hours
		WHERE staff_id=$1 AND day_of_week=$2`,
		staffID, dayOfWeek,
	).Scan(&wh.StaffID, &wh.DayOfWeek, &wh.StartTime, &wh.EndTime, &wh.IsAvailable)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &wh, nil
}

func (s *Storage) ListWorkingHours(ctx context.Context, staffID string) ([]*models.WorkingHours, error) {
	const op = "storage.postgres.ListWorkingHours"

	rows, err := s.db.QueryContext(ctx,
		`SELECT staff_id, day_of_week, start_time, end_time, is_available
		FROM working_hours
		WHERE staff_id=$1
		ORDER BY day_of_week`,
		staffID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []*models.WorkingHours
	for rows.Next() {
		var wh models.WorkingHours
		if err := rows.Scan(&wh.StaffID, &wh.DayOfWeek, &wh.StartTime, &wh.EndTime, &wh.IsAvailable); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, &wh)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// UpsertWorkingHours relies on the unique (staff_id, day_of_week) constraint:
// one template row per staff member per weekday.
func (s *Storage) UpsertWorkingHours(ctx context.Context, wh *models.WorkingHours) error {
	const op = "storage.postgres.UpsertWorkingHours"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO working_hours (staff_id, day_of_week, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (staff_id, day_of_week)
		DO UPDATE
		SET start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			is_available = EXCLUDED.is_available`,
		wh.StaffID, wh.DayOfWeek, wh.StartTime, wh.EndTime, wh.IsAvailable,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// #### services ####

func (s *Storage) GetService(ctx context.Context, id string) (*models.Service, error) {
	const op = "storage.postgres.GetService"

	var svc models.Service

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, duration_minutes, price FROM services WHERE id=$1`,
		id,
	).Scan(&svc.ID, &svc.Name, &svc.DurationMinutes, &svc.Price)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &svc, nil
}

func (s *Storage) ListServices(ctx context.Context) ([]*models.Service, error) {
	const op = "storage.postgres.ListServices"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, duration_minutes, price FROM services ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []*models.Service
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.DurationMinutes, &svc.Price); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, &svc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// #### bookings ####

// ListActiveBookings returns the PENDING and CONFIRMED bookings for a staff
// member whose start time falls within [from, to), ascending by start time.
func (s *Storage) ListActiveBookings(ctx context.Context, staffID string, from, to time.Time) ([]*models.Booking, error) {
	const op = "storage.postgres.ListActiveBookings"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, staff_id, service_id, start_time, end_time, status,
			customer_name, customer_email, customer_phone, notes, cancelled_at, created_at
		FROM bookings
		WHERE staff_id=$1
			AND start_time >= $2 AND start_time < $3
			AND status IN ('PENDING', 'CONFIRMED')
		ORDER BY start_time`,
		staffID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// ListBookings returns every booking for a staff member whose start time
// falls within [from, to), any status, ascending by start time. Unlike
// ListActiveBookings this includes completed and cancelled history, for the
// staff dashboard.
func (s *Storage) ListBookings(ctx context.Context, staffID string, from, to time.Time) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookings"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, staff_id, service_id, start_time, end_time, status,
			customer_name, customer_email, customer_phone, notes, cancelled_at, created_at
		FROM bookings
		WHERE staff_id=$1
			AND start_time >= $2 AND start_time < $3
		ORDER BY start_time`,
		staffID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var result []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// CountConflictsTx counts PENDING/CONFIRMED bookings for a staff member whose
// interval overlaps [start, end). It runs inside the caller's transaction and
// locks the matching rows, so the read-then-insert sequence in the booking
// writer cannot interleave with a concurrent write for the same staff member.
// excludeID skips the booking being rescheduled from its own conflict check.
func (s *Storage) CountConflictsTx(ctx context.Context, tx *sql.Tx, staffID string, start, end time.Time, excludeID *string) (int, error) {
	const op = "storage.postgres.CountConflictsTx"

	query := `SELECT id FROM bookings
		WHERE staff_id=$1
			AND start_time < $3 AND end_time > $2
			AND status IN ('PENDING', 'CONFIRMED')`
	args := []any{staffID, start, end}

	if excludeID != nil {
		query += ` AND id <> $4`
		args = append(args, *excludeID)
	}

	query += ` FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (s *Storage) CreateBookingTx(ctx context.Context, tx *sql.Tx, b *models.Booking) (string, error) {
	const op = "storage.postgres.CreateBookingTx"

	id := uuid.NewString()

	_, err := tx.ExecContext(ctx,
		`INSERT INTO bookings
			(id, staff_id, service_id, start_time, end_time, status,
			customer_name, customer_email, customer_phone, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, b.StaffID, b.ServiceID, b.StartTime, b.EndTime, string(b.Status),
		b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.Notes,
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) UpdateBookingTimesTx(ctx context.Context, tx *sql.Tx, id string, start, end time.Time) error {
	const op = "storage.postgres.UpdateBookingTimesTx"

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET start_time=$1, end_time=$2 WHERE id=$3`,
		start, end, id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	row := s.db.QueryRowContext(ctx,
		`SELECT id, staff_id, service_id, start_time, end_time, status,
			customer_name, customer_email, customer_phone, notes, cancelled_at, created_at
		FROM bookings WHERE id=$1`,
		id,
	)

	b, err := scanBooking(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// CancelBooking is a pure status transition; the row is never deleted.
func (s *Storage) CancelBooking(ctx context.Context, id string, at time.Time) error {
	const op = "storage.postgres.CancelBooking"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status=$1, cancelled_at=$2 WHERE id=$3`,
		string(models.BookingCancelled), at, id,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*models.Booking, error) {
	var b models.Booking
	var status string

	err := row.Scan(&b.ID, &b.StaffID, &b.ServiceID, &b.StartTime, &b.EndTime, &status,
		&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.Notes, &b.CancelledAt, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	b.Status = models.BookingStatus(status)

	return &b, nil
}
