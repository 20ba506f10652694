package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Occupies reports whether a booking in this status blocks the staff calendar.
// COMPLETED and CANCELLED bookings stay in the table for history but never
// conflict with new bookings.
func (s BookingStatus) Occupies() bool {
	return s == BookingPending || s == BookingConfirmed
}

// WorkingHours is one row of a staff member's weekly template. At most one row
// exists per (StaffID, DayOfWeek). DayOfWeek is 1=Monday..7=Sunday; StartTime
// and EndTime are wall-clock "HH:MM" in the business timezone.
type WorkingHours struct {
	StaffID     string `db:"staff_id"`
	DayOfWeek   int    `db:"day_of_week"`
	StartTime   string `db:"start_time"`
	EndTime     string `db:"end_time"`
	IsAvailable bool   `db:"is_available"`
}

type Service struct {
	ID              string  `db:"id"`
	Name            string  `db:"name"`
	DurationMinutes int     `db:"duration_minutes"`
	Price           float64 `db:"price"`
}

// Booking start/end are absolute UTC instants. EndTime is always
// StartTime + service duration, enforced at create and at reschedule.
type Booking struct {
	ID            string        `db:"id"`
	StaffID       string        `db:"staff_id"`
	ServiceID     string        `db:"service_id"`
	StartTime     time.Time     `db:"start_time"`
	EndTime       time.Time     `db:"end_time"`
	Status        BookingStatus `db:"status"`
	CustomerName  string        `db:"customer_name"`
	CustomerEmail string        `db:"customer_email"`
	CustomerPhone string        `db:"customer_phone"`
	Notes         *string       `db:"notes"`
	CancelledAt   *time.Time    `db:"cancelled_at"`
	CreatedAt     time.Time     `db:"created_at"`
}
