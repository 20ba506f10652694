package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinic-service/api"
	"clinic-service/internal/availability"
	"clinic-service/internal/lock"
	"clinic-service/internal/models"
	"clinic-service/pkg/response"
)

const lockTTL = 10 * time.Second

type Service struct {
	store  Store
	locker lock.Locker
	loc    *time.Location

	// now is swappable so tests can pin the today-cutoff.
	now func() time.Time
}

// NewService builds the booking core for a single business timezone. The zone
// must be a named location so working-hour windows resolve correctly across
// daylight-saving transitions.
func NewService(store Store, locker lock.Locker, businessTimeZone string) (*Service, error) {
	const op = "service.NewService"

	loc, err := time.LoadLocation(businessTimeZone)
	if err != nil {
		return nil, fmt.Errorf("%s: load timezone %q: %w", op, businessTimeZone, err)
	}

	return &Service{
		store:  store,
		locker: locker,
		loc:    loc,
		now:    time.Now,
	}, nil
}

// Location is the validated business timezone, for callers that format
// customer-facing times.
func (s *Service) Location() *time.Location {
	return s.loc
}

type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Working hours
	GetWorkingHours(ctx context.Context, staffID string, dayOfWeek int) (*models.WorkingHours, error)
	ListWorkingHours(ctx context.Context, staffID string) ([]*models.WorkingHours, error)
	UpsertWorkingHours(ctx context.Context, wh *models.WorkingHours) error

	// Services
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListServices(ctx context.Context) ([]*models.Service, error)

	// Bookings
	ListActiveBookings(ctx context.Context, staffID string, from, to time.Time) ([]*models.Booking, error)
	ListBookings(ctx context.Context, staffID string, from, to time.Time) ([]*models.Booking, error)
	CountConflictsTx(ctx context.Context, tx *sql.Tx, staffID string, start, end time.Time, excludeID *string) (int, error)
	CreateBookingTx(ctx context.Context, tx *sql.Tx, b *models.Booking) (string, error)
	UpdateBookingTimesTx(ctx context.Context, tx *sql.Tx, id string, start, end time.Time) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CancelBooking(ctx context.Context, id string, at time.Time) error
}

// #### availability ####

// ComputeAvailableSlots returns the bookable windows for a staff member,
// service and calendar date ("2006-01-02", business timezone), ascending by
// start. A missing staff template, a closed day and an unknown service all
// yield an empty list, not an error: "no availability" and "not found" are
// presented identically to the caller.
func (s *Service) ComputeAvailableSlots(ctx context.Context, staffID, serviceID, date string) ([]api.SlotResponse, error) {
	const op = "service.ComputeAvailableSlots"

	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid date: %w", op, response.ErrValidation)
	}

	slots, err := s.slotsForDay(ctx, staffID, serviceID, day)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.SlotResponse, 0, len(slots))
	for _, slot := range slots {
		result = append(result, api.SlotResponse{
			StartTime: slot.Start,
			EndTime:   slot.End,
		})
	}

	return result, nil
}

// ComputeAvailableDates scans every calendar day from from to to inclusive
// (both "2006-01-02") and returns the dates with at least one open slot.
// Saturdays and Sundays are skipped outright: weekday-only bookings are
// business policy here, while per-day closure inside the week stays driven by
// the working-hours template.
func (s *Service) ComputeAvailableDates(ctx context.Context, staffID, serviceID, from, to string) ([]string, error) {
	const op = "service.ComputeAvailableDates"

	start, err := time.ParseInLocation("2006-01-02", from, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid from: %w", op, response.ErrValidation)
	}

	end, err := time.ParseInLocation("2006-01-02", to, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid to: %w", op, response.ErrValidation)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("%s: to is before from: %w", op, response.ErrValidation)
	}

	dates := make([]string, 0)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !availability.BookableWeekday(d) {
			continue
		}

		slots, err := s.slotsForDay(ctx, staffID, serviceID, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if len(slots) > 0 {
			dates = append(dates, d.Format("2006-01-02"))
		}
	}

	return dates, nil
}

func (s *Service) slotsForDay(ctx context.Context, staffID, serviceID string, day time.Time) ([]availability.Slot, error) {
	wh, err := s.store.GetWorkingHours(ctx, staffID, availability.Weekday(day))
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if !wh.IsAvailable {
		return nil, nil
	}

	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	windowStart, windowEnd, err := availability.DayWindow(day, wh.StartTime, wh.EndTime, s.loc)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	bookings, err := s.store.ListActiveBookings(ctx, staffID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	busy := make([]availability.Interval, 0, len(bookings))
	for _, b := range bookings {
		busy = append(busy, availability.Interval{Start: b.StartTime, End: b.EndTime})
	}

	now := s.now().In(s.loc)
	var cutoff time.Time
	if now.Format("2006-01-02") == day.Format("2006-01-02") {
		cutoff = now
	}

	duration := time.Duration(svc.DurationMinutes) * time.Minute

	return availability.Slots(windowStart, windowEnd, duration, busy, cutoff), nil
}

// #### bookings ####

// CreateBooking re-validates the requested slot at write time. The conflict
// re-check and the insert run in one transaction over row-locked reads,
// additionally serialized per staff member by the distributed lock, so of two
// concurrent attempts for the same slot exactly one commits. On conflict the
// caller gets ErrSlotNotAvailable and is expected to re-query the slot list;
// no alternate slot is ever substituted.
func (s *Service) CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingResponse, error) {
	const op = "service.CreateBooking"

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid start_time: %w", op, response.ErrValidation)
	}

	lockKey := fmt.Sprintf("staff:%s", req.StaffID)

	locked, err := s.locker.Lock(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	// End time is re-derived from the service's current duration, never
	// trusted from the querying client.
	svc, err := s.store.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	end := start.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	conflicts, err := s.store.CountConflictsTx(ctx, tx, req.StaffID, start, end, nil)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if conflicts > 0 {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	booking := &models.Booking{
		StaffID:       req.StaffID,
		ServiceID:     req.ServiceID,
		StartTime:     start,
		EndTime:       end,
		Status:        models.BookingConfirmed,
		CustomerName:  req.Name,
		CustomerEmail: req.Email,
		CustomerPhone: req.Phone,
		Notes:         req.Notes,
	}

	bookingID, err := s.store.CreateBookingTx(ctx, tx, booking)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: create booking: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

// ListBookings returns every booking for a staff member whose start falls on
// a calendar day in [from, to] (both "2006-01-02", business timezone),
// regardless of status, ascending by start time. This is the dashboard view:
// completed and cancelled history is included, unlike the availability read.
func (s *Service) ListBookings(ctx context.Context, staffID, from, to string) ([]*api.BookingResponse, error) {
	const op = "service.ListBookings"

	start, err := time.ParseInLocation("2006-01-02", from, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid from: %w", op, response.ErrValidation)
	}

	end, err := time.ParseInLocation("2006-01-02", to, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid to: %w", op, response.ErrValidation)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("%s: to is before from: %w", op, response.ErrValidation)
	}

	bookings, err := s.store.ListBookings(ctx, staffID, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, bookingResponse(b))
	}

	return result, nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookingResponse(booking), nil
}

// RescheduleBooking is a conflict-checked move: the new end is derived from
// the service's current duration and the overlap re-check excludes the booking
// being moved, so a no-op reschedule to the same slot succeeds.
func (s *Service) RescheduleBooking(ctx context.Context, bookingID, newStartTime string) (*api.BookingResponse, error) {
	const op = "service.RescheduleBooking"

	newStart, err := time.Parse(time.RFC3339, newStartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid new_start_time: %w", op, response.ErrValidation)
	}

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !booking.Status.Occupies() {
		return nil, fmt.Errorf("%s: booking is %s: %w", op, booking.Status, response.ErrValidation)
	}

	svc, err := s.store.GetService(ctx, booking.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	newEnd := newStart.Add(time.Duration(svc.DurationMinutes) * time.Minute)

	lockKey := fmt.Sprintf("staff:%s", booking.StaffID)

	locked, err := s.locker.Lock(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	conflicts, err := s.store.CountConflictsTx(ctx, tx, booking.StaffID, newStart, newEnd, &bookingID)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if conflicts > 0 {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	if err := s.store.UpdateBookingTimesTx(ctx, tx, bookingID, newStart, newEnd); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

// CancelBooking flips the status and stamps cancelled_at; the row stays for
// history and stops blocking the calendar. No conflict check is needed.
func (s *Service) CancelBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	_, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.store.CancelBooking(ctx, bookingID, s.now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

// #### working hours ####

// UpdateWorkingHours upserts weekly template rows for a staff member, one per
// weekday. Times are wall-clock "HH:MM" in the business timezone.
func (s *Service) UpdateWorkingHours(ctx context.Context, req *api.WorkingHoursRequest) ([]*api.WorkingHourResponse, error) {
	const op = "service.UpdateWorkingHours"

	for _, u := range req.Updates {
		if u.DayOfWeek < 1 || u.DayOfWeek > 7 {
			return nil, fmt.Errorf("%s: day_of_week %d out of range: %w", op, u.DayOfWeek, response.ErrValidation)
		}

		start, err := time.Parse("15:04", u.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid start_time: %w", op, response.ErrValidation)
		}

		end, err := time.Parse("15:04", u.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid end_time: %w", op, response.ErrValidation)
		}

		if !end.After(start) {
			return nil, fmt.Errorf("%s: end_time not after start_time: %w", op, response.ErrValidation)
		}
	}

	for _, u := range req.Updates {
		wh := &models.WorkingHours{
			StaffID:     req.StaffID,
			DayOfWeek:   u.DayOfWeek,
			StartTime:   u.StartTime,
			EndTime:     u.EndTime,
			IsAvailable: u.IsAvailable,
		}

		if err := s.store.UpsertWorkingHours(ctx, wh); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return s.GetWorkingHours(ctx, req.StaffID)
}

func (s *Service) GetWorkingHours(ctx context.Context, staffID string) ([]*api.WorkingHourResponse, error) {
	const op = "service.GetWorkingHours"

	hours, err := s.store.ListWorkingHours(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.WorkingHourResponse, 0, len(hours))
	for _, wh := range hours {
		result = append(result, &api.WorkingHourResponse{
			StaffID:     wh.StaffID,
			DayOfWeek:   wh.DayOfWeek,
			StartTime:   wh.StartTime,
			EndTime:     wh.EndTime,
			IsAvailable: wh.IsAvailable,
		})
	}

	return result, nil
}

// #### services ####

func (s *Service) ListServices(ctx context.Context) ([]*api.ServiceResponse, error) {
	const op = "service.ListServices"

	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.ServiceResponse, 0, len(services))
	for _, svc := range services {
		result = append(result, &api.ServiceResponse{
			ID:              svc.ID,
			Name:            svc.Name,
			DurationMinutes: svc.DurationMinutes,
			Price:           svc.Price,
		})
	}

	return result, nil
}

func bookingResponse(b *models.Booking) *api.BookingResponse {
	return &api.BookingResponse{
		ID:        b.ID,
		StaffID:   b.StaffID,
		ServiceID: b.ServiceID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    string(b.Status),
		Name:      b.CustomerName,
		Email:     b.CustomerEmail,
		Phone:     b.CustomerPhone,
		Notes:     b.Notes,
	}
}
