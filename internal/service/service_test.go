package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"clinic-service/api"
	"clinic-service/internal/availability"
	"clinic-service/internal/models"
	"clinic-service/pkg/response"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps everything in memory; BeginTx hands out real *sql.Tx from a
// sqlmock connection so the commit/rollback discipline is still exercised.
type fakeStore struct {
	db *sql.DB

	workingHours map[string]*models.WorkingHours
	services     map[string]*models.Service
	bookings     map[string]*models.Booking

	nextID        int
	lastExcludeID *string
}

func newFakeStore(t *testing.T) (*fakeStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &fakeStore{
		db:           db,
		workingHours: map[string]*models.WorkingHours{},
		services:     map[string]*models.Service{},
		bookings:     map[string]*models.Booking{},
	}, mock
}

func whKey(staffID string, day int) string { return fmt.Sprintf("%s:%d", staffID, day) }

func (f *fakeStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return f.db.BeginTx(ctx, nil)
}

func (f *fakeStore) GetWorkingHours(_ context.Context, staffID string, dayOfWeek int) (*models.WorkingHours, error) {
	wh, ok := f.workingHours[whKey(staffID, dayOfWeek)]
	if !ok {
		return nil, response.ErrNotFound
	}
	return wh, nil
}

func (f *fakeStore) ListWorkingHours(_ context.Context, staffID string) ([]*models.WorkingHours, error) {
	var result []*models.WorkingHours
	for day := 1; day <= 7; day++ {
		if wh, ok := f.workingHours[whKey(staffID, day)]; ok {
			result = append(result, wh)
		}
	}
	return result, nil
}

func (f *fakeStore) UpsertWorkingHours(_ context.Context, wh *models.WorkingHours) error {
	f.workingHours[whKey(wh.StaffID, wh.DayOfWeek)] = wh
	return nil
}

func (f *fakeStore) GetService(_ context.Context, id string) (*models.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return svc, nil
}

func (f *fakeStore) ListServices(_ context.Context) ([]*models.Service, error) {
	var result []*models.Service
	for _, svc := range f.services {
		result = append(result, svc)
	}
	return result, nil
}

func (f *fakeStore) ListActiveBookings(_ context.Context, staffID string, from, to time.Time) ([]*models.Booking, error) {
	var result []*models.Booking
	for _, b := range f.bookings {
		if b.StaffID != staffID || !b.Status.Occupies() {
			continue
		}
		if b.StartTime.Before(from) || !b.StartTime.Before(to) {
			continue
		}
		result = append(result, b)
	}
	return result, nil
}

func (f *fakeStore) ListBookings(_ context.Context, staffID string, from, to time.Time) ([]*models.Booking, error) {
	var result []*models.Booking
	for _, b := range f.bookings {
		if b.StaffID != staffID {
			continue
		}
		if b.StartTime.Before(from) || !b.StartTime.Before(to) {
			continue
		}
		result = append(result, b)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })

	return result, nil
}

func (f *fakeStore) CountConflictsTx(_ context.Context, _ *sql.Tx, staffID string, start, end time.Time, excludeID *string) (int, error) {
	f.lastExcludeID = excludeID

	count := 0
	for _, b := range f.bookings {
		if b.StaffID != staffID || !b.Status.Occupies() {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		if availability.Overlaps(start, end, b.StartTime, b.EndTime) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CreateBookingTx(_ context.Context, _ *sql.Tx, b *models.Booking) (string, error) {
	f.nextID++
	id := fmt.Sprintf("bk-%d", f.nextID)

	stored := *b
	stored.ID = id
	stored.CreatedAt = time.Now()
	f.bookings[id] = &stored

	return id, nil
}

func (f *fakeStore) UpdateBookingTimesTx(_ context.Context, _ *sql.Tx, id string, start, end time.Time) error {
	b, ok := f.bookings[id]
	if !ok {
		return response.ErrNotFound
	}
	b.StartTime = start
	b.EndTime = end
	return nil
}

func (f *fakeStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) CancelBooking(_ context.Context, id string, at time.Time) error {
	b, ok := f.bookings[id]
	if !ok {
		return response.ErrNotFound
	}
	b.Status = models.BookingCancelled
	b.CancelledAt = &at
	return nil
}

type fakeLocker struct {
	held    bool
	lockKey string
}

func (f *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.lockKey = key
	return !f.held, nil
}

func (f *fakeLocker) Unlock(_ context.Context, _ string) error { return nil }

const testTZ = "America/Toronto"

func newTestService(t *testing.T) (*Service, *fakeStore, sqlmock.Sqlmock, *fakeLocker) {
	t.Helper()

	store, mock := newFakeStore(t)
	locker := &fakeLocker{}

	s, err := NewService(store, locker, testTZ)
	require.NoError(t, err)

	// Pin "now" well before the test dates so the today-cutoff stays out of
	// the way unless a test moves it.
	s.now = func() time.Time {
		return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	}

	return s, store, mock, locker
}

func seedMondayNineToFive(store *fakeStore) {
	// 2026-08-31 is a Monday.
	for day := 1; day <= 7; day++ {
		store.workingHours[whKey("staff-1", day)] = &models.WorkingHours{
			StaffID:     "staff-1",
			DayOfWeek:   day,
			StartTime:   "09:00",
			EndTime:     "17:00",
			IsAvailable: true,
		}
	}
	store.services["svc-massage"] = &models.Service{
		ID:              "svc-massage",
		Name:            "Massage Therapy",
		DurationMinutes: 60,
		Price:           80,
	}
}

func torontoTime(t *testing.T, y int, m time.Month, d, h, min int) time.Time {
	t.Helper()

	loc, err := time.LoadLocation(testTZ)
	require.NoError(t, err)

	return time.Date(y, m, d, h, min, 0, 0, loc)
}

// #### availability ####

func TestComputeAvailableSlots_NoWorkingHoursRow(t *testing.T) {
	s, store, _, _ := newTestService(t)
	store.services["svc-massage"] = &models.Service{ID: "svc-massage", DurationMinutes: 60}

	slots, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeAvailableSlots_DayMarkedUnavailable(t *testing.T) {
	s, store, _, _ := newTestService(t)
	seedMondayNineToFive(store)
	store.workingHours[whKey("staff-1", 1)].IsAvailable = false

	slots, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeAvailableSlots_UnknownService(t *testing.T) {
	s, store, _, _ := newTestService(t)
	seedMondayNineToFive(store)

	slots, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "no-such-service", "2026-08-31")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeAvailableSlots_InvalidDate(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "31/08/2026")
	assert.ErrorIs(t, err, response.ErrValidation)
}

func TestComputeAvailableSlots_OpenMonday(t *testing.T) {
	s, store, _, _ := newTestService(t)
	seedMondayNineToFive(store)

	slots, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "2026-08-31")
	require.NoError(t, err)
	require.Len(t, slots, 29)

	assert.True(t, slots[0].StartTime.Equal(torontoTime(t, 2026, 8, 31, 9, 0)))
	assert.True(t, slots[28].StartTime.Equal(torontoTime(t, 2026, 8, 31, 16, 0)))
	assert.True(t, slots[28].EndTime.Equal(torontoTime(t, 2026, 8, 31, 17, 0)))

	for _, slot := range slots {
		assert.Equal(t, 60*time.Minute, slot.EndTime.Sub(slot.StartTime))
	}
}

func TestComputeAvailableSlots_ExcludesBookedWindow(t *testing.T) {
	s, store, _, _ := newTestService(t)
	seedMondayNineToFive(store)

	store.bookings["bk-existing"] = &models.Booking{
		ID:        "bk-existing",
		StaffID:   "staff-1",
		ServiceID: "svc-massage",
		StartTime: torontoTime(t, 2026, 8, 31, 10, 0),
		EndTime:   torontoTime(t, 2026, 8, 31, 11, 0),
		Status:    models.BookingConfirmed,
	}

	slots, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "2026-08-31")
	require.NoError(t, err)

	starts := map[string]bool{}
	for _, slot := range slots {
		starts[slot.StartTime.In(slot.StartTime.Location()).Format("15:04")] = true
		assert.False(t,
			availability.Overlaps(slot.StartTime, slot.EndTime,
				torontoTime(t, 2026, 8, 31, 10, 0), torontoTime(t, 2026, 8, 31, 11, 0)),
			"slot at %s overlaps booking", slot.StartTime.Format("15:04"))
	}

	assert.True(t, starts["09:00"], "back-to-back slot before the booking should survive")
	assert.False(t, starts["09:45"], "09:45 slot overlaps the booking")
	assert.False(t, starts["10:00"])
	assert.True(t, starts["11:00"], "back-to-back slot after the booking should survive")
}

func TestComputeAvailableSlots_CancelledBookingDoesNotBlock(t *testing.T) {
	s, store, _, _ := newTestService(t)
	seedMondayNineToFive(store)

	store.bookings["bk-cancelled"] = &models.Booking{
		ID:        "bk-cancelled",
		StaffID:   "staff-1",
		StartTime: torontoTime(t, 2026, 8, 31, 10, 0),
		EndTime:   torontoTime(t, 2026, 8, 31, 11, 0),
		Status:    models.BookingCancelled,
	}

	slots, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "2026-08-31")
	require.NoError(t, err)
	assert.Len(t, slots, 29)
}

func TestComputeAvailableSlots_TodayCutoff(t *testing.T) {
	s, store, _, _ := newTestService(t)
	seedMondayNineToFive(store)

	// Midday on the queried Monday, business time.
	s.now = func() time.Time { return torontoTime(t, 2026, 8, 31, 12, 30) }

	slots, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "2026-08-31")
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	for _, slot := range slots {
		assert.True(t, slot.StartTime.After(s.now()), "slot at %s not strictly in the future", slot.StartTime)
	}
	assert.True(t, slots[0].StartTime.Equal(torontoTime(t, 2026, 8, 31, 12, 45)))

	// Tomorrow is unaffected by the cutoff.
	slots, err = s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "2026-09-01")
	require.NoError(t, err)
	assert.Len(t, slots, 29)
}

func TestComputeAvailableSlots_Idempotent(t *testing.T) {
	s, store, _, _ := newTestService(t)
	seedMondayNineToFive(store)

	first, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "2026-08-31")
	require.NoError(t, err)
	second, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "2026-08-31")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeAvailableDates_SkipsWeekend(t *testing.T) {
	s, store, _, _ := newTestService(t)
	seedMondayNineToFive(store)

	// Monday 2026-08-31 through Sunday 2026-09-06: weekend days are excluded
	// even though the template marks all seven days available.
	dates, err := s.ComputeAvailableDates(context.Background(), "staff-1", "svc-massage", "2026-08-31", "2026-09-06")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2026-08-31", "2026-09-01", "2026-09-02", "2026-09-03", "2026-09-04",
	}, dates)
}

func TestComputeAvailableDates_OmitsFullyBookedDays(t *testing.T) {
	s, store, _, _ := newTestService(t)
	seedMondayNineToFive(store)

	// Fill the whole Tuesday window.
	store.bookings["bk-all-day"] = &models.Booking{
		ID:        "bk-all-day",
		StaffID:   "staff-1",
		StartTime: torontoTime(t, 2026, 9, 1, 9, 0),
		EndTime:   torontoTime(t, 2026, 9, 1, 17, 0),
		Status:    models.BookingPending,
	}

	dates, err := s.ComputeAvailableDates(context.Background(), "staff-1", "svc-massage", "2026-08-31", "2026-09-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-31", "2026-09-02"}, dates)
}

func TestComputeAvailableDates_EmptyResultRendersAsList(t *testing.T) {
	s, store, _, _ := newTestService(t)
	store.services["svc-massage"] = &models.Service{ID: "svc-massage", DurationMinutes: 60}

	// No working-hours template at all: still an empty list, never null.
	dates, err := s.ComputeAvailableDates(context.Background(), "staff-1", "svc-massage", "2026-08-31", "2026-09-04")
	require.NoError(t, err)
	require.NotNil(t, dates)
	assert.Empty(t, dates)
}

func TestComputeAvailableDates_InvalidRange(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.ComputeAvailableDates(context.Background(), "staff-1", "svc-massage", "2026-09-02", "2026-08-31")
	assert.ErrorIs(t, err, response.ErrValidation)
}

// #### booking writer ####

func TestCreateBooking_Success(t *testing.T) {
	s, store, mock, locker := newTestService(t)
	seedMondayNineToFive(store)

	mock.ExpectBegin()
	mock.ExpectCommit()

	start := torontoTime(t, 2026, 8, 31, 10, 0)
	booking, err := s.CreateBooking(context.Background(), &api.BookingRequest{
		StaffID:   "staff-1",
		ServiceID: "svc-massage",
		StartTime: start.Format(time.RFC3339),
		Name:      "Alex Doe",
		Email:     "alex@example.com",
		Phone:     "555-0101",
	})
	require.NoError(t, err)

	assert.Equal(t, string(models.BookingConfirmed), booking.Status)
	assert.True(t, booking.StartTime.Equal(start))
	assert.True(t, booking.EndTime.Equal(start.Add(60*time.Minute)), "end must be start plus current service duration")
	assert.Equal(t, "staff:staff-1", locker.lockKey)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_ConflictRollsBack(t *testing.T) {
	s, store, mock, _ := newTestService(t)
	seedMondayNineToFive(store)

	start := torontoTime(t, 2026, 8, 31, 10, 0)
	store.bookings["bk-existing"] = &models.Booking{
		ID:        "bk-existing",
		StaffID:   "staff-1",
		StartTime: start.Add(30 * time.Minute),
		EndTime:   start.Add(90 * time.Minute),
		Status:    models.BookingPending,
	}

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.CreateBooking(context.Background(), &api.BookingRequest{
		StaffID:   "staff-1",
		ServiceID: "svc-massage",
		StartTime: start.Format(time.RFC3339),
		Name:      "Alex Doe",
		Email:     "alex@example.com",
	})
	assert.ErrorIs(t, err, response.ErrSlotNotAvailable)

	assert.Len(t, store.bookings, 1, "no booking row may be written on conflict")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_BackToBackIsNotAConflict(t *testing.T) {
	s, store, mock, _ := newTestService(t)
	seedMondayNineToFive(store)

	start := torontoTime(t, 2026, 8, 31, 10, 0)
	store.bookings["bk-existing"] = &models.Booking{
		ID:        "bk-existing",
		StaffID:   "staff-1",
		StartTime: start.Add(-60 * time.Minute),
		EndTime:   start, // ends exactly when the new booking starts
		Status:    models.BookingConfirmed,
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	booking, err := s.CreateBooking(context.Background(), &api.BookingRequest{
		StaffID:   "staff-1",
		ServiceID: "svc-massage",
		StartTime: start.Format(time.RFC3339),
		Name:      "Alex Doe",
		Email:     "alex@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, string(models.BookingConfirmed), booking.Status)
}

func TestCreateBooking_Locked(t *testing.T) {
	s, store, _, locker := newTestService(t)
	seedMondayNineToFive(store)
	locker.held = true

	_, err := s.CreateBooking(context.Background(), &api.BookingRequest{
		StaffID:   "staff-1",
		ServiceID: "svc-massage",
		StartTime: torontoTime(t, 2026, 8, 31, 10, 0).Format(time.RFC3339),
		Name:      "Alex Doe",
		Email:     "alex@example.com",
	})
	assert.ErrorIs(t, err, response.ErrLocked)
}

func TestCreateBooking_UnknownService(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.CreateBooking(context.Background(), &api.BookingRequest{
		StaffID:   "staff-1",
		ServiceID: "no-such-service",
		StartTime: torontoTime(t, 2026, 8, 31, 10, 0).Format(time.RFC3339),
		Name:      "Alex Doe",
		Email:     "alex@example.com",
	})
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestCreateBooking_InvalidStartTime(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.CreateBooking(context.Background(), &api.BookingRequest{
		StaffID:   "staff-1",
		ServiceID: "svc-massage",
		StartTime: "next tuesday",
		Name:      "Alex Doe",
		Email:     "alex@example.com",
	})
	assert.ErrorIs(t, err, response.ErrValidation)
}

// #### reschedule / cancel ####

func createBooking(t *testing.T, s *Service, store *fakeStore, mock sqlmock.Sqlmock, start time.Time) *api.BookingResponse {
	t.Helper()

	mock.ExpectBegin()
	mock.ExpectCommit()

	booking, err := s.CreateBooking(context.Background(), &api.BookingRequest{
		StaffID:   "staff-1",
		ServiceID: "svc-massage",
		StartTime: start.Format(time.RFC3339),
		Name:      "Alex Doe",
		Email:     "alex@example.com",
	})
	require.NoError(t, err)

	return booking
}

func TestRescheduleBooking_MovesToOpenSlot(t *testing.T) {
	s, store, mock, _ := newTestService(t)
	seedMondayNineToFive(store)

	booking := createBooking(t, s, store, mock, torontoTime(t, 2026, 8, 31, 10, 0))

	mock.ExpectBegin()
	mock.ExpectCommit()

	newStart := torontoTime(t, 2026, 8, 31, 14, 0)
	moved, err := s.RescheduleBooking(context.Background(), booking.ID, newStart.Format(time.RFC3339))
	require.NoError(t, err)

	assert.True(t, moved.StartTime.Equal(newStart))
	assert.True(t, moved.EndTime.Equal(newStart.Add(60*time.Minute)), "end must track the service duration")
}

func TestRescheduleBooking_ExcludesItselfFromConflictCheck(t *testing.T) {
	s, store, mock, _ := newTestService(t)
	seedMondayNineToFive(store)

	start := torontoTime(t, 2026, 8, 31, 10, 0)
	booking := createBooking(t, s, store, mock, start)

	mock.ExpectBegin()
	mock.ExpectCommit()

	// A no-op move back onto its own slot must succeed.
	moved, err := s.RescheduleBooking(context.Background(), booking.ID, start.Format(time.RFC3339))
	require.NoError(t, err)
	assert.True(t, moved.StartTime.Equal(start))

	require.NotNil(t, store.lastExcludeID)
	assert.Equal(t, booking.ID, *store.lastExcludeID)
}

func TestRescheduleBooking_ConflictWithOtherBooking(t *testing.T) {
	s, store, mock, _ := newTestService(t)
	seedMondayNineToFive(store)

	first := createBooking(t, s, store, mock, torontoTime(t, 2026, 8, 31, 10, 0))
	_ = first

	second := createBooking(t, s, store, mock, torontoTime(t, 2026, 8, 31, 14, 0))

	mock.ExpectBegin()
	mock.ExpectRollback()

	// Move the 14:00 booking onto 10:30, overlapping the first.
	_, err := s.RescheduleBooking(context.Background(), second.ID,
		torontoTime(t, 2026, 8, 31, 10, 30).Format(time.RFC3339))
	assert.ErrorIs(t, err, response.ErrSlotNotAvailable)

	unchanged, err := s.GetBooking(context.Background(), second.ID)
	require.NoError(t, err)
	assert.True(t, unchanged.StartTime.Equal(torontoTime(t, 2026, 8, 31, 14, 0)), "failed reschedule must not move the booking")
}

func TestRescheduleBooking_CancelledBooking(t *testing.T) {
	s, store, mock, _ := newTestService(t)
	seedMondayNineToFive(store)

	booking := createBooking(t, s, store, mock, torontoTime(t, 2026, 8, 31, 10, 0))
	_, err := s.CancelBooking(context.Background(), booking.ID)
	require.NoError(t, err)

	_, err = s.RescheduleBooking(context.Background(), booking.ID,
		torontoTime(t, 2026, 8, 31, 14, 0).Format(time.RFC3339))
	assert.ErrorIs(t, err, response.ErrValidation)
}

func TestRescheduleBooking_NotFound(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.RescheduleBooking(context.Background(), "no-such-booking",
		torontoTime(t, 2026, 8, 31, 14, 0).Format(time.RFC3339))
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestCancelBooking_FreesTheSlot(t *testing.T) {
	s, store, mock, _ := newTestService(t)
	seedMondayNineToFive(store)

	start := torontoTime(t, 2026, 8, 31, 10, 0)
	booking := createBooking(t, s, store, mock, start)

	cancelled, err := s.CancelBooking(context.Background(), booking.ID)
	require.NoError(t, err)
	assert.Equal(t, string(models.BookingCancelled), cancelled.Status)

	stored := store.bookings[booking.ID]
	require.NotNil(t, stored.CancelledAt, "cancellation must be stamped")

	// The row survives, but the slot is bookable again.
	slots, err := s.ComputeAvailableSlots(context.Background(), "staff-1", "svc-massage", "2026-08-31")
	require.NoError(t, err)
	assert.Len(t, slots, 29)
}

func TestCancelBooking_NotFound(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.CancelBooking(context.Background(), "no-such-booking")
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestListBookings_IncludesFullHistory(t *testing.T) {
	s, store, mock, _ := newTestService(t)
	seedMondayNineToFive(store)

	first := createBooking(t, s, store, mock, torontoTime(t, 2026, 8, 31, 10, 0))
	second := createBooking(t, s, store, mock, torontoTime(t, 2026, 8, 31, 14, 0))

	_, err := s.CancelBooking(context.Background(), first.ID)
	require.NoError(t, err)

	// Outside the queried range, must not appear.
	createBooking(t, s, store, mock, torontoTime(t, 2026, 9, 2, 10, 0))

	bookings, err := s.ListBookings(context.Background(), "staff-1", "2026-08-31", "2026-09-01")
	require.NoError(t, err)
	require.Len(t, bookings, 2)

	// Ascending by start time, cancelled history included.
	assert.Equal(t, first.ID, bookings[0].ID)
	assert.Equal(t, string(models.BookingCancelled), bookings[0].Status)
	assert.Equal(t, second.ID, bookings[1].ID)
	assert.Equal(t, string(models.BookingConfirmed), bookings[1].Status)
}

func TestListBookings_ToDateIsInclusive(t *testing.T) {
	s, store, mock, _ := newTestService(t)
	seedMondayNineToFive(store)

	booking := createBooking(t, s, store, mock, torontoTime(t, 2026, 9, 1, 16, 0))

	bookings, err := s.ListBookings(context.Background(), "staff-1", "2026-09-01", "2026-09-01")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, booking.ID, bookings[0].ID)
}

func TestListBookings_EmptyResultRendersAsList(t *testing.T) {
	s, _, _, _ := newTestService(t)

	bookings, err := s.ListBookings(context.Background(), "staff-1", "2026-08-31", "2026-09-01")
	require.NoError(t, err)
	require.NotNil(t, bookings)
	assert.Empty(t, bookings)
}

func TestListBookings_InvalidRange(t *testing.T) {
	s, _, _, _ := newTestService(t)

	_, err := s.ListBookings(context.Background(), "staff-1", "2026-09-01", "2026-08-31")
	assert.ErrorIs(t, err, response.ErrValidation)

	_, err = s.ListBookings(context.Background(), "staff-1", "yesterday", "2026-08-31")
	assert.ErrorIs(t, err, response.ErrValidation)
}

func TestLocation_ReturnsBusinessTimeZone(t *testing.T) {
	s, _, _, _ := newTestService(t)

	require.NotNil(t, s.Location())
	assert.Equal(t, testTZ, s.Location().String())
}

// #### working hours ####

func TestUpdateWorkingHours_Upserts(t *testing.T) {
	s, store, _, _ := newTestService(t)

	hours, err := s.UpdateWorkingHours(context.Background(), &api.WorkingHoursRequest{
		StaffID: "staff-1",
		Updates: []api.WorkingHourUpdate{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00", IsAvailable: true},
			{DayOfWeek: 6, StartTime: "10:00", EndTime: "14:00", IsAvailable: false},
		},
	})
	require.NoError(t, err)
	require.Len(t, hours, 2)

	assert.Equal(t, 1, hours[0].DayOfWeek)
	assert.True(t, hours[0].IsAvailable)
	assert.Equal(t, 6, hours[1].DayOfWeek)
	assert.False(t, hours[1].IsAvailable)

	// Re-running with new times overwrites rather than duplicating.
	hours, err = s.UpdateWorkingHours(context.Background(), &api.WorkingHoursRequest{
		StaffID: "staff-1",
		Updates: []api.WorkingHourUpdate{
			{DayOfWeek: 1, StartTime: "08:00", EndTime: "16:00", IsAvailable: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, hours, 2)
	assert.Equal(t, "08:00", hours[0].StartTime)

	assert.Len(t, store.workingHours, 2)
}

func TestUpdateWorkingHours_Validation(t *testing.T) {
	s, _, _, _ := newTestService(t)

	cases := []struct {
		name   string
		update api.WorkingHourUpdate
	}{
		{"day out of range low", api.WorkingHourUpdate{DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00"}},
		{"day out of range high", api.WorkingHourUpdate{DayOfWeek: 8, StartTime: "09:00", EndTime: "17:00"}},
		{"bad start", api.WorkingHourUpdate{DayOfWeek: 1, StartTime: "9am", EndTime: "17:00"}},
		{"bad end", api.WorkingHourUpdate{DayOfWeek: 1, StartTime: "09:00", EndTime: "late"}},
		{"end before start", api.WorkingHourUpdate{DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.UpdateWorkingHours(context.Background(), &api.WorkingHoursRequest{
				StaffID: "staff-1",
				Updates: []api.WorkingHourUpdate{tc.update},
			})
			assert.ErrorIs(t, err, response.ErrValidation)
		})
	}
}
