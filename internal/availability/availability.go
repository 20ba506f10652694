// Package availability implements slot generation and conflict detection for
// staff calendars. Candidate windows are stepped at a fixed granularity through
// a working-hours window and filtered against existing bookings using half-open
// interval overlap.
package availability

import (
	"fmt"
	"time"
)

// StepMinutes is the fixed granularity between candidate slot starts. It is
// independent of the service duration, so services longer than one step produce
// overlapping candidates on purpose: a 45-minute service still offers a start
// every 15 minutes.
const StepMinutes = 15

// Slot is a transient bookable window. Never persisted and never cached across
// requests, because a concurrent booking invalidates it instantly.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Interval is an occupied time range, half-open [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Weekday maps t to the 1=Monday..7=Sunday scheme used as the working-hours
// key. Go numbers Sunday 0; the remap to 7 lives here and nowhere else.
func Weekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}

	return wd
}

// BookableWeekday reports whether t falls on a day the business takes bookings
// at all. Saturday and Sunday are excluded as business policy; any further
// per-day closure is driven by the working-hours template, not by this
// predicate. Both the date-range scanner and calendar-disable logic share it.
func BookableWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect. Touching endpoints do not overlap: a slot ending exactly when a
// booking starts is valid.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// DayWindow resolves a wall-clock "HH:MM" pair on day's calendar date to
// absolute instants in loc. Resolution goes through time.Date with a named
// zone, so it stays correct across daylight-saving transitions.
func DayWindow(day time.Time, startHM, endHM string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.Parse("15:04", startHM)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse start time %q: %w", startHM, err)
	}

	end, err := time.Parse("15:04", endHM)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse end time %q: %w", endHM, err)
	}

	windowStart := time.Date(day.Year(), day.Month(), day.Day(), start.Hour(), start.Minute(), 0, 0, loc)
	windowEnd := time.Date(day.Year(), day.Month(), day.Day(), end.Hour(), end.Minute(), 0, 0, loc)

	return windowStart, windowEnd, nil
}

// Slots generates the bookable windows of length duration inside
// [windowStart, windowEnd], stepping candidate starts every StepMinutes from
// windowStart. Generation stops once a candidate's end would pass windowEnd; a
// candidate ending exactly on windowEnd is kept. Candidates overlapping any
// busy interval are dropped, as are candidates starting at or before now.
// Pass the zero time as now to disable the cutoff (dates other than today).
// Results are in ascending start order by construction.
func Slots(windowStart, windowEnd time.Time, duration time.Duration, busy []Interval, now time.Time) []Slot {
	if duration <= 0 {
		return nil
	}

	step := StepMinutes * time.Minute
	var slots []Slot

	for cur := windowStart; !cur.Add(duration).After(windowEnd); cur = cur.Add(step) {
		if !now.IsZero() && !cur.After(now) {
			continue
		}

		end := cur.Add(duration)
		if overlapsAny(cur, end, busy) {
			continue
		}

		slots = append(slots, Slot{Start: cur, End: end})
	}

	return slots
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}

	return false
}
