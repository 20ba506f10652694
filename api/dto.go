package api

import "time"

type SlotResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type BookingRequest struct {
	StaffID   string  `json:"staff_id"`
	ServiceID string  `json:"service_id"`
	StartTime string  `json:"start_time"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Notes     *string `json:"notes,omitempty"`
}

type BookingResponse struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staff_id"`
	ServiceID string    `json:"service_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Notes     *string   `json:"notes,omitempty"`
}

type BookingRescheduleRequest struct {
	BookingID    string `json:"booking_id"`
	NewStartTime string `json:"new_start_time"`
}

type WorkingHourUpdate struct {
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

type WorkingHoursRequest struct {
	StaffID string              `json:"staff_id"`
	Updates []WorkingHourUpdate `json:"updates"`
}

type WorkingHourResponse struct {
	StaffID     string `json:"staff_id"`
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
}

type ServiceResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
}
