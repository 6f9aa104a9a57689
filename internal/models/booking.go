package models

import "time"

// Booking is a confirmed reservation of one slot. Date carries only the calendar day.
type Booking struct {
	ID          int64     `json:"id"`
	ServiceID   int64     `json:"service_id"`
	Date        time.Time `json:"date"`
	StartTime   TimeOfDay `json:"start_time"`
	EndTime     TimeOfDay `json:"end_time"`
	ClientEmail string    `json:"client_email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
