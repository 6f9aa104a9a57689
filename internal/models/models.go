package models

import "time"

// BookingDetails is a booking joined with its service, as returned to clients.
type BookingDetails struct {
	Booking
	Service Service `json:"service"`
}

// BookingRequest is a validated attempt to book a slot.
type BookingRequest struct {
	Date        time.Time
	StartTime   TimeOfDay
	ServiceID   int64
	ClientEmail string
}
