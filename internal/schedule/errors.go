package schedule

import "errors"

// Reason is a stable machine-checkable rejection code.
type Reason string

const (
	ReasonPastDate           Reason = "past_date"
	ReasonServiceUnavailable Reason = "service_unavailable"
	ReasonNoWorkingHours     Reason = "no_working_hours"
	ReasonTimeNotAvailable   Reason = "time_not_available"
	ReasonPastTimeToday      Reason = "past_time_today"
	ReasonSlotConflict       Reason = "slot_conflict"
)

// Rejection is an expected, user-facing refusal of a booking attempt.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	return r.Message
}

// Is matches any rejection carrying the same reason.
func (r *Rejection) Is(target error) bool {
	var other *Rejection
	if !errors.As(target, &other) {
		return false
	}
	return other.Reason == r.Reason
}

var (
	ErrPastDate           = &Rejection{Reason: ReasonPastDate, Message: "Cannot book past dates."}
	ErrServiceUnavailable = &Rejection{Reason: ReasonServiceUnavailable, Message: "Service is not available."}
	ErrNoWorkingHours     = &Rejection{Reason: ReasonNoWorkingHours, Message: "No working hours for this day."}
	ErrTimeNotAvailable   = &Rejection{Reason: ReasonTimeNotAvailable, Message: "Selected time is not available."}
	ErrPastTimeToday      = &Rejection{Reason: ReasonPastTimeToday, Message: "Cannot book a past time today."}
	ErrSlotConflict       = &Rejection{Reason: ReasonSlotConflict, Message: "This time slot is already booked."}
)

// AsRejection unwraps err into a Rejection if it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
