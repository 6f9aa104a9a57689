package models

import "time"

// WorkRule is a recurring weekly window of availability, split into fixed-size slots.
type WorkRule struct {
	ID          int64     `json:"id"`
	DayOfWeek   int       `json:"day_of_week"` // 0 = Sunday ... 6 = Saturday
	StartTime   TimeOfDay `json:"start_time"`
	EndTime     TimeOfDay `json:"end_time"`
	SlotMinutes int       `json:"slot_minutes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WindowMinutes is the length of [StartTime, EndTime) in whole minutes.
func (r WorkRule) WindowMinutes() int {
	return int(r.EndTime-r.StartTime) / secondsPerMinute
}

// Contains reports whether t falls inside the half-open window.
func (r WorkRule) Contains(t TimeOfDay) bool {
	return r.StartTime <= t && t < r.EndTime
}

// OverlapsWith applies the half-open interval test against another rule of the same weekday.
func (r WorkRule) OverlapsWith(other WorkRule) bool {
	return r.DayOfWeek == other.DayOfWeek && Overlaps(r.StartTime, r.EndTime, other.StartTime, other.EndTime)
}
