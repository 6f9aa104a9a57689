package database

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrSlotConflict    = errors.New("time slot is already booked")
	ErrWorkRuleOverlap = errors.New("work rule overlaps an existing rule for that weekday")
	ErrUnknownService  = errors.New("service does not exist")
)
