package models

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

const (
	// DefaultSlotMinutes slot size used when a work rule omits it
	DefaultSlotMinutes = 30

	// DefaultServiceDuration session length used when a seeded service omits it
	DefaultServiceDuration = 60

	// MaxSlotMinutes one slot can never be longer than a day
	MaxSlotMinutes = 24 * 60

	// BookingAttempts booking attempts allowed per client in one window
	BookingAttempts = 10

	// BookingAttemptWindow throttle window for booking attempts
	BookingAttemptWindow = 60 // 1 минута в секундах

	// DefaultExportRangeDays export range when "to" is omitted
	DefaultExportRangeDays = 30
)
