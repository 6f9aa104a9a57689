package domain

import (
	"context"
	"time"

	"coachbook/internal/models"
	"coachbook/internal/schedule"
)

// WorkRuleStore is the read side of weekly availability used by the schedule engine.
type WorkRuleStore interface {
	WorkRulesByDay(ctx context.Context, day int) ([]models.WorkRule, error)
	ExistsOverlap(ctx context.Context, day int, start, end models.TimeOfDay, excludeID int64) (bool, error)
}

type WorkRuleRepository interface {
	WorkRuleStore
	ListWorkRules(ctx context.Context) ([]*models.WorkRule, error)
	GetWorkRule(ctx context.Context, id int64) (*models.WorkRule, error)
	CreateWorkRule(ctx context.Context, rule *models.WorkRule) error
	UpdateWorkRule(ctx context.Context, rule *models.WorkRule) error
	DeleteWorkRule(ctx context.Context, id int64) error
}

// BookingStore holds confirmed bookings. InsertIfFree is the only write and is atomic.
type BookingStore interface {
	BookedStartTimes(ctx context.Context, date time.Time) ([]models.TimeOfDay, error)
	InsertIfFree(ctx context.Context, booking *models.Booking) error
}

type BookingRepository interface {
	BookingStore
	GetBooking(ctx context.Context, id int64) (*models.BookingDetails, error)
	GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.BookingDetails, error)
	DeleteBooking(ctx context.Context, id int64) error
}

// ServiceCatalog resolves bookable services. FindActiveService returns nil for unknown or inactive ids.
type ServiceCatalog interface {
	FindActiveService(ctx context.Context, id int64) (*models.Service, error)
	ListActiveServices(ctx context.Context) ([]*models.Service, error)
}

// AttemptLimiter counts booking attempts per client key within a window.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	Availability(ctx context.Context, date time.Time) (schedule.DaySlots, error)
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingDetails, error)
	ListServices(ctx context.Context) ([]*models.Service, error)
	GetBooking(ctx context.Context, id int64) (*models.BookingDetails, error)
	ListBookings(ctx context.Context, from, to time.Time) ([]*models.BookingDetails, error)
	CancelBooking(ctx context.Context, id int64) error
}

type WorkRuleService interface {
	ListWorkRules(ctx context.Context) ([]*models.WorkRule, error)
	CreateWorkRule(ctx context.Context, rule *models.WorkRule) error
	UpdateWorkRule(ctx context.Context, rule *models.WorkRule) error
	DeleteWorkRule(ctx context.Context, id int64) error
}
