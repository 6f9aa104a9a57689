package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coachbook/internal/database"
	"coachbook/internal/domain"
	"coachbook/internal/events"
	"coachbook/internal/models"
	"coachbook/internal/schedule"

	"github.com/rs/zerolog"
)

type BookingService struct {
	rules    domain.WorkRuleStore
	bookings domain.BookingRepository
	catalog  domain.ServiceCatalog
	engine   *schedule.Engine
	eventBus domain.EventPublisher
	logger   *zerolog.Logger

	limiter  domain.AttemptLimiter
	attempts int
	window   time.Duration

	loc *time.Location
	now func() time.Time
}

type Option func(*BookingService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *BookingService) {
		s.now = now
	}
}

// WithLocation sets the zone of the coach's wall clock.
func WithLocation(loc *time.Location) Option {
	return func(s *BookingService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithAttemptLimit throttles CreateBooking per client email.
func WithAttemptLimit(limiter domain.AttemptLimiter, attempts int, window time.Duration) Option {
	return func(s *BookingService) {
		s.limiter = limiter
		s.attempts = attempts
		s.window = window
	}
}

func NewBookingService(
	rules domain.WorkRuleStore,
	bookings domain.BookingRepository,
	catalog domain.ServiceCatalog,
	engine *schedule.Engine,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
	opts ...Option,
) *BookingService {
	if engine == nil {
		engine = schedule.New(schedule.EdgeOverrun)
	}
	s := &BookingService{
		rules:    rules,
		bookings: bookings,
		catalog:  catalog,
		engine:   engine,
		eventBus: eventBus,
		logger:   logger,
		loc:      time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar day on the coach's clock.
func (s *BookingService) Today() time.Time {
	return s.day(s.clock())
}

func (s *BookingService) clock() time.Time {
	return s.now().In(s.loc)
}

// day pins the calendar day of t to midnight in the service location.
func (s *BookingService) day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// Availability lists the free slots of date. Past dates are reported, not rejected.
func (s *BookingService) Availability(ctx context.Context, date time.Time) (schedule.DaySlots, error) {
	date = s.day(date)
	now := s.clock()

	if models.BeforeDay(date, now) {
		return s.engine.Slots(date, now, nil, nil), nil
	}

	rules, err := s.rules.WorkRulesByDay(ctx, int(date.Weekday()))
	if err != nil {
		return schedule.DaySlots{}, fmt.Errorf("failed to load work rules: %w", err)
	}
	if len(rules) == 0 {
		return s.engine.Slots(date, now, nil, nil), nil
	}

	booked, err := s.bookings.BookedStartTimes(ctx, date)
	if err != nil {
		return schedule.DaySlots{}, fmt.Errorf("failed to load booked times: %w", err)
	}

	return s.engine.Slots(date, now, rules, schedule.NewBookedSet(booked)), nil
}

// CreateBooking validates the request against the day's rules and stores it if the slot is
// still free. Expected refusals are *schedule.Rejection values.
func (s *BookingService) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingDetails, error) {
	if err := s.checkAttempts(ctx, req.ClientEmail); err != nil {
		return nil, err
	}

	date := s.day(req.Date)
	now := s.clock()

	rules, err := s.rules.WorkRulesByDay(ctx, int(date.Weekday()))
	if err != nil {
		return nil, fmt.Errorf("failed to load work rules: %w", err)
	}

	service, err := s.catalog.FindActiveService(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load service: %w", err)
	}

	end, err := s.engine.Validate(date, req.StartTime, now, rules, service)
	if err != nil {
		s.reject(req, err)
		return nil, err
	}

	booking := &models.Booking{
		ServiceID:   service.ID,
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     end,
		ClientEmail: req.ClientEmail,
	}

	err = s.bookings.InsertIfFree(ctx, booking)
	switch {
	case errors.Is(err, database.ErrSlotConflict):
		s.reject(req, schedule.ErrSlotConflict)
		return nil, schedule.ErrSlotConflict
	case errors.Is(err, database.ErrUnknownService):
		// deleted between lookup and insert
		s.reject(req, schedule.ErrServiceUnavailable)
		return nil, schedule.ErrServiceUnavailable
	case err != nil:
		return nil, fmt.Errorf("failed to store booking: %w", err)
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("service_id", service.ID).
		Str("date", models.DateKey(date)).
		Str("start_time", booking.StartTime.String()).
		Msg("booking created")

	s.publish(events.EventBookingCreated, events.BookingEventPayload{
		BookingID:   booking.ID,
		ServiceID:   service.ID,
		ServiceName: service.Name,
		Date:        models.DateKey(date),
		StartTime:   booking.StartTime.String(),
		EndTime:     booking.EndTime.String(),
		ClientEmail: booking.ClientEmail,
	})

	return &models.BookingDetails{Booking: *booking, Service: *service}, nil
}

func (s *BookingService) ListServices(ctx context.Context) ([]*models.Service, error) {
	return s.catalog.ListActiveServices(ctx)
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.BookingDetails, error) {
	return s.bookings.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, from, to time.Time) ([]*models.BookingDetails, error) {
	from, to = s.day(from), s.day(to)
	if to.Before(from) {
		return nil, ErrInvalidRange
	}
	return s.bookings.GetBookingsByDateRange(ctx, from, to)
}

// CancelBooking deletes the booking and frees its slot.
func (s *BookingService) CancelBooking(ctx context.Context, id int64) error {
	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bookings.DeleteBooking(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("booking_id", id).Msg("booking canceled")
	s.publish(events.EventBookingCanceled, events.BookingEventPayload{
		BookingID:   booking.ID,
		ServiceID:   booking.ServiceID,
		ServiceName: booking.Service.Name,
		Date:        models.DateKey(booking.Date),
		StartTime:   booking.StartTime.String(),
		EndTime:     booking.EndTime.String(),
		ClientEmail: booking.ClientEmail,
	})
	return nil
}

func (s *BookingService) checkAttempts(ctx context.Context, email string) error {
	if s.limiter == nil || s.attempts <= 0 {
		return nil
	}

	key := strings.ToLower(strings.TrimSpace(email))
	allowed, err := s.limiter.Allow(ctx, key, s.attempts, s.window)
	if err != nil {
		// limiter outages do not block bookings
		s.logger.Warn().Err(err).Msg("attempt limiter unavailable")
		return nil
	}
	if !allowed {
		return ErrTooManyAttempts
	}
	return nil
}

func (s *BookingService) reject(req models.BookingRequest, err error) {
	reason := "unknown"
	if r, ok := schedule.AsRejection(err); ok {
		reason = string(r.Reason)
	}

	s.logger.Info().
		Str("reason", reason).
		Int64("service_id", req.ServiceID).
		Str("date", models.DateKey(req.Date)).
		Str("start_time", req.StartTime.String()).
		Msg("booking rejected")

	s.publish(events.EventBookingRejected, events.BookingEventPayload{
		ServiceID: req.ServiceID,
		Date:      models.DateKey(req.Date),
		StartTime: req.StartTime.String(),
		Reason:    reason,
	})
}

func (s *BookingService) publish(eventType string, payload events.BookingEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", payload.BookingID).Msg("publish event error")
	}
}
