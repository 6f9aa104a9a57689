package service

import (
	"context"
	"time"

	"coachbook/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRules struct {
	mock.Mock
}

func (m *mockRules) WorkRulesByDay(ctx context.Context, day int) ([]models.WorkRule, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WorkRule), args.Error(1)
}

func (m *mockRules) ExistsOverlap(ctx context.Context, day int, start, end models.TimeOfDay, excludeID int64) (bool, error) {
	args := m.Called(ctx, day, start, end, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRules) ListWorkRules(ctx context.Context) ([]*models.WorkRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WorkRule), args.Error(1)
}

func (m *mockRules) GetWorkRule(ctx context.Context, id int64) (*models.WorkRule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WorkRule), args.Error(1)
}

func (m *mockRules) CreateWorkRule(ctx context.Context, rule *models.WorkRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *mockRules) UpdateWorkRule(ctx context.Context, rule *models.WorkRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *mockRules) DeleteWorkRule(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) BookedStartTimes(ctx context.Context, date time.Time) ([]models.TimeOfDay, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TimeOfDay), args.Error(1)
}

func (m *mockBookings) InsertIfFree(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockBookings) GetBooking(ctx context.Context, id int64) (*models.BookingDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingDetails), args.Error(1)
}

func (m *mockBookings) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.BookingDetails, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BookingDetails), args.Error(1)
}

func (m *mockBookings) DeleteBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) FindActiveService(ctx context.Context, id int64) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}

func (m *mockCatalog) ListActiveServices(ctx context.Context) ([]*models.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}
