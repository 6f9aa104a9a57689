package service

import (
	"context"
	"io"
	"testing"

	"coachbook/internal/database"
	"coachbook/internal/events"
	"coachbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func rule(day int, start, end string, slot int) *models.WorkRule {
	return &models.WorkRule{
		DayOfWeek:   day,
		StartTime:   models.MustTimeOfDay(start),
		EndTime:     models.MustTimeOfDay(end),
		SlotMinutes: slot,
	}
}

func TestValidateWorkRule(t *testing.T) {
	tests := []struct {
		name  string
		rule  *models.WorkRule
		field string
	}{
		{name: "valid", rule: rule(1, "09:00", "12:00", 30)},
		{name: "slot equals window", rule: rule(1, "09:00", "10:00", 60)},
		{name: "bad weekday", rule: rule(7, "09:00", "12:00", 30), field: "day_of_week"},
		{name: "negative weekday", rule: rule(-1, "09:00", "12:00", 30), field: "day_of_week"},
		{name: "end before start", rule: rule(1, "12:00", "09:00", 30), field: "end_time"},
		{name: "empty window", rule: rule(1, "09:00", "09:00", 30), field: "end_time"},
		{name: "slot too large for window", rule: rule(1, "09:00", "10:00", 90), field: "slot_minutes"},
		{name: "slot out of range", rule: rule(1, "09:00", "10:00", -5), field: "slot_minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWorkRule(tt.rule)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWorkRuleService(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	t.Run("create applies default slot and publishes", func(t *testing.T) {
		repo := new(mockRules)
		publisher := new(mockPublisher)
		svc := NewWorkRuleService(repo, publisher, &logger)

		r := rule(1, "09:00", "12:00", 0)
		repo.On("CreateWorkRule", ctx, r).Return(nil)
		publisher.On("PublishJSON", events.EventWorkRulesChanged, events.WorkRulePayload{DayOfWeek: 1, Action: "created"}).Return(nil)

		require.NoError(t, svc.CreateWorkRule(ctx, r))
		assert.Equal(t, models.DefaultSlotMinutes, r.SlotMinutes)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("invalid rule never reaches the store", func(t *testing.T) {
		repo := new(mockRules)
		svc := NewWorkRuleService(repo, nil, &logger)

		err := svc.CreateWorkRule(ctx, rule(1, "12:00", "09:00", 30))
		assert.Error(t, err)
		repo.AssertNotCalled(t, "CreateWorkRule", mock.Anything, mock.Anything)
	})

	t.Run("overlap surfaces from the store", func(t *testing.T) {
		repo := new(mockRules)
		svc := NewWorkRuleService(repo, nil, &logger)
		r := rule(1, "09:00", "12:00", 30)
		r.ID = 3
		repo.On("UpdateWorkRule", ctx, r).Return(database.ErrWorkRuleOverlap)

		assert.ErrorIs(t, svc.UpdateWorkRule(ctx, r), database.ErrWorkRuleOverlap)
	})

	t.Run("delete", func(t *testing.T) {
		repo := new(mockRules)
		publisher := new(mockPublisher)
		svc := NewWorkRuleService(repo, publisher, &logger)
		r := rule(2, "09:00", "12:00", 30)
		r.ID = 4
		repo.On("GetWorkRule", ctx, int64(4)).Return(r, nil)
		repo.On("DeleteWorkRule", ctx, int64(4)).Return(nil)
		publisher.On("PublishJSON", events.EventWorkRulesChanged, events.WorkRulePayload{RuleID: 4, DayOfWeek: 2, Action: "deleted"}).Return(nil)

		require.NoError(t, svc.DeleteWorkRule(ctx, 4))
		publisher.AssertExpectations(t)

		repo.On("GetWorkRule", ctx, int64(5)).Return(nil, database.ErrNotFound)
		assert.ErrorIs(t, svc.DeleteWorkRule(ctx, 5), database.ErrNotFound)
	})
}
