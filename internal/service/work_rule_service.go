package service

import (
	"context"

	"coachbook/internal/domain"
	"coachbook/internal/events"
	"coachbook/internal/models"

	"github.com/rs/zerolog"
)

// WorkRuleService administers the weekly availability windows.
type WorkRuleService struct {
	repo     domain.WorkRuleRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewWorkRuleService(repo domain.WorkRuleRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *WorkRuleService {
	return &WorkRuleService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *WorkRuleService) ListWorkRules(ctx context.Context) ([]*models.WorkRule, error) {
	return s.repo.ListWorkRules(ctx)
}

// CreateWorkRule stores a rule. Overlap with another rule of the same weekday is
// reported by the repository as database.ErrWorkRuleOverlap.
func (s *WorkRuleService) CreateWorkRule(ctx context.Context, rule *models.WorkRule) error {
	if rule.SlotMinutes == 0 {
		rule.SlotMinutes = models.DefaultSlotMinutes
	}
	if err := ValidateWorkRule(rule); err != nil {
		return err
	}
	if err := s.repo.CreateWorkRule(ctx, rule); err != nil {
		return err
	}

	s.logger.Info().Int64("rule_id", rule.ID).Int("day_of_week", rule.DayOfWeek).Msg("work rule created")
	s.publish(rule, "created")
	return nil
}

func (s *WorkRuleService) UpdateWorkRule(ctx context.Context, rule *models.WorkRule) error {
	if rule.SlotMinutes == 0 {
		rule.SlotMinutes = models.DefaultSlotMinutes
	}
	if err := ValidateWorkRule(rule); err != nil {
		return err
	}
	if err := s.repo.UpdateWorkRule(ctx, rule); err != nil {
		return err
	}

	s.logger.Info().Int64("rule_id", rule.ID).Int("day_of_week", rule.DayOfWeek).Msg("work rule updated")
	s.publish(rule, "updated")
	return nil
}

func (s *WorkRuleService) DeleteWorkRule(ctx context.Context, id int64) error {
	rule, err := s.repo.GetWorkRule(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteWorkRule(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("rule_id", id).Msg("work rule deleted")
	s.publish(rule, "deleted")
	return nil
}

// ValidateWorkRule checks a rule on its own, without looking at its neighbours.
func ValidateWorkRule(rule *models.WorkRule) error {
	switch {
	case rule.DayOfWeek < 0 || rule.DayOfWeek > 6:
		return &ValidationError{Field: "day_of_week", Message: "must be between 0 (Sunday) and 6 (Saturday)"}
	case rule.EndTime <= rule.StartTime:
		return &ValidationError{Field: "end_time", Message: "must be after start_time"}
	case rule.SlotMinutes < 1 || rule.SlotMinutes > models.MaxSlotMinutes:
		return &ValidationError{Field: "slot_minutes", Message: "must be between 1 and 1440"}
	case rule.SlotMinutes > rule.WindowMinutes():
		return &ValidationError{Field: "slot_minutes", Message: "cannot exceed the working window"}
	}
	return nil
}

func (s *WorkRuleService) publish(rule *models.WorkRule, action string) {
	if s.eventBus == nil {
		return
	}
	payload := events.WorkRulePayload{RuleID: rule.ID, DayOfWeek: rule.DayOfWeek, Action: action}
	if err := s.eventBus.PublishJSON(events.EventWorkRulesChanged, payload); err != nil {
		s.logger.Error().Err(err).Int64("rule_id", rule.ID).Msg("publish event error")
	}
}
