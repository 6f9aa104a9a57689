package schedule

import (
	"time"

	"coachbook/internal/models"
)

// Validate decides whether a booking of service at start on date is legal and returns its
// end time. Checks run in a fixed order and the first failure is reported. Whether the
// slot is still free is not checked here; the booking store decides that at insert time.
func (e *Engine) Validate(
	date time.Time,
	start models.TimeOfDay,
	now time.Time,
	rules []models.WorkRule,
	service *models.Service,
) (models.TimeOfDay, error) {
	if models.BeforeDay(date, now) {
		return 0, ErrPastDate
	}
	if service == nil || !service.IsActive {
		return 0, ErrServiceUnavailable
	}
	if len(rules) == 0 {
		return 0, ErrNoWorkingHours
	}
	if _, ok := e.MatchRule(start, rules); !ok {
		return 0, ErrTimeNotAvailable
	}

	end := start.AddMinutes(service.DurationMinutes)

	if models.SameDay(date, now) && start < models.ClockOf(now) {
		return 0, ErrPastTimeToday
	}

	return end, nil
}

// MatchRule finds the rule whose window and slot grid contain start.
func (e *Engine) MatchRule(start models.TimeOfDay, rules []models.WorkRule) (models.WorkRule, bool) {
	for _, rule := range rules {
		if !rule.Contains(start) {
			continue
		}
		if !models.OnGrid(start, rule.StartTime, rule.SlotMinutes) {
			continue
		}
		if !e.fits(start, rule) {
			continue
		}
		return rule, true
	}
	return models.WorkRule{}, false
}
