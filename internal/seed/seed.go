// Package seed loads the service catalog and weekly work rules from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"coachbook/internal/database"
	"coachbook/internal/models"
	"coachbook/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type File struct {
	Services  []Service  `yaml:"services"`
	WorkRules []WorkRule `yaml:"work_rules"`
}

type Service struct {
	Name            string `yaml:"name"`
	DurationMinutes int    `yaml:"duration_minutes"`
	IsActive        *bool  `yaml:"is_active"`
}

type WorkRule struct {
	DayOfWeek   int    `yaml:"day_of_week"`
	StartTime   string `yaml:"start_time"`
	EndTime     string `yaml:"end_time"`
	SlotMinutes int    `yaml:"slot_minutes"`
}

// Store is the subset of the database the seeder writes through.
type Store interface {
	UpsertService(ctx context.Context, svc *models.Service) error
	CreateWorkRule(ctx context.Context, rule *models.WorkRule) error
}

type Result struct {
	Services     int
	WorkRules    int
	SkippedRules int
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Apply upserts services by name and adds work rules. A rule overlapping an existing
// one is skipped, so re-running a seed is a no-op for rules.
func Apply(ctx context.Context, store Store, f *File, logger *zerolog.Logger) (Result, error) {
	var res Result

	for _, s := range f.Services {
		if s.Name == "" {
			continue
		}
		svc := &models.Service{
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			IsActive:        s.IsActive == nil || *s.IsActive,
		}
		if err := store.UpsertService(ctx, svc); err != nil {
			return res, fmt.Errorf("seed service %q: %w", s.Name, err)
		}
		res.Services++
	}

	for i, r := range f.WorkRules {
		rule, err := r.toModel()
		if err != nil {
			return res, fmt.Errorf("work rule %d: %w", i, err)
		}
		if err := service.ValidateWorkRule(rule); err != nil {
			return res, fmt.Errorf("work rule %d: %w", i, err)
		}

		err = store.CreateWorkRule(ctx, rule)
		switch {
		case errors.Is(err, database.ErrWorkRuleOverlap):
			if logger != nil {
				logger.Debug().Int("day_of_week", rule.DayOfWeek).Str("start", rule.StartTime.String()).Msg("work rule already covered, skipping")
			}
			res.SkippedRules++
		case err != nil:
			return res, fmt.Errorf("seed work rule %d: %w", i, err)
		default:
			res.WorkRules++
		}
	}

	return res, nil
}

func (r WorkRule) toModel() (*models.WorkRule, error) {
	start, err := models.ParseClock(r.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := models.ParseClock(r.EndTime)
	if err != nil {
		return nil, err
	}
	slot := r.SlotMinutes
	if slot == 0 {
		slot = models.DefaultSlotMinutes
	}
	return &models.WorkRule{
		DayOfWeek:   r.DayOfWeek,
		StartTime:   start,
		EndTime:     end,
		SlotMinutes: slot,
	}, nil
}
