package models

import "time"

// Service is a bookable session type of the coach.
type Service struct {
	ID              int64     `yaml:"id" json:"id"`
	Name            string    `yaml:"name" json:"name"`
	DurationMinutes int       `yaml:"duration_minutes" json:"duration_minutes"`
	IsActive        bool      `yaml:"is_active" json:"is_active"`
	CreatedAt       time.Time `yaml:"-" json:"-"`
	UpdatedAt       time.Time `yaml:"-" json:"-"`
}
