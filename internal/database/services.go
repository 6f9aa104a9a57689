package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coachbook/internal/models"
)

const serviceColumns = `id, name, duration_minutes, is_active, created_at, updated_at`

// UpsertService creates a service or updates the one with the same name.
func (db *DB) UpsertService(ctx context.Context, service *models.Service) error {
	if service.DurationMinutes <= 0 {
		service.DurationMinutes = models.DefaultServiceDuration
	}

	now := time.Now()
	query := `
        INSERT INTO services (name, duration_minutes, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            duration_minutes = excluded.duration_minutes,
            is_active = excluded.is_active,
            updated_at = excluded.updated_at
    `
	_, err := db.ExecContext(ctx, query,
		service.Name,
		service.DurationMinutes,
		service.IsActive,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert service %q: %w", service.Name, err)
	}

	err = db.QueryRowContext(ctx, `SELECT id, created_at FROM services WHERE name = ?`, service.Name).
		Scan(&service.ID, &service.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to reload service %q: %w", service.Name, err)
	}
	service.UpdatedAt = now
	return nil
}

// DeleteService removes the service together with its bookings.
func (db *DB) DeleteService(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`
	service, err := scanService(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return service, nil
}

// FindActiveService returns nil without error when the service is missing or inactive.
func (db *DB) FindActiveService(ctx context.Context, id int64) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = ? AND is_active = 1`
	service, err := scanService(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active service: %w", err)
	}
	return service, nil
}

func (db *DB) ListActiveServices(ctx context.Context) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE is_active = 1 ORDER BY name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []*models.Service{}
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, service)
	}
	return services, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (*models.Service, error) {
	var s models.Service
	if err := row.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
