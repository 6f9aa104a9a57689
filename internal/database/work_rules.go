package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coachbook/internal/models"
)

const workRuleColumns = `id, day_of_week, start_time, end_time, slot_minutes, created_at, updated_at`

func (db *DB) ListWorkRules(ctx context.Context) ([]*models.WorkRule, error) {
	query := `SELECT ` + workRuleColumns + ` FROM work_rules ORDER BY day_of_week, start_time`
	return queryWorkRules(ctx, db, query)
}

// WorkRulesByDay returns the rules of a weekday ordered by start time.
func (db *DB) WorkRulesByDay(ctx context.Context, day int) ([]models.WorkRule, error) {
	rules, err := workRulesByDay(ctx, db, day)
	if err != nil {
		return nil, err
	}
	out := make([]models.WorkRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, *r)
	}
	return out, nil
}

func (db *DB) GetWorkRule(ctx context.Context, id int64) (*models.WorkRule, error) {
	query := `SELECT ` + workRuleColumns + ` FROM work_rules WHERE id = ?`
	rule, err := scanWorkRule(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work rule: %w", err)
	}
	return rule, nil
}

// ExistsOverlap reports whether [start, end) intersects any rule of day other than excludeID.
func (db *DB) ExistsOverlap(ctx context.Context, day int, start, end models.TimeOfDay, excludeID int64) (bool, error) {
	return existsOverlap(ctx, db, day, start, end, excludeID)
}

// CreateWorkRule admits the rule only if it does not overlap another rule of the same
// weekday. Check and insert share one immediate transaction.
func (db *DB) CreateWorkRule(ctx context.Context, rule *models.WorkRule) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		overlap, err := existsOverlap(ctx, tx, rule.DayOfWeek, rule.StartTime, rule.EndTime, 0)
		if err != nil {
			return err
		}
		if overlap {
			return ErrWorkRuleOverlap
		}

		now := time.Now()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO work_rules (day_of_week, start_time, end_time, slot_minutes, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.SlotMinutes, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to create work rule: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		rule.ID = id
		rule.CreatedAt = now
		rule.UpdatedAt = now
		return nil
	})
}

func (db *DB) UpdateWorkRule(ctx context.Context, rule *models.WorkRule) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		overlap, err := existsOverlap(ctx, tx, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.ID)
		if err != nil {
			return err
		}
		if overlap {
			return ErrWorkRuleOverlap
		}

		now := time.Now()
		result, err := tx.ExecContext(ctx,
			`UPDATE work_rules SET day_of_week = ?, start_time = ?, end_time = ?, slot_minutes = ?, updated_at = ?
             WHERE id = ?`,
			rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.SlotMinutes, now, rule.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update work rule: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return ErrNotFound
		}
		rule.UpdatedAt = now
		return nil
	})
}

func (db *DB) DeleteWorkRule(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM work_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete work rule: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func existsOverlap(ctx context.Context, q querier, day int, start, end models.TimeOfDay, excludeID int64) (bool, error) {
	rules, err := workRulesByDay(ctx, q, day)
	if err != nil {
		return false, err
	}
	candidate := models.WorkRule{DayOfWeek: day, StartTime: start, EndTime: end}
	for _, r := range rules {
		if r.ID == excludeID {
			continue
		}
		if candidate.OverlapsWith(*r) {
			return true, nil
		}
	}
	return false, nil
}

func workRulesByDay(ctx context.Context, q querier, day int) ([]*models.WorkRule, error) {
	query := `SELECT ` + workRuleColumns + ` FROM work_rules WHERE day_of_week = ? ORDER BY start_time`
	return queryWorkRules(ctx, q, query, day)
}

func queryWorkRules(ctx context.Context, q querier, query string, args ...any) ([]*models.WorkRule, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work rules: %w", err)
	}
	defer rows.Close()

	rules := []*models.WorkRule{}
	for rows.Next() {
		rule, err := scanWorkRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanWorkRule(row rowScanner) (*models.WorkRule, error) {
	var r models.WorkRule
	err := row.Scan(&r.ID, &r.DayOfWeek, &r.StartTime, &r.EndTime, &r.SlotMinutes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
