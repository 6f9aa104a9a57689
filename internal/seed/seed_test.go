package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"coachbook/internal/database"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
services:
  - name: Leg Day Session
    duration_minutes: 60
  - name: Retired Class
    duration_minutes: 30
    is_active: false
work_rules:
  - { day_of_week: 1, start_time: "09:00", end_time: "12:00", slot_minutes: 30 }
  - { day_of_week: 1, start_time: "14:00", end_time: "16:00" }
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.SetLocation(time.UTC)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadAndApply(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	f, err := Load(writeSeed(t, sample))
	require.NoError(t, err)
	require.Len(t, f.Services, 2)
	require.Len(t, f.WorkRules, 2)

	res, err := Apply(ctx, db, f, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Services: 2, WorkRules: 2}, res)

	active, err := db.ListActiveServices(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Leg Day Session", active[0].Name)

	rules, err := db.WorkRulesByDay(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 30, rules[1].SlotMinutes, "slot defaults to 30 minutes")

	t.Run("rerun is idempotent", func(t *testing.T) {
		res, err := Apply(ctx, db, f, nil)
		require.NoError(t, err)
		assert.Equal(t, Result{Services: 2, SkippedRules: 2}, res)

		rules, err := db.ListWorkRules(ctx)
		require.NoError(t, err)
		assert.Len(t, rules, 2)
	})
}

func TestApply_InvalidRule(t *testing.T) {
	db := newDB(t)

	f := &File{WorkRules: []WorkRule{{DayOfWeek: 2, StartTime: "12:00", EndTime: "09:00", SlotMinutes: 30}}}
	_, err := Apply(context.Background(), db, f, nil)
	assert.Error(t, err)

	f = &File{WorkRules: []WorkRule{{DayOfWeek: 2, StartTime: "noon", EndTime: "13:00"}}}
	_, err = Apply(context.Background(), db, f, nil)
	assert.Error(t, err)
}

func TestApply_RejectsSeconds(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	f := &File{WorkRules: []WorkRule{{DayOfWeek: 2, StartTime: "09:00:30", EndTime: "12:00", SlotMinutes: 30}}}
	_, err := Apply(ctx, db, f, nil)
	assert.Error(t, err)

	rules, err := db.WorkRulesByDay(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeSeed(t, "services: [::"))
	assert.Error(t, err)
}
