package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"coachbook/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	tempDir := t.TempDir()
	storagePath := filepath.Join(tempDir, "backups")

	db, err := NewDB(filepath.Join(tempDir, "source.db"), nil)
	require.NoError(t, err)
	defer db.Close()
	seedService(t, db, "Leg Day Session", 60, true)

	cfg := config.BackupConfig{
		Enabled:       true,
		StoragePath:   storagePath,
		RetentionDays: 1,
	}
	logger := zerolog.Nop()
	s := NewBackupService(db, cfg, &logger)

	var backupPath string
	t.Run("PerformBackup", func(t *testing.T) {
		backupPath, err = s.PerformBackup(context.Background())
		require.NoError(t, err)
		assert.FileExists(t, backupPath)

		restored, err := NewDB(backupPath, nil)
		require.NoError(t, err)
		defer restored.Close()

		services, err := restored.ListActiveServices(context.Background())
		require.NoError(t, err)
		assert.Len(t, services, 1)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, backupPrefix+"old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		foreign := filepath.Join(storagePath, "notes.txt")
		require.NoError(t, os.WriteFile(foreign, []byte("keep"), 0o644))

		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))
		require.NoError(t, os.Chtimes(foreign, oldTime, oldTime))

		s.CleanupOldBackups(time.Now())

		assert.NoFileExists(t, oldFile)
		assert.FileExists(t, foreign)
		assert.FileExists(t, backupPath)
	})
}

func TestBackupService_Disabled(t *testing.T) {
	db := setupTestDB(t)
	logger := zerolog.Nop()
	s := NewBackupService(db, config.BackupConfig{Enabled: true, StoragePath: t.TempDir()}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// in-memory databases are never backed up
	s.Start(ctx)

	s = NewBackupService(db, config.BackupConfig{Enabled: false}, &logger)
	s.Start(ctx)
}
