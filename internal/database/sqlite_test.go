package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sshcollectorpro/sysvers/internal/config"
	"github.com/sshcollectorpro/sysvers/internal/model"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	db, err := OpenSQLite(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "nested", "sysvers.db")})
	require.NoError(t, err)
	defer Close(db)

	assert.True(t, db.Migrator().HasTable(&model.Device{}))
	assert.True(t, db.Migrator().HasTable(&model.CheckRecord{}))

	require.NoError(t, db.Create(&model.Device{Name: "edge-1", Family: "cisco"}).Error)
	var got model.Device
	require.NoError(t, db.Where("name = ?", "edge-1").First(&got).Error)
	assert.Equal(t, 22, got.Port)
}

func TestOpenSQLiteEmptyPath(t *testing.T) {
	_, err := OpenSQLite(config.SQLiteConfig{})
	assert.Error(t, err)
}

func TestIsBusyError(t *testing.T) {
	assert.False(t, IsBusyError(nil))
	assert.True(t, IsBusyError(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, IsBusyError(errors.New("UNIQUE constraint failed")))
}

func TestTransactionWithRetry(t *testing.T) {
	db, err := OpenSQLite(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "retry.db")})
	require.NoError(t, err)
	defer Close(db)

	calls := 0
	err = TransactionWithRetry(db, func(tx *gorm.DB) error {
		calls++
		if calls < 2 {
			return errors.New("database is locked")
		}
		return tx.Create(&model.Device{Name: "core-1"}).Error
	}, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = TransactionWithRetry(db, func(*gorm.DB) error {
		calls++
		return errors.New("boom")
	}, 3, 0)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, calls)
}
