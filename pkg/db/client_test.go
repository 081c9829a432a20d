package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sweetdelights/bakery-backend/pkg/config"
	"github.com/sweetdelights/bakery-backend/pkg/logger"
)

type ledgerRow struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&ledgerRow{}))
	return conn
}

func TestNewOpensSQLiteWhenConfigured(t *testing.T) {
	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}
	client, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, "sqlite", client.DB().Dialector.Name())
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	require.Error(t, err)
}

func TestIsUniqueViolationDetectsSQLite(t *testing.T) {
	conn := newTestDB(t)
	require.NoError(t, conn.Create(&ledgerRow{Name: "dup"}).Error)
	err := conn.Create(&ledgerRow{Name: "dup"}).Error
	require.Error(t, err)

	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(nil, ""))
	assert.False(t, IsUniqueViolation(errors.New("timeout"), ""))
}
