package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPoolDefaults(t *testing.T) {
	p := Pool{}.withDefaults()
	assert.Equal(t, 10, p.MaxIdleConns)
	assert.Equal(t, 50, p.MaxOpenConns)
	assert.Equal(t, time.Hour, p.ConnMaxLifetime)

	// Explicit values survive untouched.
	p = Pool{MaxIdleConns: 2, MaxOpenConns: 8, ConnMaxLifetime: time.Minute}.withDefaults()
	assert.Equal(t, 2, p.MaxIdleConns)
	assert.Equal(t, 8, p.MaxOpenConns)
	assert.Equal(t, time.Minute, p.ConnMaxLifetime)
}

func TestPingAndClose(t *testing.T) {
	gormDB, err := gorm.Open(sqlite.Open("file:pingclose?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	db := &DB{gormDB}
	require.NoError(t, db.Ping(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}
