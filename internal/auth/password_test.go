package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"aiportal-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func TestRecordFailedLoginLocksAfterFiveAttempts(t *testing.T) {
	db := newTestDB(t)

	user := &models.User{Username: "tester", Email: "lockout@example.com", IsActive: true}
	require.NoError(t, user.SetPassword("correct horse battery staple"))
	require.NoError(t, db.Create(user).Error)

	for i := 0; i < 4; i++ {
		require.NoError(t, RecordFailedLogin(db, user))
		assert.False(t, IsAccountLocked(user), "attempt %d should not lock", i+1)
	}

	require.NoError(t, RecordFailedLogin(db, user))
	assert.True(t, IsAccountLocked(user))
	require.NotNil(t, user.LockedUntil)
}

func TestRecordSuccessfulLoginResetsLockout(t *testing.T) {
	db := newTestDB(t)

	user := &models.User{Username: "tester", Email: "reset@example.com", IsActive: true}
	require.NoError(t, user.SetPassword("correct horse battery staple"))
	require.NoError(t, db.Create(user).Error)

	for i := 0; i < 3; i++ {
		require.NoError(t, RecordFailedLogin(db, user))
	}
	require.NoError(t, RecordSuccessfulLogin(db, user))

	assert.Zero(t, user.FailedLoginAttempts)
	assert.Nil(t, user.LockedUntil)
	assert.False(t, IsAccountLocked(user))

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Zero(t, stored.FailedLoginAttempts)
}
