package apikeys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "aiportal-backend/internal/errors"
	"aiportal-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.APIKey{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Username: "tester", Email: email, IsActive: true}
	require.NoError(t, user.SetPassword("correct horse battery staple"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestIssueGeneratesUniqueKeys(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "keys@example.com")

	first, err := Issue(db, user.ID, "ci pipeline")
	require.NoError(t, err)
	second, err := Issue(db, user.ID, "laptop")
	require.NoError(t, err)

	assert.Len(t, first.KeyString, 32)
	assert.Len(t, second.KeyString, 32)
	assert.NotEqual(t, first.KeyString, second.KeyString)
	assert.True(t, first.IsActive)
	assert.Equal(t, "ci pipeline", first.Description)
}

func TestIssueEnforcesPerUserCap(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "cap@example.com")

	for i := 0; i < 5; i++ {
		_, err := Issue(db, user.ID, "")
		require.NoError(t, err)
	}

	_, err := Issue(db, user.ID, "one too many")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrQuotaExceeded))
}

func TestCapCountsInactiveKeys(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "inactive-cap@example.com")

	var firstID uint
	for i := 0; i < 5; i++ {
		key, err := Issue(db, user.ID, "")
		require.NoError(t, err)
		if i == 0 {
			firstID = key.ID
		}
	}

	// Deactivating a key does not free a slot.
	key, err := Toggle(db, user.ID, firstID)
	require.NoError(t, err)
	require.False(t, key.IsActive)

	_, err = Issue(db, user.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrQuotaExceeded))
}

func TestDeleteFreesSlot(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "free-slot@example.com")

	var firstID uint
	for i := 0; i < 5; i++ {
		key, err := Issue(db, user.ID, "")
		require.NoError(t, err)
		if i == 0 {
			firstID = key.ID
		}
	}

	require.NoError(t, Revoke(db, user.ID, firstID))

	_, err := Issue(db, user.ID, "replacement")
	require.NoError(t, err)
}

func TestToggleFlipsState(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "toggle@example.com")

	key, err := Issue(db, user.ID, "")
	require.NoError(t, err)
	require.True(t, key.IsActive)

	key, err = Toggle(db, user.ID, key.ID)
	require.NoError(t, err)
	assert.False(t, key.IsActive)

	key, err = Toggle(db, user.ID, key.ID)
	require.NoError(t, err)
	assert.True(t, key.IsActive)
}

func TestToggleRequiresOwnership(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "owner@example.com")
	intruder := createUser(t, db, "intruder@example.com")

	key, err := Issue(db, owner.ID, "")
	require.NoError(t, err)

	_, err = Toggle(db, intruder.ID, key.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	var stored models.APIKey
	require.NoError(t, db.First(&stored, key.ID).Error)
	assert.True(t, stored.IsActive)
}

func TestRevokeRequiresOwnership(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "revoke-owner@example.com")
	intruder := createUser(t, db, "revoke-intruder@example.com")

	key, err := Issue(db, owner.ID, "")
	require.NoError(t, err)

	err = Revoke(db, intruder.ID, key.ID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	var count int64
	require.NoError(t, db.Model(&models.APIKey{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRevokeDeletesKey(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "revoke@example.com")

	key, err := Issue(db, user.ID, "")
	require.NoError(t, err)

	require.NoError(t, Revoke(db, user.ID, key.ID))

	err = db.First(&models.APIKey{}, key.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRevokeMissingKey(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "missing@example.com")

	err := Revoke(db, user.ID, 9999)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListScopedToUser(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, "list-alice@example.com")
	bob := createUser(t, db, "list-bob@example.com")

	_, err := Issue(db, alice.ID, "alice key")
	require.NoError(t, err)
	_, err = Issue(db, bob.ID, "bob key")
	require.NoError(t, err)

	keys, err := List(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, alice.ID, keys[0].UserID)
}
