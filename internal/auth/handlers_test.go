package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"aiportal-backend/internal/database"
	"aiportal-backend/internal/models"
)

func newAuthRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database.DB = db
	t.Cleanup(func() { database.DB = nil })

	router := gin.New()
	router.POST("/api/v1/auth/register", HandleRegister)
	router.POST("/api/v1/auth/login", HandleLogin)
	return router
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	router := newAuthRouter(t, db)

	existing := &models.User{Username: "first", Email: "taken@example.com", IsActive: true}
	require.NoError(t, existing.SetPassword("correct horse battery staple"))
	require.NoError(t, db.Create(existing).Error)

	payload, _ := json.Marshal(map[string]string{
		"username": "second",
		"email":    "taken@example.com",
		"password": "another password",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterConcurrentDuplicateHitsUniqueIndex(t *testing.T) {
	db := newTestDB(t)
	router := newAuthRouter(t, db)

	// Slip a rival account in after the duplicate pre-check has passed,
	// right before the insert runs, so Create fails on the unique index.
	injected := false
	err := db.Callback().Create().Before("gorm:create").Register("rival_register", func(tx *gorm.DB) {
		if injected {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.User); !ok {
			return
		}
		injected = true
		rival := &models.User{Username: "rival", Email: "contended@example.com", IsActive: true}
		require.NoError(t, rival.SetPassword("rival password 123"))
		require.NoError(t, db.Session(&gorm.Session{NewDB: true}).Create(rival).Error)
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Callback().Create().Remove("rival_register"))
	})

	payload, _ := json.Marshal(map[string]string{
		"username": "loser",
		"email":    "contended@example.com",
		"password": "another password",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, injected)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "contended@example.com").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestLoginLockedAccountAnswers423(t *testing.T) {
	db := newTestDB(t)
	router := newAuthRouter(t, db)

	lockedUntil := time.Now().Add(30 * time.Minute)
	user := &models.User{
		Username:    "locked",
		Email:       "locked@example.com",
		IsActive:    true,
		LockedUntil: &lockedUntil,
	}
	require.NoError(t, user.SetPassword("correct horse battery staple"))
	require.NoError(t, db.Create(user).Error)

	payload, _ := json.Marshal(map[string]string{
		"email":    "locked@example.com",
		"password": "correct horse battery staple",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusLocked, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ACCOUNT_LOCKED", body["error"])
}
