package predictions

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
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"aiportal-backend/internal/database"
	"aiportal-backend/internal/models"
)

func setupTest(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Service{},
		&models.Subscription{},
		&models.APIKey{},
		&models.UsageLog{},
		&models.PredictionResult{},
	))

	database.DB = db
	t.Cleanup(func() { database.DB = nil })
	return db
}

func newRouter(userID uint) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	router.POST("/api/v1/predict/iris", HandlePredictIris)
	router.POST("/api/v1/predict/loan", HandlePredictLoan)
	router.GET("/api/v1/predictions", HandleGetPredictionHistory)
	return router
}

func seedIrisAccess(t *testing.T, db *gorm.DB, approved bool) *models.User {
	t.Helper()

	user := &models.User{Username: "tester", Email: "predict@example.com", IsActive: true}
	require.NoError(t, user.SetPassword("correct horse battery staple"))
	require.NoError(t, db.Create(user).Error)

	service := &models.Service{
		Name:        "Iris Classifier",
		Description: "Classifies iris flowers",
		Keywords:    "iris",
		IsActive:    true,
		IsAuto:      true,
	}
	require.NoError(t, db.Create(service).Error)

	status := models.SubscriptionPending
	var approvalDate *time.Time
	if approved {
		status = models.SubscriptionApproved
		now := time.Now()
		approvalDate = &now
	}
	require.NoError(t, db.Create(&models.Subscription{
		UserID:       user.ID,
		ServiceID:    service.ID,
		Status:       status,
		RequestDate:  time.Now(),
		ApprovalDate: approvalDate,
	}).Error)

	return user
}

func irisPayload() *bytes.Reader {
	payload, _ := json.Marshal(map[string]float64{
		"sepal_length": 5.1,
		"sepal_width":  3.5,
		"petal_length": 1.4,
		"petal_width":  0.2,
	})
	return bytes.NewReader(payload)
}

func TestPredictIrisPersistsResult(t *testing.T) {
	db := setupTest(t)
	user := seedIrisAccess(t, db, true)
	router := newRouter(user.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/iris", irisPayload())
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		PredictedClass string `json:"predicted_class"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "setosa", body.PredictedClass)

	var result models.PredictionResult
	require.NoError(t, db.First(&result).Error)
	assert.Equal(t, models.ResultTypeIris, result.ResultType)
	assert.Equal(t, user.ID, result.UserID)
	require.NotNil(t, result.SepalLength)
	assert.InDelta(t, 5.1, *result.SepalLength, 0.001)
	assert.Nil(t, result.LoanAmount)

	var logCount int64
	require.NoError(t, db.Model(&models.UsageLog{}).Count(&logCount).Error)
	assert.EqualValues(t, 1, logCount)
}

func TestPredictIrisRequiresApprovedSubscription(t *testing.T) {
	db := setupTest(t)
	user := seedIrisAccess(t, db, false)
	router := newRouter(user.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/iris", irisPayload())
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, db.Model(&models.PredictionResult{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPredictIrisValidatesPayload(t *testing.T) {
	db := setupTest(t)
	user := seedIrisAccess(t, db, true)
	router := newRouter(user.ID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/iris", bytes.NewReader([]byte(`{"sepal_length": 5.1}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictionHistoryFiltersByType(t *testing.T) {
	db := setupTest(t)
	user := seedIrisAccess(t, db, true)

	sepal := 5.1
	amount := 12000.0
	require.NoError(t, db.Create(&models.PredictionResult{
		UserID: user.ID, ServiceID: 1, ResultType: models.ResultTypeIris,
		PredictedClass: "setosa", SepalLength: &sepal,
	}).Error)
	require.NoError(t, db.Create(&models.PredictionResult{
		UserID: user.ID, ServiceID: 2, ResultType: models.ResultTypeLoan,
		PredictedClass: "approved", LoanAmount: &amount,
	}).Error)

	router := newRouter(user.ID)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/predictions?type=iris", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count       int                       `json:"count"`
		Predictions []models.PredictionResult `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, models.ResultTypeIris, body.Predictions[0].ResultType)
}
