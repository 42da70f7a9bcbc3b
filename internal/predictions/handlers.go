package predictions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aiportal-backend/internal/database"
	apperrors "aiportal-backend/internal/errors"
	"aiportal-backend/internal/models"
	"aiportal-backend/internal/subscriptions"
	"aiportal-backend/internal/usage"
	"aiportal-backend/pkg/utils"
)

// The predict endpoints are stubs: they validate access, persist the request
// as a PredictionResult row and answer with a canned class. No model runs
// behind them.

const (
	irisStubClass = "setosa"
	loanStubClass = "approved"
)

// HandlePredictIris handles POST /api/v1/predict/iris
func HandlePredictIris(c *gin.Context) {
	var req struct {
		SepalLength float64 `json:"sepal_length" binding:"required"`
		SepalWidth  float64 `json:"sepal_width" binding:"required"`
		PetalLength float64 `json:"petal_length" binding:"required"`
		PetalWidth  float64 `json:"petal_width" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendAppError(c, apperrors.ErrValidationFailed.WithDetails(err.Error()))
		return
	}

	result := models.PredictionResult{
		ResultType:     models.ResultTypeIris,
		PredictedClass: irisStubClass,
		SepalLength:    &req.SepalLength,
		SepalWidth:     &req.SepalWidth,
		PetalLength:    &req.PetalLength,
		PetalWidth:     &req.PetalWidth,
	}
	servePrediction(c, "Iris Classifier", &result)
}

// HandlePredictLoan handles POST /api/v1/predict/loan
func HandlePredictLoan(c *gin.Context) {
	var req struct {
		LoanAmount      float64 `json:"loan_amount" binding:"required"`
		LoanTermMonths  int     `json:"loan_term_months" binding:"required"`
		ApplicantIncome float64 `json:"applicant_income" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendAppError(c, apperrors.ErrValidationFailed.WithDetails(err.Error()))
		return
	}

	result := models.PredictionResult{
		ResultType:      models.ResultTypeLoan,
		PredictedClass:  loanStubClass,
		LoanAmount:      &req.LoanAmount,
		LoanTermMonths:  &req.LoanTermMonths,
		ApplicantIncome: &req.ApplicantIncome,
	}
	servePrediction(c, "Loan Screening", &result)
}

// HandleGetPredictionHistory handles GET /api/v1/predictions
func HandleGetPredictionHistory(c *gin.Context) {
	userID := c.GetUint("user_id")

	var results []models.PredictionResult
	tx := database.DB.Where("user_id = ?", userID)
	if t := c.Query("type"); t != "" {
		tx = tx.Where("result_type = ?", t)
	}
	if err := tx.Order("created_at DESC").Limit(200).Find(&results).Error; err != nil {
		utils.SendAppError(c, apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to load predictions"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": results,
		"count":       len(results),
	})
}

func servePrediction(c *gin.Context, serviceName string, result *models.PredictionResult) {
	userID := c.GetUint("user_id")

	var service models.Service
	if err := database.DB.Where("name = ?", serviceName).First(&service).Error; err != nil {
		utils.SendAppError(c, apperrors.ErrNotFound.WithDetails("service not found"))
		return
	}

	approved, err := subscriptions.HasApproved(database.DB, userID, service.ID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	if !approved {
		utils.SendAppError(c, apperrors.ErrForbidden.WithDetails("no approved subscription for this service"))
		return
	}

	result.UserID = userID
	result.ServiceID = service.ID

	usageType := models.UsageTypeWebUI
	var apiKeyID *uint
	if v, ok := c.Get("api_key"); ok {
		if key, ok := v.(models.APIKey); ok {
			apiKeyID = &key.ID
			usageType = models.UsageTypeAPIKey
		}
	}
	result.APIKeyID = apiKeyID

	if err := database.DB.Create(result).Error; err != nil {
		utils.SendAppError(c, apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to store prediction"))
		return
	}

	if err := usage.Record(database.DB, usage.Event{
		UserID:     userID,
		ServiceID:  service.ID,
		APIKeyID:   apiKeyID,
		Endpoint:   c.FullPath(),
		UsageType:  usageType,
		RemoteAddr: utils.GetClientIP(c),
		StatusCode: http.StatusOK,
	}); err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predicted_class": result.PredictedClass,
		"result":          result,
	})
}
