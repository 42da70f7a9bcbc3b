package catalog

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"aiportal-backend/internal/database"
	apperrors "aiportal-backend/internal/errors"
	"aiportal-backend/internal/models"
	"aiportal-backend/pkg/utils"
)

// Search returns active services matching the query. An empty query returns
// the whole active catalog in store order. Matching is a case-insensitive
// substring test over name, description and keywords.
func Search(db *gorm.DB, query string) ([]models.Service, error) {
	tx := db.Where("is_active = ?", true)

	query = strings.TrimSpace(query)
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		tx = tx.Where(
			"LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(keywords) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var services []models.Service
	if err := tx.Find(&services).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to search services")
	}
	return services, nil
}

// HandleListServices handles GET /api/services
func HandleListServices(c *gin.Context) {
	services, err := Search(database.DB, c.Query("q"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"count":    len(services),
	})
}

// HandleGetService handles GET /api/services/:id. When a logged-in user makes
// the request the response carries their subscription status for the service.
func HandleGetService(c *gin.Context) {
	var service models.Service
	if err := database.DB.First(&service, c.Param("id")).Error; err != nil {
		utils.SendAppError(c, apperrors.ErrNotFound.WithDetails("service not found"))
		return
	}

	response := gin.H{"service": service}

	if userID := c.GetUint("user_id"); userID != 0 {
		var sub models.Subscription
		err := database.DB.Where("user_id = ? AND service_id = ?", userID, service.ID).First(&sub).Error
		if err == nil {
			response["subscription_status"] = sub.Status
		} else {
			response["subscription_status"] = nil
		}
	}

	c.JSON(http.StatusOK, response)
}
