package subscriptions

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aiportal-backend/internal/database"
	apperrors "aiportal-backend/internal/errors"
	"aiportal-backend/internal/models"
	"aiportal-backend/pkg/utils"
)

// HandleRequestSubscription handles POST /api/services/:id/subscribe
func HandleRequestSubscription(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		utils.SendAppError(c, apperrors.ErrUnauthorized)
		return
	}

	var service models.Service
	if err := database.DB.First(&service, c.Param("id")).Error; err != nil {
		utils.SendAppError(c, apperrors.ErrNotFound.WithDetails("service not found"))
		return
	}

	sub, err := Request(database.DB, &user, &service)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrAlreadyExists) && sub != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":        "Already requested",
				"status":       sub.Status,
				"subscription": sub,
			})
			return
		}
		utils.SendAppError(c, err)
		return
	}

	message := "Subscription request submitted"
	if sub.Status == models.SubscriptionApproved {
		message = "Subscription approved"
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      message,
		"subscription": sub,
	})
}

// HandleGetApprovedSubscriptions handles GET /api/subscriptions/approved
func HandleGetApprovedSubscriptions(c *gin.Context) {
	listForStatus(c, models.SubscriptionApproved)
}

// HandleGetPendingSubscriptions handles GET /api/subscriptions/pending
func HandleGetPendingSubscriptions(c *gin.Context) {
	listForStatus(c, models.SubscriptionPending)
}

// HandleGetRejectedSubscriptions handles GET /api/subscriptions/rejected
func HandleGetRejectedSubscriptions(c *gin.Context) {
	listForStatus(c, models.SubscriptionRejected)
}

func listForStatus(c *gin.Context, status string) {
	userID := c.GetUint("user_id")

	subs, err := ListByStatus(database.DB, userID, status)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"count":         len(subs),
		"status":        status,
	})
}
