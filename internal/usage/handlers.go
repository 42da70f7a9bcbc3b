package usage

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aiportal-backend/internal/database"
	"aiportal-backend/internal/models"
)

// HandleGetUsageHistory returns the caller's usage log, newest first.
func HandleGetUsageHistory(c *gin.Context) {
	userID := c.GetUint("user_id")

	var logs []models.UsageLog
	if err := database.DB.Where("user_id = ?", userID).Order("timestamp DESC").Limit(200).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch usage history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
	})
}

// HandleGetDashboard returns the caller's my-page summary: key count,
// subscription counts by status, recent activity, and this month's usage.
func HandleGetDashboard(c *gin.Context) {
	userID := c.GetUint("user_id")

	var keyCount, approvedCount, pendingCount int64
	database.DB.Model(&models.APIKey{}).Where("user_id = ?", userID).Count(&keyCount)
	database.DB.Model(&models.Subscription{}).Where("user_id = ? AND status = ?", userID, models.SubscriptionApproved).Count(&approvedCount)
	database.DB.Model(&models.Subscription{}).Where("user_id = ? AND status = ?", userID, models.SubscriptionPending).Count(&pendingCount)

	var recentLogs []models.UsageLog
	database.DB.Where("user_id = ?", userID).Order("timestamp DESC").Limit(5).Find(&recentLogs)

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var monthlyUsage int64
	database.DB.Model(&models.UsageLog{}).
		Where("user_id = ? AND timestamp >= ?", userID, monthStart).
		Select("COALESCE(SUM(usage_count), 0)").
		Scan(&monthlyUsage)

	c.JSON(http.StatusOK, gin.H{
		"total_api_keys":         keyCount,
		"approved_subscriptions": approvedCount,
		"pending_subscriptions":  pendingCount,
		"recent_usage_logs":      recentLogs,
		"monthly_usage":          monthlyUsage,
	})
}
