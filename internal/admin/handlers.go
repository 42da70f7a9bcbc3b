package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"aiportal-backend/internal/database"
	apperrors "aiportal-backend/internal/errors"
	"aiportal-backend/internal/models"
	"aiportal-backend/internal/subscriptions"
	"aiportal-backend/pkg/utils"
)

// HandleGetAdminStats handles GET /api/admin/stats
func HandleGetAdminStats(c *gin.Context) {
	var userCount, serviceCount, pendingCount, approvedCount int64
	database.DB.Model(&models.User{}).Count(&userCount)
	database.DB.Model(&models.Service{}).Count(&serviceCount)
	database.DB.Model(&models.Subscription{}).Where("status = ?", models.SubscriptionPending).Count(&pendingCount)
	database.DB.Model(&models.Subscription{}).Where("status = ?", models.SubscriptionApproved).Count(&approvedCount)

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"total_users":            userCount,
			"total_services":         serviceCount,
			"pending_subscriptions":  pendingCount,
			"approved_subscriptions": approvedCount,
		},
	})
}

// HandleListAllSubscriptions handles GET /api/admin/subscriptions
func HandleListAllSubscriptions(c *gin.Context) {
	tx := database.DB.Preload("User").Preload("Service")
	if status := c.Query("status"); status != "" {
		tx = tx.Where("status = ?", status)
	}

	var subs []models.Subscription
	if err := tx.Order("request_date DESC").Find(&subs).Error; err != nil {
		utils.SendAppError(c, apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to list subscriptions"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"count":         len(subs),
	})
}

// HandleApproveSubscription handles POST /api/admin/subscriptions/:id/approve
func HandleApproveSubscription(c *gin.Context) {
	sub, ok := loadSubscription(c)
	if !ok {
		return
	}

	if err := subscriptions.Approve(database.DB, sub); err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Subscription approved",
		"subscription": sub,
	})
}

// HandleRejectSubscription handles POST /api/admin/subscriptions/:id/reject
func HandleRejectSubscription(c *gin.Context) {
	sub, ok := loadSubscription(c)
	if !ok {
		return
	}

	if err := subscriptions.Reject(database.DB, sub); err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Subscription rejected",
		"subscription": sub,
	})
}

func loadSubscription(c *gin.Context) (*models.Subscription, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendAppError(c, apperrors.ErrValidationFailed.WithDetails("invalid subscription id"))
		return nil, false
	}

	var sub models.Subscription
	if err := database.DB.First(&sub, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.SendAppError(c, apperrors.ErrNotFound.WithDetails("subscription not found"))
		} else {
			utils.SendAppError(c, apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to load subscription"))
		}
		return nil, false
	}
	return &sub, true
}

// HandleListUsers handles GET /api/admin/users
func HandleListUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		utils.SendAppError(c, apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to list users"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// HandleSetUserActive handles POST /api/admin/users/:id/active
func HandleSetUserActive(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendAppError(c, apperrors.ErrValidationFailed.WithDetails("invalid user id"))
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendAppError(c, apperrors.ErrValidationFailed.WithDetails(err.Error()))
		return
	}

	var user models.User
	if err := database.DB.First(&user, uint(id)).Error; err != nil {
		utils.SendAppError(c, apperrors.ErrNotFound.WithDetails("user not found"))
		return
	}

	if err := database.DB.Model(&user).Update("is_active", *req.IsActive).Error; err != nil {
		utils.SendAppError(c, apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to update user"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated", "user": user})
}

// HandleCreateService handles POST /api/admin/services
func HandleCreateService(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,max=100"`
		Description string `json:"description"`
		Keywords    string `json:"keywords" binding:"max=200"`
		Endpoint    string `json:"endpoint" binding:"max=255"`
		Price       int    `json:"price"`
		IsAuto      bool   `json:"is_auto"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendAppError(c, apperrors.ErrValidationFailed.WithDetails(err.Error()))
		return
	}

	var existing models.Service
	if err := database.DB.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		utils.SendAppError(c, apperrors.ErrAlreadyExists.WithDetails("service name already in use"))
		return
	}

	service := models.Service{
		Name:        req.Name,
		Description: req.Description,
		Keywords:    req.Keywords,
		Endpoint:    req.Endpoint,
		Price:       req.Price,
		IsAuto:      req.IsAuto,
		IsActive:    true,
	}
	if err := database.DB.Create(&service).Error; err != nil {
		utils.SendAppError(c, apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to create service"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Service created", "service": service})
}

// HandleUpdateService handles PUT /api/admin/services/:id
func HandleUpdateService(c *gin.Context) {
	var service models.Service
	if err := database.DB.First(&service, c.Param("id")).Error; err != nil {
		utils.SendAppError(c, apperrors.ErrNotFound.WithDetails("service not found"))
		return
	}

	var req struct {
		Name        *string `json:"name" binding:"omitempty,max=100"`
		Description *string `json:"description"`
		Keywords    *string `json:"keywords" binding:"omitempty,max=200"`
		Endpoint    *string `json:"endpoint" binding:"omitempty,max=255"`
		Price       *int    `json:"price"`
		IsAuto      *bool   `json:"is_auto"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendAppError(c, apperrors.ErrValidationFailed.WithDetails(err.Error()))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Keywords != nil {
		updates["keywords"] = *req.Keywords
	}
	if req.Endpoint != nil {
		updates["endpoint"] = *req.Endpoint
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.IsAuto != nil {
		updates["is_auto"] = *req.IsAuto
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Nothing to update", "service": service})
		return
	}

	if err := database.DB.Model(&service).Updates(updates).Error; err != nil {
		utils.SendAppError(c, apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to update service"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service updated", "service": service})
}
