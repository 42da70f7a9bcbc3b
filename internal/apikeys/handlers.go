package apikeys

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aiportal-backend/internal/database"
	apperrors "aiportal-backend/internal/errors"
	"aiportal-backend/pkg/utils"
)

// HandleListAPIKeys handles GET /api/keys
func HandleListAPIKeys(c *gin.Context) {
	userID := c.GetUint("user_id")

	keys, err := List(database.DB, userID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"api_keys": keys,
		"count":    len(keys),
	})
}

// HandleCreateAPIKey handles POST /api/keys
func HandleCreateAPIKey(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req struct {
		Description string `json:"description" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendAppError(c, apperrors.ErrValidationFailed.WithDetails(err.Error()))
		return
	}

	key, err := Issue(database.DB, userID, req.Description)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "API key created",
		"api_key": key,
	})
}

// HandleToggleAPIKey handles POST /api/keys/:id/toggle
func HandleToggleAPIKey(c *gin.Context) {
	userID := c.GetUint("user_id")

	keyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendAppError(c, apperrors.ErrValidationFailed.WithDetails("invalid key id"))
		return
	}

	key, err := Toggle(database.DB, userID, uint(keyID))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	state := "deactivated"
	if key.IsActive {
		state = "activated"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "API key " + state,
		"api_key": key,
	})
}

// HandleDeleteAPIKey handles DELETE /api/keys/:id
func HandleDeleteAPIKey(c *gin.Context) {
	userID := c.GetUint("user_id")

	keyID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.SendAppError(c, apperrors.ErrValidationFailed.WithDetails("invalid key id"))
		return
	}

	if err := Revoke(database.DB, userID, uint(keyID)); err != nil {
		utils.SendAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "API key deleted"})
}
