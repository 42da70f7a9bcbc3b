package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"aiportal-backend/internal/auth"
	"aiportal-backend/internal/models"
)

// APIKeyHeader carries the bearer key for programmatic access.
const APIKeyHeader = "X-API-Key"

// APIKeyOrSessionAuth authenticates a request either by API key or by the
// regular login session. Key-authenticated calls update the key's last_used
// and usage_count; handlers can read "api_key" from the context to tell the
// two apart.
func APIKeyOrSessionAuth(db *gorm.DB) gin.HandlerFunc {
	sessionAuth := auth.Middleware(db)
	return func(c *gin.Context) {
		keyString := strings.TrimSpace(c.GetHeader(APIKeyHeader))
		if keyString == "" {
			sessionAuth(c)
			return
		}

		var apiKey models.APIKey
		err := db.Where("key_string = ? AND is_active = ?", keyString, true).First(&apiKey).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or inactive API key"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			}
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, apiKey.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Key owner not found"})
			c.Abort()
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "User account is disabled"})
			c.Abort()
			return
		}

		now := time.Now()
		if err := db.Model(&apiKey).UpdateColumns(map[string]interface{}{
			"last_used_at": now,
			"usage_count":  gorm.Expr("usage_count + 1"),
		}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update key usage"})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("email", user.Email)
		c.Set("is_admin", user.IsAdmin)
		c.Set("user", user)
		c.Set("api_key", apiKey)

		c.Next()
	}
}
