package auth

import (
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	"gorm.io/gorm"

	"aiportal-backend/internal/models"
)

var (
	oauthProvidersMu sync.RWMutex
	oauthProviders   = make(map[string]bool)
)

// InitOAuth initializes OAuth providers from environment variables
func InitOAuth() {
	resetOAuthProviders()

	var providers []goth.Provider

	// GitHub OAuth
	if os.Getenv("GITHUB_CLIENT_ID") != "" && os.Getenv("GITHUB_CLIENT_SECRET") != "" {
		callbackURL := os.Getenv("GITHUB_CALLBACK_URL")
		if callbackURL == "" {
			callbackURL = "http://localhost:8080/api/v1/auth/github/callback"
		}

		providers = append(providers, github.New(
			os.Getenv("GITHUB_CLIENT_ID"),
			os.Getenv("GITHUB_CLIENT_SECRET"),
			callbackURL,
			"user:email",
		))
		markOAuthProviderConfigured("github")
		log.Println("✅ GitHub OAuth configured")
	}

	// Google OAuth
	if os.Getenv("GOOGLE_CLIENT_ID") != "" && os.Getenv("GOOGLE_CLIENT_SECRET") != "" {
		callbackURL := os.Getenv("GOOGLE_CALLBACK_URL")
		if callbackURL == "" {
			callbackURL = "http://localhost:8080/api/v1/auth/google/callback"
		}

		providers = append(providers, google.New(
			os.Getenv("GOOGLE_CLIENT_ID"),
			os.Getenv("GOOGLE_CLIENT_SECRET"),
			callbackURL,
			"email", "profile",
		))
		markOAuthProviderConfigured("google")
		log.Println("✅ Google OAuth configured")
	}

	if len(providers) > 0 {
		goth.UseProviders(providers...)
		log.Printf("✅ OAuth initialized with %d providers", len(providers))
	} else {
		log.Println("⚠️  No OAuth providers configured")
	}
}

func resetOAuthProviders() {
	oauthProvidersMu.Lock()
	defer oauthProvidersMu.Unlock()
	oauthProviders = make(map[string]bool)
}

func markOAuthProviderConfigured(provider string) {
	oauthProvidersMu.Lock()
	defer oauthProvidersMu.Unlock()
	oauthProviders[provider] = true
}

func IsOAuthProviderConfigured(provider string) bool {
	oauthProvidersMu.RLock()
	defer oauthProvidersMu.RUnlock()
	return oauthProviders[provider]
}

// HandleOAuthBegin starts the provider redirect flow.
func HandleOAuthBegin(c *gin.Context) {
	provider := c.Param("provider")
	if !IsOAuthProviderConfigured(provider) {
		c.JSON(http.StatusNotFound, gin.H{"error": "OAuth provider not configured"})
		return
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// HandleOAuthCallback completes the provider flow, provisioning a local
// account on first login and issuing the usual session cookie.
func HandleOAuthCallback(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := c.Param("provider")
		if !IsOAuthProviderConfigured(provider) {
			c.JSON(http.StatusNotFound, gin.H{"error": "OAuth provider not configured"})
			return
		}

		q := c.Request.URL.Query()
		q.Set("provider", provider)
		c.Request.URL.RawQuery = q.Encode()

		gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "OAuth authentication failed"})
			return
		}
		if gothUser.Email == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "OAuth provider did not supply an email address"})
			return
		}

		var user models.User
		err = db.Where("email = ?", gothUser.Email).First(&user).Error
		if err == gorm.ErrRecordNotFound {
			username := gothUser.NickName
			if username == "" {
				username = gothUser.Name
			}
			user = models.User{
				Username: username,
				Email:    gothUser.Email,
				IsActive: true,
			}
			if err := db.Create(&user).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
				return
			}
			log.Printf("Provisioned user %s via %s OAuth", user.Email, provider)
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "User account is disabled"})
			return
		}

		token, expiry, csrfToken, err := GenerateToken(user.ID, user.Username, user.Email, user.IsAdmin)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}

		SetAuthCookie(c, token, expiry, csrfToken)
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"user":    user,
		})
	}
}
