package auth

import (
	stderrors "errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"

	"aiportal-backend/internal/database"
	apperrors "aiportal-backend/internal/errors"
	"aiportal-backend/internal/models"
	"aiportal-backend/internal/sessions"
	"aiportal-backend/internal/usage"
	"aiportal-backend/pkg/utils"
)

// HandleRegister creates a new user account
func HandleRegister(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	database.DB.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		utils.SendErrorResponse(c, http.StatusConflict, apperrors.ErrAlreadyExists.WithDetails("Email is already registered"))
		return
	}

	user := models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    email,
		IsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := database.DB.Create(&user).Error; err != nil {
		// A concurrent registration may have won the unique index race.
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			utils.SendErrorResponse(c, http.StatusConflict, apperrors.ErrAlreadyExists.WithDetails("Email is already registered"))
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to create user"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    user,
	})
}

// HandleLogin handles user login
func HandleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		TOTPCode string `json:"totp_code,omitempty"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := database.DB.Where("email = ? AND is_active = ?", email, true).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondInvalidCredentials(c)
			return
		}
		utils.SendErrorResponse(c, http.StatusInternalServerError,
			apperrors.Wrap(err, apperrors.ErrPersistenceFailure.Code, "Failed to query user"))
		return
	}

	if IsAccountLocked(&user) {
		utils.SendErrorResponse(c, http.StatusLocked,
			apperrors.ErrAccountLocked.WithDetails("Account locked until "+user.LockedUntil.Format(time.RFC3339)))
		return
	}

	if !user.VerifyPassword(req.Password) {
		if err := RecordFailedLogin(database.DB, &user); err != nil {
			utils.HandleError(err, "record failed login")
		}
		respondInvalidCredentials(c)
		return
	}

	if user.MFAEnabled {
		if req.TOTPCode == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":        "TOTP code required",
				"mfa_required": true,
			})
			return
		}
		if !totp.Validate(req.TOTPCode, user.MFASecret) {
			if err := RecordFailedLogin(database.DB, &user); err != nil {
				utils.HandleError(err, "record failed login")
			}
			respondInvalidCredentials(c)
			return
		}
	}

	if err := RecordSuccessfulLogin(database.DB, &user); err != nil {
		utils.HandleError(err, "record successful login")
	}

	token, expiry, csrfToken, err := GenerateToken(user.ID, user.Username, user.Email, user.IsAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	if err := usage.Record(database.DB, usage.Event{
		UserID:     user.ID,
		Endpoint:   "/api/v1/auth/login",
		UsageType:  models.UsageTypeLogin,
		RemoteAddr: utils.GetClientIP(c),
		StatusCode: http.StatusOK,
	}); err != nil {
		utils.HandleError(err, "record login usage")
	}

	SetAuthCookie(c, token, expiry, csrfToken)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"token":      token,
		"expires_at": expiry,
		"user":       user,
	})
}

func respondInvalidCredentials(c *gin.Context) {
	utils.SendErrorResponse(c, http.StatusUnauthorized, apperrors.ErrInvalidCredentials)
}

// HandleLogout clears the session cookies
func HandleLogout(c *gin.Context) {
	ClearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// HandleGetProfile returns the authenticated user's profile
func HandleGetProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// HandleUpdateProfile updates the authenticated user's profile fields
func HandleUpdateProfile(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req struct {
		Username *string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}

	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
}

// HandleChangePassword changes the user's password. The current password
// must verify first; the new one is re-hashed and every existing session
// is revoked.
func HandleChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetUint("user_id")

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if !user.VerifyPassword(req.CurrentPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	if sessions.GlobalManager != nil {
		if err := sessions.GlobalManager.RevokeUser(user.ID); err != nil {
			log.Printf("Failed to revoke sessions for user %d: %v", user.ID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully. Please log in again."})
}

// HandleSetupMFA generates a TOTP secret for the user and returns the
// provisioning URL. MFA stays disabled until the first code verifies.
func HandleSetupMFA(c *gin.Context) {
	userID := c.GetUint("user_id")

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "AI Portal",
		AccountName: user.Email,
		SecretSize:  32,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate MFA secret"})
		return
	}

	user.MFASecret = key.Secret()
	user.MFAEnabled = false
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store MFA secret"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"secret": key.Secret(),
		"url":    key.URL(),
	})
}

// HandleEnableMFA verifies the first TOTP code and turns MFA on
func HandleEnableMFA(c *gin.Context) {
	var req struct {
		TOTPCode string `json:"totp_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetUint("user_id")

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.MFASecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "MFA setup has not been started"})
		return
	}

	if !totp.Validate(req.TOTPCode, user.MFASecret) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid TOTP code"})
		return
	}

	user.MFAEnabled = true
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enable MFA"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "MFA enabled"})
}

// HandleDisableMFA turns MFA off after re-verifying the password
func HandleDisableMFA(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetUint("user_id")

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if !user.VerifyPassword(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is incorrect"})
		return
	}

	user.MFAEnabled = false
	user.MFASecret = ""
	if err := database.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable MFA"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "MFA disabled"})
}

// HandleGetCSRFToken issues a CSRF token for cookie-based clients
func HandleGetCSRFToken(c *gin.Context) {
	csrfToken, err := generateCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate CSRF token"})
		return
	}

	expiry := time.Now().Add(24 * time.Hour)
	csrfCookie := &http.Cookie{
		Name:     CSRFCookieName,
		Value:    csrfToken,
		Path:     "/",
		Expires:  expiry,
		MaxAge:   int(time.Until(expiry).Seconds()),
		HttpOnly: false,
		Secure:   shouldUseSecureCookies(c),
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(c.Writer, csrfCookie)

	c.JSON(http.StatusOK, gin.H{"csrf_token": csrfToken})
}
