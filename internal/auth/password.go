package auth

import (
	"time"

	"gorm.io/gorm"

	"aiportal-backend/internal/models"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 30 * time.Minute
)

// IsAccountLocked checks if a user account is locked
func IsAccountLocked(user *models.User) bool {
	return user.LockedUntil != nil && time.Now().Before(*user.LockedUntil)
}

// RecordFailedLogin records a failed login attempt
func RecordFailedLogin(db *gorm.DB, user *models.User) error {
	now := time.Now()
	user.FailedLoginAttempts++
	user.LastFailedLogin = &now

	if user.FailedLoginAttempts >= maxFailedLogins {
		lockUntil := now.Add(lockoutDuration)
		user.LockedUntil = &lockUntil
	}

	return db.Save(user).Error
}

// RecordSuccessfulLogin resets failed login attempts
func RecordSuccessfulLogin(db *gorm.DB, user *models.User) error {
	user.FailedLoginAttempts = 0
	user.LastFailedLogin = nil
	user.LockedUntil = nil
	return db.Save(user).Error
}
