package apikeys

import (
	"gorm.io/gorm"

	"aiportal-backend/internal/config"
	"aiportal-backend/internal/errors"
	"aiportal-backend/internal/models"
	"aiportal-backend/internal/tokens"
)

// Issue creates a new API key for the user. The per-user cap counts every
// key the user holds, active or not, so deactivating a key does not free a
// slot.
func Issue(db *gorm.DB, userID uint, description string) (*models.APIKey, error) {
	limit := config.APIKeyLimit()

	var count int64
	if err := db.Model(&models.APIKey{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to count API keys")
	}
	if count >= int64(limit) {
		return nil, errors.ErrQuotaExceeded.WithDetails("API key limit reached")
	}

	key := models.APIKey{
		KeyString:    tokens.GenerateKeyString(),
		Description:  description,
		UserID:       userID,
		IsActive:     true,
		DailyLimit:   models.DefaultDailyLimit,
		MonthlyLimit: models.DefaultMonthlyLimit,
	}
	if err := db.Create(&key).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to create API key")
	}
	return &key, nil
}

// Toggle flips a key between active and inactive. Only the owner may do it.
func Toggle(db *gorm.DB, userID, keyID uint) (*models.APIKey, error) {
	key, err := owned(db, userID, keyID)
	if err != nil {
		return nil, err
	}

	key.IsActive = !key.IsActive
	if err := db.Model(key).Update("is_active", key.IsActive).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to update API key")
	}
	return key, nil
}

// Revoke permanently deletes a key the user owns.
func Revoke(db *gorm.DB, userID, keyID uint) error {
	key, err := owned(db, userID, keyID)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Delete(key).Error
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to delete API key")
	}
	return nil
}

// List returns the user's keys, newest first.
func List(db *gorm.DB, userID uint) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&keys).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to list API keys")
	}
	return keys, nil
}

func owned(db *gorm.DB, userID, keyID uint) (*models.APIKey, error) {
	var key models.APIKey
	if err := db.First(&key, keyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound.WithDetails("API key not found")
		}
		return nil, errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to load API key")
	}
	if key.UserID != userID {
		return nil, errors.ErrForbidden
	}
	return &key, nil
}
