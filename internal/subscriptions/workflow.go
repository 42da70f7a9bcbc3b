package subscriptions

import (
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"aiportal-backend/internal/errors"
	"aiportal-backend/internal/metrics"
	"aiportal-backend/internal/models"
)

// Request creates a subscription for user on service. Auto-approved services
// are approved immediately with an approval date; everything else starts
// pending. A repeated request reports the existing subscription's status
// instead of creating a second row.
func Request(db *gorm.DB, user *models.User, service *models.Service) (*models.Subscription, error) {
	if !service.IsActive {
		return nil, errors.ErrNotFound.WithDetails("service is not available")
	}

	var existing models.Subscription
	err := db.Where("user_id = ? AND service_id = ?", user.ID, service.ID).First(&existing).Error
	if err == nil {
		return &existing, errors.ErrAlreadyExists.WithDetails("subscription status: " + existing.Status)
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to query subscription")
	}

	sub := models.Subscription{
		UserID:      user.ID,
		ServiceID:   service.ID,
		Status:      models.SubscriptionPending,
		RequestDate: time.Now(),
	}
	if service.IsAuto {
		now := time.Now()
		sub.Status = models.SubscriptionApproved
		sub.ApprovalDate = &now
	}

	if err := db.Create(&sub).Error; err != nil {
		// Another request may have won the unique index race.
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			if db.Where("user_id = ? AND service_id = ?", user.ID, service.ID).First(&existing).Error == nil {
				return &existing, errors.ErrAlreadyExists.WithDetails("subscription status: " + existing.Status)
			}
		}
		return nil, errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to create subscription")
	}

	metrics.SubscriptionRequests.WithLabelValues(sub.Status).Inc()
	return &sub, nil
}

// Approve moves a subscription to approved and stamps the approval date.
func Approve(db *gorm.DB, sub *models.Subscription) error {
	now := time.Now()
	sub.Status = models.SubscriptionApproved
	sub.ApprovalDate = &now
	if err := db.Save(sub).Error; err != nil {
		return errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to update subscription")
	}
	metrics.SubscriptionTransitions.WithLabelValues(sub.Status).Inc()
	return nil
}

// Reject marks a subscription rejected and clears any approval date.
func Reject(db *gorm.DB, sub *models.Subscription) error {
	sub.Status = models.SubscriptionRejected
	sub.ApprovalDate = nil
	if err := db.Save(sub).Error; err != nil {
		return errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to update subscription")
	}
	metrics.SubscriptionTransitions.WithLabelValues(sub.Status).Inc()
	return nil
}

// HasApproved reports whether the user holds an approved subscription to the
// service.
func HasApproved(db *gorm.DB, userID, serviceID uint) (bool, error) {
	var count int64
	err := db.Model(&models.Subscription{}).
		Where("user_id = ? AND service_id = ? AND status = ?", userID, serviceID, models.SubscriptionApproved).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to count subscriptions")
	}
	return count > 0, nil
}

// ListByStatus returns the user's subscriptions with the given status, most
// recently requested first, with their services preloaded.
func ListByStatus(db *gorm.DB, userID uint, status string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := db.Preload("Service").
		Where("user_id = ? AND status = ?", userID, status).
		Order("request_date DESC").
		Find(&subs).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrPersistenceFailure.Code, "Failed to list subscriptions")
	}
	return subs, nil
}
