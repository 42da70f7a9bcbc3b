package usage

import (
	"time"

	"gorm.io/gorm"

	"aiportal-backend/internal/metrics"
	"aiportal-backend/internal/models"
)

// Event describes one access to record.
type Event struct {
	UserID     uint
	ServiceID  uint
	APIKeyID   *uint
	Endpoint   string
	UsageType  string
	RemoteAddr string
	StatusCode int
}

// Record appends one usage log row and bumps the owning user's counter.
// Usage logs are append-only; this is the only write path they have.
func Record(db *gorm.DB, event Event) error {
	entry := models.UsageLog{
		UserID:     event.UserID,
		ServiceID:  event.ServiceID,
		APIKeyID:   event.APIKeyID,
		Endpoint:   event.Endpoint,
		UsageType:  event.UsageType,
		UsageCount: 1,
		Timestamp:  time.Now(),
		RemoteAddr: event.RemoteAddr,
		StatusCode: event.StatusCode,
	}

	if err := db.Create(&entry).Error; err != nil {
		return err
	}

	if err := db.Model(&models.User{}).Where("id = ?", event.UserID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
		return err
	}

	metrics.UsageEvents.WithLabelValues(event.UsageType).Inc()
	return nil
}
