package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aiportal-backend/internal/database"
	"aiportal-backend/internal/models"
)

var startTime = time.Now()

// UsageEvents counts recorded usage log events by type.
var UsageEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aiportal_usage_events_total",
	Help: "Number of usage events recorded, by usage type.",
}, []string{"usage_type"})

// SubscriptionRequests counts subscription requests by resulting status.
var SubscriptionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aiportal_subscription_requests_total",
	Help: "Number of subscription requests, by resulting status.",
}, []string{"status"})

// SubscriptionTransitions counts admin-driven status transitions.
var SubscriptionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aiportal_subscription_transitions_total",
	Help: "Number of subscription status transitions, by new status.",
}, []string{"status"})

// PrometheusHandler exposes the default registry at /metrics.
func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// HandleSystemMetrics returns system-level metrics as JSON
func HandleSystemMetrics(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var userCount, serviceCount, keyCount int64
	dbConnected := false
	if database.DB != nil {
		if sqlDB, err := database.DB.DB(); err == nil {
			if err := sqlDB.Ping(); err == nil {
				dbConnected = true
			}
		}
		database.DB.Model(&models.User{}).Count(&userCount)
		database.DB.Model(&models.Service{}).Count(&serviceCount)
		database.DB.Model(&models.APIKey{}).Count(&keyCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":     time.Since(startTime).Seconds(),
		"database_connected": dbConnected,
		"memory": gin.H{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"gc_runs":        m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
		"resources": gin.H{
			"users":    userCount,
			"services": serviceCount,
			"api_keys": keyCount,
		},
		"timestamp": time.Now(),
	})
}
