package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"aiportal-backend/internal/admin"
	"aiportal-backend/internal/apikeys"
	"aiportal-backend/internal/auth"
	"aiportal-backend/internal/bootstrap"
	"aiportal-backend/internal/catalog"
	"aiportal-backend/internal/database"
	"aiportal-backend/internal/health"
	"aiportal-backend/internal/metrics"
	"aiportal-backend/internal/middleware"
	"aiportal-backend/internal/models"
	"aiportal-backend/internal/predictions"
	"aiportal-backend/internal/sessions"
	"aiportal-backend/internal/subscriptions"
	"aiportal-backend/internal/usage"
	"aiportal-backend/pkg/utils"
)

func main() {
	log.Println("🚀 Starting AI Portal API Server")
	startedAt := time.Now()

	// Initialize Sentry before other subsystems so we capture initialization errors
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		env := os.Getenv("SENTRY_ENVIRONMENT")
		release := os.Getenv("SENTRY_RELEASE")
		if release == "" {
			release = os.Getenv("GIT_COMMIT")
		}
		host, _ := os.Hostname()

		opts := sentry.ClientOptions{
			Dsn:         dsn,
			Environment: env,
			Release:     release,
		}
		if host != "" {
			opts.ServerName = host
		}

		if err := sentry.Init(opts); err != nil {
			log.Printf("Sentry initialization failed: %v", err)
		} else {
			sentry.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("service", "aiportal-backend")
			})
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run database migrations
	if database.DB != nil {
		log.Println("Running database migrations...")
		if err := database.DB.AutoMigrate(
			&models.User{},
			&models.Service{},
			&models.Subscription{},
			&models.APIKey{},
			&models.UsageLog{},
			&models.PredictionResult{},
		); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("✅ Database migrations completed")
		bootstrap.Run(database.DB)
	}

	// Initialize auth components
	auth.InitJWT()
	auth.InitOAuth()

	// Redis-backed session revocation (optional)
	if err := sessions.InitManager(); err != nil {
		log.Printf("⚠️ Session manager disabled: %v", err)
	}

	// Set up router
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	}))
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	if os.Getenv("ENABLE_SENTRY_DEBUG_ENDPOINT") == "true" {
		router.GET("/internal/sentry-test", func(c *gin.Context) {
			const msg = "Sentry debug endpoint hit"
			utils.CaptureSentryError(c, nil, msg, nil)
			_ = sentry.Flush(2 * time.Second)
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// CORS - MUST be first to handle OPTIONS requests
	corsConfig := middleware.SecureCORSConfig()
	router.Use(cors.New(corsConfig))

	// Security middleware - after CORS
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit())
	router.Use(middleware.GeneralRateLimit())

	// Health check endpoints
	router.GET("/health", health.HandleHealthCheck)
	router.GET("/ready", health.HandleSystemReady)
	router.GET("/metrics", metrics.PrometheusHandler())

	// API routes
	api := router.Group("/api/v1")
	{
		// Public catalog; the detail page shows the caller's subscription
		// status when a session is present
		api.GET("/services", catalog.HandleListServices)
		api.GET("/services/:id", auth.OptionalMiddleware(database.DB), catalog.HandleGetService)

		// Public auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.GET("/csrf-token", auth.HandleGetCSRFToken)
			authRoutes.POST("/login", middleware.LoginRateLimit(), auth.HandleLogin)
			authRoutes.POST("/register", middleware.RegisterRateLimit(), auth.HandleRegister)
			authRoutes.POST("/logout", auth.HandleLogout)
			authRoutes.GET("/oauth/:provider", auth.HandleOAuthBegin)
			authRoutes.GET("/oauth/:provider/callback", auth.HandleOAuthCallback(database.DB))
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(auth.Middleware(database.DB))
		protected.Use(auth.RequireCSRF())
		{
			// Profile management
			protected.GET("/profile", auth.HandleGetProfile)
			protected.PUT("/profile", auth.HandleUpdateProfile)
			protected.PUT("/profile/password", auth.HandleChangePassword)

			// MFA enrollment
			protected.POST("/profile/mfa/setup", auth.HandleSetupMFA)
			protected.POST("/profile/mfa/enable", auth.HandleEnableMFA)
			protected.POST("/profile/mfa/disable", auth.HandleDisableMFA)

			// Subscriptions
			protected.POST("/services/:id/subscribe", subscriptions.HandleRequestSubscription)
			protected.GET("/subscriptions/approved", subscriptions.HandleGetApprovedSubscriptions)
			protected.GET("/subscriptions/pending", subscriptions.HandleGetPendingSubscriptions)
			protected.GET("/subscriptions/rejected", subscriptions.HandleGetRejectedSubscriptions)

			// API key lifecycle
			keyRoutes := protected.Group("/keys")
			{
				keyRoutes.GET("", apikeys.HandleListAPIKeys)
				keyRoutes.POST("", apikeys.HandleCreateAPIKey)
				keyRoutes.POST("/:id/toggle", apikeys.HandleToggleAPIKey)
				keyRoutes.DELETE("/:id", apikeys.HandleDeleteAPIKey)
			}

			// Usage history + dashboard
			protected.GET("/usage", usage.HandleGetUsageHistory)
			protected.GET("/dashboard", usage.HandleGetDashboard)
			protected.GET("/predictions", predictions.HandleGetPredictionHistory)

			// Telemetry
			protected.GET("/metrics", metrics.HandleSystemMetrics)
		}

		// Admin routes
		adminRoutes := api.Group("/admin")
		adminRoutes.Use(auth.Middleware(database.DB), auth.AdminMiddleware(), auth.RequireCSRF())
		{
			adminRoutes.GET("/stats", admin.HandleGetAdminStats)
			adminRoutes.GET("/users", admin.HandleListUsers)
			adminRoutes.POST("/users/:id/active", admin.HandleSetUserActive)
			adminRoutes.GET("/subscriptions", admin.HandleListAllSubscriptions)
			adminRoutes.POST("/subscriptions/:id/approve", admin.HandleApproveSubscription)
			adminRoutes.POST("/subscriptions/:id/reject", admin.HandleRejectSubscription)
			adminRoutes.POST("/services", admin.HandleCreateService)
			adminRoutes.PUT("/services/:id", admin.HandleUpdateService)
		}

		// Predict endpoints accept an API key or a login session
		predictRoutes := api.Group("/predict")
		predictRoutes.Use(middleware.APIKeyOrSessionAuth(database.DB))
		{
			predictRoutes.POST("/iris", predictions.HandlePredictIris)
			predictRoutes.POST("/loan", predictions.HandlePredictLoan)
		}
	}

	// Status metrics endpoint (outside API group)
	router.GET("/status/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"uptime":   time.Since(startedAt).Seconds(),
			"version":  "1.0.0",
			"status":   "healthy",
			"started":  startedAt,
			"database": database.DB != nil,
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("✅ Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
