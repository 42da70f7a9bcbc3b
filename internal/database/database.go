package database

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB is the global database instance
var DB *gorm.DB

// GetEnvDefault gets an environment variable or returns a default value
func GetEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// InitDatabase initializes the database connection. DB_DRIVER selects the
// backend: postgres (default) for real deployments, sqlite for local
// development.
func InitDatabase() error {
	driver := strings.ToLower(GetEnvDefault("DB_DRIVER", "postgres"))

	var err error
	switch driver {
	case "sqlite":
		path := GetEnvDefault("DB_PATH", "aiportal.db")
		DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
		if err != nil {
			return fmt.Errorf("failed to open sqlite database %s: %w", path, err)
		}
	case "postgres":
		host := GetEnvDefault("DB_HOST", "localhost")
		port := GetEnvDefault("DB_PORT", "5432")
		user := GetEnvDefault("DB_USER", "aiportal")
		password := os.Getenv("DB_PASSWORD")
		dbname := GetEnvDefault("DB_NAME", "aiportal")

		// SSL defaults to require outside development
		sslMode := GetEnvDefault("DB_SSLMODE", "require")
		if os.Getenv("DB_SSLMODE") == "" && (os.Getenv("ENVIRONMENT") == "development" || os.Getenv("ENVIRONMENT") == "dev") {
			sslMode = "disable"
			log.Println("⚠️  Database SSL disabled for development environment")
		}

		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			host, user, password, dbname, port, sslMode)

		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	log.Println("✅ Database connected successfully")
	return nil
}

// RunMigrations runs all database migrations
func RunMigrations(models ...interface{}) error {
	if DB == nil {
		log.Println("⚠️  Skipping migrations: no database connection")
		return nil
	}

	log.Println("Running database migrations...")

	if err := DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Println("✅ Database migrations completed")
	return nil
}
