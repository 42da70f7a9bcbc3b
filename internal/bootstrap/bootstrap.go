package bootstrap

import (
	"log"
	"os"
	"strings"

	"gorm.io/gorm"

	"aiportal-backend/internal/models"
)

// Run wires up the admin account and the demo service catalog that local
// Docker Compose stacks expect.
func Run(db *gorm.DB) {
	if db == nil {
		log.Println("bootstrap: skipping; database not initialized")
		return
	}

	ensureAdminUser(db)
	seedCatalog(db)
}

func ensureAdminUser(db *gorm.DB) {
	email := strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	if email == "" {
		email = "admin@aiportal.local"
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err == nil {
		if !user.IsAdmin {
			_ = db.Model(&user).Update("is_admin", true).Error
		}
		return
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "Orbit#Nova42"
	}

	username := strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	if username == "" {
		username = "admin"
	}

	user = models.User{
		Username: username,
		Email:    email,
		IsAdmin:  true,
		IsActive: true,
	}
	if err := user.SetPassword(password); err != nil {
		log.Printf("bootstrap: failed to hash admin password: %v", err)
		return
	}

	if err := db.Create(&user).Error; err != nil {
		log.Printf("bootstrap: failed to create admin user %s: %v", email, err)
		return
	}

	log.Printf("bootstrap: created admin user %s", email)
}

// seedCatalog populates the demo services on an empty catalog. Existing rows
// are left alone so operators can edit the catalog without bootstrap undoing
// their changes.
func seedCatalog(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.Service{}).Count(&count).Error; err != nil {
		log.Printf("bootstrap: failed to inspect service catalog: %v", err)
		return
	}
	if count > 0 {
		return
	}

	services := []models.Service{
		{
			Name:        "Iris Classifier",
			Description: "Classifies iris flowers into setosa, versicolor or virginica from sepal and petal measurements.",
			Keywords:    "iris,classification,botany,demo",
			Endpoint:    "/api/v1/predict/iris",
			IsActive:    true,
			IsAuto:      true,
		},
		{
			Name:        "Loan Screening",
			Description: "Screens loan applications and returns an approve or deny recommendation.",
			Keywords:    "loan,finance,screening,risk",
			Endpoint:    "/api/v1/predict/loan",
			IsActive:    true,
			IsAuto:      false,
		},
	}

	for _, service := range services {
		if err := db.Create(&service).Error; err != nil {
			log.Printf("bootstrap: failed to seed service %q: %v", service.Name, err)
			continue
		}
		log.Printf("bootstrap: seeded service %q (ID %d)", service.Name, service.ID)
	}
}
