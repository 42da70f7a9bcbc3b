package models

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Subscription lifecycle states.
const (
	SubscriptionPending  = "pending"
	SubscriptionApproved = "approved"
	SubscriptionRejected = "rejected"
)

// Usage log event classes.
const (
	UsageTypeLogin  = "login"
	UsageTypeAPIKey = "api_key"
	UsageTypeWebUI  = "web_ui"
)

// Default usage quotas applied to new users and API keys.
const (
	DefaultDailyLimit   = 1000
	DefaultMonthlyLimit = 5000
)

// ErrPasswordNotReadable is returned when a caller tries to read a stored
// credential back out of a User.
var ErrPasswordNotReadable = errors.New("password is not a readable attribute")

const bcryptCost = 12

type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"index"`
	Email        string `json:"email" gorm:"uniqueIndex"`
	PasswordHash string `json:"-"`
	IsAdmin      bool   `json:"is_admin" gorm:"default:false"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
	UsageCount   int    `json:"usage_count" gorm:"default:0"`
	DailyLimit   int    `json:"daily_limit" gorm:"default:1000"`
	MonthlyLimit int    `json:"monthly_limit" gorm:"default:5000"`

	// Login lockout bookkeeping
	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LockedUntil         *time.Time `json:"-"`
	LastFailedLogin     *time.Time `json:"-"`

	// MFA fields
	MFAEnabled bool   `json:"mfa_enabled" gorm:"default:false"`
	MFASecret  string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Subscriptions []Subscription `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	APIKeys       []APIKey       `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	UsageLogs     []UsageLog     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// SetPassword hashes the plaintext and stores only the hash. The plaintext is
// never persisted.
func (u *User) SetPassword(plaintext string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

// VerifyPassword checks a plaintext candidate against the stored hash.
func (u *User) VerifyPassword(plaintext string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}

// Password always fails: the stored credential has no read path.
func (u *User) Password() (string, error) {
	return "", ErrPasswordNotReadable
}

type Service struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;size:100;not null"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	IsAuto      bool      `json:"is_auto" gorm:"default:true"`
	Price       int       `json:"price" gorm:"default:0;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Keywords    string    `json:"keywords" gorm:"size:200;not null"`
	Endpoint    string    `json:"endpoint" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Subscriptions []Subscription `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	UsageLogs     []UsageLog     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Subscription records one user's request to use one catalog service. The
// (user_id, service_id) pair is unique at the database level; concurrent
// duplicate requests are resolved by that constraint, not by the handlers.
type Subscription struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	UserID       uint       `json:"user_id" gorm:"uniqueIndex:idx_user_service;not null"`
	User         User       `json:"-" gorm:"foreignKey:UserID"`
	ServiceID    uint       `json:"service_id" gorm:"uniqueIndex:idx_user_service;not null"`
	Service      Service    `json:"service" gorm:"foreignKey:ServiceID"`
	Status       string     `json:"status" gorm:"size:20;default:'pending';not null"`
	RequestDate  time.Time  `json:"request_date" gorm:"not null"`
	ApprovalDate *time.Time `json:"approval_date"`
}

type APIKey struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	KeyString    string     `json:"key_string" gorm:"uniqueIndex;size:32;not null"`
	Description  string     `json:"description" gorm:"size:255"`
	UserID       uint       `json:"user_id" gorm:"index;not null"`
	User         User       `json:"-" gorm:"foreignKey:UserID"`
	IsActive     bool       `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUsedAt   *time.Time `json:"last_used_at"`
	UsageCount   int        `json:"usage_count" gorm:"default:0"`
	DailyLimit   int        `json:"daily_limit" gorm:"default:1000"`
	MonthlyLimit int        `json:"monthly_limit" gorm:"default:5000"`
}

// UsageLog is an append-only audit record of one access event. Rows are
// created once and never mutated; no update surface exists anywhere.
type UsageLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"index;not null"`
	ServiceID  uint      `json:"service_id" gorm:"index"`
	APIKeyID   *uint     `json:"api_key_id" gorm:"index"`
	Endpoint   string    `json:"endpoint" gorm:"size:255"`
	UsageType  string    `json:"usage_type" gorm:"size:20;not null"`
	UsageCount int       `json:"usage_count" gorm:"default:1"`
	Timestamp  time.Time `json:"timestamp" gorm:"index;not null"`
	RemoteAddr string    `json:"remote_addr" gorm:"size:64"`
	StatusCode int       `json:"status_code"`
}

// Prediction result discriminants.
const (
	ResultTypeIris = "iris"
	ResultTypeLoan = "loan"
)

// PredictionResult stores one prediction per row. Shared columns are stored
// once; ResultType selects which variant's payload columns are meaningful.
type PredictionResult struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	UserID         uint      `json:"user_id" gorm:"index;not null"`
	ServiceID      uint      `json:"service_id" gorm:"index;not null"`
	APIKeyID       *uint     `json:"api_key_id" gorm:"index"`
	PredictedClass string    `json:"predicted_class" gorm:"size:64"`
	ConfirmedClass string    `json:"confirmed_class" gorm:"size:64"`
	Confirmed      bool      `json:"confirmed" gorm:"default:false"`
	ResultType     string    `json:"result_type" gorm:"size:20;index;not null"`
	CreatedAt      time.Time `json:"created_at"`

	// Iris variant
	SepalLength *float64 `json:"sepal_length,omitempty"`
	SepalWidth  *float64 `json:"sepal_width,omitempty"`
	PetalLength *float64 `json:"petal_length,omitempty"`
	PetalWidth  *float64 `json:"petal_width,omitempty"`

	// Loan variant
	LoanAmount      *float64 `json:"loan_amount,omitempty"`
	LoanTermMonths  *int     `json:"loan_term_months,omitempty"`
	ApplicantIncome *float64 `json:"applicant_income,omitempty"`
}
