package sessions

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"aiportal-backend/internal/config"
)

// Manager tracks session revocation marks in Redis. Login tokens are
// stateless JWTs; revoking a user writes a timestamp here and the auth
// middleware rejects any token issued before it.
type Manager struct {
	client  *redis.Client
	timeout time.Duration
	ttl     time.Duration
}

// GlobalManager is nil when Redis is not configured; callers must treat a
// nil manager as "no server-side revocation available".
var GlobalManager *Manager

// InitManager initializes the Redis session manager. A missing REDIS_HOST
// leaves the manager disabled rather than failing startup.
func InitManager() error {
	host := config.GetEnv("REDIS_HOST", "")
	if host == "" {
		log.Println("⚠️  REDIS_HOST not set, session revocation disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetEnvInt("REDIS_DB", 0),
	})

	manager := &Manager{
		client:  client,
		timeout: time.Duration(config.GetEnvInt("SESSION_REDIS_TIMEOUT_MS", 1500)) * time.Millisecond,
		ttl:     time.Duration(config.GetEnvInt("SESSION_TTL_HOURS", 25)) * time.Hour,
	}

	ctx, cancel := manager.withTimeout()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	GlobalManager = manager
	log.Println("✅ Session manager connected to Redis")
	return nil
}

func (m *Manager) withTimeout() (context.Context, context.CancelFunc) {
	timeout := m.timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func revocationKey(userID uint) string {
	return fmt.Sprintf("session:revoked_at:%d", userID)
}

// RevokeUser invalidates every session token issued to the user before now.
func (m *Manager) RevokeUser(userID uint) error {
	ctx, cancel := m.withTimeout()
	defer cancel()

	err := m.client.Set(ctx, revocationKey(userID), time.Now().Unix(), m.ttl).Err()
	if err != nil {
		return fmt.Errorf("revoke sessions for user %d: %w", userID, err)
	}
	return nil
}

// IsRevoked reports whether a token issued at issuedAt has been revoked.
func (m *Manager) IsRevoked(userID uint, issuedAt time.Time) bool {
	ctx, cancel := m.withTimeout()
	defer cancel()

	value, err := m.client.Get(ctx, revocationKey(userID)).Result()
	if err != nil {
		// Missing key or Redis trouble both mean "not revoked"; sessions
		// must not break when Redis is unavailable.
		return false
	}

	revokedAt, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false
	}
	return !issuedAt.After(time.Unix(revokedAt, 0))
}
