package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.BalanceCacheTTL)
	assert.Equal(t, "withdrawal.events", cfg.NotificationTopic)
	assert.Equal(t, "8080", cfg.ServerPort)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "bank_prod")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("BALANCE_CACHE_TTL", "30s")
	t.Setenv("NOTIFICATION_TOPIC", "arn:aws:sns:eu-west-1:123:withdrawals")
	t.Setenv("NOTIFICATION_REGION", "eu-west-1")

	cfg := Load()

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 30*time.Second, cfg.BalanceCacheTTL)
	assert.Equal(t, "arn:aws:sns:eu-west-1:123:withdrawals", cfg.NotificationTopic)
	assert.Equal(t, "eu-west-1", cfg.NotificationRegion)
}

func TestGetDBConnectionString(t *testing.T) {
	cfg := &Config{
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "postgres",
		DBPassword: "password",
		DBName:     "bank",
		DBSSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=password dbname=bank sslmode=disable",
		cfg.GetDBConnectionString())
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("BALANCE_CACHE_TTL", "not-a-duration")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.BalanceCacheTTL)
}
