package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "postgres://localhost:5432/workforce")
	t.Setenv("INITIAL_ADMIN_PASSWORD", "secret")
	t.Setenv("INITIAL_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("RABBITMQ_DSN", "amqp://localhost:5672")
	t.Setenv("REDIS_PASSWORD", "redis-secret")
	t.Setenv("EMAIL_SMTP_USERNAME", "mailer")
	t.Setenv("EMAIL_SMTP_PASSWORD", "mail-secret")
	t.Setenv("EMAIL_SMTP_HOST", "smtp.example.com")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "3000", cfg.Server.Port)
	require.Equal(t, 10, cfg.Database.QueryTimeout)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, 300, cfg.Redis.SolveLockExpiration)
	require.Equal(t, 465, cfg.Email.SMTP.Port)
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	// t.Setenv restores the variable afterwards, the unset makes it missing
	t.Setenv("DATABASE_DSN", "")
	require.NoError(t, os.Unsetenv("DATABASE_DSN"))

	cfg, err := LoadConfig()
	require.Error(t, err)
	require.Nil(t, cfg)
}
