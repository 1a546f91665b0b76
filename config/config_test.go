package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.OTP.ResendCooldown)
	assert.Equal(t, 25, cfg.Orders.ReadyTime)
	assert.Equal(t, "strict", cfg.Orders.StatusPolicy)
	assert.Equal(t, "reject", cfg.Orders.UnresolvedItems)
	assert.Equal(t, 240*time.Hour, cfg.Offers.Validity)
	assert.Equal(t, "dev-session-secret", cfg.Session.Secret)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FOODAPI_MONGO_DATABASE", "orders_test")
	t.Setenv("FOODAPI_SESSION_TTL", "2h")
	t.Setenv("FOODAPI_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FOODAPI_ORDERS_UNRESOLVED_ITEMS", "drop")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "orders_test", cfg.Mongo.Database)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "drop", cfg.Orders.UnresolvedItems)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, t.TempDir())
	body := "env: staging\norders:\n  status_policy: open\nsession:\n  secret: s3cret\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "open", cfg.Orders.StatusPolicy)
	assert.Equal(t, "s3cret", cfg.Session.Secret)
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FOODAPI_ORDERS_STATUS_POLICY", "anything")

	_, err := Load()
	assert.ErrorContains(t, err, "status_policy")
}

func TestProductionRequiresSecret(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FOODAPI_ENV", "production")

	_, err := Load()
	assert.ErrorContains(t, err, "session.secret")
}
