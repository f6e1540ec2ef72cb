package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Database.Driver)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, 5, cfg.Database.TxMaxAttempts)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.CatalogRefresh)
	assert.False(t, cfg.Redis.Enabled)
	assert.True(t, cfg.Features.IsEnabled(FeatureRewardEvaluation))
	assert.True(t, cfg.IsDevelopment())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://app@localhost:5432/lifequest")
	t.Setenv("DB_MAX_CONNS", "20")
	t.Setenv("DB_TX_MAX_ATTEMPTS", "8")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SCHEDULER_CATALOG_REFRESH", "90s")
	t.Setenv("FEATURE_EVENTS_AUDIT_LOG", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 8, cfg.Database.TxMaxAttempts)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.Scheduler.CatalogRefresh)
	assert.False(t, cfg.Features.IsEnabled(FeatureAuditLog))
}

func TestFromEnv_DatabaseURLFromParts(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "lifequest")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:pw@db:5432/lifequest?sslmode=disable", cfg.Database.URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "postgres without url", env: map[string]string{"STORAGE_DRIVER": "postgres", "DATABASE_URL": "", "DB_HOST": ""}, want: "DATABASE_URL is required"},
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "sqlite"}, want: "STORAGE_DRIVER must be"},
		{name: "memory in production", env: map[string]string{"STORAGE_DRIVER": "memory", "APP_ENV": "production", "HTTP_SERVICE_TOKEN_HASH": "x"}, want: "not allowed in production"},
		{name: "no token in production", env: map[string]string{"STORAGE_DRIVER": "postgres", "DATABASE_URL": "postgres://x", "APP_ENV": "production"}, want: "HTTP_SERVICE_TOKEN_HASH is required"},
		{name: "zero attempts", env: map[string]string{"STORAGE_DRIVER": "memory", "DB_TX_MAX_ATTEMPTS": "0"}, want: "DB_TX_MAX_ATTEMPTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFeatureFlags(t *testing.T) {
	ff := LoadFeatureFlags()

	require.NoError(t, ff.DisableFeature(FeatureLevelCache))
	assert.False(t, ff.IsEnabled(FeatureLevelCache))
	require.NoError(t, ff.EnableFeature(FeatureLevelCache))
	assert.True(t, ff.IsEnabled(FeatureLevelCache))

	assert.ErrorIs(t, ff.EnableFeature("nope"), ErrFeatureNotFound)
	assert.False(t, ff.IsEnabled("nope"))
	assert.Contains(t, ff.Names(), FeatureCatalogRefresh)

	var nilFlags *FeatureFlags
	assert.False(t, nilFlags.IsEnabled(FeatureAuditLog))
}
