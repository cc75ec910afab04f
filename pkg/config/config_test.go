package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("MEDIA_BACKEND", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "file", cfg.StoreBackend)
	assert.Equal(t, "inline", cfg.MediaBackend)
	assert.Equal(t, "memory", cfg.SessionBackend)
	assert.Equal(t, 100, cfg.FeedLimit)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("RECONCILE_INTERVAL", "0s")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreBackend)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Zero(t, cfg.ReconcileInterval)
	assert.Equal(t, 4, cfg.BcryptCost)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown store", map[string]string{"STORE_BACKEND": "cassandra"}},
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres", "POSTGRES_URL": ""}},
		{"minio without endpoint", map[string]string{"MEDIA_BACKEND": "minio", "MINIO_ENDPOINT": ""}},
		{"bad duration", map[string]string{"SESSION_TTL": "forever"}},
		{"bad int", map[string]string{"FEED_LIMIT": "many"}},
		{"zero feed limit", map[string]string{"FEED_LIMIT": "0"}},
		{"bad log level", map[string]string{"LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
